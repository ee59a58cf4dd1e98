package i18n

import (
	"net/http"

	"golang.org/x/text/language"
)

// Middleware injects a localizer into every request context. The language
// comes from the request's Accept-Language header when one of the loaded
// locales matches, otherwise from lang.
func Middleware(lang string) func(http.Handler) http.Handler {
	fallback := NewLocalizer(lang)
	fallbackTag := language.Make(lang)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loc, tag := fallback, fallbackTag
			if accept := r.Header.Get("Accept-Language"); accept != "" {
				if best := Match(accept); best != "" {
					loc, tag = NewLocalizer(best, lang), language.Make(best)
				}
			}
			ctx := WithLanguage(WithLocalizer(r.Context(), loc), tag)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
