package middleware

import (
	"net/http"

	"github.com/creamcroissant/subconv/internal/api/requestctx"
	"github.com/creamcroissant/subconv/internal/support/i18n"
)

// I18n negotiates the response language and stores it in the context.
// Precedence: ?lang=, X-I18N-Lang, Accept-Language.
func I18n(manager *i18n.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pref := r.URL.Query().Get("lang")
			if pref == "" {
				pref = r.Header.Get("X-I18N-Lang")
			}
			if pref == "" {
				pref = r.Header.Get("Accept-Language")
			}
			lang := manager.Match(pref)
			w.Header().Set("Content-Language", lang)
			next.ServeHTTP(w, r.WithContext(requestctx.WithLanguage(r.Context(), lang)))
		})
	}
}
