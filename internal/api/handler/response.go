package handler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/creamcroissant/subconv/internal/api/requestctx"
	"github.com/creamcroissant/subconv/internal/fetch"
	"github.com/creamcroissant/subconv/internal/profile"
	"github.com/creamcroissant/subconv/internal/service"
	"github.com/creamcroissant/subconv/internal/support/i18n"
)

const (
	contentTypeYAML = "application/yaml; charset=utf-8"
	contentTypeHTML = "text/html; charset=utf-8"

	// retryAfterSeconds is sent with 503 on conversion timeout.
	retryAfterSeconds = 30
)

// sanitizer strips markup from messages that may echo request input.
var sanitizer = sync.OnceValue(bluemonday.StrictPolicy)

// respondHTML writes body as a minimal HTML page. Messages are plain text;
// anything that looks like markup is removed.
func respondHTML(w http.ResponseWriter, status int, lang, message string) {
	w.Header().Set("Content-Type", contentTypeHTML)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	page := fmt.Sprintf("<!doctype html>\n<html lang=\"%s\"><head><meta charset=\"utf-8\"><title>%d %s</title></head>\n<body><p>%s</p></body></html>\n",
		html.EscapeString(lang), status, http.StatusText(status), sanitizer().Sanitize(message))
	if _, err := w.Write([]byte(page)); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

// RespondErrorI18n renders a localized HTML error page.
func RespondErrorI18n(ctx context.Context, w http.ResponseWriter, status int, key string, i18nMgr *i18n.Manager, args ...any) {
	lang := requestctx.GetLanguage(ctx)
	msg := key
	if i18nMgr != nil {
		msg = i18nMgr.Translate(lang, key, args...)
	}
	respondHTML(w, status, lang, msg)
}

// errorResponse maps a conversion error to a status and a message key.
type errorResponse struct {
	status int
	key    string
	args   []any
}

func classifyError(err error) errorResponse {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return errorResponse{status: http.StatusRequestEntityTooLarge, key: "error.body_too_large"}
	case errors.Is(err, service.ErrEmptyRequest):
		return errorResponse{status: http.StatusBadRequest, key: "error.empty_request"}
	case errors.Is(err, service.ErrTimeout):
		return errorResponse{status: http.StatusServiceUnavailable, key: "error.timeout"}
	case errors.Is(err, service.ErrSubscriptionFetch):
		source := ""
		var fe *fetch.Error
		if errors.As(err, &fe) {
			source = fetch.Redact(fe.URL)
		}
		return errorResponse{status: http.StatusBadGateway, key: "error.subscription_fetch", args: []any{source}}
	case errors.Is(err, service.ErrSubscriptionDecode):
		return errorResponse{status: http.StatusBadRequest, key: "error.subscription_decode"}
	case errors.Is(err, profile.ErrInvalidProfile):
		return errorResponse{status: http.StatusInternalServerError, key: "error.profile"}
	default:
		return errorResponse{status: http.StatusInternalServerError, key: "error.internal"}
	}
}

func respondConversionError(ctx context.Context, w http.ResponseWriter, err error, i18nMgr *i18n.Manager) {
	resp := classifyError(err)
	if resp.status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	}
	RespondErrorI18n(ctx, w, resp.status, resp.key, i18nMgr, resp.args...)
}

// setDiagnostics exposes the conversion summary as response headers.
func setDiagnostics(h http.Header, d service.Diagnostics) {
	h.Set("X-Subconv-Conversion-Id", d.ConversionID)
	h.Set("X-Subconv-Links", strconv.Itoa(d.Links))
	h.Set("X-Subconv-Decoded", strconv.Itoa(d.Decoded))
	h.Set("X-Subconv-Dropped", strconv.Itoa(len(d.Dropped)))
	h.Set("X-Subconv-Rule-Sources-Failed", strconv.Itoa(d.RuleSourcesFailed))
}
