// 文件路径: internal/api/handler/convert.go
// 模块说明: 订阅转换接口。GET 携带订阅地址，POST 直接上传订阅内容。
package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/creamcroissant/subconv/internal/clash"
	"github.com/creamcroissant/subconv/internal/service"
	"github.com/creamcroissant/subconv/internal/support/i18n"
)

// ConvertHandler serves the conversion endpoints.
type ConvertHandler struct {
	svc    service.ConversionService
	i18n   *i18n.Manager
	logger *slog.Logger
}

// NewConvertHandler 创建转换接口处理器。
func NewConvertHandler(svc service.ConversionService, i18nMgr *i18n.Manager, logger *slog.Logger) *ConvertHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConvertHandler{svc: svc, i18n: i18nMgr, logger: logger}
}

// Hello 根路径探活页。
func (h *ConvertHandler) Hello(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", contentTypeHTML)
	_, _ = io.WriteString(w, "hello!")
}

// Get converts the subscriptions named by repeated url query parameters.
func (h *ConvertHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.convert(w, r, service.Request{SubscriptionURLs: r.URL.Query()["url"]})
}

// Post converts a raw subscription body.
func (h *ConvertHandler) Post(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondConversionError(r.Context(), w, err, h.i18n)
		return
	}
	h.convert(w, r, service.Request{Blob: body})
}

func (h *ConvertHandler) convert(w http.ResponseWriter, r *http.Request, req service.Request) {
	res, err := h.svc.Convert(r.Context(), req)
	if err != nil {
		respondConversionError(r.Context(), w, err, h.i18n)
		return
	}
	out, err := clash.Encode(res.Document)
	if err != nil {
		h.logger.Error("encode document failed", "conversion_id", res.Diagnostics.ConversionID, "error", err)
		RespondErrorI18n(r.Context(), w, http.StatusInternalServerError, "error.internal", h.i18n)
		return
	}
	setDiagnostics(w.Header(), res.Diagnostics)
	w.Header().Set("Content-Type", contentTypeYAML)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		h.logger.Warn("write document failed", "conversion_id", res.Diagnostics.ConversionID, "error", err)
	}
}

// NotFound renders the localized 404 page.
func (h *ConvertHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	RespondErrorI18n(r.Context(), w, http.StatusNotFound, "error.not_found", h.i18n)
}

// RateLimited renders the localized 429 page.
func (h *ConvertHandler) RateLimited(w http.ResponseWriter, r *http.Request) {
	RespondErrorI18n(r.Context(), w, http.StatusTooManyRequests, "error.rate_limited", h.i18n)
}

// Healthz 健康检查。
func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}
