// 文件路径: internal/api/requestctx/lang.go
// 模块说明: 在请求 context 中传递协商后的语言标识。
package requestctx

import "context"

// DefaultLanguage is returned when no language was negotiated.
const DefaultLanguage = "en-US"

type languageKey struct{}

// WithLanguage 将语言标识附加到 context 中供下游使用。
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, languageKey{}, lang)
}

// GetLanguage 从 context 中获取语言标识，若未设置则返回 DefaultLanguage。
func GetLanguage(ctx context.Context) string {
	if ctx == nil {
		return DefaultLanguage
	}
	if lang, ok := ctx.Value(languageKey{}).(string); ok && lang != "" {
		return lang
	}
	return DefaultLanguage
}
