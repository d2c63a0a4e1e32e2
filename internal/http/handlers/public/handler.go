package public

import "github.com/prepmood-verify/internal/provider"

// Handler 公开接口处理器入口（扫码验证、健康检查、首页）
type Handler struct {
	*provider.Container
}

// New 创建公开处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
