package admin

import "github.com/prepmood-verify/internal/provider"

// Handler 管理接口处理器入口（登录、统计、令牌查询）
type Handler struct {
	*provider.Container
}

// New 创建管理处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
