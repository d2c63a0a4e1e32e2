package admin

import (
	"errors"
	"strings"

	"github.com/prepmood-verify/internal/http/handlers/shared"
	"github.com/prepmood-verify/internal/http/response"
	"github.com/prepmood-verify/internal/service"

	"github.com/gin-gonic/gin"
)

// LoginRequest 管理登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 管理登录 POST /api/v1/admin/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "用户名和口令不能为空")
		return
	}

	token, expiresAt, err := h.AuthService.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAdminDisabled) {
			response.Unauthorized(c, "管理接口未启用")
			return
		}
		if errors.Is(err, service.ErrInvalidCredentials) {
			shared.RequestLog(c).Warnw("admin_login_failed", "username", req.Username)
			response.Unauthorized(c, "用户名或口令错误")
			return
		}
		shared.RespondError(c, response.CodeInternal, "登录失败", err)
		return
	}

	response.Success(c, gin.H{
		"token":      token,
		"expires_at": expiresAt,
	})
}

// Stats 令牌验证统计 GET /api/v1/admin/stats
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.VerifyService.Stats()
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "统计查询失败", err)
		return
	}
	response.Success(c, stats)
}

// GetToken 令牌记录查询 GET /api/v1/admin/tokens/:token
// 供客服排查使用的只读查询，不触发任何验证状态迁移。
func (h *Handler) GetToken(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.BadRequest(c, "令牌不能为空")
		return
	}

	record, err := h.VerifyService.Lookup(token)
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "令牌查询失败", err)
		return
	}
	if record == nil {
		shared.RequestLog(c).Infow("admin_token_not_found", "token", service.MaskToken(token))
		response.NotFound(c, "令牌不存在")
		return
	}
	response.Success(c, record)
}
