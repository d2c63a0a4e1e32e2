package public

import (
	"net/http"
	"strings"
	"time"

	"github.com/prepmood-verify/internal/constants"
	"github.com/prepmood-verify/internal/http/handlers/shared"
	"github.com/prepmood-verify/internal/service"

	"github.com/gin-gonic/gin"
)

// VerifyToken 扫码验证入口 GET /a/:token
// 三种结果都返回 HTTP 200，仅靠页面内容区分——状态码不向扫描器泄露验证语义。
// 存储层故障渲染通用故障页（500），绝不能把故障当成"未登记"展示。
func (h *Handler) VerifyToken(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))

	result, err := h.VerifyService.Verify(token, time.Now())
	if err != nil {
		shared.RequestLog(c).Errorw("verify_failed",
			"token", service.MaskToken(token),
			"error", err,
		)
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{})
		return
	}

	switch result.Outcome {
	case constants.VerifyOutcomeFirstScan:
		c.HTML(http.StatusOK, "success.html", gin.H{
			"ProductName":  result.Record.ProductName,
			"InternalCode": result.Record.InternalCode,
			"VerifiedAt":   formatVerifiedAt(result.Record.FirstVerifiedAt),
		})
	case constants.VerifyOutcomeRescan:
		c.HTML(http.StatusOK, "warning.html", gin.H{
			"ProductName":     result.Record.ProductName,
			"InternalCode":    result.Record.InternalCode,
			"FirstVerifiedAt": formatVerifiedAt(result.Record.FirstVerifiedAt),
			"ScanCount":       result.Record.ScanCount,
		})
	default:
		c.HTML(http.StatusOK, "fake.html", gin.H{})
	}
}

func formatVerifiedAt(at *time.Time) string {
	if at == nil {
		return ""
	}
	return at.Format(constants.VerifiedAtDisplayLayout)
}
