package public

import (
	"net/http"
	"time"

	"github.com/prepmood-verify/internal/constants"

	"github.com/gin-gonic/gin"
)

// Health 健康检查 GET /health
// 纯进程存活探针：不触达存储层，存储故障由验证路径自行暴露。
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   constants.ServiceName,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// Home 首页 GET /
func (h *Handler) Home(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{})
}
