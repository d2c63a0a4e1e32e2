package router

import (
	"embed"
	"html/template"

	"github.com/prepmood-verify/internal/config"
	adminhandlers "github.com/prepmood-verify/internal/http/handlers/admin"
	publichandlers "github.com/prepmood-verify/internal/http/handlers/public"
	"github.com/prepmood-verify/internal/logger"
	"github.com/prepmood-verify/internal/provider"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templatesFS embed.FS

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))

	// 验证结果页面模板（编译期内嵌，部署不依赖模板目录）
	r.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))

	// 扫码验证路径与已印刷的二维码绑定，不可变更
	r.GET("/a/:token", publicHandler.VerifyToken)
	r.GET("/health", publicHandler.Health)
	r.GET("/", publicHandler.Home)

	// 管理 API
	apiV1 := r.Group("/api/v1")
	{
		adminGroup := apiV1.Group("/admin")
		{
			adminGroup.POST("/login", adminHandler.Login)

			authed := adminGroup.Group("")
			authed.Use(AdminJWTAuthMiddleware(c.AuthService))
			{
				authed.GET("/stats", adminHandler.Stats)
				authed.GET("/tokens/:token", adminHandler.GetToken)
			}
		}
	}

	return r
}
