package provider

import (
	"github.com/prepmood-verify/internal/config"
	"github.com/prepmood-verify/internal/logger"
	"github.com/prepmood-verify/internal/models"
	"github.com/prepmood-verify/internal/repository"
	"github.com/prepmood-verify/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config *config.Config

	// Repositories
	ProductTokenRepo repository.ProductTokenRepository

	// Services
	VerifyService    *service.VerifyService
	ProvisionService *service.ProvisionService
	AuthService      *service.AuthService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	c := &Container{Config: cfg}

	c.ProductTokenRepo = repository.NewProductTokenRepository(models.DB)

	c.VerifyService = service.NewVerifyService(c.ProductTokenRepo)
	c.ProvisionService = service.NewProvisionService(c.ProductTokenRepo)

	authService, err := service.NewAuthService(cfg.Admin)
	if err != nil {
		logger.Errorw("provider_init_auth_failed", "error", err)
		panic(err)
	}
	c.AuthService = authService
	if !c.AuthService.Enabled() {
		logger.Warnw("admin_api_disabled", "reason", "password_or_jwt_secret_missing")
	}

	return c
}
