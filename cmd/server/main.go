package main

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/prepmood-verify/internal/app"
	"github.com/prepmood-verify/internal/config"
	"github.com/prepmood-verify/internal/logger"
	"github.com/prepmood-verify/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
	ansiGreen = "\033[32m"
	ansiCyan  = "\033[36m"
)

func main() {
	printStartupBanner()

	// 加载配置
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	// 管理接口可选；启用时生产环境必须配置强密钥
	if cfg.Admin.JWTSecret != "" && isWeakSecret(cfg.Admin.JWTSecret) {
		if cfg.Server.Mode == "release" {
			stdLog.Fatalf("admin JWT secret 过弱或仍为默认值，请在生产环境中配置强随机密钥")
		}
		stdLog.Printf("警告: admin JWT secret 过弱，建议在生产环境中更换")
	}

	// 初始化数据库
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}

	// 自动迁移数据库表
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

func printStartupBanner() {
	fmt.Println(ansiCyan + "██████╗ ██████╗ ███████╗██████╗     ███╗   ███╗ ██████╗  ██████╗ ██████╗ " + ansiReset)
	fmt.Println(ansiCyan + "██╔══██╗██╔══██╗██╔════╝██╔══██╗    ████╗ ████║██╔═══██╗██╔═══██╗██╔══██╗" + ansiReset)
	fmt.Println(ansiCyan + "██████╔╝██████╔╝█████╗  ██████╔╝    ██╔████╔██║██║   ██║██║   ██║██║  ██║" + ansiReset)
	fmt.Println(ansiCyan + "██╔═══╝ ██╔══██╗██╔══╝  ██╔═══╝     ██║╚██╔╝██║██║   ██║██║   ██║██║  ██║" + ansiReset)
	fmt.Println(ansiCyan + "██║     ██║  ██║███████╗██║         ██║ ╚═╝ ██║╚██████╔╝╚██████╔╝██████╔╝" + ansiReset)
	fmt.Println(ansiCyan + "╚═╝     ╚═╝  ╚═╝╚══════╝╚═╝         ╚═╝     ╚═╝ ╚═════╝  ╚═════╝ ╚═════╝ " + ansiReset)
	fmt.Println(ansiGreen + ansiBold + "Pre.p Mood 정품 인증 서버 (prepmood-auth)" + ansiReset)
	fmt.Println(ansiDim + "--------------------------------------------------------------" + ansiReset)
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	if strings.Contains(normalized, "change-me") ||
		strings.Contains(normalized, "change-in-production") ||
		strings.Contains(normalized, "your-secret-key") {
		return true
	}
	return false
}
