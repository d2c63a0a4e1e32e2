package main

import (
	"errors"
	"flag"

	"github.com/prepmood-verify/internal/config"
	"github.com/prepmood-verify/internal/logger"
	"github.com/prepmood-verify/internal/models"
	"github.com/prepmood-verify/internal/repository"
	"github.com/prepmood-verify/internal/service"
)

// 独立的 token 批量导入工具。
// 与服务启动时的开机导入语义一致：库非空时跳过，可安全重复执行。
func main() {
	var (
		source  string
		pattern string
	)
	flag.StringVar(&source, "source", "", "导入文件路径（csv 或 xlsx），优先于 -pattern")
	flag.StringVar(&pattern, "pattern", "", "glob 模式，命中多个文件时取字典序最后一个")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if source == "" {
		source = cfg.Provision.Source
	}
	if pattern == "" {
		pattern = cfg.Provision.Pattern
	}

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	repo := repository.NewProductTokenRepository(models.DB)
	provision := service.NewProvisionService(repo)

	result, err := provision.LoadIfEmpty(source, pattern)
	if errors.Is(err, service.ErrNoProvisionSource) {
		stdLog.Fatalf("未找到导入文件: %v", err)
	}
	if err != nil {
		stdLog.Fatalf("导入失败: %v", err)
	}

	if result.SkippedNotEmpty {
		stdLog.Printf("库非空，已跳过导入")
		return
	}
	stdLog.Printf("导入完成: file=%s loaded=%d skipped_invalid=%d skipped_duplicate=%d",
		result.File, result.Loaded, result.SkippedInvalid, result.SkippedDuplicate)
}
