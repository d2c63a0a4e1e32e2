package app

import (
	"errors"

	"github.com/prepmood-verify/internal/config"
	"github.com/prepmood-verify/internal/logger"
	"github.com/prepmood-verify/internal/provider"
	"github.com/prepmood-verify/internal/router"
	"github.com/prepmood-verify/internal/service"
)

// BuildRunner 构建服务运行器
//
// 启动前先执行开机导入：库为空且存在映射文件时批量写入 token，
// 库非空时导入会自动跳过，保证已有扫码记录不被覆盖。
func BuildRunner(cfg *config.Config) (*Runner, *provider.Container, error) {
	if cfg == nil {
		return nil, nil, errors.New("config is nil")
	}

	container := provider.NewContainer(cfg)

	result, err := container.ProvisionService.LoadIfEmpty(cfg.Provision.Source, cfg.Provision.Pattern)
	switch {
	case errors.Is(err, service.ErrNoProvisionSource):
		// 找不到映射文件不阻塞启动，空库照常对外返回 unknown
		logger.Warnw("provision_source_missing", "error", err)
	case err != nil:
		return nil, nil, err
	case result.SkippedNotEmpty:
		// 已有数据，LoadIfEmpty 内部已记录日志
	default:
		logger.Infow("provision_boot_load",
			"file", result.File,
			"loaded", result.Loaded,
			"skipped_invalid", result.SkippedInvalid,
			"skipped_duplicate", result.SkippedDuplicate,
		)
	}

	engine := router.SetupRouter(cfg, container)
	addr := cfg.Server.Host + ":" + cfg.Server.Port
	httpService := NewHTTPService(addr, engine)

	return NewRunner(httpService), container, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, _, err := BuildRunner(opts.Config)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Config.Server.Mode)
	return RunWithOptions(runner, opts)
}
