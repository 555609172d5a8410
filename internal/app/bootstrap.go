package app

import (
	"errors"

	"github.com/holdcart/internal/config"
	"github.com/holdcart/internal/logger"
	"github.com/holdcart/internal/provider"
	"github.com/holdcart/internal/router"
	"github.com/holdcart/internal/worker"
)

// BuildRunner 按运行模式组装服务。API 与 Worker 共享同一个容器，
// 单进程部署（all）与拆分部署（api / worker）使用同一套装配逻辑。
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	container := provider.NewContainer(cfg)

	var services []Service

	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		services = append(services, NewHTTPService(addr, engine))
	}

	if mode == ModeAll || mode == ModeWorker {
		consumer := worker.NewConsumer(container)
		workerService, err := worker.NewService(&cfg.Queue, consumer)
		switch {
		case err == nil:
			services = append(services, workerService)
		case mode == ModeWorker:
			// 显式要求 worker 模式时队列必须可用
			return nil, err
		default:
			logger.Warnw("worker_service_skipped", "error", err)
		}

		// 对账调度独立于队列消费：队列未启用的单进程部署也保持对账节奏
		scheduler, err := worker.NewAuditScheduler(container)
		if err != nil {
			logger.Warnw("audit_scheduler_skipped", "error", err)
		} else {
			services = append(services, scheduler)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
