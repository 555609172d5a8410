package worker

import (
	"context"
	"errors"
	"time"

	"github.com/holdcart/internal/logger"
	"github.com/holdcart/internal/provider"
	"github.com/holdcart/internal/queue"
	"github.com/holdcart/internal/service"
)

// AuditScheduler 周期性触发库存对账，独立于 asynq 消费端运行：
// 队列可用时投递任务交给 worker 执行，队列未启用时在本进程直接执行，
// 不跑队列的单进程部署同样保持对账节奏。
type AuditScheduler struct {
	c    *provider.Container
	done chan struct{}
}

// NewAuditScheduler 创建对账调度器
func NewAuditScheduler(c *provider.Container) (*AuditScheduler, error) {
	if c == nil || c.Config == nil || c.AuditService == nil {
		return nil, errors.New("audit service is nil")
	}
	return &AuditScheduler{c: c, done: make(chan struct{})}, nil
}

// Name 服务名称
func (s *AuditScheduler) Name() string { return "audit-scheduler" }

// Start 先立即对账一轮，之后按配置间隔循环；间隔未配置时空转直到停机。
func (s *AuditScheduler) Start(ctx context.Context) error {
	defer close(s.done)
	interval := time.Duration(s.c.Config.Cart.AuditIntervalMinutes) * time.Minute
	if interval <= 0 {
		logger.Infow("worker_stock_audit_loop_disabled")
		<-ctx.Done()
		return nil
	}

	s.runOnce(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// Stop 等待调度循环退出
func (s *AuditScheduler) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runOnce 执行一轮调度：优先投递队列任务，队列未启用时直接执行对账。
func (s *AuditScheduler) runOnce(ctx context.Context) error {
	if s.c.QueueClient.Enabled() {
		payload := queue.StockAuditPayload{Reason: service.AuditReasonPeriodic}
		if err := s.c.QueueClient.EnqueueStockAudit(payload); err != nil {
			logger.Warnw("worker_stock_audit_enqueue_failed", "error", err)
			return err
		}
		return nil
	}
	if _, err := s.c.AuditService.Run(ctx, service.AuditReasonPeriodic); err != nil {
		logger.Warnw("worker_stock_audit_run_failed", "error", err)
		return err
	}
	return nil
}
