package worker

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/holdcart/internal/logger"
	"github.com/holdcart/internal/provider"
	"github.com/holdcart/internal/queue"
	"github.com/holdcart/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskStockOversell, c.handleStockOversell)
	mux.HandleFunc(queue.TaskStockAudit, c.handleStockAudit)
}

// handleStockOversell 超卖事件的告警出口。事件本体已在事务内落库，
// 这里补充当前库存快照后输出结构化告警日志，失败不重试。
func (c *Consumer) handleStockOversell(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_stock_oversell_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.StockOversellPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_stock_oversell_unmarshal_failed", "error", err)
		return err
	}
	if payload.ItemID == 0 {
		logger.Debugw("worker_stock_oversell_skip_invalid_payload", "item_id", payload.ItemID)
		return nil
	}

	currentStock := 0
	recordExists := false
	if c.InventoryRepo != nil {
		record, err := c.InventoryRepo.GetRecord(ctx, payload.ItemID, payload.ItemType)
		if err != nil {
			logger.Debugw("worker_stock_oversell_fetch_record_failed",
				"item_id", payload.ItemID,
				"item_type", payload.ItemType,
				"error", err,
			)
		} else if record != nil {
			currentStock = record.Stock
			recordExists = true
		}
	}

	logger.Warnw("worker_stock_oversell_alert",
		"user_id", payload.UserID,
		"item_id", payload.ItemID,
		"item_type", payload.ItemType,
		"requested", payload.Requested,
		"available", payload.Available,
		"origin", payload.Origin,
		"current_stock", currentStock,
		"record_exists", recordExists,
	)
	return nil
}

// handleStockAudit 执行库存对账任务
func (c *Consumer) handleStockAudit(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_stock_audit_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	if c.AuditService == nil {
		logger.Warnw("worker_stock_audit_skip_audit_service_nil")
		return nil
	}
	var payload queue.StockAuditPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_stock_audit_unmarshal_failed", "error", err)
		return err
	}
	reason := strings.TrimSpace(payload.Reason)
	if reason == "" {
		reason = service.AuditReasonManual
	}

	report, err := c.AuditService.Run(ctx, reason)
	if err != nil {
		logger.Warnw("worker_stock_audit_failed", "reason", reason, "error", err)
		return err
	}
	if len(report.Findings) > 0 {
		logger.Warnw("worker_stock_audit_findings",
			"reason", reason,
			"findings", len(report.Findings),
		)
	}
	return nil
}
