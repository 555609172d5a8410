package queue

import (
	"encoding/json"

	"github.com/holdcart/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskStockOversell 超卖事件告警任务
	TaskStockOversell = constants.TaskStockOversell
	// TaskStockAudit 库存对账任务
	TaskStockAudit = constants.TaskStockAudit
)

// StockOversellPayload 超卖事件告警任务载荷
type StockOversellPayload struct {
	UserID    uint   `json:"user_id"`
	ItemID    uint   `json:"item_id"`
	ItemType  string `json:"item_type"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
	Origin    string `json:"origin"`
}

// StockAuditPayload 库存对账任务载荷
type StockAuditPayload struct {
	Reason string `json:"reason"` // 触发原因（periodic/manual）
}

// NewStockOversellTask 创建超卖告警任务
func NewStockOversellTask(payload StockOversellPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockOversell, body), nil
}

// NewStockAuditTask 创建库存对账任务
func NewStockAuditTask(payload StockAuditPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockAudit, body), nil
}
