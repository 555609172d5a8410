package service

import (
	"context"
	"time"

	"github.com/holdcart/internal/constants"
	"github.com/holdcart/internal/logger"
	"github.com/holdcart/internal/models"
	"github.com/holdcart/internal/repository"
)

const (
	auditPageSize       = 200
	auditRecentOversell = 20

	// AuditFindingNegativeStock 库存为负，预留不变量被打破
	AuditFindingNegativeStock = "negative_stock"
	// AuditFindingReservedWithoutRecord 购物车仍持有已删除条目的预留
	AuditFindingReservedWithoutRecord = "reserved_without_record"

	// AuditReasonPeriodic 周期任务触发
	AuditReasonPeriodic = "periodic"
	// AuditReasonManual 手动触发
	AuditReasonManual = "manual"
)

// AuditFinding 对账发现的单条异常
type AuditFinding struct {
	ItemID   uint   `json:"item_id"`
	ItemType string `json:"item_type"`
	Stock    int    `json:"stock"`
	Reserved int    `json:"reserved"`
	Reason   string `json:"reason"`
}

// AuditReport 一轮库存对账的结果
type AuditReport struct {
	Reason         string                 `json:"reason"`
	CheckedItems   int                    `json:"checked_items"`
	ReservedLines  int                    `json:"reserved_lines"`
	Findings       []AuditFinding         `json:"findings"`
	RecentOversell []models.OversellEvent `json:"recent_oversell"`
	StartedAt      time.Time              `json:"started_at"`
	FinishedAt     time.Time              `json:"finished_at"`
}

// AuditService 库存对账服务。宽松路径容忍超卖、释放可能落空，
// 需要周期性比对购物车预留与库存计数，把异常暴露给运营。
type AuditService struct {
	cartRepo     repository.CartRepository
	invRepo      repository.InventoryRepository
	oversellRepo repository.OversellRepository
}

// NewAuditService 创建对账服务
func NewAuditService(
	cartRepo repository.CartRepository,
	invRepo repository.InventoryRepository,
	oversellRepo repository.OversellRepository,
) *AuditService {
	return &AuditService{
		cartRepo:     cartRepo,
		invRepo:      invRepo,
		oversellRepo: oversellRepo,
	}
}

// Run 执行一轮对账：全量扫描库存记录找负库存，
// 再比对购物车聚合找指向已删除条目的预留。
func (s *AuditService) Run(ctx context.Context, reason string) (*AuditReport, error) {
	report := &AuditReport{
		Reason:    reason,
		StartedAt: time.Now(),
	}

	totals, err := s.cartRepo.ReservedTotals(ctx)
	if err != nil {
		return nil, err
	}
	report.ReservedLines = len(totals)
	reservedByKey := make(map[lineKey]int, len(totals))
	for _, total := range totals {
		reservedByKey[lineKeyOf(total.ItemID, total.ItemType)] = total.Total
	}

	seen := make(map[lineKey]struct{})
	for _, itemType := range constants.SupportedItemTypes {
		if err := s.scanItemType(ctx, itemType, reservedByKey, seen, report); err != nil {
			return nil, err
		}
	}

	for _, total := range totals {
		key := lineKeyOf(total.ItemID, total.ItemType)
		if _, ok := seen[key]; ok {
			continue
		}
		report.Findings = append(report.Findings, AuditFinding{
			ItemID:   total.ItemID,
			ItemType: total.ItemType,
			Reserved: total.Total,
			Reason:   AuditFindingReservedWithoutRecord,
		})
	}

	recent, err := s.oversellRepo.ListRecent(ctx, auditRecentOversell)
	if err != nil {
		return nil, err
	}
	report.RecentOversell = recent
	report.FinishedAt = time.Now()

	for _, finding := range report.Findings {
		logger.Warnw("stock_audit_finding",
			"reason", finding.Reason,
			"item_id", finding.ItemID,
			"item_type", finding.ItemType,
			"stock", finding.Stock,
			"reserved", finding.Reserved,
		)
	}
	logger.Infow("stock_audit_finished",
		"reason", report.Reason,
		"checked_items", report.CheckedItems,
		"reserved_lines", report.ReservedLines,
		"findings", len(report.Findings),
		"elapsed_ms", report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
	)
	return report, nil
}

func (s *AuditService) scanItemType(
	ctx context.Context,
	itemType string,
	reservedByKey map[lineKey]int,
	seen map[lineKey]struct{},
	report *AuditReport,
) error {
	for page := 1; ; page++ {
		records, total, err := s.invRepo.List(ctx, repository.InventoryListFilter{
			Page:     page,
			PageSize: auditPageSize,
			ItemType: itemType,
		})
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		for i := range records {
			record := &records[i]
			key := lineKeyOf(record.ItemID, record.ItemType)
			seen[key] = struct{}{}
			report.CheckedItems++
			if record.Stock < 0 {
				report.Findings = append(report.Findings, AuditFinding{
					ItemID:   record.ItemID,
					ItemType: record.ItemType,
					Stock:    record.Stock,
					Reserved: reservedByKey[key],
					Reason:   AuditFindingNegativeStock,
				})
			}
		}
		if int64(page*auditPageSize) >= total {
			return nil
		}
	}
}
