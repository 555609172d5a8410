package service

import (
	"context"
	"errors"
	"time"

	"github.com/holdcart/internal/config"
	"github.com/holdcart/internal/constants"
	"github.com/holdcart/internal/locker"
	"github.com/holdcart/internal/logger"
	"github.com/holdcart/internal/models"
	"github.com/holdcart/internal/queue"
	"github.com/holdcart/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartLineView 购物车行视图（用于响应）
type CartLineView struct {
	ItemID      uint         `json:"item_id"`
	ItemType    string       `json:"item_type"`
	Quantity    int          `json:"quantity"`
	UnitPrice   models.Money `json:"unit_price"`
	LineTotal   models.Money `json:"line_total"`
	DisplayName string       `json:"display_name"`
	ImageRef    string       `json:"image_ref"`
	AddedAt     time.Time    `json:"added_at"`
}

// CartView 购物车视图。合计字段派生，不落库。
type CartView struct {
	Items      []CartLineView `json:"items"`
	TotalItems int            `json:"total_items"`
	TotalPrice models.Money   `json:"total_price"`
}

// CartLineInput 批量同步 / 游客合并的输入行。
// 单价与展示字段一律以库存记录为准，不信任客户端。
type CartLineInput struct {
	ItemID   uint   `json:"item_id"`
	ItemType string `json:"item_type"`
	Quantity int    `json:"quantity"`
}

// CartService 购物车与库存的协调服务。
// 加入购物车即预留库存：购物车行的数量变化与 stock 列的增减
// 始终发生在同一事务里，任何一侧单独变化都是缺陷。
type CartService struct {
	cfg          *config.Config
	cartRepo     repository.CartRepository
	invRepo      repository.InventoryRepository
	oversellRepo repository.OversellRepository
	queueClient  *queue.Client
	userLocker   locker.UserLocker
}

// NewCartService 创建购物车服务
func NewCartService(
	cfg *config.Config,
	cartRepo repository.CartRepository,
	invRepo repository.InventoryRepository,
	oversellRepo repository.OversellRepository,
	queueClient *queue.Client,
	userLocker locker.UserLocker,
) *CartService {
	return &CartService{
		cfg:          cfg,
		cartRepo:     cartRepo,
		invRepo:      invRepo,
		oversellRepo: oversellRepo,
		queueClient:  queueClient,
		userLocker:   userLocker,
	}
}

// GetCart 读取用户购物车。只读路径不加用户锁。
func (s *CartService) GetCart(ctx context.Context, userID uint) (*CartView, error) {
	if userID == 0 {
		return nil, ErrInvalidUser
	}
	opCtx, cancel := context.WithTimeout(ctx, s.storageTimeout())
	defer cancel()
	items, err := s.cartRepo.ListByUser(opCtx, userID)
	if err != nil {
		return nil, err
	}
	return buildCartView(items), nil
}

// AddItem 加入购物车并预留库存。
// 已有同条目行时数量累加，单价保留首次加入时捕获的值。
func (s *CartService) AddItem(ctx context.Context, userID, itemID uint, itemType string, quantity int) (*CartView, error) {
	if !constants.IsSupportedItemType(itemType) {
		return nil, ErrInvalidItemType
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	var view *CartView
	err := s.mutate(ctx, userID, func(opCtx context.Context, tx *gorm.DB) error {
		view = nil
		invRepo := s.invRepo.WithTx(tx)
		record, err := invRepo.GetRecord(opCtx, itemID, itemType)
		if err != nil {
			return err
		}
		if record == nil {
			return ErrItemNotFound
		}
		if !record.IsActive {
			return ErrItemNotAvailable
		}

		if _, err := s.adjustStock(opCtx, tx, stockAdjustment{
			userID:   userID,
			itemID:   itemID,
			itemType: itemType,
			delta:    quantity,
			strict:   true,
		}); err != nil {
			return err
		}

		cartRepo := s.cartRepo.WithTx(tx)
		line, err := cartRepo.GetLine(opCtx, userID, itemID, itemType)
		if err != nil {
			return err
		}
		if line == nil {
			line = &models.CartItem{
				UserID:      userID,
				ItemID:      itemID,
				ItemType:    itemType,
				Quantity:    quantity,
				UnitPrice:   record.PriceAmount,
				DisplayName: record.Title,
				ImageRef:    record.ImageURL,
			}
		} else {
			line.Quantity += quantity
			line.DisplayName = record.Title
			line.ImageRef = record.ImageURL
		}
		if err := cartRepo.UpsertLine(opCtx, line); err != nil {
			return err
		}

		view, err = loadCartViewTx(opCtx, cartRepo, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// UpdateQuantity 将行数量调整为 newQuantity。
// 增量部分按严格模式预留，减量部分释放回库存。
func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID uint, itemType string, newQuantity int) (*CartView, error) {
	if !constants.IsSupportedItemType(itemType) {
		return nil, ErrInvalidItemType
	}
	if newQuantity < 1 {
		return nil, ErrInvalidQuantity
	}

	var view *CartView
	err := s.mutate(ctx, userID, func(opCtx context.Context, tx *gorm.DB) error {
		view = nil
		cartRepo := s.cartRepo.WithTx(tx)
		line, err := cartRepo.GetLine(opCtx, userID, itemID, itemType)
		if err != nil {
			return err
		}
		if line == nil {
			return ErrItemNotInCart
		}

		if _, err := s.adjustStock(opCtx, tx, stockAdjustment{
			userID:   userID,
			itemID:   itemID,
			itemType: itemType,
			delta:    newQuantity - line.Quantity,
			strict:   true,
		}); err != nil {
			return err
		}

		if err := cartRepo.SetQuantity(opCtx, userID, itemID, itemType, newQuantity); err != nil {
			return err
		}
		view, err = loadCartViewTx(opCtx, cartRepo, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// RemoveItem 移除购物车行并释放其全部预留。行不存在时幂等成功。
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uint, itemType string) (*CartView, error) {
	if !constants.IsSupportedItemType(itemType) {
		return nil, ErrInvalidItemType
	}

	var view *CartView
	err := s.mutate(ctx, userID, func(opCtx context.Context, tx *gorm.DB) error {
		view = nil
		cartRepo := s.cartRepo.WithTx(tx)
		line, err := cartRepo.GetLine(opCtx, userID, itemID, itemType)
		if err != nil {
			return err
		}
		if line != nil {
			if _, err := s.adjustStock(opCtx, tx, stockAdjustment{
				userID:   userID,
				itemID:   itemID,
				itemType: itemType,
				delta:    -line.Quantity,
				strict:   true,
			}); err != nil {
				return err
			}
			if err := cartRepo.DeleteLine(opCtx, userID, itemID, itemType); err != nil {
				return err
			}
		}
		view, err = loadCartViewTx(opCtx, cartRepo, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ClearCart 清空购物车并释放全部预留
func (s *CartService) ClearCart(ctx context.Context, userID uint) (*CartView, error) {
	var view *CartView
	err := s.mutate(ctx, userID, func(opCtx context.Context, tx *gorm.DB) error {
		view = nil
		cartRepo := s.cartRepo.WithTx(tx)
		lines, err := cartRepo.ListByUser(opCtx, userID)
		if err != nil {
			return err
		}
		for _, line := range lines {
			if _, err := s.adjustStock(opCtx, tx, stockAdjustment{
				userID:   userID,
				itemID:   line.ItemID,
				itemType: line.ItemType,
				delta:    -line.Quantity,
				strict:   true,
			}); err != nil {
				return err
			}
		}
		if err := cartRepo.ClearByUser(opCtx, userID); err != nil {
			return err
		}
		view, err = loadCartViewTx(opCtx, cartRepo, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ReplaceCart 以客户端推送的整车状态为准做批量同步。
// 与现有行逐条目求差：正差按宽松模式预留（不足不阻塞，落超卖台账），
// 负差释放回库存，最后整体替换购物车行。
func (s *CartService) ReplaceCart(ctx context.Context, userID uint, inputs []CartLineInput) (*CartView, error) {
	normalized, err := normalizeLineInputs(inputs)
	if err != nil {
		return nil, err
	}

	var view *CartView
	var events []*models.OversellEvent
	err = s.mutate(ctx, userID, func(opCtx context.Context, tx *gorm.DB) error {
		view = nil
		events = nil
		invRepo := s.invRepo.WithTx(tx)
		cartRepo := s.cartRepo.WithTx(tx)

		current, err := cartRepo.ListByUser(opCtx, userID)
		if err != nil {
			return err
		}
		currentByKey := make(map[lineKey]*models.CartItem, len(current))
		for i := range current {
			currentByKey[lineKeyOf(current[i].ItemID, current[i].ItemType)] = &current[i]
		}

		desired := make([]models.CartItem, 0, len(normalized))
		desiredKeys := make(map[lineKey]struct{}, len(normalized))
		for _, input := range normalized {
			record, err := invRepo.GetRecord(opCtx, input.ItemID, input.ItemType)
			if err != nil {
				return err
			}
			if record == nil || !record.IsActive {
				// 条目已下架或不存在：无法捕获单价，同步时丢弃该行
				logger.Warnw("cart_sync_item_unavailable",
					"user_id", userID,
					"item_id", input.ItemID,
					"item_type", input.ItemType,
					"quantity", input.Quantity,
				)
				continue
			}

			key := lineKeyOf(input.ItemID, input.ItemType)
			existing := currentByKey[key]
			currentQty := 0
			if existing != nil {
				currentQty = existing.Quantity
			}

			event, err := s.adjustStock(opCtx, tx, stockAdjustment{
				userID:   userID,
				itemID:   input.ItemID,
				itemType: input.ItemType,
				delta:    input.Quantity - currentQty,
				strict:   false,
				origin:   constants.OversellOriginReplace,
			})
			if err != nil {
				return err
			}
			if event != nil {
				events = append(events, event)
			}

			line := models.CartItem{
				UserID:      userID,
				ItemID:      input.ItemID,
				ItemType:    input.ItemType,
				Quantity:    input.Quantity,
				UnitPrice:   record.PriceAmount,
				DisplayName: record.Title,
				ImageRef:    record.ImageURL,
			}
			if existing != nil {
				line.UnitPrice = existing.UnitPrice
				line.CreatedAt = existing.CreatedAt
			}
			desired = append(desired, line)
			desiredKeys[key] = struct{}{}
		}

		// 新状态中消失的行：释放其全部预留
		for i := range current {
			key := lineKeyOf(current[i].ItemID, current[i].ItemType)
			if _, kept := desiredKeys[key]; kept {
				continue
			}
			if _, err := s.adjustStock(opCtx, tx, stockAdjustment{
				userID:   userID,
				itemID:   current[i].ItemID,
				itemType: current[i].ItemType,
				delta:    -current[i].Quantity,
				strict:   true,
			}); err != nil {
				return err
			}
		}

		if err := cartRepo.ReplaceByUser(opCtx, userID, desired); err != nil {
			return err
		}
		view, err = loadCartViewTx(opCtx, cartRepo, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notifyOversell(events)
	return view, nil
}

// MergeGuestCart 登录时把游客购物车并入用户购物车。
// 每条游客行都按全量申请预留（宽松模式），同条目与现有行数量相加。
func (s *CartService) MergeGuestCart(ctx context.Context, userID uint, guestLines []CartLineInput) (*CartView, error) {
	normalized, err := normalizeLineInputs(guestLines)
	if err != nil {
		return nil, err
	}

	var view *CartView
	var events []*models.OversellEvent
	err = s.mutate(ctx, userID, func(opCtx context.Context, tx *gorm.DB) error {
		view = nil
		events = nil
		invRepo := s.invRepo.WithTx(tx)
		cartRepo := s.cartRepo.WithTx(tx)

		for _, input := range normalized {
			record, err := invRepo.GetRecord(opCtx, input.ItemID, input.ItemType)
			if err != nil {
				return err
			}
			if record == nil || !record.IsActive {
				logger.Warnw("cart_merge_item_unavailable",
					"user_id", userID,
					"item_id", input.ItemID,
					"item_type", input.ItemType,
					"quantity", input.Quantity,
				)
				continue
			}

			event, err := s.adjustStock(opCtx, tx, stockAdjustment{
				userID:   userID,
				itemID:   input.ItemID,
				itemType: input.ItemType,
				delta:    input.Quantity,
				strict:   false,
				origin:   constants.OversellOriginMerge,
			})
			if err != nil {
				return err
			}
			if event != nil {
				events = append(events, event)
			}

			line, err := cartRepo.GetLine(opCtx, userID, input.ItemID, input.ItemType)
			if err != nil {
				return err
			}
			if line == nil {
				line = &models.CartItem{
					UserID:      userID,
					ItemID:      input.ItemID,
					ItemType:    input.ItemType,
					Quantity:    input.Quantity,
					UnitPrice:   record.PriceAmount,
					DisplayName: record.Title,
					ImageRef:    record.ImageURL,
				}
			} else {
				line.Quantity += input.Quantity
				line.DisplayName = record.Title
				line.ImageRef = record.ImageURL
			}
			if err := cartRepo.UpsertLine(opCtx, line); err != nil {
				return err
			}
		}

		var viewErr error
		view, viewErr = loadCartViewTx(opCtx, cartRepo, userID)
		return viewErr
	})
	if err != nil {
		return nil, err
	}
	s.notifyOversell(events)
	return view, nil
}

// stockAdjustment 单条库存变更请求
type stockAdjustment struct {
	userID   uint
	itemID   uint
	itemType string
	delta    int    // 正数预留，负数释放
	strict   bool   // 严格模式下库存不足即失败；宽松模式容忍超卖
	origin   string // 宽松路径的触发来源，写入超卖台账
}

// adjustStock 所有库存变更的唯一入口，正负两个方向都走存储层的
// 原子条件更新，并发保证集中在这里。宽松模式下预留失败不报错，
// 返回落库后的超卖事件，由调用方决定是否投递告警。
func (s *CartService) adjustStock(ctx context.Context, tx *gorm.DB, adj stockAdjustment) (*models.OversellEvent, error) {
	if adj.delta == 0 {
		return nil, nil
	}
	invRepo := s.invRepo.WithTx(tx)

	if adj.delta < 0 {
		ok, err := invRepo.Release(ctx, adj.itemID, adj.itemType, -adj.delta)
		if err != nil {
			return nil, err
		}
		if !ok {
			// 库存记录已被删除，释放无处可去；移除/清空不应因此失败
			logger.Warnw("stock_release_missing_record",
				"user_id", adj.userID,
				"item_id", adj.itemID,
				"item_type", adj.itemType,
				"quantity", -adj.delta,
			)
		}
		return nil, nil
	}

	ok, err := invRepo.TryReserve(ctx, adj.itemID, adj.itemType, adj.delta)
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, nil
	}

	record, err := invRepo.GetRecord(ctx, adj.itemID, adj.itemType)
	if err != nil {
		return nil, err
	}
	if adj.strict {
		if record == nil {
			return nil, ErrItemNotFound
		}
		return nil, ErrInsufficientStock
	}

	available := 0
	if record != nil {
		available = record.Stock
	}
	event := &models.OversellEvent{
		UserID:    adj.userID,
		ItemID:    adj.itemID,
		ItemType:  adj.itemType,
		Requested: adj.delta,
		Available: available,
		Origin:    adj.origin,
	}
	if err := s.oversellRepo.WithTx(tx).Create(ctx, event); err != nil {
		return nil, err
	}
	logger.Warnw("stock_oversell_tolerated",
		"user_id", adj.userID,
		"item_id", adj.itemID,
		"item_type", adj.itemType,
		"requested", adj.delta,
		"available", available,
		"origin", adj.origin,
	)
	return event, nil
}

// mutate 包住一次购物车变更：先抢用户锁串行化同一用户的并发请求，
// 再在带超时的事务里执行 fn；存储超时 / 冲突做有界重试，重试会整体
// 重跑 fn，因此 fn 必须在开头重置自己捕获的结果变量。
func (s *CartService) mutate(ctx context.Context, userID uint, fn func(opCtx context.Context, tx *gorm.DB) error) error {
	if userID == 0 {
		return ErrInvalidUser
	}

	release, err := s.userLocker.Acquire(ctx, userID)
	if err != nil {
		if errors.Is(err, locker.ErrLockBusy) {
			return ErrCartBusy
		}
		return err
	}
	defer release()

	attempts := s.retryAttempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		opCtx, cancel := context.WithTimeout(ctx, s.storageTimeout())
		err := s.invRepo.Transaction(func(tx *gorm.DB) error {
			return fn(opCtx, tx)
		})
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryableStorageErr(err) {
			return err
		}
		logger.Warnw("cart_storage_retry",
			"user_id", userID,
			"attempt", attempt,
			"error", err,
		)
	}
	return lastErr
}

func (s *CartService) notifyOversell(events []*models.OversellEvent) {
	if len(events) == 0 || s.cfg == nil || !s.cfg.Cart.OversellAlerts {
		return
	}
	for _, event := range events {
		payload := queue.StockOversellPayload{
			UserID:    event.UserID,
			ItemID:    event.ItemID,
			ItemType:  event.ItemType,
			Requested: event.Requested,
			Available: event.Available,
			Origin:    event.Origin,
		}
		if err := s.queueClient.EnqueueStockOversell(payload); err != nil {
			logger.Errorw("stock_oversell_enqueue_failed",
				"user_id", event.UserID,
				"item_id", event.ItemID,
				"error", err,
			)
		}
	}
}

func (s *CartService) storageTimeout() time.Duration {
	ms := 0
	if s.cfg != nil {
		ms = s.cfg.Cart.StorageTimeoutMs
	}
	if ms <= 0 {
		ms = constants.StorageTimeoutMsDefault
	}
	return time.Duration(ms) * time.Millisecond
}

func (s *CartService) retryAttempts() int {
	attempts := 0
	if s.cfg != nil {
		attempts = s.cfg.Cart.StorageRetryAttempts
	}
	if attempts <= 0 {
		attempts = constants.StorageRetryAttemptsDefault
	}
	return attempts
}

func isRetryableStorageErr(err error) bool {
	return errors.Is(err, repository.ErrStorageTimeout) || errors.Is(err, repository.ErrStorageConflict)
}

type lineKey struct {
	itemID   uint
	itemType string
}

func lineKeyOf(itemID uint, itemType string) lineKey {
	return lineKey{itemID: itemID, itemType: itemType}
}

// normalizeLineInputs 校验输入行并合并重复条目（数量相加），保持首次出现的顺序。
func normalizeLineInputs(inputs []CartLineInput) ([]CartLineInput, error) {
	normalized := make([]CartLineInput, 0, len(inputs))
	index := make(map[lineKey]int, len(inputs))
	for _, input := range inputs {
		if !constants.IsSupportedItemType(input.ItemType) {
			return nil, ErrInvalidItemType
		}
		if input.ItemID == 0 {
			return nil, ErrItemNotFound
		}
		if input.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		key := lineKeyOf(input.ItemID, input.ItemType)
		if pos, ok := index[key]; ok {
			normalized[pos].Quantity += input.Quantity
			continue
		}
		index[key] = len(normalized)
		normalized = append(normalized, input)
	}
	return normalized, nil
}

func loadCartViewTx(ctx context.Context, cartRepo repository.CartRepository, userID uint) (*CartView, error) {
	items, err := cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return buildCartView(items), nil
}

func buildCartView(items []models.CartItem) *CartView {
	view := &CartView{Items: make([]CartLineView, 0, len(items))}
	total := decimal.Zero
	for _, item := range items {
		lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		view.Items = append(view.Items, CartLineView{
			ItemID:      item.ItemID,
			ItemType:    item.ItemType,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   models.NewMoneyFromDecimal(lineTotal),
			DisplayName: item.DisplayName,
			ImageRef:    item.ImageRef,
			AddedAt:     item.CreatedAt,
		})
		view.TotalItems += item.Quantity
		total = total.Add(lineTotal)
	}
	view.TotalPrice = models.NewMoneyFromDecimal(total)
	return view
}
