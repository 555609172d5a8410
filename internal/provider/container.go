package provider

import (
	"time"

	"github.com/holdcart/internal/cache"
	"github.com/holdcart/internal/config"
	"github.com/holdcart/internal/locker"
	"github.com/holdcart/internal/logger"
	"github.com/holdcart/internal/models"
	"github.com/holdcart/internal/queue"
	"github.com/holdcart/internal/repository"
	"github.com/holdcart/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	UserLocker  locker.UserLocker

	UserRepo      repository.UserRepository
	InventoryRepo repository.InventoryRepository
	CartRepo      repository.CartRepository
	OversellRepo  repository.OversellRepository

	CartService    *service.CartService
	CatalogService *service.CatalogService
	AuditService   *service.AuditService
}

// NewContainer 组装全部依赖：缓存、队列客户端、仓储与服务。
// API 与 worker 进程共用同一个容器。
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	db := models.DB
	c := &Container{
		Config:        cfg,
		QueueClient:   queueClient,
		UserRepo:      repository.NewUserRepository(db),
		InventoryRepo: repository.NewInventoryRepository(db),
		CartRepo:      repository.NewCartRepository(db),
		OversellRepo:  repository.NewOversellRepository(db),
	}

	c.UserLocker = locker.New(
		cache.Client(),
		time.Duration(cfg.Cart.LockTTLMs)*time.Millisecond,
		time.Duration(cfg.Cart.LockWaitMs)*time.Millisecond,
	)
	c.CartService = service.NewCartService(cfg, c.CartRepo, c.InventoryRepo, c.OversellRepo, c.QueueClient, c.UserLocker)
	c.CatalogService = service.NewCatalogService(c.InventoryRepo)
	c.AuditService = service.NewAuditService(c.CartRepo, c.InventoryRepo, c.OversellRepo)
	return c
}
