package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/holdcart/internal/cache"
	"github.com/holdcart/internal/config"
	"github.com/holdcart/internal/constants"
	publichandlers "github.com/holdcart/internal/http/handlers/public"
	"github.com/holdcart/internal/logger"
	"github.com/holdcart/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestIDMiddleware(), LoggerMiddleware(log), CORSMiddleware(cfg.CORS))

	h := publichandlers.New(c)
	writeLimit := cartWriteLimiter(cfg)

	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/items", h.GetItems)
			public.GET("/items/:item_type/:item_id", h.GetItem)
		}

		// 用户接口，购物车写操作叠加限流
		user := apiV1.Group("/user")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			user.GET("/cart", h.GetCart)
			user.PUT("/cart", writeLimit, h.SyncCart)
			user.DELETE("/cart", writeLimit, h.ClearCart)
			user.POST("/cart/items", writeLimit, h.AddCartItem)
			user.PUT("/cart/items", writeLimit, h.UpdateCartItem)
			user.DELETE("/cart/items/:item_type/:item_id", writeLimit, h.DeleteCartItem)
			user.POST("/cart/merge", writeLimit, h.MergeGuestCart)
		}
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}

func cartWriteLimiter(cfg *config.Config) gin.HandlerFunc {
	rule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:cart_write", redisKeyPrefix(cfg)),
		WindowSeconds: cfg.Security.RateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.RateLimit.MaxRequests,
		MessageKey:    "error.rate_limited",
	}
	if !cfg.Security.RateLimit.Enabled {
		rule.MaxRequests = 0 // 置零即放行
	}
	return RateLimitMiddleware(cache.Client(), rule, KeyByUserID)
}

func redisKeyPrefix(cfg *config.Config) string {
	prefix := strings.TrimSpace(cfg.Redis.Prefix)
	if prefix == "" {
		return constants.RedisPrefixDefault
	}
	return prefix
}
