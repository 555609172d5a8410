package router

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/holdcart/internal/cache"
	"github.com/holdcart/internal/config"
	"github.com/holdcart/internal/constants"
	"github.com/holdcart/internal/http/response"
	"github.com/holdcart/internal/i18n"
	"github.com/holdcart/internal/repository"
	"github.com/holdcart/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
)

// corsPolicy 启动时归一化好的跨域放行规则
type corsPolicy struct {
	origins     []string
	wildcard    bool
	credentials bool
	methods     string
	headers     string
	maxAge      string
}

func newCORSPolicy(cfg config.CORSConfig) corsPolicy {
	p := corsPolicy{
		origins:     cfg.AllowedOrigins,
		credentials: cfg.AllowCredentials,
	}
	if len(p.origins) == 0 {
		p.origins = []string{"*"}
	}
	for _, origin := range p.origins {
		if origin == "*" {
			p.wildcard = true
			break
		}
	}

	methods := cfg.AllowedMethods
	if len(methods) == 0 {
		methods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	headers := cfg.AllowedHeaders
	if len(headers) == 0 {
		headers = []string{
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"Authorization",
			"Cache-Control",
			"X-Requested-With",
			"X-CSRF-Token",
		}
	}
	p.methods = strings.Join(methods, ", ")
	p.headers = strings.Join(headers, ", ")
	if cfg.MaxAge > 0 {
		p.maxAge = strconv.Itoa(cfg.MaxAge)
	}
	return p
}

// originFor 计算响应的 Allow-Origin 值，空串表示不放行
func (p corsPolicy) originFor(origin string) string {
	if p.wildcard {
		if p.credentials && origin != "" {
			return origin
		}
		return "*"
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range p.origins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	policy := newCORSPolicy(cfg)
	return func(c *gin.Context) {
		header := c.Writer.Header()
		if origin := policy.originFor(c.GetHeader("Origin")); origin != "" {
			header.Set("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				header.Add("Vary", "Origin")
			}
		}
		if policy.credentials {
			header.Set("Access-Control-Allow-Credentials", "true")
		}
		header.Set("Access-Control-Allow-Headers", policy.headers)
		header.Set("Access-Control-Allow-Methods", policy.methods)
		if policy.maxAge != "" {
			header.Set("Access-Control-Max-Age", policy.maxAge)
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestIDMiddleware 为每个请求补齐并透传请求 ID
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

func requestIDFrom(c *gin.Context) string {
	if value, ok := c.Get(requestIDKey); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}

// LoggerMiddleware 记录访问日志，请求携带错误时提升为 error 级别
func LoggerMiddleware(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.L()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("request_id", requestIDFrom(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			log.Error("request", append(fields, zap.String("errors", c.Errors.String()))...)
			return
		}
		log.Info("request", fields...)
	}
}

// UserJWTAuthMiddleware 用户态鉴权：校验 Bearer Token 并核对账号状态与令牌版本。
// 鉴权快照优先读缓存，未命中时回源数据库并回填。
func UserJWTAuthMiddleware(secretKey string, userRepo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secretKey == "" {
			rejectAuth(c, "error.jwt_secret_missing")
			return
		}
		if userRepo == nil {
			rejectAuth(c, "error.token_invalid")
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			rejectAuth(c, "error.auth_header_missing")
			return
		}
		token, hasPrefix := strings.CutPrefix(header, "Bearer ")
		if !hasPrefix || strings.TrimSpace(token) == "" {
			rejectAuth(c, "error.auth_header_invalid")
			return
		}

		claims, err := service.ParseUserJWT(secretKey, token)
		if err != nil || claims.UserID == 0 {
			rejectAuth(c, "error.token_invalid")
			return
		}

		ctx := c.Request.Context()
		verified := false
		if cached, hit, cacheErr := cache.GetUserAuthState(ctx, claims.UserID); cacheErr == nil && hit && cached != nil {
			if key := claimsDenyKey(claims, cached.Status, cached.TokenVersion, cached.TokenInvalidBefore); key != "" {
				rejectAuth(c, key)
				return
			}
			verified = true
		}
		if !verified {
			user, err := userRepo.GetByID(ctx, claims.UserID)
			if err != nil || user == nil {
				rejectAuth(c, "error.token_invalid")
				return
			}
			if key := claimsDenyKey(claims, user.Status, user.TokenVersion, unixOrZero(user.TokenInvalidBefore)); key != "" {
				rejectAuth(c, key)
				return
			}
			_ = cache.SetUserAuthState(ctx, cache.BuildUserAuthState(user))
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Next()
	}
}

func rejectAuth(c *gin.Context, key string) {
	response.Unauthorized(c, i18n.T(i18n.ResolveLocale(c), key))
	c.Abort()
}

// claimsDenyKey 核对令牌与账号快照，返回拒绝文案的 key，空串表示放行
func claimsDenyKey(claims *service.UserJWTClaims, status string, tokenVersion uint64, invalidBefore int64) string {
	if !userActive(status) {
		return "error.user_disabled"
	}
	if claims.TokenVersion != tokenVersion || !issuedNoEarlierThan(claims.IssuedAt, invalidBefore) {
		return "error.token_revoked"
	}
	return ""
}

// issuedNoEarlierThan 判定签发时间不早于失效水位，invalidBefore<=0 表示未设置
func issuedNoEarlierThan(issuedAt *jwt.NumericDate, invalidBefore int64) bool {
	if invalidBefore <= 0 {
		return true
	}
	if issuedAt == nil {
		return false
	}
	return issuedAt.Unix() >= invalidBefore
}

func unixOrZero(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.Unix()
}

func userActive(status string) bool {
	return strings.ToLower(strings.TrimSpace(status)) == constants.UserStatusActive
}
