package public

import (
	handlershared "github.com/holdcart/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

// 包内转发 handlers/shared 的小工具，让处理器代码保持短调用。

func getUserID(c *gin.Context) (uint, bool) {
	return handlershared.UserIDFromContext(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func normalizePagination(page, pageSize int) (int, int) {
	return handlershared.NormalizePagination(page, pageSize)
}
