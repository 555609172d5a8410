package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 业务结果统一走 HTTP 200，错误语义由 status_code 表达。

// Response 统一响应包体
type Response struct {
	StatusCode int    `json:"status_code"` // 业务状态码，0 表示成功
	Msg        string `json:"msg"`
	Data       any    `json:"data"`
}

// PageResponse 带分页信息的响应包体
type PageResponse struct {
	StatusCode int        `json:"status_code"`
	Msg        string     `json:"msg"`
	Data       any        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Pagination 分页信息
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"total_page"`
}

// Success 成功响应
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		StatusCode: CodeOK,
		Msg:        "success",
		Data:       data,
	})
}

// SuccessWithPage 分页成功响应
func SuccessWithPage(c *gin.Context, data any, pagination Pagination) {
	c.JSON(http.StatusOK, PageResponse{
		StatusCode: CodeOK,
		Msg:        "success",
		Data:       data,
		Pagination: pagination,
	})
}

// Error 业务错误响应，data 中回带 request_id 便于排查
func Error(c *gin.Context, statusCode int, msg string) {
	c.JSON(http.StatusOK, Response{
		StatusCode: statusCode,
		Msg:        msg,
		Data:       withRequestID(c, nil),
	})
}

// Unauthorized 未认证响应
func Unauthorized(c *gin.Context, msg string) {
	Error(c, CodeUnauthorized, msg)
}

func withRequestID(c *gin.Context, data any) any {
	id := contextRequestID(c)
	if id == "" {
		return data
	}
	switch v := data.(type) {
	case nil:
		return gin.H{"request_id": id}
	case gin.H:
		putRequestID(v, id)
		return v
	case map[string]any:
		putRequestID(v, id)
		return v
	default:
		return gin.H{"request_id": id, "data": data}
	}
}

func putRequestID(m map[string]any, id string) {
	if _, ok := m["request_id"]; !ok {
		m["request_id"] = id
	}
}

func contextRequestID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if value, ok := c.Get("request_id"); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}
