package public

import "github.com/holdcart/internal/provider"

// Handler 用户侧接口处理器，商品目录与购物车路由都挂在它上面。
type Handler struct {
	*provider.Container
}

// New 创建用户侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
