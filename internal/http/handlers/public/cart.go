package public

import (
	"strconv"

	"github.com/holdcart/internal/http/response"
	"github.com/holdcart/internal/service"

	"github.com/gin-gonic/gin"
)

// CartItemRequest 购物车单行操作请求（加入 / 调整数量共用）
type CartItemRequest struct {
	ItemID   uint   `json:"item_id" binding:"required"`
	ItemType string `json:"item_type" binding:"required"`
	Quantity int    `json:"quantity"`
}

// CartLineRequest 批量同步 / 合并的输入行
type CartLineRequest struct {
	ItemID   uint   `json:"item_id"`
	ItemType string `json:"item_type"`
	Quantity int    `json:"quantity"`
}

// CartLinesRequest 批量同步 / 合并请求体
type CartLinesRequest struct {
	Items []CartLineRequest `json:"items"`
}

func toCartLineInputs(lines []CartLineRequest) []service.CartLineInput {
	inputs := make([]service.CartLineInput, 0, len(lines))
	for _, line := range lines {
		inputs = append(inputs, service.CartLineInput{
			ItemID:   line.ItemID,
			ItemType: line.ItemType,
			Quantity: line.Quantity,
		})
	}
	return inputs
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	view, err := h.CartService.GetCart(c.Request.Context(), uid)
	if err != nil {
		respondCartError(c, err, "error.cart_fetch_failed")
		return
	}
	response.Success(c, view)
}

// AddCartItem 加入购物车。成功即完成库存预留。
func (h *Handler) AddCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}

	view, err := h.CartService.AddItem(c.Request.Context(), uid, req.ItemID, req.ItemType, req.Quantity)
	if err != nil {
		respondCartError(c, err, "error.cart_update_failed")
		return
	}
	response.Success(c, view)
}

// UpdateCartItem 把购物车行数量调整为目标值
func (h *Handler) UpdateCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}

	view, err := h.CartService.UpdateQuantity(c.Request.Context(), uid, req.ItemID, req.ItemType, req.Quantity)
	if err != nil {
		respondCartError(c, err, "error.cart_update_failed")
		return
	}
	response.Success(c, view)
}

// DeleteCartItem 移除购物车行并释放预留，行不存在时幂等成功
func (h *Handler) DeleteCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	itemType := c.Param("item_type")
	itemID, err := strconv.ParseUint(c.Param("item_id"), 10, 64)
	if err != nil || itemID == 0 {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return
	}

	view, err := h.CartService.RemoveItem(c.Request.Context(), uid, uint(itemID), itemType)
	if err != nil {
		respondCartError(c, err, "error.cart_update_failed")
		return
	}
	response.Success(c, view)
}

// SyncCart 以客户端整车状态为准做批量同步
func (h *Handler) SyncCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CartLinesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}

	view, err := h.CartService.ReplaceCart(c.Request.Context(), uid, toCartLineInputs(req.Items))
	if err != nil {
		respondCartError(c, err, "error.cart_sync_failed")
		return
	}
	response.Success(c, view)
}

// ClearCart 清空购物车并释放全部预留
func (h *Handler) ClearCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	view, err := h.CartService.ClearCart(c.Request.Context(), uid)
	if err != nil {
		respondCartError(c, err, "error.cart_clear_failed")
		return
	}
	response.Success(c, view)
}

// MergeGuestCart 登录后把游客购物车并入用户购物车
func (h *Handler) MergeGuestCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CartLinesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}

	view, err := h.CartService.MergeGuestCart(c.Request.Context(), uid, toCartLineInputs(req.Items))
	if err != nil {
		respondCartError(c, err, "error.cart_merge_failed")
		return
	}
	response.Success(c, view)
}
