package public

import (
	"errors"
	"strconv"
	"strings"

	"github.com/holdcart/internal/constants"
	"github.com/holdcart/internal/http/response"
	"github.com/holdcart/internal/service"

	"github.com/gin-gonic/gin"
)

// GetItems 获取商品 / 套装目录列表
func (h *Handler) GetItems(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	itemType := strings.TrimSpace(c.DefaultQuery("type", constants.ItemTypeProduct))
	keyword := strings.TrimSpace(c.Query("q"))

	records, total, err := h.CatalogService.ListItems(c.Request.Context(), itemType, keyword, page, pageSize)
	if err != nil {
		if errors.Is(err, service.ErrInvalidItemType) {
			respondError(c, response.CodeBadRequest, "error.invalid_item_type", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.catalog_fetch_failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, records, pagination)
}

// GetItem 获取单个商品 / 套装详情
func (h *Handler) GetItem(c *gin.Context) {
	itemType := c.Param("item_type")
	itemID, err := strconv.ParseUint(c.Param("item_id"), 10, 64)
	if err != nil || itemID == 0 {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return
	}

	record, serr := h.CatalogService.GetItem(c.Request.Context(), uint(itemID), itemType)
	if serr != nil {
		switch {
		case errors.Is(serr, service.ErrInvalidItemType):
			respondError(c, response.CodeBadRequest, "error.invalid_item_type", nil)
		case errors.Is(serr, service.ErrItemNotFound):
			respondError(c, response.CodeNotFound, "error.item_not_found", nil)
		default:
			respondError(c, response.CodeInternal, "error.item_fetch_failed", serr)
		}
		return
	}
	response.Success(c, record)
}
