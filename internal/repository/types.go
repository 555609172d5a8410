package repository

// InventoryListFilter 查询库存目录的过滤条件
type InventoryListFilter struct {
	Page       int
	PageSize   int
	ItemType   string
	Query      string
	OnlyActive bool
}

// ReservedTotal 购物车按条目聚合出的预留数量
type ReservedTotal struct {
	ItemID   uint   `json:"item_id"`
	ItemType string `json:"item_type"`
	Total    int    `json:"total"`
}
