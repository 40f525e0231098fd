package square

type errorResponse struct {
	Errors []apiErrorDetail `json:"errors"`
}

type apiErrorDetail struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail"`
}

type money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type catalogListResponse struct {
	Objects []catalogObject `json:"objects"`
	Cursor  string          `json:"cursor"`
}

type catalogObject struct {
	Type         string        `json:"type"`
	ID           string        `json:"id"`
	IsDeleted    bool          `json:"is_deleted"`
	ItemData     *itemData     `json:"item_data,omitempty"`
	CategoryData *categoryData `json:"category_data,omitempty"`
}

type categoryData struct {
	Name string `json:"name"`
}

type itemData struct {
	Name       string            `json:"name"`
	CategoryID string            `json:"category_id"`
	Variations []variationObject `json:"variations"`
	Categories []struct {
		ID string `json:"id"`
	} `json:"categories"`
}

// Variations arrive as nested catalog objects; only their variation data is read.
type variationObject struct {
	ID            string        `json:"id"`
	IsDeleted     bool          `json:"is_deleted"`
	VariationData variationData `json:"item_variation_data"`
}

type variationData struct {
	Name                    string             `json:"name"`
	SKU                     string             `json:"sku"`
	PriceMoney              *money             `json:"price_money,omitempty"`
	InventoryAlertThreshold int64              `json:"inventory_alert_threshold"`
	LocationOverrides       []locationOverride `json:"location_overrides"`
}

type locationOverride struct {
	LocationID              string `json:"location_id"`
	InventoryAlertThreshold int64  `json:"inventory_alert_threshold"`
}

type inventoryCountsRequest struct {
	CatalogObjectIDs []string `json:"catalog_object_ids"`
	LocationIDs      []string `json:"location_ids,omitempty"`
	States           []string `json:"states"`
	Cursor           string   `json:"cursor,omitempty"`
}

type inventoryCountsResponse struct {
	Counts []inventoryCount `json:"counts"`
	Cursor string           `json:"cursor"`
}

type inventoryCount struct {
	CatalogObjectID string `json:"catalog_object_id"`
	State           string `json:"state"`
	LocationID      string `json:"location_id"`
	Quantity        string `json:"quantity"`
}

type locationsResponse struct {
	Locations []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"locations"`
}

type searchOrdersRequest struct {
	LocationIDs []string    `json:"location_ids"`
	Query       ordersQuery `json:"query"`
	Limit       int         `json:"limit,omitempty"`
	Cursor      string      `json:"cursor,omitempty"`
}

type ordersQuery struct {
	Filter ordersFilter `json:"filter"`
	Sort   ordersSort   `json:"sort"`
}

type ordersFilter struct {
	DateTimeFilter dateTimeFilter `json:"date_time_filter"`
	StateFilter    stateFilter    `json:"state_filter"`
}

type dateTimeFilter struct {
	CreatedAt timeRange `json:"created_at"`
}

type timeRange struct {
	StartAt string `json:"start_at"`
	EndAt   string `json:"end_at"`
}

type stateFilter struct {
	States []string `json:"states"`
}

type ordersSort struct {
	SortField string `json:"sort_field"`
	SortOrder string `json:"sort_order"`
}

type searchOrdersResponse struct {
	Orders []order `json:"orders"`
	Cursor string  `json:"cursor"`
}

type order struct {
	ID        string     `json:"id"`
	CreatedAt string     `json:"created_at"`
	LineItems []lineItem `json:"line_items"`
}

type lineItem struct {
	CatalogObjectID string `json:"catalog_object_id"`
	Quantity        string `json:"quantity"`
	TotalMoney      *money `json:"total_money,omitempty"`
}
