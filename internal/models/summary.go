package models

// AnalyticsSummary is the full result of one aggregation pass. It is built
// once per dataset and replaced, never patched.
type AnalyticsSummary struct {
	TotalSales        float64 `json:"total_sales"`
	TotalProfit       float64 `json:"total_profit"`
	TotalOrders       int     `json:"total_orders"`
	TotalQuantity     int     `json:"total_quantity"`
	AvgProfitPerOrder float64 `json:"avg_profit_per_order"`
	UniqueCustomers   int     `json:"unique_customers"`
	UniqueProducts    int     `json:"unique_products"`
	AvgDiscount       float64 `json:"avg_discount"`
	AvgRating         float64 `json:"avg_rating"`

	SalesByRegion      []RegionSales   `json:"sales_by_region"`
	SalesByCategory    []GroupSales    `json:"sales_by_category"`
	SalesBySubCategory []GroupSales    `json:"sales_by_sub_category"`
	SalesBySegment     []SegmentSales  `json:"sales_by_segment"`
	SalesByShipMode    []ShipModeSales `json:"sales_by_ship_mode"`
	SalesByState       []GroupSales    `json:"sales_by_state"`
	MonthlyTrends      []MonthlyTrend  `json:"monthly_trends"`

	TopProducts  []ProductSales  `json:"top_products"`
	TopCustomers []CustomerSales `json:"top_customers"`

	// UndatedRecords counts records whose order date could not be parsed and
	// were therefore left out of MonthlyTrends only.
	UndatedRecords int `json:"undated_records"`
}

// GroupSales is a plain per-key breakdown (category, sub-category, state).
type GroupSales struct {
	Name     string  `json:"name"`
	Sales    float64 `json:"sales"`
	Profit   float64 `json:"profit"`
	Orders   int     `json:"orders"`
	Quantity int     `json:"quantity"`
}

type RegionSales struct {
	Region    string  `json:"region"`
	Sales     float64 `json:"sales"`
	Profit    float64 `json:"profit"`
	Orders    int     `json:"orders"`
	Quantity  int     `json:"quantity"`
	Customers int     `json:"customers"`
}

type SegmentSales struct {
	Segment   string  `json:"segment"`
	Sales     float64 `json:"sales"`
	Profit    float64 `json:"profit"`
	Orders    int     `json:"orders"`
	Quantity  int     `json:"quantity"`
	Customers int     `json:"customers"`
}

type ShipModeSales struct {
	Mode          string  `json:"mode"`
	Sales         float64 `json:"sales"`
	Profit        float64 `json:"profit"`
	Orders        int     `json:"orders"`
	AvgDaysToShip float64 `json:"avg_days_to_ship"`
}

type MonthlyTrend struct {
	Month  string  `json:"month"`
	Sales  float64 `json:"sales"`
	Profit float64 `json:"profit"`
	Orders int     `json:"orders"`
}

type ProductSales struct {
	Product  string  `json:"product"`
	Sales    float64 `json:"sales"`
	Profit   float64 `json:"profit"`
	Quantity int     `json:"quantity"`
}

type CustomerSales struct {
	Customer string  `json:"customer"`
	Sales    float64 `json:"sales"`
	Profit   float64 `json:"profit"`
	Orders   int     `json:"orders"`
}
