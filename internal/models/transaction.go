package models

import "time"

// RawRow is one header-keyed row as produced by the CSV reader. Keys keep
// whatever casing and separators the source file used.
type RawRow map[string]any

// TransactionRecord is one normalized order line. Values are copied, never
// shared, so a record can be handed to any number of readers.
type TransactionRecord struct {
	OrderID      string `json:"order_id"`
	OrderDate    string `json:"order_date"`
	ShipDate     string `json:"ship_date"`
	ShipMode     string `json:"ship_mode"`
	CustomerID   string `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	Segment      string `json:"segment"`
	Country      string `json:"country"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Region       string `json:"region"`
	ProductID    string `json:"product_id"`
	Category     string `json:"category"`
	SubCategory  string `json:"sub_category"`
	ProductName  string `json:"product_name"`

	Sales      float64 `json:"sales"`
	Quantity   int     `json:"quantity"`
	Discount   float64 `json:"discount"`
	Profit     float64 `json:"profit"`
	DaysToShip int     `json:"days_to_ship"`
	Rating     float64 `json:"rating"`
}

type ProductRecommendation struct {
	ProductName     string  `json:"product_name"`
	Category        string  `json:"category"`
	SubCategory     string  `json:"sub_category"`
	AvgSales        float64 `json:"avg_sales"`
	PopularityScore int     `json:"popularity_score"`
}

type CustomerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CustomerProfile struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Segment       string  `json:"segment"`
	Region        string  `json:"region"`
	TotalOrders   int     `json:"total_orders"`
	TotalSpent    float64 `json:"total_spent"`
	AvgOrderValue float64 `json:"avg_order_value"`
}

// ColumnReport is the advisory result of checking a header row against the
// required logical columns.
type ColumnReport struct {
	Valid   bool     `json:"valid"`
	Missing []string `json:"missing"`
	Errors  []string `json:"errors"`
}

type DatasetInfo struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	LoadedAt    time.Time `json:"loaded_at"`
	RowsRead    int       `json:"rows_read"`
	RecordsKept int       `json:"records_kept"`
	RowsDropped int       `json:"rows_dropped"`
}
