package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"superstore-analytics/internal/models"
)

func testSummary() models.AnalyticsSummary {
	return models.AnalyticsSummary{
		TotalSales:      1009,
		TotalProfit:     268,
		TotalOrders:     3,
		TotalQuantity:   7,
		UniqueCustomers: 2,
		UniqueProducts:  3,
		SalesByRegion: []models.RegionSales{
			{Region: "South", Sales: 994, Profit: 262, Orders: 2, Quantity: 5, Customers: 1},
			{Region: "West", Sales: 15, Profit: 7, Orders: 1, Quantity: 2, Customers: 1},
		},
		SalesByCategory: []models.GroupSales{{Name: "Furniture", Sales: 994, Orders: 2}},
		MonthlyTrends:   []models.MonthlyTrend{{Month: "2016-06", Sales: 15, Orders: 1}, {Month: "2016-11", Sales: 994, Orders: 2}},
		TopProducts:     []models.ProductSales{{Product: "Chairs", Sales: 732}},
	}
}

func TestWriteReport(t *testing.T) {
	info := models.DatasetInfo{
		ID:          "ds-1",
		Filename:    "superstore.csv",
		LoadedAt:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		RowsRead:    5,
		RecordsKept: 3,
		RowsDropped: 2,
	}

	var buf bytes.Buffer
	if err := WriteReport(&buf, info, testSummary()); err != nil {
		t.Fatalf("WriteReport() error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("output is not a readable workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	want := []string{"Overview", "Regions", "Categories", "Sub-Categories", "Top States", "Segments", "Ship Modes", "Monthly", "Top Products", "Top Customers"}
	if diff := cmp.Diff(want, sheets); diff != "" {
		t.Errorf("sheet list mismatch (-want +got):\n%s", diff)
	}

	name, _ := f.GetCellValue("Overview", "B1")
	if name != "superstore.csv" {
		t.Errorf("Overview!B1 = %q, want filename", name)
	}

	rows, err := f.GetRows("Regions")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("Regions sheet has %d rows, want header + 2", len(rows))
	}
	if rows[1][0] != "South" || rows[1][1] != "994" {
		t.Errorf("first region row = %v", rows[1])
	}

	monthly, _ := f.GetRows("Monthly")
	if len(monthly) != 3 || monthly[2][0] != "2016-11" {
		t.Errorf("monthly rows = %v", monthly)
	}
}

func TestWriteReport_EmptySummary(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, models.DatasetInfo{}, models.AnalyticsSummary{}); err != nil {
		t.Fatalf("WriteReport() with empty summary error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	rows, _ := f.GetRows("Top Customers")
	if len(rows) != 1 {
		t.Errorf("empty breakdown should only carry its header, got %v", rows)
	}
}

func TestWriteRecommendations(t *testing.T) {
	profile := models.CustomerProfile{ID: "CG-12520", Name: "Claire Gute"}
	recs := []models.ProductRecommendation{
		{ProductName: "Stapler, Heavy Duty", Category: "Office Supplies", SubCategory: "Fasteners", AvgSales: 12.5, PopularityScore: 4},
		{ProductName: "Desk", Category: "Furniture", SubCategory: "Tables", AvgSales: 300, PopularityScore: 2},
	}

	var buf bytes.Buffer
	if err := WriteRecommendations(&buf, profile, recs); err != nil {
		t.Fatalf("WriteRecommendations() error: %v", err)
	}

	got, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}

	want := [][]string{
		recommendationHeader,
		{"CG-12520", "Claire Gute", "1", "Stapler, Heavy Duty", "Office Supplies", "Fasteners", "12.50", "4"},
		{"CG-12520", "Claire Gute", "2", "Desk", "Furniture", "Tables", "300.00", "2"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
}
