package templates

import (
	"context"
	"strings"
	"testing"

	"superstore-analytics/internal/models"
)

func TestMoneyFormatting(t *testing.T) {
	tests := []struct {
		fn   func(float64) string
		in   float64
		want string
	}{
		{money, 0, "$0"},
		{money, 999.6, "$1,000"},
		{money, 1234567, "$1,234,567"},
		{money, -383.03, "-$383"},
		{cents, 75.25, "$75.25"},
		{cents, 1234.5, "$1,234.50"},
		{cents, -22.43, "-$22.43"},
	}

	for _, tt := range tests {
		if got := tt.fn(tt.in); got != tt.want {
			t.Errorf("format(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if got := number(1234); got != "1,234" {
		t.Errorf("number(1234) = %q", got)
	}
}

func TestSummary(t *testing.T) {
	empty, err := RenderString(context.Background(), Summary(nil))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(empty, `id="summary-content"`) || !strings.Contains(empty, "Nothing to show yet") {
		t.Errorf("empty summary = %q", empty)
	}

	s := &models.AnalyticsSummary{
		TotalSales:     1988,
		TotalOrders:    5,
		SalesByRegion:  []models.RegionSales{{Region: "South", Sales: 994}},
		TopProducts:    []models.ProductSales{{Product: "Tom & Jerry <Mug>", Sales: 10}},
		MonthlyTrends:  []models.MonthlyTrend{{Month: "2016-11", Sales: 994}},
		UndatedRecords: 1,
	}
	out, err := RenderString(context.Background(), Summary(s))
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"$1,988", "South", "2016-11", "Tom &amp; Jerry &lt;Mug&gt;", "left out of monthly trends"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary output missing %q", want)
		}
	}
	if strings.Contains(out, "<Mug>") {
		t.Error("product names must be escaped")
	}
}

func TestCustomerPicker(t *testing.T) {
	out, err := RenderString(context.Background(), CustomerPicker([]models.CustomerRef{
		{ID: "C1", Name: "Adam"},
		{ID: `C"2`, Name: "Zoe"},
	}))
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(out, `data-bind="customerId"`) {
		t.Error("picker should bind the customerId signal")
	}
	if !strings.Contains(out, `value="C1"`) || !strings.Contains(out, `value="C&#34;2"`) {
		t.Errorf("option values not rendered or escaped: %s", out)
	}
}

func TestRecommendations(t *testing.T) {
	prompt, _ := RenderString(context.Background(), Recommendations(nil, nil))
	if !strings.Contains(prompt, "Pick a customer") {
		t.Errorf("nil profile should render the prompt, got %q", prompt)
	}

	profile := &models.CustomerProfile{ID: "C 1", Name: "Claire", Segment: "Consumer", Region: "South", TotalOrders: 2, TotalSpent: 150.5, AvgOrderValue: 75.25}
	none, _ := RenderString(context.Background(), Recommendations(profile, nil))
	if !strings.Contains(none, "No recommendations") || !strings.Contains(none, "$75.25") {
		t.Errorf("profile without recommendations = %q", none)
	}

	out, _ := RenderString(context.Background(), Recommendations(profile, []models.ProductRecommendation{
		{ProductName: "Gadget", Category: "Tech", SubCategory: "Phones", AvgSales: 30, PopularityScore: 2},
	}))
	if !strings.Contains(out, "Gadget") || !strings.Contains(out, "customer_id=C+1") {
		t.Errorf("recommendation output = %q", out)
	}
}

func TestDashboard(t *testing.T) {
	out, err := RenderString(context.Background(), Dashboard(nil, nil))
	if err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{SummaryID, UploadStatusID, CustomerPickerID, RecommendationsID} {
		if !strings.Contains(out, `id="`+id+`"`) {
			t.Errorf("dashboard missing fragment %q", id)
		}
	}
	if !strings.Contains(out, "No dataset loaded") {
		t.Error("dashboard should show the empty upload status")
	}
	if strings.Contains(out, "report.xlsx") {
		t.Error("export link should only appear once a dataset is loaded")
	}
}

func TestSummary_Breakdowns(t *testing.T) {
	s := &models.AnalyticsSummary{
		SalesByCategory:    []models.GroupSales{{Name: "Furniture", Sales: 1200, Orders: 3, Quantity: 7}},
		SalesBySubCategory: []models.GroupSales{{Name: "Tools", Sales: 40}},
		SalesBySegment:     []models.SegmentSales{{Segment: "Home Office", Sales: 300, Customers: 2}},
		SalesByShipMode:    []models.ShipModeSales{{Mode: "Second Class", Sales: 90, Orders: 1, AvgDaysToShip: 2.5}},
		SalesByState:       []models.GroupSales{{Name: "Kentucky", Sales: 50}},
	}
	out, err := RenderString(context.Background(), Summary(s))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		title string
		row   string
	}{
		{"Sales by Category", "<td>Furniture</td><td>$1,200</td>"},
		{"Sales by Sub-Category", "<td>Tools</td>"},
		{"Sales by Segment", "<td>Home Office</td>"},
		{"Sales by Ship Mode", "<td>2.5</td>"},
		{"Top States", "<td>Kentucky</td>"},
	}
	for _, tt := range tests {
		if !strings.Contains(out, "<h3>"+tt.title+"</h3>") {
			t.Errorf("summary missing table %q", tt.title)
		}
		if !strings.Contains(out, tt.row) {
			t.Errorf("%s: missing row %q", tt.title, tt.row)
		}
	}
}

func TestComponents_EscapeUserText(t *testing.T) {
	info := &models.DatasetInfo{Filename: `<b>orders</b>.csv`}
	out, err := RenderString(context.Background(), UploadStatus(info, "", nil))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "&lt;b&gt;orders&lt;/b&gt;.csv") || strings.Contains(out, "<b>orders") {
		t.Errorf("filename not escaped: %s", out)
	}

	out, err = RenderString(context.Background(), UploadStatus(nil, "bad <file>", []string{"Sales", "Order ID"}))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "bad &lt;file&gt;") || !strings.Contains(out, "Missing columns: Sales, Order ID") {
		t.Errorf("error status = %s", out)
	}

	out, err = RenderString(context.Background(), Dashboard(info, nil))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "report.xlsx") {
		t.Error("export link should appear once a dataset is loaded")
	}
	if !strings.Contains(out, "datastar.js") {
		t.Error("dashboard should load the datastar bundle")
	}
}

func TestComponents_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := RenderString(ctx, Summary(nil)); err == nil {
		t.Error("rendering with a cancelled context should fail")
	}
}

func BenchmarkSummary(b *testing.B) {
	s := &models.AnalyticsSummary{
		SalesByRegion: []models.RegionSales{{Region: "South", Sales: 994}, {Region: "West", Sales: 12}},
		TopProducts:   []models.ProductSales{{Product: "Chair", Sales: 10}},
		MonthlyTrends: []models.MonthlyTrend{{Month: "2016-11", Sales: 994}},
	}
	for b.Loop() {
		if _, err := RenderString(context.Background(), Summary(s)); err != nil {
			b.Fatal(err)
		}
	}
}
