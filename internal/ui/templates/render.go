// Package templates holds the dashboard's server-rendered components. The
// markup lives in components.templ; this file has the plain Go the
// components call into. Fragments carry stable ids so datastar can morph
// them in place.
package templates

import (
	"bytes"
	"context"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"superstore-analytics/internal/models"
)

// Fragment ids patched over SSE.
const (
	SummaryID         = "summary-content"
	UploadStatusID    = "upload-status"
	CustomerPickerID  = "customer-picker"
	RecommendationsID = "recommendations-content"
)

const tableRows = 10

// RenderString renders c into a string for SSE element patches.
func RenderString(ctx context.Context, c templ.Component) (string, error) {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type kpi struct {
	Label string
	Value string
}

// table is a titled grid of preformatted cells.
type table struct {
	Title  string
	Header []string
	Rows   [][]string
}

func kpis(s *models.AnalyticsSummary) []kpi {
	return []kpi{
		{"Total Sales", money(s.TotalSales)},
		{"Total Profit", money(s.TotalProfit)},
		{"Orders", number(s.TotalOrders)},
		{"Quantity", number(s.TotalQuantity)},
		{"Customers", number(s.UniqueCustomers)},
		{"Products", number(s.UniqueProducts)},
		{"Avg Profit / Order", cents(s.AvgProfitPerOrder)},
		{"Avg Discount", formatFloat(s.AvgDiscount) + "%"},
		{"Avg Rating", formatFloat(s.AvgRating)},
	}
}

// summaryTables lays out every breakdown of s in dashboard order: regional,
// product, then order views.
func summaryTables(s *models.AnalyticsSummary) []table {
	tables := []table{
		{Title: "Sales by Region", Header: []string{"Region", "Sales", "Profit", "Orders", "Customers"}},
		{Title: "Top States", Header: []string{"State", "Sales", "Profit", "Orders"}},
		{Title: "Sales by Category", Header: []string{"Category", "Sales", "Profit", "Orders", "Quantity"}},
		{Title: "Sales by Sub-Category", Header: []string{"Sub-Category", "Sales", "Profit", "Orders", "Quantity"}},
		{Title: "Top Products", Header: []string{"Product", "Sales", "Profit", "Quantity"}},
		{Title: "Sales by Segment", Header: []string{"Segment", "Sales", "Profit", "Orders", "Customers"}},
		{Title: "Top Customers", Header: []string{"Customer", "Sales", "Profit", "Orders"}},
		{Title: "Sales by Ship Mode", Header: []string{"Ship Mode", "Sales", "Orders", "Avg Days to Ship"}},
		{Title: "Monthly Trends", Header: []string{"Month", "Sales", "Profit", "Orders"}},
	}

	for _, r := range s.SalesByRegion {
		tables[0].Rows = append(tables[0].Rows, []string{r.Region, money(r.Sales), money(r.Profit), number(r.Orders), number(r.Customers)})
	}
	for _, st := range s.SalesByState {
		tables[1].Rows = append(tables[1].Rows, []string{st.Name, money(st.Sales), money(st.Profit), number(st.Orders)})
	}
	tables[2].Rows = groupRows(s.SalesByCategory)
	tables[3].Rows = groupRows(s.SalesBySubCategory)
	for _, p := range head(s.TopProducts, tableRows) {
		tables[4].Rows = append(tables[4].Rows, []string{p.Product, money(p.Sales), money(p.Profit), number(p.Quantity)})
	}
	for _, sg := range s.SalesBySegment {
		tables[5].Rows = append(tables[5].Rows, []string{sg.Segment, money(sg.Sales), money(sg.Profit), number(sg.Orders), number(sg.Customers)})
	}
	for _, c := range head(s.TopCustomers, tableRows) {
		tables[6].Rows = append(tables[6].Rows, []string{c.Customer, money(c.Sales), money(c.Profit), number(c.Orders)})
	}
	for _, m := range s.SalesByShipMode {
		tables[7].Rows = append(tables[7].Rows, []string{m.Mode, money(m.Sales), number(m.Orders), formatFloat(m.AvgDaysToShip)})
	}
	for _, m := range s.MonthlyTrends {
		tables[8].Rows = append(tables[8].Rows, []string{m.Month, money(m.Sales), money(m.Profit), number(m.Orders)})
	}
	return tables
}

func groupRows(groups []models.GroupSales) [][]string {
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []string{g.Name, money(g.Sales), money(g.Profit), number(g.Orders), number(g.Quantity)})
	}
	return rows
}

func recommendationTable(recs []models.ProductRecommendation) table {
	t := table{
		Title:  "Suggested Products",
		Header: []string{"Product", "Category", "Sub-Category", "Avg Sales", "Buyers"},
	}
	for _, r := range recs {
		t.Rows = append(t.Rows, []string{r.ProductName, r.Category, r.SubCategory, cents(r.AvgSales), number(r.PopularityScore)})
	}
	return t
}

func recommendationsExportURL(customerID string) string {
	return "/api/export/recommendations.csv?customer_id=" + url.QueryEscape(customerID)
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// money formats v as whole dollars with thousands separators.
func money(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + "$" + groupThousands(strconv.FormatFloat(math.Round(v), 'f', 0, 64))
}

// cents formats v with two decimals.
func cents(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	whole, frac, _ := strings.Cut(s, ".")
	return sign + "$" + groupThousands(whole) + "." + frac
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func number(n int) string {
	if n < 0 {
		return "-" + groupThousands(strconv.Itoa(-n))
	}
	return groupThousands(strconv.Itoa(n))
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
