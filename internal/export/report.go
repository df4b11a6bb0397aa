// Package export renders the current session as downloadable files: an XLSX
// workbook of the analytics summary and a CSV of one customer's
// recommendations.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"superstore-analytics/internal/models"
)

const overviewSheet = "Overview"

type table struct {
	name   string
	header []any
	rows   [][]any
}

// WriteReport writes a workbook with one overview sheet and one sheet per
// breakdown of the summary.
func WriteReport(w io.Writer, info models.DatasetInfo, s models.AnalyticsSummary) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", overviewSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := writeOverview(f, bold, info, s); err != nil {
		return err
	}

	for _, t := range breakdowns(s) {
		if err := writeTable(f, bold, t); err != nil {
			return fmt.Errorf("sheet %q: %w", t.name, err)
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeOverview(f *excelize.File, bold int, info models.DatasetInfo, s models.AnalyticsSummary) error {
	rows := [][]any{
		{"Dataset", info.Filename},
		{"Dataset ID", info.ID},
		{"Loaded At", info.LoadedAt.UTC().Format(time.RFC3339)},
		{"Rows Read", info.RowsRead},
		{"Records Kept", info.RecordsKept},
		{"Rows Dropped", info.RowsDropped},
		{},
		{"Total Sales", s.TotalSales},
		{"Total Profit", s.TotalProfit},
		{"Total Orders", s.TotalOrders},
		{"Total Quantity", s.TotalQuantity},
		{"Unique Customers", s.UniqueCustomers},
		{"Unique Products", s.UniqueProducts},
		{"Avg Profit / Order", s.AvgProfitPerOrder},
		{"Avg Rating", s.AvgRating},
		{"Avg Discount %", s.AvgDiscount},
		{"Undated Records", s.UndatedRecords},
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(overviewSheet, cell, &row); err != nil {
			return fmt.Errorf("overview row %d: %w", i+1, err)
		}
	}

	if err := f.SetCellStyle(overviewSheet, "A1", fmt.Sprintf("A%d", len(rows)), bold); err != nil {
		return err
	}
	return f.SetColWidth(overviewSheet, "A", "A", 22)
}

func writeTable(f *excelize.File, bold int, t table) error {
	if _, err := f.NewSheet(t.name); err != nil {
		return err
	}

	if err := f.SetSheetRow(t.name, "A1", &t.header); err != nil {
		return err
	}
	for i, row := range t.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(t.name, cell, &row); err != nil {
			return err
		}
	}

	last, err := excelize.CoordinatesToCellName(len(t.header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(t.name, "A1", last, bold); err != nil {
		return err
	}
	return f.SetColWidth(t.name, "A", "A", 32)
}

func breakdowns(s models.AnalyticsSummary) []table {
	groupHeader := []any{"Name", "Sales", "Profit", "Orders", "Quantity"}

	return []table{
		{
			name:   "Regions",
			header: []any{"Region", "Sales", "Profit", "Orders", "Quantity", "Customers"},
			rows: rowsOf(s.SalesByRegion, func(r models.RegionSales) []any {
				return []any{r.Region, r.Sales, r.Profit, r.Orders, r.Quantity, r.Customers}
			}),
		},
		{name: "Categories", header: groupHeader, rows: rowsOf(s.SalesByCategory, groupRow)},
		{name: "Sub-Categories", header: groupHeader, rows: rowsOf(s.SalesBySubCategory, groupRow)},
		{name: "Top States", header: groupHeader, rows: rowsOf(s.SalesByState, groupRow)},
		{
			name:   "Segments",
			header: []any{"Segment", "Sales", "Profit", "Orders", "Quantity", "Customers"},
			rows: rowsOf(s.SalesBySegment, func(r models.SegmentSales) []any {
				return []any{r.Segment, r.Sales, r.Profit, r.Orders, r.Quantity, r.Customers}
			}),
		},
		{
			name:   "Ship Modes",
			header: []any{"Ship Mode", "Sales", "Profit", "Orders", "Avg Days To Ship"},
			rows: rowsOf(s.SalesByShipMode, func(r models.ShipModeSales) []any {
				return []any{r.Mode, r.Sales, r.Profit, r.Orders, r.AvgDaysToShip}
			}),
		},
		{
			name:   "Monthly",
			header: []any{"Month", "Sales", "Profit", "Orders"},
			rows: rowsOf(s.MonthlyTrends, func(r models.MonthlyTrend) []any {
				return []any{r.Month, r.Sales, r.Profit, r.Orders}
			}),
		},
		{
			name:   "Top Products",
			header: []any{"Product", "Sales", "Profit", "Quantity"},
			rows: rowsOf(s.TopProducts, func(r models.ProductSales) []any {
				return []any{r.Product, r.Sales, r.Profit, r.Quantity}
			}),
		},
		{
			name:   "Top Customers",
			header: []any{"Customer", "Sales", "Profit", "Orders"},
			rows: rowsOf(s.TopCustomers, func(r models.CustomerSales) []any {
				return []any{r.Customer, r.Sales, r.Profit, r.Orders}
			}),
		},
	}
}

func groupRow(g models.GroupSales) []any {
	return []any{g.Name, g.Sales, g.Profit, g.Orders, g.Quantity}
}

func rowsOf[T any](items []T, fn func(T) []any) [][]any {
	rows := make([][]any, 0, len(items))
	for _, item := range items {
		rows = append(rows, fn(item))
	}
	return rows
}
