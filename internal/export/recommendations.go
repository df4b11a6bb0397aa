package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"superstore-analytics/internal/models"
)

var recommendationHeader = []string{
	"Customer ID", "Customer Name", "Rank", "Product Name", "Category", "Sub-Category", "Avg Sales", "Popularity Score",
}

// WriteRecommendations writes one CSV row per recommendation, in rank order.
func WriteRecommendations(w io.Writer, profile models.CustomerProfile, recs []models.ProductRecommendation) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(recommendationHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range recs {
		row := []string{
			profile.ID,
			profile.Name,
			strconv.Itoa(i + 1),
			rec.ProductName,
			rec.Category,
			rec.SubCategory,
			strconv.FormatFloat(rec.AvgSales, 'f', 2, 64),
			strconv.Itoa(rec.PopularityScore),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
