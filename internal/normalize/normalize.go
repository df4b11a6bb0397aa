// Package normalize turns loosely-typed CSV rows into TransactionRecords.
//
// Column names are reconciled through an alias table, numbers are coerced
// with a zero fallback and rows without positive sales or an order id are
// dropped. Nothing in this package returns an error for bad cell data.
package normalize

import "superstore-analytics/internal/models"

// NormalizeRow builds a record from one raw row. The boolean is false when
// the row fails admission (sales <= 0 or empty order id).
func NormalizeRow(row models.RawRow) (models.TransactionRecord, bool) {
	idx := indexRow(row)

	sales := ParseFloat(idx.get(Sales))
	orderID := idx.get(OrderID)
	if sales <= 0 || orderID == "" {
		return models.TransactionRecord{}, false
	}

	return models.TransactionRecord{
		OrderID:      orderID,
		OrderDate:    idx.get(OrderDate),
		ShipDate:     idx.get(ShipDate),
		ShipMode:     idx.get(ShipMode),
		CustomerID:   idx.get(CustomerID),
		CustomerName: idx.get(CustomerName),
		Segment:      idx.get(Segment),
		Country:      idx.get(Country),
		City:         idx.get(City),
		State:        idx.get(State),
		PostalCode:   idx.get(PostalCode),
		Region:       idx.get(Region),
		ProductID:    idx.get(ProductID),
		Category:     idx.get(Category),
		SubCategory:  idx.get(SubCategory),
		ProductName:  idx.get(ProductName),
		Sales:        sales,
		Quantity:     ParseInt(idx.get(Quantity)),
		Discount:     ParseFloat(idx.get(Discount)),
		Profit:       ParseFloat(idx.get(Profit)),
		DaysToShip:   ParseInt(idx.get(DaysToShip)),
		Rating:       ParseFloat(idx.get(Rating)),
	}, true
}

// NormalizeRows normalizes rows in input order, silently dropping the ones
// that fail admission.
func NormalizeRows(rows []models.RawRow) []models.TransactionRecord {
	out := make([]models.TransactionRecord, 0, len(rows))
	for _, row := range rows {
		if rec, ok := NormalizeRow(row); ok {
			out = append(out, rec)
		}
	}
	return out
}
