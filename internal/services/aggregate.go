package services

import (
	"math"
	"slices"
	"strings"

	"superstore-analytics/internal/models"
	"superstore-analytics/internal/normalize"
)

const (
	topProductsLimit  = 20
	topCustomersLimit = 20
	topStatesLimit    = 10
)

// bucket accumulates one grouping key during a single aggregation pass.
type bucket struct {
	key       string
	sales     float64
	profit    float64
	orders    int
	quantity  int
	shipDays  int
	customers map[string]struct{}
}

// bucketSet keeps buckets in first-seen key order.
type bucketSet struct {
	index          map[string]int
	buckets        []*bucket
	trackCustomers bool
}

func newBucketSet(trackCustomers bool) *bucketSet {
	return &bucketSet{
		index:          make(map[string]int),
		trackCustomers: trackCustomers,
	}
}

func (s *bucketSet) add(key string, rec *models.TransactionRecord) {
	i, ok := s.index[key]
	if !ok {
		i = len(s.buckets)
		s.index[key] = i
		b := &bucket{key: key}
		if s.trackCustomers {
			b.customers = make(map[string]struct{})
		}
		s.buckets = append(s.buckets, b)
	}

	b := s.buckets[i]
	b.sales += rec.Sales
	b.profit += rec.Profit
	b.orders++
	b.quantity += rec.Quantity
	b.shipDays += rec.DaysToShip
	if b.customers != nil && rec.CustomerID != "" {
		b.customers[rec.CustomerID] = struct{}{}
	}
}

// rankedBySales returns the buckets sorted by sales, highest first, cut to
// limit. Ties keep first-seen order.
func (s *bucketSet) rankedBySales(limit int) []*bucket {
	ranked := slices.Clone(s.buckets)
	slices.SortStableFunc(ranked, func(a, b *bucket) int {
		switch {
		case a.sales > b.sales:
			return -1
		case a.sales < b.sales:
			return 1
		default:
			return 0
		}
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Aggregate folds the records into an AnalyticsSummary. It has no side
// effects and does not modify records.
func Aggregate(records []models.TransactionRecord) models.AnalyticsSummary {
	var (
		totalSales, totalProfit float64
		weightedDiscount        float64
		ratingSum               float64
		totalQuantity           int
		undated                 int
	)

	customers := make(map[string]struct{})
	products := make(map[string]struct{})

	regions := newBucketSet(true)
	categories := newBucketSet(false)
	subCategories := newBucketSet(false)
	segments := newBucketSet(true)
	shipModes := newBucketSet(false)
	states := newBucketSet(false)
	months := newBucketSet(false)
	productNames := newBucketSet(false)
	customerNames := newBucketSet(false)

	for i := range records {
		rec := &records[i]

		totalSales += rec.Sales
		totalProfit += rec.Profit
		totalQuantity += rec.Quantity
		weightedDiscount += rec.Sales * rec.Discount
		ratingSum += rec.Rating

		if rec.CustomerID != "" {
			customers[rec.CustomerID] = struct{}{}
		}
		if rec.ProductID != "" {
			products[rec.ProductID] = struct{}{}
		}

		regions.add(rec.Region, rec)
		categories.add(rec.Category, rec)
		subCategories.add(rec.SubCategory, rec)
		segments.add(rec.Segment, rec)
		shipModes.add(rec.ShipMode, rec)
		states.add(rec.State, rec)
		productNames.add(rec.ProductName, rec)
		customerNames.add(rec.CustomerName, rec)

		if month, ok := normalize.MonthKey(rec.OrderDate); ok {
			months.add(month, rec)
		} else {
			undated++
		}
	}

	totalOrders := len(records)
	summary := models.AnalyticsSummary{
		TotalSales:      roundMoney(totalSales),
		TotalProfit:     roundMoney(totalProfit),
		TotalOrders:     totalOrders,
		TotalQuantity:   totalQuantity,
		UniqueCustomers: len(customers),
		UniqueProducts:  len(products),
		UndatedRecords:  undated,
	}
	if totalOrders > 0 {
		summary.AvgProfitPerOrder = round2(totalProfit / float64(totalOrders))
		summary.AvgRating = round2(ratingSum / float64(totalOrders))
	}
	if totalSales > 0 {
		summary.AvgDiscount = round2(weightedDiscount / totalSales * 100)
	}

	summary.SalesByRegion = make([]models.RegionSales, 0, len(regions.buckets))
	for _, b := range regions.buckets {
		summary.SalesByRegion = append(summary.SalesByRegion, models.RegionSales{
			Region:    b.key,
			Sales:     roundMoney(b.sales),
			Profit:    roundMoney(b.profit),
			Orders:    b.orders,
			Quantity:  b.quantity,
			Customers: len(b.customers),
		})
	}

	summary.SalesBySegment = make([]models.SegmentSales, 0, len(segments.buckets))
	for _, b := range segments.buckets {
		summary.SalesBySegment = append(summary.SalesBySegment, models.SegmentSales{
			Segment:   b.key,
			Sales:     roundMoney(b.sales),
			Profit:    roundMoney(b.profit),
			Orders:    b.orders,
			Quantity:  b.quantity,
			Customers: len(b.customers),
		})
	}

	summary.SalesByShipMode = make([]models.ShipModeSales, 0, len(shipModes.buckets))
	for _, b := range shipModes.buckets {
		summary.SalesByShipMode = append(summary.SalesByShipMode, models.ShipModeSales{
			Mode:          b.key,
			Sales:         roundMoney(b.sales),
			Profit:        roundMoney(b.profit),
			Orders:        b.orders,
			AvgDaysToShip: round2(float64(b.shipDays) / float64(b.orders)),
		})
	}

	summary.SalesByCategory = groupSales(categories.buckets)
	summary.SalesBySubCategory = groupSales(subCategories.buckets)
	summary.SalesByState = groupSales(states.rankedBySales(topStatesLimit))

	monthly := slices.Clone(months.buckets)
	slices.SortFunc(monthly, func(a, b *bucket) int {
		return strings.Compare(a.key, b.key)
	})
	summary.MonthlyTrends = make([]models.MonthlyTrend, 0, len(monthly))
	for _, b := range monthly {
		summary.MonthlyTrends = append(summary.MonthlyTrends, models.MonthlyTrend{
			Month:  b.key,
			Sales:  roundMoney(b.sales),
			Profit: roundMoney(b.profit),
			Orders: b.orders,
		})
	}

	// Top lists group by display name, so distinct ids sharing a name merge.
	topProducts := productNames.rankedBySales(topProductsLimit)
	summary.TopProducts = make([]models.ProductSales, 0, len(topProducts))
	for _, b := range topProducts {
		summary.TopProducts = append(summary.TopProducts, models.ProductSales{
			Product:  b.key,
			Sales:    roundMoney(b.sales),
			Profit:   roundMoney(b.profit),
			Quantity: b.quantity,
		})
	}

	topCustomers := customerNames.rankedBySales(topCustomersLimit)
	summary.TopCustomers = make([]models.CustomerSales, 0, len(topCustomers))
	for _, b := range topCustomers {
		summary.TopCustomers = append(summary.TopCustomers, models.CustomerSales{
			Customer: b.key,
			Sales:    roundMoney(b.sales),
			Profit:   roundMoney(b.profit),
			Orders:   b.orders,
		})
	}

	return summary
}

func groupSales(buckets []*bucket) []models.GroupSales {
	out := make([]models.GroupSales, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, models.GroupSales{
			Name:     b.key,
			Sales:    roundMoney(b.sales),
			Profit:   roundMoney(b.profit),
			Orders:   b.orders,
			Quantity: b.quantity,
		})
	}
	return out
}

func roundMoney(v float64) float64 {
	r := math.Round(v)
	if r == 0 {
		return 0
	}
	return r
}

func round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0
	}
	return r
}
