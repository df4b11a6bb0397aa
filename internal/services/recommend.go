package services

import (
	"cmp"
	"slices"
	"strings"

	"superstore-analytics/internal/models"
)

const maxRecommendations = 8

type productTally struct {
	name        string
	category    string
	subCategory string
	sales       float64
	count       int
}

// Recommend suggests products bought by the customer's peers (same segment
// and region) that the customer has not bought yet, most popular first.
// Unknown customers and empty peer groups yield an empty list.
func Recommend(records []models.TransactionRecord, customerID string) []models.ProductRecommendation {
	recs := []models.ProductRecommendation{}
	if customerID == "" {
		return recs
	}

	var target *models.TransactionRecord
	purchased := make(map[string]struct{})
	for i := range records {
		if records[i].CustomerID != customerID {
			continue
		}
		if target == nil {
			target = &records[i]
		}
		purchased[records[i].ProductName] = struct{}{}
	}
	if target == nil {
		return recs
	}

	index := make(map[string]int)
	var tallies []*productTally
	for i := range records {
		peer := &records[i]
		if peer.CustomerID == customerID || peer.Segment != target.Segment || peer.Region != target.Region {
			continue
		}
		if _, owned := purchased[peer.ProductName]; owned {
			continue
		}

		j, ok := index[peer.ProductName]
		if !ok {
			j = len(tallies)
			index[peer.ProductName] = j
			tallies = append(tallies, &productTally{name: peer.ProductName})
		}
		t := tallies[j]
		t.sales += peer.Sales
		t.count++
		t.category = peer.Category
		t.subCategory = peer.SubCategory
	}

	slices.SortStableFunc(tallies, func(a, b *productTally) int {
		return cmp.Compare(b.count, a.count)
	})
	if len(tallies) > maxRecommendations {
		tallies = tallies[:maxRecommendations]
	}

	for _, t := range tallies {
		recs = append(recs, models.ProductRecommendation{
			ProductName:     t.name,
			Category:        t.category,
			SubCategory:     t.subCategory,
			AvgSales:        t.sales / float64(t.count),
			PopularityScore: t.count,
		})
	}
	return recs
}

// Customers lists distinct customers sorted by name. When one id appears
// under several names the last one seen wins.
func Customers(records []models.TransactionRecord) []models.CustomerRef {
	index := make(map[string]int)
	out := []models.CustomerRef{}
	for i := range records {
		id := records[i].CustomerID
		if id == "" {
			continue
		}
		if j, ok := index[id]; ok {
			out[j].Name = records[i].CustomerName
			continue
		}
		index[id] = len(out)
		out = append(out, models.CustomerRef{ID: id, Name: records[i].CustomerName})
	}

	slices.SortStableFunc(out, func(a, b models.CustomerRef) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Profile summarizes one customer's purchase history.
func Profile(records []models.TransactionRecord, customerID string) (models.CustomerProfile, bool) {
	profile := models.CustomerProfile{ID: customerID}
	var spent float64
	for i := range records {
		rec := &records[i]
		if rec.CustomerID != customerID {
			continue
		}
		if profile.TotalOrders == 0 {
			profile.Name = orUnknown(rec.CustomerName)
			profile.Segment = orUnknown(rec.Segment)
			profile.Region = orUnknown(rec.Region)
		}
		profile.TotalOrders++
		spent += rec.Sales
	}
	if profile.TotalOrders == 0 {
		return models.CustomerProfile{}, false
	}

	profile.TotalSpent = round2(spent)
	profile.AvgOrderValue = round2(spent / float64(profile.TotalOrders))
	return profile, true
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
