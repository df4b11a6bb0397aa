package services

import (
	"fmt"
	"testing"

	"superstore-analytics/internal/models"
)

func TestRecommend_PeerPurchases(t *testing.T) {
	records := []models.TransactionRecord{
		{OrderID: "1", CustomerID: "C1", Segment: "Consumer", Region: "West", ProductName: "Widget", Sales: 40},
		{OrderID: "2", CustomerID: "C2", Segment: "Consumer", Region: "West", ProductName: "Widget", Sales: 50},
		{OrderID: "3", CustomerID: "C2", Segment: "Consumer", Region: "West", ProductName: "Gadget", Sales: 30, Category: "Tech", SubCategory: "Phones"},
		{OrderID: "4", CustomerID: "C2", Segment: "Consumer", Region: "West", ProductName: "Widget", Sales: 50},
		{OrderID: "5", CustomerID: "C2", Segment: "Consumer", Region: "West", ProductName: "Gadget", Sales: 30, Category: "Tech", SubCategory: "Phones"},
	}

	got := Recommend(records, "C1")

	if len(got) != 1 {
		t.Fatalf("expected exactly one recommendation, got %+v", got)
	}
	rec := got[0]
	if rec.ProductName != "Gadget" || rec.PopularityScore != 2 || rec.AvgSales != 30 {
		t.Errorf("recommendation = %+v, want Gadget / score 2 / avg 30", rec)
	}
	if rec.Category != "Tech" || rec.SubCategory != "Phones" {
		t.Errorf("category = %q/%q, want Tech/Phones", rec.Category, rec.SubCategory)
	}
}

func TestRecommend_PeerGroupBoundaries(t *testing.T) {
	records := []models.TransactionRecord{
		{CustomerID: "C1", Segment: "Consumer", Region: "West", ProductName: "Widget", Sales: 10},
		{CustomerID: "C2", Segment: "Corporate", Region: "West", ProductName: "Desk", Sales: 10},
		{CustomerID: "C3", Segment: "Consumer", Region: "East", ProductName: "Lamp", Sales: 10},
		{CustomerID: "C4", Segment: "Consumer", Region: "West", ProductName: "Pen", Sales: 10},
	}

	got := Recommend(records, "C1")

	if len(got) != 1 || got[0].ProductName != "Pen" {
		t.Errorf("only same segment+region peers should count, got %+v", got)
	}
}

func TestRecommend_EmptyCases(t *testing.T) {
	records := []models.TransactionRecord{
		{CustomerID: "C1", Segment: "Home Office", Region: "Central", ProductName: "Widget", Sales: 10},
		{CustomerID: "C2", Segment: "Consumer", Region: "West", ProductName: "Gadget", Sales: 10},
	}

	tests := []struct {
		name       string
		customerID string
	}{
		{"unknown customer", "C9"},
		{"empty peer group", "C1"},
		{"empty id", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Recommend(records, tt.customerID)
			if got == nil {
				t.Fatal("Recommend() should return an empty slice, not nil")
			}
			if len(got) != 0 {
				t.Errorf("expected no recommendations, got %+v", got)
			}
		})
	}
}

func TestRecommend_CapAndOrdering(t *testing.T) {
	records := []models.TransactionRecord{
		{CustomerID: "T", Segment: "Consumer", Region: "West", ProductName: "Owned", Sales: 1},
	}
	for p := 0; p < 12; p++ {
		for n := 0; n <= p; n++ {
			records = append(records, models.TransactionRecord{
				CustomerID:  fmt.Sprintf("P%d", n),
				Segment:     "Consumer",
				Region:      "West",
				ProductName: fmt.Sprintf("Product %d", p),
				Sales:       float64(10 * (p + 1)),
			})
		}
	}
	records = append(records, models.TransactionRecord{
		CustomerID: "P1", Segment: "Consumer", Region: "West", ProductName: "Owned", Sales: 99,
	})

	got := Recommend(records, "T")

	if len(got) != 8 {
		t.Fatalf("len = %d, want 8", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].PopularityScore > got[i-1].PopularityScore {
			t.Errorf("not sorted by popularity at %d: %+v", i, got)
		}
	}
	if got[0].ProductName != "Product 11" || got[0].PopularityScore != 12 {
		t.Errorf("top recommendation = %+v, want Product 11 with score 12", got[0])
	}
	for _, r := range got {
		if r.ProductName == "Owned" {
			t.Error("recommendations must exclude products the customer already bought")
		}
	}
}

func TestRecommend_StableTies(t *testing.T) {
	records := []models.TransactionRecord{
		{CustomerID: "T", Segment: "S", Region: "R", ProductName: "Mine", Sales: 1},
		{CustomerID: "P", Segment: "S", Region: "R", ProductName: "Zeta", Sales: 1},
		{CustomerID: "P", Segment: "S", Region: "R", ProductName: "Alpha", Sales: 1},
	}

	got := Recommend(records, "T")

	if len(got) != 2 || got[0].ProductName != "Zeta" || got[1].ProductName != "Alpha" {
		t.Errorf("ties should keep first-seen order, got %+v", got)
	}
}

func TestCustomers(t *testing.T) {
	records := []models.TransactionRecord{
		{CustomerID: "C2", CustomerName: "zoe"},
		{CustomerID: "C1", CustomerName: "Adam"},
		{CustomerID: "C2", CustomerName: "Zoe Z"},
		{CustomerID: "", CustomerName: "Nobody"},
		{CustomerID: "C3", CustomerName: "adam"},
	}

	got := Customers(records)

	want := []models.CustomerRef{
		{ID: "C1", Name: "Adam"},
		{ID: "C3", Name: "adam"},
		{ID: "C2", Name: "Zoe Z"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Customers()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestProfile(t *testing.T) {
	records := []models.TransactionRecord{
		{CustomerID: "C1", CustomerName: "Claire", Segment: "Consumer", Region: "South", Sales: 100},
		{CustomerID: "C2", CustomerName: "Other", Sales: 1},
		{CustomerID: "C1", CustomerName: "Claire", Segment: "Consumer", Region: "South", Sales: 50.5},
	}

	got, ok := Profile(records, "C1")
	if !ok {
		t.Fatal("Profile() should find C1")
	}
	want := models.CustomerProfile{
		ID:            "C1",
		Name:          "Claire",
		Segment:       "Consumer",
		Region:        "South",
		TotalOrders:   2,
		TotalSpent:    150.5,
		AvgOrderValue: 75.25,
	}
	if got != want {
		t.Errorf("Profile() = %+v, want %+v", got, want)
	}

	if _, ok := Profile(records, "nope"); ok {
		t.Error("Profile() should report unknown customers")
	}

	unnamed, _ := Profile([]models.TransactionRecord{{CustomerID: "X", Sales: 1}}, "X")
	if unnamed.Name != "Unknown" || unnamed.Segment != "Unknown" {
		t.Errorf("missing attributes should read Unknown, got %+v", unnamed)
	}
}

func TestRecommend_AvgSalesIsUnrounded(t *testing.T) {
	records := []models.TransactionRecord{
		{CustomerID: "C1", Segment: "Consumer", Region: "West", ProductName: "Widget", Sales: 5},
		{CustomerID: "C2", Segment: "Consumer", Region: "West", ProductName: "Lamp", Sales: 10},
		{CustomerID: "C2", Segment: "Consumer", Region: "West", ProductName: "Lamp", Sales: 10},
		{CustomerID: "C3", Segment: "Consumer", Region: "West", ProductName: "Lamp", Sales: 11},
	}

	got := Recommend(records, "C1")

	if len(got) != 1 {
		t.Fatalf("expected one recommendation, got %+v", got)
	}
	if want := 31.0 / 3; got[0].AvgSales != want {
		t.Errorf("AvgSales = %v, want %v", got[0].AvgSales, want)
	}
}
