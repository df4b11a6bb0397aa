package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"superstore-analytics/internal/services"
)

const sampleCSV = `Order ID,Order Date,Ship Date,Ship Mode,Customer ID,Customer Name,Segment,Country,City,State,Postal Code,Region,Product ID,Category,Sub-Category,Product Name,Sales,Quantity,Discount,Profit,Days to Ship,Rating
A-1,1/5/2017,1/8/2017,First Class,C1,Ann,Consumer,United States,Austin,Texas,73301,Central,P-1,Technology,Phones,Phone,100,1,0,20,3,5
A-2,2/5/2017,2/8/2017,First Class,C2,Bob,Consumer,United States,Dallas,Texas,75201,Central,P-2,Technology,Accessories,Headset,50,2,0.2,5,3,4
A-3,2/6/2017,2/9/2017,First Class,C2,Bob,Consumer,United States,Dallas,Texas,75201,Central,P-1,Technology,Phones,Phone,120,1,0,25,3,4
`

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_Summary(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-file", writeCSV(t, sampleCSV)}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run() error: %v (stderr %s)", err, stderr.String())
	}

	var got report
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("stdout is not JSON: %v", err)
	}
	if got.Dataset.Filename != "sample.csv" || got.Dataset.RecordsKept != 3 {
		t.Errorf("unexpected dataset %+v", got.Dataset)
	}
	if got.Summary.TotalSales != 270 || got.Summary.UniqueCustomers != 2 {
		t.Errorf("unexpected summary totals %+v", got.Summary)
	}
	if got.Customer != nil {
		t.Error("no customer section expected without -customer")
	}
}

func TestRun_Customer(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-file", writeCSV(t, sampleCSV), "-customer", "C1", "-pretty"}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run() error: %v", err)
	}

	if !strings.Contains(stdout.String(), "\n  \"dataset\"") {
		t.Error("-pretty should indent output")
	}

	var got report
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Customer == nil || got.Customer.Name != "Ann" {
		t.Fatalf("unexpected customer %+v", got.Customer)
	}
	if len(got.Recommendations) != 1 || got.Recommendations[0].ProductName != "Headset" {
		t.Errorf("unexpected recommendations %+v", got.Recommendations)
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    func(t *testing.T) []string
		wantErr error
		wantMsg string
	}{
		{
			name:    "missing flag",
			args:    func(t *testing.T) []string { return nil },
			wantMsg: "-file is required",
		},
		{
			name:    "missing file",
			args:    func(t *testing.T) []string { return []string{"-file", "/nonexistent/data.csv"} },
			wantErr: os.ErrNotExist,
		},
		{
			name: "missing columns",
			args: func(t *testing.T) []string {
				return []string{"-file", writeCSV(t, "Order ID,Sales\nA,1\n")}
			},
			wantErr: services.ErrMissingColumns,
		},
		{
			name: "unknown customer",
			args: func(t *testing.T) []string {
				return []string{"-file", writeCSV(t, sampleCSV), "-customer", "nobody"}
			},
			wantMsg: "not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(context.Background(), tt.args(t), &stdout, &stderr)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantMsg)
			}
			if stdout.Len() != 0 {
				t.Error("nothing should be printed to stdout on failure")
			}
		})
	}
}

func TestRun_Lenient(t *testing.T) {
	var stdout, stderr bytes.Buffer
	path := writeCSV(t, "Order ID,Sales,Region\nA,10,East\n")

	if err := run(context.Background(), []string{"-file", path, "-lenient"}, &stdout, &stderr); err != nil {
		t.Fatalf("lenient run should succeed, got %v", err)
	}

	var got report
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Columns.Valid || got.Summary.TotalSales != 10 {
		t.Errorf("unexpected lenient report %+v / %+v", got.Columns, got.Summary)
	}
}
