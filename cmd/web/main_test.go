package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"superstore-analytics/internal/config"
	"superstore-analytics/internal/middleware"
	"superstore-analytics/internal/server"
	"superstore-analytics/internal/services"
)

const superstoreCSV = "\ufeffRow ID,Order ID,Order Date,Ship Date,Ship Mode,Customer ID,Customer Name,Segment,Country,City,State,Postal Code,Region,Product ID,Category,Sub-Category,Product Name,Sales,Quantity,Discount,Profit,Days to Ship,Rating\r\n" +
	"1,CA-2016-152156,11/8/2016,11/11/2016,Second Class,CG-12520,Claire Gute,Consumer,United States,Henderson,Kentucky,42420,South,FUR-BO-10001798,Furniture,Bookcases,Bush Somerset Collection Bookcase,261.96,2,0,41.9136,3,4\r\n" +
	"2,CA-2016-152157,11/9/2016,11/12/2016,Second Class,SO-20335,Sean O'Donnell,Consumer,United States,Louisville,Kentucky,40214,South,FUR-CH-10000454,Furniture,Chairs,Hon Deluxe Chair,731.94,3,0,219.582,3,5\r\n" +
	"3,CA-2016-152158,11/10/2016,11/13/2016,Second Class,SO-20335,Sean O'Donnell,Consumer,United States,Louisville,Kentucky,40214,South,OFF-LA-10000240,Office Supplies,Labels,Self-Adhesive Address Labels,14.62,2,0,6.8714,3,3\r\n"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestApp wires the same handler stack as main, minus the listener.
func newTestApp(t *testing.T, security config.SecurityConfig) (http.Handler, *services.Analytics) {
	t.Helper()
	logger := testLogger()
	analytics := services.NewAnalytics(services.WithLogger(logger))

	srv := server.NewServer(analytics, logger, 1<<20, &server.TemplateHandlers{
		Dashboard: dashboardHandler(analytics),
	})

	chain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(security),
		middleware.TrustedProxy(security),
		middleware.RateLimit(middleware.NewRateLimiter(security), logger),
	)
	return chain(srv), analytics
}

func defaultSecurity() config.SecurityConfig {
	return config.SecurityConfig{
		EnableRateLimit: false,
		RateLimitRPS:    100,
		RateLimitBurst:  10,
		AllowedOrigins:  []string{"http://localhost:8084"},
		TrustedProxies:  []string{"127.0.0.1"},
	}
}

func upload(t *testing.T, h http.Handler, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestApp_UploadThenQuery(t *testing.T) {
	app, _ := newTestApp(t, defaultSecurity())

	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
	if w.Code != http.StatusConflict {
		t.Fatalf("summary before upload: status = %d, want 409", w.Code)
	}

	w = upload(t, app, "superstore.csv", superstoreCSV)
	if w.Code != http.StatusOK {
		t.Fatalf("upload: status = %d, body %s", w.Code, w.Body.String())
	}

	tests := []struct {
		path        string
		contentType string
	}{
		{"/api/summary", "application/json"},
		{"/api/top-products", "application/json"},
		{"/api/top-customers", "application/json"},
		{"/api/monthly-trends", "application/json"},
		{"/api/sales-by-region", "application/json"},
		{"/api/customers", "application/json"},
		{"/api/customers/SO-20335", "application/json"},
		{"/api/customers/CG-12520/recommendations", "application/json"},
		{"/api/export/report.xlsx", "spreadsheetml"},
		{"/api/export/recommendations.csv?customer_id=CG-12520", "text/csv"},
		{"/sse/summary", "text/event-stream"},
		{"/", "text/html"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", w.Code)
			}
			if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, tt.contentType) {
				t.Errorf("content-type = %q, want %q", ct, tt.contentType)
			}
		})
	}

	w = httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/customers/CG-12520/recommendations", nil))

	var response struct {
		Data struct {
			Recommendations []struct {
				ProductName string `json:"product_name"`
			} `json:"recommendations"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatal(err)
	}
	recs := response.Data.Recommendations
	if len(recs) != 2 || recs[0].ProductName != "Hon Deluxe Chair" {
		t.Errorf("unexpected recommendations %+v", recs)
	}
}

func TestApp_DashboardReflectsUpload(t *testing.T) {
	app, _ := newTestApp(t, defaultSecurity())

	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(w.Body.String(), "No dataset loaded") {
		t.Error("dashboard should show the empty state before an upload")
	}

	upload(t, app, "superstore.csv", superstoreCSV)

	w = httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	body := w.Body.String()
	for _, s := range []string{"superstore.csv", "Claire Gute", "Sean O&#39;Donnell", "report.xlsx"} {
		if !strings.Contains(body, s) {
			t.Errorf("dashboard should contain %q", s)
		}
	}
}

func TestApp_Headers(t *testing.T) {
	app, _ := newTestApp(t, defaultSecurity())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:8084")
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("response should carry a request id")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:8084" {
		t.Error("allowed origin should be echoed")
	}
}

func TestApp_RateLimit(t *testing.T) {
	security := defaultSecurity()
	security.EnableRateLimit = true
	security.RateLimitRPS = 1
	security.RateLimitBurst = 2
	app, _ := newTestApp(t, security)

	codes := make([]int, 0, 3)
	for range 3 {
		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("status codes = %v, want [200 200 429]", codes)
	}
}

func TestApp_ErrorHandling(t *testing.T) {
	app, _ := newTestApp(t, defaultSecurity())

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodPost, "/api/summary", http.StatusMethodNotAllowed},
		{http.MethodPut, "/", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/health", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/upload", http.StatusMethodNotAllowed},
		{http.MethodGet, "/missing", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

func TestSeedDataset(t *testing.T) {
	dir := t.TempDir()

	t.Run("not configured", func(t *testing.T) {
		analytics := services.NewAnalytics(services.WithLogger(testLogger()))
		if err := seedDataset(config.DatasetConfig{}, analytics, testLogger()); err != nil {
			t.Fatalf("seedDataset() error = %v", err)
		}
		if analytics.HasData() {
			t.Error("nothing should be loaded without a seed file")
		}
	})

	t.Run("bad columns fail without retrying", func(t *testing.T) {
		path := filepath.Join(dir, "bad.csv")
		if err := os.WriteFile(path, []byte("a,b\n1,2\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		analytics := services.NewAnalytics(services.WithLogger(testLogger()))

		start := time.Now()
		err := seedDataset(config.DatasetConfig{SeedCSV: path, SeedTimeout: 5 * time.Second}, analytics, testLogger())
		if !errors.Is(err, services.ErrMissingColumns) {
			t.Fatalf("error = %v, want ErrMissingColumns", err)
		}
		if time.Since(start) > 2*time.Second {
			t.Error("data errors should not be retried")
		}
	})

	t.Run("file appears after startup", func(t *testing.T) {
		path := filepath.Join(dir, "late.csv")
		go func() {
			time.Sleep(300 * time.Millisecond)
			tmp := path + ".part"
			if err := os.WriteFile(tmp, []byte(superstoreCSV), 0o600); err == nil {
				os.Rename(tmp, path)
			}
		}()
		analytics := services.NewAnalytics(services.WithLogger(testLogger()))

		if err := seedDataset(config.DatasetConfig{SeedCSV: path, SeedTimeout: 10 * time.Second}, analytics, testLogger()); err != nil {
			t.Fatalf("seedDataset() error = %v", err)
		}
		if !analytics.HasData() {
			t.Error("late seed file should be loaded")
		}
	})

	t.Run("gives up at the timeout", func(t *testing.T) {
		analytics := services.NewAnalytics(services.WithLogger(testLogger()))
		err := seedDataset(config.DatasetConfig{SeedCSV: filepath.Join(dir, "never.csv"), SeedTimeout: 500 * time.Millisecond}, analytics, testLogger())
		if err == nil {
			t.Fatal("expected an error for a file that never appears")
		}
		if analytics.HasData() {
			t.Error("session should stay empty")
		}
	})
}
