package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"tracker/internal/app"
	"tracker/internal/metrics"
	"tracker/internal/storage"
	"tracker/internal/store"
)

// failingKV rejects writes while fail is set.
type failingKV struct {
	*storage.MemoryKV
	fail bool
}

func (f *failingKV) Set(ctx context.Context, key, value string) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.MemoryKV.Set(ctx, key, value)
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *failingKV) {
	t.Helper()
	kv := &failingKV{MemoryKV: storage.NewMemoryKV()}
	s, err := store.Load(context.Background(), kv)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	st := app.NewState(s, store.NewPreferences(kv), app.Config{PageSize: 2, CurrencySymbol: "₹"})
	srv := NewServer(":0", st, opts...)
	srv.now = func() time.Time { return time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC) }
	return srv, kv
}

func do(t *testing.T, srv *Server, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

// listView mirrors the parts of app.View the tests inspect.
type listView struct {
	Params struct {
		Category string `json:"category"`
		Search   string `json:"search"`
		Sort     string `json:"sort"`
		Page     int    `json:"page"`
	} `json:"params"`
	Page struct {
		Items []struct {
			ID          string  `json:"id"`
			Description string  `json:"description"`
			Amount      float64 `json:"amount"`
		} `json:"items"`
		PageNumber int  `json:"page"`
		TotalItems int  `json:"total_items"`
		TotalPages int  `json:"total_pages"`
		HasPrev    bool `json:"has_prev"`
		HasNext    bool `json:"has_next"`
	} `json:"page"`
	Categories []string `json:"categories"`
}

func seed(t *testing.T, srv *Server) {
	t.Helper()
	for _, body := range []string{
		`{"date":"2025-03-01","type":"expense","category":"Food","description":"Tea","amount":2.5}`,
		`{"date":"2025-03-02","type":"income","category":"Salary","description":"Pay","amount":"100"}`,
		`{"date":"2025-02-10","type":"expense","category":"Travel","description":"Bus","amount":"5"}`,
	} {
		if rr := do(t, srv, http.MethodPost, "/api/transactions", body); rr.Code != http.StatusCreated {
			t.Fatalf("create status=%d body=%s", rr.Code, rr.Body)
		}
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := do(t, srv, http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("healthz status=%d body=%q", rr.Code, rr.Body)
	}
}

func TestCreateAndList(t *testing.T) {
	srv, _ := newTestServer(t)
	seed(t, srv)

	rr := do(t, srv, http.MethodGet, "/api/transactions", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list status=%d", rr.Code)
	}
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("missing security headers")
	}
	v := decode[listView](t, rr)
	if v.Page.TotalItems != 3 || v.Page.TotalPages != 2 || len(v.Page.Items) != 2 {
		t.Fatalf("unexpected page: %+v", v.Page)
	}
	if v.Page.HasPrev || !v.Page.HasNext {
		t.Fatalf("first page navigation: %+v", v.Page)
	}
	// date_desc by default
	if v.Page.Items[0].Description != "Pay" || v.Page.Items[1].Description != "Tea" {
		t.Fatalf("unexpected order: %+v", v.Page.Items)
	}

	rr = do(t, srv, http.MethodGet, "/api/transactions?page=2", "")
	v = decode[listView](t, rr)
	if v.Params.Page != 2 || len(v.Page.Items) != 1 || v.Page.Items[0].Description != "Bus" {
		t.Fatalf("page 2: %+v", v)
	}
	if !v.Page.HasPrev || v.Page.HasNext {
		t.Fatalf("last page navigation: %+v", v.Page)
	}

	// Changing the search resets to page 1 even when a page is requested.
	rr = do(t, srv, http.MethodGet, "/api/transactions?search=t&page=2", "")
	v = decode[listView](t, rr)
	if v.Params.Page != 1 || v.Params.Search != "t" {
		t.Fatalf("search should reset the page: %+v", v.Params)
	}

	rr = do(t, srv, http.MethodGet, "/api/transactions?category=Travel&search=", "")
	v = decode[listView](t, rr)
	if v.Page.TotalItems != 1 || v.Page.Items[0].Amount != 5 {
		t.Fatalf("category filter: %+v", v.Page)
	}

	rr = do(t, srv, http.MethodPost, "/api/filters/reset", "")
	v = decode[listView](t, rr)
	if v.Params.Category != "all" || v.Params.Sort != "date_desc" || v.Page.TotalItems != 3 {
		t.Fatalf("reset: %+v", v)
	}
}

func TestFilterFromFirstPageIgnoresRequestedPage(t *testing.T) {
	srv, _ := newTestServer(t)
	seed(t, srv)

	rr := do(t, srv, http.MethodGet, "/api/transactions?category=Food&page=2", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list status=%d", rr.Code)
	}
	v := decode[listView](t, rr)
	if v.Params.Category != "Food" || v.Params.Page != 1 {
		t.Fatalf("category change should land on page 1: %+v", v.Params)
	}
	if len(v.Page.Items) != 1 || v.Page.Items[0].Description != "Tea" {
		t.Fatalf("filtered page: %+v", v.Page)
	}
}

func TestOversizedBodies(t *testing.T) {
	big := strings.Repeat("a", maxBodyBytes+1)

	cases := []struct {
		name   string
		method string
		target string
		body   string
	}{
		{"import", http.MethodPost, "/api/import?format=csv", big},
		{"create", http.MethodPost, "/api/transactions", `{"description":"` + big + `"}`},
		{"theme", http.MethodPut, "/api/theme", `{"theme":"` + big + `"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newTestServer(t)
			rr := do(t, srv, tc.method, tc.target, tc.body)
			if rr.Code != http.StatusRequestEntityTooLarge {
				t.Fatalf("status=%d, want 413", rr.Code)
			}
		})
	}
}

func TestCreateFormEncoded(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/transactions",
		strings.NewReader("date=2025-03-01&type=expense&category=Food&description=Lunch&amount=12.50"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body)
	}
}

func TestCreateValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/transactions",
		`{"date":"03/01/2025","type":"expense","category":"Food","description":"Tea","amount":"-1"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body)
	}
	resp := decode[struct {
		Error  string `json:"error"`
		Fields []struct {
			Field string `json:"field"`
		} `json:"fields"`
	}](t, rr)
	if len(resp.Fields) != 2 {
		t.Fatalf("expected date and amount errors, got %+v", resp)
	}

	if rr := do(t, srv, http.MethodPost, "/api/transactions", `{"date":`); rr.Code != http.StatusBadRequest {
		t.Fatalf("malformed body status=%d", rr.Code)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	srv, _ := newTestServer(t)
	seed(t, srv)
	v := decode[listView](t, do(t, srv, http.MethodGet, "/api/transactions", ""))
	id := v.Page.Items[0].ID

	for i := 0; i < 2; i++ {
		rr := do(t, srv, http.MethodDelete, "/api/transactions/"+id, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("delete #%d status=%d", i, rr.Code)
		}
		if got := decode[listView](t, rr).Page.TotalItems; got != 2 {
			t.Fatalf("delete #%d left %d items", i, got)
		}
	}
}

func TestPersistenceFailureKeepsMutation(t *testing.T) {
	srv, kv := newTestServer(t)
	kv.fail = true

	rr := do(t, srv, http.MethodPost, "/api/transactions",
		`{"date":"2025-03-01","type":"expense","category":"Food","description":"Tea","amount":"2"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body)
	}
	v := decode[listView](t, do(t, srv, http.MethodGet, "/api/transactions", ""))
	if v.Page.TotalItems != 1 {
		t.Fatalf("mutation should stay visible, got %d items", v.Page.TotalItems)
	}
}

func TestSummaryChartCategories(t *testing.T) {
	srv, _ := newTestServer(t)

	chart := decode[chartResponse](t, do(t, srv, http.MethodGet, "/api/chart", ""))
	if chart.Show {
		t.Fatalf("empty store should hide the chart")
	}

	seed(t, srv)
	sum := decode[struct {
		Income  string            `json:"income"`
		Expense string            `json:"expense"`
		Net     string            `json:"net"`
		Display map[string]string `json:"display"`
	}](t, do(t, srv, http.MethodGet, "/api/summary", ""))
	if sum.Income != "100" || sum.Expense != "7.5" || sum.Net != "92.5" {
		t.Fatalf("summary: %+v", sum)
	}
	if sum.Display["net"] != "₹92.50" {
		t.Fatalf("display: %+v", sum.Display)
	}

	chart = decode[chartResponse](t, do(t, srv, http.MethodGet, "/api/chart", ""))
	if !chart.Show || len(chart.Categories) != 2 || chart.Categories[0].Name != "Travel" {
		t.Fatalf("chart: %+v", chart)
	}

	cats := decode[map[string][]string](t, do(t, srv, http.MethodGet, "/api/categories", ""))
	if strings.Join(cats["categories"], ",") != "Food,Salary,Travel" {
		t.Fatalf("categories: %v", cats)
	}
}

func TestMonthlyReport(t *testing.T) {
	srv, _ := newTestServer(t)
	seed(t, srv)

	rr := do(t, srv, http.MethodGet, "/api/reports/monthly", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	report := decode[struct {
		Title            string `json:"title"`
		TransactionCount int    `json:"transaction_count"`
	}](t, rr)
	if report.Title != "March 2025" || report.TransactionCount != 2 {
		t.Fatalf("default month report: %+v", report)
	}

	rr = do(t, srv, http.MethodGet, "/api/reports/monthly?month=2025-02&format=text", "")
	if !strings.HasPrefix(rr.Body.String(), "Monthly Report for February 2025") ||
		!strings.Contains(rr.Body.String(), "Travel: ₹5.00") {
		t.Fatalf("text report:\n%s", rr.Body)
	}

	if rr := do(t, srv, http.MethodGet, "/api/reports/monthly?month=2025-13", ""); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid month status=%d", rr.Code)
	}
}

func TestExportImport(t *testing.T) {
	srv, _ := newTestServer(t)
	seed(t, srv)

	rr := do(t, srv, http.MethodGet, "/api/export?format=csv", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("export status=%d", rr.Code)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") || !strings.Contains(cd, ".csv") {
		t.Fatalf("content disposition %q", cd)
	}
	csv := rr.Body.String()

	if rr := do(t, srv, http.MethodGet, "/api/export?format=xml", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown format status=%d", rr.Code)
	}

	rr = do(t, srv, http.MethodPost, "/api/import?format=csv", csv)
	if rr.Code != http.StatusOK {
		t.Fatalf("import status=%d body=%s", rr.Code, rr.Body)
	}
	if got := decode[importResponse](t, rr).Imported; got != 3 {
		t.Fatalf("imported %d", got)
	}

	rr = do(t, srv, http.MethodPost, "/api/import?format=csv", "Date,Type,Category,Description,Amount\n2025-01-01,expense,Food\n")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("malformed import status=%d", rr.Code)
	}
	v := decode[listView](t, do(t, srv, http.MethodGet, "/api/transactions", ""))
	if v.Page.TotalItems != 6 {
		t.Fatalf("malformed import must add nothing, total=%d", v.Page.TotalItems)
	}
}

func TestImportMultipart(t *testing.T) {
	srv, _ := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "backup.json")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	fw.Write([]byte(`{"exportDate":"2025-03-01T00:00:00.000Z","transactions":[{"id":"x","date":"2025-03-01","type":"income","category":"Gift","description":"Card","amount":50}]}`))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body)
	}
	if got := decode[importResponse](t, rr).Imported; got != 1 {
		t.Fatalf("imported %d", got)
	}
}

func TestTheme(t *testing.T) {
	srv, _ := newTestServer(t)

	if got := decode[themeResponse](t, do(t, srv, http.MethodGet, "/api/theme", "")); got.Theme != store.ThemeLight {
		t.Fatalf("default theme %q", got.Theme)
	}
	if got := decode[themeResponse](t, do(t, srv, http.MethodPost, "/api/theme/toggle", "")); got.Theme != store.ThemeDark {
		t.Fatalf("toggled theme %q", got.Theme)
	}
	if rr := do(t, srv, http.MethodPut, "/api/theme", `{"theme":"sepia"}`); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid theme status=%d", rr.Code)
	}
	if got := decode[themeResponse](t, do(t, srv, http.MethodPut, "/api/theme", `{"theme":"light"}`)); got.Theme != store.ThemeLight {
		t.Fatalf("put theme %q", got.Theme)
	}
}

func TestRateLimitOnMutations(t *testing.T) {
	srv, _ := newTestServer(t, WithRateLimit(2, time.Minute))

	for i := 0; i < 2; i++ {
		if rr := do(t, srv, http.MethodPost, "/api/theme/toggle", ""); rr.Code != http.StatusOK {
			t.Fatalf("request %d status=%d", i, rr.Code)
		}
	}
	rr := do(t, srv, http.MethodPost, "/api/theme/toggle", "")
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") == "" {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	// Reads are not limited.
	if rr := do(t, srv, http.MethodGet, "/api/theme", ""); rr.Code != http.StatusOK {
		t.Fatalf("read status=%d", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.NewRecorder()
	srv, _ := newTestServer(t, WithMetrics(m))
	do(t, srv, http.MethodGet, "/api/summary", "")
	do(t, srv, http.MethodGet, "/api/summary", "")

	got, err := testutil.GatherAndCount(m.Gatherer(), "tracker_http_requests_total")
	if err != nil || got != 1 {
		t.Fatalf("expected one route series, got %d (err=%v)", got, err)
	}
	rr := do(t, srv, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `route="GET /api/summary"`) {
		t.Fatalf("metrics body:\n%s", rr.Body)
	}
}
