package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/jonwraymond/employeesvc/auth"
	"github.com/jonwraymond/employeesvc/employee"
	"github.com/jonwraymond/employeesvc/health"
	"github.com/jonwraymond/employeesvc/observe"
)

const (
	testAPIKey     = "abc123"
	testSigningKey = "signing-key"
)

// memStore is an in-memory employee.Store.
type memStore struct {
	mu      sync.Mutex
	rows    []employee.Employee
	listErr error
}

func (s *memStore) List(_ context.Context, page employee.Page) ([]employee.Employee, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	page = page.Normalize()
	if page.Offset >= len(s.rows) {
		return nil, nil
	}
	end := min(page.Offset+page.Limit, len(s.rows))
	return append([]employee.Employee(nil), s.rows[page.Offset:end]...), nil
}

func (s *memStore) Get(_ context.Context, id int64) (*employee.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.rows {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, employee.ErrNotFound
}

func (s *memStore) Create(_ context.Context, e *employee.Employee) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rows {
		if existing.Email == e.Email {
			return employee.ErrDuplicateEmail
		}
	}
	e.ID = int64(len(s.rows) + 1)
	s.rows = append(s.rows, *e)
	return nil
}

func newTestRouter(t *testing.T, store *memStore) (http.Handler, *sdkmetric.ManualReader) {
	t.Helper()

	keys, err := auth.NewStaticAPIKeyStore(testAPIKey, "test-client")
	if err != nil {
		t.Fatal(err)
	}
	jwtAuth, err := auth.NewJWTAuthenticator(auth.JWTConfig{}, testSigningKey)
	if err != nil {
		t.Fatal(err)
	}

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := observe.NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}

	agg := health.NewAggregator()
	agg.Register(health.NewPingChecker("database", func(context.Context) error { return nil }))

	r := NewRouter(Options{
		Store:          store,
		Auth:           auth.NewCompositeAuthenticator(auth.NewAPIKeyAuthenticator(keys), jwtAuth),
		Health:         agg,
		Metrics:        metrics,
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("# metrics")) }),
	})
	return r, reader
}

func do(t *testing.T, h http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

var withKey = map[string]string{"X-API-Key": testAPIKey}

func TestRouter_Root(t *testing.T) {
	h, _ := newTestRouter(t, &memStore{})
	rec := do(t, h, http.MethodGet, "/", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["message"] != "Welcome to the employee service API" || body["status"] != "running" {
		t.Errorf("body = %v", body)
	}
}

func TestNewRouter_KeepsGinMode(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)
	t.Cleanup(func() { gin.SetMode(gin.TestMode) })

	newTestRouter(t, &memStore{})
	if got := gin.Mode(); got != gin.ReleaseMode {
		t.Errorf("gin.Mode() = %q after NewRouter, want %q", got, gin.ReleaseMode)
	}
}

func TestRouter_Hello(t *testing.T) {
	h, _ := newTestRouter(t, &memStore{})
	rec := do(t, h, http.MethodGet, "/hello", "", nil)

	if rec.Code != http.StatusOK || rec.Body.String() != "Hello from employeesvc!" {
		t.Errorf("GET /hello = %d %q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestRouter_HealthEndpoints(t *testing.T) {
	h, _ := newTestRouter(t, &memStore{})

	rec := do(t, h, http.MethodGet, "/health", "", nil)
	var status health.StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || status.Status != "UP" {
		t.Errorf("GET /health = %d %+v", rec.Code, status)
	}
	if _, ok := status.Checks["database"]; !ok {
		t.Errorf("checks = %v, want database", status.Checks)
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		if rec := do(t, h, http.MethodGet, path, "", nil); rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d", path, rec.Code)
		}
	}
	if rec := do(t, h, http.MethodGet, "/metrics", "", nil); rec.Body.String() != "# metrics" {
		t.Errorf("GET /metrics = %q", rec.Body.String())
	}
}

func TestRouter_APIRequiresAuth(t *testing.T) {
	h, _ := newTestRouter(t, &memStore{})

	rec := do(t, h, http.MethodGet, "/api/employees", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no credentials: status = %d", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("missing WWW-Authenticate header")
	}

	rec = do(t, h, http.MethodGet, "/api/employees", "", map[string]string{"X-API-Key": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: status = %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/employees", "", withKey)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("api key: %d %q", rec.Code, rec.Body.String())
	}
}

func TestRouter_APIAcceptsJWT(t *testing.T) {
	h, _ := newTestRouter(t, &memStore{})

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "hr-portal",
		"exp": time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte(testSigningKey))
	if err != nil {
		t.Fatal(err)
	}

	rec := do(t, h, http.MethodGet, "/api/employees", "", map[string]string{"Authorization": "Bearer " + token})
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_CreateAndGet(t *testing.T) {
	store := &memStore{}
	h, _ := newTestRouter(t, store)

	body := `{"first_name":"Ada","last_name":"Lovelace","email":"ada@example.com","hire_date":"2021-03-15","salary":"72500.00"}`
	rec := do(t, h, http.MethodPost, "/api/employees", body, withKey)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST status = %d, body %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/api/employees/1" {
		t.Errorf("Location = %q", loc)
	}

	rec = do(t, h, http.MethodGet, "/api/employees/1", "", withKey)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rec.Code)
	}
	var got employee.Employee
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != 1 || got.Email != "ada@example.com" || got.HireDate.String() != "2021-03-15" {
		t.Errorf("GET body = %+v", got)
	}

	rec = do(t, h, http.MethodPost, "/api/employees", body, withKey)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate POST status = %d", rec.Code)
	}
}

func TestRouter_Errors(t *testing.T) {
	store := &memStore{}
	h, _ := newTestRouter(t, store)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"non numeric id", http.MethodGet, "/api/employees/abc", "", http.StatusBadRequest},
		{"negative id", http.MethodGet, "/api/employees/-1", "", http.StatusBadRequest},
		{"missing", http.MethodGet, "/api/employees/42", "", http.StatusNotFound},
		{"malformed json", http.MethodPost, "/api/employees", "{", http.StatusBadRequest},
		{"invalid record", http.MethodPost, "/api/employees", `{"first_name":"Ada"}`, http.StatusBadRequest},
		{"bad date", http.MethodPost, "/api/employees", `{"hire_date":"yesterday"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body, withKey)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] == "" {
				t.Errorf("error body = %s", rec.Body.String())
			}
		})
	}
}

func TestRouter_StoreFailureIsHidden(t *testing.T) {
	store := &memStore{listErr: errors.New("pq: connection reset by peer")}
	h, _ := newTestRouter(t, store)

	rec := do(t, h, http.MethodGet, "/api/employees", "", withKey)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection reset") {
		t.Errorf("internal error leaked: %s", rec.Body.String())
	}
}

func TestRouter_RecordsRequestMetrics(t *testing.T) {
	h, reader := newTestRouter(t, &memStore{})
	do(t, h, http.MethodGet, "/hello", "", nil)
	do(t, h, http.MethodGet, "/no-such-route", "", nil)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}

	routes := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "http.server.requests" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("unexpected data type %T", m.Data)
			}
			for _, dp := range sum.DataPoints {
				route, _ := dp.Attributes.Value("http.route")
				routes[route.AsString()] += dp.Value
			}
		}
	}
	if routes["/hello"] != 1 || routes["unmatched"] != 1 {
		t.Errorf("requests by route = %v", routes)
	}
}
