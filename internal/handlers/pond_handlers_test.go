package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aquaculture-platform/internal/models"
	"aquaculture-platform/internal/repository"
	"aquaculture-platform/internal/services"
	"aquaculture-platform/pkg/database"
	"aquaculture-platform/pkg/logging"
	"aquaculture-platform/pkg/metrics"
)

// payload dates carry no offset and parse in time.Local
var evalTime = time.Date(2025, 6, 15, 9, 30, 0, 0, time.Local)

type staticProvider struct {
	reading *models.WeatherReading
}

func (p staticProvider) Fetch(ctx context.Context, location string) *models.WeatherReading {
	return p.reading
}

type testServer struct {
	router *mux.Router
	db     *database.DB
}

func newTestServer(t *testing.T, migrate bool) *testServer {
	t.Helper()

	logger := logging.NewNopLogger()
	collector := metrics.NewTestCollector()

	db, err := database.Open(&database.Config{Driver: database.DriverSQLite, Path: ":memory:"}, logger, collector)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	if migrate {
		require.NoError(t, db.Migrate(context.Background(), database.DirectionUp))
	}

	repo := repository.NewAnalysisRepository(db, logger, collector)
	svc := services.NewAnalysisService(repo, staticProvider{}, logger, collector).
		WithClock(func() time.Time { return evalTime })

	router := mux.NewRouter()
	router.Use(RequestID(), Recover(logger, collector))
	NewPondHandler(svc, logger, collector).RegisterRoutes(router)

	return &testServer{router: router, db: db}
}

func (s *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

const referencePayload = `{
	"area": 1000,
	"depth": 1.5,
	"stocking_density": 80,
	"culture_start_date": "2025-05-01",
	"water_color": "Clear",
	"shrimp_behavior": "Active",
	"secchi_disk": 30,
	"ph": 7.5,
	"location": "Ranipet"
}`

func TestHome(t *testing.T) {
	srv := newTestServer(t, true)

	rec := srv.do(http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Upcheck aquaman home page", rec.Body.String())
}

func TestAnalyzePond_Success(t *testing.T) {
	srv := newTestServer(t, true)

	rec := srv.do(http.MethodPost, "/analyze_pond", referencePayload)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	id, ok := body["_id"].(string)
	require.True(t, ok)
	assert.NotEmpty(t, id)
	assert.Equal(t, 45.0, body["days_of_culture"])
	// no weather reading: -20
	assert.Equal(t, 80.0, body["confidence_score"])
	assert.Contains(t, body, "growth_prediction")
	assert.Contains(t, body, "feeding_recommendation")
	assert.Equal(t, []interface{}{}, body["recommendations"])

	rec = srv.do(http.MethodGet, "/api/analyses/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stored models.StoredAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	assert.Equal(t, id, stored.ID)
	assert.Equal(t, "Ranipet", stored.Params.Location)
	assert.Nil(t, stored.Weather)
	assert.Equal(t, 80, stored.Report.ConfidenceScore)
}

func TestAnalyzePond_ValidationErrors(t *testing.T) {
	srv := newTestServer(t, true)

	payload := strings.Replace(referencePayload, `"ph": 7.5`, `"ph": 5.5`, 1)
	payload = strings.Replace(payload, `"Clear"`, `"Purple"`, 1)

	rec := srv.do(http.MethodPost, "/analyze_pond", payload)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body ValidationErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{
		"Invalid water_color. Must be one of: Clear, Green, Brown, Other",
		"ph must be between 6.0 and 9.0",
	}, body.Errors)
}

func TestAnalyzePond_FutureStartDate(t *testing.T) {
	srv := newTestServer(t, true)

	payload := strings.Replace(referencePayload, "2025-05-01", "2025-07-01", 1)

	rec := srv.do(http.MethodPost, "/analyze_pond", payload)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body ValidationErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"Culture start date cannot be in the future"}, body.Errors)
}

func TestAnalyzePond_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		message string
	}{
		{"malformed json", `{"area": `, "request body must be a JSON object"},
		{"wrong type", `{"area": "large"}`, "area must be a number, got string"},
		{"fractional density", strings.Replace(referencePayload, `"stocking_density": 80`, `"stocking_density": 80.5`, 1), "stocking_density must be an integer, got number 80.5"},
		{"bad date", strings.Replace(referencePayload, "2025-05-01", "01/05/2025", 1), "culture_start_date"},
		{"missing date", `{"area": 1000}`, "culture_start_date"},
	}

	srv := newTestServer(t, true)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(http.MethodPost, "/analyze_pond", tt.payload)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, http.StatusBadRequest, body.Code)
			assert.Contains(t, body.Message, tt.message)
		})
	}
}

func TestAnalyzePond_StoreFailure(t *testing.T) {
	srv := newTestServer(t, false)

	rec := srv.do(http.MethodPost, "/analyze_pond", referencePayload)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "failed to store analysis", body.Message)
	assert.NotContains(t, rec.Body.String(), "pond_analyses", "internal details must not leak")
}

func TestGetAnalysis_NotFound(t *testing.T) {
	srv := newTestServer(t, true)

	for _, id := range []string{"7d0c4a52-58f3-4c53-9d55-1b1c7f0b2e11", "nope"} {
		rec := srv.do(http.MethodGet, "/api/analyses/"+id, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, id)
	}
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, true)

	rec := srv.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])

	require.NoError(t, srv.db.Close())

	rec = srv.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body["status"])
}

func TestRequestID(t *testing.T) {
	srv := newTestServer(t, true)

	rec := srv.do(http.MethodGet, "/", "")
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
}

func TestRequestID_PropagatesToContext(t *testing.T) {
	var seen string
	handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-456")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "req-456", seen)
}

func TestRecover(t *testing.T) {
	router := mux.NewRouter()
	router.Use(Recover(logging.NewNopLogger(), metrics.NewTestCollector()))
	router.HandleFunc("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body.Message)
}

func TestOpenAPISpec(t *testing.T) {
	srv := newTestServer(t, true)

	rec := srv.do(http.MethodGet, "/api/docs/openapi.json", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var spec map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &spec))
	assert.Equal(t, "3.0.0", spec["openapi"])

	paths, ok := spec["paths"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, paths, "/analyze_pond")
	assert.Contains(t, paths, "/api/analyses/{id}")

	rec = srv.do(http.MethodGet, "/api/docs", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "swagger-ui")
}

type brokerState bool

func (b brokerState) IsConnected() bool { return bool(b) }

func TestHealthCheck_ReportsBroker(t *testing.T) {
	for _, tt := range []struct {
		connected bool
		want      string
	}{
		{true, "connected"},
		{false, "disconnected"},
	} {
		t.Run(tt.want, func(t *testing.T) {
			logger := logging.NewNopLogger()
			collector := metrics.NewTestCollector()
			db, err := database.Open(&database.Config{Driver: database.DriverSQLite, Path: ":memory:"}, logger, collector)
			require.NoError(t, err)
			t.Cleanup(func() { db.Close() })

			svc := services.NewAnalysisService(repository.NewAnalysisRepository(db, logger, collector), staticProvider{}, logger, collector)
			router := mux.NewRouter()
			NewPondHandler(svc, logger, collector).WithBroker(brokerState(tt.connected)).RegisterRoutes(router)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			// a lost broker leaves the service healthy
			require.Equal(t, http.StatusOK, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "healthy", body["status"])
			assert.Equal(t, tt.want, body["mqtt"])
		})
	}
}

func TestInFlight(t *testing.T) {
	collector := metrics.NewTestCollector()

	var during float64
	handler := InFlight(collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		during = testutil.ToFloat64(collector.ActiveConnections)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, 1.0, during)
	assert.Equal(t, 0.0, testutil.ToFloat64(collector.ActiveConnections))
}
