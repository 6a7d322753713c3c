package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"aquaculture-platform/internal/models"
	"aquaculture-platform/internal/repository"
	"aquaculture-platform/internal/services"
	"aquaculture-platform/pkg/logging"
	"aquaculture-platform/pkg/metrics"
)

const maxRequestBytes = 1 << 20

// BrokerStatus reports the state of the report broker connection
type BrokerStatus interface {
	IsConnected() bool
}

// PondHandler handles pond analysis API endpoints
type PondHandler struct {
	analysisService *services.AnalysisService
	broker          BrokerStatus
	logger          *logging.StructuredLogger
	metrics         *metrics.Collector
}

// NewPondHandler creates a new pond handler
func NewPondHandler(
	analysisService *services.AnalysisService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *PondHandler {
	return &PondHandler{
		analysisService: analysisService,
		logger:          logger,
		metrics:         metricsCollector,
	}
}

// WithBroker adds the broker connection state to /health. A disconnected
// broker does not make the service unhealthy since publishing is best effort.
func (h *PondHandler) WithBroker(broker BrokerStatus) *PondHandler {
	h.broker = broker
	return h
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ValidationErrorResponse lists every violation found in a submission
type ValidationErrorResponse struct {
	Errors []string `json:"errors"`
}

// AnalyzePondRequest is the wire form of a pond submission
type AnalyzePondRequest struct {
	Area             float64 `json:"area"`
	Depth            float64 `json:"depth"`
	StockingDensity  int     `json:"stocking_density"`
	CultureStartDate string  `json:"culture_start_date"`
	WaterColor       string  `json:"water_color"`
	ShrimpBehavior   string  `json:"shrimp_behavior"`
	SecchiDisk       float64 `json:"secchi_disk"`
	PH               float64 `json:"ph"`
	Location         string  `json:"location"`
}

// ToParameters converts the request into domain parameters
func (req AnalyzePondRequest) ToParameters() (models.PondParameters, error) {
	start, err := models.ParseCultureStartDate(req.CultureStartDate)
	if err != nil {
		return models.PondParameters{}, err
	}

	return models.PondParameters{
		AreaM2:           req.Area,
		DepthM:           req.Depth,
		StockingDensity:  req.StockingDensity,
		CultureStartDate: start,
		WaterColor:       models.WaterColor(req.WaterColor),
		ShrimpBehavior:   models.ShrimpBehavior(req.ShrimpBehavior),
		SecchiDiskCm:     req.SecchiDisk,
		PH:               req.PH,
		Location:         req.Location,
	}, nil
}

// AnalyzePondResponse is the report plus the identifier it was stored under
type AnalyzePondResponse struct {
	ID string `json:"_id"`
	models.AnalysisReport
}

// AnalyzePond handles POST /analyze_pond
func (h *PondHandler) AnalyzePond(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/analyze_pond").Observe(duration.Seconds())
	}()

	var req AnalyzePondRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := decoder.Decode(&req); err != nil {
		h.logger.Info(ctx, "[API_ANALYZE_BAD_REQUEST] Malformed request body", logging.Fields{
			"error": err.Error(),
		})
		h.metrics.RecordAPIError("bad_request", "/analyze_pond")
		h.sendError(w, r, decodeErrorMessage(err), http.StatusBadRequest)
		return
	}

	params, err := req.ToParameters()
	if err != nil {
		h.metrics.RecordAPIError("bad_request", "/analyze_pond")
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.analysisService.AnalyzePond(ctx, params)
	if err != nil {
		var validationErr *models.ValidationError
		if errors.As(err, &validationErr) {
			h.metrics.RecordAPIError("validation", "/analyze_pond")
			h.metrics.RecordAPIRequest("/analyze_pond", r.Method, strconv.Itoa(http.StatusBadRequest))
			h.sendJSON(w, ValidationErrorResponse{Errors: validationErr.Problems}, http.StatusBadRequest)
			return
		}

		h.logger.Error(ctx, "[API_ANALYZE_ERROR] Failed to analyze pond", logging.Fields{
			"location": params.Location,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/analyze_pond")

		var storeErr *services.StoreError
		if errors.As(err, &storeErr) {
			h.sendError(w, r, "failed to store analysis", http.StatusInternalServerError)
			return
		}
		h.sendError(w, r, "failed to analyze pond", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/analyze_pond", r.Method, "200")
	h.sendJSON(w, AnalyzePondResponse{ID: result.ID, AnalysisReport: result.Report}, http.StatusOK)
}

// GetAnalysis handles GET /api/analyses/{id}
func (h *PondHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/analyses").Observe(duration.Seconds())
	}()

	id := mux.Vars(r)["id"]

	stored, err := h.analysisService.GetAnalysis(ctx, id)
	if err != nil {
		var notFound *repository.NotFoundError
		if errors.As(err, &notFound) {
			h.sendError(w, r, "analysis not found", http.StatusNotFound)
			return
		}

		h.logger.Error(ctx, "[API_GET_ANALYSIS_ERROR] Failed to get analysis", logging.Fields{
			"analysis_id": id,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/analyses")
		h.sendError(w, r, "failed to retrieve analysis", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/analyses", r.Method, "200")
	h.sendJSON(w, stored, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *PondHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if h.broker != nil {
		status["mqtt"] = "connected"
		if !h.broker.IsConnected() {
			status["mqtt"] = "disconnected"
		}
	}

	if err := h.analysisService.HealthCheck(ctx); err != nil {
		h.logger.Warn(ctx, "[HEALTH_CHECK_FAILED] Analysis store unreachable", logging.Fields{
			"error": err.Error(),
		})
		status["status"] = "unhealthy"
		h.sendJSON(w, status, http.StatusServiceUnavailable)
		return
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// Home handles GET /
func (h *PondHandler) Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Upcheck aquaman home page"))
}

// decodeErrorMessage names the offending field when the body is valid JSON
// with a value of the wrong type
func decodeErrorMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("%s must be %s, got %s", typeErr.Field, jsonKind(typeErr.Type.Kind()), typeErr.Value)
	}
	return "request body must be a JSON object"
}

func jsonKind(kind reflect.Kind) string {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "an integer"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.String:
		return "a string"
	default:
		return "a " + kind.String()
	}
}

// sendJSON sends a JSON response
func (h *PondHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *PondHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(endpointLabel(r), r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all pond API routes
func (h *PondHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", h.Home).Methods("GET")
	router.HandleFunc("/analyze_pond", h.AnalyzePond).Methods("POST")
	router.HandleFunc("/api/analyses/{id}", h.GetAnalysis).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")
	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")
}
