package handlers

import (
	"encoding/json"
	"net/http"
)

func numberSchema(description string) map[string]interface{} {
	return map[string]interface{}{"type": "number", "description": description}
}

func jsonContent(schema map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"application/json": map[string]interface{}{"schema": schema},
	}
}

func errorResponseSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"error":   map[string]string{"type": "string"},
			"message": map[string]string{"type": "string"},
			"code":    map[string]string{"type": "integer"},
		},
	}
}

func pondParametersSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"required": []string{
			"area", "depth", "stocking_density", "culture_start_date",
			"water_color", "shrimp_behavior", "secchi_disk", "ph",
		},
		"properties": map[string]interface{}{
			"area":             numberSchema("Pond surface area in m² (100-10000)"),
			"depth":            numberSchema("Average depth in m (0.8-2.5)"),
			"stocking_density": map[string]interface{}{"type": "integer", "description": "Post-larvae per m² (15-150)"},
			"culture_start_date": map[string]interface{}{
				"type":        "string",
				"format":      "date",
				"description": "Stocking date, YYYY-MM-DD or ISO-8601 date-time",
			},
			"water_color": map[string]interface{}{
				"type": "string",
				"enum": []string{"Clear", "Green", "Brown", "Other"},
			},
			"shrimp_behavior": map[string]interface{}{
				"type": "string",
				"enum": []string{"Active", "Lethargic", "Coming to Surface"},
			},
			"secchi_disk": numberSchema("Secchi disk transparency in cm (10-60)"),
			"ph":          numberSchema("Water pH (6.0-9.0)"),
			"location":    map[string]interface{}{"type": "string", "description": "Weather lookup location; defaults to the configured location"},
		},
	}
}

func analysisReportSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"_id":             map[string]string{"type": "string", "format": "uuid"},
			"days_of_culture": map[string]string{"type": "integer"},
			"growth_prediction": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"daily_growth":   numberSchema("grams per day"),
					"weekly_growth":  numberSchema("grams per week"),
					"estimated_size": numberSchema("grams"),
				},
			},
			"biomass_estimation": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"estimated_population": map[string]string{"type": "integer"},
					"survival_rate":        numberSchema("fraction 0-1"),
					"estimated_biomass":    numberSchema("kg"),
				},
			},
			"water_quality": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"status": map[string]interface{}{"type": "string", "enum": []string{"Good", "Poor"}},
					"issues": map[string]interface{}{"type": "array", "items": map[string]string{"type": "string"}},
				},
			},
			"carrying_capacity": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"max_biomass": numberSchema("kg"),
					"volume":      numberSchema("m³"),
				},
			},
			"feeding_recommendation": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"daily_feed_kg": numberSchema("kg per day"),
					"feeding_schedule": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"time":       map[string]string{"type": "string"},
								"percentage": map[string]string{"type": "integer"},
							},
						},
					},
				},
			},
			"recommendations": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"issue":    map[string]string{"type": "string"},
						"action":   map[string]string{"type": "string"},
						"priority": map[string]interface{}{"type": "string", "enum": []string{"High", "Medium", "Low"}},
					},
				},
			},
			"confidence_score": map[string]interface{}{"type": "integer", "minimum": 0, "maximum": 100},
		},
	}
}

// OpenAPISpec returns the OpenAPI 3.0 specification for the pond analysis API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Aquaculture Pond Analysis API",
			"description": "Shrimp pond health analysis: growth, biomass, water quality, carrying capacity and feeding plans",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "Aquaculture Platform Team",
			},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:5000", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/analyze_pond": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Analyze a pond",
					"description": "Validate pond measurements, analyze them with current weather and store the report",
					"requestBody": map[string]interface{}{
						"required": true,
						"content":  jsonContent(pondParametersSchema()),
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Analysis report with its stored identifier",
							"content":     jsonContent(analysisReportSchema()),
						},
						"400": map[string]interface{}{
							"description": "Validation failures (errors array) or a malformed request",
							"content": jsonContent(map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"errors": map[string]interface{}{"type": "array", "items": map[string]string{"type": "string"}},
								},
							}),
						},
						"500": map[string]interface{}{
							"description": "Analysis could not be stored",
							"content":     jsonContent(errorResponseSchema()),
						},
					},
				},
			},
			"/api/analyses/{id}": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get a stored analysis",
					"description": "Retrieve a stored analysis with its inputs and weather reading",
					"parameters": []map[string]interface{}{
						{
							"name":        "id",
							"in":          "path",
							"description": "Analysis identifier returned as _id",
							"required":    true,
							"schema":      map[string]string{"type": "string", "format": "uuid"},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Stored analysis",
							"content": jsonContent(map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"_id":             map[string]string{"type": "string"},
									"pond_params":     pondParametersSchema(),
									"weather_data":    map[string]interface{}{"type": "object", "nullable": true},
									"analysis_result": analysisReportSchema(),
									"timestamp":       map[string]string{"type": "string", "format": "date-time"},
								},
							}),
						},
						"404": map[string]interface{}{
							"description": "No analysis with this identifier",
							"content":     jsonContent(errorResponseSchema()),
						},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Check if the API and its analysis store are reachable",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "API is healthy",
							"content": jsonContent(map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"status": map[string]string{"type": "string"},
								},
							}),
						},
						"503": map[string]interface{}{
							"description": "Analysis store unreachable",
						},
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
