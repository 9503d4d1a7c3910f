package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"
)

// OpenAPIHandler serves the API description as YAML and JSON
type OpenAPIHandler struct {
	yamlDoc []byte
	jsonDoc []byte
}

// NewOpenAPIHandler loads and parses the document once so a malformed file fails at startup
func NewOpenAPIHandler(openAPIPath string) (*OpenAPIHandler, error) {
	absPath, err := filepath.Abs(filepath.Clean(openAPIPath))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve openapi path: %w", err)
	}
	switch strings.ToLower(filepath.Ext(absPath)) {
	case ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("openapi document must be a .yaml file: %s", openAPIPath)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat openapi document: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("openapi document is not a regular file: %s", openAPIPath)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read openapi document: %w", err)
	}
	return newOpenAPIHandlerFromYAML(data)
}

func newOpenAPIHandlerFromYAML(data []byte) (*OpenAPIHandler, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse openapi document: %w", err)
	}
	if _, ok := doc["openapi"]; !ok {
		return nil, fmt.Errorf("openapi document has no openapi version field")
	}

	jsonDoc, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert openapi document to JSON: %w", err)
	}
	return &OpenAPIHandler{yamlDoc: data, jsonDoc: jsonDoc}, nil
}

// RegisterRoutes registers OpenAPI routes
func (h *OpenAPIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/openapi.yaml", h.ServeYAML).Methods("GET")
	r.HandleFunc("/api/v1/openapi.json", h.ServeJSON).Methods("GET")
}

// ServeYAML serves the OpenAPI document in YAML format
func (h *OpenAPIHandler) ServeYAML(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/x-yaml")
	_, _ = w.Write(h.yamlDoc)
}

// ServeJSON serves the OpenAPI document in JSON format
func (h *OpenAPIHandler) ServeJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(h.jsonDoc)
}
