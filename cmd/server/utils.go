package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	campus "github.com/lychee-technology/campus"
)

const (
	headerUserID     = "X-User-ID"
	headerSuperAdmin = "X-Super-Admin"

	maxBodyBytes = 1 << 20
)

// mutationRequest is the body of POST /api/v1/mutations/{mutation}.
type mutationRequest struct {
	Input json.RawMessage `json:"input"`
}

// mutationResponse carries either the output nodes or the errors of one call.
type mutationResponse struct {
	Data   any                `json:"data,omitempty"`
	Errors []*campus.APIError `json:"errors,omitempty"`
}

var errMissingUser = errors.New("missing or invalid " + headerUserID + " header")

// callerFromHeaders reads the authenticated user set by the gateway.
func callerFromHeaders(h http.Header) (uuid.UUID, bool, error) {
	userID, err := uuid.Parse(strings.TrimSpace(h.Get(headerUserID)))
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, false, errMissingUser
	}
	admin, _ := strconv.ParseBool(h.Get(headerSuperAdmin))
	return userID, admin, nil
}

// statusFor maps a mutation failure to its HTTP status and response errors.
// The second result is false for failures the caller should not see in detail.
func statusFor(err error) (int, []*campus.APIError, bool) {
	if c, ok := campus.AsAPIErrorCollection(err); ok {
		return http.StatusBadRequest, c.Errors, true
	}
	var perm *campus.PermissionError
	if errors.As(err, &perm) {
		return http.StatusForbidden, []*campus.APIError{perm.APIError()}, true
	}
	if e, ok := campus.AsAPIError(err); ok {
		if e.Code == campus.ErrCodeDatabaseSave {
			return http.StatusInternalServerError, []*campus.APIError{e}, true
		}
		return http.StatusBadRequest, []*campus.APIError{e}, true
	}
	return http.StatusInternalServerError, []*campus.APIError{{Code: "ERR_INTERNAL", Message: "internal error"}}, false
}

// writeJSON writes JSON response to http.ResponseWriter
func writeJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// writeError writes a single request-level error
func writeError(w http.ResponseWriter, statusCode int, code campus.ErrorCode, message string) error {
	return writeJSON(w, statusCode, mutationResponse{Errors: []*campus.APIError{{Code: code, Message: message}}})
}

// readJSONBody reads and decodes JSON from request body
func readJSONBody(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid json body: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// applyEnv overrides file or default settings with environment variables.
func applyEnv(cfg *campus.Config) {
	db := &cfg.Database
	db.Host = getEnv("DB_HOST", db.Host)
	db.Port = getEnvInt("DB_PORT", db.Port)
	db.Database = getEnv("DB_NAME", db.Database)
	db.Username = getEnv("DB_USER", db.Username)
	db.Password = getEnv("DB_PASSWORD", db.Password)
	db.SSLMode = getEnv("DB_SSL_MODE", db.SSLMode)
	db.MaxConnections = getEnvInt("DB_MAX_CONNECTIONS", db.MaxConnections)
	db.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", db.MaxIdleConns)
	db.Timeout = getEnvDuration("DB_TIMEOUT", db.Timeout)
	db.IAMAuth = getEnvBool("DB_IAM_AUTH", db.IAMAuth)
	db.Region = getEnv("AWS_REGION", db.Region)

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)
	cfg.Metrics.Enabled = getEnvBool("METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
}
