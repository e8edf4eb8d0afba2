package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mmngreco/ine-go/src/logger"
)

// GenerateETag creates a SHA256 hash of the JSON representation of the data.
// Returns the ETag string (hex-encoded hash) and any error during JSON marshaling.
func GenerateETag(data interface{}) (string, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal data for ETag generation: %w", err)
	}
	return etagFor(jsonData), nil
}

func etagFor(jsonData []byte) string {
	hash := sha256.Sum256(jsonData)
	return hex.EncodeToString(hash[:])
}

// SendJSONError sends a JSON formatted error response.
func SendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	logger.L.Warn("Sending JSON error to client", "message", message, "statusCode", statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// WriteJSONWithETag writes data as JSON with a strong ETag, answering
// 304 Not Modified when the request's If-None-Match already carries it.
// Data that cannot be marshaled yields a 500 JSON error.
func WriteJSONWithETag(w http.ResponseWriter, r *http.Request, data interface{}) {
	log := logger.FromContext(r.Context())

	body, err := json.Marshal(data)
	if err != nil {
		log.Error("Error encoding JSON response", "path", r.URL.Path, "error", err)
		SendJSONError(w, "failed to encode response", http.StatusInternalServerError)
		return
	}

	quotedETag := fmt.Sprintf("\"%s\"", etagFor(body))
	w.Header().Set("ETag", quotedETag)
	for _, cETag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
		if strings.TrimSpace(cETag) == quotedETag {
			log.Debug("ETag match", "path", r.URL.Path, "etag", quotedETag)
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(append(body, '\n')); err != nil {
		log.Error("Error writing JSON response", "path", r.URL.Path, "error", err)
	}
}
