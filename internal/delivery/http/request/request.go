package request

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Pesokrava/product_directory/internal/domain"
)

const maxRequestBodySize = 1 << 20 // 1MB

// DecodeJSON decodes JSON request body into the provided struct with size limit
func DecodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()

	// Limit request body size to prevent DoS attacks
	limitedReader := io.LimitReader(r.Body, maxRequestBodySize)

	if err := json.NewDecoder(limitedReader).Decode(v); err != nil {
		return fmt.Errorf("failed to decode JSON: %w", err)
	}
	return nil
}

// GetUUIDParam extracts a UUID parameter from the URL
func GetUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	param := chi.URLParam(r, key)
	if param == "" {
		return uuid.Nil, fmt.Errorf("missing parameter: %s", key)
	}

	id, err := uuid.Parse(param)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid UUID: %w", err)
	}

	return id, nil
}

// GetIntQuery extracts an integer query parameter with a default value
func GetIntQuery(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// GetBoolQuery reports whether a query parameter is set to a true value
func GetBoolQuery(r *http.Request, key string) bool {
	b, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && b
}

// first returns the first non-empty query value among the keys
func first(r *http.Request, keys ...string) string {
	q := r.URL.Query()
	for _, k := range keys {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			return v
		}
	}
	return ""
}

// GetProductParams reads product listing parameters. Page and limit are clamped later.
func GetProductParams(r *http.Request) domain.ProductParams {
	return domain.ProductParams{
		Status:         first(r, "status"),
		Search:         first(r, "search", "q"),
		Category:       first(r, "category"),
		Pricing:        first(r, "pricing"),
		Featured:       GetBoolQuery(r, "featured"),
		Mine:           GetBoolQuery(r, "mine"),
		Sort:           first(r, "sort"),
		Order:          first(r, "order"),
		Page:           GetIntQuery(r, "page", 1),
		Limit:          GetIntQuery(r, "limit", 0),
		IncludeDeleted: GetBoolQuery(r, "include_deleted"),
	}
}

// GetReviewParams reads review listing parameters
func GetReviewParams(r *http.Request) (domain.ReviewParams, error) {
	params := domain.ReviewParams{
		Status:         first(r, "status"),
		Sort:           first(r, "sort"),
		Order:          first(r, "order"),
		Page:           GetIntQuery(r, "page", 1),
		Limit:          GetIntQuery(r, "limit", 0),
		IncludeDeleted: GetBoolQuery(r, "include_deleted"),
	}

	for key, dst := range map[string]**uuid.UUID{
		"product_id": &params.ProductID,
		"user_id":    &params.UserID,
	} {
		raw := first(r, key, camel(key))
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return domain.ReviewParams{}, domain.Invalid("%s must be a UUID", key)
		}
		*dst = &id
	}
	return params, nil
}

// camel converts snake_case query keys to their camelCase aliases
func camel(key string) string {
	parts := strings.Split(key, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] == "id" {
			parts[i] = "Id"
			continue
		}
		parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
	}
	return strings.Join(parts, "")
}
