package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Pesokrava/product_directory/internal/domain"
)

// ErrorBody is the error envelope returned by every endpoint
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable code and a human readable message
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JSON writes a JSON response
func JSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// Error writes an error response
func Error(w http.ResponseWriter, statusCode int, code, message string) {
	JSON(w, statusCode, ErrorBody{Error: ErrorDetail{Code: code, Message: message}})
}

// Status maps an error code onto its HTTP status
func Status(code string) int {
	switch code {
	case domain.CodeUnauthenticated:
		return http.StatusUnauthorized
	case domain.CodePermissionDenied:
		return http.StatusForbidden
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeValidationFailed:
		return http.StatusBadRequest
	case domain.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Success writes a success response with data
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    data,
	})
}

// Created writes a created response
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    data,
	})
}

// NoContent writes a no content response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Paginated writes one page of a listing. Counts is omitted when nil.
func Paginated(w http.ResponseWriter, data any, page domain.PageInfo, counts *domain.StatusCounts) {
	body := map[string]any{
		"success":    true,
		"data":       data,
		"pagination": page,
	}
	if counts != nil {
		body["counts"] = counts
	}
	JSON(w, http.StatusOK, body)
}

// SetLinks writes an RFC 8288 Link header with first, prev, next and last relations.
// values returns the query string of a given page.
func SetLinks(w http.ResponseWriter, path string, page domain.PageInfo, values func(page int) url.Values) {
	link := func(p int, rel string) string {
		u := url.URL{Path: path, RawQuery: values(p).Encode()}
		return fmt.Sprintf("<%s>; rel=%q", u.String(), rel)
	}

	last := page.TotalPages
	if last < 1 {
		last = 1
	}

	links := []string{link(1, "first")}
	if page.HasPrev {
		links = append(links, link(page.Page-1, "prev"))
	}
	if page.HasNext {
		links = append(links, link(page.Page+1, "next"))
	}
	links = append(links, link(last, "last"))

	w.Header().Set("Link", strings.Join(links, ", "))
}
