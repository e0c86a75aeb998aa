package handler

import (
	"net/http"
	"net/url"

	"github.com/Pesokrava/product_directory/internal/delivery/http/response"
	"github.com/Pesokrava/product_directory/internal/domain"
	"github.com/Pesokrava/product_directory/internal/pkg/logger"
)

// handleError maps service errors onto the error envelope. Internal failures are
// logged and hidden behind a generic message.
func handleError(w http.ResponseWriter, log *logger.Logger, err error) {
	code := domain.ErrorCode(err)
	if code == domain.CodeInternal {
		log.Error("Internal error while handling request", err)
		response.Error(w, http.StatusInternalServerError, code, "Internal server error")
		return
	}
	response.Error(w, response.Status(code), code, err.Error())
}

func invalidBody(w http.ResponseWriter) {
	response.Error(w, http.StatusBadRequest, domain.CodeValidationFailed, "Invalid request body")
}

func invalidID(w http.ResponseWriter, what string) {
	response.Error(w, http.StatusBadRequest, domain.CodeValidationFailed, "Invalid "+what+" ID")
}

// pageLinks adapts a listing query to response.SetLinks
type pageLinks interface {
	Values() url.Values
}

func linkValues[Q pageLinks](withPage func(int) Q) func(int) url.Values {
	return func(p int) url.Values {
		return withPage(p).Values()
	}
}
