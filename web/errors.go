// ABOUTME: Error responses for the HTTP API
// ABOUTME: Maps campaign and store sentinels to status codes with a stable error kind
package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/harperreed/outbound/campaign"
	"github.com/harperreed/outbound/db"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

const (
	kindInvalidRequest        = "invalid_request"
	kindMissingCountry        = "missing_country"
	kindInvalidComposition    = "invalid_generator_composition"
	kindEmptyVariableBank     = "empty_variable_bank"
	kindInsufficientCustomers = "insufficient_customers"
	kindNotFound              = "not_found"
	kindConflict              = "conflict"
	kindInternal              = "internal"
)

// classify returns the status and kind for err.
func classify(err error) (int, string) {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs), errors.Is(err, campaign.ErrInvalidRequest):
		return http.StatusBadRequest, kindInvalidRequest
	case errors.Is(err, campaign.ErrMissingCountry):
		return http.StatusBadRequest, kindMissingCountry
	case errors.Is(err, campaign.ErrInvalidGeneratorComposition):
		return http.StatusBadRequest, kindInvalidComposition
	case errors.Is(err, campaign.ErrEmptyVariableBank):
		return http.StatusBadRequest, kindEmptyVariableBank
	case errors.Is(err, campaign.ErrInsufficientCustomers):
		return http.StatusConflict, kindInsufficientCustomers
	case errors.Is(err, db.ErrTxConflict):
		return http.StatusConflict, kindConflict
	case campaign.IsNotFound(err):
		return http.StatusNotFound, kindNotFound
	}
	return http.StatusInternalServerError, kindInternal
}

func (s *Server) writeError(c *gin.Context, err error) {
	status, kind := classify(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Kind: kind})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: kindInvalidRequest})
}
