package middleware

import (
	"errors"
	"log"
	"net/http"

	"github.com/eaglebank/ledger/shared/apperr"
	"github.com/gin-gonic/gin"
)

// StatusFor maps an error kind to its HTTP status. A store failure is a server
// error whatever kind its cause carries.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrPersistence):
		return http.StatusInternalServerError
	case errors.Is(err, apperr.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithAppError writes err using the status of its kind. Server errors
// are logged and their detail withheld from the client.
func RespondWithAppError(c *gin.Context, err error) {
	code := StatusFor(err)
	if code == http.StatusInternalServerError {
		log.Printf("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		_ = c.Error(err)
		RespondWithError(c, code, "An unexpected error occurred")
		return
	}
	RespondWithError(c, code, apperr.Message(err))
}
