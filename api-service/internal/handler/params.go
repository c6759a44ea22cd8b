package handler

import (
	"net/http"
	"strconv"

	"github.com/eaglebank/ledger/shared/middleware"
	"github.com/gin-gonic/gin"
)

// pathID parses a positive numeric path parameter, writing a 400 on failure.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// principal returns the authenticated email, writing a 401 when absent.
func principal(c *gin.Context) (string, bool) {
	email, ok := middleware.GetEmail(c)
	if !ok {
		middleware.RespondWithError(c, http.StatusUnauthorized, "Authentication required")
		return "", false
	}
	return email, true
}
