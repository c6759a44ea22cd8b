// Package gateway routes public traffic to the auth and api services,
// verifying bearer tokens at the edge before anything protected is proxied.
package gateway

import (
	"fmt"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"

	"github.com/eaglebank/ledger/shared/config"
	"github.com/eaglebank/ledger/shared/middleware"
	"github.com/gin-gonic/gin"
)

const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
)

type Upstreams struct {
	AuthServiceURL string `envconfig:"AUTH_SERVICE_URL" default:"http://localhost:8081"`
	APIServiceURL  string `envconfig:"API_SERVICE_URL" default:"http://localhost:8082"`
}

// New builds the gateway router.
func New(upstreams Upstreams, jwtCfg config.JWT) (*gin.Engine, error) {
	authProxy, err := newProxy(upstreams.AuthServiceURL)
	if err != nil {
		return nil, fmt.Errorf("auth service url: %w", err)
	}
	apiProxy, err := newProxy(upstreams.APIServiceURL)
	if err != nil {
		return nil, fmt.Errorf("api service url: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "api-gateway"})
	})

	// Auth routes (no authentication required)
	router.POST("/v1/auth/login", forward(authProxy))
	router.POST("/v1/auth/refresh", forward(authProxy))

	// Registration is public
	router.POST("/v1/users", forward(apiProxy))

	protected := router.Group("/v1", middleware.AuthMiddleware(jwtCfg))
	{
		protected.GET("/users/:userId", forward(apiProxy))

		protected.POST("/accounts", forward(apiProxy))
		protected.GET("/accounts", forward(apiProxy))
		protected.GET("/accounts/:accountId", forward(apiProxy))

		protected.POST("/accounts/:accountId/transactions", forward(apiProxy))
		protected.GET("/accounts/:accountId/transactions", forward(apiProxy))
		protected.GET("/accounts/:accountId/transactions/:transactionId", forward(apiProxy))
	}

	return router, nil
}

func newProxy(raw string) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(strings.TrimSuffix(raw, "/"))
	if err != nil {
		return nil, err
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("%q is not an absolute url", raw)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Printf("Error proxying %s %s: %v", r.Method, r.URL.Path, err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message":"Service unavailable"}`))
	}
	return proxy, nil
}

func forward(proxy *httputil.ReverseProxy) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Never trust identity headers supplied by the caller.
		c.Request.Header.Del(HeaderUserID)
		c.Request.Header.Del(HeaderUserEmail)

		if userID, ok := middleware.GetUserID(c); ok {
			c.Request.Header.Set(HeaderUserID, strconv.FormatInt(userID, 10))
		}
		if email, ok := middleware.GetEmail(c); ok {
			c.Request.Header.Set(HeaderUserEmail, email)
		}

		proxy.ServeHTTP(c.Writer, c.Request)
	}
}
