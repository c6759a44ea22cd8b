package handler

import (
	"net/http"

	"github.com/eaglebank/ledger/shared/config"
	"github.com/eaglebank/ledger/shared/middleware"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the public and authenticated API on router.
func RegisterRoutes(router *gin.Engine, jwtCfg config.JWT, users *UserHandler, accounts *AccountHandler, transactions *TransactionHandler) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/v1/users", users.CreateUser)

	v1 := router.Group("/v1", middleware.AuthMiddleware(jwtCfg))
	{
		v1.GET("/users/:userId", users.GetUser)

		v1.POST("/accounts", accounts.CreateAccount)
		v1.GET("/accounts", accounts.ListAccounts)
		v1.GET("/accounts/:accountId", accounts.GetAccount)

		v1.POST("/accounts/:accountId/transactions", transactions.CreateTransaction)
		v1.GET("/accounts/:accountId/transactions", transactions.ListTransactions)
		v1.GET("/accounts/:accountId/transactions/:transactionId", transactions.GetTransaction)
	}
}
