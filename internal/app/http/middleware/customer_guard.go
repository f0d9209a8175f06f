package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireCustomer rejects sessions that are not linked to a billing customer.
func RequireCustomer() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(KeyCustomerID) == "" {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "No customer found"})
			return
		}
		c.Next()
	}
}

// CustomerID returns the billing customer of the current session.
func CustomerID(c *gin.Context) string {
	return c.GetString(KeyCustomerID)
}
