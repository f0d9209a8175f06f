// Package respond writes the JSON envelopes shared by every handler:
// {"data": ...} for reads and {"message": ...} for actions and errors.
package respond

import (
	"errors"
	"log/slog"
	"net/http"

	"billing-dashboard/internal/domain/billing"

	"github.com/gin-gonic/gin"
)

func Data(c *gin.Context, v any) {
	c.JSON(http.StatusOK, gin.H{"data": v})
}

func Message(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func Fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"message": msg})
}

// Error maps a workflow error to its HTTP status. Payment failures echo the
// processor detail; anything unclassified is logged and reported as 500.
func Error(c *gin.Context, logger *slog.Logger, err error) {
	var be *billing.Error
	if !errors.As(err, &be) {
		logger.Error("unhandled error", "path", c.FullPath(), "error", err)
		Fail(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	switch be.Kind {
	case billing.KindValidation:
		Fail(c, http.StatusBadRequest, be.Message)
	case billing.KindNotFound:
		Fail(c, http.StatusNotFound, be.Message)
	case billing.KindPaymentFailed:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": be.Message, "details": be.Detail})
	default:
		logger.Error("upstream failure", "path", c.FullPath(), "error", err)
		Fail(c, http.StatusInternalServerError, be.Message)
	}
}
