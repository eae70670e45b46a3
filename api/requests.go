package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/arenaplay/arena/domain/entities"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const (
	userIDHeader = "X-User-ID"
	userIDKey    = "userID"
)

// requireUser rejects requests without a positive X-User-ID
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.GetHeader(userIDHeader), 10, 64)
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid " + userIDHeader})
			return
		}
		c.Set(userIDKey, id)
		c.Next()
	}
}

func currentUser(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}

// pathID parses a positive int64 path parameter, writing a 400 when it is malformed
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// bindJSON decodes the body, writing a 400 when it is malformed
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, entities.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, entities.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entities.ErrForbidden),
		errors.Is(err, entities.ErrNotParticipant):
		return http.StatusForbidden
	case errors.Is(err, entities.ErrAlreadySettled),
		errors.Is(err, entities.ErrAlreadyQueued),
		errors.Is(err, entities.ErrAlreadyRolled),
		errors.Is(err, entities.ErrAccountExists),
		errors.Is(err, entities.ErrInvalidStateTransition),
		errors.Is(err, entities.ErrConcurrencyConflict),
		errors.Is(err, entities.ErrNumbersExhausted):
		return http.StatusConflict
	case errors.Is(err, entities.ErrInvalidAmount),
		errors.Is(err, entities.ErrInvalidConfig),
		errors.Is(err, entities.ErrInvalidInput),
		errors.Is(err, entities.ErrInvalidNumber),
		errors.Is(err, entities.ErrNumberAlreadyDrawn),
		errors.Is(err, entities.ErrNoWinningCard):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as JSON. Internal errors are logged and not echoed.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{
			"path":   c.FullPath(),
			"userID": currentUser(c),
		}).Error("Request failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
