package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"machine-maintenance-backend/internal/service"
)

// respondError maps service errors to HTTP statuses: NotFoundError to 404,
// ValidationError to 400, ConflictError to 409 and anything else to 500.
func respondError(c *gin.Context, err error) {
	var nf *service.NotFoundError
	var ve *service.ValidationError
	var ce *service.ConflictError

	switch {
	case errors.As(err, &nf):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": nf.Msg})
	case errors.As(err, &ve):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": ve.Msg})
	case errors.As(err, &ce):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": ce.Msg})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "error interno"})
	}
}
