package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/stay-booking-api/internal/middleware"
	"github.com/noah-isme/stay-booking-api/internal/models"
	appErrors "github.com/noah-isme/stay-booking-api/pkg/errors"
	"github.com/noah-isme/stay-booking-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.Claims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.Claims)
	if !ok {
		return nil
	}
	return claims
}

func bearerFromContext(c *gin.Context) string {
	return c.GetString(middleware.ContextTokenKey)
}

// respond writes data with the request's metadata, flagging degraded payloads.
func respond(c *gin.Context, status int, data interface{}, warning string) {
	middleware.SetWarning(c, warning)
	meta := middleware.ExtractMeta(c)
	if warning != "" {
		response.Degraded(c, data, []*appErrors.Error{appErrors.ErrDataUnavailable}, meta)
		return
	}
	response.JSON(c, status, data, meta)
}
