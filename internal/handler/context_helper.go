package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lead-insights-api/internal/middleware"
	"github.com/noah-isme/lead-insights-api/internal/models"
	appErrors "github.com/noah-isme/lead-insights-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.CurrentClaims(c)
}

// optionalQuery returns nil for an absent or blank query parameter.
func optionalQuery(c *gin.Context, key string) *string {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil
	}
	return &value
}

// positiveIntQuery parses an optional positive integer query parameter. Absence or a blank
// value yields 0 so the service applies its default; an explicit value below 1 is rejected.
func positiveIntQuery(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, key+" must be an integer")
	}
	if value < 1 {
		return 0, appErrors.Clone(appErrors.ErrValidation, key+" must be at least 1")
	}
	return value, nil
}
