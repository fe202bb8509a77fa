package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/charlesng35/craftid/pkg/errors"
	"github.com/charlesng35/craftid/pkg/response"
)

// bindJSON binds the JSON payload into dest. Field rules are enforced by the
// services, so only malformed bodies are rejected here. When binding fails an
// error response is written and false is returned.
func bindJSON[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload").WithInternal(err))
		return false
	}
	return true
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
