package middleware

import (
	"net/http"
	"strings"

	"github.com/farellandr/msgx/internal/helpers"
	"github.com/gin-gonic/gin"
)

// CreatorAuthMiddleware guards the creator-side management endpoints. It
// validates the bearer token issued at ticket creation and exposes the bound
// internal ticket id under "creator_ticket_id".
func CreatorAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			helpers.RespondWithError(c, http.StatusUnauthorized, "Missing creator token.")
			c.Abort()
			return
		}

		ticketID, err := helpers.ParseCreatorToken(secret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			helpers.RespondWithError(c, http.StatusUnauthorized, "Invalid creator token.")
			c.Abort()
			return
		}

		c.Set("creator_ticket_id", ticketID)
		c.Next()
	}
}
