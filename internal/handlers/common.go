package handlers

import (
	"errors"
	"net/http"

	"github.com/farellandr/msgx/internal/helpers"
	"github.com/farellandr/msgx/internal/middleware"
	"github.com/farellandr/msgx/internal/tickets"
	"github.com/gin-gonic/gin"
)

func ticketService(c *gin.Context) *tickets.Service {
	service := middleware.GetTicketService(c)
	if service == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Ticket service not found.")
		return nil
	}
	return service
}

// respondWithDomainError maps the engine's error taxonomy onto HTTP statuses.
// Internal detail stays in the server log; the client only sees the category
// and its generic message.
func respondWithDomainError(c *gin.Context, err error) {
	var domainErr *tickets.DomainError
	if !errors.As(err, &domainErr) {
		helpers.RespondWithError(c, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	switch domainErr.Category {
	case tickets.CategoryValidation:
		helpers.RespondWithError(c, http.StatusBadRequest, domainErr.Message)
	case tickets.CategoryNotFound:
		helpers.RespondWithError(c, http.StatusNotFound, domainErr.Message)
	case tickets.CategoryAccessDenied, tickets.CategoryDecryption:
		helpers.RespondWithError(c, http.StatusForbidden, domainErr.Message)
	default:
		helpers.RespondWithError(c, http.StatusInternalServerError, domainErr.Message)
	}
}
