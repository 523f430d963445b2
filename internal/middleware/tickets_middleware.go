package middleware

import (
	"github.com/farellandr/msgx/internal/tickets"
	"github.com/gin-gonic/gin"
)

func TicketServiceMiddleware(service *tickets.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("ticket_service", service)
		c.Next()
	}
}

func GetTicketService(c *gin.Context) *tickets.Service {
	service, exists := c.Get("ticket_service")
	if !exists {
		return nil
	}
	return service.(*tickets.Service)
}
