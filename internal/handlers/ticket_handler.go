package handlers

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/farellandr/msgx/internal/helpers"
	"github.com/farellandr/msgx/internal/models"
	"github.com/farellandr/msgx/internal/tickets"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CreateTicketRequest struct {
	MessageContent string     `json:"message_content" binding:"required"`
	Passkeys       []string   `json:"passkeys" binding:"required,min=1,max=10"`
	TicketType     string     `json:"ticket_type" binding:"required"`
	EncryptionAlgo string     `json:"encryption_algo" binding:"required"`
	Salt           string     `json:"salt"`
	MaxViews       *int       `json:"max_views"`
	ExpiresAt      *time.Time `json:"expires_at"`
	OpenFrom       *time.Time `json:"open_from"`
	OpenUntil      *time.Time `json:"open_until"`
	AllowReplies   *bool      `json:"allow_replies"`
	ParentTicketID *uuid.UUID `json:"parent_ticket_id"`
}

type CreatedPasskeyResponse struct {
	KeyOrder int    `json:"key_order"`
	Passkey  string `json:"passkey"`
	Hash     string `json:"passkey_hash"`
}

type CreateTicketResponse struct {
	TicketID     uuid.UUID                `json:"ticket_id"`
	TicketNumber string                   `json:"ticket_number"`
	TicketType   models.TicketType        `json:"ticket_type"`
	TicketStatus models.TicketStatus      `json:"ticket_status"`
	Algorithm    string                   `json:"encryption_algo"`
	Salt         string                   `json:"salt"`
	MaxViews     *int                     `json:"max_views"`
	CountViews   int                      `json:"count_views"`
	AllowReplies bool                     `json:"allow_replies"`
	OpenFrom     *time.Time               `json:"open_from,omitempty"`
	OpenUntil    *time.Time               `json:"open_until,omitempty"`
	Passkeys     []CreatedPasskeyResponse `json:"passkeys"`
	CreatorToken string                   `json:"creator_token"`
	QRCode       string                   `json:"qr_code,omitempty"`
}

// CreateTicket is the public creation endpoint. The response is the only
// place the internal ticket id and the creator token ever appear.
func CreateTicket(c *gin.Context) {
	var req CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	service := ticketService(c)
	if service == nil {
		return
	}

	result, err := service.Create(c.Request.Context(), tickets.CreateRequest{
		Content:        req.MessageContent,
		Passkeys:       req.Passkeys,
		Type:           models.TicketType(req.TicketType),
		Algorithm:      req.EncryptionAlgo,
		Salt:           req.Salt,
		MaxViews:       req.MaxViews,
		ExpiresAt:      req.ExpiresAt,
		OpenFrom:       req.OpenFrom,
		OpenUntil:      req.OpenUntil,
		ParentTicketID: req.ParentTicketID,
	}, c.ClientIP())
	if err != nil {
		respondWithDomainError(c, err)
		return
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		helpers.RespondWithError(c, http.StatusInternalServerError, "JWT_SECRET not configured.")
		return
	}
	creatorToken, err := helpers.IssueCreatorToken(secret, result.TicketID)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to issue creator token.")
		return
	}

	qrCode, err := helpers.TicketQRCode(result.Number)
	if err != nil {
		// The ticket exists either way; the QR code is a convenience.
		log.Printf("handlers: failed to render QR code for ticket %s: %v", result.Number, err)
		qrCode = ""
	}

	response := CreateTicketResponse{
		TicketID:     result.TicketID,
		TicketNumber: result.Number,
		TicketType:   result.Type,
		TicketStatus: result.Status,
		Algorithm:    result.Algorithm,
		Salt:         result.Salt,
		MaxViews:     result.MaxViews,
		CountViews:   result.CountViews,
		AllowReplies: result.AllowReplies,
		OpenFrom:     result.OpenFrom,
		OpenUntil:    result.OpenUntil,
		CreatorToken: creatorToken,
		QRCode:       qrCode,
	}
	for _, passkey := range result.Passkeys {
		response.Passkeys = append(response.Passkeys, CreatedPasskeyResponse{
			KeyOrder: passkey.KeyOrder,
			Passkey:  passkey.Value,
			Hash:     "[PROTECTED]",
		})
	}

	c.JSON(http.StatusCreated, response)
}

// creatorTicketID resolves the :id path parameter and checks it against the
// id bound into the creator token.
func creatorTicketID(c *gin.Context) (uuid.UUID, bool) {
	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid ticket id.")
		return uuid.Nil, false
	}

	boundID, exists := c.Get("creator_ticket_id")
	if !exists || boundID.(uuid.UUID) != ticketID {
		helpers.RespondWithError(c, http.StatusForbidden, "Creator token does not match this ticket.")
		return uuid.Nil, false
	}
	return ticketID, true
}

func DeleteTicket(c *gin.Context) {
	ticketID, ok := creatorTicketID(c)
	if !ok {
		return
	}

	service := ticketService(c)
	if service == nil {
		return
	}

	if err := service.Delete(c.Request.Context(), ticketID); err != nil {
		respondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Ticket permanently deleted, including all passkeys, replies and access logs. This removal is complete and irreversible.",
	})
}

func RevokeTicket(c *gin.Context) {
	ticketID, ok := creatorTicketID(c)
	if !ok {
		return
	}

	service := ticketService(c)
	if service == nil {
		return
	}

	if err := service.Revoke(c.Request.Context(), ticketID); err != nil {
		respondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Ticket revoked. Recipient access is disabled until you reopen it."})
}

type ReopenTicketRequest struct {
	ExtraViews *int `json:"extra_views"`
}

func ReopenTicket(c *gin.Context) {
	ticketID, ok := creatorTicketID(c)
	if !ok {
		return
	}

	var req ReopenTicketRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
			return
		}
	}

	service := ticketService(c)
	if service == nil {
		return
	}

	if err := service.Reopen(c.Request.Context(), ticketID, req.ExtraViews); err != nil {
		respondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Ticket reopened."})
}
