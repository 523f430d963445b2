package handlers

import (
	"net/http"
	"time"

	"github.com/farellandr/msgx/internal/helpers"
	"github.com/farellandr/msgx/internal/models"
	"github.com/farellandr/msgx/internal/tickets"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PasskeyEntryRequest struct {
	Order int    `json:"order" binding:"required,min=1"`
	Value string `json:"value" binding:"required"`
}

type ViewTicketRequest struct {
	TicketNumber string                `json:"ticket_number" binding:"required"`
	Passkeys     []PasskeyEntryRequest `json:"passkeys" binding:"required,min=1,max=10,dive"`
}

type ConversationNodeResponse struct {
	ReplyID   uuid.UUID                  `json:"reply_id"`
	Content   string                     `json:"content"`
	CreatedAt time.Time                  `json:"created_at"`
	Replies   []ConversationNodeResponse `json:"replies,omitempty"`
}

type ViewTicketResponse struct {
	TicketNumber   string                     `json:"ticket_number"`
	Content        string                     `json:"content"`
	TicketStatus   models.TicketStatus        `json:"ticket_status"`
	MaxViews       *int                       `json:"max_views"`
	RemainingViews *int                       `json:"remaining_views"`
	OpenFrom       *time.Time                 `json:"open_from,omitempty"`
	OpenUntil      *time.Time                 `json:"open_until,omitempty"`
	ReadAt         time.Time                  `json:"read_at"`
	SecurityNotice string                     `json:"security_notice,omitempty"`
	Conversation   []ConversationNodeResponse `json:"conversation,omitempty"`
}

func toPasskeyEntries(entries []PasskeyEntryRequest) []tickets.PasskeyEntry {
	out := make([]tickets.PasskeyEntry, len(entries))
	for i, entry := range entries {
		out[i] = tickets.PasskeyEntry{Order: entry.Order, Value: entry.Value}
	}
	return out
}

func toConversationNodes(nodes []tickets.ConversationNode) []ConversationNodeResponse {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]ConversationNodeResponse, len(nodes))
	for i, node := range nodes {
		out[i] = ConversationNodeResponse{
			ReplyID:   node.ReplyID,
			Content:   node.Content,
			CreatedAt: node.CreatedAt,
			Replies:   toConversationNodes(node.Replies),
		}
	}
	return out
}

// ViewTicket is the unified recipient access endpoint: direct-view types
// return the decrypted message, THREAD/GROUP return it with the conversation
// tree attached.
func ViewTicket(c *gin.Context) {
	var req ViewTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	service := ticketService(c)
	if service == nil {
		return
	}

	result, err := service.View(c.Request.Context(), req.TicketNumber, toPasskeyEntries(req.Passkeys), c.ClientIP())
	if err != nil {
		respondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, ViewTicketResponse{
		TicketNumber:   result.Number,
		Content:        result.Content,
		TicketStatus:   result.Status,
		MaxViews:       result.MaxViews,
		RemainingViews: result.RemainingViews,
		OpenFrom:       result.OpenFrom,
		OpenUntil:      result.OpenUntil,
		ReadAt:         result.ReadAt,
		SecurityNotice: result.SecurityNotice,
		Conversation:   toConversationNodes(result.Conversation),
	})
}

type PostReplyRequest struct {
	TicketNumber  string                `json:"ticket_number" binding:"required"`
	Passkeys      []PasskeyEntryRequest `json:"passkeys" binding:"required,min=1,max=10,dive"`
	Content       string                `json:"content" binding:"required"`
	ParentReplyID *uuid.UUID            `json:"parent_reply_id"`
}

func PostReply(c *gin.Context) {
	var req PostReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	service := ticketService(c)
	if service == nil {
		return
	}

	replyID, err := service.PostReply(c.Request.Context(), tickets.ReplyRequest{
		Number:        req.TicketNumber,
		Entries:       toPasskeyEntries(req.Passkeys),
		Content:       req.Content,
		ParentReplyID: req.ParentReplyID,
	}, c.ClientIP())
	if err != nil {
		respondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"reply_id": replyID,
		"message":  "Reply posted successfully.",
	})
}
