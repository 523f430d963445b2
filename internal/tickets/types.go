package tickets

import (
	"time"

	"github.com/farellandr/msgx/internal/models"
	"github.com/google/uuid"
)

// PasskeyEntry is one (position, secret) pair submitted by a recipient.
type PasskeyEntry struct {
	Order int
	Value string
}

// CreateRequest carries the creator-side input for a new ticket. AllowReplies
// is accepted but overridden by the ticket type's policy.
type CreateRequest struct {
	Content        string
	Passkeys       []string
	Type           models.TicketType
	Algorithm      string
	Salt           string
	MaxViews       *int
	ExpiresAt      *time.Time
	OpenFrom       *time.Time
	OpenUntil      *time.Time
	ParentTicketID *uuid.UUID
}

type CreatedPasskey struct {
	KeyOrder int
	Value    string
}

type CreateResult struct {
	TicketID     uuid.UUID
	Number       string
	Type         models.TicketType
	Status       models.TicketStatus
	Algorithm    string
	Salt         string
	MaxViews     *int
	CountViews   int
	AllowReplies bool
	OpenFrom     *time.Time
	OpenUntil    *time.Time
	Passkeys     []CreatedPasskey
}

// ConversationNode is one decrypted reply with its children in creation-time
// order.
type ConversationNode struct {
	ReplyID   uuid.UUID
	Content   string
	CreatedAt time.Time
	Replies   []ConversationNode
}

// ViewResult is the outcome of a successful view. Conversation is nil for
// direct (SINGLE/SECURE_SINGLE/BROADCAST) views.
type ViewResult struct {
	Number         string
	Content        string
	Status         models.TicketStatus
	MaxViews       *int
	RemainingViews *int
	OpenFrom       *time.Time
	OpenUntil      *time.Time
	ReadAt         time.Time
	SecurityNotice string
	Conversation   []ConversationNode
}

type ReplyRequest struct {
	Number        string
	Entries       []PasskeyEntry
	Content       string
	ParentReplyID *uuid.UUID
}
