package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TicketType string

const (
	TypeSingle       TicketType = "SINGLE"
	TypeSecureSingle TicketType = "SECURE_SINGLE"
	TypeThread       TicketType = "THREAD"
	TypeBroadcast    TicketType = "BROADCAST"
	TypeGroup        TicketType = "GROUP"
)

type TicketStatus string

const (
	StatusOpen             TicketStatus = "OPEN"
	StatusExpired          TicketStatus = "EXPIRED"
	StatusClosed           TicketStatus = "CLOSED"
	StatusViewLimitReached TicketStatus = "VIEW_LIMIT_REACHED"
	StatusRevoked          TicketStatus = "REVOKED"
)

// Ticket is the encrypted envelope and policy holder. The ID is the internal
// creator-only identifier; Number is the public handle shared with recipients
// and never exposes the ID.
type Ticket struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key"`
	Number string    `gorm:"uniqueIndex;not null"`

	Type   TicketType   `gorm:"not null"`
	Status TicketStatus `gorm:"not null;default:'OPEN'"`

	MaxViews     *int
	CountViews   int  `gorm:"not null;default:0"`
	AllowReplies bool `gorm:"not null"`

	ExpiresAt *time.Time
	OpenFrom  *time.Time
	OpenUntil *time.Time

	Algorithm        string `gorm:"not null"`
	Salt             string `gorm:"not null"`
	Nonce            string `gorm:"not null"`
	EncryptedMessage string `gorm:"type:text;not null"`

	CreatorAddress string `gorm:"not null"`

	ParentTicketID *uuid.UUID `gorm:"type:uuid"`
	ParentTicket   *Ticket    `gorm:"foreignKey:ParentTicketID"`

	Passkeys []Passkey `gorm:"constraint:OnDelete:CASCADE"`
	Replies  []Reply   `gorm:"constraint:OnDelete:CASCADE"`
	ReadLogs []ReadLog `gorm:"constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ticket *Ticket) BeforeCreate(tx *gorm.DB) (err error) {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	return
}

// RemainingViews returns how many successful views are left, or nil when the
// ticket is unlimited.
func (ticket *Ticket) RemainingViews() *int {
	if ticket.MaxViews == nil {
		return nil
	}
	remaining := *ticket.MaxViews - ticket.CountViews
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}
