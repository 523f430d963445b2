package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Passkey is one ordered credential shard. KeyOrder is 1-based and contiguous
// within a ticket; rows are created atomically with the ticket and never
// change afterwards.
type Passkey struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key"`
	Hash     string    `gorm:"not null"`
	KeyOrder int       `gorm:"not null"`
	TicketID uuid.UUID `gorm:"type:uuid;not null;index"`
}

func (passkey *Passkey) BeforeCreate(tx *gorm.DB) (err error) {
	if passkey.ID == uuid.Nil {
		passkey.ID = uuid.New()
	}
	return
}
