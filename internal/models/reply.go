package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reply is a node in a ticket's conversation tree. The parent link is a
// structural reference within the same ticket; the ticket owns every reply.
type Reply struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key"`
	EncryptedContent string    `gorm:"type:text;not null"`
	Nonce            string    `gorm:"not null"`
	SubmitterAddress string    `gorm:"not null"`

	TicketID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	ParentReplyID *uuid.UUID `gorm:"type:uuid;index"`

	CreatedAt time.Time
}

func (reply *Reply) BeforeCreate(tx *gorm.DB) (err error) {
	if reply.ID == uuid.Nil {
		reply.ID = uuid.New()
	}
	return
}
