package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReadLog is an anonymized access record. ReaderToken is an irreversible,
// entropy-mixed transformation of the client address, never the address or a
// plain hash of it.
type ReadLog struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	ReaderToken string    `gorm:"not null"`
	TicketID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ReadAt      time.Time `gorm:"autoCreateTime"`
}

func (readLog *ReadLog) BeforeCreate(tx *gorm.DB) (err error) {
	if readLog.ID == uuid.Nil {
		readLog.ID = uuid.New()
	}
	return
}
