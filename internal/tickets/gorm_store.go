package tickets

import (
	"context"
	"errors"

	"github.com/farellandr/msgx/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the postgres-backed Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateTicket(ctx context.Context, ticket *models.Ticket) error {
	return s.db.WithContext(ctx).Create(ticket).Error
}

func (s *GormStore) TicketByNumber(ctx context.Context, number string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := s.db.WithContext(ctx).Preload("Passkeys").Where("number = ?", number).First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func (s *GormStore) TicketByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	err := s.db.WithContext(ctx).Preload("Passkeys").Where("id = ?", id).First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func (s *GormStore) SaveTicket(ctx context.Context, ticket *models.Ticket) error {
	return s.db.WithContext(ctx).Save(ticket).Error
}

func (s *GormStore) DeleteTicket(ctx context.Context, ticket *models.Ticket) error {
	return s.db.WithContext(ctx).Select(clause.Associations).Delete(ticket).Error
}

func (s *GormStore) SaveReply(ctx context.Context, reply *models.Reply) error {
	return s.db.WithContext(ctx).Save(reply).Error
}

func (s *GormStore) ReplyByID(ctx context.Context, id uuid.UUID) (*models.Reply, error) {
	var reply models.Reply
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&reply).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &reply, nil
}

func (s *GormStore) RepliesForTicket(ctx context.Context, ticketID uuid.UUID) ([]models.Reply, error) {
	var replies []models.Reply
	err := s.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("created_at ASC").
		Find(&replies).Error
	if err != nil {
		return nil, err
	}
	return replies, nil
}

func (s *GormStore) AppendReadLog(ctx context.Context, readLog *models.ReadLog) error {
	return s.db.WithContext(ctx).Create(readLog).Error
}

func (s *GormStore) LockTicketByNumber(ctx context.Context, number string, fn func(tx Store, ticket *models.Ticket) error) error {
	return s.db.WithContext(ctx).Transaction(func(txDB *gorm.DB) error {
		var ticket models.Ticket
		err := txDB.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("number = ?", number).
			First(&ticket).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := txDB.Model(&ticket).Association("Passkeys").Find(&ticket.Passkeys); err != nil {
			return err
		}
		return fn(&GormStore{db: txDB}, &ticket)
	})
}
