package tickets

import (
	"context"
	"errors"

	"github.com/farellandr/msgx/internal/models"
	"github.com/google/uuid"
)

// ErrNotFound is returned by Store lookups when no row matches.
var ErrNotFound = errors.New("record not found")

// Store is the persistence port the engines run against. Ticket deletion
// cascades to owned passkeys, replies and read logs.
type Store interface {
	CreateTicket(ctx context.Context, ticket *models.Ticket) error
	TicketByNumber(ctx context.Context, number string) (*models.Ticket, error)
	TicketByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error)
	SaveTicket(ctx context.Context, ticket *models.Ticket) error
	DeleteTicket(ctx context.Context, ticket *models.Ticket) error

	SaveReply(ctx context.Context, reply *models.Reply) error
	ReplyByID(ctx context.Context, id uuid.UUID) (*models.Reply, error)
	// RepliesForTicket returns every reply of a ticket ordered by creation
	// time ascending.
	RepliesForTicket(ctx context.Context, ticketID uuid.UUID) ([]models.Reply, error)

	AppendReadLog(ctx context.Context, readLog *models.ReadLog) error

	// LockTicketByNumber runs fn inside a transaction that holds an
	// exclusive lock on the ticket row, so the view-limit gate and the
	// increment-and-recheck cannot race across requests. An error from fn
	// aborts the transaction; the engines report gate rejections that must
	// persist (EXPIRED, VIEW_LIMIT_REACHED) by saving through tx and
	// returning nil from fn.
	LockTicketByNumber(ctx context.Context, number string, fn func(tx Store, ticket *models.Ticket) error) error
}
