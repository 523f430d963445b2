package tickets

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/farellandr/msgx/internal/models"
	"github.com/google/uuid"
)

// fakeStore is an in-memory Store for engine tests. The single mutex stands
// in for the per-ticket row lock: LockTicketByNumber holds it for the whole
// callback, which gives the same increment-and-recheck atomicity the gorm
// store gets from SELECT ... FOR UPDATE.
type fakeStore struct {
	mu sync.Mutex

	tickets  map[uuid.UUID]*models.Ticket
	byNumber map[string]uuid.UUID
	replies  []*models.Reply
	readLogs []*models.ReadLog

	failReadLogs bool
	replySeq     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tickets:  make(map[uuid.UUID]*models.Ticket),
		byNumber: make(map[string]uuid.UUID),
	}
}

func cloneTicket(ticket *models.Ticket) *models.Ticket {
	clone := *ticket
	clone.Passkeys = append([]models.Passkey(nil), ticket.Passkeys...)
	return &clone
}

func (s *fakeStore) CreateTicket(ctx context.Context, ticket *models.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createTicketLocked(ticket)
}

func (s *fakeStore) createTicketLocked(ticket *models.Ticket) error {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	for i := range ticket.Passkeys {
		if ticket.Passkeys[i].ID == uuid.Nil {
			ticket.Passkeys[i].ID = uuid.New()
		}
		ticket.Passkeys[i].TicketID = ticket.ID
	}
	ticket.CreatedAt = time.Now()
	s.tickets[ticket.ID] = cloneTicket(ticket)
	s.byNumber[ticket.Number] = ticket.ID
	return nil
}

func (s *fakeStore) TicketByNumber(ctx context.Context, number string) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticketByNumberLocked(number)
}

func (s *fakeStore) ticketByNumberLocked(number string) (*models.Ticket, error) {
	id, ok := s.byNumber[number]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneTicket(s.tickets[id]), nil
}

func (s *fakeStore) TicketByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneTicket(ticket), nil
}

func (s *fakeStore) SaveTicket(ctx context.Context, ticket *models.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveTicketLocked(ticket)
}

func (s *fakeStore) saveTicketLocked(ticket *models.Ticket) error {
	if _, ok := s.tickets[ticket.ID]; !ok {
		return errors.New("save of unknown ticket")
	}
	s.tickets[ticket.ID] = cloneTicket(ticket)
	return nil
}

func (s *fakeStore) DeleteTicket(ctx context.Context, ticket *models.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tickets, ticket.ID)
	delete(s.byNumber, ticket.Number)

	var keptReplies []*models.Reply
	for _, reply := range s.replies {
		if reply.TicketID != ticket.ID {
			keptReplies = append(keptReplies, reply)
		}
	}
	s.replies = keptReplies

	var keptLogs []*models.ReadLog
	for _, readLog := range s.readLogs {
		if readLog.TicketID != ticket.ID {
			keptLogs = append(keptLogs, readLog)
		}
	}
	s.readLogs = keptLogs
	return nil
}

func (s *fakeStore) SaveReply(ctx context.Context, reply *models.Reply) error {
	return s.saveReplyLocked(reply)
}

func (s *fakeStore) saveReplyLocked(reply *models.Reply) error {
	if reply.ID == uuid.Nil {
		reply.ID = uuid.New()
	}
	s.replySeq++
	// Distinct, monotonically increasing creation times keep ordering
	// deterministic even when replies land in the same wall-clock instant.
	reply.CreatedAt = time.Unix(0, int64(s.replySeq)*int64(time.Millisecond))
	clone := *reply
	s.replies = append(s.replies, &clone)
	return nil
}

func (s *fakeStore) ReplyByID(ctx context.Context, id uuid.UUID) (*models.Reply, error) {
	for _, reply := range s.replies {
		if reply.ID == id {
			clone := *reply
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeStore) RepliesForTicket(ctx context.Context, ticketID uuid.UUID) ([]models.Reply, error) {
	var out []models.Reply
	for _, reply := range s.replies {
		if reply.TicketID == ticketID {
			out = append(out, *reply)
		}
	}
	return out, nil
}

func (s *fakeStore) AppendReadLog(ctx context.Context, readLog *models.ReadLog) error {
	if s.failReadLogs {
		return errors.New("readlog sink unavailable")
	}
	if readLog.ID == uuid.Nil {
		readLog.ID = uuid.New()
	}
	readLog.ReadAt = time.Now()
	clone := *readLog
	s.readLogs = append(s.readLogs, &clone)
	return nil
}

func (s *fakeStore) LockTicketByNumber(ctx context.Context, number string, fn func(tx Store, ticket *models.Ticket) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, err := s.ticketByNumberLocked(number)
	if err != nil {
		return err
	}
	return fn(&lockedFakeStore{store: s}, ticket)
}

// lockedFakeStore is the transactional view handed to LockTicketByNumber
// callbacks; the parent mutex is already held.
type lockedFakeStore struct {
	store *fakeStore
}

func (l *lockedFakeStore) CreateTicket(ctx context.Context, ticket *models.Ticket) error {
	return l.store.createTicketLocked(ticket)
}

func (l *lockedFakeStore) TicketByNumber(ctx context.Context, number string) (*models.Ticket, error) {
	return l.store.ticketByNumberLocked(number)
}

func (l *lockedFakeStore) TicketByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	ticket, ok := l.store.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneTicket(ticket), nil
}

func (l *lockedFakeStore) SaveTicket(ctx context.Context, ticket *models.Ticket) error {
	return l.store.saveTicketLocked(ticket)
}

func (l *lockedFakeStore) DeleteTicket(ctx context.Context, ticket *models.Ticket) error {
	return errors.New("delete inside a ticket lock is unsupported")
}

func (l *lockedFakeStore) SaveReply(ctx context.Context, reply *models.Reply) error {
	return l.store.saveReplyLocked(reply)
}

func (l *lockedFakeStore) ReplyByID(ctx context.Context, id uuid.UUID) (*models.Reply, error) {
	return l.store.ReplyByID(ctx, id)
}

func (l *lockedFakeStore) RepliesForTicket(ctx context.Context, ticketID uuid.UUID) ([]models.Reply, error) {
	return l.store.RepliesForTicket(ctx, ticketID)
}

func (l *lockedFakeStore) AppendReadLog(ctx context.Context, readLog *models.ReadLog) error {
	return l.store.AppendReadLog(ctx, readLog)
}

func (l *lockedFakeStore) LockTicketByNumber(ctx context.Context, number string, fn func(tx Store, ticket *models.Ticket) error) error {
	return errors.New("nested ticket locks are unsupported")
}
