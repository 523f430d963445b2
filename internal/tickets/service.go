package tickets

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/farellandr/msgx/internal/crypto"
	"github.com/farellandr/msgx/internal/models"
	"github.com/google/uuid"
)

const maxPasskeys = 10

// Service is the ticket lifecycle engine. It owns status transitions,
// access-window and view-limit enforcement, passkey verification and the
// per-type policy defaults.
type Service struct {
	store      Store
	anonymizer *crypto.Anonymizer
}

func NewService(store Store, anonymizer *crypto.Anonymizer) *Service {
	return &Service{store: store, anonymizer: anonymizer}
}

// Create validates the creation request, encrypts the message under the
// passkey-derived key, hashes the passkeys for at-rest storage and persists
// the ticket with its owned passkey rows.
func (s *Service) Create(ctx context.Context, req CreateRequest, clientAddr string) (*CreateResult, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, validationError("Message content must not be empty.")
	}

	algo, err := crypto.ParseAlgorithm(req.Algorithm)
	if err != nil {
		return nil, validationError("Unsupported encryption algorithm %q. Supported: %s, %s.",
			req.Algorithm, crypto.AlgorithmAES256, crypto.AlgorithmChaCha20)
	}

	if len(req.Passkeys) == 0 {
		return nil, validationError("At least one passkey is required.")
	}
	if len(req.Passkeys) > maxPasskeys {
		return nil, validationError("No more than %d passkeys are allowed.", maxPasskeys)
	}
	for _, passkey := range req.Passkeys {
		if strings.TrimSpace(passkey) == "" {
			return nil, validationError("Passkeys must not be empty.")
		}
	}

	policy, ok := policyFor(req.Type)
	if !ok {
		return nil, validationError("Unknown ticket type %q. Valid types: SINGLE, SECURE_SINGLE, THREAD, BROADCAST, GROUP.", req.Type)
	}

	maxViews, err := resolveMaxViews(req, policy)
	if err != nil {
		return nil, err
	}

	openFrom, openUntil, expiresAt, err := resolveAccessWindow(req)
	if err != nil {
		return nil, err
	}

	salt := strings.TrimSpace(req.Salt)
	if salt == "" {
		salt, err = crypto.GenerateSalt()
		if err != nil {
			return nil, internalError("Failed to generate ticket salt.", err)
		}
	}

	key := crypto.DeriveKey(req.Passkeys, salt, algo)
	ciphertext, nonce, err := crypto.Encrypt([]byte(req.Content), key, algo)
	if err != nil {
		return nil, internalError("Failed to encrypt message content.", err)
	}

	passkeys := make([]models.Passkey, len(req.Passkeys))
	for i, value := range req.Passkeys {
		hash, err := crypto.HashPasskey(value)
		if err != nil {
			return nil, internalError("Failed to hash passkey.", err)
		}
		passkeys[i] = models.Passkey{Hash: hash, KeyOrder: i + 1}
	}

	ticket := &models.Ticket{
		Number:           newTicketNumber(policy),
		Type:             req.Type,
		Status:           models.StatusOpen,
		MaxViews:         maxViews,
		AllowReplies:     policy.allowReplies,
		ExpiresAt:        expiresAt,
		OpenFrom:         openFrom,
		OpenUntil:        openUntil,
		Algorithm:        string(algo),
		Salt:             salt,
		Nonce:            crypto.EncodeBytes(nonce),
		EncryptedMessage: crypto.EncodeBytes(ciphertext),
		CreatorAddress:   s.anonymizer.Token(salt, clientAddr),
		ParentTicketID:   req.ParentTicketID,
		Passkeys:         passkeys,
	}

	if err := s.store.CreateTicket(ctx, ticket); err != nil {
		return nil, internalError("Failed to persist ticket.", err)
	}

	result := &CreateResult{
		TicketID:     ticket.ID,
		Number:       ticket.Number,
		Type:         ticket.Type,
		Status:       ticket.Status,
		Algorithm:    ticket.Algorithm,
		Salt:         ticket.Salt,
		MaxViews:     ticket.MaxViews,
		CountViews:   ticket.CountViews,
		AllowReplies: ticket.AllowReplies,
		OpenFrom:     ticket.OpenFrom,
		OpenUntil:    ticket.OpenUntil,
	}
	for i, value := range req.Passkeys {
		result.Passkeys = append(result.Passkeys, CreatedPasskey{KeyOrder: i + 1, Value: value})
	}
	return result, nil
}

func resolveMaxViews(req CreateRequest, policy typePolicy) (*int, error) {
	if policy.forceMaxViews {
		forced := *policy.defaultMaxViews
		return &forced, nil
	}
	if req.MaxViews == nil {
		if policy.requireMaxViews {
			return nil, validationError("maxViews is required for %s tickets.", req.Type)
		}
		return policy.defaultMaxViews, nil
	}
	if *req.MaxViews < 1 {
		return nil, validationError("maxViews must be at least 1.")
	}
	views := *req.MaxViews
	return &views, nil
}

// resolveAccessWindow enforces the expiry-XOR-window rule. A bare expiry is
// normalized to the window [now, expiry).
func resolveAccessWindow(req CreateRequest) (openFrom, openUntil, expiresAt *time.Time, err error) {
	hasExpiry := req.ExpiresAt != nil
	hasWindow := req.OpenFrom != nil && req.OpenUntil != nil
	hasPartialWindow := (req.OpenFrom != nil) != (req.OpenUntil != nil)

	switch {
	case hasPartialWindow:
		return nil, nil, nil, validationError("An open window requires both openFrom and openUntil.")
	case hasExpiry && hasWindow:
		return nil, nil, nil, validationError("Provide either expiresAt or an openFrom/openUntil window, not both.")
	case hasWindow:
		if !req.OpenFrom.Before(*req.OpenUntil) {
			return nil, nil, nil, validationError("openFrom must be before openUntil.")
		}
		return req.OpenFrom, req.OpenUntil, nil, nil
	case hasExpiry:
		now := time.Now()
		if !now.Before(*req.ExpiresAt) {
			return nil, nil, nil, validationError("expiresAt must be in the future.")
		}
		return &now, req.ExpiresAt, nil, nil
	}
	return nil, nil, nil, validationError("A ticket needs either expiresAt or both openFrom and openUntil.")
}

// View runs the full validation pipeline under a per-ticket lock and, on
// success, returns the decrypted content, with the conversation tree for
// THREAD/GROUP tickets.
func (s *Service) View(ctx context.Context, number string, entries []PasskeyEntry, clientAddr string) (*ViewResult, error) {
	var result *ViewResult
	var reject *DomainError

	err := s.store.LockTicketByNumber(ctx, number, func(tx Store, ticket *models.Ticket) error {
		policy, ok := policyFor(ticket.Type)
		if !ok {
			return internalError("Ticket has an unknown type.", nil)
		}

		if reject = s.runAccessGates(ctx, tx, ticket, entries, true); reject != nil {
			return nil
		}

		var err error
		if policy.conversational {
			result, reject, err = s.processConversationView(ctx, tx, ticket, entries, clientAddr)
		} else {
			result, reject, err = s.processTicketView(ctx, tx, ticket, policy, entries, clientAddr)
		}
		return err
	})
	if err != nil {
		return nil, asDomainError(err)
	}
	if reject != nil {
		return nil, reject
	}
	return result, nil
}

// runAccessGates applies the status, access-window, view-limit and passkey
// gates in order, fail-fast. Status transitions triggered by a rejection are
// persisted through tx. The type gate runs before this in the caller.
func (s *Service) runAccessGates(ctx context.Context, tx Store, ticket *models.Ticket, entries []PasskeyEntry, enforceViewLimit bool) *DomainError {
	if ticket.Status != models.StatusOpen {
		return accessDeniedError("This ticket is currently unavailable. Current status: " + string(ticket.Status) + ".")
	}

	now := time.Now()
	if ticket.ExpiresAt != nil && now.After(*ticket.ExpiresAt) {
		s.transition(ctx, tx, ticket, models.StatusExpired)
		return accessDeniedError("This ticket has passed its expiration and is no longer accessible.")
	}
	if ticket.OpenFrom != nil && now.Before(*ticket.OpenFrom) {
		return accessDeniedError("This ticket is not yet available for viewing. Check the scheduled open time and try again later.")
	}
	if ticket.OpenUntil != nil && now.After(*ticket.OpenUntil) {
		s.transition(ctx, tx, ticket, models.StatusExpired)
		return accessDeniedError("The access window for this ticket has ended.")
	}

	if enforceViewLimit && ticket.MaxViews != nil && ticket.CountViews >= *ticket.MaxViews {
		s.transition(ctx, tx, ticket, models.StatusViewLimitReached)
		return accessDeniedError("The maximum number of views for this ticket has been reached.")
	}

	return s.verifyPasskeys(ticket, entries)
}

// verifyPasskeys checks count, order and value of the submitted entries
// against the stored hashes. Every failure collapses into one generic
// rejection so callers cannot learn which position failed.
func (s *Service) verifyPasskeys(ticket *models.Ticket, entries []PasskeyEntry) *DomainError {
	genericReject := accessDeniedError("Passkey order or passkey value is incorrect. Enter every passkey in its correct position and retry.")

	sortedEntries := sortEntries(entries)
	stored := make([]models.Passkey, len(ticket.Passkeys))
	copy(stored, ticket.Passkeys)
	sort.Slice(stored, func(i, j int) bool { return stored[i].KeyOrder < stored[j].KeyOrder })

	if len(sortedEntries) != len(stored) {
		return genericReject
	}

	for i := range stored {
		ok, err := crypto.VerifyPasskey(sortedEntries[i].Value, stored[i].Hash)
		if err != nil {
			// Malformed stored hash is a config/data fault, but the
			// caller still only sees the generic rejection.
			log.Printf("tickets: stored passkey hash unreadable for ticket %s: %v", ticket.Number, err)
			return genericReject
		}
		if !ok {
			return genericReject
		}
	}
	return nil
}

// processTicketView is step 6 of the pipeline for direct-view types: decrypt,
// increment, re-check the limit, audit, and for SECURE_SINGLE force CLOSED.
func (s *Service) processTicketView(ctx context.Context, tx Store, ticket *models.Ticket, policy typePolicy, entries []PasskeyEntry, clientAddr string) (*ViewResult, *DomainError, error) {
	content, reject := s.decryptMessage(ticket, entries)
	if reject != nil {
		return nil, reject, nil
	}

	ticket.CountViews++
	if ticket.MaxViews != nil && ticket.CountViews >= *ticket.MaxViews {
		ticket.Status = models.StatusViewLimitReached
	}
	if policy.closeAfterView {
		ticket.Status = models.StatusClosed
	}
	if err := tx.SaveTicket(ctx, ticket); err != nil {
		return nil, nil, internalError("Failed to record ticket view.", err)
	}

	s.recordRead(ctx, tx, ticket, clientAddr)

	result := buildViewResult(ticket, content)
	if policy.closeAfterView {
		result.SecurityNotice = "This was a SECURE_SINGLE ticket. The message has been permanently destroyed after this view and cannot be accessed again."
	}
	return result, nil, nil
}

func (s *Service) decryptMessage(ticket *models.Ticket, entries []PasskeyEntry) (string, *DomainError) {
	key := crypto.DeriveKey(entryValues(entries), ticket.Salt, crypto.Algorithm(ticket.Algorithm))

	ciphertext, err := crypto.DecodeBytes(ticket.EncryptedMessage)
	if err != nil {
		return "", decryptionError()
	}
	nonce, err := crypto.DecodeBytes(ticket.Nonce)
	if err != nil {
		return "", decryptionError()
	}

	plaintext, err := crypto.Decrypt(ciphertext, key, nonce, crypto.Algorithm(ticket.Algorithm))
	if err != nil {
		return "", decryptionError()
	}
	return string(plaintext), nil
}

// transition persists a status change triggered inside the validation
// pipeline. The rejection is reported to the caller regardless of whether the
// save succeeds.
func (s *Service) transition(ctx context.Context, tx Store, ticket *models.Ticket, status models.TicketStatus) {
	ticket.Status = status
	if err := tx.SaveTicket(ctx, ticket); err != nil {
		log.Printf("tickets: failed to persist status %s for ticket %s: %v", status, ticket.Number, err)
	}
}

// recordRead appends an anonymized read log entry. Best effort: a failure is
// logged and swallowed, never surfaced to the viewer.
func (s *Service) recordRead(ctx context.Context, tx Store, ticket *models.Ticket, clientAddr string) {
	readLog := &models.ReadLog{
		TicketID:    ticket.ID,
		ReaderToken: s.anonymizer.Token(ticket.Salt, clientAddr),
	}
	if err := tx.AppendReadLog(ctx, readLog); err != nil {
		log.Printf("tickets: failed to append read log for ticket %s: %v", ticket.Number, err)
	}
}

// Delete permanently removes a ticket by its internal identifier, cascading
// to passkeys, replies and read logs. Irreversible.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ticket, err := s.store.TicketByID(ctx, id)
	if err != nil {
		return asDomainError(err)
	}
	if err := s.store.DeleteTicket(ctx, ticket); err != nil {
		return internalError("Failed to delete ticket.", err)
	}
	return nil
}

// Revoke disables recipient access to an open ticket.
func (s *Service) Revoke(ctx context.Context, id uuid.UUID) error {
	ticket, err := s.store.TicketByID(ctx, id)
	if err != nil {
		return asDomainError(err)
	}
	if ticket.Status != models.StatusOpen {
		return validationError("Only OPEN tickets can be revoked. Current status: %s.", ticket.Status)
	}
	ticket.Status = models.StatusRevoked
	if err := s.store.SaveTicket(ctx, ticket); err != nil {
		return internalError("Failed to revoke ticket.", err)
	}
	return nil
}

// Reopen restores access to an EXPIRED, VIEW_LIMIT_REACHED or REVOKED ticket,
// optionally raising the view ceiling.
func (s *Service) Reopen(ctx context.Context, id uuid.UUID, extraViews *int) error {
	ticket, err := s.store.TicketByID(ctx, id)
	if err != nil {
		return asDomainError(err)
	}

	switch ticket.Status {
	case models.StatusExpired, models.StatusViewLimitReached, models.StatusRevoked:
	default:
		return validationError("Tickets can only be reopened from EXPIRED, VIEW_LIMIT_REACHED or REVOKED. Current status: %s.", ticket.Status)
	}

	if extraViews != nil {
		if *extraViews < 1 {
			return validationError("extraViews must be at least 1.")
		}
		if ticket.MaxViews != nil {
			raised := *ticket.MaxViews + *extraViews
			ticket.MaxViews = &raised
		}
	}

	ticket.Status = models.StatusOpen
	if err := s.store.SaveTicket(ctx, ticket); err != nil {
		return internalError("Failed to reopen ticket.", err)
	}
	return nil
}

func buildViewResult(ticket *models.Ticket, content string) *ViewResult {
	return &ViewResult{
		Number:         ticket.Number,
		Content:        content,
		Status:         ticket.Status,
		MaxViews:       ticket.MaxViews,
		RemainingViews: ticket.RemainingViews(),
		OpenFrom:       ticket.OpenFrom,
		OpenUntil:      ticket.OpenUntil,
		ReadAt:         time.Now(),
	}
}

// sortEntries orders submitted entries by their claimed position without
// mutating the caller's slice.
func sortEntries(entries []PasskeyEntry) []PasskeyEntry {
	sorted := make([]PasskeyEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
	return sorted
}

// entryValues returns the trimmed secret values in claimed-position order,
// the form the KDF consumes.
func entryValues(entries []PasskeyEntry) []string {
	sorted := sortEntries(entries)
	values := make([]string, len(sorted))
	for i, entry := range sorted {
		values[i] = strings.TrimSpace(entry.Value)
	}
	return values
}

// asDomainError maps store-level failures into the public taxonomy, leaving
// DomainErrors untouched.
func asDomainError(err error) error {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, ErrNotFound) {
		return notFoundError("The requested ticket does not exist or has been permanently removed.")
	}
	return internalError("An internal error occurred while processing the request.", err)
}
