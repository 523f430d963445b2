package tickets

import (
	"context"
	"strings"

	"github.com/farellandr/msgx/internal/crypto"
	"github.com/farellandr/msgx/internal/models"
	"github.com/google/uuid"
)

// processConversationView handles the view path for THREAD/GROUP tickets:
// the caller has already passed the access gates, so this decrypts the root
// message, projects the reply forest into a decrypted tree and then records
// the view. The tree build is a pure projection; the top-level gate checks
// cover every node.
func (s *Service) processConversationView(ctx context.Context, tx Store, ticket *models.Ticket, entries []PasskeyEntry, clientAddr string) (*ViewResult, *DomainError, error) {
	content, reject := s.decryptMessage(ticket, entries)
	if reject != nil {
		return nil, reject, nil
	}

	replies, err := tx.RepliesForTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, internalError("Failed to load conversation replies.", err)
	}

	// Decrypt the whole tree before counting the view, so a rejected
	// conversation never burns a view. Same rule as the direct path.
	key := crypto.DeriveKey(entryValues(entries), ticket.Salt, crypto.Algorithm(ticket.Algorithm))
	tree, reject := buildConversationTree(ticket, replies, key)
	if reject != nil {
		return nil, reject, nil
	}

	ticket.CountViews++
	if ticket.MaxViews != nil && ticket.CountViews >= *ticket.MaxViews {
		ticket.Status = models.StatusViewLimitReached
	}
	if err := tx.SaveTicket(ctx, ticket); err != nil {
		return nil, nil, internalError("Failed to record conversation view.", err)
	}

	s.recordRead(ctx, tx, ticket, clientAddr)

	result := buildViewResult(ticket, content)
	result.Conversation = tree
	return result, nil, nil
}

// buildConversationTree turns the flat reply list (already in creation-time
// order) into a forest. Replies are held in an adjacency list keyed by parent
// id rather than linked both ways, so the structure stays acyclic by
// construction. Every reply in a ticket shares the root's passkey set, so one
// derived key decrypts the whole tree.
func buildConversationTree(ticket *models.Ticket, replies []models.Reply, key []byte) ([]ConversationNode, *DomainError) {
	children := make(map[uuid.UUID][]models.Reply)
	var roots []models.Reply
	for _, reply := range replies {
		if reply.ParentReplyID == nil {
			roots = append(roots, reply)
			continue
		}
		children[*reply.ParentReplyID] = append(children[*reply.ParentReplyID], reply)
	}

	var attach func(nodes []models.Reply) ([]ConversationNode, *DomainError)
	attach = func(nodes []models.Reply) ([]ConversationNode, *DomainError) {
		out := make([]ConversationNode, 0, len(nodes))
		for _, reply := range nodes {
			content, reject := decryptReply(ticket, reply, key)
			if reject != nil {
				return nil, reject
			}
			node := ConversationNode{
				ReplyID:   reply.ID,
				Content:   content,
				CreatedAt: reply.CreatedAt,
			}
			childNodes, reject := attach(children[reply.ID])
			if reject != nil {
				return nil, reject
			}
			node.Replies = childNodes
			out = append(out, node)
		}
		return out, nil
	}

	return attach(roots)
}

func decryptReply(ticket *models.Ticket, reply models.Reply, key []byte) (string, *DomainError) {
	ciphertext, err := crypto.DecodeBytes(reply.EncryptedContent)
	if err != nil {
		return "", decryptionError()
	}
	nonce, err := crypto.DecodeBytes(reply.Nonce)
	if err != nil {
		return "", decryptionError()
	}
	plaintext, err := crypto.Decrypt(ciphertext, key, nonce, crypto.Algorithm(ticket.Algorithm))
	if err != nil {
		return "", decryptionError()
	}
	return string(plaintext), nil
}

// PostReply appends an encrypted reply to a THREAD/GROUP ticket after running
// the status, window and passkey gates. Posting does not consume a view.
func (s *Service) PostReply(ctx context.Context, req ReplyRequest, clientAddr string) (uuid.UUID, error) {
	if strings.TrimSpace(req.Content) == "" {
		return uuid.Nil, validationError("Reply content must not be empty.")
	}

	var replyID uuid.UUID
	var reject *DomainError

	err := s.store.LockTicketByNumber(ctx, req.Number, func(tx Store, ticket *models.Ticket) error {
		policy, ok := policyFor(ticket.Type)
		if !ok {
			return internalError("Ticket has an unknown type.", nil)
		}
		if !policy.conversational || !ticket.AllowReplies {
			reject = accessDeniedError("Replies are only supported on THREAD and GROUP tickets.")
			return nil
		}

		if reject = s.runAccessGates(ctx, tx, ticket, req.Entries, false); reject != nil {
			return nil
		}

		if req.ParentReplyID != nil {
			parent, err := tx.ReplyByID(ctx, *req.ParentReplyID)
			if err != nil {
				if err == ErrNotFound {
					reject = notFoundError("Parent reply not found.")
					return nil
				}
				return internalError("Failed to load parent reply.", err)
			}
			if parent.TicketID != ticket.ID {
				// Cross-ticket parenting is a fatal input error, not
				// an access problem.
				reject = validationError("Parent reply belongs to a different ticket.")
				return nil
			}
		}

		key := crypto.DeriveKey(entryValues(req.Entries), ticket.Salt, crypto.Algorithm(ticket.Algorithm))
		ciphertext, nonce, err := crypto.Encrypt([]byte(req.Content), key, crypto.Algorithm(ticket.Algorithm))
		if err != nil {
			return internalError("Failed to encrypt reply content.", err)
		}

		reply := &models.Reply{
			EncryptedContent: crypto.EncodeBytes(ciphertext),
			Nonce:            crypto.EncodeBytes(nonce),
			SubmitterAddress: s.anonymizer.Token(ticket.Salt, clientAddr),
			TicketID:         ticket.ID,
			ParentReplyID:    req.ParentReplyID,
		}
		if err := tx.SaveReply(ctx, reply); err != nil {
			return internalError("Failed to persist reply.", err)
		}
		replyID = reply.ID
		return nil
	})
	if err != nil {
		return uuid.Nil, asDomainError(err)
	}
	if reject != nil {
		return uuid.Nil, reject
	}
	return replyID, nil
}
