package tickets

import (
	"github.com/farellandr/msgx/internal/helpers"
	"github.com/farellandr/msgx/internal/models"
)

// typePolicy is the per-type access policy. All type-dependent behavior
// (defaults, reply permission, which view path applies) lives in this table
// so adding a ticket type is a single-point change.
type typePolicy struct {
	numberPrefix string

	// defaultMaxViews applies when the creator supplies none; nil means
	// unlimited. forceMaxViews overrides whatever the creator supplied.
	defaultMaxViews *int
	forceMaxViews   bool
	requireMaxViews bool

	allowReplies bool

	// conversational routes the ticket through the conversation engine
	// instead of the direct view path.
	conversational bool

	// closeAfterView forces CLOSED after the first successful view.
	closeAfterView bool
}

func intPtr(v int) *int { return &v }

var typePolicies = map[models.TicketType]typePolicy{
	models.TypeSingle: {
		numberPrefix:    "SGL",
		defaultMaxViews: intPtr(5),
		forceMaxViews:   true,
	},
	models.TypeSecureSingle: {
		numberPrefix:    "SSL",
		defaultMaxViews: intPtr(1),
		forceMaxViews:   true,
		closeAfterView:  true,
	},
	models.TypeThread: {
		numberPrefix:   "THD",
		allowReplies:   true,
		conversational: true,
	},
	models.TypeBroadcast: {
		numberPrefix:    "BRC",
		requireMaxViews: true,
	},
	models.TypeGroup: {
		numberPrefix:    "GRP",
		requireMaxViews: true,
		allowReplies:    true,
		conversational:  true,
	},
}

func policyFor(ticketType models.TicketType) (typePolicy, bool) {
	policy, ok := typePolicies[ticketType]
	return policy, ok
}

// newTicketNumber builds the public ticket number: a type prefix and a ULID,
// generated independently of the internal identifier.
func newTicketNumber(policy typePolicy) string {
	return policy.numberPrefix + "-" + helpers.NewULID()
}
