// Package intent classifies free-text chat messages against an ordered
// rule list. The first matching rule wins; there is no scoring and no
// backtracking. A message no rule claims is reported as unhandled so the
// caller can forward it to the assistant.
package intent

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sikilat/sikilat/internal/model"
	"github.com/sikilat/sikilat/internal/rbac"
	"github.com/sikilat/sikilat/internal/store"
)

// Input is one chat message plus the acting user.
type Input struct {
	UserID  string
	Role    model.Role
	Message string
}

// Kind is the classification outcome.
type Kind int

const (
	// Unhandled means no rule claimed the message; delegate to the assistant.
	Unhandled Kind = iota
	// Answered means a rule produced a direct reply.
	Answered
	// Denied means the text matched a role-gated rule the acting role may
	// not use.
	Denied
)

// Result is the outcome of matching one message.
type Result struct {
	Kind  Kind
	Rule  string // name of the rule that fired, "" when unhandled
	Reply string
	// SavedID is set when the rule persisted a record (new incident report
	// or a status update).
	SavedID string
}

// rule pairs a predicate with its handler. A non-empty action makes the
// rule role-gated: matching text from a role without the action yields an
// access-denied reply instead of the handler's result.
type rule struct {
	name   string
	action rbac.Action
	match  func(m *Matcher, in Input, lower string) ([]string, bool)
	handle func(ctx context.Context, m *Matcher, in Input, args []string) (Result, error)
}

// Matcher evaluates the rule list against the record store.
type Matcher struct {
	store       *store.Store
	assistantOn bool
	rules       []rule

	now   func() time.Time
	newID func() string
}

// New builds a Matcher over s. assistantAvailable steers the deferral
// rule: analysis and contact intents are left unhandled for the richer
// assistant path when it is configured, and answered locally otherwise.
func New(s *store.Store, assistantAvailable bool) *Matcher {
	return &Matcher{
		store:       s,
		assistantOn: assistantAvailable,
		rules:       ruleCatalog(),
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Handle classifies in.Message. Rules are tried strictly in catalog order.
func (m *Matcher) Handle(ctx context.Context, in Input) (Result, error) {
	lower := lowercase(in.Message)
	for _, r := range m.rules {
		args, ok := r.match(m, in, lower)
		if !ok {
			continue
		}
		if r.action != "" && !rbac.Can(in.Role, r.action) {
			return Result{Kind: Denied, Rule: r.name, Reply: deniedReply}, nil
		}
		res, err := r.handle(ctx, m, in, args)
		if err != nil {
			return Result{}, err
		}
		res.Rule = r.name
		return res, nil
	}
	return Result{Kind: Unhandled}, nil
}

// RuleNames returns the catalog order. Tests pin this: reordering rules
// changes which one wins on overlapping messages.
func (m *Matcher) RuleNames() []string {
	names := make([]string, len(m.rules))
	for i, r := range m.rules {
		names[i] = r.name
	}
	return names
}
