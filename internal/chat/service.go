// Package chat glues the intent matcher, the assistant delegate, and the
// record store into the single entry point the chat UI talks to.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sikilat/sikilat/internal/assistant"
	"github.com/sikilat/sikilat/internal/intent"
	"github.com/sikilat/sikilat/internal/store"
)

const credentialReply = "Asisten AI tidak dapat dihubungi karena API key " +
	"ditolak. Silakan perbarui API key pada pengaturan."

// Response is the answer returned to the UI for one message.
type Response struct {
	Reply string `json:"balasan"`
	// Rule names the local rule that answered, empty when the assistant did.
	Rule string `json:"aturan,omitempty"`
	// SavedID is the key of a record persisted as a side effect.
	SavedID string `json:"id_tersimpan,omitempty"`
	// CredentialError asks the UI to prompt for API key replacement.
	CredentialError bool `json:"kredensial_bermasalah,omitempty"`
}

// Service handles chat messages: local rules first, assistant second.
type Service struct {
	matcher  *intent.Matcher
	delegate *assistant.Delegate
	store    *store.Store
}

// New wires the service. delegate must be non-nil; an unconfigured
// delegate answers with its fixed explanation instead of calling out.
func New(m *intent.Matcher, d *assistant.Delegate, s *store.Store) *Service {
	return &Service{matcher: m, delegate: d, store: s}
}

// Handle processes one message for the acting user.
func (s *Service) Handle(ctx context.Context, in intent.Input, imageData, imageMIME string) (Response, error) {
	res, err := s.matcher.Handle(ctx, in)
	if err != nil {
		return Response{}, fmt.Errorf("matching intent: %w", err)
	}
	if res.Kind != intent.Unhandled {
		return Response{Reply: res.Reply, Rule: res.Rule, SavedID: res.SavedID}, nil
	}

	reply, err := s.delegate.Ask(ctx, in, imageData, imageMIME)
	if errors.Is(err, assistant.ErrBadCredential) {
		slog.Warn("assistant credential rejected", "error", err)
		return Response{Reply: credentialReply, CredentialError: true}, nil
	}
	if err != nil {
		return Response{}, fmt.Errorf("asking assistant: %w", err)
	}

	out := Response{Reply: reply.Text}
	if reply.Save != nil {
		entity := store.Entity(reply.Save.Table)
		if !entity.Valid() {
			slog.Warn("assistant asked to save into unknown collection", "table", reply.Save.Table)
			return out, nil
		}
		key, err := s.store.Upsert(ctx, entity, reply.Save.Payload)
		if err != nil {
			return Response{}, fmt.Errorf("persisting assistant record: %w", err)
		}
		out.SavedID = key
	}
	return out, nil
}
