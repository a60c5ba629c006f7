package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sikilat/sikilat/internal/dashboard"
	"github.com/sikilat/sikilat/internal/intent"
	"github.com/sikilat/sikilat/internal/model"
	"github.com/sikilat/sikilat/internal/payload"
	"github.com/sikilat/sikilat/internal/store"
)

// unconfiguredReply is returned without any network call when no API key
// is present.
const unconfiguredReply = "Fitur asisten AI belum aktif karena API key belum " +
	"dikonfigurasi. Hubungi admin untuk mengaturnya, atau gunakan perintah " +
	"seperti \"cek status <ID laporan>\"."

// Chatter abstracts the generative client for testing.
type Chatter interface {
	Configured() bool
	Generate(ctx context.Context, chatModel, system string, parts []Part) (string, error)
}

// Reply is the delegate's answer: the relayed text plus, when the model
// asked for it, a record to persist.
type Reply struct {
	Text string
	Save *payload.SaveEnvelope
}

// Delegate forwards unhandled messages to the generative service with
// intent-specific context injected from the record store.
type Delegate struct {
	client         Chatter
	store          *store.Store
	chatModel      string
	reasoningModel string
}

// New builds a Delegate. chatModel answers ordinary messages;
// reasoningModel is used for analysis questions that get the aggregate
// context block.
func New(client Chatter, s *store.Store, chatModel, reasoningModel string) *Delegate {
	return &Delegate{
		client:         client,
		store:          s,
		chatModel:      chatModel,
		reasoningModel: reasoningModel,
	}
}

// Available reports whether the delegate can actually call out.
func (d *Delegate) Available() bool { return d.client.Configured() }

// Ask forwards the message. imageData, when non-empty, is base64 content
// attached as an inline part. Credential failures are returned wrapped in
// ErrBadCredential so the caller can prompt for a new key.
func (d *Delegate) Ask(ctx context.Context, in intent.Input, imageData, imageMIME string) (Reply, error) {
	if !d.client.Configured() {
		return Reply{Text: unconfiguredReply}, nil
	}

	system := systemPrompt
	chatModel := d.chatModel
	prompt := in.Message

	switch {
	case intent.IsAnalysisIntent(in.Message):
		sum, err := dashboard.Build(ctx, d.store)
		if err != nil {
			return Reply{}, fmt.Errorf("building analysis context: %w", err)
		}
		prompt = in.Message + "\n\n" + sum.ContextBlock()
		chatModel = d.reasoningModel
	case intent.IsContactIntent(in.Message):
		users, err := d.users(ctx)
		if err != nil {
			return Reply{}, fmt.Errorf("building contact context: %w", err)
		}
		system = system + "\n\n" + contactInstruction
		prompt = in.Message + "\n\n" + contactBlock(users)
	}

	parts := []Part{{Text: prompt}}
	if imageData != "" {
		mime := imageMIME
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, Part{InlineData: &InlineData{MIMEType: mime, Data: imageData}})
	}

	text, err := d.client.Generate(ctx, chatModel, system, parts)
	if err != nil {
		return Reply{}, err
	}

	blocks, rest, malformed := payload.Extract(text)
	reply := Reply{Text: text}
	if save, ok := payload.FindSave(blocks); ok {
		reply.Save = save
	}
	if malformed > 0 {
		slog.Warn("assistant returned malformed structured payload", "blocks", malformed)
		reply.Text = strings.TrimSpace(rest + "\n\n(Maaf, sebagian data terstruktur gagal ditampilkan.)")
	}
	return reply, nil
}

func (d *Delegate) users(ctx context.Context) ([]model.User, error) {
	records, err := d.store.GetCollection(ctx, store.EntityUsers)
	if err != nil {
		return nil, err
	}
	out := make([]model.User, 0, len(records))
	for _, r := range records {
		var u model.User
		if err := model.FromMap(r, &u); err != nil {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}
