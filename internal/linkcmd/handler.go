// Package linkcmd handles the account-link slash command.
package linkcmd

import (
	"context"
	"log/slog"

	"github.com/centlink/centlink/internal/authsite"
	"github.com/centlink/centlink/internal/gateway"
	"github.com/centlink/centlink/internal/lang"
)

// Verifier checks one user's credentials against the account site.
type Verifier interface {
	Verify(ctx context.Context, identifier, secret string) (authsite.Result, error)
}

// VerifierFactory builds a fresh Verifier per invocation so cookie sessions
// and anti-forgery tokens are never shared between users.
type VerifierFactory func() (Verifier, error)

// Upserter is the store-side write surface the handler needs.
type Upserter interface {
	Upsert(discordID string, ckey *string, roleLevel *int) error
}

// Handler processes account-link invocations.
type Handler struct {
	store       Upserter
	newVerifier VerifierFactory
	lang        *lang.Manager
}

// New creates a Handler.
func New(store Upserter, newVerifier VerifierFactory, l *lang.Manager) *Handler {
	return &Handler{store: store, newVerifier: newVerifier, lang: l}
}

// Handle runs one invocation: verify credentials, record the ckey link on
// success, reply with the localized outcome. Verifier protocol errors are
// returned to the gateway's generic error reporting instead of a localized
// message.
func (h *Handler) Handle(ctx context.Context, req gateway.LoginRequest, resp gateway.Responder) error {
	verifier, err := h.newVerifier()
	if err != nil {
		return err
	}

	result, err := verifier.Verify(ctx, req.Identifier, req.Secret)
	if err != nil {
		return err
	}

	if result != authsite.Verified {
		return resp.Reply(h.lang.Loc("loggin", "error"), true)
	}

	// The identifier is stored verbatim as the ckey; when the user typed
	// their email instead of their username the stored key is the email.
	if err := h.store.Upsert(req.CallerID, &req.Identifier, nil); err != nil {
		slog.Error("Recording account link failed", "caller", req.CallerID, "error", err)
	}
	return resp.Reply(h.lang.Loc("loggin", "correct"), true)
}
