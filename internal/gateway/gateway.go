// Package gateway defines the chat-platform boundary: membership snapshots
// in, command invocations and replies out.
package gateway

import "context"

// Member is one guild member with their assigned role IDs.
type Member struct {
	ID      string
	RoleIDs []string
}

// Guild is one community with its full member list.
type Guild struct {
	ID      string
	Name    string
	Members []Member
}

// Snapshot provides a live read-only view of guild membership.
type Snapshot interface {
	// Guilds returns all tracked guilds with their members and role IDs.
	Guilds(ctx context.Context) ([]Guild, error)
}

// Responder delivers a single reply to the user who invoked a command.
// private requests caller-only visibility.
type Responder interface {
	Reply(text string, private bool) error
}

// LoginRequest carries one account-link command invocation.
type LoginRequest struct {
	CallerID   string
	Identifier string
	Secret     string
}

// LoginHandler processes one account-link invocation. A returned error is
// reported through the gateway's generic error path, not as a localized
// message.
type LoginHandler func(ctx context.Context, req LoginRequest, resp Responder) error

// Gateway is the full chat-platform interface the bot core depends on.
type Gateway interface {
	Snapshot
	// Open connects to the platform and registers commands.
	Open(ctx context.Context) error
	// Close disconnects from the platform.
	Close() error
	// RegisterLogin installs the handler for the account-link command.
	// Must be called before Open.
	RegisterLogin(h LoginHandler)
}
