// Package reconcile mirrors Discord role assignments into the identity
// store as integer privilege levels.
package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/centlink/centlink/internal/config"
	"github.com/centlink/centlink/internal/gateway"
)

// Upserter is the store-side write surface the loop needs.
type Upserter interface {
	Upsert(discordID string, ckey *string, roleLevel *int) error
}

// Loop periodically re-derives every member's privilege level from a live
// membership snapshot and writes it to the store. Each pass is a full
// resync: every member is written every tick, so a missed tick heals itself
// on the next one.
type Loop struct {
	store    Upserter
	snapshot gateway.Snapshot
	roles    config.RolesConfig
	interval time.Duration
}

// New creates a Loop.
func New(store Upserter, snapshot gateway.Snapshot, roles config.RolesConfig, interval time.Duration) *Loop {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Loop{store: store, snapshot: snapshot, roles: roles, interval: interval}
}

// Run blocks until ctx is cancelled. With the role table still on its
// not-set sentinel the loop logs one critical diagnostic and idles. Ticks
// run sequentially on this goroutine, so two passes can never overlap; a
// tick that comes due mid-pass is dropped by the ticker.
func (l *Loop) Run(ctx context.Context) {
	if l.roles.NotSet {
		slog.Error("Donation roles have not been configured; role reconciliation is disabled. Set roles.levels and roles.notSet=false.")
		<-ctx.Done()
		return
	}

	slog.Info("Role reconciliation started", "interval", l.interval, "roles", len(l.roles.Levels))
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.resync(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("Role reconciliation stopped")
			return
		case <-ticker.C:
			l.resync(ctx)
		}
	}
}

// resync performs one full pass. A snapshot failure aborts the pass early;
// partial writes are fine because the next pass re-derives everything.
func (l *Loop) resync(ctx context.Context) {
	// A tick can race the stop signal in Run's select; never start a pass
	// once the context is done.
	if ctx.Err() != nil {
		return
	}
	guilds, err := l.snapshot.Guilds(ctx)
	if err != nil {
		slog.Warn("Membership snapshot failed, skipping pass", "error", err)
		return
	}

	members, failed := 0, 0
	for _, guild := range guilds {
		for _, member := range guild.Members {
			level := l.maxLevel(member.RoleIDs)
			if err := l.store.Upsert(member.ID, nil, &level); err != nil {
				slog.Error("Privilege level write failed", "member", member.ID, "error", err)
				failed++
				continue
			}
			members++
		}
	}
	slog.Debug("Reconcile pass complete", "guilds", len(guilds), "members", members, "failed", failed)
}

// maxLevel returns the highest configured level among roleIDs, 0 when none
// of them is in the table.
func (l *Loop) maxLevel(roleIDs []string) int {
	max := 0
	for _, id := range roleIDs {
		if level, ok := l.roles.Levels[id]; ok && level > max {
			max = level
		}
	}
	return max
}
