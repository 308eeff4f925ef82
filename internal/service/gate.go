package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/iliyamo/pollution-watch/internal/logctx"
	"github.com/iliyamo/pollution-watch/internal/model"
	"github.com/iliyamo/pollution-watch/internal/repository"
)

// Gate decides whether a caller may mutate a report.
type Gate struct {
	users UserReader
}

func NewGate(users UserReader) *Gate { return &Gate{users: users} }

// CanMutate applies the ownership rule to a report owned by ownerID:
//
//   - no owner: any authenticated caller may mutate it;
//   - the owner may mutate it;
//   - otherwise the caller's stored role must be exactly admin.
//
// The role is read from the store rather than the token claim, so a demoted
// admin loses access here immediately.  It returns repository.ErrForbidden
// when the caller is refused.
func (g *Gate) CanMutate(ctx context.Context, who model.Identity, ownerID *string) error {
	if ownerID == nil || *ownerID == "" {
		return nil
	}
	if *ownerID == who.ID {
		return nil
	}
	u, err := g.users.GetByID(ctx, who.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.ErrForbidden
		}
		return fmt.Errorf("service.gate.CanMutate: %w", err)
	}
	if u.IsAdmin() {
		return nil
	}
	logctx.From(ctx).Warn("mutation_denied", slog.String("user_id", who.ID), slog.String("owner_id", *ownerID))
	return repository.ErrForbidden
}
