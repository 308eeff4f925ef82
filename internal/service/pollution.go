package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/pollution-watch/internal/logctx"
	"github.com/iliyamo/pollution-watch/internal/model"
	"github.com/iliyamo/pollution-watch/internal/queue"
	"github.com/iliyamo/pollution-watch/internal/repository"
)

// PollutionService implements report CRUD.  Reads are public; every
// mutation of an existing report passes through the Gate.
type PollutionService struct {
	reports PollutionStore
	users   UserReader
	gate    *Gate
	events  EventPublisher
	now     func() time.Time
}

func NewPollutionService(reports PollutionStore, users UserReader, events EventPublisher) *PollutionService {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &PollutionService{
		reports: reports,
		users:   users,
		gate:    NewGate(users),
		events:  events,
		now:     time.Now,
	}
}

// List returns reports, optionally filtered by title.
func (s *PollutionService) List(ctx context.Context, search string) ([]model.Pollution, error) {
	if err := ValidateSearch(search); err != nil {
		return nil, err
	}
	out, err := s.reports.List(ctx, search, repository.MaxListLimit)
	if err != nil {
		return nil, fmt.Errorf("service.pollution.List: %w", err)
	}
	return out, nil
}

// Get returns one report or repository.ErrNotFound.
func (s *PollutionService) Get(ctx context.Context, id int64) (model.Pollution, error) {
	p, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return model.Pollution{}, fmt.Errorf("service.pollution.Get: %w", err)
	}
	return p, nil
}

// Create stores a new report owned by the caller.  When either reporter
// name is missing both are taken from the caller's profile.
func (s *PollutionService) Create(ctx context.Context, who model.Identity, in PollutionInput) (model.Pollution, error) {
	const op = "service.pollution.Create"

	p, err := ValidatePollutionCreate(in, s.now())
	if err != nil {
		return model.Pollution{}, err
	}
	if p.DecouvreurNom == nil || p.DecouvreurPrenom == nil {
		u, err := s.users.GetByID(ctx, who.ID)
		switch {
		case err == nil:
			p.DecouvreurNom, p.DecouvreurPrenom = &u.Nom, &u.Prenom
		case !errors.Is(err, repository.ErrNotFound):
			return model.Pollution{}, fmt.Errorf("%s: %w", op, err)
		}
	}
	owner := who.ID
	p.UtilisateurID = &owner

	if err := s.reports.Create(ctx, &p); err != nil {
		return model.Pollution{}, fmt.Errorf("%s: %w", op, err)
	}
	s.publish(ctx, queue.EventReported, who, p)
	return p, nil
}

// Update applies the present fields of in to report id.  Validation runs
// first, then existence, then the ownership rule.
func (s *PollutionService) Update(ctx context.Context, who model.Identity, id int64, in PollutionInput) (model.Pollution, error) {
	const op = "service.pollution.Update"

	patch, err := ValidatePollutionPatch(in, s.now())
	if err != nil {
		return model.Pollution{}, err
	}
	cur, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return model.Pollution{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.gate.CanMutate(ctx, who, cur.UtilisateurID); err != nil {
		return model.Pollution{}, err
	}
	if err := s.reports.Update(ctx, id, patch); err != nil {
		return model.Pollution{}, fmt.Errorf("%s: %w", op, err)
	}
	updated, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return model.Pollution{}, fmt.Errorf("%s: %w", op, err)
	}
	s.publish(ctx, queue.EventUpdated, who, updated)
	return updated, nil
}

// Delete removes report id if the caller passes the ownership rule.
func (s *PollutionService) Delete(ctx context.Context, who model.Identity, id int64) error {
	const op = "service.pollution.Delete"

	cur, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.gate.CanMutate(ctx, who, cur.UtilisateurID); err != nil {
		return err
	}
	if err := s.reports.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.publish(ctx, queue.EventDeleted, who, cur)
	return nil
}

func (s *PollutionService) publish(ctx context.Context, typ string, who model.Identity, p model.Pollution) {
	ev := queue.PollutionEvent{
		Type:          typ,
		PollutionID:   p.ID,
		Titre:         p.Titre,
		TypePollution: p.TypePollution,
		Lieu:          p.Lieu,
		ActorID:       who.ID,
		OccurredAt:    s.now().UTC().Format(time.RFC3339),
	}
	if p.UtilisateurID != nil {
		ev.UtilisateurID = *p.UtilisateurID
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		logctx.From(ctx).Warn("event_publish_failed",
			slog.String("type", typ), slog.Int64("pollution_id", p.ID), slog.String("err", err.Error()))
	}
}
