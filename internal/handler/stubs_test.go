package handler

import (
	"context"

	"github.com/iliyamo/pollution-watch/internal/model"
	"github.com/iliyamo/pollution-watch/internal/service"
	"github.com/iliyamo/pollution-watch/internal/utils"
)

type stubAuth struct {
	register func(service.RegisterInput) (service.AuthResult, error)
	login    func(login, password string) (service.AuthResult, error)
	refresh  func(raw string) (utils.TokenPair, error)
	logout   func(raw string) error
	me       func(id string) (model.PublicUser, error)
	list     func() ([]model.PublicUser, error)
	create   func(service.RegisterInput) (model.PublicUser, error)
}

func (s *stubAuth) Register(_ context.Context, in service.RegisterInput) (service.AuthResult, error) {
	return s.register(in)
}
func (s *stubAuth) Login(_ context.Context, login, password string) (service.AuthResult, error) {
	return s.login(login, password)
}
func (s *stubAuth) Refresh(_ context.Context, raw string) (utils.TokenPair, error) {
	return s.refresh(raw)
}
func (s *stubAuth) Logout(_ context.Context, raw string) error { return s.logout(raw) }
func (s *stubAuth) Me(_ context.Context, id string) (model.PublicUser, error) {
	return s.me(id)
}
func (s *stubAuth) ListUsers(context.Context) ([]model.PublicUser, error) { return s.list() }
func (s *stubAuth) CreateUser(_ context.Context, in service.RegisterInput) (model.PublicUser, error) {
	return s.create(in)
}

type stubReports struct {
	list   func(search string) ([]model.Pollution, error)
	get    func(id int64) (model.Pollution, error)
	create func(who model.Identity, in service.PollutionInput) (model.Pollution, error)
	update func(who model.Identity, id int64, in service.PollutionInput) (model.Pollution, error)
	del    func(who model.Identity, id int64) error
}

func (s *stubReports) List(_ context.Context, search string) ([]model.Pollution, error) {
	return s.list(search)
}
func (s *stubReports) Get(_ context.Context, id int64) (model.Pollution, error) { return s.get(id) }
func (s *stubReports) Create(_ context.Context, who model.Identity, in service.PollutionInput) (model.Pollution, error) {
	return s.create(who, in)
}
func (s *stubReports) Update(_ context.Context, who model.Identity, id int64, in service.PollutionInput) (model.Pollution, error) {
	return s.update(who, id, in)
}
func (s *stubReports) Delete(_ context.Context, who model.Identity, id int64) error {
	return s.del(who, id)
}

type stubFavorites struct {
	added   []int64
	removed []int64
	addErr  error
}

func (s *stubFavorites) Add(_ context.Context, _ string, id int64) error {
	if s.addErr != nil {
		return s.addErr
	}
	s.added = append(s.added, id)
	return nil
}
func (s *stubFavorites) Remove(_ context.Context, _ string, id int64) error {
	s.removed = append(s.removed, id)
	return nil
}
func (s *stubFavorites) List(context.Context, string) ([]model.Pollution, error) {
	out := make([]model.Pollution, 0, len(s.added))
	for _, id := range s.added {
		out = append(out, model.Pollution{ID: id})
	}
	return out, nil
}
