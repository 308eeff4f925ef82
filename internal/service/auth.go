package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/pollution-watch/internal/logctx"
	"github.com/iliyamo/pollution-watch/internal/model"
	"github.com/iliyamo/pollution-watch/internal/repository"
	"github.com/iliyamo/pollution-watch/internal/utils"
)

// AuthService implements registration, login and the refresh-token session
// protocol.  Access tokens are verified statelessly elsewhere; only refresh
// tokens are checked against the store, which is what makes logout and
// rotation effective.
type AuthService struct {
	users            UserStore
	sessions         SessionStore
	tokens           *utils.TokenIssuer
	bcryptCost       int
	allowAdminSignup bool
}

// NewAuthService wires the stores and the token issuer.
func NewAuthService(users UserStore, sessions SessionStore, tokens *utils.TokenIssuer, bcryptCost int) *AuthService {
	return &AuthService{users: users, sessions: sessions, tokens: tokens, bcryptCost: bcryptCost}
}

// AllowAdminSignup lets self-registration request the admin role.  Off by
// default: otherwise anyone could register as admin.
func (s *AuthService) AllowAdminSignup(allow bool) { s.allowAdminSignup = allow }

// RegisterInput is the body of a registration or admin user creation.
type RegisterInput struct {
	Login    string
	Password string
	Nom      string
	Prenom   string
	Role     string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User   model.PublicUser
	Tokens utils.TokenPair
}

// MissingFieldsError lists the required fields that were empty.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "Missing required fields: " + strings.Join(e.Fields, ", ")
}

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

func (in *RegisterInput) normalize() error {
	in.Login = strings.TrimSpace(in.Login)
	in.Nom = strings.TrimSpace(in.Nom)
	in.Prenom = strings.TrimSpace(in.Prenom)
	var missing []string
	if in.Login == "" {
		missing = append(missing, "login")
	}
	if in.Password == "" {
		missing = append(missing, "password")
	}
	if in.Nom == "" {
		missing = append(missing, "nom")
	}
	if in.Prenom == "" {
		missing = append(missing, "prenom")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	var ve ValidationError
	if len(in.Password) > maxPasswordBytes {
		ve.add("password", "Password must be at most "+strconv.Itoa(maxPasswordBytes)+" bytes")
	}
	return ve.orNil()
}

// Register creates a user and opens a session for it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	const op = "service.auth.Register"

	role := model.RoleUser
	if s.allowAdminSignup {
		role = model.NormalizeRole(strings.TrimSpace(in.Role))
	}
	u, err := s.createUser(ctx, in, role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}
	pair, err := s.openSession(ctx, u)
	if err != nil {
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}
	logctx.From(ctx).Info("user_registered", slog.String("user_id", u.ID), slog.String("role", u.Role))
	return AuthResult{User: u.Public(), Tokens: pair}, nil
}

// CreateUser is the admin variant of Register: the requested role is
// honoured and no session is opened.
func (s *AuthService) CreateUser(ctx context.Context, in RegisterInput) (model.PublicUser, error) {
	const op = "service.auth.CreateUser"

	u, err := s.createUser(ctx, in, model.NormalizeRole(strings.TrimSpace(in.Role)))
	if err != nil {
		return model.PublicUser{}, fmt.Errorf("%s: %w", op, err)
	}
	return u.Public(), nil
}

func (s *AuthService) createUser(ctx context.Context, in RegisterInput, role string) (model.User, error) {
	if err := in.normalize(); err != nil {
		return model.User{}, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return model.User{}, err
	}
	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return model.User{}, err
	}
	u := model.User{
		ID:           id.String(),
		Login:        in.Login,
		PasswordHash: hash,
		Nom:          in.Nom,
		Prenom:       in.Prenom,
		Role:         role,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// Login checks the credentials and opens a new session, superseding any
// refresh token the user held before.
func (s *AuthService) Login(ctx context.Context, login, password string) (AuthResult, error) {
	const op = "service.auth.Login"

	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return AuthResult{}, &MissingFieldsError{Fields: []string{"login", "password"}}
	}

	u, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.BurnPasswordCheck(password)
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		logctx.From(ctx).Warn("login_bad_password", slog.String("user_id", u.ID))
		return AuthResult{}, ErrInvalidCredentials
	}

	pair, err := s.openSession(ctx, u)
	if err != nil {
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}
	return AuthResult{User: u.Public(), Tokens: pair}, nil
}

func (s *AuthService) openSession(ctx context.Context, u model.User) (utils.TokenPair, error) {
	pair, err := s.tokens.IssuePair(u.ID, u.Login, u.Role)
	if err != nil {
		return utils.TokenPair{}, err
	}
	if err := s.sessions.Store(ctx, u.ID, utils.HashRefresh(pair.RefreshToken)); err != nil {
		return utils.TokenPair{}, err
	}
	return pair, nil
}

// Refresh exchanges a live refresh token for a new pair and rotates the
// persisted token.  The presented token must verify and must still be the
// one persisted for the user named in its claims.
func (s *AuthService) Refresh(ctx context.Context, raw string) (utils.TokenPair, error) {
	const op = "service.auth.Refresh"
	lg := logctx.From(ctx)

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return utils.TokenPair{}, ErrRefreshRequired
	}
	claims, err := s.tokens.ParseRefresh(raw)
	if err != nil {
		lg.Warn("refresh_token_rejected", slog.String("reason", err.Error()))
		return utils.TokenPair{}, ErrRefreshInvalid
	}

	oldHash := utils.HashRefresh(raw)
	u, err := s.sessions.FindByIDAndHash(ctx, claims.ID, oldHash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			lg.Warn("refresh_token_not_persisted", slog.String("user_id", claims.ID))
			return utils.TokenPair{}, ErrRefreshInvalid
		}
		return utils.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	// role comes from the store, so a demotion takes effect on the next refresh
	pair, err := s.tokens.IssuePair(u.ID, u.Login, u.Role)
	if err != nil {
		return utils.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.sessions.Rotate(ctx, u.ID, oldHash, utils.HashRefresh(pair.RefreshToken)); err != nil {
		if errors.Is(err, repository.ErrTokenMismatch) {
			lg.Warn("refresh_rotation_lost", slog.String("user_id", u.ID))
			return utils.TokenPair{}, ErrRefreshInvalid
		}
		return utils.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}
	return pair, nil
}

// Logout clears the persisted refresh token if some user still holds it.
// Unknown or already revoked tokens are accepted silently.  Outstanding
// access tokens stay valid until they expire.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	const op = "service.auth.Logout"

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ErrRefreshRequired
	}
	revoked, err := s.sessions.RevokeByHash(ctx, utils.HashRefresh(raw))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	logctx.From(ctx).Info("logout", slog.Bool("revoked", revoked))
	return nil
}

// Me returns the public profile of the given user id.
func (s *AuthService) Me(ctx context.Context, id string) (model.PublicUser, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return model.PublicUser{}, fmt.Errorf("service.auth.Me: %w", err)
	}
	return u.Public(), nil
}

// ListUsers returns every user's public profile.
func (s *AuthService) ListUsers(ctx context.Context) ([]model.PublicUser, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.auth.ListUsers: %w", err)
	}
	out := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}
