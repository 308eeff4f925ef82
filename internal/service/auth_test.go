package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/pollution-watch/internal/model"
	"github.com/iliyamo/pollution-watch/internal/repository"
	"github.com/iliyamo/pollution-watch/internal/utils"
)

func newAuth(t *testing.T) (*AuthService, *memUsers, *utils.TokenIssuer) {
	t.Helper()
	iss, err := utils.NewTokenIssuer("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	users := newMemUsers()
	return NewAuthService(users, users, iss, bcrypt.MinCost), users, iss
}

func alice() RegisterInput {
	return RegisterInput{Login: "alice", Password: "s3cret!", Nom: "Martin", Prenom: "Alice"}
}

func TestRegisterThenLogin_IssuesVerifiableClaims(t *testing.T) {
	ctx := context.Background()
	auth, users, iss := newAuth(t)

	reg, err := auth.Register(ctx, alice())
	require.NoError(t, err)
	require.Equal(t, "alice", reg.User.Login)
	require.Equal(t, model.RoleUser, reg.User.Role)
	require.NotEmpty(t, reg.User.ID)

	res, err := auth.Login(ctx, "alice", "s3cret!")
	require.NoError(t, err)
	claims, err := iss.ParseAccess(res.Tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t, reg.User.ID, claims.ID)
	require.Equal(t, "alice", claims.Login)
	require.Equal(t, model.RoleUser, claims.Role)

	stored, err := users.GetByID(ctx, reg.User.ID)
	require.NoError(t, err)
	require.NotEqual(t, "s3cret!", stored.PasswordHash)
	require.NotNil(t, stored.RefreshTokenHash)
	require.Equal(t, utils.HashRefresh(res.Tokens.RefreshToken), *stored.RefreshTokenHash)
}

func TestRegister_RoleIsUserUnlessAdminSignupAllowed(t *testing.T) {
	ctx := context.Background()
	auth, _, _ := newAuth(t)

	in := alice()
	in.Role = model.RoleAdmin
	res, err := auth.Register(ctx, in)
	require.NoError(t, err)
	require.Equal(t, model.RoleUser, res.User.Role)

	auth.AllowAdminSignup(true)
	in.Login = "root"
	res, err = auth.Register(ctx, in)
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, res.User.Role)
}

func TestRegister_DuplicateLogin(t *testing.T) {
	ctx := context.Background()
	auth, _, _ := newAuth(t)

	_, err := auth.Register(ctx, alice())
	require.NoError(t, err)
	_, err = auth.Register(ctx, alice())
	require.ErrorIs(t, err, repository.ErrLoginExists)
}

func TestRegister_MissingFields(t *testing.T) {
	auth, _, _ := newAuth(t)

	_, err := auth.Register(context.Background(), RegisterInput{Password: "x", Prenom: "A", Nom: "  "})
	var mf *MissingFieldsError
	require.True(t, errors.As(err, &mf))
	require.Equal(t, []string{"login", "nom"}, mf.Fields)
	require.Contains(t, err.Error(), "Missing required fields: login, nom")
}

func TestRegister_PasswordLongerThanBcryptLimit(t *testing.T) {
	ctx := context.Background()
	auth, _, _ := newAuth(t)

	in := alice()
	in.Password = strings.Repeat("p", 80)
	_, err := auth.Register(ctx, in)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.Equal(t, "password", ve.Fields[0].Field)

	_, err = auth.CreateUser(ctx, in)
	require.True(t, errors.As(err, &ve))

	in.Password = strings.Repeat("p", 72)
	_, err = auth.Register(ctx, in)
	require.NoError(t, err)
	_, err = auth.Login(ctx, "alice", in.Password)
	require.NoError(t, err)
}

func TestCreateUser_HonoursRoleWithoutSession(t *testing.T) {
	ctx := context.Background()
	auth, users, _ := newAuth(t)

	in := alice()
	in.Role = model.RoleAdmin
	u, err := auth.CreateUser(ctx, in)
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, u.Role)

	stored, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Nil(t, stored.RefreshTokenHash)

	all, err := auth.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestLogin_BadCredentialsIndistinguishable(t *testing.T) {
	ctx := context.Background()
	auth, _, _ := newAuth(t)
	_, err := auth.Register(ctx, alice())
	require.NoError(t, err)

	_, err = auth.Login(ctx, "alice", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Login(ctx, "bob", "s3cret!")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login(ctx, "", "")
	var mf *MissingFieldsError
	require.True(t, errors.As(err, &mf))
}

func TestRefresh_RotatesAndRejectsOldToken(t *testing.T) {
	ctx := context.Background()
	auth, _, _ := newAuth(t)
	reg, err := auth.Register(ctx, alice())
	require.NoError(t, err)
	first := reg.Tokens.RefreshToken

	next, err := auth.Refresh(ctx, first)
	require.NoError(t, err)
	require.NotEqual(t, first, next.RefreshToken)
	require.NotEqual(t, reg.Tokens.AccessToken, next.AccessToken)

	_, err = auth.Refresh(ctx, first)
	require.ErrorIs(t, err, ErrRefreshInvalid)

	_, err = auth.Refresh(ctx, next.RefreshToken)
	require.NoError(t, err)
}

// staleSessions finds the token but loses the rotation, as when another
// refresh with the same token commits first.
type staleSessions struct{ *memUsers }

func (staleSessions) Rotate(context.Context, string, string, string) error {
	return repository.ErrTokenMismatch
}

func TestRefresh_LostRotationIsInvalid(t *testing.T) {
	ctx := context.Background()
	iss, err := utils.NewTokenIssuer("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	users := newMemUsers()
	reg, err := NewAuthService(users, users, iss, bcrypt.MinCost).Register(ctx, alice())
	require.NoError(t, err)

	auth := NewAuthService(users, staleSessions{users}, iss, bcrypt.MinCost)
	_, err = auth.Refresh(ctx, reg.Tokens.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshInvalid)
}

func TestRefresh_ConcurrentUseOfOneTokenHasOneWinner(t *testing.T) {
	ctx := context.Background()
	auth, _, _ := newAuth(t)
	reg, err := auth.Register(ctx, alice())
	require.NoError(t, err)

	const n = 8
	var (
		wg   sync.WaitGroup
		errs = make([]error, n)
	)
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = auth.Refresh(ctx, reg.Tokens.RefreshToken)
		}()
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		require.ErrorIs(t, err, ErrRefreshInvalid)
	}
	require.Equal(t, 1, won)
}

func TestRefresh_RejectsAccessTokenAndGarbage(t *testing.T) {
	ctx := context.Background()
	auth, _, _ := newAuth(t)
	reg, err := auth.Register(ctx, alice())
	require.NoError(t, err)

	_, err = auth.Refresh(ctx, reg.Tokens.AccessToken)
	require.ErrorIs(t, err, ErrRefreshInvalid)
	_, err = auth.Refresh(ctx, "not-a-jwt")
	require.ErrorIs(t, err, ErrRefreshInvalid)
	_, err = auth.Refresh(ctx, "   ")
	require.ErrorIs(t, err, ErrRefreshRequired)
}

func TestRefresh_UsesStoredRole(t *testing.T) {
	ctx := context.Background()
	auth, users, iss := newAuth(t)
	auth.AllowAdminSignup(true)
	in := alice()
	in.Role = model.RoleAdmin
	reg, err := auth.Register(ctx, in)
	require.NoError(t, err)

	users.byID[reg.User.ID].Role = model.RoleUser

	next, err := auth.Refresh(ctx, reg.Tokens.RefreshToken)
	require.NoError(t, err)
	claims, err := iss.ParseAccess(next.AccessToken)
	require.NoError(t, err)
	require.Equal(t, model.RoleUser, claims.Role)
}

func TestLogin_SupersedesPreviousRefreshToken(t *testing.T) {
	ctx := context.Background()
	auth, _, _ := newAuth(t)
	reg, err := auth.Register(ctx, alice())
	require.NoError(t, err)

	_, err = auth.Login(ctx, "alice", "s3cret!")
	require.NoError(t, err)

	_, err = auth.Refresh(ctx, reg.Tokens.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshInvalid)
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	ctx := context.Background()
	auth, users, iss := newAuth(t)
	reg, err := auth.Register(ctx, alice())
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, reg.Tokens.RefreshToken))
	stored, err := users.GetByID(ctx, reg.User.ID)
	require.NoError(t, err)
	require.Nil(t, stored.RefreshTokenHash)

	_, err = auth.Refresh(ctx, reg.Tokens.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshInvalid)

	// access tokens outlive logout
	_, err = iss.ParseAccess(reg.Tokens.AccessToken)
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, reg.Tokens.RefreshToken))
	require.NoError(t, auth.Logout(ctx, "unknown"))
	require.ErrorIs(t, auth.Logout(ctx, ""), ErrRefreshRequired)
}

func TestMe(t *testing.T) {
	ctx := context.Background()
	auth, _, _ := newAuth(t)
	reg, err := auth.Register(ctx, alice())
	require.NoError(t, err)

	me, err := auth.Me(ctx, reg.User.ID)
	require.NoError(t, err)
	require.Equal(t, reg.User, me)

	_, err = auth.Me(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}
