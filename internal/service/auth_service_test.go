package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/julian-m-willis/spm-proj-sub000/internal/models"
	appErrors "github.com/julian-m-willis/spm-proj-sub000/pkg/errors"
)

type authStaffRepoStub struct {
	byEmail map[string]*models.Staff
}

func (s *authStaffRepoStub) FindByEmail(ctx context.Context, email string) (*models.Staff, error) {
	if staff, ok := s.byEmail[email]; ok {
		copy := *staff
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authStaffRepoStub) FindByID(ctx context.Context, id string) (*models.Staff, error) {
	for _, staff := range s.byEmail {
		if staff.ID == id {
			copy := *staff
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func newAuthServiceForTest(t *testing.T) (*AuthService, *authStaffRepoStub) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &authStaffRepoStub{byEmail: map[string]*models.Staff{
		"john.doe@example.com": {
			ID:           "staff-1",
			Email:        "john.doe@example.com",
			FirstName:    "John",
			LastName:     "Doe",
			Department:   "Engineering",
			Position:     "Developer",
			Role:         models.RoleStaff,
			PasswordHash: string(hash),
			Active:       true,
		},
	}}
	svc := NewAuthService(repo, nil, nil, AuthConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "wfh-arrangement-api",
	})
	return svc, repo
}

func TestAuthServiceLogin(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)

	res, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "john.doe@example.com",
		Password: "s3cret",
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	require.Equal(t, int64(3600), res.ExpiresIn)
	require.Equal(t, "staff-1", res.Staff.ID)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "staff-1", claims.StaffID)
	require.Equal(t, models.RoleStaff, claims.Role)
	require.Equal(t, "Engineering", claims.Department)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "john.doe@example.com",
		Password: "wrong",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@example.com",
		Password: "s3cret",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	svc, repo := newAuthServiceForTest(t)
	repo.byEmail["john.doe@example.com"].Active = false

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "john.doe@example.com",
		Password: "s3cret",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsWrongSecret(t *testing.T) {
	svc, repo := newAuthServiceForTest(t)
	other := NewAuthService(repo, nil, nil, AuthConfig{Secret: "different", Expiration: time.Hour})

	res, err := other.Login(context.Background(), models.LoginRequest{
		Email:    "john.doe@example.com",
		Password: "s3cret",
	})
	require.NoError(t, err)

	_, err = svc.ValidateToken(res.AccessToken)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
