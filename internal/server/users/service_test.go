package users

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/lorekeeper/internal/common"
	"github.com/dmitrijs2005/lorekeeper/internal/dbx"
	"github.com/dmitrijs2005/lorekeeper/internal/logging"
	"github.com/dmitrijs2005/lorekeeper/internal/server/auth"
	"github.com/dmitrijs2005/lorekeeper/internal/server/models"
	"github.com/dmitrijs2005/lorekeeper/internal/server/resettokens"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User // by email

	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*models.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.users[user.Email]; ok {
		return nil, common.ErrEmailTaken
	}
	u := *user
	u.ID = "u-" + user.Email
	u.CreatedAt = time.Now()
	f.users[user.Email] = &u
	out := u
	return &out, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			out := *u
			return &out, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUserRepo) SetEmailVerified(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			u.EmailVerified = true
			return nil
		}
	}
	return common.ErrNotFound
}

func (f *fakeUserRepo) SetPasswordHash(_ context.Context, id string, hash []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			u.PasswordHash = append([]byte(nil), hash...)
			return nil
		}
	}
	return common.ErrNotFound
}

type fakeResetRepo struct {
	mu     sync.Mutex
	tokens map[string]*models.ResetToken
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{tokens: map[string]*models.ResetToken{}}
}

func (f *fakeResetRepo) Create(_ context.Context, userID, token string, validity time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token] = &models.ResetToken{
		ID: token, UserID: userID, Token: token,
		Expires: time.Now().Add(validity), CreatedAt: time.Now(),
	}
	return nil
}

func (f *fakeResetRepo) Consume(_ context.Context, token string) (*models.ResetToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rt, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrNotFound
	}
	delete(f.tokens, token)
	out := *rt
	return &out, nil
}

func (f *fakeResetRepo) DeleteForUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, rt := range f.tokens {
		if rt.UserID == userID {
			delete(f.tokens, k)
		}
	}
	return nil
}

type fakeMailer struct {
	mu            sync.Mutex
	verifications []string
	resets        []string
	resetTokens   []string
}

func (f *fakeMailer) SendVerification(_ context.Context, to, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifications = append(f.verifications, to)
	return nil
}

func (f *fakeMailer) SendPasswordReset(_ context.Context, to, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, to)
	f.resetTokens = append(f.resetTokens, token)
	return nil
}

func (f *fakeMailer) mailedVerifications() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.verifications)
}

func (f *fakeMailer) mailedResets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.resets)
}

func newTestService(t *testing.T) (*Service, *fakeUserRepo, *fakeResetRepo, *fakeMailer) {
	t.Helper()
	repo := newFakeUserRepo()
	resets := newFakeResetRepo()
	m := &fakeMailer{}
	s := NewService(nil, m, logging.NewSlogLogger(slog.New(slog.DiscardHandler)), ServiceOptions{
		JWTSecret:          []byte("test-secret"),
		TokenValidity:      24 * time.Hour,
		RememberMeValidity: 720 * time.Hour,
		ResetValidity:      time.Hour,
	})
	s.repo = func(dbx.DBTX) Repository { return repo }
	s.resets = func(dbx.DBTX) resettokens.Repository { return resets }
	return s, repo, resets, m
}

func TestSignUp_CreatesUserAndMintsToken(t *testing.T) {
	s, _, _, m := newTestService(t)

	res, err := s.SignUp(context.Background(), "ink@example.com", []byte("hunter22"))
	require.NoError(t, err)
	require.Equal(t, "ink@example.com", res.Email)
	require.False(t, res.EmailVerified)

	claims, err := auth.ParseToken(res.Token, []byte("test-secret"))
	require.NoError(t, err)
	require.Equal(t, res.UserID, claims.UserID)

	require.Eventually(t, func() bool { return m.mailedVerifications() == 1 },
		time.Second, 10*time.Millisecond, "verification mail goes out in the background")
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	s, _, _, _ := newTestService(t)

	_, err := s.SignUp(context.Background(), "ink@example.com", []byte("hunter22"))
	require.NoError(t, err)

	_, err = s.SignUp(context.Background(), "ink@example.com", []byte("other-pass"))
	require.ErrorIs(t, err, common.ErrEmailTaken)
}

func TestSignIn_Success(t *testing.T) {
	s, _, _, _ := newTestService(t)

	_, err := s.SignUp(context.Background(), "ink@example.com", []byte("hunter22"))
	require.NoError(t, err)

	res, err := s.SignIn(context.Background(), "ink@example.com", []byte("hunter22"), false)
	require.NoError(t, err)
	require.Equal(t, "ink@example.com", res.Email)
	require.WithinDuration(t, time.Now().Add(24*time.Hour), res.ExpiresAt, time.Minute)
}

func TestSignIn_RememberMeExtendsValidity(t *testing.T) {
	s, _, _, _ := newTestService(t)

	_, err := s.SignUp(context.Background(), "ink@example.com", []byte("hunter22"))
	require.NoError(t, err)

	res, err := s.SignIn(context.Background(), "ink@example.com", []byte("hunter22"), true)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(720*time.Hour), res.ExpiresAt, time.Minute)
}

func TestSignIn_UnknownEmailAndWrongPasswordIndistinguishable(t *testing.T) {
	s, _, _, _ := newTestService(t)

	_, err := s.SignUp(context.Background(), "ink@example.com", []byte("hunter22"))
	require.NoError(t, err)

	_, errUnknown := s.SignIn(context.Background(), "ghost@example.com", []byte("hunter22"), false)
	_, errWrongPw := s.SignIn(context.Background(), "ink@example.com", []byte("wrong-pass"), false)

	require.ErrorIs(t, errUnknown, common.ErrInvalidCredentials)
	require.ErrorIs(t, errWrongPw, common.ErrInvalidCredentials)
	require.Equal(t, errUnknown, errWrongPw)
}

func TestRequestPasswordReset_UnknownEmailSucceeds(t *testing.T) {
	s, _, resets, m := newTestService(t)

	require.NoError(t, s.RequestPasswordReset(context.Background(), "ghost@example.com"))
	require.Empty(t, resets.tokens)
	require.Zero(t, m.mailedResets())
}

func TestRequestPasswordReset_KnownEmailStoresTokenAndMails(t *testing.T) {
	s, _, resets, m := newTestService(t)

	_, err := s.SignUp(context.Background(), "ink@example.com", []byte("hunter22"))
	require.NoError(t, err)

	require.NoError(t, s.RequestPasswordReset(context.Background(), "ink@example.com"))
	require.Len(t, resets.tokens, 1)
	require.Eventually(t, func() bool { return m.mailedResets() == 1 },
		time.Second, 10*time.Millisecond)
}

func TestResetPassword_ConsumesTokenAndReplacesHash(t *testing.T) {
	s, repo, resets, m := newTestService(t)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()
	s.db = db

	_, err = s.SignUp(context.Background(), "ink@example.com", []byte("hunter22"))
	require.NoError(t, err)
	require.NoError(t, s.RequestPasswordReset(context.Background(), "ink@example.com"))

	require.Eventually(t, func() bool { return m.mailedResets() == 1 },
		time.Second, 10*time.Millisecond)
	m.mu.Lock()
	token := m.resetTokens[0]
	m.mu.Unlock()

	require.NoError(t, s.ResetPassword(context.Background(), token, []byte("new-password")))

	u, err := repo.GetByEmail(context.Background(), "ink@example.com")
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword(u.PasswordHash, []byte("new-password")))
	require.Empty(t, resets.tokens, "all outstanding tokens revoked")

	// second use of the same token must fail
	mock.ExpectBegin()
	mock.ExpectRollback()
	require.ErrorIs(t, s.ResetPassword(context.Background(), token, []byte("another")), common.ErrInvalidToken)
}

func TestResetPassword_ExpiredToken(t *testing.T) {
	s, _, resets, _ := newTestService(t)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()
	s.db = db

	_, err = s.SignUp(context.Background(), "ink@example.com", []byte("hunter22"))
	require.NoError(t, err)
	require.NoError(t, resets.Create(context.Background(), "u-ink@example.com", "stale-token", -time.Minute))

	err = s.ResetPassword(context.Background(), "stale-token", []byte("new-password"))
	require.ErrorIs(t, err, common.ErrResetTokenExpired)
}

func TestVerification_FlagRoundTrip(t *testing.T) {
	s, repo, _, _ := newTestService(t)

	res, err := s.SignUp(context.Background(), "ink@example.com", []byte("hunter22"))
	require.NoError(t, err)

	verified, err := s.Verification(context.Background(), res.UserID)
	require.NoError(t, err)
	require.False(t, verified)

	require.NoError(t, repo.SetEmailVerified(context.Background(), res.UserID))

	verified, err = s.Verification(context.Background(), res.UserID)
	require.NoError(t, err)
	require.True(t, verified)
}

func TestVerifyEmail_TokenFlipsFlag(t *testing.T) {
	s, _, _, _ := newTestService(t)

	res, err := s.SignUp(context.Background(), "ink@example.com", []byte("hunter22"))
	require.NoError(t, err)

	token, err := auth.GenerateToken(res.UserID, res.Email, []byte("test-secret"), time.Hour)
	require.NoError(t, err)
	require.NoError(t, s.VerifyEmail(context.Background(), token))

	verified, err := s.Verification(context.Background(), res.UserID)
	require.NoError(t, err)
	require.True(t, verified)
}

func TestVerifyEmail_BadToken(t *testing.T) {
	s, _, _, _ := newTestService(t)

	err := s.VerifyEmail(context.Background(), "not-a-token")
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestSignUp_RepoErrorIsMasked(t *testing.T) {
	s, repo, _, _ := newTestService(t)
	repo.createErr = errors.New("connection refused")

	_, err := s.SignUp(context.Background(), "ink@example.com", []byte("hunter22"))
	require.ErrorIs(t, err, common.ErrInternal)
}
