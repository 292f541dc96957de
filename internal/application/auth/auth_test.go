package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trackroom/trackroom/internal/application/accesstoken"
	"github.com/trackroom/trackroom/internal/domain"
	domerrors "github.com/trackroom/trackroom/internal/domain/errors"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[domain.UserID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[domain.UserID]*domain.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return domerrors.ErrConflict
		}
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domerrors.ErrNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, userID domain.UserID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, domerrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, userID domain.UserID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return domerrors.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

// fakeHasher prefixes instead of hashing; tests only need Verify to match
// what Hash produced.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "h:" + password, nil }
func (fakeHasher) Verify(password, hash string) bool    { return "h:"+password == hash }

type stubSessionIssuer struct{}

func (stubSessionIssuer) IssueSession(userID, role string, expiresInSeconds int64) (string, error) {
	return "session:" + userID + ":" + role, nil
}

func (stubSessionIssuer) ValidateSession(tokenString string) (string, string, error) {
	parts := strings.Split(tokenString, ":")
	if len(parts) != 3 || parts[0] != "session" {
		return "", "", domerrors.ErrUnauthenticated
	}
	return parts[1], parts[2], nil
}

type memTokenStore struct {
	mu     sync.Mutex
	tokens map[domain.TokenID]*domain.AccessToken
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{tokens: make(map[domain.TokenID]*domain.AccessToken)}
}

func (m *memTokenStore) Insert(ctx context.Context, token *domain.AccessToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.Kind == token.Kind && t.SecretDigest == token.SecretDigest {
			return domerrors.ErrConflict
		}
	}
	cp := *token
	m.tokens[token.ID] = &cp
	return nil
}

func (m *memTokenStore) GetByDigest(ctx context.Context, kind domain.TokenKind, digest string) (*domain.AccessToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.Kind == kind && t.SecretDigest == digest {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domerrors.ErrNotFound
}

func (m *memTokenStore) Consume(ctx context.Context, tokenID domain.TokenID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[tokenID]
	if !ok {
		return domerrors.ErrNotFound
	}
	if t.ConsumedAt != nil {
		return domerrors.ErrAlreadyUsed
	}
	now := time.Now()
	if t.RevokedAt != nil || t.Expired(now) {
		return domerrors.ErrNotFound
	}
	t.ConsumedAt = &now
	return nil
}

func (m *memTokenStore) Revoke(ctx context.Context, tokenID domain.TokenID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[tokenID]
	if !ok {
		return domerrors.ErrNotFound
	}
	now := time.Now()
	t.RevokedAt = &now
	return nil
}

func (m *memTokenStore) RevokeMatching(ctx context.Context, tokenID domain.TokenID, kind domain.TokenKind, subjectID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[tokenID]
	if !ok || t.Kind != kind || t.SubjectID != subjectID {
		return domerrors.ErrNotFound
	}
	if t.RevokedAt == nil {
		now := time.Now()
		t.RevokedAt = &now
	}
	return nil
}

func (m *memTokenStore) RevokeAllForSubject(ctx context.Context, kind domain.TokenKind, subjectID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, t := range m.tokens {
		if t.Kind == kind && t.SubjectID == subjectID && t.Usable(now) {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (m *memTokenStore) DeleteDeadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type recordingEnqueuer struct {
	mu        sync.Mutex
	resetURLs []string
}

func (r *recordingEnqueuer) EnqueueSendPasswordReset(ctx context.Context, email, resetURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetURLs = append(r.resetURLs, resetURL)
	return nil
}

func (r *recordingEnqueuer) EnqueueApprovalNotice(ctx context.Context, projectID, versionID, approvedBy string) error {
	return nil
}

func (r *recordingEnqueuer) EnqueueReviewReminder(ctx context.Context, projectID, email, reviewURL string) error {
	return nil
}

func (r *recordingEnqueuer) EnqueueFolderInvite(ctx context.Context, folderID, email, uploadURL string) error {
	return nil
}

func (r *recordingEnqueuer) lastSecret(t *testing.T) string {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.resetURLs) == 0 {
		t.Fatal("no reset email enqueued")
	}
	url := r.resetURLs[len(r.resetURLs)-1]
	idx := strings.Index(url, "token=")
	if idx < 0 {
		t.Fatalf("reset URL %q has no token", url)
	}
	return url[idx+len("token="):]
}

type authRig struct {
	users    *fakeUserRepo
	tokens   *accesstoken.Service
	enqueuer *recordingEnqueuer
	register *Register
	login    *Login
	forgot   *ForgotPassword
	reset    *ResetPassword
}

func newAuthRig() *authRig {
	users := newFakeUserRepo()
	tokens := accesstoken.NewService(newMemTokenStore())
	enqueuer := &recordingEnqueuer{}
	hasher := fakeHasher{}
	return &authRig{
		users:    users,
		tokens:   tokens,
		enqueuer: enqueuer,
		register: NewRegister(users, hasher),
		login:    NewLogin(users, hasher, stubSessionIssuer{}, 0),
		forgot:   NewForgotPassword(tokens, users, enqueuer, "https://app.test/reset", zerolog.Nop()),
		reset:    NewResetPassword(tokens, users, hasher),
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	rig := newAuthRig()

	reg, err := rig.register.Execute(ctx, RegisterInput{Email: "mix@studio.test", Password: "open sesame"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if reg.User.Role != domain.RoleEngineer {
		t.Fatalf("default role = %q", reg.User.Role)
	}

	res, err := rig.login.Execute(ctx, LoginInput{Email: "mix@studio.test", Password: "open sesame"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Session == "" || res.ExpiresIn != DefaultSessionExpiry {
		t.Fatalf("login result = %+v", res)
	}

	_, err = rig.login.Execute(ctx, LoginInput{Email: "mix@studio.test", Password: "wrong"})
	if !errors.Is(err, domerrors.ErrUnauthenticated) {
		t.Fatalf("wrong password = %v, want ErrUnauthenticated", err)
	}
	_, err = rig.login.Execute(ctx, LoginInput{Email: "nobody@studio.test", Password: "open sesame"})
	if !errors.Is(err, domerrors.ErrUnauthenticated) {
		t.Fatalf("unknown email = %v, want ErrUnauthenticated", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	rig := newAuthRig()
	if _, err := rig.register.Execute(ctx, RegisterInput{Email: "a@b.test", Password: "p1"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := rig.register.Execute(ctx, RegisterInput{Email: "a@b.test", Password: "p2"})
	if !errors.Is(err, domerrors.ErrConflict) {
		t.Fatalf("duplicate register = %v, want ErrConflict", err)
	}
}

func TestForgotPasswordQuietOnUnknownEmail(t *testing.T) {
	ctx := context.Background()
	rig := newAuthRig()
	if _, err := rig.forgot.Execute(ctx, ForgotPasswordInput{Email: "ghost@studio.test"}); err != nil {
		t.Fatalf("forgot for unknown email: %v", err)
	}
	if len(rig.enqueuer.resetURLs) != 0 {
		t.Fatal("email enqueued for unknown address")
	}
}

func TestPasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	rig := newAuthRig()
	if _, err := rig.register.Execute(ctx, RegisterInput{Email: "a@b.test", Password: "old-pass"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := rig.forgot.Execute(ctx, ForgotPasswordInput{Email: "a@b.test"}); err != nil {
		t.Fatalf("forgot: %v", err)
	}
	secret := rig.enqueuer.lastSecret(t)

	if _, err := rig.reset.Execute(ctx, ResetPasswordInput{Token: secret, NewPassword: "new-pass"}); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := rig.login.Execute(ctx, LoginInput{Email: "a@b.test", Password: "new-pass"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	_, err := rig.login.Execute(ctx, LoginInput{Email: "a@b.test", Password: "old-pass"})
	if !errors.Is(err, domerrors.ErrUnauthenticated) {
		t.Fatalf("login with old password = %v, want ErrUnauthenticated", err)
	}
}

func TestResetLinkIsSingleUse(t *testing.T) {
	ctx := context.Background()
	rig := newAuthRig()
	if _, err := rig.register.Execute(ctx, RegisterInput{Email: "a@b.test", Password: "old-pass"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := rig.forgot.Execute(ctx, ForgotPasswordInput{Email: "a@b.test"}); err != nil {
		t.Fatalf("forgot: %v", err)
	}
	secret := rig.enqueuer.lastSecret(t)
	if _, err := rig.reset.Execute(ctx, ResetPasswordInput{Token: secret, NewPassword: "first"}); err != nil {
		t.Fatalf("first reset: %v", err)
	}
	_, err := rig.reset.Execute(ctx, ResetPasswordInput{Token: secret, NewPassword: "second"})
	if !errors.Is(err, domerrors.ErrAlreadyUsed) {
		t.Fatalf("second reset = %v, want ErrAlreadyUsed", err)
	}
}

func TestNewerResetLinkSupersedesOlder(t *testing.T) {
	ctx := context.Background()
	rig := newAuthRig()
	if _, err := rig.register.Execute(ctx, RegisterInput{Email: "a@b.test", Password: "old-pass"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := rig.forgot.Execute(ctx, ForgotPasswordInput{Email: "a@b.test"}); err != nil {
		t.Fatalf("first forgot: %v", err)
	}
	first := rig.enqueuer.lastSecret(t)
	if _, err := rig.forgot.Execute(ctx, ForgotPasswordInput{Email: "a@b.test"}); err != nil {
		t.Fatalf("second forgot: %v", err)
	}
	second := rig.enqueuer.lastSecret(t)

	_, err := rig.reset.Execute(ctx, ResetPasswordInput{Token: first, NewPassword: "via-first"})
	if !errors.Is(err, domerrors.ErrNotFound) {
		t.Fatalf("superseded link = %v, want ErrNotFound", err)
	}
	if _, err := rig.reset.Execute(ctx, ResetPasswordInput{Token: second, NewPassword: "via-second"}); err != nil {
		t.Fatalf("current link: %v", err)
	}
}

func TestResetRejectsUnchangedPassword(t *testing.T) {
	ctx := context.Background()
	rig := newAuthRig()
	if _, err := rig.register.Execute(ctx, RegisterInput{Email: "a@b.test", Password: "same-pass"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := rig.forgot.Execute(ctx, ForgotPasswordInput{Email: "a@b.test"}); err != nil {
		t.Fatalf("forgot: %v", err)
	}
	secret := rig.enqueuer.lastSecret(t)
	_, err := rig.reset.Execute(ctx, ResetPasswordInput{Token: secret, NewPassword: "same-pass"})
	if !errors.Is(err, domerrors.ErrConflict) {
		t.Fatalf("unchanged password = %v, want ErrConflict", err)
	}
}
