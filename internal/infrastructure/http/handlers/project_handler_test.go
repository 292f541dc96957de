package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trackroom/trackroom/internal/application/accesstoken"
	"github.com/trackroom/trackroom/internal/application/authz"
	"github.com/trackroom/trackroom/internal/application/project"
	"github.com/trackroom/trackroom/internal/domain"
	domerrors "github.com/trackroom/trackroom/internal/domain/errors"
	"github.com/trackroom/trackroom/internal/infrastructure/http/middleware"
	"github.com/trackroom/trackroom/internal/infrastructure/queue"
)

type stubProjectRepo struct {
	mu   sync.Mutex
	byID map[domain.ProjectID]*domain.Project
}

func newStubProjectRepo() *stubProjectRepo {
	return &stubProjectRepo{byID: make(map[domain.ProjectID]*domain.Project)}
}

func (f *stubProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[p.ID] = p
	return nil
}

func (f *stubProjectRepo) GetByID(ctx context.Context, id domain.ProjectID) (*domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, domerrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *stubProjectRepo) UpdateShareDigest(ctx context.Context, id domain.ProjectID, digest string) error {
	return nil
}

func (f *stubProjectRepo) SubmitVersion(ctx context.Context, id domain.ProjectID, v *domain.Version) error {
	return nil
}

func (f *stubProjectRepo) Approve(ctx context.Context, id domain.ProjectID, vid domain.VersionID, by string, at time.Time) (bool, error) {
	return false, nil
}

func (f *stubProjectRepo) Reopen(ctx context.Context, id domain.ProjectID) error { return nil }

func (f *stubProjectRepo) ListVersions(ctx context.Context, id domain.ProjectID) ([]domain.Version, error) {
	return nil, nil
}

type stubTokenStore struct {
	mu     sync.Mutex
	tokens map[domain.TokenID]*domain.AccessToken
}

func newStubTokenStore() *stubTokenStore {
	return &stubTokenStore{tokens: make(map[domain.TokenID]*domain.AccessToken)}
}

func (m *stubTokenStore) Insert(ctx context.Context, token *domain.AccessToken) error {
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

func (m *stubTokenStore) GetByDigest(ctx context.Context, kind domain.TokenKind, digest string) (*domain.AccessToken, error) {
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

func (m *stubTokenStore) Consume(ctx context.Context, tokenID domain.TokenID) error { return nil }

func (m *stubTokenStore) Revoke(ctx context.Context, tokenID domain.TokenID) error { return nil }

func (m *stubTokenStore) RevokeMatching(ctx context.Context, tokenID domain.TokenID, kind domain.TokenKind, subjectID uuid.UUID) error {
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

func (m *stubTokenStore) RevokeAllForSubject(ctx context.Context, kind domain.TokenKind, subjectID uuid.UUID) error {
	return nil
}

func (m *stubTokenStore) DeleteDeadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func doAs(t *testing.T, router http.Handler, method, target string, principal domain.Principal) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	req = req.WithContext(middleware.WithPrincipal(req.Context(), principal))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestReviewLinkRevokeEndpoint(t *testing.T) {
	repo := newStubProjectRepo()
	tokens := accesstoken.NewService(newStubTokenStore())
	engine := authz.NewEngine(tokens, repo, nil)

	ownerID := domain.NewUserID(uuid.New())
	proj := &domain.Project{
		ID:             domain.NewProjectID(uuid.New()),
		OwnerID:        ownerID,
		Title:          "Mix v3",
		ApprovalStatus: domain.ApprovalPending,
	}
	if err := repo.Create(context.Background(), proj); err != nil {
		t.Fatalf("create project: %v", err)
	}

	issueUC := project.NewIssueReviewLink(engine, tokens, queue.NewNoopEnqueuer(), "http://studio.test/review", zerolog.Nop())
	revokeUC := project.NewRevokeReviewLink(engine, tokens)
	h := NewProjectHandler(nil, nil, nil, nil, issueUC, revokeUC, nil, nil, nil, nil, nil, zerolog.Nop())

	router := chi.NewRouter()
	router.Post("/projects/{projectID}/review-links", h.IssueReviewLink)
	router.Delete("/projects/{projectID}/review-links/{tokenID}", h.RevokeReviewLink)

	owner := domain.SessionPrincipal(ownerID, domain.RoleEngineer)
	stranger := domain.SessionPrincipal(domain.NewUserID(uuid.New()), domain.RoleEngineer)

	rec := doAs(t, router, http.MethodPost, "/projects/"+proj.ID.String()+"/review-links", owner)
	if rec.Code != http.StatusCreated {
		t.Fatalf("issue status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var issued struct {
		ReviewURL string `json:"review_url"`
		TokenID   string `json:"token_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &issued); err != nil {
		t.Fatalf("decode issue response: %v", err)
	}
	parsed, err := url.Parse(issued.ReviewURL)
	if err != nil {
		t.Fatalf("parse review url: %v", err)
	}
	secret := parsed.Query().Get("token")
	if secret == "" {
		t.Fatal("review url carries no token")
	}

	decision, err := engine.Authorize(context.Background(), domain.TokenPrincipal(secret), authz.ActionProjectRead, proj.ID.UUID)
	if err != nil || !decision.Allow {
		t.Fatalf("fresh link should authorize project.read, got allow=%v err=%v", decision.Allow, err)
	}

	target := "/projects/" + proj.ID.String() + "/review-links/" + issued.TokenID

	rec = doAs(t, router, http.MethodDelete, target, stranger)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("stranger revoke status = %d, want 403", rec.Code)
	}

	rec = doAs(t, router, http.MethodDelete, target, owner)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("owner revoke status = %d, want 204: %s", rec.Code, rec.Body.String())
	}

	decision, err = engine.Authorize(context.Background(), domain.TokenPrincipal(secret), authz.ActionProjectRead, proj.ID.UUID)
	if err != nil {
		t.Fatalf("authorize after revoke: %v", err)
	}
	if decision.Allow {
		t.Fatal("revoked link still authorizes project.read")
	}

	// Revoking twice is idempotent for the owner.
	rec = doAs(t, router, http.MethodDelete, target, owner)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("second owner revoke status = %d, want 204", rec.Code)
	}

	rec = doAs(t, router, http.MethodDelete, "/projects/"+proj.ID.String()+"/review-links/not-a-uuid", owner)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed token id status = %d, want 400", rec.Code)
	}
}
