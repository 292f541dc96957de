package authz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trackroom/trackroom/internal/application/accesstoken"
	"github.com/trackroom/trackroom/internal/domain"
	domerrors "github.com/trackroom/trackroom/internal/domain/errors"
)

type fakeProjects struct {
	byID map[domain.ProjectID]*domain.Project
}

func (f *fakeProjects) Create(ctx context.Context, p *domain.Project) error {
	f.byID[p.ID] = p
	return nil
}

func (f *fakeProjects) GetByID(ctx context.Context, id domain.ProjectID) (*domain.Project, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, domerrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProjects) UpdateShareDigest(ctx context.Context, id domain.ProjectID, digest string) error {
	p, ok := f.byID[id]
	if !ok {
		return domerrors.ErrNotFound
	}
	p.ShareTokenDigest = digest
	return nil
}

func (f *fakeProjects) SubmitVersion(ctx context.Context, id domain.ProjectID, v *domain.Version) error {
	return nil
}

func (f *fakeProjects) Approve(ctx context.Context, id domain.ProjectID, vid domain.VersionID, by string, at time.Time) (bool, error) {
	return false, nil
}

func (f *fakeProjects) Reopen(ctx context.Context, id domain.ProjectID) error { return nil }

func (f *fakeProjects) ListVersions(ctx context.Context, id domain.ProjectID) ([]domain.Version, error) {
	return nil, nil
}

type fakeFolders struct {
	byID map[domain.FolderID]*domain.ClientFolder
}

func (f *fakeFolders) Create(ctx context.Context, folder *domain.ClientFolder) error {
	f.byID[folder.ID] = folder
	return nil
}

func (f *fakeFolders) GetByID(ctx context.Context, id domain.FolderID) (*domain.ClientFolder, error) {
	folder, ok := f.byID[id]
	if !ok {
		return nil, domerrors.ErrNotFound
	}
	cp := *folder
	return &cp, nil
}

func (f *fakeFolders) InsertFile(ctx context.Context, file *domain.FolderFile) error { return nil }

func (f *fakeFolders) GetFile(ctx context.Context, folderID domain.FolderID, fileID domain.FileID) (*domain.FolderFile, error) {
	return nil, domerrors.ErrNotFound
}

func (f *fakeFolders) RenameFile(ctx context.Context, folderID domain.FolderID, fileID domain.FileID, name string) error {
	return nil
}

func (f *fakeFolders) DeleteFile(ctx context.Context, folderID domain.FolderID, fileID domain.FileID) error {
	return nil
}

func (f *fakeFolders) ListFiles(ctx context.Context, folderID domain.FolderID) ([]domain.FolderFile, error) {
	return nil, nil
}

type fixture struct {
	engine   *Engine
	tokens   *accesstoken.Service
	projects *fakeProjects
	folders  *fakeFolders
	owner    domain.UserID
	project  *domain.Project
	folder   *domain.ClientFolder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	owner := domain.NewUserID(uuid.New())
	project := &domain.Project{
		ID:             domain.NewProjectID(uuid.New()),
		OwnerID:        owner,
		Title:          "Mix v1",
		ApprovalStatus: domain.ApprovalPending,
	}
	folder := &domain.ClientFolder{
		ID:      domain.NewFolderID(uuid.New()),
		OwnerID: owner,
		Name:    "stems",
	}
	projects := &fakeProjects{byID: map[domain.ProjectID]*domain.Project{project.ID: project}}
	folders := &fakeFolders{byID: map[domain.FolderID]*domain.ClientFolder{folder.ID: folder}}
	tokens := accesstoken.NewService(newMemTokenStore())
	return &fixture{
		engine:   NewEngine(tokens, projects, folders),
		tokens:   tokens,
		projects: projects,
		folders:  folders,
		owner:    owner,
		project:  project,
		folder:   folder,
	}
}

func TestAuthorizePrecedence(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	stranger := domain.NewUserID(uuid.New())
	reviewSecret, _, err := fx.tokens.Issue(ctx, domain.TokenProjectReviewLink, fx.project.ID.UUID)
	if err != nil {
		t.Fatalf("issue review link: %v", err)
	}

	cases := []struct {
		name      string
		principal domain.Principal
		action    Action
		wantAllow bool
		wantRole  domain.EffectiveRole
		wantErr   error
	}{
		{
			name:      "admin over foreign resource",
			principal: domain.SessionPrincipal(stranger, domain.RoleAdmin),
			action:    ActionProjectWrite,
			wantAllow: true,
			wantRole:  domain.EffectiveAdmin,
		},
		{
			name:      "owner",
			principal: domain.SessionPrincipal(fx.owner, domain.RoleEngineer),
			action:    ActionProjectWrite,
			wantAllow: true,
			wantRole:  domain.EffectiveOwner,
		},
		{
			name:      "non-owner session without token",
			principal: domain.SessionPrincipal(stranger, domain.RoleEngineer),
			action:    ActionProjectWrite,
			wantErr:   domerrors.ErrForbidden,
		},
		{
			name:      "review token holder reads",
			principal: domain.TokenPrincipal(reviewSecret),
			action:    ActionProjectRead,
			wantAllow: true,
			wantRole:  domain.EffectiveTokenHolder,
		},
		{
			name:      "review token holder cannot write",
			principal: domain.TokenPrincipal(reviewSecret),
			action:    ActionProjectWrite,
			wantErr:   domerrors.ErrForbidden,
		},
		{
			name:      "garbage token",
			principal: domain.TokenPrincipal("not-a-secret"),
			action:    ActionProjectRead,
			wantErr:   domerrors.ErrForbidden,
		},
		{
			name:      "anonymous",
			principal: domain.AnonymousPrincipal(),
			action:    ActionProjectRead,
			wantErr:   domerrors.ErrUnauthenticated,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision, err := fx.engine.Authorize(ctx, tc.principal, tc.action, fx.project.ID.UUID)
			if err != nil {
				t.Fatalf("Authorize: %v", err)
			}
			if decision.Allow != tc.wantAllow {
				t.Fatalf("Allow = %v, want %v", decision.Allow, tc.wantAllow)
			}
			if tc.wantAllow && decision.Role != tc.wantRole {
				t.Fatalf("Role = %q, want %q", decision.Role, tc.wantRole)
			}
			if !tc.wantAllow && !errors.Is(decision.Reason, tc.wantErr) {
				t.Fatalf("Reason = %v, want %v", decision.Reason, tc.wantErr)
			}
		})
	}
}

func TestAuthorizeTokenBinding(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	// Token bound to a different project must not open this one.
	otherProject := &domain.Project{
		ID:             domain.NewProjectID(uuid.New()),
		OwnerID:        domain.NewUserID(uuid.New()),
		ApprovalStatus: domain.ApprovalPending,
	}
	fx.projects.byID[otherProject.ID] = otherProject
	secret, _, err := fx.tokens.Issue(ctx, domain.TokenProjectReviewLink, otherProject.ID.UUID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	decision, err := fx.engine.Authorize(ctx, domain.TokenPrincipal(secret), ActionProjectRead, fx.project.ID.UUID)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if decision.Allow {
		t.Fatal("token for another project granted access")
	}
	if !errors.Is(decision.Reason, domerrors.ErrForbidden) {
		t.Fatalf("Reason = %v, want ErrForbidden", decision.Reason)
	}
}

func TestAuthorizeShareRead(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	secret, err := accesstoken.GenerateSecret()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	fx.project.ShareTokenDigest = accesstoken.DigestSecret(secret)

	decision, err := fx.engine.Authorize(ctx, domain.TokenPrincipal(secret), ActionShareRead, fx.project.ID.UUID)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if !decision.Allow || decision.Role != domain.EffectiveTokenHolder {
		t.Fatalf("share read decision = %+v", decision)
	}

	// Rotating the digest voids the old secret with no grace period.
	fx.project.ShareTokenDigest = accesstoken.DigestSecret("rotated")
	decision, err = fx.engine.Authorize(ctx, domain.TokenPrincipal(secret), ActionShareRead, fx.project.ID.UUID)
	if err != nil {
		t.Fatalf("Authorize after rotate: %v", err)
	}
	if decision.Allow {
		t.Fatal("stale share secret still grants access")
	}
}

func TestAuthorizeFolderToken(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	secret, issued, err := fx.tokens.Issue(ctx, domain.TokenClientFolderAccess, fx.folder.ID.UUID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	decision, err := fx.engine.Authorize(ctx, domain.TokenPrincipal(secret), ActionFolderRead, fx.folder.ID.UUID)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if !decision.Allow {
		t.Fatalf("folder token denied: %v", decision.Reason)
	}
	if decision.Actor != issued.ID.String() {
		t.Fatalf("Actor = %q, want token id %q", decision.Actor, issued.ID)
	}
}

func TestAuthorizeMissingResource(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	_, err := fx.engine.Authorize(ctx, domain.SessionPrincipal(fx.owner, domain.RoleEngineer), ActionProjectRead, uuid.New())
	if !errors.Is(err, domerrors.ErrNotFound) {
		t.Fatalf("Authorize on absent project = %v, want ErrNotFound", err)
	}
}
