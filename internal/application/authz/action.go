package authz

import "github.com/trackroom/trackroom/internal/domain"

// Action is a named operation against a resource. The action determines
// which token kind a bearer principal must present.
type Action string

const (
	ActionProjectRead    Action = "project.read"
	ActionProjectWrite   Action = "project.write"
	ActionProjectApprove Action = "project.approve"
	ActionShareRead      Action = "share.read"
	ActionFolderRead     Action = "folder.read"
	ActionFileUpload     Action = "file.upload"
	ActionFileRename     Action = "file.rename"
	ActionFileDelete     Action = "file.delete"
)

// targetsProject reports whether the action addresses a project (as opposed
// to a client folder).
func (a Action) targetsProject() bool {
	switch a {
	case ActionProjectRead, ActionProjectWrite, ActionProjectApprove, ActionShareRead:
		return true
	}
	return false
}

// tokenKind returns the token kind a bearer must hold for this action.
// Share reads have no stored token kind: the share secret is matched
// against the digest on the project row itself.
func (a Action) tokenKind() (domain.TokenKind, bool) {
	switch a {
	case ActionProjectRead, ActionProjectApprove:
		return domain.TokenProjectReviewLink, true
	case ActionFolderRead, ActionFileUpload, ActionFileRename, ActionFileDelete:
		return domain.TokenClientFolderAccess, true
	}
	return "", false
}
