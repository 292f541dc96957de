package domain

// PrincipalKind discriminates who (if anyone) is making a request.
type PrincipalKind string

const (
	PrincipalSession     PrincipalKind = "session"
	PrincipalTokenHolder PrincipalKind = "token_holder"
	PrincipalAnonymous   PrincipalKind = "anonymous"
)

// Principal is the caller of an operation: an authenticated session, an
// anonymous party presenting a bearer secret, or nobody at all. A token
// holder has no stable identity beyond what its token resolves to.
type Principal struct {
	Kind PrincipalKind

	// Session fields.
	UserID UserID
	Role   Role

	// Token-holder field: the raw bearer secret as carried by the caller.
	// It is matched against stored digests and never persisted or logged.
	BearerSecret string
}

// SessionPrincipal returns a principal for an authenticated session.
func SessionPrincipal(userID UserID, role Role) Principal {
	return Principal{Kind: PrincipalSession, UserID: userID, Role: role}
}

// TokenPrincipal returns a principal for an anonymous bearer of secret.
func TokenPrincipal(secret string) Principal {
	return Principal{Kind: PrincipalTokenHolder, BearerSecret: secret}
}

// AnonymousPrincipal returns the empty principal.
func AnonymousPrincipal() Principal {
	return Principal{Kind: PrincipalAnonymous}
}

// IsSession reports whether the principal is an authenticated session.
func (p Principal) IsSession() bool { return p.Kind == PrincipalSession }

// IsTokenHolder reports whether the principal carries a bearer secret.
func (p Principal) IsTokenHolder() bool { return p.Kind == PrincipalTokenHolder }

// EffectiveRole is the capability a granted authorization decision runs with.
type EffectiveRole string

const (
	EffectiveAdmin       EffectiveRole = "admin"
	EffectiveOwner       EffectiveRole = "owner"
	EffectiveTokenHolder EffectiveRole = "token_holder"
)
