package ports

// PasswordHasher hashes and verifies passwords (Argon2id).
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// SessionIssuer signs and validates session JWTs (RS256). Session internals
// belong to the login system; this core only needs to turn a session string
// back into (user id, role).
type SessionIssuer interface {
	IssueSession(userID string, role string, expiresInSeconds int64) (string, error)
	ValidateSession(tokenString string) (userID, role string, err error)
}
