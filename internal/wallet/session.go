package wallet

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
)

// ErrMissingToken is returned when a session carries no bearer token.
var ErrMissingToken = errors.New("wallet: missing access token")

// Session is the caller identity used for every wallet request. It is built
// once per request and passed explicitly.
type Session struct {
	Token      string
	UserID     string
	BusinessID string // empty for the personal wallet
}

// Validate checks that the session can authenticate.
func (s Session) Validate() error {
	if strings.TrimSpace(s.Token) == "" {
		return ErrMissingToken
	}
	return nil
}

// BusinessScoped reports whether requests target a business wallet.
func (s Session) BusinessScoped() bool {
	return strings.TrimSpace(s.BusinessID) != ""
}

// Key identifies the session for caches without exposing the token.
func (s Session) Key() string {
	return s.UserID + "|" + s.BusinessID + "|" + tokenDigest(s.Token)
}

// SessionFromRequest reads the session from the Authorization, X-User-ID and
// X-Business-ID headers.
func SessionFromRequest(r *http.Request) Session {
	token := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	} else {
		token = ""
	}
	return Session{
		Token:      token,
		UserID:     strings.TrimSpace(r.Header.Get("X-User-ID")),
		BusinessID: strings.TrimSpace(r.Header.Get("X-Business-ID")),
	}
}

// Owner is the archive owner of reports built with this session. Business
// reports belong to the business, whose access the wallet API checks on
// every call. Personal reports belong to the token that produced them since
// the user id header is not authenticated.
func (s Session) Owner() string {
	if s.BusinessScoped() {
		return "business:" + strings.TrimSpace(s.BusinessID)
	}
	sum := sha256.Sum256([]byte(s.Token))
	return "user:" + hex.EncodeToString(sum[:])
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}
