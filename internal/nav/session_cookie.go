package nav

import (
	"context"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	cookieIssuer    = "moviedb"
	minSecretLength = 16
)

// CookieSessionStore carries the whole state inside an HS256-signed token,
// so the server keeps nothing between requests.
type CookieSessionStore struct {
	secret []byte
	ttl    time.Duration
	leeway time.Duration
}

type navClaims struct {
	Mode    Mode `json:"mode"`
	MovieID int  `json:"mid,omitempty"`
	Detail  bool `json:"det,omitempty"`
	jwt.RegisteredClaims
}

// NewCookieSessionStore requires a secret of at least 16 bytes.
func NewCookieSessionStore(secret string, ttl time.Duration) (*CookieSessionStore, error) {
	secret = strings.TrimSpace(secret)
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("%w: session secret must be at least %d bytes", errSessionStoreConfig, minSecretLength)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CookieSessionStore{secret: []byte(secret), ttl: ttl, leeway: 30 * time.Second}, nil
}

func (s *CookieSessionStore) Load(_ context.Context, token string) (State, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return New(), nil
	}
	claims := navClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cookieIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.leeway),
	)
	if err != nil || !parsed.Valid {
		return New(), nil
	}
	return State{Mode: claims.Mode, MovieID: claims.MovieID, Detail: claims.Detail}.Normalize(), nil
}

func (s *CookieSessionStore) Save(_ context.Context, _ string, st State) (string, error) {
	st = st.Normalize()
	now := time.Now().UTC()
	claims := navClaims{
		Mode:    st.Mode,
		MovieID: st.MovieID,
		Detail:  st.Detail,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cookieIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}
