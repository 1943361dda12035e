package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT claim set carried by access tokens
type Claims struct {
	ID         int64  `json:"id"`
	Email      string `json:"email,omitempty"`
	Role       string `json:"role"`
	SchoolID   *int64 `json:"schoolId,omitempty"`
	SchoolName string `json:"schoolName,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates access tokens against the shared signing secret
type Verifier struct {
	secret []byte
}

// NewVerifier creates a token verifier
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Authenticate verifies a raw token string and returns the Principal.
// An empty token yields ErrNoToken; any verification failure yields
// ErrInvalidToken.
func (v *Verifier) Authenticate(token string) (*Principal, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	return &Principal{
		ID:         claims.ID,
		Email:      claims.Email,
		Role:       Role(claims.Role),
		SchoolID:   claims.SchoolID,
		SchoolName: claims.SchoolName,
	}, nil
}

// ExtractBearer pulls the token out of an Authorization header value.
// Returns "" when the header is absent or not a Bearer credential.
func ExtractBearer(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Issuer mints access tokens for the login endpoint
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer creates a token issuer with the given token lifetime
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// Issue signs an access token for the principal
func (i *Issuer) Issue(p *Principal) (string, error) {
	now := time.Now()
	claims := &Claims{
		ID:         p.ID,
		Email:      p.Email,
		Role:       string(p.Role),
		SchoolID:   p.SchoolID,
		SchoolName: p.SchoolName,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
