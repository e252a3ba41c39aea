package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid session token")

// ExternalIdentity is what the provider asserts about a signed-in user.
type ExternalIdentity struct {
	Subject   string
	FirstName string
	LastName  string
	Username  string
	Email     string
	ImageURL  string
}

// DisplayName joins the provider's first and last name.
func (e ExternalIdentity) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(e.FirstName) + " " + strings.TrimSpace(e.LastName))
}

// Claims is the provider's session token payload.
type Claims struct {
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
	Username   string `json:"username,omitempty"`
	Email      string `json:"email,omitempty"`
	Picture    string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates HMAC-signed provider session tokens.
type Verifier struct {
	secret   []byte
	issuer   string
	audience string
	leeway   time.Duration
}

// NewVerifier returns a Verifier. An empty audience disables the audience check.
func NewVerifier(secret, issuer, audience string) *Verifier {
	return &Verifier{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		leeway:   30 * time.Second,
	}
}

// Verify parses tokenString and returns the identity it asserts.
func (v *Verifier) Verify(tokenString string) (*ExternalIdentity, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &ExternalIdentity{
		Subject:   claims.Subject,
		FirstName: claims.GivenName,
		LastName:  claims.FamilyName,
		Username:  claims.Username,
		Email:     claims.Email,
		ImageURL:  claims.Picture,
	}, nil
}

// Sign issues a token for ext. Used by the seed tool and tests to stand in for the provider.
func (v *Verifier) Sign(ext ExternalIdentity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		GivenName:  ext.FirstName,
		FamilyName: ext.LastName,
		Username:   ext.Username,
		Email:      ext.Email,
		Picture:    ext.ImageURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ext.Subject,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if v.audience != "" {
		claims.Audience = jwt.ClaimStrings{v.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
