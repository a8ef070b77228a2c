package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultAccessTTL is the lifetime of tokens minted by Issue.
	DefaultAccessTTL = 30 * time.Minute
	// DefaultRefreshTTL is the lifetime of tokens minted by IssueRefresh.
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

var (
	// ErrTokenInvalid is the single verification failure.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrEmptySubject is returned when issuing a token without a subject.
	ErrEmptySubject = errors.New("token subject cannot be empty")
	// ErrNegativeTTL is returned by IssueWithTTL for ttl < 0.
	ErrNegativeTTL = errors.New("token ttl cannot be negative")
)

// Config holds Manager settings. Zero TTLs fall back to the defaults.
type Config struct {
	Secret     Secret
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	Leeway     time.Duration
	Now        func() time.Time
}

// Manager signs and verifies tokens. It is immutable after NewManager and
// safe for concurrent use.
type Manager struct {
	config Config
	parser *jwt.Parser
}

// Claims is the verified content of a token.
type Claims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Secret.IsZero() {
		return nil, errors.New("signing secret required")
	}
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.AccessTTL < 0 || cfg.RefreshTTL < 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(cfg.Now),
	}
	if cfg.Leeway > 0 {
		options = append(options, jwt.WithLeeway(cfg.Leeway))
	}
	if cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(cfg.Issuer))
	}

	return &Manager{config: cfg, parser: jwt.NewParser(options...)}, nil
}

// AccessTTL returns the lifetime applied by Issue.
func (m *Manager) AccessTTL() time.Duration {
	return m.config.AccessTTL
}

// Issue mints an access token for subject.
func (m *Manager) Issue(subject, email string) (string, error) {
	return m.IssueWithTTL(subject, email, m.config.AccessTTL)
}

// IssueRefresh mints a refresh token. It has the same shape as an access
// token and differs only in lifetime, so Verify accepts it anywhere an
// access token is accepted.
func (m *Manager) IssueRefresh(subject, email string) (string, error) {
	return m.IssueWithTTL(subject, email, m.config.RefreshTTL)
}

// IssueWithTTL mints a token expiring ttl from now. A zero ttl yields a token
// that is already expired.
func (m *Manager) IssueWithTTL(subject, email string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", ErrEmptySubject
	}
	if ttl < 0 {
		return "", ErrNegativeTTL
	}

	now := m.config.Now()
	claims := tokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret.key)
}

// Verify checks signature and expiry and returns the token's claims. Every
// failure is ErrTokenInvalid.
func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	token, err := m.parser.ParseWithClaims(tokenStr, &tokenClaims{}, func(*jwt.Token) (interface{}, error) {
		return m.config.Secret.key, nil
	})
	if err != nil {
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid || claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, ErrTokenInvalid
	}

	out := &Claims{
		Subject:   claims.Subject,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	return out, nil
}
