package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/openkassa/backend-kassa/internal/common"
	"github.com/openkassa/backend-kassa/internal/db"
)

// ErrBadCredentials is returned for an unknown cashier code or a wrong PIN.
// The two cases are indistinguishable on purpose.
var ErrBadCredentials = errors.New("invalid cashier code or pin")

// Cashier roles. Managers may override prices and cancel sales.
const (
	RoleCashier = "cashier"
	RoleManager = "manager"
)

const roleClaim = "role"

type cashierStore interface {
	GetCashierByCode(ctx context.Context, code string) (db.Cashier, error)
	CreateCashier(ctx context.Context, arg db.CreateCashierParams) (db.Cashier, error)
}

// Service issues and validates cashier session tokens. PINs are stored as
// argon2id hashes; tokens are HS256 JWTs carrying the role claim.
type Service struct {
	queries   cashierStore
	secret    []byte
	issuer    string
	audience  string
	accessTTL time.Duration
	clockSkew time.Duration
	signer    jwa.SignatureAlgorithm
	nowFn     func() time.Time
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries   cashierStore
	Secret    string
	Issuer    string
	Audience  string
	AccessTTL time.Duration
	Now       func() time.Time
}

// NewService constructs the auth service.
func NewService(cfg ServiceConfig) *Service {
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "kassa"
	}
	audience := cfg.Audience
	if audience == "" {
		audience = "kassa-register"
	}
	ttl := cfg.AccessTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Service{
		queries:   cfg.Queries,
		secret:    []byte(cfg.Secret),
		issuer:    issuer,
		audience:  audience,
		accessTTL: ttl,
		clockSkew: 30 * time.Second,
		signer:    jwa.HS256,
		nowFn:     cfg.Now,
	}
}

func (s *Service) now() time.Time {
	if s.nowFn != nil {
		return s.nowFn()
	}
	return time.Now()
}

// Session is the result of a successful login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	CashierID string    `json:"cashierId"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
}

// Login verifies the cashier code and PIN and issues a session token.
func (s *Service) Login(ctx context.Context, code, pin string) (Session, error) {
	cashier, err := s.queries.GetCashierByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrBadCredentials
		}
		return Session{}, fmt.Errorf("load cashier: %w", err)
	}
	if !cashier.Active {
		return Session{}, ErrBadCredentials
	}
	ok, err := argon2id.ComparePasswordAndHash(pin, cashier.PinHash)
	if err != nil || !ok {
		return Session{}, ErrBadCredentials
	}
	token, expiresAt, err := s.sign(db.UUIDString(cashier.ID), cashier.Role)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     token,
		ExpiresAt: expiresAt,
		CashierID: db.UUIDString(cashier.ID),
		Name:      cashier.Name,
		Role:      cashier.Role,
	}, nil
}

// Register creates a cashier account with a hashed PIN.
func (s *Service) Register(ctx context.Context, code, name, pin, role string) (db.Cashier, error) {
	switch role {
	case RoleCashier, RoleManager:
	default:
		return db.Cashier{}, fmt.Errorf("unknown role %q", role)
	}
	hash, err := argon2id.CreateHash(pin, argon2id.DefaultParams)
	if err != nil {
		return db.Cashier{}, fmt.Errorf("hash pin: %w", err)
	}
	return s.queries.CreateCashier(ctx, db.CreateCashierParams{
		Code:    strings.TrimSpace(code),
		Name:    name,
		PinHash: hash,
		Role:    role,
	})
}

func (s *Service) sign(cashierID, role string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	token, err := jwt.NewBuilder().
		Subject(cashierID).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(expiresAt).
		Claim(roleClaim, role).
		Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

// ParseToken validates a session token and returns the cashier id and role.
func (s *Service) ParseToken(raw string) (string, string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", "", common.NewAppError("UNAUTHORIZED", "missing token", http.StatusUnauthorized, nil)
	}
	algorithm, err := tokenAlgorithm(trimmed)
	if err != nil {
		return "", "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if algorithm != s.signer {
		return "", "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed,
		jwt.WithKey(algorithm, s.secret),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithClock(jwt.ClockFunc(s.now)),
		jwt.WithAcceptableSkew(s.clockSkew),
	)
	if err != nil {
		return "", "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	role := RoleCashier
	if raw, ok := parsed.Get(roleClaim); ok {
		if v, ok := raw.(string); ok && v != "" {
			role = v
		}
	}
	return parsed.Subject(), role, nil
}

// tokenAlgorithm inspects the protected headers before parsing so tokens
// signed with an unexpected (or no) algorithm never reach verification.
func tokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		if alg == "" {
			return "", errors.New("auth: token missing algorithm")
		}
		if alg == jwa.NoSignature {
			return "", errors.New("auth: token uses none algorithm")
		}
		if algorithm == "" {
			algorithm = alg
		} else if algorithm != alg {
			return "", errors.New("auth: mixed token algorithms detected")
		}
	}
	return algorithm, nil
}
