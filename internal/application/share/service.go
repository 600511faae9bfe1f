package share

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bryanwahyu/medscanx/internal/application"
	domain "github.com/bryanwahyu/medscanx/internal/domain/reports"
)

// DefaultTTL is how long a share link stays redeemable.
const DefaultTTL = 72 * time.Hour

// ErrTokenInvalid covers expired, malformed and wrong-signature tokens with
// one indistinguishable outcome, so redemption cannot be used as an oracle
// against the signing secret.
var ErrTokenInvalid = errors.New("share token expired or invalid")

// Claims carried by a share token. The token is a bearer capability:
// redemption checks only signature and expiry, never ownership.
type Claims struct {
	ReportID string `json:"report_id"`
	jwt.RegisteredClaims
}

// Service issues and redeems signed, time-bound share tokens.
type Service struct {
	Repo   domain.Repository
	Secret []byte
	TTL    time.Duration
	Clock  application.Clock
}

func NewService(repo domain.Repository, secret []byte, ttl time.Duration, clock application.Clock) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{Repo: repo, Secret: secret, TTL: ttl, Clock: clock}
}

// Issue signs a token for one report. Ownership is re-checked here, not
// just at report creation: only the current owner may mint a capability.
func (s *Service) Issue(ctx context.Context, owner string, id domain.ReportID) (token string, expiresAt time.Time, err error) {
	if _, err = s.Repo.Get(ctx, owner, id); err != nil {
		return "", time.Time{}, err
	}

	now := s.Clock.Now()
	expiresAt = now.Add(s.TTL)
	claims := Claims{
		ReportID: string(id),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing share token: %w", err)
	}
	return token, expiresAt, nil
}

// Redeem verifies signature and expiry and returns the report id the token
// grants access to. Every verification failure maps to ErrTokenInvalid.
func (s *Service) Redeem(token string) (domain.ReportID, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.Secret, nil
	}, jwt.WithTimeFunc(s.Clock.Now))
	if err != nil || !parsed.Valid {
		return "", ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.ReportID == "" {
		return "", ErrTokenInvalid
	}
	return domain.ReportID(claims.ReportID), nil
}
