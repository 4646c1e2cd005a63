package token

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	acctentity "github.com/MyraLuetke/CISC498-Backend/internal/account/entity"
	"github.com/MyraLuetke/CISC498-Backend/internal/apperr"
	"github.com/MyraLuetke/CISC498-Backend/internal/token/entity"
	"github.com/MyraLuetke/CISC498-Backend/pkg/utilities"
)

const accessTokenType = "access"

// Identities authenticates callers. The account service satisfies it.
type Identities interface {
	Authenticate(ctx context.Context, email, password string) (*acctentity.Identity, error)
	ActiveIdentity(ctx context.Context, id int64) (*acctentity.Identity, error)
}

// Sessions persists refresh sessions.
type Sessions interface {
	Save(ctx context.Context, s *entity.RefreshSession) error
	Take(ctx context.Context, tokenHash string) (*entity.RefreshSession, error)
}

// Config controls token signing and lifetimes.
type Config struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Claims are the access token claims. IdentityID and IsCustomer let
// handlers authorise without a database round trip.
type Claims struct {
	IdentityID int64  `json:"identity_id"`
	IsCustomer bool   `json:"is_customer"`
	TokenType  string `json:"token_type"`
	jwt.RegisteredClaims
}

// Role returns the caller's role.
func (c *Claims) Role() acctentity.Role { return acctentity.RoleFromFlag(c.IsCustomer) }

// Pair is the body returned by the token endpoints.
type Pair struct {
	Access     string `json:"access"`
	Refresh    string `json:"refresh"`
	IdentityID int64  `json:"identity_id"`
	IsCustomer bool   `json:"is_customer"`
}

// Service issues and verifies tokens.
type Service struct {
	identities Identities
	sessions   Sessions
	cfg        Config
	logger     *zap.SugaredLogger
	now        func() time.Time
}

func NewService(identities Identities, sessions Sessions, cfg Config, logger *zap.SugaredLogger) (*Service, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token: signing secret is empty")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token: TTLs must be positive")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{identities: identities, sessions: sessions, cfg: cfg, logger: logger, now: time.Now}, nil
}

// Login exchanges credentials for a token pair. Any credential failure is
// reported as ErrUnauthorized.
func (s *Service) Login(ctx context.Context, email, password string) (*Pair, error) {
	ident, err := s.identities.Authenticate(ctx, email, password)
	if errors.Is(err, apperr.ErrAuthentication) {
		return nil, apperr.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, ident)
}

// Refresh redeems a refresh token for a new pair. The presented token is
// consumed whether or not the exchange succeeds.
func (s *Service) Refresh(ctx context.Context, refresh string) (*Pair, error) {
	if refresh == "" {
		return nil, apperr.ErrUnauthorized
	}
	session, err := s.sessions.Take(ctx, hashToken(refresh))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("load refresh session: %w", err)
	}
	if session.Expired(s.now()) {
		return nil, apperr.ErrUnauthorized
	}
	ident, err := s.identities.ActiveIdentity(ctx, session.IdentityID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, ident)
}

// Parse verifies an access token and returns its claims.
func (s *Service) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !tok.Valid {
		return nil, apperr.ErrUnauthorized
	}
	if claims.TokenType != accessTokenType || claims.IdentityID <= 0 {
		return nil, apperr.ErrUnauthorized
	}
	return claims, nil
}

func (s *Service) issue(ctx context.Context, ident *acctentity.Identity) (*Pair, error) {
	now := s.now()
	claims := Claims{
		IdentityID: ident.ID,
		IsCustomer: ident.IsCustomer,
		TokenType:  accessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   strconv.FormatInt(ident.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTTL)),
			ID:        uuid.NewString(),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	rtBytes := make([]byte, 32)
	if _, err := rand.Read(rtBytes); err != nil {
		return nil, err
	}
	refresh := base64.RawURLEncoding.EncodeToString(rtBytes)
	session := &entity.RefreshSession{
		ID:         utilities.NewKSUID(),
		TokenHash:  hashToken(refresh),
		IdentityID: ident.ID,
		ExpiresAt:  now.Add(s.cfg.RefreshTTL),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save refresh session: %w", err)
	}
	s.logger.Debugw("tokens issued", "identity_id", ident.ID, "session_id", session.ID)

	return &Pair{Access: access, Refresh: refresh, IdentityID: ident.ID, IsCustomer: ident.IsCustomer}, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
