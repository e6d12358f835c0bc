package authn

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/BITS4/babyshop/internal/domain"
)

const allowedDomain = "gmail.com"

type Service struct {
	client     IdentityClient
	tokens     TokenStore
	jwtSecret  []byte
	sessionTTL time.Duration
	adminEmail string
	log        zerolog.Logger
}

func NewService(client IdentityClient, tokens TokenStore, jwtSecret string, sessionTTL time.Duration, adminEmail string, log zerolog.Logger) *Service {
	return &Service{
		client:     client,
		tokens:     tokens,
		jwtSecret:  []byte(jwtSecret),
		sessionTTL: sessionTTL,
		adminEmail: strings.ToLower(adminEmail),
		log:        log.With().Str("component", "authn").Logger(),
	}
}

// Register creates the account with the identity provider and dispatches a
// verification mail through it. The domain policy is checked before any
// provider call is made.
func (s *Service) Register(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if !strings.HasSuffix(email, "@"+allowedDomain) {
		return ErrRegistrationRejected
	}

	acct, err := s.client.SignUp(ctx, email, password)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	// Best effort; the user can log in later and ask for a resend.
	if err := s.client.SendVerificationEmail(ctx, acct.IDToken); err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("verification mail dispatch failed")
	}
	return nil
}

// Login delegates credential checking to the provider. A correct password on
// an unverified account is still a failed login; the provider token is kept
// so the caller can trigger a verification resend.
func (s *Service) Login(ctx context.Context, email, password string) (string, *domain.Session, error) {
	acct, err := s.client.SignIn(ctx, email, password)
	if err != nil {
		return "", nil, err
	}

	if errStore := s.tokens.Set(ctx, strings.ToLower(acct.Email), acct.IDToken); errStore != nil {
		s.log.Warn().Err(errStore).Msg("provider token not stored")
	}

	if !acct.EmailVerified {
		return "", nil, ErrUnverifiedEmail
	}

	return s.mintSession(acct)
}

func (s *Service) FederatedLogin(ctx context.Context, providerID, idToken, requestURI string) (string, *domain.Session, error) {
	acct, err := s.client.SignInWithIDP(ctx, providerID, idToken, requestURI)
	if err != nil {
		return "", nil, err
	}

	if errStore := s.tokens.Set(ctx, strings.ToLower(acct.Email), acct.IDToken); errStore != nil {
		s.log.Warn().Err(errStore).Msg("provider token not stored")
	}

	// Federated identities arrive verified by their provider.
	return s.mintSession(acct)
}

// Refresh reloads the provider's view of the account, picking up a freshly
// confirmed email, and mints a new session token.
func (s *Service) Refresh(ctx context.Context, email string) (string, *domain.Session, error) {
	idToken, err := s.tokens.Get(ctx, strings.ToLower(email))
	if err != nil {
		return "", nil, err
	}

	acct, err := s.client.Lookup(ctx, idToken)
	if err != nil {
		return "", nil, fmt.Errorf("reload session: %w", err)
	}
	acct.IDToken = idToken

	if !acct.EmailVerified {
		return "", nil, ErrUnverifiedEmail
	}
	return s.mintSession(acct)
}

// ResendVerification re-dispatches the confirmation mail for an account
// that has signed in but is not yet verified. It needs no session: an
// unverified login cannot have one, but its provider token was kept.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	idToken, err := s.tokens.Get(ctx, strings.ToLower(email))
	if err != nil {
		return err
	}
	return s.client.SendVerificationEmail(ctx, idToken)
}

func (s *Service) Logout(ctx context.Context, email string) {
	if err := s.tokens.Delete(ctx, strings.ToLower(email)); err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("provider token not removed")
	}
}

func (s *Service) mintSession(acct *Account) (string, *domain.Session, error) {
	claims := jwt.MapClaims{
		"sub":      acct.UID,
		"email":    acct.Email,
		"verified": acct.EmailVerified,
		"typ":      "session",
		"exp":      time.Now().Add(s.sessionTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}
	return token, s.sessionFromAccount(acct), nil
}

func (s *Service) sessionFromAccount(acct *Account) *domain.Session {
	return &domain.Session{
		UID:           acct.UID,
		Email:         acct.Email,
		EmailVerified: acct.EmailVerified,
		IsAdmin:       strings.ToLower(acct.Email) == s.adminEmail,
	}
}

// ParseToken validates a session token and rebuilds the session from its
// claims. The admin flag is derived here, never trusted from the wire.
func (s *Service) ParseToken(tokenString string) (*domain.Session, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	if claims["typ"] != "session" {
		return nil, ErrNoSession
	}

	uid, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	verified, _ := claims["verified"].(bool)
	if uid == "" {
		return nil, ErrNoSession
	}

	return &domain.Session{
		UID:           uid,
		Email:         email,
		EmailVerified: verified,
		IsAdmin:       strings.ToLower(email) == s.adminEmail,
	}, nil
}
