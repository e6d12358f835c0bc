package authn

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Account is the identity provider's view of a user after a successful call.
// IDToken is the provider's own credential and is needed for follow-up calls
// (verification mail, session reload).
type Account struct {
	UID           string
	Email         string
	EmailVerified bool
	IDToken       string
}

// IdentityClient is the external authentication collaborator.
// Consumers define this interface, not the REST implementation.
type IdentityClient interface {
	SignIn(ctx context.Context, email, password string) (*Account, error)
	SignUp(ctx context.Context, email, password string) (*Account, error)
	SignInWithIDP(ctx context.Context, providerID, idToken, requestURI string) (*Account, error)
	SendVerificationEmail(ctx context.Context, idToken string) error
	Lookup(ctx context.Context, idToken string) (*Account, error)
}

type restClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*Account]
}

func NewRESTClient(baseURL, apiKey string) IdentityClient {
	settings := gobreaker.Settings{
		Name:     "identity-provider",
		Interval: time.Minute,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Rejected credentials are an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrInvalidCredentials) ||
				errors.Is(err, ErrEmailExists)
		},
	}
	return &restClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		breaker: gobreaker.NewCircuitBreaker[*Account](settings),
	}
}

type accountResponse struct {
	LocalID       string `json:"localId"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
	IDToken       string `json:"idToken"`
	Users         []struct {
		LocalID       string `json:"localId"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"emailVerified"`
	} `json:"users"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *restClient) SignIn(ctx context.Context, email, password string) (*Account, error) {
	return c.breaker.Execute(func() (*Account, error) {
		return c.post(ctx, "accounts:signInWithPassword", map[string]any{
			"email":             email,
			"password":          password,
			"returnSecureToken": true,
		})
	})
}

func (c *restClient) SignUp(ctx context.Context, email, password string) (*Account, error) {
	return c.breaker.Execute(func() (*Account, error) {
		return c.post(ctx, "accounts:signUp", map[string]any{
			"email":             email,
			"password":          password,
			"returnSecureToken": true,
		})
	})
}

func (c *restClient) SignInWithIDP(ctx context.Context, providerID, idToken, requestURI string) (*Account, error) {
	return c.breaker.Execute(func() (*Account, error) {
		return c.post(ctx, "accounts:signInWithIdp", map[string]any{
			"postBody":            fmt.Sprintf("id_token=%s&providerId=%s", idToken, providerID),
			"requestUri":          requestURI,
			"returnSecureToken":   true,
			"returnIdpCredential": true,
		})
	})
}

func (c *restClient) SendVerificationEmail(ctx context.Context, idToken string) error {
	_, err := c.breaker.Execute(func() (*Account, error) {
		return c.post(ctx, "accounts:sendOobCode", map[string]any{
			"requestType": "VERIFY_EMAIL",
			"idToken":     idToken,
		})
	})
	return err
}

func (c *restClient) Lookup(ctx context.Context, idToken string) (*Account, error) {
	return c.breaker.Execute(func() (*Account, error) {
		return c.post(ctx, "accounts:lookup", map[string]any{
			"idToken": idToken,
		})
	})
}

func (c *restClient) post(ctx context.Context, endpoint string, payload map[string]any) (*Account, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal auth request: %w", err)
	}

	url := fmt.Sprintf("%s/%s?key=%s", c.baseURL, endpoint, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	var decoded accountResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode auth response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, mapProviderError(resp.StatusCode, &decoded)
	}

	acct := &Account{
		UID:           decoded.LocalID,
		Email:         decoded.Email,
		EmailVerified: decoded.EmailVerified,
		IDToken:       decoded.IDToken,
	}
	// accounts:lookup nests the account under users[].
	if acct.UID == "" && len(decoded.Users) > 0 {
		acct.UID = decoded.Users[0].LocalID
		acct.Email = decoded.Users[0].Email
		acct.EmailVerified = decoded.Users[0].EmailVerified
	}
	return acct, nil
}

func mapProviderError(status int, decoded *accountResponse) error {
	msg := ""
	if decoded.Error != nil {
		msg = decoded.Error.Message
	}
	switch {
	case strings.Contains(msg, "EMAIL_EXISTS"):
		return ErrEmailExists
	case strings.Contains(msg, "EMAIL_NOT_FOUND"),
		strings.Contains(msg, "INVALID_PASSWORD"),
		strings.Contains(msg, "INVALID_LOGIN_CREDENTIALS"),
		strings.Contains(msg, "USER_DISABLED"):
		return ErrInvalidCredentials
	case strings.Contains(msg, "INVALID_ID_TOKEN"),
		strings.Contains(msg, "TOKEN_EXPIRED"):
		return ErrNoSession
	}
	return fmt.Errorf("auth provider error (status %d): %s", status, msg)
}
