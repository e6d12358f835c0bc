package authn

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockIdentityClient struct {
	m            sync.Mutex
	account      *Account
	err          error
	signUpCalls  int
	verifyCalls  int
	lookupCalls  int
	lastSignUp   string
	lastPassword string
}

func (m *mockIdentityClient) SignIn(context.Context, string, string) (*Account, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.account, nil
}

func (m *mockIdentityClient) SignUp(_ context.Context, email, password string) (*Account, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.signUpCalls++
	m.lastSignUp = email
	m.lastPassword = password
	if m.err != nil {
		return nil, m.err
	}
	return m.account, nil
}

func (m *mockIdentityClient) SignInWithIDP(context.Context, string, string, string) (*Account, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.account, nil
}

func (m *mockIdentityClient) SendVerificationEmail(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.verifyCalls++
	return nil
}

func (m *mockIdentityClient) Lookup(context.Context, string) (*Account, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.lookupCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.account, nil
}

type mockTokenStore struct {
	m      sync.Mutex
	tokens map[string]string
}

func newMockTokenStore() *mockTokenStore {
	return &mockTokenStore{tokens: map[string]string{}}
}

func (m *mockTokenStore) Set(_ context.Context, email, idToken string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.tokens[email] = idToken
	return nil
}

func (m *mockTokenStore) Get(_ context.Context, email string) (string, error) {
	m.m.Lock()
	defer m.m.Unlock()
	t, ok := m.tokens[email]
	if !ok {
		return "", ErrNoSession
	}
	return t, nil
}

func (m *mockTokenStore) Delete(_ context.Context, email string) error {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.tokens, email)
	return nil
}

func newTestService(client IdentityClient, tokens TokenStore) *Service {
	return NewService(client, tokens, "test-secret", time.Hour, "admin@gmail.com", zerolog.Nop())
}

func TestRegister_RejectsNonGmailBeforeProviderCall(t *testing.T) {
	client := &mockIdentityClient{}
	sut := newTestService(client, newMockTokenStore())

	err := sut.Register(context.Background(), "someone@yahoo.com", "secret123")
	require.ErrorIs(t, err, ErrRegistrationRejected)
	assert.Equal(t, 0, client.signUpCalls, "provider must not be called for rejected domains")
}

func TestRegister_CreatesAccountAndSendsVerification(t *testing.T) {
	client := &mockIdentityClient{
		account: &Account{UID: "u1", Email: "someone@gmail.com", IDToken: "tok"},
	}
	sut := newTestService(client, newMockTokenStore())

	err := sut.Register(context.Background(), "Someone@Gmail.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, 1, client.signUpCalls)
	assert.Equal(t, "someone@gmail.com", client.lastSignUp)
	assert.Equal(t, 1, client.verifyCalls)
}

func TestLogin_UnverifiedEmail(t *testing.T) {
	client := &mockIdentityClient{
		account: &Account{UID: "u1", Email: "someone@gmail.com", EmailVerified: false, IDToken: "tok"},
	}
	tokens := newMockTokenStore()
	sut := newTestService(client, tokens)

	_, sess, err := sut.Login(context.Background(), "someone@gmail.com", "secret123")
	require.ErrorIs(t, err, ErrUnverifiedEmail)
	assert.Nil(t, sess)

	// Token kept so the user can ask for a verification resend.
	stored, err := tokens.Get(context.Background(), "someone@gmail.com")
	require.NoError(t, err)
	assert.Equal(t, "tok", stored)
}

func TestLogin_WrongCredentials(t *testing.T) {
	client := &mockIdentityClient{err: ErrInvalidCredentials}
	sut := newTestService(client, newMockTokenStore())

	_, _, err := sut.Login(context.Background(), "someone@gmail.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_MintsParseableSession(t *testing.T) {
	client := &mockIdentityClient{
		account: &Account{UID: "u1", Email: "someone@gmail.com", EmailVerified: true, IDToken: "tok"},
	}
	sut := newTestService(client, newMockTokenStore())

	token, sess, err := sut.Login(context.Background(), "someone@gmail.com", "secret123")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "u1", sess.UID)
	assert.False(t, sess.IsAdmin)

	parsed, err := sut.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", parsed.UID)
	assert.Equal(t, "someone@gmail.com", parsed.Email)
	assert.True(t, parsed.EmailVerified)
}

func TestLogin_AdminFlagDerivedFromConfig(t *testing.T) {
	client := &mockIdentityClient{
		account: &Account{UID: "a1", Email: "Admin@gmail.com", EmailVerified: true, IDToken: "tok"},
	}
	sut := newTestService(client, newMockTokenStore())

	token, sess, err := sut.Login(context.Background(), "Admin@gmail.com", "secret123")
	require.NoError(t, err)
	assert.True(t, sess.IsAdmin)

	parsed, err := sut.ParseToken(token)
	require.NoError(t, err)
	assert.True(t, parsed.IsAdmin)
}

func TestRefresh_PicksUpVerifiedFlag(t *testing.T) {
	client := &mockIdentityClient{
		account: &Account{UID: "u1", Email: "someone@gmail.com", EmailVerified: true},
	}
	tokens := newMockTokenStore()
	require.NoError(t, tokens.Set(context.Background(), "someone@gmail.com", "tok"))
	sut := newTestService(client, tokens)

	token, sess, err := sut.Refresh(context.Background(), "Someone@Gmail.com")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, sess.EmailVerified)
	assert.Equal(t, 1, client.lookupCalls)
}

func TestRefresh_NoStoredToken(t *testing.T) {
	sut := newTestService(&mockIdentityClient{}, newMockTokenStore())

	_, _, err := sut.Refresh(context.Background(), "someone@gmail.com")
	require.ErrorIs(t, err, ErrNoSession)
}

func TestParseToken_Garbage(t *testing.T) {
	sut := newTestService(&mockIdentityClient{}, newMockTokenStore())

	_, err := sut.ParseToken("not-a-token")
	require.ErrorIs(t, err, ErrNoSession)
}

func TestParseToken_WrongSecret(t *testing.T) {
	client := &mockIdentityClient{
		account: &Account{UID: "u1", Email: "someone@gmail.com", EmailVerified: true, IDToken: "tok"},
	}
	minter := newTestService(client, newMockTokenStore())
	token, _, err := minter.Login(context.Background(), "someone@gmail.com", "secret123")
	require.NoError(t, err)

	other := NewService(client, newMockTokenStore(), "other-secret", time.Hour, "admin@gmail.com", zerolog.Nop())
	_, errParse := other.ParseToken(token)
	require.ErrorIs(t, errParse, ErrNoSession)
}

func TestLogout_RemovesStoredToken(t *testing.T) {
	tokens := newMockTokenStore()
	require.NoError(t, tokens.Set(context.Background(), "someone@gmail.com", "tok"))
	sut := newTestService(&mockIdentityClient{}, tokens)

	sut.Logout(context.Background(), "Someone@Gmail.com")
	_, err := tokens.Get(context.Background(), "someone@gmail.com")
	require.ErrorIs(t, err, ErrNoSession)
}

func TestResendVerification_WorksWithoutSession(t *testing.T) {
	client := &mockIdentityClient{
		account: &Account{UID: "u1", Email: "someone@gmail.com", EmailVerified: false, IDToken: "tok"},
	}
	tokens := newMockTokenStore()
	sut := newTestService(client, tokens)

	_, _, err := sut.Login(context.Background(), "someone@gmail.com", "secret123")
	require.ErrorIs(t, err, ErrUnverifiedEmail)

	verifyBefore := client.verifyCalls
	require.NoError(t, sut.ResendVerification(context.Background(), "Someone@Gmail.com"))
	assert.Equal(t, verifyBefore+1, client.verifyCalls)
}

func TestResendVerification_UnknownEmail(t *testing.T) {
	sut := newTestService(&mockIdentityClient{}, newMockTokenStore())

	err := sut.ResendVerification(context.Background(), "nobody@gmail.com")
	require.ErrorIs(t, err, ErrNoSession)
}

func TestRegister_ProviderFailureSurfaced(t *testing.T) {
	client := &mockIdentityClient{err: fmt.Errorf("provider down")}
	sut := newTestService(client, newMockTokenStore())

	err := sut.Register(context.Background(), "someone@gmail.com", "secret123")
	require.ErrorContains(t, err, "provider down")
}
