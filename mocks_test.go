package espacemembre_test

import (
	"context"
	"net/http"
	"sync"

	espacemembre "github.com/goliatone/go-auth-espace-membre"
	"github.com/goliatone/go-auth-espace-membre/client"
	"github.com/stretchr/testify/mock"
)

// MockEmailProvider implements espacemembre.EmailProvider
type MockEmailProvider struct {
	mock.Mock
	id string
}

func (m *MockEmailProvider) ID() string {
	return m.id
}

func (m *MockEmailProvider) Type() string {
	return "email"
}

func (m *MockEmailProvider) SendVerificationRequest(ctx context.Context, params espacemembre.VerificationRequestParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockEmailProvider) NormalizeIdentifier(identifier string) (string, error) {
	args := m.Called(identifier)
	return args.String(0), args.Error(1)
}

// MockAdapter implements espacemembre.Adapter
type MockAdapter struct {
	mock.Mock
}

func (m *MockAdapter) CreateUser(ctx context.Context, user espacemembre.AdapterUser) (*espacemembre.AdapterUser, error) {
	args := m.Called(ctx, user)
	if u, ok := args.Get(0).(*espacemembre.AdapterUser); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAdapter) GetUserByEmail(ctx context.Context, email string) (*espacemembre.AdapterUser, error) {
	args := m.Called(ctx, email)
	if u, ok := args.Get(0).(*espacemembre.AdapterUser); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockFullAdapter also implements the optional capabilities.
type MockFullAdapter struct {
	MockAdapter
}

func (m *MockFullAdapter) GetUser(ctx context.Context, id string) (*espacemembre.AdapterUser, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*espacemembre.AdapterUser); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

// fakeLookup resolves members from a map and answers 404 otherwise.
type fakeLookup struct {
	mu      sync.Mutex
	members map[string]client.Member
	err     error
	calls   []string
}

func (f *fakeLookup) GetByUsername(_ context.Context, username string) (*client.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, username)

	if f.err != nil {
		return nil, f.err
	}
	if username == "" {
		return nil, client.NewConfigError("a username is required to fetch a member")
	}
	member, ok := f.members[username]
	if !ok {
		return nil, &client.MemberNotFoundError{
			Username:     username,
			RequestError: &client.RequestError{StatusCode: http.StatusNotFound},
		}
	}
	return &member, nil
}

func (f *fakeLookup) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func strPtr(s string) *string {
	return &s
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		members: map[string]client.Member{
			"alice": {
				Username:           "alice",
				Fullname:           "Alice Martin",
				CommunicationEmail: "secondary",
				PrimaryEmail:       "alice.martin@beta.gouv.fr",
				SecondaryEmail:     "alice@example.org",
				Avatar:             strPtr("https://example.org/alice.png"),
				IsActive:           true,
			},
			"bob": {
				Username:           "bob",
				Fullname:           "Bob Leroy",
				CommunicationEmail: "primary",
				PrimaryEmail:       "bob.leroy@beta.gouv.fr",
				SecondaryEmail:     "bob@example.org",
				IsActive:           true,
			},
			"carol": {
				Username:           "carol",
				Fullname:           "Carol Petit",
				CommunicationEmail: "primary",
				PrimaryEmail:       "carol.petit@beta.gouv.fr",
				IsActive:           false,
			},
		},
	}
}
