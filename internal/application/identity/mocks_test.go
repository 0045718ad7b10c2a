package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/identity"
	"github.com/pluvyt/backend/internal/domain/loyalty"
	"github.com/pluvyt/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByLoginOrEmail(ctx context.Context, loginOrEmail string) (*identity.User, error) {
	args := m.Called(ctx, loginOrEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByPersonID(ctx context.Context, tenantID, personID uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, tenantID, personID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) SaveAccess(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByVerificationToken(ctx context.Context, token string) (*identity.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) UpdateVerification(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePerson(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockAccessGroupRepository is a mock implementation of identity.AccessGroupRepository
type MockAccessGroupRepository struct {
	mock.Mock
}

func (m *MockAccessGroupRepository) Create(ctx context.Context, group *identity.AccessGroup) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *MockAccessGroupRepository) Update(ctx context.Context, group *identity.AccessGroup) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *MockAccessGroupRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockAccessGroupRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.AccessGroup, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.AccessGroup), args.Error(1)
}

func (m *MockAccessGroupRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*identity.AccessGroup, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*identity.AccessGroup), args.Error(1)
}

func (m *MockAccessGroupRepository) List(ctx context.Context, tenantID uuid.UUID) ([]*identity.AccessGroup, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]*identity.AccessGroup), args.Error(1)
}

// MockClientRepository is a mock implementation of loyalty.ClientRepository
type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) Create(ctx context.Context, client *loyalty.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*loyalty.Client, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyalty.Client), args.Error(1)
}

func (m *MockClientRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*loyalty.Client, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyalty.Client), args.Error(1)
}

func (m *MockClientRepository) FindByPersonID(ctx context.Context, tenantID, personID uuid.UUID) (*loyalty.Client, error) {
	args := m.Called(ctx, tenantID, personID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyalty.Client), args.Error(1)
}

func (m *MockClientRepository) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*loyalty.Client, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*loyalty.Client), args.Get(1).(int64), args.Error(2)
}

func (m *MockClientRepository) SaveBalance(ctx context.Context, client *loyalty.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

// MockRegistrationScope hands the mock repositories to fn. It counts runs
// and reports whether fn failed, standing in for commit and rollback.
type MockRegistrationScope struct {
	users      *MockUserRepository
	clients    *MockClientRepository
	runs       int
	rolledBack bool
}

func (s *MockRegistrationScope) Execute(ctx context.Context, fn func(repos RegistrationRepositories) error) error {
	s.runs++
	err := fn(s)
	s.rolledBack = err != nil
	return err
}

func (s *MockRegistrationScope) Users() identity.UserRepository {
	return s.users
}

func (s *MockRegistrationScope) Clients() loyalty.ClientRepository {
	return s.clients
}

// MockAnnouncer records announcements
type MockAnnouncer struct {
	mock.Mock
}

func (m *MockAnnouncer) Announce(ctx context.Context, tenantID uuid.UUID, event string, payload any) {
	m.Called(ctx, tenantID, event, payload)
}
