package mocks

import (
	"context"

	"github.com/denchenko/gmm/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// MockRosterStore is a mock implementation of app.RosterStore.
type MockRosterStore struct {
	mock.Mock
}

// UpsertMembers mocks the UpsertMembers method.
func (m *MockRosterStore) UpsertMembers(ctx context.Context, records []domain.LocalMemberUpsert) error {
	args := m.Called(ctx, records)

	return args.Error(0)
}

// ListMembers mocks the ListMembers method.
func (m *MockRosterStore) ListMembers(
	ctx context.Context,
	query string,
	page, perPage int,
) (*domain.Page[domain.LocalMember], error) {
	args := m.Called(ctx, query, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Page[domain.LocalMember]), args.Error(1)
}

// DeleteMembers mocks the DeleteMembers method.
func (m *MockRosterStore) DeleteMembers(ctx context.Context, userIDs []int) error {
	args := m.Called(ctx, userIDs)

	return args.Error(0)
}

// CreateGroup mocks the CreateGroup method.
func (m *MockRosterStore) CreateGroup(ctx context.Context, name string) (*domain.LocalGroup, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.LocalGroup), args.Error(1)
}

// UpdateGroup mocks the UpdateGroup method.
func (m *MockRosterStore) UpdateGroup(ctx context.Context, id int64, name string) error {
	args := m.Called(ctx, id, name)

	return args.Error(0)
}

// DeleteGroup mocks the DeleteGroup method.
func (m *MockRosterStore) DeleteGroup(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

// ListGroups mocks the ListGroups method.
func (m *MockRosterStore) ListGroups(ctx context.Context) ([]domain.LocalGroup, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.LocalGroup), args.Error(1)
}

// AddMembersToGroup mocks the AddMembersToGroup method.
func (m *MockRosterStore) AddMembersToGroup(ctx context.Context, groupID int64, userIDs []int) error {
	args := m.Called(ctx, groupID, userIDs)

	return args.Error(0)
}

// RemoveMembersFromGroup mocks the RemoveMembersFromGroup method.
func (m *MockRosterStore) RemoveMembersFromGroup(ctx context.Context, groupID int64, userIDs []int) error {
	args := m.Called(ctx, groupID, userIDs)

	return args.Error(0)
}

// ListGroupMembers mocks the ListGroupMembers method.
func (m *MockRosterStore) ListGroupMembers(ctx context.Context, groupID int64) ([]domain.LocalMember, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.LocalMember), args.Error(1)
}

// GetProfile mocks the GetProfile method.
func (m *MockRosterStore) GetProfile(ctx context.Context) (domain.ConnectionProfile, bool, error) {
	args := m.Called(ctx)

	return args.Get(0).(domain.ConnectionProfile), args.Bool(1), args.Error(2)
}

// SaveProfile mocks the SaveProfile method.
func (m *MockRosterStore) SaveProfile(ctx context.Context, p domain.ConnectionProfile) error {
	args := m.Called(ctx, p)

	return args.Error(0)
}
