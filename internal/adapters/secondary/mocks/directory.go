package mocks

import (
	"context"

	"github.com/denchenko/gmm/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// MockDirectory is a mock implementation of app.Directory.
type MockDirectory struct {
	mock.Mock
}

// SearchProjects mocks the SearchProjects method.
func (m *MockDirectory) SearchProjects(
	ctx context.Context,
	keyword string,
	page, perPage int,
) (*domain.Page[domain.ProjectSummary], error) {
	args := m.Called(ctx, keyword, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Page[domain.ProjectSummary]), args.Error(1)
}

// ListProjectMembers mocks the ListProjectMembers method.
func (m *MockDirectory) ListProjectMembers(
	ctx context.Context,
	ref domain.ProjectRef,
	page, perPage int,
) (*domain.Page[domain.ProjectMember], error) {
	args := m.Called(ctx, ref, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Page[domain.ProjectMember]), args.Error(1)
}

// AddMember mocks the AddMember method.
func (m *MockDirectory) AddMember(
	ctx context.Context,
	ref domain.ProjectRef,
	userID int,
	level domain.AccessLevel,
	expiresAt string,
) error {
	args := m.Called(ctx, ref, userID, level, expiresAt)

	return args.Error(0)
}

// RemoveMember mocks the RemoveMember method.
func (m *MockDirectory) RemoveMember(ctx context.Context, ref domain.ProjectRef, userID int) error {
	args := m.Called(ctx, ref, userID)

	return args.Error(0)
}
