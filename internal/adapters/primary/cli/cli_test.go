package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/denchenko/gmm/internal/adapters/secondary/mocks"
	"github.com/denchenko/gmm/internal/config"
	"github.com/denchenko/gmm/internal/core/app"
	"github.com/denchenko/gmm/internal/core/batch"
	"github.com/denchenko/gmm/internal/core/domain"
	"github.com/denchenko/gmm/internal/core/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T, directory *mocks.MockDirectory, roster *mocks.MockRosterStore) *app.App {
	t.Helper()

	roster.On("GetProfile", mock.Anything).
		Return(domain.ConnectionProfile{BaseURL: "https://gitlab.example.com", Token: "secret"}, true, nil)

	appInstance, err := app.NewApp(&config.Config{}, directory, roster, profile.NewHolder(), batch.NewRunner(1), zap.NewNop())
	require.NoError(t, err)

	return appInstance
}

func execute(t *testing.T, appInstance *app.App, args ...string) (string, error) {
	t.Helper()

	root := NewRoot(appInstance)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())

	return out.String(), err
}

func TestMemberAdd(t *testing.T) {
	directory := &mocks.MockDirectory{}
	roster := &mocks.MockRosterStore{}
	appInstance := newTestApp(t, directory, roster)

	ref := domain.ProjectRef{Path: "team/api"}
	directory.On("AddMember", mock.Anything, ref, 1, domain.AccessMaintainer, "2026-01-31").Return(nil)
	directory.On("AddMember", mock.Anything, ref, 2, domain.AccessMaintainer, "2026-01-31").
		Return(&domain.RemoteError{Status: 403, Body: "forbidden"})

	out, err := execute(t, appInstance,
		"member", "add", "team/api", "1,2", "--access-level", "maintainer", "--expires-at", "2026-01-31")

	require.EqualError(t, err, "1 of 2 user(s) failed")
	assert.Contains(t, out, "1 succeeded")
	assert.Contains(t, out, "1 failed")
	directory.AssertExpectations(t)
}

func TestMemberAdd_Group(t *testing.T) {
	directory := &mocks.MockDirectory{}
	roster := &mocks.MockRosterStore{}
	appInstance := newTestApp(t, directory, roster)

	ref := domain.ProjectRef{ID: 42}
	roster.On("ListGroupMembers", mock.Anything, int64(3)).Return([]domain.LocalMember{{UserID: 8}}, nil)
	directory.On("AddMember", mock.Anything, ref, 8, domain.AccessDeveloper, "").Return(nil)

	out, err := execute(t, appInstance, "member", "add", "42", "--group", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "1 succeeded")

	_, err = execute(t, appInstance, "member", "add", "42", "5", "--group", "3")
	require.Error(t, err)

	directory.AssertExpectations(t)
	roster.AssertExpectations(t)
}

func TestMemberList(t *testing.T) {
	directory := &mocks.MockDirectory{}
	roster := &mocks.MockRosterStore{}
	appInstance := newTestApp(t, directory, roster)

	directory.On("ListProjectMembers", mock.Anything, domain.ProjectRef{ID: 42}, 2, 10).
		Return(&domain.Page[domain.ProjectMember]{
			Items:   []domain.ProjectMember{{ID: 5, Username: "bob", Name: "Bob", AccessLevel: domain.AccessGuest}},
			Total:   11,
			Page:    2,
			PerPage: 10,
		}, nil)

	out, err := execute(t, appInstance, "member", "list", "42", "--page", "2", "--per-page", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "bob")
	assert.Contains(t, out, "Guest (10)")

	_, err = execute(t, appInstance, "member", "list", "42", "--per-page", "500")
	require.Error(t, err)

	directory.AssertExpectations(t)
}

func TestGroupCommands(t *testing.T) {
	directory := &mocks.MockDirectory{}
	roster := &mocks.MockRosterStore{}
	appInstance := newTestApp(t, directory, roster)

	roster.On("CreateGroup", mock.Anything, "platform team").
		Return(&domain.LocalGroup{ID: 4, Name: "platform team"}, nil)
	roster.On("AddMembersToGroup", mock.Anything, int64(4), []int{1, 2}).Return(nil)
	roster.On("UpdateGroup", mock.Anything, int64(9), "x").Return(domain.ErrGroupNotFound)

	out, err := execute(t, appInstance, "group", "create", "platform", "team")
	require.NoError(t, err)
	assert.Contains(t, out, `Created group 4 "platform team"`)

	out, err = execute(t, appInstance, "group", "add", "4", "1", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Added 2 member(s) to group 4")

	_, err = execute(t, appInstance, "group", "rename", "9", "x")
	require.ErrorIs(t, err, domain.ErrGroupNotFound)

	roster.AssertExpectations(t)
}

func TestConfigShow(t *testing.T) {
	appInstance := newTestApp(t, &mocks.MockDirectory{}, &mocks.MockRosterStore{})

	out, err := execute(t, appInstance, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "https://gitlab.example.com")
	assert.Contains(t, out, "**cret")
	assert.NotContains(t, out, "secret")
}
