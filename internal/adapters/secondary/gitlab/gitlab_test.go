package gitlab

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/denchenko/gmm/internal/core/domain"
	"github.com/denchenko/gmm/internal/core/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gitlab "gitlab.com/gitlab-org/api/client-go"
	"go.uber.org/zap"
)

func newTestDirectory(t *testing.T, handler http.HandlerFunc) (*Directory, *profile.Holder) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	holder := profile.NewHolder()
	holder.Store(domain.ConnectionProfile{BaseURL: srv.URL, Token: "secret"})

	return NewDirectory(holder, zap.NewNop(), gitlab.WithoutRetries()), holder
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func members(n int) []map[string]any {
	out := make([]map[string]any, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, map[string]any{
			"id":           i,
			"username":     "user" + strconv.Itoa(i),
			"name":         "User " + strconv.Itoa(i),
			"access_level": 30,
		})
	}

	return out
}

func TestDirectory_SearchProjects(t *testing.T) {
	dir, _ := newTestDirectory(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v4/projects", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("PRIVATE-TOKEN"))
		assert.Equal(t, userAgent, r.UserAgent())

		q := r.URL.Query()
		assert.Equal(t, "api", q.Get("search"))
		assert.Equal(t, "true", q.Get("simple"))
		assert.Equal(t, "last_activity_at", q.Get("order_by"))
		assert.Equal(t, "desc", q.Get("sort"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "10", q.Get("per_page"))

		w.Header().Set("X-Total", "42")
		writeJSON(t, w, http.StatusOK, []map[string]any{
			{
				"id":                  1,
				"name":                "api",
				"path_with_namespace": "team/backend/api",
				"namespace":           map[string]any{"name": "backend", "full_path": "team/backend"},
				"last_activity_at":    "2024-05-01T10:00:00.123Z",
			},
			{
				"id":                  2,
				"name":                "api-docs",
				"path_with_namespace": "docs/api-docs",
			},
		})
	})

	page, err := dir.SearchProjects(context.Background(), "  api ", 2, 10)
	require.NoError(t, err)

	assert.Equal(t, 42, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 10, page.PerPage)
	require.Len(t, page.Items, 2)
	assert.Equal(t, domain.ProjectSummary{
		ID:                1,
		Name:              "api",
		Namespace:         "team/backend",
		PathWithNamespace: "team/backend/api",
		LastActivityAt:    "2024-05-01T10:00:00.123Z",
	}, page.Items[0])
	assert.Equal(t, "docs", page.Items[1].Namespace)
}

func TestDirectory_SearchProjects_EmptyKeyword(t *testing.T) {
	dir, _ := newTestDirectory(t, func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.URL.Query()["search"]
		assert.False(t, ok)

		writeJSON(t, w, http.StatusOK, []map[string]any{})
	})

	page, err := dir.SearchProjects(context.Background(), "   ", 1, 20)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.Total)
	assert.False(t, page.HasNext())
}

func TestDirectory_ListProjectMembers(t *testing.T) {
	tests := []struct {
		name          string
		ref           domain.ProjectRef
		page          int
		perPage       int
		returned      int
		totalHeader   string
		expectedPath  string
		expectedTotal int
		expectedNext  bool
	}{
		{
			name:          "path reference is escaped and header total wins",
			ref:           domain.ProjectRef{Path: "group/project"},
			page:          1,
			perPage:       20,
			returned:      20,
			totalHeader:   "57",
			expectedPath:  "/api/v4/projects/group%2Fproject/members/all",
			expectedTotal: 57,
			expectedNext:  true,
		},
		{
			name:          "digits with leading zeros pass through verbatim",
			ref:           domain.ProjectRef{Path: "007"},
			page:          1,
			perPage:       20,
			returned:      1,
			expectedPath:  "/api/v4/projects/007/members/all",
			expectedTotal: 1,
			expectedNext:  false,
		},
		{
			name:          "full first page without header",
			ref:           domain.ProjectRef{ID: 42},
			page:          1,
			perPage:       20,
			returned:      20,
			expectedPath:  "/api/v4/projects/42/members/all",
			expectedTotal: 21,
			expectedNext:  true,
		},
		{
			name:          "short first page without header",
			ref:           domain.ProjectRef{ID: 42},
			page:          1,
			perPage:       20,
			returned:      5,
			expectedPath:  "/api/v4/projects/42/members/all",
			expectedTotal: 5,
			expectedNext:  false,
		},
		{
			name:          "short third page without header",
			ref:           domain.ProjectRef{ID: 42},
			page:          3,
			perPage:       10,
			returned:      4,
			expectedPath:  "/api/v4/projects/42/members/all",
			expectedTotal: 24,
			expectedNext:  false,
		},
		{
			name:          "zero header is treated as missing",
			ref:           domain.ProjectRef{ID: 42},
			page:          1,
			perPage:       5,
			returned:      5,
			totalHeader:   "0",
			expectedPath:  "/api/v4/projects/42/members/all",
			expectedTotal: 6,
			expectedNext:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, _ := newTestDirectory(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.expectedPath, r.URL.EscapedPath())
				assert.Equal(t, strconv.Itoa(tt.page), r.URL.Query().Get("page"))
				assert.Equal(t, strconv.Itoa(tt.perPage), r.URL.Query().Get("per_page"))

				if tt.totalHeader != "" {
					w.Header().Set("X-Total", tt.totalHeader)
				}
				writeJSON(t, w, http.StatusOK, members(tt.returned))
			})

			page, err := dir.ListProjectMembers(context.Background(), tt.ref, tt.page, tt.perPage)
			require.NoError(t, err)

			assert.Len(t, page.Items, tt.returned)
			assert.Equal(t, tt.expectedTotal, page.Total)
			assert.Equal(t, tt.expectedNext, page.HasNext())
		})
	}
}

func TestDirectory_ListProjectMembers_Mapping(t *testing.T) {
	dir, _ := newTestDirectory(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, []map[string]any{
			{
				"id":           7,
				"username":     "alice",
				"name":         "Alice",
				"avatar_url":   "https://example.com/a.png",
				"access_level": 40,
				"created_at":   "2024-01-02T03:04:05.000Z",
				"expires_at":   "2025-01-01",
			},
		})
	})

	page, err := dir.ListProjectMembers(context.Background(), domain.ProjectRef{ID: 1}, 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	assert.Equal(t, domain.ProjectMember{
		ID:          7,
		Username:    "alice",
		Name:        "Alice",
		AvatarURL:   "https://example.com/a.png",
		AccessLevel: domain.AccessMaintainer,
		CreatedAt:   "2024-01-02T03:04:05.000Z",
		ExpiresAt:   "2025-01-01",
	}, page.Items[0])
}

func TestDirectory_InvalidPaging(t *testing.T) {
	dir, _ := newTestDirectory(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected")
	})

	_, err := dir.ListProjectMembers(context.Background(), domain.ProjectRef{ID: 1}, 0, 20)
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)

	_, err = dir.SearchProjects(context.Background(), "", 1, 0)
	require.ErrorAs(t, err, &validationErr)
}

func TestDirectory_AddMember(t *testing.T) {
	tests := []struct {
		name            string
		expiresAt       string
		status          int
		expectedExpires any
		expectError     bool
		expectedStatus  int
	}{
		{name: "created", status: http.StatusCreated, expectedExpires: nil},
		{name: "expiry is trimmed", expiresAt: " 2025-12-31 ", status: http.StatusCreated, expectedExpires: "2025-12-31"},
		{name: "blank expiry is omitted", expiresAt: "   ", status: http.StatusCreated, expectedExpires: nil},
		{name: "already a member", status: http.StatusConflict, expectedExpires: nil},
		{name: "forbidden", status: http.StatusForbidden, expectedExpires: nil, expectError: true, expectedStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, _ := newTestDirectory(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/api/v4/projects/group%2Fproject/members", r.URL.EscapedPath())

				var body map[string]any
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.EqualValues(t, 7, body["user_id"])
				assert.EqualValues(t, 30, body["access_level"])
				assert.Equal(t, tt.expectedExpires, body["expires_at"])

				if tt.status >= http.StatusBadRequest {
					writeJSON(t, w, tt.status, map[string]any{"message": "nope"})

					return
				}
				writeJSON(t, w, tt.status, map[string]any{"id": 7, "username": "alice", "access_level": 30})
			})

			err := dir.AddMember(
				context.Background(),
				domain.ProjectRef{Path: "group/project"},
				7,
				domain.AccessDeveloper,
				tt.expiresAt,
			)

			if !tt.expectError {
				require.NoError(t, err)

				return
			}

			var remoteErr *domain.RemoteError
			require.ErrorAs(t, err, &remoteErr)
			assert.Equal(t, tt.expectedStatus, remoteErr.Status)
			assert.Contains(t, remoteErr.Body, "nope")
			assert.False(t, domain.IsRetryable(err))
		})
	}
}

func TestDirectory_RemoveMember(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		expectError bool
	}{
		{name: "removed", status: http.StatusNoContent},
		{name: "not a member", status: http.StatusNotFound},
		{name: "server error", status: http.StatusInternalServerError, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, _ := newTestDirectory(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodDelete, r.Method)
				assert.Equal(t, "/api/v4/projects/42/members/9", r.URL.EscapedPath())

				if tt.status == http.StatusNoContent {
					w.WriteHeader(tt.status)

					return
				}
				writeJSON(t, w, tt.status, map[string]any{"message": "404 Member Not Found"})
			})

			err := dir.RemoveMember(context.Background(), domain.ProjectRef{ID: 42}, 9)

			if !tt.expectError {
				require.NoError(t, err)

				return
			}

			var remoteErr *domain.RemoteError
			require.ErrorAs(t, err, &remoteErr)
			assert.Equal(t, tt.status, remoteErr.Status)
		})
	}
}

func TestDirectory_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	holder := profile.NewHolder()
	holder.Store(domain.ConnectionProfile{BaseURL: baseURL, Token: "secret"})
	dir := NewDirectory(holder, zap.NewNop(), gitlab.WithoutRetries())

	err := dir.RemoveMember(context.Background(), domain.ProjectRef{ID: 1}, 2)

	var transportErr *domain.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.True(t, domain.IsRetryable(err))
}

func TestDirectory_ProfileNotSet(t *testing.T) {
	dir := NewDirectory(profile.NewHolder(), zap.NewNop())

	_, err := dir.SearchProjects(context.Background(), "", 1, 20)
	require.ErrorIs(t, err, domain.ErrProfileNotSet)

	err = dir.AddMember(context.Background(), domain.ProjectRef{ID: 1}, 2, domain.AccessGuest, "")
	require.ErrorIs(t, err, domain.ErrProfileNotSet)
}

func TestDirectory_ProfileChangeRebuildsClient(t *testing.T) {
	var (
		mu     sync.Mutex
		tokens []string
	)
	dir, holder := newTestDirectory(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		tokens = append(tokens, r.Header.Get("PRIVATE-TOKEN"))
		mu.Unlock()
		writeJSON(t, w, http.StatusOK, []map[string]any{})
	})

	_, err := dir.SearchProjects(context.Background(), "", 1, 20)
	require.NoError(t, err)

	current, ok := holder.Load()
	require.True(t, ok)
	holder.Store(domain.ConnectionProfile{BaseURL: current.BaseURL, Token: "rotated"})

	_, err = dir.SearchProjects(context.Background(), "", 1, 20)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"secret", "rotated"}, tokens)
}

func TestResolveTotal(t *testing.T) {
	tests := []struct {
		name     string
		reported int
		page     int
		perPage  int
		returned int
		expected int
	}{
		{name: "reported", reported: 99, page: 1, perPage: 20, returned: 20, expected: 99},
		{name: "full page", page: 1, perPage: 20, returned: 20, expected: 21},
		{name: "short page", page: 1, perPage: 20, returned: 5, expected: 5},
		{name: "empty later page", page: 4, perPage: 20, returned: 0, expected: 60},
		{name: "full later page", page: 2, perPage: 50, returned: 50, expected: 101},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, resolveTotal(tt.reported, tt.page, tt.perPage, tt.returned))
		})
	}
}
