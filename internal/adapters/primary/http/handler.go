package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/denchenko/gmm/internal/core/domain"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const defaultPerPage = 20

// ProfileResponse is the connection profile with a masked token.
type ProfileResponse struct {
	BaseURL    string `json:"base_url"`
	Token      string `json:"token"`
	Configured bool   `json:"configured"`
}

// ProfileRequest sets the connection profile.
type ProfileRequest struct {
	BaseURL string `json:"base_url"`
	Token   string `json:"token"`
}

// MemberRequest adds a single user to a project.
type MemberRequest struct {
	Project     string             `json:"project"`
	UserID      int                `json:"user_id"`
	AccessLevel domain.AccessLevel `json:"access_level"`
	ExpiresAt   string             `json:"expires_at,omitempty"`
}

// BatchRequest mutates the membership of many users in a project.
type BatchRequest struct {
	Project     string             `json:"project"`
	UserIDs     []int              `json:"user_ids"`
	AccessLevel domain.AccessLevel `json:"access_level,omitempty"`
	ExpiresAt   string             `json:"expires_at,omitempty"`
}

// GroupBatchRequest adds every member of a local group to a project.
type GroupBatchRequest struct {
	Project     string             `json:"project"`
	GroupID     int64              `json:"group_id"`
	AccessLevel domain.AccessLevel `json:"access_level"`
	ExpiresAt   string             `json:"expires_at,omitempty"`
}

// ImportRequest copies the members of a project into the roster.
type ImportRequest struct {
	Project string `json:"project"`
}

// ImportResponse reports how many members were imported.
type ImportResponse struct {
	Imported int `json:"imported"`
}

// UserIDsRequest carries a list of user ids.
type UserIDsRequest struct {
	UserIDs []int `json:"user_ids"`
}

// GroupRequest carries a group name.
type GroupRequest struct {
	Name string `json:"name"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, _ *http.Request) {
	p, ok := s.app.Profile()
	s.writeJSON(w, http.StatusOK, ProfileResponse{
		BaseURL:    p.BaseURL,
		Token:      p.MaskedToken(),
		Configured: ok,
	})
}

func (s *Server) handleSetProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if !s.decode(w, r, &req) {
		return
	}

	p, err := s.app.SetProfile(r.Context(), req.BaseURL, req.Token)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, ProfileResponse{
		BaseURL:    p.BaseURL,
		Token:      p.MaskedToken(),
		Configured: true,
	})
}

func (s *Server) handleSearchProjects(w http.ResponseWriter, r *http.Request) {
	page, perPage, err := paging(r)
	if err != nil {
		s.writeError(w, err)

		return
	}

	result, err := s.app.SearchProjects(r.Context(), r.URL.Query().Get("keyword"), page, perPage)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListProjectMembers(w http.ResponseWriter, r *http.Request) {
	ref, err := domain.ParseProjectRef(r.URL.Query().Get("project"))
	if err != nil {
		s.writeError(w, err)

		return
	}

	page, perPage, err := paging(r)
	if err != nil {
		s.writeError(w, err)

		return
	}

	result, err := s.app.ListProjectMembers(r.Context(), ref, page, perPage)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req MemberRequest
	if !s.decode(w, r, &req) {
		return
	}

	ref, err := domain.ParseProjectRef(req.Project)
	if err != nil {
		s.writeError(w, err)

		return
	}

	if err := s.app.AddMember(r.Context(), ref, req.UserID, req.AccessLevel, req.ExpiresAt); err != nil {
		s.writeError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	ref, err := domain.ParseProjectRef(query.Get("project"))
	if err != nil {
		s.writeError(w, err)

		return
	}

	userID, err := strconv.Atoi(query.Get("user_id"))
	if err != nil {
		s.writeError(w, domain.NewValidationError(fmt.Sprintf("invalid user id %q", query.Get("user_id"))))

		return
	}

	if err := s.app.RemoveMember(r.Context(), ref, userID); err != nil {
		s.writeError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBatchAdd(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if !s.decode(w, r, &req) {
		return
	}

	ref, err := domain.ParseProjectRef(req.Project)
	if err != nil {
		s.writeError(w, err)

		return
	}

	result, err := s.app.BatchAddMembers(r.Context(), ref, req.UserIDs, req.AccessLevel, req.ExpiresAt)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBatchRemove(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if !s.decode(w, r, &req) {
		return
	}

	ref, err := domain.ParseProjectRef(req.Project)
	if err != nil {
		s.writeError(w, err)

		return
	}

	result, err := s.app.BatchRemoveMembers(r.Context(), ref, req.UserIDs)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBatchAddGroup(w http.ResponseWriter, r *http.Request) {
	var req GroupBatchRequest
	if !s.decode(w, r, &req) {
		return
	}

	ref, err := domain.ParseProjectRef(req.Project)
	if err != nil {
		s.writeError(w, err)

		return
	}

	result, err := s.app.BatchAddGroupToProject(r.Context(), ref, req.GroupID, req.AccessLevel, req.ExpiresAt)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if !s.decode(w, r, &req) {
		return
	}

	ref, err := domain.ParseProjectRef(req.Project)
	if err != nil {
		s.writeError(w, err)

		return
	}

	imported, err := s.app.ImportProjectMembers(r.Context(), ref)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, ImportResponse{Imported: imported})
}

func (s *Server) handleListLocalMembers(w http.ResponseWriter, r *http.Request) {
	page, perPage, err := paging(r)
	if err != nil {
		s.writeError(w, err)

		return
	}

	result, err := s.app.ListLocalMembers(r.Context(), r.URL.Query().Get("query"), page, perPage)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleUpsertLocalMembers(w http.ResponseWriter, r *http.Request) {
	var records []domain.LocalMemberUpsert
	if !s.decode(w, r, &records) {
		return
	}

	if err := s.app.SaveLocalMembers(r.Context(), records); err != nil {
		s.writeError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteLocalMembers(w http.ResponseWriter, r *http.Request) {
	var req UserIDsRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.app.DeleteLocalMembers(r.Context(), req.UserIDs); err != nil {
		s.writeError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.app.ListGroups(r.Context())
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req GroupRequest
	if !s.decode(w, r, &req) {
		return
	}

	group, err := s.app.CreateGroup(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusCreated, group)
}

func (s *Server) handleRenameGroup(w http.ResponseWriter, r *http.Request) {
	groupID, ok := s.groupID(w, r)
	if !ok {
		return
	}

	var req GroupRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.app.RenameGroup(r.Context(), groupID, req.Name); err != nil {
		s.writeError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	groupID, ok := s.groupID(w, r)
	if !ok {
		return
	}

	if err := s.app.DeleteGroup(r.Context(), groupID); err != nil {
		s.writeError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListGroupMembers(w http.ResponseWriter, r *http.Request) {
	groupID, ok := s.groupID(w, r)
	if !ok {
		return
	}

	members, err := s.app.ListGroupMembers(r.Context(), groupID)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, members)
}

func (s *Server) handleAddGroupMembers(w http.ResponseWriter, r *http.Request) {
	groupID, ok := s.groupID(w, r)
	if !ok {
		return
	}

	var req UserIDsRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.app.AddMembersToGroup(r.Context(), groupID, req.UserIDs); err != nil {
		s.writeError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveGroupMembers(w http.ResponseWriter, r *http.Request) {
	groupID, ok := s.groupID(w, r)
	if !ok {
		return
	}

	var req UserIDsRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.app.RemoveMembersFromGroup(r.Context(), groupID, req.UserIDs); err != nil {
		s.writeError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) groupID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "groupID")

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, domain.NewValidationError(fmt.Sprintf("invalid group id %q", raw)))

		return 0, false
	}

	return id, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, domain.NewValidationError("invalid request body: "+err.Error()))

		return false
	}

	return true
}

func paging(r *http.Request) (int, int, error) {
	query := r.URL.Query()

	page, err := intParam(query.Get("page"), 1)
	if err != nil {
		return 0, 0, err
	}

	perPage, err := intParam(query.Get("per_page"), defaultPerPage)
	if err != nil {
		return 0, 0, err
	}

	return page, perPage, nil
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(fmt.Sprintf("invalid number %q", raw))
	}

	return v, nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	}

	s.writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func statusOf(err error) int {
	var (
		validationErr *domain.ValidationError
		remoteErr     *domain.RemoteError
		transportErr  *domain.TransportError
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrGroupNotFound):
		return http.StatusNotFound
	case errors.As(err, &remoteErr), errors.As(err, &transportErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}
