package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/denchenko/gmm/internal/config"
	"github.com/denchenko/gmm/internal/core/batch"
	"github.com/denchenko/gmm/internal/core/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// importPageSize is the largest page GitLab serves.
const importPageSize = 100

// Directory defines the remote project and membership operations (port).
type Directory interface {
	SearchProjects(ctx context.Context, keyword string, page, perPage int) (*domain.Page[domain.ProjectSummary], error)
	ListProjectMembers(
		ctx context.Context,
		ref domain.ProjectRef,
		page, perPage int,
	) (*domain.Page[domain.ProjectMember], error)
	AddMember(ctx context.Context, ref domain.ProjectRef, userID int, level domain.AccessLevel, expiresAt string) error
	RemoveMember(ctx context.Context, ref domain.ProjectRef, userID int) error
}

// RosterStore defines the local persistence operations (port).
type RosterStore interface {
	UpsertMembers(ctx context.Context, records []domain.LocalMemberUpsert) error
	ListMembers(ctx context.Context, query string, page, perPage int) (*domain.Page[domain.LocalMember], error)
	DeleteMembers(ctx context.Context, userIDs []int) error
	CreateGroup(ctx context.Context, name string) (*domain.LocalGroup, error)
	UpdateGroup(ctx context.Context, id int64, name string) error
	DeleteGroup(ctx context.Context, id int64) error
	ListGroups(ctx context.Context) ([]domain.LocalGroup, error)
	AddMembersToGroup(ctx context.Context, groupID int64, userIDs []int) error
	RemoveMembersFromGroup(ctx context.Context, groupID int64, userIDs []int) error
	ListGroupMembers(ctx context.Context, groupID int64) ([]domain.LocalMember, error)
	GetProfile(ctx context.Context) (domain.ConnectionProfile, bool, error)
	SaveProfile(ctx context.Context, p domain.ConnectionProfile) error
}

// ProfileHolder keeps the connection profile shared with the Directory.
type ProfileHolder interface {
	Load() (domain.ConnectionProfile, bool)
	Store(p domain.ConnectionProfile)
}

// App represents the core application with all business logic.
type App struct {
	directory Directory
	roster    RosterStore
	profiles  ProfileHolder
	runner    *batch.Runner
	logger    *zap.Logger
}

// NewApp creates a new application instance.
// The stored connection profile is activated, falling back to the configured one.
func NewApp(
	cfg *config.Config,
	directory Directory,
	roster RosterStore,
	profiles ProfileHolder,
	runner *batch.Runner,
	logger *zap.Logger,
) (*App, error) {
	a := &App{
		directory: directory,
		roster:    roster,
		profiles:  profiles,
		runner:    runner,
		logger:    logger,
	}

	stored, ok, err := roster.GetProfile(context.Background())
	if err != nil {
		logger.Warn("failed to load stored connection profile", zap.Error(err))
	}

	switch {
	case ok:
		profiles.Store(stored)
	case cfg.BaseURL != "" && cfg.Token != "":
		seed, err := normalizeProfile(cfg.BaseURL, cfg.Token)
		if err != nil {
			logger.Warn("ignoring configured connection profile", zap.Error(err))

			break
		}
		profiles.Store(seed)
	}

	return a, nil
}

// SetProfile validates, persists and activates a connection profile.
func (a *App) SetProfile(ctx context.Context, baseURL, token string) (domain.ConnectionProfile, error) {
	p, err := normalizeProfile(baseURL, token)
	if err != nil {
		return domain.ConnectionProfile{}, err
	}

	if err := a.roster.SaveProfile(ctx, p); err != nil {
		return domain.ConnectionProfile{}, fmt.Errorf("failed to save connection profile: %w", err)
	}

	a.profiles.Store(p)
	a.logger.Info("connection profile updated", zap.String("base_url", p.BaseURL))

	return p, nil
}

// Profile returns the active connection profile.
func (a *App) Profile() (domain.ConnectionProfile, bool) {
	return a.profiles.Load()
}

// SearchProjects searches remote projects.
func (a *App) SearchProjects(
	ctx context.Context,
	keyword string,
	page, perPage int,
) (*domain.Page[domain.ProjectSummary], error) {
	result, err := a.directory.SearchProjects(ctx, keyword, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("failed to search projects: %w", err)
	}

	return result, nil
}

// ListProjectMembers lists one page of members of a remote project.
func (a *App) ListProjectMembers(
	ctx context.Context,
	ref domain.ProjectRef,
	page, perPage int,
) (*domain.Page[domain.ProjectMember], error) {
	result, err := a.directory.ListProjectMembers(ctx, ref, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("failed to list project members: %w", err)
	}

	return result, nil
}

// AddMember adds a single user to a remote project.
func (a *App) AddMember(
	ctx context.Context,
	ref domain.ProjectRef,
	userID int,
	level domain.AccessLevel,
	expiresAt string,
) error {
	if err := validateUserIDs([]int{userID}); err != nil {
		return err
	}
	if err := validateLevel(level); err != nil {
		return err
	}

	if err := a.directory.AddMember(ctx, ref, userID, level, expiresAt); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	return nil
}

// RemoveMember removes a single user from a remote project.
func (a *App) RemoveMember(ctx context.Context, ref domain.ProjectRef, userID int) error {
	if err := validateUserIDs([]int{userID}); err != nil {
		return err
	}

	if err := a.directory.RemoveMember(ctx, ref, userID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}

// BatchAddMembers adds every user to the project. Failures are reported per user.
func (a *App) BatchAddMembers(
	ctx context.Context,
	ref domain.ProjectRef,
	userIDs []int,
	level domain.AccessLevel,
	expiresAt string,
) (*domain.BatchResult, error) {
	if err := a.batchPreconditions(userIDs); err != nil {
		return nil, err
	}
	if err := validateLevel(level); err != nil {
		return nil, err
	}

	return a.runBatch(ctx, "add", ref, userIDs, func(ctx context.Context, userID int) error {
		return a.directory.AddMember(ctx, ref, userID, level, expiresAt)
	}), nil
}

// BatchRemoveMembers removes every user from the project. Failures are reported per user.
func (a *App) BatchRemoveMembers(
	ctx context.Context,
	ref domain.ProjectRef,
	userIDs []int,
) (*domain.BatchResult, error) {
	if err := a.batchPreconditions(userIDs); err != nil {
		return nil, err
	}

	return a.runBatch(ctx, "remove", ref, userIDs, func(ctx context.Context, userID int) error {
		return a.directory.RemoveMember(ctx, ref, userID)
	}), nil
}

// BatchAddGroupToProject adds every member of a local group to the project.
func (a *App) BatchAddGroupToProject(
	ctx context.Context,
	ref domain.ProjectRef,
	groupID int64,
	level domain.AccessLevel,
	expiresAt string,
) (*domain.BatchResult, error) {
	members, err := a.roster.ListGroupMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}

	userIDs := make([]int, 0, len(members))
	for _, m := range members {
		userIDs = append(userIDs, m.UserID)
	}

	return a.BatchAddMembers(ctx, ref, userIDs, level, expiresAt)
}

// ImportProjectMembers copies every member of a remote project into the local roster.
// It returns the number of imported members.
func (a *App) ImportProjectMembers(ctx context.Context, ref domain.ProjectRef) (int, error) {
	var records []domain.LocalMemberUpsert

	for page := 1; ; page++ {
		result, err := a.directory.ListProjectMembers(ctx, ref, page, importPageSize)
		if err != nil {
			return 0, fmt.Errorf("failed to list project members: %w", err)
		}

		for _, m := range result.Items {
			records = append(records, toUpsert(m, ref))
		}

		if len(result.Items) < importPageSize {
			break
		}
	}

	if err := a.roster.UpsertMembers(ctx, records); err != nil {
		return 0, fmt.Errorf("failed to save members: %w", err)
	}

	a.logger.Info("imported project members",
		zap.Stringer("project", ref),
		zap.Int("count", len(records)))

	return len(records), nil
}

// SaveLocalMembers upserts members into the local roster.
func (a *App) SaveLocalMembers(ctx context.Context, records []domain.LocalMemberUpsert) error {
	for _, r := range records {
		if r.UserID <= 0 {
			return domain.NewValidationError(fmt.Sprintf("invalid user id %d", r.UserID))
		}
		if strings.TrimSpace(r.Username) == "" {
			return domain.NewValidationError(fmt.Sprintf("username of user %d is empty", r.UserID))
		}
	}

	if err := a.roster.UpsertMembers(ctx, records); err != nil {
		return fmt.Errorf("failed to save members: %w", err)
	}

	return nil
}

// ListLocalMembers lists one page of the local roster.
func (a *App) ListLocalMembers(
	ctx context.Context,
	query string,
	page, perPage int,
) (*domain.Page[domain.LocalMember], error) {
	result, err := a.roster.ListMembers(ctx, query, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("failed to list local members: %w", err)
	}

	return result, nil
}

// DeleteLocalMembers removes members from the local roster and from all groups.
func (a *App) DeleteLocalMembers(ctx context.Context, userIDs []int) error {
	if err := a.roster.DeleteMembers(ctx, userIDs); err != nil {
		return fmt.Errorf("failed to delete local members: %w", err)
	}

	return nil
}

// CreateGroup creates an empty local group.
func (a *App) CreateGroup(ctx context.Context, name string) (*domain.LocalGroup, error) {
	name, err := groupName(name)
	if err != nil {
		return nil, err
	}

	group, err := a.roster.CreateGroup(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	return group, nil
}

// RenameGroup renames a local group.
func (a *App) RenameGroup(ctx context.Context, id int64, name string) error {
	name, err := groupName(name)
	if err != nil {
		return err
	}

	if err := a.roster.UpdateGroup(ctx, id, name); err != nil {
		return fmt.Errorf("failed to rename group: %w", err)
	}

	return nil
}

// DeleteGroup deletes a local group. Its members stay in the roster.
func (a *App) DeleteGroup(ctx context.Context, id int64) error {
	if err := a.roster.DeleteGroup(ctx, id); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}

	return nil
}

// ListGroups lists local groups, newest first.
func (a *App) ListGroups(ctx context.Context) ([]domain.LocalGroup, error) {
	groups, err := a.roster.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	return groups, nil
}

// AddMembersToGroup links roster members to a local group.
func (a *App) AddMembersToGroup(ctx context.Context, groupID int64, userIDs []int) error {
	if err := validateUserIDs(userIDs); err != nil {
		return err
	}

	if err := a.roster.AddMembersToGroup(ctx, groupID, userIDs); err != nil {
		return fmt.Errorf("failed to add members to group: %w", err)
	}

	return nil
}

// RemoveMembersFromGroup unlinks roster members from a local group.
func (a *App) RemoveMembersFromGroup(ctx context.Context, groupID int64, userIDs []int) error {
	if err := a.roster.RemoveMembersFromGroup(ctx, groupID, userIDs); err != nil {
		return fmt.Errorf("failed to remove members from group: %w", err)
	}

	return nil
}

// ListGroupMembers lists the members of a local group ordered by username.
func (a *App) ListGroupMembers(ctx context.Context, groupID int64) ([]domain.LocalMember, error) {
	members, err := a.roster.ListGroupMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}

	return members, nil
}

func (a *App) batchPreconditions(userIDs []int) error {
	if _, ok := a.profiles.Load(); !ok {
		return domain.ErrProfileNotSet
	}

	return validateUserIDs(userIDs)
}

func (a *App) runBatch(
	ctx context.Context,
	action string,
	ref domain.ProjectRef,
	userIDs []int,
	op batch.Operation,
) *domain.BatchResult {
	logger := a.logger.With(
		zap.String("batch_id", uuid.NewString()),
		zap.String("action", action),
		zap.Stringer("project", ref),
	)

	logger.Info("batch started",
		zap.Int("users", len(userIDs)),
		zap.Int("concurrency", a.runner.Concurrency()))

	// Once started a batch runs to completion, a caller that goes away must not abort it midway.
	result := a.runner.Run(context.WithoutCancel(ctx), userIDs, op)

	for _, f := range result.Failed {
		logger.Warn("batch item failed", zap.Int("user_id", f.UserID), zap.String("error", f.Message))
	}

	logger.Info("batch finished",
		zap.Int("succeeded", len(result.SuccessUserIDs)),
		zap.Int("failed", len(result.Failed)))

	return result
}

func toUpsert(m domain.ProjectMember, ref domain.ProjectRef) domain.LocalMemberUpsert {
	rec := domain.LocalMemberUpsert{
		UserID:    m.ID,
		Username:  m.Username,
		Name:      m.Name,
		AvatarURL: m.AvatarURL,
	}
	if ref.IsID() {
		rec.ProjectID = ref.ID
	} else {
		rec.ProjectName = ref.Path
	}

	return rec
}

func normalizeProfile(baseURL, token string) (domain.ConnectionProfile, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	token = strings.TrimSpace(token)

	if baseURL == "" {
		return domain.ConnectionProfile{}, domain.NewValidationError("base URL is empty")
	}
	if token == "" {
		return domain.ConnectionProfile{}, domain.NewValidationError("token is empty")
	}

	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return domain.ConnectionProfile{}, domain.NewValidationError(fmt.Sprintf("invalid base URL %q", baseURL))
	}

	return domain.ConnectionProfile{BaseURL: baseURL, Token: token}, nil
}

func groupName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.NewValidationError("group name is empty")
	}

	return name, nil
}

func validateUserIDs(userIDs []int) error {
	for _, id := range userIDs {
		if id <= 0 {
			return domain.NewValidationError(fmt.Sprintf("invalid user id %d", id))
		}
	}

	return nil
}

func validateLevel(level domain.AccessLevel) error {
	if level <= 0 {
		return domain.NewValidationError(fmt.Sprintf("invalid access level %d", int(level)))
	}

	return nil
}
