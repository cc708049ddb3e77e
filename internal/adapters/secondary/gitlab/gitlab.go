package gitlab

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/denchenko/gmm/internal/core/domain"
	gitlab "gitlab.com/gitlab-org/api/client-go"
	"go.uber.org/zap"
)

const (
	userAgent = "gitlab-member-manager/0.1"

	orderByLastActivity = "last_activity_at"
	sortDesc            = "desc"

	// GitLab renders timestamps with millisecond precision.
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// ProfileSource supplies the connection profile used for every call.
type ProfileSource interface {
	Load() (domain.ConnectionProfile, bool)
}

// Directory implements the app.Directory port on top of the GitLab REST API.
type Directory struct {
	profiles ProfileSource
	logger   *zap.Logger
	options  []gitlab.ClientOptionFunc

	mu      sync.Mutex
	profile domain.ConnectionProfile
	client  *gitlab.Client
}

// NewDirectory creates a new GitLab directory client.
// Extra client options are applied to every underlying client.
func NewDirectory(profiles ProfileSource, logger *zap.Logger, options ...gitlab.ClientOptionFunc) *Directory {
	return &Directory{
		profiles: profiles,
		logger:   logger,
		options:  options,
	}
}

// SearchProjects searches projects ordered by last activity, most recent first.
func (d *Directory) SearchProjects(
	ctx context.Context,
	keyword string,
	page, perPage int,
) (*domain.Page[domain.ProjectSummary], error) {
	if err := validatePaging(page, perPage); err != nil {
		return nil, err
	}

	client, err := d.gitlabClient()
	if err != nil {
		return nil, err
	}

	opts := &gitlab.ListProjectsOptions{
		ListOptions: gitlab.ListOptions{
			Page:    page,
			PerPage: perPage,
		},
		Simple:  pointerOf(true),
		OrderBy: pointerOf(orderByLastActivity),
		Sort:    pointerOf(sortDesc),
	}
	if keyword = strings.TrimSpace(keyword); keyword != "" {
		opts.Search = pointerOf(keyword)
	}

	projects, resp, err := client.Projects.ListProjects(opts, gitlab.WithContext(ctx))
	if err != nil {
		return nil, classify(resp, err)
	}

	items := make([]domain.ProjectSummary, 0, len(projects))
	for _, p := range projects {
		items = append(items, toProjectSummary(p))
	}

	d.logger.Debug("searched projects",
		zap.String("keyword", keyword),
		zap.Int("page", page),
		zap.Int("count", len(items)))

	return &domain.Page[domain.ProjectSummary]{
		Items:   items,
		Total:   resolveTotal(reportedTotal(resp), page, perPage, len(items)),
		Page:    page,
		PerPage: perPage,
	}, nil
}

// ListProjectMembers lists one page of project members, inherited members included.
func (d *Directory) ListProjectMembers(
	ctx context.Context,
	ref domain.ProjectRef,
	page, perPage int,
) (*domain.Page[domain.ProjectMember], error) {
	if err := validatePaging(page, perPage); err != nil {
		return nil, err
	}

	client, err := d.gitlabClient()
	if err != nil {
		return nil, err
	}

	members, resp, err := client.ProjectMembers.ListAllProjectMembers(
		projectID(ref),
		&gitlab.ListProjectMembersOptions{
			ListOptions: gitlab.ListOptions{
				Page:    page,
				PerPage: perPage,
			},
		},
		gitlab.WithContext(ctx),
	)
	if err != nil {
		return nil, classify(resp, err)
	}

	items := make([]domain.ProjectMember, 0, len(members))
	for _, m := range members {
		items = append(items, toProjectMember(m))
	}

	d.logger.Debug("listed project members",
		zap.Stringer("project", ref),
		zap.Int("page", page),
		zap.Int("count", len(items)))

	return &domain.Page[domain.ProjectMember]{
		Items:   items,
		Total:   resolveTotal(reportedTotal(resp), page, perPage, len(items)),
		Page:    page,
		PerPage: perPage,
	}, nil
}

// AddMember adds a user to a project. A user that is already a member counts as success.
func (d *Directory) AddMember(
	ctx context.Context,
	ref domain.ProjectRef,
	userID int,
	level domain.AccessLevel,
	expiresAt string,
) error {
	client, err := d.gitlabClient()
	if err != nil {
		return err
	}

	accessLevel := gitlab.AccessLevelValue(level)
	opts := &gitlab.AddProjectMemberOptions{
		UserID:      userID,
		AccessLevel: &accessLevel,
	}
	if expiresAt = strings.TrimSpace(expiresAt); expiresAt != "" {
		opts.ExpiresAt = pointerOf(expiresAt)
	}

	_, resp, err := client.ProjectMembers.AddProjectMember(projectID(ref), opts, gitlab.WithContext(ctx))
	if err == nil {
		return nil
	}

	classified := classify(resp, err)
	if hasStatus(classified, http.StatusConflict) {
		d.logger.Debug("user already a member",
			zap.Stringer("project", ref),
			zap.Int("user_id", userID))

		return nil
	}

	return classified
}

// RemoveMember removes a user from a project. A user that is not a member counts as success.
func (d *Directory) RemoveMember(ctx context.Context, ref domain.ProjectRef, userID int) error {
	client, err := d.gitlabClient()
	if err != nil {
		return err
	}

	resp, err := client.ProjectMembers.DeleteProjectMember(projectID(ref), userID, gitlab.WithContext(ctx))
	if err == nil {
		return nil
	}

	classified := classify(resp, err)
	if hasStatus(classified, http.StatusNotFound) {
		d.logger.Debug("user not a member",
			zap.Stringer("project", ref),
			zap.Int("user_id", userID))

		return nil
	}

	return classified
}

// gitlabClient returns a client for the current profile, rebuilding it when the profile changed.
func (d *Directory) gitlabClient() (*gitlab.Client, error) {
	profile, ok := d.profiles.Load()
	if !ok {
		return nil, domain.ErrProfileNotSet
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client != nil && d.profile == profile {
		return d.client, nil
	}

	options := append([]gitlab.ClientOptionFunc{gitlab.WithBaseURL(profile.BaseURL)}, d.options...)

	client, err := gitlab.NewClient(profile.Token, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitLab client: %w", err)
	}
	client.UserAgent = userAgent

	d.profile = profile
	d.client = client

	return client, nil
}

// projectID passes numeric ids through untouched, paths are escaped by the client.
func projectID(ref domain.ProjectRef) any {
	if ref.IsID() {
		return ref.ID
	}

	return ref.Path
}

func validatePaging(page, perPage int) error {
	if page < 1 {
		return domain.NewValidationError(fmt.Sprintf("page must be positive, got %d", page))
	}
	if perPage < 1 {
		return domain.NewValidationError(fmt.Sprintf("per page must be positive, got %d", perPage))
	}

	return nil
}

// classify maps a client error to a RemoteError when a response arrived, a TransportError otherwise.
func classify(resp *gitlab.Response, err error) error {
	var errResp *gitlab.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return &domain.RemoteError{
			Status: errResp.Response.StatusCode,
			Body:   remoteBody(errResp),
		}
	}

	if resp != nil && resp.Response != nil && resp.StatusCode >= http.StatusMultipleChoices {
		return &domain.RemoteError{
			Status: resp.StatusCode,
			Body:   err.Error(),
		}
	}

	return &domain.TransportError{Err: err}
}

func remoteBody(errResp *gitlab.ErrorResponse) string {
	if len(errResp.Body) > 0 {
		return strings.TrimSpace(string(errResp.Body))
	}

	return errResp.Message
}

func hasStatus(err error, status int) bool {
	var remoteErr *domain.RemoteError

	return errors.As(err, &remoteErr) && remoteErr.Status == status
}

func toProjectSummary(p *gitlab.Project) domain.ProjectSummary {
	return domain.ProjectSummary{
		ID:                p.ID,
		Name:              p.Name,
		Namespace:         namespaceOf(p),
		PathWithNamespace: p.PathWithNamespace,
		Description:       p.Description,
		LastActivityAt:    formatTime(p.LastActivityAt),
	}
}

func namespaceOf(p *gitlab.Project) string {
	if p.Namespace != nil {
		if p.Namespace.FullPath != "" {
			return p.Namespace.FullPath
		}
		if p.Namespace.Name != "" {
			return p.Namespace.Name
		}
	}

	if i := strings.LastIndex(p.PathWithNamespace, "/"); i >= 0 {
		return p.PathWithNamespace[:i]
	}

	return p.PathWithNamespace
}

func toProjectMember(m *gitlab.ProjectMember) domain.ProjectMember {
	member := domain.ProjectMember{
		ID:          m.ID,
		Username:    m.Username,
		Name:        m.Name,
		AvatarURL:   m.AvatarURL,
		AccessLevel: domain.AccessLevel(m.AccessLevel),
		CreatedAt:   formatTime(m.CreatedAt),
	}
	if m.ExpiresAt != nil {
		member.ExpiresAt = m.ExpiresAt.String()
	}

	return member
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}

	return t.UTC().Format(timestampLayout)
}

func pointerOf[T any](v T) *T {
	return &v
}
