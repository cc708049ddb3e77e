package cached

import (
	"context"
	"fmt"
	"strings"

	"github.com/denchenko/gmm/internal/adapters/secondary/cache"
	"github.com/denchenko/gmm/internal/core/app"
	"github.com/denchenko/gmm/internal/core/domain"
)

// ProfileSource provides the active connection profile.
type ProfileSource interface {
	Load() (domain.ConnectionProfile, bool)
}

// Directory wraps a Directory with caching of project search pages.
// Membership calls always reach the remote service.
type Directory struct {
	next     app.Directory
	cache    cache.Cache
	profiles ProfileSource
}

// NewDirectory creates a new cached directory instance.
func NewDirectory(next app.Directory, cache cache.Cache, profiles ProfileSource) *Directory {
	return &Directory{
		next:     next,
		cache:    cache,
		profiles: profiles,
	}
}

// SearchProjects serves a search page from the cache when the same profile asked for it recently.
func (d *Directory) SearchProjects(
	ctx context.Context,
	keyword string,
	page, perPage int,
) (*domain.Page[domain.ProjectSummary], error) {
	p, ok := d.profiles.Load()
	if !ok {
		return d.next.SearchProjects(ctx, keyword, page, perPage)
	}

	key := searchKey(p, keyword, page, perPage)
	if cached, ok := d.cache.GetProjects(key); ok {
		return cached, nil
	}

	result, err := d.next.SearchProjects(ctx, keyword, page, perPage)
	if err != nil {
		return nil, err
	}

	d.cache.StoreProjects(key, result)

	return result, nil
}

// ListProjectMembers lists one page of project members.
func (d *Directory) ListProjectMembers(
	ctx context.Context,
	ref domain.ProjectRef,
	page, perPage int,
) (*domain.Page[domain.ProjectMember], error) {
	return d.next.ListProjectMembers(ctx, ref, page, perPage)
}

// AddMember adds a user to a project.
func (d *Directory) AddMember(
	ctx context.Context,
	ref domain.ProjectRef,
	userID int,
	level domain.AccessLevel,
	expiresAt string,
) error {
	return d.next.AddMember(ctx, ref, userID, level, expiresAt)
}

// RemoveMember removes a user from a project.
func (d *Directory) RemoveMember(ctx context.Context, ref domain.ProjectRef, userID int) error {
	return d.next.RemoveMember(ctx, ref, userID)
}

// Token is part of the key so a rotated token never sees pages fetched with the old one.
func searchKey(p domain.ConnectionProfile, keyword string, page, perPage int) string {
	return fmt.Sprintf("%s\x00%s\x00%s\x00%d\x00%d", p.BaseURL, p.Token, strings.TrimSpace(keyword), page, perPage)
}
