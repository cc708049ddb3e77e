package cache

import "github.com/denchenko/gmm/internal/core/domain"

// Cache defines the interface for project search caching operations.
type Cache interface {
	// GetProjects retrieves a search page by key.
	// Returns the page and true if found and not expired, nil and false otherwise.
	GetProjects(key string) (*domain.Page[domain.ProjectSummary], bool)

	// StoreProjects stores a search page under the key.
	StoreProjects(key string, page *domain.Page[domain.ProjectSummary])
}
