package adapters

import (
	"github.com/denchenko/gmm/internal/adapters/primary/cli"
	httpadapter "github.com/denchenko/gmm/internal/adapters/primary/http"
	"github.com/denchenko/gmm/internal/adapters/secondary/cache"
	"github.com/denchenko/gmm/internal/adapters/secondary/cached"
	"github.com/denchenko/gmm/internal/adapters/secondary/gitlab"
	"github.com/denchenko/gmm/internal/adapters/secondary/sqlite"
	"github.com/denchenko/gmm/internal/config"
	"github.com/denchenko/gmm/internal/core/app"
	"github.com/denchenko/gmm/internal/core/profile"
	do "github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var PrimaryPackage = do.Package(
	do.Lazy[*cobra.Command](cli.Command),
	do.Lazy[*httpadapter.Server](NewHTTPServer),
)

var SecondaryPackage = do.Package(
	do.Lazy[*sqlite.Store](sqlite.NewStore),
	do.Lazy[app.RosterStore](NewRosterStore),
	do.Lazy[*gitlab.Directory](NewGitLabDirectory),
	do.Lazy[cache.Cache](NewCache),
	do.Lazy[app.Directory](NewDirectory),
)

// NewRosterStore exposes the SQLite store as the roster port.
func NewRosterStore(i do.Injector) (app.RosterStore, error) {
	return do.MustInvoke[*sqlite.Store](i), nil
}

// NewGitLabDirectory creates the GitLab directory client bound to the shared profile.
func NewGitLabDirectory(i do.Injector) (*gitlab.Directory, error) {
	holder := do.MustInvoke[*profile.Holder](i)
	logger := do.MustInvoke[*zap.Logger](i)

	return gitlab.NewDirectory(holder, logger), nil
}

// NewCache creates a new cache instance.
func NewCache(i do.Injector) (cache.Cache, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return cache.NewInMemoryCache(cfg.SearchCacheTTL), nil
}

// NewDirectory creates a directory adapter that implements app.Directory.
// It wraps the GitLab client with a cache of project search pages.
func NewDirectory(i do.Injector) (app.Directory, error) {
	directory := do.MustInvoke[*gitlab.Directory](i)
	cacheInstance := do.MustInvoke[cache.Cache](i)
	holder := do.MustInvoke[*profile.Holder](i)

	return cached.NewDirectory(directory, cacheInstance, holder), nil
}

// NewHTTPServer creates a new HTTP server.
func NewHTTPServer(i do.Injector) (*httpadapter.Server, error) {
	appInstance := do.MustInvoke[*app.App](i)
	cfg := do.MustInvoke[*config.Config](i)
	logger := do.MustInvoke[*zap.Logger](i)

	return httpadapter.NewServer(cfg.ListenAddress, appInstance, logger), nil
}
