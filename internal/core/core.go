package core

import (
	"github.com/denchenko/gmm/internal/config"
	"github.com/denchenko/gmm/internal/core/app"
	"github.com/denchenko/gmm/internal/core/batch"
	"github.com/denchenko/gmm/internal/core/profile"
	do "github.com/samber/do/v2"
	"go.uber.org/zap"
)

var Package = do.Package(
	do.Lazy[*profile.Holder](NewProfileHolder),
	do.Lazy[*batch.Runner](NewBatchRunner),
	do.Lazy[*app.App](NewApp),
)

// NewProfileHolder creates the shared connection profile holder.
func NewProfileHolder(_ do.Injector) (*profile.Holder, error) {
	return profile.NewHolder(), nil
}

// NewBatchRunner creates a batch runner with the configured concurrency.
func NewBatchRunner(i do.Injector) (*batch.Runner, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return batch.NewRunner(cfg.BatchConcurrency), nil
}

// NewApp creates a new App instance with dependencies from the injector.
func NewApp(i do.Injector) (*app.App, error) {
	cfg := do.MustInvoke[*config.Config](i)
	directory := do.MustInvoke[app.Directory](i)
	roster := do.MustInvoke[app.RosterStore](i)
	holder := do.MustInvoke[*profile.Holder](i)
	runner := do.MustInvoke[*batch.Runner](i)
	logger := do.MustInvoke[*zap.Logger](i)

	return app.NewApp(cfg, directory, roster, holder, runner, logger)
}
