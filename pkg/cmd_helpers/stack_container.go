// Package cmd_helpers provides common helpers for command implementations
// so every verb loads configuration, builds the sync stack and prints
// results the same way.
package cmd_helpers

import (
	"context"
	"sync"

	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/bootstrap"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/config"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/entity"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/logger"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/sync_err"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/sync_io"
)

var (
	settingsMu sync.Mutex
	settings   = config.NewViper()
)

// Settings is the viper instance shared by the root command and every verb.
func Settings() *viper.Viper {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	return settings
}

// ResetSettings replaces the shared instance with a fresh one.
func ResetSettings() *viper.Viper {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	settings = config.NewViper()
	return settings
}

// StackContainer is the resolved configuration and sync stack for one command.
type StackContainer struct {
	Config *config.Config
	Stack  *bootstrap.Stack
	ctx    context.Context
	logger *zap.Logger
}

// NewStackContainer loads and validates configuration from Settings and
// builds the sync stack.
func NewStackContainer(rc *sync_io.RuntimeContext, opts ...bootstrap.Option) (*StackContainer, error) {
	log := rc.Log.Named("stack")

	cfg, err := config.Load(Settings())
	if err != nil {
		return nil, sync_err.NewConfigError("invalid configuration", sync_err.WrapConfigError(err),
			"Run `stretchsync config show` to see the resolved values")
	}
	logger.SetLevel(logger.ParseLogLevel(cfg.LogLevel))

	stack, err := bootstrap.New(cfg, opts...)
	if err != nil {
		return nil, sync_err.NewConfigError("failed to build sync stack", err)
	}

	log.Debug("Sync stack ready",
		zap.String("project", cfg.Project),
		zap.String("base_url", cfg.ResolvedBaseURL()),
		zap.String("envelope", string(cfg.EnvelopeShape())))

	return &StackContainer{
		Config: cfg,
		Stack:  stack,
		ctx:    rc.Ctx,
		logger: log,
	}, nil
}

// Target parses a resource path argument.
func (c *StackContainer) Target(path string) (bootstrap.Target, error) {
	t, err := bootstrap.ParseTarget(path)
	if err != nil {
		return bootstrap.Target{}, sync_err.NewValidationError(err.Error(),
			"Collections have an odd number of segments (people, groups/1/people)",
			"Resources add an id (people/1)")
	}
	return t, nil
}

// Fetch reads the target: a collection read returns the member attributes,
// a resource read returns the resource attributes.
func (c *StackContainer) Fetch(t bootstrap.Target, params map[string]any) (any, error) {
	if t.IsCollection() {
		coll := c.Stack.Collection(t.Collection, params)
		if err := coll.Fetch(c.ctx, nil); err != nil {
			return nil, c.classify(err, "read "+t.Collection)
		}
		items := make([]map[string]any, 0, coll.Len())
		for _, m := range coll.Models() {
			items = append(items, m.Attributes())
		}
		c.logger.Debug("Collection read", zap.String("path", t.Collection), zap.Int("count", len(items)))
		return items, nil
	}

	m := c.Stack.Model(t, nil, params)
	if err := m.Fetch(c.ctx, nil); err != nil {
		return nil, c.classify(err, "read "+m.URL())
	}
	return m.Attributes(), nil
}

// Create adds a resource to the target collection and returns its attributes.
func (c *StackContainer) Create(t bootstrap.Target, attrs map[string]any) (map[string]any, error) {
	if !t.IsCollection() {
		return nil, sync_err.NewValidationError("create needs a collection path, got resource "+t.ID,
			"Drop the id; the server assigns one")
	}
	m, err := c.Stack.Collection(t.Collection, nil).Create(c.ctx, attrs, nil)
	if err != nil {
		return nil, c.classify(err, "create in "+t.Collection)
	}
	return m.Attributes(), nil
}

// Update replaces the target resource with attrs, or merges them when patch
// is set. The returned map is the local state after the server's delta.
func (c *StackContainer) Update(t bootstrap.Target, attrs map[string]any, patch bool) (map[string]any, error) {
	if t.IsCollection() {
		return nil, sync_err.NewValidationError("update needs a resource path such as people/1")
	}
	if len(attrs) == 0 {
		return nil, sync_err.NewValidationError("nothing to update", "Pass at least one --set key=value")
	}
	m := c.Stack.Model(t, nil, nil)
	if err := m.Save(c.ctx, attrs, &entity.Options{Patch: patch}); err != nil {
		return nil, c.classify(err, "update "+m.URL())
	}
	return m.Attributes(), nil
}

// Delete removes the target resource, or every resource of a collection
// when all is set.
func (c *StackContainer) Delete(t bootstrap.Target, all bool) error {
	if t.IsCollection() {
		if !all {
			return sync_err.NewValidationError("refusing to delete collection "+t.Collection,
				"Pass --all to delete every resource in it")
		}
		coll := c.Stack.Collection(t.Collection, nil)
		if err := c.Stack.Router.Sync(c.ctx, entity.MethodDelete, coll, nil); err != nil {
			return c.classify(err, "delete "+t.Collection)
		}
		return nil
	}

	m := c.Stack.Model(t, nil, nil)
	if err := m.Destroy(c.ctx, nil); err != nil {
		return c.classify(err, "delete "+m.URL())
	}
	return nil
}

func (c *StackContainer) classify(err error, op string) error {
	c.logger.Debug("Sync failed", zap.String("operation", op), zap.Error(err))
	classified := sync_err.ClassifyError(err, op)
	var ce *sync_err.ClassifiedError
	if cerr.As(classified, &ce) {
		return classified
	}
	return cerr.Wrap(err, op)
}
