// Package settings holds the process-wide ring configuration owned by the
// controller service.
package settings

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/pccr10001/ringline/internal/model"
	"github.com/pccr10001/ringline/pkg/logger"
)

var ErrInvalidConfig = errors.New("invalid ring config")

type Fetcher interface {
	FetchConfig(ctx context.Context) (model.RingConfig, error)
}

// Cache is replaced wholesale by Refresh and read as immutable snapshots.
type Cache struct {
	current atomic.Pointer[model.RingConfig]
	fetcher Fetcher
}

func NewCache(fetcher Fetcher) *Cache {
	c := &Cache{fetcher: fetcher}
	def := model.DefaultRingConfig()
	c.current.Store(&def)
	return c
}

// Get returns a copy; callers never see a later refresh mid-use.
func (c *Cache) Get() model.RingConfig {
	return *c.current.Load()
}

// Replace installs cfg as the whole config after validating it.
func (c *Cache) Replace(cfg model.RingConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	c.current.Store(&cfg)
	return nil
}

// Refresh fetches GET /config and replaces the cache. On any failure the
// previous config stays in place.
func (c *Cache) Refresh(ctx context.Context) error {
	cfg, err := c.fetcher.FetchConfig(ctx)
	if err != nil {
		logger.Log.Errorf("Failed to get config: %v", err)
		return err
	}
	if err := c.Replace(cfg); err != nil {
		logger.Log.Errorf("Rejected config from server: %v", err)
		return err
	}
	logger.Log.Infof("Received config: %+v", cfg)
	return nil
}
