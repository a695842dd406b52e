package journal

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/chainforge/validator/module"
	"github.com/chainforge/validator/storage"
)

type Config struct {
	// DataDir and ConfigDir are handed through to the collaborators.
	DataDir   string
	ConfigDir string

	// CheckPublishBlockFrequency is how often the block publisher checks
	// whether a block can be built.
	CheckPublishBlockFrequency time.Duration

	// BlockCachePurgeFrequency and BlockCacheKeepTime configure the default
	// block cache. They are ignored when a block cache is supplied.
	BlockCachePurgeFrequency time.Duration
	BlockCacheKeepTime       time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		CheckPublishBlockFrequency: 100 * time.Millisecond,
		BlockCachePurgeFrequency:   30 * time.Second,
		BlockCacheKeepTime:         300 * time.Second,
	}
}

type OptionFunc func(*Config)

func WithCheckPublishBlockFrequency(frequency time.Duration) OptionFunc {
	return func(cfg *Config) {
		cfg.CheckPublishBlockFrequency = frequency
	}
}

func WithBlockCachePurgeFrequency(frequency time.Duration) OptionFunc {
	return func(cfg *Config) {
		cfg.BlockCachePurgeFrequency = frequency
	}
}

// WithBlockCacheKeepTime sets how long an unaccessed block stays in the default block cache.
func WithBlockCacheKeepTime(keepTime time.Duration) OptionFunc {
	return func(cfg *Config) {
		cfg.BlockCacheKeepTime = keepTime
	}
}

func WithDataDir(dir string) OptionFunc {
	return func(cfg *Config) {
		cfg.DataDir = dir
	}
}

func WithConfigDir(dir string) OptionFunc {
	return func(cfg *Config) {
		cfg.ConfigDir = dir
	}
}

func (c *Config) validate() error {
	var result *multierror.Error
	if c.CheckPublishBlockFrequency <= 0 {
		result = multierror.Append(result, fmt.Errorf("publish check frequency must be positive, got %s", c.CheckPublishBlockFrequency))
	}
	if c.BlockCachePurgeFrequency <= 0 {
		result = multierror.Append(result, fmt.Errorf("block cache purge frequency must be positive, got %s", c.BlockCachePurgeFrequency))
	}
	if c.BlockCacheKeepTime <= 0 {
		result = multierror.Append(result, fmt.Errorf("block cache keep time must be positive, got %s", c.BlockCacheKeepTime))
	}
	return result.ErrorOrNil()
}

// Dependencies are the collaborators shared by the block publisher and the
// chain controller. Fields below the blank line are optional and resolved to
// defaults by New.
type Dependencies struct {
	BlockStore          storage.Blocks
	StateViewFactory    module.StateViewFactory
	BlockSender         module.BlockSender
	BatchSender         module.BatchSender
	TransactionExecutor module.TransactionExecutor
	SquashHandler       module.SquashHandler
	Signer              module.Signer
	ChainIDManager      module.ChainIDManager
	PermissionVerifier  module.PermissionVerifier

	BatchObservers         []module.BatchObserver
	ChainObservers         []module.ChainObserver
	BlockCache             module.BlockCache
	MetricsRegisterer      prometheus.Registerer
	PublisherFactory       module.PublisherFactory
	ChainControllerFactory module.ChainControllerFactory
	BatchInjectorFactory   module.BatchInjectorFactory
}

func (d *Dependencies) validate() error {
	var result *multierror.Error
	missing := func(name string) {
		result = multierror.Append(result, fmt.Errorf("missing %s", name))
	}
	if d.BlockStore == nil {
		missing("block store")
	}
	if d.StateViewFactory == nil {
		missing("state view factory")
	}
	if d.BlockSender == nil {
		missing("block sender")
	}
	if d.BatchSender == nil {
		missing("batch sender")
	}
	if d.TransactionExecutor == nil {
		missing("transaction executor")
	}
	if d.SquashHandler == nil {
		missing("squash handler")
	}
	if d.Signer == nil {
		missing("signer")
	}
	if d.ChainIDManager == nil {
		missing("chain id manager")
	}
	if d.PermissionVerifier == nil {
		missing("permission verifier")
	}
	for i, observer := range d.BatchObservers {
		if observer == nil {
			result = multierror.Append(result, fmt.Errorf("batch observer %d is nil", i))
		}
	}
	for i, observer := range d.ChainObservers {
		if observer == nil {
			result = multierror.Append(result, fmt.Errorf("chain observer %d is nil", i))
		}
	}
	return result.ErrorOrNil()
}
