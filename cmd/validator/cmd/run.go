package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chainforge/validator/engine/publisher/injector"
	"github.com/chainforge/validator/journal"
	"github.com/chainforge/validator/model/ledger"
	"github.com/chainforge/validator/module/chainid"
	"github.com/chainforge/validator/module/execution"
	"github.com/chainforge/validator/module/metrics"
	"github.com/chainforge/validator/module/permission"
	"github.com/chainforge/validator/module/signer"
	"github.com/chainforge/validator/module/state"
	"github.com/chainforge/validator/network/loopback"
	"github.com/chainforge/validator/storage"
	badgerstorage "github.com/chainforge/validator/storage/badger"
	"github.com/chainforge/validator/utils/io"
)

// a previous process may still be releasing the data directory on restart
const (
	lockRetries       = 10
	lockRetryInterval = 500 * time.Millisecond
)

func run(*cobra.Command, []string) error {
	level, err := zerolog.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Str("node", "validator").Logger()

	dataDir := viper.GetString("data-dir")
	lock := io.NewFileLock(dataDir)
	if err := lock.LockWithRetry(context.Background(), lockRetries, lockRetryInterval); err != nil {
		return err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn().Err(err).Msg("could not release data directory lock")
		}
	}()

	db, err := badger.Open(badger.DefaultOptions(filepath.Join(dataDir, "blocks")).WithLogger(nil))
	if err != nil {
		return fmt.Errorf("could not open block store: %w", err)
	}
	defer db.Close()

	blocks := badgerstorage.NewBlocks(db)
	if err := ensureGenesis(log, blocks); err != nil {
		return err
	}

	nodeSigner, err := loadSigner(log, dataDir, viper.GetString("key-file"))
	if err != nil {
		return err
	}

	views := state.NewViewFactory(nil)
	if injectors := viper.GetStringSlice("batch-injectors"); len(injectors) > 0 {
		err = views.PutSetting(injector.BatchInjectorsSetting, []byte(strings.Join(injectors, ",")))
		if err != nil {
			return fmt.Errorf("could not seed settings: %w", err)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	sender := loopback.NewSender(log)
	j, err := journal.New(log, journal.Dependencies{
		BlockStore:          blocks,
		StateViewFactory:    views,
		BlockSender:         sender,
		BatchSender:         sender,
		TransactionExecutor: execution.NewHashChainExecutor(),
		SquashHandler:       execution.IdentitySquash,
		Signer:              nodeSigner,
		ChainIDManager:      chainid.NewFileManager(dataDir),
		PermissionVerifier:  permission.NewSettingsVerifier(log, views),
		MetricsRegisterer:   registry,
	},
		journal.WithDataDir(dataDir),
		journal.WithConfigDir(viper.GetString("config-dir")),
		journal.WithCheckPublishBlockFrequency(viper.GetDuration("publish-frequency")),
		journal.WithBlockCachePurgeFrequency(viper.GetDuration("cache-purge-frequency")),
		journal.WithBlockCacheKeepTime(viper.GetDuration("cache-keep-time")),
	)
	if err != nil {
		return fmt.Errorf("could not create journal: %w", err)
	}
	sender.Connect(j)

	if addr := viper.GetString("metrics-addr"); addr != "" {
		server := metrics.NewServer(log, addr, registry)
		<-server.Ready()
		defer func() { <-server.Done() }()
	}

	if err := j.Start(); err != nil {
		return fmt.Errorf("could not start journal: %w", err)
	}
	defer j.Close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	received := <-sig
	log.Info().Str("signal", received.String()).Msg("shutting down")
	return nil
}

// ensureGenesis initializes an empty block store with the genesis block.
func ensureGenesis(log zerolog.Logger, blocks *badgerstorage.Blocks) error {
	head, err := blocks.ChainHead()
	if err == nil {
		log.Info().Uint64("height", head.Height()).Msg("found existing chain")
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("could not read chain head: %w", err)
	}

	genesis := ledger.Genesis(ledger.EmptyStateCommitment)
	if err := blocks.Store(genesis); err != nil {
		return fmt.Errorf("could not store genesis block: %w", err)
	}
	if err := blocks.SetChainHead(genesis.ID()); err != nil {
		return fmt.Errorf("could not set genesis chain head: %w", err)
	}
	genesisID := genesis.ID()
	log.Info().Hex("genesis_id", genesisID[:]).Msg("initialized new chain")
	return nil
}

// loadSigner reads the node key, generating and storing a new one if the key
// file does not exist.
func loadSigner(log zerolog.Logger, dataDir string, keyFile string) (*signer.Secp256k1Signer, error) {
	if keyFile == "" {
		keyFile = filepath.Join(dataDir, "validator.priv")
	}
	if io.FileExists(keyFile) {
		return signer.LoadSigner(keyFile)
	}

	s, err := signer.GenerateSigner()
	if err != nil {
		return nil, err
	}
	if err := s.WriteKeyFile(keyFile); err != nil {
		return nil, fmt.Errorf("could not write key file: %w", err)
	}
	log.Info().Str("key_file", keyFile).Msg("generated new node key")
	return s, nil
}
