package chain

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chainforge/validator/model/ledger"
	"github.com/chainforge/validator/module"
	"github.com/chainforge/validator/module/blockcache"
	"github.com/chainforge/validator/module/chainid"
	"github.com/chainforge/validator/module/execution"
	"github.com/chainforge/validator/module/executor"
	"github.com/chainforge/validator/module/irrecoverable"
	"github.com/chainforge/validator/module/metrics"
	mockmodule "github.com/chainforge/validator/module/mock"
	"github.com/chainforge/validator/module/permission"
	"github.com/chainforge/validator/module/queue"
	"github.com/chainforge/validator/module/signer"
	"github.com/chainforge/validator/storage"
	badgerstorage "github.com/chainforge/validator/storage/badger"
	"github.com/chainforge/validator/utils/unittest"
)

// failingStore fails every write after the genesis block was set up.
type failingStore struct {
	storage.Blocks
	err error
}

func (s *failingStore) Store(*ledger.Block) error {
	return s.err
}

type engineFixture struct {
	blocks      storage.Blocks
	genesis     *ledger.Block
	signer      *signer.Secp256k1Signer
	executor    *executor.SerialExecutor
	blockQueue  *queue.BlockQueue
	blockSender *mockmodule.BlockSender
	dir         string
}

func runWithEngineFixture(t *testing.T, f func(*engineFixture)) {
	unittest.RunWithTempDir(t, func(dir string) {
		db := unittest.BadgerDB(t, dir)
		defer db.Close()

		blocks := badgerstorage.NewBlocks(db)
		genesis := ledger.Genesis(ledger.EmptyStateCommitment)
		require.NoError(t, blocks.Store(genesis))
		require.NoError(t, blocks.SetChainHead(genesis.ID()))

		s, err := signer.GenerateSigner()
		require.NoError(t, err)
		blockQueue, err := queue.NewBlockQueue(nil)
		require.NoError(t, err)

		exec := executor.NewSerialExecutor(unittest.Logger())
		defer exec.Close()

		f(&engineFixture{
			blocks:      blocks,
			genesis:     genesis,
			signer:      s,
			executor:    exec,
			blockQueue:  blockQueue,
			blockSender: mockmodule.NewBlockSender(t),
			dir:         dir,
		})
	})
}

func (ef *engineFixture) newEngine(t *testing.T) *Engine {
	eng, err := NewEngine(module.ChainControllerParams{
		Log:                 unittest.Logger(),
		BlockSender:         ef.blockSender,
		BlockCache:          blockcache.New(unittest.Logger(), ef.blocks, metrics.NewNoopCollector(), blockcache.DefaultKeepTime, blockcache.DefaultPurgeFrequency),
		BlockStore:          ef.blocks,
		BlockQueue:          ef.blockQueue,
		Executor:            ef.executor,
		TransactionExecutor: execution.NewHashChainExecutor(),
		ChainHeadLock:       &sync.Mutex{},
		SquashHandler:       execution.IdentitySquash,
		ChainIDManager:      chainid.NewFileManager(ef.dir),
		PermissionVerifier:  permission.AllowAll{},
		Metrics:             metrics.NewNoopCollector(),
	})
	require.NoError(t, err)
	return eng
}

func TestEngine_ProcessesQueuedBlocks(t *testing.T) {
	runWithEngineFixture(t, func(ef *engineFixture) {
		chain := make([]*ledger.Block, 0, 5)
		parent := ef.genesis
		for i := 0; i < 5; i++ {
			block := buildBlock(t, ef.signer, execution.NewHashChainExecutor(), parent, unittest.BatchFixture())
			chain = append(chain, block)
			parent = block
		}
		ef.blockSender.On("SendBlock", mock.Anything).Times(len(chain))

		eng := ef.newEngine(t)
		ctx, cancel := irrecoverable.NewMockSignalerContextWithCancel(t, context.Background())
		eng.Start(ctx)
		unittest.RequireCloseBefore(t, eng.Ready(), time.Second, "engine did not start")

		for _, block := range chain {
			require.True(t, ef.blockQueue.Put(block))
		}

		require.Eventually(t, func() bool {
			return eng.ChainHead().ID() == chain[len(chain)-1].ID()
		}, 2*time.Second, 10*time.Millisecond)

		cancel()
		unittest.RequireCloseBefore(t, eng.Done(), time.Second, "engine did not stop")
	})
}

// TestEngine_KeepsBlocksWhileExecutorShutDown checks that blocks are not lost when
// the executor rejects them, and that the next engine picks them up.
func TestEngine_KeepsBlocksWhileExecutorShutDown(t *testing.T) {
	runWithEngineFixture(t, func(ef *engineFixture) {
		block := buildBlock(t, ef.signer, execution.NewHashChainExecutor(), ef.genesis, unittest.BatchFixture())

		ef.executor.Shutdown()
		eng := ef.newEngine(t)
		ctx, cancel := irrecoverable.NewMockSignalerContextWithCancel(t, context.Background())
		eng.Start(ctx)
		unittest.RequireCloseBefore(t, eng.Ready(), time.Second, "engine did not start")

		require.True(t, ef.blockQueue.Put(block))
		require.Never(t, func() bool {
			return ef.blockQueue.Len() != 1
		}, 100*time.Millisecond, 10*time.Millisecond)

		cancel()
		unittest.RequireCloseBefore(t, eng.Done(), time.Second, "engine did not stop")

		ef.blockSender.On("SendBlock", block).Once()
		ef.executor.Resume()
		restarted := ef.newEngine(t)
		ctx, cancel = irrecoverable.NewMockSignalerContextWithCancel(t, context.Background())
		defer cancel()
		restarted.Start(ctx)

		require.Eventually(t, func() bool {
			return restarted.ChainHead().ID() == block.ID()
		}, 2*time.Second, 10*time.Millisecond)
		require.Equal(t, 0, ef.blockQueue.Len())
	})
}

// TestEngine_ThrowsStorageFailures checks that a failing block store is escalated as irrecoverable.
func TestEngine_ThrowsStorageFailures(t *testing.T) {
	runWithEngineFixture(t, func(ef *engineFixture) {
		block := buildBlock(t, ef.signer, execution.NewHashChainExecutor(), ef.genesis, unittest.BatchFixture())
		expected := errors.New("disk on fire")
		ef.blocks = &failingStore{Blocks: ef.blocks, err: expected}

		eng := ef.newEngine(t)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		signalerCtx, errChan := irrecoverable.WithSignaler(ctx)
		eng.Start(signalerCtx)

		require.True(t, ef.blockQueue.Put(block))

		select {
		case err := <-errChan:
			require.ErrorIs(t, err, expected)
		case <-time.After(2 * time.Second):
			require.Fail(t, "expected irrecoverable error")
		}
		unittest.RequireCloseBefore(t, eng.Done(), time.Second, "engine did not stop after failure")
	})
}
