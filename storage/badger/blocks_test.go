package badger_test

import (
	"errors"
	"testing"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainforge/validator/model/ledger"
	"github.com/chainforge/validator/storage"
	badgerstorage "github.com/chainforge/validator/storage/badger"
	"github.com/chainforge/validator/utils/unittest"
)

func TestBlocks_StoreAndRetrieve(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		blocks := badgerstorage.NewBlocks(db)
		block := unittest.BlockFixture()

		require.NoError(t, blocks.Store(block))
		// storing again is a no-op
		require.NoError(t, blocks.Store(block))

		retrieved, err := blocks.ByID(block.ID())
		require.NoError(t, err)
		assert.Equal(t, block.ID(), retrieved.ID())
		assert.Equal(t, block.Signature, retrieved.Signature)
		require.Len(t, retrieved.Batches, len(block.Batches))
		assert.Equal(t, block.Batches[0].ID(), retrieved.Batches[0].ID())
	})
}

func TestBlocks_NotFound(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		blocks := badgerstorage.NewBlocks(db)

		_, err := blocks.ByID(unittest.IdentifierFixture())
		assert.True(t, errors.Is(err, storage.ErrNotFound))

		_, err = blocks.ChainHead()
		assert.True(t, errors.Is(err, storage.ErrNotFound))
	})
}

// TestBlocks_ChainHead verifies moving the head pointer along a chain and onto a fork.
func TestBlocks_ChainHead(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		blocks := badgerstorage.NewBlocks(db)

		genesis := ledger.Genesis(unittest.StateCommitmentFixture())
		require.NoError(t, blocks.Store(genesis))
		require.NoError(t, blocks.SetChainHead(genesis.ID()))

		chain := unittest.ChainFixture(genesis, 3)
		for _, block := range chain {
			require.NoError(t, blocks.Store(block))
		}
		require.NoError(t, blocks.SetChainHead(chain[2].ID()))

		head, err := blocks.ChainHead()
		require.NoError(t, err)
		assert.Equal(t, chain[2].ID(), head.ID())

		for _, block := range chain {
			byHeight, err := blocks.ByHeight(block.Height())
			require.NoError(t, err)
			assert.Equal(t, block.ID(), byHeight.ID())
		}

		// switch to a longer fork branching off chain[0]
		fork := unittest.ChainFixture(chain[0], 3)
		for _, block := range fork {
			require.NoError(t, blocks.Store(block))
		}
		require.NoError(t, blocks.SetChainHead(fork[2].ID()))

		for _, block := range fork {
			byHeight, err := blocks.ByHeight(block.Height())
			require.NoError(t, err)
			assert.Equal(t, block.ID(), byHeight.ID())
		}
		byHeight, err := blocks.ByHeight(chain[0].Height())
		require.NoError(t, err)
		assert.Equal(t, chain[0].ID(), byHeight.ID())
	})
}

func TestBlocks_SetChainHeadUnknownBlock(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		blocks := badgerstorage.NewBlocks(db)
		err := blocks.SetChainHead(unittest.IdentifierFixture())
		assert.True(t, errors.Is(err, storage.ErrNotFound))
	})
}
