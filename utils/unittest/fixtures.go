package unittest

import (
	"crypto/rand"

	"github.com/chainforge/validator/model/ledger"
)

func randomBytes(n int) []byte {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return b
}

func IdentifierFixture() ledger.Identifier {
	var id ledger.Identifier
	_, _ = rand.Read(id[:])
	return id
}

func StateCommitmentFixture() ledger.StateCommitment {
	var sc ledger.StateCommitment
	_, _ = rand.Read(sc[:])
	return sc
}

func TransactionFixture() *ledger.Transaction {
	return &ledger.Transaction{
		Header:    randomBytes(32),
		Payload:   randomBytes(64),
		Signature: randomBytes(64),
	}
}

// BatchFixture returns a batch with two random transactions.
func BatchFixture() *ledger.Batch {
	return &ledger.Batch{
		Transactions:    []*ledger.Transaction{TransactionFixture(), TransactionFixture()},
		SignerPublicKey: randomBytes(33),
		Signature:       randomBytes(64),
	}
}

func BatchFixtures(n int) []*ledger.Batch {
	batches := make([]*ledger.Batch, 0, n)
	for i := 0; i < n; i++ {
		batches = append(batches, BatchFixture())
	}
	return batches
}

// BlockFixture returns a block at a random position in the chain with a
// consistent header/payload pairing.
func BlockFixture() *ledger.Block {
	return BlockWithParentFixture(&ledger.Block{
		Header: ledger.BlockHeader{
			PreviousID: IdentifierFixture(),
			Height:     10,
			StateRoot:  StateCommitmentFixture(),
		},
	})
}

func BlockFixtures(n int) []*ledger.Block {
	blocks := make([]*ledger.Block, 0, n)
	for i := 0; i < n; i++ {
		blocks = append(blocks, BlockFixture())
	}
	return blocks
}

// BlockWithParentFixture returns a block extending the given parent, carrying
// one random batch and a random state root.
func BlockWithParentFixture(parent *ledger.Block) *ledger.Block {
	batches := BatchFixtures(1)
	return &ledger.Block{
		Header: ledger.BlockHeader{
			PreviousID:      parent.ID(),
			Height:          parent.Height() + 1,
			SignerPublicKey: randomBytes(33),
			StateRoot:       StateCommitmentFixture(),
			BatchIDs:        ledger.BatchIDs(batches),
		},
		Batches:   batches,
		Signature: randomBytes(64),
	}
}

// ChainFixture returns n blocks, each extending the previous one, on top of the given parent.
func ChainFixture(parent *ledger.Block, n int) []*ledger.Block {
	blocks := make([]*ledger.Block, 0, n)
	for i := 0; i < n; i++ {
		block := BlockWithParentFixture(parent)
		blocks = append(blocks, block)
		parent = block
	}
	return blocks
}
