package ledger

import (
	"github.com/vmihailenco/msgpack/v4"
)

// BlockHeader holds the hashed fields of a block.
type BlockHeader struct {
	PreviousID      Identifier
	Height          uint64
	SignerPublicKey []byte
	StateRoot       StateCommitment
	BatchIDs        []Identifier
	Consensus       []byte
}

// ID returns the content hash of the header.
func (h *BlockHeader) ID() Identifier {
	return MakeID(h)
}

// Encode returns the canonical bytes of the header, which is what a block
// producer signs.
func (h *BlockHeader) Encode() []byte {
	data, err := msgpack.Marshal(h)
	if err != nil {
		panic(err)
	}
	return data
}

// Block is one link in the ledger chain. The signature is excluded from the
// block ID, so the ID is known before signing.
type Block struct {
	Header    BlockHeader
	Batches   []*Batch
	Signature []byte
}

// ID returns the ID of the block's header.
func (b *Block) ID() Identifier {
	return b.Header.ID()
}

// StateRoot returns the state commitment of the block.
func (b *Block) StateRoot() StateCommitment {
	return b.Header.StateRoot
}

// Height returns the block number.
func (b *Block) Height() uint64 {
	return b.Header.Height
}

// PreviousID returns the ID of the parent block.
func (b *Block) PreviousID() Identifier {
	return b.Header.PreviousID
}

// PayloadMatches checks that the header commits to exactly the batches
// carried by the block.
func (b *Block) PayloadMatches() bool {
	if len(b.Header.BatchIDs) != len(b.Batches) {
		return false
	}
	for i, batch := range b.Batches {
		if batch.ID() != b.Header.BatchIDs[i] {
			return false
		}
	}
	return true
}

// Genesis builds the height-0 block committing to the given state root.
func Genesis(root StateCommitment) *Block {
	return &Block{
		Header: BlockHeader{
			PreviousID: ZeroID,
			Height:     0,
			StateRoot:  root,
			BatchIDs:   []Identifier{},
		},
		Batches: []*Batch{},
	}
}
