package loopback

import (
	"github.com/rs/zerolog"

	"github.com/chainforge/validator/model/ledger"
	"github.com/chainforge/validator/module"
)

// BlockReceiver accepts blocks from the network.
type BlockReceiver interface {
	OnBlockReceived(block *ledger.Block) error
}

// Sender stands in for the network of a single-node deployment: blocks are
// delivered back to the local receiver, batches are not sent anywhere.
type Sender struct {
	log      zerolog.Logger
	receiver BlockReceiver
}

var _ module.BlockSender = (*Sender)(nil)
var _ module.BatchSender = (*Sender)(nil)

func NewSender(log zerolog.Logger) *Sender {
	return &Sender{log: log.With().Str("component", "loopback_sender").Logger()}
}

// Connect sets the receiver. It must be called before the first block is sent.
func (s *Sender) Connect(receiver BlockReceiver) {
	s.receiver = receiver
}

func (s *Sender) SendBlock(block *ledger.Block) {
	if s.receiver == nil {
		s.log.Warn().Msg("dropping block, no receiver connected")
		return
	}
	err := s.receiver.OnBlockReceived(block)
	if err != nil {
		blockID := block.ID()
		s.log.Error().Err(err).Hex("block_id", blockID[:]).Msg("could not deliver block")
	}
}

func (s *Sender) SendBatch(batch *ledger.Batch) {
	batchID := batch.ID()
	s.log.Debug().Hex("batch_id", batchID[:]).Msg("no peers to send batch to")
}
