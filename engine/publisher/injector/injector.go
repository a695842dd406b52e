package injector

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v4"

	"github.com/chainforge/validator/model/ledger"
	"github.com/chainforge/validator/module"
	"github.com/chainforge/validator/storage"
)

const (
	// BatchInjectorsSetting names the injectors active on a chain, comma separated.
	BatchInjectorsSetting = "sawtooth.validator.batch_injectors"

	// BlockInfo is the name of the injector recording the previous block.
	BlockInfo = "block_info"

	blockInfoFamily  = "block_info"
	blockInfoVersion = "1.0"
)

// Factory creates the batch injectors configured in the on-chain settings at
// the previous block's state root.
type Factory struct {
	log        zerolog.Logger
	stateViews module.StateViewFactory
	signer     module.Signer
	now        func() time.Time
}

var _ module.BatchInjectorFactory = (*Factory)(nil)

func NewFactory(log zerolog.Logger, stateViews module.StateViewFactory, signer module.Signer) *Factory {
	return &Factory{
		log:        log.With().Str("component", "batch_injector_factory").Logger(),
		stateViews: stateViews,
		signer:     signer,
		now:        time.Now,
	}
}

func (f *Factory) CreateInjectors(previous *ledger.Block) ([]module.BatchInjector, error) {
	view, err := f.stateViews.NewStateView(previous.StateRoot())
	if err != nil {
		return nil, fmt.Errorf("could not create state view: %w", err)
	}
	value, err := view.Get(BatchInjectorsSetting)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", BatchInjectorsSetting, err)
	}

	var injectors []module.BatchInjector
	for _, name := range strings.Split(string(value), ",") {
		name = strings.TrimSpace(name)
		switch name {
		case "":
		case BlockInfo:
			injectors = append(injectors, &BlockInfoInjector{signer: f.signer, now: f.now})
		default:
			f.log.Warn().Str("injector", name).Msg("unknown batch injector, skipping")
		}
	}
	return injectors, nil
}

// TransactionHeader is the header of an injected transaction.
type TransactionHeader struct {
	FamilyName      string
	FamilyVersion   string
	SignerPublicKey []byte
}

// BlockInfoPayload records the block a new block is built on.
type BlockInfoPayload struct {
	BlockNum        uint64
	PreviousBlockID ledger.Identifier
	SignerPublicKey []byte
	HeaderSignature []byte
	Timestamp       int64
}

// BlockInfoInjector prepends a batch recording the previous block to every new block.
type BlockInfoInjector struct {
	signer module.Signer
	now    func() time.Time
}

func (b *BlockInfoInjector) BlockStart(previous *ledger.Block) ([]*ledger.Batch, error) {
	payload, err := msgpack.Marshal(&BlockInfoPayload{
		BlockNum:        previous.Height(),
		PreviousBlockID: previous.ID(),
		SignerPublicKey: previous.Header.SignerPublicKey,
		HeaderSignature: previous.Signature,
		Timestamp:       b.now().Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("could not encode block info: %w", err)
	}
	header, err := msgpack.Marshal(&TransactionHeader{
		FamilyName:      blockInfoFamily,
		FamilyVersion:   blockInfoVersion,
		SignerPublicKey: b.signer.PublicKey(),
	})
	if err != nil {
		return nil, fmt.Errorf("could not encode transaction header: %w", err)
	}
	txSignature, err := b.signer.Sign(header)
	if err != nil {
		return nil, fmt.Errorf("could not sign transaction: %w", err)
	}

	batch := &ledger.Batch{
		Transactions: []*ledger.Transaction{{
			Header:    header,
			Payload:   payload,
			Signature: txSignature,
		}},
		SignerPublicKey: b.signer.PublicKey(),
	}
	ids, err := msgpack.Marshal(batch.TransactionIDs())
	if err != nil {
		return nil, fmt.Errorf("could not encode transaction ids: %w", err)
	}
	batch.Signature, err = b.signer.Sign(ids)
	if err != nil {
		return nil, fmt.Errorf("could not sign batch: %w", err)
	}
	return []*ledger.Batch{batch}, nil
}
