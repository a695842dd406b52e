package execution

import (
	"github.com/chainforge/validator/model/ledger"
	"github.com/chainforge/validator/module"
)

// HashChainExecutor is a deterministic transaction executor that does not
// interpret transactions. Each batch advances the state root to the hash of
// the previous root and the batch ID, so any two nodes executing the same
// batches on the same root agree on the result.
type HashChainExecutor struct{}

var _ module.TransactionExecutor = (*HashChainExecutor)(nil)

func NewHashChainExecutor() *HashChainExecutor {
	return &HashChainExecutor{}
}

func (e *HashChainExecutor) Execute(root ledger.StateCommitment, batches []*ledger.Batch, squash module.SquashHandler) (ledger.StateCommitment, []*ledger.Batch, error) {
	executed := make([]*ledger.Batch, 0, len(batches))
	for _, batch := range batches {
		if len(batch.Transactions) == 0 {
			// an empty batch cannot be applied
			continue
		}
		id := batch.ID()
		next := ledger.HashToCommitment(append(root[:], id[:]...))
		if squash != nil {
			merged, err := squash(next, map[string][]byte{id.String(): root[:]})
			if err != nil {
				return root, nil, err
			}
			next = merged
		}
		root = next
		executed = append(executed, batch)
	}
	return root, executed, nil
}

// IdentitySquash accepts the proposed root unchanged.
func IdentitySquash(root ledger.StateCommitment, _ map[string][]byte) (ledger.StateCommitment, error) {
	return root, nil
}
