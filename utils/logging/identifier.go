package logging

import (
	"github.com/chainforge/validator/model/ledger"
)

// ID returns the raw bytes of a block's ID, for use with zerolog's Hex.
func ID(block *ledger.Block) []byte {
	id := block.ID()
	return id[:]
}

func IDs(ids []ledger.Identifier) []string {
	ss := make([]string, 0, len(ids))
	for _, id := range ids {
		ss = append(ss, id.String())
	}
	return ss
}
