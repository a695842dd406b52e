package ledger

import (
	"encoding/hex"
	"fmt"

	"github.com/vmihailenco/msgpack/v4"
	"golang.org/x/crypto/sha3"
)

// Identifier is the content hash identifying blocks, batches and transactions.
type Identifier [32]byte

// StateCommitment is the root hash of the committed world state.
type StateCommitment [32]byte

var (
	// ZeroID is the lowest value in the 32-byte ID space.
	ZeroID = Identifier{}

	// EmptyStateCommitment is the root of the empty state.
	EmptyStateCommitment = StateCommitment{}
)

// HexStringToIdentifier converts a hex string to an identifier. The input
// must be 64 characters long and contain only valid hex characters.
func HexStringToIdentifier(hexString string) (Identifier, error) {
	var identifier Identifier
	i, err := hex.Decode(identifier[:], []byte(hexString))
	if err != nil {
		return identifier, err
	}
	if i != 32 {
		return identifier, fmt.Errorf("malformed input, expected 32 bytes (64 characters), decoded %d", i)
	}
	return identifier, nil
}

// String returns the hex string representation of the identifier.
func (id Identifier) String() string {
	return hex.EncodeToString(id[:])
}

// Less orders identifiers lexicographically.
func (id Identifier) Less(other Identifier) bool {
	for i := range id {
		if id[i] != other[i] {
			return id[i] < other[i]
		}
	}
	return false
}

func (sc StateCommitment) String() string {
	return hex.EncodeToString(sc[:])
}

// MakeID creates an ID from the msgpack encoding of the given entity.
func MakeID(entity interface{}) Identifier {
	data, err := msgpack.Marshal(entity)
	if err != nil {
		panic(fmt.Sprintf("could not encode entity for hashing: %v", err))
	}
	return HashToID(data)
}

// HashToID hashes the given bytes with SHA3-256.
func HashToID(data []byte) Identifier {
	return Identifier(sha3.Sum256(data))
}

// HashToCommitment hashes the given bytes with SHA3-256 into a state commitment.
func HashToCommitment(data []byte) StateCommitment {
	return StateCommitment(sha3.Sum256(data))
}
