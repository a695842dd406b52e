package operation

import (
	"encoding/binary"
	"fmt"

	"github.com/chainforge/validator/model/ledger"
)

const (
	// codes for special database markers
	codeChainHead = 1

	// codes for entities
	codeBlock = 10

	// codes for indexes
	codeHeightToBlock = 20
)

func makePrefix(code byte, keys ...interface{}) []byte {
	prefix := make([]byte, 1)
	prefix[0] = code
	for _, key := range keys {
		prefix = append(prefix, b(key)...)
	}
	return prefix
}

func b(v interface{}) []byte {
	switch i := v.(type) {
	case uint8:
		return []byte{i}
	case uint64:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, i)
		return b
	case ledger.Identifier:
		return i[:]
	default:
		panic(fmt.Sprintf("unsupported type to convert (%T)", v))
	}
}
