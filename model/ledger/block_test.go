package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainforge/validator/model/ledger"
	"github.com/chainforge/validator/utils/unittest"
)

// TestBlockID_ExcludesSignature verifies that signing a block does not change its ID.
func TestBlockID_ExcludesSignature(t *testing.T) {
	block := unittest.BlockFixture()
	id := block.ID()

	block.Signature = []byte("signature")
	assert.Equal(t, id, block.ID())

	block.Header.Height++
	assert.NotEqual(t, id, block.ID())
}

func TestBlock_PayloadMatches(t *testing.T) {
	block := unittest.BlockFixture()
	require.True(t, block.PayloadMatches())

	block.Batches = append(block.Batches, unittest.BatchFixture())
	assert.False(t, block.PayloadMatches())
}

func TestHexStringToIdentifier(t *testing.T) {
	id := unittest.IdentifierFixture()

	parsed, err := ledger.HexStringToIdentifier(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ledger.HexStringToIdentifier("abcd")
	assert.Error(t, err)
}

func TestIdentifier_Less(t *testing.T) {
	low := ledger.Identifier{0x01}
	high := ledger.Identifier{0x02}

	assert.True(t, low.Less(high))
	assert.False(t, high.Less(low))
	assert.False(t, low.Less(low))
}
