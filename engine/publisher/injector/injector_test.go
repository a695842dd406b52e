package injector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v4"

	"github.com/chainforge/validator/module/signer"
	"github.com/chainforge/validator/module/state"
	"github.com/chainforge/validator/utils/unittest"
)

func TestFactory_NoSetting(t *testing.T) {
	s, err := signer.GenerateSigner()
	require.NoError(t, err)
	factory := NewFactory(unittest.Logger(), state.NewViewFactory(nil), s)

	injectors, err := factory.CreateInjectors(unittest.BlockFixture())
	require.NoError(t, err)
	assert.Empty(t, injectors)
}

func TestFactory_BlockInfo(t *testing.T) {
	s, err := signer.GenerateSigner()
	require.NoError(t, err)
	views := state.NewViewFactory(nil)
	previous := unittest.BlockFixture()
	require.NoError(t, views.Put(previous.StateRoot(), BatchInjectorsSetting, []byte(" block_info, unknown,")))

	factory := NewFactory(unittest.Logger(), views, s)
	factory.now = func() time.Time { return time.Unix(1700000000, 0) }

	injectors, err := factory.CreateInjectors(previous)
	require.NoError(t, err)
	require.Len(t, injectors, 1)

	batches, err := injectors[0].BlockStart(previous)
	require.NoError(t, err)
	require.Len(t, batches, 1)

	batch := batches[0]
	assert.Equal(t, s.PublicKey(), batch.SignerPublicKey)
	require.Len(t, batch.Transactions, 1)

	ids, err := msgpack.Marshal(batch.TransactionIDs())
	require.NoError(t, err)
	assert.True(t, signer.Verify(s.PublicKey(), ids, batch.Signature))

	var payload BlockInfoPayload
	require.NoError(t, msgpack.Unmarshal(batch.Transactions[0].Payload, &payload))
	assert.Equal(t, previous.Height(), payload.BlockNum)
	assert.Equal(t, previous.ID(), payload.PreviousBlockID)
	assert.Equal(t, int64(1700000000), payload.Timestamp)

	var header TransactionHeader
	require.NoError(t, msgpack.Unmarshal(batch.Transactions[0].Header, &header))
	assert.Equal(t, blockInfoFamily, header.FamilyName)
}
