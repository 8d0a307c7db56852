package wallet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmbot/gofarm/pkg/persistence"
)

func TestNewRandomProducesValidRecord(t *testing.T) {
	rec, err := NewRandom()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rec.Address, "0x"))
	assert.Len(t, rec.PrivateKey, 64, "32-byte key hex encoded")
	assert.True(t, strings.HasPrefix(rec.SocialHandle, "farmer_"))
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestHDGeneratorIsDeterministic(t *testing.T) {
	// standard test mnemonic; index 0 has a well-known address
	const mnemonic = "tag volcano eight thank tide danger coast health above argue embrace heavy"

	g, err := NewHDGenerator(mnemonic)
	require.NoError(t, err)

	rec, err := g.Derive(0)
	require.NoError(t, err)
	assert.Equal(t, "0xC49926C4124cEe1cbA0Ea94Ea31a6c12318df947", rec.Address)

	g2, err := NewHDGenerator(mnemonic)
	require.NoError(t, err)
	rec2, err := g2.Derive(0)
	require.NoError(t, err)
	assert.Equal(t, rec.PrivateKey, rec2.PrivateKey)

	other, err := g.Derive(1)
	require.NoError(t, err)
	assert.NotEqual(t, rec.Address, other.Address)
}

func TestStoreRoundtripAndHandleLookup(t *testing.T) {
	svc := persistence.NewJSONFileService(t.TempDir())
	store, err := NewStore(svc.NewStore("wallets"), nil)
	require.NoError(t, err)

	rec, err := NewRandom()
	require.NoError(t, err)
	require.NoError(t, store.Add(rec))

	// lookup is case-insensitive on the address
	assert.Equal(t, rec.SocialHandle, store.HandleFor(strings.ToUpper(rec.Address)))

	// a fresh store instance sees the persisted record
	store2, err := NewStore(svc.NewStore("wallets"), nil)
	require.NoError(t, err)
	got, ok := store2.Get(rec.Address)
	require.True(t, ok)
	assert.Equal(t, rec.PrivateKey, got.PrivateKey)
	assert.Equal(t, 1, store2.Size())
}
