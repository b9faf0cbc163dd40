package charm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Lifecycle(t *testing.T) {
	next, ok := StatusDraft.Next()
	require.True(t, ok)
	assert.Equal(t, StatusReadyToBroadcast, next)

	next, ok = StatusReadyToBroadcast.Next()
	require.True(t, ok)
	assert.Equal(t, StatusMinted, next)

	next, ok = StatusMinted.Next()
	require.True(t, ok)
	assert.Equal(t, StatusBeamed, next)

	_, ok = StatusBeamed.Next()
	assert.False(t, ok)
}

func TestStatus_TransientLabelsNeverAdvance(t *testing.T) {
	for _, s := range []Status{StatusProving, StatusBeaming} {
		assert.Equal(t, -1, s.Rank())
		_, ok := s.Next()
		assert.False(t, ok, s)
	}
}

func TestStatus_CanAdvanceTo(t *testing.T) {
	assert.True(t, StatusDraft.CanAdvanceTo(StatusReadyToBroadcast))
	assert.False(t, StatusDraft.CanAdvanceTo(StatusMinted), "skipping a phase")
	assert.False(t, StatusMinted.CanAdvanceTo(StatusDraft), "reversing")
	assert.False(t, StatusBeamed.CanAdvanceTo(StatusBeamed))
}

func TestTitleFromPrompt(t *testing.T) {
	assert.Equal(t, "short", TitleFromPrompt("short"))

	exact := "123456789012345678901234567890"
	assert.Equal(t, exact, TitleFromPrompt(exact))

	long := exact + "x"
	assert.Equal(t, exact+"...", TitleFromPrompt(long))
}

func TestParseTypeAndChain(t *testing.T) {
	ty, err := ParseType("xbtc")
	require.NoError(t, err)
	assert.Equal(t, TypeXBTC, ty)

	_, err = ParseType("nft")
	assert.Error(t, err)

	ch, err := ParseChain(" cardano ")
	require.NoError(t, err)
	assert.Equal(t, ChainCardano, ch)

	_, err = ParseChain("Ethereum")
	assert.Error(t, err)
}

func TestClone_DoesNotAliasSources(t *testing.T) {
	c := Charm{Sources: []Source{{URI: "https://a", Title: "A"}}}
	cp := c.Clone()
	cp.Sources[0].Title = "changed"
	assert.Equal(t, "A", c.Sources[0].Title)
}

func TestAppID(t *testing.T) {
	assert.Len(t, AppID(), 64)
	assert.Equal(t, AppID(), AppID())
	assert.Equal(t, OwnerAddress, DefaultWallet().ChangeAddress)
}
