package chainlist

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	dto "token-data-service/internal/adapter/storage/chainlist/dto"
)

const chainsFixture = `[
	{
		"name": "Ethereum Mainnet",
		"chain": "ETH",
		"chainId": 1,
		"rpc": [
			"https://mainnet.infura.io/v3/${INFURA_API_KEY}",
			"https://ethereum-rpc.publicnode.com",
			{"url": "wss://ethereum-rpc.publicnode.com", "tracking": "none"},
			"https://ethereum-rpc.publicnode.com",
			"not a url"
		],
		"explorers": [{"name": "etherscan", "url": "https://etherscan.io", "standard": "EIP3091"}]
	},
	{
		"name": "Sepolia",
		"chain": "ETH",
		"chainId": 11155111,
		"rpc": ["https://rpc.sepolia.org"]
	}
]`

func decodeFixture(t *testing.T) []dto.ChainRaw {
	t.Helper()
	var raw []dto.ChainRaw
	require.NoError(t, json.Unmarshal([]byte(chainsFixture), &raw))
	return raw
}

func TestRPCRaw_AcceptsStringAndObject(t *testing.T) {
	raw := decodeFixture(t)
	require.Len(t, raw, 2)
	require.Len(t, raw[0].RPC, 5)
	assert.Equal(t, "https://ethereum-rpc.publicnode.com", raw[0].RPC[1].URL)
	assert.Equal(t, "wss://ethereum-rpc.publicnode.com", raw[0].RPC[2].URL)
	assert.Equal(t, "none", raw[0].RPC[2].Tracking)
}

func TestPublicRPCs(t *testing.T) {
	raw := decodeFixture(t)

	assert.Equal(t, []string{
		"https://ethereum-rpc.publicnode.com",
		"wss://ethereum-rpc.publicnode.com",
	}, publicRPCs(raw, 1, zap.NewNop()))
	assert.Equal(t, []string{"https://rpc.sepolia.org"}, publicRPCs(raw, 11155111, zap.NewNop()))
	assert.Nil(t, publicRPCs(raw, 137, zap.NewNop()))
}
