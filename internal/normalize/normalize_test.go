package normalize_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexrelay-systems/dexrelay/internal/fault"
	"github.com/dexrelay-systems/dexrelay/internal/model"
	"github.com/dexrelay-systems/dexrelay/internal/normalize"
)

const rawV2Template = `{
	"id": "0xfeed-3",
	"timestamp": "1700000000",
	"transaction": {"id": "0xfeed", "blockNumber": "18500000"},
	"pair": {
		"id": "0xpool2",
		"token0": {"id": "0xaaa", "symbol": "USDC", "name": "USD Coin", "decimals": "6"},
		"token1": {"id": "0xbbb", "symbol": "WETH", "name": "Wrapped Ether", "decimals": "18"},
		"reserve0": "1000000",
		"reserve1": "500",
		"volumeUSD": "12345.67"
	},
	"sender": "0xuser",
	"to": "0xuser",
	"amount0In": "%s",
	"amount1In": "%s",
	"amount0Out": "%s",
	"amount1Out": "%s",
	"amountUSD": "250.5",
	"logIndex": "3"
}`

func rawV2(amount0In, amount1In, amount0Out, amount1Out string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(rawV2Template, amount0In, amount1In, amount0Out, amount1Out))
}

const rawV3Template = `{
	"id": "0xbeef#12",
	"timestamp": "1700000100",
	"transaction": {"id": "0xbeef", "blockNumber": "18500010"},
	"pool": {
		"id": "0xpool3",
		"token0": {"id": "0xaaa", "symbol": "USDC", "name": "USD Coin", "decimals": "6"},
		"token1": {"id": "0xbbb", "symbol": "WETH", "name": "Wrapped Ether", "decimals": "18"},
		"feeTier": "3000",
		"liquidity": "987654321",
		"volumeUSD": "9999.99",
		"feesUSD": "12.34",
		"totalValueLockedUSD": "100000"
	},
	"sender": "0xrouter",
	"recipient": "0xuser",
	"origin": "0xuser",
	"amount0": "%s",
	"amount1": "%s",
	"amountUSD": "250.5",
	"sqrtPriceX96": "79228162514264337593543950336",
	"tick": "-887220",
	"logIndex": "12"
}`

func rawV3(amount0, amount1 string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(rawV3Template, amount0, amount1))
}

func TestNormalizeV2_DirectionFromNonzeroInput(t *testing.T) {
	n := normalize.New(nil)

	// token0 in, token1 out
	ev, err := n.Normalize(model.VersionV2, rawV2("100.5", "0", "0", "0.05"))
	require.NoError(t, err)
	assert.Equal(t, "USDC", ev.TokenIn.Symbol)
	assert.Equal(t, "WETH", ev.TokenOut.Symbol)
	assert.Equal(t, "100.5", ev.AmountIn)
	assert.Equal(t, "0.05", ev.AmountOut)

	// token1 in, token0 out
	ev, err = n.Normalize(model.VersionV2, rawV2("0", "0.05", "100.5", "0"))
	require.NoError(t, err)
	assert.Equal(t, "WETH", ev.TokenIn.Symbol)
	assert.Equal(t, "USDC", ev.TokenOut.Symbol)
	assert.Equal(t, "0.05", ev.AmountIn)
	assert.Equal(t, "100.5", ev.AmountOut)
}

func TestNormalizeV2_CanonicalIdentity(t *testing.T) {
	n := normalize.New(nil)

	ev, err := n.Normalize(model.VersionV2, rawV2("100.5", "0", "0", "0.05"))
	require.NoError(t, err)

	assert.Equal(t, "V2_0xfeed", ev.ID)
	assert.Equal(t, model.VersionV2, ev.Version)
	assert.Equal(t, "0xfeed", ev.TransactionHash)
	assert.Equal(t, "0xpool2", ev.PoolAddress)
	assert.Equal(t, uint64(18500000), ev.BlockNumber)
	assert.Equal(t, int64(1700000000), ev.Timestamp.Unix())
	require.NotNil(t, ev.PoolInfo)
	assert.Equal(t, "0xaaa", ev.PoolInfo.Token0)
}

func TestNormalizeV3_DirectionFromSign(t *testing.T) {
	n := normalize.New(nil)

	// positive amount0: token0 entered the pool
	ev, err := n.Normalize(model.VersionV3, rawV3("100.5", "-0.05"))
	require.NoError(t, err)
	assert.Equal(t, "USDC", ev.TokenIn.Symbol)
	assert.Equal(t, "WETH", ev.TokenOut.Symbol)
	assert.Equal(t, "100.5", ev.AmountIn)
	assert.Equal(t, "0.05", ev.AmountOut, "signs are stripped from canonical amounts")

	// negative amount0: token1 entered the pool
	ev, err = n.Normalize(model.VersionV3, rawV3("-100.5", "0.05"))
	require.NoError(t, err)
	assert.Equal(t, "WETH", ev.TokenIn.Symbol)
	assert.Equal(t, "USDC", ev.TokenOut.Symbol)
	assert.Equal(t, "0.05", ev.AmountIn)
	assert.Equal(t, "100.5", ev.AmountOut)
}

func TestNormalizeV3_PoolEnrichment(t *testing.T) {
	n := normalize.New(nil)

	ev, err := n.Normalize(model.VersionV3, rawV3("1", "-2"))
	require.NoError(t, err)

	assert.Equal(t, "V3_0xbeef", ev.ID)
	require.NotNil(t, ev.PoolInfo)
	require.NotNil(t, ev.PoolInfo.FeeTier)
	assert.Equal(t, uint32(3000), *ev.PoolInfo.FeeTier)
	require.NotNil(t, ev.PoolInfo.Liquidity)
	assert.Equal(t, "987654321", *ev.PoolInfo.Liquidity)
	require.NotNil(t, ev.AmountInUSD)
	assert.InDelta(t, 250.5, *ev.AmountInUSD, 0.001)
}

func TestNormalize_MissingNestedObjectIsStructural(t *testing.T) {
	n := normalize.New(nil)

	_, err := n.Normalize(model.VersionV2, json.RawMessage(`{"id":"x","sender":"0xuser"}`))
	require.Error(t, err)
	kind, ok := fault.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, fault.KindStructural, kind)
	assert.False(t, fault.Retryable(err), "record-level failures never trigger a cycle retry")
}

func TestNormalize_MalformedDecimalsIsValidation(t *testing.T) {
	n := normalize.New(nil)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rawV2("1", "0", "0", "2"), &doc))
	pair := doc["pair"].(map[string]any)
	pair["token0"].(map[string]any)["decimals"] = "eighteen"
	mutated, err := json.Marshal(doc)
	require.NoError(t, err)

	_, err = n.Normalize(model.VersionV2, mutated)
	require.Error(t, err)
	kind, ok := fault.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, fault.KindValidation, kind)
}

func TestNormalize_MissingAddressPrefixIsValidation(t *testing.T) {
	n := normalize.New(nil)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rawV3("1", "-2"), &doc))
	doc["origin"] = "user-without-prefix"
	mutated, err := json.Marshal(doc)
	require.NoError(t, err)

	_, err = n.Normalize(model.VersionV3, mutated)
	require.Error(t, err)
	kind, ok := fault.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, fault.KindValidation, kind)
}

func TestAll_BadRecordDoesNotPoisonBatch(t *testing.T) {
	n := normalize.New(nil)

	raws := []json.RawMessage{
		rawV2("1", "0", "0", "2"),
		rawV2("0", "3", "4", "0"),
		json.RawMessage(`{"id":"broken"}`),
		rawV2("5", "0", "0", "6"),
		rawV2("7", "0", "0", "8"),
	}

	events, errs := n.All(model.VersionV2, raws)
	assert.Len(t, events, 4)
	require.Len(t, errs, 1)
	kind, ok := fault.KindOf(errs[0])
	require.True(t, ok)
	assert.Equal(t, fault.KindStructural, kind)
}
