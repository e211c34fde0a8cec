package normalize

import (
	"encoding/json"
	"fmt"

	"github.com/dexrelay-systems/dexrelay/internal/fault"
	"github.com/dexrelay-systems/dexrelay/internal/model"
)

// rawSwapV2 mirrors the pair-based upstream schema. The swap reports four
// per-direction amounts; exactly one input side is nonzero.
type rawSwapV2 struct {
	ID          string          `json:"id"`
	Timestamp   string          `json:"timestamp"`
	Transaction *rawTransaction `json:"transaction"`
	Pair        *rawPairV2      `json:"pair"`
	Sender      string          `json:"sender"`
	To          string          `json:"to"`
	Amount0In   string          `json:"amount0In"`
	Amount1In   string          `json:"amount1In"`
	Amount0Out  string          `json:"amount0Out"`
	Amount1Out  string          `json:"amount1Out"`
	AmountUSD   string          `json:"amountUSD"`
	LogIndex    string          `json:"logIndex"`
}

type rawPairV2 struct {
	ID        string    `json:"id"`
	Token0    *rawToken `json:"token0"`
	Token1    *rawToken `json:"token1"`
	Reserve0  string    `json:"reserve0"`
	Reserve1  string    `json:"reserve1"`
	VolumeUSD string    `json:"volumeUSD"`
}

func (n *Normalizer) normalizeV2(raw json.RawMessage) (*model.SwapEvent, error) {
	source := model.VersionV2.String()

	var swap rawSwapV2
	if err := json.Unmarshal(raw, &swap); err != nil {
		return nil, fault.Serialization(source, fmt.Errorf("decode record: %w", err))
	}
	if swap.Pair == nil {
		return nil, fault.Structural(source, "pair")
	}
	if swap.Transaction == nil {
		return nil, fault.Structural(source, "transaction")
	}

	token0, err := tokenInfo(source, "pair.token0", swap.Pair.Token0)
	if err != nil {
		return nil, err
	}
	token1, err := tokenInfo(source, "pair.token1", swap.Pair.Token1)
	if err != nil {
		return nil, err
	}

	// The nonzero input amount decides direction.
	tokenIn, tokenOut := token0, token1
	amountIn, amountOut := swap.Amount0In, swap.Amount1Out
	if isZeroAmount(swap.Amount0In) {
		tokenIn, tokenOut = token1, token0
		amountIn, amountOut = swap.Amount1In, swap.Amount0Out
	}

	ev, err := model.NewBuilder().
		Version(model.VersionV2).
		TransactionHash(swap.Transaction.ID).
		PoolAddress(swap.Pair.ID).
		TokenIn(tokenIn).
		TokenOut(tokenOut).
		AmountIn(amountIn).
		AmountOut(amountOut).
		UserAddress(swap.Sender).
		Build()
	if err != nil {
		return nil, err
	}

	n.attachContext(ev, swap.Transaction, swap.Timestamp, swap.AmountUSD)
	ev.AttachPoolInfo(model.PoolInfo{
		Address:   swap.Pair.ID,
		Token0:    token0.Address,
		Token1:    token1.Address,
		Volume24h: optString(swap.Pair.VolumeUSD),
	})
	return ev, nil
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
