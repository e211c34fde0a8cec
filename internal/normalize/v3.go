package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dexrelay-systems/dexrelay/internal/fault"
	"github.com/dexrelay-systems/dexrelay/internal/model"
)

// rawSwapV3 mirrors the pool-based upstream schema. Amounts are signed from
// the pool's perspective: a positive amount flowed into the pool.
type rawSwapV3 struct {
	ID           string          `json:"id"`
	Timestamp    string          `json:"timestamp"`
	Transaction  *rawTransaction `json:"transaction"`
	Pool         *rawPoolV3      `json:"pool"`
	Sender       string          `json:"sender"`
	Recipient    string          `json:"recipient"`
	Origin       string          `json:"origin"`
	Amount0      string          `json:"amount0"`
	Amount1      string          `json:"amount1"`
	AmountUSD    string          `json:"amountUSD"`
	SqrtPriceX96 string          `json:"sqrtPriceX96"`
	Tick         string          `json:"tick"`
	LogIndex     string          `json:"logIndex"`
}

type rawPoolV3 struct {
	ID                  string    `json:"id"`
	Token0              *rawToken `json:"token0"`
	Token1              *rawToken `json:"token1"`
	FeeTier             string    `json:"feeTier"`
	Liquidity           string    `json:"liquidity"`
	VolumeUSD           string    `json:"volumeUSD"`
	FeesUSD             string    `json:"feesUSD"`
	TotalValueLockedUSD string    `json:"totalValueLockedUSD"`
}

func (n *Normalizer) normalizeV3(raw json.RawMessage) (*model.SwapEvent, error) {
	source := model.VersionV3.String()

	var swap rawSwapV3
	if err := json.Unmarshal(raw, &swap); err != nil {
		return nil, fault.Serialization(source, fmt.Errorf("decode record: %w", err))
	}
	if swap.Pool == nil {
		return nil, fault.Structural(source, "pool")
	}
	if swap.Transaction == nil {
		return nil, fault.Structural(source, "transaction")
	}

	token0, err := tokenInfo(source, "pool.token0", swap.Pool.Token0)
	if err != nil {
		return nil, err
	}
	token1, err := tokenInfo(source, "pool.token1", swap.Pool.Token1)
	if err != nil {
		return nil, err
	}

	// amount0 > 0 means token0 entered the pool, so token0 is the input side.
	tokenIn, tokenOut := token0, token1
	amountIn, amountOut := swap.Amount0, swap.Amount1
	if strings.HasPrefix(swap.Amount0, "-") {
		tokenIn, tokenOut = token1, token0
		amountIn, amountOut = swap.Amount1, swap.Amount0
	}

	user := swap.Origin
	if user == "" {
		user = swap.Sender
	}

	ev, err := model.NewBuilder().
		Version(model.VersionV3).
		TransactionHash(swap.Transaction.ID).
		PoolAddress(swap.Pool.ID).
		TokenIn(tokenIn).
		TokenOut(tokenOut).
		AmountIn(absAmount(amountIn)).
		AmountOut(absAmount(amountOut)).
		UserAddress(user).
		Build()
	if err != nil {
		return nil, err
	}

	n.attachContext(ev, swap.Transaction, swap.Timestamp, swap.AmountUSD)

	info := model.PoolInfo{
		Address:   swap.Pool.ID,
		Token0:    token0.Address,
		Token1:    token1.Address,
		Liquidity: optString(swap.Pool.Liquidity),
		Volume24h: optString(swap.Pool.VolumeUSD),
		Fees24h:   optString(swap.Pool.FeesUSD),
	}
	if tier, err := strconv.ParseUint(swap.Pool.FeeTier, 10, 32); err == nil {
		t := uint32(tier)
		info.FeeTier = &t
	}
	ev.AttachPoolInfo(info)
	return ev, nil
}
