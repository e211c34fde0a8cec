// Package model defines the canonical swap event schema shared by the
// collection pipeline and the publish sink. Events are constructed only
// through the Builder so every published event has passed validation.
package model

import (
	"fmt"
	"time"
)

// Version identifies which upstream source variant produced an event.
type Version uint8

const (
	VersionV2 Version = iota + 1
	VersionV3
)

func (v Version) String() string {
	switch v {
	case VersionV2:
		return "V2"
	case VersionV3:
		return "V3"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the version as its canonical label.
func (v Version) MarshalJSON() ([]byte, error) {
	return []byte(`"` + v.String() + `"`), nil
}

// UnmarshalJSON accepts the canonical labels produced by MarshalJSON.
func (v *Version) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"V2"`:
		*v = VersionV2
	case `"V3"`:
		*v = VersionV3
	default:
		return fmt.Errorf("unknown source version %s", data)
	}
	return nil
}

// TokenInfo describes one side of a swap.
type TokenInfo struct {
	Address   string   `json:"address"`
	Symbol    string   `json:"symbol"`
	Name      string   `json:"name"`
	Decimals  uint8    `json:"decimals"`
	LogoURI   *string  `json:"logo_uri,omitempty"`
	PriceUSD  *float64 `json:"price_usd,omitempty"`
	MarketCap *float64 `json:"market_cap,omitempty"`
}

// PoolInfo carries pool statistics attached as enrichment.
type PoolInfo struct {
	Address   string     `json:"address"`
	Token0    string     `json:"token0"`
	Token1    string     `json:"token1"`
	FeeTier   *uint32    `json:"fee_tier,omitempty"`
	Liquidity *string    `json:"liquidity,omitempty"`
	Volume24h *string    `json:"volume_24h,omitempty"`
	Fees24h   *string    `json:"fees_24h,omitempty"`
	APY       *float64   `json:"apy,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// SwapEvent is the normalized representation of one swap, independent of the
// source shape it was parsed from. Amounts are decimal strings; precision must
// survive the pipeline unchanged, so they are never parsed into floats.
type SwapEvent struct {
	ID              string    `json:"id"`
	Version         Version   `json:"version"`
	Timestamp       time.Time `json:"timestamp"`
	BlockNumber     uint64    `json:"block_number"`
	TransactionHash string    `json:"transaction_hash"`
	PoolAddress     string    `json:"pool_address"`
	TokenIn         TokenInfo `json:"token_in"`
	TokenOut        TokenInfo `json:"token_out"`
	AmountIn        string    `json:"amount_in"`
	AmountOut       string    `json:"amount_out"`
	AmountInUSD     *float64  `json:"amount_in_usd,omitempty"`
	AmountOutUSD    *float64  `json:"amount_out_usd,omitempty"`
	FeeAmount       *string   `json:"fee_amount,omitempty"`
	FeeUSD          *float64  `json:"fee_usd,omitempty"`
	UserAddress     string    `json:"user_address"`
	GasUsed         *uint64   `json:"gas_used,omitempty"`
	GasPrice        *string   `json:"gas_price,omitempty"`
	GasCostUSD      *float64  `json:"gas_cost_usd,omitempty"`
	PoolInfo        *PoolInfo `json:"pool_info,omitempty"`
}

// AttachPoolInfo attaches pool statistics. Additive only; identity fields are
// never rewritten after construction.
func (e *SwapEvent) AttachPoolInfo(info PoolInfo) {
	e.PoolInfo = &info
}

// SetBlockInfo records block context supplied by an enrichment collaborator.
func (e *SwapEvent) SetBlockInfo(blockNumber uint64, ts time.Time) {
	e.BlockNumber = blockNumber
	e.Timestamp = ts
}

// SetGasInfo records gas usage supplied by an enrichment collaborator.
func (e *SwapEvent) SetGasInfo(gasUsed uint64, gasPrice string, gasCostUSD float64) {
	e.GasUsed = &gasUsed
	e.GasPrice = &gasPrice
	e.GasCostUSD = &gasCostUSD
}

// SetUSDAmounts records USD valuations supplied by an enrichment collaborator.
func (e *SwapEvent) SetUSDAmounts(inUSD, outUSD float64) {
	e.AmountInUSD = &inUSD
	e.AmountOutUSD = &outUSD
}

// SetFeeInfo records fee data supplied by an enrichment collaborator.
func (e *SwapEvent) SetFeeInfo(feeAmount string, feeUSD float64) {
	e.FeeAmount = &feeAmount
	e.FeeUSD = &feeUSD
}
