package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/dexrelay-systems/dexrelay/internal/fault"
)

// addressPrefix is the chain-address prefix every address-like field must carry.
const addressPrefix = "0x"

// Violation names one validation finding produced at build time.
type Violation struct {
	Field  string
	Reason string
}

// ValidationError is returned by Builder.Build when one or more invariants are
// violated. It carries the full finding list so callers can report everything
// wrong with a record at once.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Reason
	}
	return fmt.Sprintf("invalid swap event (%d violations): %s", len(e.Violations), strings.Join(parts, "; "))
}

// FaultKind places ValidationError in the pipeline error taxonomy.
func (e *ValidationError) FaultKind() fault.Kind { return fault.KindValidation }

// Builder accumulates swap event fields and validates them once, at build
// time. Setters never emit diagnostics; all findings surface in Build.
type Builder struct {
	version         *Version
	transactionHash *string
	poolAddress     *string
	tokenIn         *TokenInfo
	tokenOut        *TokenInfo
	amountIn        *string
	amountOut       *string
	userAddress     *string
}

// NewBuilder returns an empty swap event builder.
func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) Version(v Version) *Builder         { b.version = &v; return b }
func (b *Builder) TransactionHash(h string) *Builder  { b.transactionHash = &h; return b }
func (b *Builder) PoolAddress(addr string) *Builder   { b.poolAddress = &addr; return b }
func (b *Builder) TokenIn(t TokenInfo) *Builder       { b.tokenIn = &t; return b }
func (b *Builder) TokenOut(t TokenInfo) *Builder      { b.tokenOut = &t; return b }
func (b *Builder) AmountIn(amount string) *Builder    { b.amountIn = &amount; return b }
func (b *Builder) AmountOut(amount string) *Builder   { b.amountOut = &amount; return b }
func (b *Builder) UserAddress(addr string) *Builder   { b.userAddress = &addr; return b }

// Validate returns the current finding list without building. An empty result
// means Build would succeed.
func (b *Builder) Validate() []Violation {
	var vs []Violation

	if b.version == nil {
		vs = append(vs, Violation{Field: "version", Reason: "not set"})
	}
	vs = appendStringChecks(vs, "transaction_hash", b.transactionHash, false)
	vs = appendStringChecks(vs, "pool_address", b.poolAddress, true)
	vs = appendTokenChecks(vs, "token_in", b.tokenIn)
	vs = appendTokenChecks(vs, "token_out", b.tokenOut)
	vs = appendAmountChecks(vs, "amount_in", b.amountIn)
	vs = appendAmountChecks(vs, "amount_out", b.amountOut)
	vs = appendStringChecks(vs, "user_address", b.userAddress, true)

	return vs
}

// Build validates every accumulated field and constructs the event. It fails
// closed: any violated invariant yields a ValidationError and no event.
func (b *Builder) Build() (*SwapEvent, error) {
	if vs := b.Validate(); len(vs) > 0 {
		return nil, &ValidationError{Violations: vs}
	}

	version := *b.version
	hash := *b.transactionHash

	return &SwapEvent{
		ID:              fmt.Sprintf("%s_%s", version, hash),
		Version:         version,
		Timestamp:       time.Now().UTC(),
		TransactionHash: hash,
		PoolAddress:     *b.poolAddress,
		TokenIn:         *b.tokenIn,
		TokenOut:        *b.tokenOut,
		AmountIn:        *b.amountIn,
		AmountOut:       *b.amountOut,
		UserAddress:     *b.userAddress,
	}, nil
}

func appendStringChecks(vs []Violation, field string, value *string, wantPrefix bool) []Violation {
	if value == nil {
		return append(vs, Violation{Field: field, Reason: "not set"})
	}
	if *value == "" {
		return append(vs, Violation{Field: field, Reason: "empty"})
	}
	if wantPrefix && !strings.HasPrefix(*value, addressPrefix) {
		return append(vs, Violation{Field: field, Reason: "missing " + addressPrefix + " prefix"})
	}
	return vs
}

func appendTokenChecks(vs []Violation, field string, token *TokenInfo) []Violation {
	if token == nil {
		return append(vs, Violation{Field: field, Reason: "not set"})
	}
	if token.Address == "" {
		vs = append(vs, Violation{Field: field + ".address", Reason: "empty"})
	} else if !strings.HasPrefix(token.Address, addressPrefix) {
		vs = append(vs, Violation{Field: field + ".address", Reason: "missing " + addressPrefix + " prefix"})
	}
	if token.Symbol == "" {
		vs = append(vs, Violation{Field: field + ".symbol", Reason: "empty"})
	}
	return vs
}

func appendAmountChecks(vs []Violation, field string, amount *string) []Violation {
	if amount == nil {
		return append(vs, Violation{Field: field, Reason: "not set"})
	}
	if *amount == "" {
		return append(vs, Violation{Field: field, Reason: "empty"})
	}
	if !isDecimalString(*amount) {
		return append(vs, Violation{Field: field, Reason: "not a plain decimal string"})
	}
	return vs
}

// isDecimalString accepts only ASCII digits and the decimal point. Negative
// signs and scientific notation are rejected by contract: direction is carried
// by token_in/token_out, not by the amount's sign.
func isDecimalString(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && c != '.' {
			return false
		}
	}
	return true
}
