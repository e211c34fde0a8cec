// Package normalize converts raw subgraph records into canonical swap events.
// Each record stands alone: a structural or validation failure drops that
// record and never aborts the rest of the batch.
package normalize

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/dexrelay-systems/dexrelay/internal/fault"
	"github.com/dexrelay-systems/dexrelay/internal/logging"
	"github.com/dexrelay-systems/dexrelay/internal/model"
)

// rawToken is the token shape shared by both upstream schemas. Numeric fields
// arrive as strings from the subgraph.
type rawToken struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals string `json:"decimals"`
}

// rawTransaction carries the enclosing transaction context of a swap.
type rawTransaction struct {
	ID          string `json:"id"`
	BlockNumber string `json:"blockNumber"`
}

// Normalizer turns one raw record shape at a time into validated events.
type Normalizer struct {
	log *logging.Logger
}

// New creates a normalizer.
func New(log *logging.Logger) *Normalizer {
	if log == nil {
		log = logging.Default()
	}
	return &Normalizer{log: log}
}

// Normalize converts a single raw record of the given source version.
func (n *Normalizer) Normalize(version model.Version, raw json.RawMessage) (*model.SwapEvent, error) {
	switch version {
	case model.VersionV3:
		return n.normalizeV3(raw)
	default:
		return n.normalizeV2(raw)
	}
}

// All converts a batch record by record. It returns every event that
// normalized cleanly together with the per-record errors for the rest, so a
// batch of five with one bad record yields four events and one error.
func (n *Normalizer) All(version model.Version, raws []json.RawMessage) ([]*model.SwapEvent, []error) {
	events := make([]*model.SwapEvent, 0, len(raws))
	var errs []error

	for _, raw := range raws {
		ev, err := n.Normalize(version, raw)
		if err != nil {
			n.log.Debug("dropping record",
				logging.Source(version.String()),
				logging.Error(err))
			errs = append(errs, err)
			continue
		}
		events = append(events, ev)
	}
	return events, errs
}

func (n *Normalizer) attachContext(ev *model.SwapEvent, tx *rawTransaction, timestamp, amountUSD string) {
	ts := time.Now().UTC()
	if secs, err := strconv.ParseInt(timestamp, 10, 64); err == nil {
		ts = time.Unix(secs, 0).UTC()
	}

	var block uint64
	if tx != nil {
		block, _ = strconv.ParseUint(tx.BlockNumber, 10, 64)
	}
	ev.SetBlockInfo(block, ts)

	if usd, err := strconv.ParseFloat(amountUSD, 64); err == nil && usd > 0 {
		ev.SetUSDAmounts(usd, usd)
	}
}

func tokenInfo(source, field string, t *rawToken) (model.TokenInfo, error) {
	if t == nil {
		return model.TokenInfo{}, fault.Structural(source, field)
	}
	decimals, err := strconv.ParseUint(t.Decimals, 10, 8)
	if err != nil {
		return model.TokenInfo{}, fault.Validation(source, field+".decimals", "not an unsigned integer")
	}
	return model.TokenInfo{
		Address:  t.ID,
		Symbol:   t.Symbol,
		Name:     t.Name,
		Decimals: uint8(decimals),
	}, nil
}

// isZeroAmount reports whether a decimal string denotes zero. Empty strings
// count as zero so absent per-direction amounts pick the other direction.
func isZeroAmount(s string) bool {
	for _, c := range s {
		if c >= '1' && c <= '9' {
			return false
		}
	}
	return true
}

// absAmount strips a leading sign. Canonical amounts are unsigned; direction
// is expressed through token_in/token_out.
func absAmount(s string) string {
	return strings.TrimPrefix(s, "-")
}
