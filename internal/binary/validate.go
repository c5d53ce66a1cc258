package binary

import (
	"fmt"
	"strings"
	"time"

	"github.com/optionex/binary-api/internal/types"
)

// CreateOrderInput carries everything needed to open a binary order.
type CreateOrderInput struct {
	UserID         string
	Currency       string // base, e.g. BTC
	Pair           string // quote, e.g. USDT
	Amount         float64
	Side           types.OrderSide
	Type           types.ContractType
	DurationType   types.DurationType
	Barrier        *float64
	StrikePrice    *float64
	PayoutPerPoint *float64
	ClosedAt       time.Time
	IsDemo         bool
}

// Symbol returns the BASE/QUOTE market symbol.
func (in *CreateOrderInput) Symbol() string {
	return in.Currency + "/" + in.Pair
}

// contractRule declares the valid sides and required fields for one contract
// type. Adding a contract type means adding exactly one entry here.
type contractRule struct {
	sides                  []types.OrderSide
	requiresBarrier        bool
	requiresStrikePrice    bool
	requiresPayoutPerPoint bool
	requiresDurationType   bool
	usesBarrier            bool
	usesStrikePrice        bool
	usesPayoutPerPoint     bool
}

var contractRules = map[types.ContractType]contractRule{
	types.TypeRiseFall: {
		sides: []types.OrderSide{types.SideRise, types.SideFall},
	},
	types.TypeHigherLower: {
		sides:           []types.OrderSide{types.SideHigher, types.SideLower},
		requiresBarrier: true,
		usesBarrier:     true,
	},
	types.TypeTouchNoTouch: {
		sides:           []types.OrderSide{types.SideTouch, types.SideNoTouch},
		requiresBarrier: true,
		usesBarrier:     true,
	},
	types.TypeCallPut: {
		sides:                  []types.OrderSide{types.SideCall, types.SidePut},
		requiresStrikePrice:    true,
		requiresPayoutPerPoint: true,
		usesStrikePrice:        true,
		usesPayoutPerPoint:     true,
	},
	types.TypeTurbo: {
		sides:                  []types.OrderSide{types.SideUp, types.SideDown},
		requiresBarrier:        true,
		requiresPayoutPerPoint: true,
		requiresDurationType:   true,
		usesBarrier:            true,
		usesPayoutPerPoint:     true,
	},
}

// validateContract checks the side/type combination and type-specific
// required fields, returning every violated rule.
func validateContract(in *CreateOrderInput) []string {
	rule, ok := contractRules[in.Type]
	if !ok {
		return []string{fmt.Sprintf("unknown contract type %q", in.Type)}
	}

	var violations []string

	validSide := false
	for _, side := range rule.sides {
		if in.Side == side {
			validSide = true
			break
		}
	}
	if !validSide {
		violations = append(violations, fmt.Sprintf(
			"side %q is not valid for type %s (valid: %s)", in.Side, in.Type, sideList(rule.sides)))
	}

	if rule.requiresBarrier && (in.Barrier == nil || *in.Barrier <= 0) {
		violations = append(violations, fmt.Sprintf("barrier is required for type %s", in.Type))
	}
	if rule.requiresStrikePrice && (in.StrikePrice == nil || *in.StrikePrice <= 0) {
		violations = append(violations, fmt.Sprintf("strikePrice is required for type %s", in.Type))
	}
	if rule.requiresPayoutPerPoint && (in.PayoutPerPoint == nil || *in.PayoutPerPoint <= 0) {
		violations = append(violations, fmt.Sprintf("payoutPerPoint is required for type %s", in.Type))
	}
	if rule.requiresDurationType &&
		in.DurationType != types.DurationTime && in.DurationType != types.DurationTicks {
		violations = append(violations, fmt.Sprintf(
			"durationType must be TIME or TICKS for type %s", in.Type))
	}

	return violations
}

func sideList(sides []types.OrderSide) string {
	parts := make([]string, len(sides))
	for i, s := range sides {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
