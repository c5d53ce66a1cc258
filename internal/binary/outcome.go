package binary

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/optionex/binary-api/internal/config"
	"github.com/optionex/binary-api/internal/types"
)

// Outcome is the result of settling one binary order.
type Outcome struct {
	Status types.OrderStatus
	Profit float64
}

// WindowFacts carries what the candle history between creation and expiry
// showed. Only TOUCH_NO_TOUCH and TURBO read it.
type WindowFacts struct {
	BarrierTouched  bool
	BarrierBreached bool
}

// Evaluator computes win/loss/draw outcomes per contract type. It is pure:
// no I/O, no clock.
type Evaluator struct {
	profitPct map[types.ContractType]float64
}

// NewEvaluator builds an evaluator from the configured per-type profit
// percentages. Missing or invalid entries fall back to the default.
func NewEvaluator(pcts map[types.ContractType]float64) *Evaluator {
	sanitized := make(map[types.ContractType]float64, len(types.ContractTypes))
	for _, contractType := range types.ContractTypes {
		pct, ok := pcts[contractType]
		if !ok || math.IsNaN(pct) || pct < 0 {
			pct = config.DefaultProfitPercentage
		}
		sanitized[contractType] = pct
	}
	return &Evaluator{profitPct: sanitized}
}

// ProfitPercentage returns the configured payout percentage for a type.
func (e *Evaluator) ProfitPercentage(contractType types.ContractType) float64 {
	if pct, ok := e.profitPct[contractType]; ok {
		return pct
	}
	return config.DefaultProfitPercentage
}

// Evaluate dispatches on the order's contract type. closePrice is the price
// at expiry; window holds barrier-touch/breach facts where applicable.
func (e *Evaluator) Evaluate(order *types.BinaryOrder, closePrice float64, window WindowFacts) Outcome {
	switch order.Type {
	case types.TypeRiseFall:
		return e.directional(order, closePrice, order.Price, order.Side == types.SideRise)
	case types.TypeHigherLower:
		if order.Barrier == nil {
			return e.dataError(order, "barrier")
		}
		return e.directional(order, closePrice, *order.Barrier, order.Side == types.SideHigher)
	case types.TypeTouchNoTouch:
		return e.touchNoTouch(order, window.BarrierTouched)
	case types.TypeCallPut:
		if order.StrikePrice == nil {
			return e.dataError(order, "strikePrice")
		}
		return e.directional(order, closePrice, *order.StrikePrice, order.Side == types.SideCall)
	case types.TypeTurbo:
		return e.turbo(order, closePrice, window.BarrierBreached)
	default:
		return e.dataError(order, "type")
	}
}

// directional covers RISE_FALL, HIGHER_LOWER and CALL_PUT: the favorable
// side wins strictly above (or below) the reference price, equality is a
// DRAW.
func (e *Evaluator) directional(order *types.BinaryOrder, closePrice, reference float64, wantsAbove bool) Outcome {
	if closePrice == reference {
		return Outcome{Status: types.StatusDraw}
	}

	won := closePrice > reference
	if !wantsAbove {
		won = closePrice < reference
	}
	if !won {
		return Outcome{Status: types.StatusLoss}
	}
	return Outcome{
		Status: types.StatusWin,
		Profit: e.fixedProfit(order),
	}
}

// touchNoTouch has no draw state: the barrier was either touched during the
// window or it was not.
func (e *Evaluator) touchNoTouch(order *types.BinaryOrder, touched bool) Outcome {
	won := touched
	if order.Side == types.SideNoTouch {
		won = !touched
	}
	if !won {
		return Outcome{Status: types.StatusLoss}
	}
	return Outcome{
		Status: types.StatusWin,
		Profit: e.fixedProfit(order),
	}
}

// turbo pays by distance beyond the barrier. A barrier breach during the
// window is an outright loss regardless of the final close.
func (e *Evaluator) turbo(order *types.BinaryOrder, closePrice float64, breached bool) Outcome {
	if order.Barrier == nil {
		return e.dataError(order, "barrier")
	}
	if order.PayoutPerPoint == nil {
		return e.dataError(order, "payoutPerPoint")
	}
	if breached {
		return Outcome{Status: types.StatusLoss}
	}

	barrier := *order.Barrier
	favorable := closePrice > barrier
	if order.Side == types.SideDown {
		favorable = closePrice < barrier
	}
	if !favorable {
		return Outcome{Status: types.StatusLoss}
	}

	payoutValue := math.Abs(closePrice-barrier) * *order.PayoutPerPoint
	switch {
	case payoutValue > order.Amount:
		return Outcome{Status: types.StatusWin, Profit: payoutValue - order.Amount}
	case payoutValue == order.Amount:
		return Outcome{Status: types.StatusDraw}
	default:
		return Outcome{Status: types.StatusLoss}
	}
}

func (e *Evaluator) fixedProfit(order *types.BinaryOrder) float64 {
	return order.Amount * e.ProfitPercentage(order.Type) / 100
}

// dataError forces a LOSS when a field settlement depends on is missing from
// the stored row. That should not happen past creation validation.
func (e *Evaluator) dataError(order *types.BinaryOrder, field string) Outcome {
	log.Error().
		Str("service", "binary").
		Str("order_id", order.OrderID).
		Str("type", string(order.Type)).
		Str("field", field).
		Msg("order is missing a field required for settlement, forcing loss")
	return Outcome{Status: types.StatusLoss}
}
