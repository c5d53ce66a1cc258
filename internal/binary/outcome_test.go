package binary

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/optionex/binary-api/internal/config"
	"github.com/optionex/binary-api/internal/types"
)

func f(v float64) *float64 { return &v }

func testEvaluator() *Evaluator {
	return NewEvaluator(map[types.ContractType]float64{
		types.TypeRiseFall:     87,
		types.TypeHigherLower:  87,
		types.TypeTouchNoTouch: 87,
		types.TypeCallPut:      87,
		types.TypeTurbo:        87,
	})
}

func TestEvaluateRiseFall(t *testing.T) {
	e := testEvaluator()

	tests := []struct {
		name       string
		side       types.OrderSide
		entry      float64
		close      float64
		wantStatus types.OrderStatus
		wantProfit float64
	}{
		{"rise wins above entry", types.SideRise, 100, 105, types.StatusWin, 87},
		{"rise loses below entry", types.SideRise, 100, 95, types.StatusLoss, 0},
		{"fall wins below entry", types.SideFall, 100, 95, types.StatusWin, 87},
		{"fall loses above entry", types.SideFall, 100, 105, types.StatusLoss, 0},
		{"equal close is a draw for rise", types.SideRise, 100, 100, types.StatusDraw, 0},
		{"equal close is a draw for fall", types.SideFall, 100, 100, types.StatusDraw, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &types.BinaryOrder{
				Type:   types.TypeRiseFall,
				Side:   tt.side,
				Price:  tt.entry,
				Amount: 100,
			}
			outcome := e.Evaluate(order, tt.close, WindowFacts{})
			assert.Equal(t, tt.wantStatus, outcome.Status)
			assert.InDelta(t, tt.wantProfit, outcome.Profit, 1e-9)
		})
	}
}

func TestEvaluateHigherLower(t *testing.T) {
	e := testEvaluator()

	tests := []struct {
		name       string
		side       types.OrderSide
		close      float64
		wantStatus types.OrderStatus
	}{
		{"higher wins above barrier", types.SideHigher, 51, types.StatusWin},
		{"higher loses below barrier", types.SideHigher, 49, types.StatusLoss},
		{"lower wins below barrier", types.SideLower, 49, types.StatusWin},
		{"lower loses above barrier", types.SideLower, 51, types.StatusLoss},
		{"close on the barrier is a draw", types.SideHigher, 50, types.StatusDraw},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &types.BinaryOrder{
				Type:    types.TypeHigherLower,
				Side:    tt.side,
				Barrier: f(50),
				Amount:  100,
			}
			outcome := e.Evaluate(order, tt.close, WindowFacts{})
			assert.Equal(t, tt.wantStatus, outcome.Status)
		})
	}
}

func TestEvaluateTouchNoTouch(t *testing.T) {
	e := testEvaluator()

	tests := []struct {
		name       string
		side       types.OrderSide
		touched    bool
		wantStatus types.OrderStatus
	}{
		{"touch wins when touched", types.SideTouch, true, types.StatusWin},
		{"touch loses when untouched", types.SideTouch, false, types.StatusLoss},
		{"no_touch wins when untouched", types.SideNoTouch, false, types.StatusWin},
		{"no_touch loses when touched", types.SideNoTouch, true, types.StatusLoss},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &types.BinaryOrder{
				Type:    types.TypeTouchNoTouch,
				Side:    tt.side,
				Barrier: f(50),
				Amount:  100,
			}
			outcome := e.Evaluate(order, 60, WindowFacts{BarrierTouched: tt.touched})
			assert.Equal(t, tt.wantStatus, outcome.Status)
			if tt.wantStatus == types.StatusWin {
				assert.InDelta(t, 87.0, outcome.Profit, 1e-9)
			}
		})
	}
}

func TestEvaluateCallPut(t *testing.T) {
	e := testEvaluator()

	tests := []struct {
		name       string
		side       types.OrderSide
		close      float64
		wantStatus types.OrderStatus
	}{
		{"call wins above strike", types.SideCall, 110, types.StatusWin},
		{"call loses below strike", types.SideCall, 90, types.StatusLoss},
		{"put wins below strike", types.SidePut, 90, types.StatusWin},
		{"put loses above strike", types.SidePut, 110, types.StatusLoss},
		{"close on the strike is a draw", types.SideCall, 100, types.StatusDraw},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &types.BinaryOrder{
				Type:           types.TypeCallPut,
				Side:           tt.side,
				StrikePrice:    f(100),
				PayoutPerPoint: f(2),
				Amount:         100,
			}
			outcome := e.Evaluate(order, tt.close, WindowFacts{})
			assert.Equal(t, tt.wantStatus, outcome.Status)
		})
	}
}

func TestEvaluateCallPutMissingStrikeForcesLoss(t *testing.T) {
	e := testEvaluator()
	order := &types.BinaryOrder{
		Type:   types.TypeCallPut,
		Side:   types.SideCall,
		Amount: 100,
	}
	outcome := e.Evaluate(order, 200, WindowFacts{})
	assert.Equal(t, types.StatusLoss, outcome.Status)
}

func TestEvaluateTurbo(t *testing.T) {
	e := testEvaluator()

	tests := []struct {
		name       string
		side       types.OrderSide
		close      float64
		ppp        float64
		breached   bool
		wantStatus types.OrderStatus
		wantProfit float64
	}{
		// barrier 40, amount 100
		{"up wins when payout exceeds stake", types.SideUp, 100, 2, false, types.StatusWin, 20},
		{"up draws when payout equals stake", types.SideUp, 90, 2, false, types.StatusDraw, 0},
		{"up loses when payout below stake", types.SideUp, 60, 2, false, types.StatusLoss, 0},
		{"up loses on unfavorable side", types.SideUp, 30, 2, false, types.StatusLoss, 0},
		{"down wins below barrier", types.SideDown, 10, 5, false, types.StatusWin, 50},
		{"down loses above barrier", types.SideDown, 100, 5, false, types.StatusLoss, 0},
		{"breach forces loss regardless of close", types.SideUp, 1000, 2, true, types.StatusLoss, 0},
		{"close on barrier loses", types.SideUp, 40, 2, false, types.StatusLoss, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &types.BinaryOrder{
				Type:           types.TypeTurbo,
				Side:           tt.side,
				Barrier:        f(40),
				PayoutPerPoint: f(tt.ppp),
				Amount:         100,
			}
			outcome := e.Evaluate(order, tt.close, WindowFacts{BarrierBreached: tt.breached})
			assert.Equal(t, tt.wantStatus, outcome.Status)
			assert.InDelta(t, tt.wantProfit, outcome.Profit, 1e-9)
		})
	}
}

func TestEvaluateTurboMissingFieldsForceLoss(t *testing.T) {
	e := testEvaluator()

	noBarrier := &types.BinaryOrder{Type: types.TypeTurbo, Side: types.SideUp, PayoutPerPoint: f(2), Amount: 100}
	assert.Equal(t, types.StatusLoss, e.Evaluate(noBarrier, 200, WindowFacts{}).Status)

	noPayout := &types.BinaryOrder{Type: types.TypeTurbo, Side: types.SideUp, Barrier: f(40), Amount: 100}
	assert.Equal(t, types.StatusLoss, e.Evaluate(noPayout, 200, WindowFacts{}).Status)
}

func TestProfitPercentageDefaults(t *testing.T) {
	e := NewEvaluator(map[types.ContractType]float64{
		types.TypeRiseFall: 95,
		types.TypeCallPut:  -5, // invalid, falls back
	})

	assert.Equal(t, 95.0, e.ProfitPercentage(types.TypeRiseFall))
	assert.Equal(t, config.DefaultProfitPercentage, e.ProfitPercentage(types.TypeCallPut))
	assert.Equal(t, config.DefaultProfitPercentage, e.ProfitPercentage(types.TypeTurbo))
}
