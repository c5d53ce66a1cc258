package binary

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/optionex/binary-api/internal/types"
)

func validInput(contractType types.ContractType, side types.OrderSide) *CreateOrderInput {
	in := &CreateOrderInput{
		UserID:   "user-1",
		Currency: "BTC",
		Pair:     "USDT",
		Amount:   50,
		Side:     side,
		Type:     contractType,
		ClosedAt: time.Now().Add(5 * time.Minute),
	}
	switch contractType {
	case types.TypeHigherLower, types.TypeTouchNoTouch:
		in.Barrier = f(100)
	case types.TypeCallPut:
		in.StrikePrice = f(100)
		in.PayoutPerPoint = f(2)
	case types.TypeTurbo:
		in.Barrier = f(100)
		in.PayoutPerPoint = f(2)
		in.DurationType = types.DurationTime
	}
	return in
}

func TestValidateContractAcceptsAllValidCombinations(t *testing.T) {
	cases := map[types.ContractType][]types.OrderSide{
		types.TypeRiseFall:     {types.SideRise, types.SideFall},
		types.TypeHigherLower:  {types.SideHigher, types.SideLower},
		types.TypeTouchNoTouch: {types.SideTouch, types.SideNoTouch},
		types.TypeCallPut:      {types.SideCall, types.SidePut},
		types.TypeTurbo:        {types.SideUp, types.SideDown},
	}

	for contractType, sides := range cases {
		for _, side := range sides {
			assert.Empty(t, validateContract(validInput(contractType, side)),
				"%s/%s should validate", contractType, side)
		}
	}
}

func TestValidateContractRejectsForeignSides(t *testing.T) {
	for _, contractType := range types.ContractTypes {
		in := validInput(contractType, "BUY")
		violations := validateContract(in)
		assert.NotEmpty(t, violations, "%s should reject side BUY", contractType)
		assert.Contains(t, violations[0], "side")
	}
}

func TestValidateContractRequiredFields(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*CreateOrderInput)
		input     *CreateOrderInput
		wantField string
	}{
		{
			name:      "higher_lower needs barrier",
			input:     validInput(types.TypeHigherLower, types.SideHigher),
			mutate:    func(in *CreateOrderInput) { in.Barrier = nil },
			wantField: "barrier",
		},
		{
			name:      "touch_no_touch needs barrier",
			input:     validInput(types.TypeTouchNoTouch, types.SideTouch),
			mutate:    func(in *CreateOrderInput) { in.Barrier = nil },
			wantField: "barrier",
		},
		{
			name:      "call_put needs strike",
			input:     validInput(types.TypeCallPut, types.SideCall),
			mutate:    func(in *CreateOrderInput) { in.StrikePrice = nil },
			wantField: "strikePrice",
		},
		{
			name:      "call_put needs payout per point",
			input:     validInput(types.TypeCallPut, types.SidePut),
			mutate:    func(in *CreateOrderInput) { in.PayoutPerPoint = nil },
			wantField: "payoutPerPoint",
		},
		{
			name:      "turbo needs barrier",
			input:     validInput(types.TypeTurbo, types.SideUp),
			mutate:    func(in *CreateOrderInput) { in.Barrier = nil },
			wantField: "barrier",
		},
		{
			name:      "turbo needs duration type",
			input:     validInput(types.TypeTurbo, types.SideDown),
			mutate:    func(in *CreateOrderInput) { in.DurationType = "" },
			wantField: "durationType",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mutate(tt.input)
			violations := validateContract(tt.input)
			assert.NotEmpty(t, violations)
			found := false
			for _, v := range violations {
				if strings.Contains(v, tt.wantField) {
					found = true
				}
			}
			assert.True(t, found, "violations %v should name %s", violations, tt.wantField)
		})
	}
}

func TestValidateContractReportsEveryViolation(t *testing.T) {
	// Wrong side and two missing fields: all three must be reported.
	in := &CreateOrderInput{
		UserID:   "user-1",
		Currency: "BTC",
		Pair:     "USDT",
		Amount:   50,
		Side:     types.SideRise,
		Type:     types.TypeCallPut,
		ClosedAt: time.Now().Add(time.Minute),
	}
	violations := validateContract(in)
	assert.Len(t, violations, 3)
}

func TestValidateContractUnknownType(t *testing.T) {
	in := validInput(types.TypeRiseFall, types.SideRise)
	in.Type = "BINARY_SPREAD"
	violations := validateContract(in)
	assert.Len(t, violations, 1)
	assert.Contains(t, violations[0], "unknown contract type")
}
