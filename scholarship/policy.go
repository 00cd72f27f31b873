/*
policy.go - Configurable payout policy

PURPOSE:
  Two rules were inferred from observed behavior rather than written
  regulation, so both are policy knobs with tested defaults:

  - Attribution: which month a CL-overflow day bills against. Default is
    the month the overflowing approval was DECIDED in; attributing by the
    leave's own start month is provided as the alternative.
  - Rounding: how a fractional deduction becomes currency. Default is
    half-up to whole units.
*/
package scholarship

import "github.com/shopspring/decimal"

// =============================================================================
// ATTRIBUTION - which month an overflow day bills against
// =============================================================================

type Attribution string

const (
	// AttributeByDecisionMonth bills overflow in the month the pushing
	// approval was decided.
	AttributeByDecisionMonth Attribution = "decision_month"

	// AttributeByLeaveMonth bills overflow in the month the leave starts.
	AttributeByLeaveMonth Attribution = "leave_month"
)

// =============================================================================
// ROUNDING - deduction rounding policy
// =============================================================================

type Rounding string

const (
	RoundHalfUp Rounding = "half_up"
	RoundFloor  Rounding = "floor"
	RoundCeil   Rounding = "ceil"
)

// Apply rounds a deduction to whole currency units per the policy.
func (r Rounding) Apply(d decimal.Decimal) decimal.Decimal {
	switch r {
	case RoundFloor:
		return d.Floor()
	case RoundCeil:
		return d.Ceil()
	default:
		return d.Round(0)
	}
}

// =============================================================================
// POLICY
// =============================================================================

type Policy struct {
	Attribution Attribution
	Rounding    Rounding
}

func DefaultPolicy() Policy {
	return Policy{
		Attribution: AttributeByDecisionMonth,
		Rounding:    RoundHalfUp,
	}
}
