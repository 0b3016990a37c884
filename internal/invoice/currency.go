package invoice

import "github.com/shopspring/decimal"

const (
	CurrencyEUR = "EUR"
	CurrencyALL = "ALL"
)

// ResolveEUR applies the conversion rule: a EUR total is trusted as is,
// otherwise it is derived from the local total and a positive rate.
// When neither is possible the EUR total stays missing and is never zeroed.
// A derived total inherits the weakest state of its inputs.
func ResolveEUR(eur, local, rate Field[decimal.Decimal]) Field[decimal.Decimal] {
	if eur.OK() {
		return eur
	}

	if !local.OK() || !rate.OK() || !rate.Value.IsPositive() {
		return Missing[decimal.Decimal]()
	}

	v := local.Value.DivRound(rate.Value, 2)

	if local.State == StateExtracted && rate.State == StateExtracted {
		return Found(v)
	}

	return Estimated(v)
}

// DeriveRate returns local ÷ EUR to four places when both totals are known.
func DeriveRate(eur, local Field[decimal.Decimal]) Field[decimal.Decimal] {
	if !eur.OK() || !local.OK() || !eur.Value.IsPositive() {
		return Missing[decimal.Decimal]()
	}

	return Field[decimal.Decimal]{Value: local.Value.DivRound(eur.Value, 4), State: weakest(eur.State, local.State)}
}

func weakest(a, b FieldState) FieldState {
	if stateWeight[a] <= stateWeight[b] {
		return a
	}

	return b
}
