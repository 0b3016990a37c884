package invoice

var stateWeight = map[FieldState]float64{
	StateExtracted: 1,
	StateEstimated: 0.5,
	StateDefaulted: 0.25,
	StateMissing:   0,
}

type namedState struct {
	name  string
	state FieldState
}

func (inv *Invoice) fieldStates() []namedState {
	return []namedState{
		{"invoiceNumber", inv.InvoiceNumber.State},
		{"supplier", inv.Supplier.State},
		{"date", inv.Date.State},
		{"total", totalState(inv)},
		{"items", itemsState(inv)},
	}
}

func totalState(inv *Invoice) FieldState {
	if inv.TotalEUR.OK() {
		return inv.TotalEUR.State
	}

	if inv.TotalLocal.OK() {
		return inv.TotalLocal.State
	}

	return StateMissing
}

// Items synthesized from a fiscal total alone carry the estimate of the rate.
func itemsState(inv *Invoice) FieldState {
	if len(inv.Items) == 0 {
		return StateMissing
	}

	if inv.Source == SourceFiscal && inv.ExchangeRate.State == StateEstimated {
		return StateEstimated
	}

	return StateExtracted
}

// Confidence scores the extraction between 0 and 1.
func (inv *Invoice) Confidence() float64 {
	states := inv.fieldStates()

	var sum float64
	for _, s := range states {
		sum += stateWeight[s.state]
	}

	return sum / float64(len(states))
}

// LowConfidenceFields lists the fields a reviewer should double check.
func (inv *Invoice) LowConfidenceFields() []string {
	var out []string

	for _, s := range inv.fieldStates() {
		if s.state != StateExtracted {
			out = append(out, s.name)
		}
	}

	return out
}
