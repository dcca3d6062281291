package domain

import "strings"

// TargetField names the input of a profit target an error is attached to.
type TargetField string

const (
	FieldProfit      TargetField = "profit"
	FieldTargetPrice TargetField = "targetPrice"
	FieldAmount      TargetField = "amount"
)

// ErrorSeparator joins several messages of one field for display.
const ErrorSeparator = " | "

// ProfitTargetError describes one violation on one field of one target.
// Message is rendered once, when the error is created.
type ProfitTargetError struct {
	Field   TargetField `json:"field"`
	Kind    ErrorKind   `json:"kind"`
	Message string      `json:"message"`
}

// NewProfitTargetError renders the catalog message for kind with param.
func NewProfitTargetError(field TargetField, kind ErrorKind, param interface{}) ProfitTargetError {
	return ProfitTargetError{
		Field:   field,
		Kind:    kind,
		Message: kind.Message(param),
	}
}

// ProfitTarget is one take-profit exit condition of a pending order.
type ProfitTarget struct {
	ProfitPercent float64             `json:"profit_percent"`
	TradePrice    float64             `json:"trade_price"`
	AmountPercent float64             `json:"amount_percent"`
	Errors        []ProfitTargetError `json:"errors"`
}

func NewProfitTarget(profitPercent, tradePrice, amountPercent float64) *ProfitTarget {
	return &ProfitTarget{
		ProfitPercent: profitPercent,
		TradePrice:    tradePrice,
		AmountPercent: amountPercent,
	}
}

// SetError stores err, overwriting the message of an existing error of the same kind.
func (t *ProfitTarget) SetError(err ProfitTargetError) {
	for i := range t.Errors {
		if t.Errors[i].Kind == err.Kind {
			t.Errors[i].Message = err.Message
			return
		}
	}
	t.Errors = append(t.Errors, err)
}

// CleanErrorsByKind drops every error of the given kind.
func (t *ProfitTarget) CleanErrorsByKind(kind ErrorKind) {
	if !t.HasError(kind) {
		return
	}
	kept := make([]ProfitTargetError, 0, len(t.Errors))
	for _, e := range t.Errors {
		if e.Kind != kind {
			kept = append(kept, e)
		}
	}
	t.Errors = kept
}

func (t *ProfitTarget) HasError(kind ErrorKind) bool {
	for _, e := range t.Errors {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

func (t *ProfitTarget) HasErrors() bool {
	return len(t.Errors) > 0
}

// ErrorsFor returns the errors attached to field in insertion order.
func (t *ProfitTarget) ErrorsFor(field TargetField) []ProfitTargetError {
	var out []ProfitTargetError
	for _, e := range t.Errors {
		if e.Field == field {
			out = append(out, e)
		}
	}
	return out
}

// ErrorMessage joins the messages of field for display under its input.
func (t *ProfitTarget) ErrorMessage(field TargetField) string {
	errs := t.ErrorsFor(field)
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, ErrorSeparator)
}

// Clone returns a deep copy, errors included.
func (t *ProfitTarget) Clone() ProfitTarget {
	c := *t
	if t.Errors != nil {
		c.Errors = make([]ProfitTargetError, len(t.Errors))
		copy(c.Errors, t.Errors)
	}
	return c
}
