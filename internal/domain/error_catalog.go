package domain

import (
	"fmt"
	"strconv"
)

// ErrorKind enumerates the validation failures a profit target can carry.
type ErrorKind int

const (
	ErrorUnknown ErrorKind = iota
	ErrorProfitLessThanPrevious
	ErrorProfitTotal
	ErrorProfitMinimumValue
	ErrorAmountTotal
	ErrorAmountMustBePositive
	ErrorTargetPriceMustBePositive
)

var errorKindNames = map[ErrorKind]string{
	ErrorUnknown:                   "UNKNOWN",
	ErrorProfitLessThanPrevious:    "PROFIT_LESS_THEN_PREVIOUS",
	ErrorProfitTotal:               "PROFIT_TOTAL_ERROR",
	ErrorProfitMinimumValue:        "PROFIT_MINIMUM_VALUE",
	ErrorAmountTotal:               "AMOUNT_TOTAL_ERROR",
	ErrorAmountMustBePositive:      "AMOUNT_MUST_BE_GREATER_THEN_ZERO",
	ErrorTargetPriceMustBePositive: "TARGET_MUST_BE_GREATER_THEN_ZERO",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return errorKindNames[ErrorUnknown]
}

func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ErrorKind) UnmarshalText(text []byte) error {
	for kind, name := range errorKindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown error kind %q", text)
}

// Field reports which input a kind belongs to. Unknown errors have no field.
func (k ErrorKind) Field() TargetField {
	switch k {
	case ErrorProfitLessThanPrevious, ErrorProfitTotal, ErrorProfitMinimumValue:
		return FieldProfit
	case ErrorAmountTotal, ErrorAmountMustBePositive:
		return FieldAmount
	case ErrorTargetPriceMustBePositive:
		return FieldTargetPrice
	}
	return ""
}

// Message renders the human readable text for the kind.
// ErrorAmountTotal expects the excess over 100 as param,
// ErrorAmountMustBePositive the side the targets will trade on.
func (k ErrorKind) Message(param interface{}) string {
	switch k {
	case ErrorProfitLessThanPrevious:
		return "Each target's 'Profit' should be greater than the previous one"
	case ErrorProfitTotal:
		return "Maximum profit sum is 500%"
	case ErrorProfitMinimumValue:
		return "Minimum value is 0.01"
	case ErrorAmountTotal:
		excess := toFloat(param)
		return fmt.Sprintf("%s out of 100%% selected. Please decrease by %s",
			FormatNumber(excess+100), FormatNumber(excess))
	case ErrorAmountMustBePositive:
		return fmt.Sprintf("Each target's 'Amount to %v' should be greatest than zero", param)
	case ErrorTargetPriceMustBePositive:
		return "Each target's 'Trade price' should be greatest than zero"
	}
	return "An unknown error occurred"
}

// FormatNumber prints v with the shortest representation, no trailing zeros.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}
