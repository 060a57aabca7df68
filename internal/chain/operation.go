package chain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Operation is one of the four arithmetic symbols a reply can carry.
type Operation string

const (
	OpAdd      Operation = "+"
	OpSubtract Operation = "-"
	OpMultiply Operation = "*"
	OpDivide   Operation = "/"
)

var operationAliases = map[string]Operation{
	"+":        OpAdd,
	"add":      OpAdd,
	"-":        OpSubtract,
	"subtract": OpSubtract,
	"*":        OpMultiply,
	"multiply": OpMultiply,
	"/":        OpDivide,
	"divide":   OpDivide,
}

// ParseOperation accepts a symbol or its English name, case-insensitively,
// and returns the canonical symbol.
func ParseOperation(s string) (Operation, error) {
	op, ok := operationAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidOperation, s)
	}
	return op, nil
}

func (op Operation) String() string {
	return string(op)
}

// ParseValue reads a finite decimal number.
func ParseValue(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidValue)
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidValue, raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q is not finite", ErrInvalidValue, raw)
	}

	return v, nil
}

// Apply computes parentResult op value. A result that overflows to ±Inf is
// refused as ErrInvalidValue since it cannot be stored or sent as JSON.
func Apply(parentResult float64, op Operation, value float64) (float64, error) {
	var result float64
	switch op {
	case OpAdd:
		result = parentResult + value
	case OpSubtract:
		result = parentResult - value
	case OpMultiply:
		result = parentResult * value
	case OpDivide:
		if value == 0 {
			return 0, ErrDivisionByZero
		}
		result = parentResult / value
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidOperation, string(op))
	}

	if math.IsInf(result, 0) || math.IsNaN(result) {
		return 0, fmt.Errorf("%w: result is out of range", ErrInvalidValue)
	}
	return result, nil
}
