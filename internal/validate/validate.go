package validate

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

type ErrField struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

type Errs []ErrField

func (e Errs) Error() string { // error interface
	var b strings.Builder
	for i, ef := range e {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(ef.Field + ": " + ef.Msg)
	}
	return b.String()
}

// Collect keeps the non-nil results. It returns nil when every check passed.
func Collect(checks ...*ErrField) Errs {
	var out Errs
	for _, c := range checks {
		if c != nil {
			out = append(out, *c)
		}
	}
	return out
}

// Prefix qualifies every field name, e.g. "transactions[2].amount".
func (e Errs) Prefix(p string) Errs {
	out := make(Errs, len(e))
	for i, ef := range e {
		out[i] = ErrField{Field: p + "." + ef.Field, Msg: ef.Msg}
	}
	return out
}

// Helpers
func Required(field, value string) *ErrField {
	if strings.TrimSpace(value) == "" {
		return &ErrField{Field: field, Msg: "required"}
	}
	return nil
}

func Length(field, value string, min, max int) *ErrField {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	if n < min || n > max {
		return &ErrField{Field: field, Msg: "must be between " + strconv.Itoa(min) + " and " + strconv.Itoa(max) + " characters"}
	}
	return nil
}

func Positive(field string, v decimal.Decimal) *ErrField {
	if !v.IsPositive() {
		return &ErrField{Field: field, Msg: "must be positive"}
	}
	return nil
}

// PositiveOpt passes when v is absent.
func PositiveOpt(field string, v *decimal.Decimal) *ErrField {
	if v == nil {
		return nil
	}
	return Positive(field, *v)
}

// Digits checks v fits a numeric(intDigits+scale, scale) column without
// rounding.
func Digits(field string, v decimal.Decimal, intDigits, scale int32) *ErrField {
	if !v.Equal(v.Truncate(scale)) {
		return &ErrField{Field: field, Msg: "at most " + strconv.Itoa(int(scale)) + " decimal places"}
	}
	if v.Abs().Cmp(decimal.New(1, intDigits)) >= 0 {
		return &ErrField{Field: field, Msg: "at most " + strconv.Itoa(int(intDigits)) + " integer digits"}
	}
	return nil
}

// DigitsOpt passes when v is absent.
func DigitsOpt(field string, v *decimal.Decimal, intDigits, scale int32) *ErrField {
	if v == nil {
		return nil
	}
	return Digits(field, *v, intDigits, scale)
}
