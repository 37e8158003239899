package codec

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	userfields "github.com/reoring/userfields"
)

// NumberPattern accepts decimal literals with an optional sign, fraction
// and exponent. Every match contains at least one digit.
const NumberPattern = `^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`

var numberPattern = regexp.MustCompile(NumberPattern)

// Number returns a Codec between the submitted text of a number and its
// canonical JSON number form. Decode rejects text that is not numeric.
func Number() Codec[string, json.Number] { return numberCodec{} }

type numberCodec struct{}

func (numberCodec) Decode(ctx context.Context, a string) (json.Number, error) {
	s := strings.TrimSpace(a)
	if !numberPattern.MatchString(s) {
		return "", notANumber()
	}
	// magnitudes beyond float64 cannot be stored by every JSON column type
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return "", notANumber()
	}
	n, ok := canonical(s)
	if !ok {
		return "", notANumber()
	}
	return json.Number(n), nil
}

func notANumber() error {
	return userfields.Issues{{Path: "/", Code: userfields.CodeNotANumber, Message: "not a number"}}
}

// canonical rewrites a literal matched by NumberPattern into the shortest
// JSON number with the same decimal value. Every significant digit is kept.
// Plain notation is used while the decimal point sits within 21 digits of
// the first significant digit, exponent notation otherwise.
func canonical(s string) (string, bool) {
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	mant, exp := s, 0
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		e, err := strconv.Atoi(s[i+1:])
		if err != nil {
			return "", false
		}
		mant, exp = s[:i], e
	}
	intPart, frac, _ := strings.Cut(mant, ".")
	digits := intPart + frac
	point := len(intPart) + exp
	for len(digits) > 0 && digits[0] == '0' {
		digits = digits[1:]
		point--
	}
	digits = strings.TrimRight(digits, "0")
	if digits == "" {
		return "0", true
	}

	b := &strings.Builder{}
	if neg {
		b.WriteByte('-')
	}
	n := len(digits)
	switch {
	case point > 0 && point <= 21:
		if point >= n {
			b.WriteString(digits)
			b.WriteString(strings.Repeat("0", point-n))
		} else {
			b.WriteString(digits[:point])
			b.WriteByte('.')
			b.WriteString(digits[point:])
		}
	case point <= 0 && point > -6:
		b.WriteString("0.")
		b.WriteString(strings.Repeat("0", -point))
		b.WriteString(digits)
	default:
		b.WriteByte(digits[0])
		if n > 1 {
			b.WriteByte('.')
			b.WriteString(digits[1:])
		}
		b.WriteByte('e')
		if point-1 >= 0 {
			b.WriteByte('+')
		}
		b.WriteString(strconv.Itoa(point - 1))
	}
	return b.String(), true
}

func (numberCodec) Encode(ctx context.Context, b json.Number) (string, error) {
	return b.String(), nil
}

// IsNumeric reports whether s matches the accepted number syntax.
func IsNumeric(s string) bool { return numberPattern.MatchString(strings.TrimSpace(s)) }
