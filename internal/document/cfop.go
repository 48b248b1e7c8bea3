package document

import (
	"fmt"
	"strings"
	"unicode"
)

// SanitizeCFOP normalizes a CFOP to the 4-digit form the XML schema requires
// and flips the first digit to match the destination: 5 for intrastate, 6 for
// interstate. Non-digits are stripped; short codes are left-padded and
// prefixed. An empty or unparseable CFOP is a hard error, since a silent
// fallback would emit a legally wrong operation code.
func SanitizeCFOP(raw string, interstate bool) (string, error) {
	digits := onlyDigits(raw)
	prefix := "5"
	if interstate {
		prefix = "6"
	}

	if len(digits) >= 4 {
		first := digits[:1]
		rest := digits[1:4]
		switch {
		case first == "5" && interstate:
			return "6" + rest, nil
		case first == "6" && !interstate:
			return "5" + rest, nil
		case first == "5" || first == "6":
			return digits[:4], nil
		default:
			return prefix + rest, nil
		}
	}
	if len(digits) > 0 {
		padded := digits
		for len(padded) < 3 {
			padded = "0" + padded
		}
		return prefix + padded[len(padded)-3:], nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCFOP, raw)
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
