package settlement

import (
	"regexp"
	"strconv"
	"strings"
)

var trailingDigits = regexp.MustCompile(`(\d+)$`)

// NextBillNumber produces the bill number that follows the given one. A
// trailing run of digits is incremented in place, keeping its zero-padded
// width and any prefix ("INV-0099" becomes "INV-0100", "999" becomes "1000").
// Without a trailing run, whatever digits appear in the string are collected
// and incremented, and with no digits at all the sequence restarts above the
// historical default of 1000. Total on arbitrary input; never panics.
func NextBillNumber(current string) string {
	if m := trailingDigits.FindString(current); m != "" {
		prefix := current[:len(current)-len(m)]
		return prefix + incrementDecimal(m)
	}

	digits := stripNonDigits(current)
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n <= 0 {
		n = 1000
	}
	return strconv.FormatInt(n+1, 10)
}

// incrementDecimal adds one to a decimal digit string, preserving leading
// zeros. Working on the string directly keeps the function total for runs
// longer than any integer type holds.
func incrementDecimal(s string) string {
	b := []byte(s)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < '9' {
			b[i]++
			return string(b)
		}
		b[i] = '0'
	}
	// All nines: the run grows by one place, like 999 -> 1000.
	return "1" + string(b)
}

func stripNonDigits(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
