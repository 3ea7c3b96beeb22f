package util

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const dateLayout = "January 02, 2006"

var printer = message.NewPrinter(language.English)

// FormatDate renders a unix timestamp in UTC as e.g. "December 01, 2020".
func FormatDate(v any) string {
	secs, ok := ToInt64(v)
	if !ok || secs == 0 {
		return ""
	}
	return time.Unix(secs, 0).UTC().Format(dateLayout)
}

// FormatAmount renders an amount in the currency's minor unit, e.g. 1050 usd
// as "$ 10.50". Unknown currencies fall back to the raw number.
func FormatAmount(v any, code string) string {
	minor, ok := ToInt64(v)
	if !ok {
		return ""
	}
	unit, err := currency.ParseISO(strings.ToUpper(code))
	if err != nil {
		return fmt.Sprintf("%d", minor)
	}
	scale, _ := currency.Standard.Rounding(unit)
	major := float64(minor) / math.Pow10(scale)
	return printer.Sprintf("%v", currency.Symbol(unit.Amount(major)))
}

// ToInt64 converts the numeric shapes decoded JSON can take.
func ToInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

// Scheme returns the URL scheme the client used to reach us.
func Scheme(r *http.Request) string {
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		return "https://"
	}
	return "http://"
}
