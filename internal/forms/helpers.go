package forms

import (
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"medease/m/domain"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// MinPasswordLength is the shortest password the registration form accepts.
const MinPasswordLength = 6

// ValidateEmail performs the loose local@domain.tld check used by every form.
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidatePassword reports whether password has at least MinPasswordLength
// characters.
func ValidatePassword(password string) bool {
	return utf8.RuneCountInString(password) >= MinPasswordLength
}

// FormatDate renders t as M/D/YYYY.
func FormatDate(t time.Time) string {
	return t.Format("1/2/2006")
}

// FormatISODate renders an ISO timestamp or date as M/D/YYYY and returns the
// input unchanged when it cannot be parsed.
func FormatISODate(s string) string {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return FormatDate(t)
		}
	}
	return s
}

// CalculateInventoryValue sums price × quantity over items. The sum is exact;
// rounding is left to display.
func CalculateInventoryValue(items []domain.InventoryItem) float64 {
	total := decimal.Zero
	for _, item := range items {
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(item.Quantity))
		total = total.Add(line)
	}
	f, _ := total.Float64()
	return f
}

// OrderTotal is the amount an order's lines add up to.
func OrderTotal(order domain.Order) float64 {
	return CalculateInventoryValue(order.Items)
}
