package validation

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	expiryPattern = regexp.MustCompile(`^(\d{2})/(\d{2})$`)
	cvvPattern    = regexp.MustCompile(`^\d{3,4}$`)
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// IsValidCardholderName требует не меньше двух символов после обрезки пробелов.
func IsValidCardholderName(name string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(name)) >= 2
}

// IsValidExpiry проверяет срок действия в формате MM/YY.
// Год считается годом текущего века; срок не должен быть раньше текущего месяца.
func IsValidExpiry(expiry string, now time.Time) bool {
	m := expiryPattern.FindStringSubmatch(expiry)
	if m == nil {
		return false
	}

	month, _ := strconv.Atoi(m[1])
	yy, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return false
	}

	year := now.Year()/100*100 + yy
	if year != now.Year() {
		return year > now.Year()
	}
	return month >= int(now.Month())
}

// IsValidCVV проверяет, что код безопасности состоит из 3 или 4 цифр.
func IsValidCVV(cvv string) bool {
	return cvvPattern.MatchString(cvv)
}

// IsValidPayeeEmail проверяет упрощённую форму адреса: один «@» и точка после него.
func IsValidPayeeEmail(email string) bool {
	return emailPattern.MatchString(email)
}
