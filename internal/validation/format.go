package validation

import (
	"strconv"
	"strings"
)

func digitsOnly(s string, limit int) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			if limit > 0 && b.Len() >= limit {
				break
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatCardNumber оставляет не больше 16 цифр и группирует их по четыре.
func FormatCardNumber(v string) string {
	d := digitsOnly(v, 16)

	var b strings.Builder
	for i := 0; i < len(d); i += 4 {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(d[i:min(i+4, len(d))])
	}
	return b.String()
}

// FormatExpiry оставляет не больше 4 цифр и вставляет «/» после месяца.
func FormatExpiry(v string) string {
	d := digitsOnly(v, 4)
	if len(d) >= 3 {
		return d[:2] + "/" + d[2:]
	}
	return d
}

// SanitizeCVV оставляет не больше 4 цифр.
func SanitizeCVV(v string) string {
	return digitsOnly(v, 4)
}

// LastFour возвращает последние четыре цифры номера карты.
func LastFour(number string) string {
	d := digitsOnly(number, 0)
	if len(d) <= 4 {
		return d
	}
	return d[len(d)-4:]
}

// SanitizeQuantity разбирает количество из поля ввода: нецифровые символы отбрасываются,
// пустое значение и ноль дают 1.
func SanitizeQuantity(v string) int {
	d := digitsOnly(v, 9)
	n, err := strconv.Atoi(d)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
