// Package validation содержит функции валидации входных данных витрины.
package validation

import (
	"strings"
	"unicode"
)

// MinCardDigits задаёт минимальную длину номера карты без пробелов.
const MinCardDigits = 12

// IsValidCardNumber проверяет номер карты по алгоритму Луна после удаления пробелов.
func IsValidCardNumber(number string) bool {
	digits := stripSpaces(number)
	if len(digits) < MinCardDigits {
		return false
	}
	return luhn(digits)
}

func luhn(number string) bool {
	if number == "" {
		return false
	}

	sum := 0
	double := false

	for i := len(number) - 1; i >= 0; i-- {
		ch := rune(number[i])
		if ch < '0' || ch > '9' {
			return false
		}
		digit := int(ch - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}

	return sum%10 == 0
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
