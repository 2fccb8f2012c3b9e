package utils

import "strings"

// onlyDigits strips everything but ASCII digits
func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// repeatedDigits reports whether every digit is the same. Those shapes pass
// the check-digit math but the registry rejects them.
func repeatedDigits(digits string) bool {
	return strings.Count(digits, digits[:1]) == len(digits)
}

// checkDigit computes one mod-11 verification digit over the leading digits,
// one weight per digit
func checkDigit(digits string, weights []int) byte {
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	if r := sum % 11; r >= 2 {
		return byte('0' + 11 - r)
	}
	return '0'
}

var (
	cpfWeights  = [2][]int{{10, 9, 8, 7, 6, 5, 4, 3, 2}, {11, 10, 9, 8, 7, 6, 5, 4, 3, 2}}
	cnpjWeights = [2][]int{{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}, {6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}}
)

// ValidateCPF reports whether the value is a valid CPF. Mask characters are
// ignored, so "111.444.777-35" and "11144477735" both pass.
func ValidateCPF(cpf string) bool {
	digits := onlyDigits(cpf)
	if len(digits) != 11 || repeatedDigits(digits) {
		return false
	}
	return digits[9] == checkDigit(digits, cpfWeights[0]) &&
		digits[10] == checkDigit(digits, cpfWeights[1])
}

// ValidateCNPJ reports whether the value is a valid CNPJ, ignoring mask
// characters
func ValidateCNPJ(cnpj string) bool {
	digits := onlyDigits(cnpj)
	if len(digits) != 14 || repeatedDigits(digits) {
		return false
	}
	return digits[12] == checkDigit(digits, cnpjWeights[0]) &&
		digits[13] == checkDigit(digits, cnpjWeights[1])
}
