package fiskal

import "fmt"

// IsElevenDigits indica si s es exactamente 11 dígitos numéricos (forma de un OIB).
func IsElevenDigits(s string) bool {
	if len(s) != 11 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ValidateOIB valida forma y dígito de control del OIB (ISO 7064, MOD 11,10).
func ValidateOIB(oib string) error {
	if !IsElevenDigits(oib) {
		return fmt.Errorf("fiskal: OIB debe tener 11 dígitos, recibido %q", oib)
	}
	expected := ComputeOIBCheckDigit(oib[:10])
	if oib[10] != expected {
		return fmt.Errorf("fiskal: dígito de control del OIB inválido: esperado %c, recibido %c", expected, oib[10])
	}
	return nil
}

// ComputeOIBCheckDigit calcula el dígito de control para los 10 primeros dígitos.
func ComputeOIBCheckDigit(first10 string) byte {
	a := 10
	for i := 0; i < len(first10) && i < 10; i++ {
		a = (a + int(first10[i]-'0')) % 10
		if a == 0 {
			a = 10
		}
		a = (a * 2) % 11
	}
	k := 11 - a
	if k == 10 {
		k = 0
	}
	return byte('0' + k)
}
