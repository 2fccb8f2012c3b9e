package wizard

import "strings"

// digitsOnly strips non-digits and caps the result at max characters
func digitsOnly(value string, max int) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == max {
				break
			}
		}
	}
	return b.String()
}

// MaskDate formats digit input as DD/MM/YYYY, truncated to 8 digits
func MaskDate(value string) string {
	d := digitsOnly(value, 8)
	switch {
	case len(d) <= 2:
		return d
	case len(d) <= 4:
		return d[:2] + "/" + d[2:]
	default:
		return d[:2] + "/" + d[2:4] + "/" + d[4:]
	}
}

// MaskPhone formats digit input as (DD) NNNNN-NNNN, truncated to 11 digits
func MaskPhone(value string) string {
	d := digitsOnly(value, 11)
	switch {
	case len(d) == 0:
		return ""
	case len(d) <= 2:
		return "(" + d
	case len(d) <= 7:
		return "(" + d[:2] + ") " + d[2:]
	default:
		return "(" + d[:2] + ") " + d[2:7] + "-" + d[7:]
	}
}

// MaskCEP formats digit input as NNNNN-NNN, truncated to 8 digits
func MaskCEP(value string) string {
	d := digitsOnly(value, 8)
	if len(d) <= 5 {
		return d
	}
	return d[:5] + "-" + d[5:]
}

// MaskCPF formats digit input as NNN.NNN.NNN-NN, truncated to 11 digits
func MaskCPF(value string) string {
	d := digitsOnly(value, 11)
	switch {
	case len(d) <= 3:
		return d
	case len(d) <= 6:
		return d[:3] + "." + d[3:]
	case len(d) <= 9:
		return d[:3] + "." + d[3:6] + "." + d[6:]
	default:
		return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:]
	}
}

// MaskPlate normalizes a license plate to uppercase alphanumeric, 7 chars max
func MaskPlate(value string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(value) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == 7 {
				break
			}
		}
	}
	return b.String()
}

// dateFields are masked as DD/MM/YYYY on set. fimDeVigencia is deliberately
// not one of them: the form takes it as free text.
var dateFields = map[string]bool{
	"nascimento":                 true,
	"primeiraHabilitacao":        true,
	"nascimentoConjuge":          true,
	"primeiraHabilitacaoConjuge": true,
	"nascimentoFilhoMaisNovo":    true,
}

// applyMask applies the input mask for a field, if the field has one
func applyMask(path, value string) string {
	switch path {
	case "celular":
		return MaskPhone(value)
	case "cep":
		return MaskCEP(value)
	case "cpf", "cpfConjuge":
		return MaskCPF(value)
	case "dadosVeiculo.placa":
		return MaskPlate(value)
	}
	if dateFields[path] {
		return MaskDate(value)
	}
	return value
}
