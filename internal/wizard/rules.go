package wizard

import (
	"strings"

	"github.com/hmon-seguros/quote-api/internal/models"
	"github.com/hmon-seguros/quote-api/internal/utils"
)

// StepCount is the number of wizard steps: dados pessoais, residência e uso,
// seguro e perfil, veículo
const StepCount = 4

// requiredFields lists the unconditionally required fields per step
var requiredFields = map[int][]string{
	0: {
		"email",
		"celular",
		"cpf",
		"nomeCompleto",
		"nascimento",
		"primeiraHabilitacao",
		"cep",
		"estadoCivil",
	},
	1: {"residencia", "portao", "garagemTrabalho", "estudante", "usoVeiculo"},
	2: {"profissao", "tipoSeguro"},
	3: {
		"dadosVeiculo.placa",
		"dadosVeiculo.marca",
		"dadosVeiculo.modelo",
		"dadosVeiculo.anoModelo",
		"dadosVeiculo.alienado",
	},
}

// spouseFields become required on step 1 when the applicant is married
var spouseFields = []string{
	"conjugeDirige",
	"cpfConjuge",
	"nomeConjuge",
	"nascimentoConjuge",
	"habilitacaoConjuge",
	"primeiraHabilitacaoConjuge",
}

// StepComplete reports whether all required fields of the given step are
// filled in, including the step's conditional rules
func StepComplete(step int, draft *models.QuoteDraft) bool {
	for _, field := range requiredFields[step] {
		if !filled(draft, field) {
			return false
		}
	}

	// A filled taxpayer id must also survive its check-digit validation
	if step == 0 && !utils.ValidateCPF(draft.CPF) {
		return false
	}

	if step == 1 && draft.Estudante == "sim" && !filled(draft, "garagemFaculdade") {
		return false
	}
	if step == 2 && draft.TipoSeguro == "nao" && (!filled(draft, "seguradora") || !filled(draft, "fimDeVigencia")) {
		return false
	}
	if step == 2 && draft.Sinistro == "sim" && !filled(draft, "sinistroQtd") {
		return false
	}

	if step == 1 && strings.EqualFold(draft.EstadoCivil, "casado") {
		for _, field := range spouseFields {
			if !filled(draft, field) {
				return false
			}
		}
		if !utils.ValidateCPF(draft.CPFConjuge) {
			return false
		}
		if draft.ConjugeDirige == "sim" && !filled(draft, "cnhConjuge") {
			return false
		}
	}

	return true
}

// ValidateField checks a field value against its field-level validator. The
// second return reports whether the field has one.
func ValidateField(path, value string) (valid, checked bool) {
	switch path {
	case "cpf", "cpfConjuge":
		return utils.ValidateCPF(value), true
	}
	return true, false
}

// filled reports whether a field holds a non-empty trimmed value
func filled(draft *models.QuoteDraft, path string) bool {
	value, err := GetField(draft, path)
	if err != nil {
		return false
	}
	return strings.TrimSpace(value) != ""
}
