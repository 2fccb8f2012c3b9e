package wizard

import (
	"testing"

	"github.com/hmon-seguros/quote-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func completeStep0Draft() models.QuoteDraft {
	return models.QuoteDraft{
		Email:               "maria@example.com",
		Celular:             "(21) 99988-7766",
		CPF:                 "111.444.777-35",
		NomeCompleto:        "Maria Silva",
		Nascimento:          "01/02/1990",
		PrimeiraHabilitacao: "01/02/2010",
		CEP:                 "20040-020",
		EstadoCivil:         "solteiro",
	}
}

func TestStepComplete_Step0(t *testing.T) {
	draft := completeStep0Draft()
	assert.True(t, StepComplete(0, &draft))

	draft.CPF = ""
	assert.False(t, StepComplete(0, &draft))

	draft.CPF = "   "
	assert.False(t, StepComplete(0, &draft), "whitespace-only value counts as empty")
}

func TestStepComplete_Step0_CPFCheckDigits(t *testing.T) {
	draft := completeStep0Draft()
	assert.True(t, StepComplete(0, &draft))

	draft.CPF = "111.444.777-36"
	assert.False(t, StepComplete(0, &draft), "a filled but invalid CPF blocks the step")

	draft.CPF = "111.111.111-11"
	assert.False(t, StepComplete(0, &draft), "repeated digits are rejected")
}

func TestValidateField(t *testing.T) {
	valid, checked := ValidateField("cpf", "111.444.777-35")
	assert.True(t, checked)
	assert.True(t, valid)

	valid, checked = ValidateField("cpfConjuge", "111.444.777-36")
	assert.True(t, checked)
	assert.False(t, valid)

	_, checked = ValidateField("nomeCompleto", "Maria Silva")
	assert.False(t, checked, "only taxpayer ids carry a field-level validator")
}

func TestStepComplete_Step1_Static(t *testing.T) {
	draft := models.QuoteDraft{
		Residencia:      "casa",
		Portao:          "automatico",
		GaragemTrabalho: "sim",
		Estudante:       "nao",
		UsoVeiculo:      "lazer",
	}
	assert.True(t, StepComplete(1, &draft))

	draft.UsoVeiculo = ""
	assert.False(t, StepComplete(1, &draft))
}

func TestStepComplete_Step1_StudentRequiresFacultyGarage(t *testing.T) {
	draft := models.QuoteDraft{
		Residencia:      "casa",
		Portao:          "manual",
		GaragemTrabalho: "sim",
		Estudante:       "sim",
		UsoVeiculo:      "trabalho",
	}
	assert.False(t, StepComplete(1, &draft))

	draft.GaragemFaculdade = "sim"
	assert.True(t, StepComplete(1, &draft))
}

func TestStepComplete_Step1_MarriedRequiresSpouseFields(t *testing.T) {
	draft := models.QuoteDraft{
		Residencia:      "apartamento",
		Portao:          "automatico",
		GaragemTrabalho: "nao",
		Estudante:       "nao",
		UsoVeiculo:      "lazer",
		EstadoCivil:     "Casado",
	}
	assert.False(t, StepComplete(1, &draft), "married applicant needs spouse fields")

	draft.ConjugeDirige = "nao"
	draft.CPFConjuge = "529.982.247-25"
	draft.NomeConjuge = "João Silva"
	draft.NascimentoConjuge = "05/06/1988"
	draft.HabilitacaoConjuge = "sim"
	draft.PrimeiraHabilitacaoConjuge = "05/06/2008"
	assert.True(t, StepComplete(1, &draft))

	// Spouse driving additionally requires the spouse license number
	draft.ConjugeDirige = "sim"
	assert.False(t, StepComplete(1, &draft))

	draft.CNHConjuge = "12345678900"
	assert.True(t, StepComplete(1, &draft))

	// The spouse CPF goes through the same check-digit validation
	draft.CPFConjuge = "529.982.247-26"
	assert.False(t, StepComplete(1, &draft))
}

func TestStepComplete_Step1_MaritalStatusCaseInsensitive(t *testing.T) {
	draft := models.QuoteDraft{
		Residencia:      "casa",
		Portao:          "manual",
		GaragemTrabalho: "sim",
		Estudante:       "nao",
		UsoVeiculo:      "lazer",
		EstadoCivil:     "CASADO",
	}
	assert.False(t, StepComplete(1, &draft))
}

func TestStepComplete_Step2_Conditionals(t *testing.T) {
	draft := models.QuoteDraft{
		Profissao:  "engenheira",
		TipoSeguro: "sim",
	}
	assert.True(t, StepComplete(2, &draft))

	// Renewal requires prior insurer and expiration
	draft.TipoSeguro = "nao"
	assert.False(t, StepComplete(2, &draft))
	draft.Seguradora = "Seguradora X"
	assert.False(t, StepComplete(2, &draft))
	draft.FimDeVigencia = "01/12/2026"
	assert.True(t, StepComplete(2, &draft))

	// Prior accident requires the count
	draft.Sinistro = "sim"
	assert.False(t, StepComplete(2, &draft))
	draft.SinistroQtd = "1"
	assert.True(t, StepComplete(2, &draft))
}

func TestStepComplete_Step3(t *testing.T) {
	draft := models.QuoteDraft{}
	draft.DadosVeiculo = models.VehicleData{
		Placa:     "ABC1D23",
		Marca:     "Fiat",
		Modelo:    "Argo 1.0",
		AnoModelo: "2022",
		Alienado:  "nao",
	}
	assert.True(t, StepComplete(3, &draft))

	draft.DadosVeiculo.Alienado = ""
	assert.False(t, StepComplete(3, &draft))
}

func TestStepComplete_SpouseRuleOnlyOnStep1(t *testing.T) {
	// Married status alone must not block other steps
	draft := models.QuoteDraft{
		EstadoCivil: "casado",
		Profissao:   "médico",
		TipoSeguro:  "sim",
	}
	assert.True(t, StepComplete(2, &draft))
}
