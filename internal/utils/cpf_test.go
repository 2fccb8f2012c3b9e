package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCPF(t *testing.T) {
	tests := []struct {
		cpf   string
		valid bool
	}{
		{"11144477735", true},
		{"111.444.777-35", true},
		{"529.982.247-25", true},
		{"00000000191", true},
		{"123.456.789-09", true},
		{"111.444.777-36", false}, // second check digit wrong
		{"121.444.777-35", false}, // first check digit wrong
		{"12345678910", false},
		{"1114447773", false},   // too short
		{"111444777351", false}, // too long
		{"", false},
		{"abcdefghijk", false},
		{"123abc78909", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, ValidateCPF(tt.cpf), "ValidateCPF(%q)", tt.cpf)
	}
}

func TestValidateCPF_RepeatedDigits(t *testing.T) {
	// Arithmetically consistent but rejected by the registry
	for d := '0'; d <= '9'; d++ {
		cpf := strings.Repeat(string(d), 11)
		assert.False(t, ValidateCPF(cpf), "ValidateCPF(%q)", cpf)
	}
}

func TestValidateCNPJ(t *testing.T) {
	tests := []struct {
		cnpj  string
		valid bool
	}{
		{"11222333000181", true},
		{"11.222.333/0001-81", true},
		{"60746948000112", true},
		{"00000000000191", true},
		{"11444777000161", true},
		{"11222333000180", false},  // second check digit wrong
		{"11222333000171", false},  // first check digit wrong
		{"1122233300018", false},   // too short
		{"112223330001811", false}, // too long
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, ValidateCNPJ(tt.cnpj), "ValidateCNPJ(%q)", tt.cnpj)
	}
}

func TestValidateCNPJ_RepeatedDigits(t *testing.T) {
	for d := '0'; d <= '9'; d++ {
		cnpj := strings.Repeat(string(d), 14)
		assert.False(t, ValidateCNPJ(cnpj), "ValidateCNPJ(%q)", cnpj)
	}
}
