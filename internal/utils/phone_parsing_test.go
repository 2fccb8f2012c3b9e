package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePhoneNumber(t *testing.T) {
	tests := []struct {
		name      string
		phone     string
		wantDDI   string
		wantDDD   string
		wantValor string
		wantErr   bool
	}{
		{
			name:      "Brazilian mobile with country code",
			phone:     "+5521999887766",
			wantDDI:   "55",
			wantDDD:   "21",
			wantValor: "999887766",
		},
		{
			name:      "Brazilian mobile without country code",
			phone:     "21999887766",
			wantDDI:   "55",
			wantDDD:   "21",
			wantValor: "999887766",
		},
		{
			name:      "Brazilian mobile with mask",
			phone:     "(21) 99988-7766",
			wantDDI:   "55",
			wantDDD:   "21",
			wantValor: "999887766",
		},
		{
			name:    "Too short",
			phone:   "12345",
			wantErr: true,
		},
		{
			name:    "Empty",
			phone:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			components, err := ParsePhoneNumber(tt.phone)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDDI, components.DDI)
			assert.Equal(t, tt.wantDDD, components.DDD)
			assert.Equal(t, tt.wantValor, components.Valor)
		})
	}
}

func TestNormalizeToE164(t *testing.T) {
	assert.Equal(t, "+5521999887766", NormalizeToE164("(21) 99988-7766"))
	assert.Equal(t, "+5521999887766", NormalizeToE164("+55 21 99988-7766"))

	// Unparseable values pass through unchanged
	assert.Equal(t, "123", NormalizeToE164("123"))
	assert.Equal(t, "", NormalizeToE164(""))
}
