package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeCFOP(t *testing.T) {
	cases := []struct {
		name       string
		raw        string
		interstate bool
		want       string
	}{
		{"intrastate kept", "5102", false, "5102"},
		{"flips to interstate", "5102", true, "6102"},
		{"flips to intrastate", "6102", false, "5102"},
		{"strips non digits", "x108", false, "5108"},
		{"short code padded", "102", true, "6102"},
		{"single digit padded", "8", false, "5008"},
		{"foreign prefix replaced", "7102", false, "5102"},
		{"long code truncated", "51029", false, "5102"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SanitizeCFOP(tc.raw, tc.interstate)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSanitizeCFOP_EmptyIsError(t *testing.T) {
	_, err := SanitizeCFOP("", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCFOP)

	_, err = SanitizeCFOP("abc", true)
	assert.ErrorIs(t, err, ErrInvalidCFOP)
}

func TestSubstituteCSOSN(t *testing.T) {
	assert.Equal(t, "102", SubstituteCSOSN("00"))
	assert.Equal(t, "102", SubstituteCSOSN("90"))
	assert.Equal(t, "400", SubstituteCSOSN("40"))
	assert.Equal(t, "400", SubstituteCSOSN("60"))
	assert.Equal(t, "500", SubstituteCSOSN("50"))
	// CSOSN passes through untouched.
	assert.Equal(t, "201", SubstituteCSOSN("201"))
	// Unknown CST falls back to 102.
	assert.Equal(t, "102", SubstituteCSOSN("30"))
}

func TestExtractSituationCode(t *testing.T) {
	assert.Equal(t, "00", ExtractSituationCode("00 - Tributada integralmente"))
	assert.Equal(t, "102", ExtractSituationCode("102- Sem permissão de crédito"))
	assert.Equal(t, "01", ExtractSituationCode("01"))
	assert.Equal(t, "", ExtractSituationCode("Tributada"))
	assert.Equal(t, "", ExtractSituationCode(""))
}
