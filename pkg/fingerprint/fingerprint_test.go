package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmailIdempotent(t *testing.T) {
	inputs := []string{"  John@Example.COM ", "jane@example.com", "\tMIXED@Case.Org\n", ""}
	for _, raw := range inputs {
		once := NormalizeEmail(raw)
		assert.Equal(t, once, NormalizeEmail(once))
	}
}

func TestNormalizeMobileIdempotent(t *testing.T) {
	inputs := []string{"+1 (555) 123-4567", "555.123.4567", "5551234567", ""}
	for _, raw := range inputs {
		once := NormalizeMobile(raw)
		assert.Equal(t, once, NormalizeMobile(once))
	}
}

func TestNormalizeMobileKeepsDigitsOnly(t *testing.T) {
	cases := map[string]string{
		"+1 (555) 123-4567": "15551234567",
		"555-999-0000":      "5559990000",
		"  555 123 4567 ":   "5551234567",
		"no digits":         "",
	}
	for raw, want := range cases {
		assert.Equal(t, want, NormalizeMobile(raw))
	}
}

func TestEmailFingerprintCaseInsensitive(t *testing.T) {
	assert.Equal(t, Email("john@example.com"), Email("JOHN@EXAMPLE.COM"))
	assert.Equal(t, Email(" john@example.com "), Email("john@example.com"))
	assert.NotEqual(t, Email("john@example.com"), Email("jane@example.com"))
}

func TestMobileFingerprintIgnoresPunctuation(t *testing.T) {
	assert.Equal(t, Mobile("(555) 123-4567"), Mobile("555.123.4567"))
	assert.Equal(t, Mobile("5551234567"), Mobile(" 555 123 4567 "))
	assert.NotEqual(t, Mobile("5551234567"), Mobile("5559990000"))
}

func TestFingerprintDeterministic(t *testing.T) {
	first := New("john@example.com")
	second := New("john@example.com")
	assert.Equal(t, first, second)
	assert.Len(t, first.String(), 64)
}
