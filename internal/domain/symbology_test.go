package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		code string
		want Symbology
	}{
		{"thirteen digits", "4006381333931", SymbologyEAN13},
		{"eight digits", "12345678", SymbologyEAN8},
		{"https url", "https://example.com/x", SymbologyQRCode},
		{"http url", "http://example.com", SymbologyQRCode},
		{"long text", strings.Repeat("a", 51), SymbologyQRCode},
		{"alphanumeric", "ABC-99", SymbologyCode128},
		{"twelve digits falls through", "400638133393", SymbologyCode128},
		{"thirteen chars not all digits", "400638133393a", SymbologyCode128},
		{"fifty chars is not qr", strings.Repeat("a", 50), SymbologyCode128},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.code))
		})
	}
}

func TestParseMode(t *testing.T) {
	m, ok := ParseMode("add")
	assert.True(t, ok)
	assert.Equal(t, ModeIntake, m)

	m, ok = ParseMode("remove")
	assert.True(t, ok)
	assert.Equal(t, ModeDepletion, m)

	_, ok = ParseMode("purge")
	assert.False(t, ok)
	_, ok = ParseMode("")
	assert.False(t, ok)
}
