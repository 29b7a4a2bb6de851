package helpers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/morugetsm/prevue/internal/helpers"
)

func TestIsBindArgToken(t *testing.T) {
	tests := []struct {
		in     string
		expect bool
	}{
		{"name", true},
		{"_private", true},
		{"a1", true},
		{"aria-label", true},
		{"xlink:href", true},
		{"1a", false},
		{"", false},
		{"-a", false},
		{":a", false},
		{"a b", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expect, helpers.IsBindArgToken(tt.in), tt.in)
	}
}

func TestIsIdentifierChar(t *testing.T) {
	assert.True(t, helpers.IsIdentifierChar('a'))
	assert.True(t, helpers.IsIdentifierChar('_'))
	assert.True(t, helpers.IsIdentifierChar('-'))
	assert.True(t, helpers.IsIdentifierChar(':'))
	assert.False(t, helpers.IsIdentifierChar(' '))
	assert.False(t, helpers.IsIdentifierChar('['))
}
