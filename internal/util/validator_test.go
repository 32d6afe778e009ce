package util

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gestaozabele/zeladoria/internal/apperr"
)

func TestValidateEmail(t *testing.T) {
	cases := map[string]bool{
		"ana@zona.gov":         true,
		" ana@zona.gov ":       true,
		"":                     false,
		"ana":                  false,
		"Ana <ana@zona.gov>":   false,
		"ana@zona.gov, b@c.io": false,
	}
	for in, ok := range cases {
		err := ValidateEmail(in)
		if ok {
			assert.NoError(t, err, in)
		} else {
			assert.ErrorIs(t, err, apperr.ErrValidation, in)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	assert.ErrorIs(t, ValidatePassword("curta"), apperr.ErrValidation)
	assert.NoError(t, ValidatePassword("suficiente"))
}

func TestOptionalString(t *testing.T) {
	assert.Nil(t, OptionalString("   "))
	v := OptionalString(" (11) 5555-0000 ")
	if assert.NotNil(t, v) {
		assert.Equal(t, "(11) 5555-0000", *v)
	}
}
