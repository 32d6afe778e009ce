package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesKindAndCode(t *testing.T) {
	err := fmt.Errorf("assign: %w", StaffNotFound())

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(err, &Error{Kind: KindNotFound, Code: CodeStaffNotFound}))
	assert.False(t, errors.Is(err, &Error{Kind: KindNotFound, Code: "OTHER"}))
	assert.False(t, errors.Is(err, ErrValidation))
}

func TestBlockedCarriesCount(t *testing.T) {
	err := Blocked("zona", 3, map[string]any{"reports": 2, "citizens": 1})

	n, ok := BlockedCount(fmt.Errorf("wrap: %w", err))
	assert.True(t, ok)
	assert.Equal(t, 3, n)
	assert.Equal(t, 2, err.Details["reports"])

	_, ok = BlockedCount(NotFound("zona"))
	assert.False(t, ok)
}

func TestErrorCodeFallsBackToKind(t *testing.T) {
	assert.Equal(t, "CONFLICT", Conflict("nome", "Centro").ErrorCode())
	assert.Equal(t, CodeMissingMotive, ValidationCode(CodeMissingMotive, "motivo obrigatório").ErrorCode())
}

func TestDepartmentMismatchNamesBothDepartments(t *testing.T) {
	err := DepartmentMismatch("Água", "Energia")
	assert.Contains(t, err.Error(), "Água")
	assert.Contains(t, err.Error(), "Energia")
}
