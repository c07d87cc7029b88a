package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("load quiz: %w", NotFound("quiz"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrForbidden))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "load quiz: quiz not found", err.Error())
}

func TestValidationCarriesField(t *testing.T) {
	err := Validation("title", "title is required")

	var de *Error
	assert.True(t, errors.As(err, &de))
	assert.Equal(t, "title", de.Field)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestIdentityHasRole(t *testing.T) {
	id := Identity{Role: RoleTeacher}
	assert.True(t, id.HasRole(RoleStudent, RoleTeacher))
	assert.False(t, id.HasRole(RoleStudent))
}
