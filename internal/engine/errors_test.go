package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoreErrorCarriesMessageKeyAndParams(t *testing.T) {
	err := validationErr("error.play_requires_five", map[string]any{"got": 2})
	assert.Equal(t, CategoryValidation, err.Category)
	assert.Contains(t, err.Error(), "error.play_requires_five")
}

func TestInfoSetViolationIsExported(t *testing.T) {
	err := InfoSetViolation("error.trace_artifact_missing_info_set_tag", nil)
	assert.Equal(t, CategoryInfoSetViolation, err.Category)
}
