package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email string  `json:"email" validate:"required,email"`
	Role  string  `json:"role" validate:"required,oneof=admin hr"`
	Color string  `json:"color" validate:"hexrgb"`
	Score float64 `json:"score" validate:"gt=0"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := Struct(sample{Email: "nope", Role: "root", Color: "red"})
	require.Error(t, err)

	issues, ok := Issues(err)
	require.True(t, ok)
	fields := make([]string, 0, len(issues))
	for _, issue := range issues {
		fields = append(fields, issue.Field)
	}
	assert.Equal(t, []string{"color", "email", "role", "score"}, fields)
	assert.Equal(t, "must be one of: admin, hr", issues[2].Reason)
}

func TestStructAcceptsValid(t *testing.T) {
	require.NoError(t, Struct(sample{Email: "a@b.example", Role: "hr", Color: "#1f77B4", Score: 1}))
	require.NoError(t, Struct(sample{Email: "a@b.example", Role: "hr", Score: 1}))
}

func TestIssuesOnOtherError(t *testing.T) {
	_, ok := Issues(assert.AnError)
	assert.False(t, ok)
}
