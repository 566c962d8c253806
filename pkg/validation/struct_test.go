package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Year    int     `json:"startYear" validate:"gte=1975,lte=2025"`
	Percent float64 `json:"downPaymentPct" validate:"gte=0,lte=100"`
	Model   string  `json:"priceModel" validate:"omitempty,oneof=annual seasonal"`
	City    string  `mapstructure:"city" validate:"required"`
}

func TestStructValid(t *testing.T) {
	err := Struct(sample{Year: 1990, Percent: 20, City: "National"})
	assert.NoError(t, err)
}

func TestStructCollectsFieldErrors(t *testing.T) {
	err := Struct(sample{Year: 1900, Percent: 120, Model: "weekly"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	var vErr *Error
	require.True(t, errors.As(err, &vErr))

	fields := make(map[string]string)
	for _, f := range vErr.Fields {
		fields[f.Field] = f.Message
	}
	assert.Equal(t, "Must be greater than or equal to 1975", fields["startYear"])
	assert.Equal(t, "Must be less than or equal to 100", fields["downPaymentPct"])
	assert.Equal(t, "Must be one of: annual seasonal", fields["priceModel"])
	assert.Equal(t, "This field is required", fields["city"])
	assert.Contains(t, err.Error(), "startYear")
}

func TestErrorAddAndErrOrNil(t *testing.T) {
	var empty *Error
	assert.NoError(t, empty.ErrOrNil())

	e := &Error{}
	assert.NoError(t, e.ErrOrNil())

	e.Add("city", "unknown city \"Atlantis\"")
	err := e.ErrOrNil()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "Atlantis")
}
