package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(""))
	assert.True(t, IsEmpty("   "))
	assert.False(t, IsEmpty("dokter"))
}

func TestIsValidDate(t *testing.T) {
	_, ok := IsValidDate("2024-06-10")
	assert.True(t, ok)

	_, ok = IsValidDate("10-06-2024")
	assert.False(t, ok)

	_, ok = IsValidDate("")
	assert.False(t, ok)
}

func TestIsInSlice(t *testing.T) {
	roles := []string{"dokter", "paramedis", "non_medis"}
	assert.True(t, IsInSlice("dokter", roles))
	assert.False(t, IsInSlice("bendahara", roles))
}

func TestValidationErrors(t *testing.T) {
	errs := ValidationErrors{
		{Field: "user_id", Message: "user_id is required"},
		{Field: "latitude", Message: "latitude must be between -90 and 90"},
	}

	assert.Equal(t, "user_id: user_id is required; latitude: latitude must be between -90 and 90", errs.Error())
	assert.Equal(t, map[string]string{
		"user_id":  "user_id is required",
		"latitude": "latitude must be between -90 and 90",
	}, errs.ToMap())
}
