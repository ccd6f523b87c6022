package validator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(""))
	assert.True(t, IsEmpty("   "))
	assert.True(t, IsEmpty("\t\n"))
	assert.False(t, IsEmpty("x"))
	assert.False(t, IsEmpty("  x  "))
}

func TestIsValidLatitude(t *testing.T) {
	assert.True(t, IsValidLatitude(0))
	assert.True(t, IsValidLatitude(-90))
	assert.True(t, IsValidLatitude(90))
	assert.False(t, IsValidLatitude(90.0001))
	assert.False(t, IsValidLatitude(math.NaN()))
	assert.False(t, IsValidLatitude(math.Inf(1)))
}

func TestIsValidLongitude(t *testing.T) {
	assert.True(t, IsValidLongitude(180))
	assert.True(t, IsValidLongitude(-180))
	assert.False(t, IsValidLongitude(180.0001))
	assert.False(t, IsValidLongitude(math.NaN()))
}

func TestIsInSlice(t *testing.T) {
	assert.True(t, IsInSlice("b", []string{"a", "b"}))
	assert.False(t, IsInSlice("c", []string{"a", "b"}))
	assert.False(t, IsInSlice("a", nil))
}

func TestValidationErrors(t *testing.T) {
	errs := ValidationErrors{
		{Field: "latitude", Message: "latitude must be between -90 and 90"},
		{Field: "image", Message: "image is required"},
	}
	assert.Equal(t, "latitude: latitude must be between -90 and 90; image: image is required", errs.Error())
	assert.Equal(t, map[string]string{
		"latitude": "latitude must be between -90 and 90",
		"image":    "image is required",
	}, errs.ToMap())
}

func TestValidationErrorsIsEmpty(t *testing.T) {
	var errs ValidationErrors
	assert.True(t, errs.IsEmpty())

	errs = append(errs, ValidationError{Field: "image", Message: "image is required"})
	assert.False(t, errs.IsEmpty())
}
