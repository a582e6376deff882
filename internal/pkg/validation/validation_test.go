package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("donor@example.com"))
	assert.True(t, IsValidEmail("a.b+tag@clinic.org"))
	assert.False(t, IsValidEmail("not-an-email"))
	assert.False(t, IsValidEmail("x@y"))
	assert.False(t, IsValidEmail("spaces in@example.com"))
	assert.False(t, IsValidEmail(""))
}

func TestIsValidPassword(t *testing.T) {
	assert.True(t, IsValidPassword("abc123!xyz"))
	assert.False(t, IsValidPassword("short1!"))
	assert.False(t, IsValidPassword("nosymbols123"))
	assert.False(t, IsValidPassword("nodigits!!!"))
}

func TestIsValidName(t *testing.T) {
	assert.True(t, IsValidName("Jamie O'Neil-Smith"))
	assert.False(t, IsValidName(""))
	assert.False(t, IsValidName("R2D2"))
}
