package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRegister(t *testing.T) {
	errs := ValidateRegister("email", "", "murray rothbard", "Password123#")
	assert.Equal(t, ValidationErrors{
		"email":    "Invalid email",
		"username": "Username required",
	}, errs)

	assert.False(t, ValidateRegister("test@test.com", "testyman", "Testy McGee", "SomePass123#").HasErrors())

	errs = ValidateRegister("a@b.co", "ab", "x", "short")
	assert.Equal(t, "Username must be at least 3 characters", errs["username"])
	assert.Equal(t, "Password must be at least 8 characters", errs["password"])

	errs = ValidateRegister("a@b.co", "bad name!", "x", "alllowercase1")
	assert.Equal(t, "Username can only contain letters, numbers, _ and -", errs["username"])
	assert.Equal(t, "Password must contain at least one uppercase letter", errs["password"])

	errs = ValidateRegister("a@b.co", strings.Repeat("a", 21), "x", "Password123")
	assert.Equal(t, "Username cannot be longer than 20 characters", errs["username"])
}

func TestValidateLogin(t *testing.T) {
	assert.Equal(t, ValidationErrors{
		"username": "Username required",
		"password": "Password required",
	}, ValidateLogin("", ""))
	assert.False(t, ValidateLogin("praxman", "x").HasErrors())
}

func TestValidateGroup(t *testing.T) {
	errs := ValidateGroup("", "")
	assert.Equal(t, "Group name required", errs["name"])
	assert.Equal(t, "Description required", errs["description"])

	errs = ValidateGroup(strings.Repeat("g", 256), "ok")
	assert.Equal(t, "Group name cannot be longer than 255 characters", errs["name"])
}

func TestValidatePostAndComment(t *testing.T) {
	errs := ValidatePost("", "   ")
	assert.Len(t, errs, 2)

	assert.False(t, ValidatePost("title", strings.Repeat("x", 50000)).HasErrors())
	assert.True(t, ValidatePost("title", strings.Repeat("x", 50001)).HasErrors())

	assert.True(t, ValidateComment("").HasErrors())
	assert.True(t, ValidateComment(strings.Repeat("x", 20001)).HasErrors())
	assert.False(t, ValidateComment("nice").HasErrors())
}

func TestValidateProfile(t *testing.T) {
	empty := ""
	long := strings.Repeat("b", 1001)

	assert.False(t, ValidateProfile(nil, nil).HasErrors())
	assert.Equal(t, "Name required", ValidateProfile(&empty, nil)["name"])
	assert.Equal(t, "Bio cannot be longer than 1000 characters", ValidateProfile(nil, &long)["bio"])
}

func TestAddKeepsFirstError(t *testing.T) {
	errs := make(ValidationErrors)
	errs.Add("email", "first")
	errs.Add("email", "second")
	assert.Equal(t, "first", errs["email"])
}
