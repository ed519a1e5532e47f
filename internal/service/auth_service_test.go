package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validRegistration() RegisterInput {
	return RegisterInput{
		Email:     "farmer@example.com",
		Password:  "longenoughpassword",
		FirstName: "Maria",
		LastName:  "Santos",
		Address:   "Barangay Mango, Cebu",
		Phone:     "+63 912 345 6789",
	}
}

func TestValidateRegistrationAccepts(t *testing.T) {
	assert.Empty(t, validateRegistration(validRegistration()))
}

func TestValidateRegistrationShortPassword(t *testing.T) {
	input := validRegistration()
	input.Password = "short"

	msgs := validateRegistration(input)
	assert.Equal(t, []string{"Password must be at least 8 characters long."}, msgs)
}

func TestValidateRegistrationCollectsAllViolations(t *testing.T) {
	msgs := validateRegistration(RegisterInput{})
	assert.Len(t, msgs, 5)
}

func TestValidateRegistrationAddressBounds(t *testing.T) {
	input := validRegistration()
	input.Address = "abc"
	assert.Len(t, validateRegistration(input), 1)

	input.Address = string(make([]byte, 201))
	assert.Len(t, validateRegistration(input), 1)
}
