package dto

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators installs the SPEI-specific binding rules on gin's
// validator engine. Call once at startup, before routes are served.
func RegisterCustomValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("spei_account", validSpeiAccount)
}

// validSpeiAccount accepts the three account shapes SPEI routes to: a
// 10-digit mobile number, a 16-digit card number, or an 18-digit CLABE with
// a valid check digit.
func validSpeiAccount(fl validator.FieldLevel) bool {
	account := fl.Field().String()
	for _, r := range account {
		if r < '0' || r > '9' {
			return false
		}
	}
	switch len(account) {
	case 10, 16:
		return true
	case 18:
		return validClabeCheckDigit(account)
	}
	return false
}

// validClabeCheckDigit verifies the last digit of an 18-digit CLABE using the
// standard weighting (3, 7, 1 repeating) mod 10.
func validClabeCheckDigit(clabe string) bool {
	weights := [3]int{3, 7, 1}
	sum := 0
	for i := 0; i < 17; i++ {
		digit := int(clabe[i] - '0')
		sum += (digit * weights[i%3]) % 10
	}
	check := (10 - sum%10) % 10
	return int(clabe[17]-'0') == check
}
