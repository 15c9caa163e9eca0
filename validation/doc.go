// Package validation checks action payloads before they reach a reducer.
//
// Struct tags cover most payloads:
//
//	type Customer struct {
//	    FullName   string `json:"fullName" validate:"required"`
//	    NationalID string `json:"nationalId" validate:"required"`
//	}
//	err := validation.Validate(c)
//
// Validator collects checks that need code:
//
//	err := validation.New().Positive("amount", amount).Err()
package validation
