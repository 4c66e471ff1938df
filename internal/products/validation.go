package products

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validation messages shown inline next to the form.
const (
	MsgRequired      = "Name and price are required"
	MsgInvalidPrice  = "Price must be a valid number"
	MsgNegativePrice = "Price cannot be negative"
)

var validate = validator.New()

// Validate checks a draft before any request is made and converts it into an Input.
func Validate(d Draft) (Input, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.Price = strings.TrimSpace(d.Price)

	if err := validate.Struct(d); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return Input{}, &ValidationError{Message: MsgRequired}
		}
		return Input{}, err
	}

	price, err := decimal.NewFromString(d.Price)
	if err != nil {
		return Input{}, &ValidationError{Message: MsgInvalidPrice}
	}
	if price.IsNegative() {
		return Input{}, &ValidationError{Message: MsgNegativePrice}
	}

	return Input{Name: d.Name, Price: price, Description: d.Description}, nil
}
