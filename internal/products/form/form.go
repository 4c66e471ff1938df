// Package form implements the create-product form.
package form

import (
	"context"

	"github.com/odyssey-erp/barcode-console/internal/products"
)

// Messages surfaced by the form.
const (
	MsgCreated      = "Product added successfully!"
	MsgCreateFailed = "Failed to add product"
)

// Creator is the slice of the product API the form needs.
type Creator interface {
	Create(ctx context.Context, in products.Input) (products.Product, error)
}

// Form is the state of the create-product view.
type Form struct {
	Draft  products.Draft
	Error  string
	Notice string
	Busy   bool
}

// Change updates a draft field and clears any pending error.
func (f *Form) Change(field, value string) {
	if f.Draft.Set(field, value) {
		f.Error = ""
	}
}

// Submit validates the draft and, when valid, asks the API to create it.
// Busy is set only while the request is in flight.
func (f *Form) Submit(ctx context.Context, api Creator) (products.Product, error) {
	f.Notice = ""
	in, err := products.Validate(f.Draft)
	if err != nil {
		f.Error = products.MessageOf(err, products.MsgRequired)
		return products.Product{}, err
	}

	f.Busy = true
	defer func() { f.Busy = false }()

	created, err := api.Create(ctx, in)
	if err != nil {
		f.Error = products.MessageOf(err, MsgCreateFailed)
		return products.Product{}, err
	}

	f.Draft = products.Draft{}
	f.Error = ""
	f.Notice = MsgCreated
	return created, nil
}

// SubmitLabel is the caption of the submit control.
func (f *Form) SubmitLabel() string {
	if f.Busy {
		return "Adding Product..."
	}
	return "Add Product"
}
