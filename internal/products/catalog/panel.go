// Package catalog implements the product list, search, edit and delete panel.
package catalog

import (
	"context"
	"errors"
	"slices"

	"github.com/odyssey-erp/barcode-console/internal/products"
)

var (
	// ErrNotConfirmed is returned when a delete was not confirmed by the user.
	ErrNotConfirmed = errors.New("catalog: delete not confirmed")
	// ErrNotEditing is returned when an edit is submitted with no product selected.
	ErrNotEditing = errors.New("catalog: no product being edited")
	// ErrUnknownProduct is returned for ids missing from the working list.
	ErrUnknownProduct = errors.New("catalog: unknown product")
)

// Messages surfaced by the panel.
const (
	MsgFetchFailed  = "Failed to fetch products"
	MsgUpdateFailed = "Failed to update product"
	MsgDeleteFailed = "Failed to delete product"
	MsgUpdated      = "Product updated successfully!"
	MsgNotFound     = "Product not found"
	MsgNoMatches    = "No products match your search."
	MsgNoProducts   = "No products available."
)

// API is the slice of the product API the panel needs.
type API interface {
	List(ctx context.Context) ([]products.Product, error)
	Update(ctx context.Context, id string, in products.Input) (products.Product, error)
	Delete(ctx context.Context, id string) error
}

// Panel is the state of the product list view. Products is the working list;
// Filtered is always recomputed from it.
type Panel struct {
	Products   []products.Product `json:"products"`
	Filtered   []products.Product `json:"filtered"`
	SearchTerm string             `json:"search_term"`
	EditingID  string             `json:"editing_id,omitempty"`
	EditDraft  products.Draft     `json:"edit_draft"`
	Error      string             `json:"error,omitempty"`
	Loaded     bool               `json:"loaded"`

	Notice string `json:"-"`
	Busy   bool   `json:"-"`
}

// Load fetches the full collection into the working list and filtered view.
func (p *Panel) Load(ctx context.Context, api API) error {
	p.Busy = true
	defer func() { p.Busy = false }()

	list, err := api.List(ctx)
	if err != nil {
		p.Error = MsgFetchFailed
		return err
	}
	p.Products = list
	p.Filtered = slices.Clone(list)
	p.Error = ""
	p.Loaded = true
	return nil
}

// Search replaces the search term and recomputes the filtered view locally.
func (p *Panel) Search(term string) {
	p.SearchTerm = term
	p.refilter()
}

// Find returns the working-list record for id.
func (p *Panel) Find(id string) (products.Product, bool) {
	i := slices.IndexFunc(p.Products, func(x products.Product) bool { return x.ID == id })
	if i < 0 {
		return products.Product{}, false
	}
	return p.Products[i], true
}

// OpenEdit opens the edit modal seeded with product.
func (p *Panel) OpenEdit(product products.Product) {
	p.EditingID = product.ID
	p.EditDraft = products.DraftFromProduct(product)
}

// OpenEditByID opens the edit modal for a product of the working list.
func (p *Panel) OpenEditByID(id string) error {
	product, ok := p.Find(id)
	if !ok {
		p.Error = MsgNotFound
		return ErrUnknownProduct
	}
	p.OpenEdit(product)
	return nil
}

// ChangeEdit updates an edit draft field and clears any pending error.
func (p *Panel) ChangeEdit(field, value string) {
	if p.EditDraft.Set(field, value) {
		p.Error = ""
	}
}

// CloseEdit closes the modal and discards unsaved changes.
func (p *Panel) CloseEdit() {
	p.EditingID = ""
	p.EditDraft = products.Draft{}
	p.Error = ""
}

// IsEditing reports whether the edit modal is open.
func (p *Panel) IsEditing() bool {
	return p.EditingID != ""
}

// SubmitEdit validates the edit draft and sends the update. On success the
// server's record replaces the local one and the modal closes; on failure the
// modal stays open with the error.
func (p *Panel) SubmitEdit(ctx context.Context, api API) (products.Product, error) {
	if p.EditingID == "" {
		return products.Product{}, ErrNotEditing
	}
	in, err := products.Validate(p.EditDraft)
	if err != nil {
		p.Error = products.MessageOf(err, products.MsgRequired)
		return products.Product{}, err
	}

	p.Busy = true
	defer func() { p.Busy = false }()

	id := p.EditingID
	updated, err := api.Update(ctx, id, in)
	if err != nil {
		p.Error = products.MessageOf(err, MsgUpdateFailed)
		return products.Product{}, err
	}

	next := make([]products.Product, len(p.Products))
	for i, existing := range p.Products {
		if existing.ID == id {
			next[i] = updated
			continue
		}
		next[i] = existing
	}
	p.Products = next
	p.refilter()
	p.CloseEdit()
	p.Notice = MsgUpdated
	return updated, nil
}

// Delete removes product id once the user has confirmed. Without confirmation
// nothing is sent and the state is unchanged.
func (p *Panel) Delete(ctx context.Context, api API, id string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}

	p.Busy = true
	defer func() { p.Busy = false }()

	if err := api.Delete(ctx, id); err != nil {
		p.Error = products.MessageOf(err, MsgDeleteFailed)
		return err
	}

	p.Products = slices.DeleteFunc(slices.Clone(p.Products), func(x products.Product) bool { return x.ID == id })
	p.refilter()
	if p.EditingID == id {
		p.CloseEdit()
	}
	p.Error = ""
	return nil
}

// Download returns the barcode of a loaded product. It never contacts the API.
func (p *Panel) Download(id string) (products.BarcodeFile, error) {
	product, ok := p.Find(id)
	if !ok {
		return products.BarcodeFile{}, ErrUnknownProduct
	}
	return product.BarcodeFile()
}

// UpdateLabel is the caption of the edit submit control.
func (p *Panel) UpdateLabel() string {
	if p.Busy {
		return "Updating..."
	}
	return "Update Product"
}

// EmptyMessage is shown when the filtered view has no rows.
func (p *Panel) EmptyMessage() string {
	if p.SearchTerm != "" {
		return MsgNoMatches
	}
	return MsgNoProducts
}

func (p *Panel) refilter() {
	p.Filtered = products.Filter(p.Products, p.SearchTerm)
}
