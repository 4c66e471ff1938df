package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/barcode-console/internal/integrations/productapi"
	"github.com/odyssey-erp/barcode-console/internal/products"
)

// fakeAPI is an in-memory product API that records every call.
type fakeAPI struct {
	mu        sync.Mutex
	items     []products.Product
	listErr   error
	updateErr error
	deleteErr error

	listCalls   int
	updateCalls []string
	deleteCalls []string

	watch      *Panel
	busyInside []bool

	// updateStarted is signalled and updateGate awaited by Update when set.
	updateStarted chan struct{}
	updateGate    chan struct{}
}

func newFakeAPI(items ...products.Product) *fakeAPI {
	return &fakeAPI{items: items}
}

func (f *fakeAPI) observe() {
	if f.watch != nil {
		f.busyInside = append(f.busyInside, f.watch.Busy)
	}
}

func (f *fakeAPI) List(ctx context.Context) ([]products.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	f.observe()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]products.Product, len(f.items))
	copy(out, f.items)
	return out, nil
}

func (f *fakeAPI) Update(ctx context.Context, id string, in products.Input) (products.Product, error) {
	if f.updateStarted != nil {
		f.updateStarted <- struct{}{}
	}
	if f.updateGate != nil {
		<-f.updateGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls = append(f.updateCalls, id)
	f.observe()
	if f.updateErr != nil {
		return products.Product{}, f.updateErr
	}
	for i, p := range f.items {
		if p.ID == id {
			p.Name = in.Name
			p.Price = in.Price
			p.Description = in.Description
			f.items[i] = p
			return p, nil
		}
	}
	return products.Product{}, &productapi.Error{Op: productapi.OpUpdate, Status: 404, Message: "Product not found"}
}

func (f *fakeAPI) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls = append(f.deleteCalls, id)
	f.observe()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, p := range f.items {
		if p.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return &productapi.Error{Op: productapi.OpDelete, Status: 404, Message: "Product not found"}
}

func (f *fakeAPI) deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleteCalls...)
}

func product(id, name, price string) products.Product {
	return products.Product{ID: id, Name: name, Price: decimal.RequireFromString(price), Barcode: "data:image/png;base64,iVBORw0KGgo="}
}

func ids(list []products.Product) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, p.ID)
	}
	return out
}

func loadedPanel(t *testing.T, api *fakeAPI) *Panel {
	t.Helper()
	panel := &Panel{}
	require.NoError(t, panel.Load(context.Background(), api))
	return panel
}

func TestPanelLoad(t *testing.T) {
	api := newFakeAPI(product("1", "Widget", "9.99"), product("2", "Gadget", "5"))
	panel := &Panel{Error: "stale"}
	api.watch = panel

	require.NoError(t, panel.Load(context.Background(), api))

	assert.True(t, panel.Loaded)
	assert.Empty(t, panel.Error)
	assert.Equal(t, []string{"1", "2"}, ids(panel.Products))
	assert.Equal(t, []string{"1", "2"}, ids(panel.Filtered))
	assert.Equal(t, []bool{true}, api.busyInside)
	assert.False(t, panel.Busy)
}

func TestPanelLoadFailure(t *testing.T) {
	api := newFakeAPI()
	api.listErr = errors.New("connection refused")
	panel := &Panel{}

	require.Error(t, panel.Load(context.Background(), api))
	assert.Equal(t, MsgFetchFailed, panel.Error)
	assert.False(t, panel.Loaded)
	assert.False(t, panel.Busy)
}

func TestPanelSearchIsLocal(t *testing.T) {
	api := newFakeAPI(product("1", "Widget", "1"), product("2", "Gadget", "2"), product("3", "Wide Lens", "3"))
	panel := loadedPanel(t, api)

	panel.Search("wid")
	assert.Equal(t, []string{"1", "3"}, ids(panel.Filtered))

	panel.Search("WIDGET")
	assert.Equal(t, []string{"1"}, ids(panel.Filtered))

	panel.Search("")
	assert.Equal(t, []string{"1", "2", "3"}, ids(panel.Filtered))
	assert.Equal(t, 1, api.listCalls)
	assert.Len(t, panel.Products, 3)
}

func TestPanelOpenEditSeedsDraft(t *testing.T) {
	api := newFakeAPI(products.Product{ID: "42", Name: "Old", Price: decimal.RequireFromString("10")})
	panel := loadedPanel(t, api)

	require.NoError(t, panel.OpenEditByID("42"))
	assert.True(t, panel.IsEditing())
	assert.Equal(t, products.Draft{Name: "Old", Price: "10"}, panel.EditDraft)

	assert.ErrorIs(t, panel.OpenEditByID("missing"), ErrUnknownProduct)
	assert.Equal(t, MsgNotFound, panel.Error)
}

func TestPanelSubmitEditReplacesRecord(t *testing.T) {
	api := newFakeAPI(product("42", "Old", "10"), product("7", "Other", "1"))
	panel := loadedPanel(t, api)
	api.watch = panel

	require.NoError(t, panel.OpenEditByID("42"))
	panel.ChangeEdit(products.FieldName, "New")

	updated, err := panel.SubmitEdit(context.Background(), api)
	require.NoError(t, err)

	assert.Equal(t, "New", updated.Name)
	assert.Equal(t, []string{"42"}, api.updateCalls)
	assert.Equal(t, []bool{true}, api.busyInside)
	assert.False(t, panel.Busy)
	assert.False(t, panel.IsEditing())
	assert.Equal(t, MsgUpdated, panel.Notice)

	got, ok := panel.Find("42")
	require.True(t, ok)
	assert.Equal(t, "New", got.Name)
	assert.Equal(t, []string{"42", "7"}, ids(panel.Products))
}

func TestPanelSubmitEditReappliesSearch(t *testing.T) {
	api := newFakeAPI(product("42", "Old Widget", "10"), product("7", "Widget", "1"))
	panel := loadedPanel(t, api)
	panel.Search("widget")
	require.Len(t, panel.Filtered, 2)

	require.NoError(t, panel.OpenEditByID("42"))
	panel.ChangeEdit(products.FieldName, "Gizmo")
	_, err := panel.SubmitEdit(context.Background(), api)
	require.NoError(t, err)

	assert.Equal(t, []string{"7"}, ids(panel.Filtered))
	assert.Len(t, panel.Products, 2)
}

func TestPanelSubmitEditValidation(t *testing.T) {
	api := newFakeAPI(product("42", "Old", "10"))
	panel := loadedPanel(t, api)
	require.NoError(t, panel.OpenEditByID("42"))

	panel.ChangeEdit(products.FieldPrice, "-5")
	_, err := panel.SubmitEdit(context.Background(), api)

	assert.ErrorIs(t, err, products.ErrValidation)
	assert.Equal(t, products.MsgNegativePrice, panel.Error)
	assert.Empty(t, api.updateCalls)
	assert.True(t, panel.IsEditing())

	panel.ChangeEdit(products.FieldPrice, "")
	_, err = panel.SubmitEdit(context.Background(), api)
	assert.ErrorIs(t, err, products.ErrValidation)
	assert.Equal(t, products.MsgRequired, panel.Error)
	assert.Empty(t, api.updateCalls)
}

func TestPanelSubmitEditFailureKeepsModal(t *testing.T) {
	api := newFakeAPI(product("42", "Old", "10"))
	panel := loadedPanel(t, api)
	require.NoError(t, panel.OpenEditByID("42"))
	panel.ChangeEdit(products.FieldName, "New")

	api.updateErr = errors.New("timeout")
	_, err := panel.SubmitEdit(context.Background(), api)
	require.Error(t, err)
	assert.Equal(t, MsgUpdateFailed, panel.Error)
	assert.True(t, panel.IsEditing())
	assert.False(t, panel.Busy)

	api.updateErr = &productapi.Error{Status: 400, Message: "Price too high"}
	_, err = panel.SubmitEdit(context.Background(), api)
	require.Error(t, err)
	assert.Equal(t, "Price too high", panel.Error)

	got, _ := panel.Find("42")
	assert.Equal(t, "Old", got.Name)
}

func TestPanelSubmitEditWithoutModal(t *testing.T) {
	panel := &Panel{}
	_, err := panel.SubmitEdit(context.Background(), newFakeAPI())
	assert.ErrorIs(t, err, ErrNotEditing)
}

func TestPanelCloseEditDiscardsDraft(t *testing.T) {
	api := newFakeAPI(product("42", "Old", "10"))
	panel := loadedPanel(t, api)
	require.NoError(t, panel.OpenEditByID("42"))
	panel.ChangeEdit(products.FieldName, "Unsaved")

	panel.CloseEdit()
	assert.False(t, panel.IsEditing())
	assert.True(t, panel.EditDraft.IsEmpty())
	assert.Empty(t, api.updateCalls)
}

func TestPanelDeleteRequiresConfirmation(t *testing.T) {
	api := newFakeAPI(product("7", "Widget", "1"))
	panel := loadedPanel(t, api)

	err := panel.Delete(context.Background(), api, "7", false)
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Empty(t, api.deleteCalls)
	assert.Equal(t, []string{"7"}, ids(panel.Products))
}

func TestPanelDeleteRemovesRecord(t *testing.T) {
	api := newFakeAPI(product("7", "Widget", "1"), product("8", "Widget Pro", "2"))
	panel := loadedPanel(t, api)
	panel.Search("widget")
	require.NoError(t, panel.OpenEditByID("7"))
	api.watch = panel

	require.NoError(t, panel.Delete(context.Background(), api, "7", true))

	assert.Equal(t, []string{"7"}, api.deleteCalls)
	assert.Equal(t, []bool{true}, api.busyInside)
	assert.False(t, panel.Busy)
	assert.Equal(t, []string{"8"}, ids(panel.Products))
	assert.Equal(t, []string{"8"}, ids(panel.Filtered))
	assert.False(t, panel.IsEditing())
}

func TestPanelDeleteFailureKeepsList(t *testing.T) {
	api := newFakeAPI(product("7", "Widget", "1"))
	panel := loadedPanel(t, api)
	api.deleteErr = errors.New("boom")

	require.Error(t, panel.Delete(context.Background(), api, "7", true))
	assert.Equal(t, MsgDeleteFailed, panel.Error)
	assert.Equal(t, []string{"7"}, ids(panel.Products))
	assert.False(t, panel.Busy)
}

func TestPanelDownloadIsLocal(t *testing.T) {
	api := newFakeAPI(product("1", "Widget", "1"))
	panel := loadedPanel(t, api)

	file, err := panel.Download("1")
	require.NoError(t, err)
	assert.Equal(t, "Widget-barcode.png", file.Name)
	assert.Equal(t, "image/png", file.ContentType)
	assert.Equal(t, 1, api.listCalls)

	_, err = panel.Download("nope")
	assert.ErrorIs(t, err, ErrUnknownProduct)
}

func TestPanelLabels(t *testing.T) {
	panel := &Panel{}
	assert.Equal(t, "Update Product", panel.UpdateLabel())
	assert.Equal(t, MsgNoProducts, panel.EmptyMessage())

	panel.Busy = true
	panel.SearchTerm = "x"
	assert.Equal(t, "Updating...", panel.UpdateLabel())
	assert.Equal(t, MsgNoMatches, panel.EmptyMessage())
}
