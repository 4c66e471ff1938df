package catalog

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/barcode-console/internal/platform/httpx"
	"github.com/odyssey-erp/barcode-console/internal/products"
	"github.com/odyssey-erp/barcode-console/internal/shared"
	"github.com/odyssey-erp/barcode-console/internal/view"
)

const (
	pageTemplate = "pages/products.html"
	rowsTemplate = "partials/product_rows.html"
	viewPath     = "/products/view"

	listFlightKey = "list"
)

// Handler serves the product panel.
type Handler struct {
	logger    *slog.Logger
	api       API
	store     *Store
	templates *view.Engine
	csrf      *shared.CSRFManager
	loads     singleflight.Group
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, api API, store *Store, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, api: api, store: store, templates: templates, csrf: csrf}
}

// MountRoutes registers the panel routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.mount)
	r.Get("/view", h.show)
	r.Get("/search", h.search)
	r.Post("/edit/close", h.closeEdit)
	r.Get("/{id}/edit", h.openEdit)
	r.Post("/{id}/edit", h.submitEdit)
	r.Get("/{id}/delete", h.confirmDelete)
	r.Post("/{id}/delete", h.delete)
	r.Get("/{id}/barcode", h.download)
}

type pageData struct {
	Panel         *Panel
	ConfirmDelete *products.Product
}

type searchResponse struct {
	Term     string             `json:"term"`
	Total    int                `json:"total"`
	Products []products.Product `json:"products"`
}

// mount is the first display of the panel: it always fetches a fresh list.
func (h *Handler) mount(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	release, ok := h.lock(w, r, sid)
	if !ok {
		return
	}
	defer release()
	panel := h.load(r)
	h.save(r, sid, panel)
	h.render(w, r, pageData{Panel: panel}, http.StatusOK)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	release, ok := h.lock(w, r, sid)
	if !ok {
		return
	}
	defer release()
	panel := h.panel(r, sid)
	h.render(w, r, pageData{Panel: panel}, http.StatusOK)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	release, ok := h.lock(w, r, sid)
	if !ok {
		return
	}
	defer release()
	panel := h.panel(r, sid)
	panel.Search(r.URL.Query().Get("q"))
	h.save(r, sid, panel)

	switch {
	case wantsJSON(r):
		httpx.JSON(w, http.StatusOK, searchResponse{
			Term:     panel.SearchTerm,
			Total:    len(panel.Products),
			Products: panel.Filtered,
		})
	case r.Header.Get("X-Requested-With") == "fetch":
		if err := h.templates.RenderStatus(w, rowsTemplate, http.StatusOK, view.TemplateData{Data: pageData{Panel: panel}}); err != nil {
			h.logger.Error("render template", slog.Any("error", err), slog.String("template", rowsTemplate))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	default:
		h.render(w, r, pageData{Panel: panel}, http.StatusOK)
	}
}

func (h *Handler) openEdit(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	release, ok := h.lock(w, r, sid)
	if !ok {
		return
	}
	defer release()
	panel := h.panel(r, sid)
	status := http.StatusOK
	if err := panel.OpenEditByID(chi.URLParam(r, "id")); err != nil {
		status = http.StatusNotFound
	}
	h.save(r, sid, panel)
	h.render(w, r, pageData{Panel: panel}, status)
}

func (h *Handler) submitEdit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sid := sessionID(r)
	release, ok := h.lock(w, r, sid)
	if !ok {
		return
	}
	defer release()
	panel := h.panel(r, sid)

	id := chi.URLParam(r, "id")
	if panel.EditingID != id {
		if err := panel.OpenEditByID(id); err != nil {
			h.save(r, sid, panel)
			h.render(w, r, pageData{Panel: panel}, http.StatusNotFound)
			return
		}
	}
	for _, field := range products.Fields {
		panel.ChangeEdit(field, r.PostFormValue(field))
	}

	updated, err := panel.SubmitEdit(r.Context(), h.api)
	h.save(r, sid, panel)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, products.ErrValidation) {
			status = http.StatusUnprocessableEntity
		} else {
			h.logger.Error("update product", slog.Any("error", err), slog.String("id", id))
		}
		h.render(w, r, pageData{Panel: panel}, status)
		return
	}

	h.logger.Info("product updated", slog.String("id", updated.ID))
	h.redirectWithFlash(w, r, viewPath, "success", panel.Notice)
}

func (h *Handler) closeEdit(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	release, ok := h.lock(w, r, sid)
	if !ok {
		return
	}
	defer release()
	panel := h.panel(r, sid)
	panel.CloseEdit()
	h.save(r, sid, panel)
	http.Redirect(w, r, viewPath, http.StatusSeeOther)
}

func (h *Handler) confirmDelete(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	release, ok := h.lock(w, r, sid)
	if !ok {
		return
	}
	defer release()
	panel := h.panel(r, sid)
	product, ok := panel.Find(chi.URLParam(r, "id"))
	if !ok {
		panel.Error = MsgNotFound
		h.render(w, r, pageData{Panel: panel}, http.StatusNotFound)
		return
	}
	h.render(w, r, pageData{Panel: panel, ConfirmDelete: &product}, http.StatusOK)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sid := sessionID(r)
	release, ok := h.lock(w, r, sid)
	if !ok {
		return
	}
	defer release()
	panel := h.panel(r, sid)
	id := chi.URLParam(r, "id")

	err := panel.Delete(r.Context(), h.api, id, r.PostFormValue("confirm") == "yes")
	switch {
	case errors.Is(err, ErrNotConfirmed):
	case err != nil:
		h.logger.Error("delete product", slog.Any("error", err), slog.String("id", id))
		h.save(r, sid, panel)
	default:
		h.logger.Info("product deleted", slog.String("id", id))
		h.save(r, sid, panel)
	}
	http.Redirect(w, r, viewPath, http.StatusSeeOther)
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	release, ok := h.lock(w, r, sid)
	if !ok {
		return
	}
	defer release()
	panel := h.panel(r, sid)

	file, err := panel.Download(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrUnknownProduct) || errors.Is(err, products.ErrNoBarcode) {
			httpx.Problem(w, http.StatusNotFound, "Barcode Not Found", err.Error())
			return
		}
		h.logger.Warn("decode barcode", slog.Any("error", err))
		httpx.Problem(w, http.StatusUnprocessableEntity, "Unreadable Barcode", err.Error())
		return
	}
	if file.Location != "" {
		http.Redirect(w, r, file.Location, http.StatusFound)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}

// panel returns the stored panel for the session, loading a fresh one when
// nothing usable is stored yet.
func (h *Handler) panel(r *http.Request, sid string) *Panel {
	panel, err := h.store.Get(r.Context(), sid)
	if err != nil {
		h.logger.Warn("load panel state", slog.Any("error", err))
	}
	if panel != nil && panel.Loaded {
		return panel
	}
	panel = h.load(r)
	h.save(r, sid, panel)
	return panel
}

// load fetches the product list. Concurrent loads from any sessions share a
// single API call; each caller gets its own Panel.
func (h *Handler) load(r *http.Request) *Panel {
	v, err, _ := h.loads.Do(listFlightKey, func() (any, error) {
		panel := &Panel{}
		err := panel.Load(context.WithoutCancel(r.Context()), h.api)
		return panel, err
	})
	if err != nil {
		h.logger.Error("fetch products", slog.Any("error", err))
	}
	panel := *v.(*Panel)
	return &panel
}

// lock serializes the panel requests of one session. It answers 503 itself
// when the lock cannot be taken.
func (h *Handler) lock(w http.ResponseWriter, r *http.Request, sid string) (func(), bool) {
	release, err := h.store.Lock(r.Context(), sid)
	if err != nil {
		h.logger.Error("lock panel state", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return nil, false
	}
	return release, true
}

func (h *Handler) save(r *http.Request, sid string, panel *Panel) {
	if err := h.store.Save(r.Context(), sid, panel); err != nil {
		h.logger.Warn("save panel state", slog.Any("error", err))
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data pageData, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "All Products",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := h.templates.RenderStatus(w, pageTemplate, status, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err), slog.String("template", pageTemplate))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func sessionID(r *http.Request) string {
	return shared.SessionIDFromContext(r.Context())
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
