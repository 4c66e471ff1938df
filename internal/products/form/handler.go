package form

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/barcode-console/internal/products"
	"github.com/odyssey-erp/barcode-console/internal/shared"
	"github.com/odyssey-erp/barcode-console/internal/view"
)

const pageTemplate = "pages/product_form.html"

// Handler serves the create-product page.
type Handler struct {
	logger    *slog.Logger
	api       Creator
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, api Creator, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, api: api, templates: templates, csrf: csrf}
}

// MountRoutes registers the form routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.show)
	r.Post("/", h.submit)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, &Form{}, http.StatusOK)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	f := &Form{}
	for _, field := range products.Fields {
		f.Change(field, r.PostFormValue(field))
	}

	created, err := f.Submit(r.Context(), h.api)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, products.ErrValidation) {
			status = http.StatusUnprocessableEntity
		} else {
			h.logger.Error("add product", slog.Any("error", err))
		}
		h.render(w, r, f, status)
		return
	}

	h.logger.Info("product added", slog.String("id", created.ID), slog.String("name", created.Name))
	h.redirectWithFlash(w, r, "/", "success", f.Notice)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, f *Form, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	data := view.TemplateData{
		Title:       "Product Barcode Generator",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        f,
	}
	if err := h.templates.RenderStatus(w, pageTemplate, status, data); err != nil {
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
