package category

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/question-bank/internal/auth"
	"github.com/gokatarajesh/question-bank/internal/localize"
	"github.com/gokatarajesh/question-bank/internal/logging"
	httperrors "github.com/gokatarajesh/question-bank/pkg/http/errors"
)

// HTTPHandler exposes one label service over REST.
type HTTPHandler struct {
	svc          *Service
	notFoundCode string
	logger       zerolog.Logger
}

// NewHTTPHandler creates a handler for svc. notFoundCode is the error code
// returned for unknown ids.
func NewHTTPHandler(svc *Service, notFoundCode string, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:          svc,
		notFoundCode: notFoundCode,
		logger:       logger,
	}
}

func (h *HTTPHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.read)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

func (h *HTTPHandler) create(w http.ResponseWriter, r *http.Request) {
	var l Label
	if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid json body")
		return
	}
	id, _ := auth.IdentityFrom(r.Context())
	out, err := h.svc.Create(r.Context(), localize.FromRequest(r), id.Username, l)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httperrors.RespondJSON(w, http.StatusCreated, out)
}

func (h *HTTPHandler) read(w http.ResponseWriter, r *http.Request) {
	l, err := h.svc.Read(r.Context(), chi.URLParam(r, "id"), localize.FromRequest(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if l == nil {
		h.fail(w, r, ErrNotFound)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, l)
}

func (h *HTTPHandler) update(w http.ResponseWriter, r *http.Request) {
	var l Label
	if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid json body")
		return
	}
	id, _ := auth.IdentityFrom(r.Context())
	out, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), localize.FromRequest(r), id.Username, l)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) list(w http.ResponseWriter, r *http.Request) {
	labels, err := h.svc.List(r.Context(), localize.FromRequest(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, labels)
}

func (h *HTTPHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		httperrors.RespondViolations(w, verr.Violations)
	case errors.Is(err, ErrNotFound):
		httperrors.RespondNotFound(w, h.notFoundCode, err.Error())
	case errors.Is(err, ErrAlreadyExists):
		httperrors.RespondError(w, http.StatusConflict, httperrors.ErrCodeAlreadyExists, err.Error())
	default:
		logger := logging.FromContextOr(r.Context(), h.logger)
		logger.Error().
			Str("component", h.svc.Taxonomy().Name+"_http").
			Err(err).
			Msg("label request failed")
		httperrors.RespondInternalError(w, "internal error")
	}
}
