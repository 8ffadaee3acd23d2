package question

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/question-bank/internal/auth"
	"github.com/gokatarajesh/question-bank/internal/localize"
	"github.com/gokatarajesh/question-bank/internal/logging"
	httperrors "github.com/gokatarajesh/question-bank/pkg/http/errors"
)

// HTTPHandler exposes the question aggregate and answer evaluation over REST.
type HTTPHandler struct {
	svc    *Service
	eval   *Evaluator
	logger zerolog.Logger
}

// NewHTTPHandler constructs a question HTTP handler.
func NewHTTPHandler(svc *Service, eval *Evaluator, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:    svc,
		eval:   eval,
		logger: logger,
	}
}

// Routes mounts the handlers:
//
//	GET    /                     ?category=c1&category=c2
//	GET    /{id}
//	POST   /{id}/answer
//	POST   /types/{type}
//	PUT    /types/{type}/{id}
//	DELETE /types/{type}/{id}
func (h *HTTPHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.read)
	r.Post("/{id}/answer", h.answer)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Post("/types/{type}", h.create)
		r.Put("/types/{type}/{id}", h.update)
		r.Delete("/types/{type}/{id}", h.delete)
	})
}

type createRequest struct {
	Question
	Categories []string `json:"categories"`
	Tags       []string `json:"tags"`
}

type answerRequest struct {
	Answer string `json:"answer"`
}

type answerResponse struct {
	QuestionID uuid.UUID `json:"question_id"`
	Correct    bool      `json:"correct"`
}

func (h *HTTPHandler) create(w http.ResponseWriter, r *http.Request) {
	t, ok := h.questionType(w, r)
	if !ok {
		return
	}
	var req createRequest
	if !decode(w, r, &req) {
		return
	}

	q, err := h.svc.Create(r.Context(), CreateParams{
		Categories: req.Categories,
		Tags:       req.Tags,
		Type:       t,
		Locale:     localize.FromRequest(r),
		CreatedBy:  viewerFrom(r).Username,
		Question:   req.Question,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httperrors.RespondJSON(w, http.StatusCreated, q)
}

func (h *HTTPHandler) read(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	q, err := h.svc.Read(r.Context(), viewerFrom(r), id, localize.FromRequest(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if q == nil {
		httperrors.RespondNotFound(w, httperrors.ErrCodeQuestionNotFound, "question not found")
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, q)
}

func (h *HTTPHandler) update(w http.ResponseWriter, r *http.Request) {
	t, ok := h.questionType(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var payload Question
	if !decode(w, r, &payload) {
		return
	}

	q, err := h.svc.Update(r.Context(), t, id, localize.FromRequest(r), viewerFrom(r).Username, payload)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, q)
}

func (h *HTTPHandler) delete(w http.ResponseWriter, r *http.Request) {
	t, ok := h.questionType(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id, t); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) list(w http.ResponseWriter, r *http.Request) {
	categories := r.URL.Query()["category"]
	qs, err := h.svc.List(r.Context(), viewerFrom(r), localize.FromRequest(r), categories)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, qs)
}

func (h *HTTPHandler) answer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req answerRequest
	if !decode(w, r, &req) {
		return
	}
	correct, err := h.eval.Evaluate(r.Context(), id, req.Answer)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, answerResponse{QuestionID: id, Correct: correct})
}

func (h *HTTPHandler) questionType(w http.ResponseWriter, r *http.Request) (Type, bool) {
	t, err := ParseType(chi.URLParam(r, "type"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeUnknownType, err.Error())
		return "", false
	}
	return t, true
}

func (h *HTTPHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		httperrors.RespondViolations(w, verr.Violations)
	case errors.Is(err, ErrNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeQuestionNotFound, "question not found")
	default:
		logger := logging.FromContextOr(r.Context(), h.logger)
		logger.Error().
			Str("component", "question_http").
			Err(err).
			Msg("question request failed")
		httperrors.RespondInternalError(w, "internal error")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidID, "invalid question id")
		return uuid.Nil, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid json body")
		return false
	}
	return true
}

func viewerFrom(r *http.Request) Viewer {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		return Viewer{}
	}
	return Viewer{Username: id.Username, Owner: id.Owner}
}
