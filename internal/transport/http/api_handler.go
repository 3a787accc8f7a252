package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"quizzer-session-service/internal/app"
	"quizzer-session-service/internal/domain"
)

// APIHandler serves the REST catalog surface consumed by the quiz
// selection screen and the authoring form.
type APIHandler struct {
	catalog app.Catalog
	writer  app.CatalogWriter
	logger  *zap.Logger
}

func NewAPIHandler(catalog app.Catalog, writer app.CatalogWriter, logger *zap.Logger) *APIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{catalog: catalog, writer: writer, logger: logger}
}

// Register mounts the catalog routes on the router.
func (h *APIHandler) Register(r chi.Router) {
	r.Get("/api/quizzes", h.listQuizzes)
	r.Get("/api/quizzes/{quizID}", h.getQuiz)
	r.Post("/api/quizzes/add", h.createQuiz)
}

func (h *APIHandler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.catalog.ListQuizzes(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if summaries == nil {
		summaries = []domain.QuizSummary{}
	}
	h.writeJSON(w, http.StatusOK, summaries)
}

func (h *APIHandler) getQuiz(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizID")
	detail, err := h.catalog.GetQuiz(r.Context(), quizID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, detail)
}

// createQuizRequest carries the time limit under its historical short
// name; the read surface serves it as timeLimitMinutes.
type createQuizRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	TimeLimit   int               `json:"timeLimit"`
	Questions   []domain.Question `json:"questions"`
}

func (h *APIHandler) createQuiz(w http.ResponseWriter, r *http.Request) {
	var req createQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid quiz payload", http.StatusBadRequest)
		return
	}

	detail := domain.QuizDetail{
		Title:            req.Title,
		Description:      req.Description,
		TimeLimitMinutes: req.TimeLimit,
		Questions:        req.Questions,
	}
	if err := detail.Validate(); err != nil {
		h.writeError(w, err)
		return
	}

	id, err := h.writer.CreateQuiz(r.Context(), detail)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("quiz created", zap.String("quizId", id), zap.Int("questions", len(req.Questions)))
	h.writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("write response failed", zap.Error(err))
	}
}

func (h *APIHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrMalformedQuiz):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrCatalogUnavailable):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		h.logger.Error("catalog request failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
