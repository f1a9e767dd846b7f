package invoice

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/Flaviohmm/mei-backend/internal/http/middleware"
	"github.com/Flaviohmm/mei-backend/internal/util"
)

// Handler expõe as notas fiscais como recurso REST.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/invoices", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/statistics", h.handleStatistics)
		r.Get("/export", h.handleExport)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/", h.handleReplace)
			r.Patch("/", h.handlePatch)
			r.Delete("/", h.handleDelete)
			r.Post("/activate", h.handleActivate)
			r.Post("/deactivate", h.handleDeactivate)
		})
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	filter, err := ParseFilter(r.URL.Query())
	if err != nil {
		handleDomainError(w, err)
		return
	}

	invoices, err := h.service.List(r.Context(), caller, filter)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	items := make([]Summary, len(invoices))
	for i, inv := range invoices {
		items[i] = inv.Summary()
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	var in Input
	if !decodeInput(w, r, &in) {
		return
	}

	created, err := h.service.Create(r.Context(), caller, in)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created.Detail())
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := invoiceID(w, r)
	if !ok {
		return
	}

	inv, err := h.service.Get(r.Context(), caller, id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv.Detail())
}

func (h *Handler) handleReplace(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, false)
}

func (h *Handler) handlePatch(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, true)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, partial bool) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := invoiceID(w, r)
	if !ok {
		return
	}
	var in Input
	if !decodeInput(w, r, &in) {
		return
	}

	updated, err := h.service.Update(r.Context(), caller, id, in, partial)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated.Detail())
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := invoiceID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), caller, id); err != nil {
		handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := invoiceID(w, r)
	if !ok {
		return
	}

	if err := h.service.Activate(r.Context(), caller, id); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Nota fiscal ativada com sucesso"})
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := invoiceID(w, r)
	if !ok {
		return
	}

	if err := h.service.Deactivate(r.Context(), caller, id); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Nota fiscal desativada com sucesso"})
}

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	filter, err := ParseFilter(r.URL.Query())
	if err != nil {
		handleDomainError(w, err)
		return
	}

	stats, err := h.service.Statistics(r.Context(), caller, filter)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	filter, err := ParseFilter(r.URL.Query())
	if err != nil {
		handleDomainError(w, err)
		return
	}

	export, err := h.service.Export(r.Context(), caller, filter)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, export)
}

func callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	user, ok := httpmiddleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "AUTH", "As credenciais de autenticação não foram fornecidas.", nil)
		return uuid.Nil, false
	}
	return user.ID, true
}

func invoiceID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", ErrNotFound.Error(), nil)
		return uuid.Nil, false
	}
	return id, true
}

func decodeInput(w http.ResponseWriter, r *http.Request, in *Input) bool {
	if err := json.NewDecoder(r.Body).Decode(in); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", map[string][]string{
			util.NonFieldErrors: {err.Error()},
		})
		return false
	}
	return true
}

func handleDomainError(w http.ResponseWriter, err error) {
	var verr *util.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "VALIDATION", "dados inválidos", verr.Fields)
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", ErrNotFound.Error(), nil)
	default:
		log.Error().Err(err).Msg("invoice handler error")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
	}
}

type errorEnvelope struct {
	Error *errorResponse `json:"error"`
}

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: &errorResponse{Code: code, Message: message, Details: details}})
}
