package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/Flaviohmm/mei-backend/internal/http/middleware"
	"github.com/Flaviohmm/mei-backend/internal/service"
	"github.com/Flaviohmm/mei-backend/internal/util"
)

// Register cadastra um novo usuário.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var payload service.RegisterInput
	if !decodeJSON(w, r, &payload) {
		return
	}

	profile, err := h.accounts.Register(r.Context(), payload)
	if err != nil {
		h.handleAccountError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, profile)
}

// Login troca e-mail e senha pelo token de acesso.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	result, err := h.accounts.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		h.handleAccountError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// CurrentUser retorna nome e e-mail do dono do token.
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	profile, err := h.accounts.GetCurrentUser(r.Context(), httpmiddleware.GetToken(r.Context()))
	if err != nil {
		h.handleAccountError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, profile)
}

// Logout apaga o token do usuário autenticado.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := httpmiddleware.GetUser(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", service.ErrUnauthenticated.Error(), nil)
		return
	}

	if err := h.accounts.Logout(r.Context(), user.ID); err != nil {
		h.handleAccountError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Logout realizado com sucesso."})
}

// ForgotPassword envia o link de redefinição sem revelar se o e-mail existe.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	if err := h.accounts.RequestPasswordReset(r.Context(), payload.Email); err != nil {
		h.handleAccountError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": service.ResetRequestedMessage})
}

// ResetPassword confirma a redefinição com uid, token e nova senha.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UID         string `json:"uid"`
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	verr := util.NewValidationError()
	if payload.UID == "" {
		verr.Add("uid", "Este campo é obrigatório.")
	}
	if payload.Token == "" {
		verr.Add("token", "Este campo é obrigatório.")
	}
	if payload.NewPassword == "" {
		verr.Add("new_password", "Este campo é obrigatório.")
	}
	if err := verr.OrNil(); err != nil {
		h.handleAccountError(w, err)
		return
	}

	if err := h.accounts.ConfirmPasswordReset(r.Context(), payload.UID, payload.Token, payload.NewPassword); err != nil {
		h.handleAccountError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Senha redefinida com sucesso."})
}

func (h *Handler) handleAccountError(w http.ResponseWriter, err error) {
	var verr *util.ValidationError
	switch {
	case errors.As(err, &verr):
		WriteError(w, http.StatusBadRequest, "VALIDATION", "dados inválidos", verr.Fields)
	case errors.Is(err, service.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "AUTH", "Credenciais inválidas.", nil)
	case errors.Is(err, service.ErrUnauthenticated):
		WriteError(w, http.StatusUnauthorized, "AUTH", "Token inválido.", nil)
	case errors.Is(err, service.ErrNoSession):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "Nenhuma sessão ativa.", nil)
	case errors.Is(err, service.ErrInvalidOrExpiredLink):
		WriteError(w, http.StatusBadRequest, "INVALID_LINK", "Link inválido ou expirado.", nil)
	case errors.Is(err, service.ErrWeakPassword):
		WriteError(w, http.StatusBadRequest, "WEAK_PASSWORD", "A senha deve ter pelo menos 8 caracteres.", map[string][]string{
			"new_password": {"A senha deve ter pelo menos 8 caracteres."},
		})
	case errors.Is(err, service.ErrDeliveryFailed):
		WriteError(w, http.StatusServiceUnavailable, "DELIVERY", "Não foi possível enviar o e-mail. Tente novamente mais tarde.", nil)
	default:
		log.Error().Err(err).Msg("account handler error")
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return false
	}
	return true
}
