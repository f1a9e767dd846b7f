package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Flaviohmm/mei-backend/internal/repo"
	"github.com/Flaviohmm/mei-backend/internal/service"
)

type contextKey string

const (
	ContextKeyUser  contextKey = "user"
	ContextKeyToken contextKey = "token"
)

// Authenticator resolve a chave de acesso para o usuário dono.
type Authenticator interface {
	Authenticate(ctx context.Context, key string) (*repo.User, error)
}

// TokenAuth valida o cabeçalho Authorization (Token <chave> ou Bearer <chave>)
// e injeta o usuário no contexto.
func TokenAuth(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := TokenFromHeader(r.Header.Get("Authorization"))
			if !ok {
				writeError(w, http.StatusUnauthorized, "AUTH", "As credenciais de autenticação não foram fornecidas.")
				return
			}

			user, err := authenticator.Authenticate(r.Context(), key)
			if err != nil {
				if errors.Is(err, service.ErrUnauthenticated) {
					writeError(w, http.StatusUnauthorized, "AUTH", "Token inválido.")
					return
				}
				log.Error().Err(err).Msg("falha ao autenticar token")
				writeError(w, http.StatusInternalServerError, "INTERNAL", "erro interno")
				return
			}

			ctx := WithUser(r.Context(), user)
			ctx = context.WithValue(ctx, ContextKeyToken, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenFromHeader extrai a chave de "Token <chave>" ou "Bearer <chave>".
func TokenFromHeader(header string) (string, bool) {
	scheme, key, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return "", false
	}
	if !strings.EqualFold(scheme, "Token") && !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	key = strings.TrimSpace(key)
	if key == "" || strings.Contains(key, " ") {
		return "", false
	}
	return key, true
}

// WithUser injeta o usuário autenticado no contexto.
func WithUser(ctx context.Context, user *repo.User) context.Context {
	return context.WithValue(ctx, ContextKeyUser, user)
}

// GetUser recupera o usuário autenticado do contexto.
func GetUser(ctx context.Context) (*repo.User, bool) {
	user, ok := ctx.Value(ContextKeyUser).(*repo.User)
	return user, ok && user != nil
}

// GetToken recupera a chave usada na requisição.
func GetToken(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyToken).(string)
	return val
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
