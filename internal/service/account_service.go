package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Flaviohmm/mei-backend/internal/auth"
	"github.com/Flaviohmm/mei-backend/internal/mail"
	"github.com/Flaviohmm/mei-backend/internal/repo"
	"github.com/Flaviohmm/mei-backend/internal/util"
)

var (
	// ErrInvalidCredentials indica falha no login, sem dizer qual campo falhou.
	ErrInvalidCredentials = errors.New("credenciais inválidas")
	// ErrUnauthenticated indica token ausente ou inválido.
	ErrUnauthenticated = errors.New("não autenticado")
	// ErrNoSession indica logout sem token ativo.
	ErrNoSession = errors.New("nenhuma sessão ativa")
	// ErrInvalidOrExpiredLink indica link de redefinição inválido ou expirado.
	ErrInvalidOrExpiredLink = errors.New("link inválido ou expirado")
	// ErrWeakPassword indica senha nova curta demais.
	ErrWeakPassword = errors.New("a senha deve ter pelo menos 8 caracteres")
	// ErrDeliveryFailed indica falha no envio do e-mail.
	ErrDeliveryFailed = errors.New("falha ao enviar e-mail")
)

// ResetRequestedMessage é a resposta genérica do pedido de redefinição.
const ResetRequestedMessage = "Se o e-mail estiver cadastrado, você receberá um link para redefinir sua senha."

type accountRepository interface {
	CreateUser(ctx context.Context, arg repo.CreateUserParams) (repo.User, error)
	GetUserByEmail(ctx context.Context, email string) (repo.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (repo.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	CNPJExists(ctx context.Context, cnpj string) (bool, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
	GetOrCreateToken(ctx context.Context, userID uuid.UUID, candidate string) (repo.AuthToken, error)
	GetUserByToken(ctx context.Context, key string) (repo.User, error)
	DeleteTokenByUser(ctx context.Context, userID uuid.UUID) (string, error)
}

type tokenCache interface {
	Get(ctx context.Context, key string) (uuid.UUID, bool, error)
	Set(ctx context.Context, key string, userID uuid.UUID) error
	Delete(ctx context.Context, key string) error
}

type resetSigner interface {
	Sign(userID uuid.UUID, passwordHash string) (string, error)
	Verify(token string, userID uuid.UUID, passwordHash string) error
	TTL() time.Duration
}

// AccountService concentra cadastro, login, sessões e redefinição de senha.
type AccountService struct {
	repo        accountRepository
	cache       tokenCache
	signer      resetSigner
	mailer      mail.Mailer
	frontendURL string
	logger      zerolog.Logger
}

// AccountDeps agrupa os colaboradores do serviço de contas.
type AccountDeps struct {
	Repo        accountRepository
	Cache       *repo.TokenCache
	Signer      *auth.ResetSigner
	Mailer      mail.Mailer
	FrontendURL string
	Logger      zerolog.Logger
}

// NewAccountService cria novo serviço.
func NewAccountService(deps AccountDeps) *AccountService {
	return &AccountService{
		repo:        deps.Repo,
		cache:       deps.Cache,
		signer:      deps.Signer,
		mailer:      deps.Mailer,
		frontendURL: strings.TrimRight(deps.FrontendURL, "/"),
		logger:      deps.Logger.With().Str("component", "accounts").Logger(),
	}
}

// RegisterInput representa os dados de cadastro.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=254"`
	CNPJ     string `json:"cnpj" validate:"required,cnpj"`
	Password string `json:"password" validate:"required,min=8"`
}

// UserProfile é a visão pública do usuário.
type UserProfile struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
	CNPJ  string `json:"cnpj,omitempty"`
}

// LoginResult representa o retorno do login.
type LoginResult struct {
	Token string `json:"token"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Register cria o usuário com a senha em hash.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*UserProfile, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.CNPJ = strings.TrimSpace(in.CNPJ)

	verr := util.ValidateStruct(in)
	cnpj := util.FormatDocument(in.CNPJ)

	taken, err := s.uniquenessErrors(ctx, in.Email, cnpj, verr)
	if err != nil {
		return nil, err
	}
	verr.Merge(taken)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.CreateUser(ctx, repo.CreateUserParams{
		ID:           uuid.New(),
		Username:     in.Email,
		Name:         in.Name,
		Email:        in.Email,
		CNPJ:         cnpj,
		PasswordHash: hash,
	})
	if err != nil {
		dup := util.NewValidationError()
		switch {
		case errors.Is(err, repo.ErrDuplicateEmail), errors.Is(err, repo.ErrDuplicateUsername):
			dup.Add("email", "Já existe um usuário com este e-mail.")
		case errors.Is(err, repo.ErrDuplicateCNPJ):
			dup.Add("cnpj", "Já existe um usuário com este CNPJ.")
		default:
			return nil, err
		}
		return nil, dup
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("usuário cadastrado")
	return &UserProfile{ID: user.ID.String(), Name: user.Name, Email: user.Email, CNPJ: user.CNPJ}, nil
}

// uniquenessErrors consulta e-mail e CNPJ já cadastrados, ignorando campos que já falharam em verr.
func (s *AccountService) uniquenessErrors(ctx context.Context, email, cnpj string, verr *util.ValidationError) (*util.ValidationError, error) {
	taken := util.NewValidationError()
	if !verr.Has("email") {
		exists, err := s.repo.EmailExists(ctx, email)
		if err != nil {
			return nil, err
		}
		if exists {
			taken.Add("email", "Já existe um usuário com este e-mail.")
		}
	}
	if !verr.Has("cnpj") {
		exists, err := s.repo.CNPJExists(ctx, cnpj)
		if err != nil {
			return nil, err
		}
		if exists {
			taken.Add("cnpj", "Já existe um usuário com este CNPJ.")
		}
	}
	return taken, nil
}

// Login confere as credenciais e devolve o token do usuário, criando-o se preciso.
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	verr := util.NewValidationError()
	if email == "" {
		verr.Add("email", "Este campo é obrigatório.")
	}
	if password == "" {
		verr.Add("password", "Este campo é obrigatório.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.logger.Warn().Msg("login: usuário não encontrado")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive || !auth.CheckPassword(password, user.PasswordHash) {
		s.logger.Warn().Str("user_id", user.ID.String()).Msg("login: credenciais recusadas")
		return nil, ErrInvalidCredentials
	}

	candidate, err := auth.GenerateKey()
	if err != nil {
		return nil, err
	}
	token, err := s.repo.GetOrCreateToken(ctx, user.ID, candidate)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, token.Key, user.ID); err != nil {
		s.logger.Warn().Err(err).Msg("login: falha ao gravar token no cache")
	}
	if err := s.repo.TouchLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Msg("login: falha ao registrar último acesso")
	}

	return &LoginResult{Token: token.Key, Name: user.Name, Email: user.Email}, nil
}

// Authenticate resolve o token para o usuário dono.
func (s *AccountService) Authenticate(ctx context.Context, key string) (*repo.User, error) {
	if key == "" {
		return nil, ErrUnauthenticated
	}

	if id, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn().Err(err).Msg("auth: falha ao ler cache de token")
	} else if ok {
		user, err := s.repo.GetUserByID(ctx, id)
		if err == nil && user.IsActive {
			return &user, nil
		}
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
		_ = s.cache.Delete(ctx, key)
	}

	user, err := s.repo.GetUserByToken(ctx, key)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUnauthenticated
	}
	if err := s.cache.Set(ctx, key, user.ID); err != nil {
		s.logger.Warn().Err(err).Msg("auth: falha ao gravar token no cache")
	}
	return &user, nil
}

// GetCurrentUser devolve nome e e-mail do dono do token.
func (s *AccountService) GetCurrentUser(ctx context.Context, key string) (*UserProfile, error) {
	user, err := s.Authenticate(ctx, key)
	if err != nil {
		return nil, err
	}
	return &UserProfile{Name: user.Name, Email: user.Email}, nil
}

// Logout remove o token do usuário.
func (s *AccountService) Logout(ctx context.Context, userID uuid.UUID) error {
	key, err := s.repo.DeleteTokenByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNoSession
		}
		return err
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Msg("logout: falha ao invalidar cache")
	}
	return nil
}

// RequestPasswordReset envia o link de redefinição quando o e-mail existe.
// A resposta ao chamador é a mesma em ambos os casos.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := util.ValidateEmail(email); err != nil {
		verr := util.NewValidationError()
		verr.Add("email", "Insira um endereço de email válido.")
		return verr
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.logger.Info().Msg("reset: e-mail não cadastrado")
			return nil
		}
		return err
	}
	if !user.IsActive {
		s.logger.Info().Str("user_id", user.ID.String()).Msg("reset: usuário inativo")
		return nil
	}

	token, err := s.signer.Sign(user.ID, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("gerar token de redefinição: %w", err)
	}
	link := s.ResetLink(user.ID, token)

	msg := mail.Message{
		To:      []string{user.Email},
		Subject: "Redefinição de senha",
		Body:    resetBody(user.Name, link, s.signer.TTL()),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("reset: falha no envio do e-mail")
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	s.logger.Info().Str("user_id", user.ID.String()).Msg("reset: link enviado")
	return nil
}

// ResetLink monta a URL do front-end com uid codificado e token.
func (s *AccountService) ResetLink(userID uuid.UUID, token string) string {
	return fmt.Sprintf("%s/reset-password/%s/%s", s.frontendURL, auth.EncodeUID(userID), token)
}

// ConfirmPasswordReset valida o link e grava a nova senha.
func (s *AccountService) ConfirmPasswordReset(ctx context.Context, uid, token, newPassword string) error {
	userID, err := auth.DecodeUID(uid)
	if err != nil {
		return ErrInvalidOrExpiredLink
	}
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrInvalidOrExpiredLink
		}
		return err
	}
	if err := s.signer.Verify(token, user.ID, user.PasswordHash); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID.String()).Msg("reset: token recusado")
		return ErrInvalidOrExpiredLink
	}
	if err := util.ValidatePassword(newPassword); err != nil {
		return ErrWeakPassword
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	key, err := s.repo.DeleteTokenByUser(ctx, user.ID)
	switch {
	case err == nil:
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Warn().Err(err).Msg("reset: falha ao invalidar cache")
		}
	case !errors.Is(err, repo.ErrNotFound):
		s.logger.Warn().Err(err).Msg("reset: falha ao remover sessão")
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("reset: senha redefinida")
	return nil
}

func resetBody(name, link string, ttl time.Duration) string {
	hours := int(ttl.Hours())
	if hours < 1 {
		hours = 1
	}
	return fmt.Sprintf(`Olá, %s!

Recebemos um pedido para redefinir a senha da sua conta.
Para escolher uma nova senha, acesse o link abaixo:

%s

O link é válido por %d horas. Se você não fez este pedido, ignore este e-mail.
`, name, link, hours)
}
