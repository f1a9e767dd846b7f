package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Flaviohmm/mei-backend/internal/auth"
	"github.com/Flaviohmm/mei-backend/internal/mail"
	"github.com/Flaviohmm/mei-backend/internal/repo"
	"github.com/Flaviohmm/mei-backend/internal/util"
)

const validCNPJ = "11.222.333/0001-81"

type stubAccountRepo struct {
	mu     sync.Mutex
	users  map[uuid.UUID]repo.User
	tokens map[uuid.UUID]string
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{users: map[uuid.UUID]repo.User{}, tokens: map[uuid.UUID]string{}}
}

func (s *stubAccountRepo) CreateUser(_ context.Context, arg repo.CreateUserParams) (repo.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == arg.Email {
			return repo.User{}, repo.ErrDuplicateEmail
		}
		if u.CNPJ == arg.CNPJ {
			return repo.User{}, repo.ErrDuplicateCNPJ
		}
	}
	u := repo.User{
		ID: arg.ID, Username: arg.Username, Name: arg.Name, Email: arg.Email, CNPJ: arg.CNPJ,
		PasswordHash: arg.PasswordHash, IsActive: true, DateJoined: time.Now(),
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *stubAccountRepo) GetUserByEmail(_ context.Context, email string) (repo.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return repo.User{}, repo.ErrNotFound
}

func (s *stubAccountRepo) GetUserByID(_ context.Context, id uuid.UUID) (repo.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repo.User{}, repo.ErrNotFound
	}
	return u, nil
}

func (s *stubAccountRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := s.GetUserByEmail(ctx, email)
	return err == nil, nil
}

func (s *stubAccountRepo) CNPJExists(_ context.Context, cnpj string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.CNPJ == cnpj {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubAccountRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.PasswordHash = hash
	s.users[id] = u
	return nil
}

func (s *stubAccountRepo) TouchLastLogin(context.Context, uuid.UUID) error { return nil }

func (s *stubAccountRepo) GetOrCreateToken(_ context.Context, userID uuid.UUID, candidate string) (repo.AuthToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key, ok := s.tokens[userID]; ok {
		return repo.AuthToken{Key: key, UserID: userID}, nil
	}
	s.tokens[userID] = candidate
	return repo.AuthToken{Key: candidate, UserID: userID}, nil
}

func (s *stubAccountRepo) GetUserByToken(_ context.Context, key string) (repo.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, k := range s.tokens {
		if k == key {
			return s.users[id], nil
		}
	}
	return repo.User{}, repo.ErrNotFound
}

func (s *stubAccountRepo) DeleteTokenByUser(_ context.Context, userID uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.tokens[userID]
	if !ok {
		return "", repo.ErrNotFound
	}
	delete(s.tokens, userID)
	return key, nil
}

type recordingMailer struct {
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type memoryCache struct {
	entries map[string]uuid.UUID
}

func (c *memoryCache) Get(_ context.Context, key string) (uuid.UUID, bool, error) {
	id, ok := c.entries[key]
	return id, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, userID uuid.UUID) error {
	c.entries[key] = userID
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

func newTestAccountService() (*AccountService, *stubAccountRepo, *recordingMailer, *memoryCache) {
	r := newStubAccountRepo()
	m := &recordingMailer{}
	c := &memoryCache{entries: map[string]uuid.UUID{}}
	svc := &AccountService{
		repo:        r,
		cache:       c,
		signer:      auth.NewResetSigner(strings.Repeat("k", 32), time.Hour*24),
		mailer:      m,
		frontendURL: "http://localhost:3000",
		logger:      zerolog.Nop(),
	}
	return svc, r, m, c
}

func registerDefault(t *testing.T, svc *AccountService) *UserProfile {
	t.Helper()
	profile, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Maria Silva",
		Email:    "Maria@Example.com",
		CNPJ:     "11222333000181",
		Password: "segredo123",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return profile
}

func TestRegisterNormalizesAndHides(t *testing.T) {
	svc, r, _, _ := newTestAccountService()
	profile := registerDefault(t, svc)

	if profile.Email != "maria@example.com" {
		t.Fatalf("expected lower-cased email, got %q", profile.Email)
	}
	if profile.CNPJ != validCNPJ {
		t.Fatalf("expected formatted cnpj, got %q", profile.CNPJ)
	}
	user, _ := r.GetUserByEmail(context.Background(), "maria@example.com")
	if user.PasswordHash == "segredo123" || !auth.CheckPassword("segredo123", user.PasswordHash) {
		t.Fatalf("password must be stored hashed")
	}
	if user.Username != user.Email {
		t.Fatalf("username should default to email")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _, _ := newTestAccountService()
	registerDefault(t, svc)

	tests := []struct {
		name   string
		input  RegisterInput
		fields []string
	}{
		{
			name:   "missing fields",
			input:  RegisterInput{},
			fields: []string{"name", "email", "cnpj", "password"},
		},
		{
			name:   "duplicate email and cnpj",
			input:  RegisterInput{Name: "Outra", Email: "maria@example.com", CNPJ: validCNPJ, Password: "segredo123"},
			fields: []string{"email", "cnpj"},
		},
		{
			name:   "invalid cnpj and short password",
			input:  RegisterInput{Name: "Outra", Email: "outra@example.com", CNPJ: "11.222.333/0001-82", Password: "curta"},
			fields: []string{"cnpj", "password"},
		},
		{
			name:   "duplicate email with short password",
			input:  RegisterInput{Name: "Outra", Email: "maria@example.com", CNPJ: "11.444.777/0001-61", Password: "curta"},
			fields: []string{"email", "password"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.input)
			var verr *util.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			for _, f := range tt.fields {
				if !verr.Has(f) {
					t.Fatalf("expected error on %s, got %v", f, verr.Fields)
				}
			}
		})
	}
}

func TestLoginReusesToken(t *testing.T) {
	svc, _, _, cache := newTestAccountService()
	registerDefault(t, svc)
	ctx := context.Background()

	first, err := svc.Login(ctx, "maria@example.com", "segredo123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if len(first.Token) != auth.KeyLength || first.Name != "Maria Silva" {
		t.Fatalf("unexpected login result %+v", first)
	}
	second, err := svc.Login(ctx, "MARIA@example.com", "segredo123")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if first.Token != second.Token {
		t.Fatalf("expected same token on repeated login")
	}
	if _, ok := cache.entries[first.Token]; !ok {
		t.Fatalf("expected token cached")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc, _, _, _ := newTestAccountService()
	registerDefault(t, svc)

	for _, tc := range []struct{ email, password string }{
		{"maria@example.com", "errada123"},
		{"ninguem@example.com", "segredo123"},
	} {
		if _, err := svc.Login(context.Background(), tc.email, tc.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected invalid credentials for %s, got %v", tc.email, err)
		}
	}
}

func TestAuthenticateAndLogout(t *testing.T) {
	svc, _, _, cache := newTestAccountService()
	registerDefault(t, svc)
	ctx := context.Background()

	res, err := svc.Login(ctx, "maria@example.com", "segredo123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	profile, err := svc.GetCurrentUser(ctx, res.Token)
	if err != nil || profile.Email != "maria@example.com" {
		t.Fatalf("current user: %+v %v", profile, err)
	}

	user, err := svc.Authenticate(ctx, res.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if err := svc.Logout(ctx, user.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := cache.entries[res.Token]; ok {
		t.Fatalf("expected cache invalidated on logout")
	}
	if _, err := svc.Authenticate(ctx, res.Token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated after logout, got %v", err)
	}
	if err := svc.Logout(ctx, user.ID); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected no session, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, ""); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated for empty token")
	}
}

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	svc, _, mailer, _ := newTestAccountService()
	if err := svc.RequestPasswordReset(context.Background(), "ninguem@example.com"); err != nil {
		t.Fatalf("expected generic success, got %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("no mail should be sent")
	}
}

func TestRequestPasswordResetDeliveryFailure(t *testing.T) {
	svc, _, mailer, _ := newTestAccountService()
	registerDefault(t, svc)
	mailer.err = errors.New("smtp down")

	err := svc.RequestPasswordReset(context.Background(), "maria@example.com")
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("expected delivery failure, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	svc, r, mailer, _ := newTestAccountService()
	profile := registerDefault(t, svc)
	ctx := context.Background()

	if _, err := svc.Login(ctx, "maria@example.com", "segredo123"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.RequestPasswordReset(ctx, "maria@example.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected one mail, got %d", len(mailer.sent))
	}
	body := mailer.sent[0].Body
	if !strings.Contains(body, "24 horas") {
		t.Fatalf("expected validity in body: %s", body)
	}

	prefix := "http://localhost:3000/reset-password/"
	start := strings.Index(body, prefix)
	if start < 0 {
		t.Fatalf("link not found in body: %s", body)
	}
	link := strings.Fields(body[start+len(prefix):])[0]
	parts := strings.SplitN(link, "/", 2)
	uid, token := parts[0], parts[1]
	if uid != auth.EncodeUID(uuid.MustParse(profile.ID)) {
		t.Fatalf("unexpected uid %s", uid)
	}

	if err := svc.ConfirmPasswordReset(ctx, uid, token, "curta"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected weak password, got %v", err)
	}
	if err := svc.ConfirmPasswordReset(ctx, "???", token, "novasenha1"); !errors.Is(err, ErrInvalidOrExpiredLink) {
		t.Fatalf("expected invalid link for bad uid, got %v", err)
	}
	if err := svc.ConfirmPasswordReset(ctx, uid, token, "novasenha1"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if len(r.tokens) != 0 {
		t.Fatalf("expected session removed after reset")
	}
	if _, err := svc.Login(ctx, "maria@example.com", "novasenha1"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}

	// o hash mudou, então o mesmo link não serve mais
	if err := svc.ConfirmPasswordReset(ctx, uid, token, "outrasenha1"); !errors.Is(err, ErrInvalidOrExpiredLink) {
		t.Fatalf("expected reused link to fail, got %v", err)
	}
}
