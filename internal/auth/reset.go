package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidResetToken cobre assinatura inválida, expiração e senha já alterada.
	ErrInvalidResetToken = errors.New("link de redefinição inválido ou expirado")
	// ErrInvalidUID indica uid malformado no link.
	ErrInvalidUID = errors.New("uid inválido")
)

// DefaultResetTTL é a validade padrão do link de redefinição.
const DefaultResetTTL = 24 * time.Hour

// ResetClaims vincula o token ao usuário e ao hash de senha vigente.
type ResetClaims struct {
	Fingerprint string `json:"fp"`
	jwt.RegisteredClaims
}

// ResetSigner emite e verifica tokens de redefinição de senha (HS256).
type ResetSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewResetSigner cria o assinador com segredo e validade configurados.
func NewResetSigner(secret string, ttl time.Duration) *ResetSigner {
	if ttl <= 0 {
		ttl = DefaultResetTTL
	}
	return &ResetSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL devolve a validade dos tokens emitidos.
func (s *ResetSigner) TTL() time.Duration {
	return s.ttl
}

// Sign gera o token para o usuário; o hash atual da senha entra como impressão digital.
func (s *ResetSigner) Sign(userID uuid.UUID, passwordHash string) (string, error) {
	now := s.now().UTC()
	claims := ResetClaims{
		Fingerprint: s.fingerprint(passwordHash),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("assinar token de redefinição: %w", err)
	}
	return signed, nil
}

// Verify confere assinatura, validade, dono e impressão digital da senha.
func (s *ResetSigner) Verify(token string, userID uuid.UUID, passwordHash string) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(userID.String()),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	var claims ResetClaims
	parsed, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return ErrInvalidResetToken
	}

	if !hmac.Equal([]byte(claims.Fingerprint), []byte(s.fingerprint(passwordHash))) {
		return ErrInvalidResetToken
	}
	return nil
}

func (s *ResetSigner) fingerprint(passwordHash string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(passwordHash))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// EncodeUID codifica o id do usuário para uso em URL.
func EncodeUID(id uuid.UUID) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id.String()))
}

// DecodeUID reverte EncodeUID.
func DecodeUID(uid string) (uuid.UUID, error) {
	raw, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return uuid.Nil, ErrInvalidUID
	}
	id, err := uuid.Parse(string(raw))
	if err != nil {
		return uuid.Nil, ErrInvalidUID
	}
	return id, nil
}
