package util

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// NonFieldErrors agrupa erros que envolvem mais de um campo.
const NonFieldErrors = "non_field_errors"

var (
	phonePattern = regexp.MustCompile(`^\(\d{2}\)\s\d{4,5}-\d{4}$`)
	cepPattern   = regexp.MustCompile(`^\d{5}-\d{3}$`)

	validateOnce sync.Once
	validate     *validator.Validate
)

// ValidationError lista mensagens por campo. Nunca é devolvido vazio.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError cria um acumulador vazio.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

// Add registra uma mensagem para o campo.
func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = append(e.Fields[field], msg)
}

// Merge incorpora as mensagens de outro erro de validação.
func (e *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	for field, msgs := range other.Fields {
		e.Fields[field] = append(e.Fields[field], msgs...)
	}
}

// Has informa se o campo já tem erro.
func (e *ValidationError) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

// OrNil devolve nil quando não há erros, para uso direto em retornos.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e.Fields[f], "; "))
	}
	return "dados inválidos: " + strings.Join(parts, ", ")
}

// IsPhone confere o formato (XX) XXXXX-XXXX ou (XX) XXXX-XXXX.
func IsPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// IsCEP confere o formato XXXXX-XXX.
func IsCEP(s string) bool {
	return cepPattern.MatchString(s)
}

// Validator devolve a instância compartilhada com as tags brasileiras registradas:
// document (CPF/CNPJ), cnpj, br_phone, cep e uf.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("document", func(fl validator.FieldLevel) bool {
			return ValidateDocument(fl.Field().String())
		})
		_ = v.RegisterValidation("cnpj", func(fl validator.FieldLevel) bool {
			return ValidateCNPJ(fl.Field().String())
		})
		_ = v.RegisterValidation("br_phone", func(fl validator.FieldLevel) bool {
			return IsPhone(fl.Field().String())
		})
		_ = v.RegisterValidation("cep", func(fl validator.FieldLevel) bool {
			return IsCEP(fl.Field().String())
		})
		_ = v.RegisterValidation("uf", func(fl validator.FieldLevel) bool {
			return IsValidState(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// ValidateStruct aplica as tags `validate` e traduz as falhas para ValidationError.
func ValidateStruct(s any) *ValidationError {
	verr := NewValidationError()
	err := Validator().Struct(s)
	if err == nil {
		return verr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add(NonFieldErrors, err.Error())
		return verr
	}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), messageFor(fe))
	}
	return verr
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Este campo é obrigatório."
	case "email":
		return "Insira um endereço de email válido."
	case "min":
		return "Certifique-se de que este campo tenha no mínimo " + fe.Param() + " caracteres."
	case "max":
		return "Certifique-se de que este campo não tenha mais de " + fe.Param() + " caracteres."
	case "oneof", "uf":
		return fmt.Sprintf("%q não é uma escolha válida.", fmt.Sprint(fe.Value()))
	case "document":
		return "Documento deve ser um CPF (11 dígitos) ou CNPJ (14 dígitos) válido."
	case "cnpj":
		return "CNPJ inválido."
	case "br_phone":
		return "Telefone deve ter formato (XX) XXXXX-XXXX."
	case "cep":
		return "CEP deve ter formato XXXXX-XXX."
	default:
		return "Valor inválido."
	}
}
