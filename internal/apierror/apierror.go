// Package apierror provides the closed set of error kinds returned by the
// services and the standardized response envelopes for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ── Error kinds ──────────────────────────────────────────────────────────────

// Rule names a business-rule violation.
type Rule string

const (
	RuleNoEncontrado        Rule = "no_encontrado"
	RuleStockInsuficiente   Rule = "stock_insuficiente"
	RuleSaldoNegativo       Rule = "saldo_negativo"
	RuleNombreDuplicado     Rule = "nombre_duplicado"
	RuleEmailDuplicado      Rule = "email_duplicado"
	RuleVentaAnulada        Rule = "venta_anulada"
	RuleCuentaInexistente   Rule = "cuenta_inexistente"
	RuleProductoInactivo    Rule = "producto_inactivo"
	RuleConHistorial        Rule = "con_historial"
	RuleCuentaConSaldo      Rule = "cuenta_con_saldo"
	RuleCargoNoReintentable Rule = "cargo_no_reintentable"
)

// ValidationError wraps one or more field errors. Never logged as a failure.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}

// Field is a shorthand for a single-field validation error.
func Field(field, msg string) *ValidationError {
	return NewValidation(map[string]string{field: msg})
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validacion: " + strings.Join(parts, "; ")
}

// AuthError means the caller could not be authenticated.
type AuthError struct {
	Detail string
}

func Unauthorized(msg string) *AuthError { return &AuthError{Detail: msg} }

func (e *AuthError) Error() string { return e.Detail }

// OwnershipError means the entity exists but belongs to another store.
type OwnershipError struct {
	Entity string
}

func Ownership(entity string) *OwnershipError { return &OwnershipError{Entity: entity} }

func (e *OwnershipError) Error() string {
	return fmt.Sprintf("%s no pertenece a su tienda", e.Entity)
}

// BusinessRuleError is a violation of a domain invariant.
// Disponible is set for stock errors so the UI can show the available quantity.
type BusinessRuleError struct {
	Rule       Rule   `json:"rule"`
	Detail     string `json:"detail"`
	Disponible *int   `json:"disponible,omitempty"`
}

func Business(rule Rule, format string, args ...any) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Detail: fmt.Sprintf(format, args...)}
}

func NotFound(entity string) *BusinessRuleError {
	return Business(RuleNoEncontrado, "%s no encontrado", entity)
}

// StockInsuficiente builds the error shown when a sale asks for more than is on hand.
func StockInsuficiente(disponible int) *BusinessRuleError {
	e := Business(RuleStockInsuficiente, "stock insuficiente, disponible: %d", disponible)
	e.Disponible = &disponible
	return e
}

func (e *BusinessRuleError) Error() string { return e.Detail }

// SystemError is an infrastructure failure. Its details are logged, never returned.
type SystemError struct {
	Op  string
	Err error
}

func Internal(op string, err error) *SystemError { return &SystemError{Op: op, Err: err} }

func (e *SystemError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *SystemError) Unwrap() error { return e.Err }

// ItemsError groups per-line failures of a multi-line request, keyed by line index.
type ItemsError struct {
	Lines map[int]error
}

func (e *ItemsError) Error() string {
	idx := make([]int, 0, len(e.Lines))
	for i := range e.Lines {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	parts := make([]string, 0, len(idx))
	for _, i := range idx {
		parts = append(parts, fmt.Sprintf("item %d: %s", i, e.Lines[i]))
	}
	return strings.Join(parts, "; ")
}

// IsRule reports whether err is a BusinessRuleError with the given rule.
func IsRule(err error, rule Rule) bool {
	var br *BusinessRuleError
	return errors.As(err, &br) && br.Rule == rule
}

// ── HTTP mapping ─────────────────────────────────────────────────────────────

// Response maps an error to its HTTP status and JSON body.
// Unknown errors are treated as system errors and get a generic message.
func Response(err error) (int, any) {
	var (
		ve *ValidationError
		ae *AuthError
		oe *OwnershipError
		be *BusinessRuleError
		ie *ItemsError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, ve
	case errors.As(err, &ae):
		return http.StatusUnauthorized, New(ae.Detail)
	case errors.As(err, &oe):
		return http.StatusForbidden, New(oe.Error())
	case errors.As(err, &be):
		if be.Rule == RuleNoEncontrado {
			return http.StatusNotFound, be
		}
		return http.StatusConflict, be
	case errors.As(err, &ie):
		lines := make(map[string]any, len(ie.Lines))
		for i, lerr := range ie.Lines {
			_, body := Response(lerr)
			lines[strconv.Itoa(i)] = body
		}
		return http.StatusUnprocessableEntity, map[string]any{
			"detail": "La venta contiene items invalidos",
			"items":  lines,
		}
	default:
		return http.StatusInternalServerError, New("Error interno del servidor")
	}
}
