package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Errores de dominio.
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrDuplicate           = errors.New("recurso duplicado")
	ErrUnauthorized        = errors.New("no autorizado")
	ErrForbidden           = errors.New("acceso denegado")
	ErrConflict            = errors.New("conflicto con el estado actual")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrInvalidState        = errors.New("transición de estado no permitida")
	ErrUnknownMovementType = errors.New("tipo de movimiento no encontrado en el catálogo")
	ErrSerialMismatch      = errors.New("cantidad de seriales no coincide")
	ErrDuplicateSerial     = errors.New("serial duplicado")
	ErrSerialUnavailable   = errors.New("serial no disponible")
	ErrAlreadyConverted    = errors.New("la factura ya fue convertida en venta")
)

// Códigos de ValidationError expuestos al cliente.
const (
	CodeValidation        = "VALIDATION"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeInvalidState      = "INVALID_STATE"
	CodeSerialMismatch    = "SERIAL_MISMATCH"
	CodeDuplicateSerial   = "DUPLICATE_SERIAL"
	CodeSerialUnavailable = "SERIAL_UNAVAILABLE"
	CodeNothingToReceive  = "NOTHING_TO_RECEIVE"
	CodeAlreadyConverted  = "ALREADY_CONVERTED"
	CodeMissingCatalog    = "MOVEMENT_TYPE_MISSING"
)

// ValidationError es un error corregible por quien llama: se reporta antes de cualquier escritura.
// Product y Location llevan nombres legibles cuando el error es de stock.
type ValidationError struct {
	Code      string
	Message   string
	Field     string
	Product   string
	Location  string
	Requested *decimal.Decimal
	Available *decimal.Decimal
	Err       error
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Product != "" {
		fmt.Fprintf(&b, " (producto %s", e.Product)
		if e.Location != "" {
			fmt.Fprintf(&b, ", ubicación %s", e.Location)
		}
		b.WriteString(")")
	}
	if e.Requested != nil && e.Available != nil {
		fmt.Fprintf(&b, ": solicitado %s, disponible %s", e.Requested.String(), e.Available.String())
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// NewValidationError crea un error de validación genérico sobre un campo.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Code: CodeValidation, Field: field, Message: message}
}

// InvalidState construye el error de transición no permitida.
func InvalidState(message string) *ValidationError {
	return &ValidationError{Code: CodeInvalidState, Message: message, Err: ErrInvalidState}
}

// InsufficientStock construye el error de stock con el detalle de producto, ubicación, solicitado y disponible.
func InsufficientStock(product, location string, requested, available decimal.Decimal) *ValidationError {
	return &ValidationError{
		Code:      CodeInsufficientStock,
		Message:   "stock insuficiente",
		Product:   product,
		Location:  location,
		Requested: &requested,
		Available: &available,
		Err:       ErrInsufficientStock,
	}
}

// ConsistencyError indica un problema de catálogo o configuración (p. ej. falta un código de tipo de movimiento).
// Es fatal para el flujo que lo encuentra y no depende de la entrada del usuario.
type ConsistencyError struct {
	Code    string
	Message string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("inconsistencia de catálogo [%s]: %s", e.Code, e.Message)
}

func (e *ConsistencyError) Unwrap() error { return ErrUnknownMovementType }

// MissingMovementType construye el error para un código ausente del catálogo.
func MissingMovementType(code string) *ConsistencyError {
	return &ConsistencyError{Code: code, Message: "el código no existe en movement_types"}
}

// PartialFailure reporta un flujo de varios pasos que falló después de confirmar alguno.
// Degraded indica que lo confirmado se mantiene y sólo Step debe reintentarse.
type PartialFailure struct {
	Step            string
	Completed       []string
	Err             error
	CompensationErr error
	Degraded        bool
}

func (e *PartialFailure) Error() string {
	msg := fmt.Sprintf("falla parcial en paso %q: %v", e.Step, e.Err)
	if e.CompensationErr != nil {
		msg += fmt.Sprintf("; compensación fallida: %v", e.CompensationErr)
	}
	return msg
}

func (e *PartialFailure) Unwrap() []error {
	if e.CompensationErr != nil {
		return []error{e.Err, e.CompensationErr}
	}
	return []error{e.Err}
}
