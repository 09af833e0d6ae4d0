package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")
)

// Errores de fiscalización. Se envuelven con fmt.Errorf("%w: ...") y se clasifican con errors.Is.
var (
	// ErrConfiguration certificado ausente/ilegible, credenciales faltantes o método deshabilitado.
	// Fatal: no se reintenta y no se hace ninguna llamada de red.
	ErrConfiguration = errors.New("configuración fiscal inválida")
	// ErrEligibility la factura no es elegible para este intento (no es un defecto).
	ErrEligibility = errors.New("factura no elegible para fiscalización")
	// ErrTransport timeout, TLS, DNS o HTTP no-2xx. Reintentable con una llamada nueva.
	ErrTransport = errors.New("error de transporte")
	// ErrProtocol fault o código de error devuelto por la autoridad, o respuesta malformada.
	ErrProtocol = errors.New("error de protocolo")
	// ErrValidation datos que requieren corrección del operador (p. ej. OIB del comprador en producción).
	ErrValidation = errors.New("error de validación")
)

// Causas concretas de no elegibilidad; ambas envuelven ErrEligibility.
var (
	ErrAlreadyFiscalized = wrapEligibility("la factura ya está fiscalizada")
	ErrTooOld            = wrapEligibility("la factura supera la antigüedad máxima")
)

type eligibilityError struct{ msg string }

func (e *eligibilityError) Error() string { return e.msg }
func (e *eligibilityError) Unwrap() error { return ErrEligibility }

func wrapEligibility(msg string) error { return &eligibilityError{msg: msg} }
