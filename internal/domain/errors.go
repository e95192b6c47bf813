package domain

import (
	"errors"
	"fmt"
	"time"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound            = errors.New("resource not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrConflict            = errors.New("conflict with current state")
	ErrInvalidStock        = errors.New("insufficient stock")
	ErrNoChange            = errors.New("adjustment does not change stock")
	ErrIllegalTransition   = errors.New("illegal status transition")
	ErrDuplicateReturn     = errors.New("a return already exists for this order")
	ErrReturnWindowExpired = errors.New("return window expired")
	ErrVariantArchived     = errors.New("variant is archived")
	ErrAlreadyRestocked    = errors.New("return already restocked")
	ErrStorage             = errors.New("storage failure")
)

// NotFoundError identifica el recurso que no existe (variant, order, return).
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NewNotFound construye un NotFoundError.
func NewNotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// InvalidStockError se devuelve cuando un delta dejaría el stock negativo.
type InvalidStockError struct {
	VariantID string
	Stock     int
	Delta     int
}

func (e *InvalidStockError) Error() string {
	return fmt.Sprintf("insufficient stock to adjust variant %s: stock %d, change %d", e.VariantID, e.Stock, e.Delta)
}

func (e *InvalidStockError) Is(target error) bool { return target == ErrInvalidStock }

// IllegalTransitionError describe un cambio de estado no permitido.
// Entity es "order" o "return".
type IllegalTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("cannot move %s from %s to %s", e.Entity, e.From, e.To)
}

func (e *IllegalTransitionError) Is(target error) bool { return target == ErrIllegalTransition }

// ReturnWindowExpiredError incluye la fecha de corte para mostrarla al cliente.
type ReturnWindowExpiredError struct {
	OrderID string
	Cutoff  time.Time
}

func (e *ReturnWindowExpiredError) Error() string {
	return fmt.Sprintf("return window for order %s closed on %s", e.OrderID, e.Cutoff.Format("2006-01-02"))
}

func (e *ReturnWindowExpiredError) Is(target error) bool { return target == ErrReturnWindowExpired }

// StorageError envuelve fallos de transporte o de transacción del backing store.
// Es seguro reintentar: la transacción garantiza que no hubo efecto parcial.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// NewStorageError envuelve err salvo que ya sea un error de dominio.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsDomainError informa si err ya está clasificado con un sentinel de dominio.
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrInvalidInput, ErrForbidden, ErrConflict, ErrInvalidStock,
		ErrNoChange, ErrIllegalTransition, ErrDuplicateReturn, ErrReturnWindowExpired,
		ErrVariantArchived, ErrAlreadyRestocked, ErrStorage,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
