package inventory

import "github.com/jhoicas/fulfillment-api/internal/domain"

// NextStock aplica delta sobre el stock actual (servicio de dominio).
// NuevoStock = StockActual + Delta; nunca negativo.
func NextStock(variantID string, current, delta int) (int, error) {
	if delta == 0 {
		return current, domain.ErrNoChange
	}
	next := current + delta
	if next < 0 {
		return current, &domain.InvalidStockError{VariantID: variantID, Stock: current, Delta: delta}
	}
	return next, nil
}

// DeltaTo calcula el delta necesario para llevar el stock a un valor absoluto.
func DeltaTo(variantID string, current, target int) (int, error) {
	if target < 0 {
		return 0, &domain.InvalidStockError{VariantID: variantID, Stock: current, Delta: target - current}
	}
	if target == current {
		return 0, domain.ErrNoChange
	}
	return target - current, nil
}
