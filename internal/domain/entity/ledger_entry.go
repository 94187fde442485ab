package entity

import "time"

// StockKey identifica una posición de stock: sucursal + artículo + variante (talla).
type StockKey struct {
	Branch   string
	ItemCode string
	Variant  string
}

// StockLedgerEntry es un hecho inmutable de movimiento de stock.
// El saldo de una StockKey se recalcula siempre como Σinbound − Σoutbound.
type StockLedgerEntry struct {
	ID             string
	Branch         string
	ItemCode       string
	Variant        string
	Inbound        int64
	Outbound       int64
	Active         bool
	EffectiveDate  time.Time
	DocumentNumber string
	CreatedAt      time.Time
}

// Key devuelve la StockKey del asiento.
func (e *StockLedgerEntry) Key() StockKey {
	return StockKey{Branch: e.Branch, ItemCode: e.ItemCode, Variant: e.Variant}
}

// Net devuelve el efecto firmado del asiento sobre el saldo.
func (e *StockLedgerEntry) Net() int64 {
	return e.Inbound - e.Outbound
}
