package postgres

// Repositories agrupa los adaptadores atados al pool (lecturas y escrituras fuera de transacción).
type Repositories struct {
	Warehouses *WarehouseRepo
	Locations  *LocationRepo
	Items      *ItemRepo
	Stock      *StockRepo
	Movements  *StockMovementRepo
	Users      *UserRepo
	Outbox     *OutboxRepo
	Revoked    *RevokedTokenRepo
}

// NewRepositories construye todos los repositorios sobre q (normalmente el pool).
func NewRepositories(q Querier) *Repositories {
	return &Repositories{
		Warehouses: NewWarehouseRepository(q),
		Locations:  NewLocationRepository(q),
		Items:      NewItemRepository(q),
		Stock:      NewStockRepository(q),
		Movements:  NewStockMovementRepository(q),
		Users:      NewUserRepository(q),
		Outbox:     NewOutboxRepository(q),
		Revoked:    NewRevokedTokenRepository(q),
	}
}
