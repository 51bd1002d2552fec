package infra

import (
	"fmt"

	"gestorpos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and brings the schema
// up to date (see RunMigrations).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations runs AutoMigrate over every model and then the idempotent SQL
// patches GORM cannot express. Integration tests call it on a fresh container.
func RunMigrations(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(
		&model.Tienda{},
		&model.Usuario{},
		&model.Categoria{},
		&model.Producto{},
		&model.NivelStock{},
		&model.MovimientoStock{},
		&model.Cliente{},
		&model.CuentaCorriente{},
		&model.MovimientoCuenta{},
		&model.Venta{},
		&model.VentaItem{},
		&model.CargoCuenta{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs DDL that AutoMigrate cannot handle: sequences and
// partial or expression indexes. Every statement is safe to re-run.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"ventas_numero_seq",
			`CREATE SEQUENCE IF NOT EXISTS ventas_numero_seq START 1`},

		// Product names are unique per store among non-deleted rows only.
		{"uq_productos_tienda_nombre_vigente", `
CREATE UNIQUE INDEX IF NOT EXISTS uq_productos_tienda_nombre_vigente
    ON productos (tienda_id, lower(nombre))
    WHERE NOT eliminado`},

		{"uq_usuarios_username", `
CREATE UNIQUE INDEX IF NOT EXISTS uq_usuarios_username
    ON usuarios (lower(username))`},

		{"uq_categorias_tienda_nombre", `
CREATE UNIQUE INDEX IF NOT EXISTS uq_categorias_tienda_nombre
    ON categorias (tienda_id, lower(nombre))`},

		{"uq_clientes_tienda_email", `
CREATE UNIQUE INDEX IF NOT EXISTS uq_clientes_tienda_email
    ON clientes (tienda_id, lower(email))`},

		// Retry cron query: pending charges ordered by due time.
		{"idx_cargos_cuenta_pendientes", `
CREATE INDEX IF NOT EXISTS idx_cargos_cuenta_pendientes
    ON cargos_cuenta (proximo_intento)
    WHERE estado = 'pendiente'`},

		{"idx_movimientos_stock_producto_fecha", `
CREATE INDEX IF NOT EXISTS idx_movimientos_stock_producto_fecha
    ON movimientos_stock (producto_id, created_at DESC)`},

		{"idx_ventas_tienda_fecha", `
CREATE INDEX IF NOT EXISTS idx_ventas_tienda_fecha
    ON ventas (tienda_id, created_at DESC)`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
