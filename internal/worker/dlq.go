package worker

// Charges that exhaust their retries stay in cargos_cuenta with estado "error"
// and a copy is pushed to a Redis list for operators: dlq:<queue>.

import (
	"context"
	"encoding/json"
	"time"

	"gestorpos/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const DLQPrefix = "dlq:"

// DLQEntry is the snapshot of a failed charge kept for manual inspection.
type DLQEntry struct {
	Queue     string          `json:"queue"`
	CargoID   string          `json:"cargo_id"`
	VentaID   string          `json:"venta_id"`
	TiendaID  string          `json:"tienda_id"`
	ClienteID string          `json:"cliente_id"`
	Monto     decimal.Decimal `json:"monto"`
	Intentos  int             `json:"intentos"`
	Reason    string          `json:"reason"`
	FailedAt  string          `json:"failed_at"` // ISO 8601
}

// sendCargoToDLQ records a charge that ran out of attempts. Without Redis the
// entry is only logged; the row in estado "error" remains the source of truth.
func sendCargoToDLQ(ctx context.Context, rdb *redis.Client, c *model.CargoCuenta, reason string) {
	entry := DLQEntry{
		Queue:     QueueCuentaCorriente,
		CargoID:   c.ID.String(),
		VentaID:   c.VentaID.String(),
		TiendaID:  c.TiendaID.String(),
		ClienteID: c.ClienteID.String(),
		Monto:     c.Monto,
		Intentos:  c.Intentos,
		Reason:    reason,
		FailedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	logEv := log.Warn().
		Str("cargo_id", entry.CargoID).
		Str("venta_id", entry.VentaID).
		Int("intentos", entry.Intentos).
		Str("reason", reason)

	if rdb == nil {
		logEv.Msg("dlq: redis not configured, entry only logged")
		return
	}
	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("cargo_id", entry.CargoID).Msg("dlq: failed to marshal entry")
		return
	}
	if err := rdb.LPush(ctx, DLQPrefix+QueueCuentaCorriente, data).Err(); err != nil {
		log.Error().Err(err).Str("cargo_id", entry.CargoID).Msg("dlq: failed to push entry")
		return
	}
	logEv.Msg("dlq: cargo moved to dead letter queue")
}

// DLQLength reports how many failed charges are waiting for an operator.
func DLQLength(ctx context.Context, rdb *redis.Client) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+QueueCuentaCorriente).Result()
}

// ReadDLQ returns up to n of the most recent entries.
func ReadDLQ(ctx context.Context, rdb *redis.Client, n int64) ([]DLQEntry, error) {
	raws, err := rdb.LRange(ctx, DLQPrefix+QueueCuentaCorriente, 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]DLQEntry, 0, len(raws))
	for _, raw := range raws {
		var e DLQEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			log.Warn().Err(err).Msg("dlq: skipping malformed entry")
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
