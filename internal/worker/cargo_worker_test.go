package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"
	"time"

	"gestorpos/internal/apierror"
	"gestorpos/internal/model"
	"gestorpos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memCargoRepo struct {
	cargos map[uuid.UUID]*model.CargoCuenta
}

func newMemCargoRepo() *memCargoRepo {
	return &memCargoRepo{cargos: make(map[uuid.UUID]*model.CargoCuenta)}
}

func (r *memCargoRepo) add(estado string) *model.CargoCuenta {
	c := &model.CargoCuenta{
		ID:        uuid.New(),
		VentaID:   uuid.New(),
		TiendaID:  uuid.New(),
		ClienteID: uuid.New(),
		Monto:     decimal.NewFromInt(75),
		Estado:    estado,
		CreatedAt: time.Now(),
	}
	r.cargos[c.ID] = c
	return c
}

func (r *memCargoRepo) Create(_ context.Context, _ *gorm.DB, c *model.CargoCuenta) error {
	r.cargos[c.ID] = c
	return nil
}

func (r *memCargoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CargoCuenta, error) {
	c, ok := r.cargos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memCargoRepo) LockByID(ctx context.Context, _ *gorm.DB, id uuid.UUID) (*model.CargoCuenta, error) {
	return r.FindByID(ctx, id)
}

func (r *memCargoRepo) LockByVenta(_ context.Context, _ *gorm.DB, ventaID uuid.UUID) (*model.CargoCuenta, error) {
	for _, c := range r.cargos {
		if c.VentaID == ventaID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memCargoRepo) LockNoAplicadosCliente(context.Context, *gorm.DB, uuid.UUID) ([]model.CargoCuenta, error) {
	return nil, nil
}

func (r *memCargoRepo) ListVencidos(_ context.Context, now time.Time, limit int) ([]model.CargoCuenta, error) {
	var out []model.CargoCuenta
	for _, c := range r.cargos {
		if c.Estado == model.CargoPendiente && (c.ProximoIntento == nil || !c.ProximoIntento.After(now)) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memCargoRepo) List(context.Context, uuid.UUID, string) ([]model.CargoCuenta, error) {
	return nil, nil
}

func (r *memCargoRepo) Save(_ context.Context, _ *gorm.DB, c *model.CargoCuenta) error {
	cp := *c
	r.cargos[c.ID] = &cp
	return nil
}

func (r *memCargoRepo) DB() *gorm.DB { return nil }

var _ repository.CargoCuentaRepository = (*memCargoRepo)(nil)

// fakeApplier fails while fallos > 0 and marks the charge aplicado otherwise.
type fakeApplier struct {
	repo    *memCargoRepo
	fallos  int
	llamado []uuid.UUID
}

func (a *fakeApplier) AplicarCargoPendiente(_ context.Context, id uuid.UUID) error {
	a.llamado = append(a.llamado, id)
	c, ok := a.repo.cargos[id]
	if !ok {
		return apierror.NotFound("cargo")
	}
	if a.fallos > 0 {
		a.fallos--
		return errors.New("deadlock detected")
	}
	c.Estado = model.CargoAplicado
	return nil
}

func newTestWorker(repo *memCargoRepo, applier *fakeApplier, maxIntentos int, now time.Time) *CargoWorker {
	w := NewCargoWorker(applier, repo, nil, maxIntentos, 30*time.Second)
	w.now = func() time.Time { return now }
	return w
}

func TestComputeRetryBackoff(t *testing.T) {
	base := 30 * time.Second
	assert.Equal(t, 30*time.Second, computeRetryBackoff(base, 0))
	assert.Equal(t, 30*time.Second, computeRetryBackoff(base, 1))
	assert.Equal(t, 60*time.Second, computeRetryBackoff(base, 2))
	assert.Equal(t, 120*time.Second, computeRetryBackoff(base, 3))
	assert.Equal(t, 64*base, computeRetryBackoff(base, 7))
	assert.Equal(t, 64*base, computeRetryBackoff(base, 20))
}

func TestAplicar_FalloProgramaReintento(t *testing.T) {
	repo := newMemCargoRepo()
	c := repo.add(model.CargoPendiente)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	w := newTestWorker(repo, &fakeApplier{repo: repo, fallos: 1}, 5, now)

	assert.False(t, w.Aplicar(context.Background(), c.ID))

	got := repo.cargos[c.ID]
	assert.Equal(t, model.CargoPendiente, got.Estado)
	assert.Equal(t, 1, got.Intentos)
	require.NotNil(t, got.UltimoError)
	assert.Equal(t, "deadlock detected", *got.UltimoError)
	require.NotNil(t, got.ProximoIntento)
	assert.Equal(t, now.Add(30*time.Second), *got.ProximoIntento)

	assert.True(t, w.Aplicar(context.Background(), c.ID))
	assert.Equal(t, model.CargoAplicado, repo.cargos[c.ID].Estado)
}

func TestAplicar_AgotaIntentos(t *testing.T) {
	repo := newMemCargoRepo()
	c := repo.add(model.CargoPendiente)
	w := newTestWorker(repo, &fakeApplier{repo: repo, fallos: 10}, 3, time.Now())

	for i := 0; i < 3; i++ {
		assert.False(t, w.Aplicar(context.Background(), c.ID))
	}
	got := repo.cargos[c.ID]
	assert.Equal(t, model.CargoError, got.Estado)
	assert.Equal(t, 3, got.Intentos)
	assert.Nil(t, got.ProximoIntento)

	// A charge in error is no longer counted.
	assert.False(t, w.Aplicar(context.Background(), c.ID))
	assert.Equal(t, 3, repo.cargos[c.ID].Intentos)
}

func TestProcess_PayloadInvalido(t *testing.T) {
	repo := newMemCargoRepo()
	applier := &fakeApplier{repo: repo}
	w := newTestWorker(repo, applier, 5, time.Now())

	w.Process(context.Background(), json.RawMessage(`{"cargo_id":"nope"}`))
	w.Process(context.Background(), json.RawMessage(`not json`))
	assert.Empty(t, applier.llamado)

	c := repo.add(model.CargoPendiente)
	raw, _ := json.Marshal(CargoJobPayload{CargoID: c.ID.String()})
	w.Process(context.Background(), raw)
	assert.Equal(t, model.CargoAplicado, repo.cargos[c.ID].Estado)
}

func TestProcessRetries_SoloVencidos(t *testing.T) {
	repo := newMemCargoRepo()
	now := time.Now()
	sinFecha := repo.add(model.CargoPendiente)
	vencido := repo.add(model.CargoPendiente)
	pasado := now.Add(-time.Minute)
	vencido.ProximoIntento = &pasado
	futuro := repo.add(model.CargoPendiente)
	despues := now.Add(time.Hour)
	futuro.ProximoIntento = &despues
	aplicado := repo.add(model.CargoAplicado)

	applier := &fakeApplier{repo: repo}
	cfg := RetryCronConfig{CargoRepo: repo, Worker: newTestWorker(repo, applier, 5, now)}

	assert.Equal(t, 2, processRetries(context.Background(), cfg, now))
	assert.ElementsMatch(t, []uuid.UUID{sinFecha.ID, vencido.ID}, applier.llamado)
	assert.Equal(t, model.CargoPendiente, repo.cargos[futuro.ID].Estado)
	assert.Equal(t, model.CargoAplicado, repo.cargos[aplicado.ID].Estado)
}

func TestProcessJob_Despacho(t *testing.T) {
	repo := newMemCargoRepo()
	c := repo.add(model.CargoPendiente)
	w := newTestWorker(repo, &fakeApplier{repo: repo}, 5, time.Now())
	handlers := WorkerHandlers{JobCargoCuenta: w}

	payload, _ := json.Marshal(CargoJobPayload{CargoID: c.ID.String()})
	raw, _ := json.Marshal(Job{Type: "desconocido", Payload: payload})
	processJob(context.Background(), handlers, QueueCuentaCorriente, string(raw))
	assert.Equal(t, model.CargoPendiente, repo.cargos[c.ID].Estado)

	raw, _ = json.Marshal(Job{Type: JobCargoCuenta, Payload: payload})
	processJob(context.Background(), handlers, QueueCuentaCorriente, string(raw))
	assert.Equal(t, model.CargoAplicado, repo.cargos[c.ID].Estado)
}

func TestDispatcher_SinRedis(t *testing.T) {
	var d *Dispatcher
	assert.ErrorIs(t, d.EnqueueCargoCuenta(context.Background(), CargoJobPayload{}), errSinRedis)
	assert.ErrorIs(t, NewDispatcher(nil).EnqueueCargoCuenta(context.Background(), CargoJobPayload{}), errSinRedis)
}
