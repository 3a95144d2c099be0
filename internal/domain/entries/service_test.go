package entries

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadtrack/internal/core/apperror"
	"leadtrack/internal/core/entity"
	"leadtrack/internal/core/id"
	"leadtrack/internal/core/security"
	"leadtrack/internal/core/types"
	"leadtrack/internal/domain/audit"
	"leadtrack/internal/domain/auth"
	"leadtrack/internal/domain/posting"
	"leadtrack/internal/domain/registers/stock"
	"leadtrack/internal/domain/settings"
	"leadtrack/internal/domain/sku"
	"leadtrack/internal/domain/yield"
)

// memTx imitates transactional rollback over the in-memory fakes by
// snapshotting their state before the function runs.
type memTx struct {
	ledger *memoryLedger
	stock  *memoryStock
}

func (t memTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	ledgerSnap := t.ledger.clone()
	stockSnap := t.stock.clone()
	if err := fn(ctx); err != nil {
		*t.ledger = *ledgerSnap
		*t.stock = *stockSnap
		return err
	}
	return nil
}

// memoryLedger is an in-memory Repository for service tests.
type memoryLedger struct {
	headers   map[id.ID]*entity.Entry
	refining  map[id.ID]*RefiningEntry
	recycling map[id.ID]*RecyclingEntry
	dross     map[id.ID]*DrossEntry
	purchases map[id.ID]*RMLPurchaseEntry
	received  map[id.ID]*RMLReceivedEntry
	sales     map[id.ID]*SaleEntry
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{
		headers:   make(map[id.ID]*entity.Entry),
		refining:  make(map[id.ID]*RefiningEntry),
		recycling: make(map[id.ID]*RecyclingEntry),
		dross:     make(map[id.ID]*DrossEntry),
		purchases: make(map[id.ID]*RMLPurchaseEntry),
		received:  make(map[id.ID]*RMLReceivedEntry),
		sales:     make(map[id.ID]*SaleEntry),
	}
}

// clone copies map membership; entry values are shared, which is fine
// for rollback of rejected appends where only membership changed.
func (m *memoryLedger) clone() *memoryLedger {
	c := newMemoryLedger()
	for k, v := range m.headers {
		c.headers[k] = v
	}
	for k, v := range m.refining {
		c.refining[k] = v
	}
	for k, v := range m.recycling {
		c.recycling[k] = v
	}
	for k, v := range m.dross {
		c.dross[k] = v
	}
	for k, v := range m.purchases {
		c.purchases[k] = v
	}
	for k, v := range m.received {
		c.received[k] = v
	}
	for k, v := range m.sales {
		c.sales[k] = v
	}
	return c
}

func (m *memoryLedger) GetHeader(_ context.Context, entryID id.ID) (entity.Entry, error) {
	h, ok := m.headers[entryID]
	if !ok {
		return entity.Entry{}, apperror.NewNotFound("entry", entryID)
	}
	return *h, nil
}

func (m *memoryLedger) UpdateHeader(_ context.Context, e *entity.Entry) error {
	h, ok := m.headers[e.ID]
	if !ok {
		return apperror.NewNotFound("entry", e.ID)
	}
	*h = *e
	return nil
}

func (m *memoryLedger) ListHeaders(_ context.Context, filter ListFilter) ([]entity.Entry, error) {
	var out []entity.Entry
	for _, h := range m.headers {
		if filter.EntryType != nil && h.EntryType != *filter.EntryType {
			continue
		}
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (m *memoryLedger) DeleteEntry(_ context.Context, entryID id.ID) error {
	delete(m.headers, entryID)
	delete(m.refining, entryID)
	delete(m.recycling, entryID)
	delete(m.dross, entryID)
	delete(m.purchases, entryID)
	delete(m.received, entryID)
	delete(m.sales, entryID)
	return nil
}

func (m *memoryLedger) TruncateAll(_ context.Context) error {
	*m = *newMemoryLedger()
	return nil
}

func (m *memoryLedger) CreateRefining(_ context.Context, e *RefiningEntry) error {
	m.headers[e.ID] = &e.Entry
	m.refining[e.ID] = e
	return nil
}

func (m *memoryLedger) GetRefining(_ context.Context, entryID id.ID) (*RefiningEntry, error) {
	e, ok := m.refining[entryID]
	if !ok {
		return nil, apperror.NewNotFound("entry", entryID)
	}
	return e, nil
}

func (m *memoryLedger) ListRefining(_ context.Context, _ ListFilter) ([]RefiningEntry, error) {
	var out []RefiningEntry
	for _, e := range m.refining {
		out = append(out, *e)
	}
	return out, nil
}

func (m *memoryLedger) CreateRecycling(_ context.Context, e *RecyclingEntry) error {
	m.headers[e.ID] = &e.Entry
	m.recycling[e.ID] = e
	return nil
}

func (m *memoryLedger) GetRecycling(_ context.Context, entryID id.ID) (*RecyclingEntry, error) {
	e, ok := m.recycling[entryID]
	if !ok {
		return nil, apperror.NewNotFound("entry", entryID)
	}
	return e, nil
}

func (m *memoryLedger) ListRecycling(_ context.Context, _ ListFilter) ([]RecyclingEntry, error) {
	var out []RecyclingEntry
	for _, e := range m.recycling {
		out = append(out, *e)
	}
	return out, nil
}

func (m *memoryLedger) CreateDross(_ context.Context, e *DrossEntry) error {
	m.headers[e.ID] = &e.Entry
	m.dross[e.ID] = e
	return nil
}

func (m *memoryLedger) GetDross(_ context.Context, entryID id.ID) (*DrossEntry, error) {
	e, ok := m.dross[entryID]
	if !ok {
		return nil, apperror.NewNotFound("entry", entryID)
	}
	return e, nil
}

func (m *memoryLedger) UpdateDross(_ context.Context, e *DrossEntry) error {
	m.dross[e.ID] = e
	m.headers[e.ID] = &e.Entry
	return nil
}

func (m *memoryLedger) ListDross(_ context.Context, _ ListFilter) ([]DrossEntry, error) {
	var out []DrossEntry
	for _, e := range m.dross {
		out = append(out, *e)
	}
	return out, nil
}

func (m *memoryLedger) CreateRMLPurchase(_ context.Context, e *RMLPurchaseEntry) error {
	m.headers[e.ID] = &e.Entry
	m.purchases[e.ID] = e
	return nil
}

func (m *memoryLedger) GetRMLPurchase(_ context.Context, entryID id.ID) (*RMLPurchaseEntry, error) {
	e, ok := m.purchases[entryID]
	if !ok {
		return nil, apperror.NewNotFound("entry", entryID)
	}
	return e, nil
}

func (m *memoryLedger) ListRMLPurchase(_ context.Context, _ ListFilter) ([]RMLPurchaseEntry, error) {
	var out []RMLPurchaseEntry
	for _, e := range m.purchases {
		out = append(out, *e)
	}
	return out, nil
}

func (m *memoryLedger) CreateRMLReceived(_ context.Context, e *RMLReceivedEntry) error {
	m.headers[e.ID] = &e.Entry
	m.received[e.ID] = e
	return nil
}

func (m *memoryLedger) GetRMLReceived(_ context.Context, entryID id.ID) (*RMLReceivedEntry, error) {
	e, ok := m.received[entryID]
	if !ok {
		return nil, apperror.NewNotFound("entry", entryID)
	}
	return e, nil
}

func (m *memoryLedger) ListRMLReceived(_ context.Context, _ ListFilter) ([]RMLReceivedEntry, error) {
	var out []RMLReceivedEntry
	for _, e := range m.received {
		out = append(out, *e)
	}
	return out, nil
}

func (m *memoryLedger) CreateSale(_ context.Context, e *SaleEntry) error {
	m.headers[e.ID] = &e.Entry
	m.sales[e.ID] = e
	return nil
}

func (m *memoryLedger) GetSale(_ context.Context, entryID id.ID) (*SaleEntry, error) {
	e, ok := m.sales[entryID]
	if !ok {
		return nil, apperror.NewNotFound("entry", entryID)
	}
	return e, nil
}

func (m *memoryLedger) ListSale(_ context.Context, _ ListFilter) ([]SaleEntry, error) {
	var out []SaleEntry
	for _, e := range m.sales {
		out = append(out, *e)
	}
	return out, nil
}

func (m *memoryLedger) BatteryTotals(_ context.Context) ([]BatteryTotal, error) {
	totals := make(map[yield.BatteryType]types.Kg)
	for _, e := range m.recycling {
		for _, b := range e.Batches {
			totals[b.BatteryType] += b.BatteryKg
		}
	}
	out := make([]BatteryTotal, 0, len(totals))
	for bt, kg := range totals {
		out = append(out, BatteryTotal{BatteryType: bt, TotalKg: kg})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BatteryType < out[j].BatteryType })
	return out, nil
}

// memoryStock mirrors the fake in the stock package tests.
type memoryStock struct {
	movements []entity.StockMovement
	balances  map[entity.BucketKey]entity.StockBalance
}

func newMemoryStock() *memoryStock {
	return &memoryStock{balances: make(map[entity.BucketKey]entity.StockBalance)}
}

func (r *memoryStock) clone() *memoryStock {
	c := newMemoryStock()
	c.movements = append([]entity.StockMovement(nil), r.movements...)
	for k, v := range r.balances {
		c.balances[k] = v
	}
	return c
}

func (r *memoryStock) CreateMovements(_ context.Context, movements []entity.StockMovement) error {
	r.movements = append(r.movements, movements...)
	return nil
}

func (r *memoryStock) DeleteMovementsByRecorder(_ context.Context, recorderID id.ID, beforeVersion int) error {
	kept := r.movements[:0]
	for _, m := range r.movements {
		if m.RecorderID == recorderID && m.RecorderVersion < beforeVersion {
			continue
		}
		kept = append(kept, m)
	}
	r.movements = kept
	return nil
}

func (r *memoryStock) GetMovementsByRecorder(_ context.Context, recorderID id.ID) ([]entity.StockMovement, error) {
	var out []entity.StockMovement
	for _, m := range r.movements {
		if m.RecorderID == recorderID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memoryStock) ListMovements(_ context.Context, _ stock.MovementFilter) ([]entity.StockMovement, error) {
	return append([]entity.StockMovement(nil), r.movements...), nil
}

func (r *memoryStock) GetBalance(_ context.Context, key entity.BucketKey) (entity.StockBalance, error) {
	b, ok := r.balances[key]
	if !ok {
		return entity.StockBalance{}, apperror.NewNotFound("stock balance", key)
	}
	return b, nil
}

func (r *memoryStock) GetBalanceForUpdate(_ context.Context, key entity.BucketKey) (entity.StockBalance, error) {
	b, ok := r.balances[key]
	if !ok {
		b = entity.StockBalance{Material: key.Material, SKU: key.SKU}
		r.balances[key] = b
	}
	return b, nil
}

func (r *memoryStock) ApplyDelta(_ context.Context, key entity.BucketKey, delta stock.BalanceDelta) error {
	b, ok := r.balances[key]
	if !ok {
		b = entity.StockBalance{Material: key.Material, SKU: key.SKU, SBPercent: types.Percent(delta.SBPercent)}
	}
	b.Quantity += types.Kg(delta.Quantity)
	b.Pieces += delta.Pieces
	b.UpdatedAt = time.Now()
	r.balances[key] = b
	return nil
}

func (r *memoryStock) ListBalances(_ context.Context, _ stock.BalanceFilter) ([]entity.StockBalance, error) {
	out := make([]entity.StockBalance, 0, len(r.balances))
	for _, b := range r.balances {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Material != out[j].Material {
			return out[i].Material < out[j].Material
		}
		return out[i].SKU < out[j].SKU
	})
	return out, nil
}

func (r *memoryStock) RebuildBalances(_ context.Context) error {
	r.balances = make(map[entity.BucketKey]entity.StockBalance)
	for _, m := range r.movements {
		key := m.BucketKey()
		b, ok := r.balances[key]
		if !ok {
			b = entity.StockBalance{Material: key.Material, SKU: key.SKU, SBPercent: m.SBPercent}
		}
		b.Quantity += m.SignedQuantity()
		b.Pieces += m.SignedPieces()
		r.balances[key] = b
	}
	return nil
}

func (r *memoryStock) TruncateAll(_ context.Context) error {
	r.movements = nil
	r.balances = make(map[entity.BucketKey]entity.StockBalance)
	return nil
}

type fixture struct {
	svc      *Service
	stockSvc *stock.Service
	ledger   *memoryLedger
	stock    *memoryStock
	settings *settingsStore
}

type settingsStore struct {
	row *settings.RecoverySettings
}

func (r *settingsStore) Get(_ context.Context) (settings.RecoverySettings, error) {
	if r.row == nil {
		return settings.RecoverySettings{}, apperror.NewNotFound("recovery settings", "singleton")
	}
	return *r.row, nil
}

func (r *settingsStore) Save(_ context.Context, s settings.RecoverySettings) error {
	r.row = &s
	return nil
}

// accountStore is a minimal auth.UserRepository for checking that a
// ledger wipe leaves accounts alone.
type accountStore struct {
	users map[id.ID]*auth.User
}

func newAccountStore() *accountStore {
	return &accountStore{users: make(map[id.ID]*auth.User)}
}

func (r *accountStore) Create(_ context.Context, u *auth.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *accountStore) GetByID(_ context.Context, userID id.ID) (*auth.User, error) {
	u, ok := r.users[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID)
	}
	return u, nil
}

func (r *accountStore) GetByName(_ context.Context, name string) (*auth.User, error) {
	for _, u := range r.users {
		if u.Name == name {
			return u, nil
		}
	}
	return nil, apperror.NewNotFound("user", name)
}

func (r *accountStore) Update(_ context.Context, u *auth.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *accountStore) List(_ context.Context) ([]auth.User, error) {
	out := make([]auth.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *accountStore) Delete(_ context.Context, userID id.ID) error {
	delete(r.users, userID)
	return nil
}

func (r *accountStore) Exists(_ context.Context, name string) (bool, error) {
	_, err := r.GetByName(context.Background(), name)
	return err == nil, nil
}

func newFixture() *fixture {
	ledger := newMemoryLedger()
	stockRepo := newMemoryStock()
	stockSvc := stock.NewService(stockRepo)
	guard := security.NewGuard("TT")
	settingsRepo := &settingsStore{}
	settingsSvc := settings.NewService(settingsRepo, guard)
	txm := memTx{ledger: ledger, stock: stockRepo}
	engine := posting.NewEngine(stockSvc, txm)

	return &fixture{
		svc:      NewService(ledger, engine, stockSvc, settingsSvc, guard, audit.Nop{}, txm),
		stockSvc: stockSvc,
		ledger:   ledger,
		stock:    stockRepo,
		settings: settingsRepo,
	}
}

func userCtx() context.Context {
	return security.WithPrincipal(context.Background(), security.Principal{
		UserID: "u-factory", Name: "Factory",
	})
}

func adminCtx() context.Context {
	return security.WithPrincipal(context.Background(), security.Principal{
		UserID: "u-tt", Name: "TT", IsAdmin: true,
	})
}

// The literal scenario: 100 kg of PP batteries at 60.5% leaves 60.50 kg
// receivable; a 40 kg SANTOSH refining run drops it to 20.50; a further
// 25 kg run must be rejected.
func TestLedger_SantoshConsumptionScenario(t *testing.T) {
	ctx := userCtx()
	f := newFixture()

	snap, err := f.svc.SettingsSnapshot(ctx)
	require.NoError(t, err)

	recycling := NewRecyclingEntry("u-factory", "Factory")
	require.NoError(t, recycling.AddBatch(snap, yield.BatteryPP, types.MustKg("100.00")))
	require.NoError(t, f.svc.AppendRecycling(ctx, recycling))
	assert.Equal(t, "60.50", recycling.Batches[0].ReceivableKg.String())

	summary, err := f.stockSvc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "60.50", summary.Receivable.String())

	sb := types.MustPercent("3")
	refining := NewRefiningEntry("u-factory", "Factory")
	refining.AddBatch(RefiningBatch{
		InputSource:  InputSource{Kind: InputSantosh},
		SBPercentage: &sb,
		LeadIngotKg:  types.MustKg("40.00"),
		PureLeadKg:   types.MustKg("38.00"),
	})
	require.NoError(t, f.svc.AppendRefining(ctx, refining))

	summary, err = f.stockSvc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "20.50", summary.Receivable.String())
	assert.Equal(t, "38.00", summary.PureLead.String())
	// 3% of the 40 kg ingot run is recoverable antimony.
	assert.Equal(t, "1.20", summary.Antimony.String())

	over := NewRefiningEntry("u-factory", "Factory")
	over.AddBatch(RefiningBatch{
		InputSource:  InputSource{Kind: InputSantosh},
		SBPercentage: &sb,
		LeadIngotKg:  types.MustKg("25.00"),
		PureLeadKg:   types.MustKg("24.00"),
	})
	err = f.svc.AppendRefining(ctx, over)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	// The rejected append must leave ledger and summary untouched.
	summary, err = f.stockSvc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "20.50", summary.Receivable.String())
	assert.Equal(t, "38.00", summary.PureLead.String())
	assert.Equal(t, "1.20", summary.Antimony.String())
	headers, err := f.svc.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, headers, 2)
}

func TestLedger_YieldFrozenAgainstSettingsEdits(t *testing.T) {
	ctx := userCtx()
	f := newFixture()

	snap, err := f.svc.SettingsSnapshot(ctx)
	require.NoError(t, err)

	e := NewRecyclingEntry("u-factory", "Factory")
	require.NoError(t, e.AddBatch(snap, yield.BatteryMCSMF, types.MustKg("200.00")))
	require.NoError(t, f.svc.AppendRecycling(ctx, e))
	assert.Equal(t, "116.00", e.Batches[0].ReceivableKg.String())

	next := snap
	next.MCSMF = types.MustPercent("70")
	require.NoError(t, f.settings.Save(ctx, next))

	stored, err := f.ledger.GetRecycling(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "116.00", stored.Batches[0].ReceivableKg.String())

	summary, err := f.stockSvc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "116.00", summary.Receivable.String())
}

func TestLedger_PurchaseMergesIdenticalSKUs(t *testing.T) {
	ctx := userCtx()
	f := newFixture()

	day := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	first := NewRMLPurchaseEntry("u-factory", "Factory")
	first.Timestamp = day
	first.AddBatch(RMLBatch{QuantityKg: types.MustKg("1000.00"), Pieces: 40, SBPercentage: types.MustPercent("2.5"), Remarks: "SANTOSH"})
	require.NoError(t, f.svc.AppendRMLPurchase(ctx, first))

	second := NewRMLPurchaseEntry("u-factory", "Factory")
	second.Timestamp = day.Add(3 * time.Hour)
	second.AddBatch(RMLBatch{QuantityKg: types.MustKg("500.00"), Pieces: 20, SBPercentage: types.MustPercent("2.5"), Remarks: "SANTOSH"})
	require.NoError(t, f.svc.AppendRMLPurchase(ctx, second))

	third := NewRMLPurchaseEntry("u-factory", "Factory")
	third.Timestamp = day.Add(48 * time.Hour)
	third.AddBatch(RMLBatch{QuantityKg: types.MustKg("300.00"), Pieces: 12, SBPercentage: types.MustPercent("2.5"), Remarks: "SANTOSH"})
	require.NoError(t, f.svc.AppendRMLPurchase(ctx, third))

	summary, err := f.stockSvc.Summary(ctx)
	require.NoError(t, err)
	require.Len(t, summary.RMLLots, 2)
	assert.Equal(t, "SANTOSH, 2.5%, 01/03/2026", summary.RMLLots[0].SKU)
	assert.Equal(t, "1500.00", summary.RMLLots[0].Quantity.String())
	assert.Equal(t, int64(60), summary.RMLLots[0].Pieces)
	assert.Equal(t, "SANTOSH, 2.5%, 03/03/2026", summary.RMLLots[1].SKU)
	assert.Equal(t, "300.00", summary.RMLLots[1].Quantity.String())
}

func TestLedger_RefiningFromSKUConsumesLot(t *testing.T) {
	ctx := userCtx()
	f := newFixture()

	purchase := NewRMLPurchaseEntry("u-factory", "Factory")
	purchase.Timestamp = time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	purchase.AddBatch(RMLBatch{QuantityKg: types.MustKg("800.00"), SBPercentage: types.MustPercent("2")})
	require.NoError(t, f.svc.AppendRMLPurchase(ctx, purchase))
	lotKey := purchase.Batches[0].SKU
	assert.Equal(t, "RML, 2%, 01/03/2026", lotKey)

	refining := NewRefiningEntry("u-factory", "Factory")
	refining.AddBatch(RefiningBatch{
		InputSource: ParseInputSource(lotKey),
		LeadIngotKg: types.MustKg("300.00"),
		PureLeadKg:  types.MustKg("280.00"),
	})
	require.NoError(t, f.svc.AppendRefining(ctx, refining))

	reg := sku.NewRegistry(f.stockSvc)
	lots, err := reg.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, "500.00", lots[0].Quantity.String())
}

func TestLedger_RMLReceivedSettlesReceivable(t *testing.T) {
	ctx := userCtx()
	f := newFixture()

	snap, err := f.svc.SettingsSnapshot(ctx)
	require.NoError(t, err)

	recycling := NewRecyclingEntry("u-factory", "Factory")
	require.NoError(t, recycling.AddBatch(snap, yield.BatteryHR, types.MustKg("400.00")))
	require.NoError(t, f.svc.AppendRecycling(ctx, recycling))

	received := NewRMLReceivedEntry("u-factory", "Factory")
	received.AddBatch(RMLBatch{QuantityKg: types.MustKg("150.00"), Pieces: 6, SBPercentage: types.MustPercent("2")})
	require.NoError(t, f.svc.AppendRMLReceived(ctx, received))

	summary, err := f.stockSvc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "50.00", summary.Receivable.String())
	assert.Equal(t, "150.00", summary.Remelted.String())
	assert.Equal(t, int64(6), summary.RemeltedPieces)
}

func TestLedger_SaleDrawsNamedBucket(t *testing.T) {
	ctx := userCtx()
	f := newFixture()

	refining := NewRefiningEntry("u-factory", "Factory")
	refining.AddBatch(RefiningBatch{
		InputSource: InputSource{Kind: InputManual},
		LeadIngotKg: types.MustKg("100.00"),
		PureLeadKg:  types.MustKg("95.00"),
	})
	require.NoError(t, f.svc.AppendRefining(ctx, refining))

	sale := NewSaleEntry("u-factory", "Factory")
	sale.PartyName = "Gupta Metals"
	sale.QuantityKg = types.MustKg("60.00")
	require.NoError(t, f.svc.AppendSale(ctx, sale))

	summary, err := f.stockSvc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "35.00", summary.PureLead.String())

	over := NewSaleEntry("u-factory", "Factory")
	over.PartyName = "Gupta Metals"
	over.QuantityKg = types.MustKg("40.00")
	err = f.svc.AppendSale(ctx, over)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
}

func TestLedger_DrossRecoveryRepost(t *testing.T) {
	ctx := userCtx()
	f := newFixture()

	e := NewDrossEntry("u-factory", "Factory")
	e.AddBatch(DrossBatch{DrossType: "initial", QuantitySentKg: types.MustKg("500.00")})
	require.NoError(t, f.svc.AppendDross(ctx, e))

	summary, err := f.stockSvc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0.00", summary.HighLead.String())

	batchID := e.Batches[0].BatchID
	require.NoError(t, f.svc.RecordDrossRecovery(ctx, e.ID, batchID, "320.00"))

	summary, err = f.stockSvc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "320.00", summary.HighLead.String())

	// Correcting the figure replaces the old movements, not stacks them.
	require.NoError(t, f.svc.RecordDrossRecovery(ctx, e.ID, batchID, "310.00"))

	summary, err = f.stockSvc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "310.00", summary.HighLead.String())

	stored, err := f.ledger.GetDross(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "62", stored.Batches[0].RecoveryPercent.String())
}

func TestLedger_DeleteRequiresAdminAndReverses(t *testing.T) {
	f := newFixture()

	recycling := NewRecyclingEntry("u-factory", "Factory")
	snap, err := f.svc.SettingsSnapshot(userCtx())
	require.NoError(t, err)
	require.NoError(t, recycling.AddBatch(snap, yield.BatteryPP, types.MustKg("100.00")))
	require.NoError(t, f.svc.AppendRecycling(userCtx(), recycling))

	err = f.svc.Delete(userCtx(), recycling.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))

	require.NoError(t, f.svc.Delete(adminCtx(), recycling.ID))

	summary, err := f.stockSvc.Summary(adminCtx())
	require.NoError(t, err)
	assert.Equal(t, "0.00", summary.Receivable.String())

	_, err = f.svc.Get(adminCtx(), recycling.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestLedger_DeleteRejectedWhenOutputConsumed(t *testing.T) {
	ctx := userCtx()
	f := newFixture()

	snap, err := f.svc.SettingsSnapshot(ctx)
	require.NoError(t, err)

	recycling := NewRecyclingEntry("u-factory", "Factory")
	require.NoError(t, recycling.AddBatch(snap, yield.BatteryPP, types.MustKg("100.00")))
	require.NoError(t, f.svc.AppendRecycling(ctx, recycling))

	sb := types.MustPercent("3")
	refining := NewRefiningEntry("u-factory", "Factory")
	refining.AddBatch(RefiningBatch{
		InputSource:  InputSource{Kind: InputSantosh},
		SBPercentage: &sb,
		LeadIngotKg:  types.MustKg("40.00"),
		PureLeadKg:   types.MustKg("38.00"),
	})
	require.NoError(t, f.svc.AppendRefining(ctx, refining))

	// The recycling entry's receivable is partly consumed; deleting it
	// would leave the bucket negative.
	err = f.svc.Delete(adminCtx(), recycling.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	// Nothing changed.
	summary, err := f.stockSvc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "20.50", summary.Receivable.String())
}

func TestLedger_ClearAllScoping(t *testing.T) {
	ctx := userCtx()
	f := newFixture()

	custom := settings.Defaults()
	custom.PP = types.MustPercent("62")
	require.NoError(t, f.settings.Save(ctx, custom))

	accounts := newAccountStore()
	authSvc := auth.NewService(accounts, memTx{ledger: f.ledger, stock: f.stock},
		auth.NewJWTService(auth.DefaultJWTConfig("test-secret")),
		security.NewGuard("TT"), auth.DefaultServiceConfig())
	_, err := authSvc.Register(ctx, "Factory", "floor-password")
	require.NoError(t, err)

	snap, err := f.svc.SettingsSnapshot(ctx)
	require.NoError(t, err)

	recycling := NewRecyclingEntry("u-factory", "Factory")
	require.NoError(t, recycling.AddBatch(snap, yield.BatteryPP, types.MustKg("100.00")))
	require.NoError(t, f.svc.AppendRecycling(ctx, recycling))

	err = f.svc.ClearAll(userCtx())
	require.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))

	require.NoError(t, f.svc.ClearAll(adminCtx()))

	headers, err := f.svc.List(adminCtx(), ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, headers)

	summary, err := f.stockSvc.Summary(adminCtx())
	require.NoError(t, err)
	assert.Equal(t, "0.00", summary.Receivable.String())
	assert.Empty(t, summary.RMLLots)

	// Settings survive the wipe with their edited values.
	kept, err := f.svc.SettingsSnapshot(adminCtx())
	require.NoError(t, err)
	assert.Equal(t, "62", kept.PP.String())

	// Accounts survive too and can still log in.
	remaining, err := authSvc.ListUsers(adminCtx())
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "Factory", remaining[0].Name)
	_, _, err = authSvc.Login(ctx, auth.Credentials{Name: "Factory", Password: "floor-password"})
	require.NoError(t, err)
}

func TestLedger_RejectsFutureTimestamp(t *testing.T) {
	ctx := userCtx()
	f := newFixture()

	sale := NewSaleEntry("u-factory", "Factory")
	sale.PartyName = "Gupta Metals"
	sale.QuantityKg = types.MustKg("10.00")
	sale.Timestamp = time.Now().UTC().Add(2 * time.Hour)

	err := f.svc.AppendSale(ctx, sale)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}
