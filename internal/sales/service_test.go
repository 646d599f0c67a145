package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atelier-commerce/atelier/internal/shared"
)

type memoryRepo struct {
	nextOrderID int64
	nextLineID  int64
	seq         int64
	orders      map[int64]Order
	lines       map[int64]OrderLine
	products    map[int64]ProductPricing
	outMoves    []OrderLine
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		nextOrderID: 1,
		nextLineID:  1,
		orders:      map[int64]Order{},
		lines:       map[int64]OrderLine{},
		products:    map[int64]ProductPricing{},
	}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	return fn(ctx, m)
}

func (m *memoryRepo) DraftBySession(_ context.Context, sessionKey string) (*Order, error) {
	for _, o := range m.orders {
		if o.SessionKey == sessionKey && o.Status == StatusDraft {
			found := o
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memoryRepo) CreateDraft(_ context.Context, order Order) (int64, error) {
	order.ID = m.nextOrderID
	m.nextOrderID++
	order.Status = StatusDraft
	m.orders[order.ID] = order
	return order.ID, nil
}

func (m *memoryRepo) GetOrder(_ context.Context, id int64) (Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return Order{}, shared.ErrNotFound
	}
	return o, nil
}

func (m *memoryRepo) Lines(_ context.Context, orderID int64) ([]OrderLine, error) {
	lines := []OrderLine{}
	for _, l := range m.lines {
		if l.OrderID == orderID {
			if p, ok := m.products[l.ProductID]; ok {
				l.ProductName = p.Name
			}
			lines = append(lines, l)
		}
	}
	return lines, nil
}

func (m *memoryRepo) UpsertLine(_ context.Context, line OrderLine) error {
	for id, l := range m.lines {
		if l.OrderID == line.OrderID && l.ProductID == line.ProductID {
			l.Quantity = line.Quantity
			l.UnitPrice = line.UnitPrice
			l.LineTotal = line.Quantity * line.UnitPrice
			m.lines[id] = l
			return nil
		}
	}
	line.ID = m.nextLineID
	m.nextLineID++
	line.LineTotal = line.Quantity * line.UnitPrice
	m.lines[line.ID] = line
	return nil
}

func (m *memoryRepo) RemoveLine(_ context.Context, orderID, productID int64) error {
	for id, l := range m.lines {
		if l.OrderID == orderID && l.ProductID == productID {
			delete(m.lines, id)
		}
	}
	return nil
}

func (m *memoryRepo) SetLinePrice(_ context.Context, lineID int64, unitPrice float64) error {
	l, ok := m.lines[lineID]
	if !ok {
		return shared.ErrNotFound
	}
	l.UnitPrice = unitPrice
	l.LineTotal = l.Quantity * unitPrice
	m.lines[lineID] = l
	return nil
}

func (m *memoryRepo) SetCustomerType(_ context.Context, orderID int64, ct CustomerType, terms PaymentTerms) error {
	o, ok := m.orders[orderID]
	if !ok || o.Status != StatusDraft {
		return nil
	}
	o.CustomerType = ct
	o.PaymentTerms = terms
	m.orders[orderID] = o
	return nil
}

func (m *memoryRepo) SetTotal(_ context.Context, orderID int64, total float64) error {
	o, ok := m.orders[orderID]
	if !ok {
		return shared.ErrNotFound
	}
	o.TotalAmount = total
	m.orders[orderID] = o
	return nil
}

func (m *memoryRepo) MarkConfirmed(_ context.Context, orderID int64, docNumber, tracking string, method DeliveryMethod, total float64, at time.Time) error {
	o, ok := m.orders[orderID]
	if !ok || o.Status != StatusDraft {
		return ErrOrderNotDraft
	}
	o.Status = StatusConfirmed
	o.DocNumber = docNumber
	o.TrackingNumber = tracking
	o.DeliveryMethod = method
	o.TotalAmount = total
	o.ConfirmedAt = &at
	m.orders[orderID] = o
	return nil
}

func (m *memoryRepo) MarkCancelled(_ context.Context, orderID int64) error {
	o, ok := m.orders[orderID]
	if !ok || o.Status != StatusDraft {
		return ErrOrderNotDraft
	}
	o.Status = StatusCancelled
	m.orders[orderID] = o
	return nil
}

func (m *memoryRepo) InsertOutMove(_ context.Context, productID int64, qty float64, ref string) error {
	m.outMoves = append(m.outMoves, OrderLine{ProductID: productID, Quantity: qty})
	return nil
}

func (m *memoryRepo) ByTracking(_ context.Context, tracking string) (Order, []OrderLine, error) {
	for _, o := range m.orders {
		if o.TrackingNumber == tracking && o.WebsiteOrder {
			lines, _ := m.Lines(context.Background(), o.ID)
			return o, lines, nil
		}
	}
	return Order{}, nil, shared.ErrNotFound
}

func (m *memoryRepo) RecentB2B(_ context.Context, customerID int64, limit int) ([]Order, error) {
	orders := []Order{}
	for _, o := range m.orders {
		if o.CustomerID == customerID && o.CustomerType == CustomerB2B && o.Status != StatusCancelled {
			orders = append(orders, o)
		}
	}
	if len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (m *memoryRepo) NextDocNumber(_ context.Context) (string, error) {
	m.seq++
	return fmt.Sprintf("SO-2026-%05d", m.seq), nil
}

func (m *memoryRepo) ProductPricingFor(_ context.Context, productIDs []int64) (map[int64]ProductPricing, error) {
	result := map[int64]ProductPricing{}
	for _, id := range productIDs {
		if p, ok := m.products[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}

type fixedInventory map[int64]float64

func (f fixedInventory) AvailabilityFor(_ context.Context, productIDs []int64) (map[int64]float64, error) {
	result := map[int64]float64{}
	for _, id := range productIDs {
		result[id] = f[id]
	}
	return result, nil
}

type recordingInvoicer struct{ issued []int64 }

func (r *recordingInvoicer) IssueForOrder(_ context.Context, order Order, _ []OrderLine) error {
	r.issued = append(r.issued, order.ID)
	return nil
}

type recordingEmails struct{ enqueued []int64 }

func (r *recordingEmails) EnqueueOrderConfirmation(_ context.Context, orderID int64, _ string) error {
	r.enqueued = append(r.enqueued, orderID)
	return nil
}

func testService(repo *memoryRepo, inv fixedInventory) (*Service, *recordingInvoicer, *recordingEmails) {
	invoicer := &recordingInvoicer{}
	emails := &recordingEmails{}
	svc := NewService(slog.Default(), repo, inv, invoicer, emails, nil)
	return svc, invoicer, emails
}

func TestUpdateCartRejectsShortage(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = ProductPricing{ProductID: 1, Name: "Linen Shirt", Price: 40, IsSaleable: true}
	svc, _, _ := testService(repo, fixedInventory{1: 5})
	ctx := context.Background()

	_, err := svc.UpdateCart(ctx, "sess-1", 0, 1, 6)
	var shortage *StockShortageError
	require.ErrorAs(t, err, &shortage)
	require.Equal(t, "Linen Shirt", shortage.ProductName)
	require.Equal(t, 5.0, shortage.Available)
	require.Equal(t, 6.0, shortage.Requested)

	order, err := svc.UpdateCart(ctx, "sess-1", 0, 1, 5)
	require.NoError(t, err)
	require.NotNil(t, order)
	got, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, 200.0, got.TotalAmount)
	require.True(t, got.WebsiteOrder)
	require.Equal(t, CustomerB2C, got.CustomerType)
}

func TestUpdateCartZeroRemovesLine(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = ProductPricing{ProductID: 1, Name: "Wool Scarf", Price: 25, IsSaleable: true}
	svc, _, _ := testService(repo, fixedInventory{1: 10})
	ctx := context.Background()

	order, err := svc.UpdateCart(ctx, "sess-2", 0, 1, 2)
	require.NoError(t, err)

	_, err = svc.UpdateCart(ctx, "sess-2", 0, 1, 0)
	require.NoError(t, err)

	lines, err := repo.Lines(ctx, order.ID)
	require.NoError(t, err)
	require.Empty(t, lines)
}

func TestSetCustomerTypeReprices(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = ProductPricing{ProductID: 1, Name: "Denim Jacket", Price: 80, B2BPrice: 50, IsSaleable: true}
	svc, _, _ := testService(repo, fixedInventory{1: 100})
	ctx := context.Background()

	order, err := svc.UpdateCart(ctx, "sess-3", 0, 1, 2)
	require.NoError(t, err)
	got, _ := repo.GetOrder(ctx, order.ID)
	require.Equal(t, 160.0, got.TotalAmount)

	require.NoError(t, svc.SetCustomerType(ctx, order.ID, CustomerB2B))
	got, _ = repo.GetOrder(ctx, order.ID)
	require.Equal(t, CustomerB2B, got.CustomerType)
	require.Equal(t, Terms30Days, got.PaymentTerms)
	require.Equal(t, 100.0, got.TotalAmount)
	lines, _ := repo.Lines(ctx, order.ID)
	require.Len(t, lines, 1)
	require.Equal(t, 50.0, lines[0].UnitPrice)

	require.NoError(t, svc.SetCustomerType(ctx, order.ID, CustomerB2C))
	got, _ = repo.GetOrder(ctx, order.ID)
	require.Equal(t, TermsImmediate, got.PaymentTerms)
	require.Equal(t, 160.0, got.TotalAmount)
}

func TestConfirmRejectsEmptyCart(t *testing.T) {
	repo := newMemoryRepo()
	svc, _, _ := testService(repo, fixedInventory{})

	_, err := svc.Confirm(context.Background(), "sess-4", DeliveryStandard)
	require.ErrorIs(t, err, ErrEmptyOrder)
}

func TestConfirmRejectsInsufficientStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = ProductPricing{ProductID: 1, Name: "Silk Dress", Price: 120, IsSaleable: true}
	svc, _, _ := testService(repo, fixedInventory{1: 3})
	ctx := context.Background()

	order, err := svc.UpdateCart(ctx, "sess-5", 0, 1, 3)
	require.NoError(t, err)

	// Stock drained between cart and confirmation.
	svc.inventory = fixedInventory{1: 1}
	_, err = svc.Confirm(ctx, "sess-5", DeliveryExpress)
	var shortage *StockShortageError
	require.ErrorAs(t, err, &shortage)
	require.Equal(t, "Silk Dress", shortage.ProductName)

	got, _ := repo.GetOrder(ctx, order.ID)
	require.Equal(t, StatusDraft, got.Status)
	require.Empty(t, repo.outMoves)
}

func TestConfirmHappyPathB2C(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = ProductPricing{ProductID: 1, Name: "Cotton Tee", Price: 15, IsSaleable: true}
	repo.products[2] = ProductPricing{ProductID: 2, Name: "Chinos", Price: 45, IsSaleable: true}
	svc, invoicer, emails := testService(repo, fixedInventory{1: 20, 2: 20})
	ctx := context.Background()

	_, err := svc.UpdateCart(ctx, "sess-6", 7, 1, 2)
	require.NoError(t, err)
	order, err := svc.UpdateCart(ctx, "sess-6", 7, 2, 1)
	require.NoError(t, err)

	confirmed, err := svc.Confirm(ctx, "sess-6", DeliveryStandard)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, confirmed.Status)
	require.NotEmpty(t, confirmed.TrackingNumber)
	require.NotEmpty(t, confirmed.DocNumber)
	require.Equal(t, 75.0, confirmed.TotalAmount)
	require.Len(t, repo.outMoves, 2)

	require.Equal(t, []int64{order.ID}, invoicer.issued)
	require.Equal(t, []int64{order.ID}, emails.enqueued)

	_, err = svc.Confirm(ctx, "sess-6", DeliveryStandard)
	require.ErrorIs(t, err, ErrEmptyOrder)
}

func TestConfirmB2BSkipsInvoice(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = ProductPricing{ProductID: 1, Name: "Blazer", Price: 200, B2BPrice: 140, IsSaleable: true}
	svc, invoicer, emails := testService(repo, fixedInventory{1: 50})
	ctx := context.Background()

	order, err := svc.UpdateCart(ctx, "sess-7", 9, 1, 10)
	require.NoError(t, err)
	require.NoError(t, svc.SetCustomerType(ctx, order.ID, CustomerB2B))

	confirmed, err := svc.Confirm(ctx, "sess-7", DeliveryPickup)
	require.NoError(t, err)
	require.Equal(t, 1400.0, confirmed.TotalAmount)
	require.Empty(t, invoicer.issued)
	require.Empty(t, emails.enqueued)
}

func TestTrackOnlyWebsiteOrders(t *testing.T) {
	repo := newMemoryRepo()
	repo.orders[1] = Order{ID: 1, TrackingNumber: "trk-1", WebsiteOrder: true, Status: StatusConfirmed}
	repo.orders[2] = Order{ID: 2, TrackingNumber: "trk-2", WebsiteOrder: false, Status: StatusConfirmed}
	svc, _, _ := testService(repo, fixedInventory{})
	ctx := context.Background()

	order, _, err := svc.Track(ctx, "trk-1")
	require.NoError(t, err)
	require.Equal(t, int64(1), order.ID)

	_, _, err = svc.Track(ctx, "trk-2")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCancelOnlyDrafts(t *testing.T) {
	repo := newMemoryRepo()
	repo.orders[1] = Order{ID: 1, Status: StatusDraft}
	repo.orders[2] = Order{ID: 2, Status: StatusConfirmed}
	svc, _, _ := testService(repo, fixedInventory{})
	ctx := context.Background()

	require.NoError(t, svc.Cancel(ctx, 1))
	require.Equal(t, StatusCancelled, repo.orders[1].Status)

	err := svc.Cancel(ctx, 2)
	require.ErrorIs(t, err, ErrOrderNotDraft)
}

type memoryIdempotency struct {
	keys map[string]bool
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{keys: map[string]bool{}}
}

func (m *memoryIdempotency) CheckAndInsert(_ context.Context, key, _ string) error {
	if m.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	m.keys[key] = true
	return nil
}

func (m *memoryIdempotency) Delete(_ context.Context, key string) error {
	delete(m.keys, key)
	return nil
}

// flakyTxRepo fails the first transactions, then delegates.
type flakyTxRepo struct {
	*memoryRepo
	failures int
}

func (r *flakyTxRepo) WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	if r.failures > 0 {
		r.failures--
		return errors.New("write conflict")
	}
	return r.memoryRepo.WithTx(ctx, fn)
}

func TestConfirmRetriesAfterTransientFailure(t *testing.T) {
	base := newMemoryRepo()
	base.products[1] = ProductPricing{ProductID: 1, Name: "Silk Tie", Price: 30, IsSaleable: true}
	repo := &flakyTxRepo{memoryRepo: base, failures: 1}
	idem := newMemoryIdempotency()
	svc := NewService(slog.Default(), repo, fixedInventory{1: 10}, nil, nil, nil).WithIdempotency(idem)
	ctx := context.Background()

	_, err := svc.UpdateCart(ctx, "sess-retry", 0, 1, 2)
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, "sess-retry", DeliveryStandard)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrOrderNotDraft)
	require.Empty(t, idem.keys)

	order, err := repo.DraftBySession(ctx, "sess-retry")
	require.NoError(t, err)
	require.Equal(t, StatusDraft, order.Status)

	confirmed, err := svc.Confirm(ctx, "sess-retry", DeliveryStandard)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, confirmed.Status)
	require.NotEmpty(t, confirmed.DocNumber)
	require.Len(t, base.outMoves, 1)
}
