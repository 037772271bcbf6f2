package trade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/inventory"
	"github.com/pos/backend/internal/domain/partner"
	"github.com/pos/backend/internal/domain/pricing"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/trade"
)

// memStore is an in-memory database whose transactions roll back on error
type memStore struct {
	stock     map[catalog.ItemRef]inventory.StockLevel
	movements []inventory.StockMovement
	sellables map[catalog.ItemRef]catalog.Sellable
	sales     map[uuid.UUID]trade.Sale
	payments  []trade.SalePayment
	returns   []trade.SaleReturn
	coupons   map[string]pricing.Coupon
	customers map[uuid.UUID]partner.Customer
	refSeq    int
	failOn    map[string]error
	execCalls int
	rollbacks int
}

func newMemStore() *memStore {
	return &memStore{
		stock:     make(map[catalog.ItemRef]inventory.StockLevel),
		sellables: make(map[catalog.ItemRef]catalog.Sellable),
		sales:     make(map[uuid.UUID]trade.Sale),
		coupons:   make(map[string]pricing.Coupon),
		customers: make(map[uuid.UUID]partner.Customer),
		failOn:    make(map[string]error),
	}
}

func (s *memStore) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	s.execCalls++
	snapshot := s.snapshot()
	if err := fn(&memRepos{s}); err != nil {
		rollbacks := s.rollbacks + 1
		*s = *snapshot
		s.rollbacks = rollbacks
		return err
	}
	return nil
}

func (s *memStore) snapshot() *memStore {
	c := *s
	c.stock = make(map[catalog.ItemRef]inventory.StockLevel, len(s.stock))
	for k, v := range s.stock {
		c.stock[k] = v
	}
	c.movements = append([]inventory.StockMovement(nil), s.movements...)
	c.sales = make(map[uuid.UUID]trade.Sale, len(s.sales))
	for k, v := range s.sales {
		c.sales[k] = cloneSale(&v)
	}
	c.payments = append([]trade.SalePayment(nil), s.payments...)
	c.returns = append([]trade.SaleReturn(nil), s.returns...)
	c.coupons = make(map[string]pricing.Coupon, len(s.coupons))
	for k, v := range s.coupons {
		c.coupons[k] = cloneCoupon(&v)
	}
	c.customers = make(map[uuid.UUID]partner.Customer, len(s.customers))
	for k, v := range s.customers {
		c.customers[k] = v
	}
	return &c
}

func (s *memStore) fail(op string) error {
	return s.failOn[op]
}

// seedItem registers a sellable item with stock
func (s *memStore) seedItem(sellable catalog.Sellable, qty int64, reorder *int64) {
	s.sellables[sellable.Ref] = sellable
	s.stock[sellable.Ref] = inventory.StockLevel{
		Item:         sellable.Ref,
		ProductID:    sellable.ProductID,
		StoreID:      sellable.StoreID,
		Quantity:     qty,
		ReorderPoint: reorder,
		TrackStock:   sellable.TrackStock,
	}
}

func (s *memStore) quantity(ref catalog.ItemRef) int64 {
	return s.stock[ref].Quantity
}

func cloneSale(sale *trade.Sale) trade.Sale {
	c := *sale
	c.ClearDomainEvents()
	c.Items = append([]trade.SaleItem(nil), sale.Items...)
	c.Payments = append([]trade.SalePayment(nil), sale.Payments...)
	return c
}

func cloneCoupon(coupon *pricing.Coupon) pricing.Coupon {
	c := *coupon
	if coupon.Discount != nil {
		d := *coupon.Discount
		c.Discount = &d
	}
	return c
}

type memRepos struct {
	s *memStore
}

func (r *memRepos) StockRepo() inventory.StockRepository       { return memStockRepo{r.s} }
func (r *memRepos) MovementRepo() inventory.MovementRepository { return memMovementRepo{r.s} }
func (r *memRepos) SaleRepo() trade.SaleRepository             { return memSaleRepo{r.s} }
func (r *memRepos) ReturnRepo() trade.SaleReturnRepository     { return memReturnRepo{r.s} }
func (r *memRepos) ProductRepo() catalog.ProductRepository     { return memProductRepo{r.s} }
func (r *memRepos) CouponRepo() pricing.CouponRepository       { return memCouponRepo{r.s} }
func (r *memRepos) CustomerRepo() partner.CustomerRepository   { return memCustomerRepo{r.s} }

type memStockRepo struct{ s *memStore }

func (r memStockRepo) Find(_ context.Context, item catalog.ItemRef) (*inventory.StockLevel, error) {
	level, ok := r.s.stock[item]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &level, nil
}

func (r memStockRepo) FindForUpdate(ctx context.Context, item catalog.ItemRef) (*inventory.StockLevel, error) {
	return r.Find(ctx, item)
}

func (r memStockRepo) SaveQuantity(_ context.Context, level *inventory.StockLevel) error {
	if err := r.s.fail("SaveQuantity"); err != nil {
		return err
	}
	stored := r.s.stock[level.Item]
	stored.Quantity = level.Quantity
	r.s.stock[level.Item] = stored
	return nil
}

type memMovementRepo struct{ s *memStore }

func (r memMovementRepo) Create(_ context.Context, movement *inventory.StockMovement) error {
	if err := r.s.fail("MovementCreate"); err != nil {
		return err
	}
	r.s.movements = append(r.s.movements, *movement)
	return nil
}

func (r memMovementRepo) ListByItem(_ context.Context, item catalog.ItemRef, _ shared.Filter) ([]inventory.StockMovement, int64, error) {
	var out []inventory.StockMovement
	for _, m := range r.s.movements {
		if m.Item == item {
			out = append(out, m)
		}
	}
	return out, int64(len(out)), nil
}

type memSaleRepo struct{ s *memStore }

func (r memSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*trade.Sale, error) {
	sale, ok := r.s.sales[id]
	if !ok {
		return nil, shared.NewNotFoundError("sale", id)
	}
	c := cloneSale(&sale)
	return &c, nil
}

func (r memSaleRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.Sale, error) {
	return r.FindByID(ctx, id)
}

func (r memSaleRepo) Create(_ context.Context, sale *trade.Sale) error {
	if err := r.s.fail("SaleCreate"); err != nil {
		return err
	}
	r.s.sales[sale.ID] = cloneSale(sale)
	return nil
}

func (r memSaleRepo) Update(_ context.Context, sale *trade.Sale) error {
	if err := r.s.fail("SaleUpdate"); err != nil {
		return err
	}
	if _, ok := r.s.sales[sale.ID]; !ok {
		return shared.ErrNotFound
	}
	r.s.sales[sale.ID] = cloneSale(sale)
	return nil
}

func (r memSaleRepo) CreatePayments(_ context.Context, payments []trade.SalePayment) error {
	if err := r.s.fail("CreatePayments"); err != nil {
		return err
	}
	r.s.payments = append(r.s.payments, payments...)
	return nil
}

func (r memSaleRepo) NextReference(_ context.Context, _ uuid.UUID, prefix string, day time.Time) (string, error) {
	r.s.refSeq++
	return fmt.Sprintf("%s-%s-%05d", prefix, day.Format("20060102"), r.s.refSeq), nil
}

type memReturnRepo struct{ s *memStore }

func (r memReturnRepo) Create(_ context.Context, ret *trade.SaleReturn) error {
	if err := r.s.fail("ReturnCreate"); err != nil {
		return err
	}
	c := *ret
	c.Items = append([]trade.SaleReturnItem(nil), ret.Items...)
	r.s.returns = append(r.s.returns, c)
	return nil
}

func (r memReturnRepo) FindBySale(_ context.Context, saleID uuid.UUID) ([]trade.SaleReturn, error) {
	var out []trade.SaleReturn
	for _, ret := range r.s.returns {
		if ret.SaleID == saleID {
			out = append(out, ret)
		}
	}
	return out, nil
}

func (r memReturnRepo) ReturnedQuantities(_ context.Context, saleID uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64)
	for _, ret := range r.s.returns {
		if ret.SaleID != saleID || ret.Status == trade.ReturnStatusRejected {
			continue
		}
		for _, item := range ret.Items {
			out[item.SaleItemID] += item.Quantity
		}
	}
	return out, nil
}

type memProductRepo struct{ s *memStore }

func (r memProductRepo) FindByID(context.Context, uuid.UUID) (*catalog.Product, error) {
	return nil, shared.ErrNotFound
}

func (r memProductRepo) FindVariantByID(context.Context, uuid.UUID) (*catalog.ProductVariant, error) {
	return nil, shared.ErrNotFound
}

func (r memProductRepo) FindSellable(_ context.Context, ref catalog.ItemRef) (*catalog.Sellable, error) {
	sellable, ok := r.s.sellables[ref]
	if !ok {
		return nil, shared.NewNotFoundError("item", ref)
	}
	return &sellable, nil
}

func (r memProductRepo) Save(context.Context, *catalog.Product) error               { return nil }
func (r memProductRepo) SaveVariant(context.Context, *catalog.ProductVariant) error { return nil }
func (r memProductRepo) SaveTaxRate(context.Context, *catalog.TaxRate) error        { return nil }

type memCouponRepo struct{ s *memStore }

func (r memCouponRepo) FindByCodeForUpdate(_ context.Context, _ uuid.UUID, code string) (*pricing.Coupon, error) {
	coupon, ok := r.s.coupons[code]
	if !ok {
		return nil, shared.ErrNotFound
	}
	c := cloneCoupon(&coupon)
	return &c, nil
}

func (r memCouponRepo) CountCustomerUses(_ context.Context, couponID, customerID uuid.UUID) (int, error) {
	n := 0
	for _, sale := range r.s.sales {
		if sale.CouponID != nil && *sale.CouponID == couponID &&
			sale.CustomerID != nil && *sale.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

func (r memCouponRepo) SaveUsage(_ context.Context, coupon *pricing.Coupon) error {
	r.s.coupons[coupon.Code] = cloneCoupon(coupon)
	return nil
}

func (r memCouponRepo) Save(_ context.Context, coupon *pricing.Coupon) error {
	r.s.coupons[coupon.Code] = cloneCoupon(coupon)
	return nil
}

func (r memCouponRepo) SaveDiscount(context.Context, *pricing.Discount) error { return nil }

type memCustomerRepo struct{ s *memStore }

func (r memCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*partner.Customer, error) {
	customer, ok := r.s.customers[id]
	if !ok {
		return nil, shared.NewNotFoundError("customer", id)
	}
	customer.ClearDomainEvents()
	return &customer, nil
}

func (r memCustomerRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	return r.FindByID(ctx, id)
}

func (r memCustomerRepo) Save(_ context.Context, customer *partner.Customer) error {
	r.s.customers[customer.ID] = *customer
	return nil
}

func (r memCustomerRepo) SaveLoyaltyPoints(_ context.Context, customer *partner.Customer) error {
	stored, ok := r.s.customers[customer.ID]
	if !ok {
		return shared.ErrNotFound
	}
	stored.LoyaltyPoints = customer.LoyaltyPoints
	r.s.customers[customer.ID] = stored
	return nil
}

// recordingPublisher keeps every published event
type recordingPublisher struct {
	events []shared.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return p.err
}

func (p *recordingPublisher) types() []string {
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

func (p *recordingPublisher) reset() {
	p.events = nil
}

type fakeLocker struct {
	keys     []string
	released int
	err      error
}

func (l *fakeLocker) Lock(_ context.Context, key string) (func(context.Context) error, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.keys = append(l.keys, key)
	return func(context.Context) error {
		l.released++
		return nil
	}, nil
}

var errInjected = errors.New("injected failure")

var (
	_ TransactionScope = (*memStore)(nil)
	_ Locker           = (*fakeLocker)(nil)
)
