package trade

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	appinv "github.com/pos/backend/internal/application/inventory"
	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/inventory"
	"github.com/pos/backend/internal/domain/partner"
	"github.com/pos/backend/internal/domain/pricing"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/valueobject"
	"github.com/pos/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// SaleService creates, completes and refunds sales.
//
// Every mutating operation runs in a single transaction obtained from the
// TransactionScope. Stock rows, the sale row and coupon rows are locked with
// SELECT ... FOR UPDATE inside that transaction. Domain events raised while
// the transaction runs are published only after it commits; a publish
// failure is logged and never fails the operation.
type SaleService struct {
	txScope        TransactionScope
	saleRepo       trade.SaleRepository
	returnRepo     trade.SaleReturnRepository
	ledger         *appinv.Ledger
	config         Config
	locker         Locker
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewSaleService creates a new SaleService
func NewSaleService(
	txScope TransactionScope,
	saleRepo trade.SaleRepository,
	returnRepo trade.SaleReturnRepository,
	ledger *appinv.Ledger,
	config Config,
	logger *zap.Logger,
) *SaleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.ReferencePrefix == "" {
		config.ReferencePrefix = DefaultConfig().ReferencePrefix
	}
	return &SaleService{
		txScope:    txScope,
		saleRepo:   saleRepo,
		returnRepo: returnRepo,
		ledger:     ledger,
		config:     config,
		logger:     logger,
		now:        time.Now,
	}
}

// SetEventPublisher sets the publisher used after commit
func (s *SaleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetLocker sets the cross-process lock taken around completion and refunds
func (s *SaleService) SetLocker(locker Locker) {
	s.locker = locker
}

// CreateSale prices the cart and persists a pending sale with its items
func (s *SaleService) CreateSale(ctx context.Context, req CreateSaleRequest) (*SaleResponse, error) {
	if len(req.Items) == 0 {
		return nil, shared.NewValidationError("sale must have at least one item")
	}
	if req.Discount.IsNegative() {
		return nil, shared.NewValidationError("sale discount cannot be negative")
	}

	now := s.now()
	var sale *trade.Sale
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if req.CustomerID != nil {
			if _, err := repos.CustomerRepo().FindByID(ctx, *req.CustomerID); err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return shared.NewValidationError("customer %s does not exist", *req.CustomerID)
				}
				return err
			}
		}

		reference, err := repos.SaleRepo().NextReference(ctx, req.StoreID, s.config.ReferencePrefix, now)
		if err != nil {
			return fmt.Errorf("generate sale reference: %w", err)
		}
		sale, err = trade.NewSale(req.StoreID, req.CashierID, req.CustomerID, reference)
		if err != nil {
			return err
		}
		sale.Notes = req.Notes

		for i, line := range req.Items {
			in, err := s.resolveLine(ctx, repos.ProductRepo(), req.StoreID, i, line)
			if err != nil {
				return err
			}
			if _, err := sale.AddItem(in); err != nil {
				return err
			}
		}

		discount := req.Discount
		var couponID *uuid.UUID
		if req.CouponCode != "" {
			amount, coupon, err := s.redeemCoupon(ctx, repos, sale, req.CouponCode, now)
			if err != nil {
				return err
			}
			discount = discount.Add(amount)
			couponID = &coupon.ID
		}
		if !discount.IsZero() || couponID != nil {
			if err := sale.ApplyDiscount(discount, couponID); err != nil {
				return err
			}
		}

		if err := sale.Submit(); err != nil {
			return err
		}
		return repos.SaleRepo().Create(ctx, sale)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sale created",
		zap.String("sale_id", sale.ID.String()),
		zap.String("reference", sale.Reference),
		zap.Int("items", len(sale.Items)),
		zap.String("total", sale.Total.String()),
	)
	s.publish(ctx, sale.PullDomainEvents())

	resp := ToSaleResponse(sale)
	return &resp, nil
}

// CompleteSale records the payments, deducts stock for every line, credits
// loyalty points and marks the sale completed, all in one transaction.
// A sale that is not pending fails with an InvalidState error, so a second
// completion never deducts stock again.
func (s *SaleService) CompleteSale(ctx context.Context, saleID uuid.UUID, req CompleteSaleRequest, loyalty LoyaltyConfig) (*SaleResponse, error) {
	release, err := s.lock(ctx, saleID)
	if err != nil {
		return nil, err
	}
	defer release()

	payments := make([]trade.PaymentInput, len(req.Payments))
	for i, p := range req.Payments {
		payments[i] = trade.PaymentInput{
			PaymentMethodID: p.PaymentMethodID,
			Amount:          p.Amount,
			Reference:       p.Reference,
		}
	}

	var sale *trade.Sale
	var events []shared.DomainEvent
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		events = nil

		var err error
		sale, err = repos.SaleRepo().FindByIDForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if err := sale.AcceptPayments(payments, s.config.PaymentTolerance); err != nil {
			return err
		}
		if err := repos.SaleRepo().CreatePayments(ctx, sale.Payments); err != nil {
			return fmt.Errorf("save payments for sale %s: %w", sale.Reference, err)
		}

		reason := fmt.Sprintf("Sale #%s", sale.Reference)
		for _, idx := range lockOrder(sale.Items) {
			item := &sale.Items[idx]
			result, err := s.ledger.Deduct(ctx, repos, item.Item, item.Quantity, inventory.MovementInput{
				Reason:    reason,
				Reference: sale.Reference,
				UserID:    &sale.CashierID,
				Source:    inventory.NewSource(inventory.SourceTypeSale, sale.ID),
			})
			if err != nil {
				return err
			}
			events = append(events, result.Events...)
		}

		if loyalty.Enabled && sale.CustomerID != nil {
			loyaltyEvents, err := s.creditLoyalty(ctx, repos.CustomerRepo(), sale, loyalty)
			if err != nil {
				return err
			}
			events = append(events, loyaltyEvents...)
		}

		if err := sale.Complete(s.now()); err != nil {
			return err
		}
		return repos.SaleRepo().Update(ctx, sale)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sale completed",
		zap.String("sale_id", sale.ID.String()),
		zap.String("reference", sale.Reference),
		zap.String("total", sale.Total.String()),
		zap.String("paid", sale.PaidTotal().String()),
	)
	s.publish(ctx, append(events, sale.PullDomainEvents()...))

	resp := ToSaleResponse(sale)
	return &resp, nil
}

// RefundSale returns units of a completed sale. The request is checked line
// by line against what remains refundable and rejected as a whole if any line
// exceeds it. The return is created approved by the requester and tracked
// stock is restored.
func (s *SaleService) RefundSale(ctx context.Context, saleID uuid.UUID, req RefundSaleRequest) (*SaleReturnResponse, error) {
	release, err := s.lock(ctx, saleID)
	if err != nil {
		return nil, err
	}
	defer release()

	lines := make([]trade.RefundLine, len(req.Items))
	for i, item := range req.Items {
		lines[i] = trade.RefundLine{SaleItemID: item.SaleItemID, Quantity: item.Quantity, Reason: item.Reason}
	}

	now := s.now()
	var sale *trade.Sale
	var ret *trade.SaleReturn
	var events []shared.DomainEvent
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		events = nil

		var err error
		sale, err = repos.SaleRepo().FindByIDForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		returned, err := repos.ReturnRepo().ReturnedQuantities(ctx, sale.ID)
		if err != nil {
			return fmt.Errorf("load returned quantities for sale %s: %w", sale.Reference, err)
		}

		ret, err = sale.PrepareReturn(trade.RefundRequest{
			Reason:      req.Reason,
			RequestedBy: req.RequestedBy,
			Lines:       lines,
		}, returned)
		if err != nil {
			return err
		}
		if err := ret.Approve(req.RequestedBy, now); err != nil {
			return err
		}
		if err := repos.ReturnRepo().Create(ctx, ret); err != nil {
			return fmt.Errorf("save return for sale %s: %w", sale.Reference, err)
		}

		reason := fmt.Sprintf("Refund for Sale #%s", sale.Reference)
		for i := range ret.Items {
			line := &ret.Items[i]
			result, err := s.ledger.Restore(ctx, repos, line.Item, line.Quantity, inventory.MovementInput{
				Reason:    reason,
				Reference: sale.Reference,
				UserID:    &req.RequestedBy,
				Source:    inventory.NewSource(inventory.SourceTypeSaleReturn, ret.ID),
			})
			if err != nil {
				return err
			}
			if result != nil {
				events = append(events, result.Events...)
			}
			returned[line.SaleItemID] += line.Quantity
		}

		if err := sale.ApplyReturn(ret, returned, now); err != nil {
			return err
		}
		return repos.SaleRepo().Update(ctx, sale)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sale refunded",
		zap.String("sale_id", sale.ID.String()),
		zap.String("return_id", ret.ID.String()),
		zap.String("refund_total", ret.Total.String()),
		zap.String("status", string(sale.Status)),
	)
	s.publish(ctx, append(events, sale.PullDomainEvents()...))

	resp := ToSaleReturnResponse(ret)
	return &resp, nil
}

// GetSale returns a sale with its items, payments and returns
func (s *SaleService) GetSale(ctx context.Context, saleID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	returns, err := s.returnRepo.FindBySale(ctx, saleID)
	if err != nil {
		return nil, err
	}

	resp := ToSaleResponse(sale)
	for i := range returns {
		resp.Returns = append(resp.Returns, ToSaleReturnResponse(&returns[i]))
	}
	return &resp, nil
}

// resolveLine turns a cart line into a priced line input using the catalog
func (s *SaleService) resolveLine(ctx context.Context, products catalog.ProductRepository, storeID uuid.UUID, idx int, line CreateSaleItemRequest) (trade.LineInput, error) {
	ref, err := catalog.NewItemRef(catalog.ItemKind(line.ItemKind), line.ItemID)
	if err != nil {
		return trade.LineInput{}, err
	}
	sellable, err := products.FindSellable(ctx, ref)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return trade.LineInput{}, shared.NewValidationError("item %d: %s does not exist", idx+1, ref)
		}
		return trade.LineInput{}, err
	}
	if sellable.StoreID != storeID {
		return trade.LineInput{}, shared.NewValidationError("item %d: %s does not belong to this store", idx+1, ref)
	}
	if !sellable.Active {
		return trade.LineInput{}, shared.NewValidationError("item %d: %s is not for sale", idx+1, ref)
	}

	price := sellable.Price
	if line.UnitPrice != nil {
		price = *line.UnitPrice
	}
	return trade.LineInput{
		Item:      ref,
		ProductID: sellable.ProductID,
		Name:      sellable.Name,
		SKU:       sellable.SKU,
		Quantity:  line.Quantity,
		UnitPrice: price,
		UnitCost:  sellable.Cost,
		Discount:  line.Discount,
		TaxRate:   sellable.TaxRate,
	}, nil
}

// redeemCoupon validates the coupon for this sale and books one use of it
func (s *SaleService) redeemCoupon(ctx context.Context, repos TransactionalRepositories, sale *trade.Sale, code string, now time.Time) (valueobject.Money, *pricing.Coupon, error) {
	code = pricing.NormalizeCouponCode(code)
	coupon, err := repos.CouponRepo().FindByCodeForUpdate(ctx, sale.StoreID, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return valueobject.Zero, nil, &pricing.InvalidCouponError{Code: code, Reason: "coupon not found"}
		}
		return valueobject.Zero, nil, err
	}
	if err := pricing.ValidateCoupon(coupon, now); err != nil {
		return valueobject.Zero, nil, err
	}
	if sale.CustomerID != nil && coupon.MaxUsesPerCustomer != nil {
		uses, err := repos.CouponRepo().CountCustomerUses(ctx, coupon.ID, *sale.CustomerID)
		if err != nil {
			return valueobject.Zero, nil, err
		}
		if err := coupon.ValidateForCustomer(uses); err != nil {
			return valueobject.Zero, nil, err
		}
	}

	amount, err := coupon.DiscountFor(sale.Subtotal, now)
	if err != nil {
		return valueobject.Zero, nil, err
	}
	coupon.RecordUse(now)
	if err := repos.CouponRepo().SaveUsage(ctx, coupon); err != nil {
		return valueobject.Zero, nil, fmt.Errorf("record use of coupon %s: %w", code, err)
	}
	return amount, coupon, nil
}

func (s *SaleService) creditLoyalty(ctx context.Context, customers partner.CustomerRepository, sale *trade.Sale, loyalty LoyaltyConfig) ([]shared.DomainEvent, error) {
	points := partner.LoyaltyPointsFor(sale.Total, loyalty.Rate)
	if points == 0 {
		return nil, nil
	}
	customer, err := customers.FindByIDForUpdate(ctx, *sale.CustomerID)
	if err != nil {
		return nil, err
	}
	if err := customer.EarnPoints(points, sale.ID); err != nil {
		return nil, err
	}
	if err := customers.SaveLoyaltyPoints(ctx, customer); err != nil {
		return nil, fmt.Errorf("save loyalty points for customer %s: %w", customer.ID, err)
	}
	return customer.PullDomainEvents(), nil
}

func (s *SaleService) lock(ctx context.Context, saleID uuid.UUID) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	release, err := s.locker.Lock(ctx, "sale:"+saleID.String())
	if err != nil {
		return nil, err
	}
	return func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release sale lock",
				zap.String("sale_id", saleID.String()),
				zap.Error(err),
			)
		}
	}, nil
}

func (s *SaleService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish sale events",
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}

// lockOrder returns item indexes sorted by stock row, so concurrent
// completions lock rows in the same order.
func lockOrder(items []trade.SaleItem) []int {
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return items[order[a]].Item.String() < items[order[b]].Item.String()
	})
	return order
}
