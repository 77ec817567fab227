package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	bshared "github.com/hisab-pos/hisab/internal/billing/shared"
	"github.com/hisab-pos/hisab/internal/customers"
	"github.com/hisab-pos/hisab/internal/loyalty"
	"github.com/hisab-pos/hisab/internal/observability"
	"github.com/hisab-pos/hisab/internal/shared"
)

const (
	// createAttempts bounds the transaction retry loop around unique
	// violations and serialization failures.
	createAttempts = 3

	dateLayout = "2006-01-02"

	previewTTL = 2 * time.Second
)

// Service is the sole write path for bills: the invoice transactor, the
// payment updater and the read/delete surface around them.
type Service struct {
	runner  TxRunner
	repo    Repository
	cache   *redis.Client
	metrics *observability.Metrics
	logger  *slog.Logger
	preview singleflight.Group
	now     func() time.Time
}

// NewService builds a Service instance. cache and metrics may be nil.
func NewService(runner TxRunner, repo Repository, cache *redis.Client, metrics *observability.Metrics, logger *slog.Logger) *Service {
	return &Service{
		runner:  runner,
		repo:    repo,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// CreateBill validates the request, then runs the serializable create
// transaction, retrying on unique violations and serialization failures.
func (s *Service) CreateBill(ctx context.Context, tenantID int64, req CreateBillRequest) (*CreateBillResult, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: missing items", shared.ErrValidation)
	}
	if strings.TrimSpace(req.Bill.CustomerPhone) == "" {
		return nil, fmt.Errorf("%w: missing phone", shared.ErrValidation)
	}
	if req.Bill.AdvancePaid < 0 {
		return nil, fmt.Errorf("%w: advance must not be negative", shared.ErrValidation)
	}
	// Phone and per-line arithmetic are preconditions: reject before any
	// transaction is opened.
	phone, err := customers.NormalizePhone(req.Bill.CustomerPhone, req.Bill.CountryCode)
	if err != nil {
		return nil, err
	}
	for _, item := range req.Items {
		if _, _, _, _, _, err := bshared.LineTotals(item.Rate, item.Quantity, item.DiscountPercent, 0, false); err != nil {
			return nil, err
		}
	}

	billDate, err := parseDate(req.Bill.BillDate, s.now())
	if err != nil {
		return nil, err
	}
	deliveryDate, err := parseOptionalDate(req.Bill.DeliveryDate)
	if err != nil {
		return nil, err
	}
	trialDate, err := parseOptionalDate(req.Bill.TrialDate)
	if err != nil {
		return nil, err
	}

	var result *CreateBillResult
	for attempt := 1; attempt <= createAttempts; attempt++ {
		res, err := s.tryCreate(ctx, tenantID, req, phone, billDate, deliveryDate, trialDate, attempt)
		if err == nil {
			result = res
			break
		}
		if !retryableConflict(err) {
			return nil, s.mapError(err)
		}
		s.metrics.BillCreateRetried()
		s.logger.Warn("bill create conflict, retrying",
			slog.Int64("tenant_id", tenantID),
			slog.Int("attempt", attempt),
			slog.Any("error", err),
		)
		if attempt == createAttempts {
			return nil, fmt.Errorf("%w: bill number contention persisted", shared.ErrConflict)
		}
	}

	s.metrics.BillCreated()
	return result, nil
}

func (s *Service) tryCreate(ctx context.Context, tenantID int64, req CreateBillRequest, phone string, billDate time.Time, deliveryDate, trialDate *time.Time, attempt int) (*CreateBillResult, error) {
	var result CreateBillResult

	err := s.runner.RunSerializable(ctx, func(ctx context.Context, st Stores) error {
		cfg, err := st.Settings.Get(ctx, tenantID)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}

		customerID, created, err := customers.Resolve(ctx, st.Customers, customers.ResolveInput{
			TenantID:        tenantID,
			Name:            req.Bill.CustomerName,
			Phone:           req.Bill.CustomerPhone,
			CountryCode:     req.Bill.CountryCode,
			CustomerType:    customers.CustomerType(req.Bill.CustomerType),
			BusinessName:    req.Bill.BusinessName,
			BusinessAddress: req.Bill.BusinessAddress,
			TRN:             req.Bill.CustomerTRN,
			City:            req.Bill.CustomerCity,
			Area:            req.Bill.CustomerArea,
		})
		if err != nil {
			return err
		}
		if created {
			if _, err := loyalty.EnsureEnrolled(ctx, st.Loyalty, tenantID, customerID, billDate); err != nil {
				return fmt.Errorf("enroll loyalty: %w", err)
			}
		}

		items := make([]BillItem, 0, len(req.Items))
		for _, line := range req.Items {
			_, _, _, vat, lineTotal, err := bshared.LineTotals(
				line.Rate, line.Quantity, line.DiscountPercent,
				cfg.VATPercent, cfg.IncludeVATInPrice,
			)
			if err != nil {
				return err
			}
			items = append(items, BillItem{
				TenantID:        tenantID,
				ProductID:       line.ProductID,
				ProductName:     line.ProductName,
				Quantity:        line.Quantity,
				Rate:            line.Rate,
				DiscountPercent: line.DiscountPercent,
				VATAmount:       vat,
				TotalAmount:     lineTotal,
				Notes:           optionalString(line.Notes),
			})
		}

		advance := bshared.Round2(req.Bill.AdvancePaid)
		totals := bshared.DecomposeBill(req.Bill.Subtotal, advance, cfg.VATPercent, cfg.IncludeVATInPrice)
		if totals.BalanceAmount < -paidTolerance {
			return fmt.Errorf("%w: advance exceeds bill total", shared.ErrOverpayment)
		}
		status := DeriveStatus(totals.BalanceAmount, advance)

		number := strings.TrimSpace(req.Bill.BillNumber)
		if number == "" || attempt > 1 {
			// Numbers are keyed to the allocation day, not the bill date,
			// so a backdated bill still takes the next number for today.
			allocated, fellBack, err := AllocateBillNumber(ctx, st.Bills, tenantID, s.now())
			if err != nil {
				return err
			}
			if fellBack {
				s.metrics.AllocatorFellBack()
			}
			number = allocated
		}

		masterID := req.Bill.MasterID
		if masterID == nil {
			master, err := st.Employees.DefaultMaster(ctx, tenantID)
			if err != nil {
				return fmt.Errorf("resolve default master: %w", err)
			}
			if master != nil {
				masterID = &master.ID
			}
		}

		paymentMethod := req.Bill.PaymentMethod
		if paymentMethod == "" {
			paymentMethod = "Cash"
		}

		customerName := strings.TrimSpace(req.Bill.CustomerName)
		if customerName == "" {
			customerName = "Walk-in Customer"
		}

		bill := Bill{
			TenantID:      tenantID,
			BillNumber:    number,
			UUID:          uuid.NewString(),
			CustomerID:    customerID,
			CustomerName:  customerName,
			CustomerPhone: phone,
			CustomerTRN:   optionalString(req.Bill.CustomerTRN),
			BillDate:      billDate,
			DeliveryDate:  deliveryDate,
			TrialDate:     trialDate,
			PaymentMethod: paymentMethod,
			Subtotal:      totals.Subtotal,
			VATAmount:     totals.VATAmount,
			TotalAmount:   totals.TotalAmount,
			AdvancePaid:   advance,
			BalanceAmount: totals.BalanceAmount,
			Status:        status,
			MasterID:      masterID,
			Notes:         optionalString(req.Bill.Notes),
		}

		billID, err := st.Bills.InsertBill(ctx, bill)
		if err != nil {
			return fmt.Errorf("insert bill: %w", err)
		}
		for _, item := range items {
			item.BillID = billID
			if _, err := st.Bills.InsertItem(ctx, item); err != nil {
				return fmt.Errorf("insert bill item: %w", err)
			}
		}

		points, err := loyalty.Accrue(ctx, st.Loyalty, loyalty.AccrualInput{
			TenantID:    tenantID,
			CustomerID:  customerID,
			BillID:      billID,
			BillNumber:  number,
			TotalAmount: totals.TotalAmount,
			Date:        billDate,
		})
		if err != nil {
			return err
		}

		result = CreateBillResult{
			Success:             true,
			BillID:              billID,
			BillNumber:          number,
			LoyaltyPointsEarned: points,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetBill loads a bill with its items, tenant-scoped.
func (s *Service) GetBill(ctx context.Context, tenantID, billID int64) (*Bill, error) {
	bill, err := s.repo.GetBill(ctx, tenantID, billID)
	if err != nil {
		return nil, s.mapError(err)
	}
	if bill == nil {
		return nil, fmt.Errorf("%w: bill %d", shared.ErrNotFound, billID)
	}
	items, err := s.repo.GetItems(ctx, tenantID, billID)
	if err != nil {
		return nil, s.mapError(err)
	}
	bill.Items = items
	return bill, nil
}

// ListBills returns tenant bills, optionally filtered by exact bill number,
// newest first.
func (s *Service) ListBills(ctx context.Context, tenantID int64, billNumber string) ([]Bill, error) {
	bills, err := s.repo.ListBills(ctx, tenantID, billNumber)
	if err != nil {
		return nil, s.mapError(err)
	}
	return bills, nil
}

// DeleteBill removes the bill and its items in one transaction. Loyalty
// transactions referencing the bill stay for audit.
func (s *Service) DeleteBill(ctx context.Context, tenantID, billID int64) error {
	err := s.runner.Run(ctx, func(ctx context.Context, st Stores) error {
		if err := st.Bills.DeleteItems(ctx, tenantID, billID); err != nil {
			return fmt.Errorf("delete bill items: %w", err)
		}
		deleted, err := st.Bills.DeleteBill(ctx, tenantID, billID)
		if err != nil {
			return fmt.Errorf("delete bill: %w", err)
		}
		if !deleted {
			return fmt.Errorf("%w: bill %d", shared.ErrNotFound, billID)
		}
		return nil
	})
	if err != nil {
		return s.mapError(err)
	}
	return nil
}

// UpdatePayment applies an additional payment to the bill and recomputes
// its status. Linearized per bill via the row lock taken by
// GetBillForUpdate.
func (s *Service) UpdatePayment(ctx context.Context, tenantID, billID int64, amountPaid float64) (*Bill, error) {
	if amountPaid <= 0 {
		return nil, fmt.Errorf("%w: invalid amount", shared.ErrValidation)
	}

	var updated *Bill
	err := s.runner.Run(ctx, func(ctx context.Context, st Stores) error {
		bill, err := st.Bills.GetBillForUpdate(ctx, tenantID, billID)
		if err != nil {
			return err
		}
		if bill == nil {
			return fmt.Errorf("%w: bill %d", shared.ErrNotFound, billID)
		}

		newAdvance := bshared.Round2(bill.AdvancePaid + amountPaid)
		newBalance := bshared.Round2(bill.TotalAmount - newAdvance)
		if newBalance < -paidTolerance {
			return fmt.Errorf("%w: payment exceeds outstanding balance", shared.ErrOverpayment)
		}

		status := StatusPartial
		if newBalance < paidTolerance && newBalance > -paidTolerance {
			status = StatusPaid
		}

		if err := st.Bills.UpdatePayment(ctx, tenantID, billID, newAdvance, newBalance, status); err != nil {
			return fmt.Errorf("update payment: %w", err)
		}

		bill.AdvancePaid = newAdvance
		bill.BalanceAmount = newBalance
		bill.Status = status
		updated = bill
		return nil
	})
	if err != nil {
		return nil, s.mapError(err)
	}
	return updated, nil
}

// NextBillNumber previews the number the allocator would assign today. The
// preview is not reserved; concurrent creates may still take it. Polling
// from the UI is collapsed through singleflight and a short redis cache.
func (s *Service) NextBillNumber(ctx context.Context, tenantID int64) (string, error) {
	today := s.now()
	key := fmt.Sprintf("hisab:nextnum:%d:%s", tenantID, today.Format("20060102"))

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Result(); err == nil && cached != "" {
			return cached, nil
		}
	}

	v, err, _ := s.preview.Do(key, func() (interface{}, error) {
		number, _, err := AllocateBillNumber(ctx, s.repo, tenantID, today)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, key, number, previewTTL).Err(); err != nil {
				s.logger.Warn("cache next bill number", slog.Any("error", err))
			}
		}
		return number, nil
	})
	if err != nil {
		return "", s.mapError(err)
	}
	return v.(string), nil
}

// RecoverSequences heals primary-key sequences. Called at startup and by
// the worker's periodic task.
func (s *Service) RecoverSequences(ctx context.Context) error {
	return s.repo.RecoverSequences(ctx)
}

// retryableConflict reports whether the error is a unique violation or a
// serialization failure, the two classes worth retrying from allocation.
func retryableConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" || pgErr.Code == "40001"
	}
	return false
}

func (s *Service) mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, shared.ErrValidation),
		errors.Is(err, shared.ErrNotFound),
		errors.Is(err, shared.ErrOverpayment),
		errors.Is(err, shared.ErrConflict):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", shared.ErrTimeout, err)
	default:
		s.logger.Error("billing persistence failure", slog.Any("error", err))
		return fmt.Errorf("%w: %v", shared.ErrDatabase, err)
	}
}

func parseDate(value string, fallback time.Time) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		y, m, d := fallback.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", shared.ErrValidation, value)
	}
	return t, nil
}

func parseOptionalDate(value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", shared.ErrValidation, value)
	}
	return &t, nil
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
