package billing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists bills and their items.
type Repository interface {
	NumberProbe
	InsertBill(ctx context.Context, b Bill) (int64, error)
	// InsertItem inserts the line unless an identical
	// (product_id, product_name, rate, quantity) row already exists in the
	// bill. Identical cart lines therefore collapse, which keeps retried
	// transactions from duplicating items.
	InsertItem(ctx context.Context, item BillItem) (bool, error)
	GetBill(ctx context.Context, tenantID, billID int64) (*Bill, error)
	GetBillForUpdate(ctx context.Context, tenantID, billID int64) (*Bill, error)
	GetItems(ctx context.Context, tenantID, billID int64) ([]BillItem, error)
	ListBills(ctx context.Context, tenantID int64, billNumber string) ([]Bill, error)
	UpdatePayment(ctx context.Context, tenantID, billID int64, advancePaid, balance float64, status BillStatus) error
	DeleteItems(ctx context.Context, tenantID, billID int64) error
	DeleteBill(ctx context.Context, tenantID, billID int64) (bool, error)
	// RecoverSequences advances primary-key sequences past MAX(id) to heal
	// tables touched by manual imports. Idempotent.
	RecoverSequences(ctx context.Context) error
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db dbtx
}

// NewRepository builds a Repository over a connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

// NewTxRepository builds a Repository bound to an open transaction.
func NewTxRepository(tx pgx.Tx) Repository {
	return &repository{db: tx}
}

func (r *repository) BillNumbersForDay(ctx context.Context, tenantID int64, prefix string) ([]string, error) {
	const query = `SELECT bill_number FROM bills WHERE tenant_id = $1 AND bill_number LIKE $2`
	rows, err := r.db.Query(ctx, query, tenantID, prefix+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var numbers []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}

func (r *repository) BillNumberExists(ctx context.Context, tenantID int64, number string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM bills WHERE tenant_id = $1 AND bill_number = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, tenantID, number).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *repository) InsertBill(ctx context.Context, b Bill) (int64, error) {
	const query = `
		INSERT INTO bills (
			tenant_id, bill_number, uuid, customer_id, customer_name, customer_phone,
			customer_trn, bill_date, delivery_date, trial_date, payment_method,
			subtotal, vat_amount, total_amount, advance_paid, balance_amount,
			status, master_id, notes
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19
		)
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query,
		b.TenantID, b.BillNumber, b.UUID, b.CustomerID, b.CustomerName, b.CustomerPhone,
		b.CustomerTRN, b.BillDate, b.DeliveryDate, b.TrialDate, b.PaymentMethod,
		b.Subtotal, b.VATAmount, b.TotalAmount, b.AdvancePaid, b.BalanceAmount,
		b.Status, b.MasterID, b.Notes,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) InsertItem(ctx context.Context, item BillItem) (bool, error) {
	const query = `
		INSERT INTO bill_items (
			tenant_id, bill_id, product_id, product_name, quantity, rate,
			discount_percent, vat_amount, total_amount, notes
		)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		WHERE NOT EXISTS (
			SELECT 1 FROM bill_items
			WHERE bill_id = $2
			  AND product_id IS NOT DISTINCT FROM $3
			  AND product_name = $4
			  AND rate = $6
			  AND quantity = $5
		)`

	tag, err := r.db.Exec(ctx, query,
		item.TenantID, item.BillID, item.ProductID, item.ProductName, item.Quantity, item.Rate,
		item.DiscountPercent, item.VATAmount, item.TotalAmount, item.Notes,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

const billColumns = `
	id, tenant_id, bill_number, uuid, customer_id, customer_name, customer_phone,
	customer_trn, bill_date, delivery_date, trial_date, payment_method,
	subtotal, vat_amount, total_amount, advance_paid, balance_amount,
	status, master_id, notes, created_at, updated_at`

func (r *repository) GetBill(ctx context.Context, tenantID, billID int64) (*Bill, error) {
	query := `SELECT` + billColumns + ` FROM bills WHERE tenant_id = $1 AND id = $2`
	return r.scanBill(r.db.QueryRow(ctx, query, tenantID, billID))
}

func (r *repository) GetBillForUpdate(ctx context.Context, tenantID, billID int64) (*Bill, error) {
	query := `SELECT` + billColumns + ` FROM bills WHERE tenant_id = $1 AND id = $2 FOR UPDATE`
	return r.scanBill(r.db.QueryRow(ctx, query, tenantID, billID))
}

func (r *repository) scanBill(row pgx.Row) (*Bill, error) {
	var b Bill
	err := row.Scan(
		&b.ID, &b.TenantID, &b.BillNumber, &b.UUID, &b.CustomerID, &b.CustomerName, &b.CustomerPhone,
		&b.CustomerTRN, &b.BillDate, &b.DeliveryDate, &b.TrialDate, &b.PaymentMethod,
		&b.Subtotal, &b.VATAmount, &b.TotalAmount, &b.AdvancePaid, &b.BalanceAmount,
		&b.Status, &b.MasterID, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *repository) GetItems(ctx context.Context, tenantID, billID int64) ([]BillItem, error) {
	const query = `
		SELECT id, bill_id, tenant_id, product_id, product_name, quantity, rate,
		       discount_percent, vat_amount, total_amount, notes
		FROM bill_items
		WHERE tenant_id = $1 AND bill_id = $2
		ORDER BY id ASC`

	rows, err := r.db.Query(ctx, query, tenantID, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []BillItem
	for rows.Next() {
		var it BillItem
		if err := rows.Scan(
			&it.ID, &it.BillID, &it.TenantID, &it.ProductID, &it.ProductName,
			&it.Quantity, &it.Rate, &it.DiscountPercent, &it.VATAmount, &it.TotalAmount, &it.Notes,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repository) ListBills(ctx context.Context, tenantID int64, billNumber string) ([]Bill, error) {
	query := `SELECT` + billColumns + ` FROM bills WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	if billNumber != "" {
		query += ` AND bill_number = $2`
		args = append(args, billNumber)
	}
	query += ` ORDER BY bill_date DESC, id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bills []Bill
	for rows.Next() {
		var b Bill
		if err := rows.Scan(
			&b.ID, &b.TenantID, &b.BillNumber, &b.UUID, &b.CustomerID, &b.CustomerName, &b.CustomerPhone,
			&b.CustomerTRN, &b.BillDate, &b.DeliveryDate, &b.TrialDate, &b.PaymentMethod,
			&b.Subtotal, &b.VATAmount, &b.TotalAmount, &b.AdvancePaid, &b.BalanceAmount,
			&b.Status, &b.MasterID, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	return bills, rows.Err()
}

func (r *repository) UpdatePayment(ctx context.Context, tenantID, billID int64, advancePaid, balance float64, status BillStatus) error {
	const query = `
		UPDATE bills SET
			advance_paid = $3,
			balance_amount = $4,
			status = $5,
			updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2`

	tag, err := r.db.Exec(ctx, query, tenantID, billID, advancePaid, balance, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repository) DeleteItems(ctx context.Context, tenantID, billID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM bill_items WHERE tenant_id = $1 AND bill_id = $2`, tenantID, billID)
	return err
}

func (r *repository) DeleteBill(ctx context.Context, tenantID, billID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM bills WHERE tenant_id = $1 AND id = $2`, tenantID, billID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repository) RecoverSequences(ctx context.Context) error {
	for _, table := range []string{"bills", "bill_items", "customers", "loyalty_transactions"} {
		stmt := `SELECT setval(pg_get_serial_sequence('` + table + `', 'id'),
			GREATEST((SELECT COALESCE(MAX(id), 0) + 1 FROM ` + table + `), 1), false)`
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
