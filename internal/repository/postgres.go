package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"neela-data/internal/domain"
)

// PostgresDataSource PostgreSQL 数据源
// 每个 List 调用要么返回完整集合，要么报错（不返回部分结果）
type PostgresDataSource struct {
	db *sql.DB
}

// NewPostgresDataSource 创建 PostgreSQL 数据源
func NewPostgresDataSource(db *sql.DB) *PostgresDataSource {
	return &PostgresDataSource{db: db}
}

func (r *PostgresDataSource) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	query := `
		SELECT
			id,
			name,
			COALESCE(email, '') as email,
			COALESCE(phone, '') as phone,
			status,
			COALESCE(property_unit, '') as property_unit,
			lease_start,
			lease_end,
			rent_amount,
			deposit,
			balance,
			credit_score,
			COALESCE(background_check_status, 'Pending') as background_check_status,
			application_data,
			COALESCE(lease_status, '') as lease_status,
			COALESCE(signed_lease_url, '') as signed_lease_url
		FROM tenants
		ORDER BY created_at DESC, id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tenants: %w", err)
	}
	defer rows.Close()

	var out []domain.Tenant
	for rows.Next() {
		var (
			t                    domain.Tenant
			status, background   string
			leaseStatus          string
			leaseStart, leaseEnd sql.NullTime
			creditScore          sql.NullInt64
			appRaw               []byte
		)
		if err := rows.Scan(
			&t.ID,
			&t.Name,
			&t.Email,
			&t.Phone,
			&status,
			&t.PropertyUnit,
			&leaseStart,
			&leaseEnd,
			&t.RentAmount,
			&t.Deposit,
			&t.Balance,
			&creditScore,
			&background,
			&appRaw,
			&leaseStatus,
			&t.SignedLeaseURL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		s, ok := domain.NormalizeTenantStatus(status)
		if !ok {
			return nil, fmt.Errorf("tenant %s: unknown status %q", t.ID, status)
		}
		t.Status = s
		t.BackgroundCheckStatus = domain.BackgroundCheckStatus(background)
		t.LeaseStatus = domain.LeaseStatus(leaseStatus)
		t.LeaseStart = nullDate(leaseStart)
		t.LeaseEnd = nullDate(leaseEnd)
		if creditScore.Valid {
			score := int(creditScore.Int64)
			t.CreditScore = &score
		}
		if len(appRaw) > 0 && string(appRaw) != "null" {
			var ad domain.ApplicationData
			if err := json.Unmarshal(appRaw, &ad); err != nil {
				return nil, fmt.Errorf("tenant %s: failed to decode application_data: %w", t.ID, err)
			}
			t.ApplicationData = &ad
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tenants: %w", err)
	}
	return out, nil
}

func (r *PostgresDataSource) ListPayments(ctx context.Context) ([]domain.Payment, error) {
	query := `
		SELECT id, tenant_id, amount, date, status, type,
			COALESCE(method, '') as method,
			COALESCE(reference, '') as reference
		FROM payments
		ORDER BY date DESC, id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var out []domain.Payment
	for rows.Next() {
		var (
			p    domain.Payment
			date time.Time
		)
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Amount, &date, &p.Status, &p.Type, &p.Method, &p.Reference); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		p.Date = domain.NewDate(date)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return out, nil
}

func (r *PostgresDataSource) ListMaintenanceRequests(ctx context.Context) ([]domain.MaintenanceRequest, error) {
	query := `
		SELECT
			id,
			tenant_id,
			category,
			description,
			status,
			priority,
			created_at,
			COALESCE(assigned_to, '') as assigned_to,
			COALESCE(images, '[]'::jsonb) as images,
			COALESCE(updates, '[]'::jsonb) as updates,
			COALESCE(completion_attachments, '[]'::jsonb) as completion_attachments
		FROM maintenance_requests
		ORDER BY created_at DESC, id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query maintenance requests: %w", err)
	}
	defer rows.Close()

	var out []domain.MaintenanceRequest
	for rows.Next() {
		var (
			m                                domain.MaintenanceRequest
			createdAt                        time.Time
			imagesRaw, updatesRaw, attachRaw []byte
		)
		if err := rows.Scan(
			&m.ID,
			&m.TenantID,
			&m.Category,
			&m.Description,
			&m.Status,
			&m.Priority,
			&createdAt,
			&m.AssignedTo,
			&imagesRaw,
			&updatesRaw,
			&attachRaw,
		); err != nil {
			return nil, fmt.Errorf("failed to scan maintenance request: %w", err)
		}
		m.CreatedAt = domain.NewDate(createdAt)
		if err := decodeJSONB(imagesRaw, &m.Images); err != nil {
			return nil, fmt.Errorf("ticket %s: failed to decode images: %w", m.ID, err)
		}
		if err := decodeJSONB(updatesRaw, &m.Updates); err != nil {
			return nil, fmt.Errorf("ticket %s: failed to decode updates: %w", m.ID, err)
		}
		if err := decodeJSONB(attachRaw, &m.CompletionAttachments); err != nil {
			return nil, fmt.Errorf("ticket %s: failed to decode attachments: %w", m.ID, err)
		}
		if m.Updates == nil {
			m.Updates = []domain.TicketUpdate{}
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate maintenance requests: %w", err)
	}
	return out, nil
}

func (r *PostgresDataSource) ListListings(ctx context.Context) ([]domain.Listing, error) {
	query := `
		SELECT id, title, address, price, beds, baths, sqft,
			COALESCE(image, '') as image,
			COALESCE(description, '') as description,
			COALESCE(amenities, '[]'::jsonb) as amenities
		FROM listings
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	var out []domain.Listing
	for rows.Next() {
		var (
			l            domain.Listing
			amenitiesRaw []byte
		)
		if err := rows.Scan(&l.ID, &l.Title, &l.Address, &l.Price, &l.Beds, &l.Baths, &l.Sqft, &l.Image, &l.Description, &amenitiesRaw); err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		if err := decodeJSONB(amenitiesRaw, &l.Amenities); err != nil {
			return nil, fmt.Errorf("listing %s: failed to decode amenities: %w", l.ID, err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate listings: %w", err)
	}
	return out, nil
}

func (r *PostgresDataSource) ListInvoices(ctx context.Context) ([]domain.Invoice, error) {
	query := `
		SELECT id, tenant_id, date, due_date, amount,
			COALESCE(period, '') as period,
			status,
			COALESCE(items, '[]'::jsonb) as items
		FROM invoices
		ORDER BY date DESC, id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	var out []domain.Invoice
	for rows.Next() {
		var (
			inv           domain.Invoice
			date, dueDate time.Time
			itemsRaw      []byte
		)
		if err := rows.Scan(&inv.ID, &inv.TenantID, &date, &dueDate, &inv.Amount, &inv.Period, &inv.Status, &itemsRaw); err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		inv.Date = domain.NewDate(date)
		inv.DueDate = domain.NewDate(dueDate)
		if err := decodeJSONB(itemsRaw, &inv.Items); err != nil {
			return nil, fmt.Errorf("invoice %s: failed to decode items: %w", inv.ID, err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invoices: %w", err)
	}
	return out, nil
}

func (r *PostgresDataSource) ListNotifications(ctx context.Context) ([]domain.Notification, error) {
	query := `
		SELECT id, tenant_id, type, title, COALESCE(message, '') as message, date, read
		FROM notifications
		ORDER BY date DESC, id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		var (
			n    domain.Notification
			date time.Time
		)
		if err := rows.Scan(&n.ID, &n.TenantID, &n.Type, &n.Title, &n.Message, &date, &n.Read); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Date = domain.NewDate(date)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}
	return out, nil
}

func (r *PostgresDataSource) ListLegalDocuments(ctx context.Context) ([]domain.LegalDocument, error) {
	query := `
		SELECT id, tenant_id, type, generated_content, created_at, status,
		       delivery_method, COALESCE(tracking_number, '') as tracking_number
		FROM legal_documents
		ORDER BY created_at DESC, id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query legal documents: %w", err)
	}
	defer rows.Close()

	var out []domain.LegalDocument
	for rows.Next() {
		var (
			d       domain.LegalDocument
			created time.Time
		)
		if err := rows.Scan(&d.ID, &d.TenantID, &d.Type, &d.GeneratedContent, &created, &d.Status, &d.DeliveryMethod, &d.TrackingNumber); err != nil {
			return nil, fmt.Errorf("failed to scan legal document: %w", err)
		}
		d.CreatedAt = domain.NewDate(created)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate legal documents: %w", err)
	}
	return out, nil
}

func nullDate(t sql.NullTime) domain.Date {
	if !t.Valid {
		return domain.Date{}
	}
	return domain.NewDate(t.Time)
}

func decodeJSONB(raw []byte, out any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, out)
}
