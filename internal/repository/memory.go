package repository

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"neela-data/internal/domain"
)

// MemoryDataSource 内存数据源（演示 / 测试），每次调用返回副本
type MemoryDataSource struct {
	mu            sync.RWMutex
	tenants       []domain.Tenant
	payments      []domain.Payment
	tickets       []domain.MaintenanceRequest
	listings      []domain.Listing
	invoices      []domain.Invoice
	notifications []domain.Notification
	legal         []domain.LegalDocument
}

// NewMemoryDataSource 使用内置演示数据
func NewMemoryDataSource() *MemoryDataSource {
	return &MemoryDataSource{
		tenants:       seedTenants(),
		payments:      seedPayments(),
		tickets:       seedTickets(),
		listings:      seedListings(),
		invoices:      seedInvoices(),
		notifications: seedNotifications(),
		legal:         seedLegalDocuments(),
	}
}

// NewEmptyMemoryDataSource 空数据集
func NewEmptyMemoryDataSource() *MemoryDataSource {
	return &MemoryDataSource{}
}

func (m *MemoryDataSource) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Tenant, len(m.tenants))
	for i, t := range m.tenants {
		out[i] = t.Clone()
	}
	return out, nil
}

func (m *MemoryDataSource) ListPayments(ctx context.Context) ([]domain.Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Payment{}, m.payments...), nil
}

func (m *MemoryDataSource) ListMaintenanceRequests(ctx context.Context) ([]domain.MaintenanceRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.MaintenanceRequest, len(m.tickets))
	for i, t := range m.tickets {
		out[i] = t.Clone()
	}
	return out, nil
}

func (m *MemoryDataSource) ListListings(ctx context.Context) ([]domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Listing, len(m.listings))
	for i, l := range m.listings {
		l.Amenities = append([]string(nil), l.Amenities...)
		out[i] = l
	}
	return out, nil
}

func (m *MemoryDataSource) ListInvoices(ctx context.Context) ([]domain.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Invoice, len(m.invoices))
	for i, inv := range m.invoices {
		inv.Items = append([]domain.InvoiceItem(nil), inv.Items...)
		out[i] = inv
	}
	return out, nil
}

func (m *MemoryDataSource) ListNotifications(ctx context.Context) ([]domain.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Notification{}, m.notifications...), nil
}

func (m *MemoryDataSource) ListLegalDocuments(ctx context.Context) ([]domain.LegalDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.LegalDocument{}, m.legal...), nil
}

func usd(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func intPtr(v int) *int { return &v }

func seedTenants() []domain.Tenant {
	return []domain.Tenant{
		{
			ID:                    "t1",
			Name:                  "Alice Johnson",
			Email:                 "alice@example.com",
			Phone:                 "(512) 555-0101",
			Status:                domain.TenantStatusActive,
			PropertyUnit:          "101 - Sunset Apts",
			LeaseStart:            domain.MustDate("2023-01-01"),
			LeaseEnd:              domain.MustDate("2024-01-01"),
			RentAmount:            usd(1200),
			Deposit:               usd(1200),
			Balance:               decimal.Zero,
			CreditScore:           intPtr(720),
			BackgroundCheckStatus: domain.BackgroundClear,
		},
		{
			ID:                    "t2",
			Name:                  "Bob Smith",
			Email:                 "bob@example.com",
			Phone:                 "(512) 555-0102",
			Status:                domain.TenantStatusEvictionPending,
			PropertyUnit:          "102 - Sunset Apts",
			LeaseStart:            domain.MustDate("2023-03-01"),
			LeaseEnd:              domain.MustDate("2024-03-01"),
			RentAmount:            usd(1350),
			Deposit:               usd(1350),
			Balance:               usd(2750),
			CreditScore:           intPtr(580),
			BackgroundCheckStatus: domain.BackgroundFlagged,
		},
		{
			ID:                    "t3",
			Name:                  "Charlie Davis",
			Email:                 "charlie@example.com",
			Phone:                 "(512) 555-0103",
			Status:                domain.TenantStatusApplicant,
			PropertyUnit:          "103 - Sunset Apts",
			LeaseStart:            domain.MustDate("2024-06-01"),
			LeaseEnd:              domain.MustDate("2025-06-01"),
			RentAmount:            usd(1250),
			Deposit:               usd(1250),
			Balance:               decimal.Zero,
			CreditScore:           intPtr(690),
			BackgroundCheckStatus: domain.BackgroundPending,
			ApplicationData: &domain.ApplicationData{
				SubmissionDate: domain.MustDate("2024-05-15"),
				Employment: domain.Employment{
					Employer:      "Tech Solutions Inc.",
					JobTitle:      "Software Engineer",
					MonthlyIncome: usd(5800),
					Duration:      "2 years",
				},
				References: []domain.Reference{
					{Name: "Sarah Connor", Relation: "Previous Landlord", Phone: "(512) 555-9999"},
					{Name: "John Doe", Relation: "Manager", Phone: "(512) 555-8888"},
				},
				Documents: []domain.Document{
					{Name: "PayStub_April.pdf", URL: "#", Type: "Income"},
					{Name: "DriverLicense_Front.jpg", URL: "#", Type: "ID"},
				},
				InternalNotes: "Met during showing. Seemed very responsible. Verify move-in date flexibility.",
			},
		},
	}
}

func seedPayments() []domain.Payment {
	return []domain.Payment{
		{ID: "p1", TenantID: "t1", Amount: usd(1200), Date: domain.MustDate("2024-05-01"), Status: domain.PaymentPaid, Type: "Rent", Method: "Stripe (ACH)"},
		{ID: "p2", TenantID: "t2", Amount: usd(1350), Date: domain.MustDate("2024-04-01"), Status: domain.PaymentFailed, Type: "Rent", Method: "Credit Card"},
		{ID: "p3", TenantID: "t1", Amount: usd(1200), Date: domain.MustDate("2024-04-01"), Status: domain.PaymentPaid, Type: "Rent", Method: "Stripe (ACH)"},
	}
}

func seedInvoices() []domain.Invoice {
	return []domain.Invoice{
		{
			ID: "inv-001", TenantID: "t1",
			Date: domain.MustDate("2024-05-01"), DueDate: domain.MustDate("2024-05-01"),
			Amount: usd(1200), Period: "May 2024", Status: domain.InvoicePaid,
			Items: []domain.InvoiceItem{{Description: "Rent May 2024", Amount: usd(1200)}},
		},
		{
			ID: "inv-002", TenantID: "t2",
			Date: domain.MustDate("2024-05-01"), DueDate: domain.MustDate("2024-05-01"),
			Amount: usd(1350), Period: "May 2024", Status: domain.InvoiceOverdue,
			Items: []domain.InvoiceItem{{Description: "Rent May 2024", Amount: usd(1350)}},
		},
		{
			ID: "inv-003", TenantID: "t2",
			Date: domain.MustDate("2024-05-05"), DueDate: domain.MustDate("2024-05-05"),
			Amount: usd(50), Period: "May 2024", Status: domain.InvoiceOverdue,
			Items: []domain.InvoiceItem{{Description: "Late Fee", Amount: usd(50)}},
		},
	}
}

func seedTickets() []domain.MaintenanceRequest {
	return []domain.MaintenanceRequest{
		{
			ID:          "m1",
			TenantID:    "t1",
			Category:    "Plumbing",
			Description: "Leaking faucet in the bathroom sink. Water is dripping constantly.",
			Status:      domain.TicketOpen,
			Priority:    domain.PriorityMedium,
			CreatedAt:   domain.MustDate("2024-05-10"),
			Updates:     []domain.TicketUpdate{},
		},
		{
			ID:          "m2",
			TenantID:    "t2",
			Category:    "HVAC",
			Description: "AC is blowing warm air. Temperature inside is 82 degrees.",
			Status:      domain.TicketInProgress,
			Priority:    domain.PriorityEmergency,
			CreatedAt:   domain.MustDate("2024-05-12"),
			Updates:     []domain.TicketUpdate{},
		},
	}
}

func seedListings() []domain.Listing {
	const img = "?ixlib=rb-4.0.3&auto=format&fit=crop&w=1000&q=80"
	return []domain.Listing{
		{
			ID:          "l1",
			Title:       "Luxury Downtown Loft",
			Address:     "101 Sunset Blvd, Unit 304, Austin, TX",
			Price:       usd(1850),
			Beds:        2,
			Baths:       usd(2),
			Sqft:        1100,
			Image:       "https://images.unsplash.com/photo-1502672260266-1c1ef2d93688" + img,
			Description: "Modern loft in the heart of the city. Features high ceilings, exposed brick, and floor-to-ceiling windows. Includes access to rooftop pool and gym.",
			Amenities:   []string{"Rooftop Pool", "Gym Access", "Covered Parking", "Pet Friendly"},
		},
		{
			ID:          "l2",
			Title:       "Cozy Suburban Family Home",
			Address:     "452 Oak Lane, Round Rock, TX",
			Price:       usd(2200),
			Beds:        3,
			Baths:       decimal.NewFromFloat(2.5),
			Sqft:        1800,
			Image:       "https://images.unsplash.com/photo-1564013799919-ab600027ffc6" + img,
			Description: "Spacious family home with a large backyard, perfect for entertaining. Recently updated kitchen with stainless steel appliances.",
			Amenities:   []string{"Large Backyard", "2-Car Garage", "Fireplace", "Smart Home Features"},
		},
		{
			ID:          "l3",
			Title:       "Riverside Condo",
			Address:     "888 River Rd, Unit 12, Austin, TX",
			Price:       usd(1600),
			Beds:        1,
			Baths:       usd(1),
			Sqft:        850,
			Image:       "https://images.unsplash.com/photo-1512917774080-9991f1c4c750" + img,
			Description: "Quiet condo overlooking the river. Walking distance to hike and bike trails.",
			Amenities:   []string{"River View", "Balcony", "In-unit Washer/Dryer", "Reserved Parking"},
		},
	}
}

func seedNotifications() []domain.Notification {
	return []domain.Notification{
		{ID: "n1", TenantID: "t2", Type: domain.NotificationRent, Title: "Rent overdue", Message: "Your May 2024 rent is overdue. A late fee has been applied.", Date: domain.MustDate("2024-05-05")},
		{ID: "n2", TenantID: "t1", Type: domain.NotificationMaintenance, Title: "Request received", Message: "We received your plumbing request and will schedule a visit.", Date: domain.MustDate("2024-05-10"), Read: true},
	}
}

func seedLegalDocuments() []domain.LegalDocument {
	return []domain.LegalDocument{
		{
			ID: "ld1", TenantID: "t2", Type: domain.LegalLateRentNotice,
			GeneratedContent: "NOTICE OF LATE RENT\n\nTo: Bob Smith\nUnit: 102 - Sunset Apts\n\nYour account shows an outstanding balance of $2750.00.",
			CreatedAt:        domain.MustDate("2024-05-06"),
			Status:           domain.LegalSent,
			DeliveryMethod:   domain.DeliveryEmail,
		},
	}
}
