package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"neela-data/internal/config"
	"neela-data/internal/domain"
	"neela-data/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2023, 10, 27, 9, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func seedSnapshot() store.Snapshot {
	return store.Snapshot{
		Tenants: []domain.Tenant{
			{ID: "t1", Name: "Alice Johnson", Email: "alice@example.com", Status: domain.TenantStatusActive,
				PropertyUnit: "101 - Sunset Apts", RentAmount: decimal.NewFromInt(1200), Balance: decimal.Zero,
				CreditScore: ptr(750), BackgroundCheckStatus: domain.BackgroundClear, LeaseEnd: domain.MustDate("2024-12-31")},
			{ID: "t2", Name: "Bob Smith", Email: "bob@example.com", Status: domain.TenantStatusEvictionPending,
				PropertyUnit: "102 - Sunset Apts", RentAmount: decimal.NewFromInt(1100), Balance: decimal.NewFromInt(2750),
				BackgroundCheckStatus: domain.BackgroundClear},
			{ID: "t3", Name: "Charlie Davis", Email: "charlie@example.com", Status: domain.TenantStatusApplicant,
				PropertyUnit: "201 - Oak Lane", RentAmount: decimal.NewFromInt(1250), Balance: decimal.Zero,
				BackgroundCheckStatus: domain.BackgroundPending,
				LeaseStart: domain.MustDate("2023-11-01"), LeaseEnd: domain.MustDate("2024-10-31"),
				ApplicationData: &domain.ApplicationData{
					SubmissionDate: domain.MustDate("2023-10-20"),
					Employment:     domain.Employment{Employer: "Tech Corp", JobTitle: "Engineer", MonthlyIncome: decimal.NewFromInt(5800)},
					InternalNotes:  "Employer verified by phone.",
				}},
		},
		Payments: []domain.Payment{
			{ID: "p1", TenantID: "t1", Amount: decimal.NewFromInt(1200), Status: domain.PaymentPaid, Type: "Rent"},
			{ID: "p2", TenantID: "t2", Amount: decimal.NewFromInt(1100), Status: domain.PaymentFailed, Type: "Rent"},
		},
		Tickets: []domain.MaintenanceRequest{
			{ID: "m1", TenantID: "t1", Category: "Plumbing", Description: "Leaking faucet", Status: domain.TicketOpen,
				Priority: domain.PriorityMedium, CreatedAt: domain.MustDate("2023-10-25"),
				Updates: []domain.TicketUpdate{{Date: domain.MustDate("2023-10-25"), Message: "Reported", Author: domain.AuthorTenant}}},
			{ID: "m2", TenantID: "t2", Category: "HVAC", Description: "AC blowing warm air", Status: domain.TicketResolved,
				Priority: domain.PriorityHigh, CreatedAt: domain.MustDate("2023-10-20")},
		},
		Listings: []domain.Listing{
			{ID: "l1", Title: "Sunset Apartments #305", Address: "101 Sunset Blvd", Price: decimal.NewFromInt(1350), Beds: 2, Baths: decimal.NewFromInt(1)},
		},
		Invoices: []domain.Invoice{
			{ID: "inv1", TenantID: "t1", Amount: decimal.NewFromInt(1200), Status: domain.InvoicePaid},
			{ID: "inv2", TenantID: "t2", Amount: decimal.NewFromInt(1100), Status: domain.InvoiceOverdue},
		},
		Notifications: []domain.Notification{
			{ID: "n1", TenantID: "t1", Type: domain.NotificationRent, Title: "Rent due"},
		},
	}
}

func seededSession() *store.Session {
	s := store.NewSession()
	s.Replace(seedSnapshot())
	return s
}

// blockingScreener 在 release 关闭前阻塞，用于观察进行中的状态
type blockingScreener struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	result  ScreeningResult
	err     error
}

func newBlockingScreener(res ScreeningResult) *blockingScreener {
	return &blockingScreener{started: make(chan struct{}, 8), release: make(chan struct{}), result: res}
}

func (b *blockingScreener) Screen(ctx context.Context, _ domain.Tenant) (ScreeningResult, error) {
	b.calls.Add(1)
	b.started <- struct{}{}
	select {
	case <-b.release:
	case <-ctx.Done():
		return ScreeningResult{}, ctx.Err()
	}
	return b.result, b.err
}

type fakeDrafter struct {
	calls atomic.Int32
	body  string
	err   error
}

func (f *fakeDrafter) DraftLease(_ context.Context, _ domain.Tenant, _ config.LeaseTemplate) (string, error) {
	f.calls.Add(1)
	return f.body, f.err
}

type fakeSigner struct {
	mu    sync.Mutex
	calls int
	err   error
	envs  map[string]Envelope
}

func newFakeSigner() *fakeSigner { return &fakeSigner{envs: map[string]Envelope{}} }

func (f *fakeSigner) Send(_ context.Context, req SignatureRequest) (Envelope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return Envelope{}, f.err
	}
	env := Envelope{ID: "env-" + req.ApplicantID, ApplicantID: req.ApplicantID, RecipientEmail: req.RecipientEmail, Status: domain.LeaseSent}
	f.envs[env.ID] = env
	return env, nil
}

func (f *fakeSigner) Status(_ context.Context, id string) (Envelope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	env, ok := f.envs[id]
	if !ok {
		return Envelope{}, ErrNotFound
	}
	return env, nil
}

func (f *fakeSigner) Void(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	env, ok := f.envs[id]
	if !ok {
		return ErrNotFound
	}
	if env.Status == domain.LeaseSigned {
		return ErrEnvelopeSigned
	}
	env.Status = domain.LeaseVoided
	f.envs[id] = env
	return nil
}

func (f *fakeSigner) envelope(id string) Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.envs[id]
}

func (f *fakeSigner) markSigned(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	env := f.envs[id]
	env.Status = domain.LeaseSigned
	env.DocumentURL = "https://sign.example/" + id + ".pdf"
	f.envs[id] = env
}

func (f *fakeSigner) sendCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// blockingSigner Send 在 release 关闭前阻塞（信封已在签署服务上创建）
type blockingSigner struct {
	*fakeSigner
	started chan struct{}
	release chan struct{}
}

func newBlockingSigner() *blockingSigner {
	return &blockingSigner{fakeSigner: newFakeSigner(), started: make(chan struct{}, 1), release: make(chan struct{})}
}

func (b *blockingSigner) Send(ctx context.Context, req SignatureRequest) (Envelope, error) {
	env, err := b.fakeSigner.Send(ctx, req)
	b.started <- struct{}{}
	<-b.release
	return env, err
}

type fakeClassifier struct {
	calls int
	sug   domain.TriageSuggestion
	err   error
}

func (f *fakeClassifier) Classify(_ context.Context, _ string) (domain.TriageSuggestion, error) {
	f.calls++
	return f.sug, f.err
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
	err     error
}

func (r *recordingNotifier) Notify(_ context.Context, n Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
	return r.err
}

var errBoom = errors.New("boom")

func testLogger() *zap.Logger { return zap.NewNop() }
