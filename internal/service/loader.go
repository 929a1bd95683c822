package service

import (
	"context"
	"fmt"

	"neela-data/internal/domain"
	"neela-data/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Loader 启动时并行拉取全部集合，全部成功后一次性写入 session
type Loader struct {
	source  DataSource
	session *store.Session
	logger  *zap.Logger
}

func NewLoader(source DataSource, session *store.Session, logger *zap.Logger) *Loader {
	return &Loader{source: source, session: session, logger: logger}
}

// Fetch 并行拉取；任一失败整体失败，不返回部分集合
func (l *Loader) Fetch(ctx context.Context) (store.Snapshot, error) {
	var snap store.Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Tenants, err = l.source.ListTenants(gctx)
		return wrapLoad("tenants", err)
	})
	g.Go(func() (err error) {
		snap.Payments, err = l.source.ListPayments(gctx)
		return wrapLoad("payments", err)
	})
	g.Go(func() (err error) {
		snap.Tickets, err = l.source.ListMaintenanceRequests(gctx)
		return wrapLoad("maintenance requests", err)
	})
	g.Go(func() (err error) {
		snap.Listings, err = l.source.ListListings(gctx)
		return wrapLoad("listings", err)
	})
	g.Go(func() (err error) {
		snap.Invoices, err = l.source.ListInvoices(gctx)
		return wrapLoad("invoices", err)
	})
	if ns, ok := l.source.(NotificationSource); ok {
		g.Go(func() (err error) {
			snap.Notifications, err = ns.ListNotifications(gctx)
			return wrapLoad("notifications", err)
		})
	}
	if ls, ok := l.source.(LegalDocumentSource); ok {
		g.Go(func() (err error) {
			snap.LegalDocuments, err = ls.ListLegalDocuments(gctx)
			return wrapLoad("legal documents", err)
		})
	}
	if err := g.Wait(); err != nil {
		return store.Snapshot{}, err
	}
	return snap, nil
}

// Load 拉取并替换 session；失败时记录日志，session 保持空但可用
func (l *Loader) Load(ctx context.Context) error {
	snap, err := l.Fetch(ctx)
	if err != nil {
		l.logger.Error("Bulk load failed, starting with empty session", zap.Error(err))
		l.session.Replace(store.Snapshot{})
		return err
	}
	snap.Tenants = normalizeTenants(snap.Tenants)
	l.session.Replace(snap)
	l.logger.Info("Bulk load complete",
		zap.Int("tenants", len(snap.Tenants)),
		zap.Int("payments", len(snap.Payments)),
		zap.Int("tickets", len(snap.Tickets)),
		zap.Int("listings", len(snap.Listings)),
		zap.Int("invoices", len(snap.Invoices)),
		zap.Int("legal_documents", len(snap.LegalDocuments)),
	)
	return nil
}

// normalizeTenants 住户不保留申请资料，纯申请人余额为 0
func normalizeTenants(in []domain.Tenant) []domain.Tenant {
	for i := range in {
		if !in[i].IsApplicant() {
			in[i].ApplicationData = nil
		}
		if in[i].Status == domain.TenantStatusApplicant {
			in[i].Balance = decimal.Zero
		}
	}
	return in
}

func wrapLoad(what string, err error) error {
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", what, err)
	}
	return nil
}
