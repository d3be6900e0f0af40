package reports

import (
	"context"
	"time"

	"github.com/Hugozera/apontamento/internal/domain/attendance"
	"github.com/Hugozera/apontamento/internal/domain/records"
	"github.com/Hugozera/apontamento/internal/domain/tenant"
)

type Service struct {
	Store  records.Store
	Router *tenant.Router
	// StoreTimeout bounds the range query; zero waits for the store.
	StoreTimeout time.Duration
}

func NewService(store records.Store, router *tenant.Router) *Service {
	if router == nil {
		router = tenant.NewRouter(nil)
	}
	return &Service{Store: store, Router: router}
}

// BuildMonthlyReport groups the tenant's approved finalized events whose
// approval instant falls in year-month. An empty month yields an empty report.
func (s *Service) BuildMonthlyReport(ctx context.Context, tenantID string, year int, month time.Month) (MonthlyReport, error) {
	if year < 1 || year > 9999 {
		return nil, records.Invalid("year", "must be between 1 and 9999")
	}
	if month < time.January || month > time.December {
		return nil, records.Invalid("month", "must be between 1 and 12")
	}

	start, end := MonthRange(year, month)
	partition := s.Router.Resolve(tenant.FinalizedEvents, tenant.Normalize(tenantID))

	var docs []records.Document
	err := records.Await(ctx, s.StoreTimeout, func(ctx context.Context) error {
		var err error
		docs, err = s.Store.QueryRange(ctx, partition, attendance.FieldApprovedAt, start, end)
		return err
	})
	if err != nil {
		return nil, records.Wrap("monthly report", err)
	}
	return groupByEmployeeDay(docs, attendance.FieldApprovedAt), nil
}
