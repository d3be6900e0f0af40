package attendance

import (
	"context"
	"log/slog"
	"sort"

	"github.com/Hugozera/apontamento/internal/domain/records"
	"github.com/Hugozera/apontamento/internal/domain/tenant"
)

// Reconcile compares resolved clock events against their finalized copies.
// With repair set, missing copies are written from the canonical record.
func (s *Service) Reconcile(ctx context.Context, tenantID string, repair bool) (ReconcileSummary, error) {
	tenantID = tenant.Normalize(tenantID)
	summary := ReconcileSummary{Tenant: tenantID, Missing: []string{}, Repairing: repair}

	events, err := s.listAll(ctx, s.Router.Resolve(tenant.ClockEvents, tenantID))
	if err != nil {
		return summary, records.Wrap("reconcile clock events", err)
	}
	finalized, err := s.listAll(ctx, s.Router.Resolve(tenant.FinalizedEvents, tenantID))
	if err != nil {
		return summary, records.Wrap("reconcile finalized events", err)
	}

	mirrored := map[string]bool{}
	for _, doc := range finalized {
		if ref := doc.Fields.String(FieldRecordID); ref != "" {
			mirrored[ref] = true
		}
	}

	resolved := map[string]bool{}
	for _, doc := range events {
		if !Status(doc.Fields.String(FieldStatus)).Terminal() {
			continue
		}
		resolved[doc.ID] = true
		summary.Resolved++
		if mirrored[doc.ID] {
			summary.Mirrored++
			continue
		}
		summary.Missing = append(summary.Missing, doc.ID)
		if !repair {
			continue
		}
		if _, err := s.writeMirror(ctx, tenantID, doc.ID, doc.Fields, resolutionFields(doc.Fields)); err != nil {
			slog.Warn("finalized copy repair failed", "tenant", tenantID, "recordId", doc.ID, "err", err)
			continue
		}
		summary.Repaired++
	}
	for ref := range mirrored {
		if !resolved[ref] {
			summary.Orphans++
		}
	}
	sort.Strings(summary.Missing)
	return summary, nil
}

func (s *Service) listAll(ctx context.Context, partition string) ([]records.Document, error) {
	var docs []records.Document
	err := records.Await(ctx, s.StoreTimeout, func(ctx context.Context) error {
		var err error
		docs, err = s.Store.ListAll(ctx, partition)
		return err
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func resolutionFields(fields records.Fields) records.Fields {
	out := records.Fields{}
	for _, key := range []string{FieldStatus, FieldApprovedBy, FieldApprovedAt, FieldRejectedBy, FieldRejectedAt, FieldJustification} {
		if fields.Has(key) {
			out[key] = fields[key]
		}
	}
	return out
}
