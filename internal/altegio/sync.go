package altegio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/scalpi-pos/api/internal/database"
	"go.uber.org/zap"
)

// SyncTotal counts sync runs by result.
var SyncTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "scalpi_staff_sync_total",
		Help: "Staff directory sync runs",
	},
	[]string{"result"},
)

// StaffLister is satisfied by *Client.
type StaffLister interface {
	ListStaff(ctx context.Context) ([]Staff, error)
}

// EmployeeStore is the registry side of the sync. Satisfied by
// *database.Queries.
type EmployeeStore interface {
	UpsertEmployeeFromDirectory(ctx context.Context, arg database.UpsertEmployeeFromDirectoryParams) (database.Employee, error)
}

// SyncResult summarizes one run.
type SyncResult struct {
	Fetched  int `json:"fetched"`
	Upserted int `json:"upserted"`
	Skipped  int `json:"skipped"`
}

// Syncer upserts directory staff into the employee registry. owner and
// percent are registry-owned and never overwritten.
type Syncer struct {
	client StaffLister
	store  EmployeeStore
	logger *zap.Logger
}

// NewSyncer creates a new Syncer.
func NewSyncer(client StaffLister, store EmployeeStore, logger *zap.Logger) *Syncer {
	return &Syncer{client: client, store: store, logger: logger}
}

// Sync runs one pass. Staff without an id are skipped.
func (s *Syncer) Sync(ctx context.Context) (SyncResult, error) {
	staff, err := s.client.ListStaff(ctx)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			SyncTotal.WithLabelValues("skipped").Inc()
		} else {
			SyncTotal.WithLabelValues("error").Inc()
		}
		return SyncResult{}, err
	}

	result := SyncResult{Fetched: len(staff)}
	for _, st := range staff {
		id := strings.TrimSpace(st.ID.String())
		if id == "" {
			result.Skipped++
			continue
		}
		if _, err := s.store.UpsertEmployeeFromDirectory(ctx, database.UpsertEmployeeFromDirectoryParams{
			ID:             id,
			Name:           strings.TrimSpace(st.Name),
			Specialization: st.Specialization,
			Phone:          st.Phone,
			Email:          st.Email,
		}); err != nil {
			SyncTotal.WithLabelValues("error").Inc()
			return result, fmt.Errorf("upsert employee %s: %w", id, err)
		}
		result.Upserted++
	}

	SyncTotal.WithLabelValues("ok").Inc()
	s.logger.Info("staff directory synced",
		zap.Int("fetched", result.Fetched),
		zap.Int("upserted", result.Upserted),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}
