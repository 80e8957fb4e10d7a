package service

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/planora/planora-backend/internal/planning/engine"
	"github.com/planora/planora-backend/internal/planning/events"
	"github.com/planora/planora-backend/internal/planning/repository"
	"github.com/planora/planora-backend/pkg/database"
	"github.com/planora/planora-backend/pkg/logger"
)

// SummaryService serves and recomputes hour summaries
type SummaryService struct {
	db        *database.DB
	slots     *repository.SlotRepository
	summaries *repository.SummaryRepository
	publisher *events.PlanningEventPublisher
	logger    *logger.Logger
}

// NewSummaryService creates a new summary service
func NewSummaryService(
	db *database.DB,
	slots *repository.SlotRepository,
	summaries *repository.SummaryRepository,
	publisher *events.PlanningEventPublisher,
	log *logger.Logger,
) *SummaryService {
	return &SummaryService{
		db:        db,
		slots:     slots,
		summaries: summaries,
		publisher: publisher,
		logger:    log,
	}
}

// GetByPair retrieves the summary of one (planning, employee) pair
func (s *SummaryService) GetByPair(ctx context.Context, planningID, employeeID string) (*repository.Summary, error) {
	return s.summaries.GetByPair(ctx, planningID, employeeID)
}

// ListByPlanning returns all summaries of a planning
func (s *SummaryService) ListByPlanning(ctx context.Context, planningID string) ([]*repository.Summary, error) {
	return s.summaries.ListByPlanning(ctx, planningID)
}

// ListByEmployee returns an employee's summaries across plannings
func (s *SummaryService) ListByEmployee(ctx context.Context, employeeID string) ([]*repository.Summary, error) {
	return s.summaries.ListByEmployee(ctx, employeeID)
}

// RecomputePair rebuilds the summary of one (planning, employee) pair from
// its slots. Safe to call any number of times.
func (s *SummaryService) RecomputePair(ctx context.Context, planningID, employeeID string) (*engine.HourSummary, error) {
	var summary *engine.HourSummary
	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		agg := engine.NewAggregator(s.slots.WithTx(tx), s.summaries.WithTx(tx), s.logger.Logger)
		var err error
		summary, err = agg.Recompute(ctx, planningID, employeeID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishSummaryRecomputed(ctx, planningID, employeeID)

	return summary, nil
}

// RecomputePlanning rebuilds every summary of a planning. Used after bulk
// slot writes.
func (s *SummaryService) RecomputePlanning(ctx context.Context, planningID string, employeeIDs []string) error {
	for _, employeeID := range employeeIDs {
		if _, err := s.RecomputePair(ctx, planningID, employeeID); err != nil {
			return err
		}
	}
	return nil
}
