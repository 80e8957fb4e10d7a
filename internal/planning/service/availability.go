package service

import (
	"context"
	"time"

	"github.com/planora/planora-backend/internal/planning/repository"
	"github.com/planora/planora-backend/pkg/errors"
	"github.com/planora/planora-backend/pkg/logger"
)

// AvailabilityService manages declared weekly availability windows
type AvailabilityService struct {
	availability *repository.AvailabilityRepository
	employees    *repository.EmployeeRepository
	logger       *logger.Logger
}

// NewAvailabilityService creates a new availability service
func NewAvailabilityService(
	availability *repository.AvailabilityRepository,
	employees *repository.EmployeeRepository,
	log *logger.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		availability: availability,
		employees:    employees,
		logger:       log,
	}
}

// AvailabilityRequest carries one declared window. Times use HH:MM.
type AvailabilityRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,uuid"`
	Weekday    int    `json:"weekday" validate:"min=0,max=6"`
	StartTime  string `json:"start_time" validate:"required"`
	EndTime    string `json:"end_time" validate:"required"`
}

// Declare adds an availability window. Windows of the same employee on the
// same weekday must not overlap each other.
func (s *AvailabilityService) Declare(ctx context.Context, req *AvailabilityRequest) (*repository.Availability, error) {
	start, end, err := parseWindow(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	if _, err := s.employees.GetByID(ctx, req.EmployeeID); err != nil {
		return nil, err
	}

	if err := s.ensureNoOverlap(ctx, req.EmployeeID, req.Weekday, start, end, ""); err != nil {
		return nil, err
	}

	availability := &repository.Availability{
		EmployeeID: req.EmployeeID,
		Weekday:    req.Weekday,
		StartTime:  req.StartTime + ":00",
		EndTime:    req.EndTime + ":00",
	}
	if err := s.availability.Create(ctx, availability); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("employee_id", req.EmployeeID).
		Int("weekday", req.Weekday).
		Msg("availability declared")

	return availability, nil
}

// Update replaces a declared window
func (s *AvailabilityService) Update(ctx context.Context, id string, req *AvailabilityRequest) (*repository.Availability, error) {
	start, end, err := parseWindow(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	existing, err := s.availability.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.EmployeeID != req.EmployeeID {
		return nil, errors.BadRequest("availability window cannot change employee")
	}

	if err := s.ensureNoOverlap(ctx, req.EmployeeID, req.Weekday, start, end, id); err != nil {
		return nil, err
	}

	existing.Weekday = req.Weekday
	existing.StartTime = req.StartTime + ":00"
	existing.EndTime = req.EndTime + ":00"

	if err := s.availability.Update(ctx, existing); err != nil {
		return nil, err
	}

	return existing, nil
}

// Delete removes a declared window
func (s *AvailabilityService) Delete(ctx context.Context, id string) error {
	return s.availability.Delete(ctx, id)
}

// ListByEmployee returns the employee's declared windows
func (s *AvailabilityService) ListByEmployee(ctx context.Context, employeeID string) ([]*repository.Availability, error) {
	return s.availability.ListByEmployee(ctx, employeeID)
}

func (s *AvailabilityService) ensureNoOverlap(ctx context.Context, employeeID string, weekday, start, end int, skipID string) error {
	declared, err := s.availability.ListByEmployee(ctx, employeeID)
	if err != nil {
		return err
	}

	for _, w := range declared {
		if w.ID == skipID || w.Weekday != weekday {
			continue
		}
		otherStart, otherEnd, err := parseWindow(w.StartTime[:5], w.EndTime[:5])
		if err != nil {
			return err
		}
		if start < otherEnd && otherStart < end {
			return errors.Conflict("availability window overlaps an existing one on the same weekday")
		}
	}

	return nil
}

// parseWindow converts an HH:MM pair to minutes since midnight.
func parseWindow(startTime, endTime string) (int, int, error) {
	start, err := time.Parse("15:04", startTime)
	if err != nil {
		return 0, 0, errors.BadRequest("start_time must use the HH:MM format")
	}
	end, err := time.Parse("15:04", endTime)
	if err != nil {
		return 0, 0, errors.BadRequest("end_time must use the HH:MM format")
	}

	startMin := start.Hour()*60 + start.Minute()
	endMin := end.Hour()*60 + end.Minute()
	if endMin <= startMin {
		return 0, 0, errors.BadRequest("availability window must end after it starts")
	}

	return startMin, endMin, nil
}
