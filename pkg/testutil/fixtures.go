package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AccountFixture represents test login account data
type AccountFixture struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	EmployeeID   string
	CreatedAt    time.Time
}

// EmployeeFixture represents test employee data
type EmployeeFixture struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Position  string
	HireDate  time.Time
	Status    string
	CreatedAt time.Time
}

// PlanningFixture represents test planning data
type PlanningFixture struct {
	ID         string
	Name       string
	CreatorID  string
	PeriodFrom time.Time
	PeriodTo   time.Time
	Status     string
	CreatedAt  time.Time
}

// SlotFixture represents test time slot data
type SlotFixture struct {
	ID         string
	PlanningID string
	EmployeeID string
	TaskID     string
	StartAt    time.Time
	EndAt      time.Time
	Kind       string
	Validated  bool
}

// LeaveFixture represents test leave request data
type LeaveFixture struct {
	ID         string
	EmployeeID string
	LeaveType  string
	StartAt    time.Time
	EndAt      time.Time
	Status     string
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Account creates a login account fixture with defaults
func (f *FixtureFactory) Account(opts ...func(*AccountFixture)) AccountFixture {
	seq := f.nextSeq()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)

	account := AccountFixture{
		ID:           uuid.New().String(),
		Email:        fmt.Sprintf("user%d@test.planora.io", seq),
		PasswordHash: string(hash),
		Role:         "planner",
		CreatedAt:    time.Now(),
	}

	for _, opt := range opts {
		opt(&account)
	}

	return account
}

// WithRole sets the account role
func WithRole(role string) func(*AccountFixture) {
	return func(a *AccountFixture) {
		a.Role = role
	}
}

// Employee creates an employee fixture with defaults
func (f *FixtureFactory) Employee(opts ...func(*EmployeeFixture)) EmployeeFixture {
	seq := f.nextSeq()

	emp := EmployeeFixture{
		ID:        uuid.New().String(),
		FirstName: fmt.Sprintf("Test%d", seq),
		LastName:  "Employee",
		Email:     fmt.Sprintf("employee%d@test.planora.io", seq),
		Position:  "agent",
		HireDate:  time.Date(2023, 1, 9, 0, 0, 0, 0, time.UTC),
		Status:    "active",
		CreatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(&emp)
	}

	return emp
}

// Planning creates a planning fixture covering one work week
func (f *FixtureFactory) Planning(creatorID string, opts ...func(*PlanningFixture)) PlanningFixture {
	seq := f.nextSeq()

	p := PlanningFixture{
		ID:         uuid.New().String(),
		Name:       fmt.Sprintf("Week %d", seq),
		CreatorID:  creatorID,
		PeriodFrom: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		PeriodTo:   time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC),
		Status:     "draft",
		CreatedAt:  time.Now(),
	}

	for _, opt := range opts {
		opt(&p)
	}

	return p
}

// Slot creates a slot fixture inside the given planning
func (f *FixtureFactory) Slot(planningID, employeeID string, opts ...func(*SlotFixture)) SlotFixture {
	s := SlotFixture{
		ID:         uuid.New().String(),
		PlanningID: planningID,
		EmployeeID: employeeID,
		TaskID:     uuid.New().String(),
		StartAt:    time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC),
		Kind:       "work",
	}

	for _, opt := range opts {
		opt(&s)
	}

	return s
}

// WithWindow sets the slot time window
func WithWindow(start, end time.Time) func(*SlotFixture) {
	return func(s *SlotFixture) {
		s.StartAt = start
		s.EndAt = end
	}
}

// Leave creates a leave request fixture
func (f *FixtureFactory) Leave(employeeID string, opts ...func(*LeaveFixture)) LeaveFixture {
	l := LeaveFixture{
		ID:         uuid.New().String(),
		EmployeeID: employeeID,
		LeaveType:  "paid",
		StartAt:    time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC),
		Status:     "pending",
	}

	for _, opt := range opts {
		opt(&l)
	}

	return l
}

// WithLeaveStatus sets the leave status
func WithLeaveStatus(status string) func(*LeaveFixture) {
	return func(l *LeaveFixture) {
		l.Status = status
	}
}
