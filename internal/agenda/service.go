package agenda

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/bizledger/bizledger/internal/masterdata"
	"github.com/bizledger/bizledger/internal/platform/httpx"
)

// Customers resolves customer names for appointments.
type Customers interface {
	GetCustomer(ctx context.Context, owner, id string) (masterdata.Customer, error)
}

// Service manages appointments.
type Service struct {
	repo      Repository
	customers Customers
	validate  *validator.Validate
	logger    *slog.Logger
	location  *time.Location
	clock     func() time.Time
	newID     func() string
}

// NewService constructs the agenda service. loc decides which day is today.
func NewService(repo Repository, customers Customers, validate *validator.Validate, logger *slog.Logger, loc *time.Location) *Service {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		repo:      repo,
		customers: customers,
		validate:  validate,
		logger:    logger,
		location:  loc,
		clock:     time.Now,
		newID:     uuid.NewString,
	}
}

// List groups the owner's appointments per day. day filters to one date.
func (s *Service) List(ctx context.Context, owner, day string) ([]DayGroup, error) {
	if day != "" {
		if _, err := time.Parse(DateLayout, day); err != nil {
			return nil, fmt.Errorf("%w: day must be YYYY-MM-DD", httpx.ErrValidation)
		}
	}
	appts, err := s.repo.List(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	today := s.clock().In(s.location).Format(DateLayout)
	return Group(appts, day, today), nil
}

// Get loads one appointment.
func (s *Service) Get(ctx context.Context, owner, id string) (Appointment, error) {
	a, err := s.repo.Get(ctx, owner, id)
	if err != nil {
		return Appointment{}, fmt.Errorf("get appointment %s: %w", id, err)
	}
	return a, nil
}

// Create schedules an appointment.
func (s *Service) Create(ctx context.Context, owner string, in AppointmentInput) (Appointment, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := httpx.Validate(s.validate, in); err != nil {
		return Appointment{}, err
	}
	a := Appointment{
		ID:        s.newID(),
		Title:     in.Title,
		Date:      in.Date,
		Time:      in.Time,
		Notes:     in.Notes,
		Status:    in.Status,
		CreatedAt: s.clock(),
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	if err := s.attachCustomer(ctx, owner, &a, in.CustomerID); err != nil {
		return Appointment{}, err
	}
	if err := s.repo.Insert(ctx, owner, a); err != nil {
		return Appointment{}, fmt.Errorf("create appointment: %w", err)
	}
	s.logger.Info("appointment scheduled",
		slog.String("owner", owner),
		slog.String("appointment_id", a.ID),
		slog.String("date", a.Date),
	)
	return a, nil
}

// Update applies a partial edit, including cancellation.
func (s *Service) Update(ctx context.Context, owner, id string, patch AppointmentPatch) (Appointment, error) {
	if err := httpx.Validate(s.validate, patch); err != nil {
		return Appointment{}, err
	}
	a, err := s.Get(ctx, owner, id)
	if err != nil {
		return Appointment{}, err
	}
	patch.apply(&a)
	if patch.CustomerID != nil {
		if err := s.attachCustomer(ctx, owner, &a, *patch.CustomerID); err != nil {
			return Appointment{}, err
		}
	}
	if err := s.repo.Save(ctx, owner, a); err != nil {
		return Appointment{}, fmt.Errorf("update appointment %s: %w", id, err)
	}
	return a, nil
}

// Toggle flips between scheduled and completed.
func (s *Service) Toggle(ctx context.Context, owner, id string) (Appointment, error) {
	a, err := s.Get(ctx, owner, id)
	if err != nil {
		return Appointment{}, err
	}
	a.Status = a.Status.Toggled()
	if err := s.repo.SetStatus(ctx, owner, id, a.Status); err != nil {
		return Appointment{}, fmt.Errorf("toggle appointment %s: %w", id, err)
	}
	return a, nil
}

// Delete removes an appointment.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	if err := s.repo.Delete(ctx, owner, id); err != nil {
		return fmt.Errorf("delete appointment %s: %w", id, err)
	}
	return nil
}

func (s *Service) attachCustomer(ctx context.Context, owner string, a *Appointment, customerID string) error {
	a.CustomerID = customerID
	a.CustomerName = ""
	if customerID == "" || s.customers == nil {
		return nil
	}
	c, err := s.customers.GetCustomer(ctx, owner, customerID)
	if errors.Is(err, httpx.ErrNotFound) {
		return &httpx.InvalidFields{Fields: []httpx.FieldError{{Field: "customer:" + customerID, Rule: "exists"}}}
	}
	if err != nil {
		return fmt.Errorf("appointment customer %s: %w", customerID, err)
	}
	a.CustomerName = c.Name
	return nil
}
