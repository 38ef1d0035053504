package services

import (
	"context"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/sirupsen/logrus"

	"movers-api/metrics"
	"movers-api/models"
	"movers-api/notify"
	"movers-api/statemachine"
	"movers-api/store"
)

// CreateRequestInput is a new booking. MovingDate accepts RFC 3339 or a
// plain 2006-01-02 date.
type CreateRequestInput struct {
	PickupLocation  string   `json:"pickup_location"`
	DropoffLocation string   `json:"dropoff_location"`
	MovingDate      string   `json:"moving_date"`
	ServiceType     string   `json:"service_type"`
	EstimatedPrice  *float64 `json:"estimated_price"`
	Weight          *float64 `json:"weight"`
}

// ListQuery narrows List. Filter is "", "all", "mine" or "unclaimed".
type ListQuery struct {
	Filter string
	Status string
}

type UpdateStatusInput struct {
	Status     models.RequestStatus `json:"status"`
	FinalPrice *float64             `json:"final_price"`
	Note       string               `json:"note"`
}

type RequestService struct {
	store       *store.Store
	notifier    notify.Notifier
	clock       clock.Clock
	log         logrus.FieldLogger
	frontendURL string
}

func NewRequestService(st *store.Store, notifier notify.Notifier, clk clock.Clock, log logrus.FieldLogger, frontendURL string) *RequestService {
	return &RequestService{store: st, notifier: notifier, clock: clk, log: log, frontendURL: frontendURL}
}

func parseMovingDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, errors.NewNotValid(nil, "moving_date must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
}

func validAmount(v *float64, name string) error {
	if v != nil && *v < 0 {
		return errors.NewNotValid(nil, name+" cannot be negative")
	}
	return nil
}

// Create books a new pending request for the calling client.
func (s *RequestService) Create(ctx context.Context, user *models.User, in CreateRequestInput) (*models.ServiceRequest, error) {
	profile, err := s.store.ClientProfileByUser(ctx, user.ID)
	if err != nil {
		if errors.Is(err, errors.NotFound) {
			return nil, errors.NewForbidden(nil, "Only clients can create service requests")
		}
		return nil, err
	}

	in.PickupLocation = strings.TrimSpace(in.PickupLocation)
	in.DropoffLocation = strings.TrimSpace(in.DropoffLocation)
	in.ServiceType = strings.TrimSpace(in.ServiceType)
	if in.PickupLocation == "" || in.DropoffLocation == "" || in.MovingDate == "" || in.ServiceType == "" {
		return nil, errors.NewNotValid(nil, "Please provide pickup_location, dropoff_location, moving_date and service_type")
	}
	date, err := parseMovingDate(in.MovingDate)
	if err != nil {
		return nil, err
	}
	if err := validAmount(in.EstimatedPrice, "estimated_price"); err != nil {
		return nil, err
	}
	if err := validAmount(in.Weight, "weight"); err != nil {
		return nil, err
	}

	req := &models.ServiceRequest{
		ClientID:        profile.ID,
		PickupLocation:  in.PickupLocation,
		DropoffLocation: in.DropoffLocation,
		MovingDate:      date,
		ServiceType:     in.ServiceType,
		Status:          models.StatusPending,
		PaymentStatus:   models.PaymentUnpaid,
		EstimatedPrice:  in.EstimatedPrice,
		Weight:          in.Weight,
	}
	err = s.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.CreateRequest(ctx, req); err != nil {
			return err
		}
		return tx.AddHistory(ctx, &models.RequestStatusHistory{
			RequestID: req.ID,
			ToStatus:  models.StatusPending,
			ChangedBy: user.ID,
			Note:      "request created",
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordRequestCreated()
	s.log.WithFields(logrus.Fields{"request_id": req.ID, "client_id": profile.ID}).Info("service request created")
	s.notify(notify.RequestCreated, user, req)
	return req, nil
}

// List returns the requests visible to user.
func (s *RequestService) List(ctx context.Context, user *models.User, q ListQuery) ([]models.ServiceRequest, error) {
	var f store.RequestFilter
	if q.Status != "" {
		f.Status = models.RequestStatus(q.Status)
		if !f.Status.Valid() {
			return nil, errors.NewNotValid(nil, "unknown status "+q.Status)
		}
	}

	switch {
	case user.Role == models.RoleClient:
		profile, err := s.store.ClientProfileByUser(ctx, user.ID)
		if errors.Is(err, errors.NotFound) {
			return []models.ServiceRequest{}, nil
		} else if err != nil {
			return nil, err
		}
		f.ClientID = profile.ID
	case user.Role == models.RoleProvider:
		f.ClaimedBy = user.ID
	case user.IsAdmin():
		f.WithClient = true
		switch q.Filter {
		case "", "all":
		case "mine":
			f.ClaimedBy = user.ID
		case "unclaimed":
			f.Unclaimed = true
		default:
			return nil, errors.NewNotValid(nil, "filter must be all, mine or unclaimed")
		}
	default:
		// admins awaiting approval see nothing
		return []models.ServiceRequest{}, nil
	}
	return s.store.ListRequests(ctx, f)
}

// Get returns a request with its history and the caller's allowed next states.
func (s *RequestService) Get(ctx context.Context, user *models.User, id uint) (*models.ServiceRequest, []models.RequestStatus, error) {
	req, err := s.store.RequestDetail(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	actor, err := actorFor(ctx, s.store, user)
	if err != nil {
		return nil, nil, err
	}
	if err := statemachine.CanView(actor, req); err != nil {
		return nil, nil, err
	}
	return req, statemachine.AllowedNext(actor, req), nil
}

// Claim makes the calling admin the owner of a pending request. Concurrent
// claims are decided by the store's conditional update.
func (s *RequestService) Claim(ctx context.Context, user *models.User, id uint) (*models.ServiceRequest, error) {
	if err := statemachine.CanClaim(statemachine.NewActor(user, 0)); err != nil {
		return nil, err
	}
	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.ClaimRequest(ctx, id, user.ID); err != nil {
			return err
		}
		return tx.AddHistory(ctx, &models.RequestStatusHistory{
			RequestID:  id,
			FromStatus: models.StatusPending,
			ToStatus:   models.StatusClaimed,
			ChangedBy:  user.ID,
			Note:       "claimed",
		})
	})
	metrics.RecordClaim(err)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"request_id": id, "admin_id": user.ID}).Info("service request claimed")
	return s.store.RequestByID(ctx, id)
}

// UpdateStatus applies a status change decided by the authorization policy.
func (s *RequestService) UpdateStatus(ctx context.Context, user *models.User, id uint, in UpdateStatusInput) (*models.ServiceRequest, error) {
	req, err := s.store.RequestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	actor, err := actorFor(ctx, s.store, user)
	if err != nil {
		return nil, err
	}
	if err := statemachine.Decide(actor, req, in.Status); err != nil {
		return nil, err
	}

	change := store.StatusChange{From: req.Status, To: in.Status}
	if in.FinalPrice != nil {
		if in.Status != models.StatusCompleted {
			return nil, errors.NewNotValid(nil, "final_price can only be set when completing a request")
		}
		if err := validAmount(in.FinalPrice, "final_price"); err != nil {
			return nil, err
		}
		change.FinalPrice = in.FinalPrice
	}
	if in.Status == models.StatusCompleted {
		now := s.clock.Now().UTC()
		change.CompletedAt = &now
	}

	err = s.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.UpdateRequestStatus(ctx, id, change); err != nil {
			return err
		}
		return tx.AddHistory(ctx, &models.RequestStatusHistory{
			RequestID:  id,
			FromStatus: change.From,
			ToStatus:   change.To,
			ChangedBy:  user.ID,
			Note:       in.Note,
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordTransition(string(change.From), string(change.To))
	s.log.WithFields(logrus.Fields{
		"request_id": id,
		"from":       change.From,
		"to":         change.To,
		"user_id":    user.ID,
	}).Info("service request status updated")

	if user.Role == models.RoleClient && in.Status == models.StatusCancelled {
		s.notify(notify.RequestCancelled, user, req)
	}
	return s.store.RequestByID(ctx, id)
}

// Delete hard-deletes a request. Admins only.
func (s *RequestService) Delete(ctx context.Context, user *models.User, id uint) error {
	if !user.IsAdmin() {
		return errors.NewForbidden(nil, "Only admins can delete service requests")
	}
	if err := s.store.DeleteRequest(ctx, id); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"request_id": id, "admin_id": user.ID}).Info("service request deleted")
	return nil
}

type bookingMail func(to, name string, b notify.BookingDetails, frontendURL string) (notify.Message, error)

func (s *RequestService) notify(build bookingMail, user *models.User, req *models.ServiceRequest) {
	msg, err := build(user.Email, user.Name, notify.BookingDetails{
		ID:          req.ID,
		Pickup:      req.PickupLocation,
		Dropoff:     req.DropoffLocation,
		MovingDate:  req.MovingDate,
		ServiceType: req.ServiceType,
	}, s.frontendURL)
	dispatch(s.notifier, s.log, msg, err)
}
