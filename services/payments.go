package services

import (
	"context"
	"fmt"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"

	"movers-api/metrics"
	"movers-api/models"
	"movers-api/payment"
	"movers-api/statemachine"
	"movers-api/store"
)

// VerifyInput is the checkout callback posted by the client.
type VerifyInput struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
	RequestID uint   `json:"request_id"`
}

type PaymentConfig struct {
	KeySecret string
	Currency  string
}

type PaymentService struct {
	store   *store.Store
	gateway payment.Gateway
	cfg     PaymentConfig
	log     logrus.FieldLogger
}

// NewPaymentService wires the payment operations. gateway may be nil when
// no gateway key is configured.
func NewPaymentService(st *store.Store, gateway payment.Gateway, cfg PaymentConfig, log logrus.FieldLogger) *PaymentService {
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	return &PaymentService{store: st, gateway: gateway, cfg: cfg, log: log}
}

// CreateOrder opens a gateway order for the request's estimated price.
func (s *PaymentService) CreateOrder(ctx context.Context, user *models.User, requestID uint) (payment.Order, error) {
	req, err := s.store.RequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	actor, err := actorFor(ctx, s.store, user)
	if err != nil {
		return nil, err
	}
	if err := statemachine.CanView(actor, req); err != nil {
		return nil, err
	}
	if req.Price() <= 0 {
		return nil, errors.NewNotValid(nil, "Request has no estimated price to pay")
	}
	if s.gateway == nil {
		return nil, errors.Annotate(ErrNotConfigured, "payment gateway key")
	}

	order, err := s.gateway.CreateOrder(ctx, payment.OrderRequest{
		Amount:   payment.MinorUnits(req.Price()),
		Currency: s.cfg.Currency,
		Receipt:  fmt.Sprintf("receipt_%d", req.ID),
		Notes:    map[string]string{"request_id": fmt.Sprint(req.ID)},
	})
	if err != nil {
		s.log.WithError(err).WithField("request_id", req.ID).Error("create payment order")
		return nil, err
	}
	return order, nil
}

// Verify checks the gateway signature and, on success, records the payment
// and accepts the request in one transaction.
func (s *PaymentService) Verify(ctx context.Context, user *models.User, in VerifyInput) (p *models.Payment, err error) {
	defer func() { metrics.RecordPaymentVerification(err) }()

	if s.cfg.KeySecret == "" {
		return nil, errors.Annotate(ErrNotConfigured, "payment gateway secret")
	}
	if !payment.VerifySignature(s.cfg.KeySecret, in.OrderID, in.PaymentID, in.Signature) {
		s.log.WithFields(logrus.Fields{"order_id": in.OrderID, "user_id": user.ID}).Warn("payment signature mismatch")
		return nil, errors.NewNotValid(nil, "Invalid payment signature")
	}

	req, err := s.store.RequestByID(ctx, in.RequestID)
	if err != nil {
		return nil, err
	}
	client, err := s.store.ClientProfileByUser(ctx, user.ID)
	if err != nil {
		if errors.Is(err, errors.NotFound) {
			return nil, errors.NewNotFound(nil, "Client profile not found")
		}
		return nil, err
	}
	if req.ClientID != client.ID {
		return nil, errors.NewForbidden(nil, "You can only pay for your own requests")
	}
	exists, err := s.store.PaymentExists(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.NewAlreadyExists(nil, "Payment already recorded for this request")
	}
	if err := statemachine.DecidePayment(req); err != nil {
		return nil, err
	}

	p = &models.Payment{
		RequestID:     req.ID,
		ClientID:      client.ID,
		ProviderID:    req.ClaimedBy,
		Amount:        req.Price(),
		Method:        models.MethodRazorpay,
		PaymentStatus: models.PaymentRecordCompleted,
		ReleaseStatus: models.ReleaseHeld,
		OrderID:       in.OrderID,
		TransactionID: in.PaymentID,
	}
	err = s.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.CreatePayment(ctx, p); err != nil {
			return err
		}
		if err := tx.UpdateRequestStatus(ctx, req.ID, store.StatusChange{
			From:    req.Status,
			To:      models.StatusAccepted,
			Payment: models.PaymentPaid,
		}); err != nil {
			return err
		}
		if req.Status == models.StatusAccepted {
			return nil
		}
		return tx.AddHistory(ctx, &models.RequestStatusHistory{
			RequestID:  req.ID,
			FromStatus: req.Status,
			ToStatus:   models.StatusAccepted,
			ChangedBy:  user.ID,
			Note:       "payment " + in.PaymentID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"request_id": req.ID, "payment_id": p.ID, "amount": p.Amount}).Info("payment verified")
	return p, nil
}

// Details returns a payment with its request and provider expanded. Callers
// need read access to the paid request.
func (s *PaymentService) Details(ctx context.Context, user *models.User, id uint) (*models.Payment, error) {
	p, err := s.store.PaymentDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	actor, err := actorFor(ctx, s.store, user)
	if err != nil {
		return nil, err
	}
	if p.Request == nil {
		if !actor.IsAdmin() {
			return nil, errors.NewForbidden(nil, "not authorized to view this payment")
		}
		return p, nil
	}
	if err := statemachine.CanView(actor, p.Request); err != nil {
		return nil, err
	}
	return p, nil
}
