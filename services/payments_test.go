package services

import (
	"context"
	"testing"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movers-api/models"
	"movers-api/payment"
)

const gatewaySecret = "rzp_test_secret"

type fakeGateway struct {
	got payment.OrderRequest
	err error
}

func (g *fakeGateway) CreateOrder(_ context.Context, req payment.OrderRequest) (payment.Order, error) {
	g.got = req
	if g.err != nil {
		return nil, g.err
	}
	return payment.Order{"id": "order_1", "amount": req.Amount, "currency": req.Currency}, nil
}

func (e *env) payments(t *testing.T, secret string, gw payment.Gateway) *PaymentService {
	log, _ := test.NewNullLogger()
	return NewPaymentService(e.store, gw, PaymentConfig{KeySecret: secret}, log)
}

func TestCreateOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	client := e.client(t, "payer")
	req := e.book(t, client, 4999.5)

	gw := &fakeGateway{}
	order, err := e.payments(t, gatewaySecret, gw).CreateOrder(ctx, client, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "order_1", order["id"])
	assert.Equal(t, int64(499950), gw.got.Amount)
	assert.Equal(t, "INR", gw.got.Currency)
	assert.Equal(t, "receipt_1", gw.got.Receipt)

	_, err = e.payments(t, gatewaySecret, gw).CreateOrder(ctx, client, 99)
	assert.True(t, errors.Is(err, errors.NotFound), "got %v", err)

	_, err = e.payments(t, gatewaySecret, nil).CreateOrder(ctx, client, req.ID)
	assert.True(t, errors.Is(err, ErrNotConfigured), "got %v", err)

	free, err := e.requests.Create(ctx, client, CreateRequestInput{
		PickupLocation: "a", DropoffLocation: "b", MovingDate: "2026-04-01", ServiceType: "home",
	})
	require.NoError(t, err)
	_, err = e.payments(t, gatewaySecret, gw).CreateOrder(ctx, client, free.ID)
	assert.True(t, errors.Is(err, errors.NotValid), "got %v", err)
}

func TestVerifyPayment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	client := e.client(t, "payer")
	stranger := e.client(t, "stranger")
	admin := e.approvedAdmin(t, "admin")
	req := e.book(t, client, 3000)
	_, err := e.requests.Claim(ctx, admin, req.ID)
	require.NoError(t, err)

	svc := e.payments(t, gatewaySecret, nil)
	good := VerifyInput{
		OrderID:   "order_9",
		PaymentID: "pay_9",
		Signature: payment.Sign(gatewaySecret, "order_9", "pay_9"),
		RequestID: req.ID,
	}

	_, err = e.payments(t, "", nil).Verify(ctx, client, good)
	assert.True(t, errors.Is(err, ErrNotConfigured), "got %v", err)

	bad := good
	bad.Signature = payment.Sign(gatewaySecret, "order_9", "pay_8")
	_, err = svc.Verify(ctx, client, bad)
	assert.True(t, errors.Is(err, errors.NotValid), "got %v", err)

	missing := good
	missing.RequestID = 404
	_, err = svc.Verify(ctx, client, missing)
	assert.True(t, errors.Is(err, errors.NotFound), "got %v", err)

	_, err = svc.Verify(ctx, admin, good)
	assert.True(t, errors.Is(err, errors.NotFound), "got %v", err)

	_, err = svc.Verify(ctx, stranger, good)
	assert.True(t, errors.Is(err, errors.Forbidden), "got %v", err)

	p, err := svc.Verify(ctx, client, good)
	require.NoError(t, err)
	assert.Equal(t, 3000.0, p.Amount)
	assert.Equal(t, models.MethodRazorpay, p.Method)
	assert.Equal(t, "pay_9", p.TransactionID)
	require.NotNil(t, p.ProviderID)
	assert.Equal(t, admin.ID, *p.ProviderID)

	got, err := e.store.RequestByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, got.Status)
	assert.Equal(t, models.PaymentPaid, got.PaymentStatus)

	_, err = svc.Verify(ctx, client, good)
	assert.True(t, errors.Is(err, errors.AlreadyExists), "got %v", err)

	assert.Equal(t, models.ReleaseHeld, p.ReleaseStatus)

	details, err := svc.Details(ctx, client, p.ID)
	require.NoError(t, err)
	require.NotNil(t, details.Request)
	require.NotNil(t, details.Provider)
	assert.Equal(t, admin.Email, details.Provider.Email)

	_, err = svc.Details(ctx, admin, p.ID)
	assert.NoError(t, err)
	_, err = svc.Details(ctx, stranger, p.ID)
	assert.True(t, errors.Is(err, errors.Forbidden), "got %v", err)
	_, err = svc.Details(ctx, client, 404)
	assert.True(t, errors.Is(err, errors.NotFound), "got %v", err)
}

func TestVerifyRejectsTerminalRequest(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	client := e.client(t, "payer")
	req := e.book(t, client, 3000)
	e.setStatus(t, client, req.ID, models.StatusCancelled)

	_, err := e.payments(t, gatewaySecret, nil).Verify(ctx, client, VerifyInput{
		OrderID:   "o",
		PaymentID: "p",
		Signature: payment.Sign(gatewaySecret, "o", "p"),
		RequestID: req.ID,
	})
	assert.True(t, errors.Is(err, errors.NotValid), "got %v", err)

	exists, err := e.store.PaymentExists(ctx, req.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}
