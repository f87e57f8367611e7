package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"ms-booking/internal/apperr"
	"ms-booking/internal/config"
	"ms-booking/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
)

type fakeIntents struct {
	last   *stripe.PaymentIntentParams
	intent *stripe.PaymentIntent
	err    error
}

func (f *fakeIntents) New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.last = params
	return f.intent, f.err
}

func newTestService(intents IntentCreator) *StripeService {
	cfg := config.StripeConfig{Currency: "usd", ReturnURL: "http://localhost:3000"}
	return NewStripeServiceWithIntents(intents, cfg, logger.NewNopLogger())
}

func TestCreatePaymentIntent_Success(t *testing.T) {
	fake := &fakeIntents{intent: &stripe.PaymentIntent{
		ID:       "pi_123",
		Status:   stripe.PaymentIntentStatusSucceeded,
		Amount:   2500,
		Currency: stripe.CurrencyUSD,
	}}
	svc := newTestService(fake)

	conf, err := svc.CreatePaymentIntent(context.Background(), 2500, "pm_card_visa", "ticket-1")
	require.NoError(t, err)
	assert.Equal(t, "pi_123", conf.ID)
	assert.Equal(t, "succeeded", conf.Status)
	assert.Equal(t, int64(2500), conf.Amount)

	require.NotNil(t, fake.last)
	assert.Equal(t, int64(2500), *fake.last.Amount)
	assert.Equal(t, "usd", *fake.last.Currency)
	assert.Equal(t, "pm_card_visa", *fake.last.PaymentMethod)
	assert.True(t, *fake.last.Confirm)
	assert.Equal(t, "http://localhost:3000", *fake.last.ReturnURL)
	assert.Equal(t, "ticket-1", fake.last.Metadata["ticket_id"])
}

func TestCreatePaymentIntent_CardErrorIsDeclined(t *testing.T) {
	fake := &fakeIntents{err: &stripe.Error{Type: stripe.ErrorTypeCard, Msg: "Your card was declined."}}
	svc := newTestService(fake)

	_, err := svc.CreatePaymentIntent(context.Background(), 100, "pm_card_chargeDeclined", "ticket-1")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindPaymentDeclined))
	assert.Equal(t, "Your card was declined.", apperr.From(err).Message)
}

func TestCreatePaymentIntent_InvalidRequestIsDeclined(t *testing.T) {
	fake := &fakeIntents{err: &stripe.Error{
		Type:           stripe.ErrorTypeInvalidRequest,
		HTTPStatusCode: http.StatusBadRequest,
		Msg:            "No such PaymentMethod: 'pm_bogus'",
	}}
	svc := newTestService(fake)

	_, err := svc.CreatePaymentIntent(context.Background(), 100, "pm_bogus", "ticket-1")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindPaymentDeclined))
	assert.Equal(t, http.StatusBadRequest, apperr.From(err).Status())
	assert.Equal(t, "No such PaymentMethod: 'pm_bogus'", apperr.From(err).Message)
}

func TestCreatePaymentIntent_StripeServerErrorsStayInternal(t *testing.T) {
	cases := map[string]*stripe.Error{
		"api error":    {Type: stripe.ErrorTypeAPI, HTTPStatusCode: http.StatusInternalServerError, Msg: "boom"},
		"bad api key":  {Type: stripe.ErrorTypeInvalidRequest, HTTPStatusCode: http.StatusUnauthorized, Msg: "Invalid API Key"},
		"rate limited": {Type: stripe.ErrorTypeInvalidRequest, HTTPStatusCode: http.StatusTooManyRequests, Msg: "slow down"},
	}
	for name, stripeErr := range cases {
		t.Run(name, func(t *testing.T) {
			svc := newTestService(&fakeIntents{err: stripeErr})
			_, err := svc.CreatePaymentIntent(context.Background(), 100, "pm_card_visa", "ticket-1")
			assert.ErrorIs(t, err, ErrStripeAPIError)
			assert.Equal(t, http.StatusInternalServerError, apperr.From(err).Status())
		})
	}
}

func TestCreatePaymentIntent_APIErrorIsInternal(t *testing.T) {
	fake := &fakeIntents{err: errors.New("connection reset")}
	svc := newTestService(fake)

	_, err := svc.CreatePaymentIntent(context.Background(), 100, "pm_card_visa", "ticket-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStripeAPIError)
	assert.False(t, apperr.IsKind(err, apperr.KindPaymentDeclined))
}

func TestCreatePaymentIntent_CanceledIntentIsDeclined(t *testing.T) {
	fake := &fakeIntents{intent: &stripe.PaymentIntent{ID: "pi_9", Status: stripe.PaymentIntentStatusCanceled}}
	svc := newTestService(fake)

	_, err := svc.CreatePaymentIntent(context.Background(), 100, "pm_card_visa", "ticket-1")
	assert.True(t, apperr.IsKind(err, apperr.KindPaymentDeclined))
}

func TestNewStripeService_RequiresKey(t *testing.T) {
	_, err := NewStripeService(config.StripeConfig{}, logger.NewNopLogger())
	assert.ErrorIs(t, err, ErrStripeClientInitFailed)
}
