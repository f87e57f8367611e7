package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"ms-booking/internal/apperr"
	"ms-booking/internal/config"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

var (
	ErrStripeAPIError         = errors.New("stripe API error")
	ErrStripeClientInitFailed = errors.New("failed to initialize Stripe client")
)

// IntentCreator is the slice of the Stripe API used to charge a card.
type IntentCreator interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// StripeService charges tickets through Stripe payment intents.
type StripeService struct {
	intents   IntentCreator
	currency  string
	returnURL string
	log       *logger.Logger
}

func NewStripeService(cfg config.StripeConfig, log *logger.Logger) (*StripeService, error) {
	if cfg.SecretKey == "" {
		log.Error("STRIPE", "STRIPE_SECRET_KEY environment variable not set")
		return nil, ErrStripeClientInitFailed
	}

	sc := client.New(cfg.SecretKey, nil)
	if sc == nil {
		log.Error("STRIPE", "Failed to initialize Stripe client")
		return nil, ErrStripeClientInitFailed
	}

	log.Info("STRIPE", "Stripe client initialized successfully")
	return NewStripeServiceWithIntents(sc.PaymentIntents, cfg, log), nil
}

// NewStripeServiceWithIntents builds the service around an existing intents client.
func NewStripeServiceWithIntents(intents IntentCreator, cfg config.StripeConfig, log *logger.Logger) *StripeService {
	currency := cfg.Currency
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &StripeService{
		intents:   intents,
		currency:  currency,
		returnURL: cfg.ReturnURL,
		log:       log,
	}
}

// CreatePaymentIntent creates and confirms a payment intent for amount minor
// units. Card and invalid request errors, and intents Stripe refuses, come
// back as apperr.Declined.
func (s *StripeService) CreatePaymentIntent(ctx context.Context, amount int64, paymentMethod, ticketID string) (*models.PaymentConfirmation, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(amount),
		Currency:      stripe.String(s.currency),
		PaymentMethod: stripe.String(paymentMethod),
		Confirm:       stripe.Bool(true),
	}
	if s.returnURL != "" {
		params.ReturnURL = stripe.String(s.returnURL)
	}
	params.Context = ctx
	params.AddMetadata("ticket_id", ticketID)

	s.log.Info("STRIPE", fmt.Sprintf("Creating payment intent for ticket %s, amount: %d %s", ticketID, amount, s.currency))
	pi, err := s.intents.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && isClientError(stripeErr) {
			s.log.Warn("STRIPE", fmt.Sprintf("Payment rejected for ticket %s (%s): %s", ticketID, stripeErr.Type, stripeErr.Msg))
			return nil, apperr.Declined(stripeErr.Msg, err)
		}
		s.log.Error("STRIPE", fmt.Sprintf("Failed to create payment intent: %v", err))
		return nil, fmt.Errorf("%w: %v", ErrStripeAPIError, err)
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusCanceled, stripe.PaymentIntentStatusRequiresPaymentMethod:
		s.log.Warn("STRIPE", fmt.Sprintf("Payment intent %s not accepted: %s", pi.ID, pi.Status))
		return nil, apperr.Declined("Payment failed", nil)
	}

	s.log.Info("STRIPE", fmt.Sprintf("Payment intent created: %s (%s)", pi.ID, pi.Status))
	return &models.PaymentConfirmation{
		ID:       pi.ID,
		Status:   string(pi.Status),
		Amount:   pi.Amount,
		Currency: string(pi.Currency),
	}, nil
}

// isClientError reports whether Stripe rejected the payment details the caller
// sent. Outages, auth and rate limit failures stay internal.
func isClientError(err *stripe.Error) bool {
	switch err.Type {
	case stripe.ErrorTypeCard, stripe.ErrorTypeInvalidRequest:
		return err.HTTPStatusCode != http.StatusUnauthorized && err.HTTPStatusCode != http.StatusTooManyRequests
	}
	return false
}
