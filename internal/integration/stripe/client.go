package stripe

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"

	"github.com/1code1day/platform-service/pkg/logger"
)

const (
	// Ключ метаданных для связи Stripe сущностей с нашим userID
	metadataUserIDKey = "user_id"
)

// CheckoutParams параметры создания checkout-сессии
type CheckoutParams struct {
	UserID     string
	Email      string
	PriceID    string
	SuccessURL string
	CancelURL  string
}

// Client определяет используемое подмножество Stripe API
type Client interface {
	// CreateCheckoutSession создает checkout-сессию в режиме подписки
	// и возвращает URL для перенаправления пользователя.
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (sessionID, url string, err error)

	// GetCheckoutSession возвращает checkout-сессию с раскрытой подпиской
	GetCheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error)

	// GetSubscription возвращает подписку Stripe
	GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)

	// ListActiveSubscriptions возвращает активные подписки клиента
	ListActiveSubscriptions(ctx context.Context, customerID string) ([]*stripe.Subscription, error)

	// SetCancelAtPeriodEnd помечает подписку к отмене в конце периода
	// (cancel=false снимает отметку и возобновляет подписку)
	SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*stripe.Subscription, error)
}

type stripeClient struct {
	client *client.API
	log    *logger.Logger
}

// NewClient создает новый клиент Stripe
func NewClient(apiKey string, log *logger.Logger) Client {
	sc := &client.API{}
	sc.Init(apiKey, nil)
	return &stripeClient{client: sc, log: log}
}

// CreateCheckoutSession создает checkout-сессию в режиме подписки.
// userID кладется и в client_reference_id сессии, и в метаданные будущей
// подписки, чтобы вебхуки могли восстановить владельца.
func (sc *stripeClient) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (string, string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		CustomerEmail:     stripe.String(p.Email),
		ClientReferenceID: stripe.String(p.UserID),
		SuccessURL:        stripe.String(p.SuccessURL),
		CancelURL:         stripe.String(p.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				metadataUserIDKey: p.UserID,
			},
		},
	}
	params.Context = ctx

	sess, err := sc.client.CheckoutSessions.New(params)
	if err != nil {
		logStripeError(sc.log, "CreateCheckoutSession", err)
		return "", "", fmt.Errorf("stripe: failed to create checkout session: %w", err)
	}

	sc.log.Infow("Stripe checkout session created", "sessionID", sess.ID, "userID", p.UserID)
	return sess.ID, sess.URL, nil
}

// GetCheckoutSession возвращает checkout-сессию с раскрытой подпиской
func (sc *stripeClient) GetCheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("subscription")

	sess, err := sc.client.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		logStripeError(sc.log, "GetCheckoutSession", err)
		return nil, fmt.Errorf("stripe: failed to get checkout session: %w", err)
	}
	return sess, nil
}

// GetSubscription возвращает подписку Stripe
func (sc *stripeClient) GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := sc.client.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		logStripeError(sc.log, "GetSubscription", err)
		return nil, fmt.Errorf("stripe: failed to get subscription: %w", err)
	}
	return sub, nil
}

// ListActiveSubscriptions возвращает активные подписки клиента Stripe
func (sc *stripeClient) ListActiveSubscriptions(ctx context.Context, customerID string) ([]*stripe.Subscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String(string(stripe.SubscriptionStatusActive)),
	}
	params.Context = ctx

	var subs []*stripe.Subscription
	iter := sc.client.Subscriptions.List(params)
	for iter.Next() {
		subs = append(subs, iter.Subscription())
	}
	if err := iter.Err(); err != nil {
		logStripeError(sc.log, "ListActiveSubscriptions", err)
		return nil, fmt.Errorf("stripe: failed to list subscriptions: %w", err)
	}
	return subs, nil
}

// SetCancelAtPeriodEnd помечает подписку к отмене в конце оплаченного
// периода (или снимает отметку). Немедленной отмены не происходит.
func (sc *stripeClient) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(cancel),
	}
	params.Context = ctx

	sub, err := sc.client.Subscriptions.Update(subscriptionID, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
			sc.log.Warnw("Attempted to update missing Stripe subscription", "stripeSubscriptionID", subscriptionID)
			return nil, fmt.Errorf("stripe: subscription not found: %w", err)
		}
		logStripeError(sc.log, "SetCancelAtPeriodEnd", err)
		return nil, fmt.Errorf("stripe: failed to update subscription: %w", err)
	}

	sc.log.Infow("Stripe subscription cancel flag updated", "stripeSubscriptionID", subscriptionID, "cancelAtPeriodEnd", cancel)
	return sub, nil
}

// logStripeError логирует детали ошибки Stripe API
func logStripeError(log *logger.Logger, operation string, err error) {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		log.Errorw("Stripe API error",
			"operation", operation,
			"type", string(stripeErr.Type),
			"code", string(stripeErr.Code),
			"message", stripeErr.Msg,
			"request_id", stripeErr.RequestID,
			"status_code", stripeErr.HTTPStatusCode,
		)
	} else {
		log.Errorw("Non-Stripe error during Stripe operation",
			"operation", operation,
			"error", err,
		)
	}
}
