package domain

import "errors"

var (
	// ErrMissingUserID нарушение предусловия: сверка без идентификатора пользователя
	ErrMissingUserID = errors.New("user id is required")

	// ErrMissingSubscription в checkout-сессии нет привязанной подписки
	ErrMissingSubscription = errors.New("checkout session has no subscription")

	// ErrNoSubscriptionMapping для Stripe subscription id нет локального маппинга
	ErrNoSubscriptionMapping = errors.New("no local mapping for stripe subscription")

	// ErrNoBillingIdentity у пользователя нет сохраненных Stripe идентификаторов
	ErrNoBillingIdentity = errors.New("no stripe identity stored for user")

	// ErrPriceNotConfigured для комбинации план+цикл не задан price id
	ErrPriceNotConfigured = errors.New("no price configured for plan/billing cycle")

	// ErrInvalidOperation недопустимая операция над текущим состоянием
	ErrInvalidOperation = errors.New("invalid operation")
)
