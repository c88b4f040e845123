package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	stripego "github.com/stripe/stripe-go/v78"

	"github.com/1code1day/platform-service/internal/domain"
	"github.com/1code1day/platform-service/internal/email"
	stripeint "github.com/1code1day/platform-service/internal/integration/stripe"
	"github.com/1code1day/platform-service/internal/kafka"
	"github.com/1code1day/platform-service/internal/metrics"
	"github.com/1code1day/platform-service/internal/repository"
	"github.com/1code1day/platform-service/pkg/logger"
)

// Точки входа сверки для метрик
const (
	EntryWebhook = "webhook"
	EntryVerify  = "verify"
	EntrySync    = "sync"
)

const verifyMaxRetries = 3

var verifyRetryInterval = 2 * time.Second

// ErrCheckoutPending checkout-сессия еще не привязана к подписке
var ErrCheckoutPending = errors.New("checkout session has no subscription yet")

// SubscriptionStore хранилище подписок, используемое сервисом
type SubscriptionStore interface {
	Upsert(ctx context.Context, rec domain.SubscriptionRecord) (domain.Subscription, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (domain.Subscription, error)
	GetByStripeSubscriptionID(ctx context.Context, stripeSubID string) (domain.Subscription, error)
	MarkCanceledByStripeID(ctx context.Context, stripeSubID string, canceledAt time.Time) (domain.Subscription, error)
	SetCancelAtPeriodEnd(ctx context.Context, userID uuid.UUID, cancel bool) (domain.Subscription, error)
}

// ProfileStore зеркало подписки на профиле
type ProfileStore interface {
	UpdateMirror(ctx context.Context, userID uuid.UUID, m domain.ProfileMirror) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (domain.Profile, error)
}

// ProfileCacher кэш зеркал профиля
type ProfileCacher interface {
	Set(ctx context.Context, userID uuid.UUID, m domain.ProfileMirror) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// SubscriptionService операции над подписками
type SubscriptionService interface {
	// Reconcile атомарно записывает нормализованные данные подписки
	// и обновляет зеркало профиля
	Reconcile(ctx context.Context, rec domain.SubscriptionRecord, entryPoint string) (domain.Subscription, error)

	// HandleWebhookEvent обрабатывает верифицированное событие Stripe
	HandleWebhookEvent(ctx context.Context, event stripego.Event) error

	// CreateCheckoutSession создает checkout-сессию для перехода к оплате
	CreateCheckoutSession(ctx context.Context, req domain.CheckoutRequest) (sessionID, url string, err error)

	// VerifyCheckoutSession сверяет подписку по завершенной checkout-сессии,
	// ожидая привязку подписки с ограниченным числом повторов
	VerifyCheckoutSession(ctx context.Context, sessionID string) (domain.Subscription, error)

	// Cancel помечает подписку к отмене в конце оплаченного периода
	Cancel(ctx context.Context, userID uuid.UUID) (domain.Subscription, error)

	// Resume снимает отметку об отмене до конца периода
	Resume(ctx context.Context, userID uuid.UUID) (domain.Subscription, error)

	// SyncByUser запрашивает состояние из Stripe и сверяет локальную запись
	SyncByUser(ctx context.Context, userID uuid.UUID) (domain.Subscription, error)

	// GetStatus возвращает локальную запись подписки, при отсутствии
	// возвращает свободный план
	GetStatus(ctx context.Context, userID uuid.UUID) (domain.Subscription, error)
}

type subscriptionService struct {
	subs     SubscriptionStore
	profiles ProfileStore
	cache    ProfileCacher
	stripe   stripeint.Client
	producer kafka.SubscriptionProducer
	metrics  metrics.BillingMetrics
	sender   email.Sender
	prices   PriceResolver
	urls     CheckoutURLs
	log      *logger.Logger
}

// PriceResolver возвращает Stripe price ID для плана и цикла оплаты
type PriceResolver func(plan, billingCycle string) string

// CheckoutURLs адреса возврата после checkout
type CheckoutURLs struct {
	SuccessURL string
	CancelURL  string
}

// NewSubscriptionService создает сервис подписок. cache, producer и
// sender могут быть nil, соответствующие шаги тогда пропускаются.
func NewSubscriptionService(
	subs SubscriptionStore,
	profiles ProfileStore,
	cache ProfileCacher,
	stripeClient stripeint.Client,
	producer kafka.SubscriptionProducer,
	billingMetrics metrics.BillingMetrics,
	sender email.Sender,
	prices PriceResolver,
	urls CheckoutURLs,
	log *logger.Logger,
) SubscriptionService {
	return &subscriptionService{
		subs:     subs,
		profiles: profiles,
		cache:    cache,
		stripe:   stripeClient,
		producer: producer,
		metrics:  billingMetrics,
		sender:   sender,
		prices:   prices,
		urls:     urls,
		log:      log,
	}
}

// Reconcile единая точка записи состояния подписки. Все входы
// (вебхук, проверка сессии, ручная синхронизация) сходятся сюда;
// запись выполняется одним атомарным upsert, последняя запись
// выигрывает. Зеркало профиля и события обновляются по возможности,
// их сбои не откатывают сверку.
func (s *subscriptionService) Reconcile(ctx context.Context, rec domain.SubscriptionRecord, entryPoint string) (domain.Subscription, error) {
	if rec.UserID == uuid.Nil {
		return domain.Subscription{}, domain.ErrMissingUserID
	}
	rec.Normalize()

	_, err := s.subs.GetByUserID(ctx, rec.UserID)
	firstReconcile := errors.Is(err, repository.ErrNotFound)

	started := time.Now()
	sub, err := s.subs.Upsert(ctx, rec)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("reconcile subscription: %w", err)
	}
	s.metrics.IncReconciliation(entryPoint)
	s.metrics.ObserveReconcileDuration(time.Since(started).Seconds())

	s.mirrorProfile(ctx, &sub)
	s.publishLifecycleEvent(sub)
	if firstReconcile && sub.IsPro() {
		s.sendLifecycleEmail(ctx, sub.UserID, welcomeEmailSubject, welcomeEmailBody)
	}

	s.log.Infow("Subscription reconciled",
		"userID", sub.UserID, "plan", sub.PlanID, "status", sub.Status, "entryPoint", entryPoint)
	return sub, nil
}

// mirrorProfile обновляет зеркало подписки на профиле и в кэше.
// Сбои только логируются: источником истины остается subscriptions.
func (s *subscriptionService) mirrorProfile(ctx context.Context, sub *domain.Subscription) {
	m := domain.MirrorOf(sub)
	if err := s.profiles.UpdateMirror(ctx, sub.UserID, m); err != nil {
		s.log.Errorw("Failed to mirror subscription to profile", "userID", sub.UserID, "error", err)
	}
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, sub.UserID, m); err != nil {
		s.log.Warnw("Failed to cache profile mirror", "userID", sub.UserID, "error", err)
	}
}

// publishLifecycleEvent публикует событие подписки в Kafka (best-effort)
func (s *subscriptionService) publishLifecycleEvent(sub domain.Subscription) {
	if s.producer == nil {
		return
	}
	topic := kafka.TopicSubscriptionActivated
	switch sub.Status {
	case domain.SubscriptionStatusCanceling:
		topic = kafka.TopicSubscriptionCanceling
	case domain.SubscriptionStatusCanceled:
		topic = kafka.TopicSubscriptionCanceled
	}
	if err := s.producer.PublishSubscriptionEvent(topic, sub); err != nil {
		s.log.Warnw("Failed to publish subscription event", "userID", sub.UserID, "topic", topic, "error", err)
	}
}

const (
	welcomeEmailSubject = "Welcome to 1code1day Premium"
	welcomeEmailBody    = "<p>Your premium subscription is active. A new challenge is waiting for you every day.</p>"

	canceledEmailSubject = "Your 1code1day subscription has ended"
	canceledEmailBody    = "<p>Your premium subscription has ended and your account is back on the free plan.</p>"
)

// sendLifecycleEmail отправляет письмо жизненного цикла подписки.
// Почта best-effort: отсутствие адреса или сбой провайдера не влияют
// на результат сверки.
func (s *subscriptionService) sendLifecycleEmail(ctx context.Context, userID uuid.UUID, subject, html string) {
	if s.sender == nil {
		return
	}
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil || profile.Email == "" {
		s.log.Debugw("No email address for lifecycle mail", "userID", userID, "error", err)
		return
	}
	if err := s.sender.Send(ctx, profile.Email, subject, html); err != nil {
		s.log.Warnw("Failed to send lifecycle email", "userID", userID, "subject", subject, "error", err)
	}
}

// HandleWebhookEvent разбирает верифицированное событие Stripe.
// Неизвестные типы событий подтверждаются без обработки.
func (s *subscriptionService) HandleWebhookEvent(ctx context.Context, event stripego.Event) error {
	var err error
	switch event.Type {
	case "checkout.session.completed":
		err = s.handleCheckoutCompleted(ctx, event)
	case "customer.subscription.updated":
		err = s.handleSubscriptionUpdated(ctx, event)
	case "customer.subscription.deleted":
		err = s.handleSubscriptionDeleted(ctx, event)
	default:
		s.log.Debugw("Ignoring unhandled webhook event", "type", event.Type, "eventID", event.ID)
		s.metrics.IncWebhookEvent(string(event.Type), "ignored")
		return nil
	}

	if err != nil {
		s.metrics.IncWebhookEvent(string(event.Type), "failed")
		return err
	}
	s.metrics.IncWebhookEvent(string(event.Type), "processed")
	return nil
}

func (s *subscriptionService) handleCheckoutCompleted(ctx context.Context, event stripego.Event) error {
	var sess stripego.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("unmarshal checkout session: %w", err)
	}

	userID, err := uuid.Parse(sess.ClientReferenceID)
	if err != nil {
		return fmt.Errorf("%w: checkout session %s has no client_reference_id", domain.ErrMissingUserID, sess.ID)
	}

	// Сессия без подписки не сверяется: запись не создается
	if sess.Subscription == nil || sess.Subscription.ID == "" {
		return fmt.Errorf("%w: checkout session %s", domain.ErrMissingSubscription, sess.ID)
	}

	// В событии подписка приходит нераскрытой, забираем ее целиком
	sub, err := s.stripe.GetSubscription(ctx, sess.Subscription.ID)
	if err != nil {
		return err
	}

	_, err = s.Reconcile(ctx, stripeint.ToRecord(userID, sub), EntryWebhook)
	return err
}

func (s *subscriptionService) handleSubscriptionUpdated(ctx context.Context, event stripego.Event) error {
	var sub stripego.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("unmarshal subscription: %w", err)
	}

	userID := stripeint.UserIDOf(&sub)
	if userID == uuid.Nil {
		// Метаданных нет, ищем владельца по локальной привязке
		local, err := s.subs.GetByStripeSubscriptionID(ctx, sub.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: stripe subscription %s", domain.ErrNoSubscriptionMapping, sub.ID)
			}
			return err
		}
		userID = local.UserID
	}

	_, err := s.Reconcile(ctx, stripeint.ToRecord(userID, &sub), EntryWebhook)
	return err
}

func (s *subscriptionService) handleSubscriptionDeleted(ctx context.Context, event stripego.Event) error {
	var sub stripego.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("unmarshal subscription: %w", err)
	}

	canceledAt := time.Now().UTC()
	if sub.CanceledAt > 0 {
		canceledAt = time.Unix(sub.CanceledAt, 0).UTC()
	}

	local, err := s.subs.MarkCanceledByStripeID(ctx, sub.ID, canceledAt)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Подписка нам неизвестна, событие подтверждаем без обработки
			s.log.Warnw("Deleted subscription has no local record", "stripeSubscriptionID", sub.ID)
			return nil
		}
		return err
	}

	s.mirrorProfile(ctx, &local)
	s.publishLifecycleEvent(local)
	s.sendLifecycleEmail(ctx, local.UserID, canceledEmailSubject, canceledEmailBody)
	s.log.Infow("Subscription canceled", "userID", local.UserID, "stripeSubscriptionID", sub.ID)
	return nil
}

// CreateCheckoutSession создает checkout-сессию Stripe для оплаты плана
func (s *subscriptionService) CreateCheckoutSession(ctx context.Context, req domain.CheckoutRequest) (string, string, error) {
	priceID := s.prices(req.Plan, req.BillingCycle)
	if priceID == "" {
		return "", "", fmt.Errorf("%w: plan=%s cycle=%s", domain.ErrPriceNotConfigured, req.Plan, req.BillingCycle)
	}

	sessionID, url, err := s.stripe.CreateCheckoutSession(ctx, stripeint.CheckoutParams{
		UserID:     req.UserID,
		Email:      req.Email,
		PriceID:    priceID,
		SuccessURL: s.urls.SuccessURL,
		CancelURL:  s.urls.CancelURL,
	})
	if err != nil {
		return "", "", err
	}

	s.metrics.IncCheckoutSession(req.Plan)
	return sessionID, url, nil
}

// VerifyCheckoutSession сверяет подписку после возврата пользователя со
// страницы оплаты. Stripe привязывает подписку к сессии асинхронно,
// поэтому ожидание выполняется на сервере с ограниченными повторами,
// клиенту не нужно опрашивать самому.
func (s *subscriptionService) VerifyCheckoutSession(ctx context.Context, sessionID string) (domain.Subscription, error) {
	var sess *stripego.CheckoutSession

	operation := func() error {
		var err error
		sess, err = s.stripe.GetCheckoutSession(ctx, sessionID)
		if err != nil {
			return backoff.Permanent(err)
		}
		if sess.Subscription == nil || sess.Subscription.ID == "" {
			return ErrCheckoutPending
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(verifyRetryInterval), verifyMaxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return domain.Subscription{}, fmt.Errorf("verify checkout session %s: %w", sessionID, err)
	}

	userID, err := uuid.Parse(sess.ClientReferenceID)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("%w: checkout session %s", domain.ErrMissingUserID, sessionID)
	}

	sub := sess.Subscription
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		// Раскрытие не дало полный объект, дозапрашиваем
		sub, err = s.stripe.GetSubscription(ctx, sub.ID)
		if err != nil {
			return domain.Subscription{}, err
		}
	}

	return s.Reconcile(ctx, stripeint.ToRecord(userID, sub), EntryVerify)
}

// Cancel помечает подписку к отмене в конце оплаченного периода.
// Доступ сохраняется до конца периода, немедленной отмены нет.
func (s *subscriptionService) Cancel(ctx context.Context, userID uuid.UUID) (domain.Subscription, error) {
	return s.setCancelFlag(ctx, userID, true)
}

// Resume снимает отметку об отмене, пока период не истек
func (s *subscriptionService) Resume(ctx context.Context, userID uuid.UUID) (domain.Subscription, error) {
	return s.setCancelFlag(ctx, userID, false)
}

func (s *subscriptionService) setCancelFlag(ctx context.Context, userID uuid.UUID, cancel bool) (domain.Subscription, error) {
	local, err := s.subs.GetByUserID(ctx, userID)
	if err != nil {
		return domain.Subscription{}, err
	}
	if local.StripeSubscriptionID == "" {
		return domain.Subscription{}, fmt.Errorf("%w: user %s", domain.ErrNoSubscriptionMapping, userID)
	}

	// Сначала Stripe: если отмена там не прошла, локальное состояние
	// не трогаем
	if _, err := s.stripe.SetCancelAtPeriodEnd(ctx, local.StripeSubscriptionID, cancel); err != nil {
		return domain.Subscription{}, err
	}

	sub, err := s.subs.SetCancelAtPeriodEnd(ctx, userID, cancel)
	if err != nil {
		return domain.Subscription{}, err
	}

	s.mirrorProfile(ctx, &sub)
	s.publishLifecycleEvent(sub)
	return sub, nil
}

// SyncByUser перечитывает состояние подписки из Stripe и сверяет
// локальную запись. Используется админкой и поддержкой при расхождениях.
func (s *subscriptionService) SyncByUser(ctx context.Context, userID uuid.UUID) (domain.Subscription, error) {
	local, err := s.subs.GetByUserID(ctx, userID)
	if err != nil {
		return domain.Subscription{}, err
	}

	if local.StripeSubscriptionID != "" {
		remote, err := s.stripe.GetSubscription(ctx, local.StripeSubscriptionID)
		if err != nil {
			return domain.Subscription{}, err
		}
		return s.Reconcile(ctx, stripeint.ToRecord(userID, remote), EntrySync)
	}

	if local.StripeCustomerID == "" {
		return domain.Subscription{}, fmt.Errorf("%w: user %s", domain.ErrNoBillingIdentity, userID)
	}

	// Привязки к подписке нет, ищем активную по клиенту
	subs, err := s.stripe.ListActiveSubscriptions(ctx, local.StripeCustomerID)
	if err != nil {
		return domain.Subscription{}, err
	}
	if len(subs) == 0 {
		return local, nil
	}
	return s.Reconcile(ctx, stripeint.ToRecord(userID, subs[0]), EntrySync)
}

// GetStatus возвращает локальную запись подписки. Отсутствие записи
// не ошибка: пользователь на свободном плане.
func (s *subscriptionService) GetStatus(ctx context.Context, userID uuid.UUID) (domain.Subscription, error) {
	sub, err := s.subs.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Subscription{
			UserID:       userID,
			PlanID:       domain.PlanFree,
			Status:       domain.SubscriptionStatusActive,
			BillingCycle: domain.BillingCycleMonthly,
		}, nil
	}
	if err != nil {
		return domain.Subscription{}, err
	}
	return sub, nil
}
