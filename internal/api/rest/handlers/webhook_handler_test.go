package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	stripego "github.com/stripe/stripe-go/v78"

	"github.com/1code1day/platform-service/internal/domain"
	"github.com/1code1day/platform-service/pkg/logger"
)

const testWebhookSecret = "whsec_test_secret"

// signPayload строит заголовок Stripe-Signature для тестового payload
func signPayload(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts.Unix(), payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

type stubSubscriptionService struct {
	handleErr    error
	handledTypes []stripego.EventType
}

func (s *stubSubscriptionService) Reconcile(_ context.Context, _ domain.SubscriptionRecord, _ string) (domain.Subscription, error) {
	return domain.Subscription{}, nil
}

func (s *stubSubscriptionService) HandleWebhookEvent(_ context.Context, event stripego.Event) error {
	s.handledTypes = append(s.handledTypes, event.Type)
	return s.handleErr
}

func (s *stubSubscriptionService) CreateCheckoutSession(_ context.Context, _ domain.CheckoutRequest) (string, string, error) {
	return "", "", nil
}

func (s *stubSubscriptionService) VerifyCheckoutSession(_ context.Context, _ string) (domain.Subscription, error) {
	return domain.Subscription{}, nil
}

func (s *stubSubscriptionService) Cancel(_ context.Context, _ uuid.UUID) (domain.Subscription, error) {
	return domain.Subscription{}, nil
}

func (s *stubSubscriptionService) Resume(_ context.Context, _ uuid.UUID) (domain.Subscription, error) {
	return domain.Subscription{}, nil
}

func (s *stubSubscriptionService) SyncByUser(_ context.Context, _ uuid.UUID) (domain.Subscription, error) {
	return domain.Subscription{}, nil
}

func (s *stubSubscriptionService) GetStatus(_ context.Context, _ uuid.UUID) (domain.Subscription, error) {
	return domain.Subscription{}, nil
}

type stubSecurityService struct {
	events []domain.SecurityLog
}

func (s *stubSecurityService) Record(_ context.Context, entry domain.SecurityLog) {
	s.events = append(s.events, entry)
}

func (s *stubSecurityService) ListLogs(_ context.Context, _ domain.SecurityLogFilter) ([]domain.SecurityLog, error) {
	return nil, nil
}

func (s *stubSecurityService) BlockIP(_ context.Context, _ domain.BlockIPRequest) error { return nil }
func (s *stubSecurityService) UnblockIP(_ context.Context, _ string) error              { return nil }
func (s *stubSecurityService) ListBlockedIPs(_ context.Context) ([]domain.BlockedIP, error) {
	return nil, nil
}
func (s *stubSecurityService) IsBlocked(_ context.Context, _ string) bool { return false }

func newWebhookTestRouter(svc *stubSubscriptionService, sec *stubSecurityService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewWebhookHandler(svc, sec, testWebhookSecret, logger.New(logger.ERROR))
	r.POST("/webhooks/stripe", h.HandleStripeWebhook)
	return r
}

func postWebhook(r *gin.Engine, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleStripeWebhook_InvalidSignature(t *testing.T) {
	svc := &stubSubscriptionService{}
	sec := &stubSecurityService{}
	r := newWebhookTestRouter(svc, sec)

	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	w := postWebhook(r, payload, signPayload(payload, "whsec_wrong", time.Now()))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.handledTypes)
	// отказ подписи фиксируется в журнале безопасности
	assert.Len(t, sec.events, 1)
	assert.Equal(t, domain.SecurityEventWebhookSigFailed, sec.events[0].EventType)
}

func TestHandleStripeWebhook_MissingSignature(t *testing.T) {
	svc := &stubSubscriptionService{}
	r := newWebhookTestRouter(svc, &stubSecurityService{})

	w := postWebhook(r, []byte(`{}`), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.handledTypes)
}

func TestHandleStripeWebhook_ValidSignature(t *testing.T) {
	svc := &stubSubscriptionService{}
	r := newWebhookTestRouter(svc, &stubSecurityService{})

	payload := []byte(`{"id":"evt_1","type":"customer.subscription.updated","data":{"object":{}}}`)
	w := postWebhook(r, payload, signPayload(payload, testWebhookSecret, time.Now()))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
	assert.Equal(t, []stripego.EventType{"customer.subscription.updated"}, svc.handledTypes)
}

func TestHandleStripeWebhook_ForeignAPIVersionAccepted(t *testing.T) {
	// версия API аккаунта Stripe может не совпадать с закрепленной в
	// stripe-go, корректно подписанное событие все равно принимается
	svc := &stubSubscriptionService{}
	r := newWebhookTestRouter(svc, &stubSecurityService{})

	payload := []byte(`{"id":"evt_1","api_version":"2020-08-27","type":"customer.subscription.updated","data":{"object":{}}}`)
	w := postWebhook(r, payload, signPayload(payload, testWebhookSecret, time.Now()))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []stripego.EventType{"customer.subscription.updated"}, svc.handledTypes)
}

func TestHandleStripeWebhook_HandlerErrorStillAcknowledged(t *testing.T) {
	// детерминированная ошибка обработчика не должна включать ретраи
	// доставки на стороне Stripe
	svc := &stubSubscriptionService{handleErr: errors.New("boom")}
	r := newWebhookTestRouter(svc, &stubSecurityService{})

	payload := []byte(`{"id":"evt_1","type":"customer.subscription.deleted","data":{"object":{}}}`)
	w := postWebhook(r, payload, signPayload(payload, testWebhookSecret, time.Now()))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
}
