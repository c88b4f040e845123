package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/1code1day/platform-service/internal/domain"
	"github.com/1code1day/platform-service/pkg/logger"
)

type priceAwareService struct {
	stubSubscriptionService
}

func (s *priceAwareService) CreateCheckoutSession(_ context.Context, req domain.CheckoutRequest) (string, string, error) {
	if req.BillingCycle == "annual" {
		return "", "", domain.ErrPriceNotConfigured
	}
	return "cs_test", "https://checkout.stripe.test/cs_test", nil
}

func newBillingTestRouter(svc *priceAwareService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewBillingHandler(svc, logger.New(logger.ERROR))
	r.POST("/billing/checkout", h.CreateCheckout)
	r.GET("/billing/verify", h.VerifyCheckout)
	return r
}

func postJSON(r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateCheckout_Success(t *testing.T) {
	r := newBillingTestRouter(&priceAwareService{})

	w := postJSON(r, "/billing/checkout", domain.CheckoutRequest{
		UserID:       uuid.NewString(),
		Email:        "u@example.com",
		Plan:         domain.PlanPremium,
		BillingCycle: "monthly",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cs_test")
}

func TestCreateCheckout_MissingPriceIsBadRequest(t *testing.T) {
	r := newBillingTestRouter(&priceAwareService{})

	w := postJSON(r, "/billing/checkout", domain.CheckoutRequest{
		UserID:       uuid.NewString(),
		Email:        "u@example.com",
		Plan:         domain.PlanPremium,
		BillingCycle: "annual",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateCheckout_ValidationFailure(t *testing.T) {
	r := newBillingTestRouter(&priceAwareService{})

	w := postJSON(r, "/billing/checkout", map[string]string{
		"userId": "not-a-uuid",
		"email":  "not-an-email",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyCheckout_RequiresSessionID(t *testing.T) {
	r := newBillingTestRouter(&priceAwareService{})

	req := httptest.NewRequest(http.MethodGet, "/billing/verify", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
