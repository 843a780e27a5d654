package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/BongominErickJuma/quickmart-server/checkout"
	"github.com/BongominErickJuma/quickmart-server/models"
	"github.com/BongominErickJuma/quickmart-server/payments"
	"github.com/BongominErickJuma/quickmart-server/repository"
)

const testWebhookSecret = "whsec_test_secret"

type stubProductRepo struct {
	products map[primitive.ObjectID]*models.Product
}

func (s *stubProductRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	if product, ok := s.products[id]; ok {
		return product, nil
	}
	return nil, repository.ErrProductNotFound
}

func (s *stubProductRepo) Create(context.Context, *models.Product) error { return nil }
func (s *stubProductRepo) Update(context.Context, primitive.ObjectID, bson.M) (*models.Product, error) {
	return nil, nil
}
func (s *stubProductRepo) Delete(context.Context, primitive.ObjectID) error { return nil }
func (s *stubProductRepo) List(context.Context, repository.ProductFilter) ([]models.Product, error) {
	return nil, nil
}

type stubUserRepo struct {
	repository.UserRepository
	byEmail map[string]*models.User
}

func (s *stubUserRepo) FindActiveByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

type stubOrderRepo struct {
	repository.OrderRepository
	created  []*models.Order
	sessions map[string]bool
}

func (s *stubOrderRepo) Create(_ context.Context, order *models.Order) error {
	if s.sessions == nil {
		s.sessions = map[string]bool{}
	}
	if s.sessions[order.StripeSessionID] {
		return repository.ErrDuplicateOrder
	}
	s.sessions[order.StripeSessionID] = true
	s.created = append(s.created, order)
	return nil
}

type webhookFixture struct {
	engine   *gin.Engine
	users    *stubUserRepo
	products *stubProductRepo
	orders   *stubOrderRepo
}

func newWebhookFixture() *webhookFixture {
	gin.SetMode(gin.TestMode)

	f := &webhookFixture{
		users:    &stubUserRepo{byEmail: map[string]*models.User{}},
		products: &stubProductRepo{products: map[primitive.ObjectID]*models.Product{}},
		orders:   &stubOrderRepo{},
	}

	stripeClient := payments.NewClient("sk_test_webhook", testWebhookSecret)
	svc := checkout.NewService(
		f.products, f.users, f.orders, stripeClient,
		checkout.NewLogMonitor(zerolog.Nop()),
		checkout.Config{}, zerolog.Nop(),
	)

	ctrl := NewWebhookController(stripeClient, svc, zerolog.Nop())
	f.engine = gin.New()
	f.engine.POST("/webhook-checkout", ctrl.HandleCheckout)
	return f
}

// signPayload produces body bytes and a Stripe-Signature header that verify
// against testWebhookSecret.
func signPayload(t *testing.T, payload []byte) ([]byte, string) {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func completedSessionEvent(sessionID, email string, amountTotal int64, cart string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_test",
		"type": "checkout.session.completed",
		"api_version": %q,
		"data": {
			"object": {
				"id": %q,
				"object": "checkout.session",
				"customer_email": %q,
				"amount_total": %d,
				"metadata": {"cart": %s}
			}
		}
	}`, stripe.APIVersion, sessionID, email, amountTotal, jsonString(cart)))
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func (f *webhookFixture) post(body []byte, sigHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook-checkout", bytes.NewReader(body))
	if sigHeader != "" {
		req.Header.Set("Stripe-Signature", sigHeader)
	}
	rr := httptest.NewRecorder()
	f.engine.ServeHTTP(rr, req)
	return rr
}

func TestWebhook_MissingSignature(t *testing.T) {
	f := newWebhookFixture()

	rr := f.post([]byte(`{"id":"evt_test","type":"checkout.session.completed"}`), "")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, f.orders.created)
}

func TestWebhook_InvalidSignature(t *testing.T) {
	f := newWebhookFixture()

	rr := f.post(
		[]byte(`{"id":"evt_test","type":"checkout.session.completed"}`),
		"t=1234567890,v1=deadbeef",
	)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, f.orders.created)
}

func TestWebhook_TamperedBody(t *testing.T) {
	f := newWebhookFixture()
	user := &models.User{ID: primitive.NewObjectID(), Email: "buyer@example.com", IsActive: true}
	f.users.byEmail[user.Email] = user
	product := &models.Product{ID: primitive.NewObjectID(), Name: "Coffee Maker", Price: 69.99}
	f.products.products[product.ID] = product

	cart := fmt.Sprintf(`[{"product_id":%q,"quantity":1}]`, product.ID.Hex())
	payload := completedSessionEvent("cs_tampered", user.Email, 6999, cart)
	body, header := signPayload(t, payload)

	// Flip the amount after signing. A valid-looking completed session with
	// a broken signature must be rejected with no state change.
	tampered := bytes.Replace(body, []byte(`"amount_total": 6999`), []byte(`"amount_total": 1`), 1)
	require.NotEqual(t, body, tampered)

	rr := f.post(tampered, header)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, f.orders.created)
}

func TestWebhook_CompletedSessionCreatesOrder(t *testing.T) {
	f := newWebhookFixture()
	user := &models.User{ID: primitive.NewObjectID(), Email: "buyer@example.com", IsActive: true}
	f.users.byEmail[user.Email] = user
	product := &models.Product{ID: primitive.NewObjectID(), Name: "Coffee Maker", Price: 69.99}
	f.products.products[product.ID] = product

	cart := fmt.Sprintf(`[{"product_id":%q,"quantity":2}]`, product.ID.Hex())
	body, header := signPayload(t, completedSessionEvent("cs_ok", user.Email, 13998, cart))

	rr := f.post(body, header)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"received": true}`, rr.Body.String())
	require.Len(t, f.orders.created, 1)
	order := f.orders.created[0]
	assert.Equal(t, user.ID, order.User)
	assert.Equal(t, "cs_ok", order.StripeSessionID)
	assert.True(t, order.Paid)
	assert.InDelta(t, 139.98, order.TotalPrice, 1e-9)
}

func TestWebhook_DuplicateDeliveryStillAcked(t *testing.T) {
	f := newWebhookFixture()
	user := &models.User{ID: primitive.NewObjectID(), Email: "buyer@example.com", IsActive: true}
	f.users.byEmail[user.Email] = user
	product := &models.Product{ID: primitive.NewObjectID(), Name: "Coffee Maker", Price: 69.99}
	f.products.products[product.ID] = product

	cart := fmt.Sprintf(`[{"product_id":%q,"quantity":1}]`, product.ID.Hex())
	body, header := signPayload(t, completedSessionEvent("cs_dup", user.Email, 6999, cart))

	first := f.post(body, header)
	second := f.post(body, header)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Len(t, f.orders.created, 1)
}

func TestWebhook_OtherEventTypesAcknowledged(t *testing.T) {
	f := newWebhookFixture()

	payload := []byte(fmt.Sprintf(`{
		"id": "evt_test",
		"type": "payment_intent.succeeded",
		"api_version": %q,
		"data": {"object": {"id": "pi_123", "object": "payment_intent"}}
	}`, stripe.APIVersion))
	body, header := signPayload(t, payload)

	rr := f.post(body, header)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"received": true}`, rr.Body.String())
	assert.Empty(t, f.orders.created)
}

func TestWebhook_UnknownBuyerStillAcked(t *testing.T) {
	f := newWebhookFixture()
	product := &models.Product{ID: primitive.NewObjectID(), Name: "Coffee Maker", Price: 69.99}
	f.products.products[product.ID] = product

	cart := fmt.Sprintf(`[{"product_id":%q,"quantity":1}]`, product.ID.Hex())
	body, header := signPayload(t, completedSessionEvent("cs_ghost", "ghost@example.com", 6999, cart))

	rr := f.post(body, header)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, f.orders.created)
}
