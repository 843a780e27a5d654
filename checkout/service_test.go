package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/BongominErickJuma/quickmart-server/models"
	"github.com/BongominErickJuma/quickmart-server/repository"
)

// mockProductRepo implements repository.ProductRepository over a fixed map.
type mockProductRepo struct {
	products map[primitive.ObjectID]*models.Product
	err      error
}

func (m *mockProductRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	product, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return product, nil
}

func (m *mockProductRepo) Create(context.Context, *models.Product) error { return nil }
func (m *mockProductRepo) Update(context.Context, primitive.ObjectID, bson.M) (*models.Product, error) {
	return nil, nil
}
func (m *mockProductRepo) Delete(context.Context, primitive.ObjectID) error { return nil }
func (m *mockProductRepo) List(context.Context, repository.ProductFilter) ([]models.Product, error) {
	return nil, nil
}

type mockUserRepo struct {
	repository.UserRepository
	byEmail map[string]*models.User
}

func (m *mockUserRepo) FindActiveByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

type mockOrderRepo struct {
	repository.OrderRepository
	created  []*models.Order
	sessions map[string]bool
	err      error
}

func (m *mockOrderRepo) Create(_ context.Context, order *models.Order) error {
	if m.err != nil {
		return m.err
	}
	if m.sessions == nil {
		m.sessions = map[string]bool{}
	}
	if m.sessions[order.StripeSessionID] {
		return repository.ErrDuplicateOrder
	}
	m.sessions[order.StripeSessionID] = true
	order.ID = primitive.NewObjectID()
	m.created = append(m.created, order)
	return nil
}

type mockSessionCreator struct {
	params  *stripe.CheckoutSessionParams
	session *stripe.CheckoutSession
	err     error
	calls   int
}

func (m *mockSessionCreator) CreateCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	m.calls++
	m.params = params
	if m.err != nil {
		return nil, m.err
	}
	if m.session != nil {
		return m.session, nil
	}
	return &stripe.CheckoutSession{ID: "cs_test_123"}, nil
}

type mockMonitor struct {
	failures []string
}

func (m *mockMonitor) ReconcileFailed(_ context.Context, sessionID, reason string) {
	m.failures = append(m.failures, sessionID+": "+reason)
}

type fixture struct {
	svc      *Service
	products *mockProductRepo
	users    *mockUserRepo
	orders   *mockOrderRepo
	sessions *mockSessionCreator
	monitor  *mockMonitor
}

func newFixture() *fixture {
	f := &fixture{
		products: &mockProductRepo{products: map[primitive.ObjectID]*models.Product{}},
		users:    &mockUserRepo{byEmail: map[string]*models.User{}},
		orders:   &mockOrderRepo{},
		sessions: &mockSessionCreator{},
		monitor:  &mockMonitor{},
	}
	f.svc = NewService(f.products, f.users, f.orders, f.sessions, f.monitor, Config{
		SuccessURL:   "https://qm-client.netlify.app/my-orders",
		CancelURL:    "https://qm-client.netlify.app",
		AssetBaseURL: "https://qm-server.example.com",
	}, zerolog.Nop())
	return f
}

func (f *fixture) addProduct(name string, price float64) *models.Product {
	product := &models.Product{
		ID:       primitive.NewObjectID(),
		Name:     name,
		Price:    price,
		Image:    models.DefaultProductImage,
		Category: "Electronics",
	}
	f.products.products[product.ID] = product
	return product
}

func (f *fixture) addUser(email string) *models.User {
	user := &models.User{ID: primitive.NewObjectID(), Email: email, IsActive: true}
	f.users.byEmail[email] = user
	return user
}

func testSession(id, email string, amountTotal int64, items []models.CartItem) *stripe.CheckoutSession {
	raw, _ := json.Marshal(items)
	return &stripe.CheckoutSession{
		ID:            id,
		CustomerEmail: email,
		AmountTotal:   amountTotal,
		Metadata:      map[string]string{"cart": string(raw)},
	}
}

func TestCreateSession_UsesCatalogPrices(t *testing.T) {
	f := newFixture()
	user := f.addUser("buyer@example.com")
	coffee := f.addProduct("Coffee Maker", 69.99)
	lamp := f.addProduct("Desk Lamp", 24.5)

	// A client trying to inject its own prices gets them silently dropped:
	// the cart payload has no price field to bind to.
	payload := fmt.Sprintf(`[
		{"product_id": %q, "quantity": 2, "price": 0.01},
		{"product_id": %q, "quantity": 1, "price": 0.01}
	]`, coffee.ID.Hex(), lamp.ID.Hex())
	var items []models.CartItem
	require.NoError(t, json.Unmarshal([]byte(payload), &items))

	_, err := f.svc.CreateSession(context.Background(), user, items)
	require.NoError(t, err)
	require.Equal(t, 1, f.sessions.calls)

	params := f.sessions.params
	require.Len(t, params.LineItems, 2)
	assert.Equal(t, int64(6999), *params.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, int64(2), *params.LineItems[0].Quantity)
	assert.Equal(t, int64(2450), *params.LineItems[1].PriceData.UnitAmount)
	assert.Equal(t, "buyer@example.com", *params.CustomerEmail)
	assert.Equal(t, user.ID.Hex(), *params.ClientReferenceID)
}

func TestCreateSession_MetadataCarriesNoPrices(t *testing.T) {
	f := newFixture()
	user := f.addUser("buyer@example.com")
	product := f.addProduct("Coffee Maker", 69.99)

	_, err := f.svc.CreateSession(context.Background(), user, []models.CartItem{
		{ProductID: product.ID.Hex(), Quantity: 3},
	})
	require.NoError(t, err)

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(f.sessions.params.Metadata["cart"]), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, product.ID.Hex(), decoded[0]["product_id"])
	assert.Equal(t, float64(3), decoded[0]["quantity"])
	assert.NotContains(t, decoded[0], "price")
	assert.NotContains(t, decoded[0], "unitPrice")
}

func TestCreateSession_EmptyCartRejectedBeforeStripe(t *testing.T) {
	f := newFixture()
	user := f.addUser("buyer@example.com")

	_, err := f.svc.CreateSession(context.Background(), user, nil)
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, f.sessions.calls)
}

func TestCreateSession_UnknownProductFailsWholeRequest(t *testing.T) {
	f := newFixture()
	user := f.addUser("buyer@example.com")
	known := f.addProduct("Coffee Maker", 69.99)
	missing := primitive.NewObjectID()

	_, err := f.svc.CreateSession(context.Background(), user, []models.CartItem{
		{ProductID: known.ID.Hex(), Quantity: 1},
		{ProductID: missing.Hex(), Quantity: 1},
	})
	require.ErrorIs(t, err, repository.ErrProductNotFound)
	assert.Contains(t, err.Error(), missing.Hex())
	assert.Zero(t, f.sessions.calls)
}

func TestCreateSession_InvalidProductID(t *testing.T) {
	f := newFixture()
	user := f.addUser("buyer@example.com")

	_, err := f.svc.CreateSession(context.Background(), user, []models.CartItem{
		{ProductID: "not-an-object-id", Quantity: 1},
	})
	require.ErrorIs(t, err, ErrInvalidProductID)
	assert.Zero(t, f.sessions.calls)
}

func TestReconcileSession_CreatesOrderWithCatalogPrices(t *testing.T) {
	f := newFixture()
	user := f.addUser("buyer@example.com")
	product := f.addProduct("Coffee Maker", 69.99)

	session := testSession("cs_1", "buyer@example.com", 13998, []models.CartItem{
		{ProductID: product.ID.Hex(), Quantity: 2},
	})
	f.svc.ReconcileSession(context.Background(), session)

	require.Len(t, f.orders.created, 1)
	order := f.orders.created[0]
	assert.Equal(t, user.ID, order.User)
	assert.True(t, order.Paid)
	assert.Equal(t, "cs_1", order.StripeSessionID)
	assert.InDelta(t, 139.98, order.TotalPrice, 1e-9)
	require.Len(t, order.Products, 1)
	assert.Equal(t, product.ID, order.Products[0].Product)
	assert.Equal(t, 2, order.Products[0].Quantity)
	assert.InDelta(t, 69.99, order.Products[0].UnitPrice, 1e-9)
	assert.Empty(t, f.monitor.failures)
}

func TestReconcileSession_IgnoresMetadataPrices(t *testing.T) {
	f := newFixture()
	f.addUser("buyer@example.com")
	product := f.addProduct("Coffee Maker", 69.99)

	// A tampered metadata blob carrying prices still reconciles against the
	// catalog.
	session := &stripe.CheckoutSession{
		ID:            "cs_tampered",
		CustomerEmail: "buyer@example.com",
		AmountTotal:   6999,
		Metadata: map[string]string{
			"cart": fmt.Sprintf(`[{"product_id": %q, "quantity": 1, "price": 0.01}]`, product.ID.Hex()),
		},
	}
	f.svc.ReconcileSession(context.Background(), session)

	require.Len(t, f.orders.created, 1)
	assert.InDelta(t, 69.99, f.orders.created[0].Products[0].UnitPrice, 1e-9)
}

func TestReconcileSession_DuplicateDeliverySuppressed(t *testing.T) {
	f := newFixture()
	f.addUser("buyer@example.com")
	product := f.addProduct("Coffee Maker", 69.99)

	session := testSession("cs_dup", "buyer@example.com", 6999, []models.CartItem{
		{ProductID: product.ID.Hex(), Quantity: 1},
	})
	f.svc.ReconcileSession(context.Background(), session)
	f.svc.ReconcileSession(context.Background(), session)

	assert.Len(t, f.orders.created, 1)
	assert.Empty(t, f.monitor.failures)
}

// Two legitimate orders by the same user with identical totals must both be
// kept. Keying idempotency on the session id allows this; the old
// user+total+paid heuristic would have collapsed them.
func TestReconcileSession_SameUserSameTotalDistinctSessions(t *testing.T) {
	f := newFixture()
	f.addUser("buyer@example.com")
	product := f.addProduct("Coffee Maker", 69.99)

	items := []models.CartItem{{ProductID: product.ID.Hex(), Quantity: 1}}
	f.svc.ReconcileSession(context.Background(), testSession("cs_a", "buyer@example.com", 6999, items))
	f.svc.ReconcileSession(context.Background(), testSession("cs_b", "buyer@example.com", 6999, items))

	assert.Len(t, f.orders.created, 2)
}

func TestReconcileSession_DropsRemovedProductsKeepsSessionTotal(t *testing.T) {
	f := newFixture()
	f.addUser("buyer@example.com")
	kept := f.addProduct("Coffee Maker", 69.99)
	removed := primitive.NewObjectID()

	session := testSession("cs_partial", "buyer@example.com", 9498, []models.CartItem{
		{ProductID: kept.ID.Hex(), Quantity: 1},
		{ProductID: removed.Hex(), Quantity: 1},
	})
	f.svc.ReconcileSession(context.Background(), session)

	require.Len(t, f.orders.created, 1)
	order := f.orders.created[0]
	require.Len(t, order.Products, 1)
	assert.Equal(t, kept.ID, order.Products[0].Product)
	// Total stays what the processor captured, not a recompute of the
	// surviving lines.
	assert.InDelta(t, 94.98, order.TotalPrice, 1e-9)
}

func TestReconcileSession_AllProductsRemoved(t *testing.T) {
	f := newFixture()
	f.addUser("buyer@example.com")

	session := testSession("cs_gone", "buyer@example.com", 6999, []models.CartItem{
		{ProductID: primitive.NewObjectID().Hex(), Quantity: 1},
	})
	f.svc.ReconcileSession(context.Background(), session)

	assert.Empty(t, f.orders.created)
	require.Len(t, f.monitor.failures, 1)
	assert.Contains(t, f.monitor.failures[0], "cs_gone")
}

func TestReconcileSession_UnknownBuyerIsSilent(t *testing.T) {
	f := newFixture()
	product := f.addProduct("Coffee Maker", 69.99)

	session := testSession("cs_nobody", "ghost@example.com", 6999, []models.CartItem{
		{ProductID: product.ID.Hex(), Quantity: 1},
	})
	f.svc.ReconcileSession(context.Background(), session)

	assert.Empty(t, f.orders.created)
	// Log-level concern only; not a monitored failure.
	assert.Empty(t, f.monitor.failures)
}

func TestReconcileSession_MalformedMetadata(t *testing.T) {
	f := newFixture()
	f.addUser("buyer@example.com")

	session := &stripe.CheckoutSession{
		ID:            "cs_bad_meta",
		CustomerEmail: "buyer@example.com",
		AmountTotal:   6999,
		Metadata:      map[string]string{"cart": "{not json"},
	}
	f.svc.ReconcileSession(context.Background(), session)

	assert.Empty(t, f.orders.created)
	require.Len(t, f.monitor.failures, 1)
	assert.Contains(t, f.monitor.failures[0], "cs_bad_meta")
}

func TestReconcileSession_MissingMetadata(t *testing.T) {
	f := newFixture()
	f.addUser("buyer@example.com")

	session := &stripe.CheckoutSession{
		ID:            "cs_no_meta",
		CustomerEmail: "buyer@example.com",
		AmountTotal:   6999,
	}
	f.svc.ReconcileSession(context.Background(), session)

	assert.Empty(t, f.orders.created)
	assert.Len(t, f.monitor.failures, 1)
}

func TestReconcileSession_OrderInsertFailureIsMonitored(t *testing.T) {
	f := newFixture()
	f.addUser("buyer@example.com")
	product := f.addProduct("Coffee Maker", 69.99)
	f.orders.err = fmt.Errorf("write concern timeout after %s", 5*time.Second)

	session := testSession("cs_insert_fail", "buyer@example.com", 6999, []models.CartItem{
		{ProductID: product.ID.Hex(), Quantity: 1},
	})
	f.svc.ReconcileSession(context.Background(), session)

	assert.Empty(t, f.orders.created)
	require.Len(t, f.monitor.failures, 1)
	assert.Contains(t, f.monitor.failures[0], "order insert failed")
}
