package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/BongominErickJuma/quickmart-server/models"
	"github.com/BongominErickJuma/quickmart-server/repository"
)

var (
	ErrEmptyCart        = errors.New("no products selected for checkout")
	ErrInvalidProductID = errors.New("invalid product id")
)

// SessionCreator is the slice of the payments client the builder needs.
type SessionCreator interface {
	CreateCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// Config carries the redirect and asset targets embedded in every session.
type Config struct {
	SuccessURL   string
	CancelURL    string
	AssetBaseURL string
}

// Service builds checkout sessions and reconciles completed payments into
// orders. Prices always come from the catalog: the client cart never carries
// them, and the session metadata only round-trips product ids and quantities.
type Service struct {
	products repository.ProductRepository
	users    repository.UserRepository
	orders   repository.OrderRepository
	sessions SessionCreator
	monitor  Monitor
	cfg      Config
	log      zerolog.Logger
}

func NewService(
	products repository.ProductRepository,
	users repository.UserRepository,
	orders repository.OrderRepository,
	sessions SessionCreator,
	monitor Monitor,
	cfg Config,
	log zerolog.Logger,
) *Service {
	return &Service{
		products: products,
		users:    users,
		orders:   orders,
		sessions: sessions,
		monitor:  monitor,
		cfg:      cfg,
		log:      log,
	}
}

// CreateSession prices the submitted cart from the catalog and opens a
// hosted payment session for it. Any unresolvable product fails the whole
// request; no partial session is created.
func (s *Service) CreateSession(ctx context.Context, user *models.User, items []models.CartItem) (*stripe.CheckoutSession, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items))
	for _, item := range items {
		id, err := primitive.ObjectIDFromHex(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidProductID, item.ProductID)
		}

		product, err := s.products.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				return nil, fmt.Errorf("product with ID %s: %w", item.ProductID, repository.ErrProductNotFound)
			}
			return nil, fmt.Errorf("failed to resolve product %s: %w", item.ProductID, err)
		}

		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String("usd"),
				UnitAmount: stripe.Int64(ToMinorUnits(product.Price)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(product.Name),
					Description: stripe.String(product.Description),
					Images:      stripe.StringSlice([]string{s.cfg.AssetBaseURL + product.Image}),
				},
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}

	// Only ids and quantities go into the metadata; the reconciler re-prices
	// everything from the catalog when the payment completes.
	cart, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize cart metadata: %w", err)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(s.cfg.SuccessURL),
		CancelURL:          stripe.String(s.cfg.CancelURL),
		CustomerEmail:      stripe.String(user.Email),
		ClientReferenceID:  stripe.String(user.ID.Hex()),
		LineItems:          lineItems,
	}
	params.AddMetadata("cart", string(cart))

	session, err := s.sessions.CreateCheckoutSession(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return session, nil
}

// ReconcileSession turns a verified completed-payment event into at most one
// order. The payment is already captured by the time this runs, so failures
// are absorbed: they are recorded on the monitor but never bubble up to the
// webhook response.
func (s *Service) ReconcileSession(ctx context.Context, session *stripe.CheckoutSession) {
	log := s.log.With().Str("session_id", session.ID).Logger()

	user, err := s.users.FindActiveByEmail(ctx, session.CustomerEmail)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Nobody to attribute the order to. Nothing to retry either.
			log.Warn().Str("email", session.CustomerEmail).Msg("checkout completed for unknown user")
			return
		}
		s.monitor.ReconcileFailed(ctx, session.ID, fmt.Sprintf("user lookup failed: %v", err))
		return
	}

	raw, ok := session.Metadata["cart"]
	if !ok || raw == "" {
		s.monitor.ReconcileFailed(ctx, session.ID, "session metadata has no cart")
		return
	}

	var items []models.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.monitor.ReconcileFailed(ctx, session.ID, fmt.Sprintf("malformed cart metadata: %v", err))
		return
	}

	products := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			log.Warn().Str("product_id", item.ProductID).Int("quantity", item.Quantity).
				Msg("dropping cart line with non-positive quantity")
			continue
		}

		id, err := primitive.ObjectIDFromHex(item.ProductID)
		if err != nil {
			log.Warn().Str("product_id", item.ProductID).Msg("dropping cart line with malformed product id")
			continue
		}

		product, err := s.products.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				// The product was removed between checkout and completion.
				// The payment is captured, so keep what still resolves.
				log.Warn().Str("product_id", item.ProductID).Msg("dropping cart line for removed product")
				continue
			}
			s.monitor.ReconcileFailed(ctx, session.ID, fmt.Sprintf("product lookup failed: %v", err))
			return
		}

		products = append(products, models.OrderItem{
			Product:   product.ID,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
		})
	}

	if len(products) == 0 {
		s.monitor.ReconcileFailed(ctx, session.ID, "no cart line resolved to a catalog product")
		return
	}

	order := &models.Order{
		User:            user.ID,
		Products:        products,
		TotalPrice:      FromMinorUnits(session.AmountTotal),
		Paid:            true,
		StripeSessionID: session.ID,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		if errors.Is(err, repository.ErrDuplicateOrder) {
			// At-least-once delivery; the order already exists.
			log.Debug().Msg("duplicate completed-session delivery suppressed")
			return
		}
		s.monitor.ReconcileFailed(ctx, session.ID, fmt.Sprintf("order insert failed: %v", err))
		return
	}

	log.Info().
		Str("order_id", order.ID.Hex()).
		Str("user_id", user.ID.Hex()).
		Float64("total_price", order.TotalPrice).
		Int("line_items", len(order.Products)).
		Msg("order reconciled from checkout session")
}
