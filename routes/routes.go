package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/BongominErickJuma/quickmart-server/controllers"
	"github.com/BongominErickJuma/quickmart-server/middleware"
	"github.com/BongominErickJuma/quickmart-server/models"
)

// Controllers bundles everything RegisterRoutes wires onto the engine.
type Controllers struct {
	Auth     *controllers.AuthController
	Users    *controllers.UserController
	Products *controllers.ProductController
	Orders   *controllers.OrderController
	Webhook  *controllers.WebhookController
}

func NewEngine(log zerolog.Logger, clientBaseURL string) *gin.Engine {
	r := gin.New()
	r.SetTrustedProxies(nil)

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = []string{clientBaseURL}
	corsCfg.AllowCredentials = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", "Stripe-Signature")
	r.Use(cors.New(corsCfg))

	return r
}

func RegisterRoutes(r *gin.Engine, auth *middleware.Auth, ctrl Controllers) {
	// The webhook sits outside the versioned API and outside auth: Stripe
	// authenticates with a signature, not a JWT.
	r.POST("/webhook-checkout", ctrl.Webhook.HandleCheckout)

	api := r.Group("/api/v1/qm")

	users := api.Group("/users")
	{
		users.POST("/signup", ctrl.Auth.Signup)
		users.POST("/login", ctrl.Auth.Login)
		users.POST("/logout", ctrl.Auth.Logout)
		users.POST("/forgot-password", ctrl.Auth.ForgotPassword)
		users.PATCH("/reset-password/:token", ctrl.Auth.ResetPassword)

		protected := users.Group("")
		protected.Use(auth.Protect())
		{
			protected.GET("/me", ctrl.Users.GetMe)
			protected.PATCH("/update-me", ctrl.Users.UpdateMe)
			protected.DELETE("/delete-me", ctrl.Users.DeleteMe)
			protected.PATCH("/update-password", ctrl.Auth.UpdatePassword)

			admin := protected.Group("")
			admin.Use(auth.RestrictTo(models.RoleAdmin))
			{
				admin.GET("", ctrl.Users.GetAllUsers)
				admin.GET("/:id", ctrl.Users.GetUser)
			}
		}
	}

	products := api.Group("/products")
	{
		products.GET("", ctrl.Products.GetAllProducts)
		products.GET("/:id", ctrl.Products.GetProduct)

		admin := products.Group("")
		admin.Use(auth.Protect(), auth.RestrictTo(models.RoleAdmin))
		{
			admin.POST("", ctrl.Products.CreateProduct)
			admin.PATCH("/:id", ctrl.Products.UpdateProduct)
			admin.DELETE("/:id", ctrl.Products.DeleteProduct)
		}
	}

	orders := api.Group("/orders")
	orders.Use(auth.Protect())
	{
		orders.POST("/checkout-session", ctrl.Orders.CreateCheckoutSession)
		orders.GET("/my-orders", ctrl.Orders.GetMyOrders)

		admin := orders.Group("")
		admin.Use(auth.RestrictTo(models.RoleAdmin))
		{
			admin.GET("", ctrl.Orders.GetAllOrders)
			admin.GET("/:id", ctrl.Orders.GetOrder)
			admin.DELETE("/:id", ctrl.Orders.DeleteOrder)
		}
	}
}
