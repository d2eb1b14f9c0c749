package routes

import (
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/example/bozor/internal/config"
	"github.com/example/bozor/internal/handlers"
	"github.com/example/bozor/internal/middleware"
	"github.com/example/bozor/internal/models"
	"github.com/example/bozor/internal/services"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	DB        *gorm.DB
	Config    *config.Config
	Tokens    services.RefreshTokenStore
	OTPSender services.OTPSender
	// Notifier is optional; nil disables new-order notifications.
	Notifier services.OrderNotifier
	Uploads  *services.UploadService
}

// NewApp builds the Fiber application with middleware and all routes.
func NewApp(deps Dependencies) *fiber.App {
	cfg := deps.Config

	app := fiber.New(fiber.Config{
		AppName:      "Bozor Backend",
		ErrorHandler: middleware.ErrorHandler,
		BodyLimit:    (cfg.MaxUploadMB + 1) * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger())

	app.Static("/image", deps.Uploads.Root())

	if cfg.SwaggerFile != "" {
		if _, err := os.Stat(cfg.SwaggerFile); err == nil {
			app.Use(swagger.New(swagger.Config{
				BasePath: "/",
				FilePath: cfg.SwaggerFile,
				Path:     "docs",
				Title:    "Bozor API",
			}))
		} else {
			log.Warn().Str("file", cfg.SwaggerFile).Msg("swagger file not found, /docs disabled")
		}
	}

	Register(app, deps)
	return app
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, deps Dependencies) {
	cfg := deps.Config

	otp := services.NewOTPService(cfg.OTPSecret, cfg.OTPDigits, cfg.OTPStep, cfg.OTPSkew)
	authService := services.NewAuthService(deps.DB, services.AuthConfig{
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
		ExposeOTP:     cfg.OTPExposeCode,
	}, otp, deps.OTPSender, deps.Tokens)
	orderService := services.NewOrderService(deps.DB, deps.Notifier)
	commentService := services.NewCommentService(deps.DB)

	authHandler := handlers.NewAuthHandler(authService)
	profileHandler := handlers.NewProfileHandler(deps.DB, deps.Uploads)
	adminHandler := handlers.NewAdminHandler(deps.DB)
	catalogHandler := handlers.NewCatalogHandler(deps.DB, deps.Uploads)
	productHandler := handlers.NewProductHandler(deps.DB, deps.Uploads)
	orderHandler := handlers.NewOrderHandler(orderService)
	commentHandler := handlers.NewCommentHandler(commentService)

	secret := cfg.JWTAccessSecret
	authenticated := middleware.Authorize(secret)
	admins := middleware.Authorize(secret, models.RoleAdmin, models.RoleSuperAdmin)

	// Users and auth
	users := app.Group("/users")
	users.Post("/send-otp", authHandler.SendOTP)
	users.Post("/verify-otp", authHandler.VerifyOTP)
	users.Post("/register", authHandler.Register)
	users.Post("/login", authHandler.Login)
	users.Post("/refresh", authHandler.Refresh)
	users.Post("/logout", authHandler.Logout)
	users.Post("/superadmin", authenticated, authHandler.CreateSuperAdmin)
	users.Post("/upload-image", authenticated, profileHandler.UploadImage)
	users.Get("/me", authenticated, profileHandler.GetProfile)
	users.Patch("/me", authenticated, profileHandler.UpdateProfile)
	users.Get("/", admins, adminHandler.ListUsers)
	users.Get("/:id", admins, adminHandler.GetUser)
	users.Delete("/:id", admins, adminHandler.DeleteUser)

	// Regions
	regions := app.Group("/regions")
	regions.Get("/", catalogHandler.ListRegions)
	regions.Get("/:id", catalogHandler.GetRegion)
	regions.Post("/", admins, catalogHandler.CreateRegion)
	regions.Patch("/:id", admins, catalogHandler.UpdateRegion)
	regions.Delete("/:id", admins, catalogHandler.DeleteRegion)

	// Categories
	categoryAdmin := middleware.Authorize(secret, models.RoleAdmin)
	categories := app.Group("/categories")
	categories.Get("/", catalogHandler.ListCategories)
	categories.Post("/upload-image", categoryAdmin, catalogHandler.UploadCategoryImage)
	categories.Get("/:id", catalogHandler.GetCategory)
	categories.Post("/", categoryAdmin, catalogHandler.CreateCategory)
	categories.Patch("/:id", admins, catalogHandler.UpdateCategory)
	categories.Delete("/:id", categoryAdmin, catalogHandler.DeleteCategory)

	// Products
	sellers := middleware.Authorize(secret, models.RoleAdmin, models.RoleSeller)
	products := app.Group("/products")
	products.Get("/", productHandler.ListProducts)
	products.Get("/by-category/:id", productHandler.ListByCategory)
	products.Get("/by-user/:id", productHandler.ListByUser)
	products.Post("/upload-image", sellers, productHandler.UploadProductImage)
	products.Get("/:id", productHandler.GetProduct)
	products.Post("/", sellers, productHandler.CreateProduct)
	products.Patch("/:id", middleware.Authorize(secret, models.RoleAdmin, models.RoleSuperAdmin, models.RoleSeller), productHandler.UpdateProduct)
	products.Delete("/:id", sellers, productHandler.DeleteProduct)

	// Comments
	comments := app.Group("/comments")
	comments.Get("/", commentHandler.ListComments)
	comments.Get("/by-user/:id", commentHandler.ListByUser)
	comments.Get("/by-product/:id", commentHandler.ListByProduct)
	comments.Get("/:id", commentHandler.GetComment)
	comments.Post("/", authenticated, commentHandler.CreateComment)
	comments.Patch("/:id", authenticated, commentHandler.UpdateComment)
	comments.Delete("/:id", authenticated, commentHandler.DeleteComment)

	// Orders
	orders := app.Group("/orders", authenticated)
	orders.Post("/", middleware.Authorize(secret, models.RoleUser, models.RoleAdmin), orderHandler.CreateOrder)
	orders.Get("/my", orderHandler.ListMyOrders)
	orders.Get("/", admins, orderHandler.ListOrders)
	orders.Get("/user/:user_id", admins, orderHandler.ListUserOrders)
	orders.Get("/items/by-order/:order_id", orderHandler.ItemsByOrder)
	orders.Get("/items/by-product/:product_id", admins, orderHandler.ItemsByProduct)
	orders.Get("/:id", orderHandler.GetOrder)
	orders.Patch("/:id", orderHandler.UpdateOrder)
	orders.Delete("/:id", orderHandler.DeleteOrder)
}
