package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"keyshop/cmd/fx/controllers_fx"
	"keyshop/cmd/fx/db_fx"
	"keyshop/cmd/fx/gateway_fx"
	"keyshop/cmd/fx/inventory_fx"
	"keyshop/cmd/fx/licensekey_fx"
	"keyshop/cmd/fx/logger_fx"
	"keyshop/cmd/fx/mail_fx"
	"keyshop/cmd/fx/memcache_fx"
	"keyshop/cmd/fx/notify_fx"
	"keyshop/cmd/fx/order_fx"
	"keyshop/cmd/fx/payment_fx"
	"keyshop/cmd/fx/refund_fx"
	"keyshop/cmd/fx/vault_fx"
	"keyshop/internal/api/controllers"
	"keyshop/internal/infra"
	"keyshop/internal/services"
	"keyshop/pkg/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	app := fx.New(
		logger_fx.Module,
		db_fx.Module,
		memcache_fx.Module,
		vault_fx.Module,
		gateway_fx.Module,
		notify_fx.Module,
		mail_fx.Module,
		order_fx.Module,
		payment_fx.Module,
		refund_fx.Module,
		inventory_fx.Module,
		licensekey_fx.Module,
		controllers_fx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
		fx.Invoke(StartStockMonitor),
		fx.Invoke(StartRefundReconciler),
		fx.Invoke(CloseDatabaseOnShutdown),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Println("Starting HTTP server at ${PORT}")
				if err := engine.Run(":" + os.Getenv("PORT")); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Println("Stopping HTTP server")
			return nil
		},
	})
}

func StartStockMonitor(lc fx.Lifecycle, monitor *services.Monitor) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			monitor.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			monitor.Stop()
			return nil
		},
	})
}

// StartRefundReconciler runs the gateway status sweep on a timer so refunds
// issued from the provider's dashboard are picked up without a callback.
func StartRefundReconciler(lc fx.Lifecycle, refunds services.RefundService, logger zerolog.Logger) {
	interval := 1 * time.Hour
	if d, err := time.ParseDuration(os.Getenv("RECONCILE_INTERVAL")); err == nil && d > 0 {
		interval = d
	}

	stop := make(chan struct{})
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer close(done)
				ticker := time.NewTicker(interval)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						if err := refunds.Reconcile(context.Background()); err != nil {
							logger.Error().Err(err).Msg("refund reconciliation sweep failed")
						}
					case <-stop:
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(stop)
			<-done
			return nil
		},
	})
}

func CloseDatabaseOnShutdown(lc fx.Lifecycle, db *gorm.DB) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			infra.ClosePostgresql(db)
			return nil
		},
	})
}

func ProvideRouter(
	orderController *controllers.OrderController,
	paymentController *controllers.PaymentController,
	adminController *controllers.AdminController) *gin.Engine {

	r := gin.Default()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.TraceIDMiddleware())

	RegisterRoutes(r, orderController, paymentController, adminController)

	return r
}

func maxInFlight() int {
	if n, err := strconv.Atoi(os.Getenv("MAX_IN_FLIGHT_ORDERS")); err == nil && n > 0 {
		return n
	}
	return 256
}

func RegisterRoutes(r *gin.Engine,
	orderController *controllers.OrderController,
	paymentController *controllers.PaymentController,
	adminController *controllers.AdminController) {

	ordersGroup := r.Group("/orders")
	ordersGroup.POST("", middleware.AdmissionControl(maxInFlight()), orderController.CreateOrder)
	ordersGroup.GET("/:orderNo", orderController.GetOrder)

	productsGroup := r.Group("/products")
	productsGroup.GET("/:slug/stock", orderController.GetStock)

	paymentsGroup := r.Group("/payments")
	paymentsGroup.POST("/webhook", paymentController.HandleWebhook)

	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.JWTAuthMiddleware(), middleware.RoleMiddleware("admin"))
	adminGroup.POST("/orders/:orderNo/refund", adminController.RefundOrder)
	adminGroup.POST("/orders/:orderNo/cancel", adminController.CancelOrder)
	adminGroup.GET("/orders/:orderNo/keys", adminController.DeliverKeys)
	adminGroup.GET("/orders/stuck", adminController.ListStuckOrders)
	adminGroup.POST("/products/:id/keys", adminController.ImportKeys)
	adminGroup.POST("/products/:id/alert/reset", adminController.ResetAlertCooldown)
	adminGroup.POST("/products/:id/alert/recheck", adminController.ForceStockRecheck)
	adminGroup.POST("/keys/:id/revoke", adminController.RevokeKey)
}
