package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/tillpoint/internal/audit"
	auditdomain "github.com/smallbiznis/tillpoint/internal/audit/domain"
	"github.com/smallbiznis/tillpoint/internal/auth"
	authdomain "github.com/smallbiznis/tillpoint/internal/auth/domain"
	"github.com/smallbiznis/tillpoint/internal/authorization"
	"github.com/smallbiznis/tillpoint/internal/cart"
	cartdomain "github.com/smallbiznis/tillpoint/internal/cart/domain"
	"github.com/smallbiznis/tillpoint/internal/checkout"
	checkoutdomain "github.com/smallbiznis/tillpoint/internal/checkout/domain"
	"github.com/smallbiznis/tillpoint/internal/config"
	"github.com/smallbiznis/tillpoint/internal/inventory"
	inventorydomain "github.com/smallbiznis/tillpoint/internal/inventory/domain"
	"github.com/smallbiznis/tillpoint/internal/ledger"
	ledgerdomain "github.com/smallbiznis/tillpoint/internal/ledger/domain"
	"github.com/smallbiznis/tillpoint/internal/observability"
	obsmiddleware "github.com/smallbiznis/tillpoint/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/tillpoint/internal/observability/metrics"
	obstracing "github.com/smallbiznis/tillpoint/internal/observability/tracing"
	"github.com/smallbiznis/tillpoint/internal/override"
	overridedomain "github.com/smallbiznis/tillpoint/internal/override/domain"
	"github.com/smallbiznis/tillpoint/internal/pricing"
	"github.com/smallbiznis/tillpoint/internal/product"
	productdomain "github.com/smallbiznis/tillpoint/internal/product/domain"
	"github.com/smallbiznis/tillpoint/internal/providers/pinverify"
	"github.com/smallbiznis/tillpoint/internal/ratelimit"
	"github.com/smallbiznis/tillpoint/internal/settings"
	settingsdomain "github.com/smallbiznis/tillpoint/internal/settings/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	pricing.Module,
	authorization.Module,
	audit.Module,
	auth.Module,
	pinverify.Module,
	override.Module,
	product.Module,
	inventory.Module,
	cart.Module,
	ledger.Module,
	checkout.Module,
	settings.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	db          *gorm.DB
	genID       *snowflake.Node
	authsvc     authdomain.Service
	authzSvc    authorization.Service
	auditSvc    auditdomain.Service
	cartSvc     cartdomain.Service
	checkoutSvc checkoutdomain.Service
	ledgerSvc   ledgerdomain.Service
	overrideSvc overridedomain.Service
	productSvc  productdomain.Service
	settingsSvc settingsdomain.Service
	movements   inventorydomain.Repository
	verifier    pinverify.Verifier
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DB          *gorm.DB
	GenID       *snowflake.Node
	Authsvc     authdomain.Service
	AuthzSvc    authorization.Service
	AuditSvc    auditdomain.Service
	CartSvc     cartdomain.Service
	CheckoutSvc checkoutdomain.Service
	LedgerSvc   ledgerdomain.Service
	OverrideSvc overridedomain.Service
	ProductSvc  productdomain.Service
	SettingsSvc settingsdomain.Service
	Movements   inventorydomain.Repository
	Verifier    pinverify.Verifier
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		db:          p.DB,
		genID:       p.GenID,
		authsvc:     p.Authsvc,
		authzSvc:    p.AuthzSvc,
		auditSvc:    p.AuditSvc,
		cartSvc:     p.CartSvc,
		checkoutSvc: p.CheckoutSvc,
		ledgerSvc:   p.LedgerSvc,
		overrideSvc: p.OverrideSvc,
		productSvc:  p.ProductSvc,
		settingsSvc: p.SettingsSvc,
		movements:   p.Movements,
		verifier:    p.Verifier,
	}

	svc.registerAuthRoutes()
	svc.registerSettingsRoutes()
	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/api/auth")

	auth.POST("/login", s.Login)
	auth.POST("/logout", s.AuthRequired(), s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
	auth.POST("/verify-pin", s.AuthRequired(), s.VerifyPIN)
	auth.POST("/change-password", s.AuthRequired(), s.ChangePassword)
}

// registerSettingsRoutes sits outside the authenticated API group because
// public settings are readable without a session.
func (s *Server) registerSettingsRoutes() {
	settings := s.engine.Group("/api/settings")

	settings.GET("", s.AuthOptional(), s.ListSettings)
	settings.GET("/:key", s.AuthOptional(), s.GetSetting)
	settings.PUT("/:key", s.AuthRequired(), s.authorize(authorization.ObjectSettings, authorization.ActionUpdate), s.UpsertSetting)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.AuthRequired())

	// -------- Products --------
	api.GET("/products", s.authorize(authorization.ObjectProduct, authorization.ActionView), s.ListProducts)
	api.POST("/products", s.authorize(authorization.ObjectProduct, authorization.ActionCreate), s.CreateProduct)
	api.GET("/products/:id", s.authorize(authorization.ObjectProduct, authorization.ActionView), s.GetProductByID)
	api.PATCH("/products/:id", s.authorize(authorization.ObjectProduct, authorization.ActionUpdate), s.UpdateProduct)
	api.POST("/products/:id/adjust-stock", s.authorize(authorization.ObjectProduct, authorization.ActionAdjust), s.AdjustStock)
	api.GET("/products/barcode/:barcode", s.authorize(authorization.ObjectProduct, authorization.ActionView), s.GetProductByBarcode)
	api.GET("/products/:id/movements", s.authorize(authorization.ObjectProduct, authorization.ActionView), s.ListStockMovements)

	// -------- Cart --------
	api.GET("/cart", s.GetCart)
	api.POST("/cart/items", s.AddCartItem)
	api.PATCH("/cart/items/:itemId", s.UpdateCartItem)
	api.DELETE("/cart/items/:itemId", s.RemoveCartItem)
	api.POST("/cart/discount", s.SetCartDiscount)
	api.DELETE("/cart", s.ClearCart)

	// -------- Checkout --------
	api.POST("/checkout/process", s.authorize(authorization.ObjectCheckout, authorization.ActionCheckoutProcess), s.ProcessCheckout)
	api.POST("/checkout/void", s.VoidTransaction)
	api.POST("/checkout/refund", s.RefundTransaction)

	// -------- Transactions --------
	api.GET("/transactions", s.authorize(authorization.ObjectTransaction, authorization.ActionView), s.ListTransactions)
	api.GET("/transactions/:id", s.authorize(authorization.ObjectTransaction, authorization.ActionView), s.GetTransactionByID)
	api.GET("/transactions/number/:number", s.authorize(authorization.ObjectTransaction, authorization.ActionView), s.GetTransactionByNumber)

	// -------- Audit --------
	api.GET("/audit-logs", s.authorize(authorization.ObjectAuditLog, authorization.ActionView), s.ListAuditLogs)
}
