package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/shinyyama/motors-backend/internal/handler"
	appmw "github.com/shinyyama/motors-backend/internal/middleware"
	"github.com/shinyyama/motors-backend/internal/repository"
	"github.com/shinyyama/motors-backend/internal/service"
	"gorm.io/gorm"
)

// Deps are the optional collaborators wired in by main. Nil members disable
// the matching feature.
type Deps struct {
	Logger       zerolog.Logger
	Auth         *appmw.AuthMiddleware
	Users        handler.UserDirectory
	PackageCache service.PackageCache
	Receipts     service.ReceiptStore
	Reader       service.ReceiptReader
	SHA          string
	BuildTime    string
}

type Server struct {
	e           *echo.Echo
	listingRepo repository.ListingRepository
	orderRepo   repository.PaymentOrderRepository
	packageRepo repository.PackageRepository
	notifyRepo  repository.NotificationRepository
}

func New(db *gorm.DB, deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(appmw.RequestLogger(deps.Logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) (bool, error) {
			low := strings.ToLower(origin)
			if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
				strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
				return true, nil
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false, nil
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return false, nil
			}
			host := u.Hostname()
			if strings.HasSuffix(host, "vercel.app") {
				return true, nil
			}
			return false, nil
		},
	}))

	listingRepo := repository.NewListingRepository(db)
	orderRepo := repository.NewPaymentOrderRepository(db)
	packageRepo := repository.NewPackageRepository(db)
	notifyRepo := repository.NewNotificationRepository(db)

	notifySvc := service.NewNotificationService(notifyRepo)
	catalogSvc := service.NewCatalogService(packageRepo, deps.PackageCache)
	listingSvc := service.NewListingService(listingRepo, notifySvc)
	resolver := service.NewPromotionResolver(listingRepo, catalogSvc, notifySvc)
	orderSvc := service.NewPaymentOrderService(orderRepo, catalogSvc, resolver, deps.Receipts, deps.Reader)

	listingHandler := handler.NewListingHandler(listingSvc, resolver)
	orderHandler := handler.NewPaymentOrderHandler(orderSvc)
	packageHandler := handler.NewPackageHandler(catalogSvc)
	notifyHandler := handler.NewNotificationHandler(notifySvc)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    deps.SHA,
			"build_time": deps.BuildTime,
		})
	})

	api := e.Group("/api")
	api.GET("/packages", packageHandler.ListActive)
	api.GET("/packages/:id", packageHandler.Get)
	api.GET("/listings", listingHandler.List)

	if authMw := deps.Auth; authMw != nil {
		userHandler := handler.NewUserHandler(deps.Users, authMw)
		api.GET("/listings/:id", listingHandler.Get, authMw.OptionalAuth)
		api.GET("/users/:uid/public", userHandler.GetPublic)

		me := api.Group("", authMw.RequireAuth)
		me.GET("/me", userHandler.Me)
		me.POST("/listings", listingHandler.Create)
		me.GET("/me/listings", listingHandler.ListMine)
		me.POST("/payment-orders", orderHandler.Create)
		me.GET("/me/payment-orders", orderHandler.ListMine)
		me.GET("/notifications", notifyHandler.List)
		me.POST("/notifications/read", notifyHandler.MarkAllRead)
		me.POST("/notifications/listings/:id/read", notifyHandler.MarkListingRead)

		admin := api.Group("/admin", authMw.RequireAuth, authMw.RequireAdmin)
		admin.GET("/listings", listingHandler.ListByStatus)
		admin.GET("/listings/:id", listingHandler.Get)
		admin.PATCH("/listings/:id/status", listingHandler.UpdateStatus)
		admin.PATCH("/listings/:id", listingHandler.Edit)
		admin.DELETE("/listings/:id", listingHandler.Delete)
		admin.POST("/listings/:id/promotion", listingHandler.Promote)
		admin.GET("/payment-orders", orderHandler.List)
		admin.GET("/payment-orders/stats", orderHandler.Statistics)
		admin.GET("/payment-orders/:id", orderHandler.Get)
		admin.POST("/payment-orders/:id/approve", orderHandler.Approve)
		admin.POST("/payment-orders/:id/reject", orderHandler.Reject)
		admin.GET("/packages", packageHandler.List)
		admin.POST("/packages", packageHandler.Create)
		admin.PUT("/packages/:id", packageHandler.Update)
		admin.DELETE("/packages/:id", packageHandler.Delete)
	} else {
		api.GET("/listings/:id", listingHandler.Get)
	}

	return &Server{e: e, listingRepo: listingRepo, orderRepo: orderRepo, packageRepo: packageRepo, notifyRepo: notifyRepo}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) Handler() http.Handler {
	return s.e
}

// SetDB attaches a connection established after the server started.
func (s *Server) SetDB(db *gorm.DB) {
	s.listingRepo.SetDB(db)
	s.orderRepo.SetDB(db)
	s.packageRepo.SetDB(db)
	s.notifyRepo.SetDB(db)
}
