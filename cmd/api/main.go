package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hmon-seguros/quote-api/internal/config"
	"github.com/hmon-seguros/quote-api/internal/handlers"
	"github.com/hmon-seguros/quote-api/internal/logging"
	"github.com/hmon-seguros/quote-api/internal/middleware"
	"github.com/hmon-seguros/quote-api/internal/observability"
	"github.com/hmon-seguros/quote-api/internal/quoteclient"
	"github.com/hmon-seguros/quote-api/internal/services"
	"github.com/hmon-seguros/quote-api/internal/utils/httpclient"
	"github.com/hmon-seguros/quote-api/internal/wizard"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/hmon-seguros/quote-api/docs"
)

// @title           HMON Quote API
// @version         1.0
// @description     API de cotações de seguro: assistente de cotação auto, ingestão multipart com anexos, listagem com URLs assinadas e simulador de assinatura.

// @contact.name   HMON Seguros
// @contact.email  suporte@hmonseguros.com.br

// @host      localhost:8080
// @BasePath  /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @tag.name wizard
// @tag.description Assistente passo a passo da cotação auto

// @tag.name quotes
// @tag.description Ingestão e consulta de cotações

// @tag.name billing
// @tag.description Simulador de assinatura

// @tag.name health
// @tag.description Verificação de saúde

func main() {
	// .env is optional outside local development
	_ = godotenv.Load()

	if err := logging.InitLogger(); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	if err := config.LoadConfig(); err != nil {
		logging.Logger.Fatal("failed to load config", zap.Error(err))
	}

	observability.InitTracer()
	defer observability.ShutdownTracer()

	config.InitMongoDB()
	config.InitRedis()

	storage, err := services.NewS3Storage(context.Background())
	if err != nil {
		logging.Logger.Fatal("failed to initialize attachment storage", zap.Error(err))
	}

	services.InitQuoteService(storage)
	services.InitCEPService()
	services.InitFIPEService()
	services.InitBillingService()

	handlers.InitWizardHandlers(
		wizard.NewStore(config.Redis, config.AppConfig.WizardSessionTTL),
		quoteclient.NewClient(
			fmt.Sprintf("http://127.0.0.1:%d", config.AppConfig.Port),
			httpclient.GetGlobalPool(),
			logging.Logger,
		),
	)

	if config.AppConfig.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RequestTracker(),
		cors.Default(),
	)
	router.LoadHTMLGlob("templates/*.html")

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.GET("/health", handlers.HealthCheck)

		authed := v1.Group("", middleware.AuthMiddleware())
		{
			authed.POST("/quotes", handlers.SubmitQuote)
			authed.GET("/quotes/my", handlers.ListMyQuotes)
			authed.GET("/quotes/:id", handlers.QuoteDetail)

			authed.POST("/billing/simulate", handlers.SimulateBilling)
			authed.GET("/billing/subscription", handlers.GetSubscription)

			authed.POST("/wizard", handlers.CreateWizardSession)
			authed.GET("/wizard/:id", handlers.GetWizardSession)
			authed.DELETE("/wizard/:id", handlers.DeleteWizardSession)
			authed.PUT("/wizard/:id/field", handlers.SetWizardField)
			authed.POST("/wizard/:id/advance", handlers.AdvanceWizard)
			authed.POST("/wizard/:id/retreat", handlers.RetreatWizard)
			authed.POST("/wizard/:id/reset", handlers.ResetWizard)
			authed.POST("/wizard/:id/cep", handlers.LookupWizardCEP)
			authed.GET("/wizard/:id/catalog/brands", handlers.ListCatalogBrands)
			authed.GET("/wizard/:id/catalog/models", handlers.ListCatalogModels)
			authed.GET("/wizard/:id/catalog/years", handlers.ListCatalogYears)
			authed.POST("/wizard/:id/catalog/brand", handlers.SelectCatalogBrand)
			authed.POST("/wizard/:id/catalog/model", handlers.SelectCatalogModel)
			authed.POST("/wizard/:id/catalog/year", handlers.SelectCatalogYear)
			authed.POST("/wizard/:id/valuation/confirm", handlers.ConfirmValuation)
			authed.POST("/wizard/:id/valuation/reject", handlers.RejectValuation)
			authed.POST("/wizard/:id/attachments/:key", handlers.AttachWizardFile)
			authed.DELETE("/wizard/:id/attachments/:key", handlers.DetachWizardFile)
			authed.POST("/wizard/:id/submit", handlers.SubmitWizard)
		}
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.AppConfig.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logging.Logger.Info("starting server",
			zap.Int("port", config.AppConfig.Port),
			zap.String("environment", config.AppConfig.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logging.Logger.Info("server exited gracefully")
}
