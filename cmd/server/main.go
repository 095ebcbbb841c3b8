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
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/railswift/booking-backend/internal/config"
	"github.com/railswift/booking-backend/internal/database"
	"github.com/railswift/booking-backend/internal/handlers"
	"github.com/railswift/booking-backend/internal/middleware"
	"github.com/railswift/booking-backend/internal/queue"
	"github.com/railswift/booking-backend/internal/services"
	"github.com/railswift/booking-backend/pkg/jwt"
	"github.com/railswift/booking-backend/pkg/mailer"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting RailSwift Booking Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Optional infrastructure: redis for live position fan-out, rabbitmq for
	// ticket lifecycle events. Both degrade to nil when unconfigured.
	redisClient := database.NewRedisClient(cfg.Redis, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	publisher := queue.NewPublisher(cfg.Queue.URL, logger)

	// Outbound mail
	var mail mailer.Mailer
	if cfg.Mail.Mode == "api" && cfg.Mail.APIURL != "" {
		logger.Info("Mailer in API mode")
		mail = mailer.NewHTTPMailer(mailer.HTTPConfig{
			APIURL: cfg.Mail.APIURL,
			APIKey: cfg.Mail.APIKey,
			From:   cfg.Mail.From,
		})
	} else {
		logger.Info("Mailer in development mode (emails are logged, not sent)")
		mail = mailer.NewDevMailer(logger)
	}

	// Initialize repositories
	trainRepo := database.NewTrainRepository(db)
	ticketRepo := database.NewTicketRepository(db)
	intentRepo := database.NewBookingIntentRepository(db)
	ledgerRepo := database.NewPaymentLedgerRepository(db)
	auditRepo := database.NewPaymentAuditRepository(db, logger)
	positionRepo := database.NewLivePositionRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(cfg.Admin.JWTSecret, cfg.Admin.TokenExpiry)
	notifier := services.NewNotificationService(mail, logger)
	gateway := services.NewGatewayClient(&cfg.Payment, logger)
	if !gateway.IsConfigured() {
		logger.Warn("Payment gateway credentials missing, only simulated payments will work")
	}

	intentService := services.NewBookingIntentService(intentRepo, ticketRepo, trainRepo, &cfg.Booking, logger)
	paymentService := services.NewPaymentService(
		intentService,
		intentRepo,
		ticketRepo,
		ledgerRepo,
		auditRepo,
		gateway,
		notifier,
		publisher,
		&cfg.Payment,
		cfg.Server.Environment,
		logger,
	)
	ticketService := services.NewTicketService(ticketRepo, trainRepo, notifier, publisher, logger)
	trainService := services.NewTrainService(trainRepo, ticketRepo, logger)
	liveService := services.NewLivePositionService(trainRepo, positionRepo, redisClient, &cfg.Simulator, logger)
	adminAuthService := services.NewAdminAuthService(&cfg.Admin, jwtService, logger)

	// Initialize and start cron service
	cronService := services.NewCronService(liveService, cfg.Simulator.ScanSpec, logger)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}
	logger.Info("Cron service started, simulator scan enabled")

	logger.Info("Services initialized")

	// Initialize handlers
	bookingHandler := handlers.NewBookingHandler(intentService, ticketService, logger)
	paymentHandler := handlers.NewPaymentHandler(paymentService, logger)
	trainHandler := handlers.NewTrainHandler(trainService, liveService, logger)
	ticketHandler := handlers.NewTicketHandler(ticketService, logger)
	adminHandler := handlers.NewAdminHandler(adminAuthService, trainService, liveService, cronService, ledgerRepo, logger)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS configuration
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Train catalogue and live tracking (public)
		trains := v1.Group("/trains")
		{
			trains.GET("", trainHandler.ListTrains)
			trains.GET("/:id", trainHandler.GetTrain)
			trains.GET("/:id/live-location", trainHandler.LiveLocation)
		}

		// Booking (public; identity is the email on the request)
		v1.POST("/book-ticket", bookingHandler.BookTicket)
		v1.POST("/book-ticket/direct", bookingHandler.BookDirect)

		// Payment lifecycle
		payment := v1.Group("/payment")
		{
			payment.POST("/create-order", paymentHandler.CreateOrder)
			payment.POST("/verify", paymentHandler.VerifyPayment)
			payment.POST("/failure", paymentHandler.ReportFailure)
			payment.POST("/simulate", paymentHandler.SimulatePayment)
		}

		// Tickets
		tickets := v1.Group("/tickets")
		{
			tickets.GET("", ticketHandler.ListByEmail)
			tickets.GET("/pnr/:pnr", ticketHandler.GetByPNR)
			tickets.POST("/:id/cancel", ticketHandler.Cancel)
		}

		// Operator console
		admin := v1.Group("/admin")
		{
			admin.POST("/login", adminHandler.Login)

			protected := admin.Group("")
			protected.Use(middleware.OperatorAuth(jwtService, logger))
			{
				protected.PUT("/trains/:id/delay", adminHandler.UpdateDelay)
				protected.POST("/trains/:id/stop-simulation", adminHandler.StopSimulation)
				protected.GET("/revenue", adminHandler.Revenue)
				protected.GET("/cron/status", adminHandler.CronStatus)
				protected.POST("/cron/run-scan", adminHandler.RunScan)
			}
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	logger.Info("Stopping cron service...")
	cronService.Stop()

	logger.Info("Stopping live position simulations...")
	liveService.StopAll()

	logger.Info("Draining notification queue...")
	notifier.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		if operator, ok := middleware.GetOperator(c); ok {
			fields["operator"] = operator.Username
		}

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
			return
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
