package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/gorilla/mux"

	"lexcora-checkout-api/config"
	"lexcora-checkout-api/database"
	"lexcora-checkout-api/handlers"
	"lexcora-checkout-api/middleware"
	"lexcora-checkout-api/queue"
	"lexcora-checkout-api/services/auth"
	"lexcora-checkout-api/services/captcha"
	"lexcora-checkout-api/services/catalog"
	"lexcora-checkout-api/services/checkout"
	"lexcora-checkout-api/services/email"
	"lexcora-checkout-api/services/events"
	"lexcora-checkout-api/services/leads"
	"lexcora-checkout-api/services/otp"
	"lexcora-checkout-api/services/payment"
	"lexcora-checkout-api/worker"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile | log.Lmicroseconds | log.LUTC)
	log.Printf("Server starting with %d CPUs available", runtime.NumCPU())

	cfg := config.Load()

	var db *database.Connection
	var err error
	for retries := 0; retries < 5; retries++ {
		db, err = database.NewConnection(cfg.Database)
		if err == nil {
			break
		}
		retryDelay := time.Duration(retries+1) * time.Second
		log.Printf("Failed to connect to database (attempt %d/5): %v. Retrying in %v...",
			retries+1, err, retryDelay)
		time.Sleep(retryDelay)
	}
	if err != nil {
		log.Fatalf("Failed to connect to database after retries: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := db.Ping(ctx); err != nil {
		cancel()
		log.Fatalf("Failed to ping database: %v", err)
	}
	cancel()
	log.Println("Successfully connected to database")

	jobQueue, err := queue.NewQueue(cfg.Redis.URL, "checkout_jobs")
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer jobQueue.Close()
	log.Println("Successfully connected to Redis")

	publisher, err := events.NewPublisher(cfg.NATS.URL, cfg.NATS.Subject)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer publisher.Close()

	emailService := email.NewSMTPService(cfg.SMTP)
	otpService := otp.NewService(otp.NewRedisStore(jobQueue.Client()), emailService, otp.Config{
		TTL:         cfg.Checkout.OTPTTL,
		MaxAttempts: cfg.Checkout.OTPMaxAttempts,
		BypassCode:  cfg.Checkout.BypassCode,
	})
	tiers := catalog.New(db, cfg.Stripe.PriceRefs)

	paymentService := payment.NewPaymentService(payment.NewStripeClient(cfg.Stripe.SecretKey))
	handoff, err := payment.NewHandoff(cfg.Stripe.Mode, paymentService)
	if err != nil {
		log.Fatalf("Invalid payment configuration: %v", err)
	}
	log.Printf("Payment handoff mode: %s", cfg.Stripe.Mode)

	leadService := leads.NewService(db, jobQueue)

	manager := checkout.NewManager(tiers, checkout.Deps{
		OTP:             otpService,
		Payment:         handoff,
		Recorder:        leadService,
		Locker:          db,
		RequestTimeout:  cfg.Checkout.RequestTimeout,
		CallbackBaseURL: cfg.Server.PublicURL,
	}, checkout.Options{
		SessionTTL:      cfg.Checkout.SessionTTL,
		JanitorInterval: time.Minute,
	})
	defer manager.Stop()

	workerConcurrency := cfg.Redis.WorkerConcurrency
	if workerConcurrency < 2 {
		workerConcurrency = 2
	} else if workerConcurrency > 8 {
		workerConcurrency = 8
	}
	jobWorker := worker.NewWorker(jobQueue, emailService, publisher)
	jobWorker.Start(workerConcurrency)
	defer jobWorker.Stop()

	jwtService := auth.NewJWTService(cfg.Session.Secret, "lexcora-checkout-api", cfg.Checkout.SessionTTL)
	checkoutAuth := middleware.NewCheckoutAuth(jwtService, middleware.NewCookieStore(middleware.CookieOptions{
		Secret: cfg.Session.Secret,
		Domain: cfg.Session.Domain,
		MaxAge: cfg.Session.MaxAge,
		Secure: cfg.Session.Secure,
	}))
	captchaVerifier := captcha.NewVerifier(cfg.Captcha.Secret, cfg.Captcha.VerifyURL)

	checkoutHandler, err := handlers.NewCheckoutHandler(manager, checkoutAuth, cfg.Server.FrontendURL)
	if err != nil {
		log.Fatalf("Failed to create checkout handler: %v", err)
	}
	otpHandler := handlers.NewOTPHandler(otpService, captchaVerifier)
	paymentHandler := handlers.NewPaymentHandler(paymentService, tiers, cfg.Server.FrontendURL)
	webhookHandler := handlers.NewStripeWebhookHandler(cfg.Stripe.WebhookSecret, manager, leadService, tiers)
	pricingHandler := handlers.NewPricingHandler(tiers)
	trialHandler := handlers.NewTrialHandler(leadService, captchaVerifier)
	internalHandler := handlers.NewInternalHandler(cfg.Internal.Secret, jobQueue, manager)

	rateLimiter := middleware.NewRateLimiter(jobQueue.Client())

	router := mux.NewRouter()
	router.Use(middleware.CORS(cfg.Server.AllowedOrigin))
	router.Use(middleware.SecurityHeaders)
	router.Use(middleware.Logging)
	router.Use(rateLimiter.RateLimitMiddleware())

	api := router.PathPrefix("/api").Subrouter()

	// Guided checkout session
	api.HandleFunc("/checkout/open", checkoutHandler.Open).Methods("POST", "OPTIONS")
	api.HandleFunc("/checkout/callback/success", checkoutHandler.PaymentSuccessCallback).Methods("GET")
	api.HandleFunc("/checkout/callback/cancel", checkoutHandler.PaymentCancelCallback).Methods("GET")

	session := api.PathPrefix("/checkout").Subrouter()
	session.Use(checkoutAuth.RequireCheckout())
	session.HandleFunc("", checkoutHandler.Get).Methods("GET", "OPTIONS")
	session.HandleFunc("/contact", checkoutHandler.SubmitContact).Methods("POST", "OPTIONS")
	session.HandleFunc("/otp", checkoutHandler.SubmitOTP).Methods("POST", "OPTIONS")
	session.HandleFunc("/otp/resend", checkoutHandler.ResendOTP).Methods("POST", "OPTIONS")
	session.HandleFunc("/back", checkoutHandler.Back).Methods("POST", "OPTIONS")
	session.HandleFunc("/payment", checkoutHandler.CompletePayment).Methods("POST", "OPTIONS")
	session.HandleFunc("/close", checkoutHandler.Close).Methods("POST", "OPTIONS")

	// Standalone provider contract
	api.HandleFunc("/send-otp", otpHandler.SendOTP).Methods("POST", "OPTIONS")
	api.HandleFunc("/verify-otp", otpHandler.VerifyOTP).Methods("POST", "OPTIONS")
	api.HandleFunc("/create-checkout-session", paymentHandler.CreateCheckoutSession).Methods("POST", "OPTIONS")
	api.HandleFunc("/create-subscription", paymentHandler.CreateSubscription).Methods("POST", "OPTIONS")

	api.HandleFunc("/stripe/webhook", webhookHandler.HandleWebhook).Methods("POST")
	api.HandleFunc("/pricing", pricingHandler.GetPricing).Methods("GET", "OPTIONS")
	api.HandleFunc("/trial-signup", trialHandler.TrialSignup).Methods("POST", "OPTIONS")

	internal := api.PathPrefix("/internal").Subrouter()
	internal.HandleFunc("/queue", internalHandler.RequireInternalSecret(internalHandler.QueueStats)).Methods("GET")
	internal.HandleFunc("/jobs/{id}/retry", internalHandler.RequireInternalSecret(internalHandler.RetryJob)).Methods("POST")

	startTime := time.Now()

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		health := struct {
			Status          string `json:"status"`
			Time            string `json:"time"`
			Database        string `json:"database"`
			Redis           string `json:"redis"`
			Events          string `json:"events"`
			ActiveCheckouts int    `json:"active_checkouts"`
			Uptime          string `json:"uptime"`
			GoVersion       string `json:"go_version"`
		}{
			Status:          "ok",
			Time:            time.Now().Format(time.RFC3339),
			Database:        "connected",
			Redis:           "connected",
			Events:          "disabled",
			ActiveCheckouts: manager.Len(),
			Uptime:          fmt.Sprintf("%v", time.Since(startTime)),
			GoVersion:       runtime.Version(),
		}

		dbCtx, dbCancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer dbCancel()
		if err := db.Ping(dbCtx); err != nil {
			health.Status = "degraded"
			health.Database = "error"
		}

		redisCtx, redisCancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer redisCancel()
		if err := jobQueue.Client().Ping(redisCtx).Err(); err != nil {
			health.Status = "degraded"
			health.Redis = "error"
		}

		if publisher.Enabled() {
			health.Events = "connected"
			if !publisher.IsConnected() {
				health.Status = "degraded"
				health.Events = "error"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(health)
	}).Methods("GET")

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutdown signal received, gracefully shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	log.Println("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Stopping checkout janitor...")
	manager.Stop()

	log.Println("Stopping job worker...")
	jobWorker.Stop()

	log.Println("Server exited properly")
}
