package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"avivia/admin"
	"avivia/batch"
	"avivia/confirm"
	"avivia/ledger"
	"avivia/ratelim"
	"avivia/realtime"
	"avivia/routes"
	"avivia/store"
	"avivia/waitlist"

	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request method, path, remote address, and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s from %s – %v", r.Method, r.RequestURI, r.RemoteAddr, time.Since(start))
	})
}

func main() {
	// load .env if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	} else if port[0] != ':' {
		port = ":" + port
	}

	remote := store.New()
	bookings := ledger.New(remote)
	queue := waitlist.New(remote)
	selections := batch.NewManager(bookings)

	// Seed the local replicas from the shared store before serving.
	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if snap, err := remote.LoadLedger(seedCtx); err != nil {
		log.Println("initial ledger load failed:", err)
	} else {
		bookings.Replace(snap)
	}
	if snap, err := remote.LoadWaitlist(seedCtx); err != nil {
		log.Println("initial waitlist load failed:", err)
	} else {
		queue.Replace(snap)
	}
	seedCancel()

	// Refresh the replica on every push notification from other sessions.
	subCtx, subCancel := context.WithCancel(context.Background())
	defer subCancel()
	remote.Subscribe(subCtx, func(kind string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		switch kind {
		case store.KindLedger:
			snap, err := remote.LoadLedger(ctx)
			if err != nil {
				log.Println("ledger refresh failed:", err)
				return
			}
			bookings.Replace(snap)
		case store.KindWaitlist:
			snap, err := remote.LoadWaitlist(ctx)
			if err != nil {
				log.Println("waitlist refresh failed:", err)
				return
			}
			queue.Replace(snap)
		}
	})

	// Drop abandoned selection carts.
	go func() {
		for range time.Tick(time.Hour) {
			selections.Sweep(6 * time.Hour)
		}
	}()

	broadcaster := realtime.NewBroadcaster(bookings)
	broadcaster.Attach()

	rateLimiter := ratelim.NewRateLimiter()

	router := httprouter.New()
	router.GET("/health", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.Write([]byte("200"))
	})

	routes.AddBookingRoutes(router, ledger.NewAPI(bookings), rateLimiter)
	routes.AddConfirmationRoutes(router, confirm.NewAPI(bookings))
	routes.AddWaitlistRoutes(router, waitlist.NewAPI(queue), rateLimiter)
	routes.AddSelectionRoutes(router, batch.NewAPI(selections), rateLimiter)
	routes.AddProfileRoutes(router)
	routes.AddAdminRoutes(router, admin.NewAPI(bookings, queue), rateLimiter)
	routes.AddRealtimeRoutes(router, broadcaster)
	routes.AddStatusRoutes(router, remote)

	// apply middleware: CORS → security headers → logging → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // lock down in production
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Session-ID"},
		ExposedHeaders:   []string{"X-Session-ID"},
		AllowCredentials: true,
	}).Handler(router)

	handler := loggingMiddleware(securityHeaders(corsHandler))

	server := &http.Server{
		Addr:              port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		log.Printf("Server started on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Forced shutdown: %v", err)
	}
	log.Println("Server exited cleanly")
}
