package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/luminalib/lumina/config"
	"github.com/luminalib/lumina/handlers"
	"github.com/luminalib/lumina/middleware"
	"github.com/luminalib/lumina/service"
	"github.com/luminalib/lumina/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config:", err)
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal("store:", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Println("store close:", err)
		}
	}()
	if err := db.Seed(context.Background()); err != nil {
		log.Fatal("seed:", err)
	}

	var client service.SearchClient
	if cfg.ExternalEnabled() {
		client = service.NewExternalClient(cfg.ExternalBaseURL, cfg.ExternalToken)
	} else {
		log.Println("external catalog not configured; catalog search is local only")
	}
	catalog := service.NewCatalog(db, client)
	mailer := service.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)

	authHandler := &handlers.AuthHandler{DB: db, JWTSecret: cfg.SecretKey}
	catalogHandler := &handlers.CatalogHandler{Catalog: catalog}
	loansHandler := &handlers.LoansHandler{DB: db, LoanDurationDays: cfg.LoanDurationDays}
	dashboardHandler := &handlers.DashboardHandler{DB: db, Mailer: mailer, LoanDurationDays: cfg.LoanDurationDays}

	r := chi.NewRouter()
	r.Use(middleware.AllowAll())
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/register", authHandler.Register)
		r.Get("/catalog", catalogHandler.Search)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.SecretKey))
			r.Get("/me", authHandler.Me)
			r.Post("/books/{id}/checkout", loansHandler.Checkout)
			r.Post("/loans/{id}/return", loansHandler.Return)
			r.Get("/loans", loansHandler.List)

			// Librarian-only routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireLibrarian)
				r.Get("/dashboard", dashboardHandler.Overview)
				r.Post("/books", dashboardHandler.AddBook)
				r.Post("/loans/manual", dashboardHandler.ManualCheckout)
				r.Post("/loans/{id}/remind", dashboardHandler.Remind)
			})
		})
	})

	server := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Println("server listening on :" + cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("shutdown:", err)
	}
}
