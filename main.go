package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/ironvale/gatekeeperbackend/config"
	"github.com/ironvale/gatekeeperbackend/database"
	"github.com/ironvale/gatekeeperbackend/handlers"
	"github.com/ironvale/gatekeeperbackend/services"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	store := database.NewStore(cfg.DatabasePath)
	if err := store.Init(); err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	defer store.Close()

	log.Printf("Using database: %s", cfg.DatabasePath)
	log.Printf("Facility timezone: %s", cfg.FacilityTimezone)

	visitorService := &services.VisitorService{Store: store}
	assessmentService := &services.AssessmentService{Store: store, TopAnomalyLimit: cfg.TopAnomalyLimit}
	staffService := &services.StaffService{Store: store, FacilityLocation: cfg.FacilityLocation}
	deliveryService := &services.DeliveryService{Store: store}
	emergencyService := &services.EmergencyService{Store: store}

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Performed-By"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsHandler.Handler)

	visitorHandler := &handlers.VisitorHandler{Store: store, Service: visitorService}
	assessmentHandler := &handlers.AssessmentHandler{Store: store, Service: assessmentService}
	staffHandler := &handlers.StaffHandler{Store: store, Service: staffService}
	deliveryHandler := &handlers.DeliveryHandler{Store: store, Service: deliveryService}
	emergencyHandler := &handlers.EmergencyHandler{Store: store, Service: emergencyService}
	auditHandler := &handlers.AuditHandler{Store: store}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","timestamp":%q}`, time.Now().UTC().Format(time.RFC3339))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/visitors", func(r chi.Router) {
			r.Post("/", visitorHandler.CreateVisitor)
			r.Get("/", visitorHandler.ListVisitors)
			r.Route("/{visitor_id}", func(r chi.Router) {
				r.Get("/", visitorHandler.GetVisitor)
				r.Delete("/", visitorHandler.DeleteVisitor)
				r.Post("/approve", visitorHandler.ApproveVisitor)
				r.Post("/deny", visitorHandler.DenyVisitor)
				r.Post("/entry", visitorHandler.MarkEntry)
				r.Post("/exit", visitorHandler.MarkExit)
				r.Route("/assessments", func(r chi.Router) {
					r.Post("/", assessmentHandler.CreateAssessment)
					r.Get("/", assessmentHandler.ListAssessments)
				})
			})
		})

		r.Route("/staff", func(r chi.Router) {
			r.Post("/", staffHandler.CreateStaff)
			r.Get("/", staffHandler.ListStaff)
			r.Post("/access-check", staffHandler.CheckAccess)
			r.Route("/{staff_id}", func(r chi.Router) {
				r.Get("/", staffHandler.GetStaff)
				r.Delete("/", staffHandler.DeleteStaff)
				r.Put("/schedule", staffHandler.UpdateSchedule)
				r.Post("/deactivate", staffHandler.DeactivateStaff)
				r.Post("/reactivate", staffHandler.ReactivateStaff)
			})
		})

		r.Route("/deliveries", func(r chi.Router) {
			r.Post("/", deliveryHandler.CreateDelivery)
			r.Get("/", deliveryHandler.ListDeliveries)
			r.Route("/{delivery_id}", func(r chi.Router) {
				r.Get("/", deliveryHandler.GetDelivery)
				r.Post("/access", deliveryHandler.GrantAccess)
				r.Put("/status", deliveryHandler.UpdateStatus)
			})
		})

		r.Route("/emergencies", func(r chi.Router) {
			r.Post("/", emergencyHandler.Activate)
			r.Get("/", emergencyHandler.ListEmergencies)
			r.Route("/{emergency_id}", func(r chi.Router) {
				r.Get("/", emergencyHandler.GetEmergency)
				r.Post("/deactivate", emergencyHandler.Deactivate)
				r.Post("/entries", emergencyHandler.RecordAffectedEntry)
			})
		})

		r.Get("/audit", auditHandler.ListByEntity)
	})

	serverAddr := ":" + cfg.Port
	log.Printf("Server listening on %s", serverAddr)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}
