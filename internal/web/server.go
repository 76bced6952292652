// Package web is the HTTP surface of the application: server rendered pages
// for caseworkers and a few JSON endpoints used by page scripts.
package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/approved-premises/internal/apiclient"
	"github.com/terra-clan/approved-premises/internal/audit"
	"github.com/terra-clan/approved-premises/internal/config"
	"github.com/terra-clan/approved-premises/internal/health"
	"github.com/terra-clan/approved-premises/internal/journeys"
	"github.com/terra-clan/approved-premises/internal/metrics"
	"github.com/terra-clan/approved-premises/internal/models"
	"github.com/terra-clan/approved-premises/internal/render"
	"github.com/terra-clan/approved-premises/internal/services"
	"github.com/terra-clan/approved-premises/internal/session"
)

// Services are the services the handlers call
type Services struct {
	Users                 *services.UserService
	People                *services.PersonService
	Dashboard             *services.DashboardService
	Applications          *services.ApplicationService
	Assessments           *services.AssessmentService
	PlacementApplications *services.PlacementApplicationService
	PlacementRequests     *services.PlacementRequestService
	Premises              *services.PremisesService
	SpaceBookings         *services.SpaceBookingService
	OutOfServiceBeds      *services.OutOfServiceBedService
}

// NewServices creates every service on top of one API client
func NewServices(api *apiclient.Client, loader *journeys.Loader, auditRepo audit.Repository) *Services {
	return &Services{
		Users:                 services.NewUserService(api),
		People:                services.NewPersonService(api),
		Dashboard:             services.NewDashboardService(api),
		Applications:          services.NewApplicationService(api, loader, auditRepo),
		Assessments:           services.NewAssessmentService(api, loader, auditRepo),
		PlacementApplications: services.NewPlacementApplicationService(api, loader, auditRepo),
		PlacementRequests:     services.NewPlacementRequestService(api, auditRepo),
		Premises:              services.NewPremisesService(api),
		SpaceBookings:         services.NewSpaceBookingService(api, auditRepo),
		OutOfServiceBeds:      services.NewOutOfServiceBedService(api, auditRepo),
	}
}

// Server represents the HTTP server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	services       *Services
	views          *render.Renderer
	sessions       *session.Manager
	health         *health.Registry
	authMiddleware *AuthMiddleware
}

// NewServer creates a new HTTP server
func NewServer(
	cfg config.ServerConfig,
	svc *Services,
	views *render.Renderer,
	sessions *session.Manager,
	registry *health.Registry,
) *Server {
	s := &Server{
		config:   cfg,
		services: svc,
		views:    views,
		sessions: sessions,
		health:   registry,
	}
	s.authMiddleware = NewAuthMiddleware(svc.Users, s.fail)
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()
	perm := s.authMiddleware.RequirePermission

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(metrics.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health and metrics (public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// JSON endpoints used by page scripts
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.allowedOrigins(),
			AllowedMethods:   []string{"GET", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		r.Use(s.sessions.Middleware)
		r.Use(s.authMiddleware.Authenticate)

		r.With(perm(models.PermissionPersonSearch)).Get("/people/search", s.handleSearchPerson)
		r.With(perm(models.PermissionPremisesView)).Get("/premises/{id}/capacity", s.handlePremisesCapacity)
	})

	// Pages (session and authentication required)
	r.Group(func(r chi.Router) {
		r.Use(s.sessions.Middleware)
		r.Use(s.authMiddleware.Authenticate)

		r.Get("/", s.handleDashboard)

		// Applications
		r.Route("/applications", func(r chi.Router) {
			r.Get("/", s.handleListApplications)
			r.With(perm(models.PermissionApplicationCreate)).Get("/new", s.handleNewApplication)
			r.With(perm(models.PermissionApplicationCreate)).Post("/", s.handleCreateApplication)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleShowApplication)
				s.formRoutes(r, s.services.Applications)
				r.Post("/submission", s.handleSubmitApplication)
				r.With(perm(models.PermissionApplicationWithdraw)).Post("/withdrawal", s.handleWithdrawApplication)
			})
		})

		// Assessments
		r.Route("/assessments", func(r chi.Router) {
			r.Use(perm(models.PermissionAssessmentView))
			r.Get("/", s.handleListAssessments)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleShowAssessment)
				s.formRoutes(r, s.services.Assessments)
				r.With(perm(models.PermissionAssessmentSubmit)).Post("/submission", s.handleSubmitAssessment)
				r.Post("/clarification-notes", s.handleCreateClarificationNote)
			})
		})

		// Placement applications
		r.Route("/placement-applications", func(r chi.Router) {
			r.With(perm(models.PermissionPlacementAppCreate)).Post("/", s.handleCreatePlacementApplication)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleShowPlacementApplication)
				s.formRoutes(r, s.services.PlacementApplications)
				r.Post("/submission", s.handleSubmitPlacementApplication)
			})
		})

		// Placement requests
		r.Route("/placement-requests", func(r chi.Router) {
			r.Use(perm(models.PermissionPlacementRequestView))
			r.Get("/", s.handleListPlacementRequests)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleShowPlacementRequest)
				r.With(perm(models.PermissionSpaceBookingCreate)).Get("/space-bookings/new", s.handleNewSpaceBooking)
				r.With(perm(models.PermissionSpaceBookingCreate)).Post("/space-bookings/new", s.handleCreateSpaceBooking)
				r.With(perm(models.PermissionBookingNotMadeRecord)).Post("/booking-not-made", s.handleBookingNotMade)
			})
		})

		// Premises
		r.Route("/premises", func(r chi.Router) {
			r.Use(perm(models.PermissionPremisesView))
			r.Get("/", s.handleListPremises)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleShowPremises)
				r.Get("/space-bookings/{bookingId}", s.handleShowSpaceBooking)
				r.With(perm(models.PermissionSpaceBookingWithdraw)).Post("/space-bookings/{bookingId}/cancellations", s.handleCancelSpaceBooking)
				r.Get("/out-of-service-beds", s.handleListOutOfServiceBeds)
				r.With(perm(models.PermissionOutOfServiceBedCreate)).Get("/out-of-service-beds/new", s.handleNewOutOfServiceBed)
				r.With(perm(models.PermissionOutOfServiceBedCreate)).Post("/out-of-service-beds/new", s.handleCreateOutOfServiceBed)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.fail(w, r, http.StatusNotFound, "not_found", "The page you were looking for could not be found")
	})

	s.router = r
}

// formRoutes adds the wizard pages shared by every record filled in page by page
func (s *Server) formRoutes(r chi.Router, svc services.FormService) {
	r.Get("/tasks/{task}/pages/{page}", s.handleShowPage(svc))
	r.Post("/tasks/{task}/pages/{page}", s.handleSavePage(svc))
	r.Get("/check-your-answers", s.handleCheckYourAnswers(svc))
}

// allowedOrigins limits cross origin calls to the service itself when its
// public URL is known
func (s *Server) allowedOrigins() []string {
	if s.config.BaseURL != "" {
		return []string{s.config.BaseURL}
	}
	return []string{"*"}
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
