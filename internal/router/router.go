package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/MyraLuetke/CISC498-Backend/internal/account"
	acctentity "github.com/MyraLuetke/CISC498-Backend/internal/account/entity"
	"github.com/MyraLuetke/CISC498-Backend/internal/token"
	"github.com/MyraLuetke/CISC498-Backend/internal/visit"
	"github.com/MyraLuetke/CISC498-Backend/pkg/utilities"
)

type ctxKey string

const ctxRequestID ctxKey = "request_id"

// RequestIDFrom returns the id assigned by RequestIDMiddleware.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxRequestID).(string)
	return id
}

// RequestIDMiddleware tags each request with a KSUID, or keeps the one the
// client sent in X-Request-ID.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" || len(id) > 64 {
			id = utilities.NewKSUID()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxRequestID, id)))
	})
}

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware logs every request; server errors at warn level, the
// rest at debug.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			log := logger.Debugw
			if status >= http.StatusInternalServerError {
				log = logger.Warnw
			}
			log("http request",
				"request_id", RequestIDFrom(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// SecurityHeadersMiddleware sets conservative security headers for a JSON API.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer")
			w.Header().Set("Cache-Control", "no-store")
			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			}
			// HSTS only makes sense over TLS
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Deps are the handlers and services the router mounts.
type Deps struct {
	Accounts       *account.Handler
	Visits         *visit.Handler
	Tokens         *token.Handler
	Auth           *token.Service
	AllowedOrigins []string
	// Ping reports storage health for GET /health. Nil skips the check.
	Ping func(ctx context.Context) error
}

// RegisterRoutes builds the chi router with every endpoint and middleware.
func RegisterRoutes(logger *zap.SugaredLogger, d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(SecurityHeadersMiddleware())

	r.Get("/health", health(d.Ping))

	r.Post("/customer/create_account", d.Accounts.RegisterCustomer)
	r.Post("/business/create_account", d.Accounts.RegisterBusiness)
	r.Post("/api/token", d.Tokens.Obtain)
	r.Post("/api/token/refresh", d.Tokens.Refresh)

	r.Group(func(r chi.Router) {
		r.Use(d.Auth.RequireJWT(logger))

		owner := token.RequireOwner(logger)
		for _, role := range []acctentity.Role{acctentity.RoleCustomer, acctentity.RoleBusiness} {
			r.Route("/"+string(role)+"/{identity_id}", func(r chi.Router) {
				r.Use(owner)
				r.Get("/", d.Accounts.Get(role))
				r.Put("/", d.Accounts.Update(role))
				r.Delete("/", d.Accounts.Deactivate(role))
			})
		}
		r.With(owner).Put("/change_password/{identity_id}", d.Accounts.ChangePassword)
		r.With(owner).Put("/change_email/{identity_id}", d.Accounts.ChangeEmail)

		r.Route("/visit", func(r chi.Router) {
			r.Get("/", d.Visits.List)
			r.With(token.RequireRole(acctentity.RoleCustomer, logger)).Post("/create_visit", d.Visits.CreateVisit)
			r.Group(func(r chi.Router) {
				r.Use(token.RequireRole(acctentity.RoleBusiness, logger))
				r.Post("/business_create_visit", d.Visits.BusinessCreateVisit)
				r.Post("/business_create_unregistered_visit", d.Visits.BusinessCreateUnregisteredVisit)
				r.Get("/unregistered", d.Visits.ListUnregistered)
			})
		})
	})

	return r
}

func health(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("unavailable"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
