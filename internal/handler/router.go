package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/naramarket/naramarket-mcp/internal/repository"
	"github.com/naramarket/naramarket-mcp/internal/service"
)

// RouterDeps are the collaborators of the REST facade. Auth, Calls and MCP
// are optional; a nil value leaves the matching feature off.
type RouterDeps struct {
	Procurement service.IProcurementService
	Auth        service.IAuthService
	Calls       repository.ICallRepository
	MCP         http.Handler
	CORSOrigins []string
	Logger      zerolog.Logger
}

// SetupRouter creates the main Chi router for the application.
func SetupRouter(d RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(d.Logger))
	r.Use(middleware.Recoverer)

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Mcp-Session-Id", "Mcp-Protocol-Version", "Last-Event-ID"},
		ExposedHeaders:   []string{"Mcp-Session-Id", "Mcp-Protocol-Version"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, "Invalid request method")
	})

	procurementHandler := NewProcurementHandler(d.Procurement, d.Logger)
	healthHandler := NewHealthHandler(d.Procurement, d.Logger)

	r.Get("/health", healthHandler.Check)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", procurementHandler.Root)
		r.Get("/health", healthHandler.Check)
		r.Get("/server/info", procurementHandler.ServerInfo)
		r.Get("/services", procurementHandler.Services)
		r.Get("/services/{service}", procurementHandler.Operations)
		r.Get("/regions", procurementHandler.RegionCodes)
		r.Get("/fields/{serviceType}", procurementHandler.Fields)
		r.Get("/formats", procurementHandler.Formats)
		r.Post("/size-check", procurementHandler.SizeCheck)

		r.Group(func(r chi.Router) {
			if d.Auth != nil {
				r.Use(NewAuthMiddleware(d.Auth, d.Logger).Authenticate)
			}
			r.Post("/tools/{service}", procurementHandler.Tool)
			r.Post("/crawl-list", procurementHandler.CrawlList)
		})

		if d.Calls != nil {
			r.Get("/calls", NewCallHandler(d.Calls, d.Logger).Recent)
		}
	})

	if d.MCP != nil {
		r.Handle("/mcp", d.MCP)
		r.Handle("/mcp/*", d.MCP)
	}

	return r
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info().
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Msg("http request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
