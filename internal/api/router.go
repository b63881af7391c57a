package api

import (
	"context"
	"net/http"
	"time"

	"leetmentor/internal/api/handler"
	"leetmentor/internal/api/middleware"
	"leetmentor/internal/common"
	"leetmentor/internal/platform/logging"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-chi/jwtauth/v5"
)

// Services bundles what the HTTP layer calls into.
type Services struct {
	Auth        handler.AuthAPI
	Judge       handler.JudgeAPI
	SyncJobs    handler.SyncJobAPI
	Progress    handler.ProgressAPI
	Submissions handler.SubmissionAPI
	Problems    handler.ProblemAPI
	Recommend   handler.RecommendAPI
	Mentor      handler.MentorAPI
}

type RouterConfig struct {
	JWTAuth             *jwtauth.JWTAuth
	AllowedOrigins      []string
	MentorRatePerMinute int
	// RequestTimeout bounds every request; it must cover the LLM timeout.
	// Zero means DefaultRequestTimeout.
	RequestTimeout time.Duration
	// Ping reports dependency health for /health. Optional.
	Ping func(ctx context.Context) error
}

const DefaultRequestTimeout = 90 * time.Second

func NewRouter(cfg RouterConfig, svc Services) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(logging.RequestLogger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(cfg.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Puts verified claims (or the verification error) on the context for middleware.Authenticator.
	r.Use(jwtauth.Verifier(cfg.JWTAuth))

	r.Get("/health", healthHandler(cfg.Ping))

	authHandler := handler.NewAuthHandler(svc.Auth)
	judgeHandler := handler.NewJudgeHandler(svc.Judge, svc.SyncJobs)
	progressHandler := handler.NewProgressHandler(svc.Progress)
	submissionHandler := handler.NewSubmissionHandler(svc.Submissions)
	problemHandler := handler.NewProblemHandler(svc.Problems)
	mentorHandler := handler.NewMentorHandler(svc.Recommend, svc.Mentor)

	r.Route("/api/v1", func(v1 chi.Router) {
		authHandler.RegisterRoutes(v1)

		v1.Group(func(authed chi.Router) {
			authed.Use(middleware.Authenticator)

			authed.Route("/judge", judgeHandler.RegisterRoutes)
			authed.Route("/progress", progressHandler.RegisterRoutes)
			authed.Route("/submissions", submissionHandler.RegisterRoutes)
			authed.Route("/problems", problemHandler.RegisterRoutes)
			mentorHandler.RegisterRecommendRoutes(authed)

			authed.Group(func(limited chi.Router) {
				limited.Use(httprate.Limit(
					cfg.MentorRatePerMinute,
					time.Minute,
					httprate.WithKeyFuncs(middleware.UserKey),
					httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
						common.RespondWithError(w, http.StatusTooManyRequests, "Too many mentor requests, slow down")
					}),
				))
				mentorHandler.RegisterMentorRoutes(limited)
			})
		})
	})

	return r
}

func healthHandler(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				logging.Ctx(r.Context()).Warn().Err(err).Msg("health check failed")
				common.RespondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		common.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
