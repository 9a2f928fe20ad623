package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jackc/pgx/v5/pgxpool"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/presia-labs/presia/internal/api/docs"
	"github.com/presia-labs/presia/internal/api/handler"
	"github.com/presia-labs/presia/internal/api/middleware"
	"github.com/presia-labs/presia/internal/config"
	"github.com/presia-labs/presia/internal/enrollment"
	"github.com/presia-labs/presia/internal/extractor"
	"github.com/presia-labs/presia/internal/matcher"
	"github.com/presia-labs/presia/internal/quality"
	"github.com/presia-labs/presia/internal/recognition"
	"github.com/presia-labs/presia/internal/repository"
)

// Dependencies are the externally constructed pieces the router wires
// together. DB may be nil when the in-memory repository backs the gallery.
type Dependencies struct {
	Config    *config.Config
	Repo      repository.EmbeddingRepositoryInterface
	Extractor extractor.FeatureExtractor
	DB        *pgxpool.Pool
}

type Router struct {
	app    *fiber.App
	logger *slog.Logger
	deps   *Dependencies
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Presia API",
		BodyLimit:    64 * 1024 * 1024,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	var dbPinger handler.Pinger
	if r.deps != nil && r.deps.DB != nil {
		dbPinger = r.deps.DB
	}
	healthHandler := handler.NewHealthHandler(dbPinger)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps == nil {
		return
	}

	cfg := r.deps.Config

	validator := quality.NewValidator(quality.ThresholdsFromConfig(cfg))

	m := matcher.New(r.deps.Repo)
	if cfg.UseANNIndex {
		m = m.WithIndex(matcher.NewIndex())
	}

	enrollmentManager := enrollment.NewManager(r.deps.Extractor, validator, r.deps.Repo, r.logger).
		WithMinQuality(cfg.MinEnrollQuality).
		WithIndexInvalidator(m)

	recognitionService := recognition.NewService(r.deps.Extractor, validator, r.deps.Repo, m, r.logger).
		WithThreshold(cfg.MatchThreshold).
		WithMinQuality(cfg.MinRecognitionQuality).
		WithBulkWorkers(cfg.BulkWorkers)

	faceHandler := handler.NewFaceHandler(enrollmentManager, recognitionService, r.logger)

	v1 := r.app.Group("/v1")
	v1.Post("/faces/enroll", faceHandler.Enroll)
	v1.Post("/faces/recognize", faceHandler.Recognize)
	v1.Post("/faces/recognize/bulk", faceHandler.RecognizeBulk)
	v1.Post("/faces/compare", faceHandler.Compare)
	v1.Get("/identities/:identity_id/embeddings", faceHandler.ListEmbeddings)
	v1.Delete("/embeddings/:embedding_id", faceHandler.DeleteEmbedding)
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	return r.app.Shutdown()
}

// App exposes the fiber app for tests
func (r *Router) App() *fiber.App {
	return r.app
}
