// Package api exposes the statement parser and the expense store over
// HTTP. Parsing is available both synchronously (upload, wait for the
// transaction list) and as a queued job for larger files.
package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/ametlin/budgetlens/internal/jobs"
	"github.com/ametlin/budgetlens/internal/statement"
	"github.com/ametlin/budgetlens/internal/store"
)

// Server bundles the handlers' dependencies.
type Server struct {
	parser    *statement.Parser
	store     *store.Store
	publisher jobs.Publisher
	jobStore  jobs.Store
	log       zerolog.Logger
	maxUpload int
}

// New creates a server. store may be nil when running parse-only (the
// expense and budget endpoints then return 503).
func New(parser *statement.Parser, st *store.Store, publisher jobs.Publisher, jobStore jobs.Store, log zerolog.Logger, maxUpload int) *Server {
	return &Server{
		parser:    parser,
		store:     st,
		publisher: publisher,
		jobStore:  jobStore,
		log:       log,
		maxUpload: maxUpload,
	}
}

// App builds the fiber application with all routes registered.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:             s.maxUpload,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(s.requestLogger())

	app.Get("/api/health", s.handleHealth)

	app.Post("/api/statements/parse", s.handleParse)
	app.Post("/api/statements/jobs", s.handleCreateParseJob)
	app.Get("/api/statements/jobs/:id", s.handleGetParseJob)

	app.Post("/api/expenses/import", s.handleImportExpenses)
	app.Get("/api/expenses", s.handleListExpenses)
	app.Get("/api/summary", s.handleSummary)

	app.Get("/api/budgets", s.handleListBudgets)
	app.Post("/api/budgets", s.handleUpsertBudget)

	return app
}

func (s *Server) requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		s.log.Info().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
		return err
	}
}

func writeError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}
