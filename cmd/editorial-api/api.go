// Package main provides the Editorial API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/editorial/pkg/effects"
	"github.com/dukex/editorial/pkg/services"
	"github.com/dukex/editorial/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger   *slog.Logger
	deps     services.Dependencies
	validate *validator.Validate
}

// NewAPI builds the server. The services it creates share one set of post
// locks and one effects runner.
func NewAPI(logger *slog.Logger, deps services.Dependencies) *API {
	if deps.Locks == nil {
		deps.Locks = services.NewPostLocks()
	}

	if deps.Effects == nil {
		deps.Effects = effects.NewRunner(logger, 0)
	}

	return &API{
		logger:   logger,
		deps:     deps,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(
		services.NewWorkflow(a.deps),
		services.NewVersions(a.deps),
		services.NewHistory(a.deps),
		a.validate,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Editorial API")
	})

	web.RegisterRoutes(app, handlers)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
