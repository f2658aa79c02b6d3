// Package httpapi exposes the task tracker over REST using fiber.
package httpapi

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"taskTracker/internal/auth"
	"taskTracker/internal/service"
)

// Deps are the collaborators the REST layer needs.
type Deps struct {
	Tasks         *service.TaskService
	Accounts      *service.AccountService
	Authenticator *auth.Authenticator
	Logger        *slog.Logger
	// Ping reports storage health for /healthz. Optional.
	Ping func() error
}

// NewApp builds the fiber application with every route registered.
func NewApp(d Deps) *fiber.App {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	app := fiber.New(fiber.Config{
		AppName:               "tasktracker",
		ErrorHandler:          errorHandler(logger),
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(requestLogger(logger))
	app.Use(cors.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if d.Ping != nil {
			if err := d.Ping(); err != nil {
				logger.Error("health check failed", slog.String("error", err.Error()))
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	SetupRoutes(app, d, logger)
	return app
}

// SetupRoutes registers the /api routes on app.
func SetupRoutes(app *fiber.App, d Deps, logger *slog.Logger) {
	h := &Handler{tasks: d.Tasks, accounts: d.Accounts, logger: logger}
	requireAuth := auth.Middleware(d.Authenticator)

	api := app.Group("/api")
	api.Post("/login", h.Login)
	api.Post("/logout", requireAuth, h.Logout)
	api.Post("/users", requireAuth, h.Register)
	api.Get("/users", requireAuth, h.ListUsers)

	tasks := api.Group("/tasks", requireAuth)
	tasks.Get("/", h.ListTasks)
	tasks.Post("/", h.CreateTask)

	// Fixed paths go before the :id routes so they are not captured as ids.
	tasks.Get("/completed-reports", h.CompletedReports)

	tasks.Get("/:id", h.withTask(h.getTask))
	tasks.Put("/:id", h.withTask(h.updateTask(false)))
	tasks.Patch("/:id", h.withTask(h.updateTask(true)))
	tasks.Delete("/:id", h.withTask(h.deleteTask))
	tasks.Get("/:id/report", h.withTask(h.taskReport))
	tasks.Post("/:id/complete", h.withTask(h.completeTask))
}
