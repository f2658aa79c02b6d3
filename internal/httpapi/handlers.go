package httpapi

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"taskTracker/internal/auth"
	"taskTracker/internal/policy"
	"taskTracker/internal/service"
)

// Handler serves the REST endpoints.
type Handler struct {
	tasks    *service.TaskService
	accounts *service.AccountService
	logger   *slog.Logger
}

func caller(c *fiber.Ctx) (policy.Caller, bool) {
	p, ok := auth.PrincipalFrom(c)
	if !ok {
		return policy.Caller{}, false
	}
	return p.Caller(), true
}

func taskID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusNotFound, service.MsgTaskNotFound)
	}
	return id, nil
}

// withTask resolves the caller and the :id parameter before calling fn.
func (h *Handler) withTask(fn func(c *fiber.Ctx, who policy.Caller, id int64) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		who, ok := caller(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Authentication credentials were not provided.")
		}
		id, err := taskID(c)
		if err != nil {
			return err
		}
		return fn(c, who, id)
	}
}

// Register handles POST /api/users.
func (h *Handler) Register(c *fiber.Ctx) error {
	who, _ := caller(c)
	var in service.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	u, err := h.accounts.Register(c.UserContext(), who, in)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(u)
}

// ListUsers handles GET /api/users.
func (h *Handler) ListUsers(c *fiber.Ctx) error {
	who, _ := caller(c)
	var in service.ListUsersInput
	if err := c.QueryParser(&in); err != nil {
		return badRequest(c, "Invalid query parameters")
	}
	users, err := h.accounts.ListUsers(c.UserContext(), who, in)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(users)
}

// Login handles POST /api/login.
func (h *Handler) Login(c *fiber.Ctx) error {
	var in service.LoginInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	res, err := h.accounts.Login(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(res)
}

// Logout handles POST /api/logout.
func (h *Handler) Logout(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)
	if err := h.accounts.Logout(c.UserContext(), p); err != nil {
		return writeError(c, h.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListTasks handles GET /api/tasks.
func (h *Handler) ListTasks(c *fiber.Ctx) error {
	who, _ := caller(c)
	var in service.ListTasksInput
	if err := c.QueryParser(&in); err != nil {
		return badRequest(c, "Invalid query parameters")
	}
	page, err := h.tasks.List(c.UserContext(), who, in)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(page)
}

// CreateTask handles POST /api/tasks.
func (h *Handler) CreateTask(c *fiber.Ctx) error {
	who, _ := caller(c)
	var in service.CreateTaskInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	v, err := h.tasks.Create(c.UserContext(), who, in)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(v)
}

// CompletedReports handles GET /api/tasks/completed-reports.
func (h *Handler) CompletedReports(c *fiber.Ctx) error {
	who, _ := caller(c)
	reps, err := h.tasks.CompletedReports(c.UserContext(), who)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(reps)
}

func (h *Handler) getTask(c *fiber.Ctx, who policy.Caller, id int64) error {
	v, err := h.tasks.Get(c.UserContext(), who, id)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(v)
}

func (h *Handler) updateTask(partial bool) func(*fiber.Ctx, policy.Caller, int64) error {
	return func(c *fiber.Ctx, who policy.Caller, id int64) error {
		var in service.UpdateTaskInput
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "Invalid request body")
		}
		v, err := h.tasks.Update(c.UserContext(), who, id, in, partial)
		if err != nil {
			return writeError(c, h.logger, err)
		}
		return c.JSON(v)
	}
}

func (h *Handler) deleteTask(c *fiber.Ctx, who policy.Caller, id int64) error {
	if err := h.tasks.Delete(c.UserContext(), who, id); err != nil {
		return writeError(c, h.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) taskReport(c *fiber.Ctx, who policy.Caller, id int64) error {
	rep, err := h.tasks.Report(c.UserContext(), who, id)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(rep)
}

func (h *Handler) completeTask(c *fiber.Ctx, who policy.Caller, id int64) error {
	var in service.CompleteTaskInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}
	v, err := h.tasks.Complete(c.UserContext(), who, id, in)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(v)
}
