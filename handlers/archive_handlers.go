package handlers

import (
	"errors"
	"net/url"
	"strings"

	"arkive/archiver"
	"arkive/logger"
	"arkive/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const defaultListLimit = 100

// SubmitPayload is the expected payload for the Submit handler
type SubmitPayload struct {
	URL string `json:"url"`
}

// Handler serves the archive API.
type Handler struct {
	service *archiver.Service
	store   *storage.Store
}

func NewHandler(service *archiver.Service, store *storage.Store) *Handler {
	return &Handler{service: service, store: store}
}

// Root reports that the service is up.
func (h *Handler) Root(c *fiber.Ctx) error {
	return c.JSON(archiver.Response{Status: archiver.StatusSuccess})
}

// Submit handles POST /api/submit with a JSON body.
func (h *Handler) Submit(c *fiber.Ctx) error {
	payload := new(SubmitPayload)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status": archiver.StatusError,
			"error":  "Cannot parse JSON payload",
		})
	}
	return h.classifyAndRespond(c, payload.URL)
}

// SubmitPath handles GET /<url>, where everything after the leading slash,
// including the query string, is the URL to archive.
func (h *Handler) SubmitPath(c *fiber.Ctx) error {
	return h.classifyAndRespond(c, TargetFromRequest(c))
}

func (h *Handler) classifyAndRespond(c *fiber.Ctx, target string) error {
	ctx := c.UserContext()
	resp, err := h.service.ClassifyAndMaybeSubmit(ctx, target)
	if err != nil {
		code := fiber.StatusInternalServerError
		if errors.Is(err, archiver.ErrProvider) {
			code = fiber.StatusBadGateway
		}
		logger.FromContext(ctx).Error("archive request failed", zap.String("target", target), zap.Error(err))
		return c.Status(code).JSON(archiver.Response{Status: archiver.StatusError})
	}
	return c.Status(statusCode(resp)).JSON(resp)
}

func statusCode(resp archiver.Response) int {
	if resp.Status != archiver.StatusError {
		return fiber.StatusOK
	}
	switch resp.Reason {
	case archiver.ReasonInvalidURL:
		return fiber.StatusBadRequest
	case archiver.ReasonRateLimited:
		return fiber.StatusTooManyRequests
	case archiver.ReasonInProgress:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// ListRecords handles GET /api/records. Hidden records are listed only with ?hidden=true.
func (h *Handler) ListRecords(c *fiber.Ctx) error {
	includeHidden := c.QueryBool("hidden", false)
	limit := c.QueryInt("limit", defaultListLimit)
	if limit <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "limit must be positive",
		})
	}
	recs, err := h.store.List(c.UserContext(), includeHidden, limit)
	if err != nil {
		logger.FromContext(c.UserContext()).Error("failed to list records", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list records",
		})
	}
	return c.JSON(recs)
}

// TargetFromRequest rebuilds the URL to archive from the request path and
// query string. Proxies that merge slashes turn "https://" into "https:/";
// that is undone here.
func TargetFromRequest(c *fiber.Ctx) string {
	target := strings.TrimPrefix(string(c.Request().URI().PathOriginal()), "/")
	if !strings.Contains(target, "://") {
		if unescaped, err := url.PathUnescape(target); err == nil {
			target = unescaped
		}
	}
	target = repairScheme(target)
	if q := c.Request().URI().QueryString(); len(q) > 0 {
		target += "?" + string(q)
	}
	return target
}

func repairScheme(target string) string {
	for _, scheme := range []string{"http:/", "https:/"} {
		if strings.HasPrefix(target, scheme) && !strings.HasPrefix(target, scheme+"/") {
			return scheme + "/" + strings.TrimPrefix(target, scheme)
		}
	}
	return target
}

// SetupRoutes configures the routes for the application.
func SetupRoutes(app *fiber.App, h *Handler) {
	app.Use(Metrics())
	app.Use(RequestLogger())
	app.Use(recover.New())

	app.Get("/", h.Root)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")
	api.Get("/records", h.ListRecords)
	api.Post("/submit", h.Submit)

	// Must stay last: it matches every other path.
	app.Get("/*", h.SubmitPath)
}

// ErrorHandler renders unhandled errors in the archive response format.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(archiver.Response{Status: archiver.StatusError})
}
