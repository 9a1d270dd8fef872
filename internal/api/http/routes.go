package httpapi

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/landsat-dashboard/internal/common"
	"github.com/i474232898/landsat-dashboard/internal/export"
	"github.com/i474232898/landsat-dashboard/internal/imagery"
	"github.com/i474232898/landsat-dashboard/internal/store"
)

var validate = validator.New()

type handlers struct {
	service  *imagery.Service
	sessions *store.SessionStore
	timeout  time.Duration
}

// RegisterRoutes wires the HTTP handlers into the Fiber app. timeout bounds
// the upstream work of a single request.
func RegisterRoutes(app *fiber.App, service *imagery.Service, sessions *store.SessionStore, timeout time.Duration) {
	h := &handlers{service: service, sessions: sessions, timeout: timeout}
	v1 := app.Group("/api/v1")

	v1.Post("/sessions", h.createSession)
	v1.Get("/sessions/:id", h.getSession)
	v1.Delete("/sessions/:id", h.endSession)

	v1.Put("/sessions/:id/location", h.setLocation)
	v1.Post("/sessions/:id/location/geocode", h.geocode)
	v1.Post("/sessions/:id/location/auto", h.autoLocate)

	v1.Post("/sessions/:id/imagery", h.fetchImagery)
	v1.Get("/sessions/:id/imagery/export", h.exportRecord)
	v1.Get("/sessions/:id/records", h.history)

	v1.Post("/sessions/:id/animation", h.animate)
	v1.Get("/sessions/:id/animation", h.downloadAnimation)

	v1.Post("/sessions/:id/notify", h.notify)
}

// locationRequest holds a directly entered coordinate.
type locationRequest struct {
	Lat *float64 `json:"lat" validate:"required,latitude"`
	Lon *float64 `json:"lon" validate:"required,longitude"`
}

type geocodeRequest struct {
	Query string `json:"query" validate:"max=512"`
}

type imageryRequest struct {
	Date string `json:"date"`
}

type animationRequest struct {
	Start  string `json:"start" validate:"required"`
	End    string `json:"end" validate:"required"`
	Format string `json:"format" validate:"omitempty,oneof=gif avi"`
}

type notifyRequest struct {
	Recipient string `json:"recipient" validate:"required,email"`
}

func (h *handlers) createSession(c *fiber.Ctx) error {
	sess := h.sessions.Create()
	return c.Status(fiber.StatusCreated).JSON(sess.View())
}

func (h *handlers) getSession(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(sess.View())
}

func (h *handlers) endSession(c *fiber.Ctx) error {
	if err := h.sessions.End(c.Params("id")); err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) setLocation(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	var req locationRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	coord := imagery.Coordinate{Lat: *req.Lat, Lon: *req.Lon}
	if err := h.service.SetLocation(sess, coord); err != nil {
		return statusError(err)
	}
	return c.JSON(fiber.Map{"coordinate": coord})
}

func (h *handlers) geocode(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	var req geocodeRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	coord, err := h.service.ResolveLocation(ctx, sess, req.Query)
	if err != nil {
		if errors.Is(err, imagery.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "location not found; please enter a valid location name")
		}
		return statusError(err)
	}
	return c.JSON(fiber.Map{"query": req.Query, "coordinate": coord})
}

func (h *handlers) autoLocate(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	coord, err := h.service.ResolveFromNetworkOrigin(ctx, sess, publicIP(c.IP()))
	if err != nil {
		if errors.Is(err, imagery.ErrUnavailable) {
			return fiber.NewError(fiber.StatusNotFound, "unable to determine your location; please try another method")
		}
		return statusError(err)
	}
	return c.JSON(fiber.Map{"coordinate": coord})
}

func (h *handlers) fetchImagery(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	var req imageryRequest
	if len(c.Body()) > 0 {
		if err := bindBody(c, &req); err != nil {
			return err
		}
	}
	date, err := common.ParseDateOr(req.Date, common.Today())
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	rec, err := h.service.FetchImagery(ctx, sess, date)
	if err != nil {
		if errors.Is(err, imagery.ErrNoCoverage) {
			return fiber.NewError(fiber.StatusNotFound, "no data available for the given location and date")
		}
		return statusError(err)
	}
	return c.JSON(rec)
}

func (h *handlers) exportRecord(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	format := export.Format(c.Query("format", string(export.FormatJSON)))
	if err := validate.Var(string(format), "oneof=json csv"); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "format must be json or csv")
	}

	rec, ok := sess.Record()
	if !ok {
		return statusError(imagery.ErrNoRecord)
	}
	body, contentType, err := export.Export(rec, format)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to export record")
	}

	c.Attachment(export.FileName(format))
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(body)
}

func (h *handlers) history(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	records, err := h.service.History(c.UserContext(), sess, c.QueryInt("limit", 50))
	if err != nil {
		if errors.Is(err, imagery.ErrArchiveDisabled) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return statusError(err)
	}
	return c.JSON(fiber.Map{"records": records})
}

func (h *handlers) animate(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	var req animationRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	start, err := common.ParseDate(req.Start)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	end, err := common.ParseDate(req.End)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	format, err := imagery.ParseFormat(req.Format, h.service.DefaultFormat())
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	art, report, err := h.service.Animate(ctx, sess, start, end, format)
	if err != nil {
		if errors.Is(err, imagery.ErrEmptyInput) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":   true,
				"message": "no images available for the specified date range",
				"report":  report,
			})
		}
		return statusError(err)
	}

	return c.JSON(fiber.Map{
		"artifact": art,
		"report":   report,
		"href":     "/api/v1/sessions/" + sess.ID() + "/animation",
	})
}

func (h *handlers) downloadAnimation(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	art, ok := sess.Artifact()
	if !ok {
		return statusError(imagery.ErrNoArtifact)
	}
	c.Set(fiber.HeaderContentType, art.Format.ContentType())
	return c.SendFile(art.Path)
}

func (h *handlers) notify(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	var req notifyRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.service.Notify(ctx, sess, req.Recipient); err != nil {
		return statusError(err)
	}
	return c.JSON(fiber.Map{"sent": true, "recipient": req.Recipient})
}

func (h *handlers) session(c *fiber.Ctx) (*imagery.Session, error) {
	sess, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return sess, nil
}

func (h *handlers) requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(c.UserContext())
	}
	return context.WithTimeout(c.UserContext(), h.timeout)
}

func bindBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

// statusError maps a domain error onto an HTTP error.
func statusError(err error) error {
	code := fiber.StatusInternalServerError
	switch imagery.Classify(err) {
	case imagery.OutcomeNotFound, imagery.OutcomeUnavailable, imagery.OutcomeNoCoverage:
		code = fiber.StatusNotFound
	case imagery.OutcomeTransport, imagery.OutcomeDelivery:
		code = fiber.StatusBadGateway
	case imagery.OutcomeEmptyInput:
		code = fiber.StatusUnprocessableEntity
	case imagery.OutcomeInvalid:
		code = fiber.StatusBadRequest
	case imagery.OutcomePrecond:
		code = fiber.StatusConflict
	}
	return fiber.NewError(code, err.Error())
}

// publicIP returns ip when it is routable; otherwise the lookup falls back to
// the server's own origin.
func publicIP(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() {
		return ""
	}
	return ip
}
