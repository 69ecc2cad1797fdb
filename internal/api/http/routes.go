package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-search-service/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	v1 := app.Group("/api/v1/weather")

	v1.Post("/", func(c *fiber.Ctx) error {
		var req createRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		rec, err := service.Create(c.Context(), weather.CreateRequest{
			LocationName: req.LocationName,
			DateFrom:     req.SearchDateFrom,
			DateTo:       req.SearchDateTo,
		})
		if err != nil {
			return httpError(err)
		}

		return c.Status(fiber.StatusCreated).JSON(rec)
	})

	v1.Get("/", func(c *fiber.Ctx) error {
		skip := c.QueryInt("skip", 0)
		limit := c.QueryInt("limit", 100)
		if skip < 0 || limit < 1 || limit > 100 {
			return fiber.NewError(fiber.StatusBadRequest, "skip must be >= 0 and limit in 1..100")
		}

		records, err := service.List(c.Context(), skip, limit)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(records)
	})

	// Registered before "/:id" so "export" is not parsed as a record id.
	v1.Get("/export", func(c *fiber.Ctx) error {
		format := c.Query("format", "json")
		if format != "json" && format != "csv" {
			return fiber.NewError(fiber.StatusBadRequest, "format must be json or csv")
		}

		out, err := service.Export(c.Context(), format)
		if err != nil {
			return httpError(err)
		}

		if format == "csv" {
			c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
			c.Set(fiber.HeaderContentDisposition, `attachment; filename="weather_searches.csv"`)
		} else {
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
		}
		return c.Send(out)
	})

	v1.Get("/:id", func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		rec, err := service.GetByID(c.Context(), id)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(rec)
	})

	v1.Put("/:id", func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		var req updateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.LocationName == nil && req.SearchDateFrom == nil && req.SearchDateTo == nil && req.UserNote == nil {
			return fiber.NewError(fiber.StatusBadRequest, weather.ErrNoOpUpdate.Error())
		}

		rec, err := service.Update(c.Context(), id, weather.UpdateRequest{
			LocationName: req.LocationName,
			DateFrom:     req.SearchDateFrom,
			DateTo:       req.SearchDateTo,
			UserNote:     req.UserNote,
		})
		if err != nil {
			return httpError(err)
		}
		return c.JSON(rec)
	})

	v1.Delete("/:id", func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		if err := service.Delete(c.Context(), id); err != nil {
			return httpError(err)
		}
		return c.JSON(deleteResponse{Message: "search record deleted successfully"})
	})
}

// createRequest is the POST body for a new weather search.
type createRequest struct {
	LocationName   string       `json:"location_name" validate:"required"`
	SearchDateFrom weather.Date `json:"search_date_from" validate:"required"`
	SearchDateTo   weather.Date `json:"search_date_to" validate:"required"`
}

// updateRequest is the PUT body; every field is optional but at least one
// must be present.
type updateRequest struct {
	LocationName   *string       `json:"location_name"`
	SearchDateFrom *weather.Date `json:"search_date_from"`
	SearchDateTo   *weather.Date `json:"search_date_to"`
	UserNote       *string       `json:"user_note"`
}

type deleteResponse struct {
	Message string `json:"message"`
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "id must be a positive integer")
	}
	return uint(id), nil
}

// httpError maps the weather error taxonomy onto HTTP statuses.
func httpError(err error) error {
	switch {
	case weather.IsValidationError(err), errors.Is(err, weather.ErrNoOpUpdate):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, weather.ErrLocationNotFound),
		errors.Is(err, weather.ErrRecordNotFound),
		errors.Is(err, weather.ErrNoDataFound),
		errors.Is(err, weather.ErrNoDataInRange):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, weather.ErrProvider):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
	}
}
