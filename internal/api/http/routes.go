package httpapi

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/weathervue/internal/dashboard"
	"github.com/i474232898/weathervue/internal/preferences"
	"github.com/i474232898/weathervue/internal/search"
	"github.com/i474232898/weathervue/internal/weather"
)

var validate = validator.New()

// RegisterUtilityRoutes registers the health check and the Prometheus metrics endpoint.
func RegisterUtilityRoutes(app *fiber.App) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weathervue",
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, d *dashboard.Dashboard) {
	v1 := app.Group("/api/v1")

	v1.Get("/dashboard", func(c *fiber.Ctx) error {
		return c.JSON(d.View())
	})

	v1.Put("/location", func(c *fiber.Ctx) error {
		var req coordinateRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
		if err := d.SetLocation(req.toCoordinate()); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusAccepted).JSON(d.View())
	})

	v1.Post("/location/current", func(c *fiber.Ctx) error {
		if err := d.UseCurrentLocation(); err != nil {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return c.Status(fiber.StatusAccepted).JSON(d.View())
	})

	v1.Post("/weather/retry", func(c *fiber.Ctx) error {
		if err := d.Retry(); err != nil {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return c.Status(fiber.StatusAccepted).JSON(d.View())
	})

	v1.Get("/search", func(c *fiber.Ctx) error {
		q := c.Query("q")
		results, err := d.Search(c.UserContext(), q)
		if err != nil {
			if errors.Is(err, search.ErrSearchFailed) {
				return fiber.NewError(fiber.StatusBadGateway, dashboard.SearchFailedMessage)
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if results == nil {
			results = []weather.Place{}
		}
		return c.JSON(fiber.Map{
			"query":   strings.TrimSpace(q),
			"results": results,
		})
	})

	v1.Post("/search/select", func(c *fiber.Ctx) error {
		var req placeRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
		if err := d.SelectPlace(req.toPlace()); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusAccepted).JSON(d.View())
	})

	v1.Delete("/search", func(c *fiber.Ctx) error {
		d.ClearSearch()
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Get("/preferences", func(c *fiber.Ctx) error {
		return c.JSON(d.Preferences())
	})

	v1.Post("/preferences/unit/toggle", func(c *fiber.Ctx) error {
		return c.JSON(d.ToggleUnit())
	})

	v1.Post("/preferences/theme/toggle", func(c *fiber.Ctx) error {
		return c.JSON(d.ToggleTheme())
	})

	v1.Post("/favorites", func(c *fiber.Ctx) error {
		var req favoriteRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
		prefs := d.AddFavorite(preferences.NewFavorite(req.Name, req.Country, req.coordinateRequest.toCoordinate()))
		return c.Status(fiber.StatusCreated).JSON(prefs)
	})

	v1.Post("/favorites/toggle", func(c *fiber.Ctx) error {
		prefs, added, err := d.ToggleFavorite()
		if err != nil {
			if errors.Is(err, dashboard.ErrNoSnapshot) {
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{
			"added":       added,
			"preferences": prefs,
		})
	})

	v1.Post("/favorites/:id/select", func(c *fiber.Ctx) error {
		if err := d.SelectFavorite(c.Params("id")); err != nil {
			if errors.Is(err, dashboard.ErrFavoriteNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusAccepted).JSON(d.View())
	})

	v1.Delete("/favorites/:id", func(c *fiber.Ctx) error {
		return c.JSON(d.RemoveFavorite(c.Params("id")))
	})
}

// coordinateRequest uses pointers so that 0 is accepted but a missing field is not.
type coordinateRequest struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon *float64 `json:"lon" validate:"required,gte=-180,lte=180"`
}

func (r coordinateRequest) toCoordinate() weather.Coordinate {
	return weather.Coordinate{Lat: *r.Lat, Lon: *r.Lon}
}

type placeRequest struct {
	coordinateRequest
	Name    string `json:"name" validate:"required"`
	Country string `json:"country"`
	State   string `json:"state"`
}

func (r placeRequest) toPlace() weather.Place {
	return weather.Place{
		Name:    r.Name,
		Country: r.Country,
		State:   r.State,
		Lat:     *r.Lat,
		Lon:     *r.Lon,
	}
}

type favoriteRequest struct {
	coordinateRequest
	Name    string `json:"name" validate:"required"`
	Country string `json:"country"`
}

func bindAndValidate(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}
