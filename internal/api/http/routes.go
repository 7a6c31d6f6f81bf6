package httpapi

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/reservoir-geojson/internal/reservoir"
	"github.com/i474232898/reservoir-geojson/internal/store"
)

const geoJSONContentType = "application/geo+json"

var validate = validator.New()

// Service is what the routes need from the pipeline.
type Service interface {
	Build(ctx context.Context) (reservoir.Snapshot, error)
	GetLatest() (reservoir.Snapshot, error)
	History() []reservoir.Snapshot
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service Service, buildTimeout time.Duration) {
	v1 := app.Group("/api/v1")

	v1.Get("/reservoirs", func(c *fiber.Ctx) error {
		snap, err := latest(service)
		if err != nil {
			return err
		}
		return c.JSON(snap.Collection, geoJSONContentType)
	})

	v1.Get("/reservoirs/:id", func(c *fiber.Ctx) error {
		q := siteQuery{ID: c.Params("id")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snap, err := latest(service)
		if err != nil {
			return err
		}
		f, ok := snap.Collection.Feature(q.ID)
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no reservoir with id "+q.ID)
		}
		return c.JSON(f, geoJSONContentType)
	})

	v1.Get("/runs", func(c *fiber.Ctx) error {
		history := service.History()
		runs := make([]runSummary, 0, len(history))
		for _, s := range history {
			runs = append(runs, newRunSummary(s))
		}
		return c.JSON(fiber.Map{"runs": runs})
	})

	v1.Post("/runs", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), buildTimeout)
		defer cancel()

		snap, err := service.Build(ctx)
		if err != nil {
			log.Printf("ERROR: rebuild requested over HTTP failed: %v", err)
			if errors.Is(err, reservoir.ErrTransport) {
				return fiber.NewError(fiber.StatusBadGateway, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(newRunSummary(snap))
	})
}

func latest(service Service) (reservoir.Snapshot, error) {
	snap, err := service.GetLatest()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return snap, fiber.NewError(fiber.StatusNotFound, "reservoir document has not been built yet")
		}
		return snap, fiber.NewError(fiber.StatusInternalServerError, "failed to load reservoir document")
	}
	return snap, nil
}

// siteQuery holds the path parameter identifying a site.
type siteQuery struct {
	ID string `validate:"required,numeric,min=8,max=15"`
}

// runSummary is the JSON view of one build.
type runSummary struct {
	RunID        string                `json:"runId"`
	BuiltAt      time.Time             `json:"builtAt"`
	Source       reservoir.FetchSource `json:"source"`
	Features     int                   `json:"features"`
	SiteReport   reservoir.ParseReport `json:"siteReport"`
	SeriesReport reservoir.ParseReport `json:"seriesReport"`
}

func newRunSummary(s reservoir.Snapshot) runSummary {
	return runSummary{
		RunID:        s.RunID,
		BuiltAt:      s.BuiltAt,
		Source:       s.Source,
		Features:     len(s.Collection.Features),
		SiteReport:   s.SiteReport,
		SeriesReport: s.SeriesReport,
	}
}
