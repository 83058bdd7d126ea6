package api

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes wires the report endpoints into the Fiber app
func RegisterRoutes(app *fiber.App, h *Handler) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "duckdive",
		})
	})

	v1 := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("Access-Control-Allow-Origin", "*")
		return c.Next()
	})

	v1.Get("/report", func(c *fiber.Ctx) error {
		code, body := h.Report(c.UserContext(), c.Queries())
		return c.Status(code).JSON(body)
	})

	v1.Get("/reports/:id", func(c *fiber.Ctx) error {
		code, body := h.SavedReport(c.UserContext(), c.Params("id"))
		return c.Status(code).JSON(body)
	})
}
