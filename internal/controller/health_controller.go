package controller

import (
	"os"
	"path/filepath"

	"github.com/clairexuu/SWAG-Golf/internal/config"

	"github.com/gofiber/fiber/v2"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
}

type healthController struct {
	cfg *config.Config
}

func NewHealthController(cfg *config.Config) IHealthController {
	return &healthController{
		cfg: cfg,
	}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)
}

// Health reports liveness plus path diagnostics. The diagnostics exist to
// catch the most common deployment mistake: starting the server from a
// working directory where the relative library paths resolve to nothing.
func (c *healthController) Health(ctx *fiber.Ctx) error {
	cwd, _ := os.Getwd()

	styleLibPath, err := filepath.Abs(c.cfg.Paths.StyleLibraryDir)
	if err != nil {
		styleLibPath = c.cfg.Paths.StyleLibraryDir
	}

	return ctx.JSON(fiber.Map{
		"status":               "ok",
		"service":              "sketch-engine",
		"version":              "1.0.0",
		"cwd":                  cwd,
		"style_library_exists": dirExists(c.cfg.Paths.StyleLibraryDir),
		"style_library_path":   styleLibPath,
		"rag_images_exists":    dirExists(c.cfg.Paths.ReferenceImagesDir),
	})
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
