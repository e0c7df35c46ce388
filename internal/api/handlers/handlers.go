package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"inverter-simulator/internal/api/models"
	"inverter-simulator/internal/config"

	"github.com/gin-gonic/gin"
)

// ResolveBatteryDir returns BATTERY_DIR, or examples/batteries under the working directory.
func ResolveBatteryDir() string {
	dir := os.Getenv("BATTERY_DIR")
	if dir == "" {
		wd, err := os.Getwd()
		if err == nil {
			dir = filepath.Join(wd, "examples", "batteries")
		} else {
			dir = "./examples/batteries"
		}
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return dir
}

// loadPreset reads <dir>/<id>.yaml. id must be a bare name.
func loadPreset(dir, id string) (config.BatteryConfig, error) {
	if id == "" || filepath.Base(id) != id || id == "." || id == ".." {
		return config.BatteryConfig{}, fmt.Errorf("invalid battery preset %q", id)
	}
	return config.LoadBatteryFile(filepath.Join(dir, id+".yaml"))
}

// Health handles GET /health
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func fail(c *gin.Context, status int, code string, err error) {
	_ = c.Error(err)
	c.JSON(status, models.NewError(code, err.Error()))
}
