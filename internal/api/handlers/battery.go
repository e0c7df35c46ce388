package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"inverter-simulator/internal/api/models"
	"inverter-simulator/internal/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BatteryHandler lists the battery presets in a directory of YAML files.
type BatteryHandler struct {
	batteryDir string
	logger     *zap.Logger
}

func NewBatteryHandler(batteryDir string, logger *zap.Logger) *BatteryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("battery presets", zap.String("dir", batteryDir))
	return &BatteryHandler{batteryDir: batteryDir, logger: logger}
}

// ListBatteries handles GET /api/v1/batteries
func (h *BatteryHandler) ListBatteries(c *gin.Context) {
	batteries := []models.BatteryInfo{}

	entries, err := os.ReadDir(h.batteryDir)
	if err != nil {
		h.logger.Warn("read battery directory", zap.String("dir", h.batteryDir), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"batteries": batteries})
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(h.batteryDir, entry.Name())
		b, err := config.LoadBatteryFile(path)
		if err != nil {
			h.logger.Warn("skip battery preset", zap.String("file", path), zap.Error(err))
			continue
		}
		// "powerwall2.yaml" -> "powerwall2"
		id := strings.TrimSuffix(entry.Name(), ".yaml")
		name := b.Name
		if name == "" {
			name = id
		}
		params, _ := b.ToModelParams()
		batteries = append(batteries, models.BatteryInfo{
			ID:   id,
			Name: name,
			File: path,
			Specs: models.BatterySpecs{
				CapacityWh:  params.Capacity,
				ChargeRateW: params.ChargeRate,
			},
		})
	}

	h.logger.Debug("listed battery presets", zap.Int("count", len(batteries)))
	c.JSON(http.StatusOK, gin.H{"batteries": batteries})
}
