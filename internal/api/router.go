package api

import (
	"net/http"
	"strings"

	"inverter-simulator/internal/api/handlers"
	"inverter-simulator/internal/api/middleware"
	"inverter-simulator/internal/api/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps are the collaborators the HTTP API is built from.
type Deps struct {
	Logger         *zap.Logger
	Results        *store.ResultStore
	BatteryDir     string
	AllowedOrigins []string
}

// NewRouter wires middleware and routes.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Results == nil {
		d.Results = store.New(store.DefaultTTL, 0)
	}

	router := gin.New()
	router.Use(middleware.CORS(d.AllowedOrigins...))
	router.Use(middleware.Logger(d.Logger))
	router.Use(middleware.ErrorHandler(d.Logger))

	simulateHandler := handlers.NewSimulateHandler(d.Results, d.BatteryDir, d.Logger)
	batteryHandler := handlers.NewBatteryHandler(d.BatteryDir, d.Logger)

	router.GET("/health", handlers.Health)

	api := router.Group("/api/v1")
	{
		api.POST("/simulate", simulateHandler.Simulate)
		api.GET("/simulate/:id/trace", simulateHandler.GetTrace)
		api.POST("/simulate/compare", simulateHandler.Compare)

		api.GET("/batteries", batteryHandler.ListBatteries)
		api.GET("/strategies", handlers.ListStrategies)
	}

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.Status(http.StatusNotFound)
	})
	return router
}
