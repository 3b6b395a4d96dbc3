package statistics

import (
	"shop-payroll/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	stats := r.Group("/payrolls/statistics")
	stats.Use(middleware.AuthMiddleware())
	{
		stats.GET("/overview", handler.Overview)
		stats.GET("/average-pay", handler.AveragePay)
	}
}
