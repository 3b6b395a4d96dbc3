package payroll

import (
	"shop-payroll/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rdb ...*redis.Client,
) {
	var redisClient *redis.Client
	if len(rdb) > 0 {
		redisClient = rdb[0]
	}

	payrolls := r.Group("/payrolls")
	payrolls.Use(middleware.AuthMiddleware())
	{
		payrolls.GET("/records", handler.GetRecords)
		payrolls.GET("/records/:id", handler.GetRecordById)
		payrolls.GET("/summaries", handler.GetSummaries)
		if redisClient != nil {
			payrolls.POST("/process", middleware.Idempotency(redisClient), handler.Process)
		} else {
			payrolls.POST("/process", handler.Process)
		}
	}
}
