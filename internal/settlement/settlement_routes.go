package settlement

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
		if redisClient != nil {
			payrolls.POST("/payments", middleware.Idempotency(redisClient), handler.Settle)
		} else {
			payrolls.POST("/payments", handler.Settle)
		}
		payrolls.POST("/records/:id/cancel", handler.Cancel)
	}
}
