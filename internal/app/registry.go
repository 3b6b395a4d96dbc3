package app

import (
	"database/sql"
	"time"

	"shop-payroll/internal/employee"
	"shop-payroll/internal/messaging/kafka"
	"shop-payroll/internal/middleware"
	"shop-payroll/internal/payroll"
	"shop-payroll/internal/settlement"
	"shop-payroll/internal/shared/lock"
	"shop-payroll/internal/shop"
	"shop-payroll/internal/statistics"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	employeeRepo := employee.NewRepository(gormDB)
	shopRepo := shop.NewRepository(gormDB)
	payrollRepo := payroll.NewRepository(db)
	statisticsRepo := statistics.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	var locker lock.Locker
	if rdb != nil {
		locker = lock.NewRedisLocker(rdb, 30*time.Second)
	} else {
		locker = lock.NewLocalLocker()
	}

	// --- Services ---
	payrollService := payroll.NewServiceWithOutbox(db, payrollRepo, employeeRepo, shopRepo, locker, outboxRepo)
	settlementService := settlement.NewServiceWithOutbox(db, payrollRepo, outboxRepo)
	statisticsService := statistics.NewService(statisticsRepo)

	// --- Handlers ---
	payrollHandler := payroll.NewHandlerWithRedis(payrollService, rdb)
	settlementHandler := settlement.NewHandlerWithRedis(settlementService, rdb)
	statisticsHandler := statistics.NewHandler(statisticsService)

	// --- Routes Registration ---
	router.Use(middleware.RequestID())

	api := router.Group("/api/v1")
	api.Use(middleware.RateLimitByIP(rate.Limit(50), 100))
	{
		payroll.RegisterRoutes(api, payrollHandler, rdb)
		settlement.RegisterRoutes(api, settlementHandler, rdb)
		statistics.RegisterRoutes(api, statisticsHandler)
	}

	return nil
}
