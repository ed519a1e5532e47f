package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"mangosense/api/internal/config"
	"mangosense/api/internal/middleware"
	"mangosense/api/internal/ml"
	"mangosense/api/internal/models"
	"mangosense/api/internal/repository"
	"mangosense/api/internal/service"
	"mangosense/api/internal/storage"
)

type HandlerSet struct {
	log            zerolog.Logger
	cfg            *config.AppConfig
	authService    *service.AuthService
	predictService *service.PredictService
	statsService   *service.StatsService
	registry       *ml.Registry
	db             *pgxpool.Pool
	cache          *redis.Client
	store          *storage.ObjectStore
	users          *repository.UserRepository
	sessions       *repository.SessionRepository
	images         *repository.ImageRepository
	predictionLogs *repository.PredictionLogRepository
	confirmations  *repository.ConfirmationRepository
	notifications  *repository.NotificationRepository
}

func NewHandlerSet(
	log zerolog.Logger,
	db *pgxpool.Pool,
	cache *redis.Client,
	store *storage.ObjectStore,
	registry *ml.Registry,
	cfg *config.AppConfig,
) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	imageRepo := repository.NewImageRepository(db)
	logRepo := repository.NewPredictionLogRepository(db)
	confirmationRepo := repository.NewConfirmationRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	classifiers := func(dt models.DetectionType) (service.Classifier, error) {
		return registry.Get(dt)
	}

	auth := service.NewAuthService(userRepo, sessionRepo, cfg, log)
	predict := service.NewPredictService(classifiers, imageRepo, logRepo, notificationRepo, store, cfg, log)
	stats := service.NewStatsService(statsRepo, cache, log)

	return HandlerSet{
		log:            log,
		cfg:            cfg,
		authService:    auth,
		predictService: predict,
		statsService:   stats,
		registry:       registry,
		db:             db,
		cache:          cache,
		store:          store,
		users:          userRepo,
		sessions:       sessionRepo,
		images:         imageRepo,
		predictionLogs: logRepo,
		confirmations:  confirmationRepo,
		notifications:  notificationRepo,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")

	optionalAuth := middleware.OptionalAuth(h.cfg, h.users, h.sessions)
	requireAuth := middleware.Auth(h.cfg, h.users, h.sessions)

	v1.POST("/predict", optionalAuth, h.Predict)
	v1.GET("/model/status", h.ModelStatus)
	v1.POST("/confirmations", optionalAuth, h.CreateConfirmation)
	v1.GET("/media/:id", h.ServeMedia)

	auth := v1.Group("/auth")
	{
		auth.POST("/register", h.RegisterUser)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)

		protected := v1.Group("/auth")
		protected.Use(requireAuth)
		protected.POST("/logout", h.Logout)
		protected.GET("/me", h.Me)
	}

	admin := v1.Group("/admin")
	admin.Use(requireAuth, middleware.RequireRoles(models.UserRoleAdmin))
	{
		admin.GET("/statistics/diseases", h.DiseaseStatistics)
		admin.GET("/statistics/confirmations", h.ConfirmationStatistics)

		admin.GET("/images", h.ListImages)
		admin.GET("/images/export", h.ExportImages)
		admin.GET("/images/:id", h.GetImage)
		admin.PUT("/images/:id", h.UpdateImage)
		admin.DELETE("/images/:id", h.DeleteImage)
		admin.POST("/images/:id/verify", h.VerifyImage)
		admin.POST("/images/bulk-update", h.BulkUpdateImages)

		admin.GET("/confirmations", h.ListConfirmations)

		admin.GET("/notifications", h.ListNotifications)
		admin.GET("/notifications/:id", h.GetNotification)
		admin.DELETE("/notifications/:id", h.DeleteNotification)
		admin.POST("/notifications/delete-selected", h.DeleteSelectedNotifications)
		admin.PATCH("/notifications/:id/read", h.MarkNotificationRead)
		admin.PATCH("/notifications/read-all", h.MarkAllNotificationsRead)
	}
}
