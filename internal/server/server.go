package server

import (
	"net/http"
	"time"

	"expertsolve.com/hub/internal/config"
	"expertsolve.com/hub/internal/handler"
	"expertsolve.com/hub/internal/middleware"
	"expertsolve.com/hub/internal/repository"
	"expertsolve.com/hub/internal/service"
	"expertsolve.com/hub/pkg/logger"
	"expertsolve.com/hub/pkg/response"
	"expertsolve.com/hub/pkg/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Dependencies are the external handles the server is built from. Redis,
// Search and Images may be nil; the features that need them degrade.
type Dependencies struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Search meilisearch.ServiceManager
	Images storage.ImageStorage
	Log    *logger.Logger
}

// Services exposes what background jobs need.
type Services struct {
	Activity   service.ActivityService
	Questions  service.QuestionService
	Challenges service.ChallengeService
	Sessions   repository.SessionRepository
}

type Server struct {
	engine   *gin.Engine
	services Services
}

func NewServer(cfg *config.Config, deps Dependencies) (*Server, error) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}

	sqlDB, err := deps.DB.DB()
	if err != nil {
		return nil, err
	}

	userRepo := repository.NewUserRepository(deps.DB)
	categoryRepo := repository.NewCategoryRepository(deps.DB)
	questionRepo := repository.NewQuestionRepository(deps.DB)
	answerRepo := repository.NewAnswerRepository(deps.DB)
	challengeRepo := repository.NewChallengeRepository(deps.DB)
	solutionRepo := repository.NewSolutionRepository(deps.DB)
	notificationRepo := repository.NewNotificationRepository(deps.DB)
	sessionRepo := repository.NewSessionRepository(deps.DB)
	activityRepo := repository.NewActivityRepository(deps.DB)
	leaderboardRepo := repository.NewLeaderboardRepository(deps.DB)

	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	limiter := service.NewRateLimiter(deps.Redis, map[string]time.Duration{
		service.ActionCreateQuestion: cfg.RateLimitQuestion,
		service.ActionCreateAnswer:   cfg.RateLimitAnswer,
	})

	activitySvc := service.NewActivityService(activityRepo, log)
	notificationSvc := service.NewNotificationService(notificationRepo, deps.Redis, log)
	searchSvc := service.NewSearchService(deps.Search, log)

	authSvc := service.NewAuthService(userRepo, categoryRepo, sessionRepo, activitySvc, tokens, log)
	userSvc := service.NewUserService(userRepo, categoryRepo, notificationSvc, deps.Images, cfg.CloudinaryUploadFolder, log)
	categorySvc := service.NewCategoryService(categoryRepo, activitySvc)
	questionSvc := service.NewQuestionService(questionRepo, answerRepo, categoryRepo, limiter, searchSvc, activitySvc, log)
	answerSvc := service.NewAnswerService(answerRepo, questionRepo, limiter, notificationSvc, activitySvc, log)
	challengeSvc := service.NewChallengeService(challengeRepo, solutionRepo, categoryRepo, userRepo, searchSvc, notificationSvc, activitySvc, log)
	solutionSvc := service.NewSolutionService(solutionRepo, challengeRepo, notificationSvc, activitySvc, log)
	leaderboardSvc := service.NewLeaderboardService(leaderboardRepo, deps.Redis, log)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	leaderboardHandler := handler.NewLeaderboardHandler(leaderboardSvc)
	categoryHandler := handler.NewCategoryHandler(categorySvc)
	questionHandler := handler.NewQuestionHandler(questionSvc)
	answerHandler := handler.NewAnswerHandler(answerSvc)
	challengeHandler := handler.NewChallengeHandler(challengeSvc, solutionSvc)
	solutionHandler := handler.NewSolutionHandler(solutionSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc, cfg.AllowedOrigins)
	adminHandler := handler.NewAdminHandler(activitySvc, userSvc)
	healthHandler := handler.NewHealthHandler(sqlDB)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(registry)

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(middleware.RequestContext(log))
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		response.Logger(c).Error("panic recovered", "panic", recovered, "path", c.Request.URL.Path)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}))
	router.Use(middleware.RequestLogger())
	router.Use(metrics.Handler())

	auth := middleware.NewAuthMiddleware(tokens)
	requireAuth := auth.RequireAuth()
	requireExpert := auth.RequireExpert()
	requireAdmin := auth.RequireAdmin()

	router.GET("/", healthHandler.Root)
	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	api := router.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.GET("/profile", requireAuth, authHandler.Profile)
		authGroup.POST("/refresh", requireAuth, authHandler.Refresh)
	}

	users := api.Group("/users")
	{
		users.GET("/experts", userHandler.ListExperts)
		users.GET("/experts/leaderboard", leaderboardHandler.Experts)
		users.PUT("/profile", requireAuth, userHandler.UpdateProfile)
		users.POST("/profile/picture", requireAuth, userHandler.UploadAvatar)
		users.PUT("/expertise", requireAuth, requireExpert, userHandler.UpdateExpertise)
		users.GET("/:userId", userHandler.GetUser)
		users.POST("/:userId/follow", requireAuth, userHandler.Follow)
		users.DELETE("/:userId/follow", requireAuth, userHandler.Unfollow)
		users.GET("/:userId/followers", userHandler.Followers)
		users.GET("/:userId/following", userHandler.Following)
		users.POST("/:userId/ratings", requireAuth, userHandler.RateExpert)
		users.GET("/:userId/ratings", userHandler.ExpertRatings)
	}

	categories := api.Group("/categories")
	{
		categories.GET("", categoryHandler.List)
		categories.GET("/top-level", categoryHandler.TopLevel)
		categories.GET("/search", categoryHandler.Search)
		categories.GET("/:id", categoryHandler.Get)
		categories.GET("/:id/subcategories", categoryHandler.Subcategories)
		categories.GET("/:id/experts", categoryHandler.Experts)
		categories.GET("/:id/statistics", categoryHandler.Statistics)
		categories.POST("", requireAuth, requireAdmin, categoryHandler.Create)
		categories.PUT("/:id", requireAuth, requireAdmin, categoryHandler.Update)
		categories.DELETE("/:id", requireAuth, requireAdmin, categoryHandler.Delete)
	}

	questions := api.Group("/questions")
	{
		questions.GET("", questionHandler.List)
		questions.GET("/search", questionHandler.Search)
		questions.GET("/user/my-questions", requireAuth, questionHandler.MyQuestions)
		questions.GET("/:id", questionHandler.Get)
		questions.POST("", requireAuth, questionHandler.Create)
		questions.PUT("/:id", requireAuth, questionHandler.Update)
		questions.DELETE("/:id", requireAuth, questionHandler.Delete)
	}

	answers := api.Group("/answers")
	{
		answers.GET("/top-rated", answerHandler.TopRated)
		answers.GET("/user/my-answers", requireAuth, requireExpert, answerHandler.MyAnswers)
		answers.GET("/question/:questionId", answerHandler.ListByQuestion)
		answers.POST("/question/:questionId", requireAuth, requireExpert, answerHandler.Create)
		answers.GET("/expert/:expertId", answerHandler.ListByExpert)
		answers.GET("/:answerId", answerHandler.Get)
		answers.PUT("/:answerId", requireAuth, requireExpert, answerHandler.Update)
		answers.DELETE("/:answerId", requireAuth, requireExpert, answerHandler.Delete)
		answers.POST("/:answerId/helpful", requireAuth, answerHandler.MarkHelpful)
		answers.POST("/:answerId/ratings", requireAuth, answerHandler.Rate)
		answers.GET("/:answerId/ratings", answerHandler.Ratings)
		answers.GET("/:answerId/statistics", answerHandler.Statistics)
	}

	challenges := api.Group("/challenges")
	{
		challenges.GET("", challengeHandler.List)
		challenges.GET("/search", challengeHandler.Search)
		challenges.GET("/expert/:expertId", challengeHandler.ListByExpert)
		challenges.GET("/:id", challengeHandler.Get)
		challenges.GET("/:id/solutions", challengeHandler.Solutions)
		challenges.GET("/:id/participants", challengeHandler.Participants)
		challenges.POST("", requireAuth, requireExpert, challengeHandler.Create)
		challenges.PUT("/:id", requireAuth, requireExpert, challengeHandler.Update)
		challenges.DELETE("/:id", requireAuth, requireExpert, challengeHandler.Delete)
		challenges.POST("/:id/join", requireAuth, challengeHandler.Join)
		challenges.DELETE("/:id/join", requireAuth, challengeHandler.Leave)
		challenges.POST("/:id/solutions", requireAuth, requireExpert, challengeHandler.SubmitSolution)
	}

	solutions := api.Group("/solutions")
	{
		solutions.GET("/top-rated", solutionHandler.TopRated)
		solutions.GET("/language/:language", solutionHandler.ListByLanguage)
		solutions.GET("/user/:userId", solutionHandler.ListByUser)
		solutions.GET("/:id", solutionHandler.Get)
		solutions.PUT("/:id", requireAuth, solutionHandler.Update)
		solutions.DELETE("/:id", requireAuth, solutionHandler.Delete)
		solutions.POST("/:id/ratings", requireAuth, solutionHandler.Rate)
		solutions.GET("/:id/ratings", solutionHandler.Ratings)
		solutions.GET("/:id/statistics", solutionHandler.Statistics)
	}

	notifications := api.Group("/notifications", requireAuth)
	{
		notifications.GET("", notificationHandler.List)
		notifications.GET("/unread-count", notificationHandler.UnreadCount)
		notifications.PUT("/read-all", notificationHandler.MarkAllAsRead)
		notifications.PUT("/:id/read", notificationHandler.MarkAsRead)
		notifications.GET("/ws", notificationHandler.Stream)
	}

	api.GET("/activity", requireAuth, adminHandler.MyActivity)

	admin := api.Group("/admin", requireAuth, requireAdmin)
	{
		admin.GET("/activity", adminHandler.ListActivity)
		admin.PUT("/users/:userId/role", adminHandler.ChangeRole)
	}

	return &Server{
		engine: router,
		services: Services{
			Activity:   activitySvc,
			Questions:  questionSvc,
			Challenges: challengeSvc,
			Sessions:   sessionRepo,
		},
	}, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Services() Services {
	return s.services
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 1 && origins[0] == "*" {
		// Credentials cannot be combined with a literal wildcard.
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	router.Use(cors.New(cfg))
}
