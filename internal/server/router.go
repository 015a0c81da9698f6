package server

import (
	"net/http"
	"time"

	"taskboard/internal/handlers"
	"taskboard/internal/middleware"
	"taskboard/internal/web"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func (s *Server) setupRouter() *gin.Engine {
	if s.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RecoveryWithLog(s.logger))
	router.Use(middleware.RequestLogger(s.logger))
	router.Use(s.monitor.Middleware())
	if len(s.config.Server.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     s.config.Server.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	router.SetHTMLTemplate(web.MustTemplates())

	router.GET("/healthz", s.monitor.HealthHandler())
	router.GET("/readyz", s.monitor.ReadinessHandler())
	router.GET("/livez", s.monitor.LivenessHandler())
	router.GET("/metrics", s.monitor.MetricsHandler())

	db := s.pool.DB
	svc := s.services
	sessionConfig := middleware.SessionConfig{CookieName: s.config.Auth.CookieName, LoginPath: "/login"}
	cookie := handlers.SessionCookie{
		Name:   s.config.Auth.CookieName,
		TTL:    s.config.Auth.SessionTTL,
		Secure: s.config.Auth.SecureCookie,
	}

	authHandler := handlers.NewAuthHandler(db, svc.Auth, cookie)
	registerHandler := handlers.NewRegisterHandler(db, svc.Register, svc.Auth, cookie)
	logoutHandler := handlers.NewLogoutHandler(db, svc.Auth, cookie)
	taskHandler := handlers.NewTaskHandler(db, svc.Tasks)
	checklistHandler := handlers.NewChecklistHandler(db, svc.Checklists)
	commentHandler := handlers.NewCommentHandler(db, svc.Comments)
	teamHandler := handlers.NewTeamHandler(db, svc.Teams)
	boardHandler := handlers.NewBoardHandler(db, svc.Board, taskHandler, checklistHandler, commentHandler, teamHandler)

	public := router.Group("/")
	public.Use(middleware.OptionalSession(db, svc.Auth, sessionConfig))
	{
		public.GET("/", handlers.Index)
		public.GET("/login", authHandler.LoginPage)
		public.GET("/signup", registerHandler.SignupPage)
		public.GET("/logout", logoutHandler.Logout)
		public.POST("/logout", logoutHandler.Logout)

		credentials := public.Group("/")
		if s.config.RateLimit.Enabled {
			credentials.Use(middleware.RateLimit(middleware.NewIPRateLimiter(s.config.RateLimit)))
		}
		credentials.POST("/login", authHandler.Login)
		credentials.POST("/signup", registerHandler.Registration)
	}

	protected := router.Group("/")
	protected.Use(middleware.RequireSession(db, svc.Auth, sessionConfig, s.logger))
	{
		protected.GET("/dashboard", boardHandler.Dashboard)
		protected.GET("/my-boards", boardHandler.Board)
		protected.POST("/my-boards", boardHandler.Dispatch)

		tasks := protected.Group("/tasks")
		tasks.POST("", taskHandler.CreateTask)
		tasks.POST("/:task_id/status/inprogress", taskHandler.MoveToInProgress)
		tasks.POST("/:task_id/status/completed", taskHandler.MoveToCompleted)
		tasks.POST("/:task_id/status/reopen", taskHandler.ReopenTask)
		tasks.DELETE("/:task_id", taskHandler.DeleteTask)
		tasks.POST("/:task_id/delete", taskHandler.DeleteTask)
		tasks.POST("/:task_id/users/:user_id", taskHandler.AddUserToTask)
		tasks.DELETE("/:task_id/users/:user_id", taskHandler.DeleteUserFromTask)
		tasks.POST("/:task_id/users/:user_id/delete", taskHandler.DeleteUserFromTask)
		tasks.POST("/:task_id/checklists", checklistHandler.AddChecklist)
		tasks.POST("/:task_id/comments", commentHandler.AddComment)

		protected.POST("/checklists/:checklist_id", checklistHandler.SaveEditedChecklist)
		protected.POST("/comments/:comment_id/replies", commentHandler.AddReply)

		team := protected.Group("/team/invites")
		team.POST("", teamHandler.InviteMember)
		team.POST("/:requester_id/accept", teamHandler.AcceptRequest)
		team.POST("/:requester_id/reject", teamHandler.RejectRequest)
	}

	return router
}
