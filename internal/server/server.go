package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/quizhive/quizhive/internal/action"
	actiondomain "github.com/quizhive/quizhive/internal/action/domain"
	"github.com/quizhive/quizhive/internal/auth"
	authdomain "github.com/quizhive/quizhive/internal/auth/domain"
	"github.com/quizhive/quizhive/internal/auth/session"
	"github.com/quizhive/quizhive/internal/authorization"
	"github.com/quizhive/quizhive/internal/cache"
	"github.com/quizhive/quizhive/internal/company"
	companydomain "github.com/quizhive/quizhive/internal/company/domain"
	"github.com/quizhive/quizhive/internal/config"
	"github.com/quizhive/quizhive/internal/export"
	"github.com/quizhive/quizhive/internal/observability"
	obslogger "github.com/quizhive/quizhive/internal/observability/logger"
	obsmetrics "github.com/quizhive/quizhive/internal/observability/metrics"
	obstracing "github.com/quizhive/quizhive/internal/observability/tracing"
	"github.com/quizhive/quizhive/internal/providers"
	"github.com/quizhive/quizhive/internal/quiz"
	quizdomain "github.com/quizhive/quizhive/internal/quiz/domain"
	"github.com/quizhive/quizhive/internal/result"
	resultdomain "github.com/quizhive/quizhive/internal/result/domain"
	"github.com/quizhive/quizhive/internal/user"
	userdomain "github.com/quizhive/quizhive/internal/user/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	auth.Module,
	cache.Module,
	providers.Module,
	user.Module,
	company.Module,
	action.Module,
	quiz.Module,
	result.Module,
	export.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.Origins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(cfg, obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	db         *gorm.DB
	authsvc    authdomain.Service
	sessions   *session.Manager
	genID      *snowflake.Node
	usersvc    userdomain.Service
	companysvc companydomain.Service
	actionsvc  actiondomain.Service
	quizsvc    quizdomain.Service
	resultsvc  resultdomain.Service
	exportsvc  export.Service
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	DB         *gorm.DB
	Authsvc    authdomain.Service
	Sessions   *session.Manager
	GenID      *snowflake.Node
	Usersvc    userdomain.Service
	Companysvc companydomain.Service
	Actionsvc  actiondomain.Service
	Quizsvc    quizdomain.Service
	Resultsvc  resultdomain.Service
	Exportsvc  export.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		db:         p.DB,
		authsvc:    p.Authsvc,
		sessions:   p.Sessions,
		genID:      p.GenID,
		usersvc:    p.Usersvc,
		companysvc: p.Companysvc,
		actionsvc:  p.Actionsvc,
		quizsvc:    p.Quizsvc,
		resultsvc:  p.Resultsvc,
		exportsvc:  p.Exportsvc,
	}

	svc.registerAuthRoutes()
	svc.registerUserRoutes()
	svc.registerCompanyRoutes()
	svc.registerQuizRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/signup", s.SignUp)
	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerUserRoutes() {
	users := s.engine.Group("/users", s.AuthRequired())
	{
		users.GET("", s.ListUsers)
		users.GET("/:userId", s.GetUser)
		users.PATCH("/:userId", s.UpdateUser)
		users.POST("/:userId/password", s.ChangePassword)
		users.DELETE("/:userId", s.DeleteUser)
		users.GET("/:userId/rating", s.UserRating)
	}

	me := s.engine.Group("/me", s.AuthRequired())
	{
		me.GET("/invites", s.ListMyInvites)
		me.GET("/requests", s.ListMyRequests)
	}
}

func (s *Server) registerCompanyRoutes() {
	companies := s.engine.Group("/companies", s.AuthRequired())
	{
		companies.POST("", s.CreateCompany)
		companies.GET("", s.ListCompanies)
		companies.GET("/:id", s.GetCompany)
		companies.PATCH("/:id", s.UpdateCompany)
		companies.DELETE("/:id", s.DeleteCompany)

		companies.GET("/:id/members", s.ListMembers)
		companies.DELETE("/:id/members/:userId", s.RemoveMember)
		companies.GET("/:id/members/:userId/rating", s.MemberRating)
		companies.POST("/:id/leave", s.LeaveCompany)
		companies.POST("/:id/admins/:userId", s.AppointAdmin)
		companies.DELETE("/:id/admins/:userId", s.RevokeAdmin)

		companies.POST("/:id/invites", s.InviteUsers)
		companies.GET("/:id/invites", s.ListCompanyInvites)
		companies.DELETE("/:id/invites/:userId", s.CancelInvite)
		companies.POST("/:id/invites/accept", s.AcceptInvite)
		companies.POST("/:id/invites/decline", s.DeclineInvite)

		companies.POST("/:id/requests", s.RequestToJoin)
		companies.GET("/:id/requests", s.ListCompanyRequests)
		companies.DELETE("/:id/requests", s.CancelRequest)
		companies.POST("/:id/requests/:userId/accept", s.AcceptRequest)
		companies.POST("/:id/requests/:userId/decline", s.DeclineRequest)
	}
}

func (s *Server) registerQuizRoutes() {
	quizzes := s.engine.Group("/companies/:id/quizzes", s.AuthRequired())
	{
		quizzes.POST("", s.CreateQuiz)
		quizzes.GET("", s.ListQuizzes)
		quizzes.GET("/:quizId", s.GetQuiz)
		quizzes.PATCH("/:quizId", s.UpdateQuiz)
		quizzes.DELETE("/:quizId", s.DeleteQuiz)

		quizzes.POST("/:quizId/questions", s.AddQuestion)
		quizzes.PATCH("/:quizId/questions/:questionId", s.UpdateQuestion)
		quizzes.DELETE("/:quizId/questions/:questionId", s.DeleteQuestion)

		quizzes.POST("/:quizId/attempts", s.SubmitAttempt)
		quizzes.GET("/:quizId/results", s.ListQuizResults)
		quizzes.GET("/:quizId/results/:userId/export", s.ExportAttempt)
	}
}
