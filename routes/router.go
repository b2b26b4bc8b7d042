package routes

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cmarkin/microblog/cache"
	"github.com/cmarkin/microblog/config"
	"github.com/cmarkin/microblog/controllers"
	"github.com/cmarkin/microblog/middleware"
	"github.com/cmarkin/microblog/utils"
)

// SetupRouter wires routes, middlewares, and controllers. The page cache
// comes in as an explicit dependency and is handed to the feed controller
// only; no other route touches it.
func SetupRouter(db *gorm.DB, pages cache.PageCache) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace the default console logger with the file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Best-effort identity on every request; protected routes add
	// LoginRequired on top.
	r.Use(middleware.CurrentUser())
	// Record PV after each request
	r.Use(middleware.PageViewRecorder(db))

	r.Static("/static", "./static")

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	feeds := controllers.NewFeedController(db, pages, cfg.PageSize)
	posts := controllers.NewPostController(db, cfg)
	follows := controllers.NewFollowController(db)

	r.GET("/", feeds.Index)
	r.GET("/group/:slug/", feeds.GroupPosts)
	r.GET("/posts/:id/", posts.PostDetail)
	r.GET("/profile/:username/", feeds.Profile)

	protected := r.Group("", middleware.LoginRequired(cfg.LoginPath))
	protected.GET("/follow/", feeds.FollowIndex)
	protected.GET("/create/", posts.NewPostForm)
	protected.GET("/posts/:id/edit/", posts.EditPostForm)
	protected.GET("/profile/:username/follow/", follows.Follow)
	protected.GET("/profile/:username/unfollow/", follows.Unfollow)

	mutations := protected.Group("", middleware.RateLimitMiddleware())
	mutations.POST("/create/", posts.CreatePost)
	mutations.POST("/posts/:id/edit/", posts.EditPost)
	mutations.POST("/posts/:id/comment/", posts.CreateComment)

	return r
}
