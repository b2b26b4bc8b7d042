package main

import (
	"time"

	"github.com/cmarkin/microblog/cache"
	"github.com/cmarkin/microblog/config"
	"github.com/cmarkin/microblog/models"
	"github.com/cmarkin/microblog/routes"
	"github.com/cmarkin/microblog/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.Group{},
		&models.Post{},
		&models.Comment{},
		&models.Follow{},
		&models.PageView{},
	)

	// The feed page cache lives in redis; when redis is down we fall back
	// to a process-local cache so the global feed keeps its TTL semantics.
	ttl := time.Duration(cfg.FeedCacheTTLSeconds) * time.Second
	var pages cache.PageCache
	if rc, err := cache.NewRedisCache(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword, cfg.RedisDB, ttl, utils.Sugar); err == nil {
		pages = rc
	} else {
		utils.Sugar.Warnf("redis unavailable (%v), using in-memory page cache", err)
		pages = cache.NewMemoryCache(ttl)
	}

	r := routes.SetupRouter(db, pages)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
