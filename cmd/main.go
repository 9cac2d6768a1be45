package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"BlockDuel/config"
	"BlockDuel/internal/game/manager"
	"BlockDuel/internal/history"
	"BlockDuel/internal/matchmaker"
	"BlockDuel/internal/storage"
	"BlockDuel/internal/utils"
	"BlockDuel/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	config.Load()
	utils.Init(config.C.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//-------------------------------------------------------
	// 1. 存储后端（按配置选择，默认全部内存）
	//-------------------------------------------------------
	var rdb *redis.Client
	if config.C.Queue.Backend == "redis" || config.C.History.Backend == "redis" {
		var err error
		rdb, err = storage.NewRedis(ctx, config.C.Redis.Addr, config.C.Redis.Password, config.C.Redis.DB)
		if err != nil {
			utils.Log.Fatal("redis init failed", "err", err)
		}
		defer rdb.Close()
	}

	queueRepo := matchmaker.NewMemoryRepo()
	if config.C.Queue.Backend == "redis" {
		queueRepo = matchmaker.NewRedisRepo(rdb)
	}

	histRepo := history.NewMemoryRepo(config.C.History.Limit)
	switch config.C.History.Backend {
	case "redis":
		histRepo = history.NewRedisRepo(rdb, config.C.History.Limit)
	case "postgres":
		db, err := storage.OpenPostgres(ctx, config.C.Database.DSN)
		if err != nil {
			utils.Log.Fatal("postgres init failed", "err", err)
		}
		defer db.Close()
		histRepo, err = history.NewPostgresRepo(ctx, db)
		if err != nil {
			utils.Log.Fatal("history init failed", "err", err)
		}
	}
	utils.Log.Info("storage ready", "queue", config.C.Queue.Backend, "history", config.C.History.Backend)

	//-------------------------------------------------------
	// 2. Hub（必须最先启动）
	//-------------------------------------------------------
	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Close()

	//-------------------------------------------------------
	// 3. GameManager：排队、房间、判定、再来一局
	//-------------------------------------------------------
	gameMgr := manager.NewGameManager(hub, queueRepo, histRepo, config.C.Match)
	hub.OnIncoming = gameMgr.HandlePlayerMessage
	hub.OnDisconnect = gameMgr.HandleDisconnect
	gameMgr.StartJanitor(ctx, config.C.Match.JanitorInterval)
	defer gameMgr.Close()

	//-------------------------------------------------------
	// 4. Gin + CORS
	//-------------------------------------------------------
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type"},
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ws", websocket.ServeWS(hub))
	r.GET("/stats", gameMgr.Stats)
	r.GET("/queue", matchmaker.NewHandler(queueRepo).Size)
	r.GET("/matches/recent", history.NewHandler(histRepo).Recent)

	//-------------------------------------------------------
	// 5. 启动服务器，收到信号后优雅退出
	//-------------------------------------------------------
	srv := &http.Server{Addr: config.C.Server.Port, Handler: r}
	go func() {
		utils.Log.Info("server running", "addr", config.C.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Log.Fatal("server failed", "err", err)
		}
	}()

	<-ctx.Done()
	utils.Log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Log.Error("server shutdown", "err", err)
	}
}
