package main

import (
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/vonjunge/skribbl-clone/game"
	"github.com/vonjunge/skribbl-clone/shared/configs"
	"github.com/vonjunge/skribbl-clone/shared/logger"
)

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.SetTrustedProxies([]string{"127.0.0.1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func main() {
	if configs.Envs.GIN_MODE != "" {
		gin.SetMode(configs.Envs.GIN_MODE)
	}

	allowedOrigins := []string{"http://localhost:5173"}
	if configs.Envs.FRONTEND_ORIGIN != "" {
		allowedOrigins = []string{configs.Envs.FRONTEND_ORIGIN}
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var words game.WordSource = game.NewWordBank(rng)
	if configs.Envs.WORDS_FILE != "" {
		bank, err := game.LoadWordBank(configs.Envs.WORDS_FILE, rng)
		if err != nil {
			logger.Fatalf("loading word list from %s: %v", configs.Envs.WORDS_FILE, err)
		}
		words = bank
	}

	registry := game.NewRegistry(words)

	sweeperStop := make(chan struct{})
	go registry.StartSweeper(sweeperStop, game.SweepInterval)

	router := game.NewRouter(registry)

	r := CreateServer(allowedOrigins)
	game.RegisterRoutes(r, registry, router)

	port := configs.Envs.PORT
	if port == "" {
		port = "3002"
	}

	go func() {
		if err := r.Run(":" + port); err != nil {
			logger.Fatalf("server stopped: %v", err)
		}
	}()
	logger.Infof("server listening on :%s", port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, os.Interrupt)
	<-sigCh

	close(sweeperStop)
	logger.Info("shutting down")
}
