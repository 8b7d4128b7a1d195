package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"

	"regis_chat_backend/bootstrap"
	"regis_chat_backend/config"
	"regis_chat_backend/middleware"
	"regis_chat_backend/pkg/logging"
	"regis_chat_backend/routes"
)

func main() {
	envErr := godotenv.Load()
	logging.Init()
	if envErr != nil {
		logging.Logger.Warn("no .env file, using process environment")
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Logger.Error("fail LoadConfig", "error", err)
		os.Exit(1)
	}

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		logging.Logger.Error("fail NewApp", "error", err)
		os.Exit(1)
	}

	server := fiber.New(fiber.Config{
		AppName:      "regis-chat-backend",
		ErrorHandler: middleware.ErrorHandler,
		BodyLimit:    1 << 20,
	})
	server.Use(middleware.Recover())
	server.Use(middleware.Logger(cfg.AppEnv))
	server.Use(middleware.CORS(cfg.AllowOrigins))

	h := app.Handlers
	routes.RegisterChatRoutes(server, h.ChatHandler)
	routes.RegisterHealthRoutes(server, h.HealthHandler)
	routes.RegisterDocumentRoutes(server, h.DocHandler)
	if h.WSHandler != nil {
		routes.SetupWebSocketRoutes(server, h.WSHandler)
	}
	if h.AdminHandler != nil {
		routes.RegisterAdminRoutes(server, h.AdminHandler)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		logging.Logger.Info("shutting down")
		if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
			logging.Logger.Error("fail server shutdown", "error", err)
		}
	}()

	logging.Logger.Info("Server running", "port", cfg.HttpPort, "env", cfg.AppEnv)
	if err := server.Listen(":" + cfg.HttpPort); err != nil {
		logging.Logger.Error("server stopped", "error", err)
	}
	if err := app.Shutdown(); err != nil {
		logging.Logger.Error("fail app shutdown", "error", err)
	}
}
