package main

import (
	"flag"

	"github.com/paradetect/paradetect/internal/auth"
	"github.com/paradetect/paradetect/internal/chatbot"
	"github.com/paradetect/paradetect/internal/config"
	"github.com/paradetect/paradetect/internal/predictor"
	"github.com/paradetect/paradetect/internal/repository"
	"github.com/paradetect/paradetect/internal/server"
	"github.com/paradetect/paradetect/internal/token"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	var configPath = flag.String("config", "config/config.yaml", "path to yaml config")
	flag.Parse()

	newConfig := func() (*config.Config, error) {
		return config.Load(*configPath)
	}

	app := fx.New(
		fx.Provide(
			zap.NewDevelopment,
			newConfig,
			repository.NewJSON,
			token.NewService,
			predictor.NewStub,
			chatbot.New,
		),
		auth.Module,
		server.Module,
		fx.Invoke(server.RegisterHooks),
	)

	app.Run()
}
