//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/station-gourmet/internal/bootstrap"
	"github.com/yanqian/station-gourmet/internal/domain/gourmet"
	"github.com/yanqian/station-gourmet/internal/infra/config"
	httpiface "github.com/yanqian/station-gourmet/internal/interface/http"
	"github.com/yanqian/station-gourmet/pkg/logger"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		provideGourmetConfig,
		provideMapsClient,
		provideChatClient,
		provideTokenCounter,
		provideGeoCache,
		gourmet.NewService,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
