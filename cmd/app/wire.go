//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/rcbeall1/stylescout/internal/bootstrap"
	"github.com/rcbeall1/stylescout/internal/domain/feedback"
	"github.com/rcbeall1/stylescout/internal/domain/quota"
	"github.com/rcbeall1/stylescout/internal/domain/stylist"
	"github.com/rcbeall1/stylescout/internal/infra/config"
	httpiface "github.com/rcbeall1/stylescout/internal/interface/http"
	"github.com/rcbeall1/stylescout/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideStylistOptions,
		provideEstimator,
		provideProviderSource,
		provideQuotaPersistence,
		provideQuotaStore,
		provideImageStore,
		provideFeedbackRepository,
		provideAdminHandler,
		stylist.NewService,
		feedback.NewService,
		wire.Bind(new(stylist.QuotaGate), new(*quota.Store)),
		wire.Bind(new(httpiface.StylistService), new(*stylist.Service)),
		wire.Bind(new(httpiface.FeedbackService), new(*feedback.Service)),
		httpiface.NewHandler,
		httpiface.NewFeedbackHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
