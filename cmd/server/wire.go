// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"wecare_donations_backend/internal/admin"
	"wecare_donations_backend/internal/app"
	"wecare_donations_backend/internal/auth"
	"wecare_donations_backend/internal/category"
	"wecare_donations_backend/internal/config"
	"wecare_donations_backend/internal/donation"
	"wecare_donations_backend/internal/filestorage"
	"wecare_donations_backend/internal/jobs"
	"wecare_donations_backend/internal/matching"
	"wecare_donations_backend/internal/notification"
	"wecare_donations_backend/internal/platform/elasticsearch"
	"wecare_donations_backend/internal/search"
	"wecare_donations_backend/internal/user"
)

var platformSet = wire.NewSet(
	provideLogger,
	provideDB,
)

var searchSet = wire.NewSet(
	elasticsearch.NewClient,
	search.NewIndex,
	donation.NewGORMRepository,
	wire.Bind(new(search.DonationLoader), new(donation.Repository)),
)

var eventsSet = wire.NewSet(
	notification.NewGORMRepository,
	notification.NewService,
	search.NewEventHandler,
	provideDispatcher,
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*application, func(), error) {
	wire.Build(
		platformSet,
		searchSet,
		eventsSet,
		provideRedis,
		providePublisher,

		auth.NewJWTService,
		auth.NewBlocklist,
		auth.NewHandler,

		filestorage.NewStore,
		filestorage.RulesFromConfig,

		user.NewGORMRepository,
		user.NewService,
		wire.Bind(new(user.Service), new(*user.ServiceImplementation)),
		wire.Bind(new(matching.UserLookup), new(*user.ServiceImplementation)),
		user.NewHandler,

		category.NewGORMRepository,
		category.NewService,
		category.NewHandler,

		search.AsSearcher,
		donation.NewService,
		wire.Bind(new(donation.Service), new(*donation.ServiceImplementation)),
		wire.Bind(new(matching.DonationSource), new(*donation.ServiceImplementation)),
		donation.NewHandler,

		matching.NewCompleter,
		provideOrchestrator,
		matching.NewService,
		matching.NewHandler,

		wire.Bind(new(notification.Service), new(*notification.ServiceImplementation)),
		notification.NewHandler,

		admin.NewGORMRepository,
		admin.NewService,
		wire.Bind(new(admin.Service), new(*admin.ServiceImplementation)),
		admin.NewHandler,

		jobs.NewSearchReindexJob,
		wire.Struct(new(app.Handlers), "*"),
		app.NewServer,
		wire.Struct(new(application), "*"),
	)
	return nil, nil, nil
}

// initializeWorker builds the AMQP consumer with the same event handlers as the server.
func initializeWorker(cfg *config.Config) (*worker, func(), error) {
	wire.Build(
		platformSet,
		searchSet,
		eventsSet,
		provideConsumer,
		wire.Struct(new(worker), "*"),
	)
	return nil, nil, nil
}

// initializeSearchSync builds what the sync-search command needs.
func initializeSearchSync(cfg *config.Config) (*searchSync, func(), error) {
	wire.Build(
		platformSet,
		searchSet,
		wire.Struct(new(searchSync), "*"),
	)
	return nil, nil, nil
}
