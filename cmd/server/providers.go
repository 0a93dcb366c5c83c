// File: cmd/server/providers.go
package main

import (
	"log"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"wecare_donations_backend/internal/app"
	"wecare_donations_backend/internal/config"
	"wecare_donations_backend/internal/donation"
	"wecare_donations_backend/internal/events"
	"wecare_donations_backend/internal/matching"
	"wecare_donations_backend/internal/notification"
	"wecare_donations_backend/internal/platform/database"
	"wecare_donations_backend/internal/platform/logger"
	"wecare_donations_backend/internal/platform/messaging"
	platformredis "wecare_donations_backend/internal/platform/redis"
	"wecare_donations_backend/internal/search"
	"wecare_donations_backend/internal/user"
)

// application is everything the serve command needs.
type application struct {
	Server *app.Server
	Users  user.Service
	Index  *search.Index
	Logger *zap.Logger
}

// worker is everything the worker command needs.
type worker struct {
	Consumer *messaging.Consumer
	Logger   *zap.Logger
}

// searchSync is everything the sync-search command needs.
type searchSync struct {
	Index     *search.Index
	Donations donation.Repository
	Logger    *zap.Logger
}

func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	l, err := logger.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return l, func() {
		if err := l.Sync(); err != nil {
			log.Printf("logger sync: %v", err)
		}
	}, nil
}

func provideDB(cfg *config.Config, l *zap.Logger) (*gorm.DB, func(), error) {
	db, err := database.NewGORM(cfg, l)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { database.CloseGORMDB(db, l) }, nil
}

func provideRedis(cfg *config.Config, l *zap.Logger) (*goredis.Client, func(), error) {
	client, err := platformredis.New(cfg, l)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { platformredis.Close(client, l) }, nil
}

// provideDispatcher registers every in-process reaction to lifecycle events.
func provideDispatcher(l *zap.Logger, notifications *notification.ServiceImplementation, searchHandler events.Handler) *events.Dispatcher {
	return events.NewDispatcher(l, notifications, searchHandler)
}

// providePublisher sends events to RabbitMQ when AMQP_URL is set; the worker
// command consumes them. Otherwise events are dispatched in-process.
func providePublisher(cfg *config.Config, dispatcher *events.Dispatcher, l *zap.Logger) (events.Publisher, func(), error) {
	if cfg.AMQPURL == "" {
		return events.NewLocalPublisher(dispatcher), func() {}, nil
	}
	publisher, err := messaging.NewRabbitPublisher(cfg.AMQPURL, cfg.AMQPQueue, l)
	if err != nil {
		return nil, nil, err
	}
	return publisher, publisher.Close, nil
}

func provideConsumer(cfg *config.Config, dispatcher *events.Dispatcher, l *zap.Logger) (*messaging.Consumer, func(), error) {
	consumer, err := messaging.NewConsumer(cfg.AMQPURL, cfg.AMQPQueue, 0, dispatcher, l)
	if err != nil {
		return nil, nil, err
	}
	return consumer, consumer.Close, nil
}

func provideOrchestrator(completer matching.Completer, cfg *config.Config, l *zap.Logger) *matching.Orchestrator {
	return matching.NewOrchestrator(completer, cfg.AIMatchTimeout, l)
}
