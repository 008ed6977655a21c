package main

import (
	"context"
	"fmt"

	"github.com/kendall-kelly/studentbridge-api/config"
	"github.com/kendall-kelly/studentbridge-api/controllers"
	"github.com/kendall-kelly/studentbridge-api/feed"
	"github.com/kendall-kelly/studentbridge-api/logger"
	"github.com/kendall-kelly/studentbridge-api/repository"
	"github.com/kendall-kelly/studentbridge-api/services"
	"gorm.io/gorm"
)

// backends are the external systems the services run against
type backends struct {
	storage  services.S3Interface
	changes  feed.Feed
	presence services.PresenceStore
	notifier services.Notifier
	closers  []func() error
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		_ = b.closers[i]()
	}
}

// connectBackends picks Redis or in-process implementations for the change
// feed and presence, S3 for attachments and SNS (or a log) for pushes
func connectBackends(ctx context.Context, cfg *config.Config, log logger.Logger) (*backends, error) {
	b := &backends{}

	if cfg.UsesRedis() {
		rdb, err := config.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, rdb.Close)
		b.changes = feed.NewRedisFeed(rdb, log)
		b.presence = services.NewRedisPresence(rdb, cfg.PresenceTTL)
		log.Info("using redis change feed and presence", nil)
	} else {
		b.changes = feed.NewMemoryFeed(log)
		b.presence = services.NewMemoryPresence(cfg.PresenceTTL)
		log.Info("using in-process change feed and presence", nil)
	}
	b.closers = append(b.closers, b.changes.Close)

	storage, err := services.InitS3Service(ctx, cfg)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("init attachment storage: %w", err)
	}
	b.storage = storage

	if cfg.AWSSNSTopicARN != "" {
		notifier, err := services.InitSNSNotifier(ctx, cfg)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("init push notifier: %w", err)
		}
		b.notifier = notifier
	} else {
		log.Warn("AWS_SNS_TOPIC_ARN not set, pushes are only logged", nil)
		b.notifier = services.NewLogNotifier(log)
	}

	return b, nil
}

// buildHandlers wires repositories, services and controllers
func buildHandlers(cfg *config.Config, db *gorm.DB, b *backends, log logger.Logger) (controllers.Handlers, *repository.UserRepository) {
	users := repository.NewUserRepository(db)
	listings := repository.NewListingRepository(db)
	interests := repository.NewInterestRepository(db)

	policy := services.NewAccessPolicy(repository.PolicyStore{Listings: listings, Users: users, Interests: interests}, log)
	notifications := services.NewNotificationService(repository.NewNotificationRepository(db), b.presence, b.notifier, log)
	messages := services.NewMessageService(policy, repository.NewMessageRepository(db, b.changes, log), notifications, log)
	attachments := services.NewAttachmentService(b.storage, cfg.MaxAttachmentBytes, cfg.SignedURLTTL, log)

	return controllers.Handlers{
		Users:         controllers.NewUserController(users, services.NewAuth0Service(cfg)),
		Messages:      controllers.NewMessageController(messages, policy, notifications),
		Sync:          controllers.NewSyncController(b.changes, messages, notifications, cfg.CORSAllowedOrigins, log),
		Attachments:   controllers.NewAttachmentController(attachments, cfg.MaxAttachmentBytes),
		Notifications: controllers.NewNotificationController(notifications),
		Interests:     controllers.NewInterestController(services.NewInterestService(interests, listings, notifications, log)),
		Presence:      controllers.NewPresenceController(services.NewPresenceService(b.presence, log)),
	}, users
}
