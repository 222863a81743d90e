package server

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/osa911/contactform/internal/config"
	"github.com/osa911/contactform/internal/logging"
	"github.com/osa911/contactform/internal/repository"
	"github.com/osa911/contactform/internal/service"
)

// Components are the collaborators built from configuration
type Components struct {
	Contact *service.ContactService
	// Limiter is nil when rate limiting is disabled
	Limiter *service.RateLimitService

	closers []func() error
}

// Close releases store connections and the audit log
func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errs...)
}

// NewAttemptRepository opens the configured counter store.
// The returned close function is never nil.
func NewAttemptRepository(cfg config.RateLimitConfig) (repository.AttemptRepository, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store {
	case config.StoreFile:
		return repository.NewFileAttemptRepository(cfg.File), noop, nil
	case config.StoreMemory:
		return repository.NewMemoryAttemptRepository(), noop, nil
	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		repo := repository.NewRedisAttemptRepository(rdb,
			repository.WithRedisKey(cfg.RedisKey),
			repository.WithRedisTTL(cfg.Window),
		)
		return repo, rdb.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown rate limit store %q", cfg.Store)
	}
}

// NewRateLimiter builds the per-address limiter on top of the configured store
func NewRateLimiter(cfg config.RateLimitConfig, logger *logging.Logger) (*service.RateLimitService, func() error, error) {
	repo, closeRepo, err := NewAttemptRepository(cfg)
	if err != nil {
		return nil, closeRepo, err
	}
	return service.NewRateLimitService(repo, cfg.MaxAttempts, cfg.Window, logger), closeRepo, nil
}

// NewNotifier selects the notification transport
func NewNotifier(cfg *config.Config, logger *logging.Logger) (service.Notifier, error) {
	switch cfg.Mail.Transport {
	case config.TransportLog:
		return service.NewLogNotifier(logger), nil
	case config.TransportSMTP:
		return service.NewSMTPService(service.SMTPConfig{
			Host:      cfg.Mail.SMTPHost,
			Port:      cfg.Mail.SMTPPort,
			Username:  cfg.Mail.SMTPUsername,
			Password:  cfg.Mail.SMTPPassword,
			To:        cfg.Mail.To,
			FromName:  cfg.Mail.FromName,
			FromEmail: cfg.Mail.FromEmail,
		}), nil
	case config.TransportTelegram:
		return service.NewTelegramService(cfg.Telegram.BotToken, cfg.Telegram.ChatID), nil
	default:
		return nil, fmt.Errorf("unknown notification transport %q", cfg.Mail.Transport)
	}
}

// NewSpamService builds the spam filter; a keywords file replaces the
// keyword list from the environment
func NewSpamService(cfg config.SpamConfig) (*service.SpamService, error) {
	keywords := cfg.Keywords
	if cfg.KeywordsFile != "" {
		loaded, err := service.LoadSpamKeywords(cfg.KeywordsFile)
		if err != nil {
			return nil, err
		}
		keywords = loaded
	}
	if len(keywords) == 0 {
		keywords = service.DefaultSpamKeywords
	}

	return service.NewSpamService(service.SpamConfig{
		HoneypotField: cfg.HoneypotField,
		TimeThreshold: cfg.TimeThreshold,
		Keywords:      keywords,
	}), nil
}

// Bootstrap wires the submission processor from cfg
func Bootstrap(cfg *config.Config, logger *logging.Logger) (*Components, error) {
	c := &Components{}

	if cfg.RateLimit.Enabled {
		limiter, closeRepo, err := NewRateLimiter(cfg.RateLimit, logger)
		if err != nil {
			return nil, err
		}
		c.Limiter = limiter
		c.closers = append(c.closers, closeRepo)
	}

	spam, err := NewSpamService(cfg.Spam)
	if err != nil {
		c.Close()
		return nil, err
	}

	notifier, err := NewNotifier(cfg, logger)
	if err != nil {
		c.Close()
		return nil, err
	}

	audit, err := service.NewFileAuditService(cfg.AuditLogFile, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.closers = append(c.closers, audit.Close)

	deps := service.ContactServiceDeps{
		Spam:       spam,
		Dispatcher: service.NewNotificationService(notifier, cfg.Mail.SubjectPrefix, cfg.Mail.SiteName, logger),
		Audit:      audit,
		Logger:     logger,
	}
	// A nil *RateLimitService must not end up in the interface
	if c.Limiter != nil {
		deps.Limiter = c.Limiter
	}
	c.Contact = service.NewContactService(deps)

	logger.Info("Contact pipeline ready (rate limit: %v, store: %s, transport: %s)",
		cfg.RateLimit.Enabled, cfg.RateLimit.Store, notifier.Name())

	return c, nil
}
