package backend

import (
	"context"
	"errors"
	"fmt"

	"tracker/internal/events"
	"tracker/internal/log"
	"tracker/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger

	// dialAMQP is swapped in tests.
	dialAMQP func(url, exchange string) (events.Publisher, error)
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.Default(log.ComponentBackend)
	}
	return &DefaultFactory{
		logger: logger,
		dialAMQP: func(url, exchange string) (events.Publisher, error) {
			return events.NewAMQPPublisher(url, exchange)
		},
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var kv storage.KV
	switch config.Type {
	case SQLiteBackend:
		sqliteKV, err := storage.NewSQLiteKV(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite storage: %w", err)
		}
		kv = sqliteKV
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		kv = storage.NewMemoryKV()
		f.logger.InfoContext(ctx, "Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	publisher := f.createPublisher(ctx, config)

	return &BackendResult{
		KV:        kv,
		Publisher: publisher,
		Cleanup: func() error {
			return errors.Join(publisher.Close(), kv.Close())
		},
	}, nil
}

// createPublisher connects to AMQP when configured. A broker that cannot be
// reached only disables change events.
func (f *DefaultFactory) createPublisher(ctx context.Context, config Config) events.Publisher {
	if config.AMQPURL == "" {
		return events.Nop{}
	}
	p, err := f.dialAMQP(config.AMQPURL, config.AMQPExchange)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP publisher, continuing without change events", log.FieldError, err)
		return events.Nop{}
	}
	f.logger.InfoContext(ctx, "Initialized AMQP publisher", "exchange", config.AMQPExchange)
	return p
}
