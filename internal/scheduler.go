package internal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	wmamqp "github.com/ThreeDotsLabs/watermill-amqp/pkg/amqp"
	wmsql "github.com/ThreeDotsLabs/watermill-sql/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Scheduler detaches review work from the request cycle: Enqueue publishes a
// job for out-of-band execution and returns before the job runs.
type Scheduler interface {
	Enqueue(ctx context.Context, job ReviewJob) error
}

// Transport bundles the publisher and subscriber ends of the job queue.
// Under the default gochannel driver both ends are the same in-process
// pub/sub, which gives fire-and-forget, at-most-once delivery with no
// cross-process durability. The amqp and sql drivers are the opt-in durable
// extension point.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
	closeFn    func() error
}

func (t *Transport) Close() error {
	err := t.Publisher.Close()
	if t.Subscriber != nil {
		err = errors.Join(err, t.Subscriber.Close())
	}
	if t.closeFn != nil {
		err = errors.Join(err, t.closeFn())
	}
	return err
}

// BuildTransport creates the job queue for the configured driver.
func BuildTransport(cfg SchedulerConfig) (*Transport, error) {
	logger := watermill.NewStdLogger(false, false)

	switch strings.ToLower(cfg.Driver) {
	case "", "gochannel":
		pubsub := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: cfg.GoChannel.OutputChannelBuffer,
			Persistent:          cfg.GoChannel.Persistent,
		}, logger)
		// A single GoChannel serves both ends; closing it twice is safe but
		// pointless, so the subscriber slot shares the publisher's Close.
		return &Transport{Publisher: pubsub, Subscriber: noCloseSubscriber{pubsub}}, nil
	case "amqp":
		if cfg.AMQP.URL == "" {
			return nil, errors.New("amqp url is required")
		}
		amqpCfg, err := amqpConfigFromMode(cfg.AMQP.URL, cfg.AMQP.Mode)
		if err != nil {
			return nil, err
		}
		pub, err := wmamqp.NewPublisher(amqpCfg, logger)
		if err != nil {
			return nil, err
		}
		sub, err := wmamqp.NewSubscriber(amqpCfg, logger)
		if err != nil {
			_ = pub.Close()
			return nil, err
		}
		return &Transport{Publisher: pub, Subscriber: sub}, nil
	case "sql":
		if cfg.SQL.Driver == "" || cfg.SQL.DSN == "" {
			return nil, errors.New("sql driver and dsn are required")
		}
		schemaAdapter, offsetsAdapter, err := sqlAdapters(cfg.SQL.Dialect)
		if err != nil {
			return nil, err
		}
		db, err := sql.Open(cfg.SQL.Driver, cfg.SQL.DSN)
		if err != nil {
			return nil, err
		}
		pub, err := wmsql.NewPublisher(db, wmsql.PublisherConfig{
			SchemaAdapter:        schemaAdapter,
			AutoInitializeSchema: cfg.SQL.InitializeSchema,
		}, logger)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		sub, err := wmsql.NewSubscriber(db, wmsql.SubscriberConfig{
			SchemaAdapter:    schemaAdapter,
			OffsetsAdapter:   offsetsAdapter,
			InitializeSchema: cfg.SQL.InitializeSchema,
		}, logger)
		if err != nil {
			_ = pub.Close()
			_ = db.Close()
			return nil, err
		}
		return &Transport{Publisher: pub, Subscriber: sub, closeFn: db.Close}, nil
	default:
		return nil, fmt.Errorf("unsupported scheduler driver: %s", cfg.Driver)
	}
}

type watermillScheduler struct {
	publisher message.Publisher
	topic     string
}

// NewScheduler wraps a watermill publisher as the job scheduler. The caller
// owns the publisher's lifecycle through its Transport.
func NewScheduler(publisher message.Publisher, topic string) Scheduler {
	return &watermillScheduler{publisher: publisher, topic: topic}
}

func (s *watermillScheduler) Enqueue(ctx context.Context, job ReviewJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := s.publisher.Publish(s.topic, msg); err != nil {
		return err
	}
	IncScheduled()
	return nil
}

// noCloseSubscriber prevents double-closing a pub/sub that serves both ends.
type noCloseSubscriber struct {
	message.Subscriber
}

func (noCloseSubscriber) Close() error { return nil }

func amqpConfigFromMode(url, mode string) (wmamqp.Config, error) {
	switch strings.ToLower(mode) {
	case "", "durable_queue":
		return wmamqp.NewDurableQueueConfig(url), nil
	case "nondurable_queue":
		return wmamqp.NewNonDurableQueueConfig(url), nil
	default:
		return wmamqp.Config{}, fmt.Errorf("unsupported amqp mode: %s", mode)
	}
}

func sqlAdapters(dialect string) (wmsql.SchemaAdapter, wmsql.OffsetsAdapter, error) {
	switch strings.ToLower(dialect) {
	case "postgres", "postgresql":
		return wmsql.DefaultPostgreSQLSchema{}, wmsql.DefaultPostgreSQLOffsetsAdapter{}, nil
	case "mysql":
		return wmsql.DefaultMySQLSchema{}, wmsql.DefaultMySQLOffsetsAdapter{}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported sql dialect: %s", dialect)
	}
}
