// Команда dlq-replay перечитывает pricing.dlq и возвращает письма в рабочие topics.
// По умолчанию работает в режиме dry-run и только логирует найденные письма.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/order-pricing/internal/messaging/kafka"
)

const (
	defaultReplayLimit = 100
	defaultIdleTimeout = 2 * time.Second
)

type config struct {
	brokers       []string
	sourceTopic   string
	targetTopic   string
	limit         int
	execute       bool
	fromNewest    bool
	skipMalformed bool
	idleTimeout   time.Duration
}

type offsetClient interface {
	GetOffset(topic string, partition int32, time int64) (int64, error)
	Partitions(topic string) ([]int32, error)
	Close() error
}

type partitionConsumer interface {
	Messages() <-chan *sarama.ConsumerMessage
	Errors() <-chan *sarama.ConsumerError
	Close() error
}

type partitionConsumerSource interface {
	ConsumePartition(topic string, partition int32, offset int64) (partitionConsumer, error)
	Close() error
}

type replayProducer interface {
	SendMessage(msg *sarama.ProducerMessage) (partition int32, offset int64, err error)
	Close() error
}

// dependencies собирает Kafka-клиентов, которые нужны одному запуску.
type dependencies struct {
	client   offsetClient
	consumer partitionConsumerSource
	producer replayProducer
}

func (d dependencies) close() {
	if d.producer != nil {
		_ = d.producer.Close()
	}
	if d.consumer != nil {
		_ = d.consumer.Close()
	}
	if d.client != nil {
		_ = d.client.Close()
	}
}

type saramaConsumer struct {
	consumer sarama.Consumer
}

func (c saramaConsumer) ConsumePartition(topic string, partition int32, offset int64) (partitionConsumer, error) {
	return c.consumer.ConsumePartition(topic, partition, offset)
}

func (c saramaConsumer) Close() error {
	return c.consumer.Close()
}

var openDependencies = func(cfg config) (dependencies, error) {
	consumerConfig := sarama.NewConfig()
	consumerConfig.Consumer.Return.Errors = true

	client, err := sarama.NewClient(cfg.brokers, consumerConfig)
	if err != nil {
		return dependencies{}, fmt.Errorf("create kafka client: %w", err)
	}

	consumer, err := sarama.NewConsumerFromClient(client)
	if err != nil {
		_ = client.Close()
		return dependencies{}, fmt.Errorf("create kafka consumer: %w", err)
	}
	deps := dependencies{client: client, consumer: saramaConsumer{consumer: consumer}}
	if !cfg.execute {
		return deps, nil
	}

	// Тот же профиль надёжности, что и у продюсера сервиса.
	producer, err := sarama.NewSyncProducer(cfg.brokers, kafka.NewProducerConfig())
	if err != nil {
		deps.close()
		return dependencies{}, fmt.Errorf("create kafka producer: %w", err)
	}
	deps.producer = producer
	return deps, nil
}

var errBrokersRequired = errors.New("kafka brokers are required (-brokers or KAFKA_BROKERS)")

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)

	cfg, err := readConfig(flag.CommandLine, os.Args[1:], os.LookupEnv)
	if err != nil {
		fail("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		fail("dlq replay failed: %v", err)
	}
}

func readConfig(fs *flag.FlagSet, args []string, lookup func(string) (string, bool)) (config, error) {
	var (
		brokersRaw string
		cfg        config
	)

	fs.StringVar(&brokersRaw, "brokers", "", "Kafka brokers as comma-separated list (fallback: KAFKA_BROKERS)")
	fs.StringVar(&cfg.sourceTopic, "source-topic", kafka.TopicDeadLetterQueue, "DLQ source topic")
	fs.StringVar(&cfg.targetTopic, "target-topic", "", "override target topic; empty routes by original topic or aggregate type")
	fs.IntVar(&cfg.limit, "limit", defaultReplayLimit, "max number of dead letters to scan")
	fs.BoolVar(&cfg.execute, "execute", false, "publish replayed messages; default is dry-run")
	fs.BoolVar(&cfg.fromNewest, "from-newest", false, "scan the latest letters of each partition (bounded by limit)")
	fs.BoolVar(&cfg.skipMalformed, "skip-malformed", true, "skip consumer letters rejected as malformed events")
	fs.DurationVar(&cfg.idleTimeout, "idle-timeout", defaultIdleTimeout, "idle timeout per partition")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	if strings.TrimSpace(brokersRaw) == "" {
		if raw, ok := lookup("KAFKA_BROKERS"); ok {
			brokersRaw = raw
		}
	}

	cfg.brokers = parseBrokers(brokersRaw)
	cfg.sourceTopic = strings.TrimSpace(cfg.sourceTopic)
	cfg.targetTopic = strings.TrimSpace(cfg.targetTopic)

	switch {
	case len(cfg.brokers) == 0:
		return config{}, errBrokersRequired
	case cfg.sourceTopic == "":
		return config{}, errors.New("source-topic is required")
	case cfg.limit <= 0:
		return config{}, errors.New("limit must be > 0")
	case cfg.idleTimeout <= 0:
		return config{}, errors.New("idle-timeout must be > 0")
	}
	return cfg, nil
}

func parseBrokers(raw string) []string {
	brokers := make([]string, 0)
	for _, chunk := range strings.Split(raw, ",") {
		if broker := strings.TrimSpace(chunk); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}

func run(ctx context.Context, cfg config, out io.Writer) error {
	deps, err := openDependencies(cfg)
	if err != nil {
		return err
	}
	defer deps.close()

	r := newReplayer(cfg, deps, log.WithField("component", "dlq-replay"))
	stats, err := r.run(ctx)
	if err != nil {
		return err
	}

	mode := "dry-run"
	if cfg.execute {
		mode = "execute"
	}
	_, err = fmt.Fprintf(out, "%s: scanned=%d replayed=%d skipped=%d\n", mode, stats.scanned, stats.replayed, stats.skipped)
	return err
}

func fail(format string, args ...any) {
	log.Errorf(format, args...)
	os.Exit(1)
}
