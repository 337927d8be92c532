package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

type replayStats struct {
	scanned  int
	replayed int
	skipped  int
}

func (s *replayStats) add(other replayStats) {
	s.scanned += other.scanned
	s.replayed += other.replayed
	s.skipped += other.skipped
}

// replayer проходит партиции DLQ по порядку, пока не исчерпает лимит.
type replayer struct {
	cfg    config
	deps   dependencies
	logger *log.Entry
}

func newReplayer(cfg config, deps dependencies, logger *log.Entry) *replayer {
	return &replayer{cfg: cfg, deps: deps, logger: logger}
}

func (r *replayer) run(ctx context.Context) (replayStats, error) {
	var total replayStats
	if r.deps.client == nil || r.deps.consumer == nil {
		return total, errors.New("kafka client and consumer are required")
	}
	if r.cfg.execute && r.deps.producer == nil {
		return total, errors.New("producer is required in execute mode")
	}

	r.logger.WithFields(log.Fields{
		"source_topic": r.cfg.sourceTopic,
		"target_topic": r.cfg.targetTopic,
		"limit":        r.cfg.limit,
		"execute":      r.cfg.execute,
	}).Info("starting dlq replay")

	partitions, err := r.deps.client.Partitions(r.cfg.sourceTopic)
	if err != nil {
		return total, fmt.Errorf("get partitions for topic %s: %w", r.cfg.sourceTopic, err)
	}
	if len(partitions) == 0 {
		r.logger.WithField("topic", r.cfg.sourceTopic).Warn("source topic has no partitions")
		return total, nil
	}
	sort.Slice(partitions, func(i, j int) bool { return partitions[i] < partitions[j] })

	for _, partition := range partitions {
		remaining := r.cfg.limit - total.scanned
		if remaining <= 0 {
			break
		}
		stats, err := r.drainPartition(ctx, partition, remaining)
		total.add(stats)
		if err != nil {
			return total, err
		}
	}

	r.logger.WithFields(log.Fields{
		"scanned":  total.scanned,
		"replayed": total.replayed,
		"skipped":  total.skipped,
	}).Info("dlq replay finished")
	return total, nil
}

// drainPartition читает партицию от стартового offset до high watermark,
// зафиксированного на момент старта.
func (r *replayer) drainPartition(ctx context.Context, partition int32, limit int) (replayStats, error) {
	var stats replayStats

	oldest, err := r.deps.client.GetOffset(r.cfg.sourceTopic, partition, sarama.OffsetOldest)
	if err != nil {
		return stats, fmt.Errorf("get oldest offset for partition %d: %w", partition, err)
	}
	newest, err := r.deps.client.GetOffset(r.cfg.sourceTopic, partition, sarama.OffsetNewest)
	if err != nil {
		return stats, fmt.Errorf("get newest offset for partition %d: %w", partition, err)
	}
	if newest <= oldest {
		return stats, nil
	}

	start := oldest
	if r.cfg.fromNewest {
		start = max(newest-int64(limit), oldest)
	}

	pc, err := r.deps.consumer.ConsumePartition(r.cfg.sourceTopic, partition, start)
	if err != nil {
		return stats, fmt.Errorf("consume partition %d: %w", partition, err)
	}
	defer func() { _ = pc.Close() }()

	idle := time.NewTimer(r.cfg.idleTimeout)
	defer idle.Stop()

	for stats.scanned < limit {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		case <-idle.C:
			r.logger.WithField("partition", partition).Debug("partition idle, moving on")
			return stats, nil
		case consumerErr := <-pc.Errors():
			if consumerErr != nil {
				return stats, fmt.Errorf("partition %d consumer error: %w", partition, consumerErr)
			}
		case msg, ok := <-pc.Messages():
			if !ok || msg == nil || msg.Offset >= newest {
				return stats, nil
			}
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(r.cfg.idleTimeout)

			stats.scanned++
			replayed, err := r.handle(msg)
			if err != nil {
				return stats, err
			}
			if replayed {
				stats.replayed++
			} else {
				stats.skipped++
			}
		}
	}
	return stats, nil
}

// handle возвращает false, если письмо пропущено.
func (r *replayer) handle(msg *sarama.ConsumerMessage) (bool, error) {
	entry := r.logger.WithFields(log.Fields{
		"partition": msg.Partition,
		"offset":    msg.Offset,
	})

	replay, err := decodeDeadLetter(msg, r.cfg)
	if err != nil {
		entry.WithError(err).Warn("skip dead letter")
		return false, nil
	}

	entry = entry.WithFields(log.Fields{
		"source":       replay.source,
		"target_topic": replay.topic,
		"key":          replay.key,
	})
	if !r.cfg.execute {
		entry.Info("dry-run: dead letter is replayable")
		return true, nil
	}

	if err := publishReplay(r.deps.producer, replay); err != nil {
		return false, fmt.Errorf("publish replay message: %w", err)
	}
	entry.Info("dead letter replayed")
	return true, nil
}

func publishReplay(producer replayProducer, replay replayMessage) error {
	if producer == nil {
		return errors.New("replay producer is not initialized")
	}

	msg := &sarama.ProducerMessage{
		Topic:     replay.topic,
		Value:     sarama.ByteEncoder(replay.value),
		Headers:   replay.headers,
		Timestamp: time.Now().UTC(),
	}
	if replay.key != "" {
		msg.Key = sarama.StringEncoder(replay.key)
	}

	_, _, err := producer.SendMessage(msg)
	return err
}
