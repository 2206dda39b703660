package snapshot

import (
	"context"
	"time"

	"balance-sync/internal/worker/model"
	"balance-sync/internal/worker/writer"

	"github.com/bytedance/sonic"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaSnapshotWriter 投递快照事件，按地址分区保证单账户有序
type KafkaSnapshotWriter struct {
	mq    messageWriter
	tl    *zap.Logger
	topic string
}

func NewKafkaSnapshotWriter(mq messageWriter, tl *zap.Logger, topic string) writer.BatchWriter[model.SnapshotEvent] {
	return &KafkaSnapshotWriter{mq: mq, tl: tl, topic: topic}
}

func (w *KafkaSnapshotWriter) BWrite(ctx context.Context, events []model.SnapshotEvent) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		msg, err := w.marshalToMsg(event)
		if err != nil {
			w.tl.Warn("marshal snapshot event failed", zap.Int64("account_id", event.AccountID), zap.Error(err))
			continue
		}
		msgs = append(msgs, msg)
	}

	newCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// 重试机制
	var err error
	for attempt := 0; attempt < writer.RETRY_COUNT; attempt++ {
		err = w.mq.WriteMessages(newCtx, msgs...)
		if err == nil {
			break
		}
	}
	if err != nil {
		w.tl.Warn("❌ MQ write failed, exceeded the maximum number of retries", zap.Error(err))
		return err
	}
	return nil
}

func (w *KafkaSnapshotWriter) Close() error {
	return nil
}

func (w *KafkaSnapshotWriter) marshalToMsg(event model.SnapshotEvent) (kafka.Message, error) {
	jsonData, err := sonic.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Topic: w.topic,
		Key:   []byte(event.Address),
		Value: jsonData,
	}, nil
}
