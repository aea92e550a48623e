package changelog

import (
	"encoding/json"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
)

const QueueName = "changelog-queue"

// QueueLogger hands records to the changelog consumer through redis
type QueueLogger struct {
	Queue rmq.Queue
}

func (q *QueueLogger) Log(record Record) error {
	recordBytes, err := json.Marshal(record)
	if err != nil {
		return err
	}

	return q.Queue.PublishBytes(recordBytes)
}

type BatchConsumer struct {
	Writer *Writer
}

func NewBatchConsumer(writer *Writer) *BatchConsumer {
	return &BatchConsumer{Writer: writer}
}

func (c *BatchConsumer) Consume(batch rmq.Deliveries) {
	for _, delivery := range batch {
		var record Record
		if err := json.Unmarshal([]byte(delivery.Payload()), &record); err != nil {
			log.Error().Err(err).Msg("Failed to decode changelog record")
			if err := delivery.Reject(); err != nil {
				log.Error().Err(err).Msg("Failed to reject changelog record")
			}
			continue
		}

		if err := c.Writer.Append(record); err != nil {
			log.Error().Err(err).Msg("Failed to write changelog record")
			if err := delivery.Push(); err != nil {
				log.Error().Err(err).Msg("Failed to push back changelog record")
			}
			continue
		}

		if err := delivery.Ack(); err != nil {
			log.Error().Err(err).Msg("Failed to ack changelog record")
		}
	}
}
