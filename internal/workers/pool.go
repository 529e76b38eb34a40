package workers

import (
	"context"
	"encoding/json"
	"sync"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/hetulpatel/sportsarb/internal/kafka"
	"github.com/hetulpatel/sportsarb/internal/logging"
	"github.com/hetulpatel/sportsarb/internal/models"
)

type Handler func(context.Context, *models.QuoteSnapshot) error

// Run consumes quote snapshots from the topic with workerCount parallel
// readers in one consumer group. It blocks until ctx is cancelled and every
// worker has drained.
func Run(ctx context.Context, brokers []string, topic, group string, workerCount int, handler Handler) {
	if workerCount <= 0 {
		workerCount = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			reader := kafka.NewReader(brokers, topic, group)
			defer reader.Close()
			logging.Debugf("[worker %d] consuming %s", id, topic)
			consume(ctx, id, reader, handler)
			logging.Debugf("[worker %d] stopped", id)
		}(i)
	}

	<-ctx.Done()
	wg.Wait()
}

func consume(ctx context.Context, id int, reader *kafkago.Reader, handler Handler) {
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logging.Errorf("[worker %d] read: %v", id, err)
			continue
		}

		var snapshot models.QuoteSnapshot
		if err := json.Unmarshal(msg.Value, &snapshot); err != nil {
			logging.Errorf("[worker %d] bad snapshot at offset %d: %v", id, msg.Offset, err)
			continue
		}
		if handler == nil {
			continue
		}
		if err := handler(ctx, &snapshot); err != nil {
			logging.Errorf("[worker %d] handle %s/%s: %v", id, snapshot.Provider, snapshot.Game.GameID, err)
		}
	}
}
