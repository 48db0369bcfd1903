package worker

import (
	"context"
	"sync"

	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/obranet/valuation-notifier/internal/rabbitmq/queue"
)

type statusQueue interface {
	Consume(out chan<- queue.StatusMessage, strategy retry.Strategy) error
}

type statusHandler interface {
	HandleMessage(ctx context.Context, msg queue.StatusMessage)
}

// Reconciler fans webhook status events out to a pool of handler
// goroutines.
type Reconciler struct {
	queue   statusQueue
	handler statusHandler
}

func NewReconciler(q statusQueue, h statusHandler) *Reconciler {
	return &Reconciler{
		queue:   q,
		handler: h,
	}
}

// Run consumes status events until the context is cancelled.
func (r *Reconciler) Run(ctx context.Context, strategy retry.Strategy, workerCount int) {
	var wg sync.WaitGroup
	msgChan := make(chan queue.StatusMessage, workerCount*10)

	go func() {
		if err := r.queue.Consume(msgChan, strategy); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to consume status events")
		}
	}()

	wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go func(id int) {
			defer wg.Done()

			zlog.Logger.Printf("reconciler-%d started", id)

			for {
				select {
				case <-ctx.Done():
					zlog.Logger.Printf("reconciler-%d shutting down", id)
					return
				case msg, ok := <-msgChan:
					if !ok {
						zlog.Logger.Printf("reconciler-%d channel closed, shutting down", id)
						return
					}

					r.handler.HandleMessage(ctx, msg)
				}
			}
		}(i)
	}

	<-ctx.Done()
	wg.Wait()
	zlog.Logger.Print("reconciler stopped")
}
