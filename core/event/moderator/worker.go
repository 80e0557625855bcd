package moderator

import (
	"context"
	"sync"
	"time"

	"github.com/goto/salt/log"
)

type Writer interface {
	Write(messages [][]byte) error
	Close() error
}

// Worker collects published messages and writes them in batches every
// batchInterval. Messages of a failed write are kept for the next flush.
type Worker struct {
	mu       sync.Mutex
	messages [][]byte

	messageChan   <-chan []byte
	batchInterval time.Duration
	wg            sync.WaitGroup
	writer        Writer
	logger        log.Logger

	cancel context.CancelFunc
}

func NewWorker(messageChan <-chan []byte, writer Writer, batchInterval time.Duration, logger log.Logger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		messages:      make([][]byte, 0),
		messageChan:   messageChan,
		batchInterval: batchInterval,
		writer:        writer,
		logger:        logger,
		cancel:        cancel,
	}

	w.wg.Add(2)
	go w.collect(ctx)
	go w.Run(ctx)
	return w
}

func (w *Worker) collect(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-w.messageChan:
			w.mu.Lock()
			w.messages = append(w.messages, msg)
			w.mu.Unlock()
		}
	}
}

func (w *Worker) Run(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.batchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Flush()
		}
	}
}

func (w *Worker) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.messages) == 0 {
		return
	}

	if err := w.writer.Write(w.messages); err != nil {
		w.logger.Error("error writing change events", "count", len(w.messages), "err", err)
		return
	}
	w.messages = make([][]byte, 0)
}

// Close stops the worker, drains buffered messages and closes the writer.
func (w *Worker) Close() error {
	w.cancel()
	w.wg.Wait()

	for {
		select {
		case msg := <-w.messageChan:
			w.messages = append(w.messages, msg)
			continue
		default:
		}
		break
	}
	w.Flush()
	return w.writer.Close()
}
