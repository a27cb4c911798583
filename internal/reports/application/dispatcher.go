package application

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// Dispatcher queues report jobs and runs them on a small worker pool after
// a fixed delay. The delay gives the submitting transaction time to become
// visible to workers; there is no cancellation once a job is queued.
type Dispatcher struct {
	orchestrator *Orchestrator
	delay        time.Duration
	logger       *log.Logger

	queue chan string
	wg    sync.WaitGroup

	mu      sync.Mutex
	started bool
	closed  bool
}

// NewDispatcher constructs a dispatcher.
func NewDispatcher(orchestrator *Orchestrator, workers, queueSize int, delay time.Duration, logger *log.Logger) (*Dispatcher, error) {
	if orchestrator == nil {
		return nil, errors.New("report dispatcher: nil orchestrator")
	}
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	if delay < 0 {
		delay = 0
	}
	if logger == nil {
		logger = log.Default()
	}
	d := &Dispatcher{
		orchestrator: orchestrator,
		delay:        delay,
		logger:       logger,
		queue:        make(chan string, queueSize),
	}
	d.startWorkers(workers)
	return d, nil
}

func (d *Dispatcher) startWorkers(workers int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for reportID := range d.queue {
		if err := d.orchestrator.Run(context.Background(), reportID); err != nil {
			d.logger.Printf("report dispatcher: job %s: %v", reportID, err)
		}
	}
}

// Dispatch schedules a report job to run after the configured delay.
func (d *Dispatcher) Dispatch(reportID string) error {
	if d == nil {
		return errors.New("report dispatcher: nil dispatcher")
	}
	if reportID == "" {
		return errors.New("report dispatcher: empty report id")
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return errors.New("report dispatcher: closed")
	}
	d.mu.Unlock()

	if d.delay == 0 {
		return d.enqueue(reportID)
	}
	time.AfterFunc(d.delay, func() {
		if err := d.enqueue(reportID); err != nil {
			d.logger.Printf("report dispatcher: enqueue %s: %v", reportID, err)
		}
	})
	return nil
}

func (d *Dispatcher) enqueue(reportID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errors.New("report dispatcher: closed")
	}
	select {
	case d.queue <- reportID:
		return nil
	default:
		return errors.New("report dispatcher: queue full")
	}
}

// Close stops accepting jobs and waits for in-flight ones. Delayed jobs
// whose timer has not fired yet are dropped.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	d.wg.Wait()
}
