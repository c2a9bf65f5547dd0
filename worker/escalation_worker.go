package worker

import (
	"civicpulse/service"
	"log"
	"time"
)

// EscalationProcessor is the evaluation entry point the worker drives.
// Satisfied by *service.EscalationService.
type EscalationProcessor interface {
	ProcessEscalations() ([]service.EscalationOutcome, error)
}

// EscalationWorker is the scheduling driver of the escalation engine:
// a single-threaded cooperative poll over open complaints. The
// per-complaint evaluation itself lives in the service; the worker only
// owns the cadence.
type EscalationWorker struct {
	processor EscalationProcessor
	interval  time.Duration
	stopChan  chan struct{}
	running   bool
}

// NewEscalationWorker creates a new escalation worker
func NewEscalationWorker(processor EscalationProcessor, interval time.Duration) *EscalationWorker {
	return &EscalationWorker{
		processor: processor,
		interval:  interval,
		stopChan:  make(chan struct{}),
		running:   false,
	}
}

// Start starts the escalation worker in its own goroutine.
func (w *EscalationWorker) Start() {
	if w.running {
		log.Println("Escalation worker is already running")
		return
	}
	w.running = true
	log.Printf("Escalation worker started (interval: %v)", w.interval)
	go w.run()
}

// Stop stops the escalation worker
func (w *EscalationWorker) Stop() {
	if !w.running {
		return
	}
	log.Println("Stopping escalation worker...")
	close(w.stopChan)
	w.running = false
	log.Println("Escalation worker stopped")
}

// run is the main worker loop
func (w *EscalationWorker) run() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Process immediately on start
	w.processOnce()

	for {
		select {
		case <-ticker.C:
			w.processOnce()
		case <-w.stopChan:
			return
		}
	}
}

// processOnce runs one evaluation pass. Safe to call repeatedly: a
// complaint that is not due reports a no-op and nothing is written.
func (w *EscalationWorker) processOnce() {
	startTime := time.Now()
	log.Println("Starting escalation processing...")

	outcomes, err := w.processor.ProcessEscalations()
	if err != nil {
		log.Printf("Error processing escalations: %v", err)
		return
	}

	escalated := 0
	closed := 0
	for _, outcome := range outcomes {
		if outcome.Closed {
			closed++
			log.Printf("Complaint #%d closed after exhausting its chain at level %d", outcome.ComplaintID, outcome.FinalLevel)
			continue
		}
		if outcome.Escalated {
			escalated++
			log.Printf("Escalated complaint #%d to level %d (%d transition(s))", outcome.ComplaintID, outcome.FinalLevel, outcome.Transitions)
		}
	}

	log.Printf("Escalation processing completed in %v: %d escalated, %d closed",
		time.Since(startTime), escalated, closed)
}
