package worker

import (
	"context"
	"log"
	"time"
)

// NotificationProcessor drains queued notifications. Satisfied by
// *service.NotificationService.
type NotificationProcessor interface {
	ProcessPending(ctx context.Context, limit int) (sent, failed int, err error)
}

// notificationBatchSize caps how many notifications one pass delivers.
const notificationBatchSize = 50

// NotificationWorker is a background worker that delivers queued
// escalation notifications.
type NotificationWorker struct {
	processor NotificationProcessor
	interval  time.Duration
	stopChan  chan struct{}
	running   bool
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(processor NotificationProcessor, interval time.Duration) *NotificationWorker {
	return &NotificationWorker{
		processor: processor,
		interval:  interval,
		stopChan:  make(chan struct{}),
		running:   false,
	}
}

// Start starts the notification worker in its own goroutine.
func (w *NotificationWorker) Start() {
	if w.running {
		log.Println("Notification worker is already running")
		return
	}
	w.running = true
	log.Printf("Notification worker started (interval: %v)", w.interval)
	go w.run()
}

// Stop stops the notification worker
func (w *NotificationWorker) Stop() {
	if !w.running {
		return
	}
	log.Println("Stopping notification worker...")
	close(w.stopChan)
	w.running = false
	log.Println("Notification worker stopped")
}

// run is the main worker loop
func (w *NotificationWorker) run() {
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

// processOnce delivers one batch of pending notifications.
func (w *NotificationWorker) processOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sent, failed, err := w.processor.ProcessPending(ctx, notificationBatchSize)
	if err != nil {
		log.Printf("Error processing notifications: %v", err)
		return
	}
	if sent > 0 || failed > 0 {
		log.Printf("Notification processing: %d sent, %d failed", sent, failed)
	}
}
