package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"nest/backend/config"
	"nest/backend/internal/model"
	"nest/backend/internal/repository"
)

// PushWorker drains the push_queue table on an interval and delivers each
// message to the configured webhook. Delivery uses SKIP LOCKED dequeueing
// so multiple instances can run the worker concurrently.
type PushWorker struct {
	push   repository.PushRepository
	cfg    *config.PushConfig
	client *http.Client
	logger *zap.Logger
	stop   chan struct{}
	done   chan struct{}
}

// NewPushWorker creates the worker. It does nothing until Start.
func NewPushWorker(push repository.PushRepository, cfg *config.PushConfig, logger *zap.Logger) *PushWorker {
	return &PushWorker{
		push:   push,
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start runs the drain loop until Stop is called.
func (w *PushWorker) Start() {
	go func() {
		defer close(w.done)

		ticker := time.NewTicker(w.cfg.Interval)
		defer ticker.Stop()

		w.logger.Info("push worker started",
			zap.Duration("interval", w.cfg.Interval),
			zap.Int("batch_size", w.cfg.BatchSize))

		for {
			select {
			case <-w.stop:
				return
			case <-ticker.C:
				w.drain()
			}
		}
	}()
}

// Stop halts the loop and waits for the in-flight batch to finish.
func (w *PushWorker) Stop() {
	close(w.stop)
	<-w.done
	w.logger.Info("push worker stopped")
}

func (w *PushWorker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	msgs, err := w.push.DequeuePending(ctx, w.cfg.BatchSize)
	if err != nil {
		w.logger.Error("dequeue push batch failed", zap.Error(err))
		return
	}

	for i := range msgs {
		msg := &msgs[i]
		if err := w.deliver(ctx, msg); err != nil {
			w.logger.Warn("push delivery failed",
				zap.String("push_id", msg.PushID),
				zap.Int("attempts", msg.Attempts+1),
				zap.Error(err))
			if err := w.push.MarkFailed(ctx, msg.PushID); err != nil {
				w.logger.Error("mark push failed", zap.Error(err))
			}
			continue
		}
		if err := w.push.MarkSent(ctx, msg.PushID); err != nil {
			w.logger.Error("mark push sent", zap.Error(err))
		}
	}
}

func (w *PushWorker) deliver(ctx context.Context, msg *model.PushMessage) error {
	body, err := json.Marshal(map[string]interface{}{
		"user_id": msg.UserID,
		"title":   msg.Title,
		"body":    msg.Body,
		"payload": msg.Payload,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}
