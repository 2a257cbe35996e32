package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"lastmile-backend/internal/store"
)

// Sender sends a single web push notification. The indirection exists so
// tests can intercept the outgoing call.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender sends notifications through the webpush library.
type WebPushSender struct{}

func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// pushPayload is the notification body shown to the recipient.
type pushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// WorkerPool delivers snapshot-share notifications in the background so the
// share request never waits on push endpoints.
type WorkerPool struct {
	size    int
	jobs    chan string // snapshot IDs
	store   store.Store
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a pool of the given size.
func NewWorkerPool(size int, st store.Store, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan string, size),
		store:   st,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// SetSender replaces the outgoing sender. Intended for tests.
func (wp *WorkerPool) SetSender(s Sender) {
	wp.sender = s
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	for {
		select {
		case snapshotID := <-wp.jobs:
			wp.notifyRecipient(ctx, snapshotID)
		case <-ctx.Done():
			log.Printf("notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a notification for the given snapshot.
func (wp *WorkerPool) Dispatch(snapshotID string) {
	wp.jobs <- snapshotID
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan string {
	return wp.jobs
}

// notifyRecipient loads the snapshot and pushes it to every subscription the
// recipient has registered.
func (wp *WorkerPool) notifyRecipient(ctx context.Context, snapshotID string) {
	snap, err := wp.store.GetSnapshot(ctx, snapshotID)
	if err != nil {
		log.Printf("notification: failed to load snapshot %s: %v", snapshotID, err)
		return
	}

	subs, err := wp.store.SubscriptionsFor(ctx, snap.ToUser)
	if err != nil {
		log.Printf("notification: failed to load subscriptions for %s: %v", snap.ToUser, err)
		return
	}
	if len(subs) == 0 {
		return
	}

	destination := "a destination"
	if a, err := snap.Analysis(); err == nil && a.Destination != "" {
		destination = a.Destination
	}

	payload, err := json.Marshal(pushPayload{
		Title: "Trip snapshot received",
		Body:  fmt.Sprintf("@%s sent you a trip snapshot: %s", snap.FromUser, destination),
	})
	if err != nil {
		log.Printf("notification: failed to build payload: %v", err)
		return
	}

	log.Printf("notification: sending %d pushes for snapshot %s", len(subs), snap.ID)
	for _, sub := range subs {
		wp.send(ctx, sub.Endpoint, sub.P256DH, sub.Auth, payload)
	}
}

func (wp *WorkerPool) send(ctx context.Context, endpoint, p256dh, auth string, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: endpoint,
		Keys: webpush.Keys{
			P256dh: p256dh,
			Auth:   auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("notification: send to %s failed: %v", endpoint, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		log.Printf("notification: subscription %s is expired, deleting", endpoint)
		if err := wp.store.DeleteSubscription(ctx, endpoint); err != nil {
			log.Printf("notification: failed to delete expired subscription %s: %v", endpoint, err)
		}
	}
}
