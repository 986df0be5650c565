package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"machine-maintenance-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers notifying subscribers when a machine
// changes operational state.
type WorkerPool struct {
	size    int
	jobs    chan uint
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan uint, size),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("notification worker %d started", id)
	for {
		select {
		case machineID := <-wp.jobs:
			wp.sendNotificationsForMachine(ctx, machineID)
		case <-ctx.Done():
			log.Printf("notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a state-change notification job for a machine. Implements
// service.Notifier.
func (wp *WorkerPool) Dispatch(machineID uint) {
	wp.jobs <- machineID
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan uint {
	return wp.jobs
}

// sendNotificationsForMachine fetches subscriptions and sends notifications for a given machine.
func (wp *WorkerPool) sendNotificationsForMachine(ctx context.Context, machineID uint) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_machine_mapping smm ON smm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("smm.machine_id = ?", machineID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("Error fetching subscriptions for machine %d: %v", machineID, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	var machine model.Machine
	label := fmt.Sprintf("#%d", machineID)
	estado := ""
	if err := wp.db.WithContext(ctx).
		Select("nombre", "estado").
		First(&machine, machineID).Error; err != nil {
		log.Printf("Error fetching machine %d: %v", machineID, err)
	} else {
		if machine.Nombre != "" {
			label = machine.Nombre
		}
		estado = string(machine.Estado)
	}

	log.Printf("Sending %d notifications for machine %d", len(subscriptions), machineID)

	message := fmt.Sprintf("La máquina %s cambió de estado: %s", label, estado)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
