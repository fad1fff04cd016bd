package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/rifqimaulido/pickup-app/models"
)

const notificationQueue = "order_notifications"

// AMQPNotifier publishes order notifications to a RabbitMQ queue for the
// downstream delivery service (email/SMS/push) to consume.
type AMQPNotifier struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	mu      sync.Mutex
}

// NotificationMessage is the queue payload.
type NotificationMessage struct {
	OrderNumber string    `json:"order_number"`
	Kind        string    `json:"kind"`
	Status      string    `json:"status"`
	Customer    string    `json:"customer"`
	TotalAmount float64   `json:"total_amount"`
	PickupTime  time.Time `json:"pickup_time"`
	SentAt      time.Time `json:"sent_at"`
}

func NewAMQPNotifier(url string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := channel.QueueDeclare(
		notificationQueue, // name
		true,              // durable
		false,             // delete when unused
		false,             // exclusive
		false,             // no-wait
		nil,               // arguments
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &AMQPNotifier{
		conn:    conn,
		channel: channel,
	}, nil
}

func (n *AMQPNotifier) Notify(order *models.Order, kind string) error {
	msg := NotificationMessage{
		OrderNumber: order.OrderNumber,
		Kind:        kind,
		Status:      order.Status,
		Customer:    order.CustomerLabel(),
		TotalAmount: order.TotalAmount,
		PickupTime:  order.PickupTime,
		SentAt:      time.Now(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n.mu.Lock()
	defer n.mu.Unlock()

	err = n.channel.PublishWithContext(ctx,
		"",                // exchange
		notificationQueue, // routing key
		false,             // mandatory
		false,             // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

func (n *AMQPNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.channel != nil {
		n.channel.Close()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
