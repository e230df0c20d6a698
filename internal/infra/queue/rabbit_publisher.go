package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"ordering/internal/usecase"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "order.events"

	createdQueue       = "order.created.q"
	statusChangedQueue = "order.status_changed.q"
)

// publisherChannel は *amqp.Channel のうち使う部分だけ
type publisherChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Confirm(noWait bool) error
	NotifyPublish(confirm chan amqp.Confirmation) chan amqp.Confirmation
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

var ErrNacked = errors.New("broker nacked publish")

// RabbitPublisher は usecase.EventPublisher の実装。
// confirm モードで1件ずつ ack を待つ。
type RabbitPublisher struct {
	ch       publisherChannel
	confirms chan amqp.Confirmation

	mu  sync.Mutex
	tag uint64 // 最後に送った delivery tag
}

// NewRabbitPublisher は起動時に exchange / queue / binding をまとめて宣言する。
func NewRabbitPublisher(ch publisherChannel) (*RabbitPublisher, error) {
	if err := ch.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	bindings := []struct{ queue, key string }{
		{createdQueue, usecase.RoutingOrderCreated},
		{statusChangedQueue, usecase.RoutingOrderStatusChanged},
	}
	for _, b := range bindings {
		q, err := ch.QueueDeclare(b.queue, true, false, false, false, nil)
		if err != nil {
			return nil, fmt.Errorf("declare queue %s: %w", b.queue, err)
		}
		if err := ch.QueueBind(q.Name, b.key, ExchangeName, false, nil); err != nil {
			return nil, fmt.Errorf("queue bind %s: %w", b.queue, err)
		}
	}

	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("enable confirm mode: %w", err)
	}
	confirms := ch.NotifyPublish(make(chan amqp.Confirmation, 16))

	return &RabbitPublisher{ch: ch, confirms: confirms}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         routingKey,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(ctx, ExchangeName, routingKey, false, false, pub); err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	p.tag++

	return p.waitConfirm(ctx, routingKey, p.tag)
}

// 前回タイムアウトした分の確認が残っていれば読み捨てる
func (p *RabbitPublisher) waitConfirm(ctx context.Context, routingKey string, tag uint64) error {
	for {
		select {
		case c, ok := <-p.confirms:
			if !ok {
				return fmt.Errorf("publish %s: %w", routingKey, amqp.ErrClosed)
			}
			if c.DeliveryTag < tag {
				continue
			}
			if !c.Ack {
				return fmt.Errorf("publish %s: %w", routingKey, ErrNacked)
			}
			return nil
		case <-ctx.Done():
			return fmt.Errorf("publish %s: wait confirm: %w", routingKey, ctx.Err())
		}
	}
}

var _ usecase.EventPublisher = (*RabbitPublisher)(nil)
