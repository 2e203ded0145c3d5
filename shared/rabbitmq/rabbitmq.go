// shared/rabbitmq/rabbitmq.go
package rabbitmq

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	// ErrBrokerUnavailable means every connection attempt failed. The owning
	// process should treat this as fatal when messaging is required for
	// correctness.
	ErrBrokerUnavailable = errors.New("broker unavailable after all connection attempts")

	// ErrBrokerDisconnected means the channel was lost mid-life. Reconnection
	// is the owner's responsibility via a fresh Connect.
	ErrBrokerDisconnected = errors.New("broker connection lost")
)

const (
	DefaultMaxAttempts = 10
	DefaultRetryDelay  = 5 * time.Second
)

type dialFunc func(url string) (*amqp.Connection, error)

// Client owns one connection and one channel to the broker. Publishes are
// serialized through the client mutex; the channel is not safe for
// concurrent publishing on its own.
type Client struct {
	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	closed chan error
}

// Connect dials the broker, retrying up to maxAttempts with a fixed delay
// between attempts. Exhausting the attempts returns ErrBrokerUnavailable.
func Connect(url string, maxAttempts int, retryDelay time.Duration) (*Client, error) {
	return connect(amqp.Dial, url, maxAttempts, retryDelay)
}

func connect(dial dialFunc, url string, maxAttempts int, retryDelay time.Duration) (*Client, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		conn, err := dial(url)
		if err == nil {
			ch, chErr := conn.Channel()
			if chErr == nil {
				c := &Client{conn: conn, ch: ch, closed: make(chan error, 1)}
				go c.watchClose()
				log.Printf("connected to broker at %s", url)
				return c, nil
			}
			conn.Close()
			err = chErr
		}
		log.Printf("broker connection attempt %d/%d failed: %v", attempt, maxAttempts, err)
		if attempt < maxAttempts {
			time.Sleep(retryDelay)
		}
	}
	return nil, ErrBrokerUnavailable
}

// watchClose surfaces a mid-life connection loss on the Closed channel.
func (c *Client) watchClose() {
	errCh := c.conn.NotifyClose(make(chan *amqp.Error, 1))
	if amqpErr := <-errCh; amqpErr != nil {
		select {
		case c.closed <- ErrBrokerDisconnected:
		default:
		}
	}
}

// Closed reports a lost connection. The client does not reconnect on its
// own; owners listen here and decide whether to Connect again or exit.
func (c *Client) Closed() <-chan error {
	return c.closed
}

func (c *Client) DeclareQueue(name string, durable bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.ch.QueueDeclare(name, durable, false, false, false, nil)
	return err
}

// Publish sends one message to the queue. Fire-and-forget: the persistent
// flag requests broker-side durability but delivery to consumers is not
// awaited.
func (c *Client) Publish(ctx context.Context, queue string, body []byte, persistent bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	mode := amqp.Transient
	if persistent {
		mode = amqp.Persistent
	}
	err := c.ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: mode,
		Body:         body,
	})
	if err != nil {
		if c.conn.IsClosed() {
			return ErrBrokerDisconnected
		}
		return err
	}
	return nil
}

// Subscribe delivers each message on the queue to handler in a dedicated
// goroutine. With manualAck the handler must Ack or Nack after it has
// durably applied the message; the client never acknowledges on its behalf,
// which is what gives consumers at-least-once delivery.
func (c *Client) Subscribe(queue string, handler func(amqp.Delivery), manualAck bool) error {
	c.mu.Lock()
	deliveries, err := c.ch.Consume(queue, "", !manualAck, false, false, false, nil)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	go func() {
		for d := range deliveries {
			handler(d)
		}
		select {
		case c.closed <- ErrBrokerDisconnected:
		default:
		}
	}()
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ch.Close(); err != nil {
		return err
	}
	return c.conn.Close()
}
