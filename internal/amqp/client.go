package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"

	"fincalc/internal/log"
)

// Circuit breaker states
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second

	// directReplyTo is RabbitMQ's pseudo queue for RPC replies.
	directReplyTo = "amq.rabbitmq.reply-to"
)

var (
	ErrCircuitOpen    = errors.New("circuit breaker is open")
	ErrNotConnected   = errors.New("not connected")
	ErrDeliveryClosed = errors.New("message channel closed")
)

// Handler answers the body of one request message.
type Handler func(ctx context.Context, body []byte) (ReplyType, []byte)

type Client struct {
	url          string
	exchangeName string
	queueName    string
	prefetch     int
	logger       *log.Logger

	connMu  sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	state        int32
	failureCount int64
	mu           sync.Mutex
	lastFailure  time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithPrefetch sets how many deliveries are processed at once.
func WithPrefetch(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.prefetch = n
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient dials the broker and declares the exchange and queue.
func NewClient(url, exchangeName, queueName string, opts ...Option) (*Client, error) {
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		prefetch:     1,
		logger:       log.Discard(),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = client.logger.WithComponent(log.ComponentAMQP)

	if err := client.connect(); err != nil {
		return nil, err
	}
	return client, nil
}

func (c *Client) connect() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := setup(channel, c.exchangeName, c.queueName, c.prefetch); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}

	c.connMu.Lock()
	c.conn, c.channel = conn, channel
	c.connMu.Unlock()
	return nil
}

func setup(channel *amqp091.Channel, exchangeName, queueName string, prefetch int) error {
	// Declare exchange
	err := channel.ExchangeDeclare(
		exchangeName, // name
		"direct",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	// Declare queue
	_, err = channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Bind queue to exchange
	err = channel.QueueBind(
		queueName,    // queue name
		queueName,    // routing key (same as queue name for direct exchange)
		exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	if err := channel.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	return nil
}

func (c *Client) current() (*amqp091.Connection, *amqp091.Channel) {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.conn, c.channel
}

// Serve consumes request messages until ctx is done or the delivery channel
// closes. Up to prefetch deliveries are handled concurrently; each reply is
// published to the request's reply_to with its correlation ID.
func (c *Client) Serve(ctx context.Context, handler Handler) error {
	_, channel := c.current()
	if channel == nil {
		return ErrNotConnected
	}

	msgs, err := channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.logger.InfoContext(ctx, "Started consuming calculation requests",
		"queue", c.queueName,
		"prefetch", c.prefetch)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.prefetch)

	for {
		select {
		case <-gctx.Done():
			c.logger.InfoContext(ctx, "Stopping message consumption", "reason", context.Cause(gctx))
			if err := g.Wait(); err != nil {
				return err
			}
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				if err := g.Wait(); err != nil {
					return err
				}
				return ErrDeliveryClosed
			}
			g.Go(func() error {
				return c.reply(gctx, channel, delivery, handler)
			})
		}
	}
}

func (c *Client) reply(ctx context.Context, channel *amqp091.Channel, delivery amqp091.Delivery, handler Handler) error {
	logger := c.logger.With(log.FieldCorrelationID, delivery.CorrelationId)

	if delivery.ReplyTo == "" {
		logger.WarnContext(ctx, "Dropping request without reply_to",
			"message_id", delivery.MessageId)
		delivery.Ack(false)
		return nil
	}

	start := time.Now()
	replyType, body := handler(ctx, delivery.Body)

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := channel.PublishWithContext(
		pubCtx,
		"",               // default exchange
		delivery.ReplyTo, // routing key
		false,            // mandatory
		false,            // immediate
		amqp091.Publishing{
			ContentType:   "application/json",
			CorrelationId: delivery.CorrelationId,
			Type:          string(replyType),
			Timestamp:     time.Now(),
			Body:          body,
		},
	)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to publish reply",
			log.FieldError, err.Error(),
			log.FieldOperation, log.OpPublish)
		delivery.Nack(false, true) // reject and requeue
		if isConnectionError(err) {
			return fmt.Errorf("publish reply: %w", err)
		}
		return nil
	}

	delivery.Ack(false) // acknowledge successful processing
	logger.InfoContext(ctx, "Processed calculation request",
		"reply_type", string(replyType),
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// ServeWithReconnect runs Serve and reconnects with exponential backoff when
// the connection drops.
func (c *Client) ServeWithReconnect(ctx context.Context, handler Handler) error {
	attempt := 0
	for {
		err := c.Serve(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !isConnectionError(err) && !errors.Is(err, ErrDeliveryClosed) && !errors.Is(err, ErrNotConnected) {
			return err
		}

		c.logger.WarnContext(ctx, "AMQP connection lost, reconnecting",
			log.FieldError, err.Error(),
			"attempt", attempt+1)
		c.closeConn()

		for {
			delay := exponentialBackoff(attempt)
			attempt++
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			if err := c.connect(); err != nil {
				c.logger.WarnContext(ctx, "Reconnect failed",
					log.FieldError, err.Error(),
					"attempt", attempt,
					"next_delay", exponentialBackoff(attempt).String())
				continue
			}
			c.logger.InfoContext(ctx, "Reconnected to AMQP broker", "attempts", attempt)
			attempt = 0
			break
		}
	}
}

// Call publishes a calculation request and waits for its reply on the
// direct reply-to queue. Each call uses its own channel.
func (c *Client) Call(ctx context.Context, op Operation, payload any) (ReplyType, []byte, error) {
	if c.isCircuitOpen() {
		return "", nil, fmt.Errorf("call %s: %w", op, ErrCircuitOpen)
	}
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	msg, err := NewCalculationRequest(op, payload)
	if err != nil {
		return "", nil, err
	}
	body, err := msg.ToJSON()
	if err != nil {
		return "", nil, fmt.Errorf("marshal message: %w", err)
	}

	conn, _ := c.current()
	if conn == nil {
		return "", nil, ErrNotConnected
	}
	channel, err := conn.Channel()
	if err != nil {
		c.recordFailure()
		return "", nil, fmt.Errorf("open channel: %w", err)
	}
	defer channel.Close()

	replies, err := channel.Consume(directReplyTo, "", true, false, false, false, nil)
	if err != nil {
		c.recordFailure()
		return "", nil, fmt.Errorf("consume replies: %w", err)
	}

	correlationID := uuid.NewString()
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = channel.PublishWithContext(
		pubCtx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:   "application/json",
			CorrelationId: correlationID,
			ReplyTo:       directReplyTo,
			Timestamp:     msg.Timestamp,
			Body:          body,
		},
	)
	if err != nil {
		c.recordFailure()
		return "", nil, fmt.Errorf("publish message: %w", err)
	}

	c.logger.DebugContext(ctx, "Published calculation request",
		log.FieldOperation, string(op),
		log.FieldCorrelationID, correlationID,
		"exchange", c.exchangeName,
		"queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			return "", nil, ctx.Err()
		case d, ok := <-replies:
			if !ok {
				c.recordFailure()
				return "", nil, ErrDeliveryClosed
			}
			if d.CorrelationId != correlationID {
				continue
			}
			c.recordSuccess()
			return ReplyType(d.Type), d.Body, nil
		}
	}
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.mu.Lock()
	last := c.lastFailure
	c.mu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()
	if atomic.AddInt64(&c.failureCount, 1) >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

func (c *Client) closeConn() {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// exponentialBackoff returns 1s doubled per attempt, capped at 30s.
func exponentialBackoff(attempt int) time.Duration {
	const maxDelay = 30 * time.Second
	if attempt > 5 {
		return maxDelay
	}
	delay := time.Second << attempt
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "closed"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
