package service

import (
    "context"
    "encoding/json"
    "log"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/course-registration/internal/queue"
)

// Publisher sends domain events to RabbitMQ. Each publish dials a
// fresh connection; registrations are low-frequency enough that the
// simplicity wins over connection pooling. Errors are logged and
// returned so callers can ignore them without interrupting the main
// request flow.
type Publisher struct {
    URL string // AMQP broker URL
}

// NewPublisher returns a Publisher for the given broker URL.
func NewPublisher(url string) *Publisher { return &Publisher{URL: url} }

// PublishRegistrationApproved publishes to the registration.approved queue.
func (p *Publisher) PublishRegistrationApproved(ctx context.Context, ev queue.RegistrationApprovedEvent) error {
    return p.publish(ctx, queue.RegistrationApprovedQueue, ev)
}

// PublishSeatReleased publishes to the seat.released queue.
func (p *Publisher) PublishSeatReleased(ctx context.Context, ev queue.SeatReleasedEvent) error {
    return p.publish(ctx, queue.SeatReleasedQueue, ev)
}

// publish marshals the event and delivers it to the named durable
// queue via the default exchange. Messages are marked persistent so
// they survive broker restarts.
func (p *Publisher) publish(ctx context.Context, queueName string, event interface{}) error {
    conn, err := amqp.Dial(p.URL)
    if err != nil {
        log.Printf("rabbitmq: dial failed: %v", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Printf("rabbitmq: channel open failed: %v", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    // Idempotent declare so publisher and consumer can start in any order.
    if _, err := ch.QueueDeclare(
        queueName,
        true,  // durable
        false, // autoDelete
        false, // exclusive
        false, // noWait
        nil,   // args
    ); err != nil {
        log.Printf("rabbitmq: queue declare failed: %v", err)
        return err
    }

    body, err := json.Marshal(event)
    if err != nil {
        log.Printf("rabbitmq: marshal event failed: %v", err)
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx,
        "",        // default exchange
        queueName, // routing key = queue name
        false,     // mandatory
        false,     // immediate
        pub,
    ); err != nil {
        log.Printf("rabbitmq: publish failed: %v", err)
        return err
    }
    return nil
}
