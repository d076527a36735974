package queue

import (
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// StartConsumer connects to RabbitMQ, declares the registration.approved
// and seat.released queues (durable), and consumes both, appending one
// human-readable line per message to logs/registration.log. It runs a
// reconnect loop with exponential backoff and never returns under
// normal operation; processing errors are logged and the offending
// message rejected without requeue so the loop cannot spin.
func StartConsumer(url string) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Printf("queue-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            time.Sleep(backoff)
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        if err := consumeLoop(conn); err != nil {
            log.Printf("queue-consumer: consume loop ended: %v; reconnecting", err)
            _ = conn.Close()
            time.Sleep(2 * time.Second)
            continue
        }
    }
}

func consumeLoop(conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Printf("queue-consumer: set QoS failed: %v", err)
    }

    for _, name := range []string{RegistrationApprovedQueue, SeatReleasedQueue} {
        if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
            return fmt.Errorf("queue declare %s: %w", name, err)
        }
    }

    approved, err := ch.Consume(RegistrationApprovedQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("consume %s: %w", RegistrationApprovedQueue, err)
    }
    released, err := ch.Consume(SeatReleasedQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("consume %s: %w", SeatReleasedQueue, err)
    }

    for {
        select {
        case d, ok := <-approved:
            if !ok {
                return errors.New("approved deliveries channel closed")
            }
            handleDelivery(d, handleApproved)
        case d, ok := <-released:
            if !ok {
                return errors.New("released deliveries channel closed")
            }
            handleDelivery(d, handleReleased)
        }
    }
}

func handleDelivery(d amqp.Delivery, handle func([]byte) error) {
    if err := handle(d.Body); err != nil {
        log.Printf("queue-consumer: handle message failed: %v", err)
        _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
        return
    }
    _ = d.Ack(false)
}

func handleApproved(body []byte) error {
    var ev RegistrationApprovedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    line := fmt.Sprintf("[%s] Registration approved | registration_id=%d | student_id=%d | course=%s \"%s\" | seats_left=%d\n",
        ev.ApprovedAt, ev.RegistrationID, ev.StudentID, ev.CourseCode, ev.CourseTitle, ev.SeatsLeft)
    return appendLog(line)
}

func handleReleased(body []byte) error {
    var ev SeatReleasedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    subs := "[]"
    if len(ev.Subscribers) > 0 {
        subs = fmt.Sprintf("[%s]", strings.Join(ev.Subscribers, ","))
    }
    line := fmt.Sprintf("[%s] Seat released | course=%s \"%s\" | seats_left=%d | subscribers=%s\n",
        ev.ReleasedAt, ev.CourseCode, ev.CourseTitle, ev.SeatsLeft, subs)
    return appendLog(line)
}

func appendLog(line string) error {
    if err := os.MkdirAll("logs", 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    fpath := filepath.Join("logs", "registration.log")
    f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}
