package outbox

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType (one event type per topic).
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// Delivery outcome topics emitted by this service.
const (
	TopicNotificationSent   = "notifications.notification.sent.v1"
	TopicNotificationFailed = "notifications.notification.failed.v1"
)
