package outbox

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType (one event type per topic).
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// Reservation lifecycle topics emitted by this service.
const (
	TopicReservationBooked        = "reservations.reservation.booked.v1"
	TopicReservationRescheduled   = "reservations.reservation.rescheduled.v1"
	TopicReservationStatusChanged = "reservations.reservation.status_changed.v1"
)
