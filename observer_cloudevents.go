package datahub

import (
	"context"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// observerRegistration pairs an Observer with the event types it filters
// on; an empty eventTypes set means "all events".
type observerRegistration struct {
	observer   Observer
	eventTypes map[string]bool
}

// CloudEventsSubject is a Subject that fans each ObserverEvent out to its
// registered observers unchanged; converting an event to CloudEvent form is
// left to observers such as CloudEventLogger. The hub owns exactly one of
// these.
type CloudEventsSubject struct {
	source string

	mu        sync.RWMutex
	observers map[string]*observerRegistration
}

// NewCloudEventsSubject constructs a subject recording source (e.g.
// "confidential-data-hub"); NotifyObservers does not write it into the
// events it delivers.
func NewCloudEventsSubject(source string) *CloudEventsSubject {
	return &CloudEventsSubject{
		source:    source,
		observers: make(map[string]*observerRegistration),
	}
}

func (s *CloudEventsSubject) RegisterObserver(observer Observer, eventTypes ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	filter := make(map[string]bool, len(eventTypes))
	for _, t := range eventTypes {
		filter[t] = true
	}
	s.observers[observer.ObserverID()] = &observerRegistration{observer: observer, eventTypes: filter}
	return nil
}

func (s *CloudEventsSubject) UnregisterObserver(observer Observer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.observers, observer.ObserverID())
	return nil
}

func (s *CloudEventsSubject) GetObservers() []ObserverInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]ObserverInfo, 0, len(s.observers))
	for id, reg := range s.observers {
		types := make([]string, 0, len(reg.eventTypes))
		for t := range reg.eventTypes {
			types = append(types, t)
		}
		infos = append(infos, ObserverInfo{ID: id, EventTypes: types})
	}
	return infos
}

// NotifyObservers delivers event to every registered observer whose filter
// matches (or has no filter). An observer error doesn't stop delivery to
// the remaining observers; the first one is returned.
func (s *CloudEventsSubject) NotifyObservers(ctx context.Context, event ObserverEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = timeNow()
	}

	s.mu.RLock()
	regs := make([]*observerRegistration, 0, len(s.observers))
	for _, reg := range s.observers {
		if len(reg.eventTypes) == 0 || reg.eventTypes[event.Type] {
			regs = append(regs, reg)
		}
	}
	s.mu.RUnlock()

	var firstErr error
	for _, reg := range regs {
		if err := reg.observer.OnEvent(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func toCloudEvent(source string, event ObserverEvent) (cloudevents.Event, error) {
	ce := cloudevents.NewEvent()
	ce.SetID(uuid.NewString())
	ce.SetSource(source)
	ce.SetType(event.Type)
	ce.SetTime(event.Timestamp)
	if err := ce.SetData(cloudevents.ApplicationJSON, event.Data); err != nil {
		return cloudevents.Event{}, err
	}
	return ce, nil
}

func timeNow() time.Time { return time.Now() }

// CloudEventLogger is an Observer that converts every ObserverEvent to a
// CloudEvent and logs its ID, type and source. Registering it on a Hub's Subject
// gives operators a CloudEvents-shaped audit trail of every handshake,
// unseal and unwrap without the hub itself depending on any particular
// event transport.
type CloudEventLogger struct {
	id     string
	source string
	logger Logger
}

// NewCloudEventLogger constructs a CloudEventLogger with the given
// observer ID and CloudEvent source.
func NewCloudEventLogger(id, source string, logger Logger) *CloudEventLogger {
	if logger == nil {
		logger = NoopLogger{}
	}
	return &CloudEventLogger{id: id, source: source, logger: logger}
}

func (c *CloudEventLogger) ObserverID() string { return c.id }

func (c *CloudEventLogger) OnEvent(ctx context.Context, event ObserverEvent) error {
	ce, err := toCloudEvent(c.source, event)
	if err != nil {
		return err
	}
	c.logger.Info("event", "id", ce.ID(), "type", ce.Type(), "source", ce.Source())
	return nil
}

var _ Observer = (*CloudEventLogger)(nil)
