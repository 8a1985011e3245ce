package events

import (
	"fmt"
	"reflect"
	"sync"
)

// MockEventBus is an in-memory EventBus for tests. It records every
// published event and delivers to subscribers synchronously, async
// subscriptions included.
type MockEventBus struct {
	subscriptions   map[string][]interface{}
	publishedEvents map[string][]interface{}
	mutex           sync.RWMutex
	errors          []error
	publishErr      error
}

// NewMockEventBus creates a new MockEventBus instance
func NewMockEventBus() *MockEventBus {
	return &MockEventBus{
		subscriptions:   make(map[string][]interface{}),
		publishedEvents: make(map[string][]interface{}),
	}
}

func (m *MockEventBus) Subscribe(topic string, handler interface{}) error {
	if reflect.TypeOf(handler).Kind() != reflect.Func {
		return fmt.Errorf("%s is not of type reflect.Func", reflect.TypeOf(handler).Kind())
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.subscriptions[topic] = append(m.subscriptions[topic], handler)
	return nil
}

func (m *MockEventBus) SubscribeAsync(topic string, handler interface{}) error {
	return m.Subscribe(topic, handler)
}

func (m *MockEventBus) Unsubscribe(topic string, handler interface{}) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	handlers := m.subscriptions[topic]
	target := reflect.ValueOf(handler).Pointer()
	for i, h := range handlers {
		if reflect.ValueOf(h).Pointer() == target {
			m.subscriptions[topic] = append(handlers[:i], handlers[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("topic %s doesn't exist", topic)
}

func (m *MockEventBus) Publish(topic string, event interface{}) error {
	m.mutex.Lock()
	if m.publishErr != nil {
		err := m.publishErr
		m.mutex.Unlock()
		return err
	}
	m.publishedEvents[topic] = append(m.publishedEvents[topic], event)
	handlers := make([]interface{}, len(m.subscriptions[topic]))
	copy(handlers, m.subscriptions[topic])
	m.mutex.Unlock()

	for _, handler := range handlers {
		m.invokeHandler(handler, event)
	}
	return nil
}

func (m *MockEventBus) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.subscriptions = make(map[string][]interface{})
	return nil
}

// FailPublish makes every subsequent Publish return err.
func (m *MockEventBus) FailPublish(err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.publishErr = err
}

// GetPublishedEvents returns published events for a topic
func (m *MockEventBus) GetPublishedEvents(topic string) []interface{} {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	events := m.publishedEvents[topic]
	result := make([]interface{}, len(events))
	copy(result, events)
	return result
}

// GetSubscriberCount returns the number of subscribers for a topic
func (m *MockEventBus) GetSubscriberCount(topic string) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.subscriptions[topic])
}

// ClearEvents resets all published events
func (m *MockEventBus) ClearEvents() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.publishedEvents = make(map[string][]interface{})
}

// Errors returns handler panics and type mismatches seen so far.
func (m *MockEventBus) Errors() []error {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return append([]error(nil), m.errors...)
}

func (m *MockEventBus) invokeHandler(handler interface{}, event interface{}) {
	defer func() {
		if r := recover(); r != nil {
			m.mutex.Lock()
			m.errors = append(m.errors, fmt.Errorf("handler panic: %v", r))
			m.mutex.Unlock()
		}
	}()

	fn := reflect.ValueOf(handler)
	if fn.Type().NumIn() != 1 {
		m.mutex.Lock()
		m.errors = append(m.errors, fmt.Errorf("handler must take exactly one argument"))
		m.mutex.Unlock()
		return
	}
	arg := reflect.ValueOf(event)
	if !arg.IsValid() || !arg.Type().AssignableTo(fn.Type().In(0)) {
		m.mutex.Lock()
		m.errors = append(m.errors, fmt.Errorf("type mismatch: handler type does not match event type %T", event))
		m.mutex.Unlock()
		return
	}
	fn.Call([]reflect.Value{arg})
}
