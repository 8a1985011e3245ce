package common

import (
	"sync"
	"time"
)

// Clock provides an abstraction over time so that expiry and retention
// logic can be tested deterministically.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package
type RealClock struct{}

// NewRealClock creates a new RealClock instance
func NewRealClock() *RealClock {
	return &RealClock{}
}

func (c *RealClock) Now() time.Time {
	return time.Now()
}

// MockClock implements Clock for testing with controllable time
type MockClock struct {
	mu          sync.Mutex
	currentTime time.Time
}

// NewMockClock creates a new MockClock with the specified initial time
func NewMockClock(initialTime time.Time) *MockClock {
	return &MockClock{currentTime: initialTime}
}

func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentTime
}

// Advance moves the clock forward by the specified duration
func (c *MockClock) Advance(duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentTime = c.currentTime.Add(duration)
}

// Set sets the clock to a specific time
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentTime = t
}
