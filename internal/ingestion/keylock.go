package ingestion

import (
	"fmt"
	"sync"

	"github.com/yekaditya11/shindler-oicc-sub001/internal/models"
)

// periodLock serializes the replace-delete and version stamp for one
// (schema_type, year, month) key. Two concurrent uploads for the same period
// would otherwise delete each other's in-flight inserts or allocate duplicate
// versions; uploads for different keys proceed independently.
type periodLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPeriodLock() *periodLock {
	return &periodLock{locks: make(map[string]*sync.Mutex)}
}

func periodKey(schemaType string, period models.ReportingPeriod) string {
	return fmt.Sprintf("%s|%s", schemaType, period)
}

// Acquire blocks until the key is free and returns the release function.
func (l *periodLock) Acquire(schemaType string, period models.ReportingPeriod) func() {
	key := periodKey(schemaType, period)

	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
