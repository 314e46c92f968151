//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"moment/domain/event"
)

// Broadcaster delivers a domain event to every client attached to a
// room. Fire and forget: implementations must not block the caller on
// slow or broken connections, and a failed delivery is never retried.
type Broadcaster interface {
	Publish(roomCode string, evt event.DomainEvent)
}

// Sanitizer is the content boundary for user messages. Validate gates
// storage (non-empty after trimming, bounded length) and Sanitize
// neutralizes markup before the message is kept.
type Sanitizer interface {
	Validate(content string) bool
	Sanitize(content string) string
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
