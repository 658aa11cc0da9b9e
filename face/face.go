// Package face abstracts the agent's attachment to the forwarding plane:
// prefix registration, data emission and teardown. Concrete transports
// register themselves with the factory table at init time.
package face

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ndntg/namepush/cfg"
	"github.com/ndntg/namepush/ndn"
)

// RegisteredPrefix is the ownership token for one prefix registration.
// Withdraw is the sole unregistration path; it is safe to call repeatedly
// and safe on a token that was never armed.
type RegisteredPrefix interface {
	Withdraw()
}

// FailureCallback reports an asynchronous registration failure
type FailureCallback func(reason error)

// Face is the agent's attachment to the forwarding plane
type Face interface {
	// Register announces willingness to produce content under name so the
	// forwarder routes demand there. onFailure fires if the registration
	// is rejected after Register returned.
	Register(name string, onFailure FailureCallback) (RegisteredPrefix, error)
	// Put emits one signed data object
	Put(d *ndn.Data) error
	// Close tears down the face
	Close() error
}

// Factory is a function that creates a Face from a configuration
type Factory func(cfg.FaceConfiguration) (Face, error)

var (
	factories = make(map[string]Factory)
	factoryMu sync.RWMutex
)

// RegisterTransport registers a face factory for a transport name
func RegisterTransport(transport string, factory Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factories[transport] = factory
}

// New creates the face selected by the configuration
func New(config cfg.FaceConfiguration) (Face, error) {
	factoryMu.RLock()
	factory, exists := factories[config.Transport]
	factoryMu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unknown face transport: %s", config.Transport)
	}

	return factory(config)
}

// SubjectForName maps a content name to a broker subject/topic under the
// configured prefix: "/a/b/c" becomes "<prefix>.a.b.c".
func SubjectForName(prefix, name string) string {
	trimmed := strings.Trim(name, "/")
	var sb strings.Builder
	sb.WriteString(prefix)
	if trimmed != "" {
		sb.WriteByte('.')
	}
	for _, c := range trimmed {
		switch {
		case c == '/':
			sb.WriteByte('.')
		case c == '.' || c == '_' || c == '-',
			c >= 'a' && c <= 'z',
			c >= 'A' && c <= 'Z',
			c >= '0' && c <= '9':
			sb.WriteRune(c)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
