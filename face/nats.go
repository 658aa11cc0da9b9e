package face

import (
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ndntg/namepush/cfg"
	"github.com/ndntg/namepush/ndn"
)

func init() {
	RegisterTransport("nats", func(config cfg.FaceConfiguration) (Face, error) {
		if config.URL == "" {
			return nil, fmt.Errorf("nats face requires face.url")
		}
		return NewNatsFace(config.URL, config.TopicPrefix)
	})
}

// NatsFace attaches to the overlay through a NATS server. Registrations
// are announced on "<prefix>.register"/"<prefix>.withdraw" control
// subjects; data objects are published msgpack-encoded on the subject
// derived from their name.
type NatsFace struct {
	nc     *nats.Conn
	prefix string
}

// NewNatsFace connects to the NATS server
func NewNatsFace(url, topicPrefix string) (*NatsFace, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NatsFace{nc: nc, prefix: topicPrefix}, nil
}

// Register announces the prefix on the control subject. NATS surfaces
// registration problems synchronously (publish/flush), so onFailure is
// retained only for transports that reject asynchronously.
func (f *NatsFace) Register(name string, onFailure FailureCallback) (RegisteredPrefix, error) {
	if err := f.announce("register", name); err != nil {
		return nil, fmt.Errorf("failed to register prefix %s: %w", name, err)
	}
	return &natsPrefix{face: f, name: name}, nil
}

// Put emits one signed data object
func (f *NatsFace) Put(d *ndn.Data) error {
	payload, err := d.Encode()
	if err != nil {
		return err
	}

	msg := &nats.Msg{
		Subject: SubjectForName(f.prefix, d.Name),
		Data:    payload,
		Header:  nats.Header{"name": []string{d.Name}},
	}
	if err := f.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", d.Name, err)
	}
	return nil
}

// Close flushes pending publications and drops the connection
func (f *NatsFace) Close() error {
	if f.nc != nil {
		_ = f.nc.Flush()
		f.nc.Close()
	}
	return nil
}

func (f *NatsFace) announce(verb, name string) error {
	msg := &nats.Msg{
		Subject: f.prefix + "." + verb,
		Data:    []byte(name),
	}
	if err := f.nc.PublishMsg(msg); err != nil {
		return err
	}
	return f.nc.Flush()
}

// natsPrefix withdraws at most once
type natsPrefix struct {
	face *NatsFace
	name string
	once sync.Once
}

func (p *natsPrefix) Withdraw() {
	p.once.Do(func() {
		// Best effort: the run is shutting down either way
		_ = p.face.announce("withdraw", p.name)
	})
}
