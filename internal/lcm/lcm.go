package lcm

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// DefaultURL selects the in-process transport.
const DefaultURL = "memq://"

var (
	// ErrUnsupportedURL indicates a transport URL this package cannot open.
	ErrUnsupportedURL = errors.New("lcm: unsupported url")

	// ErrEmptyChannel indicates a publish or subscribe with no channel name.
	ErrEmptyChannel = errors.New("lcm: empty channel name")
)

// Handler receives the payload of one message.
type Handler func(data []byte)

// MultichannelHandler receives one message and the channel it arrived on.
type MultichannelHandler func(channel string, data []byte)

// Interface is the transport surface publishers depend on.
type Interface interface {
	Publish(channel string, data []byte) error
	Subscribe(channel string, h Handler) (*Subscription, error)
	SubscribeAllChannels(h MultichannelHandler) (*Subscription, error)
	HandleSubscriptions(timeoutMillis int) int
	URL() string
}

// Params configures one bus.
type Params struct {
	URL           string `yaml:"lcm_url"`
	ChannelSuffix string `yaml:"channel_suffix"`
}

type message struct {
	channel string
	data    []byte
}

// Subscription is an active registration on a Bus.
type Subscription struct {
	bus     *Bus
	id      int
	channel string
	handler MultichannelHandler
}

// Unsubscribe stops delivery to this subscription.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.bus == nil {
		return
	}
	s.bus.remove(s.id)
}

// Bus is the in-process transport.
type Bus struct {
	url    string
	suffix string

	mu     sync.Mutex
	queue  []message
	subs   []*Subscription
	nextID int
}

// New opens a bus for params. An empty URL selects DefaultURL.
func New(params Params) (*Bus, error) {
	url := params.URL
	if url == "" {
		url = DefaultURL
	}
	if !strings.HasPrefix(url, DefaultURL) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURL, url)
	}
	return &Bus{url: url, suffix: params.ChannelSuffix}, nil
}

func (b *Bus) URL() string { return b.url }

// Publish queues a copy of data on channel.
func (b *Bus) Publish(channel string, data []byte) error {
	if channel == "" {
		return ErrEmptyChannel
	}
	msg := message{channel: channel + b.suffix, data: append([]byte(nil), data...)}
	b.mu.Lock()
	b.queue = append(b.queue, msg)
	b.mu.Unlock()
	return nil
}

func (b *Bus) Subscribe(channel string, h Handler) (*Subscription, error) {
	if channel == "" {
		return nil, ErrEmptyChannel
	}
	return b.add(channel+b.suffix, func(_ string, data []byte) { h(data) }), nil
}

func (b *Bus) SubscribeAllChannels(h MultichannelHandler) (*Subscription, error) {
	return b.add("", h), nil
}

func (b *Bus) add(channel string, h MultichannelHandler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	s := &Subscription{bus: b, id: b.nextID, channel: channel, handler: h}
	b.subs = append(b.subs, s)
	return s
}

func (b *Bus) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// HandleSubscriptions delivers every queued message and returns how many
// reached at least one subscriber. The timeout is accepted for interface
// compatibility; delivery never waits.
func (b *Bus) HandleSubscriptions(timeoutMillis int) int {
	b.mu.Lock()
	pending := b.queue
	b.queue = nil
	subs := append([]*Subscription(nil), b.subs...)
	b.mu.Unlock()

	handled := 0
	for _, msg := range pending {
		delivered := false
		for _, s := range subs {
			if s.channel != "" && s.channel != msg.channel {
				continue
			}
			s.handler(msg.channel, msg.data)
			delivered = true
		}
		if delivered {
			handled++
		}
	}
	return handled
}

// Pending reports the number of queued, undelivered messages.
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}
