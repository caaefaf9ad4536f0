package lcm

import (
	"slices"
	"sync"
)

// ChannelStat summarizes the traffic seen on one channel.
type ChannelStat struct {
	Channel string `json:"channel"`
	Count   int    `json:"count"`
	Bytes   int    `json:"bytes"`
}

// Recorder counts every message delivered on a transport.
type Recorder struct {
	sub *Subscription

	mu    sync.Mutex
	stats map[string]*ChannelStat
	last  map[string][]byte
}

func NewRecorder(iface Interface) (*Recorder, error) {
	r := &Recorder{
		stats: make(map[string]*ChannelStat),
		last:  make(map[string][]byte),
	}
	sub, err := iface.SubscribeAllChannels(r.observe)
	if err != nil {
		return nil, err
	}
	r.sub = sub
	return r, nil
}

func (r *Recorder) observe(channel string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.stats[channel]
	if !ok {
		st = &ChannelStat{Channel: channel}
		r.stats[channel] = st
	}
	st.Count++
	st.Bytes += len(data)
	r.last[channel] = data
}

// Close stops recording.
func (r *Recorder) Close() {
	r.sub.Unsubscribe()
}

func (r *Recorder) Count(channel string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.stats[channel]; ok {
		return st.Count
	}
	return 0
}

// Total returns the number of messages seen on all channels.
func (r *Recorder) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, st := range r.stats {
		n += st.Count
	}
	return n
}

// Last returns the most recent payload seen on channel.
func (r *Recorder) Last(channel string) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.last[channel]
	return data, ok
}

func (r *Recorder) Channels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.stats))
	for name := range r.stats {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Stats returns per-channel totals ordered by channel name.
func (r *Recorder) Stats() []ChannelStat {
	channels := r.Channels()
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ChannelStat, 0, len(channels))
	for _, ch := range channels {
		out = append(out, *r.stats[ch])
	}
	return out
}
