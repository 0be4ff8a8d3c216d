package stats

import (
	"fmt"
	"sync"
)

// Channel identifies one scalar colour or luma component.
type Channel int

const (
	R Channel = iota
	G
	B
	A
	Y
	U
	V

	// NumChannels is the number of distinct channels.
	NumChannels = 7
)

var channelNames = [NumChannels]string{"r", "g", "b", "a", "y", "u", "v"}

// AllChannels lists every channel in report order.
var AllChannels = []Channel{R, G, B, A, Y, U, V}

// RGBAChannels lists the channels of an interleaved RGBA buffer.
var RGBAChannels = []Channel{R, G, B, A}

// YUVChannels lists the channels of a planar YUV buffer.
var YUVChannels = []Channel{Y, U, V}

// String returns the lower-case channel name used in reports.
func (c Channel) String() string {
	if c < 0 || int(c) >= NumChannels {
		return fmt.Sprintf("channel(%d)", int(c))
	}
	return channelNames[c]
}

// MarshalText encodes the channel by name so it can key JSON objects.
func (c Channel) MarshalText() ([]byte, error) {
	if c < 0 || int(c) >= NumChannels {
		return nil, fmt.Errorf("stats: invalid channel %d", int(c))
	}
	return []byte(channelNames[c]), nil
}

// ChannelSet holds one histogram per channel for a single analysis unit.
//
// Histograms are created lazily: a channel that never received a sample has
// no histogram and is absent from Statistics.
type ChannelSet struct {
	mu    sync.Mutex
	hists [NumChannels]*Histogram
}

// NewChannelSet returns an empty set.
func NewChannelSet() *ChannelSet {
	return &ChannelSet{}
}

// Histogram returns the histogram for c, creating it if needed.
// It must not be called concurrently with Merge on the same set.
func (s *ChannelSet) Histogram(c Channel) *Histogram {
	if s.hists[c] == nil {
		s.hists[c] = &Histogram{}
	}
	return s.hists[c]
}

// Lookup returns the histogram for c, or nil if the channel has none.
func (s *ChannelSet) Lookup(c Channel) *Histogram {
	return s.hists[c]
}

// Merge folds every histogram of other into s. Concurrent Merge calls on the
// same receiver are serialized; other must not be mutated during the call.
func (s *ChannelSet) Merge(other *ChannelSet) {
	if other == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for c, h := range other.hists {
		if h == nil {
			continue
		}
		if s.hists[c] == nil {
			s.hists[c] = &Histogram{}
		}
		s.hists[c].Merge(h)
	}
}

// Channels returns the channels holding at least one sample, in report order.
func (s *ChannelSet) Channels() []Channel {
	var out []Channel
	for _, c := range AllChannels {
		if h := s.hists[c]; h != nil && h.Count() > 0 {
			out = append(out, c)
		}
	}
	return out
}

// Statistics computes the final statistics for every channel holding at
// least one sample.
func (s *ChannelSet) Statistics() (map[Channel]ChannelStatistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[Channel]ChannelStatistics, NumChannels)
	for _, c := range AllChannels {
		h := s.hists[c]
		if h == nil || h.Count() == 0 {
			continue
		}
		st, err := h.Statistics()
		if err != nil {
			return nil, fmt.Errorf("channel %s: %w", c, err)
		}
		out[c] = st
	}
	return out, nil
}
