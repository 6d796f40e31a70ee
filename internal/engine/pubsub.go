package engine

// Subscriber is the engine-side handle a connection registers per
// subscribed channel or pattern (spec.md §4.10). internal/server owns the
// concrete delivery (a buffered channel or similar); the engine only ever
// calls Deliver.
type Subscriber struct {
	Deliver func(channel string, payload []byte)

	channels map[string]struct{}
	patterns map[string]struct{}
}

func NewSubscriber(deliver func(channel string, payload []byte)) *Subscriber {
	return &Subscriber{
		Deliver:  deliver,
		channels: map[string]struct{}{},
		patterns: map[string]struct{}{},
	}
}

// Subscribe adds channel to sub's direct subscriptions.
func (e *Engine) Subscribe(sub *Subscriber, channel string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sub.channels[channel] = struct{}{}
	e.subs[sub] = struct{}{}

	set, ok := e.channels[channel]
	if !ok {
		set = map[*Subscriber]struct{}{}
		e.channels[channel] = set
	}

	set[sub] = struct{}{}
}

func (e *Engine) Unsubscribe(sub *Subscriber, channel string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(sub.channels, channel)

	if set, ok := e.channels[channel]; ok {
		delete(set, sub)

		if len(set) == 0 {
			delete(e.channels, channel)
		}
	}

	e.pruneSubLocked(sub)
}

// PSubscribe registers a glob pattern. Pattern-subscribed channels are
// matched at Publish time, not pre-expanded (spec.md §4.10).
func (e *Engine) PSubscribe(sub *Subscriber, pattern string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sub.patterns[pattern] = struct{}{}
	e.subs[sub] = struct{}{}
}

func (e *Engine) PUnsubscribe(sub *Subscriber, pattern string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(sub.patterns, pattern)
	e.pruneSubLocked(sub)
}

// UnsubscribeAll drops every channel and pattern sub holds, for connection
// teardown.
func (e *Engine) UnsubscribeAll(sub *Subscriber) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for channel := range sub.channels {
		if set, ok := e.channels[channel]; ok {
			delete(set, sub)

			if len(set) == 0 {
				delete(e.channels, channel)
			}
		}
	}

	sub.channels = map[string]struct{}{}
	sub.patterns = map[string]struct{}{}
	delete(e.subs, sub)
}

// PubSubNumPat reports the number of distinct patterns currently
// subscribed to by any connection.
func (e *Engine) PubSubNumPat() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	seen := map[string]struct{}{}

	for sub := range e.subs {
		for p := range sub.patterns {
			seen[p] = struct{}{}
		}
	}

	return len(seen)
}

// SubscriberCount reports sub's current combined channel+pattern count,
// the "total_channel_count" spec.md §4.10's SUBSCRIBE/UNSUBSCRIBE acks
// report per frame.
func (e *Engine) SubscriberCount(sub *Subscriber) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(sub.channels) + len(sub.patterns)
}

// SubscriberChannels snapshots sub's direct channel subscriptions, for
// UNSUBSCRIBE with no arguments ("all").
func (e *Engine) SubscriberChannels(sub *Subscriber) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, 0, len(sub.channels))
	for ch := range sub.channels {
		out = append(out, ch)
	}

	return out
}

// SubscriberPatterns snapshots sub's pattern subscriptions, for
// PUNSUBSCRIBE with no arguments.
func (e *Engine) SubscriberPatterns(sub *Subscriber) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, 0, len(sub.patterns))
	for p := range sub.patterns {
		out = append(out, p)
	}

	return out
}

// pruneSubLocked drops sub from the global registry once it holds neither
// channels nor patterns. Caller must hold mu.
func (e *Engine) pruneSubLocked(sub *Subscriber) {
	if len(sub.channels) == 0 && len(sub.patterns) == 0 {
		delete(e.subs, sub)
	}
}

// Publish fans payload out to every direct subscriber of channel plus every
// subscriber whose pattern matches it, returning the receiver count.
// Matching a subscriber by both direct name and pattern delivers once per
// match (spec.md §4.10's "may receive the same message twice" note).
func (e *Engine) Publish(channel string, payload []byte) int {
	e.mu.Lock()

	var receivers []*Subscriber

	if set, ok := e.channels[channel]; ok {
		for sub := range set {
			receivers = append(receivers, sub)
		}
	}

	for sub := range e.subs {
		for pattern := range sub.patterns {
			if globMatch(pattern, channel) {
				receivers = append(receivers, sub)
			}
		}
	}

	e.mu.Unlock()

	for _, sub := range receivers {
		sub.Deliver(channel, payload)
	}

	return len(receivers)
}

// PubSubChannels lists active channels with at least one direct
// subscriber, optionally filtered by pattern.
func (e *Engine) PubSubChannels(pattern string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, 0, len(e.channels))

	for ch := range e.channels {
		if pattern == "" || globMatch(pattern, ch) {
			out = append(out, ch)
		}
	}

	return out
}

// PubSubNumSub reports the direct-subscriber count for each requested
// channel.
func (e *Engine) PubSubNumSub(channels ...string) map[string]int {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]int, len(channels))

	for _, ch := range channels {
		out[ch] = len(e.channels[ch])
	}

	return out
}
