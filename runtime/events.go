package runtime

import "github.com/duskforge/animgraph/clip"

// eventRing is the bounded per-entity event queue:
// clip events are written here, never dispatched as callbacks from the hot
// path. On overflow the oldest queued event is kept and the incoming one is
// dropped, with the drop observable via Entity.Diagnostics().
type eventRing struct {
	buf   []clip.Event
	count int
}

func newEventRing(capacity int) *eventRing {
	if capacity < 1 {
		capacity = 1
	}
	return &eventRing{buf: make([]clip.Event, capacity)}
}

func (r *eventRing) push(e clip.Event) bool {
	if r.count >= len(r.buf) {
		return false
	}
	r.buf[r.count] = e
	r.count++
	return true
}

// drain returns every queued event and empties the ring.
func (r *eventRing) drain() []clip.Event {
	if r.count == 0 {
		return nil
	}
	out := make([]clip.Event, r.count)
	copy(out, r.buf[:r.count])
	r.count = 0
	return out
}

// collectEvents gathers fired clip events: for every live sampler, find
// every authored clip event whose normalized time (scaled by clip
// duration) falls within the half-open interval the sampler advanced
// through this tick. A sampler that wrapped a loop this tick (time_s <
// prev_time_s) is treated as having advanced through (prev_time_s,
// duration] ∪ [0, time_s) instead of the ordinary [prev_time_s, time_s).
func (e *Entity) collectEvents() []clip.Event {
	e.samplers.Each(func(id uint8, s *ClipSampler) {
		if !e.clips.IsValid(s.ClipIndex) {
			return
		}
		events, err := e.clips.Events(s.ClipIndex)
		if err != nil || len(events) == 0 {
			return
		}
		duration := e.clipDuration(s.ClipIndex)
		if duration <= 0 {
			return
		}
		wrapped := s.Time < s.PrevTime
		for _, ev := range events {
			t := ev.NormalizedTime * duration
			fired := false
			if wrapped {
				fired = t > s.PrevTime || t < s.Time
			} else {
				fired = t >= s.PrevTime && t < s.Time
			}
			if !fired {
				continue
			}
			if !e.events.push(ev) {
				e.diag.EventRingOverflowed++
			}
		}
	})
	return e.events.drain()
}
