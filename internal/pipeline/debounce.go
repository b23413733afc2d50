package pipeline

import (
	"memcard/internal/model"
	"time"
)

// Debounce coalesces bursts of events on the same path into the last event,
// emitted once the path has been quiet for delay. Cloud clients and games
// both tend to write save files in several rapid operations.
func Debounce(inCh <-chan model.FileEvent, delay time.Duration) <-chan model.FileEvent {
	outCh := make(chan model.FileEvent, cap(inCh))

	type expiry struct {
		path string
		gen  uint64
	}

	go func() {
		defer close(outCh)

		// Timer callbacks only report their expiry on due; every map and
		// outCh access stays on this goroutine. A callback that fires while
		// its path is being re-armed carries a stale generation and is
		// ignored.
		due := make(chan expiry)
		gens := make(map[string]uint64)
		events := make(map[string]model.FileEvent)
		timers := make(map[string]*time.Timer)
		armed := 0

		for {
			select {
			case event, ok := <-inCh:
				if !ok {
					for path, t := range timers {
						if t.Stop() {
							armed--
							outCh <- events[path]
							delete(events, path)
						}
					}

					// Callbacks that beat Stop still deliver on due.
					for ; armed > 0; armed-- {
						e := <-due
						if gens[e.path] == e.gen {
							outCh <- events[e.path]
							delete(events, e.path)
						}
					}
					return
				}

				path := event.Path
				gens[path]++
				gen := gens[path]
				events[path] = event

				if t, ok := timers[path]; ok && t.Stop() {
					armed--
				}

				armed++
				timers[path] = time.AfterFunc(delay, func() {
					due <- expiry{path: path, gen: gen}
				})

			case e := <-due:
				armed--
				if gens[e.path] != e.gen {
					continue
				}

				outCh <- events[e.path]
				delete(events, e.path)
				delete(timers, e.path)
			}
		}
	}()

	return outCh
}
