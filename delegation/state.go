package delegation

import "strings"

// pathSep joins node names into a path key. The registry rejects names
// containing it.
const pathSep = "/"

// PathRecord tracks one attempted delegation path.
type PathRecord struct {
	// Failed is set when the path's tail worker reported a failure or
	// its subtree was exhausted.
	Failed bool
	// Closed paths are out of further consideration: the path succeeded,
	// its worker's local budget is spent, or its subtree is exhausted.
	Closed bool
}

// State is the mutable record threaded through one request's lifetime.
// It is owned exclusively by the Orchestrator driving the request and
// is never shared across requests.
type State struct {
	// RequestID identifies the request in events and stores.
	RequestID string

	// Path is the ordered sequence of visited node names, root first.
	// Depth is defined as len(Path).
	Path []string

	// FailureCounts maps worker name to consecutive failures. An entry
	// resets to zero only on a successful completion by that worker,
	// never on a mere retry.
	FailureCounts map[string]int

	// Visited holds every distinct attempted path, keyed by the joined
	// path string.
	Visited map[string]*PathRecord

	// GlobalFailures counts the distinct visited paths that ended in
	// failure.
	GlobalFailures int
}

// NewState seeds a request's state at the root supervisor.
func NewState(requestID, root string) *State {
	return &State{
		RequestID:     requestID,
		Path:          []string{root},
		FailureCounts: make(map[string]int),
		Visited:       make(map[string]*PathRecord),
	}
}

// Depth returns the current delegation depth.
func (s *State) Depth() int { return len(s.Path) }

// Current returns the node at the tail of the path, empty when the path
// is exhausted.
func (s *State) Current() string {
	if len(s.Path) == 0 {
		return ""
	}
	return s.Path[len(s.Path)-1]
}

// Push appends a node to the path.
func (s *State) Push(name string) {
	s.Path = append(s.Path, name)
}

// Pop removes and returns the tail node.
func (s *State) Pop() string {
	if len(s.Path) == 0 {
		return ""
	}
	tail := s.Path[len(s.Path)-1]
	s.Path = s.Path[:len(s.Path)-1]
	return tail
}

// PathKey returns the key of the current path.
func (s *State) PathKey() string {
	return strings.Join(s.Path, pathSep)
}

// ChildKey returns the key of the current path extended by candidate.
func (s *State) ChildKey(candidate string) string {
	if len(s.Path) == 0 {
		return candidate
	}
	return s.PathKey() + pathSep + candidate
}

// Record returns the visited record for a path key, or nil.
func (s *State) Record(key string) *PathRecord {
	return s.Visited[key]
}

// MarkFailed records a failure of the path identified by key. The first
// failure of a distinct path increments GlobalFailures; repeats of the
// same path do not.
func (s *State) MarkFailed(key string) *PathRecord {
	rec := s.Visited[key]
	if rec == nil {
		rec = &PathRecord{}
		s.Visited[key] = rec
	}
	if !rec.Failed {
		rec.Failed = true
		s.GlobalFailures++
	}
	return rec
}

// MarkSucceeded records a successful completion of the path and closes
// it against re-attempts.
func (s *State) MarkSucceeded(key string) {
	rec := s.Visited[key]
	if rec == nil {
		rec = &PathRecord{}
		s.Visited[key] = rec
	}
	rec.Closed = true
}

// ClosePath marks a path as out of further consideration.
func (s *State) ClosePath(key string) {
	rec := s.Visited[key]
	if rec == nil {
		rec = &PathRecord{}
		s.Visited[key] = rec
	}
	rec.Closed = true
}

// CountFailure increments the consecutive-failure count of a worker and
// returns the new value.
func (s *State) CountFailure(worker string) int {
	s.FailureCounts[worker]++
	return s.FailureCounts[worker]
}

// ResetFailures applies the reset law: an accepted completion at a
// worker clears its consecutive-failure count regardless of prior value.
func (s *State) ResetFailures(worker string) {
	s.FailureCounts[worker] = 0
}

// SnapshotFailureCounts copies the non-zero failure counts for event
// records.
func (s *State) SnapshotFailureCounts() map[string]int {
	if len(s.FailureCounts) == 0 {
		return nil
	}
	snap := make(map[string]int, len(s.FailureCounts))
	for w, n := range s.FailureCounts {
		snap[w] = n
	}
	return snap
}

// SnapshotPath copies the current path for event records.
func (s *State) SnapshotPath() []string {
	snap := make([]string, len(s.Path))
	copy(snap, s.Path)
	return snap
}
