package playback

// Queue is the ordered list of tracks with a playing position.
type Queue struct {
	paths        []string
	currentIndex int // -1 if nothing playing
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{currentIndex: -1}
}

// Current returns the current track path, or "" if none.
func (q *Queue) Current() string {
	if q.currentIndex < 0 || q.currentIndex >= len(q.paths) {
		return ""
	}
	return q.paths[q.currentIndex]
}

// CurrentIndex returns the index of the current track (-1 if none).
func (q *Queue) CurrentIndex() int {
	return q.currentIndex
}

// Next advances to the next track and returns it.
// Returns "" if there is no next track.
func (q *Queue) Next() string {
	if !q.HasNext() {
		return ""
	}
	q.currentIndex++
	return q.Current()
}

// HasNext returns true if there's a track after the current one.
func (q *Queue) HasNext() bool {
	return q.currentIndex < len(q.paths)-1
}

// Previous steps back one track and returns it.
// Returns "" at the start of the queue.
func (q *Queue) Previous() string {
	if q.currentIndex <= 0 {
		return ""
	}
	q.currentIndex--
	return q.Current()
}

// JumpTo sets the current index to the specified position.
// Returns the track at that position, or "" if invalid.
func (q *Queue) JumpTo(index int) string {
	if index < 0 || index >= len(q.paths) {
		return ""
	}
	q.currentIndex = index
	return q.Current()
}

// Add appends tracks without changing the current track.
func (q *Queue) Add(paths ...string) {
	q.paths = append(q.paths, paths...)
}

// AddAndPlay appends tracks and jumps to the first added one.
func (q *Queue) AddAndPlay(paths ...string) string {
	if len(paths) == 0 {
		return ""
	}
	insertIndex := len(q.paths)
	q.paths = append(q.paths, paths...)
	q.currentIndex = insertIndex
	return q.Current()
}

// Replace clears the queue, adds tracks and jumps to start (clamped to the
// queue). Returns the track to play.
func (q *Queue) Replace(start int, paths ...string) string {
	q.paths = append([]string(nil), paths...)
	q.currentIndex = -1
	if len(paths) == 0 {
		return ""
	}
	q.currentIndex = min(max(start, 0), len(paths)-1)
	return q.Current()
}

// Clear removes all tracks.
func (q *Queue) Clear() {
	q.paths = nil
	q.currentIndex = -1
}

// Paths returns a copy of the queued paths.
func (q *Queue) Paths() []string {
	out := make([]string, len(q.paths))
	copy(out, q.paths)
	return out
}

// Len returns the number of tracks in the queue.
func (q *Queue) Len() int {
	return len(q.paths)
}
