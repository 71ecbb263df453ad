// Package searchbox is the debounced query controller feeding the catalog
// store. Visible text updates on every keystroke; the search callback is
// deferred by a quiet interval and re-armed on each keystroke (debounce,
// not throttle). Picking a suggestion, pressing Enter or clearing the
// input commits synchronously, bypassing the debounce, because those are
// deliberate actions rather than incremental typing.
package searchbox

import (
	"strings"
	"sync"
	"time"

	"github.com/resourcemart/storefront/internal/models"
)

// DefaultDebounce is the quiet interval before a keystroke triggers a
// search.
const DefaultDebounce = 300 * time.Millisecond

// MaxSuggestions caps the typeahead list so rendering stays bounded.
const MaxSuggestions = 8

// Key is a keyboard gesture on the search box.
type Key int

const (
	KeyArrowDown Key = iota
	KeyArrowUp
	KeyEnter
	KeyEscape
)

// Timer abstracts time.AfterFunc so tests can drive the debounce clock.
type Timer interface {
	Stop() bool
}

// NewTimerFunc schedules f after d and returns a handle to cancel it.
type NewTimerFunc func(d time.Duration, f func()) Timer

func realTimer(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type Controller struct {
	onSearch func(string)
	debounce time.Duration
	newTimer NewTimerFunc

	mu          sync.Mutex
	text        string
	candidates  []models.Suggestion
	open        bool
	highlighted int
	pending     Timer
	seq         uint64
}

type Option func(*Controller)

// WithDebounce overrides the quiet interval.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithTimer injects the debounce scheduler; tests use a manual one.
func WithTimer(f NewTimerFunc) Option {
	return func(c *Controller) { c.newTimer = f }
}

func New(onSearch func(string), opts ...Option) *Controller {
	c := &Controller{
		onSearch:    onSearch,
		debounce:    DefaultDebounce,
		newTimer:    realTimer,
		highlighted: -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetCandidates installs the suggestion candidate set. Local-only, so the
// filter runs synchronously without debounce.
func (c *Controller) SetCandidates(cands []models.Suggestion) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.candidates = append([]models.Suggestion(nil), cands...)
}

// Input records a keystroke: the visible text changes immediately, the
// search fires only after the quiet interval with no further keystrokes.
// Emptying the text (backspacing the last character) is a clear, which
// commits synchronously like Clear does.
func (c *Controller) Input(text string) {
	c.mu.Lock()
	c.text = text
	c.open = text != ""
	c.highlighted = -1
	if text == "" {
		c.commitLocked()
		c.mu.Unlock()
		c.search("")
		return
	}
	c.cancelPendingLocked()
	c.seq++
	seq := c.seq
	c.pending = c.newTimer(c.debounce, func() { c.fire(seq) })
	c.mu.Unlock()
}

func (c *Controller) fire(seq uint64) {
	c.mu.Lock()
	if seq != c.seq {
		// A newer keystroke or an explicit commit superseded this timer.
		c.mu.Unlock()
		return
	}
	c.pending = nil
	query := c.text
	c.mu.Unlock()
	c.search(query)
}

// KeyPress applies the keyboard contract. ArrowDown/ArrowUp move the
// highlight within [-1, len-1]; Enter commits the highlighted suggestion,
// or the raw text when nothing is highlighted; Escape closes the list
// without clearing the text.
func (c *Controller) KeyPress(k Key) {
	c.mu.Lock()
	switch k {
	case KeyArrowDown:
		if n := len(c.suggestionsLocked()); c.highlighted < n-1 {
			c.highlighted++
		}
		c.mu.Unlock()
	case KeyArrowUp:
		if c.highlighted > -1 {
			c.highlighted--
		}
		c.mu.Unlock()
	case KeyEnter:
		var query string
		if sugg := c.suggestionsLocked(); c.highlighted >= 0 && c.highlighted < len(sugg) {
			query = sugg[c.highlighted].Text
			c.text = query
		} else {
			query = c.text
		}
		c.commitLocked()
		c.mu.Unlock()
		c.search(query)
	case KeyEscape:
		c.open = false
		c.highlighted = -1
		c.mu.Unlock()
	default:
		c.mu.Unlock()
	}
}

// Select commits the i-th visible suggestion synchronously.
func (c *Controller) Select(i int) {
	c.mu.Lock()
	sugg := c.suggestionsLocked()
	if i < 0 || i >= len(sugg) {
		c.mu.Unlock()
		return
	}
	query := sugg[i].Text
	c.text = query
	c.commitLocked()
	c.mu.Unlock()
	c.search(query)
}

// Clear empties the input and searches immediately: clearing is a
// deliberate action, not typing.
func (c *Controller) Clear() {
	c.mu.Lock()
	c.text = ""
	c.commitLocked()
	c.mu.Unlock()
	c.search("")
}

// commitLocked closes the suggestion list and cancels any pending
// debounce so a late timer cannot re-fire a superseded query.
func (c *Controller) commitLocked() {
	c.open = false
	c.highlighted = -1
	c.cancelPendingLocked()
	c.seq++
}

func (c *Controller) cancelPendingLocked() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}

func (c *Controller) search(query string) {
	if c.onSearch != nil {
		c.onSearch(query)
	}
}

func (c *Controller) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// Suggestions returns the filtered, capped typeahead list for the current
// text.
func (c *Controller) Suggestions() []models.Suggestion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Suggestion(nil), c.suggestionsLocked()...)
}

func (c *Controller) Highlighted() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.highlighted
}

func (c *Controller) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *Controller) suggestionsLocked() []models.Suggestion {
	if !c.open || c.text == "" {
		return nil
	}
	needle := strings.ToLower(c.text)
	out := make([]models.Suggestion, 0, MaxSuggestions)
	for _, cand := range c.candidates {
		if strings.Contains(strings.ToLower(cand.Text), needle) {
			out = append(out, cand)
			if len(out) == MaxSuggestions {
				break
			}
		}
	}
	return out
}
