package history

import (
	"sync"
	"time"

	"enem_quiz_backend/pkg/debounce"
)

const DefaultFilterDelay = 300 * time.Millisecond

// View is the client-side history screen state. Filter changes are debounced; when one
// is applied the view goes back to page 1 and OnChange receives the new page.
type View struct {
	mu       sync.Mutex
	entries  []Entry
	filter   Filter
	pending  Filter
	page     int
	pageSize int

	debouncer *debounce.Debouncer
	onChange  func(Page)
}

func NewView(entries []Entry, pageSize int, delay time.Duration, onChange func(Page)) *View {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &View{
		entries:   entries,
		filter:    Filter{Status: StatusAll},
		pending:   Filter{Status: StatusAll},
		page:      1,
		pageSize:  pageSize,
		debouncer: debounce.New(delay),
		onChange:  onChange,
	}
}

func (v *View) Filter() Filter {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filter
}

// SetStatus and SetDiscipline edit the pending filter; the debounced apply picks up
// every change made since the last one.
func (v *View) SetStatus(s Status) {
	v.mu.Lock()
	v.pending.Status = s
	v.mu.Unlock()
	v.debouncer.Trigger(v.apply)
}

func (v *View) SetDiscipline(d string) {
	v.mu.Lock()
	v.pending.Discipline = d
	v.mu.Unlock()
	v.debouncer.Trigger(v.apply)
}

// Flush applies a pending filter change immediately.
func (v *View) Flush() { v.debouncer.Flush() }

func (v *View) Close() { v.debouncer.Stop() }

func (v *View) apply() {
	v.mu.Lock()
	v.filter = v.pending
	v.page = 1
	p := v.current()
	cb := v.onChange
	v.mu.Unlock()
	if cb != nil {
		cb(p)
	}
}

func (v *View) Current() Page {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current()
}

func (v *View) current() Page {
	return Paginate(Apply(v.entries, v.filter), v.page, v.pageSize)
}

// Next moves forward unless already on the last page.
func (v *View) Next() Page {
	v.mu.Lock()
	defer v.mu.Unlock()
	if p := v.current(); v.page < p.TotalPages {
		v.page++
	}
	return v.current()
}

func (v *View) Prev() Page {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.page > 1 {
		v.page--
	}
	return v.current()
}

// Goto jumps to page n, clamped to the available pages.
func (v *View) Goto(n int) Page {
	v.mu.Lock()
	defer v.mu.Unlock()
	total := v.current().TotalPages
	if n > total {
		n = total
	}
	if n < 1 {
		n = 1
	}
	v.page = n
	return v.current()
}
