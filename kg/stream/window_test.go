package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/reasongraph/kg"
)

type fakeReasoner struct {
	inserted []kg.Triple
	removed  []kg.Triple
}

func (f *fakeReasoner) InsertTriple(t kg.Triple) bool {
	f.inserted = append(f.inserted, t)
	return true
}

func (f *fakeReasoner) RemoveTriple(t kg.Triple) bool {
	f.removed = append(f.removed, t)
	return true
}

func TestWindowInsertsEveryEventIntoReasoner(t *testing.T) {
	r := &fakeReasoner{}
	w := NewWindow("w1", Config{ReportStrategy: ReportNonEmptyContent}, r, func() []kg.Binding { return nil })

	base := time.Unix(0, 0)
	w.Add(Event{Triple: kg.NewTriple(1, 2, 3), Timestamp: base})
	w.Add(Event{Triple: kg.NewTriple(4, 5, 6), Timestamp: base.Add(time.Second)})

	require.Len(t, r.inserted, 2)
}

func TestWindowEvictsExpiredEventsAndRetracts(t *testing.T) {
	r := &fakeReasoner{}
	cfg := Config{Width: 10 * time.Second, ReportStrategy: ReportNonEmptyContent}
	w := NewWindow("w1", cfg, r, func() []kg.Binding { return nil })

	base := time.Unix(0, 0)
	old := kg.NewTriple(1, 1, 1)
	w.Add(Event{Triple: old, Timestamp: base})
	w.Add(Event{Triple: kg.NewTriple(2, 2, 2), Timestamp: base.Add(20 * time.Second)})

	require.Len(t, r.removed, 1)
	assert.Equal(t, old, r.removed[0])
}

func TestWindowReportsOnContentChange(t *testing.T) {
	r := &fakeReasoner{}
	calls := 0
	cfg := Config{ReportStrategy: ReportOnContentChange}
	w := NewWindow("w1", cfg, r, func() []kg.Binding {
		calls++
		return []kg.Binding{{"X": 1}}
	})

	base := time.Unix(0, 0)
	report := w.Add(Event{Triple: kg.NewTriple(1, 1, 1), Timestamp: base})
	require.NotNil(t, report)
	assert.Equal(t, 1, calls)
	assert.Len(t, report.Rows, 1)
}

func TestWindowTupleTickReportsEveryNthEvent(t *testing.T) {
	r := &fakeReasoner{}
	cfg := Config{ReportStrategy: ReportOnWindowClose, Tick: TickTuple, TupleCount: 2}
	w := NewWindow("w1", cfg, r, func() []kg.Binding { return []kg.Binding{} })

	base := time.Unix(0, 0)
	assert.Nil(t, w.Add(Event{Triple: kg.NewTriple(1, 1, 1), Timestamp: base}))
	report := w.Add(Event{Triple: kg.NewTriple(2, 2, 2), Timestamp: base.Add(time.Second)})
	assert.NotNil(t, report)
}

func TestBroadcasterCountStartsAtZero(t *testing.T) {
	b := NewBroadcaster()
	assert.Equal(t, 0, b.Count())
}
