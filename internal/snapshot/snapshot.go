package snapshot

import "github.com/rescale/svctray/internal/service"

// Snapshot is the ordered set of matched services at one point in time.
type Snapshot []service.Record

// Equal reports whether s and other hold the same multiset of
// (display name, name, status), ignoring order.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s) != len(other) {
		return false
	}
	counts := s.counts()
	for _, r := range other {
		if counts[r] == 0 {
			return false
		}
		counts[r]--
	}
	return true
}

func (s Snapshot) counts() map[service.Record]int {
	counts := make(map[service.Record]int, len(s))
	for _, r := range s {
		counts[r]++
	}
	return counts
}

// Direction is the settled state a service moved into.
type Direction int

const (
	Started Direction = iota
	Stopped
)

func (d Direction) String() string {
	if d == Started {
		return "started"
	}
	return "stopped"
}

// Transition is a service newly observed as Running or Stopped.
type Transition struct {
	Record    service.Record
	Direction Direction
}

// Result is the outcome of comparing two snapshots.
type Result struct {
	// Changed is true when the multisets differ or there was no previous snapshot.
	Changed bool

	// Transitions lists records of curr that are Running or Stopped and are
	// absent from prev, in curr's order.
	Transitions []Transition
}

// Diff compares curr against prev. A nil prev means no baseline exists yet:
// the result is changed and every settled record counts as newly observed.
func Diff(prev *Snapshot, curr Snapshot) Result {
	var before map[service.Record]int
	if prev != nil {
		before = prev.counts()
	}

	res := Result{Changed: prev == nil || !prev.Equal(curr)}
	if !res.Changed {
		return res
	}

	for _, r := range curr {
		if before[r] > 0 {
			before[r]--
			continue
		}
		switch r.Status {
		case service.StatusRunning:
			res.Transitions = append(res.Transitions, Transition{Record: r, Direction: Started})
		case service.StatusStopped:
			res.Transitions = append(res.Transitions, Transition{Record: r, Direction: Stopped})
		}
	}
	return res
}
