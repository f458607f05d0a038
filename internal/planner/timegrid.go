// Package planner generates conflict-free weekly course schedules from a
// student's remaining requirement groups, a section catalog, and scheduling
// preferences. Generation is a deterministic pure function of its inputs:
// no I/O, no shared state, and every domain-level failure (infeasible locks,
// no feasible schedule) is a structured result rather than an error.
package planner

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/campusdesk/course-planner-api/internal/models"
)

// Sentinel errors for malformed catalog data. These indicate a caller or
// data bug, never a search outcome.
var (
	ErrInvalidTimeOfDay = errors.New("planner: invalid time of day")
	ErrInvalidDayCode   = errors.New("planner: invalid day code")
)

// Range is a half-open interval of minutes since midnight.
type Range struct {
	Start int
	End   int
}

// Overlaps reports whether two half-open ranges intersect.
func (r Range) Overlaps(o Range) bool {
	return r.Start < o.End && o.Start < r.End
}

// ParseMinutes converts an HH:MM clock time into minutes since midnight.
// The whole string must be consumed; trailing characters are rejected.
func ParseMinutes(raw string) (int, error) {
	hh, mm, ok := strings.Cut(raw, ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, raw)
	}
	hours, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, raw)
	}
	mins, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, raw)
	}
	if hours < 0 || hours > 23 || mins < 0 || mins > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, raw)
	}
	return hours*60 + mins, nil
}

// DayIndex maps the five weekday codes onto 0..4.
func DayIndex(d models.Day) (int, error) {
	switch d {
	case models.DayMonday:
		return 0, nil
	case models.DayTuesday:
		return 1, nil
	case models.DayWednesday:
		return 2, nil
	case models.DayThursday:
		return 3, nil
	case models.DayFriday:
		return 4, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDayCode, d)
}

const weekdayCount = 5

// meeting is a compiled section meeting: weekday index plus minute range.
type meeting struct {
	day  int
	span Range
}

// section pairs a catalog section with its compiled meetings so conflict
// checks never re-parse clock strings during search.
type section struct {
	ref      models.Section
	meetings []meeting
}

func compileSection(ref models.Section) (*section, error) {
	meetings := make([]meeting, 0, len(ref.Meetings))
	for _, m := range ref.Meetings {
		day, err := DayIndex(m.Day)
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", ref.ID, err)
		}
		start, err := ParseMinutes(m.Start)
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", ref.ID, err)
		}
		end, err := ParseMinutes(m.End)
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", ref.ID, err)
		}
		meetings = append(meetings, meeting{day: day, span: Range{Start: start, End: end}})
	}
	return &section{ref: ref, meetings: meetings}, nil
}

// overlaps reports whether any meeting of s and any meeting of o share a day
// with intersecting time ranges.
func (s *section) overlaps(o *section) bool {
	for _, a := range s.meetings {
		for _, b := range o.meetings {
			if a.day == b.day && a.span.Overlaps(b.span) {
				return true
			}
		}
	}
	return false
}

// sortKey orders sections by their first meeting for deterministic
// presentation: weekday index first, then start time.
func (s *section) sortKey() int {
	if len(s.meetings) == 0 {
		return 0
	}
	first := s.meetings[0]
	return first.day*24*60 + first.span.Start
}

// prefs is the compiled form of models.Preferences. Unset window bounds are
// stored as -1.
type prefs struct {
	raw      models.Preferences
	earliest int
	latest   int
	daysOff  map[int]struct{}
	blocks   []meeting
}

func compilePrefs(raw models.Preferences) (*prefs, error) {
	p := &prefs{raw: raw, earliest: -1, latest: -1, daysOff: make(map[int]struct{})}

	if raw.Earliest != "" {
		v, err := ParseMinutes(raw.Earliest)
		if err != nil {
			return nil, err
		}
		p.earliest = v
	}
	if raw.Latest != "" {
		v, err := ParseMinutes(raw.Latest)
		if err != nil {
			return nil, err
		}
		p.latest = v
	}
	for _, d := range raw.DaysOff {
		idx, err := DayIndex(d)
		if err != nil {
			return nil, err
		}
		p.daysOff[idx] = struct{}{}
	}
	for _, block := range raw.ProtectedBlocks {
		day, err := DayIndex(block.Day)
		if err != nil {
			return nil, err
		}
		start, err := ParseMinutes(block.Start)
		if err != nil {
			return nil, err
		}
		end, err := ParseMinutes(block.End)
		if err != nil {
			return nil, err
		}
		p.blocks = append(p.blocks, meeting{day: day, span: Range{Start: start, End: end}})
	}
	return p, nil
}

// violatesProtected reports whether any meeting of s intersects a protected
// block on the same day.
func (p *prefs) violatesProtected(s *section) bool {
	if len(p.blocks) == 0 {
		return false
	}
	for _, m := range s.meetings {
		for _, block := range p.blocks {
			if block.day == m.day && block.span.Overlaps(m.span) {
				return true
			}
		}
	}
	return false
}

// violatesWindow reports whether any meeting of s starts before the earliest
// or ends after the latest preferred time. Unset bounds are not checked.
func (p *prefs) violatesWindow(s *section) bool {
	if p.earliest < 0 && p.latest < 0 {
		return false
	}
	for _, m := range s.meetings {
		if p.earliest >= 0 && m.span.Start < p.earliest {
			return true
		}
		if p.latest >= 0 && m.span.End > p.latest {
			return true
		}
	}
	return false
}

// gatherLinked collects the connected component of sections reachable from
// sec by following LinkedWith references transitively. The traversal is
// cycle-safe and deduplicates by section id; it makes no assumption that a
// linked group has exactly two members. Results are in discovery order with
// sec first.
func gatherLinked(sec *section, index map[string]*section) []*section {
	stack := []*section{sec}
	seen := make(map[string]struct{})
	var collected []*section

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[current.ref.ID]; ok {
			continue
		}
		seen[current.ref.ID] = struct{}{}
		collected = append(collected, current)
		if current.ref.LinkedWith != "" {
			if partner, ok := index[current.ref.LinkedWith]; ok {
				if _, visited := seen[partner.ref.ID]; !visited {
					stack = append(stack, partner)
				}
			}
		}
	}
	return collected
}

// partitionLinked splits a section list into its linked connected
// components, following LinkedWith references only between members of the
// list. Standalone sections become singleton groups.
func partitionLinked(list []*section) [][]*section {
	index := make(map[string]*section, len(list))
	for _, s := range list {
		index[s.ref.ID] = s
	}

	visited := make(map[string]struct{}, len(list))
	var groups [][]*section
	for _, s := range list {
		if _, ok := visited[s.ref.ID]; ok {
			continue
		}
		var group []*section
		for _, member := range gatherLinked(s, index) {
			if _, ok := visited[member.ref.ID]; ok {
				continue
			}
			visited[member.ref.ID] = struct{}{}
			group = append(group, member)
		}
		groups = append(groups, group)
	}
	return groups
}
