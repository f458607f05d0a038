// Package requirements resolves a student's remaining degree requirements
// against a major's requirement groups and the course catalog. Equivalent
// courses are treated as interchangeable, and each completed course fulfills
// at most one group unless the group's note opts into double counting.
package requirements

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/campusdesk/course-planner-api/internal/models"
)

// RemainingGroup is one requirement group with unmet demand. Needed counts
// courses except for minCredits groups, where it counts credits.
type RemainingGroup struct {
	ID                 string           `json:"id"`
	Title              string           `json:"title"`
	Type               models.GroupType `json:"type"`
	Needed             int              `json:"needed"`
	CandidateCourseIDs []string         `json:"candidate_course_ids"`
}

// Summary is the outcome of requirement resolution for one major.
type Summary struct {
	RemainingGroups   []RemainingGroup    `json:"remaining_groups"`
	RequiredCourseIDs map[string]struct{} `json:"-"`
	FulfilledBy       []string            `json:"fulfilled_by"`
}

// noteFilters are the constraints a group can declare in its free-form note:
// "double=true" lets completed courses count for multiple groups,
// "level>=NNN" and "tag=xyz" restrict the candidate pool.
type noteFilters struct {
	allowDouble bool
	minLevel    int
	requiredTag string
}

var (
	doubleNoteRe = regexp.MustCompile(`double\s*=\s*true`)
	levelNoteRe  = regexp.MustCompile(`level\s*>=\s*(\d{3})`)
	tagNoteRe    = regexp.MustCompile(`(?i)tag\s*=\s*([\w-]+)`)
)

func parseNote(note string) noteFilters {
	if note == "" {
		return noteFilters{}
	}
	lower := strings.ToLower(note)
	filters := noteFilters{allowDouble: doubleNoteRe.MatchString(lower)}
	if m := levelNoteRe.FindStringSubmatch(lower); m != nil {
		filters.minLevel, _ = strconv.Atoi(m[1])
	}
	if m := tagNoteRe.FindStringSubmatch(note); m != nil {
		filters.requiredTag = m[1]
	}
	return filters
}

// equivalence is the bidirectional course-equivalence graph declared by the
// catalog, with a memoized transitive closure per course.
type equivalence struct {
	neighbors map[string][]string
	closure   map[string]map[string]struct{}
}

func newEquivalence(courses []models.Course) *equivalence {
	neighbors := make(map[string][]string)
	seen := make(map[string]map[string]struct{})
	addRelation := func(a, b string) {
		if _, ok := seen[a]; !ok {
			seen[a] = make(map[string]struct{})
		}
		if _, dup := seen[a][b]; dup {
			return
		}
		seen[a][b] = struct{}{}
		neighbors[a] = append(neighbors[a], b)
	}
	for _, course := range courses {
		for _, eq := range course.Equivalents {
			addRelation(course.ID, eq)
			addRelation(eq, course.ID)
		}
	}
	return &equivalence{
		neighbors: neighbors,
		closure:   make(map[string]map[string]struct{}),
	}
}

// expand returns the set of courses reachable from courseID through the
// equivalence graph, including courseID itself.
func (e *equivalence) expand(courseID string) map[string]struct{} {
	if cached, ok := e.closure[courseID]; ok {
		return cached
	}
	visited := make(map[string]struct{})
	queue := []string{courseID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if _, ok := visited[current]; ok {
			continue
		}
		visited[current] = struct{}{}
		for _, neighbor := range e.neighbors[current] {
			if _, ok := visited[neighbor]; !ok {
				queue = append(queue, neighbor)
			}
		}
	}
	e.closure[courseID] = visited
	return visited
}

// computeFulfilled closes a completed-course set over the equivalence graph
// in both directions: completing either side of an equivalence marks both as
// fulfilled.
func computeFulfilled(completed map[string]struct{}, eq *equivalence) map[string]struct{} {
	result := make(map[string]struct{}, len(completed))
	for id := range completed {
		result[id] = struct{}{}
	}
	changed := true
	for changed {
		changed = false
		for courseID, neighbors := range eq.neighbors {
			if _, ok := result[courseID]; ok {
				for _, neighbor := range neighbors {
					if _, done := result[neighbor]; !done {
						result[neighbor] = struct{}{}
						changed = true
					}
				}
			}
			for _, neighbor := range neighbors {
				if _, ok := result[neighbor]; ok {
					if _, done := result[courseID]; !done {
						result[courseID] = struct{}{}
						changed = true
					}
				}
			}
		}
	}
	return result
}

// resolution carries the shared bookkeeping for one ComputeRemaining run.
type resolution struct {
	eq          *equivalence
	courses     map[string]models.Course
	completed   []string
	expanded    map[string]struct{}
	used        map[string]struct{}
	required    map[string]struct{}
	fulfilledBy []string
	remaining   []RemainingGroup
}

// resolveActual finds the first completed course, in completion order, that
// is equivalent to courseID and not yet consumed by another group. Without
// double counting a completed course satisfies at most one group.
func (r *resolution) resolveActual(courseID string, allowDouble bool) (string, bool) {
	closure := r.eq.expand(courseID)
	for _, actual := range r.completed {
		if _, ok := closure[actual]; !ok {
			continue
		}
		if !allowDouble {
			if _, taken := r.used[actual]; taken {
				continue
			}
		}
		return actual, true
	}
	return "", false
}

func (r *resolution) recordFulfillment(courseID string) {
	for _, existing := range r.fulfilledBy {
		if existing == courseID {
			return
		}
	}
	r.fulfilledBy = append(r.fulfilledBy, courseID)
}

func (r *resolution) consume(actual string, allowDouble bool) {
	if !allowDouble {
		r.used[actual] = struct{}{}
	}
	r.recordFulfillment(actual)
}

func (r *resolution) passesFilters(courseID string, filters noteFilters) bool {
	course, ok := r.courses[courseID]
	if !ok {
		return false
	}
	if filters.minLevel > 0 && course.Level < filters.minLevel {
		return false
	}
	if filters.requiredTag != "" {
		found := false
		for _, tag := range course.Tags {
			if tag == filters.requiredTag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// markRequired deduplicates a group's course list while registering every
// member as degree-relevant.
func (r *resolution) markRequired(courseIDs []string) []string {
	unique := make([]string, 0, len(courseIDs))
	seen := make(map[string]struct{}, len(courseIDs))
	for _, id := range courseIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
		r.required[id] = struct{}{}
	}
	return unique
}

// ComputeRemaining resolves which requirement groups of a major are still
// unmet for the given student. Groups are processed in catalog order, and
// the group kind is inferred from which rule fields are populated: allOf
// first, then chooseN, minCount, minCredits, and finally a bare anyOf pool
// that needs a single course.
func ComputeRemaining(profile models.StudentProfile, major models.Major, catalog []models.Course) Summary {
	eq := newEquivalence(catalog)

	courses := make(map[string]models.Course, len(catalog))
	for _, course := range catalog {
		courses[course.ID] = course
	}

	completedSet := make(map[string]struct{}, len(profile.CompletedCourseIDs))
	for _, id := range profile.CompletedCourseIDs {
		completedSet[id] = struct{}{}
	}

	r := &resolution{
		eq:        eq,
		courses:   courses,
		completed: profile.CompletedCourseIDs,
		expanded:  computeFulfilled(completedSet, eq),
		used:      make(map[string]struct{}),
		required:  make(map[string]struct{}),
	}

	for _, group := range major.RequirementGroups {
		filters := parseNote(group.Note)

		switch {
		case len(group.AllOf) > 0:
			r.resolveAllOf(group, filters)
		case group.ChooseN != nil:
			r.resolveCounted(group, filters, *group.ChooseN, models.GroupChooseN, false)
		case group.MinCount != nil:
			r.resolveCounted(group, filters, *group.MinCount, models.GroupMinCount, true)
		case group.MinCredits != nil:
			r.resolveMinCredits(group, filters)
		case len(group.AnyOf) > 0:
			r.resolveAnyOf(group, filters)
		}
	}

	return Summary{
		RemainingGroups:   r.remaining,
		RequiredCourseIDs: r.required,
		FulfilledBy:       r.fulfilledBy,
	}
}

func (r *resolution) resolveAllOf(group models.RequirementGroup, filters noteFilters) {
	courseIDs := r.markRequired(group.AllOf)
	var missing []string
	for _, requiredCourse := range courseIDs {
		completedEquivalent := false
		for member := range r.eq.expand(requiredCourse) {
			if _, done := r.expanded[member]; done {
				completedEquivalent = true
				break
			}
		}
		if !completedEquivalent {
			missing = append(missing, requiredCourse)
			continue
		}
		actual, ok := r.resolveActual(requiredCourse, filters.allowDouble)
		if !ok {
			missing = append(missing, requiredCourse)
			continue
		}
		r.consume(actual, filters.allowDouble)
	}
	if len(missing) > 0 {
		r.remaining = append(r.remaining, RemainingGroup{
			ID:                 group.ID,
			Title:              group.Title,
			Type:               models.GroupAllOf,
			Needed:             len(missing),
			CandidateCourseIDs: missing,
		})
	}
}

// resolveCounted handles chooseN and minCount groups, which both need a
// fixed number of pool courses; minCount additionally honours note filters.
func (r *resolution) resolveCounted(group models.RequirementGroup, filters noteFilters, needed int, kind models.GroupType, filtered bool) {
	pool := r.markRequired(group.AnyOf)
	remaining := needed
	var candidates []string
	for _, courseID := range pool {
		if filtered && !r.passesFilters(courseID, filters) {
			continue
		}
		actual, ok := r.resolveActual(courseID, filters.allowDouble)
		if ok {
			if _, done := r.expanded[courseID]; done {
				if remaining > 0 {
					r.consume(actual, filters.allowDouble)
					remaining--
				}
				continue
			}
		}
		candidates = append(candidates, courseID)
	}
	if remaining > 0 {
		r.remaining = append(r.remaining, RemainingGroup{
			ID:                 group.ID,
			Title:              group.Title,
			Type:               kind,
			Needed:             remaining,
			CandidateCourseIDs: candidates,
		})
	}
}

func (r *resolution) resolveMinCredits(group models.RequirementGroup, filters noteFilters) {
	pool := r.markRequired(group.AnyOf)
	remaining := *group.MinCredits
	var candidates []string
	for _, courseID := range pool {
		if !r.passesFilters(courseID, filters) {
			continue
		}
		actual, ok := r.resolveActual(courseID, filters.allowDouble)
		if ok {
			if _, done := r.expanded[courseID]; done {
				if remaining > 0 {
					credits := r.creditsOf(actual, courseID)
					if credits > 0 {
						r.consume(actual, filters.allowDouble)
						remaining -= credits
						if remaining < 0 {
							remaining = 0
						}
					}
				}
				continue
			}
		}
		candidates = append(candidates, courseID)
	}
	if remaining > 0 {
		r.remaining = append(r.remaining, RemainingGroup{
			ID:                 group.ID,
			Title:              group.Title,
			Type:               models.GroupMinCredits,
			Needed:             remaining,
			CandidateCourseIDs: candidates,
		})
	}
}

func (r *resolution) resolveAnyOf(group models.RequirementGroup, filters noteFilters) {
	pool := r.markRequired(group.AnyOf)
	satisfied := false
	var candidates []string
	for _, courseID := range pool {
		actual, ok := r.resolveActual(courseID, filters.allowDouble)
		if ok && !satisfied {
			if _, done := r.expanded[courseID]; done {
				satisfied = true
				r.consume(actual, filters.allowDouble)
				continue
			}
		}
		candidates = append(candidates, courseID)
	}
	if !satisfied {
		r.remaining = append(r.remaining, RemainingGroup{
			ID:                 group.ID,
			Title:              group.Title,
			Type:               models.GroupAnyOf,
			Needed:             1,
			CandidateCourseIDs: candidates,
		})
	}
}

func (r *resolution) creditsOf(actual, fallback string) int {
	if course, ok := r.courses[actual]; ok {
		return course.Credits
	}
	if course, ok := r.courses[fallback]; ok {
		return course.Credits
	}
	return 0
}
