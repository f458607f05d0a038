package planner

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/campusdesk/course-planner-api/internal/models"
)

const (
	// DefaultBeamSize is the number of partial schedules kept alive after
	// each requirement group is expanded.
	DefaultBeamSize = 6
	// DefaultMaxNodes caps total search-node creation across one generation.
	DefaultMaxNodes = 2000
	// maxPlans is how many distinct schedules a generation returns.
	maxPlans = 3
	// defaultInterest is assumed for courses with no interest signal.
	defaultInterest = 0.5
)

// GroupInput is one remaining requirement group, as produced by requirement
// resolution: a candidate course pool plus how much of the rule is still
// unmet. Needed counts courses, except for minCredits groups where it counts
// credits.
type GroupInput struct {
	GroupID            string
	Title              string
	Type               models.GroupType
	Needed             int
	CandidateCourseIDs []string
}

// Input is everything a generation run needs. The engine reads it only; no
// field is mutated.
type Input struct {
	Groups            []GroupInput
	SectionsByCourse  map[string][]models.Section
	Prefs             models.Preferences
	RequiredCourseIDs map[string]struct{}
	InterestByCourse  map[string]float64
	Courses           map[string]models.Course
	TargetCredits     int
	BeamSize          int
	MaxNodes          int
	LockedSectionIDs  []string
}

// SearchStats reports how much work a generation run did.
type SearchStats struct {
	NodesGenerated int  `json:"nodes_generated"`
	Truncated      bool `json:"truncated"`
}

// Result is the structured outcome of a generation run. All collections are
// always present; an empty Primary with populated LockConflicts means the
// locked sections are mutually unsatisfiable, while an empty Primary with
// empty LockConflicts means no feasible schedule exists at all.
type Result struct {
	Primary       []models.Section
	Backups       [][]models.Section
	Scores        []float64
	Explanations  map[string]string
	LockConflicts map[string]string
	Stats         SearchStats
}

// CreditBuffer is the slack above the target credit load tolerated during
// search.
func CreditBuffer(targetCredits int) int {
	buffer := int(math.Round(float64(targetCredits) * 0.2))
	if buffer < 3 {
		buffer = 3
	}
	return buffer
}

// groupInfo augments a GroupInput with derived search attributes.
type groupInfo struct {
	GroupInput
	required     bool
	creditMetric bool
}

// search carries all per-generation state, including the node budget
// counter, so nothing ambient or global is touched.
type search struct {
	prefs         *prefs
	index         map[string]*section
	byCourse      map[string][]*section
	courseGroups  map[string][]*groupInfo
	courses       map[string]models.Course
	scoring       *scoreContext
	beamSize      int
	maxNodes      int
	targetCredits int
	creditBuffer  int
	nodes         int
	truncated     bool
}

// Generate runs the beam search and returns up to three mutually distinct,
// conflict-free schedules ranked by score. It returns an error only for
// malformed inputs (bad day codes or clock strings); every domain outcome,
// including infeasibility, is expressed in the Result.
func Generate(in Input) (Result, error) {
	compiledPrefs, err := compilePrefs(in.Prefs)
	if err != nil {
		return Result{}, err
	}

	beamSize := in.BeamSize
	if beamSize <= 0 {
		beamSize = DefaultBeamSize
	}
	maxNodes := in.MaxNodes
	if maxNodes <= 0 {
		maxNodes = DefaultMaxNodes
	}

	groups := make([]*groupInfo, 0, len(in.Groups))
	for _, g := range in.Groups {
		groups = append(groups, &groupInfo{
			GroupInput:   g,
			required:     g.Type != models.GroupAnyOf,
			creditMetric: g.Type == models.GroupMinCredits,
		})
	}

	// A mandatory group with nothing left to pick from can never be
	// satisfied, so the whole search is infeasible before it starts.
	for _, g := range groups {
		if g.required && g.Needed > 0 && len(g.CandidateCourseIDs) == 0 {
			return emptyResult(SearchStats{}), nil
		}
	}

	courseGroups := make(map[string][]*groupInfo)
	for _, g := range groups {
		for _, courseID := range g.CandidateCourseIDs {
			courseGroups[courseID] = append(courseGroups[courseID], g)
		}
	}

	index := make(map[string]*section)
	byCourse := make(map[string][]*section, len(in.SectionsByCourse))
	for courseID, list := range in.SectionsByCourse {
		compiled := make([]*section, 0, len(list))
		for _, ref := range list {
			sec, err := compileSection(ref)
			if err != nil {
				return Result{}, err
			}
			compiled = append(compiled, sec)
			index[sec.ref.ID] = sec
		}
		byCourse[courseID] = compiled
	}

	interestOf := func(courseID string) float64 {
		if v, ok := in.InterestByCourse[courseID]; ok {
			return v
		}
		return defaultInterest
	}

	s := &search{
		prefs:        compiledPrefs,
		index:        index,
		byCourse:     byCourse,
		courseGroups: courseGroups,
		courses:      in.Courses,
		scoring: &scoreContext{
			prefs:      compiledPrefs,
			required:   in.RequiredCourseIDs,
			interestOf: interestOf,
			courses:    in.Courses,
		},
		beamSize:      beamSize,
		maxNodes:      maxNodes,
		targetCredits: in.TargetCredits,
		creditBuffer:  CreditBuffer(in.TargetCredits),
	}

	seed, lockConflicts, seedOK := s.seedLocked(in.LockedSectionIDs, groups)
	if !seedOK {
		result := emptyResult(s.stats())
		result.LockConflicts = lockConflicts
		return result, nil
	}

	ordered := orderGroups(groups)
	beam := []*node{seed}
	for _, g := range ordered {
		beam = s.expandGroup(g, beam)
		if len(beam) == 0 {
			break
		}
	}

	if len(beam) == 0 {
		result := emptyResult(s.stats())
		result.LockConflicts = lockConflicts
		return result, nil
	}

	// Collapse section-level variants of the same course combination so the
	// top three are genuinely different plans, not re-shuffles.
	bySignature := make(map[string]*node)
	var signatureOrder []string
	for _, n := range beam {
		n.score, _ = scoreSchedule(n.sections, s.scoring)
		sig := n.courseSignature()
		existing, ok := bySignature[sig]
		if !ok {
			bySignature[sig] = n
			signatureOrder = append(signatureOrder, sig)
			continue
		}
		if existing.score < n.score {
			bySignature[sig] = n
		}
	}

	finalists := make([]*node, 0, len(signatureOrder))
	for _, sig := range signatureOrder {
		finalists = append(finalists, bySignature[sig])
	}
	sort.SliceStable(finalists, func(i, j int) bool {
		return finalists[i].score > finalists[j].score
	})
	if len(finalists) > maxPlans {
		finalists = finalists[:maxPlans]
	}

	primaryNode := finalists[0]
	explanations := buildExplanations(primaryNode.sections, groups, interestOf, compiledPrefs)

	primary := make([]*section, len(primaryNode.sections))
	copy(primary, primaryNode.sections)
	sort.SliceStable(primary, func(i, j int) bool {
		return primary[i].sortKey() < primary[j].sortKey()
	})

	result := Result{
		Primary:       sectionRefs(primary),
		Backups:       make([][]models.Section, 0, len(finalists)-1),
		Scores:        make([]float64, 0, len(finalists)),
		Explanations:  explanations,
		LockConflicts: lockConflicts,
		Stats:         s.stats(),
	}
	for _, n := range finalists {
		result.Scores = append(result.Scores, n.score)
	}
	for _, n := range finalists[1:] {
		result.Backups = append(result.Backups, sectionRefs(n.sections))
	}
	return result, nil
}

func emptyResult(stats SearchStats) Result {
	return Result{
		Primary:       []models.Section{},
		Backups:       [][]models.Section{},
		Scores:        []float64{},
		Explanations:  map[string]string{},
		LockConflicts: map[string]string{},
		Stats:         stats,
	}
}

func (s *search) stats() SearchStats {
	return SearchStats{NodesGenerated: s.nodes, Truncated: s.truncated}
}

func sectionRefs(list []*section) []models.Section {
	refs := make([]models.Section, 0, len(list))
	for _, s := range list {
		refs = append(refs, s.ref)
	}
	return refs
}

// orderGroups fixes the expansion order the search depends on: mandatory
// groups first, then ascending candidate-pool size, ties broken by group id.
// Beam pruning makes results sensitive to this order, so it must never fall
// back to map iteration order.
func orderGroups(groups []*groupInfo) []*groupInfo {
	ordered := make([]*groupInfo, len(groups))
	copy(ordered, groups)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.required != b.required {
			return a.required
		}
		if len(a.CandidateCourseIDs) != len(b.CandidateCourseIDs) {
			return len(a.CandidateCourseIDs) < len(b.CandidateCourseIDs)
		}
		return a.GroupID < b.GroupID
	})
	return ordered
}

// addSections clones base and atomically adds a linked section group. It
// returns nil when any member would violate a protected block, overlap a
// section already chosen, or push credits past the buffer. Sections already
// present are skipped, never duplicated.
func (s *search) addSections(base *node, secs []*section) *node {
	next := base.clone()
	for _, sec := range secs {
		if next.hasSection(sec.ref.ID) {
			continue
		}
		if s.prefs.violatesProtected(sec) {
			return nil
		}
		for _, existing := range next.sections {
			if existing.overlaps(sec) {
				return nil
			}
		}
		next.sections = append(next.sections, sec)

		if !next.hasCourse(sec.ref.CourseID) {
			next.selected[sec.ref.CourseID] = struct{}{}
			credits := s.courses[sec.ref.CourseID].Credits
			next.credits += credits
			for _, g := range s.courseGroups[sec.ref.CourseID] {
				delta := 1
				if g.creditMetric {
					delta = credits
				}
				next.progress[g.GroupID] += delta
			}
		}
	}
	if next.credits > s.targetCredits+s.creditBuffer {
		return nil
	}
	return next
}

// expandCourse produces every extension of base using one section (expanded
// through its linked group) of the given course. A course the node already
// carries contributes a single untouched clone.
func (s *search) expandCourse(base *node, courseID string) []*node {
	if base.hasCourse(courseID) {
		return []*node{base.clone()}
	}
	var results []*node
	for _, sec := range s.byCourse[courseID] {
		linked := gatherLinked(sec, s.index)
		if added := s.addSections(base, linked); added != nil {
			results = append(results, added)
		}
	}
	return results
}

// expandGroup grows every beam node until the group's remaining need is met
// or its candidate pool is exhausted, then prunes the survivors back down to
// the beam width. Candidate combinations are deduplicated by exact
// section-id set. The global node budget is a soft cap: once spent,
// expansion stops early and the search continues with whatever exists.
func (s *search) expandGroup(g *groupInfo, beam []*node) []*node {
	var next []*node
	visited := make(map[string]struct{})

	emit := func(n *node) {
		sig := n.sectionSignature()
		if _, ok := visited[sig]; ok {
			return
		}
		visited[sig] = struct{}{}
		n.score, _ = scoreSchedule(n.sections, s.scoring)
		next = append(next, n)
		s.nodes++
	}

	var expand func(base *node, remaining, startIdx int)
	expand = func(base *node, remaining, startIdx int) {
		if s.nodes >= s.maxNodes {
			s.truncated = true
			return
		}
		if remaining <= 0 || startIdx >= len(g.CandidateCourseIDs) {
			emit(base)
			return
		}
		for i := startIdx; i < len(g.CandidateCourseIDs); i++ {
			if s.nodes >= s.maxNodes {
				s.truncated = true
				break
			}
			for _, added := range s.expandCourse(base, g.CandidateCourseIDs[i]) {
				need := g.Needed - added.progress[g.GroupID]
				if need < 0 {
					need = 0
				}
				expand(added, need, i+1)
			}
		}
	}

	for _, n := range beam {
		need := g.Needed - n.progress[g.GroupID]
		if need < 0 {
			need = 0
		}
		if need == 0 {
			carried := n.clone()
			carried.score, _ = scoreSchedule(carried.sections, s.scoring)
			next = append(next, carried)
			continue
		}
		expand(n.clone(), need, 0)
	}

	sort.SliceStable(next, func(i, j int) bool {
		return next[i].score > next[j].score
	})
	if len(next) > s.beamSize {
		next = next[:s.beamSize]
	}
	return next
}

// --- Locked-section seeding ---

// reasonSet accumulates distinct conflict reasons in discovery order.
type reasonSet struct {
	seen map[string]struct{}
	list []string
}

func newReasonSet() *reasonSet {
	return &reasonSet{seen: make(map[string]struct{})}
}

func (r *reasonSet) add(reason string) {
	if _, ok := r.seen[reason]; ok {
		return
	}
	r.seen[reason] = struct{}{}
	r.list = append(r.list, reason)
}

func (r *reasonSet) empty() bool { return len(r.list) == 0 }

func (r *reasonSet) join() string { return strings.Join(r.list, "; ") }

// seedLocked builds the seed node for the beam from the caller's locked
// sections. All applicable conflict reasons per locked course are collected
// up front, whether or not the atomic add eventually succeeds. A failed add
// is a hard stop: the returned ok flag is false and the whole generation
// must abort, because an infeasible lock invalidates every downstream
// schedule.
func (s *search) seedLocked(lockedSectionIDs []string, groups []*groupInfo) (*node, map[string]string, bool) {
	type lockedGroup struct {
		courseID string
		sections []*section
	}

	reasonsByCourse := make(map[string]*reasonSet)
	var courseOrder []string
	reasonsFor := func(courseID string) *reasonSet {
		if rs, ok := reasonsByCourse[courseID]; ok {
			return rs
		}
		rs := newReasonSet()
		reasonsByCourse[courseID] = rs
		courseOrder = append(courseOrder, courseID)
		return rs
	}

	var locked []lockedGroup
	processed := make(map[string]struct{})
	seenSections := make(map[string]struct{})
	for _, id := range lockedSectionIDs {
		sec, ok := s.index[id]
		if !ok {
			continue
		}
		// First lock per course wins; later duplicates are ignored.
		if _, done := processed[sec.ref.CourseID]; done {
			continue
		}
		var group []*section
		for _, member := range gatherLinked(sec, s.index) {
			if _, dup := seenSections[member.ref.ID]; dup {
				continue
			}
			seenSections[member.ref.ID] = struct{}{}
			group = append(group, member)
		}
		locked = append(locked, lockedGroup{courseID: sec.ref.CourseID, sections: group})

		reasons := reasonsFor(sec.ref.CourseID)
		if len(group) > 1 {
			for _, partner := range group {
				if partner.ref.CourseID == sec.ref.CourseID {
					continue
				}
				reasons.add("Requires linked section " + s.sectionLabel(partner))
			}
		}
		processed[sec.ref.CourseID] = struct{}{}
	}

	base := newNode(groups)
	ok := true
	for _, lg := range locked {
		reasons := reasonsFor(lg.courseID)
		for _, reason := range s.lockGroupConflicts(lg.sections, base.sections) {
			reasons.add(reason)
		}

		additional := 0
		for _, sec := range lg.sections {
			if !base.hasCourse(sec.ref.CourseID) {
				additional += s.courses[sec.ref.CourseID].Credits
			}
		}
		if base.credits+additional > s.targetCredits+s.creditBuffer {
			reasons.add("Exceeds target credit preference")
		}

		seeded := s.addSections(base, lg.sections)
		if seeded == nil {
			if reasons.empty() {
				reasons.add("Locked section cannot be scheduled due to conflicts")
			}
			ok = false
			break
		}
		base = seeded
	}

	conflicts := make(map[string]string)
	for _, courseID := range courseOrder {
		if rs := reasonsByCourse[courseID]; !rs.empty() {
			conflicts[courseID] = rs.join()
		}
	}
	return base, conflicts, ok
}

// sectionLabel renders a section for conflict messages as course code plus
// section label.
func (s *search) sectionLabel(sec *section) string {
	code := sec.ref.CourseID
	if course, ok := s.courses[sec.ref.CourseID]; ok && course.Code != "" {
		code = course.Code
	}
	if sec.ref.Label == "" {
		return code
	}
	return fmt.Sprintf("%s · %s", code, sec.ref.Label)
}

// windowConflicts collects preferred-window violations for one section.
func (s *search) windowConflicts(sec *section) []string {
	if s.prefs.earliest < 0 && s.prefs.latest < 0 {
		return nil
	}
	reasons := newReasonSet()
	for _, m := range sec.meetings {
		if s.prefs.earliest >= 0 && m.span.Start < s.prefs.earliest {
			reasons.add(fmt.Sprintf("Starts before preferred time (%s)", s.prefs.raw.Earliest))
		}
		if s.prefs.latest >= 0 && m.span.End > s.prefs.latest {
			reasons.add(fmt.Sprintf("Ends after preferred time (%s)", s.prefs.raw.Latest))
		}
	}
	return reasons.list
}

// dayOffConflicts collects meetings that fall on a preferred day off.
func (s *search) dayOffConflicts(sec *section) []string {
	if len(s.prefs.daysOff) == 0 {
		return nil
	}
	reasons := newReasonSet()
	for i, m := range sec.meetings {
		if _, off := s.prefs.daysOff[m.day]; off {
			reasons.add(fmt.Sprintf("Falls on preferred day off (%s)", models.DayName(sec.ref.Meetings[i].Day)))
		}
	}
	return reasons.list
}

// seedConflicts collects every reason one section clashes with preferences
// or with already-seeded sections.
func (s *search) seedConflicts(sec *section, existing []*section) []string {
	reasons := newReasonSet()
	if s.prefs.violatesProtected(sec) {
		reasons.add("Conflicts with protected time block")
	}
	for _, reason := range s.windowConflicts(sec) {
		reasons.add(reason)
	}
	for _, reason := range s.dayOffConflicts(sec) {
		reasons.add(reason)
	}
	for _, other := range existing {
		if other.overlaps(sec) {
			reasons.add("Overlaps with " + s.sectionLabel(other))
		}
	}
	return reasons.list
}

// lockGroupConflicts collects conflict reasons for a whole linked group,
// including overlaps between the group's own members.
func (s *search) lockGroupConflicts(group, existing []*section) []string {
	reasons := newReasonSet()
	for _, sec := range group {
		for _, reason := range s.seedConflicts(sec, existing) {
			reasons.add(reason)
		}
	}
	for i := 0; i < len(group); i++ {
		for j := i + 1; j < len(group); j++ {
			if group[i].overlaps(group[j]) {
				reasons.add(fmt.Sprintf("Linked sections %s and %s overlap",
					s.sectionLabel(group[i]), s.sectionLabel(group[j])))
			}
		}
	}
	return reasons.list
}
