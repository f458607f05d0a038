package planner

import (
	"sort"
	"strings"
)

// node is one partial schedule in the beam. Nodes are treated as immutable
// once produced: expansion always clones first, so sibling search branches
// never alias each other's state.
type node struct {
	sections []*section
	selected map[string]struct{}
	credits  int
	progress map[string]int
	score    float64
}

func newNode(groups []*groupInfo) *node {
	progress := make(map[string]int, len(groups))
	for _, g := range groups {
		progress[g.GroupID] = 0
	}
	return &node{
		selected: make(map[string]struct{}),
		progress: progress,
	}
}

func (n *node) clone() *node {
	next := &node{
		sections: make([]*section, len(n.sections)),
		selected: make(map[string]struct{}, len(n.selected)),
		progress: make(map[string]int, len(n.progress)),
		credits:  n.credits,
		score:    n.score,
	}
	copy(next.sections, n.sections)
	for id := range n.selected {
		next.selected[id] = struct{}{}
	}
	for id, v := range n.progress {
		next.progress[id] = v
	}
	return next
}

func (n *node) hasSection(id string) bool {
	for _, s := range n.sections {
		if s.ref.ID == id {
			return true
		}
	}
	return false
}

func (n *node) hasCourse(id string) bool {
	_, ok := n.selected[id]
	return ok
}

// sectionSignature identifies a node by its exact section-id set.
func (n *node) sectionSignature() string {
	ids := make([]string, 0, len(n.sections))
	for _, s := range n.sections {
		ids = append(ids, s.ref.ID)
	}
	sort.Strings(ids)
	return strings.Join(ids, "|")
}

// courseSignature identifies a node by its selected-course-id set, ignoring
// which sections satisfy each course.
func (n *node) courseSignature() string {
	ids := make([]string, 0, len(n.selected))
	for id := range n.selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return strings.Join(ids, "|")
}
