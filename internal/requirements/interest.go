package requirements

// ScoreByInterest maps a course's tags onto a student's interest weights and
// returns their mean, clamped to [0,1]. Courses with no tags, or whose tags
// match none of the student's interests, score zero; the planner substitutes
// its own neutral default for courses it has no signal for.
func ScoreByInterest(courseTags []string, interestTags map[string]float64) float64 {
	if len(courseTags) == 0 {
		return 0
	}
	var total float64
	matched := 0
	for _, tag := range courseTags {
		weight, ok := interestTags[tag]
		if !ok {
			continue
		}
		total += weight
		matched++
	}
	if matched == 0 {
		return 0
	}
	average := total / float64(matched)
	if average < 0 {
		return 0
	}
	if average > 1 {
		return 1
	}
	return average
}
