package multipath

import (
	"slices"

	"github.com/sirupsen/logrus"
)

// mqlGrouping maps each MQL level to the buffered entropies last reported at
// that level. An entropy appears in at most one level.
type mqlGrouping [MaxMqlLevel + 1][]uint16

func (g *mqlGrouping) empty() bool {
	for _, members := range g {
		if len(members) > 0 {
			return false
		}
	}
	return true
}

func (g *mqlGrouping) clear() {
	for level := range g {
		g[level] = nil
	}
}

func (g *mqlGrouping) remove(pathID uint16) {
	for level, members := range g {
		if i := slices.Index(members, pathID); i >= 0 {
			g[level] = slices.Delete(members, i, i+1)
			return
		}
	}
}

// prune drops every member for which contains reports false.
func (g *mqlGrouping) prune(contains func(uint16) bool) {
	for level, members := range g {
		g[level] = slices.DeleteFunc(members, func(id uint16) bool { return !contains(id) })
	}
}

// levelOf returns the level holding pathID, if any.
func (g *mqlGrouping) levelOf(pathID uint16) (uint8, bool) {
	for level, members := range g {
		if slices.Contains(members, pathID) {
			return uint8(level), true
		}
	}
	return 0, false
}

// addToGrouping (re)files pathID under level, but only while it is buffered.
func (r *Reps) addToGrouping(pathID uint16, level uint8) {
	if !r.buffer.ContainsEntropy(pathID) {
		return
	}
	r.grouping.remove(pathID)
	r.grouping[level] = append(r.grouping[level], pathID)
}

// selectByMql picks uniformly among the still-buffered members of the lowest
// non-empty level and removes the pick from both the buffer and the grouping.
// Levels whose members have all left the buffer are cleared on the way. When
// no level yields a pick the whole grouping is cleared and ok is false.
func (r *Reps) selectByMql() (path uint16, ok bool) {
	for level := range r.grouping {
		members := r.grouping[level]
		if len(members) == 0 {
			continue
		}

		valid := members[:0:0]
		for _, id := range members {
			if r.buffer.ContainsEntropy(id) {
				valid = append(valid, id)
			}
		}
		if len(valid) == 0 {
			r.grouping[level] = nil
			continue
		}

		path = valid[r.rng.Intn(len(valid))]
		r.grouping[level] = valid
		r.buffer.RemoveEntropy(path)
		r.grouping.remove(path)
		logrus.Debugf("%s REPS MQL strict priority selection: path=%d mql=%d level_group_size=%d",
			r.debugTag, path, level, len(valid))
		return path, true
	}

	r.grouping.clear()
	return 0, false
}
