package voicing

import (
	"fmt"
	"sort"
)

// Scale interval patterns in semitone offsets from the root.
var scales = map[string][]int{
	"d_dorian":           {0, 2, 3, 5, 7, 9, 10},
	"c_minor_pentatonic": {0, 3, 5, 7, 10},
	"a_minor":            {0, 2, 3, 5, 7, 8, 10},
	"c_major_pentatonic": {0, 2, 4, 7, 9},
}

// ScaleIntervals returns the interval pattern for a mode name.
func ScaleIntervals(mode string) ([]int, error) {
	intervals, ok := scales[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownMode, mode, Modes())
	}
	out := make([]int, len(intervals))
	copy(out, intervals)
	return out, nil
}

// Modes lists the known mode names in stable order.
func Modes() []string {
	names := make([]string, 0, len(scales))
	for name := range scales {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
