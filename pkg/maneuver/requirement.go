package maneuver

import (
	"fmt"
	"strings"
)

// Requirement is the set of platform capabilities a maneuver needs.
type Requirement uint8

const (
	Move Requirement = 1 << iota
	Odometry
	MoveLine
)

var requirementNames = []struct {
	req  Requirement
	name string
}{
	{Move, "move"},
	{Odometry, "odometry"},
	{MoveLine, "move_line"},
}

// Has reports whether r covers every capability in other.
func (r Requirement) Has(other Requirement) bool {
	return r&other == other
}

func (r Requirement) String() string {
	if r == 0 {
		return "none"
	}
	var parts []string
	for _, rn := range requirementNames {
		if r&rn.req != 0 {
			parts = append(parts, rn.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseRequirement converts a capability name such as "odometry".
func ParseRequirement(name string) (Requirement, error) {
	norm := strings.ToLower(strings.TrimSpace(name))
	for _, rn := range requirementNames {
		if rn.name == norm {
			return rn.req, nil
		}
	}
	return 0, fmt.Errorf("unknown requirement %q", name)
}
