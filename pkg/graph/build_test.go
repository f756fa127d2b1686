package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindCycle_AcyclicReturnsNil(t *testing.T) {
	requires := map[string][]string{
		"A": nil,
		"B": {"A"},
		"C": {"A"},
		"D": {"B", "C"},
	}
	assert.Nil(t, findCycle(requires))
}

func TestFindCycle_DetectsSimpleCycle(t *testing.T) {
	requires := map[string][]string{
		"A": {"B"},
		"B": {"A"},
	}
	cycle := findCycle(requires)
	assert.ElementsMatch(t, []string{"A", "B"}, cycle)
}

func TestFindCycle_DetectsCycleAmongOtherwiseValidNodes(t *testing.T) {
	requires := map[string][]string{
		"A": nil,
		"B": {"A", "C"},
		"C": {"B"},
	}
	cycle := findCycle(requires)
	assert.ElementsMatch(t, []string{"B", "C"}, cycle)
}
