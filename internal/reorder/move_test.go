package reorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArrayMove(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		expected []string
	}{
		{"forward", 0, 2, []string{"B", "C", "A", "D"}},
		{"backward", 3, 1, []string{"A", "D", "B", "C"}},
		{"to front", 1, 0, []string{"B", "A", "C", "D"}},
		{"same index", 2, 2, []string{"A", "B", "C", "D"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := []string{"A", "B", "C", "D"}
			got := ArrayMove(items, tt.from, tt.to)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, []string{"A", "B", "C", "D"}, items, "input must not change")
		})
	}
}
