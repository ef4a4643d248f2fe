package search

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleBounds(t *testing.T) {
	data := []struct {
		candidates int
		desired    int
		expected   int
	}{
		{0, 8, 0},
		{20, 0, 0},
		{20, -1, 0},
		{3, 8, 3},
		{8, 8, 8},
		{20, 8, 8},
		{250, 8, 8},
	}
	rnd := rand.New(rand.NewSource(42))
	for _, d := range data {
		t.Run(fmt.Sprintf("%d of %d", d.desired, d.candidates), func(t *testing.T) {
			candidates := sequence(d.candidates)
			result := Sample(candidates, d.desired, rnd)
			assert.NotNil(t, result)
			assert.Len(t, result, d.expected)
			assertDistinct(t, result)
			for _, v := range result {
				assert.True(t, v >= 0 && v < d.candidates, "Value %d not in candidates", v)
			}
		})
	}
}

func TestSampleDoesNotMutateInput(t *testing.T) {
	candidates := sequence(20)
	before := sequence(20)
	for i := 0; i < 100; i++ {
		Sample(candidates, 8, nil)
		assert.Equal(t, before, candidates)
	}
}

func TestSampleAllWhenFewer(t *testing.T) {
	candidates := sequence(5)
	result := Sample(candidates, 8, rand.New(rand.NewSource(7)))
	assert.ElementsMatch(t, candidates, result)
}

func TestSampleCoversPool(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	seen := make(map[int]int)
	for i := 0; i < 500; i++ {
		for _, v := range Sample(sequence(20), 8, rnd) {
			seen[v]++
		}
	}
	assert.Len(t, seen, 20, "Every candidate should be picked eventually")
}

func TestSampleDescriptors(t *testing.T) {
	candidates := []Descriptor{{ID: 1}, {ID: 2}, {ID: 3}}
	result := Sample(candidates, 2, nil)
	assert.Len(t, result, 2)
	assert.NotEqual(t, result[0].ID, result[1].ID)
}

func sequence(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}

func assertDistinct(t *testing.T, values []int) {
	seen := make(map[int]bool)
	for _, v := range values {
		if seen[v] {
			t.Errorf("Duplicate value %d", v)
		}
		seen[v] = true
	}
}
