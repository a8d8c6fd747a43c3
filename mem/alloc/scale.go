package alloc

import (
	"fmt"
	"math/bits"
)

// ScaleKind selects the bucket function of a Scale.
type ScaleKind uint8

const (
	// ScaleLinear grows bucket sizes by a constant step.
	ScaleLinear ScaleKind = iota
	// ScaleLog2 doubles bucket sizes.
	ScaleLog2
)

// Scale maps logical sizes to buckets (orders) and buckets to physical sizes.
// For every n, Size(Order(n)) >= n.
type Scale struct {
	kind ScaleKind
	step int
}

// Linear returns a scale with Order(n) = n/step and Size(o) = (o+1)*step.
func Linear(step int) Scale {
	if step <= 0 {
		panic(fmt.Sprintf("alloc: linear scale step must be positive, got %d", step))
	}
	return Scale{kind: ScaleLinear, step: step}
}

// Log2 returns a scale with Order(n) = ceil(log2 n) and Size(o) = 2^o.
func Log2() Scale {
	return Scale{kind: ScaleLog2}
}

// Kind returns the bucket function.
func (s Scale) Kind() ScaleKind { return s.kind }

// Step returns the linear step, or 0 for a log2 scale.
func (s Scale) Step() int { return s.step }

// Order returns the bucket of logical size n.
func (s Scale) Order(n int) int {
	if n < 0 {
		n = 0
	}
	if s.kind == ScaleLog2 {
		if n <= 1 {
			return 0
		}
		return bits.Len(uint(n - 1))
	}
	return n / s.step
}

// Size returns the physical capacity of bucket order.
func (s Scale) Size(order int) int {
	if s.kind == ScaleLog2 {
		return 1 << order
	}
	return (order + 1) * s.step
}

// Capacity returns the physical capacity allocated for logical size n.
func (s Scale) Capacity(n int) int {
	return s.Size(s.Order(n))
}

// OrderOfSize returns the bucket whose physical size is exactly c, or
// ok == false when c is not a bucket size of this scale.
func (s Scale) OrderOfSize(c int) (order int, ok bool) {
	if c <= 0 {
		return 0, false
	}
	if s.kind == ScaleLog2 {
		if c&(c-1) != 0 {
			return 0, false
		}
		return bits.TrailingZeros(uint(c)), true
	}
	if c%s.step != 0 {
		return 0, false
	}
	return c/s.step - 1, true
}

func (s Scale) String() string {
	if s.kind == ScaleLog2 {
		return "log2"
	}
	return fmt.Sprintf("linear(%d)", s.step)
}

// ScaleConfig is a named bucket configuration.
type ScaleConfig struct {
	// Name for this configuration (for tooling and benchmarks)
	Name string

	Kind       ScaleKind
	Step       int // Linear step; ignored for log2
	MaxBuckets int // Orders at or above this are not recycled
}

// Predefined configurations.
var (
	// ConfigFine: many small linear buckets for short arrays.
	// 4..256 step 4 (64 classes).
	ConfigFine = ScaleConfig{
		Name:       "Fine",
		Kind:       ScaleLinear,
		Step:       4,
		MaxBuckets: 64,
	}

	// ConfigBalanced: doubling buckets, 1 .. 8M elements (24 classes).
	ConfigBalanced = ScaleConfig{
		Name:       "Balanced",
		Kind:       ScaleLog2,
		MaxBuckets: 24,
	}

	// ConfigCoarse: few wide linear buckets, more internal fragmentation.
	// 64..2048 step 64 (32 classes).
	ConfigCoarse = ScaleConfig{
		Name:       "Coarse",
		Kind:       ScaleLinear,
		Step:       64,
		MaxBuckets: 32,
	}

	// Default configuration (used if none specified).
	DefaultConfig = ConfigBalanced
)

// Configs lists the predefined configurations by name.
var Configs = map[string]ScaleConfig{
	ConfigFine.Name:     ConfigFine,
	ConfigBalanced.Name: ConfigBalanced,
	ConfigCoarse.Name:   ConfigCoarse,
}

// Scale builds the scale described by c.
func (c ScaleConfig) Scale() Scale {
	if c.Kind == ScaleLog2 {
		return Log2()
	}
	return Linear(c.Step)
}

// Bucket describes one size class of a scale.
type Bucket struct {
	Order int `json:"order"`
	Size  int `json:"size"`
	Min   int `json:"min"` // Smallest logical size filed in this bucket
	Max   int `json:"max"` // Largest logical size filed in this bucket
}

// Buckets returns the first n buckets of s.
func (s Scale) Buckets(n int) []Bucket {
	out := make([]Bucket, 0, n)
	prev := -1
	for o := range n {
		size := s.Size(o)
		b := Bucket{Order: o, Size: size, Min: prev + 1, Max: size}
		if s.kind == ScaleLinear {
			// Linear buckets file n in [o*step, (o+1)*step).
			b.Min, b.Max = o*s.step, size-1
		}
		out = append(out, b)
		prev = b.Max
	}
	return out
}
