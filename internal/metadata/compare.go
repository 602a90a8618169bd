package metadata

import (
	"math"
	"sort"
	"strconv"
)

// LengthThreshold is the duration difference in milliseconds at which two
// lengths stop counting as similar.
const LengthThreshold = 30000

// Tag names used by the default comparator.
const (
	TagTitle       = "title"
	TagArtist      = "artist"
	TagAlbum       = "album"
	TagTrackNumber = "tracknumber"
	TagTotalTracks = "totaltracks"
	TagDiscNumber  = "discnumber"
	TagTotalDiscs  = "totaldiscs"
)

// LengthWeightName is the weight table name of the duration attribute.
const LengthWeightName = "~length"

// LengthScore returns 1 for equal lengths, falling linearly to 0 once the
// lengths differ by LengthThreshold or more.
func LengthScore(a, b int) float64 {
	diff := math.Abs(float64(a - b))
	return math.Max(0, 1-math.Min(diff, LengthThreshold)/LengthThreshold)
}

// Weight describes how one tag contributes to a comparison.
type Weight struct {
	Name   string
	Weight float64
	// Numeric compares values as integers when both parse, so "02" equals "2".
	Numeric bool
	// Filter makes a mismatch zero the whole score.
	Filter bool
}

// Comparator scores the similarity of two stores.
type Comparator struct {
	Weights      []Weight
	LengthWeight float64
}

// DefaultComparator returns the comparator used by Metadata.Compare.
func DefaultComparator() *Comparator {
	return &Comparator{
		Weights: []Weight{
			{Name: TagTitle, Weight: 22},
			{Name: TagArtist, Weight: 6},
			{Name: TagAlbum, Weight: 12},
			{Name: TagTrackNumber, Weight: 6, Numeric: true, Filter: true},
			{Name: TagTotalTracks, Weight: 5, Numeric: true},
			{Name: TagDiscNumber, Weight: 5, Numeric: true},
			{Name: TagTotalDiscs, Weight: 4, Numeric: true},
		},
		LengthWeight: 8,
	}
}

// WithOverrides returns a copy of c with weights replaced by name. The name
// LengthWeightName sets the length weight; unknown names are appended as
// plain text attributes. Negative weights are ignored so scores stay in
// [0, 1].
func (c *Comparator) WithOverrides(overrides map[string]float64) *Comparator {
	valid := make(map[string]float64, len(overrides))
	for name, w := range overrides {
		if w >= 0 {
			valid[name] = w
		}
	}
	overrides = valid

	out := &Comparator{
		Weights:      make([]Weight, len(c.Weights)),
		LengthWeight: c.LengthWeight,
	}
	copy(out.Weights, c.Weights)

	seen := make(map[string]bool, len(out.Weights))
	for i := range out.Weights {
		name := out.Weights[i].Name
		seen[name] = true
		if w, ok := overrides[name]; ok {
			out.Weights[i].Weight = w
		}
	}
	if w, ok := overrides[LengthWeightName]; ok {
		out.LengthWeight = w
	}

	var extra []string
	for name := range overrides {
		if !seen[name] && name != LengthWeightName {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		out.Weights = append(out.Weights, Weight{Name: name, Weight: overrides[name]})
	}
	return out
}

type part struct {
	score  float64
	weight float64
}

// Compare returns a similarity score in [0, 1]. The score is symmetric.
//
// Only attributes with a value on both sides are compared. An attribute with
// a value on one side that was explicitly deleted on the other scores 0 at
// full weight; an attribute never set on one side is skipped and does not
// count against the score. A tracknumber mismatch yields 0 outright.
func (c *Comparator) Compare(a, b *Metadata) float64 {
	var parts []part

	la, okA := a.Length()
	lb, okB := b.Length()
	if okA && okB && c.LengthWeight > 0 {
		parts = append(parts, part{LengthScore(la, lb), c.LengthWeight})
	}

	for _, w := range c.Weights {
		va, vb := a.Get(w.Name), b.Get(w.Name)
		switch {
		case va != "" && vb != "":
			equal := valuesEqual(va, vb, w.Numeric)
			if !equal && w.Filter {
				return 0
			}
			score := 0.0
			if equal {
				score = 1
			}
			parts = append(parts, part{score, w.Weight})
		case va != "" && b.IsDeleted(w.Name), vb != "" && a.IsDeleted(w.Name):
			parts = append(parts, part{0, w.Weight})
		}
	}

	return linearCombination(parts)
}

// Compare scores m against other with the default comparator.
func (m *Metadata) Compare(other *Metadata) float64 {
	return DefaultComparator().Compare(m, other)
}

func valuesEqual(a, b string, numeric bool) bool {
	if numeric {
		ia, errA := strconv.Atoi(a)
		ib, errB := strconv.Atoi(b)
		if errA == nil && errB == nil {
			return ia == ib
		}
	}
	return a == b
}

func linearCombination(parts []part) float64 {
	var total, sum float64
	for _, p := range parts {
		total += p.weight
		sum += p.score * p.weight
	}
	if total == 0 {
		return 0
	}
	return sum / total
}
