package metadata

import (
	"fmt"
	"slices"
	"sort"
	"strconv"

	"github.com/dmitrijs2005/trackmeta/internal/common"
)

// Update merges src into m. Values are copied verbatim, keys deleted in src
// are deleted in m, and src's length wins when it has one. Keys of m that src
// does not mention are left alone. Keys that src holds with no values are
// skipped: only the deleted set of src can remove a key from m.
func (m *Metadata) Update(src *Metadata) {
	for _, k := range src.keys {
		values := src.store[k]
		if len(values) == 0 {
			continue
		}
		m.put(k, slices.Clone(values))
	}
	for k := range src.deleted {
		m.Delete(k)
	}
	if ms, ok := src.Length(); ok {
		m.SetLength(ms)
	}
}

// UpdateFromMap merges a plain mapping into m using Assign semantics, so an
// empty value deletes a present key. Keys are applied in sorted order. On an
// unsupported value m is left unchanged.
func (m *Metadata) UpdateFromMap(values map[string]any) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	converted := make([][]string, len(keys))
	scalar := make([]bool, len(keys))
	for i, k := range keys {
		v, isScalar, err := toStrings(values[k])
		if err != nil {
			return fmt.Errorf("tag %q: %w", k, err)
		}
		converted[i], scalar[i] = v, isScalar
	}

	for i, k := range keys {
		if scalar[i] {
			m.Assign(k, converted[i][0])
		} else {
			m.AssignValues(k, converted[i])
		}
	}
	return nil
}

// toStrings coerces an external value into tag values. The flag reports
// whether v was a single value rather than a sequence.
func toStrings(v any) ([]string, bool, error) {
	switch t := v.(type) {
	case []string:
		return slices.Clone(t), false, nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := scalarString(item)
			if !ok {
				return nil, false, fmt.Errorf("%w: %T", common.ErrUnsupportedValue, item)
			}
			out = append(out, s)
		}
		return out, false, nil
	}
	s, ok := scalarString(v)
	if !ok {
		return nil, false, fmt.Errorf("%w: %T", common.ErrUnsupportedValue, v)
	}
	return []string{s}, true, nil
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case int:
		return strconv.Itoa(t), true
	case int8:
		return strconv.FormatInt(int64(t), 10), true
	case int16:
		return strconv.FormatInt(int64(t), 10), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case uint:
		return strconv.FormatUint(uint64(t), 10), true
	case uint8:
		return strconv.FormatUint(uint64(t), 10), true
	case uint16:
		return strconv.FormatUint(uint64(t), 10), true
	case uint32:
		return strconv.FormatUint(uint64(t), 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	case float64:
		// JSON numbers decode as float64; only whole numbers are tag values.
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10), true
		}
		return "", false
	}
	return "", false
}
