package classifier

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// LabelDictionary maps class indices to person names.
type LabelDictionary struct {
	names []string
	index map[string]int
}

// NewLabelDictionary validates that indices are exactly 0..N-1.
func NewLabelDictionary(m map[string]int) (*LabelDictionary, error) {
	if len(m) == 0 {
		return nil, fmt.Errorf("label dictionary is empty")
	}
	names := make([]string, len(m))
	for name, idx := range m {
		if idx < 0 || idx >= len(m) {
			return nil, fmt.Errorf("label %q has index %d outside 0..%d", name, idx, len(m)-1)
		}
		if names[idx] != "" {
			return nil, fmt.Errorf("labels %q and %q share index %d", names[idx], name, idx)
		}
		if name == "" {
			return nil, fmt.Errorf("empty label name at index %d", idx)
		}
		names[idx] = name
	}

	index := make(map[string]int, len(m))
	for name, idx := range m {
		index[name] = idx
	}
	return &LabelDictionary{names: names, index: index}, nil
}

// LabelsFromNames assigns indices to names in sorted order.
func LabelsFromNames(names []string) (*LabelDictionary, error) {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	m := make(map[string]int, len(sorted))
	for _, n := range sorted {
		if _, dup := m[n]; dup {
			return nil, fmt.Errorf("duplicate label %q", n)
		}
		m[n] = len(m)
	}
	return NewLabelDictionary(m)
}

// LoadLabels reads a {"name": index} JSON dictionary.
func LoadLabels(path string) (*LabelDictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ArtifactLoadError{Path: path, Err: err}
	}
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &ArtifactLoadError{Path: path, Err: fmt.Errorf("invalid label dictionary: %w", err)}
	}
	labels, err := NewLabelDictionary(m)
	if err != nil {
		return nil, &ArtifactLoadError{Path: path, Err: err}
	}
	return labels, nil
}

// Name returns the label for a class index.
func (d *LabelDictionary) Name(i int) (string, bool) {
	if i < 0 || i >= len(d.names) {
		return "", false
	}
	return d.names[i], true
}

// Index returns the class index for a label.
func (d *LabelDictionary) Index(name string) (int, bool) {
	i, ok := d.index[name]
	return i, ok
}

// Len is the number of classes.
func (d *LabelDictionary) Len() int {
	return len(d.names)
}

// Names returns labels in index order.
func (d *LabelDictionary) Names() []string {
	return append([]string(nil), d.names...)
}

// Map returns a copy of the name to index mapping.
func (d *LabelDictionary) Map() map[string]int {
	out := make(map[string]int, len(d.index))
	for k, v := range d.index {
		out[k] = v
	}
	return out
}

// MarshalJSON writes the dictionary in its on-disk form.
func (d *LabelDictionary) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.index)
}
