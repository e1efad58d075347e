package stats

import (
	"encoding/json"

	"pubstats/domain/core"
)

// ContingencyTable cross-tabulates category counts per cohort. Row/column
// order is insertion order, so a table built from an ordered source keeps a
// stable layout through testing and reporting.
type ContingencyTable struct {
	groups     []core.GroupKey
	categories []string
	counts     map[core.GroupKey]map[string]int
}

// NewContingencyTable creates an empty contingency table
func NewContingencyTable() *ContingencyTable {
	return &ContingencyTable{
		counts: make(map[core.GroupKey]map[string]int),
	}
}

// Add sets the count for a (group, category) cell, accumulating if the cell
// already holds a count. Negative counts are ignored.
func (t *ContingencyTable) Add(group core.GroupKey, category string, count int) {
	if count < 0 {
		return
	}
	if _, ok := t.counts[group]; !ok {
		t.groups = append(t.groups, group)
		t.counts[group] = make(map[string]int)
	}
	if !t.hasCategory(category) {
		t.categories = append(t.categories, category)
	}
	t.counts[group][category] += count
}

// Increment adds one observation to a (group, category) cell
func (t *ContingencyTable) Increment(group core.GroupKey, category string) {
	t.Add(group, category, 1)
}

func (t *ContingencyTable) hasCategory(category string) bool {
	for _, c := range t.categories {
		if c == category {
			return true
		}
	}
	return false
}

// Groups returns the row keys in insertion order
func (t *ContingencyTable) Groups() []core.GroupKey {
	out := make([]core.GroupKey, len(t.groups))
	copy(out, t.groups)
	return out
}

// Categories returns the column labels in insertion order
func (t *ContingencyTable) Categories() []string {
	out := make([]string, len(t.categories))
	copy(out, t.categories)
	return out
}

// Count returns the count in a (group, category) cell
func (t *ContingencyTable) Count(group core.GroupKey, category string) int {
	if row, ok := t.counts[group]; ok {
		return row[category]
	}
	return 0
}

// RowTotal returns the marginal total for a group
func (t *ContingencyTable) RowTotal(group core.GroupKey) int {
	total := 0
	for _, c := range t.categories {
		total += t.Count(group, c)
	}
	return total
}

// ColumnTotal returns the marginal total for a category
func (t *ContingencyTable) ColumnTotal(category string) int {
	total := 0
	for _, g := range t.groups {
		total += t.Count(g, category)
	}
	return total
}

// Total returns the grand total of all cells
func (t *ContingencyTable) Total() int {
	total := 0
	for _, g := range t.groups {
		total += t.RowTotal(g)
	}
	return total
}

// IsDegenerate reports whether the chi-square statistic is undefined for this
// table: fewer than two rows or columns, or any marginal total of zero.
func (t *ContingencyTable) IsDegenerate() bool {
	if len(t.groups) < 2 || len(t.categories) < 2 {
		return true
	}
	for _, g := range t.groups {
		if t.RowTotal(g) == 0 {
			return true
		}
	}
	for _, c := range t.categories {
		if t.ColumnTotal(c) == 0 {
			return true
		}
	}
	return false
}

// contingencyTableJSON is the wire shape for ContingencyTable
type contingencyTableJSON struct {
	Groups     []core.GroupKey `json:"groups"`
	Categories []string        `json:"categories"`
	Counts     [][]int         `json:"counts"` // row-major, counts[i][j] = (groups[i], categories[j])
}

// MarshalJSON encodes the table as ordered rows and columns with a dense count matrix
func (t *ContingencyTable) MarshalJSON() ([]byte, error) {
	out := contingencyTableJSON{
		Groups:     t.Groups(),
		Categories: t.Categories(),
		Counts:     make([][]int, len(t.groups)),
	}
	for i, g := range t.groups {
		row := make([]int, len(t.categories))
		for j, c := range t.categories {
			row[j] = t.Count(g, c)
		}
		out.Counts[i] = row
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the dense wire shape back into a table
func (t *ContingencyTable) UnmarshalJSON(data []byte) error {
	var in contingencyTableJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*t = *NewContingencyTable()
	for i, g := range in.Groups {
		for j, c := range in.Categories {
			count := 0
			if i < len(in.Counts) && j < len(in.Counts[i]) {
				count = in.Counts[i][j]
			}
			t.Add(g, c, count)
		}
	}
	return nil
}
