package diagram

import "github.com/matzehuels/interflow/pkg/model"

// AppOrder maps application names to their column index. Indices are
// contiguous from zero, grouped by category in [model.AppTypes] order and
// by first appearance within a category. Applications of unknown category
// have no column.
type AppOrder struct {
	names []string
	index map[string]int
}

// NewAppOrder scans records and assigns columns.
func NewAppOrder(records []model.InterfaceRecord) AppOrder {
	buckets := make([][]string, len(model.AppTypes))
	seen := make([]map[string]bool, len(model.AppTypes))
	for i := range seen {
		seen[i] = make(map[string]bool)
	}

	for _, rec := range records {
		for _, app := range rec.Apps {
			rank := app.Type.Rank()
			if rank < 0 || app.Name == "" || seen[rank][app.Name] {
				continue
			}
			seen[rank][app.Name] = true
			buckets[rank] = append(buckets[rank], app.Name)
		}
	}

	o := AppOrder{index: make(map[string]int)}
	for _, bucket := range buckets {
		for _, name := range bucket {
			// A name listed under two categories keeps its first column.
			if _, dup := o.index[name]; dup {
				continue
			}
			o.index[name] = len(o.names)
			o.names = append(o.names, name)
		}
	}
	return o
}

// Index returns the column of name.
func (o AppOrder) Index(name string) (int, bool) {
	i, ok := o.index[name]
	return i, ok
}

// Len returns the number of columns.
func (o AppOrder) Len() int { return len(o.names) }

// Names returns the application names in column order.
func (o AppOrder) Names() []string {
	return append([]string(nil), o.names...)
}

// ColumnX returns the x origin of column i.
func ColumnX(i int) int { return columnStride * i }

// RowY returns the y of the protocol markers in row r.
func RowY(r int) int { return YProtocolStart + rowStride*r }

// Size holds the page dimensions derived from the record set.
type Size struct {
	Rows      int
	Apps      int
	AppHeight int
	PageWidth int
}

// ComputeSize derives page dimensions from the row and column counts.
//
// An empty diagram keeps the single-row height and a one-column page
// width instead of the negative values the formulas would produce.
func ComputeSize(rows, apps int) Size {
	s := Size{Rows: rows, Apps: apps, AppHeight: AppMinHeight, PageWidth: AppWidth}
	if rows > 1 {
		s.AppHeight = AppMinHeight + rowStride*(rows-1)
	}
	if w := (apps*2 - 1) * AppWidth; w > s.PageWidth {
		s.PageWidth = w
	}
	return s
}

// CountRows returns the number of rows: the number of code_id changes while
// walking records in order.
func CountRows(records []model.InterfaceRecord) int {
	var rows rowCursor
	for _, rec := range records {
		rows.advance(rec.CodeID)
	}
	return rows.count()
}

// rowCursor tracks the current row while walking records. The row only
// moves when the code_id differs from the previous record's.
type rowCursor struct {
	codeID  string
	row     int
	started bool
}

func (c *rowCursor) advance(codeID string) int {
	switch {
	case !c.started:
		c.started = true
	case codeID != c.codeID:
		c.row++
	}
	c.codeID = codeID
	return c.row
}

func (c *rowCursor) count() int {
	if !c.started {
		return 0
	}
	return c.row + 1
}
