package engine

// Cursor locates one batch within the rules owned by a deployment.
type Cursor struct {
	BatchIndex int
	BatchSize  int
	TotalRows  int
}

// TotalBatches is ceil(TotalRows / BatchSize). A non-positive batch size
// yields zero batches.
func (c Cursor) TotalBatches() int {
	if c.BatchSize <= 0 || c.TotalRows <= 0 {
		return 0
	}
	n := c.TotalRows / c.BatchSize
	if c.TotalRows%c.BatchSize != 0 {
		n++
	}
	return n
}

// beyond reports whether the batch lies past the last one. Comparing
// indexes instead of offsets keeps huge indexes from overflowing.
func (c Cursor) beyond() bool {
	return c.BatchIndex >= c.TotalBatches()
}

// Start is the first row offset of the batch, clamped to TotalRows.
func (c Cursor) Start() int {
	switch {
	case c.BatchSize <= 0:
		return 0
	case c.beyond():
		return max(c.TotalRows, 0)
	}
	return c.BatchIndex * c.BatchSize
}

// End is the row offset one past the last row of the batch.
func (c Cursor) End() int {
	switch {
	case c.BatchSize <= 0:
		return 0
	case c.beyond():
		return max(c.TotalRows, 0)
	}
	return min((c.BatchIndex+1)*c.BatchSize, c.TotalRows)
}

// HasNext reports whether another batch follows this one.
func (c Cursor) HasNext() bool {
	return c.BatchIndex < c.TotalBatches()-1
}

// Next returns the cursor for the following batch.
func (c Cursor) Next() Cursor {
	c.BatchIndex++
	return c
}

// Slice returns the part of s covered by the batch.
func Slice[T any](c Cursor, s []T) []T {
	return s[c.Start():c.End()]
}
