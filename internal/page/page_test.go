package page

import (
	"math/rand"
	"testing"
)

func TestNewValidatesSize(t *testing.T) {
	if got := New(20).PageSize(); got != 20 {
		t.Errorf("expected size 20, got %d", got)
	}
	if got := New(7).PageSize(); got != DefaultSize {
		t.Errorf("disallowed size should fall back to %d, got %d", DefaultSize, got)
	}
	if got := New(20).Page(); got != 1 {
		t.Errorf("new controller should start on page 1, got %d", got)
	}
}

func TestPageCount(t *testing.T) {
	tests := []struct {
		size    int
		dataLen int
		want    int
	}{
		{10, 0, 0},
		{10, 1, 1},
		{10, 10, 1},
		{10, 11, 2},
		{10, 15, 2},
		{20, 15, 1},
		{50, 151, 4},
	}
	for _, tt := range tests {
		c := New(tt.size)
		if got := c.PageCount(tt.dataLen); got != tt.want {
			t.Errorf("PageCount(size=%d, len=%d) = %d, want %d", tt.size, tt.dataLen, got, tt.want)
		}
	}
}

func TestSetPageClamps(t *testing.T) {
	c := New(10)
	const dataLen = 35 // 4 pages

	c.SetPage(3, dataLen)
	if c.Page() != 3 {
		t.Errorf("expected page 3, got %d", c.Page())
	}
	c.SetPage(99, dataLen)
	if c.Page() != 4 {
		t.Errorf("page beyond the end should clamp to 4, got %d", c.Page())
	}
	c.SetPage(-5, dataLen)
	if c.Page() != 1 {
		t.Errorf("page below 1 should clamp to 1, got %d", c.Page())
	}

	// Empty dataset: no-op.
	c.SetPage(2, dataLen)
	c.SetPage(3, 0)
	if c.Page() != 2 {
		t.Errorf("SetPage on an empty dataset must be a no-op, got page %d", c.Page())
	}
}

func TestSetPageSizeResetsToFirstPage(t *testing.T) {
	c := New(10)
	c.SetPage(2, 15)

	c.SetPageSize(50)
	if c.PageSize() != 50 {
		t.Errorf("expected size 50, got %d", c.PageSize())
	}
	if c.Page() != 1 {
		t.Errorf("changing page size must reset to page 1, got %d", c.Page())
	}
}

// Shrinking the dataset below the current page moves to the new last page
// rather than resetting to page 1.
func TestReclampOnShrink(t *testing.T) {
	c := New(10)
	c.SetPage(5, 50)

	c.Reclamp(23) // now 3 pages
	if c.Page() != 3 {
		t.Errorf("expected reclamp to last page 3, got %d", c.Page())
	}

	c.Reclamp(23)
	if c.Page() != 3 {
		t.Errorf("reclamp must be idempotent, got %d", c.Page())
	}

	c.Reclamp(0)
	if c.Page() != 3 {
		t.Errorf("reclamp over an empty dataset is a no-op, got %d", c.Page())
	}
}

func TestVisibleSlice(t *testing.T) {
	data := make([]int, 15)
	for i := range data {
		data[i] = i
	}

	c := New(10)
	first := VisibleSlice(c, data)
	if len(first) != 10 || first[0] != 0 {
		t.Errorf("page 1 should hold rows 0..9, got len=%d first=%d", len(first), first[0])
	}

	c.SetPage(2, len(data))
	second := VisibleSlice(c, data)
	if len(second) != 5 || second[0] != 10 {
		t.Errorf("page 2 should hold the 5 remaining rows, got len=%d first=%d", len(second), second[0])
	}
}

// For any dataset length and allowed page size: pageCount = ceil(N/P), the
// last page holds the remainder, and every earlier page holds exactly P rows.
func TestPaginationProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	for i := 0; i < 300; i++ {
		n := rng.Intn(500)
		size := Sizes[rng.Intn(len(Sizes))]
		data := make([]int, n)

		c := New(size)
		count := c.PageCount(n)
		want := (n + size - 1) / size
		if count != want {
			t.Fatalf("iteration %d: PageCount(%d,%d) = %d, want %d", i, n, size, count, want)
		}

		for p := 1; p <= count; p++ {
			c.SetPage(p, n)
			got := len(VisibleSlice(c, data))
			wantLen := size
			if p == count {
				wantLen = n - (count-1)*size
			}
			if got != wantLen {
				t.Fatalf("iteration %d: page %d/%d of n=%d size=%d has %d rows, want %d",
					i, p, count, n, size, got, wantLen)
			}
		}
	}
}

// Setting an already-clamped page again yields the same slice.
func TestSetPageIdempotent(t *testing.T) {
	data := make([]int, 37)
	c := New(10)

	c.SetPage(3, len(data))
	first := VisibleSlice(c, data)
	c.SetPage(c.Page(), len(data))
	second := VisibleSlice(c, data)

	if len(first) != len(second) || &first[0] != &second[0] {
		t.Error("repeated SetPage with the same value must yield the same slice")
	}
}

// VisibleSlice must stay in bounds even when the dataset shrank after the
// page was set and nobody reclamped yet.
func TestVisibleSliceAfterShrink(t *testing.T) {
	data := make([]string, 50)
	c := New(10)
	c.SetPage(5, len(data))

	shrunk := data[:12]
	got := VisibleSlice(c, shrunk)
	if len(got) != 0 {
		t.Errorf("out-of-range page over a shrunk dataset should yield an empty slice, got %d", len(got))
	}

	got = VisibleSlice[string](c, nil)
	if len(got) != 0 {
		t.Errorf("nil dataset should yield an empty slice, got %d", len(got))
	}
}
