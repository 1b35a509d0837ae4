// Package page implements a pure, synchronous pagination controller. One
// controller instance exists per scrolling panel; changing its page or page
// size never triggers a network call.
package page

// Sizes is the enumerated set of allowed page sizes, matching the panel
// display-count selector.
var Sizes = []int{10, 20, 50}

// DefaultSize is used when a requested size is not in Sizes.
const DefaultSize = 10

// Controller holds the page state for one dataset view. The zero value is
// not usable; construct with New.
type Controller struct {
	pageSize int
	current  int
}

// New creates a controller with the given page size, starting on page 1.
// Sizes outside the allowed set fall back to DefaultSize.
func New(pageSize int) *Controller {
	return &Controller{pageSize: validSize(pageSize), current: 1}
}

func validSize(n int) int {
	for _, s := range Sizes {
		if n == s {
			return n
		}
	}
	return DefaultSize
}

// Page returns the current page, 1-based.
func (c *Controller) Page() int { return c.current }

// PageSize returns the current page size.
func (c *Controller) PageSize() int { return c.pageSize }

// PageCount returns ceil(datasetLen / pageSize), and 0 for an empty dataset.
func (c *Controller) PageCount(datasetLen int) int {
	if datasetLen <= 0 {
		return 0
	}
	return (datasetLen + c.pageSize - 1) / c.pageSize
}

// SetPageSize sets the page size and resets the current page to 1. Sizes
// outside the allowed set fall back to DefaultSize.
func (c *Controller) SetPageSize(n int) {
	c.pageSize = validSize(n)
	c.current = 1
}

// SetPage clamps p into [1, PageCount(datasetLen)] and makes it current.
// It is a no-op when the dataset is empty.
func (c *Controller) SetPage(p, datasetLen int) {
	count := c.PageCount(datasetLen)
	if count == 0 {
		return
	}
	if p < 1 {
		p = 1
	}
	if p > count {
		p = count
	}
	c.current = p
}

// Reclamp re-clamps the current page after the dataset was replaced. When
// the dataset shrinks below the extent implied by the current page, the
// page moves to the new last page rather than resetting to 1.
func (c *Controller) Reclamp(datasetLen int) {
	c.SetPage(c.current, datasetLen)
}

// Bounds returns the half-open index range [start, end) of the visible
// slice for a dataset of the given length.
func (c *Controller) Bounds(datasetLen int) (start, end int) {
	start = (c.current - 1) * c.pageSize
	if start > datasetLen {
		start = datasetLen
	}
	end = start + c.pageSize
	if end > datasetLen {
		end = datasetLen
	}
	return start, end
}

// VisibleSlice returns the sub-slice of data visible on the controller's
// current page. It is side-effect-free and never indexes out of bounds,
// even when the dataset shrank since the page was set.
func VisibleSlice[T any](c *Controller, data []T) []T {
	start, end := c.Bounds(len(data))
	return data[start:end]
}
