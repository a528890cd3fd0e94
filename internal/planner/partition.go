package planner

import "fmt"

// Page is a contiguous window over the id-ordered recipe table.
type Page struct {
	Offset int
	Limit  int
}

// Partition splits count rows into days non-overlapping pages of
// floor(count/days) rows each. Trailing rows that do not fill a page are
// left out.
func Partition(count, days int) ([]Page, error) {
	if days < 1 {
		return nil, fmt.Errorf("days must be at least 1, got %d", days)
	}
	size := count / days
	if size == 0 {
		return nil, fmt.Errorf("%w: %d recipes, %d days", ErrNotEnoughRecipes, count, days)
	}
	pages := make([]Page, days)
	for i := range pages {
		pages[i] = Page{Offset: i * size, Limit: size}
	}
	return pages, nil
}
