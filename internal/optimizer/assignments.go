package optimizer

import (
	"math"
	"sort"

	"github.com/kosarica/sourcing-service/internal/catalog"
)

// line is one product of a prepared order.
type line struct {
	product  string
	quantity int
	weight   float64  // quantity * unit weight
	centers  []string // eligible centers, sorted
}

// Enumerator walks every product to center assignment of an order as an
// odometer over the per-product eligible center lists. The last product is
// the fastest-moving digit, so assignments come out in lexicographic order
// of (product, center).
type Enumerator struct {
	lines   []line
	digits  []int
	count   int
	started bool
	done    bool
}

func newEnumerator(lines []line) *Enumerator {
	count := 1
	for _, l := range lines {
		n := len(l.centers)
		if n == 0 {
			count = 0
			break
		}
		if count > math.MaxInt/n {
			count = math.MaxInt
			continue
		}
		count *= n
	}
	return &Enumerator{
		lines:  lines,
		digits: make([]int, len(lines)),
		count:  count,
		done:   count == 0,
	}
}

// Count returns the number of assignments, saturating at math.MaxInt.
func (e *Enumerator) Count() int { return e.count }

// Next advances to the next assignment and reports whether there is one.
func (e *Enumerator) Next() bool {
	if e.done {
		return false
	}
	if !e.started {
		e.started = true
		return true
	}
	for i := len(e.digits) - 1; i >= 0; i-- {
		e.digits[i]++
		if e.digits[i] < len(e.lines[i].centers) {
			return true
		}
		e.digits[i] = 0
	}
	e.done = true
	return false
}

// Choice returns the eligible-center index picked for each product. The
// slice is reused by Next.
func (e *Enumerator) Choice() []int { return e.digits }

// Assignment materialises the current choice.
func (e *Enumerator) Assignment() Assignment {
	return assignmentFor(e.lines, e.digits)
}

func assignmentFor(lines []line, choice []int) Assignment {
	a := make(Assignment, len(lines))
	for i, l := range lines {
		a[l.product] = l.centers[choice[i]]
	}
	return a
}

// stockedLines splits sorted, distinct products into lines carrying their
// eligible centers and the products no center stocks. Quantities and weights
// are left for the caller.
func stockedLines(cat *catalog.Catalog, products []string) ([]line, []string) {
	var (
		lines     []line
		unstocked []string
	)
	for _, p := range products {
		centers := cat.Eligible(p)
		if len(centers) == 0 {
			unstocked = append(unstocked, p)
			continue
		}
		lines = append(lines, line{product: p, centers: centers})
	}
	return lines, unstocked
}

// assignments lists every way to source products from cat, one center per
// product. Products are used as given (already normalised) and deduplicated.
// When some product has no stocking center, no assignment exists: the
// result is nil and the unstocked products are returned sorted.
func assignments(cat *catalog.Catalog, products []string) ([]Assignment, []string) {
	unique := make(map[string]struct{}, len(products))
	for _, p := range products {
		unique[p] = struct{}{}
	}
	sorted := make([]string, 0, len(unique))
	for p := range unique {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	lines, unstocked := stockedLines(cat, sorted)
	if len(unstocked) > 0 {
		return nil, unstocked
	}

	enum := newEnumerator(lines)
	out := make([]Assignment, 0, enum.Count())
	for enum.Next() {
		out = append(out, enum.Assignment())
	}
	return out, nil
}

// CenterLoad is what one center contributes to an assignment.
type CenterLoad struct {
	Center   string
	Products []string
	Weight   float64
}

// loadsFor groups an assignment by center, in center order.
func loadsFor(lines []line, choice []int) []CenterLoad {
	index := make(map[string]int, len(lines))
	var loads []CenterLoad
	for i, l := range lines {
		center := l.centers[choice[i]]
		j, ok := index[center]
		if !ok {
			j = len(loads)
			index[center] = j
			loads = append(loads, CenterLoad{Center: center})
		}
		loads[j].Products = append(loads[j].Products, l.product)
		loads[j].Weight += l.weight
	}
	sort.Slice(loads, func(a, b int) bool { return loads[a].Center < loads[b].Center })
	return loads
}

// maxDistinctCenters bounds how many centers a single assignment can touch.
func maxDistinctCenters(lines []line) int {
	union := make(map[string]struct{})
	for _, l := range lines {
		for _, c := range l.centers {
			union[c] = struct{}{}
		}
	}
	return min(len(lines), len(union))
}
