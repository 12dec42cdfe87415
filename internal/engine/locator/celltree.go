package locator

import (
	"cmp"
	"slices"

	"go.trai.ch/pathline/internal/core/domain"
)

// leafSize is the maximum number of cells held by a leaf of the cell tree.
const leafSize = 8

type treeNode struct {
	bounds      domain.Bounds
	left, right int
	start, end  int
}

func (n *treeNode) leaf() bool { return n.left < 0 }

// cellTree is a bounding-volume hierarchy over the cell boxes of a mesh.
type cellTree struct {
	mesh  *domain.PointSetMesh
	tol   float64
	boxes []domain.Bounds
	order []int
	nodes []treeNode
}

func newCellTree(m *domain.PointSetMesh, tol float64) *cellTree {
	t := &cellTree{
		mesh:  m,
		tol:   tol,
		boxes: make([]domain.Bounds, len(m.Cells)),
		order: make([]int, len(m.Cells)),
	}
	for c := range m.Cells {
		t.boxes[c] = m.CellBounds(c)
		t.order[c] = c
	}
	t.nodes = make([]treeNode, 0, 2*len(m.Cells)/leafSize+1)
	t.split(0, len(m.Cells))
	return t
}

// split builds the subtree over order[start:end] and returns its node index.
func (t *cellTree) split(start, end int) int {
	node := treeNode{bounds: domain.EmptyBounds(), left: -1, right: -1, start: start, end: end}
	centers := domain.EmptyBounds()
	for _, c := range t.order[start:end] {
		node.bounds.Union(t.boxes[c])
		centers.Extend(t.boxes[c].Center())
	}

	id := len(t.nodes)
	t.nodes = append(t.nodes, node)
	if end-start <= leafSize {
		return id
	}

	axis := 0
	for a := 1; a < 3; a++ {
		if centers.Max[a]-centers.Min[a] > centers.Max[axis]-centers.Min[axis] {
			axis = a
		}
	}
	slices.SortFunc(t.order[start:end], func(a, b int) int {
		return cmp.Or(
			cmp.Compare(t.boxes[a].Center()[axis], t.boxes[b].Center()[axis]),
			cmp.Compare(a, b),
		)
	})

	mid := (start + end) / 2
	left := t.split(start, mid)
	right := t.split(mid, end)
	t.nodes[id].left, t.nodes[id].right = left, right
	return id
}

func (t *cellTree) locate(p domain.Point) (domain.Location, bool) {
	best := domain.Location{Cell: -1}
	stack := []int{0}
	for len(stack) > 0 {
		n := &t.nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]
		if !n.bounds.Contains(p, t.tol) {
			continue
		}
		if !n.leaf() {
			stack = append(stack, n.right, n.left)
			continue
		}
		for _, c := range t.order[n.start:n.end] {
			if best.Cell >= 0 && c > best.Cell {
				continue
			}
			if !t.boxes[c].Contains(p, t.tol) {
				continue
			}
			cell := t.mesh.Cells[c]
			weights, ok := cellWeights(cell.Kind, t.corners(cell), p)
			if !ok {
				continue
			}
			best = domain.Location{Cell: c, Points: slices.Clone(cell.Points), Weights: weights}
		}
	}
	return best, best.Cell >= 0
}

func (t *cellTree) corners(c domain.Cell) []domain.Point {
	pts := make([]domain.Point, len(c.Points))
	for i, id := range c.Points {
		pts[i] = t.mesh.Points[id]
	}
	return pts
}
