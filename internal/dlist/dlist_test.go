package dlist_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dijkstracula/pintos-go/internal/dlist"
)

func intLess(a, b int) bool { return a > b } // descending, like a priority order

func TestInsertSortedOrdering(t *testing.T) {
	l := dlist.New(intLess)
	for _, v := range []int{3, 1, 4, 1, 5, 9, 2, 6} {
		l.InsertSorted(v)
	}
	assert.Equal(t, []int{9, 6, 5, 4, 3, 2, 1, 1}, l.Values())
}

func TestInsertSortedTiesPreserveFIFO(t *testing.T) {
	type item struct {
		key   int
		order int
	}
	l := dlist.New(func(a, b item) bool { return a.key > b.key })
	l.InsertSorted(item{key: 1, order: 0})
	l.InsertSorted(item{key: 1, order: 1})
	l.InsertSorted(item{key: 1, order: 2})
	got := l.Values()
	assert.Equal(t, 0, got[0].order)
	assert.Equal(t, 1, got[1].order)
	assert.Equal(t, 2, got[2].order)
}

func TestRemoveByHandle(t *testing.T) {
	l := dlist.New(intLess)
	e1 := l.InsertSorted(5)
	e2 := l.InsertSorted(3)
	l.InsertSorted(8)
	l.Remove(e2)
	assert.Equal(t, []int{8, 5}, l.Values())
	l.Remove(e1)
	assert.Equal(t, []int{8}, l.Values())
	// double removal is a no-op
	l.Remove(e1)
	assert.Equal(t, 1, l.Len())
}

func TestResortRepositionsAfterKeyChange(t *testing.T) {
	type box struct{ v int }
	l := dlist.New(func(a, b *box) bool { return a.v > b.v })
	a := &box{v: 1}
	b := &box{v: 5}
	ea := l.InsertSorted(a)
	l.InsertSorted(b)
	assert.Equal(t, 5, l.Values()[0].v)

	a.v = 10
	l.Resort(ea)
	assert.Equal(t, 10, l.Values()[0].v)
	assert.Equal(t, 5, l.Values()[1].v)
}

func TestSortAllRebuildsAfterMultipleKeyChanges(t *testing.T) {
	type box struct{ v int }
	l := dlist.New(func(a, b *box) bool { return a.v > b.v })
	items := []*box{{v: 1}, {v: 2}, {v: 3}}
	for _, it := range items {
		l.PushBack(it)
	}
	items[0].v = 100
	items[2].v = 50
	l.SortAll()
	got := l.Values()
	assert.Equal(t, 100, got[0].v)
	assert.Equal(t, 50, got[1].v)
	assert.Equal(t, 2, got[2].v)
}

func TestPushBackIsFIFO(t *testing.T) {
	l := dlist.New(func(a, b int) bool { return false })
	l.PushBack(1)
	l.PushBack(2)
	l.PushBack(3)
	assert.Equal(t, []int{1, 2, 3}, l.Values())
	v, ok := l.PopFront()
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, []int{2, 3}, l.Values())
}

func TestEmptyList(t *testing.T) {
	l := dlist.New(intLess)
	assert.True(t, l.Empty())
	_, ok := l.Front()
	assert.False(t, ok)
	_, ok = l.PopFront()
	assert.False(t, ok)
}
