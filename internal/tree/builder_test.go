package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d-elbel/curlew/internal/core"
)

func collection(id string, parentID *string) *core.Collection {
	c := core.NewCollectionWithID(id, "name-"+id)
	c.SetParentID(parentID)
	return c
}

func TestBuild(t *testing.T) {
	t.Run("nests children under parents", func(t *testing.T) {
		root := "root"
		forest := Build([]*core.Collection{
			collection("root", nil),
			collection("child", &root),
		})

		require.Len(t, forest, 1)
		assert.Equal(t, "root", forest[0].Collection.ID())
		require.Len(t, forest[0].Children, 1)
		assert.Equal(t, "child", forest[0].Children[0].Collection.ID())
	})

	t.Run("orphan parent reference demotes to root", func(t *testing.T) {
		gone := "deleted"
		forest := Build([]*core.Collection{
			collection("a", &gone),
		})

		require.Len(t, forest, 1)
		assert.Equal(t, "a", forest[0].Collection.ID())
	})

	t.Run("preserves input order among roots and siblings", func(t *testing.T) {
		p := "p"
		forest := Build([]*core.Collection{
			collection("p", nil),
			collection("z", &p),
			collection("a", &p),
			collection("q", nil),
		})

		require.Len(t, forest, 2)
		assert.Equal(t, "p", forest[0].Collection.ID())
		assert.Equal(t, "q", forest[1].Collection.ID())
		require.Len(t, forest[0].Children, 2)
		assert.Equal(t, "z", forest[0].Children[0].Collection.ID())
		assert.Equal(t, "a", forest[0].Children[1].Collection.ID())
	})

	t.Run("cyclic parent references do not hang", func(t *testing.T) {
		a, b := "a", "b"
		forest := Build([]*core.Collection{
			collection("a", &b),
			collection("b", &a),
		})

		// Both nodes link into each other; neither is a root, so the forest is
		// empty but the build terminates.
		assert.Empty(t, forest)
	})

	t.Run("empty input yields empty forest", func(t *testing.T) {
		assert.Empty(t, Build(nil))
	})
}

func TestCount(t *testing.T) {
	p := "p"
	forest := Build([]*core.Collection{
		collection("p", nil),
		collection("c1", &p),
		collection("c2", &p),
	})
	assert.Equal(t, 3, Count(forest))
}

func request(id string, order *int) *core.Request {
	r := core.NewRequestWithID(id, "req-"+id, core.MethodGet, "https://example.com")
	r.SetSortOrder(order)
	return r
}

func intp(v int) *int { return &v }

func TestOrderRequests(t *testing.T) {
	t.Run("explicit orders come first, ascending", func(t *testing.T) {
		ordered := OrderRequests([]*core.Request{
			request("c", nil),
			request("b", intp(2)),
			request("a", intp(1)),
		})

		ids := []string{ordered[0].ID(), ordered[1].ID(), ordered[2].ID()}
		assert.Equal(t, []string{"a", "b", "c"}, ids)
	})

	t.Run("ties and missing orders break by id", func(t *testing.T) {
		ordered := OrderRequests([]*core.Request{
			request("d", intp(1)),
			request("c", intp(1)),
			request("b", nil),
			request("a", nil),
		})

		ids := []string{ordered[0].ID(), ordered[1].ID(), ordered[2].ID(), ordered[3].ID()}
		assert.Equal(t, []string{"c", "d", "a", "b"}, ids)
	})

	t.Run("does not mutate the input slice", func(t *testing.T) {
		input := []*core.Request{
			request("b", nil),
			request("a", nil),
		}
		OrderRequests(input)
		assert.Equal(t, "b", input[0].ID())
	})
}
