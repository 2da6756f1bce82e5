package serialize

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func link(page int) string {
	return fmt.Sprintf("/api/v1/items?page=%d&per_page=10", page)
}

func TestNewCollectionPaging(t *testing.T) {
	items := make([]int, 10)
	for i := range items {
		items[i] = i + 1
	}

	page1 := NewCollection(items, 25, 1, 10, link, func(i int) any { return i })
	require.Equal(t, 1, page1.Meta.Page)
	require.Equal(t, 10, page1.Meta.PerPage)
	require.Equal(t, 3, page1.Meta.TotalPages)
	require.EqualValues(t, 25, page1.Meta.TotalItems)
	require.Equal(t, link(1), page1.Links.Self)
	require.Nil(t, page1.Links.Prev)
	require.NotNil(t, page1.Links.Next)
	require.Equal(t, link(2), *page1.Links.Next)
	require.Len(t, page1.Items, 10)

	page3 := NewCollection(items[:5], 25, 3, 10, link, func(i int) any { return i })
	require.Equal(t, 3, page3.Meta.TotalPages)
	require.Nil(t, page3.Links.Next)
	require.NotNil(t, page3.Links.Prev)
	require.Equal(t, link(2), *page3.Links.Prev)
	require.Len(t, page3.Items, 5)
}

func TestNewCollectionCallback(t *testing.T) {
	type row struct{ Name string }

	data := NewCollection([]row{{"a"}, {"b"}}, 2, 1, 10, link, func(r row) any {
		return map[string]string{"name": r.Name}
	})
	require.Equal(t, 1, data.Meta.TotalPages)
	require.Nil(t, data.Links.Next)
	require.Nil(t, data.Links.Prev)
	require.Equal(t, map[string]string{"name": "a"}, data.Items[0])
}

func TestNewCollectionEmpty(t *testing.T) {
	data := NewCollection(nil, 0, 1, 10, link, func(i int) any { return i })
	require.Equal(t, 0, data.Meta.TotalPages)
	require.Nil(t, data.Links.Next)
	require.Nil(t, data.Links.Prev)
	require.Empty(t, data.Items)
}
