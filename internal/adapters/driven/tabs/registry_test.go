package tabs

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_OpenAndLookup(t *testing.T) {
	r := NewRegistry()
	r.Open(7, "https://www.a.example/x/")
	r.Open(3, "https://b.example/y")

	url, ok := r.URL(7)
	require.True(t, ok)
	assert.Equal(t, "https://www.a.example/x/", url)

	id, err := r.FindTabIDByFullURL(context.Background(), "http://a.example/x")
	require.NoError(t, err)
	assert.Equal(t, 7, id)

	id, err = r.FindTabIDByFullURL(context.Background(), "https://c.example")
	require.NoError(t, err)
	assert.Zero(t, id)

	tabs := r.List()
	require.Len(t, tabs, 2)
	assert.Equal(t, 3, tabs[0].ID)
	assert.Equal(t, 7, tabs[1].ID)
}

func TestRegistry_FindPrefersLowestID(t *testing.T) {
	r := NewRegistry()
	r.Open(9, "https://a.example")
	r.Open(2, "https://a.example")

	id, err := r.FindTabIDByFullURL(context.Background(), "https://a.example")
	require.NoError(t, err)
	assert.Equal(t, 2, id)
}

func TestRegistry_IndexedURL(t *testing.T) {
	r := NewRegistry()
	r.Open(4, "blob:https://a.example/123")

	assert.True(t, r.SetIndexedURL(4, "https://memex.cloud/ct/abc.pdf"))
	assert.False(t, r.SetIndexedURL(5, "https://memex.cloud/ct/abc.pdf"))

	id, err := r.FindTabIDByFullURL(context.Background(), "https://memex.cloud/ct/abc.pdf")
	require.NoError(t, err)
	assert.Equal(t, 4, id)

	// Navigating resets the indexed URL.
	r.Open(4, "https://a.example/next")
	id, err = r.FindTabIDByFullURL(context.Background(), "https://memex.cloud/ct/abc.pdf")
	require.NoError(t, err)
	assert.Zero(t, id)
}

func TestRegistry_Close(t *testing.T) {
	r := NewRegistry()
	r.Open(1, "https://a.example")

	assert.True(t, r.Close(1))
	assert.False(t, r.Close(1))

	_, ok := r.URL(1)
	assert.False(t, ok)
	assert.Empty(t, r.List())
}

func TestRegistry_EmptyURL(t *testing.T) {
	r := NewRegistry()
	r.Open(1, "")

	id, err := r.FindTabIDByFullURL(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, id)
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			r.Open(id, "https://a.example")
			_, _ = r.FindTabIDByFullURL(context.Background(), "https://a.example")
			r.Close(id)
		}(i)
	}
	wg.Wait()
	assert.Empty(t, r.List())
}
