package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaabi-dev/demandhub/internal/models"
)

func TestCache_MutationReplacesBothViews(t *testing.T) {
	c := NewCache()
	c.ReplaceList([]models.Demand{
		{ID: 1, Status: models.StatusPending},
		{ID: 2, Status: models.StatusPending},
	})

	c.Put(models.Demand{ID: 2, Status: models.StatusApproved})

	item, ok := c.Get(2)
	require.True(t, ok)
	assert.Equal(t, models.StatusApproved, item.Status)

	list := c.List()
	require.Len(t, list, 2)
	for _, d := range list {
		if d.ID == 2 {
			assert.Equal(t, models.StatusApproved, d.Status)
		}
	}
}

func TestCache_PutUnlistedPrepends(t *testing.T) {
	c := NewCache()
	c.ReplaceList([]models.Demand{{ID: 1}})

	c.Put(models.Demand{ID: 9, Title: "newest"})

	list := c.List()
	require.Len(t, list, 2)
	assert.Equal(t, int64(9), list[0].ID)
}

func TestCache_Remove(t *testing.T) {
	c := NewCache()
	c.ReplaceList([]models.Demand{{ID: 1}, {ID: 2}})

	c.Remove(1)

	_, ok := c.Get(1)
	assert.False(t, ok)
	assert.Len(t, c.List(), 1)
}

func TestCache_ListReturnsCopy(t *testing.T) {
	c := NewCache()
	c.ReplaceList([]models.Demand{{ID: 1, Title: "original"}})

	list := c.List()
	list[0].Title = "mutated"

	again := c.List()
	assert.Equal(t, "original", again[0].Title)
}
