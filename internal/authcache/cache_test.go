package authcache

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rcastell/propguard/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestCache_SetGet(t *testing.T) {
	c := New(16, time.Minute)
	userID, propertyID := uuid.New(), uuid.New()

	_, ok := c.Get(userID, propertyID)
	assert.False(t, ok)

	c.Set(userID, propertyID, Decision{Found: true, Role: models.RoleOwner})

	d, ok := c.Get(userID, propertyID)
	assert.True(t, ok)
	assert.True(t, d.Found)
	assert.Equal(t, models.RoleOwner, d.Role)
}

func TestCache_CachesConfirmedMiss(t *testing.T) {
	c := New(16, time.Minute)
	userID, propertyID := uuid.New(), uuid.New()

	c.Set(userID, propertyID, Decision{Found: false})

	d, ok := c.Get(userID, propertyID)
	assert.True(t, ok)
	assert.False(t, d.Found)
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New(16, 10*time.Millisecond)
	userID, propertyID := uuid.New(), uuid.New()

	c.Set(userID, propertyID, Decision{Found: true, Role: models.RoleViewer})
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get(userID, propertyID)
	assert.False(t, ok)
}

func TestCache_Invalidate(t *testing.T) {
	c := New(16, time.Minute)
	userID, propertyID := uuid.New(), uuid.New()

	c.Set(userID, propertyID, Decision{Found: true, Role: models.RoleViewer})
	c.Invalidate(userID, propertyID)

	_, ok := c.Get(userID, propertyID)
	assert.False(t, ok)
}

func TestCache_InvalidateProperty(t *testing.T) {
	c := New(16, time.Minute)
	propertyID := uuid.New()
	u1, u2 := uuid.New(), uuid.New()
	other := uuid.New()

	c.Set(u1, propertyID, Decision{Found: true, Role: models.RoleOwner})
	c.Set(u2, propertyID, Decision{Found: true, Role: models.RoleViewer})
	c.Set(u1, other, Decision{Found: true, Role: models.RoleViewer})

	c.InvalidateProperty(propertyID)

	_, ok := c.Get(u1, propertyID)
	assert.False(t, ok)
	_, ok = c.Get(u2, propertyID)
	assert.False(t, ok)
	_, ok = c.Get(u1, other)
	assert.True(t, ok, "entries for other properties survive")
}

func TestCache_BoundedSize(t *testing.T) {
	c := New(8, time.Minute)
	propertyID := uuid.New()

	for i := 0; i < 100; i++ {
		c.Set(uuid.New(), propertyID, Decision{Found: false})
	}

	assert.LessOrEqual(t, c.Len(), 8)
}
