package remote

import (
	"sync"
	"time"

	"github.com/christopherklint97/stempel/internal/domain"
)

// ProjectCache holds the last full project listing (archived included) for ttl.
type ProjectCache struct {
	mu        sync.RWMutex
	projects  []domain.Project
	fetchedAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

func NewProjectCache(ttl time.Duration) *ProjectCache {
	return &ProjectCache{ttl: ttl, now: time.Now}
}

func (c *ProjectCache) Get() []domain.Project {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.projects == nil || c.now().Sub(c.fetchedAt) > c.ttl {
		return nil
	}

	result := make([]domain.Project, len(c.projects))
	copy(result, c.projects)
	return result
}

func (c *ProjectCache) Set(projects []domain.Project) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.projects = make([]domain.Project, len(projects))
	copy(c.projects, projects)
	c.fetchedAt = c.now()
}

func (c *ProjectCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.projects = nil
}
