package settings

import "sync"

// ProgramCache stores compiled expression programs keyed by expression
// strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// NewProgramCache returns the default in-memory cache. It is safe for
// concurrent use.
func NewProgramCache() ProgramCache {
	return &memoryProgramCache{}
}

type memoryProgramCache struct {
	programs sync.Map
}

func (c *memoryProgramCache) Get(key string) (any, bool) {
	return c.programs.Load(key)
}

func (c *memoryProgramCache) Set(key string, value any) {
	c.programs.Store(key, value)
}
