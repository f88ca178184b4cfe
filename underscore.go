package apicall

import (
	"strings"
	"sync"
)

// maxUnderscoreCache caps the number of memoized names. Once full, names are
// still transformed but no longer stored.
const maxUnderscoreCache = 4096

var underscoreCache = &nameCache{m: make(map[string]string)}

type nameCache struct {
	lk sync.RWMutex
	m  map[string]string
}

func (c *nameCache) get(name string) (string, bool) {
	c.lk.RLock()
	defer c.lk.RUnlock()
	v, ok := c.m[name]
	return v, ok
}

func (c *nameCache) put(name, value string) {
	c.lk.Lock()
	defer c.lk.Unlock()
	if len(c.m) >= maxUnderscoreCache {
		return
	}
	c.m[name] = value
}

func (c *nameCache) len() int {
	c.lk.RLock()
	defer c.lk.RUnlock()
	return len(c.m)
}

// Underscore decamelizes name: an "_" is inserted before every uppercase
// ASCII letter that follows another character, and that letter is lower-cased.
// Other bytes, including non-ASCII ones, are kept as is.
// Consecutive capitals each get their own separator, so "UserID" becomes
// "user_i_d".
func Underscore(name string) string {
	if v, ok := underscoreCache.get(name); ok {
		return v
	}

	var b strings.Builder
	b.Grow(len(name) + 4)
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'A' && c <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			c += 'a' - 'A'
		}
		b.WriteByte(c)
	}
	res := b.String()

	underscoreCache.put(name, res)
	return res
}
