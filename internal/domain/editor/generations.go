package editor

import "sync"

// Token identifies one in-flight load of a resource.
type Token struct {
	Key string
	Gen uint64
}

// Generations sequences overlapping loads of the same resource. Each Begin
// supersedes every earlier token for that key; a result whose token is no
// longer Current is stale and must be dropped. Every Begin is paired with
// an End once the load settles, and a key is forgotten when its last load
// ends, so the set holds only keys with loads in flight.
//
// The zero value is ready to use.
type Generations struct {
	mu   sync.Mutex
	keys map[string]*generation
}

type generation struct {
	gen      uint64
	inFlight int
}

// Begin starts a new load for key.
func (g *Generations) Begin(key string) Token {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.keys == nil {
		g.keys = make(map[string]*generation)
	}
	k, ok := g.keys[key]
	if !ok {
		k = &generation{}
		g.keys[key] = k
	}
	k.gen++
	k.inFlight++
	return Token{Key: key, Gen: k.gen}
}

// Current reports whether t is the latest token for its key. Call it before
// End for the same token.
func (g *Generations) Current(t Token) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	k, ok := g.keys[t.Key]
	return ok && k.gen == t.Gen
}

// End marks t's load as settled.
func (g *Generations) End(t Token) {
	g.mu.Lock()
	defer g.mu.Unlock()
	k, ok := g.keys[t.Key]
	if !ok {
		return
	}
	if k.inFlight--; k.inFlight <= 0 {
		delete(g.keys, t.Key)
	}
}

// Len is the number of keys with a load in flight.
func (g *Generations) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.keys)
}
