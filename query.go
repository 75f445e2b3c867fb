package weave

import (
	"fmt"
)

// Query modifiers select how the query data is interpreted. With the key
// modifier the data is the exact key of a single model, with the prefix
// modifier all models whose key starts with the data are returned.
const (
	KeyQueryMod    = ""
	PrefixQueryMod = "prefix"
)

// Model is a single key and value pair returned by a query.
type Model struct {
	Key   []byte
	Value []byte
}

// Pair returns a model with given key and value.
func Pair(key, value []byte) Model {
	return Model{Key: key, Value: value}
}

// QueryHandler serves read-only queries against the committed state.
type QueryHandler interface {
	Query(db ReadOnlyKVStore, mod string, data []byte) ([]Model, error)
}

// QueryRegister attaches the query handlers of a single extension.
type QueryRegister func(QueryRouter)

// QueryRouter maps query paths, for example "/escrows", to handlers.
type QueryRouter struct {
	routes map[string]QueryHandler
}

// NewQueryRouter returns a router without any paths.
func NewQueryRouter() QueryRouter {
	return QueryRouter{routes: make(map[string]QueryHandler)}
}

// RegisterAll calls each register function with this router.
func (r QueryRouter) RegisterAll(regs ...QueryRegister) {
	for _, reg := range regs {
		reg(r)
	}
}

// Register binds a handler to the path. A path can be bound only once,
// a second registration panics.
func (r QueryRouter) Register(path string, h QueryHandler) {
	if _, ok := r.routes[path]; ok {
		panic(fmt.Sprintf("query path %q already registered", path))
	}
	r.routes[path] = h
}

// Handler returns the handler bound to the path or nil.
func (r QueryRouter) Handler(path string) QueryHandler {
	return r.routes[path]
}
