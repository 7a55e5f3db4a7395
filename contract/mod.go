// Package contract runs native contract code against the world state of the
// dev chain.
//
// A contract is a Code: a named constructor plus a set of methods. Deploying
// a contract stores the code name in the account state; its fields live in
// the account storage and are reached through Context.Storage.
package contract

import (
	"fmt"
	"sort"
	"sync"
)

// Method is an entry point of a contract.
type Method struct {
	Name    string
	Payable bool // accepts value
	View    bool // runs without write access
	Run     func(ctx *Context, args Args) (Values, error)
}

// Code describes a deployable contract.
type Code struct {
	Name        string
	Payable     bool // constructor accepts value
	Constructor func(ctx *Context, args Args) error
	Methods     map[string]*Method
}

// NewCode builds a Code from its methods.
func NewCode(name string, constructor func(ctx *Context, args Args) error, methods ...*Method) *Code {
	c := &Code{Name: name, Constructor: constructor, Methods: make(map[string]*Method, len(methods))}
	for _, m := range methods {
		c.Methods[m.Name] = m
	}
	return c
}

func (c *Code) Method(name string) (*Method, error) {
	m, ok := c.Methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownMethod, c.Name, name)
	}
	return m, nil
}

// Registry maps code names to Codes. The chain only deploys registered code.
type Registry struct {
	mu    sync.RWMutex
	codes map[string]*Code
}

func NewRegistry() *Registry {
	return &Registry{codes: make(map[string]*Code)}
}

func (r *Registry) Register(code *Code) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.codes[code.Name]; ok {
		return fmt.Errorf("code %s already registered", code.Name)
	}
	r.codes[code.Name] = code
	return nil
}

func (r *Registry) MustRegister(codes ...*Code) *Registry {
	for _, code := range codes {
		if err := r.Register(code); err != nil {
			panic(err)
		}
	}
	return r
}

func (r *Registry) Lookup(name string) (*Code, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	code, ok := r.codes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoCode, name)
	}
	return code, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.codes))
	for name := range r.codes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
