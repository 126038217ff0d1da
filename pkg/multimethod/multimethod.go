package multimethod

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/funvibe/multimethod/pkg/typesystem"
)

// Multimethod is a callable directed acyclic graph of implementations
// registered under one name. Every registered signature records its
// immediate parents: the registered signatures strictly more general than it
// with nothing registered in between.
//
// A Multimethod is safe for concurrent use. Registrations are expected at
// setup time; a registration concurrent with a call may make that call
// resolve again but never yields a stale result.
type Multimethod struct {
	Name string
	ID   uuid.UUID

	opts     Options
	universe *typesystem.Universe
	logger   *slog.Logger

	mu       sync.RWMutex
	entries  map[string]*entry
	checkers []typesystem.Type // per position; nil means the plain class
	pending  []pendingRegistration

	pendingCount atomic.Int32
	cache        *resolutionCache
	universeGen  atomic.Uint64
	flight       singleflight.Group
}

type entry struct {
	sig    *Signature
	method *Method
}

type pendingRegistration struct {
	method   *Method
	required int
	types    []typesystem.Type
}

// New creates an empty multimethod.
func New(name string, opts ...Option) *Multimethod {
	o := buildOptions(opts)
	id := uuid.New()
	m := &Multimethod{
		Name:     name,
		ID:       id,
		opts:     o,
		universe: o.Universe,
		logger:   o.Logger.With("multimethod", name, "id", id.String()),
		entries:  make(map[string]*entry),
		cache:    newResolutionCache(o.DisableCache),
	}
	m.universeGen.Store(o.Universe.Generation())
	return m
}

// Universe returns the class universe arguments are typed against.
func (m *Multimethod) Universe() *typesystem.Universe { return m.universe }

// Register adds fn as the implementation for the given parameter types, all
// of them required. fn may be a *Method to share one implementation between
// several signatures.
func (m *Multimethod) Register(fn any, types ...typesystem.Type) error {
	method, err := NewMethod(m.Name, fn)
	if err != nil {
		return newDispatchError(m.Name, ErrMalformedSignature, nil, nil, err)
	}
	return m.RegisterMethod(method, len(types), types...)
}

// RegisterFunc registers fn under the signature derived from its Go
// parameter types. Trailing parameters of type any are left out of the
// signature; a variadic tail is optional.
func (m *Multimethod) RegisterFunc(fn any) error {
	method, err := NewMethod(m.Name, fn)
	if err != nil {
		return newDispatchError(m.Name, ErrMalformedSignature, nil, nil, err)
	}
	fnType := method.fn.Type()
	n := fnType.NumIn()
	if fnType.IsVariadic() {
		n--
	}
	types := make([]typesystem.Type, n)
	for i := range types {
		types[i] = m.universe.FromGoType(fnType.In(i))
	}
	for len(types) > 0 && typesystem.Equal(types[len(types)-1], typesystem.Any) &&
		fnType.In(len(types)-1).Kind() == reflect.Interface && fnType.In(len(types)-1).NumMethod() == 0 {
		types = types[:len(types)-1]
	}
	return m.RegisterMethod(method, len(types), types...)
}

// RegisterMethod adds method under the given types; only the first required
// positions must be supplied by a call. A type that refers to a class not
// defined yet defers the registration until the class exists.
func (m *Multimethod) RegisterMethod(method *Method, required int, types ...typesystem.Type) error {
	if required < 0 || required > len(types) {
		return newDispatchError(m.Name, ErrMalformedSignature, nil, nil,
			fmt.Errorf("required count %d out of range for %d types", required, len(types)))
	}
	if !method.conv.Accepts(len(types)) {
		return newDispatchError(m.Name, ErrMalformedSignature, nil, nil,
			fmt.Errorf("%s cannot accept %d arguments", method, len(types)))
	}

	normalized, err := typesystem.NormalizeAll(m.universe, types)
	var unresolved *typesystem.UnresolvedError
	if errors.As(err, &unresolved) {
		m.mu.Lock()
		m.pending = append(m.pending, pendingRegistration{method: method, required: required, types: types})
		m.pendingCount.Store(int32(len(m.pending)))
		m.mu.Unlock()
		m.logger.Debug("registration deferred", "reference", unresolved.Name)
		return nil
	}
	if err != nil {
		return newDispatchError(m.Name, ErrMalformedSignature, nil, nil, err)
	}

	sig := newSignature(normalized, required, method.conv)
	m.mu.Lock()
	m.insertLocked(sig, method)
	m.invalidateLocked()
	m.mu.Unlock()

	m.logger.Debug("registered", "signature", sig.String(), "parents", len(sig.parents))
	return nil
}

// insertLocked stores sig and keeps every parent set exact. Overwriting a
// signature with a different required count moves it in the order, so it is
// taken out and inserted again.
func (m *Multimethod) insertLocked(sig *Signature, method *Method) {
	if e, ok := m.entries[sig.key]; ok {
		if e.sig.Required == sig.Required {
			e.method = method
			e.sig.conv = sig.conv
			return
		}
		m.removeLocked(sig.key)
	}

	sig.parents = m.minimalParentsLocked(sig)
	m.entries[sig.key] = &entry{sig: sig, method: method}
	for _, e := range m.entries {
		if sig.StrictlyCovers(e.sig) {
			e.sig.parents = m.minimalParentsLocked(e.sig)
		}
	}
}

// removeLocked deletes key and recomputes the parent sets that referred to it.
func (m *Multimethod) removeLocked(key string) {
	delete(m.entries, key)
	for _, e := range m.entries {
		if _, ok := e.sig.parents[key]; ok {
			e.sig.parents = m.minimalParentsLocked(e.sig)
		}
	}
}

// minimalParentsLocked computes the immediate parents of sig by comparing
// the covering signatures pairwise. It does not trust the recorded parent
// sets, which may be mid-repair.
func (m *Multimethod) minimalParentsLocked(sig *Signature) map[string]*Signature {
	var covering []*Signature
	for _, e := range m.entries {
		if e.sig.StrictlyCovers(sig) {
			covering = append(covering, e.sig)
		}
	}
	parents := make(map[string]*Signature)
	for _, c := range minimal(covering) {
		parents[c.key] = c
	}
	return parents
}

// minimal drops every signature that strictly covers another one of sigs.
func minimal(sigs []*Signature) []*Signature {
	var out []*Signature
	for _, c := range sigs {
		superseded := false
		for _, other := range sigs {
			if c.StrictlyCovers(other) {
				superseded = true
				break
			}
		}
		if !superseded {
			out = append(out, c)
		}
	}
	return out
}

// Remove deletes the signature with the given types and repairs the parent
// sets that referred to it.
func (m *Multimethod) Remove(types ...typesystem.Type) error {
	normalized, err := typesystem.NormalizeAll(m.universe, types)
	if err != nil {
		return newDispatchError(m.Name, ErrMalformedSignature, nil, nil, err)
	}
	key := typesKey(normalized)

	m.mu.Lock()
	if _, ok := m.entries[key]; !ok {
		m.mu.Unlock()
		return newDispatchError(m.Name, ErrNoApplicableMethod, normalized, nil, errors.New("signature is not registered"))
	}
	m.removeLocked(key)
	m.invalidateLocked()
	m.mu.Unlock()

	m.logger.Debug("removed", "signature", typesString(normalized))
	return nil
}

// invalidateLocked rebuilds the per-position checkers and clears the cache.
func (m *Multimethod) invalidateLocked() {
	m.checkers = buildCheckers(m.entries)
	m.cache.clear()
}

// buildCheckers picks, per argument position, the type whose instance check
// computes argument types precisely enough for every registered signature.
// Positions where all registered types are plain classes need no checker.
func buildCheckers(entries map[string]*entry) []typesystem.Type {
	sigs := make([]*Signature, 0, len(entries))
	for _, e := range entries {
		sigs = append(sigs, e.sig)
	}
	sort.Slice(sigs, func(i, j int) bool { return sigs[i].key < sigs[j].key })

	var checkers []typesystem.Type
	for _, sig := range sigs {
		for i, t := range sig.Types {
			if !needsInspection(t) {
				continue
			}
			for len(checkers) <= i {
				checkers = append(checkers, nil)
			}
			switch existing := checkers[i]; {
			case existing == nil:
				checkers[i] = t
			case typesystem.IsSubtype(existing, t):
			default:
				checkers[i] = typesystem.NormalizeUnion([]typesystem.Type{existing, t})
			}
		}
	}
	return checkers
}

func needsInspection(t typesystem.Type) bool {
	switch typ := t.(type) {
	case typesystem.TCon:
		return false
	case typesystem.TUnion:
		for _, member := range typ.Types {
			if needsInspection(member) {
				return true
			}
		}
		return false
	}
	return true
}

// Clean empties the resolution cache.
func (m *Multimethod) Clean() {
	m.cache.clear()
}

// Len returns the number of registered signatures.
func (m *Multimethod) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Pending returns the number of deferred registrations.
func (m *Multimethod) Pending() int { return int(m.pendingCount.Load()) }

// Signatures returns a snapshot of the registered signatures sorted by key.
// The snapshot's parent sets refer to other snapshot signatures.
func (m *Multimethod) Signatures() []*Signature {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snapshot := snapshotLocked(m.entries)
	out := make([]*Signature, 0, len(snapshot))
	for _, e := range snapshot {
		out = append(out, e.sig)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

// Method returns the implementation registered for exactly these types.
func (m *Multimethod) Method(types ...typesystem.Type) (*Method, bool) {
	normalized, err := typesystem.NormalizeAll(m.universe, types)
	if err != nil {
		return nil, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[typesKey(normalized)]
	if !ok {
		return nil, false
	}
	return e.method, true
}

// detached copies sigs for use outside the lock. The copies' parents are
// copies too, without parents of their own.
func detached(sigs []*Signature) []*Signature {
	out := make([]*Signature, len(sigs))
	for i, s := range sigs {
		c := newSignature(s.Types, s.Required, s.conv)
		for pk, p := range s.parents {
			c.parents[pk] = newSignature(p.Types, p.Required, p.conv)
		}
		out[i] = c
	}
	return out
}

func snapshotLocked(entries map[string]*entry) map[string]*entry {
	out := make(map[string]*entry, len(entries))
	for key, e := range entries {
		out[key] = &entry{sig: newSignature(e.sig.Types, e.sig.Required, e.sig.conv), method: e.method}
	}
	for key, e := range entries {
		for pk := range e.sig.parents {
			out[key].sig.parents[pk] = out[pk].sig
		}
	}
	return out
}

// Copy returns an independent multimethod with the same registrations.
func (m *Multimethod) Copy() *Multimethod {
	c := New(m.Name, m.opts.asOptions()...)
	m.mu.RLock()
	defer m.mu.RUnlock()
	c.entries = snapshotLocked(m.entries)
	c.checkers = m.checkers
	c.pending = append([]pendingRegistration(nil), m.pending...)
	c.pendingCount.Store(int32(len(c.pending)))
	return c
}

// Evaluate retries deferred registrations. Those still referring to
// undefined classes stay deferred; those that turn out malformed are dropped
// and reported.
func (m *Multimethod) Evaluate() error {
	if m.pendingCount.Load() == 0 {
		return nil
	}

	m.mu.Lock()
	var errs []error
	var kept []pendingRegistration
	changed := false
	for _, p := range m.pending {
		normalized, err := typesystem.NormalizeAll(m.universe, p.types)
		var unresolved *typesystem.UnresolvedError
		switch {
		case errors.As(err, &unresolved):
			kept = append(kept, p)
		case err != nil:
			errs = append(errs, newDispatchError(m.Name, ErrMalformedSignature, nil, nil, err))
		default:
			m.insertLocked(newSignature(normalized, p.required, p.method.conv), p.method)
			changed = true
		}
	}
	m.pending = kept
	m.pendingCount.Store(int32(len(kept)))
	if changed {
		m.invalidateLocked()
	}
	m.mu.Unlock()

	if changed {
		m.logger.Debug("pending registrations evaluated", "remaining", len(kept))
	}
	return errors.Join(errs...)
}

// argTypes computes the dispatch types of args, inspecting positions that
// have a checker and using the plain class elsewhere.
func (m *Multimethod) argTypes(args []any) []typesystem.Type {
	m.mu.RLock()
	checkers := m.checkers
	m.mu.RUnlock()

	types := make([]typesystem.Type, len(args))
	for i, arg := range args {
		if i < len(checkers) && checkers[i] != nil {
			types[i] = checkers[i].InstanceType(m.universe, arg)
		} else {
			types[i] = m.universe.TypeOf(arg)
		}
	}
	return types
}

// Lookup resolves the implementation for the given arguments without
// calling it.
func (m *Multimethod) Lookup(args ...any) (*Method, error) {
	if err := m.Evaluate(); err != nil {
		return nil, err
	}
	return m.resolve(m.argTypes(args))
}

// Resolve returns the implementation for a call with arguments of the given
// types.
func (m *Multimethod) Resolve(types ...typesystem.Type) (*Method, error) {
	normalized, err := typesystem.NormalizeAll(m.universe, types)
	if err != nil {
		return nil, newDispatchError(m.Name, ErrMalformedSignature, nil, nil, err)
	}
	if err := m.Evaluate(); err != nil {
		return nil, err
	}
	return m.resolve(normalized)
}

// Call resolves the implementation for args and invokes it. Errors returned
// by the implementation are passed through unchanged.
func (m *Multimethod) Call(args ...any) (any, error) {
	if m.pendingCount.Load() > 0 {
		if err := m.Evaluate(); err != nil {
			return nil, err
		}
	}
	types := m.argTypes(args)
	method, err := m.resolve(types)
	if err != nil {
		return nil, err
	}
	return m.invoke(method, types, args)
}

func (m *Multimethod) invoke(method *Method, types []typesystem.Type, args []any) (any, error) {
	result, err := method.invoke(args)
	var argErr *argumentError
	if errors.As(err, &argErr) {
		return nil, newDispatchError(m.Name, ErrBadCall, types, nil, argErr.err)
	}
	return result, err
}

// Invoke calls m and asserts the result type.
func Invoke[R any](m *Multimethod, args ...any) (R, error) {
	var zero R
	result, err := m.Call(args...)
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}
	r, ok := result.(R)
	if !ok {
		return zero, newDispatchError(m.Name, ErrBadCall, nil, nil,
			fmt.Errorf("result of type %T is not %s", result, reflect.TypeFor[R]()))
	}
	return r, nil
}

// resolve finds the implementation for a type tuple: exact registration
// first, then the cache, then a walk of the graph. Concurrent walks for the
// same tuple and cache generation are coalesced.
func (m *Multimethod) resolve(types []typesystem.Type) (*Method, error) {
	key := typesKey(types)
	// resolutions cached before a class gained an interface base are stale
	if gen := m.universe.Generation(); m.universeGen.Swap(gen) != gen {
		m.cache.clear()
	}

	m.mu.RLock()
	var exact *Method
	if e, ok := m.entries[key]; ok {
		exact = e.method
	}
	m.mu.RUnlock()
	if exact != nil {
		return exact, nil
	}
	if method, ok := m.cache.load(key); ok {
		return method, nil
	}

	flightKey := strconv.FormatUint(m.cache.current(), 10) + "|" + key
	v, err, _ := m.flight.Do(flightKey, func() (any, error) {
		m.mu.RLock()
		gen := m.cache.current()
		method, candidates, err := m.walkLocked(key, types)
		m.mu.RUnlock()
		if err != nil {
			return nil, err
		}
		stored := m.cache.store(gen, key, method)
		m.logger.Debug("resolved", "types", typesString(types), "method", method.String(),
			"candidates", len(candidates), "cached", stored)
		return method, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Method), nil
}

// walkLocked selects the most specific applicable signatures. Among them
// the ones with the smallest distance tuple win; they must all share one
// implementation.
func (m *Multimethod) walkLocked(key string, types []typesystem.Type) (*Method, []*Signature, error) {
	if e, ok := m.entries[key]; ok {
		return e.method, []*Signature{e.sig}, nil
	}

	var applicable []*Signature
	for _, e := range m.entries {
		if e.sig.Covers(types) && e.sig.Callable(len(types)) {
			applicable = append(applicable, e.sig)
		}
	}
	candidates := minimal(applicable)
	if len(candidates) == 0 {
		return nil, nil, newDispatchError(m.Name, ErrNoApplicableMethod, types, nil, nil)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].key < candidates[j].key })

	var best []*Signature
	var bestDistance []int
	for _, c := range candidates {
		d := c.Distance(types)
		switch cmp := compareDistances(d, bestDistance); {
		case best == nil || cmp < 0:
			best, bestDistance = []*Signature{c}, d
		case cmp == 0:
			best = append(best, c)
		}
	}

	method := m.entries[best[0].key].method
	for _, sig := range best[1:] {
		if m.entries[sig.key].method != method {
			return nil, nil, newDispatchError(m.Name, ErrAmbiguousDispatch, types, detached(best), nil)
		}
	}
	return method, candidates, nil
}
