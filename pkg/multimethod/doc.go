// Package multimethod dispatches calls at runtime on the types of all
// arguments, not just the first.
//
// A Multimethod holds implementations registered under type signatures and
// picks the most specific one that applies to a call:
//   - Signatures are tuples of normalized types from the typesystem package,
//     so classes, parameterized containers, unions and literals all work.
//   - Registered signatures form a DAG of immediate parents, kept exact
//     across registrations and removals.
//   - Resolved calls are cached per argument-type tuple until the next change.
//   - Ties that distance cannot break are reported as ErrAmbiguousDispatch.
//
// Types, classes and universes come from
// github.com/funvibe/multimethod/pkg/typesystem. Typical usage:
//
//	u := typesystem.NewUniverse()
//	asteroidT := typesystem.Of(typesystem.MustDefineType[asteroid](u, "Asteroid"))
//	shipT := typesystem.Of(typesystem.MustDefineType[ship](u, "Ship"))
//
//	m := multimethod.New("collide", multimethod.WithUniverse(u))
//	_ = m.Register(func(a asteroid, b ship) string { return "boom" }, asteroidT, shipT)
//	_ = m.Register(func(a, b any) string { return "bounce" }, typesystem.Any, typesystem.Any)
//	result, err := m.Call(asteroid{}, ship{})
package multimethod
