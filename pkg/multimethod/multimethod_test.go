package multimethod

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ts "github.com/funvibe/multimethod/pkg/typesystem"
)

type rock struct{}
type paper struct{}
type scissors struct{}

func newRoshambo(t *testing.T) (*Multimethod, [3]ts.Type) {
	t.Helper()
	u := ts.NewUniverse()
	r := ts.Of(ts.MustDefineType[rock](u, "Rock"))
	p := ts.Of(ts.MustDefineType[paper](u, "Paper"))
	s := ts.Of(ts.MustDefineType[scissors](u, "Scissors"))

	m := New("roshambo", WithUniverse(u))
	require.NoError(t, m.Register(func(a, b any) string { return "tie" }, ts.Any, ts.Any))
	require.NoError(t, m.Register(func(rock, scissors) string { return "rock smashes scissors" }, r, s))
	require.NoError(t, m.Register(func(scissors, rock) string { return "rock smashes scissors" }, s, r))
	require.NoError(t, m.Register(func(paper, rock) string { return "paper covers rock" }, p, r))
	require.NoError(t, m.Register(func(rock, paper) string { return "paper covers rock" }, r, p))
	require.NoError(t, m.Register(func(scissors, paper) string { return "scissors cut paper" }, s, p))
	require.NoError(t, m.Register(func(paper, scissors) string { return "scissors cut paper" }, p, s))
	return m, [3]ts.Type{r, p, s}
}

// assertParentsExact checks every recorded parent set against a brute-force
// computation over all registered signatures.
func assertParentsExact(t *testing.T, m *Multimethod) {
	t.Helper()
	sigs := m.Signatures()
	for _, s := range sigs {
		want := []string{}
		for _, p := range sigs {
			if !p.StrictlyCovers(s) {
				continue
			}
			between := false
			for _, q := range sigs {
				if p.StrictlyCovers(q) && q.StrictlyCovers(s) {
					between = true
					break
				}
			}
			if !between {
				want = append(want, p.Key())
			}
		}
		got := []string{}
		for _, p := range s.Parents() {
			got = append(got, p.Key())
		}
		assert.ElementsMatch(t, want, got, "parents of %s", s)
	}
}

func TestRoshambo(t *testing.T) {
	m, _ := newRoshambo(t)
	assertParentsExact(t, m)

	tests := []struct {
		a, b any
		want string
	}{
		{rock{}, paper{}, "paper covers rock"},
		{paper{}, rock{}, "paper covers rock"},
		{scissors{}, paper{}, "scissors cut paper"},
		{rock{}, scissors{}, "rock smashes scissors"},
		{rock{}, rock{}, "tie"},
		{paper{}, paper{}, "tie"},
		{&rock{}, &paper{}, "paper covers rock"},
	}
	for _, tt := range tests {
		got, err := Invoke[string](m, tt.a, tt.b)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	require.NoError(t, m.Remove(ts.Any, ts.Any))
	assertParentsExact(t, m)

	_, err := m.Call(rock{}, rock{})
	require.ErrorIs(t, err, ErrNoApplicableMethod)
	var derr *DispatchError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "roshambo", derr.Name)
	assert.Len(t, derr.Types, 2)

	got, err := m.Call(rock{}, paper{})
	require.NoError(t, err)
	assert.Equal(t, "paper covers rock", got)
}

func TestGenericContainers(t *testing.T) {
	m := New("container", WithUniverse(ts.NewUniverse()))
	require.NoError(t, m.Register(func(v []int) string { return "int" }, ts.ListOf(ts.Int)))
	require.NoError(t, m.Register(func(v []bool) string { return "bool" }, ts.ListOf(ts.Bool)))
	assertParentsExact(t, m)

	got, err := m.Call([]int{0})
	require.NoError(t, err)
	assert.Equal(t, "int", got)

	got, err = m.Call([]any{0})
	require.NoError(t, err)
	assert.Equal(t, "int", got)

	got, err = m.Call([]bool{true})
	require.NoError(t, err)
	assert.Equal(t, "bool", got)

	got, err = m.Call([]int{})
	require.NoError(t, err)
	assert.Equal(t, "bool", got)

	_, err = m.Call([]float64{0.0})
	assert.ErrorIs(t, err, ErrNoApplicableMethod)

	require.NoError(t, m.Register(func(v any) string { return "list" }, ts.List))
	got, err = m.Call([]float64{0.0})
	require.NoError(t, err)
	assert.Equal(t, "list", got)

	// the cached result for [0] must not leak to [0.0]
	got, err = m.Call([]int{0})
	require.NoError(t, err)
	assert.Equal(t, "int", got)
}

func TestMappingsAndTuples(t *testing.T) {
	m := New("shape", WithUniverse(ts.NewUniverse()))
	require.NoError(t, m.Register(func(any) string { return "str to int" }, ts.MapOf(ts.Str, ts.Int)))
	require.NoError(t, m.Register(func(any) string { return "mapping" }, ts.Mapping))
	require.NoError(t, m.Register(func(any) string { return "pair" }, ts.TupleOf(ts.Int, ts.Str)))
	require.NoError(t, m.Register(func(any) string { return "ints" }, ts.VarTupleOf(ts.Int)))
	require.NoError(t, m.Register(func(any) string { return "tuple" }, ts.TupleT))
	assertParentsExact(t, m)

	tests := []struct {
		arg  any
		want string
	}{
		{map[string]int{"a": 1}, "str to int"},
		{map[string]string{"a": "b"}, "mapping"},
		{map[string]int{}, "str to int"},
		{ts.Tuple{1, "a"}, "pair"},
		{ts.Tuple{1, 2, 3}, "ints"},
		{ts.Tuple{}, "ints"},
		{ts.Tuple{"a", 1}, "tuple"},
	}
	for _, tt := range tests {
		got, err := m.Call(tt.arg)
		require.NoError(t, err, "%v", tt.arg)
		assert.Equal(t, tt.want, got, "%v", tt.arg)
	}
}

func TestLiterals(t *testing.T) {
	m := New("move", WithUniverse(ts.NewUniverse()))
	require.NoError(t, m.Register(func(string) string { return "rock" }, ts.Literal("rock")))
	require.NoError(t, m.Register(func(string) string { return "paper or scissors" }, ts.Literal("paper", "scissors")))
	require.NoError(t, m.Register(func(string) string { return "other" }, ts.Str))
	assertParentsExact(t, m)

	for arg, want := range map[string]string{
		"rock":     "rock",
		"paper":    "paper or scissors",
		"scissors": "paper or scissors",
		"lizard":   "other",
	} {
		got, err := m.Call(arg)
		require.NoError(t, err)
		assert.Equal(t, want, got, arg)
	}
}

func TestUnionPreference(t *testing.T) {
	m := New("number", WithUniverse(ts.NewUniverse()))
	require.NoError(t, m.Register(func(any) string { return "int or float" }, ts.Union(ts.Int, ts.Float)))
	require.NoError(t, m.Register(func(any) string { return "int" }, ts.Int))

	for _, tt := range []struct {
		arg  any
		want string
	}{
		{1, "int"},
		{true, "int"},
		{1.5, "int or float"},
	} {
		got, err := m.Call(tt.arg)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
	_, err := m.Call("x")
	assert.ErrorIs(t, err, ErrNoApplicableMethod)
}

func TestAmbiguitySymmetry(t *testing.T) {
	m := New("ambiguous", WithUniverse(ts.NewUniverse()))
	require.NoError(t, m.Register(func(any) string { return "int or str" }, ts.Union(ts.Int, ts.Str)))
	require.NoError(t, m.Register(func(any) string { return "int or float" }, ts.Union(ts.Int, ts.Float)))

	_, err := m.Call(1)
	require.ErrorIs(t, err, ErrAmbiguousDispatch)
	var derr *DispatchError
	require.ErrorAs(t, err, &derr)
	assert.Len(t, derr.Candidates, 2)
	assert.Contains(t, err.Error(), "2 candidates")

	require.NoError(t, m.Register(func(any) string { return "any" }, ts.Any))
	for _, c := range derr.Candidates {
		assert.Empty(t, c.Parents(), "candidate %s", c)
	}
	for _, s := range m.Signatures() {
		if s.Key() != "(Object)" {
			assert.Len(t, s.Parents(), 1, "signature %s", s)
		}
	}

	got, err := m.Call("s")
	require.NoError(t, err)
	assert.Equal(t, "int or str", got)

	require.NoError(t, m.Register(func(any) string { return "int" }, ts.Int))
	got, err = m.Call(1)
	require.NoError(t, err)
	assert.Equal(t, "int", got)
	got, err = m.Call(false)
	require.NoError(t, err)
	assert.Equal(t, "int", got)
}

func TestSharedMethodIsNotAmbiguous(t *testing.T) {
	m := New("shared", WithUniverse(ts.NewUniverse()))
	shared, err := NewMethod("shared", func(any) string { return "shared" })
	require.NoError(t, err)
	require.NoError(t, m.Register(shared, ts.Union(ts.Int, ts.Str)))
	require.NoError(t, m.Register(shared, ts.Union(ts.Int, ts.Float)))
	assert.Equal(t, 2, m.Len())

	got, err := m.Call(1)
	require.NoError(t, err)
	assert.Equal(t, "shared", got)
}

func newHierarchy(t *testing.T) (*ts.Universe, map[string]*ts.Class) {
	t.Helper()
	u := ts.NewUniverse()
	classes := map[string]*ts.Class{}
	define := func(name string, bases ...string) {
		var bs []*ts.Class
		for _, b := range bases {
			bs = append(bs, classes[b])
		}
		c, err := u.Define(name, bs...)
		require.NoError(t, err)
		classes[name] = c
	}
	define("A")
	define("B", "A")
	define("C", "A")
	define("D", "B", "C")
	define("E", "B")
	return u, classes
}

func TestDistanceBreaksTies(t *testing.T) {
	u, c := newHierarchy(t)
	m := New("tie", WithUniverse(u))
	require.NoError(t, m.Register(func(a, b any) string { return "A,E" }, ts.Of(c["A"]), ts.Of(c["E"])))
	require.NoError(t, m.Register(func(a, b any) string { return "B,B" }, ts.Of(c["B"]), ts.Of(c["B"])))

	e := ts.Instance{Class: c["E"]}
	got, err := m.Call(e, e)
	require.NoError(t, err)
	assert.Equal(t, "B,B", got)
}

func TestRemovalRepair(t *testing.T) {
	u, c := newHierarchy(t)
	m := New("repair", WithUniverse(u))
	for _, name := range []string{"A", "B", "E"} {
		name := name
		require.NoError(t, m.Register(func(any) string { return name }, ts.Of(c[name])))
	}
	assertParentsExact(t, m)

	sigs := m.Signatures()
	require.Len(t, sigs, 3)
	byKey := map[string]*Signature{}
	for _, s := range sigs {
		byKey[s.Key()] = s
	}
	require.Len(t, byKey["(E)"].Parents(), 1)
	assert.Equal(t, "(B)", byKey["(E)"].Parents()[0].Key())

	b := ts.Instance{Class: c["B"]}
	e := ts.Instance{Class: c["E"]}
	d := ts.Instance{Class: c["D"]}
	for arg, want := range map[ts.Instance]string{b: "B", e: "E", d: "B"} {
		got, err := m.Call(arg)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	require.NoError(t, m.Remove(ts.Of(c["B"])))
	assertParentsExact(t, m)
	for _, s := range m.Signatures() {
		if s.Key() == "(E)" {
			require.Len(t, s.Parents(), 1)
			assert.Equal(t, "(A)", s.Parents()[0].Key())
		}
	}
	for arg, want := range map[ts.Instance]string{b: "A", e: "E", d: "A"} {
		got, err := m.Call(arg)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	err := m.Remove(ts.Of(c["B"]))
	assert.ErrorIs(t, err, ErrNoApplicableMethod)
}

func TestInsertBetween(t *testing.T) {
	u, c := newHierarchy(t)
	m := New("between", WithUniverse(u))
	require.NoError(t, m.Register(func(any) string { return "A" }, ts.Of(c["A"])))
	require.NoError(t, m.Register(func(any) string { return "D" }, ts.Of(c["D"])))
	require.NoError(t, m.Register(func(any) string { return "E" }, ts.Of(c["E"])))
	assertParentsExact(t, m)

	require.NoError(t, m.Register(func(any) string { return "B" }, ts.Of(c["B"])))
	assertParentsExact(t, m)
	require.NoError(t, m.Register(func(any) string { return "C" }, ts.Of(c["C"])))
	assertParentsExact(t, m)
	require.NoError(t, m.Register(func(a, b any) string { return "A,A" }, ts.Of(c["A"]), ts.Of(c["A"])))
	assertParentsExact(t, m)

	for _, s := range m.Signatures() {
		if s.Key() == "(D)" {
			keys := []string{}
			for _, p := range s.Parents() {
				keys = append(keys, p.Key())
			}
			assert.Equal(t, []string{"(B)", "(C)"}, keys)
		}
	}
}

func TestExactMatch(t *testing.T) {
	u, c := newHierarchy(t)
	m := New("exact", WithUniverse(u))
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		name := name
		require.NoError(t, m.Register(func(any) string { return name }, ts.Of(c[name])))
	}
	require.NoError(t, m.Register(func(any) string { return "B|C" }, ts.Union(ts.Of(c["B"]), ts.Of(c["C"]))))

	for _, name := range []string{"A", "B", "C", "D", "E"} {
		got, err := m.Call(ts.Instance{Class: c[name]})
		require.NoError(t, err)
		assert.Equal(t, name, got)
	}
}

func TestAntisymmetry(t *testing.T) {
	u, c := newHierarchy(t)
	m := New("order", WithUniverse(u))
	pool := []ts.Type{
		ts.Any, ts.Of(c["A"]), ts.Of(c["B"]), ts.Of(c["C"]), ts.Of(c["D"]),
		ts.Union(ts.Of(c["B"]), ts.Of(c["C"])), ts.Union(ts.Of(c["D"]), ts.Of(c["E"])),
	}
	for _, x := range pool {
		for _, y := range pool {
			require.NoError(t, m.Register(func(a, b any) {}, x, y))
		}
	}
	assertParentsExact(t, m)

	sigs := m.Signatures()
	for _, a := range sigs {
		for _, b := range sigs {
			if a.Covers(b.Types) && b.Covers(a.Types) {
				assert.Equal(t, a.Key(), b.Key())
			}
		}
	}
}

func TestPendingForwardReference(t *testing.T) {
	u := ts.NewUniverse()
	m := New("forward", WithUniverse(u))
	require.NoError(t, m.Register(func(any) string { return "later" }, ts.Ref("Later")))
	require.NoError(t, m.Register(func(any) string { return "int" }, ts.Int))
	assert.Equal(t, 1, m.Pending())
	assert.Equal(t, 1, m.Len())

	got, err := m.Call(1)
	require.NoError(t, err)
	assert.Equal(t, "int", got)
	assert.Equal(t, 1, m.Pending())

	later, err := u.Define("Later")
	require.NoError(t, err)
	got, err = m.Call(ts.Instance{Class: later})
	require.NoError(t, err)
	assert.Equal(t, "later", got)
	assert.Equal(t, 0, m.Pending())
	assert.Equal(t, 2, m.Len())
}

func TestPendingBecomesMalformed(t *testing.T) {
	u := ts.NewUniverse()
	m := New("forward", WithUniverse(u))
	require.NoError(t, m.Register(func(any) {}, ts.Ref("Box", ts.Int)))
	assert.Equal(t, 1, m.Pending())

	_, err := u.Define("Box")
	require.NoError(t, err)
	err = m.Evaluate()
	require.ErrorIs(t, err, ErrMalformedSignature)
	var merr *ts.MalformedError
	assert.ErrorAs(t, err, &merr)
	assert.Equal(t, 0, m.Pending())
	assert.Equal(t, 0, m.Len())
}

func TestArityGuard(t *testing.T) {
	m := New("arity", WithUniverse(ts.NewUniverse()))
	require.NoError(t, m.Register(func(a any) string { return "one" }, ts.Any))
	require.NoError(t, m.Register(func(a, b any) string { return "two" }, ts.Any, ts.Any))

	got, err := m.Call(1)
	require.NoError(t, err)
	assert.Equal(t, "one", got)

	got, err = m.Call(1, 2)
	require.NoError(t, err)
	assert.Equal(t, "two", got)

	_, err = m.Call(1, 2, 3)
	assert.ErrorIs(t, err, ErrNoApplicableMethod)

	_, err = m.Call()
	assert.ErrorIs(t, err, ErrNoApplicableMethod)

	require.NoError(t, m.Register(func(args ...any) int { return len(args) }))
	got, err = m.Call()
	require.NoError(t, err)
	assert.Equal(t, 0, got)
	got, err = m.Call(1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, got)
}

func TestOptionalParameters(t *testing.T) {
	m := New("optional", WithUniverse(ts.NewUniverse()))
	method, err := NewMethod("optional", func(a int, b string) string { return "b=" + b })
	require.NoError(t, err)
	require.NoError(t, m.RegisterMethod(method, 1, ts.Int, ts.Str))

	got, err := m.Call(1)
	require.NoError(t, err)
	assert.Equal(t, "b=", got)

	got, err = m.Call(1, "x")
	require.NoError(t, err)
	assert.Equal(t, "b=x", got)

	_, err = m.Call(1, 2)
	assert.ErrorIs(t, err, ErrNoApplicableMethod)
}

func TestRegisterFunc(t *testing.T) {
	m := New("derived", WithUniverse(ts.NewUniverse()))
	require.NoError(t, m.RegisterFunc(func(a int, b string) string { return "int,str" }))
	require.NoError(t, m.RegisterFunc(func(a []int, rest any) string { return "ints" }))
	require.NoError(t, m.RegisterFunc(func(a float64, b any) string { return "float" }))

	keys := []string{}
	for _, s := range m.Signatures() {
		keys = append(keys, s.Key())
	}
	assert.ElementsMatch(t, []string{"(Int, Str)", "(List[Int])", "(Float)"}, keys)

	got, err := m.Call(1, "a")
	require.NoError(t, err)
	assert.Equal(t, "int,str", got)

	got, err = m.Call([]int{1})
	require.NoError(t, err)
	assert.Equal(t, "ints", got)

	got, err = m.Call(1.5, "anything")
	require.NoError(t, err)
	assert.Equal(t, "float", got)
}

func TestOverwrite(t *testing.T) {
	m := New("overwrite", WithUniverse(ts.NewUniverse()))
	require.NoError(t, m.Register(func(any) string { return "first" }, ts.Int))
	_, err := m.Call(true)
	require.NoError(t, err)
	require.NoError(t, m.Register(func(any) string { return "second" }, ts.Int))
	assert.Equal(t, 1, m.Len())

	got, err := m.Call(true)
	require.NoError(t, err)
	assert.Equal(t, "second", got)
}

func TestMalformedRegistration(t *testing.T) {
	m := New("malformed", WithUniverse(ts.NewUniverse()))

	err := m.Register("not a function", ts.Int)
	assert.ErrorIs(t, err, ErrMalformedSignature)

	err = m.Register(func(any) {}, ts.Generic(ts.IntClass, ts.Str))
	assert.ErrorIs(t, err, ErrMalformedSignature)
	var merr *ts.MalformedError
	assert.ErrorAs(t, err, &merr)

	err = m.Register(func(any) {}, ts.Int, ts.Int)
	assert.ErrorIs(t, err, ErrMalformedSignature)

	method, _ := NewMethod("malformed", func(a, b any) {})
	err = m.RegisterMethod(method, 3, ts.Int, ts.Int)
	assert.ErrorIs(t, err, ErrMalformedSignature)

	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, m.Pending())
}

func TestCallErrors(t *testing.T) {
	boom := errors.New("boom")
	m := New("errors", WithUniverse(ts.NewUniverse()))
	require.NoError(t, m.Register(func(any) (string, error) { return "", boom }, ts.Float))
	require.NoError(t, m.Register(func(s string) string { return s }, ts.Int))

	_, err := m.Call(1.5)
	assert.ErrorIs(t, err, boom)
	var derr *DispatchError
	assert.False(t, errors.As(err, &derr))

	_, err = m.Call(1)
	assert.ErrorIs(t, err, ErrBadCall)
	assert.ErrorAs(t, err, &derr)

	_, err = Invoke[int](m, 1.5)
	assert.ErrorIs(t, err, boom)

	require.NoError(t, m.Register(func(any) string { return "str" }, ts.Str))
	_, err = Invoke[int](m, "x")
	assert.ErrorIs(t, err, ErrBadCall)
}

func TestLookupAndResolve(t *testing.T) {
	m, types := newRoshambo(t)

	method, err := m.Lookup(rock{}, paper{})
	require.NoError(t, err)
	got, err := method.Call(rock{}, paper{})
	require.NoError(t, err)
	assert.Equal(t, "paper covers rock", got)

	method, err = m.Resolve(types[0], types[0])
	require.NoError(t, err)
	got, err = method.Call(rock{}, rock{})
	require.NoError(t, err)
	assert.Equal(t, "tie", got)

	exact, ok := m.Method(ts.Any, ts.Any)
	require.True(t, ok)
	assert.Same(t, exact, method)

	_, ok = m.Method(types[0], types[0])
	assert.False(t, ok)
}

func TestCopy(t *testing.T) {
	m, types := newRoshambo(t)
	c := m.Copy()
	assert.Equal(t, m.Len(), c.Len())
	assert.NotEqual(t, m.ID, c.ID)
	assertParentsExact(t, c)

	require.NoError(t, c.Remove(ts.Any, ts.Any))
	assert.Equal(t, m.Len()-1, c.Len())

	got, err := m.Call(rock{}, rock{})
	require.NoError(t, err)
	assert.Equal(t, "tie", got)
	_, err = c.Call(rock{}, rock{})
	assert.ErrorIs(t, err, ErrNoApplicableMethod)

	require.NoError(t, c.Register(func(any, any) string { return "rocks" }, types[0], types[0]))
	_, ok := m.Method(types[0], types[0])
	assert.False(t, ok)
}

func TestOptionalPositionsStayOrdered(t *testing.T) {
	one, err := NewMethod("one", func(a any) string { return "one" })
	require.NoError(t, err)
	two, err := NewMethod("two", func(a, b any) string { return "two" })
	require.NoError(t, err)
	pair, err := NewMethod("pair", func(a, b any) string { return "pair" })
	require.NoError(t, err)

	register := map[string]func(m *Multimethod){
		"one":  func(m *Multimethod) { require.NoError(t, m.RegisterMethod(one, 1, ts.Int)) },
		"two":  func(m *Multimethod) { require.NoError(t, m.RegisterMethod(two, 0, ts.Int, ts.Int)) },
		"pair": func(m *Multimethod) { require.NoError(t, m.RegisterMethod(pair, 2, ts.Any, ts.Any)) },
	}
	for _, order := range [][]string{{"one", "two", "pair"}, {"pair", "two", "one"}, {"two", "one", "pair"}} {
		m := New("optional", WithUniverse(ts.NewUniverse()))
		for _, name := range order {
			register[name](m)
		}
		assertParentsExact(t, m)

		sigs := m.Signatures()
		for _, a := range sigs {
			for _, b := range sigs {
				assert.False(t, a.StrictlyCovers(b) && b.StrictlyCovers(a), "%s and %s", a, b)
			}
		}
		parents := map[string][]string{}
		for _, s := range sigs {
			for _, p := range s.Parents() {
				parents[s.Key()] = append(parents[s.Key()], p.Key())
			}
		}
		assert.Equal(t, map[string][]string{
			"(Int)":      {"(Int, Int)"},
			"(Int, Int)": {"(Object, Object)"},
		}, parents, "order %v", order)

		got, err := m.Call(true)
		require.NoError(t, err)
		assert.Equal(t, "one", got)

		got, err = m.Call()
		require.NoError(t, err)
		assert.Equal(t, "two", got)

		got, err = m.Call(1, 2)
		require.NoError(t, err)
		assert.Equal(t, "two", got)

		got, err = m.Call(1, "x")
		require.NoError(t, err)
		assert.Equal(t, "pair", got)
	}
}

func TestOverwriteChangesRequired(t *testing.T) {
	m := New("required", WithUniverse(ts.NewUniverse()))
	one, err := NewMethod("one", func(a any) string { return "one" })
	require.NoError(t, err)
	two, err := NewMethod("two", func(a, b any) string { return "two" })
	require.NoError(t, err)
	require.NoError(t, m.RegisterMethod(one, 1, ts.Int))
	require.NoError(t, m.RegisterMethod(two, 0, ts.Int, ts.Int))
	assertParentsExact(t, m)

	require.NoError(t, m.RegisterMethod(two, 2, ts.Int, ts.Int))
	assert.Equal(t, 2, m.Len())
	assertParentsExact(t, m)

	for _, s := range m.Signatures() {
		if s.Key() == "(Int, Int)" {
			require.Len(t, s.Parents(), 1)
			assert.Equal(t, "(Int)", s.Parents()[0].Key())
		}
	}

	_, err = m.Call()
	assert.ErrorIs(t, err, ErrNoApplicableMethod)
	got, err := m.Call(1, 2)
	require.NoError(t, err)
	assert.Equal(t, "two", got)
}

func TestBoolArgumentForIntParameter(t *testing.T) {
	m := New("scale", WithUniverse(ts.NewUniverse()))
	require.NoError(t, m.Register(func(x int) int { return x * 10 }, ts.Int))

	got, err := Invoke[int](m, true)
	require.NoError(t, err)
	assert.Equal(t, 10, got)

	got, err = Invoke[int](m, false)
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	got, err = Invoke[int](m, 4)
	require.NoError(t, err)
	assert.Equal(t, 40, got)
}

func TestErrorParameter(t *testing.T) {
	m := New("explain", WithUniverse(ts.NewUniverse()))
	require.NoError(t, m.RegisterFunc(func(e error) string { return "error: " + e.Error() }))

	sigs := m.Signatures()
	require.Len(t, sigs, 1)
	assert.Equal(t, "(Error)", sigs[0].Key())

	got, err := m.Call(errors.New("boom"))
	require.NoError(t, err)
	assert.Equal(t, "error: boom", got)

	got, err = m.Call(fmt.Errorf("wrapped: %w", errors.New("boom")))
	require.NoError(t, err)
	assert.Equal(t, "error: wrapped: boom", got)

	_, err = m.Call("not an error")
	assert.ErrorIs(t, err, ErrNoApplicableMethod)
	_, err = m.Call()
	assert.ErrorIs(t, err, ErrNoApplicableMethod)
}

type label struct{ text string }

func (l label) String() string { return l.text }

func TestInterfaceClassAfterDispatch(t *testing.T) {
	describe := func(m *Multimethod) {
		require.NoError(t, m.Register(func(any) string { return "object" }, ts.Any))
	}
	stringer := func(m *Multimethod) {
		require.NoError(t, m.RegisterFunc(func(s fmt.Stringer) string { return "stringer " + s.String() }))
	}

	early := New("early", WithUniverse(ts.NewUniverse()))
	stringer(early)
	describe(early)

	late := New("late", WithUniverse(ts.NewUniverse()))
	describe(late)
	got, err := late.Call(label{"a"})
	require.NoError(t, err)
	assert.Equal(t, "object", got)
	stringer(late)

	for _, m := range []*Multimethod{early, late} {
		got, err := m.Call(label{"b"})
		require.NoError(t, err)
		assert.Equal(t, "stringer b", got, m.Name)

		got, err = m.Call(&label{"c"})
		require.NoError(t, err)
		assert.Equal(t, "stringer c", got, m.Name)

		got, err = m.Call(1)
		require.NoError(t, err)
		assert.Equal(t, "object", got, m.Name)
	}
}

func TestInterfaceClassClearsSharedCaches(t *testing.T) {
	u := ts.NewUniverse()
	other := New("other", WithUniverse(u))
	require.NoError(t, other.Register(func(any) string { return "object" }, ts.Any))
	require.NoError(t, other.Register(func(any) string { return "error" }, ts.ErrorT))

	got, err := other.Call(label{"a"})
	require.NoError(t, err)
	assert.Equal(t, "object", got)
	assert.Equal(t, 1, other.cache.size())

	start := u.Generation()
	m := New("stringer", WithUniverse(u))
	require.NoError(t, m.RegisterFunc(func(s fmt.Stringer) string { return "stringer" }))
	assert.Greater(t, u.Generation(), start)

	cacheGen := other.cache.current()
	got, err = other.Call(label{"a"})
	require.NoError(t, err)
	assert.Equal(t, "object", got)
	assert.Greater(t, other.cache.current(), cacheGen)

	got, err = m.Call(label{"b"})
	require.NoError(t, err)
	assert.Equal(t, "stringer", got)
}
