package typesystem

// ExtendedMRO returns the keys of t's ancestry, most specific first. A
// parameterized node is listed before its origin's MRO.
func ExtendedMRO(t Type) []string {
	keys := []string{}
	if _, plain := t.(TCon); !plain {
		keys = append(keys, t.Key())
	}
	for _, c := range t.Origin().MRO() {
		keys = append(keys, c.Name)
	}
	return keys
}

// Distance is the number of steps from the actual type up to the declared
// type in the actual type's extended MRO. Unrelated types are as far away as
// Object. A union takes its closest member.
func Distance(declared, actual Type) int {
	if u, ok := declared.(TUnion); ok {
		best := -1
		for _, m := range u.Types {
			if d := Distance(m, actual); best < 0 || d < best {
				best = d
			}
		}
		return best
	}

	mro := ExtendedMRO(actual)
	if i := indexOf(mro, declared.Key()); i >= 0 {
		return i
	}
	if _, plain := declared.(TCon); !plain {
		if i := indexOf(mro, declared.Origin().Name); i >= 0 {
			return i
		}
	}
	return len(mro) - 1
}

func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}
