package ir

import (
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// Nameable is implemented by every Value and by *Function.
type Nameable interface {
	nameable()
}

// nameTable hands out unique debug names. The first declaration keeps the
// requested name; later ones get _1, _2, ... suffixes.
type nameTable struct {
	names  map[Nameable]string
	used   map[string]struct{}
	suffix map[string]int
}

func newNameTable() nameTable {
	return nameTable{
		names:  make(map[Nameable]string),
		used:   make(map[string]struct{}),
		suffix: make(map[string]int),
	}
}

func (t *nameTable) unique(name string) string {
	if _, taken := t.used[name]; !taken {
		t.used[name] = struct{}{}
		return name
	}
	for {
		t.suffix[name]++
		candidate := name + "_" + strconv.Itoa(t.suffix[name])
		if _, taken := t.used[candidate]; !taken {
			t.used[candidate] = struct{}{}
			return candidate
		}
	}
}

// SetName gives x a unique debug name derived from name and returns it.
// Names are NFC-normalised first. An empty name clears the entry.
func (m *Module) SetName(x Nameable, name string) string {
	if name == "" {
		delete(m.names.names, x)
		return ""
	}
	got := m.names.unique(norm.NFC.String(name))
	m.names.names[x] = got
	return got
}

// NameOf returns the debug name of x, or "".
func (m *Module) NameOf(x Nameable) string {
	return m.names.names[x]
}
