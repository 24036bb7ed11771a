// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package csr

import (
	"sort"
	"strconv"

	"github.com/pkg/errors"
)

// An AddressMap assigns every bank name a unique index in the bank address
// space.
//
type AddressMap struct {
	index map[string]int
	names []string
}

// Assign builds an address map for the named banks.
//
// Banks listed in overrides are pinned to the given index. The remaining
// banks take the lowest free index, in the order they appear in order. The
// result only depends on the arguments.
//
func Assign(order []string, overrides map[string]int, capacity int) (*AddressMap, error) {
	if capacity <= 0 {
		return nil, errors.New("invalid address map capacity " + strconv.Itoa(capacity))
	}
	m := &AddressMap{
		index: make(map[string]int, len(order)),
		names: make([]string, capacity),
	}
	known := make(map[string]bool, len(order))
	for _, n := range order {
		if n == "" {
			return nil, errors.New("empty bank name")
		}
		if known[n] {
			return nil, errors.New("duplicate bank name " + n)
		}
		known[n] = true
	}

	pinned := make([]string, 0, len(overrides))
	for k := range overrides {
		pinned = append(pinned, k)
	}
	sort.Strings(pinned)
	for _, n := range pinned {
		i := overrides[n]
		if !known[n] {
			return nil, errors.New("address override for unknown bank " + n)
		}
		if i < 0 || i >= capacity {
			return nil, errors.Errorf("address override %d for bank %s out of range [0, %d)", i, n, capacity)
		}
		if o := m.names[i]; o != "" {
			return nil, errors.Errorf("address collision at index %d between %s and %s", i, o, n)
		}
		m.set(n, i)
	}

	free := 0
	for _, n := range order {
		if _, ok := m.index[n]; ok {
			continue
		}
		for free < capacity && m.names[free] != "" {
			free++
		}
		if free >= capacity {
			return nil, errors.Errorf("address space exhausted assigning bank %s (capacity %d)", n, capacity)
		}
		m.set(n, free)
	}
	return m, nil
}

func (m *AddressMap) set(name string, i int) {
	m.index[name] = i
	m.names[i] = name
}

// Index returns the index assigned to the named bank.
//
func (m *AddressMap) Index(name string) (int, bool) {
	i, ok := m.index[name]
	return i, ok
}

// Name returns the name of the bank at index i, or "" if none.
//
func (m *AddressMap) Name(i int) string {
	if i < 0 || i >= len(m.names) {
		return ""
	}
	return m.names[i]
}

// Len returns the number of assigned banks.
//
func (m *AddressMap) Len() int { return len(m.index) }

// Capacity returns the size of the bank address space.
//
func (m *AddressMap) Capacity() int { return len(m.names) }

// An Assignment is one entry of an address map.
//
type Assignment struct {
	Name  string `yaml:"name" json:"name"`
	Index int    `yaml:"index" json:"index"`
}

// Assignments returns the address map entries in index order.
//
func (m *AddressMap) Assignments() []Assignment {
	out := make([]Assignment, 0, len(m.index))
	for i, n := range m.names {
		if n != "" {
			out = append(out, Assignment{n, i})
		}
	}
	return out
}
