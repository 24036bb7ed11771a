// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package csr

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// An Entry describes one register in the host-visible register map.
//
type Entry struct {
	Block    string `yaml:"block" json:"block"`
	Register string `yaml:"register" json:"register"`
	Address  uint32 `yaml:"address" json:"address"`
	Width    int    `yaml:"width" json:"width"`
	Signed   bool   `yaml:"signed" json:"signed"`
	Access   Access `yaml:"access" json:"access"`
	Words    int    `yaml:"words" json:"words"`
}

// Name returns the flat register name, "<block>_<register>".
//
func (e Entry) Name() string { return e.Block + "_" + e.Register }

// Table is the flat register map, ordered by address.
//
type Table []Entry

// Table returns the register map of the array.
//
func (a *Array) Table() Table {
	var t Table
	for bi, m := range a.banks {
		if m == nil {
			continue
		}
		regs := m.blk.Registers()
		for w, s := range m.slots {
			if s.shift+uint(s.bits) < uint(regs[s.reg].Width) {
				continue // not the leading chunk
			}
			r := regs[s.reg]
			t = append(t, Entry{
				Block:    m.blk.Name(),
				Register: r.Name,
				Address:  a.Address(bi, w),
				Width:    r.Width,
				Signed:   r.Signal.Signed(),
				Access:   r.Access,
				Words:    (r.Width + a.cfg.DataWidth - 1) / a.cfg.DataWidth,
			})
		}
	}
	return t
}

// Lookup returns the entry with the given flat name.
//
func (t Table) Lookup(name string) (Entry, bool) {
	for _, e := range t {
		if e.Name() == name {
			return e, true
		}
	}
	return Entry{}, false
}

// DataWidth returns the bus data width the table was laid out with, inferred
// from the word count of its entries. Tables where every register fits in a
// single word report 32.
//
func (t Table) DataWidth() (int, error) {
	for _, dw := range []int{32, 16, 8} {
		ok := true
		for _, e := range t {
			if (e.Width+dw-1)/dw != e.Words {
				ok = false
				break
			}
		}
		if ok {
			return dw, nil
		}
	}
	return 0, errors.New("register map matches no bus data width")
}

// Block returns the entries of the named block.
//
func (t Table) Block(name string) Table {
	var out Table
	for _, e := range t {
		if e.Block == name {
			out = append(out, e)
		}
	}
	return out
}

// WriteYAML encodes the table as YAML.
//
func (t Table) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(t); err != nil {
		return err
	}
	return enc.Close()
}

// WriteJSON encodes the table as JSON.
//
func (t Table) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t)
}
