// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package client implements host side register access by name on top of a
// csr.Transactor.
//
package client

import (
	"context"
	"strconv"

	"github.com/db47h/locksim/csr"
	"github.com/db47h/locksim/fixed"
	"github.com/pkg/errors"
)

// ErrBus is the cause of errors returned when the bus answers a transaction
// with an error.
//
var ErrBus = errors.New("bus error")

// Client reads and writes registers by name.
//
type Client struct {
	tx    csr.Transactor
	table csr.Table
	dw    int
}

// New returns a new client. table is the register map of the target and
// dataWidth its internal register bus width.
//
func New(tx csr.Transactor, table csr.Table, dataWidth int) *Client {
	return &Client{tx: tx, table: table, dw: dataWidth}
}

// Table returns the register map.
//
func (c *Client) Table() csr.Table { return c.table }

func (c *Client) entry(name string) (csr.Entry, error) {
	e, ok := c.table.Lookup(name)
	if !ok {
		return e, errors.New("unknown register " + name)
	}
	return e, nil
}

func (c *Client) transact(ctx context.Context, r csr.Request) (uint32, error) {
	resp, err := c.tx.Transact(ctx, r)
	if err != nil {
		return 0, err
	}
	if resp.Err || !resp.Ack {
		return 0, errors.Wrapf(ErrBus, "address %#08x", r.Addr)
	}
	return resp.Data, nil
}

// Get returns the raw bits of the named register.
//
func (c *Client) Get(ctx context.Context, name string) (uint64, error) {
	e, err := c.entry(name)
	if err != nil {
		return 0, err
	}
	var v uint64
	for w := 0; w < e.Words; w++ {
		d, err := c.transact(ctx, csr.Request{Addr: e.Address + uint32(4*w), Re: true})
		if err != nil {
			return 0, errors.Wrap(err, name)
		}
		v = v<<uint(c.dw) | uint64(d)
	}
	return v, nil
}

// GetInt returns the value of the named register, sign extended for signed
// registers.
//
func (c *Client) GetInt(ctx context.Context, name string) (int64, error) {
	v, err := c.Get(ctx, name)
	if err != nil {
		return 0, err
	}
	e, _ := c.entry(name)
	return fixed.Wrap(int64(v), e.Width, e.Signed), nil
}

// Set writes v to the named register, most significant word first. The
// target truncates v to the register width.
//
func (c *Client) Set(ctx context.Context, name string, v int64) error {
	e, err := c.entry(name)
	if err != nil {
		return err
	}
	for w := 0; w < e.Words; w++ {
		shift := uint((e.Words - 1 - w) * c.dw)
		d := uint32(uint64(v) >> shift & fixed.Mask(c.dw))
		if _, err = c.transact(ctx, csr.Request{Addr: e.Address + uint32(4*w), Data: d, Sel: 0xf, We: true}); err != nil {
			return errors.Wrap(err, name)
		}
	}
	return nil
}

// SetFilter writes the coefficients of a filter stage in order a0, a1, [a2],
// b0, b1, [b2]. a and b must both have order+1 elements, where order is the
// stage's order.
//
// The writes are independent bus transactions: the stage may run with a mix
// of old and new coefficients in between.
//
func (c *Client) SetFilter(ctx context.Context, block string, a, b []int64) error {
	if len(a) != len(b) {
		return errors.Errorf("%s: %d a coefficients for %d b coefficients", block, len(a), len(b))
	}
	order := 0
	for _, e := range c.table.Block(block) {
		if len(e.Register) == 2 && e.Register[0] == 'a' {
			order++
		}
	}
	order--
	if order < 1 {
		return errors.New("block " + block + " is not a filter stage")
	}
	if len(a) != order+1 {
		return errors.Errorf("%s: need %d coefficients per set, got %d", block, order+1, len(a))
	}
	for _, set := range []struct {
		n string
		k []int64
	}{{"a", a}, {"b", b}} {
		for i, v := range set.k {
			if err := c.Set(ctx, block+"_"+set.n+strconv.Itoa(i), v); err != nil {
				return err
			}
		}
	}
	return nil
}
