// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package csr

import (
	"context"
	"sync/atomic"

	"github.com/db47h/locksim"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrBusy is returned by Bridge.Submit when a transaction is already
// outstanding.
//
var ErrBusy = errors.New("bus transaction outstanding")

// A Request is a host bus transaction. Exactly one of We and Re must be set.
// Sel enables byte lanes of Data for writes (bit i enables bits [8i, 8i+8)).
//
type Request struct {
	Addr uint32 `json:"addr"`
	Data uint32 `json:"data"`
	Sel  uint8  `json:"sel"`
	We   bool   `json:"we"`
	Re   bool   `json:"re"`
}

// A Response completes a Request. Exactly one of Ack and Err is set.
//
type Response struct {
	Data uint32 `json:"data"`
	Ack  bool   `json:"ack"`
	Err  bool   `json:"err"`
}

// A Transactor executes host bus transactions.
//
type Transactor interface {
	Transact(ctx context.Context, r Request) (Response, error)
}

// Interconnect routes decoded accesses of the single bus master to the
// addressed bank.
//
type Interconnect struct {
	array *Array
	txs   uint64
	errs  uint64
}

// NewInterconnect returns an interconnect for the banks in a.
//
func NewInterconnect(a *Array) *Interconnect {
	return &Interconnect{array: a}
}

// Access performs a single register access. Failed accesses mutate nothing.
//
func (ic *Interconnect) Access(c *locksim.Circuit, r Request) Response {
	atomic.AddUint64(&ic.txs, 1)
	if r.We == r.Re {
		atomic.AddUint64(&ic.errs, 1)
		log.WithField("addr", r.Addr).Debug("csr: transaction with invalid we/re combination")
		return Response{Err: true}
	}
	bank, offset, err := ic.array.Decode(r.Addr)
	if err != nil {
		atomic.AddUint64(&ic.errs, 1)
		log.WithField("we", r.We).Debug("csr: ", err)
		return Response{Err: true}
	}
	if r.We {
		ic.array.write(c, bank, offset, r.Data, r.Sel)
		return Response{Ack: true}
	}
	return Response{Data: ic.array.read(c, bank, offset), Ack: true}
}

// Stats returns the number of transactions and of failed transactions so far.
// It is safe for concurrent use.
//
func (ic *Interconnect) Stats() (txs, errs uint64) {
	return atomic.LoadUint64(&ic.txs), atomic.LoadUint64(&ic.errs)
}

type pending struct {
	req  Request
	done chan Response
}

// A Bridge is the host-facing end of the register bus. It samples at most one
// pending transaction per clock edge and completes it on that same edge.
//
// Host requests are assumed to be synchronous to the core clock: the bridge
// adds no synchronizer.
//
type Bridge struct {
	ic  *Interconnect
	req chan *pending
}

// NewBridge returns a bridge in front of ic. Its Edge method must be
// registered as a clock edge hook of the circuit.
//
func NewBridge(ic *Interconnect) *Bridge {
	return &Bridge{ic: ic, req: make(chan *pending, 1)}
}

// Edge runs the pending transaction, if any.
//
func (b *Bridge) Edge(c *locksim.Circuit) {
	select {
	case p := <-b.req:
		p.done <- b.ic.Access(c, p.req)
	default:
	}
}

// Interconnect returns the interconnect behind the bridge.
//
func (b *Bridge) Interconnect() *Interconnect { return b.ic }

// Submit queues r for the next clock edge without blocking. It returns
// ErrBusy if a transaction is already outstanding. The returned channel
// receives the response once the edge has run.
//
func (b *Bridge) Submit(r Request) (<-chan Response, error) {
	p := &pending{r, make(chan Response, 1)}
	select {
	case b.req <- p:
		return p.done, nil
	default:
		return nil, ErrBusy
	}
}

// Transact implements Transactor. It waits for any outstanding transaction to
// complete, then for its own. The circuit must be running (see
// locksim.Circuit.Run) for Transact to return before ctx is done.
//
// If ctx is done after the request was queued, the transaction still
// completes on the next edge.
//
func (b *Bridge) Transact(ctx context.Context, r Request) (Response, error) {
	p := &pending{r, make(chan Response, 1)}
	select {
	case b.req <- p:
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
	select {
	case resp := <-p.done:
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// Do runs r on a step-driven circuit: it queues r and steps c once.
//
func (b *Bridge) Do(c *locksim.Circuit, r Request) (Response, error) {
	done, err := b.Submit(r)
	if err != nil {
		return Response{}, err
	}
	c.Step()
	select {
	case resp := <-done:
		return resp, nil
	default:
		return Response{}, errors.New("bridge is not connected to the circuit clock")
	}
}

type stepped struct {
	b *Bridge
	c *locksim.Circuit
}

func (s stepped) Transact(_ context.Context, r Request) (Response, error) {
	return s.b.Do(s.c, r)
}

// Stepped returns a Transactor that runs every transaction with Do. It must
// only be used when nothing else clocks c.
//
func (b *Bridge) Stepped(c *locksim.Circuit) Transactor {
	return stepped{b, c}
}
