// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package server exposes a register bus over HTTP.
//
// Routes:
//
//	GET  /map                  register map as JSON, or YAML with ?format=yaml
//	POST /bus                  raw bus transaction, csr.Request in, csr.Response out
//	GET  /registers/{name}     register value as {"int": v}
//	POST /registers/{name}     write {"int": v} to a register
//	POST /filters/{block}      write {"a": [...], "b": [...]} filter coefficients
//	GET  /status               clock and bus counters
//	GET  /endpoints            the list of routes
//
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/db47h/locksim/client"
	"github.com/db47h/locksim/csr"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// IntT is the {"int": v} payload of register routes.
//
type IntT struct {
	Int int64 `json:"int"`
}

// FilterT is the payload of the filter route.
//
type FilterT struct {
	A []int64 `json:"a"`
	B []int64 `json:"b"`
}

// Status reports clock and bus counters.
//
type Status struct {
	Cycle        uint64 `json:"cycle"`
	Transactions uint64 `json:"transactions"`
	Errors       uint64 `json:"errors"`
}

var endpoints = []string{
	"GET /map",
	"POST /bus",
	"GET /registers/{name}",
	"POST /registers/{name}",
	"POST /filters/{block}",
	"GET /status",
	"GET /endpoints",
}

// Server serves the register map and bus of a single target.
//
type Server struct {
	tx    csr.Transactor
	table csr.Table
	cl    *client.Client

	// Status returns the counters reported on /status. Optional.
	Status func() Status
	// Timeout bounds the bus transactions of a single HTTP request. Defaults
	// to one second.
	Timeout time.Duration
}

// New returns a server for the target reached through tx, with the given
// register map and internal bus data width.
//
func New(tx csr.Transactor, table csr.Table, dataWidth int) *Server {
	return &Server{
		tx:    tx,
		table: table,
		cl:    client.New(tx, table, dataWidth),
	}
}

// Handler returns the HTTP handler of the server.
//
func (s *Server) Handler() http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.RequestID)
	root.Use(middleware.Logger)
	root.Use(middleware.Recoverer)
	root.Get("/map", s.getMap)
	root.Post("/bus", s.bus)
	root.Get("/registers/{name}", s.getRegister)
	root.Post("/registers/{name}", s.setRegister)
	root.Post("/filters/{block}", s.setFilter)
	root.Get("/status", s.status)
	root.Get("/endpoints", func(w http.ResponseWriter, r *http.Request) {
		respond(w, endpoints)
	})
	return root
}

func (s *Server) context(r *http.Request) (context.Context, context.CancelFunc) {
	d := s.Timeout
	if d <= 0 {
		d = time.Second
	}
	return context.WithTimeout(r.Context(), d)
}

func respond(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("server: encode response")
	}
}

// fail maps bus side errors to an HTTP status.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	switch errors.Cause(err) {
	case csr.ErrBusy:
		code = http.StatusServiceUnavailable
	case context.DeadlineExceeded:
		code = http.StatusGatewayTimeout
	case client.ErrBus:
		code = http.StatusBadGateway
	}
	log.WithError(err).WithFields(log.Fields{
		"path":   r.URL.Path,
		"status": code,
	}).Warn("server: request failed")
	http.Error(w, err.Error(), code)
}

func (s *Server) getMap(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "yaml" {
		w.Header().Set("Content-Type", "application/x-yaml")
		if err := s.table.WriteYAML(w); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	respond(w, s.table)
}

func (s *Server) bus(w http.ResponseWriter, r *http.Request) {
	var req csr.Request
	err := json.NewDecoder(r.Body).Decode(&req)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.We == req.Re {
		http.Error(w, "exactly one of we and re must be set", http.StatusBadRequest)
		return
	}
	ctx, cancel := s.context(r)
	defer cancel()
	resp, err := s.tx.Transact(ctx, req)
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, resp)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := chi.URLParam(r, "name")
	if _, ok := s.table.Lookup(name); !ok {
		http.Error(w, "unknown register "+name, http.StatusNotFound)
		return name, false
	}
	return name, true
}

func (s *Server) getRegister(w http.ResponseWriter, r *http.Request) {
	name, ok := s.register(w, r)
	if !ok {
		return
	}
	ctx, cancel := s.context(r)
	defer cancel()
	v, err := s.cl.GetInt(ctx, name)
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, IntT{Int: v})
}

func (s *Server) setRegister(w http.ResponseWriter, r *http.Request) {
	name, ok := s.register(w, r)
	if !ok {
		return
	}
	var v IntT
	err := json.NewDecoder(r.Body).Decode(&v)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ctx, cancel := s.context(r)
	defer cancel()
	if err = s.cl.Set(ctx, name, v.Int); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) setFilter(w http.ResponseWriter, r *http.Request) {
	block := chi.URLParam(r, "block")
	if len(s.table.Block(block)) == 0 {
		http.Error(w, "unknown block "+block, http.StatusNotFound)
		return
	}
	var f FilterT
	err := json.NewDecoder(r.Body).Decode(&f)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ctx, cancel := s.context(r)
	defer cancel()
	if err = s.cl.SetFilter(ctx, block, f.A, f.B); err != nil {
		switch errors.Cause(err) {
		case csr.ErrBusy, context.DeadlineExceeded, client.ErrBus:
			fail(w, r, err)
		default:
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	var st Status
	if s.Status != nil {
		st = s.Status()
	}
	respond(w, st)
}
