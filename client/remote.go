// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/db47h/locksim/csr"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Remote is a csr.Transactor that forwards transactions to a locksim server
// over HTTP.
//
// Transport failures and server side errors (5xx) are retried with an
// exponential backoff for up to MaxElapsed, or until the request context is
// done. Bus errors are not retried: they are part of the response.
//
type Remote struct {
	// Server base URL, for example "http://localhost:8000".
	URL string
	// HTTP client. Defaults to http.DefaultClient.
	HTTPClient *http.Client
	// Maximum time spent retrying a transaction. Defaults to 3 seconds.
	MaxElapsed time.Duration
}

// NewRemote returns a Remote for the server at url.
//
func NewRemote(url string) *Remote {
	return &Remote{URL: strings.TrimSuffix(url, "/")}
}

func (r *Remote) client() *http.Client {
	if r.HTTPClient != nil {
		return r.HTTPClient
	}
	return http.DefaultClient
}

// Transact implements csr.Transactor.
//
func (r *Remote) Transact(ctx context.Context, req csr.Request) (csr.Response, error) {
	var resp csr.Response
	body, err := json.Marshal(req)
	if err != nil {
		return resp, err
	}
	err = r.do(ctx, http.MethodPost, "/bus", body, &resp)
	return resp, err
}

// Table fetches the register map from the server.
//
func (r *Remote) Table(ctx context.Context) (csr.Table, error) {
	var t csr.Table
	err := r.do(ctx, http.MethodGet, "/map", nil, &t)
	return t, err
}

// do runs an HTTP request and decodes the JSON response into out.
func (r *Remote) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var permanent error
	op := func() error {
		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}
		hr, err := http.NewRequestWithContext(ctx, method, r.URL+path, rd)
		if err != nil {
			permanent = err
			return nil
		}
		if body != nil {
			hr.Header.Set("Content-Type", "application/json")
		}
		res, err := r.client().Do(hr)
		if err != nil {
			if ctx.Err() != nil {
				permanent = ctx.Err()
				return nil
			}
			log.WithError(err).Debug("client: transport error, retrying")
			return err
		}
		defer res.Body.Close()
		if res.StatusCode >= 500 {
			return errors.Errorf("%s %s: %s", method, path, res.Status)
		}
		if res.StatusCode != http.StatusOK {
			msg, _ := io.ReadAll(res.Body)
			permanent = errors.Errorf("%s %s: %s: %s", method, path, res.Status, strings.TrimSpace(string(msg)))
			return nil
		}
		if err = json.NewDecoder(res.Body).Decode(out); err != nil {
			permanent = errors.Wrap(err, "decode response")
		}
		return nil
	}

	max := r.MaxElapsed
	if max == 0 {
		max = 3 * time.Second
	}
	err := backoff.Retry(op, backoff.WithContext(&backoff.ExponentialBackOff{
		InitialInterval:     25 * time.Millisecond,
		RandomizationFactor: 0.,
		Multiplier:          2.,
		MaxInterval:         1 * time.Second,
		MaxElapsedTime:      max,
		Clock:               backoff.SystemClock}, ctx))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return permanent
}
