/*
	Copyright 2023 Google Inc.
	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at
		https://www.apache.org/licenses/LICENSE-2.0
	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

// Package handlers provides the plumbing shared by InstrumentViz HTTP
// handlers: handler wrapping, response encoding, and request-scoped
// logging.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/safehtml"
)

// HandlerFunc is a HTTP handler function.
type HandlerFunc func(http.ResponseWriter, *http.Request)

// WrapFunc is a function that rewrites a HandlerFunc.
type WrapFunc func(HandlerFunc) HandlerFunc

// Handler describes a set of HTTP handlers keyed by request path.
type Handler interface {
	HandlersByPath() map[string]func(http.ResponseWriter, *http.Request)
}

// Wrapped applies wrappers to every handler in h, first wrapper innermost.
func Wrapped(h Handler, wrappers ...WrapFunc) Handler {
	return &wrapped{
		h:        h,
		wrappers: wrappers,
	}
}

type wrapped struct {
	h        Handler
	wrappers []WrapFunc
}

func (w *wrapped) HandlersByPath() map[string]func(http.ResponseWriter, *http.Request) {
	ret := map[string]func(http.ResponseWriter, *http.Request){}
	for path, handler := range w.h.HandlersByPath() {
		var hf HandlerFunc = handler
		for _, wrapper := range w.wrappers {
			hf = wrapper(hf)
		}
		ret[path] = hf
	}
	return ret
}

// Register adds every handler in h to mux.
func Register(mux *http.ServeMux, h Handler) {
	for path, handler := range h.HandlersByPath() {
		mux.HandleFunc(path, handler)
	}
}

// SendJSON serializes v and sends it with the provided status code.  A
// serialization failure yields an internal server error instead.
func SendJSON(w http.ResponseWriter, status int, v any) {
	respStr, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Failed to marshal response: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(respStr)
}

// SendHTML sends the provided HTML fragment.
func SendHTML(w http.ResponseWriter, h safehtml.HTML) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, h.String())
}

// Logging returns a WrapFunc that attaches to each request's context a
// Logger carrying the request's method and path, for handlers to retrieve
// with logr.FromContextOrDiscard, and logs each request's latency at
// verbosity 1.
func Logging(log logr.Logger) WrapFunc {
	return func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			reqLog := log.WithValues("method", req.Method, "path", req.URL.Path)
			next(w, req.WithContext(logr.NewContext(req.Context(), reqLog)))
			reqLog.V(1).Info("handled request", "latency", time.Since(start))
		}
	}
}
