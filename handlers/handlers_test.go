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

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"github.com/google/go-cmp/cmp"
	"github.com/google/safehtml"
)

type staticHandler map[string]func(http.ResponseWriter, *http.Request)

func (sh staticHandler) HandlersByPath() map[string]func(http.ResponseWriter, *http.Request) {
	return sh
}

func TestWrappedOrder(t *testing.T) {
	var calls []string
	tag := func(name string) WrapFunc {
		return func(next HandlerFunc) HandlerFunc {
			return func(w http.ResponseWriter, req *http.Request) {
				calls = append(calls, name)
				next(w, req)
			}
		}
	}
	h := staticHandler{
		"/x": func(w http.ResponseWriter, req *http.Request) {
			calls = append(calls, "handler")
		},
	}
	mux := http.NewServeMux()
	Register(mux, Wrapped(h, tag("inner"), tag("outer")))
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	want := []string{"outer", "inner", "handler"}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("Got call order %v, diff (-want +got):\n%s", calls, diff)
	}
}

func TestLoggingAttachesLogger(t *testing.T) {
	var gotErr error
	called := false
	h := staticHandler{
		"/x": func(w http.ResponseWriter, req *http.Request) {
			called = true
			_, gotErr = logr.FromContext(req.Context())
		},
	}
	mux := http.NewServeMux()
	Register(mux, Wrapped(h, Logging(testr.New(t))))
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	if !called {
		t.Fatalf("handler was not called")
	}
	if gotErr != nil {
		t.Errorf("handler context carried no Logger: %s", gotErr)
	}
}

func TestSend(t *testing.T) {
	rec := httptest.NewRecorder()
	SendJSON(rec, http.StatusAccepted, map[string]int{"seq": 4})
	if rec.Code != http.StatusAccepted {
		t.Errorf("SendJSON status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	if got, want := rec.Body.String(), `{"seq":4}`; got != want {
		t.Errorf("SendJSON body = %q, want %q", got, want)
	}
	rec = httptest.NewRecorder()
	SendHTML(rec, safehtml.HTMLEscaped("a<b"))
	if got, want := rec.Body.String(), "a&lt;b"; got != want {
		t.Errorf("SendHTML body = %q, want %q", got, want)
	}
}
