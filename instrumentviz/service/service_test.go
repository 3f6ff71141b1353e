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

package service

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/google/go-cmp/cmp"
	"github.com/ilhamster/instrumentviz/instrumentviz/instrument"
	"github.com/ilhamster/instrumentviz/instrumentviz/plot"
	"github.com/ilhamster/instrumentviz/util"
)

const catalogJSON = `{
  "instruments": [{
    "short_name": "spectro",
    "display_name": "Spectrometer",
    "active": true,
    "x_label": "Time",
    "y_label": "Value"
  }]
}`

type testService struct {
	svc      *Service
	url      string
	upstream map[string]string
}

func newTestService(t *testing.T) *testService {
	t.Helper()
	ts := &testService{
		upstream: map[string]string{},
	}
	for name, body := range map[string]string{
		"readings": "[[3, 7], [4, 8]]",
		"empty":    "[]",
	} {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, body)
		}))
		t.Cleanup(upstream.Close)
		ts.upstream[name] = upstream.URL
	}
	catalogPath := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(catalogPath, []byte(catalogJSON), 0o644); err != nil {
		t.Fatalf("failed to write catalog: %s", err)
	}
	cfg := DefaultConfig()
	cfg.CatalogPath = catalogPath
	cfg.AllowedDataURLs = []string{ts.upstream["readings"], ts.upstream["empty"]}
	svc, err := New(cfg, testr.New(t))
	if err != nil {
		t.Fatalf("failed to create Service: %s", err)
	}
	mux := http.NewServeMux()
	svc.RegisterHandlers(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	ts.svc, ts.url = svc, srv.URL
	return ts
}

func (ts *testService) do(t *testing.T, method, path string, params url.Values) (int, http.Header, string) {
	t.Helper()
	u := ts.url + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequest(method, u, nil)
	if err != nil {
		t.Fatalf("failed to build request: %s", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %s", method, path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %s", err)
	}
	return resp.StatusCode, resp.Header, string(body)
}

func (ts *testService) load(t *testing.T, upstream string) {
	t.Helper()
	status, _, body := ts.do(t, http.MethodPost, "/GetData", url.Values{
		"type":            {"spectrum"},
		"instrument_name": {"spectro"},
		"json_data_url":   {ts.upstream[upstream]},
	})
	if status != http.StatusAccepted {
		t.Fatalf("GetData returned %d (%s), wanted %d", status, body, http.StatusAccepted)
	}
	ts.svc.Wait()
}

func TestGetData(t *testing.T) {
	ts := newTestService(t)
	status, _, body := ts.do(t, http.MethodGet, "/GetData", url.Values{
		"instrument_name": {"spectro"},
		"json_data_url":   {ts.upstream["readings"]},
	})
	if status != http.StatusAccepted {
		t.Fatalf("GetData returned %d, wanted %d", status, http.StatusAccepted)
	}
	got := map[string]uint64{}
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("GetData returned unparseable body %q: %s", body, err)
	}
	if diff := cmp.Diff(map[string]uint64{"seq": 1}, got); diff != "" {
		t.Errorf("Got GetData response %v, diff (-want +got):\n%s", got, diff)
	}
	ts.svc.Wait()
	if status, _, _ := ts.do(t, http.MethodGet, "/GetData", nil); status != http.StatusBadRequest {
		t.Errorf("GetData without a URL returned %d, wanted %d", status, http.StatusBadRequest)
	}
}

func TestGetDataRejectsDisallowedURLs(t *testing.T) {
	ts := newTestService(t)
	allowed, err := url.Parse(ts.upstream["readings"])
	if err != nil {
		t.Fatalf("failed to parse upstream URL: %s", err)
	}
	for _, dataURL := range []string{
		"http://169.254.169.254/latest/meta-data/",
		"http://localhost:22/",
		// A string prefix of the allowed URL, on another port.
		ts.upstream["readings"] + "1/",
		"https://" + allowed.Host + "/",
		"http://user@" + allowed.Host + "/",
		"file:///etc/passwd",
	} {
		t.Run(dataURL, func(t *testing.T) {
			status, _, _ := ts.do(t, http.MethodGet, "/GetData", url.Values{
				"instrument_name": {"spectro"},
				"json_data_url":   {dataURL},
			})
			if status != http.StatusForbidden {
				t.Errorf("GetData of %s returned %d, wanted %d", dataURL, status, http.StatusForbidden)
			}
		})
	}
	ts.svc.Wait()
	if got := ts.svc.session.State(); got != plot.Empty {
		t.Errorf("rejected loads left the session in state %s, wanted %s", got, plot.Empty)
	}
	if _, _, body := ts.do(t, http.MethodGet, "/Message", nil); body != "" {
		t.Errorf("rejected loads set message %q, wanted none", body)
	}
}

func TestCheckDataURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AllowedDataURLs = []string{"https://data.example.com/products/", "http://archive.example.com"}
	for _, test := range []struct {
		dataURL string
		wantErr bool
	}{
		{dataURL: "https://data.example.com/products/spectro/1.json"},
		{dataURL: "https://DATA.example.com/products/spectro/1.json"},
		{dataURL: "https://data.example.com/products"},
		{dataURL: "http://archive.example.com/anything?x=1"},
		{dataURL: "https://data.example.com/productsx/1.json", wantErr: true},
		{dataURL: "https://data.example.com/products/../admin", wantErr: true},
		{dataURL: "https://data.example.com/products/%2e%2e/admin", wantErr: true},
		{dataURL: "https://data.example.com.evil.net/products/1.json", wantErr: true},
		{dataURL: "http://data.example.com/products/1.json", wantErr: true},
		{dataURL: "https://data.example.com:8443/products/1.json", wantErr: true},
		{dataURL: "://nonsense", wantErr: true},
	} {
		t.Run(test.dataURL, func(t *testing.T) {
			err := cfg.checkDataURL(test.dataURL)
			if (err != nil) != test.wantErr {
				t.Fatalf("checkDataURL(%q) yielded error %v, wanted error: %t", test.dataURL, err, test.wantErr)
			}
			if err != nil && !errors.Is(err, ErrDataURLNotAllowed) {
				t.Errorf("checkDataURL(%q) yielded error %v, wanted ErrDataURLNotAllowed", test.dataURL, err)
			}
		})
	}
	if err := DefaultConfig().checkDataURL("https://data.example.com/products/1.json"); err == nil {
		t.Errorf("checkDataURL() with no allowed URLs yielded no error")
	}
}

func TestMessage(t *testing.T) {
	ts := newTestService(t)
	_, header, _ := ts.do(t, http.MethodGet, "/Message", nil)
	before := header.Get(messageVersionHeader)
	ts.load(t, "empty")
	status, header, body := ts.do(t, http.MethodGet, "/Message", nil)
	if status != http.StatusOK || body != "None found." {
		t.Errorf("Message returned %d %q, wanted 200 %q", status, body, "None found.")
	}
	if after := header.Get(messageVersionHeader); after == before {
		t.Errorf("message version did not change across a load (%s)", after)
	}
}

func TestPlot(t *testing.T) {
	ts := newTestService(t)
	for _, path := range []string{"/Plot", "/Readings", "/Plot.svg", "/Plot.png"} {
		if status, _, _ := ts.do(t, http.MethodGet, path, nil); status != http.StatusNotFound {
			t.Errorf("%s without a chart returned %d, wanted %d", path, status, http.StatusNotFound)
		}
	}
	ts.load(t, "readings")
	status, _, body := ts.do(t, http.MethodGet, "/Plot", nil)
	if status != http.StatusOK {
		t.Fatalf("Plot returned %d (%s), wanted 200", status, body)
	}
	data := &util.Data{}
	if err := json.Unmarshal([]byte(body), data); err != nil {
		t.Fatalf("Plot returned unparseable body: %s", err)
	}
	if len(data.DataSeries) != 1 || data.DataSeries[0].SeriesName != plotSeriesName {
		t.Errorf("Plot returned series %v, wanted one series '%s'", data.DataSeries, plotSeriesName)
	}
	status, _, body = ts.do(t, http.MethodGet, "/Readings", nil)
	if status != http.StatusOK {
		t.Fatalf("Readings returned %d (%s), wanted 200", status, body)
	}
	readings := &util.Data{}
	if err := json.Unmarshal([]byte(body), readings); err != nil {
		t.Fatalf("Readings returned unparseable body: %s", err)
	}
	// One header row and two readings.
	if got := len(readings.DataSeries[0].Root.Children); got != 3 {
		t.Errorf("Readings returned %d table children, wanted 3", got)
	}
	for _, test := range []struct {
		path            string
		wantContentType string
	}{
		{"/Plot.svg", "image/svg+xml"},
		{"/Plot.png", "image/png"},
	} {
		t.Run(test.path, func(t *testing.T) {
			status, header, _ := ts.do(t, http.MethodGet, test.path, nil)
			if status != http.StatusOK {
				t.Fatalf("%s returned %d, wanted 200", test.path, status)
			}
			if got := header.Get("Content-Type"); got != test.wantContentType {
				t.Errorf("%s returned content type %q, wanted %q", test.path, got, test.wantContentType)
			}
		})
	}
}

func TestHover(t *testing.T) {
	ts := newTestService(t)
	if status, _, _ := ts.do(t, http.MethodGet, "/Hover", url.Values{"px": {"1"}, "py": {"1"}}); status != http.StatusNotFound {
		t.Errorf("Hover without a chart returned %d, wanted %d", status, http.StatusNotFound)
	}
	ts.load(t, "readings")
	chart, err := ts.svc.session.Current()
	if err != nil {
		t.Fatalf("no chart after a load: %s", err)
	}
	px, py, err := chart.Position(instrument.Point{X: 3, Y: 7})
	if err != nil {
		t.Fatalf("Position() yielded unexpected error %s", err)
	}
	status, header, body := ts.do(t, http.MethodGet, "/Hover", url.Values{
		"px": {strconv.FormatFloat(px+2, 'f', -1, 64)},
		"py": {strconv.FormatFloat(py-2, 'f', -1, 64)},
	})
	if status != http.StatusOK || body != "Time: 3<br/>Value: 7" {
		t.Errorf("Hover returned %d %q, wanted 200 %q", status, body, "Time: 3<br/>Value: 7")
	}
	wantPos := strconv.FormatFloat(px, 'f', 1, 64) + "," + strconv.FormatFloat(py, 'f', 1, 64)
	if got := header.Get(hoverPositionHeader); got != wantPos {
		t.Errorf("Hover returned position %q, wanted %q", got, wantPos)
	}
	// The pointer far from any point leaves the readout and omits a position.
	status, header, body = ts.do(t, http.MethodGet, "/Hover", url.Values{
		"px": {strconv.FormatFloat(px+100, 'f', -1, 64)},
		"py": {strconv.FormatFloat(py+100, 'f', -1, 64)},
	})
	if status != http.StatusOK || body != "Time: 3<br/>Value: 7" {
		t.Errorf("Hover away from any point returned %d %q, wanted 200 %q", status, body, "Time: 3<br/>Value: 7")
	}
	if got := header.Get(hoverPositionHeader); got != "" {
		t.Errorf("Hover away from any point returned position %q, wanted none", got)
	}
	for _, params := range []url.Values{
		{"px": {"2"}},
		{"px": {"left"}, "py": {"398"}},
	} {
		if status, _, _ := ts.do(t, http.MethodGet, "/Hover", params); status != http.StatusBadRequest {
			t.Errorf("Hover with %v returned %d, wanted %d", params, status, http.StatusBadRequest)
		}
	}
}

func TestNavigate(t *testing.T) {
	ts := newTestService(t)
	ts.load(t, "readings")
	if status, _, _ := ts.do(t, http.MethodGet, "/Navigate", url.Values{"zoom": {"in"}}); status != http.StatusMethodNotAllowed {
		t.Errorf("GET Navigate returned %d, wanted %d", status, http.StatusMethodNotAllowed)
	}
	status, _, body := ts.do(t, http.MethodPost, "/Navigate", url.Values{"zoom": {"in"}})
	if status != http.StatusOK {
		t.Fatalf("Navigate returned %d (%s), wanted 200", status, body)
	}
	got := map[string]plot.Range{}
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("Navigate returned unparseable body %q: %s", body, err)
	}
	want := map[string]plot.Range{
		"x": {Min: 3.25, Max: 3.75},
		"y": {Min: 7.25, Max: 7.75},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Got view %v, diff (-want +got):\n%s", got, diff)
	}
	if status, _, _ := ts.do(t, http.MethodPost, "/Navigate", url.Values{"pan": {"sideways"}}); status != http.StatusBadRequest {
		t.Errorf("Navigate in an unsupported direction returned %d, wanted %d", status, http.StatusBadRequest)
	}
}

func TestInstrumentsAndIndex(t *testing.T) {
	ts := newTestService(t)
	status, _, body := ts.do(t, http.MethodGet, "/Instruments", nil)
	if status != http.StatusOK || !strings.Contains(body, `"short_name":"spectro"`) {
		t.Errorf("Instruments returned %d %q, wanted the catalog", status, body)
	}
	ts.load(t, "readings")
	status, _, body = ts.do(t, http.MethodGet, "/", nil)
	if status != http.StatusOK {
		t.Fatalf("viewer page returned %d, wanted 200", status)
	}
	for _, want := range []string{`<div id="status">`, `<img src="/Plot.svg">`, "Spectrometer"} {
		if !strings.Contains(body, want) {
			t.Errorf("viewer page lacks %q:\n%s", want, body)
		}
	}
	if status, _, _ := ts.do(t, http.MethodGet, "/nonexistent", nil); status != http.StatusNotFound {
		t.Errorf("unknown path returned %d, wanted %d", status, http.StatusNotFound)
	}
	status, _, body = ts.do(t, http.MethodGet, "/metrics", nil)
	if status != http.StatusOK || !strings.Contains(body, `instrumentviz_fetch_total{outcome="loaded"} 1`) {
		t.Errorf("metrics returned %d, lacking the loaded fetch count:\n%s", status, body)
	}
}

func TestWaitAfterShutdown(t *testing.T) {
	release := make(chan struct{})
	var releaseOnce sync.Once
	releaseFetch := func() { releaseOnce.Do(func() { close(release) }) }
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		io.WriteString(w, "[[1, 2], [3, 4]]")
	}))
	defer upstream.Close()
	defer releaseFetch()
	catalogPath := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(catalogPath, []byte(catalogJSON), 0o644); err != nil {
		t.Fatalf("failed to write catalog: %s", err)
	}
	cfg := DefaultConfig()
	cfg.CatalogPath = catalogPath
	cfg.AllowedDataURLs = []string{upstream.URL}
	svc, err := New(cfg, testr.New(t))
	if err != nil {
		t.Fatalf("failed to create Service: %s", err)
	}
	mux := http.NewServeMux()
	svc.RegisterHandlers(mux)
	srv := httptest.NewServer(mux)
	resp, err := http.PostForm(srv.URL+"/GetData", url.Values{
		"type":            {"spectrum"},
		"instrument_name": {"spectro"},
		"json_data_url":   {upstream.URL},
	})
	if err != nil {
		t.Fatalf("GetData failed: %s", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("GetData returned %d, wanted %d", resp.StatusCode, http.StatusAccepted)
	}
	// The load outlives the server; Wait covers it once no handler can run.
	srv.Close()
	if got := svc.session.State(); got != plot.Loading {
		t.Fatalf("session is in state %s before the fetch completes, wanted %s", got, plot.Loading)
	}
	releaseFetch()
	svc.Wait()
	if got := svc.session.State(); got != plot.Rendered {
		t.Errorf("session is in state %s after Wait(), wanted %s", got, plot.Rendered)
	}
}

func TestNewErrors(t *testing.T) {
	for _, test := range []struct {
		description string
		cfg         func(Config) Config
	}{{
		description: "missing catalog",
		cfg: func(cfg Config) Config {
			cfg.CatalogPath = filepath.Join(t.TempDir(), "absent.json")
			return cfg
		},
	}, {
		description: "empty canvas",
		cfg: func(cfg Config) Config {
			cfg.Width = 0
			return cfg
		},
	}, {
		description: "negative timeout",
		cfg: func(cfg Config) Config {
			cfg.FetchTimeout = -1
			return cfg
		},
	}, {
		description: "relative allowed data URL",
		cfg: func(cfg Config) Config {
			cfg.AllowedDataURLs = []string{"/products/"}
			return cfg
		},
	}, {
		description: "non-http allowed data URL",
		cfg: func(cfg Config) Config {
			cfg.AllowedDataURLs = []string{"file:///srv/data/"}
			return cfg
		},
	}} {
		t.Run(test.description, func(t *testing.T) {
			if _, err := New(test.cfg(DefaultConfig()), testr.New(t)); err == nil {
				t.Errorf("New() yielded no error")
			}
		})
	}
}
