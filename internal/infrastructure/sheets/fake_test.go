package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

const testSpreadsheet = "sheet-id"

// fakeSheets serves the subset of the Sheets v4 REST API the client uses.
type fakeSheets struct {
	mu     sync.Mutex
	ids    map[string]int64
	grids  map[string][][]string
	calls  []string
	failN  int
	failAt int
}

func newFakeSheets(tabs ...string) *fakeSheets {
	f := &fakeSheets{ids: map[string]int64{}, grids: map[string][][]string{}}
	for i, t := range tabs {
		f.ids[t] = int64(100 + i)
		f.grids[t] = nil
	}
	return f
}

func (f *fakeSheets) seed(tab string, rows ...[]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.grids[tab] = append(f.grids[tab], rows...)
}

func (f *fakeSheets) rows(tab string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.grids[tab]))
	copy(out, f.grids[tab])
	return out
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/"+testSpreadsheet)
	f.calls = append(f.calls, r.Method+" "+path)

	if f.failN > 0 {
		f.failN--
		w.WriteHeader(f.failAt)
		_, _ = w.Write([]byte(`{"error":{"code":` + strconv.Itoa(f.failAt) + `,"message":"injected"}}`))
		return
	}

	switch {
	case path == "" && r.Method == http.MethodGet:
		var sheets []map[string]interface{}
		for title, id := range f.ids {
			sheets = append(sheets, map[string]interface{}{"properties": map[string]interface{}{"sheetId": id, "title": title}})
		}
		writeJSON(w, map[string]interface{}{"sheets": sheets})

	case path == ":batchUpdate":
		var req sheetsapi.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, rq := range req.Requests {
			if rq.InsertDimension != nil {
				tab := f.titleOf(rq.InsertDimension.Range.SheetId)
				at := int(rq.InsertDimension.Range.StartIndex)
				g := f.pad(tab, at)
				f.grids[tab] = append(g[:at], append([][]string{{}}, g[at:]...)...)
			}
			if rq.DeleteDimension != nil {
				tab := f.titleOf(rq.DeleteDimension.Range.SheetId)
				at := int(rq.DeleteDimension.Range.StartIndex)
				g := f.grids[tab]
				if at < len(g) {
					f.grids[tab] = append(g[:at], g[at+1:]...)
				}
			}
		}
		writeJSON(w, map[string]interface{}{})

	case strings.HasPrefix(path, "/values/"):
		rng := strings.TrimPrefix(path, "/values/")
		appendCall := strings.HasSuffix(rng, ":append")
		rng = strings.TrimSuffix(rng, ":append")
		tab, col, row := parseRange(rng)

		switch {
		case r.Method == http.MethodGet:
			g := f.grids[tab]
			if row > 0 {
				if row <= len(g) {
					g = g[row-1 : row]
				} else {
					g = nil
				}
			}
			writeJSON(w, map[string]interface{}{"range": rng, "values": g})

		default:
			var vr sheetsapi.ValueRange
			_ = json.NewDecoder(r.Body).Decode(&vr)
			for i, vals := range vr.Values {
				cells := make([]string, len(vals))
				for j, v := range vals {
					cells[j], _ = v.(string)
				}
				if appendCall {
					f.grids[tab] = append(f.grids[tab], cells)
					continue
				}
				at := row - 1 + i
				g := f.pad(tab, at+1)
				line := g[at]
				for len(line) < col+len(cells) {
					line = append(line, "")
				}
				copy(line[col:], cells)
				g[at] = line
				f.grids[tab] = g
			}
			writeJSON(w, map[string]interface{}{})
		}

	default:
		http.NotFound(w, r)
	}
}

func (f *fakeSheets) titleOf(id int64) string {
	for t, v := range f.ids {
		if v == id {
			return t
		}
	}
	return ""
}

func (f *fakeSheets) pad(tab string, n int) [][]string {
	g := f.grids[tab]
	for len(g) < n {
		g = append(g, []string{})
	}
	f.grids[tab] = g
	return g
}

// parseRange splits 'tab'!B7 into tab, 0-based column and 1-based row.
// Row is 0 for a whole-tab range and 1 for the 1:1 header range.
func parseRange(rng string) (string, int, int) {
	tab, cells, _ := strings.Cut(rng, "!")
	tab = strings.ReplaceAll(strings.Trim(tab, "'"), "''", "'")
	if cells == "" {
		return tab, 0, 0
	}
	if cells == "1:1" {
		return tab, 0, 1
	}
	col := 0
	i := 0
	for i < len(cells) && cells[i] >= 'A' && cells[i] <= 'Z' {
		col = col*26 + int(cells[i]-'A'+1)
		i++
	}
	row, _ := strconv.Atoi(cells[i:])
	return tab, col - 1, row
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, fake *fakeSheets, retries int) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := sheetsapi.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	return NewClient(svc, Config{
		SpreadsheetID:     testSpreadsheet,
		Tabs:              map[string]string{"member": "DB", "order": "제품주문", "상담일지": "상담일지"},
		RequestsPerSecond: 1000,
		MaxRetries:        retries,
	}, nil)
}
