// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"

	"synclite/cli/internal/logging"

	"github.com/stretchr/testify/require"
)

// fakeGateway is a small in-memory stand-in for the SyncLite DB gateway. It
// understands just enough SQL for the protocol tests: create/drop table,
// insert with an argument batch, and select of named columns.
type fakeGateway struct {
	t *testing.T

	mu       sync.Mutex
	dbs      map[string]*fakeDB
	nextTxn  int
	requests []map[string]any
}

type fakeDB struct {
	dbType  string
	open    bool
	txn     string
	tables  map[string][]map[string]any
	pending map[string][]map[string]any
}

var (
	reInsert = regexp.MustCompile(`(?i)^insert into (\w+)\s*\(([^)]*)\)`)
	reSelect = regexp.MustCompile(`(?i)^select (.+) from (\w+)$`)
	reCreate = regexp.MustCompile(`(?i)^create table (?:if not exists )?(\w+)`)
	reDrop   = regexp.MustCompile(`(?i)^drop table (\w+)`)
)

func newFakeGateway(t *testing.T) (*fakeGateway, *httptest.Server) {
	t.Helper()
	fg := &fakeGateway{t: t, dbs: make(map[string]*fakeDB)}
	srv := httptest.NewServer(fg)
	t.Cleanup(srv.Close)
	return fg, srv
}

func newFakeClient(t *testing.T) (*Client, *fakeGateway) {
	t.Helper()
	fg, srv := newFakeGateway(t)
	c, err := New(Config{Address: srv.URL, Logger: logging.Discard()})
	require.NoError(t, err)
	return c, fg
}

func (fg *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var req map[string]any
	if err := dec.Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	fg.mu.Lock()
	fg.requests = append(fg.requests, req)
	reply := fg.handle(req)
	fg.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(reply)
}

func (fg *fakeGateway) lastRequest() map[string]any {
	fg.mu.Lock()
	defer fg.mu.Unlock()
	if len(fg.requests) == 0 {
		return nil
	}
	return fg.requests[len(fg.requests)-1]
}

func fail(msg string, args ...any) map[string]any {
	return map[string]any{"result": false, "message": fmt.Sprintf(msg, args...)}
}

func ok(msg string) map[string]any {
	return map[string]any{"result": true, "message": msg}
}

func (fg *fakeGateway) handle(req map[string]any) map[string]any {
	path, _ := req["db-path"].(string)
	sql, _ := req["sql"].(string)
	handle, hasHandle := req["txn-handle"].(string)
	db := fg.dbs[path]

	switch sql {
	case KeywordInitialize:
		dbType, _ := req["db-type"].(string)
		if db == nil {
			db = &fakeDB{dbType: dbType, tables: map[string][]map[string]any{}}
			fg.dbs[path] = db
		} else if db.dbType != dbType {
			return fail("database %s already initialized as %s", path, db.dbType)
		}
		db.open = true
		return ok("Database initialized successfully")
	}

	if db == nil || !db.open {
		return fail("database %s is not initialized", path)
	}

	switch sql {
	case KeywordBegin:
		if db.txn != "" {
			return fail("a transaction is already open on %s", path)
		}
		fg.nextTxn++
		db.txn = fmt.Sprintf("txn-%04d", fg.nextTxn)
		db.pending = map[string][]map[string]any{}
		return map[string]any{"result": true, "message": "Transaction started successfully", "txn-handle": db.txn}
	case KeywordCommit, KeywordRollback:
		if !hasHandle || handle != db.txn || db.txn == "" {
			return fail("invalid transaction handle")
		}
		if sql == KeywordCommit {
			for table, rows := range db.pending {
				db.tables[table] = append(db.tables[table], rows...)
			}
		}
		db.txn, db.pending = "", nil
		if sql == KeywordCommit {
			return ok("Transaction committed successfully")
		}
		return ok("Transaction rolled back successfully")
	case KeywordClose:
		db.open = false
		return ok("Database closed successfully")
	}

	if hasHandle && handle != db.txn {
		return fail("invalid transaction handle")
	}
	return fg.execute(db, strings.TrimSpace(sql), hasHandle, req["arguments"])
}

func (fg *fakeGateway) execute(db *fakeDB, sql string, inTxn bool, rawArgs any) map[string]any {
	target := db.tables
	if inTxn {
		target = db.pending
	}
	switch {
	case reCreate.MatchString(sql):
		table := reCreate.FindStringSubmatch(sql)[1]
		if _, exists := db.tables[table]; !exists {
			db.tables[table] = []map[string]any{}
		}
		return ok("Update executed successfully, rows affected: 0")
	case reDrop.MatchString(sql):
		delete(db.tables, reDrop.FindStringSubmatch(sql)[1])
		return ok("Update executed successfully, rows affected: 0")
	case reInsert.MatchString(sql):
		m := reInsert.FindStringSubmatch(sql)
		table := m[1]
		if _, exists := db.tables[table]; !exists {
			return fail("no such table: %s", table)
		}
		cols := splitColumns(m[2])
		batch, _ := rawArgs.([]any)
		for _, raw := range batch {
			vals, _ := raw.([]any)
			if len(vals) != len(cols) {
				return fail("expected %d bind values, got %d", len(cols), len(vals))
			}
			row := map[string]any{}
			for i, c := range cols {
				row[c] = vals[i]
			}
			target[table] = append(target[table], row)
		}
		return ok(fmt.Sprintf("Batch executed successfully, rows affected: %d", len(batch)))
	case reSelect.MatchString(sql):
		m := reSelect.FindStringSubmatch(sql)
		rows, exists := db.tables[m[2]]
		if !exists {
			return fail("no such table: %s", m[2])
		}
		cols := splitColumns(m[1])
		out := make([]json.RawMessage, 0, len(rows))
		for _, row := range rows {
			out = append(out, orderedObject(cols, row))
		}
		return map[string]any{"result": true, "message": "Query executed successfully", "resultset": out}
	}
	return fail("unsupported statement: %s", sql)
}

func splitColumns(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// orderedObject encodes a row with keys in select-list order, as a real
// gateway does.
func orderedObject(cols []string, row map[string]any) json.RawMessage {
	var b strings.Builder
	b.WriteByte('{')
	for i, c := range cols {
		if i > 0 {
			b.WriteByte(',')
		}
		k, _ := json.Marshal(c)
		v, _ := json.Marshal(row[c])
		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return json.RawMessage(b.String())
}
