// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package gateway

import (
	"fmt"
	"strings"
)

// DatabaseType selects the embedded engine the gateway uses for a database path.
// It is fixed at initialize time for the life of the path on the gateway.
type DatabaseType string

const (
	SQLite           DatabaseType = "SQLITE"
	DuckDB           DatabaseType = "DUCKDB"
	Derby            DatabaseType = "DERBY"
	H2               DatabaseType = "H2"
	HyperSQL         DatabaseType = "HYPERSQL"
	SQLiteAppender   DatabaseType = "SQLITE_APPENDER"
	DuckDBAppender   DatabaseType = "DUCKDB_APPENDER"
	DerbyAppender    DatabaseType = "DERBY_APPENDER"
	H2Appender       DatabaseType = "H2_APPENDER"
	HyperSQLAppender DatabaseType = "HYPERSQL_APPENDER"
	Streaming        DatabaseType = "STREAMING"
)

// DatabaseTypes lists every type the gateway recognizes, in documentation order.
var DatabaseTypes = []DatabaseType{
	SQLite, DuckDB, Derby, H2, HyperSQL,
	SQLiteAppender, DuckDBAppender, DerbyAppender, H2Appender, HyperSQLAppender,
	Streaming,
}

// ParseDatabaseType accepts any letter case and returns the canonical tag.
func ParseDatabaseType(s string) (DatabaseType, error) {
	want := DatabaseType(strings.ToUpper(strings.TrimSpace(s)))
	for _, t := range DatabaseTypes {
		if t == want {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown database type %q", s)
}

// Valid reports whether t is one of the recognized tags.
func (t DatabaseType) Valid() bool {
	for _, known := range DatabaseTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsAppender reports whether t is an append-optimized variant.
func (t DatabaseType) IsAppender() bool {
	return t.Valid() && strings.HasSuffix(string(t), "_APPENDER")
}

// IsStreaming reports whether t is the streaming ingestion type.
func (t DatabaseType) IsStreaming() bool { return t == Streaming }

func (t DatabaseType) String() string { return string(t) }

// Op identifies the logical operation carried by a request.
type Op int

const (
	OpInitialize Op = iota + 1
	OpBegin
	OpExecute
	OpCommit
	OpRollback
	OpClose
)

// Control keywords sent in the sql field. The gateway matches them exactly.
const (
	KeywordInitialize = "initialize"
	KeywordBegin      = "begin"
	KeywordCommit     = "commit"
	KeywordRollback   = "rollback"
	KeywordClose      = "close"
)

func (o Op) String() string {
	switch o {
	case OpInitialize:
		return KeywordInitialize
	case OpBegin:
		return KeywordBegin
	case OpExecute:
		return "execute"
	case OpCommit:
		return KeywordCommit
	case OpRollback:
		return KeywordRollback
	case OpClose:
		return KeywordClose
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// IsControlKeyword reports whether sql would be read by the gateway as a
// control operation rather than a statement.
func IsControlKeyword(sql string) bool {
	switch sql {
	case KeywordInitialize, KeywordBegin, KeywordCommit, KeywordRollback, KeywordClose:
		return true
	}
	return false
}

// LooksLikeControl reports whether sql, ignoring case, surrounding space and
// a trailing ";", is one of the control keywords. Such text sent as execute
// SQL would change transaction state behind the caller's back.
func LooksLikeControl(sql string) bool {
	s := strings.TrimSuffix(strings.TrimSpace(sql), ";")
	return IsControlKeyword(strings.ToLower(strings.TrimSpace(s)))
}
