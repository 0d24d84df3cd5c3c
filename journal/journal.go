/**
 * Copyright 2026 The asyncfix Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package journal is the persisted, append-only message log keyed by
// (session, direction, seq_no) that the connection engine consults for
// resend requests and that backs sequence-number recovery across restarts.
// It is backed by SQLite, opening the database file and running
// CREATE TABLE IF NOT EXISTS on every open.
package journal

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/alexveden/asyncfix/codec"
	"github.com/alexveden/asyncfix/fixerr"
	"github.com/alexveden/asyncfix/session"
)

// Journal is a SQLite-backed keyed store of encoded FIX frames.
type Journal struct {
	db *sql.DB

	mu         sync.Mutex
	sessionIDs map[session.Key]int64
}

// Open opens (creating if absent) a journal database at path. Passing ""
// opens an in-memory database, matching the reference journaler's
// filename=None convention (useful for tests and FIX-tester harnesses).
func Open(path string) (*Journal, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	} else {
		dsn = dsn + "?_journal_mode=WAL&_synchronous=NORMAL"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	j := &Journal{db: db, sessionIDs: make(map[session.Key]int64)}
	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}
	return j, nil
}

func (j *Journal) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS session (
		session_id INTEGER PRIMARY KEY AUTOINCREMENT,
		target_comp_id TEXT NOT NULL,
		sender_comp_id TEXT NOT NULL,
		outbound_seq_no INTEGER NOT NULL DEFAULT 0,
		inbound_seq_no INTEGER NOT NULL DEFAULT 0,
		UNIQUE (target_comp_id, sender_comp_id)
	);

	CREATE TABLE IF NOT EXISTS message (
		seq_no INTEGER NOT NULL,
		session_id INTEGER NOT NULL,
		direction INTEGER NOT NULL,
		msg BLOB NOT NULL,
		PRIMARY KEY (seq_no, session_id, direction)
	);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Close closes the underlying database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}

// CreateOrLoad returns the session for (target, sender), creating a fresh
// row with sequence numbers at 1 if none exists yet, or restoring the
// persisted counters (advanced by one past the last seen value, matching
// the reference journaler) if it does.
func (j *Journal) CreateOrLoad(target, sender string) (*session.Session, error) {
	res, err := j.db.Exec(
		`INSERT OR IGNORE INTO session(target_comp_id, sender_comp_id) VALUES (?, ?)`,
		target, sender,
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	inserted, _ := res.RowsAffected()

	var id int64
	var outSeq, inSeq int
	row := j.db.QueryRow(
		`SELECT session_id, outbound_seq_no, inbound_seq_no FROM session
		 WHERE target_comp_id = ? AND sender_comp_id = ?`, target, sender)
	if err := row.Scan(&id, &outSeq, &inSeq); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	key := session.Key{SenderCompID: sender, TargetCompID: target}
	j.mu.Lock()
	j.sessionIDs[key] = id
	j.mu.Unlock()

	if inserted == 1 {
		return session.New(sender, target), nil
	}
	return session.Restore(sender, target, outSeq+1, inSeq+1), nil
}

// Sessions returns every persisted session, with both counters restored one
// past the last persisted value, the same way CreateOrLoad restores them.
func (j *Journal) Sessions() (map[session.Key]*session.Session, error) {
	rows, err := j.db.Query(`SELECT session_id, target_comp_id, sender_comp_id, outbound_seq_no, inbound_seq_no FROM session`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	out := make(map[session.Key]*session.Session)
	for rows.Next() {
		var id int64
		var target, sender string
		var outSeq, inSeq int
		if err := rows.Scan(&id, &target, &sender, &outSeq, &inSeq); err != nil {
			return nil, err
		}
		key := session.Key{SenderCompID: sender, TargetCompID: target}
		j.mu.Lock()
		j.sessionIDs[key] = id
		j.mu.Unlock()
		out[key] = session.Restore(sender, target, outSeq+1, inSeq+1)
	}
	return out, rows.Err()
}

func (j *Journal) sessionID(s *session.Session) (int64, error) {
	j.mu.Lock()
	id, ok := j.sessionIDs[s.Key()]
	j.mu.Unlock()
	if ok {
		return id, nil
	}
	return 0, fmt.Errorf("%w: session %s not registered with journal, call CreateOrLoad first", fixerr.ErrConnection, s.Key())
}

// SetSeqNum overwrites one or both counters on s and mirrors them to the
// persisted row. Resetting a counter downward is destructive: any message
// rows at or above the new value for that direction are deleted, matching
// the reference journaler's truncate-on-reset behavior.
func (j *Journal) SetSeqNum(s *session.Session, out, in *int) error {
	id, err := j.sessionID(s)
	if err != nil {
		return err
	}
	s.SetSeqNum(out, in)

	_, err = j.db.Exec(`UPDATE session SET outbound_seq_no = ?, inbound_seq_no = ? WHERE session_id = ?`,
		s.NextNumOut()-1, s.NextNumIn()-1, id)
	if err != nil {
		return fmt.Errorf("update session counters: %w", err)
	}
	if in != nil {
		if _, err := j.db.Exec(`DELETE FROM message WHERE session_id = ? AND direction = ? AND seq_no >= ?`,
			id, session.Inbound, *in); err != nil {
			return fmt.Errorf("truncate inbound log: %w", err)
		}
	}
	if out != nil {
		if _, err := j.db.Exec(`DELETE FROM message WHERE session_id = ? AND direction = ? AND seq_no >= ?`,
			id, session.Outbound, *out); err != nil {
			return fmt.Errorf("truncate outbound log: %w", err)
		}
	}
	return nil
}

// PersistMsg writes an encoded frame keyed by (session, direction, its own
// seq_no as parsed by codec.FindSeqNo). A duplicate primary key is a
// critical, unrecoverable error.
func (j *Journal) PersistMsg(raw []byte, s *session.Session, dir session.Direction) error {
	id, err := j.sessionID(s)
	if err != nil {
		return err
	}
	seqNo, err := codec.FindSeqNo(raw)
	if err != nil {
		return err
	}

	_, err = j.db.Exec(`INSERT INTO message(seq_no, session_id, direction, msg) VALUES (?, ?, ?, ?)`,
		seqNo, id, dir, raw)
	if err != nil {
		return fmt.Errorf("%w: seq=%d session=%s direction=%s: %v", fixerr.ErrDuplicateSeqNo, seqNo, s.Key(), dir, err)
	}

	col := "outbound_seq_no"
	if dir == session.Inbound {
		col = "inbound_seq_no"
	}
	if _, err := j.db.Exec(fmt.Sprintf(`UPDATE session SET %s = ? WHERE session_id = ?`, col), seqNo, id); err != nil {
		return fmt.Errorf("update session high-water mark: %w", err)
	}
	return nil
}

// RecoverMsg returns the single encoded frame at seqNo, or nil if absent.
func (j *Journal) RecoverMsg(s *session.Session, dir session.Direction, seqNo int) ([]byte, error) {
	msgs, err := j.RecoverMessages(s, dir, seqNo, seqNo)
	if err != nil || len(msgs) == 0 {
		return nil, err
	}
	return msgs[0], nil
}

// RecoverMessages returns encoded frames in [start, end] seq order. end==0
// means "through the highest persisted seq for this session/direction".
func (j *Journal) RecoverMessages(s *session.Session, dir session.Direction, start, end int) ([][]byte, error) {
	id, err := j.sessionID(s)
	if err != nil {
		return nil, err
	}
	if end == 0 {
		end = int(^uint(0) >> 1) // max int: "through highest"
	}
	rows, err := j.db.Query(
		`SELECT msg FROM message WHERE session_id = ? AND direction = ? AND seq_no >= ? AND seq_no <= ? ORDER BY seq_no`,
		id, dir, start, end)
	if err != nil {
		return nil, fmt.Errorf("recover messages: %w", err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var msg []byte
		if err := rows.Scan(&msg); err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}
