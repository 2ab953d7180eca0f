package depgraph

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"incr/internal/depnode"
	"incr/internal/fingerprint"
)

// Store is the on-disk record of past sessions: which nodes each session
// produced, the edges between them, and the work products saved for reuse.
type Store struct {
	conn   *sql.DB
	logger *slog.Logger
	dbPath string
}

// SessionInfo describes one recorded session.
type SessionInfo struct {
	ID         string
	StartedAt  time.Time
	FinishedAt *time.Time
	NodeCount  int
}

// Edge is a dependency between two nodes of a session, by node index.
type Edge struct {
	From uint32
	To   uint32
}

// WorkProduct is a saved artifact addressed by its session-independent id.
type WorkProduct struct {
	ID       depnode.WorkProductID
	UnitName string
	Path     string
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	started_at  INTEGER NOT NULL,
	finished_at INTEGER
);

CREATE TABLE IF NOT EXISTS nodes (
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	idx        INTEGER NOT NULL,
	kind       INTEGER NOT NULL,
	hash       BLOB NOT NULL,
	PRIMARY KEY (session_id, idx)
);

CREATE TABLE IF NOT EXISTS edges (
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	from_idx   INTEGER NOT NULL,
	to_idx     INTEGER NOT NULL,
	PRIMARY KEY (session_id, from_idx, to_idx)
);

CREATE TABLE IF NOT EXISTS work_products (
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	id         BLOB NOT NULL,
	unit_name  TEXT NOT NULL,
	path       TEXT NOT NULL,
	PRIMARY KEY (session_id, id)
);

CREATE INDEX IF NOT EXISTS idx_nodes_kind ON nodes(session_id, kind);
`

// Open opens or creates the dep-graph database inside stateDir.
func Open(stateDir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	dbPath := filepath.Join(stateDir, "depgraph.db")

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	logger.Debug("dep-graph store opened", "path", dbPath)

	return &Store{conn: conn, logger: logger, dbPath: dbPath}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.dbPath }

// BeginSession records a new session and returns its id.
func (s *Store) BeginSession() (string, error) {
	id := uuid.New().String()
	_, err := s.conn.Exec(
		`INSERT INTO sessions (id, started_at) VALUES (?, ?)`,
		id, time.Now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("begin session: %w", err)
	}
	return id, nil
}

// FinishSession marks a session complete.
func (s *Store) FinishSession(id string) error {
	res, err := s.conn.Exec(
		`UPDATE sessions SET finished_at = ? WHERE id = ?`,
		time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("finish session: unknown session %s", id)
	}
	return nil
}

// Sessions lists recorded sessions, most recent first.
func (s *Store) Sessions() ([]SessionInfo, error) {
	rows, err := s.conn.Query(`
		SELECT s.id, s.started_at, s.finished_at, COUNT(n.idx)
		FROM sessions s LEFT JOIN nodes n ON n.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var infos []SessionInfo
	for rows.Next() {
		var info SessionInfo
		var started int64
		var finished sql.NullInt64
		if err := rows.Scan(&info.ID, &started, &finished, &info.NodeCount); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		info.StartedAt = time.Unix(started, 0)
		if finished.Valid {
			t := time.Unix(finished.Int64, 0)
			info.FinishedAt = &t
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// SaveNodes stores a session's node table. Node indices follow slice order,
// so edges recorded against the same session stay meaningful.
func (s *Store) SaveNodes(sessionID string, nodes []RawNode) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin node save: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM nodes WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear old nodes: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO nodes (session_id, idx, kind, hash) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare node insert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck

	for i, n := range nodes {
		h := n.Hash.Bytes()
		if _, err := stmt.Exec(sessionID, i, n.Kind, h[:]); err != nil {
			return fmt.Errorf("insert node %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit node save: %w", err)
	}
	s.logger.Debug("node table saved", "session", sessionID, "nodes", len(nodes))
	return nil
}

// Nodes loads a session's node table in index order.
func (s *Store) Nodes(sessionID string) ([]RawNode, error) {
	rows, err := s.conn.Query(
		`SELECT kind, hash FROM nodes WHERE session_id = ? ORDER BY idx`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var nodes []RawNode
	for rows.Next() {
		var kind uint16
		var raw []byte
		if err := rows.Scan(&kind, &raw); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		if len(raw) != fingerprint.Size {
			return nil, fmt.Errorf("node hash has %d bytes, want %d", len(raw), fingerprint.Size)
		}
		var h [fingerprint.Size]byte
		copy(h[:], raw)
		nodes = append(nodes, RawNode{Kind: kind, Hash: fingerprint.FromBytes(h)})
	}
	return nodes, rows.Err()
}

// KindCounts returns the number of nodes per kind discriminant for a session.
func (s *Store) KindCounts(sessionID string) (map[uint16]int, error) {
	rows, err := s.conn.Query(
		`SELECT kind, COUNT(*) FROM nodes WHERE session_id = ? GROUP BY kind`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query kind counts: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	counts := make(map[uint16]int)
	for rows.Next() {
		var kind uint16
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan kind count: %w", err)
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}

// SaveEdges stores a session's dependency edges.
func (s *Store) SaveEdges(sessionID string, edges []Edge) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin edge save: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM edges WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear old edges: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO edges (session_id, from_idx, to_idx) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare edge insert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck

	for _, e := range edges {
		if _, err := stmt.Exec(sessionID, e.From, e.To); err != nil {
			return fmt.Errorf("insert edge %d->%d: %w", e.From, e.To, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit edge save: %w", err)
	}
	return nil
}

// Edges loads a session's dependency edges.
func (s *Store) Edges(sessionID string) ([]Edge, error) {
	rows, err := s.conn.Query(
		`SELECT from_idx, to_idx FROM edges WHERE session_id = ? ORDER BY from_idx, to_idx`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var edges []Edge
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.From, &e.To); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// PutWorkProduct records a saved artifact for a session. Re-recording the
// same id within a session updates the artifact location.
func (s *Store) PutWorkProduct(sessionID string, wp WorkProduct) error {
	id := wp.ID.Fingerprint().Bytes()
	_, err := s.conn.Exec(`
		INSERT INTO work_products (session_id, id, unit_name, path)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (session_id, id) DO UPDATE SET unit_name = excluded.unit_name, path = excluded.path
	`, sessionID, id[:], wp.UnitName, wp.Path)
	if err != nil {
		return fmt.Errorf("put work product %s: %w", wp.ID, err)
	}
	return nil
}

// WorkProducts lists the artifacts recorded for a session.
func (s *Store) WorkProducts(sessionID string) ([]WorkProduct, error) {
	rows, err := s.conn.Query(
		`SELECT id, unit_name, path FROM work_products WHERE session_id = ? ORDER BY unit_name`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query work products: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var products []WorkProduct
	for rows.Next() {
		var raw []byte
		var wp WorkProduct
		if err := rows.Scan(&raw, &wp.UnitName, &wp.Path); err != nil {
			return nil, fmt.Errorf("scan work product: %w", err)
		}
		if len(raw) != fingerprint.Size {
			return nil, fmt.Errorf("work product id has %d bytes, want %d", len(raw), fingerprint.Size)
		}
		var h [fingerprint.Size]byte
		copy(h[:], raw)
		wp.ID = depnode.WorkProductFromFingerprint(fingerprint.FromBytes(h))
		products = append(products, wp)
	}
	return products, rows.Err()
}

// SaveGraph encodes and stores a typed node table under a session.
func SaveGraph[K depnode.Kind](s *Store, sessionID string, codec Codec[K], nodes []depnode.DepNode[K]) error {
	raw, err := Encode(codec, nodes)
	if err != nil {
		return err
	}
	return s.SaveNodes(sessionID, raw)
}

// LoadGraph loads and decodes a session's node table.
func LoadGraph[K depnode.Kind](s *Store, sessionID string, codec Codec[K]) ([]depnode.DepNode[K], error) {
	raw, err := s.Nodes(sessionID)
	if err != nil {
		return nil, err
	}
	return Decode(codec, raw)
}
