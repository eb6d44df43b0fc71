// Package history keeps a journal of snapshots in SQLite. Snapshot values
// stay in memory; the journal keeps their metadata, the identities they
// contained and the DiffGrams that led to them.
package history

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/roaring64"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/agentic-research/arbor/diff"
	"github.com/agentic-research/arbor/internal/vfs"
	"github.com/agentic-research/arbor/tree"
)

// ErrNotFound is returned for unknown snapshot ids.
var ErrNotFound = errors.New("snapshot not found")

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	id            TEXT NOT NULL UNIQUE,
	label         TEXT NOT NULL,
	root_identity INTEGER NOT NULL,
	node_count    INTEGER NOT NULL,
	removed       INTEGER NOT NULL,
	changed       INTEGER NOT NULL,
	added         INTEGER NOT NULL,
	taken_at      INTEGER NOT NULL,
	identities    BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS diffgrams (
	snapshot_id TEXT NOT NULL REFERENCES snapshots(id),
	ord         INTEGER NOT NULL,
	kind        INTEGER NOT NULL,
	identity    INTEGER NOT NULL,
	path        TEXT NOT NULL,
	changes     INTEGER NOT NULL,
	PRIMARY KEY (snapshot_id, ord)
);
`

// Snapshot is one journal entry.
type Snapshot struct {
	ID           string        `json:"id" yaml:"id"`
	Seq          int64         `json:"seq" yaml:"seq"`
	Label        string        `json:"label" yaml:"label"`
	RootIdentity tree.Identity `json:"root_identity" yaml:"root_identity"`
	NodeCount    int           `json:"node_count" yaml:"node_count"`
	Summary      diff.Summary  `json:"summary" yaml:"summary"`
	TakenAt      time.Time     `json:"taken_at" yaml:"taken_at"`
}

// Record is a persisted DiffGram. The node values are not kept; Path locates
// the node in the snapshot it was last seen in.
type Record struct {
	Ord      int             `json:"ord" yaml:"ord"`
	Kind     tree.ChangeKind `json:"kind" yaml:"kind"`
	Identity tree.Identity   `json:"identity" yaml:"identity"`
	Path     string          `json:"path" yaml:"path"`
	Changes  tree.Changes    `json:"changes" yaml:"changes"`
}

// Journal is a SQLite-backed snapshot journal.
type Journal struct {
	db    *sql.DB
	token string
	now   func() time.Time
}

var journalSeq atomic.Int64

// Open opens or creates the journal at path.
func Open(ctx context.Context, path string) (*Journal, error) {
	mod, err := registerMembers()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	// One connection for statements, one for members lookups issued from
	// inside them.
	db.SetMaxOpenConns(2)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	token := fmt.Sprintf("journal_%d", journalSeq.Add(1))
	mod.attach(token, db)
	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS members"); err != nil {
		mod.detach(token)
		_ = db.Close()
		return nil, fmt.Errorf("drop members table: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("CREATE VIRTUAL TABLE members USING arbor_members(%s)", token)); err != nil {
		mod.detach(token)
		_ = db.Close()
		return nil, fmt.Errorf("create members table: %w", err)
	}
	return &Journal{db: db, token: token, now: time.Now}, nil
}

func (j *Journal) Close() error {
	if members != nil {
		members.detach(j.token)
	}
	return j.db.Close()
}

// Record journals current. When prior is non-nil, the DiffGrams between the
// two are stored with it; prior must be an earlier version of current.
func (j *Journal) Record(ctx context.Context, label string, current, prior tree.Node) (Snapshot, []tree.DiffGram, error) {
	var grams []tree.DiffGram
	if prior != nil {
		var err error
		if grams, err = diff.ChangesSince(current, prior); err != nil {
			return Snapshot{}, nil, err
		}
	}

	ids := roaring64.New()
	for n := range tree.All(current) {
		ids.Add(uint64(n.Identity()))
	}
	blob, err := ids.ToBytes()
	if err != nil {
		return Snapshot{}, nil, fmt.Errorf("encode identities: %w", err)
	}

	snap := Snapshot{
		ID:           uuid.NewString(),
		Label:        label,
		RootIdentity: current.Identity(),
		NodeCount:    int(ids.GetCardinality()),
		Summary:      diff.Summarize(grams),
		TakenAt:      j.now().UTC(),
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, label, root_identity, node_count, removed, changed, added, taken_at, identities)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Label, int64(snap.RootIdentity), snap.NodeCount,
		snap.Summary.Removed, snap.Summary.Changed, snap.Summary.Added,
		snap.TakenAt.UnixNano(), blob)
	if err != nil {
		return Snapshot{}, nil, fmt.Errorf("insert snapshot: %w", err)
	}
	if snap.Seq, err = res.LastInsertId(); err != nil {
		return Snapshot{}, nil, err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO diffgrams (snapshot_id, ord, kind, identity, path, changes) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Snapshot{}, nil, fmt.Errorf("prepare diffgram insert: %w", err)
	}
	defer stmt.Close()
	for i, g := range grams {
		in := current
		if g.Kind == tree.KindRemoved {
			in = prior
		}
		p, err := vfs.PathOf(in, g.Identity)
		if err != nil {
			return Snapshot{}, nil, fmt.Errorf("locate %d: %w", g.Identity, err)
		}
		if _, err := stmt.ExecContext(ctx, snap.ID, i, int(g.Kind), int64(g.Identity), p, int64(g.Changes)); err != nil {
			return Snapshot{}, nil, fmt.Errorf("insert diffgram: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return Snapshot{}, nil, fmt.Errorf("commit: %w", err)
	}

	slog.Info("snapshot recorded",
		"id", snap.ID, "label", label, "nodes", snap.NodeCount,
		"removed", snap.Summary.Removed, "changed", snap.Summary.Changed, "added", snap.Summary.Added)
	return snap, grams, nil
}

// List returns every snapshot, oldest first.
func (j *Journal) List(ctx context.Context) ([]Snapshot, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT seq, id, label, root_identity, node_count, removed, changed, added, taken_at
		 FROM snapshots ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	return scanSnapshots(rows)
}

// Containing returns the snapshots that held identity, oldest first.
func (j *Journal) Containing(ctx context.Context, identity tree.Identity) ([]Snapshot, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT s.seq, s.id, s.label, s.root_identity, s.node_count, s.removed, s.changed, s.added, s.taken_at
		 FROM members m JOIN snapshots s ON s.id = m.snapshot_id
		 WHERE m.identity = ? ORDER BY s.seq`, int64(identity))
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	return scanSnapshots(rows)
}

func scanSnapshots(rows *sql.Rows) ([]Snapshot, error) {
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		var root, taken int64
		if err := rows.Scan(&s.Seq, &s.ID, &s.Label, &root, &s.NodeCount,
			&s.Summary.Removed, &s.Summary.Changed, &s.Summary.Added, &taken); err != nil {
			return nil, err
		}
		s.RootIdentity = tree.Identity(root)
		s.TakenAt = time.Unix(0, taken).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

// Changes returns the records stored with snapshot id, in emission order.
func (j *Journal) Changes(ctx context.Context, id string) ([]Record, error) {
	if err := j.exists(ctx, id); err != nil {
		return nil, err
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT ord, kind, identity, path, changes FROM diffgrams WHERE snapshot_id = ? ORDER BY ord`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var kind int
		var ident, changes int64
		if err := rows.Scan(&r.Ord, &kind, &ident, &r.Path, &changes); err != nil {
			return nil, err
		}
		r.Kind = tree.ChangeKind(kind)
		r.Identity = tree.Identity(ident)
		r.Changes = tree.Changes(changes)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Identities returns the set of identities snapshot id contained.
func (j *Journal) Identities(ctx context.Context, id string) (*roaring64.Bitmap, error) {
	var blob []byte
	err := j.db.QueryRowContext(ctx, `SELECT identities FROM snapshots WHERE id = ?`, id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	bm := roaring64.New()
	if _, err := bm.ReadFrom(bytes.NewReader(blob)); err != nil {
		return nil, fmt.Errorf("decode identities of %s: %w", id, err)
	}
	return bm, nil
}

// Survivors returns the identities present in both snapshots.
func (j *Journal) Survivors(ctx context.Context, a, b string) (*roaring64.Bitmap, error) {
	x, err := j.Identities(ctx, a)
	if err != nil {
		return nil, err
	}
	y, err := j.Identities(ctx, b)
	if err != nil {
		return nil, err
	}
	return roaring64.And(x, y), nil
}

func (j *Journal) exists(ctx context.Context, id string) error {
	var n int
	if err := j.db.QueryRowContext(ctx, `SELECT count(*) FROM snapshots WHERE id = ?`, id).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
