package history

import (
	"bytes"
	"database/sql"
	"fmt"
	"sync"

	"github.com/RoaringBitmap/roaring/roaring64"
	"modernc.org/sqlite/vtab"
)

// membersModule exposes the identity bitmaps stored with each snapshot as
// rows of (snapshot_id, identity). modernc.org/sqlite registers modules per
// driver, so one module serves every open journal; each journal registers
// its *sql.DB under the token it passes to CREATE VIRTUAL TABLE.
type membersModule struct {
	mu  sync.RWMutex
	dbs map[string]*sql.DB
}

var (
	membersOnce sync.Once
	members     *membersModule
	membersErr  error
)

func registerMembers() (*membersModule, error) {
	membersOnce.Do(func() {
		members = &membersModule{dbs: make(map[string]*sql.DB)}
		if err := vtab.RegisterModule(nil, "arbor_members", members); err != nil {
			membersErr = fmt.Errorf("register arbor_members: %w", err)
			members = nil
		}
	})
	return members, membersErr
}

func (m *membersModule) attach(token string, db *sql.DB) {
	m.mu.Lock()
	m.dbs[token] = db
	m.mu.Unlock()
}

func (m *membersModule) detach(token string) {
	m.mu.Lock()
	delete(m.dbs, token)
	m.mu.Unlock()
}

// --- vtab.Module ---

// Create binds the table to the journal registered under args[3]. A table
// left behind by an earlier process binds to nothing and reads empty, so
// Open can drop and recreate it.
func (m *membersModule) Create(ctx vtab.Context, args []string) (vtab.Table, error) {
	if err := ctx.Declare("CREATE TABLE x(snapshot_id TEXT, identity INTEGER)"); err != nil {
		return nil, err
	}
	t := &membersTable{}
	if len(args) >= 4 {
		m.mu.RLock()
		t.db = m.dbs[args[3]]
		m.mu.RUnlock()
	}
	return t, nil
}

func (m *membersModule) Connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.Create(ctx, args)
}

// --- vtab.Table ---

const (
	scanAll = iota
	scanIdentity
	scanSnapshot
)

type membersTable struct {
	db *sql.DB
}

func (t *membersTable) BestIndex(info *vtab.IndexInfo) error {
	for i := range info.Constraints {
		c := &info.Constraints[i]
		if !c.Usable || c.Op != vtab.OpEQ {
			continue
		}
		switch c.Column {
		case 0:
			c.ArgIndex = 0
			c.Omit = true
			info.IdxNum = scanSnapshot
			info.EstimatedCost = 10
			info.EstimatedRows = 1000
			return nil
		case 1:
			c.ArgIndex = 0
			c.Omit = true
			info.IdxNum = scanIdentity
			info.EstimatedCost = 100
			info.EstimatedRows = 10
			return nil
		}
	}
	info.IdxNum = scanAll
	info.EstimatedCost = 1e6
	info.EstimatedRows = 1e6
	return nil
}

func (t *membersTable) Open() (vtab.Cursor, error) { return &membersCursor{table: t}, nil }
func (t *membersTable) Disconnect() error          { return nil }
func (t *membersTable) Destroy() error             { return nil }

// --- vtab.Cursor ---

type memberRow struct {
	snapshot string
	identity uint64
}

type membersCursor struct {
	table *membersTable
	rows  []memberRow
	pos   int
}

// Filter runs inside the outer statement, so it reads through the second
// pool connection and materializes before returning.
func (c *membersCursor) Filter(idxNum int, idxStr string, vals []vtab.Value) error {
	c.rows = c.rows[:0]
	c.pos = 0
	if c.table.db == nil {
		return nil
	}

	switch idxNum {
	case scanSnapshot:
		id, ok := vals[0].(string)
		if !ok {
			return nil
		}
		return c.load(`SELECT id, identities FROM snapshots WHERE id = ?`, id, nil)
	case scanIdentity:
		ident, ok := vals[0].(int64)
		if !ok {
			return nil
		}
		want := uint64(ident)
		return c.load(`SELECT id, identities FROM snapshots ORDER BY seq`, nil, &want)
	default:
		return c.load(`SELECT id, identities FROM snapshots ORDER BY seq`, nil, nil)
	}
}

// load expands the bitmap of every selected snapshot. With only non-nil,
// just that identity is emitted for the snapshots that contain it.
func (c *membersCursor) load(query string, arg any, only *uint64) error {
	type blobRow struct {
		id   string
		blob []byte
	}
	var args []any
	if arg != nil {
		args = append(args, arg)
	}
	rows, err := c.table.db.Query(query, args...)
	if err != nil {
		return fmt.Errorf("arbor_members: scan snapshots: %w", err)
	}
	var blobs []blobRow
	for rows.Next() {
		var b blobRow
		if err := rows.Scan(&b.id, &b.blob); err != nil {
			_ = rows.Close()
			return fmt.Errorf("arbor_members: scan snapshots: %w", err)
		}
		blobs = append(blobs, b)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("arbor_members: scan snapshots: %w", err)
	}
	_ = rows.Close()

	for _, b := range blobs {
		bm := roaring64.New()
		if _, err := bm.ReadFrom(bytes.NewReader(b.blob)); err != nil {
			return fmt.Errorf("arbor_members: decode identities of %s: %w", b.id, err)
		}
		if only != nil {
			if bm.Contains(*only) {
				c.rows = append(c.rows, memberRow{snapshot: b.id, identity: *only})
			}
			continue
		}
		it := bm.Iterator()
		for it.HasNext() {
			c.rows = append(c.rows, memberRow{snapshot: b.id, identity: it.Next()})
		}
	}
	return nil
}

func (c *membersCursor) Next() error {
	c.pos++
	return nil
}

func (c *membersCursor) Eof() bool { return c.pos >= len(c.rows) }

func (c *membersCursor) Column(col int) (vtab.Value, error) {
	if c.pos >= len(c.rows) {
		return nil, nil
	}
	switch col {
	case 0:
		return c.rows[c.pos].snapshot, nil
	case 1:
		return int64(c.rows[c.pos].identity), nil
	default:
		return nil, nil
	}
}

func (c *membersCursor) Rowid() (int64, error) { return int64(c.pos), nil }

func (c *membersCursor) Close() error {
	c.rows = nil
	return nil
}
