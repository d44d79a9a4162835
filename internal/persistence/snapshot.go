package persistence

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pierrec/lz4/v4"
	"lukechampine.com/blake3"

	"github.com/talgya/mini-galaxy/internal/company"
	"github.com/talgya/mini-galaxy/internal/engine"
)

// ErrChecksum is returned when a stored snapshot does not match its hash.
var ErrChecksum = errors.New("snapshot checksum mismatch")

// Snapshot is a point-in-time copy of every company payload.
type Snapshot struct {
	Day       int64          `json:"day"`
	Tick      uint64         `json:"tick"`
	Companies []company.Save `json:"companies"`
}

// SnapshotInfo describes a stored snapshot.
type SnapshotInfo struct {
	ID        string `db:"id" json:"id"`
	Day       int64  `db:"day" json:"day"`
	CreatedAt string `db:"created_at" json:"created_at"`
	Checksum  string `db:"checksum" json:"checksum"`
	RawSize   int    `db:"raw_size" json:"raw_size"`
}

func compressLZ4(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(src); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressLZ4(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, lz4.NewReader(bytes.NewReader(src))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func hashBLAKE3(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SaveSnapshot stores a compressed copy of the simulation's companies. The
// checksum covers the uncompressed JSON.
func (db *DB) SaveSnapshot(sim *engine.Simulation) (SnapshotInfo, error) {
	snap := Snapshot{Day: sim.Day(), Tick: sim.CurrentTick(), Companies: sim.Saves()}
	raw, err := json.Marshal(snap)
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("encode snapshot: %w", err)
	}
	data, err := compressLZ4(raw)
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("compress snapshot: %w", err)
	}

	info := SnapshotInfo{
		ID:        uuid.NewString(),
		Day:       snap.Day,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Checksum:  hashBLAKE3(raw),
		RawSize:   len(raw),
	}
	_, err = db.conn.Exec(
		"INSERT INTO snapshots (id, day, created_at, checksum, raw_size, data) VALUES (?, ?, ?, ?, ?, ?)",
		info.ID, info.Day, info.CreatedAt, info.Checksum, info.RawSize, data,
	)
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("insert snapshot: %w", err)
	}
	return info, nil
}

// Snapshots lists stored snapshots, newest first.
func (db *DB) Snapshots() ([]SnapshotInfo, error) {
	var out []SnapshotInfo
	err := db.conn.Select(&out, "SELECT id, day, created_at, checksum, raw_size FROM snapshots ORDER BY day DESC, created_at DESC")
	return out, err
}

// LoadSnapshot reads, decompresses and verifies one snapshot.
func (db *DB) LoadSnapshot(id string) (*Snapshot, error) {
	var row struct {
		Checksum string `db:"checksum"`
		Data     []byte `db:"data"`
	}
	if err := db.conn.Get(&row, "SELECT checksum, data FROM snapshots WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", id, err)
	}
	raw, err := decompressLZ4(row.Data)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot %s: %w", id, err)
	}
	if hashBLAKE3(raw) != row.Checksum {
		return nil, fmt.Errorf("%w: %s", ErrChecksum, id)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	return &snap, nil
}

// PruneSnapshots keeps the newest keep snapshots and deletes the rest.
func (db *DB) PruneSnapshots(keep int) (int64, error) {
	res, err := db.conn.Exec(`DELETE FROM snapshots WHERE id NOT IN
		(SELECT id FROM snapshots ORDER BY day DESC, created_at DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return res.RowsAffected()
}
