package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/chain-brief/pkg/brief"
)

const schema = `
CREATE TABLE IF NOT EXISTS briefs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    query TEXT NOT NULL,
    address TEXT NOT NULL,
    chain TEXT NOT NULL,
    kind TEXT NOT NULL,
    lang TEXT NOT NULL DEFAULT 'en',
    risk_score INTEGER NOT NULL,
    mode TEXT NOT NULL,
    narrative_source TEXT NOT NULL,
    payload TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS brief_findings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    brief_id INTEGER NOT NULL REFERENCES briefs(id) ON DELETE CASCADE,
    module TEXT NOT NULL,
    severity TEXT NOT NULL,
    text TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_brief_addr ON briefs(address);
CREATE INDEX IF NOT EXISTS idx_brief_time ON briefs(created_at);
CREATE INDEX IF NOT EXISTS idx_finding_brief ON brief_findings(brief_id);
`

// HighRiskScore is the score from which a stored brief counts as high risk in Stats.
const HighRiskScore = 80

// ErrNotFound is returned by GetBrief for unknown ids.
var ErrNotFound = errors.New("brief not found")

type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ---- Briefs ----

// InsertBrief stores the full result plus its findings and returns the new id.
func (s *Store) InsertBrief(r *brief.BriefResult) (int64, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return 0, fmt.Errorf("encode brief: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO briefs (query, address, chain, kind, lang, risk_score, mode, narrative_source, payload, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		r.Query, r.Target.Address, string(r.Target.Chain), string(r.Target.Kind), r.Lang,
		r.RiskScore, r.Runtime.Mode, r.Narrative.Source, string(payload), r.GeneratedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("insert brief: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, f := range r.Findings {
		if _, err := tx.Exec(`INSERT INTO brief_findings (brief_id, module, severity, text) VALUES (?,?,?,?)`,
			id, string(f.Module), string(f.Severity), f.Text); err != nil {
			return 0, fmt.Errorf("insert finding: %w", err)
		}
	}
	return id, tx.Commit()
}

// RecentBriefs lists the newest briefs first. An empty address lists all.
func (s *Store) RecentBriefs(address string, limit int) ([]BriefRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, query, address, chain, kind, lang, risk_score, mode, narrative_source, created_at
		FROM briefs
		WHERE ? = '' OR address = ?
		ORDER BY created_at DESC, id DESC LIMIT ?`, address, address, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BriefRecord
	for rows.Next() {
		var b BriefRecord
		if err := rows.Scan(&b.ID, &b.Query, &b.Address, &b.Chain, &b.Kind, &b.Lang,
			&b.RiskScore, &b.Mode, &b.Narrative, &b.CreatedAt); err != nil {
			continue
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) GetBrief(id int64) (*brief.BriefResult, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM briefs WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var r brief.BriefResult
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, fmt.Errorf("decode brief %d: %w", id, err)
	}
	return &r, nil
}

// PruneBefore deletes briefs generated before cutoff and returns how many went.
func (s *Store) PruneBefore(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM briefs WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ---- Stats ----

func (s *Store) GetStats() (Stats, error) {
	var st Stats
	err := s.db.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(kind = 'contract'), 0),
			COALESCE(SUM(kind = 'wallet'), 0),
			COALESCE(SUM(mode = 'enhanced'), 0),
			COALESCE(SUM(risk_score >= ?), 0),
			COALESCE(AVG(risk_score), 0)
		FROM briefs`, HighRiskScore).
		Scan(&st.Briefs, &st.Contracts, &st.Wallets, &st.Enhanced, &st.HighRisk, &st.AvgScore)
	return st, err
}
