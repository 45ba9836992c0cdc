package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mieruca/mieruca-kokkai/internal/domain"
)

// MemberArchive keeps a historical copy of every scrape run in Postgres.
// The file cache remains the pipeline's source of truth; the archive is a
// write-behind sink for longer-term analysis.
type MemberArchive struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewMemberArchive(postgres *PostgresService, logger *zap.Logger) *MemberArchive {
	return &MemberArchive{
		db:     postgres.GetDB(),
		logger: logger,
	}
}

// EnsureSchema creates the archive tables when they do not exist yet.
func (a *MemberArchive) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS scrape_runs (
			id           BIGSERIAL PRIMARY KEY,
			chamber      TEXT NOT NULL,
			mode         TEXT NOT NULL,
			member_count INTEGER NOT NULL,
			source       TEXT NOT NULL,
			scraped_at   TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS members (
			id             BIGSERIAL PRIMARY KEY,
			run_id         BIGINT NOT NULL REFERENCES scrape_runs(id),
			chamber        TEXT NOT NULL,
			name           TEXT NOT NULL,
			furigana       TEXT,
			party          TEXT NOT NULL,
			district       JSONB NOT NULL,
			election_count JSONB,
			profile_url    TEXT,
			term_ends      TEXT,
			profile        JSONB,
			updated_at     TIMESTAMPTZ NOT NULL,
			UNIQUE (chamber, name)
		)`,
	}

	for _, stmt := range statements {
		if _, err := a.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure archive schema: %w", err)
		}
	}
	return nil
}

// ArchiveRun records one completed scrape: a run row plus an upsert per
// member, all in one transaction.
func (a *MemberArchive) ArchiveRun(ctx context.Context, chamber domain.Chamber, mode domain.ScrapeMode, members []domain.Member, scrapedAt time.Time, source string) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin archive transaction: %w", err)
	}
	defer tx.Rollback()

	var runID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO scrape_runs (chamber, mode, member_count, source, scraped_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		string(chamber), string(mode), len(members), source, scrapedAt,
	).Scan(&runID)
	if err != nil {
		return fmt.Errorf("failed to insert scrape run: %w", err)
	}

	for i := range members {
		if err := a.upsertMember(ctx, tx, runID, chamber, &members[i], scrapedAt); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit archive transaction: %w", err)
	}

	a.logger.Info("Scrape run archived",
		zap.Int64("run_id", runID),
		zap.String("chamber", string(chamber)),
		zap.String("mode", string(mode)),
		zap.Int("members", len(members)))

	return nil
}

func (a *MemberArchive) upsertMember(ctx context.Context, tx *sql.Tx, runID int64, chamber domain.Chamber, member *domain.Member, scrapedAt time.Time) error {
	districtJSON, err := json.Marshal(member.District)
	if err != nil {
		return fmt.Errorf("failed to marshal district for %s: %w", member.Name, err)
	}

	var countJSON any
	if member.ElectionCount != nil {
		data, err := json.Marshal(member.ElectionCount)
		if err != nil {
			return fmt.Errorf("failed to marshal election count for %s: %w", member.Name, err)
		}
		countJSON = data
	}

	var profileJSON any
	if member.Profile != nil {
		data, err := json.Marshal(member.Profile)
		if err != nil {
			return fmt.Errorf("failed to marshal profile for %s: %w", member.Name, err)
		}
		profileJSON = data
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO members (run_id, chamber, name, furigana, party, district,
		                      election_count, profile_url, term_ends, profile, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (chamber, name) DO UPDATE SET
		    run_id         = EXCLUDED.run_id,
		    furigana       = EXCLUDED.furigana,
		    party          = EXCLUDED.party,
		    district       = EXCLUDED.district,
		    election_count = EXCLUDED.election_count,
		    profile_url    = EXCLUDED.profile_url,
		    term_ends      = EXCLUDED.term_ends,
		    profile        = COALESCE(EXCLUDED.profile, members.profile),
		    updated_at     = EXCLUDED.updated_at`,
		runID, string(chamber), member.Name, nullString(member.Furigana), member.Party,
		districtJSON, countJSON, nullString(member.ProfileURL), nullString(member.TermEnds),
		profileJSON, scrapedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert member %s: %w", member.Name, err)
	}
	return nil
}

// nullString maps "" to SQL NULL for the optional text columns.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
