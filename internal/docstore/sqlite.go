package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/gophora/engine/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a single-node Store backed by a SQLite database. Personalized
// jobs are flattened into one table keyed by user_id.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	user_id    TEXT PRIMARY KEY,
	email      TEXT NOT NULL DEFAULT '',
	name       TEXT NOT NULL DEFAULT '',
	skills     TEXT NOT NULL DEFAULT '[]',
	interests  TEXT NOT NULL DEFAULT '[]',
	experience TEXT NOT NULL DEFAULT '',
	location   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS general_jobs (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	title        TEXT NOT NULL,
	company      TEXT NOT NULL DEFAULT '',
	location     TEXT NOT NULL DEFAULT '',
	description  TEXT NOT NULL DEFAULT '',
	requirements TEXT NOT NULL DEFAULT '',
	salary       TEXT NOT NULL DEFAULT '',
	category     TEXT NOT NULL DEFAULT '',
	source       TEXT NOT NULL DEFAULT '',
	source_link  TEXT NOT NULL,
	scraped_at   DATETIME NOT NULL,
	is_active    INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_general_source_link ON general_jobs(source_link);

CREATE TABLE IF NOT EXISTS personalized_jobs (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id       TEXT NOT NULL,
	title         TEXT NOT NULL,
	company       TEXT NOT NULL DEFAULT '',
	location      TEXT NOT NULL DEFAULT '',
	description   TEXT NOT NULL DEFAULT '',
	requirements  TEXT NOT NULL DEFAULT '',
	salary        TEXT NOT NULL DEFAULT '',
	category      TEXT NOT NULL DEFAULT '',
	source        TEXT NOT NULL DEFAULT '',
	source_link   TEXT NOT NULL,
	scraped_at    DATETIME NOT NULL,
	is_active     INTEGER NOT NULL DEFAULT 1,
	score         REAL NOT NULL DEFAULT 0,
	reasoning     TEXT NOT NULL DEFAULT '',
	skill_matches TEXT NOT NULL DEFAULT '[]',
	skill_gaps    TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_personalized_dedup ON personalized_jobs(user_id, title, company);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*model.UserProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, email, name, skills, interests, experience, location
		 FROM users WHERE user_id = ?`, userID)
	return scanUser(row)
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*model.UserProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, email, name, skills, interests, experience, location
		 FROM users WHERE email = ? COLLATE NOCASE LIMIT 1`, email)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*model.UserProfile, error) {
	var u model.UserProfile
	var skills, interests string
	err := row.Scan(&u.UserID, &u.Email, &u.Name, &skills, &interests, &u.Experience, &u.Location)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	if err := json.Unmarshal([]byte(skills), &u.Skills); err != nil {
		return nil, fmt.Errorf("decoding skills: %w", err)
	}
	if err := json.Unmarshal([]byte(interests), &u.Interests); err != nil {
		return nil, fmt.Errorf("decoding interests: %w", err)
	}
	return &u, nil
}

func (s *SQLiteStore) PutUser(ctx context.Context, profile model.UserProfile) error {
	skills, err := json.Marshal(orEmpty(profile.Skills))
	if err != nil {
		return fmt.Errorf("encoding skills: %w", err)
	}
	interests, err := json.Marshal(orEmpty(profile.Interests))
	if err != nil {
		return fmt.Errorf("encoding interests: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (user_id, email, name, skills, interests, experience, location)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			email = excluded.email, name = excluded.name, skills = excluded.skills,
			interests = excluded.interests, experience = excluded.experience,
			location = excluded.location`,
		profile.UserID, profile.Email, profile.Name, string(skills), string(interests),
		profile.Experience, profile.Location)
	if err != nil {
		return fmt.Errorf("upserting user %s: %w", profile.UserID, err)
	}
	return nil
}

func (s *SQLiteStore) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM users ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) AddGeneralJob(ctx context.Context, job model.JobPosting) (string, error) {
	stamp(&job)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO general_jobs
			(title, company, location, description, requirements, salary, category, source, source_link, scraped_at, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		job.Title, job.Company, job.Location, job.Description, job.Requirements,
		job.Salary, job.Category, job.Source, job.SourceLink, job.ScrapedAt)
	if err != nil {
		return "", fmt.Errorf("inserting general job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("general job insert id: %w", err)
	}
	return strconv.FormatInt(id, 10), nil
}

func (s *SQLiteStore) HasGeneralJob(ctx context.Context, sourceLink string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM general_jobs WHERE source_link = ? LIMIT 1`, sourceLink).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking general job %s: %w", sourceLink, err)
	}
	return true, nil
}

func (s *SQLiteStore) ListGeneralJobs(ctx context.Context, opts ListOptions) ([]model.JobPosting, error) {
	query := `SELECT id, title, company, location, description, requirements, salary, category, source, source_link, scraped_at, is_active
		FROM general_jobs`
	where, args := listFilters(opts, "")
	query += where + ` ORDER BY scraped_at DESC` + listPaging(opts, &args)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing general jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.JobPosting
	for rows.Next() {
		var j model.JobPosting
		var id int64
		if err := rows.Scan(&id, &j.Title, &j.Company, &j.Location, &j.Description,
			&j.Requirements, &j.Salary, &j.Category, &j.Source, &j.SourceLink,
			&j.ScrapedAt, &j.IsActive); err != nil {
			return nil, fmt.Errorf("scanning general job: %w", err)
		}
		j.ID = strconv.FormatInt(id, 10)
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (s *SQLiteStore) DeactivateGeneralJobs(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE general_jobs SET is_active = 0 WHERE is_active = 1 AND scraped_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deactivating general jobs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deactivation row count: %w", err)
	}
	return int(n), nil
}

func (s *SQLiteStore) AddPersonalizedJob(ctx context.Context, userID string, job model.JobPosting) (string, error) {
	stamp(&job)
	matches, err := json.Marshal(orEmpty(job.SkillMatches))
	if err != nil {
		return "", fmt.Errorf("encoding skill matches: %w", err)
	}
	gaps, err := json.Marshal(orEmpty(job.SkillGaps))
	if err != nil {
		return "", fmt.Errorf("encoding skill gaps: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO personalized_jobs
			(user_id, title, company, location, description, requirements, salary, category, source, source_link, scraped_at, is_active, score, reasoning, skill_matches, skill_gaps)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?, ?, ?)`,
		userID, job.Title, job.Company, job.Location, job.Description, job.Requirements,
		job.Salary, job.Category, job.Source, job.SourceLink, job.ScrapedAt,
		job.Score, job.Reasoning, string(matches), string(gaps))
	if err != nil {
		return "", fmt.Errorf("inserting personalized job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("personalized job insert id: %w", err)
	}
	return strconv.FormatInt(id, 10), nil
}

func (s *SQLiteStore) HasPersonalizedJob(ctx context.Context, userID, title, company string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM personalized_jobs WHERE user_id = ? AND title = ? AND company = ? LIMIT 1`,
		userID, title, company).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking personalized job for %s: %w", userID, err)
	}
	return true, nil
}

func (s *SQLiteStore) ListPersonalizedJobs(ctx context.Context, userID string, opts ListOptions) ([]model.JobPosting, error) {
	query := `SELECT id, title, company, location, description, requirements, salary, category, source, source_link, scraped_at, is_active, score, reasoning, skill_matches, skill_gaps
		FROM personalized_jobs`
	where, args := listFilters(opts, userID)
	query += where + ` ORDER BY scraped_at DESC` + listPaging(opts, &args)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing personalized jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.JobPosting
	for rows.Next() {
		var j model.JobPosting
		var id int64
		var matches, gaps string
		if err := rows.Scan(&id, &j.Title, &j.Company, &j.Location, &j.Description,
			&j.Requirements, &j.Salary, &j.Category, &j.Source, &j.SourceLink,
			&j.ScrapedAt, &j.IsActive, &j.Score, &j.Reasoning, &matches, &gaps); err != nil {
			return nil, fmt.Errorf("scanning personalized job: %w", err)
		}
		j.ID = strconv.FormatInt(id, 10)
		if err := json.Unmarshal([]byte(matches), &j.SkillMatches); err != nil {
			return nil, fmt.Errorf("decoding skill matches: %w", err)
		}
		if err := json.Unmarshal([]byte(gaps), &j.SkillGaps); err != nil {
			return nil, fmt.Errorf("decoding skill gaps: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (s *SQLiteStore) DeactivatePersonalizedJobs(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE personalized_jobs SET is_active = 0 WHERE is_active = 1 AND scraped_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deactivating personalized jobs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deactivation row count: %w", err)
	}
	return int(n), nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close(_ context.Context) error {
	return s.db.Close()
}

// listFilters builds the WHERE clause shared by both job listings. userID is
// empty for general jobs.
func listFilters(opts ListOptions, userID string) (string, []any) {
	var conds []string
	var args []any
	if userID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, userID)
	}
	if opts.ActiveOnly {
		conds = append(conds, "is_active = 1")
	}
	if opts.Category != "" {
		conds = append(conds, "category = ? COLLATE NOCASE")
		args = append(args, opts.Category)
	}
	if len(conds) == 0 {
		return "", args
	}
	where := " WHERE " + conds[0]
	for _, c := range conds[1:] {
		where += " AND " + c
	}
	return where, args
}

func listPaging(opts ListOptions, args *[]any) string {
	var clause string
	if opts.Limit > 0 {
		clause += " LIMIT ?"
		*args = append(*args, opts.Limit)
		if opts.Offset > 0 {
			clause += " OFFSET ?"
			*args = append(*args, opts.Offset)
		}
	} else if opts.Offset > 0 {
		clause += " LIMIT -1 OFFSET ?"
		*args = append(*args, opts.Offset)
	}
	return clause
}

// orEmpty keeps JSON columns as [] instead of null.
func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
