// Package archive persists completed interviews and their evaluation
// reports to PostgreSQL for audit and later review.
package archive

import (
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store persists archived interviews to PostgreSQL.
type Store struct {
	db *sql.DB
}

// Open connects to the archive database at connStr and applies pending
// migrations.
func Open(connStr string) (*Store, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("archive open: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive ping: %w", err)
	}
	if err = migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`)
	if err != nil {
		return err
	}

	var current int
	row := db.QueryRow(`SELECT COALESCE(MAX(version), -1) FROM schema_version`)
	if err = row.Scan(&current); err != nil {
		return err
	}

	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	for i := current + 1; i < len(entries); i++ {
		data, readErr := migrationFS.ReadFile("migrations/" + entries[i].Name())
		if readErr != nil {
			return fmt.Errorf("read migration %d: %w", i, readErr)
		}
		if _, execErr := db.Exec(string(data)); execErr != nil {
			return fmt.Errorf("migration %d: %w", i, execErr)
		}
		if _, execErr := db.Exec(`INSERT INTO schema_version (version) VALUES ($1)`, i); execErr != nil {
			return fmt.Errorf("migration %d record: %w", i, execErr)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertInterview stores one completed interview with its turns and
// responses in a single transaction.
func (s *Store) InsertInterview(iv Interview, turns []ArchivedTurn, responses []ArchivedResponse) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO interviews (id, candidate_name, candidate_email, role, started_at, ended_at, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO NOTHING`,
		iv.ID, iv.CandidateName, iv.CandidateMail, iv.Role, iv.StartedAt.UTC(), iv.EndedAt, iv.Status,
	)
	if err != nil {
		return err
	}

	for _, t := range turns {
		_, err = tx.Exec(
			`INSERT INTO turns (interview_id, position, speaker, text, turn_type, spoken_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (interview_id, position) DO NOTHING`,
			t.InterviewID, t.Position, t.Speaker, t.Text, t.TurnType, t.SpokenAt.UTC(),
		)
		if err != nil {
			return err
		}
	}

	for _, r := range responses {
		_, err = tx.Exec(
			`INSERT INTO responses (interview_id, question_index, question_text, answer_text, answered_at)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (interview_id, question_index) DO NOTHING`,
			r.InterviewID, r.QuestionIndex, r.QuestionText, r.AnswerText, r.AnsweredAt.UTC(),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// InsertReport stores one evaluation report.
func (s *Store) InsertReport(r ArchivedReport) error {
	_, err := s.db.Exec(
		`INSERT INTO reports (id, interview_id, overall_score, recommendation, summary, heuristic, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.InterviewID, r.OverallScore, r.Recommendation, r.Summary, r.Heuristic, r.CreatedAt.UTC(),
	)
	return err
}

// ListInterviews returns archived interviews ordered newest first, with
// turn and response counts.
func (s *Store) ListInterviews(limit, offset int) ([]Interview, int, error) {
	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM interviews`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.Query(`
		SELECT i.id, i.candidate_name, i.candidate_email, i.role, i.started_at, i.ended_at, i.status,
		       COUNT(DISTINCT t.position) AS turn_count,
		       COUNT(DISTINCT r.question_index) AS response_count
		FROM interviews i
		LEFT JOIN turns t ON t.interview_id = i.id
		LEFT JOIN responses r ON r.interview_id = i.id
		GROUP BY i.id
		ORDER BY i.started_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var interviews []Interview
	for rows.Next() {
		var iv Interview
		var endedAt sql.NullTime
		if err = rows.Scan(&iv.ID, &iv.CandidateName, &iv.CandidateMail, &iv.Role, &iv.StartedAt, &endedAt, &iv.Status, &iv.TurnCount, &iv.ResponseCount); err != nil {
			return nil, 0, err
		}
		if endedAt.Valid {
			iv.EndedAt = &endedAt.Time
		}
		interviews = append(interviews, iv)
	}
	return interviews, total, rows.Err()
}

// GetInterview returns a single interview with its turns and responses.
func (s *Store) GetInterview(id string) (*Interview, []ArchivedTurn, []ArchivedResponse, error) {
	var iv Interview
	var endedAt sql.NullTime
	err := s.db.QueryRow(
		`SELECT id, candidate_name, candidate_email, role, started_at, ended_at, status FROM interviews WHERE id = $1`, id,
	).Scan(&iv.ID, &iv.CandidateName, &iv.CandidateMail, &iv.Role, &iv.StartedAt, &endedAt, &iv.Status)
	if err != nil {
		return nil, nil, nil, err
	}
	if endedAt.Valid {
		iv.EndedAt = &endedAt.Time
	}

	turnRows, err := s.db.Query(
		`SELECT interview_id, position, speaker, text, turn_type, spoken_at FROM turns WHERE interview_id = $1 ORDER BY position ASC`,
		id,
	)
	if err != nil {
		return nil, nil, nil, err
	}
	defer turnRows.Close()

	var turns []ArchivedTurn
	for turnRows.Next() {
		var t ArchivedTurn
		if err = turnRows.Scan(&t.InterviewID, &t.Position, &t.Speaker, &t.Text, &t.TurnType, &t.SpokenAt); err != nil {
			return nil, nil, nil, err
		}
		turns = append(turns, t)
	}
	if err = turnRows.Err(); err != nil {
		return nil, nil, nil, err
	}

	respRows, err := s.db.Query(
		`SELECT interview_id, question_index, question_text, answer_text, answered_at FROM responses WHERE interview_id = $1 ORDER BY question_index ASC`,
		id,
	)
	if err != nil {
		return nil, nil, nil, err
	}
	defer respRows.Close()

	var responses []ArchivedResponse
	for respRows.Next() {
		var r ArchivedResponse
		if err = respRows.Scan(&r.InterviewID, &r.QuestionIndex, &r.QuestionText, &r.AnswerText, &r.AnsweredAt); err != nil {
			return nil, nil, nil, err
		}
		responses = append(responses, r)
	}
	return &iv, turns, responses, respRows.Err()
}

// GetReport returns the evaluation report for an interview, or
// sql.ErrNoRows when none was stored.
func (s *Store) GetReport(interviewID string) (*ArchivedReport, error) {
	var r ArchivedReport
	err := s.db.QueryRow(
		`SELECT id, interview_id, overall_score, recommendation, summary, heuristic, created_at
		 FROM reports WHERE interview_id = $1 ORDER BY created_at DESC LIMIT 1`,
		interviewID,
	).Scan(&r.ID, &r.InterviewID, &r.OverallScore, &r.Recommendation, &r.Summary, &r.Heuristic, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
