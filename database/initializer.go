package database

import (
	"log"
	"strings"
)

func (s *PostgreSQLStore) Initialize() error {
	// Init all enums
	log.Println("Initializing PostgreSQL Database.", "Initializing Enums")
	if err := s.InitEnums(); err != nil {
		return err
	}
	// Init all tables
	log.Println("Initializing PostgreSQL Database.", "Initializing Tables")
	if err := s.InitTables(); err != nil {
		return err
	}
	return nil
}

func (s *PostgreSQLStore) InitEnums() error {
	query := `
		DO $$
		BEGIN
           	IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'paper_status') THEN
				CREATE TYPE paper_status AS ENUM ('active', 'archived');
           	END IF;
		END $$;

		DO $$
		BEGIN
           	IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'feedback_mode') THEN
				CREATE TYPE feedback_mode AS ENUM ('immediate', 'end_of_exam');
           	END IF;
		END $$;

		DO $$
		BEGIN
           	IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'marking_confidence') THEN
				CREATE TYPE marking_confidence AS ENUM ('low', 'medium', 'high');
           	END IF;
		END $$;

		DO $$
		BEGIN
           	IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'processing_job_status') THEN
				CREATE TYPE processing_job_status AS ENUM ('pending', 'processing', 'completed', 'failed');
           	END IF;
		END $$;
	`
	_, err := s.db.Exec(query)

	return err
}

func (s *PostgreSQLStore) InitTables() error {
	// boards table
	boards_table := `
	CREATE TABLE IF NOT EXISTS boards (
		id BIGINT PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		name VARCHAR(255) NOT NULL,
		slug VARCHAR(255) NOT NULL UNIQUE
	);
	`

	// levels table
	levels_table := `
	CREATE TABLE IF NOT EXISTS levels (
		id BIGINT PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		name VARCHAR(255) NOT NULL UNIQUE
	);
	`

	// subjects table
	subjects_table := `
	CREATE TABLE IF NOT EXISTS subjects (
		id BIGINT PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		name VARCHAR(255) NOT NULL,
		level_id BIGINT NOT NULL REFERENCES levels(id) ON DELETE CASCADE,
		UNIQUE(name, level_id)
	);
	`

	// papers table
	papers_table := `
	CREATE TABLE IF NOT EXISTS papers (
		id BIGINT PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		subject_id BIGINT NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
		board_id BIGINT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
		level_id BIGINT NOT NULL REFERENCES levels(id) ON DELETE CASCADE,
		year INTEGER NOT NULL,
		title VARCHAR(512) NOT NULL,
		series VARCHAR(50) NOT NULL DEFAULT '',
		paper_code VARCHAR(50) NOT NULL DEFAULT '',
		tier VARCHAR(50) NOT NULL DEFAULT '',
		pdf_url TEXT NOT NULL,
		mark_scheme_url TEXT NOT NULL,
		question_count INTEGER NOT NULL DEFAULT 0,
		total_marks INTEGER NOT NULL DEFAULT 0,
		status paper_status NOT NULL DEFAULT 'active'
	);
	`

	// paper_pages table
	paper_pages_table := `
	CREATE TABLE IF NOT EXISTS paper_pages (
		id BIGINT PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		paper_id BIGINT NOT NULL REFERENCES papers(id) ON DELETE CASCADE,
		page_number INTEGER NOT NULL,
		question_number VARCHAR(20) NOT NULL,
		UNIQUE(paper_id, page_number)
	);
	`

	// mark_scheme_pages table
	mark_scheme_pages_table := `
	CREATE TABLE IF NOT EXISTS mark_scheme_pages (
		id BIGINT PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		paper_id BIGINT NOT NULL REFERENCES papers(id) ON DELETE CASCADE,
		page_number INTEGER NOT NULL,
		question_number VARCHAR(20) NOT NULL,
		UNIQUE(paper_id, page_number)
	);
	`

	// questions table
	questions_table := `
	CREATE TABLE IF NOT EXISTS questions (
		id BIGINT PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		paper_id BIGINT NOT NULL REFERENCES papers(id) ON DELETE CASCADE,
		question_number VARCHAR(20) NOT NULL,
		page_number INTEGER NOT NULL,
		max_marks INTEGER NOT NULL,
		instructions TEXT NOT NULL DEFAULT '',
		mark_scheme_excerpt TEXT NOT NULL DEFAULT ''
	);
	`

	// attempts table
	attempts_table := `
	CREATE TABLE IF NOT EXISTS attempts (
		id BIGINT PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		paper_id BIGINT NOT NULL REFERENCES papers(id) ON DELETE CASCADE,
		session_id VARCHAR(100) NOT NULL,
		feedback_mode feedback_mode NOT NULL DEFAULT 'immediate',
		started_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		completed_at TIMESTAMPTZ,
		total_score INTEGER,
		max_score INTEGER
	);
	`

	// responses table
	responses_table := `
	CREATE TABLE IF NOT EXISTS responses (
		id BIGINT PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		attempt_id BIGINT NOT NULL REFERENCES attempts(id) ON DELETE CASCADE,
		question_id BIGINT REFERENCES questions(id) ON DELETE SET NULL,
		question_number VARCHAR(20) NOT NULL,
		student_answer TEXT NOT NULL,
		ai_score INTEGER,
		ai_feedback TEXT NOT NULL DEFAULT '',
		ai_confidence VARCHAR(10) NOT NULL DEFAULT '',
		improvement_tips JSONB,
		reviewed_by_human BOOLEAN NOT NULL DEFAULT FALSE,
		final_score INTEGER,
		final_feedback TEXT NOT NULL DEFAULT '',
		UNIQUE (attempt_id, question_number)
	);
	`

	// admin_users table
	admin_users_table := `
	CREATE TABLE IF NOT EXISTS admin_users (
		id BIGINT PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		email VARCHAR(512) NOT NULL UNIQUE,
		password_hash TEXT NOT NULL
	);
	`

	// processing_jobs table
	processing_jobs_table := `
	CREATE TABLE IF NOT EXISTS processing_jobs (
		id BIGINT PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		paper_url TEXT NOT NULL,
		mark_scheme_url TEXT NOT NULL,
		status processing_job_status NOT NULL DEFAULT 'pending',
		progress INTEGER NOT NULL DEFAULT 0,
		current_step VARCHAR(100) NOT NULL DEFAULT '',
		paper_id BIGINT REFERENCES papers(id) ON DELETE SET NULL,
		error TEXT NOT NULL DEFAULT '',
		completed_at TIMESTAMPTZ
	);
	`

	// cron_job_logs table
	cron_job_logs_table := `
	CREATE TABLE IF NOT EXISTS cron_job_logs (
		id BIGINT PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		job_name VARCHAR(100) NOT NULL,
		status VARCHAR(20) NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ,
		message TEXT NOT NULL DEFAULT ''
	);
	`

	all_tables := strings.Join([]string{
		boards_table,
		levels_table,
		subjects_table,
		papers_table,
		paper_pages_table,
		mark_scheme_pages_table,
		questions_table,
		attempts_table,
		responses_table,
		admin_users_table,
		processing_jobs_table,
		cron_job_logs_table,
	}, "")

	_, err := s.db.Exec(all_tables)
	return err
}
