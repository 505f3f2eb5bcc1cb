// Copyright 2026 Athena Law
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/athenalaw/lexgate/pkg/config"
	"github.com/athenalaw/lexgate/pkg/courtapi"
)

// DocumentStore persists crawled court documents. Writes are
// idempotent on the document id so re-running an ingestion over an
// overlapping window never duplicates rows.
type DocumentStore interface {
	UpsertDocuments(ctx context.Context, docs []courtapi.CaseDocument) error
	GetByCaseNumber(ctx context.Context, caseNumber string) ([]courtapi.CaseDocument, error)
	CountDocuments(ctx context.Context) (int64, error)
	Close() error
}

// SQLDocumentStore implements DocumentStore on database/sql.
// Supports PostgreSQL, MySQL and SQLite.
type SQLDocumentStore struct {
	db      *sql.DB
	dialect string // "postgres", "mysql" or "sqlite"
}

const createDocumentsSQL = `
CREATE TABLE IF NOT EXISTS documents (
    doc_id BIGINT PRIMARY KEY,
    case_number VARCHAR(255) NOT NULL,
    doc_type VARCHAR(50) NOT NULL,
    instance VARCHAR(50) NOT NULL,
    chamber VARCHAR(255),
    court_name VARCHAR(500),
    judge VARCHAR(255),
    form VARCHAR(100),
    adjudication_date TIMESTAMP,
    url TEXT,
    snippet TEXT,
    full_text TEXT,
    ingested_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_case_number ON documents(case_number);
CREATE INDEX IF NOT EXISTS idx_documents_adjudication_date ON documents(adjudication_date);
`

// NewSQLDocumentStore wraps an open connection. The schema is created
// on first use.
func NewSQLDocumentStore(db *sql.DB, dialect string) (*SQLDocumentStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	switch dialect {
	case "postgres", "mysql", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported dialect: %s (supported: postgres, mysql, sqlite)", dialect)
	}

	s := &SQLDocumentStore{db: db, dialect: dialect}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// NewSQLDocumentStoreFromConfig opens a pooled connection from
// configuration and bootstraps the schema.
func NewSQLDocumentStoreFromConfig(cfg *config.DatabaseConfig, pool *config.DBPool) (*SQLDocumentStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration is required")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	db, err := pool.Get(cfg)
	if err != nil {
		return nil, err
	}
	return NewSQLDocumentStore(db, cfg.Driver)
}

func (s *SQLDocumentStore) initSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	schemaSQL := createDocumentsSQL
	if s.dialect == "mysql" {
		// MySQL has no CREATE INDEX IF NOT EXISTS; duplicate index
		// errors on re-run are tolerable there, so only the table is
		// bootstrapped and indexes ride along with the primary key.
		schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
    doc_id BIGINT PRIMARY KEY,
    case_number VARCHAR(255) NOT NULL,
    doc_type VARCHAR(50) NOT NULL,
    instance VARCHAR(50) NOT NULL,
    chamber VARCHAR(255),
    court_name VARCHAR(500),
    judge VARCHAR(255),
    form VARCHAR(100),
    adjudication_date TIMESTAMP NULL,
    url TEXT,
    snippet TEXT,
    full_text TEXT,
    ingested_at TIMESTAMP NOT NULL,
    INDEX idx_documents_case_number (case_number),
    INDEX idx_documents_adjudication_date (adjudication_date)
);
`
	}

	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// UpsertDocuments writes one page of documents. Conflicting document
// ids overwrite the stored row, so a document refreshed by a later
// crawl wins over the stale copy.
func (s *SQLDocumentStore) UpsertDocuments(ctx context.Context, docs []courtapi.CaseDocument) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
INSERT INTO documents (doc_id, case_number, doc_type, instance, chamber, court_name, judge, form, adjudication_date, url, snippet, full_text, ingested_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(doc_id) DO UPDATE SET
    case_number = excluded.case_number,
    doc_type = excluded.doc_type,
    instance = excluded.instance,
    chamber = excluded.chamber,
    court_name = excluded.court_name,
    judge = excluded.judge,
    form = excluded.form,
    adjudication_date = excluded.adjudication_date,
    url = excluded.url,
    snippet = excluded.snippet,
    full_text = excluded.full_text,
    ingested_at = excluded.ingested_at
`
	switch s.dialect {
	case "postgres":
		query = `
INSERT INTO documents (doc_id, case_number, doc_type, instance, chamber, court_name, judge, form, adjudication_date, url, snippet, full_text, ingested_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (doc_id) DO UPDATE SET
    case_number = EXCLUDED.case_number,
    doc_type = EXCLUDED.doc_type,
    instance = EXCLUDED.instance,
    chamber = EXCLUDED.chamber,
    court_name = EXCLUDED.court_name,
    judge = EXCLUDED.judge,
    form = EXCLUDED.form,
    adjudication_date = EXCLUDED.adjudication_date,
    url = EXCLUDED.url,
    snippet = EXCLUDED.snippet,
    full_text = EXCLUDED.full_text,
    ingested_at = EXCLUDED.ingested_at
`
	case "mysql":
		query = `
INSERT INTO documents (doc_id, case_number, doc_type, instance, chamber, court_name, judge, form, adjudication_date, url, snippet, full_text, ingested_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
    case_number = VALUES(case_number),
    doc_type = VALUES(doc_type),
    instance = VALUES(instance),
    chamber = VALUES(chamber),
    court_name = VALUES(court_name),
    judge = VALUES(judge),
    form = VALUES(form),
    adjudication_date = VALUES(adjudication_date),
    url = VALUES(url),
    snippet = VALUES(snippet),
    full_text = VALUES(full_text),
    ingested_at = VALUES(ingested_at)
`
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, doc := range docs {
		_, err := stmt.ExecContext(ctx,
			doc.DocID, doc.CaseNumber, string(doc.Type), string(doc.Instance),
			doc.Chamber, doc.Court, doc.Judge, doc.Form,
			doc.Date, doc.URL, doc.Snippet, doc.FullText, now,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert document %d: %w", doc.DocID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit documents: %w", err)
	}
	return nil
}

// GetByCaseNumber returns all stored documents of one case, newest
// first.
func (s *SQLDocumentStore) GetByCaseNumber(ctx context.Context, caseNumber string) ([]courtapi.CaseDocument, error) {
	query := `
SELECT doc_id, case_number, doc_type, instance, chamber, court_name, judge, form, adjudication_date, url, snippet, full_text
FROM documents
WHERE case_number = ?
ORDER BY adjudication_date DESC
`
	if s.dialect == "postgres" {
		query = `
SELECT doc_id, case_number, doc_type, instance, chamber, court_name, judge, form, adjudication_date, url, snippet, full_text
FROM documents
WHERE case_number = $1
ORDER BY adjudication_date DESC
`
	}

	rows, err := s.db.QueryContext(ctx, query, caseNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []courtapi.CaseDocument
	for rows.Next() {
		var (
			doc      courtapi.CaseDocument
			docType  string
			instance string
			date     sql.NullTime
		)
		err := rows.Scan(
			&doc.DocID, &doc.CaseNumber, &docType, &instance,
			&doc.Chamber, &doc.Court, &doc.Judge, &doc.Form,
			&date, &doc.URL, &doc.Snippet, &doc.FullText,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.Type = courtapi.DocumentType(docType)
		doc.Instance = courtapi.Instance(instance)
		if date.Valid {
			doc.Date = date.Time
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, nil
}

// CountDocuments returns the total number of stored documents.
func (s *SQLDocumentStore) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// Close closes the underlying connection.
func (s *SQLDocumentStore) Close() error {
	return s.db.Close()
}
