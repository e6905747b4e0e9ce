package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/formulary/backend/internal/domain"
	"github.com/formulary/backend/internal/infrastructure/logging"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Collection names in the documents table
const (
	CollectionHerbs    = "herbs"
	CollectionFormulas = "formulas"
)

// SQLiteStore is a generic document store: every record is a JSON body keyed by
// collection and id. position keeps the order records were imported in, which
// is the pool order the resolver relies on.
type SQLiteStore struct {
	db     *sql.DB
	logger logging.Logger
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string, logger logging.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serializes writers; reads are cheap at this scale.
	db.SetMaxOpenConns(1)

	if logger == nil {
		logger = logging.NewNopLogger()
	}

	store := &SQLiteStore{db: db, logger: logger}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS documents (
        collection TEXT NOT NULL,
        id TEXT NOT NULL,
        position INTEGER NOT NULL,
        body TEXT NOT NULL,
        updated_at TEXT NOT NULL,
        PRIMARY KEY (collection, id)
    );

    CREATE INDEX IF NOT EXISTS idx_documents_position ON documents(collection, position);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// ListHerbs returns every herb document in import order.
func (s *SQLiteStore) ListHerbs(ctx context.Context) ([]domain.HerbRecord, error) {
	herbs := make([]domain.HerbRecord, 0)
	err := s.scanCollection(ctx, CollectionHerbs, func(id string, body []byte) error {
		var h domain.HerbRecord
		if err := json.Unmarshal(body, &h); err != nil {
			return err
		}
		if h.ID == "" {
			h.ID = id
		}
		herbs = append(herbs, h)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return herbs, nil
}

// ListFormulas returns every formula document in import order.
func (s *SQLiteStore) ListFormulas(ctx context.Context) ([]domain.FormulaRecord, error) {
	formulas := make([]domain.FormulaRecord, 0)
	err := s.scanCollection(ctx, CollectionFormulas, func(id string, body []byte) error {
		var f domain.FormulaRecord
		if err := json.Unmarshal(body, &f); err != nil {
			return err
		}
		if f.ID == "" {
			f.ID = id
		}
		formulas = append(formulas, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return formulas, nil
}

// scanCollection feeds each document body of a collection to decode. Bodies
// that fail to decode are skipped with a warning rather than failing the pool.
func (s *SQLiteStore) scanCollection(ctx context.Context, collection string, decode func(id string, body []byte) error) error {
	query := `
        SELECT id, body FROM documents
        WHERE collection = ?
        ORDER BY position, id
    `

	rows, err := s.db.QueryContext(ctx, query, collection)
	if err != nil {
		return fmt.Errorf("%w: query %s: %v", domain.ErrRecordSourceFailure, collection, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return fmt.Errorf("%w: scan %s: %v", domain.ErrRecordSourceFailure, collection, err)
		}
		if err := decode(id, []byte(body)); err != nil {
			s.logger.Warn("skipping malformed document",
				logging.String("collection", collection),
				logging.String("id", id),
				logging.Err(err))
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: iterate %s: %v", domain.ErrRecordSourceFailure, collection, err)
	}
	return nil
}

// Import replaces both collections with the records in doc, in one
// transaction. Records without an id get a fresh UUID.
func (s *SQLiteStore) Import(ctx context.Context, doc *Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)

	for _, collection := range []string{CollectionHerbs, CollectionFormulas} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE collection = ?`, collection); err != nil {
			return fmt.Errorf("failed to clear %s: %w", collection, err)
		}
	}

	insert := `
        INSERT INTO documents (collection, id, position, body, updated_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(collection, id) DO UPDATE SET
            position = excluded.position,
            body = excluded.body,
            updated_at = excluded.updated_at
    `

	for i, h := range doc.Herbs {
		if h.ID == "" {
			h.ID = uuid.NewString()
		}
		if err := insertDocument(ctx, tx, insert, CollectionHerbs, h.ID, i, h, now); err != nil {
			return err
		}
	}

	for i, f := range doc.Formulas {
		if f.ID == "" {
			f.ID = uuid.NewString()
		}
		if err := insertDocument(ctx, tx, insert, CollectionFormulas, f.ID, i, f, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertDocument(ctx context.Context, tx *sql.Tx, query, collection, id string, position int, record interface{}, now string) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode %s %s: %w", collection, id, err)
	}
	if _, err := tx.ExecContext(ctx, query, collection, id, position, string(body), now); err != nil {
		return fmt.Errorf("failed to insert %s %s: %w", collection, id, err)
	}
	return nil
}

// PutRawDocument stores an arbitrary JSON body, bypassing record encoding.
// Used to load documents written by other tools as-is.
func (s *SQLiteStore) PutRawDocument(ctx context.Context, collection, id string, position int, body []byte) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO documents (collection, id, position, body, updated_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(collection, id) DO UPDATE SET
            position = excluded.position,
            body = excluded.body,
            updated_at = excluded.updated_at
    `, collection, id, position, string(body), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to put %s %s: %w", collection, id, err)
	}
	return nil
}
