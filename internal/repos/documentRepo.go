package repos

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"github.com/wheelibin/glow/internal/glowerrors"
	"github.com/wheelibin/glow/internal/models"
)

const initSchema = `
  CREATE TABLE IF NOT EXISTS document (
    collection VARCHAR(64) NOT NULL,
    id VARCHAR(64) NOT NULL,
    data TEXT NOT NULL,           -- json object
    updated_time TIMESTAMP,
    PRIMARY KEY (collection, id)
  );
`

type DocumentRepo struct {
	logger *log.Logger
	db     *sql.DB
}

func NewDocumentRepo(logger *log.Logger, db *sql.DB) (*DocumentRepo, error) {

	_, err := db.Exec(initSchema)
	if err != nil {
		return nil, fmt.Errorf("Error initialising document schema: %w", err)
	}

	return &DocumentRepo{logger: logger, db: db}, nil
}

// Seed adds the documents that don't exist yet, existing documents are left alone
func (r *DocumentRepo) Seed(docs []models.Document) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("Error seeding documents: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, doc := range docs {
		res, err := tx.Exec(
			`INSERT OR IGNORE INTO document (collection, id, data, updated_time) VALUES ($1, $2, $3, $4);`,
			doc.Collection, doc.ID, string(doc.Data), time.Now(),
		)
		if err != nil {
			return fmt.Errorf("Error seeding document (%s): %w", doc.Ref(), err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			r.logger.Info("Seeded document", "ref", doc.Ref())
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Error seeding documents: %w", err)
	}
	return nil
}

func (r *DocumentRepo) Get(ref models.DocumentRef) (models.Document, error) {
	row := r.db.QueryRow("SELECT data FROM document WHERE collection = $1 AND id = $2", ref.Collection, ref.ID)
	var data string
	err := row.Scan(&data)

	if err != nil {
		if err == sql.ErrNoRows {
			return models.Document{}, glowerrors.NotFoundf("document %s", ref)
		}
		return models.Document{}, fmt.Errorf("Error reading document (%s): %w", ref, err)
	}
	return models.Document{Collection: ref.Collection, ID: ref.ID, Data: json.RawMessage(data)}, nil
}

func (r *DocumentRepo) List(collection string) ([]models.Document, error) {
	rows, err := r.db.Query("SELECT id, data FROM document WHERE collection = $1 ORDER BY id", collection)
	if err != nil {
		return nil, fmt.Errorf("Error reading documents for collection (%s): %w", collection, err)
	}
	defer rows.Close()

	type row struct {
		id   string
		data string
	}
	found := []row{}

	for rows.Next() {
		var rw row
		if err := rows.Scan(&rw.id, &rw.data); err != nil {
			return nil, fmt.Errorf("Error reading documents for collection (%s): %w", collection, err)
		}
		found = append(found, rw)
	}

	return lo.Map(found, func(rw row, _ int) models.Document {
		return models.Document{Collection: collection, ID: rw.id, Data: json.RawMessage(rw.data)}
	}), rows.Err()
}

// Merge sets the given top level fields on the document, creating it if needed,
// and returns the resulting full document. Fields not named are left untouched.
func (r *DocumentRepo) Merge(ref models.DocumentRef, fields map[string]json.RawMessage) (models.Document, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return models.Document{}, fmt.Errorf("Error updating document (%s): %w", ref, err)
	}
	defer func() { _ = tx.Rollback() }()

	current := map[string]json.RawMessage{}

	var data string
	err = tx.QueryRow("SELECT data FROM document WHERE collection = $1 AND id = $2", ref.Collection, ref.ID).Scan(&data)
	switch {
	case err == sql.ErrNoRows:
		r.logger.Debugf("document (%s) doesn't exist yet, creating it", ref)
	case err != nil:
		return models.Document{}, fmt.Errorf("Error reading document (%s): %w", ref, err)
	default:
		if err := json.Unmarshal([]byte(data), &current); err != nil {
			return models.Document{}, fmt.Errorf("Error parsing stored document (%s): %w", ref, err)
		}
	}

	for k, v := range fields {
		current[k] = v
	}

	merged, err := json.Marshal(current)
	if err != nil {
		return models.Document{}, fmt.Errorf("Error encoding document (%s): %w", ref, err)
	}

	_, err = tx.Exec(`
    INSERT INTO document (collection, id, data, updated_time) VALUES ($1, $2, $3, $4)
    ON CONFLICT(collection, id) DO UPDATE SET
      data = excluded.data,
      updated_time = excluded.updated_time
  `, ref.Collection, ref.ID, string(merged), time.Now())
	if err != nil {
		return models.Document{}, fmt.Errorf("Error updating document (%s): %w", ref, err)
	}

	if err := tx.Commit(); err != nil {
		return models.Document{}, fmt.Errorf("Error updating document (%s): %w", ref, err)
	}

	return models.Document{Collection: ref.Collection, ID: ref.ID, Data: merged}, nil
}
