package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/chaabi-dev/demandhub/internal/models"
)

// PostgresDemandRepository implements demand persistence against a PostgreSQL database.
type PostgresDemandRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresDemandRepository creates a new PostgresDemandRepository using the provided *sql.DB.
// db must be a valid connection to a PostgreSQL instance.
func NewPostgresDemandRepository(db *sql.DB) *PostgresDemandRepository {
	return &PostgresDemandRepository{DB: db}
}

// Create inserts a demand and its articles in one transaction and
// returns the stored record with generated ids and timestamp.
func (r *PostgresDemandRepository) Create(ctx context.Context, d models.Demand) (models.Demand, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Demand{}, fmt.Errorf("Create begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO demands (title, description, file_name, file_url, status, created_by, rejection_comment)
		VALUES ($1, $2, $3, $4, $5, $6, '')
		RETURNING id, created_at
	`, d.Title, d.Description, d.FileName, d.FileURL, string(models.StatusPending), d.CreatedBy).
		Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return models.Demand{}, fmt.Errorf("Create demand: %w", err)
	}
	d.Status = models.StatusPending

	if err := insertArticles(ctx, tx, d.ID, d.Articles); err != nil {
		return models.Demand{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Demand{}, fmt.Errorf("Create commit: %w", err)
	}
	return d, nil
}

// insertArticles writes the article rows for a demand in order,
// writing the generated ids back into the slice.
func insertArticles(ctx context.Context, tx *sql.Tx, demandID int64, articles []models.Article) error {
	for i := range articles {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO articles (demand_id, position, name, description, quantity, price)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, demandID, i, articles[i].Name, articles[i].Description, articles[i].Quantity, articles[i].Price).
			Scan(&articles[i].ID)
		if err != nil {
			return fmt.Errorf("insert article %d: %w", i, err)
		}
	}
	return nil
}

// List fetches demands matching the filters, newest first, with their articles.
func (r *PostgresDemandRepository) List(ctx context.Context, filters models.DemandFilters) ([]models.Demand, error) {
	query := `
		SELECT id, title, description, file_name, file_url, status, created_at, created_by, rejection_comment
		  FROM demands
		 WHERE deleted = false`
	args := []any{}
	if filters.Status != "" {
		args = append(args, string(filters.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		query += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}
	query += " ORDER BY created_at DESC"
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		if filters.Page > 1 {
			args = append(args, (filters.Page-1)*filters.Limit)
			query += fmt.Sprintf(" OFFSET $%d", len(args))
		}
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var demands []models.Demand
	var ids []int64
	for rows.Next() {
		d, err := scanDemand(rows)
		if err != nil {
			return nil, err
		}
		demands = append(demands, d)
		ids = append(ids, d.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List rows: %w", err)
	}

	if err := r.attachArticles(ctx, demands, ids); err != nil {
		return nil, err
	}
	return demands, nil
}

// GetByID fetches a single demand with its articles.
// Returns sql.ErrNoRows (wrapped) when the demand does not exist or is deleted.
func (r *PostgresDemandRepository) GetByID(ctx context.Context, id int64) (*models.Demand, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, title, description, file_name, file_url, status, created_at, created_by, rejection_comment
		  FROM demands
		 WHERE id = $1 AND deleted = false
	`, id)
	d, err := scanDemand(row)
	if err != nil {
		return nil, err
	}

	demands := []models.Demand{d}
	if err := r.attachArticles(ctx, demands, []int64{id}); err != nil {
		return nil, err
	}
	return &demands[0], nil
}

// Update replaces a demand's editable fields and rewrites its articles
// in one transaction, returning the stored record.
func (r *PostgresDemandRepository) Update(ctx context.Context, d models.Demand) (models.Demand, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Demand{}, fmt.Errorf("Update begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx, `
		UPDATE demands
		   SET title = $2, description = $3, file_name = $4, file_url = $5
		 WHERE id = $1 AND deleted = false
		RETURNING status, created_at, created_by, rejection_comment
	`, d.ID, d.Title, d.Description, d.FileName, d.FileURL).
		Scan(&d.Status, &d.CreatedAt, &d.CreatedBy, &d.RejectionComment)
	if err != nil {
		return models.Demand{}, fmt.Errorf("Update demand: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM articles WHERE demand_id = $1`, d.ID); err != nil {
		return models.Demand{}, fmt.Errorf("Update clear articles: %w", err)
	}
	if err := insertArticles(ctx, tx, d.ID, d.Articles); err != nil {
		return models.Demand{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Demand{}, fmt.Errorf("Update commit: %w", err)
	}
	return d, nil
}

// UpdateStatus writes a new status and rejection comment.
// Returns sql.ErrNoRows (wrapped) when the demand does not exist.
func (r *PostgresDemandRepository) UpdateStatus(ctx context.Context, id int64, status models.Status, comment string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE demands SET status = $2, rejection_comment = $3 WHERE id = $1 AND deleted = false
	`, id, string(status), comment)
	if err != nil {
		return fmt.Errorf("UpdateStatus: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateStatus rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateStatus: %w", sql.ErrNoRows)
	}
	return nil
}

// SoftDelete marks a demand deleted; the cleaner purges it later.
func (r *PostgresDemandRepository) SoftDelete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE demands SET deleted = true, deleted_at = $2 WHERE id = $1 AND deleted = false
	`, id, time.Now())
	if err != nil {
		return fmt.Errorf("SoftDelete: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("SoftDelete rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("SoftDelete: %w", sql.ErrNoRows)
	}
	return nil
}

// scanner lets scanDemand work over both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDemand(s scanner) (models.Demand, error) {
	var (
		d      models.Demand
		status string
	)
	err := s.Scan(&d.ID, &d.Title, &d.Description, &d.FileName, &d.FileURL,
		&status, &d.CreatedAt, &d.CreatedBy, &d.RejectionComment)
	if err != nil {
		return models.Demand{}, fmt.Errorf("scan demand: %w", err)
	}
	parsed, ok := models.ParseStatus(status)
	if !ok {
		return models.Demand{}, fmt.Errorf("scan demand %d: unknown status %q", d.ID, status)
	}
	d.Status = parsed
	return d, nil
}

// attachArticles loads the article rows for the given demand ids and
// distributes them onto the matching demands in order.
func (r *PostgresDemandRepository) attachArticles(ctx context.Context, demands []models.Demand, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT demand_id, id, name, description, quantity, price
		  FROM articles
		 WHERE demand_id = ANY($1)
		 ORDER BY demand_id, position
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("attachArticles: %w", err)
	}
	defer rows.Close()

	byDemand := make(map[int64][]models.Article, len(ids))
	for rows.Next() {
		var (
			demandID int64
			a        models.Article
		)
		if err := rows.Scan(&demandID, &a.ID, &a.Name, &a.Description, &a.Quantity, &a.Price); err != nil {
			return fmt.Errorf("scan article: %w", err)
		}
		byDemand[demandID] = append(byDemand[demandID], a)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("attachArticles rows: %w", err)
	}

	for i := range demands {
		demands[i].Articles = byDemand[demands[i].ID]
	}
	return nil
}
