package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"street2ivy/internal/sentinel"
	"street2ivy/internal/tenant/models"
)

// Postgres persists tenants in PostgreSQL. Writes go through immediately;
// a context deadline hit surfaces as sentinel.ErrUnavailable so the registry
// can report the store as unreachable instead of hanging.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed tenant store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const tenantColumns = `id, subdomain, name, display_name, status, credentials,
	integration_credentials, institution_domain, corporate_partner_ids,
	features, branding, created_at, updated_at`

// Insert atomically creates the tenant if its subdomain is available.
// Relies on the unique index over lower(subdomain).
func (s *Postgres) Insert(ctx context.Context, t *models.Tenant) error {
	row, err := encodeTenant(t)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO tenants (` + tenantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = s.db.ExecContext(ctx, query, row...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("subdomain taken: %w", sentinel.ErrAlreadyUsed)
		}
		return storeErr("insert tenant", err)
	}
	return nil
}

// Update replaces an existing tenant row.
func (s *Postgres) Update(ctx context.Context, t *models.Tenant) error {
	row, err := encodeTenant(t)
	if err != nil {
		return err
	}
	query := `
		UPDATE tenants
		SET subdomain = $2, name = $3, display_name = $4, status = $5,
			credentials = $6, integration_credentials = $7,
			institution_domain = $8, corporate_partner_ids = $9,
			features = $10, branding = $11, created_at = $12, updated_at = $13
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query, row...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("subdomain taken: %w", sentinel.ErrAlreadyUsed)
		}
		return storeErr("update tenant", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return storeErr("update tenant rows", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Delete removes a tenant row permanently.
func (s *Postgres) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return storeErr("delete tenant", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return storeErr("delete tenant rows", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// FindByID retrieves a tenant by id.
func (s *Postgres) FindByID(ctx context.Context, id string) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
	t, err := scanTenant(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, storeErr("find tenant by id", err)
	}
	return t, nil
}

// FindBySubdomain retrieves a tenant by subdomain (case-insensitive).
func (s *Postgres) FindBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE lower(subdomain) = lower($1)`
	t, err := scanTenant(s.db.QueryRowContext(ctx, query, subdomain))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, storeErr("find tenant by subdomain", err)
	}
	return t, nil
}

// List returns all tenants ordered by id.
func (s *Postgres) List(ctx context.Context) ([]*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storeErr("list tenants", err)
	}
	defer rows.Close()

	var out []*models.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, storeErr("scan tenant", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list tenants", err)
	}
	return out, nil
}

func encodeTenant(t *models.Tenant) ([]any, error) {
	creds, err := encodeJSON(t.Credentials)
	if err != nil {
		return nil, fmt.Errorf("encode credentials: %w", err)
	}
	integration, err := encodeJSON(t.Integration)
	if err != nil {
		return nil, fmt.Errorf("encode integration credentials: %w", err)
	}
	partners, err := encodeJSON(t.CorporatePartnerIDs)
	if err != nil {
		return nil, fmt.Errorf("encode partner ids: %w", err)
	}
	features, err := encodeJSON(t.Features)
	if err != nil {
		return nil, fmt.Errorf("encode features: %w", err)
	}
	branding, err := encodeJSON(t.Branding)
	if err != nil {
		return nil, fmt.Errorf("encode branding: %w", err)
	}
	return []any{
		t.ID,
		nullString(t.Subdomain),
		t.Name,
		nullString(t.DisplayName),
		string(t.Status),
		creds,
		integration,
		nullString(t.InstitutionDomain),
		partners,
		features,
		branding,
		t.CreatedAt,
		t.UpdatedAt,
	}, nil
}

type tenantRow interface {
	Scan(dest ...any) error
}

func scanTenant(row tenantRow) (*models.Tenant, error) {
	var (
		t                  models.Tenant
		subdomain          sql.NullString
		displayName        sql.NullString
		status             string
		creds, integration []byte
		institutionDomain  sql.NullString
		partners           []byte
		features, branding []byte
	)
	if err := row.Scan(&t.ID, &subdomain, &t.Name, &displayName, &status,
		&creds, &integration, &institutionDomain, &partners,
		&features, &branding, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Subdomain = subdomain.String
	t.DisplayName = displayName.String
	t.Status = models.TenantStatus(status)
	t.InstitutionDomain = institutionDomain.String
	if err := decodeJSON(creds, &t.Credentials); err != nil {
		return nil, fmt.Errorf("decode credentials: %w", err)
	}
	if err := decodeJSON(integration, &t.Integration); err != nil {
		return nil, fmt.Errorf("decode integration credentials: %w", err)
	}
	if err := decodeJSON(partners, &t.CorporatePartnerIDs); err != nil {
		return nil, fmt.Errorf("decode partner ids: %w", err)
	}
	if err := decodeJSON(features, &t.Features); err != nil {
		return nil, fmt.Errorf("decode features: %w", err)
	}
	if err := decodeJSON(branding, &t.Branding); err != nil {
		return nil, fmt.Errorf("decode branding: %w", err)
	}
	return &t, nil
}

func encodeJSON(v any) ([]byte, error) {
	switch val := v.(type) {
	case *models.Credentials:
		if val == nil {
			return nil, nil
		}
	case []string:
		if val == nil {
			return nil, nil
		}
	case map[string]any:
		if val == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

func decodeJSON(data []byte, target any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, target)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// storeErr classifies driver failures: cancelled or timed-out calls and
// connection-level errors mean the store is unreachable.
func storeErr(action string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %v: %w", action, err, sentinel.ErrUnavailable)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w", action, err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%s: %v: %w", action, err, sentinel.ErrUnavailable)
	}
	return fmt.Errorf("%s: %w", action, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
