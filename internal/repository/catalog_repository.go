package repository

import (
	"context"

	"github.com/sellerdesk/support-portal/internal/domain"
)

// VendorRepository reads vendor reference data populated by the external sync.
type VendorRepository interface {
	GetByHandle(ctx context.Context, handle string) (*domain.Vendor, error)
	Upsert(ctx context.Context, vendor *domain.Vendor) error
}

type vendorRepository struct {
	db DBTX
}

// NewVendorRepository builds repository.
func NewVendorRepository(db DBTX) VendorRepository {
	return &vendorRepository{db: db}
}

func (r *vendorRepository) GetByHandle(ctx context.Context, handle string) (*domain.Vendor, error) {
	const query = `
        SELECT handle, name, gmv_90_day::float8, gmv_tier, region, zone, country, kam_email, updated_at
        FROM vendors WHERE handle=$1`
	var v domain.Vendor
	if err := r.db.QueryRow(ctx, query, handle).Scan(
		&v.Handle,
		&v.Name,
		&v.GMV90Day,
		&v.GMVTier,
		&v.Region,
		&v.Zone,
		&v.Country,
		&v.KAMEmail,
		&v.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *vendorRepository) Upsert(ctx context.Context, v *domain.Vendor) error {
	const query = `
        INSERT INTO vendors (handle, name, gmv_90_day, gmv_tier, region, zone, country, kam_email, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW())
        ON CONFLICT (handle) DO UPDATE SET
            name=EXCLUDED.name, gmv_90_day=EXCLUDED.gmv_90_day, gmv_tier=EXCLUDED.gmv_tier,
            region=EXCLUDED.region, zone=EXCLUDED.zone, country=EXCLUDED.country,
            kam_email=EXCLUDED.kam_email, updated_at=NOW()
        RETURNING updated_at`
	return r.db.QueryRow(ctx, query,
		v.Handle, v.Name, v.GMV90Day, v.GMVTier, v.Region, v.Zone, v.Country, v.KAMEmail,
	).Scan(&v.UpdatedAt)
}

// CategoryRepository reads the category tree.
type CategoryRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	Upsert(ctx context.Context, category *domain.Category) error
}

type categoryRepository struct {
	db DBTX
}

// NewCategoryRepository builds repository.
func NewCategoryRepository(db DBTX) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	const query = `
        SELECT id, issue_type, l1, l2, l3, l4, parent_id, is_active
        FROM categories WHERE id=$1`
	var c domain.Category
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.IssueType,
		&c.L1,
		&c.L2,
		&c.L3,
		&c.L4,
		&c.ParentID,
		&c.IsActive,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepository) Upsert(ctx context.Context, c *domain.Category) error {
	const query = `
        INSERT INTO categories (id, issue_type, l1, l2, l3, l4, parent_id, is_active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (id) DO UPDATE SET is_active=EXCLUDED.is_active`
	if c.ID == "" {
		c.ID = domain.CategoryID(c.Path()...)
	}
	_, err := r.db.Exec(ctx, query, c.ID, c.IssueType, c.L1, c.L2, c.L3, c.L4, c.ParentID, c.IsActive)
	return err
}

// TagRepository reads the tag catalog.
type TagRepository interface {
	ListByIDs(ctx context.Context, ids []string) ([]domain.Tag, error)
}

type tagRepository struct {
	db DBTX
}

// NewTagRepository builds repository.
func NewTagRepository(db DBTX) TagRepository {
	return &tagRepository{db: db}
}

// ListByIDs returns the tags that still exist, in the order of ids.
func (r *tagRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `
        SELECT t.id, t.name, t.color
        FROM tags t JOIN unnest($1::text[]) WITH ORDINALITY AS wanted(id, ord) ON t.id::text = wanted.id
        ORDER BY wanted.ord`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Tag
	for rows.Next() {
		var tag domain.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Color); err != nil {
			return nil, err
		}
		result = append(result, tag)
	}
	return result, rows.Err()
}

// SLAConfigRepository manages SLA configuration rows.
type SLAConfigRepository interface {
	ListByCategory(ctx context.Context, categoryID string) ([]domain.SLAConfig, error)
	List(ctx context.Context) ([]domain.SLAConfig, error)
	Create(ctx context.Context, cfg *domain.SLAConfig) error
	GetByID(ctx context.Context, id string) (*domain.SLAConfig, error)
}

type slaConfigRepository struct {
	db DBTX
}

// NewSLAConfigRepository builds repository.
func NewSLAConfigRepository(db DBTX) SLAConfigRepository {
	return &slaConfigRepository{db: db}
}

const slaConfigColumns = `id, category_id, department, response_hours, resolution_hours,
               use_business_hours, is_active, created_at, updated_at`

// ListByCategory returns every config for the category ordered by id, so
// selection among equally specific rows is stable.
func (r *slaConfigRepository) ListByCategory(ctx context.Context, categoryID string) ([]domain.SLAConfig, error) {
	return r.list(ctx, `SELECT `+slaConfigColumns+` FROM sla_configs WHERE category_id=$1 ORDER BY id`, categoryID)
}

func (r *slaConfigRepository) List(ctx context.Context) ([]domain.SLAConfig, error) {
	return r.list(ctx, `SELECT `+slaConfigColumns+` FROM sla_configs ORDER BY category_id, id`)
}

func (r *slaConfigRepository) GetByID(ctx context.Context, id string) (*domain.SLAConfig, error) {
	var cfg domain.SLAConfig
	row := r.db.QueryRow(ctx, `SELECT `+slaConfigColumns+` FROM sla_configs WHERE id=$1`, id)
	if err := scanSLAConfig(row, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *slaConfigRepository) Create(ctx context.Context, cfg *domain.SLAConfig) error {
	const query = `
        INSERT INTO sla_configs (category_id, department, response_hours, resolution_hours, use_business_hours, is_active)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		cfg.CategoryID,
		cfg.Department,
		cfg.ResponseHours,
		cfg.ResolutionHours,
		cfg.UseBusinessHours,
		cfg.IsActive,
	).Scan(&cfg.ID, &cfg.CreatedAt, &cfg.UpdatedAt)
}

func (r *slaConfigRepository) list(ctx context.Context, query string, args ...any) ([]domain.SLAConfig, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SLAConfig
	for rows.Next() {
		var cfg domain.SLAConfig
		if err := scanSLAConfig(rows, &cfg); err != nil {
			return nil, err
		}
		result = append(result, cfg)
	}
	return result, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSLAConfig(row scanner, cfg *domain.SLAConfig) error {
	return row.Scan(
		&cfg.ID,
		&cfg.CategoryID,
		&cfg.Department,
		&cfg.ResponseHours,
		&cfg.ResolutionHours,
		&cfg.UseBusinessHours,
		&cfg.IsActive,
		&cfg.CreatedAt,
		&cfg.UpdatedAt,
	)
}
