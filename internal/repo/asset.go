package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/complium/asset-inventory/internal/inventory"
	"github.com/complium/asset-inventory/internal/models"
)

// AssetRepo is the postgres persistence collaborator for the inventory. It
// implements inventory.Store: bulk fetch, single hydration, create, patch
// update and bulk delete. Edges (relationships, dependencies,
// vulnerabilities) are replaced wholesale on every update; there is no
// incremental edge patching.
type AssetRepo struct {
	DB *sql.DB
}

func NewAssetRepo(db *sql.DB) *AssetRepo {
	return &AssetRepo{DB: db}
}

const assetColumns = `id, organization_id, name, COALESCE(description,''), type,
	COALESCE(category,''), COALESCE(subcategory,''), owner, COALESCE(custodian,''),
	location, COALESCE(ip_address,''), COALESCE(criticality,''),
	COALESCE(data_classification,''), COALESCE(business_value,''),
	COALESCE(encryption_status,''), COALESCE(status,''), risk_score,
	COALESCE(compliance_frameworks,'{}'), COALESCE(tags,'{}'), metadata,
	created_at, updated_at, last_assessed_at, last_reviewed_at, next_review_at,
	component_ext, vendor_ext, privacy_ext`

// ========================
// BULK FETCH (org scope)
// ========================

// FetchAssets loads every asset in the org scope, edges included. Used for
// the wholesale collection reload after each mutation.
func (r *AssetRepo) FetchAssets(ctx context.Context, orgID string) ([]models.Asset, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE organization_id = $1 ORDER BY created_at, id`,
		orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch assets: %w", err)
	}
	defer rows.Close()

	var assets []models.Asset
	index := make(map[string]int)
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		index[a.ID] = len(assets)
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(assets) == 0 {
		return assets, nil
	}

	if err := r.attachEdges(ctx, orgID, assets, index); err != nil {
		return nil, err
	}
	return assets, nil
}

// attachEdges loads all edges for the org in three queries and distributes
// them onto the assets. Related-asset names resolve via LEFT JOIN; a
// dangling reference gets an empty name, never an error.
func (r *AssetRepo) attachEdges(ctx context.Context, orgID string, assets []models.Asset, index map[string]int) error {
	rels, err := r.DB.QueryContext(ctx, `
		SELECT r.asset_id, r.id, r.related_asset_id, COALESCE(t.name,''), r.kind,
		       COALESCE(r.strength,''), COALESCE(r.data_flow,''), r.personal_data
		FROM asset_relationships r
		JOIN assets a ON a.id = r.asset_id
		LEFT JOIN assets t ON t.id = r.related_asset_id
		WHERE a.organization_id = $1`, orgID)
	if err != nil {
		return fmt.Errorf("fetch relationships: %w", err)
	}
	defer rels.Close()
	for rels.Next() {
		var assetID string
		var rel models.Relationship
		if err := rels.Scan(&assetID, &rel.ID, &rel.RelatedAssetID, &rel.RelatedAssetName,
			&rel.Kind, &rel.Strength, &rel.DataFlow, &rel.PersonalData); err != nil {
			return fmt.Errorf("scan relationship: %w", err)
		}
		if i, ok := index[assetID]; ok {
			assets[i].Relationships = append(assets[i].Relationships, rel)
		}
	}
	if err := rels.Err(); err != nil {
		return err
	}

	deps, err := r.DB.QueryContext(ctx, `
		SELECT d.asset_id, d.id, d.depends_on_id, COALESCE(t.name,''), d.type,
		       COALESCE(d.criticality,''), d.is_active, d.last_validated_at,
		       COALESCE(d.risk_level,''), d.bidirectional
		FROM asset_dependencies d
		JOIN assets a ON a.id = d.asset_id
		LEFT JOIN assets t ON t.id = d.depends_on_id
		WHERE a.organization_id = $1`, orgID)
	if err != nil {
		return fmt.Errorf("fetch dependencies: %w", err)
	}
	defer deps.Close()
	for deps.Next() {
		var assetID string
		var dep models.Dependency
		if err := deps.Scan(&assetID, &dep.ID, &dep.DependsOnID, &dep.DependsOnName,
			&dep.Type, &dep.Criticality, &dep.IsActive, &dep.LastValidatedAt,
			&dep.RiskLevel, &dep.Bidirectional); err != nil {
			return fmt.Errorf("scan dependency: %w", err)
		}
		if i, ok := index[assetID]; ok {
			assets[i].Dependencies = append(assets[i].Dependencies, dep)
		}
	}
	if err := deps.Err(); err != nil {
		return err
	}

	vulns, err := r.DB.QueryContext(ctx, `
		SELECT v.asset_id, v.id, COALESCE(v.cve,''), v.title, COALESCE(v.description,''),
		       COALESCE(v.severity,''), COALESCE(v.cvss_score,0), v.status, v.discovered_at
		FROM asset_vulnerabilities v
		JOIN assets a ON a.id = v.asset_id
		WHERE a.organization_id = $1`, orgID)
	if err != nil {
		return fmt.Errorf("fetch vulnerabilities: %w", err)
	}
	defer vulns.Close()
	for vulns.Next() {
		var assetID string
		var v models.Vulnerability
		if err := vulns.Scan(&assetID, &v.ID, &v.CVE, &v.Title, &v.Description,
			&v.Severity, &v.CVSSScore, &v.Status, &v.DiscoveredAt); err != nil {
			return fmt.Errorf("scan vulnerability: %w", err)
		}
		if i, ok := index[assetID]; ok {
			assets[i].Vulnerabilities = append(assets[i].Vulnerabilities, v)
		}
	}
	return vulns.Err()
}

// ========================
// SINGLE HYDRATION
// ========================

// FetchAssetDetail loads one asset with its edges. Returns (nil, nil) when
// the id does not exist: absence is not an error at this layer.
func (r *AssetRepo) FetchAssetDetail(ctx context.Context, id string) (*models.Asset, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE id = $1`, id)
	a, err := scanAsset(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch asset %s: %w", id, err)
	}
	index := map[string]int{a.ID: 0}
	assets := []models.Asset{a}
	if err := r.attachEdges(ctx, a.OrganizationID, assets, index); err != nil {
		return nil, err
	}
	return &assets[0], nil
}

// ========================
// CREATE
// ========================

// CreateAsset inserts the draft with a fresh id and server-side timestamps,
// writes its edges, and returns the stored asset.
func (r *AssetRepo) CreateAsset(ctx context.Context, orgID string, draft models.AssetDraft) (models.Asset, error) {
	a := models.Asset{
		ID:                   uuid.NewString(),
		OrganizationID:       orgID,
		Name:                 draft.Name,
		Description:          draft.Description,
		Type:                 draft.Type,
		Category:             draft.Category,
		Subcategory:          draft.Subcategory,
		Owner:                draft.Owner,
		Custodian:            draft.Custodian,
		Location:             draft.Location,
		IPAddress:            draft.IPAddress,
		Criticality:          draft.Criticality,
		DataClassification:   draft.DataClassification,
		BusinessValue:        draft.BusinessValue,
		EncryptionStatus:     draft.EncryptionStatus,
		Status:               draft.Status,
		RiskScore:            draft.RiskScore,
		ComplianceFrameworks: draft.ComplianceFrameworks,
		Tags:                 draft.Tags,
		Metadata:             draft.Metadata,
		NextReviewAt:         draft.NextReviewAt,
		Relationships:        draft.Relationships,
		Dependencies:         draft.Dependencies,
		Vulnerabilities:      draft.Vulnerabilities,
		Extensions:           draft.Extensions,
	}
	a.Normalize()
	if err := a.Validate(); err != nil {
		return models.Asset{}, err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Asset{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	location, metadata, component, vendor, privacy, err := marshalBlobs(&a)
	if err != nil {
		return models.Asset{}, err
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO assets (id, organization_id, name, description, type, category,
			subcategory, owner, custodian, location, ip_address, criticality,
			data_classification, business_value, encryption_status, status, risk_score,
			compliance_frameworks, tags, metadata, next_review_at,
			component_ext, vendor_ext, privacy_ext)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
		RETURNING created_at, updated_at`,
		a.ID, a.OrganizationID, a.Name, a.Description, a.Type, a.Category,
		a.Subcategory, a.Owner, a.Custodian, location, nullStr(a.IPAddress), nullStr(a.Criticality),
		nullStr(a.DataClassification), nullStr(a.BusinessValue), nullStr(a.EncryptionStatus),
		nullStr(a.Status), a.RiskScore,
		pq.Array(a.ComplianceFrameworks), pq.Array(a.Tags), metadata, a.NextReviewAt,
		component, vendor, privacy,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return models.Asset{}, fmt.Errorf("insert asset: %w", err)
	}

	if err := insertEdges(ctx, tx, &a); err != nil {
		return models.Asset{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Asset{}, fmt.Errorf("commit: %w", err)
	}
	return a, nil
}

// ========================
// UPDATE (patch, edges wholesale)
// ========================

// UpdateAsset loads the current asset, applies the patch and writes the
// result back. Edge collections present in the patch replace the stored
// ones wholesale.
func (r *AssetRepo) UpdateAsset(ctx context.Context, id string, patch models.AssetPatch) (models.Asset, error) {
	current, err := r.FetchAssetDetail(ctx, id)
	if err != nil {
		return models.Asset{}, err
	}
	if current == nil {
		return models.Asset{}, fmt.Errorf("asset %s: %w", id, inventory.ErrNotFound)
	}
	a := *current
	patch.Apply(&a)
	if err := a.Validate(); err != nil {
		return models.Asset{}, err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Asset{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	location, metadata, component, vendor, privacy, err := marshalBlobs(&a)
	if err != nil {
		return models.Asset{}, err
	}

	err = tx.QueryRowContext(ctx, `
		UPDATE assets SET name=$2, description=$3, type=$4, category=$5, subcategory=$6,
			owner=$7, custodian=$8, location=$9, ip_address=$10, criticality=$11,
			data_classification=$12, business_value=$13, encryption_status=$14,
			status=$15, risk_score=$16, compliance_frameworks=$17, tags=$18,
			metadata=$19, last_assessed_at=$20, last_reviewed_at=$21, next_review_at=$22,
			component_ext=$23, vendor_ext=$24, privacy_ext=$25, updated_at=NOW()
		WHERE id=$1
		RETURNING updated_at`,
		a.ID, a.Name, a.Description, a.Type, a.Category, a.Subcategory,
		a.Owner, a.Custodian, location, nullStr(a.IPAddress), nullStr(a.Criticality),
		nullStr(a.DataClassification), nullStr(a.BusinessValue), nullStr(a.EncryptionStatus),
		nullStr(a.Status), a.RiskScore, pq.Array(a.ComplianceFrameworks), pq.Array(a.Tags),
		metadata, a.LastAssessedAt, a.LastReviewedAt, a.NextReviewAt,
		component, vendor, privacy,
	).Scan(&a.UpdatedAt)
	if err != nil {
		return models.Asset{}, fmt.Errorf("update asset: %w", err)
	}

	for _, stmt := range []string{
		`DELETE FROM asset_relationships WHERE asset_id = $1`,
		`DELETE FROM asset_dependencies WHERE asset_id = $1`,
		`DELETE FROM asset_vulnerabilities WHERE asset_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, a.ID); err != nil {
			return models.Asset{}, fmt.Errorf("clear edges: %w", err)
		}
	}
	if err := insertEdges(ctx, tx, &a); err != nil {
		return models.Asset{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Asset{}, fmt.Errorf("commit: %w", err)
	}
	return a, nil
}

// ========================
// BULK DELETE
// ========================

// DeleteAssets removes the assets and severs every edge pointing at them
// from elsewhere in the inventory, so surviving assets never keep edges to
// rows that are gone. Owned edges go with the asset via FK cascade.
func (r *AssetRepo) DeleteAssets(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM asset_relationships WHERE related_asset_id = ANY($1)`, pq.Array(ids)); err != nil {
		return fmt.Errorf("sever relationships: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM asset_dependencies WHERE depends_on_id = ANY($1)`, pq.Array(ids)); err != nil {
		return fmt.Errorf("sever dependencies: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM assets WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return fmt.Errorf("delete assets: %w", err)
	}
	return tx.Commit()
}

// ========================
// helpers
// ========================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (models.Asset, error) {
	var a models.Asset
	var location, metadata, component, vendor, privacy []byte
	err := row.Scan(
		&a.ID, &a.OrganizationID, &a.Name, &a.Description, &a.Type,
		&a.Category, &a.Subcategory, &a.Owner, &a.Custodian,
		&location, &a.IPAddress, &a.Criticality,
		&a.DataClassification, &a.BusinessValue,
		&a.EncryptionStatus, &a.Status, &a.RiskScore,
		pq.Array(&a.ComplianceFrameworks), pq.Array(&a.Tags), &metadata,
		&a.CreatedAt, &a.UpdatedAt, &a.LastAssessedAt, &a.LastReviewedAt, &a.NextReviewAt,
		&component, &vendor, &privacy,
	)
	if err != nil {
		return a, err
	}
	if len(location) > 0 {
		if err := json.Unmarshal(location, &a.Location); err != nil {
			return a, fmt.Errorf("decode location: %w", err)
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &a.Metadata); err != nil {
			return a, fmt.Errorf("decode metadata: %w", err)
		}
	}
	// A NULL extension column means that product has no data: the field
	// stays nil, never an empty placeholder.
	if len(component) > 0 {
		a.Extensions.Component = &models.ComponentExtension{}
		if err := json.Unmarshal(component, a.Extensions.Component); err != nil {
			return a, fmt.Errorf("decode component extension: %w", err)
		}
	}
	if len(vendor) > 0 {
		a.Extensions.Vendor = &models.VendorExtension{}
		if err := json.Unmarshal(vendor, a.Extensions.Vendor); err != nil {
			return a, fmt.Errorf("decode vendor extension: %w", err)
		}
	}
	if len(privacy) > 0 {
		a.Extensions.Privacy = &models.PrivacyExtension{}
		if err := json.Unmarshal(privacy, a.Extensions.Privacy); err != nil {
			return a, fmt.Errorf("decode privacy extension: %w", err)
		}
	}
	return a, nil
}

func marshalBlobs(a *models.Asset) (location, metadata, component, vendor, privacy []byte, err error) {
	if !a.Location.IsZero() {
		if location, err = json.Marshal(a.Location); err != nil {
			return
		}
	}
	if len(a.Metadata) > 0 {
		if metadata, err = json.Marshal(a.Metadata); err != nil {
			return
		}
	}
	if a.Extensions.Component != nil {
		if component, err = json.Marshal(a.Extensions.Component); err != nil {
			return
		}
	}
	if a.Extensions.Vendor != nil {
		if vendor, err = json.Marshal(a.Extensions.Vendor); err != nil {
			return
		}
	}
	if a.Extensions.Privacy != nil {
		if privacy, err = json.Marshal(a.Extensions.Privacy); err != nil {
			return
		}
	}
	return
}

func insertEdges(ctx context.Context, tx *sql.Tx, a *models.Asset) error {
	for i := range a.Relationships {
		rel := &a.Relationships[i]
		if rel.ID == "" {
			rel.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO asset_relationships (id, asset_id, related_asset_id, kind, strength, data_flow, personal_data)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			rel.ID, a.ID, rel.RelatedAssetID, rel.Kind,
			nullStr(rel.Strength), nullStr(rel.DataFlow), rel.PersonalData); err != nil {
			return fmt.Errorf("insert relationship: %w", err)
		}
	}
	for i := range a.Dependencies {
		dep := &a.Dependencies[i]
		if dep.ID == "" {
			dep.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO asset_dependencies (id, asset_id, depends_on_id, type, criticality, is_active, last_validated_at, risk_level, bidirectional)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			dep.ID, a.ID, dep.DependsOnID, dep.Type, nullStr(dep.Criticality),
			dep.IsActive, dep.LastValidatedAt, nullStr(dep.RiskLevel), dep.Bidirectional); err != nil {
			return fmt.Errorf("insert dependency: %w", err)
		}
	}
	for i := range a.Vulnerabilities {
		v := &a.Vulnerabilities[i]
		if v.ID == "" {
			v.ID = uuid.NewString()
		}
		status := v.Status
		if status == "" {
			status = string(models.VulnOpen)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO asset_vulnerabilities (id, asset_id, cve, title, description, severity, cvss_score, status, discovered_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			v.ID, a.ID, nullStr(v.CVE), v.Title, v.Description,
			nullStr(v.Severity), v.CVSSScore, status, v.DiscoveredAt); err != nil {
			return fmt.Errorf("insert vulnerability: %w", err)
		}
	}
	return nil
}

// nullStr maps "" to SQL NULL so optional text columns stay NULL instead of
// empty strings.
func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
