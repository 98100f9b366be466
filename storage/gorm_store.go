package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"aacsb-sync/apperrors"
	"aacsb-sync/models"
	"aacsb-sync/services"
)

// GormStore implementiert die Store-Schnittstellen der Services auf PostgreSQL.
type GormStore struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

var (
	_ services.SyncStore           = (*GormStore)(nil)
	_ services.ClassificationStore = (*GormStore)(nil)
	_ services.ResearchStore       = (*GormStore)(nil)
	_ services.ReportStore         = (*GormStore)(nil)
)

func NewGormStore(db *gorm.DB, logger *zap.Logger) *GormStore {
	return &GormStore{DB: db, Logger: logger}
}

func (s *GormStore) Ping(ctx context.Context) error {
	return Ping(ctx, s.DB)
}

// WithRunLock hält für die Dauer von fn eine Advisory-Session-Sperre auf key.
func (s *GormStore) WithRunLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return s.DB.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		var locked bool
		if err := conn.Raw("SELECT pg_try_advisory_lock(hashtext(?))", key).Scan(&locked).Error; err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
		}
		if !locked {
			return fmt.Errorf("%w: %s", apperrors.ErrRunInProgress, key)
		}
		defer func() {
			if err := conn.Exec("SELECT pg_advisory_unlock(hashtext(?))", key).Error; err != nil {
				s.Logger.Warn("Advisory-Lock konnte nicht freigegeben werden", zap.String("key", key), zap.Error(err))
			}
		}()
		return fn(ctx)
	})
}

func (s *GormStore) FacultyExists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := s.DB.WithContext(ctx).
		Raw("SELECT EXISTS (SELECT 1 FROM aacsb_faculty WHERE user_id = ?)", userID).
		Scan(&exists).Error
	return exists, translate(err)
}

func (s *GormStore) LookupFaculty(ctx context.Context, userID string) (*services.Existing, error) {
	var f models.FacultyRecord
	err := s.DB.WithContext(ctx).
		Select("user_id", "data_source", "created_at", "updated_at").
		Where("user_id = ?", userID).
		Take(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &services.Existing{Key: f.UserID, DataSource: f.DataSource, CreatedAt: f.CreatedAt, UpdatedAt: f.UpdatedAt}, nil
}

func (s *GormStore) LookupResearch(ctx context.Context, key models.ResearchKey) (*services.Existing, error) {
	q := s.DB.WithContext(ctx).Select("research_id", "data_source", "created_at", "updated_at")
	switch {
	case key.APIResearchID != "":
		q = q.Where("api_research_id = ?", key.APIResearchID)
	case key.Fingerprint != "":
		q = q.Where("fingerprint = ? AND api_research_id IS NULL", key.Fingerprint)
	default:
		return nil, nil
	}
	var r models.ResearchOutput
	err := q.Take(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &services.Existing{Key: key.String(), DataSource: r.DataSource, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}, nil
}

// Spalten, die ein Abgleich überschreibt. created_at, Übersetzungen und das
// AACSB-Kennzeichen gehören nicht dazu.
var (
	facultyColumns = []string{
		"campus", "college", "department", "tenure_track", "job_type", "job_rank",
		"name", "english_name", "highest_degree", "employment_status", "email",
		"bachelor_degree_year", "master_degree_year", "doctoral_degree_year", "data_source",
	}
	researchColumns = []string{
		"fac_nip", "name", "title", "doi", "published_at", "publisher", "journal_name",
		"journal_index", "type", "kind", "journal_category", "impact_factor",
		"is_q1_last3years", "is_peer_reviewed", "role", "is_domestic", "data_source",
	}
)

// UpsertFaculty schreibt den Datensatz in einer einzigen Anweisung; der Guard
// wird als WHERE-Bedingung des ON CONFLICT-Zweigs ausgewertet.
func (s *GormStore) UpsertFaculty(ctx context.Context, rec *models.FacultyRecord, guard services.Guard, now time.Time) (models.Outcome, error) {
	args := map[string]interface{}{
		"user_id":              rec.UserID,
		"campus":               rec.Campus,
		"college":              rec.College,
		"department":           rec.Department,
		"tenure_track":         rec.TenureTrack,
		"job_type":             rec.JobType,
		"job_rank":             rec.JobRank,
		"name":                 rec.Name,
		"english_name":         rec.EnglishName,
		"highest_degree":       rec.HighestDegree,
		"employment_status":    rec.EmploymentStatus,
		"email":                rec.Email,
		"bachelor_degree_year": rec.BachelorDegreeYear,
		"master_degree_year":   rec.MasterDegreeYear,
		"doctoral_degree_year": rec.DoctoralDegreeYear,
		"data_source":          string(rec.DataSource),
	}
	insertCols := append([]string{"user_id"}, facultyColumns...)
	q := upsertSQL(models.FacultyRecord{}.TableName(), "(user_id)", insertCols, facultyColumns, guard, args, now)
	return s.upsert(ctx, q, args)
}

// UpsertResearch schreibt ein Forschungsergebnis; Konfliktziel ist die externe
// ID oder, ohne diese, der Fingerprint.
func (s *GormStore) UpsertResearch(ctx context.Context, rec *models.ResearchOutput, guard services.Guard, now time.Time) (models.Outcome, error) {
	var conflict string
	switch {
	case rec.APIResearchID != nil:
		conflict = "(api_research_id)"
	case rec.Fingerprint != nil:
		conflict = "(fingerprint) WHERE api_research_id IS NULL"
	default:
		return "", &apperrors.ValidationError{Missing: []string{"api_research_id", "fingerprint"}}
	}
	args := map[string]interface{}{
		"api_research_id":  rec.APIResearchID,
		"fingerprint":      rec.Fingerprint,
		"fac_nip":          rec.FacNIP,
		"name":             rec.Name,
		"title":            rec.Title,
		"doi":              rec.DOI,
		"published_at":     rec.PublishedAt,
		"publisher":        rec.Publisher,
		"journal_name":     rec.JournalName,
		"journal_index":    rec.JournalIndex,
		"type":             rec.Type,
		"kind":             string(rec.Kind),
		"journal_category": rec.JournalCategory,
		"impact_factor":    rec.ImpactFactor,
		"is_q1_last3years": rec.IsQ1Last3Years,
		"is_peer_reviewed": rec.IsPeerReviewed,
		"role":             rec.Role,
		"is_domestic":      rec.IsDomestic,
		"data_source":      string(rec.DataSource),
	}
	insertCols := append([]string{"api_research_id", "fingerprint"}, researchColumns...)
	q := upsertSQL(models.ResearchOutput{}.TableName(), conflict, insertCols, researchColumns, guard, args, now)
	return s.upsert(ctx, q, args)
}

func (s *GormStore) upsert(ctx context.Context, q string, args map[string]interface{}) (models.Outcome, error) {
	var res struct{ Inserted bool }
	tx := s.DB.WithContext(ctx).Raw(q, args).Scan(&res)
	if tx.Error != nil {
		return "", translate(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return models.OutcomeSkippedDuplicate, nil
	}
	if res.Inserted {
		return models.OutcomeInserted, nil
	}
	return models.OutcomeUpdated, nil
}

// upsertSQL baut INSERT ... ON CONFLICT ... RETURNING (xmax = 0).
// Keine zurückgegebene Zeile bedeutet: der Guard hat das Überschreiben verhindert.
func upsertSQL(table, conflict string, insertCols, updateCols []string, guard services.Guard, args map[string]interface{}, now time.Time) string {
	args["now"] = now
	values := make([]string, 0, len(insertCols)+2)
	for _, c := range insertCols {
		values = append(values, "@"+c)
	}
	values = append(values, "@now", "@now")

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s, created_at, updated_at) VALUES (%s) ON CONFLICT %s ",
		table, strings.Join(insertCols, ", "), strings.Join(values, ", "), conflict)

	if guard.Kind == services.GuardNever {
		b.WriteString("DO NOTHING")
	} else {
		sets := make([]string, 0, len(updateCols)+1)
		for _, c := range updateCols {
			sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
		}
		sets = append(sets, "updated_at = EXCLUDED.updated_at")
		b.WriteString("DO UPDATE SET ")
		b.WriteString(strings.Join(sets, ", "))
		if guard.Kind == services.GuardIfOlder {
			fmt.Fprintf(&b, " WHERE %s.updated_at < @before", table)
			args["before"] = guard.Before
		}
	}
	b.WriteString(" RETURNING (xmax = 0) AS inserted")
	return b.String()
}

func (s *GormStore) SaveSyncRun(ctx context.Context, run *models.SyncRun) error {
	return translate(s.DB.WithContext(ctx).Save(run).Error)
}

func (s *GormStore) GetResearch(ctx context.Context, researchID uint) (*models.ResearchOutput, error) {
	var rec models.ResearchOutput
	if err := s.DB.WithContext(ctx).First(&rec, researchID).Error; err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

func (s *GormStore) GetClassification(ctx context.Context, facNIP string, researchID uint) (*models.Classification, error) {
	var c models.Classification
	err := s.DB.WithContext(ctx).
		Where("fac_nip = ? AND research_id = ?", facNIP, researchID).
		Take(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// SetClassificationAxis legt die Zeile an oder überschreibt nur die Spalten
// der Achse. Parallele Änderungen an der anderen Achse bleiben erhalten.
func (s *GormStore) SetClassificationAxis(ctx context.Context, c *models.Classification, axis models.Axis, now time.Time) (*models.Classification, error) {
	row := *c
	row.CreatedAt = now
	row.UpdatedAt = now

	cols := make([]string, 0, 4)
	for _, f := range axis.Flags() {
		cols = append(cols, string(f))
	}
	cols = append(cols, "updated_at")

	err := s.DB.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "fac_nip"}, {Name: "research_id"}},
			DoUpdates: clause.AssignmentColumns(cols),
		},
		clause.Returning{},
	).Create(&row).Error
	if err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func (s *GormStore) CreateResearch(ctx context.Context, rec *models.ResearchOutput) error {
	return translate(s.DB.WithContext(ctx).Omit(clause.Associations).Create(rec).Error)
}

// Spalten eines manuellen Ergebnisses, die die Pflegeoberfläche überschreibt.
// is_aacsb_managed und created_at bleiben unangetastet.
var manualColumns = append([]string{"api_research_id", "fingerprint", "english_title", "english_journal", "updated_at"}, researchColumns...)

// UpdateManualResearch schreibt per UPDATE, damit eine zwischenzeitlich gelöschte
// Zeile nicht wieder entsteht. Die Klassifizierung zieht mit der fac_nip um.
func (s *GormStore) UpdateManualResearch(ctx context.Context, rec *models.ResearchOutput) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ResearchOutput{}).
			Where("research_id = ?", rec.ResearchID).
			Select(manualColumns).
			UpdateColumns(rec)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		err := tx.Model(&models.Classification{}).
			Where("research_id = ? AND fac_nip <> ?", rec.ResearchID, rec.FacNIP).
			Update("fac_nip", rec.FacNIP).Error
		return translate(err)
	})
}

// UpdateResearchColumns ändert gezielt einzelne Spalten und liest die Zeile danach neu.
func (s *GormStore) UpdateResearchColumns(ctx context.Context, researchID uint, cols map[string]interface{}) (*models.ResearchOutput, error) {
	res := s.DB.WithContext(ctx).Model(&models.ResearchOutput{}).
		Where("research_id = ?", researchID).
		Updates(cols)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrNotFound
	}
	return s.GetResearch(ctx, researchID)
}

// DeleteResearch löscht das Ergebnis samt Klassifizierung.
func (s *GormStore) DeleteResearch(ctx context.Context, researchID uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("research_id = ?", researchID).Delete(&models.Classification{}).Error; err != nil {
			return translate(err)
		}
		res := tx.Delete(&models.ResearchOutput{}, researchID)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}

func (s *GormStore) ListResearch(ctx context.Context, filter services.ResearchFilter) ([]models.ResearchWithClassification, error) {
	q := s.DB.WithContext(ctx).
		Table("aacsb_research_outputs AS aro").
		Select(`aro.*,
			COALESCE(arc.is_basic, false) AS is_basic,
			COALESCE(arc.is_applied, false) AS is_applied,
			COALESCE(arc.is_teaching, false) AS is_teaching,
			COALESCE(arc.is_peer_journal, false) AS is_peer_journal,
			COALESCE(arc.is_other_reviewed, false) AS is_other_reviewed,
			COALESCE(arc.is_other_nonreviewed, false) AS is_other_nonreviewed`).
		Joins("LEFT JOIN aacsb_research_classifications arc ON arc.research_id = aro.research_id AND arc.fac_nip = aro.fac_nip")
	if filter.FacNIP != "" {
		q = q.Where("aro.fac_nip = ?", filter.FacNIP)
	}
	if filter.Year != 0 {
		q = q.Where("EXTRACT(YEAR FROM aro.published_at) = ?", filter.Year)
	}

	var out []models.ResearchWithClassification
	if err := q.Order("aro.published_at DESC, aro.research_id DESC").Scan(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (s *GormStore) FindFaculty(ctx context.Context, query string) ([]models.FacultyRecord, error) {
	var out []models.FacultyRecord
	err := s.DB.WithContext(ctx).
		Where("user_id = ? OR name = ?", query, query).
		Order("name, user_id").
		Find(&out).Error
	return out, translate(err)
}
