package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// jobRecord is the ocr_jobs row.
type jobRecord struct {
	ID        string         `gorm:"type:varchar(100);primaryKey"`
	TaskID    string         `gorm:"type:varchar(100);not null;uniqueIndex"`
	FilePath  string         `gorm:"type:text;not null;default:''"`
	MultiDoc  bool           `gorm:"not null;default:false"`
	Status    string         `gorm:"type:varchar(20);not null;default:'pending';index"`
	Result    datatypes.JSON `gorm:"type:jsonb"`
	Error     string         `gorm:"type:text;not null;default:''"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for jobRecord
func (jobRecord) TableName() string {
	return "ocr_jobs"
}

func toRecord(j *Job) (*jobRecord, error) {
	rec := &jobRecord{
		ID:        j.ID,
		TaskID:    j.TaskID,
		FilePath:  j.FilePath,
		MultiDoc:  j.MultiDoc,
		Status:    string(j.Status),
		Error:     j.Error,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
	if j.Result != nil {
		data, err := json.Marshal(j.Result)
		if err != nil {
			return nil, fmt.Errorf("encoding result: %w", err)
		}
		rec.Result = datatypes.JSON(data)
	}
	return rec, nil
}

func (r *jobRecord) toJob() (*Job, error) {
	j := &Job{
		ID:        r.ID,
		TaskID:    r.TaskID,
		FilePath:  r.FilePath,
		MultiDoc:  r.MultiDoc,
		Status:    Status(r.Status),
		Error:     r.Error,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if len(r.Result) > 0 && string(r.Result) != "null" {
		var res Result
		if err := json.Unmarshal(r.Result, &res); err != nil {
			return nil, fmt.Errorf("decoding result of job %s: %w", r.ID, err)
		}
		j.Result = &res
	}
	return j, nil
}

// GormStore persists jobs in PostgreSQL through GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open database. The schema must already exist; see
// Migrate.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// OpenPostgres opens a PostgreSQL connection pool.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("database url is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Close closes the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) Create(ctx context.Context, job *Job) error {
	rec, err := toRecord(job)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("creating job %s: %w", job.ID, err)
	}
	job.CreatedAt, job.UpdatedAt = rec.CreatedAt, rec.UpdatedAt
	return nil
}

func (s *GormStore) Get(ctx context.Context, id string) (*Job, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *GormStore) GetByTask(ctx context.Context, taskID string) (*Job, error) {
	return s.first(ctx, "task_id = ?", taskID)
}

func (s *GormStore) first(ctx context.Context, query string, arg string) (*Job, error) {
	var rec jobRecord
	err := s.db.WithContext(ctx).Where(query, arg).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading job: %w", err)
	}
	return rec.toJob()
}

func (s *GormStore) Update(ctx context.Context, job *Job) error {
	rec, err := toRecord(job)
	if err != nil {
		return err
	}

	res := s.db.WithContext(ctx).Model(&jobRecord{}).Where("id = ?", job.ID).Updates(map[string]interface{}{
		"task_id":    rec.TaskID,
		"file_path":  rec.FilePath,
		"multi_doc":  rec.MultiDoc,
		"status":     rec.Status,
		"result":     rec.Result,
		"error":      rec.Error,
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return fmt.Errorf("updating job %s: %w", job.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) ([]*Job, error) {
	terminal := []string{string(StatusCompleted), string(StatusFailed), string(StatusAborted)}

	var recs []jobRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("status IN ? AND updated_at < ?", terminal, cutoff).Find(&recs).Error; err != nil {
			return err
		}
		if len(recs) == 0 {
			return nil
		}
		ids := make([]string, len(recs))
		for i, r := range recs {
			ids[i] = r.ID
		}
		return tx.Where("id IN ?", ids).Delete(&jobRecord{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("deleting finished jobs: %w", err)
	}

	removed := make([]*Job, 0, len(recs))
	for i := range recs {
		j, err := recs[i].toJob()
		if err != nil {
			return nil, err
		}
		removed = append(removed, j)
	}
	return removed, nil
}

var _ Store = (*GormStore)(nil)
