package models

import (
	"errors"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

/**
RecordStore backed by a SQL database through gorm. Only sqlite is wired up
*/
type SqlRecordStore struct {
	db *gorm.DB
}

func OpenSqliteStore(path string) (*SqlRecordStore, error) {
	db, openErr := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if openErr != nil {
		log.Printf("ERROR: Could not open sqlite database at %s: %s", path, openErr)
		return nil, openErr
	}
	return NewSqlRecordStore(db)
}

func NewSqlRecordStore(db *gorm.DB) (*SqlRecordStore, error) {
	if migrateErr := db.AutoMigrate(&VideoRecord{}); migrateErr != nil {
		log.Printf("ERROR: Could not migrate video records table: %s", migrateErr)
		return nil, migrateErr
	}
	return &SqlRecordStore{db: db}, nil
}

func (s *SqlRecordStore) Create(rec *VideoRecord) error {
	rec.Id = 0
	if err := s.db.Create(rec).Error; err != nil {
		log.Printf("Could not create video record for %s: %s", rec.SourceFile, err)
		return err
	}
	return nil
}

func (s *SqlRecordStore) FindByID(id int64) (*VideoRecord, error) {
	var rec VideoRecord
	err := s.db.First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	} else if err != nil {
		log.Printf("Could not retrieve video with id %d: %s", id, err)
		return nil, err
	}
	return &rec, nil
}

/**
writes every column, including zero values, so that an overwrite of outputs really does clear them
*/
func (s *SqlRecordStore) Persist(rec *VideoRecord) error {
	if rec.Id == 0 {
		return errors.New("can't persist a record that has not been created")
	}
	if err := s.db.Save(rec).Error; err != nil {
		log.Printf("Could not save data for video %d: %s", rec.Id, err)
		return err
	}
	return nil
}

func (s *SqlRecordStore) MarkSubmitted(id int64) (bool, error) {
	result := s.db.Model(&VideoRecord{}).
		Where("id = ? AND submitted = ?", id, false).
		Updates(map[string]interface{}{"submitted": true, "state": STATE_SUBMITTED})
	if result.Error != nil {
		log.Printf("Could not mark video %d as submitted: %s", id, result.Error)
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		//either already submitted or not there at all
		if _, findErr := s.FindByID(id); findErr != nil {
			return false, findErr
		}
		return false, nil
	}
	return true, nil
}

func (s *SqlRecordStore) ListByState(state VideoState, limit int) ([]*VideoRecord, error) {
	var records []*VideoRecord
	query := s.db.Where("state = ?", state).Order("created_at asc, id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		log.Printf("Could not list videos in state %s: %s", state, err)
		return nil, err
	}
	return records, nil
}
