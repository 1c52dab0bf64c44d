// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/khacks/phototriage-go/internal/conf"
	"github.com/khacks/phototriage-go/internal/errors"
)

// Interface abstracts the underlying database implementation and defines
// the operations the report store supports.
type Interface interface {
	Open() error
	Save(report *Report) error
	Get(id string) (Report, error)
	GetRecent(limit, offset int) ([]Report, error)
	Close() error
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new datastore instance based on the provided configuration.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			Settings: settings,
		}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{
			Settings: settings,
		}
	default:
		return nil
	}
}

// Save inserts a new report row. The assigned id is written back to the
// report by GORM on success.
func (ds *DataStore) Save(report *Report) error {
	if ds.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	if err := ds.DB.Create(report).Error; err != nil {
		return errors.New(fmt.Errorf("saving report: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("category", report.Category).
			Build()
	}

	return nil
}

// Get retrieves a report by its ID from the database.
func (ds *DataStore) Get(id string) (Report, error) {
	reportID, err := strconv.Atoi(id)
	if err != nil {
		return Report{}, fmt.Errorf("converting ID to integer: %w", err)
	}

	var report Report
	if err := ds.DB.First(&report, reportID).Error; err != nil {
		return Report{}, fmt.Errorf("getting report with ID %d: %w", reportID, err)
	}
	return report, nil
}

// GetRecent returns the most recently inserted reports, newest first.
func (ds *DataStore) GetRecent(limit, offset int) ([]Report, error) {
	var reports []Report
	err := ds.DB.Order("id DESC").Limit(limit).Offset(offset).Find(&reports).Error
	if err != nil {
		return nil, errors.New(fmt.Errorf("getting recent reports: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return reports, nil
}
