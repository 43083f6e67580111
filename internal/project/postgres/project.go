package postgres

import (
	"time"

	"gorm.io/gorm"

	"github.com/expenseops/expense-approval/internal/project"
)

// ProjectRepository implements the project.Repository interface using GORM
type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) project.Repository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(p *project.Project) error {
	return r.db.Create(p).Error
}

func (r *ProjectRepository) GetByID(id int64) (*project.Project, error) {
	var p project.Project
	err := r.db.Where("id = ?", id).First(&p).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, project.ErrProjectNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepository) GetAll(limit, offset int) ([]*project.Project, error) {
	var projects []*project.Project
	err := r.db.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&projects).Error
	return projects, err
}

// UpdateStatus performs a conditional update so two concurrent transitions
// cannot both pass the lifecycle guard.
func (r *ProjectRepository) UpdateStatus(id int64, from, to project.Status) (bool, error) {
	result := r.db.Model(&project.Project{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ApplyValueChange writes the revision row and the value update in a single
// transaction; a failure of either leaves both untouched.
func (r *ProjectRepository) ApplyValueChange(projectID int64, newValue int64, revision *project.Revision) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(revision).Error; err != nil {
			return err
		}
		return tx.Model(&project.Project{}).
			Where("id = ?", projectID).
			Updates(map[string]interface{}{
				"value":      newValue,
				"updated_at": time.Now(),
			}).Error
	})
}

func (r *ProjectRepository) GetRevisions(projectID int64) ([]*project.Revision, error) {
	var revisions []*project.Revision
	err := r.db.Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&revisions).Error
	return revisions, err
}
