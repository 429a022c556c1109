package repository

import (
	"context"
	"errors"

	"taskflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// AddMember grants a user a role on a project, updating the role if the
// membership already exists.
func (r *MemberRepository) AddMember(ctx context.Context, projectID, userID uuid.UUID, role string) error {
	member := model.ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.ProjectMember
		err := tx.Where("project_id = ? AND user_id = ?", projectID, userID).First(&existing).Error

		if err == nil {
			existing.Role = role
			return tx.Save(&existing).Error
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Create(&member).Error
	})
}

// RemoveMember revokes a user's membership on a project
func (r *MemberRepository) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&model.ProjectMember{}).Error
}

// GetProjectMembers returns the users with access to a project
func (r *MemberRepository) GetProjectMembers(ctx context.Context, projectID uuid.UUID) ([]model.ProjectMember, error) {
	var members []model.ProjectMember

	err := r.db.WithContext(ctx).
		Preload("User").
		Where("project_id = ?", projectID).
		Find(&members).Error

	return members, err
}

// GetSharedProjects returns the projects a user is a member of
func (r *MemberRepository) GetSharedProjects(ctx context.Context, userID uuid.UUID) ([]model.Project, error) {
	var projects []model.Project

	err := r.db.WithContext(ctx).
		Joins("JOIN project_members ON project_members.project_id = projects.id").
		Where("project_members.user_id = ?", userID).
		Find(&projects).Error

	return projects, err
}

// CheckAccess reports whether a user has the required role (or better) on
// a project. The project owner always has full access.
func (r *MemberRepository) CheckAccess(ctx context.Context, projectID, userID uuid.UUID, requiredRole string) (bool, error) {
	var project model.Project
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", projectID, userID).
		First(&project).Error

	if err == nil {
		return true, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	var member model.ProjectMember
	err = r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	if requiredRole == model.RoleViewer {
		return true, nil
	}

	return member.Role == model.RoleEditor, nil
}
