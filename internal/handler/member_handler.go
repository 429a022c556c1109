package handler

import (
	"errors"
	"net/http"

	"taskflow/internal/model"
	"taskflow/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MemberHandler struct {
	projectRepo *repository.ProjectRepository
	userRepo    repository.UserRepositoryInterface
	memberRepo  *repository.MemberRepository
}

func NewMemberHandler(
	projectRepo *repository.ProjectRepository,
	userRepo repository.UserRepositoryInterface,
	memberRepo *repository.MemberRepository,
) *MemberHandler {
	return &MemberHandler{
		projectRepo: projectRepo,
		userRepo:    userRepo,
		memberRepo:  memberRepo,
	}
}

// MemberRequest is the payload for granting project membership
type MemberRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required,oneof=viewer editor"`
}

// MemberResponse describes one project member
type MemberResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// loadOwnedProject fetches the project and verifies the caller owns it
func (h *MemberHandler) loadOwnedProject(c *gin.Context, userID uuid.UUID) *model.Project {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
		return nil
	}

	project, err := h.projectRepo.GetByID(c.Request.Context(), projectID)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return nil
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		return nil
	}

	if project.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner can manage project members"})
		return nil
	}

	return project
}

// AddMember grants a user a role on the project
func (h *MemberHandler) AddMember(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	project := h.loadOwnedProject(c, userID)
	if project == nil {
		return
	}

	var req MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	target, err := h.userRepo.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up user"})
		return
	}
	if target == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if target.ID == project.OwnerID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Owner already has full access"})
		return
	}

	if err := h.memberRepo.AddMember(c.Request.Context(), project.ID, target.ID, req.Role); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member"})
		return
	}

	c.JSON(http.StatusCreated, MemberResponse{
		UserID: target.ID.String(),
		Email:  target.Email,
		Name:   target.Name,
		Role:   req.Role,
	})
}

// RemoveMember revokes a user's membership
func (h *MemberHandler) RemoveMember(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	project := h.loadOwnedProject(c, userID)
	if project == nil {
		return
	}

	targetID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	if err := h.memberRepo.RemoveMember(c.Request.Context(), project.ID, targetID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}

// GetMembers lists the members of a project
func (h *MemberHandler) GetMembers(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	project := h.loadOwnedProject(c, userID)
	if project == nil {
		return
	}

	members, err := h.memberRepo.GetProjectMembers(c.Request.Context(), project.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve members"})
		return
	}

	responses := make([]MemberResponse, 0, len(members))
	for _, m := range members {
		responses = append(responses, MemberResponse{
			UserID: m.UserID.String(),
			Email:  m.User.Email,
			Name:   m.User.Name,
			Role:   m.Role,
		})
	}

	c.JSON(http.StatusOK, responses)
}

// GetSharedProjects lists the projects shared with the caller
func (h *MemberHandler) GetSharedProjects(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projects, err := h.memberRepo.GetSharedProjects(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve shared projects"})
		return
	}

	responses := make([]ProjectResponse, 0, len(projects))
	for i := range projects {
		responses = append(responses, toProjectResponse(&projects[i]))
	}

	c.JSON(http.StatusOK, responses)
}
