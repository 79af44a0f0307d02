package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carepoint-health/carepoint/internal/models"
	"github.com/carepoint-health/carepoint/internal/roles"
)

// UsersResponse wraps a list of users
type UsersResponse struct {
	Users []*UserDetail `json:"users"`
}

// @Summary List users
// @Description List all users, optionally filtered by role (admin only)
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param role query string false "patient, doctor or admin"
// @Success 200 {object} UsersResponse
// @Failure 401 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /api/users [get]
func (s *Server) listUsers(c *gin.Context) {
	query := s.db.WithContext(c.Request.Context()).Order("created_at DESC")

	if raw := c.Query("role"); raw != "" {
		role, err := roles.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		query = query.Where("role = ?", role)
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list users")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	details := make([]*UserDetail, len(users))
	for i := range users {
		details[i] = newUserDetail(&users[i])
	}

	respondData(c, http.StatusOK, UsersResponse{Users: details})
}
