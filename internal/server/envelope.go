package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/carepoint-health/carepoint/internal/roles"
)

// respondData writes the success envelope {data: ...}
func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"data": data})
}

// respondError writes the error envelope {message, status}
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message, "status": status})
}

// registerValidators adds the portal-specific tags to gin's validator
func registerValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	// selfrole: a role a user may pick when registering
	_ = v.RegisterValidation("selfrole", func(fl validator.FieldLevel) bool {
		return roles.Role(fl.Field().String()).SelfRegistrable()
	})
}

// bindingMessage turns a binding error into a single readable sentence
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request body"
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := lowerFirst(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", field))
		case "email":
			parts = append(parts, fmt.Sprintf("%s must be a valid email address", field))
		case "min":
			parts = append(parts, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "selfrole":
			parts = append(parts, fmt.Sprintf("%s must be patient or doctor", field))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(parts, "; ")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
