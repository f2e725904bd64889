package domain

import (
	"fmt"
	"strings"
)

// Project is the single persisted portfolio entry. JSON names follow the
// public API (nombre, descripcion, enlace, imagen).
type Project struct {
	ID          int64   `json:"id"`
	Name        string  `json:"nombre"`
	Description string  `json:"descripcion"`
	Link        *string `json:"enlace"`
	Image       *string `json:"imagen"`
}

// ProjectInput carries the replaceable fields of a project.
type ProjectInput struct {
	Name        string
	Description string
	Link        *string
	Image       *string
}

// Normalize trims text fields and turns blank optional fields into nil.
func (in ProjectInput) Normalize() ProjectInput {
	return ProjectInput{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Link:        optional(in.Link),
		Image:       optional(in.Image),
	}
}

// Validate checks the required fields.
func (in ProjectInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: nombre is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Description) == "" {
		return fmt.Errorf("%w: descripcion is required", ErrInvalidInput)
	}
	return nil
}

// StringPtr returns nil for blank strings.
func StringPtr(s string) *string {
	return optional(&s)
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
