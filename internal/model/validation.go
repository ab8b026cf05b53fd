package model

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// Validation errors for Item input.
var (
	ErrEmptyName        = errors.New("name cannot be empty")
	ErrNameTooLong      = errors.New("name cannot exceed 200 characters")
	ErrEmptySlug        = errors.New("slug cannot be empty")
	ErrSlugTooLong      = errors.New("slug cannot exceed 100 characters")
	ErrInvalidSlug      = errors.New("slug must contain only lowercase letters, numbers, and hyphens")
	ErrSlugEdgeHyphen   = errors.New("slug cannot start or end with a hyphen")
	ErrSlugDoubleHyphen = errors.New("slug cannot contain consecutive hyphens")
	ErrDescriptionLimit = errors.New("description cannot exceed 1000 characters")
)

// Validation constants, counted in characters.
const (
	MaxNameLength        = 200
	MaxSlugLength        = 100
	MaxDescriptionLength = 1000
)

// Sanitize removes C0 and C1 control characters (U+0000-U+001F, U+007F-U+009F)
// and trims surrounding whitespace.
func Sanitize(value string) string {
	stripped := strings.Map(func(r rune) rune {
		if r <= 0x1f || (r >= 0x7f && r <= 0x9f) {
			return -1
		}
		return r
	}, value)
	return strings.TrimSpace(stripped)
}

// ValidateSlug checks that slug is URL-safe: lowercase ASCII letters, digits
// and single internal hyphens.
func ValidateSlug(slug string) error {
	if slug == "" {
		return ErrEmptySlug
	}
	if utf8.RuneCountInString(slug) > MaxSlugLength {
		return ErrSlugTooLong
	}

	for i := 0; i < len(slug); i++ {
		c := slug[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
			return ErrInvalidSlug
		}
	}

	if strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-") {
		return ErrSlugEdgeHyphen
	}
	if strings.Contains(slug, "--") {
		return ErrSlugDoubleHyphen
	}

	return nil
}

func validateName(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}

func validateDescription(desc *string) error {
	if desc != nil && utf8.RuneCountInString(*desc) > MaxDescriptionLength {
		return ErrDescriptionLimit
	}
	return nil
}

// Normalize sanitizes the free-text fields in place and validates the result.
// The slug is validated as given; it is never rewritten.
func (c *CreateItemInput) Normalize() error {
	c.Name = Sanitize(c.Name)
	if c.Description != nil {
		desc := Sanitize(*c.Description)
		c.Description = &desc
	}

	if err := validateName(c.Name); err != nil {
		return err
	}
	if err := ValidateSlug(c.Slug); err != nil {
		return err
	}
	return validateDescription(c.Description)
}

// Normalize sanitizes and validates the provided fields of a partial update.
func (u *UpdateItemInput) Normalize() error {
	if u.Name != nil {
		name := Sanitize(*u.Name)
		u.Name = &name
		if err := validateName(name); err != nil {
			return err
		}
	}
	if u.Description != nil {
		desc := Sanitize(*u.Description)
		u.Description = &desc
	}
	return validateDescription(u.Description)
}
