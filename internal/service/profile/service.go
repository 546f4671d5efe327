package profile

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/janisto/campus-market/internal/market/catalog"
)

// Service errors
var (
	ErrNotFound      = errors.New("profile not found")
	ErrAlreadyExists = errors.New("profile already exists")
	ErrMalformed     = errors.New("malformed profile")
)

// MinSkills is the number of skills a profile must list.
const MinSkills = 2

// Profile represents stored profile data. ID is the auth UID.
type Profile struct {
	ID               string
	Email            string
	FullName         string
	PhoneNumber      string
	Role             string
	Department       string
	NonTeachingStaff bool
	Bio              string
	Skills           []string
	MatricNumber     string
	AvatarURL        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// RoleDisplay returns "Student" or "Staff".
func (p *Profile) RoleDisplay() string {
	if p.Role == catalog.RoleStudent {
		return "Student"
	}
	return "Staff"
}

// DepartmentDisplay returns the department, "Non-Teaching Staff" or "Not specified".
func (p *Profile) DepartmentDisplay() string {
	switch {
	case p.NonTeachingStaff:
		return "Non-Teaching Staff"
	case p.Department == "":
		return "Not specified"
	default:
		return p.Department
	}
}

// BioDisplay returns the bio or a placeholder.
func (p *Profile) BioDisplay() string {
	if p.Bio == "" {
		return "No bio provided"
	}
	return p.Bio
}

// CreateParams for creating a profile.
type CreateParams struct {
	Email            string
	FullName         string
	PhoneNumber      string
	Role             string
	Department       string
	NonTeachingStaff bool
	Bio              string
	Skills           []string
	MatricNumber     string
	AvatarURL        string
}

// UpdateParams for updating a profile. Nil fields are left unchanged; an empty AvatarURL
// removes the avatar.
type UpdateParams struct {
	FullName         *string
	PhoneNumber      *string
	Role             *string
	Department       *string
	NonTeachingStaff *bool
	Bio              *string
	Skills           *[]string
	MatricNumber     *string
	AvatarURL        *string
}

// Service defines profile operations.
//
// Implementations must normalize input data:
//   - Email: lowercase and trim whitespace
//   - FullName, PhoneNumber, Bio: trim whitespace
//   - Skills: trimmed, deduplicated, order kept
//   - Department: cleared for non-teaching staff
//   - MatricNumber: cleared unless the role is STUDENT
type Service interface {
	Create(ctx context.Context, userID string, params CreateParams) (*Profile, error)
	Get(ctx context.Context, userID string) (*Profile, error)
	Update(ctx context.Context, userID string, params UpdateParams) (*Profile, error)
	Delete(ctx context.Context, userID string) error
}

// apply copies non-nil update fields into p.
func (params UpdateParams) apply(p *Profile) {
	if params.FullName != nil {
		p.FullName = *params.FullName
	}
	if params.PhoneNumber != nil {
		p.PhoneNumber = *params.PhoneNumber
	}
	if params.Role != nil {
		p.Role = *params.Role
	}
	if params.Department != nil {
		p.Department = *params.Department
	}
	if params.NonTeachingStaff != nil {
		p.NonTeachingStaff = *params.NonTeachingStaff
	}
	if params.Bio != nil {
		p.Bio = *params.Bio
	}
	if params.Skills != nil {
		p.Skills = *params.Skills
	}
	if params.MatricNumber != nil {
		p.MatricNumber = *params.MatricNumber
	}
	if params.AvatarURL != nil {
		p.AvatarURL = *params.AvatarURL
	}
}

func fromCreate(userID string, params CreateParams) *Profile {
	return &Profile{
		ID:               userID,
		Email:            params.Email,
		FullName:         params.FullName,
		PhoneNumber:      params.PhoneNumber,
		Role:             params.Role,
		Department:       params.Department,
		NonTeachingStaff: params.NonTeachingStaff,
		Bio:              params.Bio,
		Skills:           params.Skills,
		MatricNumber:     params.MatricNumber,
		AvatarURL:        params.AvatarURL,
	}
}

// normalize applies the Service normalization rules in place.
func normalize(p *Profile) {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.FullName = strings.TrimSpace(p.FullName)
	p.PhoneNumber = strings.TrimSpace(p.PhoneNumber)
	p.Bio = strings.TrimSpace(p.Bio)
	p.Department = strings.TrimSpace(p.Department)
	p.MatricNumber = strings.TrimSpace(p.MatricNumber)

	skills := make([]string, 0, len(p.Skills))
	for _, s := range p.Skills {
		if s = strings.TrimSpace(s); s != "" && !slices.Contains(skills, s) {
			skills = append(skills, s)
		}
	}
	p.Skills = skills

	if p.Role != catalog.RoleStaff {
		p.NonTeachingStaff = false
	}
	if p.NonTeachingStaff {
		p.Department = ""
	}
	if p.Role != catalog.RoleStudent {
		p.MatricNumber = ""
	}
}

// Validate checks the stored-record invariants.
func Validate(p *Profile) error {
	switch {
	case p.FullName == "":
		return fmt.Errorf("%w: full name missing", ErrMalformed)
	case !catalog.IsRole(p.Role):
		return fmt.Errorf("%w: role %q", ErrMalformed, p.Role)
	case p.Role == catalog.RoleStudent && p.MatricNumber == "":
		return fmt.Errorf("%w: student without matric number", ErrMalformed)
	case p.NonTeachingStaff && p.Department != "":
		return fmt.Errorf("%w: non-teaching staff with department", ErrMalformed)
	case len(p.Skills) < MinSkills:
		return fmt.Errorf("%w: %d skills", ErrMalformed, len(p.Skills))
	}
	return nil
}

// categorizeError converts errors to audit-safe categories.
func categorizeError(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	default:
		return "internal_error"
	}
}
