package form

import (
	"slices"
	"strings"

	"github.com/janisto/campus-market/internal/market/catalog"
	"github.com/janisto/campus-market/internal/service/profile"
)

// ProfileDraft is the profile setup and edit form input.
type ProfileDraft struct {
	FullName         string
	PhoneNumber      string
	Role             string
	Department       string
	NonTeachingStaff bool
	Bio              string
	Skills           []string
	MatricNumber     string
}

// Clone copies Skills.
func (d ProfileDraft) Clone() ProfileDraft {
	d.Skills = slices.Clone(d.Skills)
	return d
}

// SetRole changes the role. Only staff can be non-teaching.
func (d *ProfileDraft) SetRole(role string) {
	d.Role = role
	if role != catalog.RoleStaff {
		d.NonTeachingStaff = false
	}
}

// SetNonTeaching marks the profile as non-teaching staff, which has no department.
func (d *ProfileDraft) SetNonTeaching(v bool) {
	d.NonTeachingStaff = v
	if v {
		d.Department = ""
	}
}

// ToggleSkill adds skill when absent and removes it when present.
func (d *ProfileDraft) ToggleSkill(skill string) {
	if i := slices.Index(d.Skills, skill); i >= 0 {
		d.Skills = slices.Delete(d.Skills, i, i+1)
		return
	}
	d.Skills = append(d.Skills, skill)
}

// SetMatric stores raw formatted as XX-XX-XX-XXXX.
func (d *ProfileDraft) SetMatric(raw string) {
	d.MatricNumber = FormatMatric(raw)
}

// FormatMatric keeps the first 10 digits of raw and groups them 2-2-2-4, so partial input
// formats as it is typed: "2301" becomes "23-01".
func FormatMatric(raw string) string {
	digits := make([]rune, 0, 10)
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
		if len(digits) == 10 {
			break
		}
	}
	var b strings.Builder
	for i, r := range digits {
		if i == 2 || i == 4 || i == 6 {
			b.WriteByte('-')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d ProfileDraft) departmentRequired() bool {
	return !(d.Role == catalog.RoleStaff && d.NonTeachingStaff)
}

func (d ProfileDraft) distinctSkills() int {
	seen := make(map[string]bool, len(d.Skills))
	for _, s := range d.Skills {
		if s = strings.TrimSpace(s); s != "" {
			seen[s] = true
		}
	}
	return len(seen)
}

// ProfileRules validates a profile draft.
func ProfileRules(d ProfileDraft) map[string]string {
	errs := make(map[string]string)

	if strings.TrimSpace(d.FullName) == "" {
		errs["fullName"] = "Full name is required"
	}

	phone := strings.TrimSpace(d.PhoneNumber)
	if phone == "" {
		errs["phoneNumber"] = "Phone number is required"
	} else if !strings.HasPrefix(phone, "+") {
		errs["phoneNumber"] = "Please enter a valid international phone number"
	}

	if !catalog.IsRole(d.Role) {
		errs["role"] = "Please select a role"
	}

	if strings.TrimSpace(d.Department) == "" && d.departmentRequired() {
		errs["department"] = "Department is required"
	}

	if d.Role == catalog.RoleStudent && strings.TrimSpace(d.MatricNumber) == "" {
		errs["matricNumber"] = "Matric number is required for students"
	}

	if d.distinctSkills() < profile.MinSkills {
		errs["skills"] = "Please select at least 2 skills"
	}
	return errs
}

// CreateParams converts a valid draft for profile setup.
func (d ProfileDraft) CreateParams(email string) profile.CreateParams {
	return profile.CreateParams{
		Email:            email,
		FullName:         d.FullName,
		PhoneNumber:      d.PhoneNumber,
		Role:             d.Role,
		Department:       d.Department,
		NonTeachingStaff: d.NonTeachingStaff,
		Bio:              d.Bio,
		Skills:           slices.Clone(d.Skills),
		MatricNumber:     d.MatricNumber,
	}
}

// UpdateParams converts a valid draft to a full update. The avatar is managed separately.
func (d ProfileDraft) UpdateParams() profile.UpdateParams {
	skills := slices.Clone(d.Skills)
	return profile.UpdateParams{
		FullName:         &d.FullName,
		PhoneNumber:      &d.PhoneNumber,
		Role:             &d.Role,
		Department:       &d.Department,
		NonTeachingStaff: &d.NonTeachingStaff,
		Bio:              &d.Bio,
		Skills:           &skills,
		MatricNumber:     &d.MatricNumber,
	}
}

// DraftFromProfile prefills a draft for editing.
func DraftFromProfile(p *profile.Profile) ProfileDraft {
	return ProfileDraft{
		FullName:         p.FullName,
		PhoneNumber:      p.PhoneNumber,
		Role:             p.Role,
		Department:       p.Department,
		NonTeachingStaff: p.NonTeachingStaff,
		Bio:              p.Bio,
		Skills:           slices.Clone(p.Skills),
		MatricNumber:     p.MatricNumber,
	}
}

// NewProfileForm returns the setup form, or the edit form prefilled from p when p is not
// nil. Both close after a successful submit.
func NewProfileForm(p *profile.Profile, opts ...Option) *Machine[ProfileDraft] {
	name := "create_profile"
	initial := ProfileDraft{Role: catalog.RoleStudent}
	if p != nil {
		name = "update_profile"
		initial = DraftFromProfile(p)
	}
	opts = append([]Option{CloseOnSuccess()}, opts...)
	return NewMachine(name, initial, ProfileRules, opts...)
}
