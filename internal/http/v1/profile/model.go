package profile

import (
	"github.com/janisto/campus-market/internal/platform/timeutil"
)

// Profile represents a user profile response.
type Profile struct {
	ID                string        `json:"id"                     doc:"Auth user ID"                example:"user-123"`
	Email             string        `json:"email"                  doc:"Sign-in email address"       example:"ada@campus.edu"`
	FullName          string        `json:"fullName"               doc:"Full name"                   example:"Ada Obi"`
	PhoneNumber       string        `json:"phoneNumber"            doc:"International phone number"  example:"+2348012345678"`
	Role              string        `json:"role"                   doc:"STUDENT or STAFF"            example:"STUDENT"`
	RoleDisplay       string        `json:"roleDisplay"            doc:"Role label"                  example:"Student"`
	Department        string        `json:"department,omitempty"   doc:"Department"                  example:"Department of Computer Science"`
	DepartmentDisplay string        `json:"departmentDisplay"      doc:"Department label"            example:"Department of Computer Science"`
	NonTeachingStaff  bool          `json:"nonTeachingStaff"       doc:"Staff without a department"  example:"false"`
	Bio               string        `json:"bio"                    doc:"Short introduction"          example:"Final year CS student"`
	BioDisplay        string        `json:"bioDisplay"             doc:"Bio label"                   example:"No bio provided"`
	Skills            []string      `json:"skills"                 doc:"Selected skills"`
	MatricNumber      string        `json:"matricNumber,omitempty" doc:"Student matric number"       example:"23-01-04-0208"`
	AvatarURL         string        `json:"avatarUrl,omitempty"    doc:"Public avatar URL"`
	CreatedAt         timeutil.Time `json:"createdAt"              doc:"Creation timestamp"          example:"2024-01-15T10:30:00.000Z"`
	UpdatedAt         timeutil.Time `json:"updatedAt"              doc:"Last update timestamp"       example:"2024-01-15T10:30:00.000Z"`
}
