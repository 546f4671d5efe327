package profile

import "github.com/janisto/campus-market/internal/http/v1/upload"

// ProfileFields are the editable profile fields. On create, omitted fields keep the setup
// form defaults (role STUDENT); on update, omitted fields keep their current value.
type ProfileFields struct {
	FullName         *string   `json:"fullName,omitempty"         maxLength:"100" doc:"Full name"                                     example:"Ada Obi"`
	PhoneNumber      *string   `json:"phoneNumber,omitempty"      maxLength:"20"  doc:"International phone number"                    example:"+2348012345678"`
	Role             *string   `json:"role,omitempty"                             doc:"STUDENT or STAFF"                              example:"STUDENT"`
	Department       *string   `json:"department,omitempty"       maxLength:"100" doc:"Department; not used by non-teaching staff"     example:"Department of Computer Science"`
	NonTeachingStaff *bool     `json:"nonTeachingStaff,omitempty"                 doc:"Staff without a department"                    example:"false"`
	Bio              *string   `json:"bio,omitempty"              maxLength:"500" doc:"Short introduction"                            example:"Final year CS student"`
	Skills           *[]string `json:"skills,omitempty"           maxItems:"41"   doc:"At least two skills from the catalog"`
	MatricNumber     *string   `json:"matricNumber,omitempty"     maxLength:"20"  doc:"Students only; digits are grouped XX-XX-XX-XXXX" example:"23-01-04-0208"`
}

// ProfileCreateInput for POST /profile
type ProfileCreateInput struct {
	Body ProfileFields
}

// ProfileGetInput for GET /profile (no body needed)
type ProfileGetInput struct{}

// ProfileUpdateInput for PATCH /profile
type ProfileUpdateInput struct {
	Body ProfileFields
}

// ProfileDeleteInput for DELETE /profile (no body needed)
type ProfileDeleteInput struct{}

// AvatarPutInput for PUT /profile/avatar
type AvatarPutInput struct {
	Body upload.Image
}
