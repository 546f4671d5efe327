package profile

import (
	"context"
	"net/http"
	"slices"

	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/campus-market/internal/http/v1/problem"
	"github.com/janisto/campus-market/internal/market"
	"github.com/janisto/campus-market/internal/market/form"
	"github.com/janisto/campus-market/internal/platform/auth"
	applog "github.com/janisto/campus-market/internal/platform/logging"
	"github.com/janisto/campus-market/internal/platform/timeutil"
	profilesvc "github.com/janisto/campus-market/internal/service/profile"
)

const avatarMaxBodyBytes = 8 << 20

// Register registers profile endpoints.
func Register(api huma.API, mp *market.Marketplace, prefix string) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-profile",
		Method:        http.MethodPost,
		Path:          "/profile",
		Summary:       "Set up user profile",
		Description:   "Creates the profile of the authenticated user. Required once after the first sign-in.",
		Tags:          []string{"Profile"},
		DefaultStatus: http.StatusCreated,
		Security: []map[string][]string{
			{"bearerAuth": {}},
		},
	}, func(ctx context.Context, input *ProfileCreateInput) (*ProfileCreateOutput, error) {
		user := auth.UserFromContext(ctx)

		m := form.NewProfileForm(nil, form.WithLogger(applog.LoggerFromContext(ctx)))
		if err := applyFields(m, &input.Body); err != nil {
			return nil, huma.Error500InternalServerError("internal error")
		}

		var created *profilesvc.Profile
		err := m.Submit(ctx, func(ctx context.Context, d form.ProfileDraft) error {
			p, err := mp.SetupProfile(ctx, user.UID, user.Email, d)
			created = p
			return err
		})
		if err != nil {
			return nil, problem.From(err)
		}
		return &ProfileCreateOutput{
			Location: prefix + "/profile",
			Body:     ToHTTPProfile(created),
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-profile",
		Method:      http.MethodGet,
		Path:        "/profile",
		Summary:     "Get current user's profile",
		Description: "Retrieves the profile for the authenticated user. 404 means profile setup is required.",
		Tags:        []string{"Profile"},
		Security: []map[string][]string{
			{"bearerAuth": {}},
		},
	}, func(ctx context.Context, _ *ProfileGetInput) (*ProfileGetOutput, error) {
		user := auth.UserFromContext(ctx)

		p, err := mp.Profile(ctx, user.UID)
		if err != nil {
			return nil, problem.From(err)
		}
		return &ProfileGetOutput{
			Body: ToHTTPProfile(p),
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-profile",
		Method:      http.MethodPatch,
		Path:        "/profile",
		Summary:     "Update current user's profile",
		Description: "Updates fields on the authenticated user's profile. Only provided fields change; the result must still pass profile validation.",
		Tags:        []string{"Profile"},
		Security: []map[string][]string{
			{"bearerAuth": {}},
		},
	}, func(ctx context.Context, input *ProfileUpdateInput) (*ProfileUpdateOutput, error) {
		user := auth.UserFromContext(ctx)
		if !hasFields(&input.Body) {
			return nil, huma.Error422UnprocessableEntity("at least one field must be provided")
		}

		current, err := mp.Profile(ctx, user.UID)
		if err != nil {
			return nil, problem.From(err)
		}
		m := form.NewProfileForm(current, form.WithLogger(applog.LoggerFromContext(ctx)))
		if err := applyFields(m, &input.Body); err != nil {
			return nil, huma.Error500InternalServerError("internal error")
		}

		var updated *profilesvc.Profile
		err = m.Submit(ctx, func(ctx context.Context, d form.ProfileDraft) error {
			p, err := mp.UpdateProfile(ctx, user.UID, d)
			updated = p
			return err
		})
		if err != nil {
			return nil, problem.From(err)
		}
		return &ProfileUpdateOutput{
			Body: ToHTTPProfile(updated),
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-profile",
		Method:        http.MethodDelete,
		Path:          "/profile",
		Summary:       "Delete current user's profile",
		Description:   "Permanently deletes the authenticated user's profile and avatar. Listings are kept.",
		Tags:          []string{"Profile"},
		DefaultStatus: http.StatusNoContent,
		Security: []map[string][]string{
			{"bearerAuth": {}},
		},
	}, func(ctx context.Context, _ *ProfileDeleteInput) (*struct{}, error) {
		user := auth.UserFromContext(ctx)

		if err := mp.DeleteProfile(ctx, user.UID); err != nil {
			return nil, problem.From(err)
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:  "put-profile-avatar",
		Method:       http.MethodPut,
		Path:         "/profile/avatar",
		Summary:      "Replace profile avatar",
		Description:  "Uploads an image of at most 5 MB as the avatar. The previous avatar is deleted.",
		Tags:         []string{"Profile"},
		MaxBodyBytes: avatarMaxBodyBytes,
		Security: []map[string][]string{
			{"bearerAuth": {}},
		},
	}, func(ctx context.Context, input *AvatarPutInput) (*ProfileUpdateOutput, error) {
		user := auth.UserFromContext(ctx)

		p, err := mp.UploadAvatar(ctx, user.UID, input.Body.Attachment())
		if err != nil {
			return nil, problem.From(err)
		}
		return &ProfileUpdateOutput{Body: ToHTTPProfile(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-profile-avatar",
		Method:      http.MethodDelete,
		Path:        "/profile/avatar",
		Summary:     "Remove profile avatar",
		Description: "Clears the avatar and deletes the stored image.",
		Tags:        []string{"Profile"},
		Security: []map[string][]string{
			{"bearerAuth": {}},
		},
	}, func(ctx context.Context, _ *ProfileDeleteInput) (*ProfileUpdateOutput, error) {
		user := auth.UserFromContext(ctx)

		p, err := mp.RemoveAvatar(ctx, user.UID)
		if err != nil {
			return nil, problem.From(err)
		}
		return &ProfileUpdateOutput{Body: ToHTTPProfile(p)}, nil
	})
}

// applyFields edits the draft field by field the way the form does: role before the
// non-teaching flag, the department before it is cleared, and the matric number formatted.
func applyFields(m *form.Machine[form.ProfileDraft], f *ProfileFields) error {
	var err error
	edit := func(field string, fn func(*form.ProfileDraft)) {
		if err == nil {
			err = m.Edit(field, fn)
		}
	}
	if f.FullName != nil {
		edit("fullName", func(d *form.ProfileDraft) { d.FullName = *f.FullName })
	}
	if f.PhoneNumber != nil {
		edit("phoneNumber", func(d *form.ProfileDraft) { d.PhoneNumber = *f.PhoneNumber })
	}
	if f.Role != nil {
		edit("role", func(d *form.ProfileDraft) { d.SetRole(*f.Role) })
	}
	if f.Department != nil {
		edit("department", func(d *form.ProfileDraft) { d.Department = *f.Department })
	}
	if f.NonTeachingStaff != nil {
		edit("department", func(d *form.ProfileDraft) { d.SetNonTeaching(*f.NonTeachingStaff) })
	}
	if f.Bio != nil {
		edit("bio", func(d *form.ProfileDraft) { d.Bio = *f.Bio })
	}
	if f.Skills != nil {
		edit("skills", func(d *form.ProfileDraft) { d.Skills = slices.Clone(*f.Skills) })
	}
	if f.MatricNumber != nil {
		edit("matricNumber", func(d *form.ProfileDraft) { d.SetMatric(*f.MatricNumber) })
	}
	return err
}

func hasFields(f *ProfileFields) bool {
	return f.FullName != nil ||
		f.PhoneNumber != nil ||
		f.Role != nil ||
		f.Department != nil ||
		f.NonTeachingStaff != nil ||
		f.Bio != nil ||
		f.Skills != nil ||
		f.MatricNumber != nil
}

// ToHTTPProfile converts a stored profile to its response body.
func ToHTTPProfile(p *profilesvc.Profile) Profile {
	skills := p.Skills
	if skills == nil {
		skills = []string{}
	}
	return Profile{
		ID:                p.ID,
		Email:             p.Email,
		FullName:          p.FullName,
		PhoneNumber:       p.PhoneNumber,
		Role:              p.Role,
		RoleDisplay:       p.RoleDisplay(),
		Department:        p.Department,
		DepartmentDisplay: p.DepartmentDisplay(),
		NonTeachingStaff:  p.NonTeachingStaff,
		Bio:               p.Bio,
		BioDisplay:        p.BioDisplay(),
		Skills:            skills,
		MatricNumber:      p.MatricNumber,
		AvatarURL:         p.AvatarURL,
		CreatedAt:         timeutil.Time{Time: p.CreatedAt},
		UpdatedAt:         timeutil.Time{Time: p.UpdatedAt},
	}
}
