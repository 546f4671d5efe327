package auth

import (
	"context"
	"fmt"

	fbauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/identitytoolkit/v3"

	applog "github.com/janisto/campus-market/internal/platform/logging"
)

const emailSignInRequest = "EMAIL_SIGNIN"

// OOBSender has Firebase Auth email the sign-in link using the project's email template.
type OOBSender struct {
	svc *identitytoolkit.Service
}

// NewOOBSender sends through svc.
func NewOOBSender(svc *identitytoolkit.Service) *OOBSender {
	return &OOBSender{svc: svc}
}

func (s *OOBSender) SendSignInLink(ctx context.Context, email string, settings *fbauth.ActionCodeSettings) error {
	_, err := s.svc.Relyingparty.GetOobConfirmationCode(&identitytoolkit.Relyingparty{
		RequestType:        emailSignInRequest,
		Email:              email,
		ContinueUrl:        settings.URL,
		CanHandleCodeInApp: settings.HandleCodeInApp,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("send oob code: %w", err)
	}
	return nil
}

// LinkGenerator creates sign-in links without sending them.
type LinkGenerator interface {
	EmailSignInLink(ctx context.Context, email string, settings *fbauth.ActionCodeSettings) (string, error)
}

// EmulatorSender generates links against the auth emulator, which keeps every issued code
// readable at /emulator/v1/projects/<project>/oobCodes. Nothing is emailed.
type EmulatorSender struct {
	Links LinkGenerator
}

func (s EmulatorSender) SendSignInLink(ctx context.Context, email string, settings *fbauth.ActionCodeSettings) error {
	if _, err := s.Links.EmailSignInLink(ctx, email, settings); err != nil {
		return fmt.Errorf("generate sign-in link: %w", err)
	}
	applog.LogInfo(ctx, "sign-in link generated in the auth emulator", zap.String("email", email))
	return nil
}

var (
	_ LinkSender = (*OOBSender)(nil)
	_ LinkSender = EmulatorSender{}
)
