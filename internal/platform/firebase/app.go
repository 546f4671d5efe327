// Package firebase initializes the Firebase Admin SDK clients the marketplace uses.
package firebase

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	fbstorage "firebase.google.com/go/v4/storage"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// Config selects the Firebase project.
type Config struct {
	ProjectID string
	// GoogleApplicationCredentials is an optional service account JSON path.
	GoogleApplicationCredentials string
}

// AuthEmulatorEnv names the auth emulator address; the Admin SDK reads it too.
const AuthEmulatorEnv = "FIREBASE_AUTH_EMULATOR_HOST"

// Clients are the initialized backend clients.
type Clients struct {
	Auth      *auth.Client
	Firestore *firestore.Client
	Storage   *fbstorage.Client

	// IdentityToolkit sends the sign-in emails. It is nil against the auth emulator.
	IdentityToolkit *identitytoolkit.Service
}

func clientOptions(cfg Config) ([]option.ClientOption, error) {
	if cfg.GoogleApplicationCredentials == "" {
		return nil, nil
	}
	creds, err := os.ReadFile(cfg.GoogleApplicationCredentials)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	return []option.ClientOption{option.WithCredentialsJSON(creds)}, nil
}

// InitializeClients creates the auth, Firestore and Storage clients for cfg.ProjectID.
// Emulator hosts in the environment are honored by the SDK.
func InitializeClients(ctx context.Context, cfg Config) (*Clients, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("firebase project id is required")
	}
	opts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	c := &Clients{}
	if c.Auth, err = app.Auth(ctx); err != nil {
		return nil, fmt.Errorf("init auth client: %w", err)
	}
	if c.Firestore, err = app.Firestore(ctx); err != nil {
		return nil, fmt.Errorf("init firestore client: %w", err)
	}
	if c.Storage, err = app.Storage(ctx); err != nil {
		_ = c.Firestore.Close()
		return nil, fmt.Errorf("init storage client: %w", err)
	}
	if os.Getenv(AuthEmulatorEnv) == "" {
		if c.IdentityToolkit, err = identitytoolkit.NewService(ctx, opts...); err != nil {
			_ = c.Firestore.Close()
			return nil, fmt.Errorf("init identity toolkit client: %w", err)
		}
	}
	return c, nil
}

// Close releases the Firestore connection. The auth and storage clients hold no
// resources that need closing.
func (c *Clients) Close() error {
	if c == nil || c.Firestore == nil {
		return nil
	}
	return c.Firestore.Close()
}
