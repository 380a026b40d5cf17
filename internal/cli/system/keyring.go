package system

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/julianstephens/remindr/internal/cli"
	apperrors "github.com/julianstephens/remindr/internal/errors"
	"github.com/julianstephens/remindr/internal/keyring"
	"github.com/julianstephens/remindr/internal/storage"
)

// KeyringSetCmd stores a backend credential in the OS keyring
type KeyringSetCmd struct {
	Value   string `arg:"" help:"PostgreSQL connection string, or the redis password."`
	Backend string `help:"Backend the credential is for (postgres, redis)." default:"postgres" enum:"postgres,redis"`
}

func (cmd *KeyringSetCmd) Run(ctx *cli.Context) error {
	secret, err := keyring.SecretFor(cmd.Backend)
	if err != nil {
		return err
	}

	if secret == keyring.PostgresConnection {
		if !storage.IsPostgresDSN(cmd.Value) && !strings.Contains(cmd.Value, "host=") {
			return errors.New("connection string must be a valid PostgreSQL connection string")
		}
		if storage.HasEmbeddedCredentials(cmd.Value) {
			fmt.Fprintln(ctx.Out, "⚠️  Warning: Connection string contains embedded credentials.")
			fmt.Fprintln(ctx.Out, "   It will be stored as-is in the encrypted OS keyring.")
		}
	}

	if err := keyring.Set(secret, cmd.Value); err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out, "✓ %s stored in OS keyring\n", secret.Label())
	fmt.Fprintf(ctx.Out, "  Set storage.backend: %s to use it\n", backendName(cmd.Backend))
	return nil
}

// KeyringGetCmd prints a stored credential with its password masked
type KeyringGetCmd struct {
	Backend string `help:"Backend the credential is for (postgres, redis)." default:"postgres" enum:"postgres,redis"`
}

func (cmd *KeyringGetCmd) Run(ctx *cli.Context) error {
	secret, err := keyring.SecretFor(cmd.Backend)
	if err != nil {
		return err
	}

	v, err := keyring.Get(secret)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return apperrors.WithHint(fmt.Errorf("no %s found in keyring", secret.Label()),
				fmt.Sprintf("store one with 'remindr keyring set --backend %s'", backendName(cmd.Backend)))
		}
		return fmt.Errorf("failed to retrieve %s from keyring: %w", secret.Label(), err)
	}

	fmt.Fprintf(ctx.Out, "%s retrieved from keyring:\n", secret.Label())
	if secret == keyring.RedisPassword {
		fmt.Fprintln(ctx.Out, "xxxxx")
		return nil
	}
	fmt.Fprintln(ctx.Out, maskPassword(v))
	return nil
}

// KeyringDeleteCmd removes a credential from the OS keyring
type KeyringDeleteCmd struct {
	Backend string `help:"Backend the credential is for (postgres, redis)." default:"postgres" enum:"postgres,redis"`
}

func (cmd *KeyringDeleteCmd) Run(ctx *cli.Context) error {
	secret, err := keyring.SecretFor(cmd.Backend)
	if err != nil {
		return err
	}

	if err := keyring.Delete(secret); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s found in keyring", secret.Label())
		}
		return err
	}

	fmt.Fprintf(ctx.Out, "✓ %s deleted from OS keyring\n", secret.Label())
	return nil
}

// KeyringStatusCmd checks the availability of the OS keyring
type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *cli.Context) error {
	stored, err := keyring.Stored()
	if err != nil {
		fmt.Fprintln(ctx.Out, "❌ OS keyring is not available on this system")
		return fmt.Errorf("keyring unavailable: %w", err)
	}

	fmt.Fprintln(ctx.Out, "✓ OS keyring is available")
	for _, s := range keyring.Secrets {
		if stored[s] {
			fmt.Fprintf(ctx.Out, "✓ %s is stored\n", s.Label())
		} else {
			fmt.Fprintf(ctx.Out, "ℹ No %s stored\n", s.Label())
		}
	}
	return nil
}

func backendName(b string) string {
	if b == "" {
		return "postgres"
	}
	return strings.ToLower(b)
}

// maskPassword masks passwords in connection strings for display
func maskPassword(connStr string) string {
	if storage.IsPostgresDSN(connStr) {
		u, err := url.Parse(connStr)
		if err != nil {
			return "xxxxx"
		}
		if q := u.Query(); q.Get("password") != "" {
			q.Set("password", "xxxxx")
			u.RawQuery = q.Encode()
		}
		return u.Redacted()
	}

	parts := strings.Fields(connStr)
	for i, part := range parts {
		if k, _, ok := strings.Cut(part, "="); ok && strings.EqualFold(k, "password") {
			parts[i] = k + "=xxxxx"
		}
	}
	return strings.Join(parts, " ")
}
