package keyring

import (
	"errors"
	"testing"

	gokeyring "github.com/zalando/go-keyring"
)

func TestSetAndGet(t *testing.T) {
	gokeyring.MockInit()

	tests := []struct {
		secret Secret
		value  string
	}{
		{PostgresConnection, "postgres://remindr@localhost:5432/remindr?sslmode=disable"},
		{RedisPassword, "hunter2"},
	}

	for _, tt := range tests {
		t.Run(string(tt.secret), func(t *testing.T) {
			if err := Set(tt.secret, tt.value); err != nil {
				t.Fatalf("Set() failed: %v", err)
			}
			got, err := Get(tt.secret)
			if err != nil {
				t.Fatalf("Get() failed: %v", err)
			}
			if got != tt.value {
				t.Errorf("Get() = %q, want %q", got, tt.value)
			}
		})
	}
}

func TestSetEmpty(t *testing.T) {
	gokeyring.MockInit()

	if err := Set(RedisPassword, ""); err == nil {
		t.Error("Set with an empty value should fail")
	}
}

func TestDelete(t *testing.T) {
	gokeyring.MockInit()

	if err := Set(PostgresConnection, "postgres://remindr@localhost/remindr"); err != nil {
		t.Fatal(err)
	}
	if err := Delete(PostgresConnection); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := Get(PostgresConnection); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := Delete(PostgresConnection); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestStored(t *testing.T) {
	gokeyring.MockInit()

	if err := Set(RedisPassword, "hunter2"); err != nil {
		t.Fatal(err)
	}
	stored, err := Stored()
	if err != nil {
		t.Fatalf("Stored() failed: %v", err)
	}
	if !stored[RedisPassword] || stored[PostgresConnection] {
		t.Errorf("Stored() = %v", stored)
	}
}

func TestUnavailable(t *testing.T) {
	gokeyring.MockInitWithError(errors.New("no dbus session"))
	defer gokeyring.MockInit()

	if _, err := Get(PostgresConnection); !errors.Is(err, ErrKeyringUnavailable) {
		t.Errorf("Get() error = %v, want ErrKeyringUnavailable", err)
	}
	if _, err := Stored(); !errors.Is(err, ErrKeyringUnavailable) {
		t.Errorf("Stored() error = %v, want ErrKeyringUnavailable", err)
	}
}

func TestSecretFor(t *testing.T) {
	tests := []struct {
		backend string
		want    Secret
		wantErr bool
	}{
		{"", PostgresConnection, false},
		{"postgres", PostgresConnection, false},
		{"Redis", RedisPassword, false},
		{"sqlite", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			got, err := SecretFor(tt.backend)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SecretFor(%q) error = %v", tt.backend, err)
			}
			if got != tt.want {
				t.Errorf("SecretFor(%q) = %q, want %q", tt.backend, got, tt.want)
			}
		})
	}
}
