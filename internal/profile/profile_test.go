package profile

import (
	"testing"

	"github.com/spf13/viper"

	"github.com/lvcoi/xgrab/internal/config"
	"github.com/lvcoi/xgrab/internal/fsx"
)

func TestResolvePrefersFlag(t *testing.T) {
	viper.Set(config.ProfileDir, "/configured/profile")
	t.Cleanup(viper.Reset)

	if got := Resolve("/flag/profile"); got != "/flag/profile" {
		t.Fatalf("Resolve = %q", got)
	}
	if got := Resolve(""); got != "/configured/profile" {
		t.Fatalf("Resolve fallback = %q", got)
	}
}

func TestExistsAndEnsure(t *testing.T) {
	fsx.SetMemMapFs()
	defer fsx.SetOsFs()

	if Exists("profiles/main") {
		t.Fatal("Exists must be false before Ensure")
	}
	if err := Ensure("profiles/main"); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if !Exists("profiles/main") {
		t.Fatal("Exists must be true after Ensure")
	}
}

func TestExistsRejectsFiles(t *testing.T) {
	fsx.SetMemMapFs()
	defer fsx.SetOsFs()

	if err := fsx.API().WriteFile("profile", []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if Exists("profile") {
		t.Fatal("a plain file is not a profile directory")
	}
}

func TestEnsureRejectsEmpty(t *testing.T) {
	if err := Ensure(""); err == nil {
		t.Fatal("expected error for empty directory")
	}
}
