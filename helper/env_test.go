package helper

import (
	"os"
	"testing"
)

func TestEnvVarNames(t *testing.T) {
	// Test 1 - DSN names are upper cased and prefixed.
	if got := GetDsnEnvVarName(" snowflake "); got != "EMPETL_SNOWFLAKE_DSN" {
		t.Fatalf("unexpected DSN env var name %q", got)
	}
	// Test 2 - region names.
	if got := GetRegionEnvVarName("s3"); got != "EMPETL_S3_REGION" {
		t.Fatalf("unexpected region env var name %q", got)
	}
	// Test 3 - flag names convert dashes.
	if got := GetFlagEnvVarName("finance-key"); got != "EMPETL_FINANCE_KEY" {
		t.Fatalf("unexpected flag env var name %q", got)
	}
}

func TestReadValueFromEnvWithDefault(t *testing.T) {
	k := "EMPETL_TEST_READ_VALUE"
	_ = os.Unsetenv(k)
	// Test 1 - default applies when unset.
	if v := ReadValueFromEnvWithDefault(k, "dflt"); v != "dflt" {
		t.Fatalf("expected default value; got %q", v)
	}
	// Test 2 - env var wins when set.
	_ = os.Setenv(k, "set")
	defer func() { _ = os.Unsetenv(k) }()
	if v := ReadValueFromEnvWithDefault(k, "dflt"); v != "set" {
		t.Fatalf("expected env value; got %q", v)
	}
	// Test 3 - mandatory lookups succeed.
	if _, err := GetEnvVar(k, true); err != nil {
		t.Fatal(err)
	}
	if _, err := GetEnvVar(k+"_MISSING", true); err == nil {
		t.Fatal("expected error for missing mandatory env var")
	}
}
