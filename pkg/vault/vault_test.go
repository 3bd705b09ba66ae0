package vault

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestVault(t *testing.T, dir string) *Vault {
	t.Helper()
	ks := MemoryKeystore{"ai-shell-vault": []byte("root-secret-for-tests")}
	persister := NewFilePersister(filepath.Join(dir, "vault.gob"))
	v, err := Open(ks, "ai-shell-vault", 4096, persister, testLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return v
}

func TestOpen_FailsClosedWithoutKeystoreEntry(t *testing.T) {
	dir := t.TempDir()
	ks := MemoryKeystore{}
	persister := NewFilePersister(filepath.Join(dir, "vault.gob"))

	_, err := Open(ks, "ai-shell-vault", 4096, persister, testLogger())
	if err == nil {
		t.Fatal("expected Open to fail closed when keystore entry is absent, got nil error")
	}
}

func TestStore_DuplicateNameRejected(t *testing.T) {
	dir := t.TempDir()
	v := openTestVault(t, dir)

	if err := v.Store("prod-db", "s3cr3t", TypeStandard, nil); err != nil {
		t.Fatalf("first Store() error = %v", err)
	}
	if err := v.Store("prod-db", "other", TypeStandard, nil); err == nil {
		t.Fatal("expected duplicate name to be rejected")
	}
}

func TestRetrieve_PlaintextRoundTrip(t *testing.T) {
	dir := t.TempDir()
	v := openTestVault(t, dir)

	if err := v.Store("prod-db", "hunter2", TypeStandard, nil); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	got, err := v.Retrieve("prod-db", false)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if got != "hunter2" {
		t.Errorf("Retrieve() = %q, want %q", got, "hunter2")
	}
}

func TestRetrieve_AnonymiseAndResolveToken(t *testing.T) {
	dir := t.TempDir()
	v := openTestVault(t, dir)

	if err := v.Store("prod-db", "hunter2", TypeStandard, nil); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	token, err := v.Retrieve("prod-db", true)
	if err != nil {
		t.Fatalf("Retrieve(anonymise) error = %v", err)
	}
	if token == "hunter2" {
		t.Fatal("anonymised retrieve must not return plaintext")
	}

	resolved, ok := v.ResolveToken(token)
	if !ok {
		t.Fatal("ResolveToken() = false, want true")
	}
	if resolved != "hunter2" {
		t.Errorf("ResolveToken() = %q, want %q", resolved, "hunter2")
	}

	if _, ok := v.ResolveToken("vault_tok_deadbeefdeadbeef"); ok {
		t.Error("ResolveToken() of an unknown token should return false")
	}
}

func TestDelete_IdempotentOnMissingName(t *testing.T) {
	dir := t.TempDir()
	v := openTestVault(t, dir)

	if err := v.Delete("nope"); err == nil {
		t.Fatal("expected NotFound deleting a missing credential")
	}

	if err := v.Store("prod-db", "hunter2", TypeStandard, nil); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if err := v.Delete("prod-db"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := v.Delete("prod-db"); err == nil {
		t.Fatal("expected second Delete() of the same name to fail with NotFound")
	}
	if len(v.Names()) != 0 {
		t.Errorf("Names() = %v, want empty after delete", v.Names())
	}
}

func TestRotate_PreservesID(t *testing.T) {
	dir := t.TempDir()
	v := openTestVault(t, dir)

	if err := v.Store("prod-db", "hunter2", TypeStandard, nil); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	before := v.creds["prod-db"].ID

	if err := v.Rotate("prod-db"); err != nil {
		t.Fatalf("Rotate() error = %v", err)
	}
	after := v.creds["prod-db"].ID

	if before != after {
		t.Errorf("Rotate() changed ID: before %v, after %v", before, after)
	}

	got, err := v.Retrieve("prod-db", false)
	if err != nil {
		t.Fatalf("Retrieve() after rotate error = %v", err)
	}
	if got != "hunter2" {
		t.Errorf("Retrieve() after rotate = %q, want %q", got, "hunter2")
	}
}

func TestAutoRedact_WholeTokenOnly(t *testing.T) {
	dir := t.TempDir()
	v := openTestVault(t, dir)

	if err := v.Store("db-pass", "password", TypeStandard, nil); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"whole token redacted", "connect with password now", "connect with ***db-pass*** now"},
		{"substring not redacted", "the password123 field is set", "the password123 field is set"},
		{"punctuation-adjacent token redacted", "pass=password;", "pass=***db-pass***;"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := v.AutoRedact(tc.input)
			if got != tc.want {
				t.Errorf("AutoRedact(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestAutoRedact_QuarantinedCredentialNotInTable(t *testing.T) {
	dir := t.TempDir()
	v := openTestVault(t, dir)

	if err := v.Store("db-pass", "password", TypeStandard, nil); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	v.quarantine("db-pass")

	got := v.AutoRedact("connect with password now")
	want := "connect with password now"
	if got != want {
		t.Errorf("AutoRedact() after quarantine = %q, want %q (unredacted)", got, want)
	}
}

func TestStore_UserDefinedSchemaViolation(t *testing.T) {
	dir := t.TempDir()
	v := openTestVault(t, dir)

	schema := &Schema{Fields: []SchemaField{{Key: "api_key", Tag: "required"}}}

	if err := v.Store("third-party", `{"other":"x"}`, TypeUserDefined, schema); err == nil {
		t.Fatal("expected schema violation for missing required field")
	}
	if err := v.Store("third-party", `{"api_key":"abc123"}`, TypeUserDefined, schema); err != nil {
		t.Fatalf("Store() with satisfying value error = %v", err)
	}
}

func TestVault_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	v := openTestVault(t, dir)

	if err := v.Store("prod-db", "hunter2", TypeStandard, nil); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	reopened := openTestVault(t, dir)
	got, err := reopened.Retrieve("prod-db", false)
	if err != nil {
		t.Fatalf("Retrieve() after reopen error = %v", err)
	}
	if got != "hunter2" {
		t.Errorf("Retrieve() after reopen = %q, want %q", got, "hunter2")
	}
}
