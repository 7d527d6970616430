package tracing

import "testing"

func TestFromEnv(t *testing.T) {
	t.Setenv("LANGFUSE_HOST", "")
	t.Setenv("LANGFUSE_PUBLIC_KEY", "pk-lf")
	t.Setenv("LANGFUSE_SECRET_KEY", "")

	cfg := FromEnv()
	if cfg.Host != DefaultHost {
		t.Errorf("Host = %q, want %q", cfg.Host, DefaultHost)
	}
	if cfg.Enabled() {
		t.Error("expected disabled without a secret key")
	}

	t.Setenv("LANGFUSE_SECRET_KEY", "sk-lf")
	t.Setenv("LANGFUSE_HOST", "https://cloud.langfuse.com")
	cfg = FromEnv()
	if !cfg.Enabled() {
		t.Error("expected enabled with both keys")
	}
	if cfg.Host != "https://cloud.langfuse.com" {
		t.Errorf("Host = %q", cfg.Host)
	}
}

func TestSetup_Disabled(t *testing.T) {
	t.Parallel()

	handler, flush, ok := Setup(Config{PublicKey: "pk-lf"})
	if ok || handler != nil {
		t.Fatalf("expected disabled setup, got ok=%v handler=%v", ok, handler)
	}
	if flush == nil {
		t.Fatal("expected a no-op flush func")
	}
	flush()
}
