package config

import "testing"

func TestLoadRetrievalLimit(t *testing.T) {
	t.Run("default when unset", func(t *testing.T) {
		t.Setenv("RETRIEVAL_LIMIT", "")
		cfg := Load()
		if cfg.Retrieval.Limit != 5 {
			t.Errorf("Retrieval.Limit = %d, want 5", cfg.Retrieval.Limit)
		}
	})

	t.Run("overridden from environment", func(t *testing.T) {
		t.Setenv("RETRIEVAL_LIMIT", "8")
		cfg := Load()
		if cfg.Retrieval.Limit != 8 {
			t.Errorf("Retrieval.Limit = %d, want 8", cfg.Retrieval.Limit)
		}
	})

	t.Run("garbage falls back to default", func(t *testing.T) {
		t.Setenv("RETRIEVAL_LIMIT", "many")
		cfg := Load()
		if cfg.Retrieval.Limit != 5 {
			t.Errorf("Retrieval.Limit = %d, want 5", cfg.Retrieval.Limit)
		}
	})
}
