package migrations_test

import (
	"strings"
	"testing"

	"github.com/boddenberg/linkbio-api-go/internal/infra/migrations"
)

func TestFiles_AreEmbeddedInOrder(t *testing.T) {
	files, err := migrations.Files()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("expected embedded migrations")
	}
	if files[0] != "00001_init.sql" {
		t.Errorf("expected 00001_init.sql first, got %s", files[0])
	}
	for i := 1; i < len(files); i++ {
		if files[i-1] >= files[i] {
			t.Errorf("migrations out of order: %s before %s", files[i-1], files[i])
		}
		if !strings.HasSuffix(files[i], ".sql") {
			t.Errorf("unexpected file %s", files[i])
		}
	}
}
