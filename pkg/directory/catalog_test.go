package directory

import "testing"

func TestParseCatalog(t *testing.T) {
	content := []byte(`
specialties:
  - name: Cardiology
    description: Heart and vascular care
  - name: Dermatology
locations:
  - name: Main Clinic
    description: Ground floor, city campus
`)
	catalog, err := ParseCatalog(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(catalog.Specialties) != 2 {
		t.Fatalf("expected 2 specialties, got %d", len(catalog.Specialties))
	}
	if catalog.Specialties[0].Name != "Cardiology" {
		t.Fatalf("unexpected specialty: %q", catalog.Specialties[0].Name)
	}
	if len(catalog.Locations) != 1 {
		t.Fatalf("expected 1 location, got %d", len(catalog.Locations))
	}
}

func TestParseCatalogRejectsUnnamedEntries(t *testing.T) {
	content := []byte(`
specialties:
  - description: no name given
`)
	if _, err := ParseCatalog(content); err == nil {
		t.Fatal("expected error for unnamed specialty")
	}
}

func TestParseCatalogRejectsMalformedYAML(t *testing.T) {
	if _, err := ParseCatalog([]byte("specialties: [")); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}
