package catalog

import "testing"

func TestCategories(t *testing.T) {
	if len(Categories) != 13 {
		t.Fatalf("expected 13 categories, got %d", len(Categories))
	}
	if !IsCategory("Textbooks & Course Materials") {
		t.Error("expected textbooks to be a category")
	}
	if IsCategory(AllCategories) {
		t.Error("wildcard must not be a listing category")
	}
	if IsCategory("textbooks & course materials") {
		t.Error("categories are matched exactly")
	}
}

func TestIsWildcard(t *testing.T) {
	for _, c := range []string{"", AllCategories} {
		if !IsWildcard(c) {
			t.Errorf("expected %q to be a wildcard", c)
		}
	}
	if IsWildcard("Electronics") {
		t.Error("Electronics is not a wildcard")
	}
}

func TestIsRole(t *testing.T) {
	if !IsRole(RoleStudent) || !IsRole(RoleStaff) {
		t.Fatal("expected known roles")
	}
	if IsRole("student") {
		t.Fatal("roles are upper case")
	}
}
