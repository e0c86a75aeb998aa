package memory

import (
	"github.com/google/uuid"

	"github.com/Pesokrava/product_directory/internal/domain"
)

// Fixed identities created by SeedDemo so that tokens can be minted for them
var (
	DemoAdminID = uuid.MustParse("00000000-0000-4000-8000-000000000001")
	DemoUserID  = uuid.MustParse("00000000-0000-4000-8000-000000000002")
)

// SeedDemo loads reference data for running the API without PostgreSQL
func SeedDemo(s *Store) {
	admin, user := "Admin", "Demo User"
	s.AddUser(domain.User{ID: DemoAdminID, Name: &admin, Email: "admin@example.com", Role: domain.RoleAdmin})
	s.AddUser(domain.User{ID: DemoUserID, Name: &user, Email: "user@example.com", Role: domain.RoleUser})

	for _, c := range []struct{ name, slug, icon string }{
		{"Writing", "writing", "pen"},
		{"Image Generation", "image-generation", "image"},
		{"Code Assistants", "code-assistants", "code"},
		{"Productivity", "productivity", "bolt"},
	} {
		icon := c.icon
		s.AddCategory(domain.Category{Name: c.name, Slug: c.slug, Icon: &icon})
	}

	for _, t := range []struct{ name, slug, color string }{
		{"Open Source", "open-source", "#10B981"},
		{"API", "api", "#3B82F6"},
		{"Free Tier", "free-tier", "#F59E0B"},
	} {
		color := t.color
		s.AddTag(domain.Tag{Name: t.name, Slug: t.slug, Color: &color})
	}
}
