package domain

import "strings"

const (
	DefaultStyleTitle       = "Untitled Style"
	DefaultStyleDescription = "No description available"
	DefaultDeliveryTime     = "7-14 days"
	PlaceholderImageURL     = "https://via.placeholder.com/600x800?text=Style+Image"
)

// NormalizeStyle fills missing optional fields so callers never observe
// empty values where the catalog expects something to render.
func NormalizeStyle(s Style) Style {
	if strings.TrimSpace(s.Title) == "" {
		s.Title = DefaultStyleTitle
	}
	if strings.TrimSpace(s.Description) == "" {
		s.Description = DefaultStyleDescription
	}
	if strings.TrimSpace(s.ImageURL) == "" {
		s.ImageURL = PlaceholderImageURL
	}
	if !s.Category.Valid() {
		s.Category = CategoryCasual
	}
	if strings.TrimSpace(s.DeliveryTime) == "" {
		s.DeliveryTime = DefaultDeliveryTime
	}
	if s.Source == "" {
		s.Source = SourceUpload
	}
	likes := make([]string, 0, len(s.Likes))
	for _, id := range s.Likes {
		if strings.TrimSpace(id) != "" {
			likes = append(likes, id)
		}
	}
	s.Likes = likes
	if s.Tags == nil {
		s.Tags = []string{}
	}
	return s
}

// UploadedStyles keeps the styles added through the upload form. Imported
// styles stay in the catalog but are not managed from the dashboard.
func UploadedStyles(styles []Style) []Style {
	out := make([]Style, 0, len(styles))
	for _, s := range styles {
		if s.Source == SourceUpload || s.Source == "" {
			out = append(out, s)
		}
	}
	return out
}

// ParseTags splits a comma separated tag list, dropping blanks.
func ParseTags(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

// ParseCategory maps user input onto the closed category set.
func ParseCategory(raw string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	return c, c.Valid()
}

// ParseUserRole maps user input onto a known role.
func ParseUserRole(raw string) (UserRole, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(RoleUser):
		return RoleUser, true
	case string(RoleAdmin):
		return RoleAdmin, true
	default:
		return "", false
	}
}

// ProfileName picks the display name for a new profile: the provider's
// display name, then the email local part, then "User".
func ProfileName(displayName, email string) string {
	if name := strings.TrimSpace(displayName); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(strings.TrimSpace(email), "@"); ok && local != "" {
		return local
	}
	return "User"
}
