package domain

import "testing"

func TestNormalizeStyleDefaults(t *testing.T) {
	s := NormalizeStyle(Style{ID: "s-1", Likes: []string{"", "u-1", " "}})
	if s.Title != DefaultStyleTitle {
		t.Fatalf("title = %q", s.Title)
	}
	if s.Description != DefaultStyleDescription {
		t.Fatalf("description = %q", s.Description)
	}
	if s.ImageURL != PlaceholderImageURL {
		t.Fatalf("imageUrl = %q", s.ImageURL)
	}
	if s.Category != CategoryCasual {
		t.Fatalf("category = %q", s.Category)
	}
	if s.DeliveryTime != DefaultDeliveryTime {
		t.Fatalf("deliveryTime = %q", s.DeliveryTime)
	}
	if s.Source != SourceUpload {
		t.Fatalf("source = %q", s.Source)
	}
	if len(s.Likes) != 1 || s.Likes[0] != "u-1" {
		t.Fatalf("likes = %v", s.Likes)
	}
	if s.Tags == nil {
		t.Fatalf("tags should be empty, not nil")
	}
}

func TestNormalizeStyleKeepsValues(t *testing.T) {
	in := Style{
		Title:        "Agbada",
		Description:  "Three piece",
		ImageURL:     "https://img.example.com/a.jpg",
		Category:     CategoryNative,
		DeliveryTime: "3 days",
		Source:       SourcePinterest,
		Tags:         []string{"men"},
	}
	out := NormalizeStyle(in)
	if out.Title != in.Title || out.Category != in.Category || out.DeliveryTime != in.DeliveryTime || out.Source != in.Source {
		t.Fatalf("unexpected rewrite: %+v", out)
	}
}

func TestParseTags(t *testing.T) {
	got := ParseTags(" ankara, ,lace,  men ")
	want := []string{"ankara", "lace", "men"}
	if len(got) != len(want) {
		t.Fatalf("tags = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tags = %v, want %v", got, want)
		}
	}
	if len(ParseTags("")) != 0 {
		t.Fatalf("expected no tags for empty input")
	}
}

func TestProfileName(t *testing.T) {
	tests := []struct {
		display, email, want string
	}{
		{"Ada Obi", "ada@example.com", "Ada Obi"},
		{"", "ada@example.com", "ada"},
		{"  ", "", "User"},
		{"", "@example.com", "User"},
	}
	for _, tc := range tests {
		if got := ProfileName(tc.display, tc.email); got != tc.want {
			t.Fatalf("ProfileName(%q, %q) = %q, want %q", tc.display, tc.email, got, tc.want)
		}
	}
}

func TestParseCategory(t *testing.T) {
	if c, ok := ParseCategory(" Native "); !ok || c != CategoryNative {
		t.Fatalf("expected native, got %q %v", c, ok)
	}
	if _, ok := ParseCategory("bridal"); ok {
		t.Fatalf("bridal is not a category")
	}
}
