package domain

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// AuthProvider records how a profile signs in.
type AuthProvider string

const (
	ProviderPassword AuthProvider = "password"
	ProviderGoogle   AuthProvider = "google"
)

type Category string

const (
	CategoryCasual      Category = "casual"
	CategoryOfficial    Category = "official"
	CategoryTraditional Category = "traditional"
	CategoryParty       Category = "party"
	CategoryNative      Category = "native"
)

// Categories lists the closed category set in display order.
var Categories = []Category{
	CategoryCasual,
	CategoryOfficial,
	CategoryTraditional,
	CategoryParty,
	CategoryNative,
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type StyleSource string

const (
	SourceUpload    StyleSource = "upload"
	SourcePinterest StyleSource = "pinterest"
)

type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	Name         string       `json:"name"`
	PhotoURL     string       `json:"photoURL,omitempty"`
	PasswordHash string       `json:"-"`
	Provider     AuthProvider `json:"provider,omitempty"`
	Role         UserRole     `json:"role"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// IsAdmin reports whether the profile carries the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type Style struct {
	ID                  string      `json:"id"`
	Title               string      `json:"title"`
	Description         string      `json:"description"`
	ImageURL            string      `json:"imageUrl"`
	Category            Category    `json:"category"`
	PriceWithoutFabrics *int64      `json:"priceWithoutFabrics,omitempty"`
	PriceWithFabrics    *int64      `json:"priceWithFabrics,omitempty"`
	DeliveryTime        string      `json:"deliveryTime"`
	Likes               []string    `json:"likes"`
	Tags                []string    `json:"tags"`
	Source              StyleSource `json:"source"`
	CreatedAt           time.Time   `json:"createdAt"`
	UpdatedAt           time.Time   `json:"updatedAt"`
}

// LikedBy reports whether userID is in the liker set.
func (s Style) LikedBy(userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range s.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// LikeCount is the size of the liker set.
func (s Style) LikeCount() int {
	return len(s.Likes)
}

type Feedback struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	UserPhoto string    `json:"userPhoto,omitempty"`
	Comment   string    `json:"comment"`
	Rating    int       `json:"rating"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"createdAt"`
}

type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Analytics is the dashboard aggregate derived from the three collections.
type Analytics struct {
	TotalUsers      int     `json:"totalUsers"`
	TotalStyles     int     `json:"totalStyles"`
	TotalFeedback   int     `json:"totalFeedback"`
	TotalLikes      int     `json:"totalLikes"`
	PendingFeedback int     `json:"pendingFeedback"`
	RecentSignups   []User  `json:"recentSignups"`
	PopularStyles   []Style `json:"popularStyles"`
}
