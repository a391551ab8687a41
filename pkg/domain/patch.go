package domain

// StylePatch carries an arbitrary subset of editable style fields.
// Nil fields are left untouched.
type StylePatch struct {
	Title               *string   `json:"title,omitempty" validate:"omitempty,max=120"`
	Description         *string   `json:"description,omitempty" validate:"omitempty,max=2000"`
	ImageURL            *string   `json:"imageUrl,omitempty" validate:"omitempty,url"`
	Category            *Category `json:"category,omitempty" validate:"omitempty,category"`
	PriceWithoutFabrics *int64    `json:"priceWithoutFabrics,omitempty" validate:"omitempty,gte=0"`
	PriceWithFabrics    *int64    `json:"priceWithFabrics,omitempty" validate:"omitempty,gte=0"`
	DeliveryTime        *string   `json:"deliveryTime,omitempty" validate:"omitempty,max=60"`
	Tags                *[]string `json:"tags,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p StylePatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.ImageURL == nil && p.Category == nil &&
		p.PriceWithoutFabrics == nil && p.PriceWithFabrics == nil && p.DeliveryTime == nil && p.Tags == nil
}

// Apply returns s with the patch fields written over it.
func (p StylePatch) Apply(s Style) Style {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.ImageURL != nil {
		s.ImageURL = *p.ImageURL
	}
	if p.Category != nil {
		s.Category = *p.Category
	}
	if p.PriceWithoutFabrics != nil {
		v := *p.PriceWithoutFabrics
		s.PriceWithoutFabrics = &v
	}
	if p.PriceWithFabrics != nil {
		v := *p.PriceWithFabrics
		s.PriceWithFabrics = &v
	}
	if p.DeliveryTime != nil {
		s.DeliveryTime = *p.DeliveryTime
	}
	if p.Tags != nil {
		s.Tags = append([]string(nil), (*p.Tags)...)
	}
	return s
}
