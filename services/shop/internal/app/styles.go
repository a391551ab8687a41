package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"omifemcuts/internal/carousel"
	"omifemcuts/internal/catalog"
	"omifemcuts/internal/contact"
	"omifemcuts/internal/util"
	"omifemcuts/pkg/domain"
	"omifemcuts/pkg/events"
	"omifemcuts/pkg/storage"
	"omifemcuts/pkg/store"
)

const (
	maxListLimit   = 60
	relatedBatch   = 6
	relatedResults = 3
	relatedMinimum = 3
)

// ListQuery is the catalog listing request. An empty Category means all.
type ListQuery struct {
	Category string
	Query    string
	Sort     string
	Cursor   string
	Offset   int
	Limit    int
}

// StyleList is one listing page. NextCursor is set only on unfiltered
// newest-first listings that have more items.
type StyleList struct {
	Items      []domain.Style `json:"items"`
	Count      int            `json:"count"`
	NextCursor string         `json:"nextCursor,omitempty"`
	HasMore    bool           `json:"hasMore"`
}

// LikeResult is the authoritative like state after a toggle.
type LikeResult struct {
	StyleID string `json:"styleId"`
	Liked   bool   `json:"liked"`
	Likes   int    `json:"likes"`
}

// StyleForm is the admin upload form. Tags is a comma separated list.
type StyleForm struct {
	Title               string `json:"title" validate:"required,max=120"`
	Description         string `json:"description" validate:"max=2000"`
	Category            string `json:"category" validate:"required,category"`
	PriceWithoutFabrics *int64 `json:"priceWithoutFabrics" validate:"omitempty,gte=0"`
	PriceWithFabrics    *int64 `json:"priceWithFabrics" validate:"omitempty,gte=0"`
	DeliveryTime        string `json:"deliveryTime" validate:"max=60"`
	Tags                string `json:"tags" validate:"max=500"`
	// ImageURL links an externally hosted image (e.g. a Pinterest pin) instead of an upload.
	ImageURL string `json:"imageUrl" validate:"omitempty,url,max=2048"`
}

// ImageUpload is an image file attached to a style form.
type ImageUpload struct {
	Filename    string
	Size        int64
	ContentType string
	Body        io.Reader
}

// Home is the landing page payload.
type Home struct {
	Styles   []domain.Style    `json:"styles"`
	Feedback []domain.Feedback `json:"feedback"`
}

// ListStyles returns one page of the catalog. Unfiltered newest-first
// listings page through the store by cursor; anything else is filtered and
// ordered in memory and windowed by offset.
func (a *App) ListStyles(ctx context.Context, q ListQuery) (StyleList, error) {
	filter, ok := catalog.ParseFilter(q.Category, q.Query)
	if !ok {
		return StyleList{}, fmt.Errorf("%w: unknown category %q", ErrInvalidQuery, q.Category)
	}
	by, ok := catalog.ParseSort(q.Sort)
	if !ok {
		return StyleList{}, fmt.Errorf("%w: unknown sort %q", ErrInvalidQuery, q.Sort)
	}
	if q.Offset < 0 {
		return StyleList{}, fmt.Errorf("%w: negative offset", ErrInvalidQuery)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = catalog.PageSize
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	if !filter.Active() && by == catalog.SortNewest && q.Offset == 0 {
		return a.listStylesPage(ctx, q.Cursor, limit)
	}

	all, err := a.store.ListStyles(ctx)
	if err != nil {
		return StyleList{}, fmt.Errorf("list styles: %w", err)
	}
	normalized := normalizeStyles(all)
	items, hasMore := catalog.Slice(catalog.Apply(normalized, filter, by), q.Offset, limit)
	return StyleList{Items: items, Count: len(items), HasMore: hasMore}, nil
}

func (a *App) listStylesPage(ctx context.Context, cursor string, limit int) (StyleList, error) {
	after, err := store.DecodeCursor(cursor)
	if err != nil {
		return StyleList{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	page, err := a.store.ListStylesPage(ctx, after, limit+1)
	if err != nil {
		return StyleList{}, fmt.Errorf("list styles: %w", err)
	}
	hasMore := len(page) > limit
	if hasMore {
		page = page[:limit]
	}
	out := StyleList{Items: normalizeStyles(page), HasMore: hasMore}
	out.Count = len(out.Items)
	if hasMore {
		out.NextCursor = store.CursorFor(page[len(page)-1]).Encode()
	}
	return out, nil
}

// GetStyle returns a style with display defaults filled in.
func (a *App) GetStyle(ctx context.Context, id string) (domain.Style, error) {
	s, ok, err := a.store.GetStyle(ctx, id)
	if err != nil {
		return domain.Style{}, fmt.Errorf("get style: %w", err)
	}
	if !ok {
		return domain.Style{}, ErrStyleNotFound
	}
	return domain.NormalizeStyle(s), nil
}

// ToggleLike adds the user to the style's likers, or removes them if they
// already like it. The result reflects the stored record after the write.
func (a *App) ToggleLike(ctx context.Context, user domain.User, styleID string) (LikeResult, error) {
	if strings.TrimSpace(user.ID) == "" {
		return LikeResult{}, ErrUnauthenticated
	}
	current, ok, err := a.store.GetStyle(ctx, styleID)
	if err != nil {
		return LikeResult{}, fmt.Errorf("get style: %w", err)
	}
	if !ok {
		return LikeResult{}, ErrStyleNotFound
	}
	var updated domain.Style
	if current.LikedBy(user.ID) {
		updated, ok, err = a.store.RemoveLike(ctx, styleID, user.ID)
	} else {
		updated, ok, err = a.store.AddLike(ctx, styleID, user.ID)
	}
	if err != nil {
		return LikeResult{}, fmt.Errorf("toggle like: %w", err)
	}
	if !ok {
		return LikeResult{}, ErrStyleNotFound
	}
	res := LikeResult{StyleID: styleID, Liked: updated.LikedBy(user.ID), Likes: updated.LikeCount()}
	if res.Liked {
		a.emit(ctx, events.StyleLiked, styleID, map[string]string{"userId": user.ID})
	}
	return res, nil
}

// RelatedStyles suggests up to three other styles, preferring the same
// category and filling from the whole catalog, most liked first.
func (a *App) RelatedStyles(ctx context.Context, styleID string) ([]domain.Style, error) {
	current, ok, err := a.store.GetStyle(ctx, styleID)
	if err != nil {
		return nil, fmt.Errorf("get style: %w", err)
	}
	if !ok {
		return nil, ErrStyleNotFound
	}
	sameCategory, err := a.store.ListStylesByCategory(ctx, domain.NormalizeStyle(current).Category, relatedBatch)
	if err != nil {
		return nil, fmt.Errorf("list related styles: %w", err)
	}
	seen := map[string]struct{}{current.ID: {}}
	related := make([]domain.Style, 0, relatedBatch*2)
	add := func(styles []domain.Style) {
		for _, s := range styles {
			if _, dup := seen[s.ID]; dup {
				continue
			}
			seen[s.ID] = struct{}{}
			related = append(related, domain.NormalizeStyle(s))
		}
	}
	add(sameCategory)
	if len(related) < relatedMinimum {
		general, err := a.store.ListStylesPage(ctx, nil, relatedBatch)
		if err != nil {
			return nil, fmt.Errorf("list styles: %w", err)
		}
		add(general)
	}
	sort.SliceStable(related, func(i, j int) bool {
		return related[i].LikeCount() > related[j].LikeCount()
	})
	if len(related) > relatedResults {
		related = related[:relatedResults]
	}
	return related, nil
}

// OrderLink builds the WhatsApp order link for a style in the given price mode.
func (a *App) OrderLink(ctx context.Context, styleID string, mode contact.PriceMode, styleURL string) (string, error) {
	s, err := a.GetStyle(ctx, styleID)
	if err != nil {
		return "", err
	}
	return contact.OrderLink(s, styleURL, mode), nil
}

// CreateStyle validates the form, hosts the image and stores the new style.
func (a *App) CreateStyle(ctx context.Context, admin domain.User, form StyleForm, image *ImageUpload) (domain.Style, error) {
	if !admin.IsAdmin() {
		return domain.Style{}, ErrForbidden
	}
	form.Title = strings.TrimSpace(form.Title)
	form.Description = strings.TrimSpace(form.Description)
	form.Category = strings.ToLower(strings.TrimSpace(form.Category))
	form.DeliveryTime = strings.TrimSpace(form.DeliveryTime)
	form.ImageURL = strings.TrimSpace(form.ImageURL)
	if err := check(form); err != nil {
		return domain.Style{}, err
	}

	source := domain.SourceUpload
	imageURL := form.ImageURL
	switch {
	case image != nil:
		hosted, err := a.hostImage(ctx, *image)
		if err != nil {
			return domain.Style{}, err
		}
		imageURL = hosted
	case imageURL != "":
		source = domain.SourcePinterest
	default:
		return domain.Style{}, ErrImageRequired
	}

	now := a.now()
	s := domain.NormalizeStyle(domain.Style{
		ID:                  util.NewID(),
		Title:               form.Title,
		Description:         form.Description,
		ImageURL:            imageURL,
		Category:            domain.Category(form.Category),
		PriceWithoutFabrics: form.PriceWithoutFabrics,
		PriceWithFabrics:    form.PriceWithFabrics,
		DeliveryTime:        form.DeliveryTime,
		Tags:                domain.ParseTags(form.Tags),
		Source:              source,
		CreatedAt:           now,
		UpdatedAt:           now,
	})
	if err := a.store.SaveStyle(ctx, s); err != nil {
		return domain.Style{}, fmt.Errorf("save style: %w", err)
	}
	a.emit(ctx, events.StyleCreated, s.ID, map[string]string{
		"title":    s.Title,
		"category": string(s.Category),
		"by":       admin.ID,
	})
	return s, nil
}

func (a *App) hostImage(ctx context.Context, image ImageUpload) (string, error) {
	if image.Body == nil {
		return "", ErrImageRequired
	}
	if image.Size > a.maxUpload {
		return "", ErrImageTooLarge
	}
	// Generic declarations are left to sniffing.
	if ct := strings.TrimSpace(image.ContentType); ct != "" && ct != "application/octet-stream" && !strings.HasPrefix(ct, "image/") {
		return "", ErrUnsupportedImage
	}
	contentType, body, err := storage.SniffImage(io.LimitReader(image.Body, a.maxUpload+1))
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedImage) {
			return "", ErrUnsupportedImage
		}
		return "", err
	}
	hosted, err := a.images.Upload(ctx, image.Filename, body, image.Size, contentType)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return hosted.URL, nil
}

// HomePage returns every style in random order with the public testimonials.
func (a *App) HomePage(ctx context.Context) (Home, error) {
	styles, err := a.store.ListStyles(ctx)
	if err != nil {
		return Home{}, fmt.Errorf("list styles: %w", err)
	}
	feedback, err := a.PublicFeedback(ctx)
	if err != nil {
		return Home{}, err
	}
	a.rngMu.Lock()
	shuffled := carousel.Shuffle(normalizeStyles(styles), a.rng)
	a.rngMu.Unlock()
	return Home{Styles: shuffled, Feedback: feedback}, nil
}

func normalizeStyles(styles []domain.Style) []domain.Style {
	out := make([]domain.Style, len(styles))
	for i, s := range styles {
		out[i] = domain.NormalizeStyle(s)
	}
	return out
}
