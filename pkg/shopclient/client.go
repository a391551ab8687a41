package shopclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"omifemcuts/internal/catalog"
	"omifemcuts/internal/contact"
	"omifemcuts/pkg/domain"
)

// Client calls the shop HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError represents a shop API error response.
type APIError struct {
	Status  int
	Message string
	Code    string
	Fields  []FieldError
}

// FieldError is one rejected form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}

// NewClient constructs a shop API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// WithHTTPClient swaps the transport, mainly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// StyleList is one page of GET /api/styles.
type StyleList struct {
	Items      []domain.Style `json:"items"`
	Count      int            `json:"count"`
	NextCursor string         `json:"nextCursor,omitempty"`
	HasMore    bool           `json:"hasMore"`
}

// ListQuery mirrors the catalog listing query parameters.
type ListQuery struct {
	Category string
	Query    string
	Sort     string
	Cursor   string
	Offset   int
	Limit    int
}

// LikeResult is the server's like state after a toggle.
type LikeResult struct {
	StyleID string `json:"styleId"`
	Liked   bool   `json:"liked"`
	Likes   int    `json:"likes"`
}

// Home is the landing page payload.
type Home struct {
	Styles   []domain.Style    `json:"styles"`
	Feedback []domain.Feedback `json:"feedback"`
}

// StyleForm is the admin style upload form.
type StyleForm struct {
	Title               string `json:"title"`
	Description         string `json:"description,omitempty"`
	Category            string `json:"category"`
	PriceWithoutFabrics *int64 `json:"priceWithoutFabrics,omitempty"`
	PriceWithFabrics    *int64 `json:"priceWithFabrics,omitempty"`
	DeliveryTime        string `json:"deliveryTime,omitempty"`
	Tags                string `json:"tags,omitempty"`
	ImageURL            string `json:"imageUrl,omitempty"`
}

// ContactForm is the public contact page form.
type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func (c *Client) Register(ctx context.Context, email, password, name string) (domain.User, string, error) {
	payload := map[string]string{"email": email, "password": password, "name": name}
	var resp authResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", "", payload, &resp); err != nil {
		return domain.User{}, "", err
	}
	return resp.User, resp.Token, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (domain.User, string, error) {
	payload := map[string]string{"email": email, "password": password}
	var resp authResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", "", payload, &resp); err != nil {
		return domain.User{}, "", err
	}
	return resp.User, resp.Token, nil
}

func (c *Client) FederatedLogin(ctx context.Context, idToken string) (domain.User, string, error) {
	var resp authResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/google", "", map[string]string{"idToken": idToken}, &resp); err != nil {
		return domain.User{}, "", err
	}
	return resp.User, resp.Token, nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/logout", token, nil, nil)
}

func (c *Client) Me(ctx context.Context, token string) (domain.User, error) {
	var user domain.User
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", token, nil, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (c *Client) UpdateProfile(ctx context.Context, token, name, photoURL string) (domain.User, error) {
	payload := map[string]string{"name": name, "photoURL": photoURL}
	var user domain.User
	if err := c.doJSON(ctx, http.MethodPatch, "/api/auth/me", token, payload, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (c *Client) Home(ctx context.Context) (Home, error) {
	var home Home
	if err := c.doJSON(ctx, http.MethodGet, "/api/home", "", nil, &home); err != nil {
		return Home{}, err
	}
	return home, nil
}

func (c *Client) ListStyles(ctx context.Context, q ListQuery) (StyleList, error) {
	v := url.Values{}
	setIf := func(key, val string) {
		if strings.TrimSpace(val) != "" {
			v.Set(key, val)
		}
	}
	setIf("category", q.Category)
	setIf("q", q.Query)
	setIf("sort", q.Sort)
	setIf("cursor", q.Cursor)
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	path := "/api/styles"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}
	var list StyleList
	if err := c.doJSON(ctx, http.MethodGet, path, "", nil, &list); err != nil {
		return StyleList{}, err
	}
	return list, nil
}

// FetchStyles reads one newest-first page, so a Client can back a catalog.Pager.
func (c *Client) FetchStyles(ctx context.Context, cursor string, limit int) (catalog.Page, error) {
	list, err := c.ListStyles(ctx, ListQuery{Cursor: cursor, Limit: limit})
	if err != nil {
		return catalog.Page{}, err
	}
	return catalog.Page{Items: list.Items, NextCursor: list.NextCursor}, nil
}

func (c *Client) GetStyle(ctx context.Context, id string) (domain.Style, error) {
	var style domain.Style
	if err := c.doJSON(ctx, http.MethodGet, "/api/styles/"+url.PathEscape(id), "", nil, &style); err != nil {
		return domain.Style{}, err
	}
	return style, nil
}

func (c *Client) RelatedStyles(ctx context.Context, id string) ([]domain.Style, error) {
	var resp listResponse[domain.Style]
	if err := c.doJSON(ctx, http.MethodGet, "/api/styles/"+url.PathEscape(id)+"/related", "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) OrderLink(ctx context.Context, id string, mode contact.PriceMode) (string, error) {
	path := fmt.Sprintf("/api/styles/%s/order-link?mode=%s", url.PathEscape(id), url.QueryEscape(string(mode)))
	var resp struct {
		URL string `json:"url"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

func (c *Client) ToggleLike(ctx context.Context, token, id string) (LikeResult, error) {
	var res LikeResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/styles/"+url.PathEscape(id)+"/like", token, nil, &res); err != nil {
		return LikeResult{}, err
	}
	return res, nil
}

func (c *Client) PublicFeedback(ctx context.Context) ([]domain.Feedback, error) {
	var resp listResponse[domain.Feedback]
	if err := c.doJSON(ctx, http.MethodGet, "/api/feedback", "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) SubmitFeedback(ctx context.Context, token, comment string, rating int) (domain.Feedback, error) {
	payload := map[string]any{"comment": comment, "rating": rating}
	var f domain.Feedback
	if err := c.doJSON(ctx, http.MethodPost, "/api/feedback", token, payload, &f); err != nil {
		return domain.Feedback{}, err
	}
	return f, nil
}

func (c *Client) SubmitContact(ctx context.Context, form ContactForm) (domain.ContactMessage, error) {
	var msg domain.ContactMessage
	if err := c.doJSON(ctx, http.MethodPost, "/api/contact", "", form, &msg); err != nil {
		return domain.ContactMessage{}, err
	}
	return msg, nil
}

func (c *Client) ContactLinks(ctx context.Context) (contact.Links, error) {
	var links contact.Links
	if err := c.doJSON(ctx, http.MethodGet, "/api/contact/links", "", nil, &links); err != nil {
		return contact.Links{}, err
	}
	return links, nil
}

// admin

// AdminDashboard is the server-side dashboard aggregate.
type AdminDashboard struct {
	Users     []domain.User     `json:"users"`
	Styles    []domain.Style    `json:"styles"`
	Feedback  []domain.Feedback `json:"feedback"`
	Analytics domain.Analytics  `json:"analytics"`
}

func (c *Client) AdminDashboard(ctx context.Context, token string) (AdminDashboard, error) {
	var dash AdminDashboard
	if err := c.doJSON(ctx, http.MethodGet, "/api/admin/dashboard", token, nil, &dash); err != nil {
		return AdminDashboard{}, err
	}
	return dash, nil
}

func (c *Client) ListUsers(ctx context.Context, token string) ([]domain.User, error) {
	var resp listResponse[domain.User]
	if err := c.doJSON(ctx, http.MethodGet, "/api/admin/users", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) GetUser(ctx context.Context, token, id string) (domain.User, error) {
	var user domain.User
	if err := c.doJSON(ctx, http.MethodGet, "/api/admin/users/"+url.PathEscape(id), token, nil, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (c *Client) SetUserRole(ctx context.Context, token, id string, role domain.UserRole) (domain.User, error) {
	var user domain.User
	if err := c.doJSON(ctx, http.MethodPatch, "/api/admin/users/"+url.PathEscape(id), token, map[string]string{"role": string(role)}, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (c *Client) DeleteUser(ctx context.Context, token, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/admin/users/"+url.PathEscape(id)+"?confirm=true", token, nil, nil)
}

func (c *Client) CreateStyle(ctx context.Context, token string, form StyleForm) (domain.Style, error) {
	var style domain.Style
	if err := c.doJSON(ctx, http.MethodPost, "/api/admin/styles", token, form, &style); err != nil {
		return domain.Style{}, err
	}
	return style, nil
}

// UploadStyle creates a style with an attached image file.
func (c *Client) UploadStyle(ctx context.Context, token string, form StyleForm, filename string, image io.Reader) (domain.Style, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fields := map[string]string{
		"title":        form.Title,
		"description":  form.Description,
		"category":     form.Category,
		"deliveryTime": form.DeliveryTime,
		"tags":         form.Tags,
	}
	if form.PriceWithoutFabrics != nil {
		fields["priceWithoutFabrics"] = strconv.FormatInt(*form.PriceWithoutFabrics, 10)
	}
	if form.PriceWithFabrics != nil {
		fields["priceWithFabrics"] = strconv.FormatInt(*form.PriceWithFabrics, 10)
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := writer.WriteField(k, v); err != nil {
			return domain.Style{}, err
		}
	}
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return domain.Style{}, err
	}
	if _, err := io.Copy(part, image); err != nil {
		return domain.Style{}, err
	}
	if err := writer.Close(); err != nil {
		return domain.Style{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/admin/styles", body)
	if err != nil {
		return domain.Style{}, err
	}
	addAuthHeader(req, token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var style domain.Style
	if err := c.do(req, &style); err != nil {
		return domain.Style{}, err
	}
	return style, nil
}

func (c *Client) UpdateStyle(ctx context.Context, token, id string, patch domain.StylePatch) (domain.Style, error) {
	var style domain.Style
	if err := c.doJSON(ctx, http.MethodPatch, "/api/admin/styles/"+url.PathEscape(id), token, patch, &style); err != nil {
		return domain.Style{}, err
	}
	return style, nil
}

func (c *Client) DeleteStyle(ctx context.Context, token, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/admin/styles/"+url.PathEscape(id)+"?confirm=true", token, nil, nil)
}

func (c *Client) ListFeedback(ctx context.Context, token string) ([]domain.Feedback, error) {
	var resp listResponse[domain.Feedback]
	if err := c.doJSON(ctx, http.MethodGet, "/api/admin/feedback", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) GetFeedback(ctx context.Context, token, id string) (domain.Feedback, error) {
	var f domain.Feedback
	if err := c.doJSON(ctx, http.MethodGet, "/api/admin/feedback/"+url.PathEscape(id), token, nil, &f); err != nil {
		return domain.Feedback{}, err
	}
	return f, nil
}

func (c *Client) SetFeedbackApproval(ctx context.Context, token, id string, approved bool) (domain.Feedback, error) {
	var f domain.Feedback
	if err := c.doJSON(ctx, http.MethodPatch, "/api/admin/feedback/"+url.PathEscape(id), token, map[string]bool{"approved": approved}, &f); err != nil {
		return domain.Feedback{}, err
	}
	return f, nil
}

func (c *Client) DeleteFeedback(ctx context.Context, token, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/admin/feedback/"+url.PathEscape(id)+"?confirm=true", token, nil, nil)
}

func (c *Client) ListContactMessages(ctx context.Context, token string) ([]domain.ContactMessage, error) {
	var resp listResponse[domain.ContactMessage]
	if err := c.doJSON(ctx, http.MethodGet, "/api/admin/contact-messages", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	addAuthHeader(req, token)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp struct {
			Error  string       `json:"error"`
			Code   string       `json:"code"`
			Fields []FieldError `json:"fields"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		msg := errResp.Error
		if msg == "" {
			msg = resp.Status
		}
		return &APIError{Status: resp.StatusCode, Message: msg, Code: strings.TrimSpace(errResp.Code), Fields: errResp.Fields}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func addAuthHeader(req *http.Request, token string) {
	if strings.TrimSpace(token) == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
}
