// Package api es el cliente HTTP de la API de Taxi Pet.
package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"taxi-pet/internal/platform/httpclient"
	"taxi-pet/internal/schema"
)

// Record es un registro tal como lo devuelve la API.
type Record = schema.Record

// File es un archivo a subir en un campo file (fuerza multipart).
type File struct {
	Name    string
	Content []byte
}

type AuthResponse struct {
	Token  string     `json:"token"`
	Record Record     `json:"record"`
	Meta   *OAuthMeta `json:"meta,omitempty"`
}

type OAuthMeta struct {
	Provider string `json:"provider"`
	IsNew    bool   `json:"isNew"`
}

type OAuthStart struct {
	Provider string `json:"provider"`
	State    string `json:"state"`
	AuthURL  string `json:"authUrl"`
}

type AuthMethods struct {
	Password bool `json:"password"`
	OAuth2   []struct {
		Name        string `json:"name"`
		DisplayName string `json:"displayName"`
	} `json:"oauth2"`
}

type ListParams struct {
	Filter  string
	Sort    string
	Page    int
	PerPage int
}

type ListResult struct {
	Page       int      `json:"page"`
	PerPage    int      `json:"perPage"`
	TotalItems int      `json:"totalItems"`
	TotalPages int      `json:"totalPages"`
	Items      []Record `json:"items"`
}

// Client habla con la API. El token lo provee el contenedor de sesión.
type Client struct {
	http *httpclient.Client

	mu     sync.RWMutex
	tokens func() string
}

func New(baseURL string, timeout time.Duration) (*Client, error) {
	hc, err := httpclient.NewWithBaseURL(baseURL, timeout)
	if err != nil {
		return nil, err
	}
	if hc.BaseURL == "" {
		return nil, fmt.Errorf("api: base url is required")
	}
	return &Client{http: hc}, nil
}

// SetTokenSource define de dónde sale el Bearer de cada request.
func (c *Client) SetTokenSource(fn func() string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = fn
}

func (c *Client) BaseURL() string { return c.http.BaseURL }

func (c *Client) headers() map[string]string {
	c.mu.RLock()
	fn := c.tokens
	c.mu.RUnlock()
	if fn == nil {
		return nil
	}
	if tok := fn(); tok != "" {
		return map[string]string{"Authorization": "Bearer " + tok}
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	return fromHTTP(c.http.DoJSON(ctx, method, path, c.headers(), in, out))
}

func (c *Client) AuthWithPassword(ctx context.Context, identity, password string) (AuthResponse, error) {
	var out AuthResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/collections/users/auth-with-password",
		map[string]string{"identity": identity, "password": password}, &out)
	return out, err
}

func (c *Client) AuthRefresh(ctx context.Context) (AuthResponse, error) {
	var out AuthResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/collections/users/auth-refresh", nil, &out)
	return out, err
}

func (c *Client) AuthMethods(ctx context.Context) (AuthMethods, error) {
	var out AuthMethods
	err := c.doJSON(ctx, http.MethodGet, "/api/collections/users/auth-methods", nil, &out)
	return out, err
}

func (c *Client) StartOAuth2(ctx context.Context, provider, redirectURL string) (OAuthStart, error) {
	var out OAuthStart
	path := "/api/collections/users/oauth2/" + url.PathEscape(provider) + "?redirectUrl=" + url.QueryEscape(redirectURL)
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) AuthWithOAuth2(ctx context.Context, provider, code, state string) (AuthResponse, error) {
	var out AuthResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/collections/users/auth-with-oauth2",
		map[string]string{"provider": provider, "code": code, "state": state}, &out)
	return out, err
}

// CreateRecord y UpdateRecord son atajos usados por el contenedor de sesión.
func (c *Client) CreateRecord(ctx context.Context, collection string, rec Record) (Record, error) {
	return c.Collection(collection).Create(ctx, rec)
}

func (c *Client) UpdateRecord(ctx context.Context, collection, id string, rec Record) (Record, error) {
	return c.Collection(collection).Update(ctx, id, rec)
}

// FileURL arma la URL pública de un archivo guardado en rec[field]; "" si no hay.
func (c *Client) FileURL(collection string, rec Record, field string) string {
	name := rec.String(field)
	if name == "" || rec.ID() == "" {
		return ""
	}
	return c.http.BaseURL + "/api/files/" + url.PathEscape(collection) + "/" + url.PathEscape(rec.ID()) + "/" + url.PathEscape(name)
}

// Collection da acceso CRUD a una colección.
func (c *Client) Collection(name string) *Collection {
	return &Collection{c: c, name: name}
}

type Collection struct {
	c    *Client
	name string
}

func (col *Collection) base() string {
	return "/api/collections/" + url.PathEscape(col.name) + "/records"
}

func (col *Collection) Create(ctx context.Context, rec Record) (Record, error) {
	return col.send(ctx, http.MethodPost, col.base(), rec)
}

func (col *Collection) Get(ctx context.Context, id string) (Record, error) {
	var out Record
	err := col.c.doJSON(ctx, http.MethodGet, col.base()+"/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (col *Collection) List(ctx context.Context, p ListParams) (ListResult, error) {
	q := url.Values{}
	if p.Filter != "" {
		q.Set("filter", p.Filter)
	}
	if p.Sort != "" {
		q.Set("sort", p.Sort)
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		q.Set("perPage", strconv.Itoa(p.PerPage))
	}
	path := col.base()
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out ListResult
	err := col.c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (col *Collection) Update(ctx context.Context, id string, rec Record) (Record, error) {
	return col.send(ctx, http.MethodPatch, col.base()+"/"+url.PathEscape(id), rec)
}

func (col *Collection) Delete(ctx context.Context, id string) error {
	return col.c.doJSON(ctx, http.MethodDelete, col.base()+"/"+url.PathEscape(id), nil, nil)
}

// send usa multipart si algún valor es un File; si no, JSON.
func (col *Collection) send(ctx context.Context, method, path string, rec Record) (Record, error) {
	var out Record
	if !hasFiles(rec) {
		err := col.c.doJSON(ctx, method, path, rec, &out)
		return out, err
	}

	body, contentType, err := encodeMultipart(rec)
	if err != nil {
		return nil, err
	}
	err = col.c.http.Do(ctx, method, path, col.c.headers(), contentType, body, &out)
	return out, fromHTTP(err)
}

func hasFiles(rec Record) bool {
	for _, v := range rec {
		switch v.(type) {
		case File, *File:
			return true
		}
	}
	return false
}

func encodeMultipart(rec Record) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range rec {
		switch f := v.(type) {
		case File:
			if err := writeFile(mw, k, f); err != nil {
				return nil, "", err
			}
		case *File:
			if f == nil {
				continue
			}
			if err := writeFile(mw, k, *f); err != nil {
				return nil, "", err
			}
		case nil:
			if err := mw.WriteField(k, ""); err != nil {
				return nil, "", err
			}
		default:
			if err := mw.WriteField(k, formValue(v)); err != nil {
				return nil, "", err
			}
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func writeFile(mw *multipart.Writer, field string, f File) error {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		name = field
	}
	w, err := mw.CreateFormFile(field, name)
	if err != nil {
		return err
	}
	_, err = w.Write(f.Content)
	return err
}

func formValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
