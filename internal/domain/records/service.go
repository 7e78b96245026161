package records

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"taxi-pet/internal/platform/logger"
	"taxi-pet/internal/ports/blobs"
	"taxi-pet/internal/schema"
)

// Service es el borde del store: toda operación pasa por la regla de acceso
// de la colección, el hook del dominio y la validación de campos.
type Service struct {
	reg   *schema.Registry
	repo  Repository
	blobs blobs.Store
	hooks map[string]Hook
	log   logger.Logger
	now   func() time.Time
}

func NewService(reg *schema.Registry, repo Repository, store blobs.Store, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		reg:   reg,
		repo:  repo,
		blobs: store,
		hooks: map[string]Hook{},
		log:   log,
		now:   time.Now,
	}
}

// Use registra el hook de una colección (uno por colección).
func (s *Service) Use(collection string, h Hook) {
	s.hooks[collection] = h
}

func (s *Service) Collection(name string) (*schema.Collection, error) {
	c, err := s.reg.Find(name)
	if err != nil {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *Service) Create(ctx context.Context, caller schema.Caller, collection string, in schema.Record) (schema.Record, error) {
	c, err := s.Collection(collection)
	if err != nil {
		return nil, err
	}

	rec := s.prepare(c, in)
	rec["id"] = schema.NewID()
	c.Touch(rec, s.now().UTC(), true)

	if err := c.Authorize(schema.OpCreate, caller, rec); err != nil {
		return nil, err
	}
	var hookErr error
	if h, ok := s.hooks[c.Name]; ok {
		hookErr = h.BeforeCreate(ctx, &Event{Collection: c, Caller: caller, Input: in, Record: rec})
	}
	if err := validate(c, rec, nil, hookErr); err != nil {
		return nil, err
	}

	uploads := takeUploads(c, rec)
	if err := s.repo.Insert(ctx, c, rec); err != nil {
		return nil, err
	}
	if err := s.storeUploads(ctx, uploads); err != nil {
		// sin archivo no hay registro válido
		if derr := s.repo.Delete(ctx, c, rec.ID()); derr != nil {
			s.log.Error("rollback after upload failure", map[string]any{"collection": c.Name, "id": rec.ID(), "err": derr})
		}
		return nil, err
	}

	return Present(c, rec), nil
}

func (s *Service) Get(ctx context.Context, caller schema.Caller, collection, id string) (schema.Record, error) {
	c, err := s.Collection(collection)
	if err != nil {
		return nil, err
	}
	rec, err := s.repo.Get(ctx, c, id)
	if err != nil {
		return nil, err
	}
	if err := c.Authorize(schema.OpView, caller, rec); err != nil {
		// autenticado sin acceso: igual que inexistente, no revela el id
		if errors.Is(err, schema.ErrForbidden) && caller.IsAuthenticated() {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return Present(c, rec), nil
}

// List filtra con la query del cliente y después con la regla de list;
// la paginación se hace sobre lo visible.
func (s *Service) List(ctx context.Context, caller schema.Caller, collection string, opts ListOptions) (ListResult, error) {
	c, err := s.Collection(collection)
	if err != nil {
		return ListResult{}, err
	}
	q, err := schema.ParseQuery(c, opts.Filter, opts.Sort)
	if err != nil {
		return ListResult{}, err
	}

	all, err := s.repo.List(ctx, c, q)
	if err != nil {
		return ListResult{}, err
	}
	visible := c.Filter(caller, all)

	page, perPage := normalizePage(opts.Page, opts.PerPage)
	res := ListResult{
		Page:       page,
		PerPage:    perPage,
		TotalItems: len(visible),
		TotalPages: (len(visible) + perPage - 1) / perPage,
		Items:      make([]schema.Record, 0),
	}

	start := (page - 1) * perPage
	if start < len(visible) {
		end := min(start+perPage, len(visible))
		for _, rec := range visible[start:end] {
			res.Items = append(res.Items, Present(c, rec))
		}
	}
	return res, nil
}

func (s *Service) Update(ctx context.Context, caller schema.Caller, collection, id string, in schema.Record) (schema.Record, error) {
	c, err := s.Collection(collection)
	if err != nil {
		return nil, err
	}
	current, err := s.repo.Get(ctx, c, id)
	if err != nil {
		return nil, err
	}

	next := current.Merge(s.prepare(c, in))
	c.Touch(next, s.now().UTC(), false)

	if err := c.AuthorizeUpdate(caller, current, next); err != nil {
		return nil, err
	}
	var hookErr error
	if h, ok := s.hooks[c.Name]; ok {
		hookErr = h.BeforeUpdate(ctx, &Event{Collection: c, Caller: caller, Input: in, Current: current, Record: next})
	}
	if err := validate(c, next, current, hookErr); err != nil {
		return nil, err
	}

	uploads := takeUploads(c, next)
	if err := s.storeUploads(ctx, uploads); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, c, next); err != nil {
		s.dropUploads(ctx, uploads)
		return nil, err
	}

	// archivos reemplazados o quitados
	for _, f := range c.Fields {
		if f.Type != schema.FieldFile {
			continue
		}
		old := current.String(f.Name)
		if old != "" && old != next.String(f.Name) {
			s.deleteBlob(ctx, blobKey(c, id, old))
		}
	}

	return Present(c, next), nil
}

func (s *Service) Delete(ctx context.Context, caller schema.Caller, collection, id string) error {
	c, err := s.Collection(collection)
	if err != nil {
		return err
	}
	rec, err := s.repo.Get(ctx, c, id)
	if err != nil {
		return err
	}
	if err := c.Authorize(schema.OpDelete, caller, rec); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, c, id); err != nil {
		return err
	}

	for _, f := range c.Fields {
		if f.Type == schema.FieldFile {
			if name := rec.String(f.Name); name != "" {
				s.deleteBlob(ctx, blobKey(c, id, name))
			}
		}
	}
	return nil
}

// OpenFile devuelve un archivo sólo si algún campo file del registro lo referencia.
// Los archivos son públicos: no se evalúan reglas.
func (s *Service) OpenFile(ctx context.Context, collection, recordID, filename string) (blobs.Object, error) {
	c, err := s.Collection(collection)
	if err != nil {
		return blobs.Object{}, err
	}
	rec, err := s.repo.Get(ctx, c, recordID)
	if err != nil {
		return blobs.Object{}, err
	}

	for _, f := range c.Fields {
		if f.Type == schema.FieldFile && filename != "" && rec.String(f.Name) == filename {
			obj, err := s.blobs.Open(ctx, blobKey(c, recordID, filename))
			if errors.Is(err, blobs.ErrNotFound) {
				return blobs.Object{}, ErrNotFound
			}
			return obj, err
		}
	}
	return blobs.Object{}, ErrNotFound
}

// validate junta los errores de campo del hook con los de la colección, así el
// cliente recibe todo en una sola respuesta. Otros errores del hook cortan antes.
func validate(c *schema.Collection, rec, current schema.Record, hookErr error) error {
	hve, isVE := schema.AsValidation(hookErr)
	if hookErr != nil && !isVE {
		return hookErr
	}
	err := c.Validate(rec)
	ve, isVE := schema.AsValidation(err)
	if err != nil && !isVE {
		return err
	}

	merged := &schema.ValidationError{Collection: c.Name}
	for _, src := range []*schema.ValidationError{hve, ve} {
		if src == nil {
			continue
		}
		for k, fe := range src.Fields {
			merged.Add(k, fe.Code, fe.Message)
		}
	}
	checkFileNames(merged, c, rec, current)
	if len(merged.Fields) == 0 {
		return nil
	}
	return merged
}

// checkFileNames: un campo file sólo acepta un nombre si es el que ya estaba
// guardado; los archivos nuevos llegan como schema.File.
func checkFileNames(ve *schema.ValidationError, c *schema.Collection, rec, current schema.Record) {
	for _, f := range c.Fields {
		if f.Type != schema.FieldFile {
			continue
		}
		name, ok := rec[f.Name].(string)
		if !ok || strings.TrimSpace(name) == "" {
			continue
		}
		if current == nil || name != current.String(f.Name) {
			ve.Add(f.Name, "validation_invalid_file", "Invalid file value.")
		}
	}
}

// prepare deja sólo campos declarados y editables por el cliente.
// Los campos password nunca se copian tal cual: los resuelve el hook.
func (s *Service) prepare(c *schema.Collection, in schema.Record) schema.Record {
	rec := c.Coerce(c.StripSystem(c.Declared(in)))
	for _, f := range c.Fields {
		if f.Type == schema.FieldPassword {
			delete(rec, f.Name)
		}
	}
	return rec
}

type upload struct {
	key  string
	file schema.File
}

// takeUploads reemplaza los schema.File del registro por el nombre guardado.
func takeUploads(c *schema.Collection, rec schema.Record) []upload {
	var out []upload
	for _, f := range c.Fields {
		if f.Type != schema.FieldFile {
			continue
		}
		var file schema.File
		switch v := rec[f.Name].(type) {
		case schema.File:
			file = v
		case *schema.File:
			if v == nil {
				continue
			}
			file = *v
		case []schema.File:
			if len(v) == 0 {
				rec[f.Name] = ""
				continue
			}
			file = v[0]
		default:
			continue
		}
		name := StoredFilename(file.Name)
		rec[f.Name] = name
		out = append(out, upload{key: blobKey(c, rec.ID(), name), file: file})
	}
	return out
}

func (s *Service) storeUploads(ctx context.Context, uploads []upload) error {
	for i, u := range uploads {
		if err := s.blobs.Put(ctx, u.key, u.file.MimeType, u.file.Content); err != nil {
			s.dropUploads(ctx, uploads[:i])
			return fmt.Errorf("store file %s: %w", u.file.Name, err)
		}
	}
	return nil
}

func (s *Service) dropUploads(ctx context.Context, uploads []upload) {
	for _, u := range uploads {
		s.deleteBlob(ctx, u.key)
	}
}

func (s *Service) deleteBlob(ctx context.Context, key string) {
	if err := s.blobs.Delete(ctx, key); err != nil && !errors.Is(err, blobs.ErrNotFound) {
		s.log.Warn("blob delete failed", map[string]any{"key": key, "err": err})
	}
}

func blobKey(c *schema.Collection, recordID, filename string) string {
	return c.ID + "/" + recordID + "/" + filename
}

var (
	unsafeName = regexp.MustCompile(`[^a-z0-9_]+`)
	safeExt    = regexp.MustCompile(`^\.[a-z0-9]{1,10}$`)
)

// StoredFilename normaliza el nombre subido y le agrega un sufijo aleatorio:
// "Mi Foto.PNG" -> "mi_foto_k3j9x0a1b2.png".
func StoredFilename(original string) string {
	ext := strings.ToLower(path.Ext(original))
	base := strings.ToLower(strings.TrimSuffix(path.Base(original), path.Ext(original)))
	base = strings.Trim(unsafeName.ReplaceAllString(base, "_"), "_")
	if base == "" {
		base = "file"
	}
	if len(base) > 100 {
		base = base[:100]
	}
	if !safeExt.MatchString(ext) {
		ext = ""
	}
	return base + "_" + schema.NewID()[:10] + ext
}

// Present es la vista pública del registro: sin campos ocultos y con
// timestamps en el formato de la API.
func Present(c *schema.Collection, rec schema.Record) schema.Record {
	out := c.Visible(rec)
	for k, v := range out {
		if t, ok := v.(time.Time); ok {
			out[k] = t.UTC().Format(schema.DateLayout)
		}
	}
	return out
}

func normalizePage(page, perPage int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}
