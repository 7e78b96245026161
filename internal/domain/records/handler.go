package records

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"taxi-pet/internal/middleware"
	"taxi-pet/internal/platform/respond"
	"taxi-pet/internal/schema"

	"github.com/go-chi/chi/v5"
)

// maxBody acota el request completo (campos + archivos).
const maxBody = 3 * schema.MaxFileSize

// RegisterRoutes monta el CRUD genérico de colecciones y la descarga de archivos.
// Las rutas van con path completo (sin Mount) para que rutas estáticas como
// /api/collections/users/auth-with-password convivan con {collection}.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/api/collections/{collection}/records", listHandler(svc))
	r.Post("/api/collections/{collection}/records", createHandler(svc))
	r.Get("/api/collections/{collection}/records/{id}", viewHandler(svc))
	r.Patch("/api/collections/{collection}/records/{id}", updateHandler(svc))
	r.Delete("/api/collections/{collection}/records/{id}", deleteHandler(svc))

	r.Get("/api/files/{collection}/{recordID}/{filename}", fileHandler(svc))
}

// listHandler godoc
// @Summary Listar registros
// @Description Lista los registros visibles para el caller (regla list de la colección). `filter` acepta condiciones `campo = "valor"` / `campo != "valor"` unidas por `&&`; `sort` es una lista separada por comas con `-` para descendente.
// @Tags records
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param collection path string true "Nombre de la colección"
// @Param filter query string false "Filtro, p.ej. userId = \"abc\""
// @Param sort query string false "Orden, p.ej. -created"
// @Param page query int false "Página (desde 1)"
// @Param perPage query int false "Items por página (máx 500)"
// @Success 200 {object} ListResult
// @Failure 400 {object} respond.ErrorBody
// @Failure 404 {object} respond.ErrorBody
// @Router /api/collections/{collection}/records [get]
func listHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.Caller(r.Context())
		q := r.URL.Query()

		page, _ := strconv.Atoi(q.Get("page"))
		perPage, _ := strconv.Atoi(q.Get("perPage"))

		res, err := svc.List(r.Context(), caller, chi.URLParam(r, "collection"), ListOptions{
			Filter:  q.Get("filter"),
			Sort:    q.Get("sort"),
			Page:    page,
			PerPage: perPage,
		})
		if err != nil {
			WriteError(w, caller, err)
			return
		}
		respond.JSON(w, http.StatusOK, res)
	}
}

// createHandler godoc
// @Summary Crear registro
// @Description Crea un registro. Acepta JSON o multipart/form-data (campos file). `id`, `created` y `updated` los fija el servidor.
// @Tags records
// @Accept json,mpfd
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param collection path string true "Nombre de la colección"
// @Success 200 {object} map[string]any
// @Failure 400 {object} respond.ErrorBody "validación"
// @Failure 401 {object} respond.ErrorBody
// @Failure 403 {object} respond.ErrorBody
// @Failure 409 {object} respond.ErrorBody "valor duplicado"
// @Router /api/collections/{collection}/records [post]
func createHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.Caller(r.Context())

		in, err := DecodeInput(w, r)
		if err != nil {
			WriteError(w, caller, err)
			return
		}

		rec, err := svc.Create(r.Context(), caller, chi.URLParam(r, "collection"), in)
		if err != nil {
			WriteError(w, caller, err)
			return
		}
		respond.JSON(w, http.StatusOK, rec)
	}
}

// viewHandler godoc
// @Summary Ver registro
// @Tags records
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param collection path string true "Nombre de la colección"
// @Param id path string true "ID del registro"
// @Success 200 {object} map[string]any
// @Failure 403 {object} respond.ErrorBody
// @Failure 404 {object} respond.ErrorBody
// @Router /api/collections/{collection}/records/{id} [get]
func viewHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.Caller(r.Context())
		rec, err := svc.Get(r.Context(), caller, chi.URLParam(r, "collection"), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, caller, err)
			return
		}
		respond.JSON(w, http.StatusOK, rec)
	}
}

// updateHandler godoc
// @Summary Actualizar registro
// @Description PATCH parcial; sólo cambian los campos enviados. La regla update se evalúa sobre el registro actual y sobre el resultante.
// @Tags records
// @Accept json,mpfd
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param collection path string true "Nombre de la colección"
// @Param id path string true "ID del registro"
// @Success 200 {object} map[string]any
// @Failure 400 {object} respond.ErrorBody
// @Failure 403 {object} respond.ErrorBody
// @Failure 404 {object} respond.ErrorBody
// @Router /api/collections/{collection}/records/{id} [patch]
func updateHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.Caller(r.Context())

		in, err := DecodeInput(w, r)
		if err != nil {
			WriteError(w, caller, err)
			return
		}

		rec, err := svc.Update(r.Context(), caller, chi.URLParam(r, "collection"), chi.URLParam(r, "id"), in)
		if err != nil {
			WriteError(w, caller, err)
			return
		}
		respond.JSON(w, http.StatusOK, rec)
	}
}

// deleteHandler godoc
// @Summary Borrar registro
// @Tags records
// @Param Authorization header string false "Bearer token"
// @Param collection path string true "Nombre de la colección"
// @Param id path string true "ID del registro"
// @Success 204
// @Failure 403 {object} respond.ErrorBody
// @Failure 404 {object} respond.ErrorBody
// @Router /api/collections/{collection}/records/{id} [delete]
func deleteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.Caller(r.Context())
		if err := svc.Delete(r.Context(), caller, chi.URLParam(r, "collection"), chi.URLParam(r, "id")); err != nil {
			WriteError(w, caller, err)
			return
		}
		respond.NoContent(w)
	}
}

// fileHandler godoc
// @Summary Descargar archivo
// @Description Sirve un archivo referenciado por un campo file del registro.
// @Tags files
// @Produce octet-stream
// @Param collection path string true "Nombre o id de la colección"
// @Param recordID path string true "ID del registro"
// @Param filename path string true "Nombre guardado del archivo"
// @Success 200 {file} file
// @Failure 404 {object} respond.ErrorBody
// @Router /api/files/{collection}/{recordID}/{filename} [get]
func fileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		obj, err := svc.OpenFile(r.Context(), chi.URLParam(r, "collection"), chi.URLParam(r, "recordID"), chi.URLParam(r, "filename"))
		if err != nil {
			WriteError(w, schema.Caller{}, err)
			return
		}
		defer obj.Body.Close()

		ct := obj.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		if obj.Size > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
		}
		w.Header().Set("Cache-Control", "max-age=2592000")
		_, _ = io.Copy(w, obj.Body)
	}
}

// DecodeInput lee JSON o multipart/form-data a un schema.Record.
func DecodeInput(w http.ResponseWriter, r *http.Request) (schema.Record, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		return decodeMultipart(r)
	}

	in := schema.Record{}
	if r.ContentLength == 0 {
		return in, nil
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		return nil, ErrInvalidRequest
	}
	return in, nil
}

func decodeMultipart(r *http.Request) (schema.Record, error) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		return nil, ErrInvalidRequest
	}
	in := schema.Record{}
	for k, vs := range r.MultipartForm.Value {
		if len(vs) > 0 {
			in[k] = vs[len(vs)-1]
		}
	}
	for k, fhs := range r.MultipartForm.File {
		files := make([]schema.File, 0, len(fhs))
		for _, fh := range fhs {
			f, err := readUpload(fh)
			if err != nil {
				return nil, ErrInvalidRequest
			}
			files = append(files, f)
		}
		if len(files) == 1 {
			in[k] = files[0]
		} else {
			in[k] = files
		}
	}
	return in, nil
}

// readUpload lee hasta MaxFileSize+1 bytes: alcanza para detectar el exceso
// sin cargar archivos gigantes. El mime se detecta del contenido.
func readUpload(fh *multipart.FileHeader) (schema.File, error) {
	f, err := fh.Open()
	if err != nil {
		return schema.File{}, err
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, schema.MaxFileSize+1))
	if err != nil {
		return schema.File{}, err
	}
	size := fh.Size
	if int64(len(content)) > size {
		size = int64(len(content))
	}
	return schema.File{
		Name:     fh.Filename,
		Size:     size,
		MimeType: http.DetectContentType(content),
		Content:  content,
	}, nil
}

// WriteError traduce errores del store a la respuesta de la API.
// Los rechazos por regla nunca dicen qué predicado falló.
func WriteError(w http.ResponseWriter, caller schema.Caller, err error) {
	var ve *schema.ValidationError
	var ce *ConflictError

	switch {
	case errors.As(err, &ve):
		data := make(map[string]any, len(ve.Fields))
		for k, fe := range ve.Fields {
			data[k] = fe
		}
		respond.Error(w, http.StatusBadRequest, "Failed to validate the submitted data.", data)

	case errors.As(err, &ce):
		respond.Error(w, http.StatusConflict, "Value must be unique.", map[string]any{
			ce.Field: schema.FieldError{Code: "validation_not_unique", Message: "Value must be unique."},
		})

	case errors.Is(err, schema.ErrInvalidQuery), errors.Is(err, ErrInvalidRequest):
		respond.Error(w, http.StatusBadRequest, err.Error(), nil)

	case errors.Is(err, schema.ErrForbidden):
		if !caller.IsAuthenticated() {
			respond.Error(w, http.StatusUnauthorized, "The request requires valid authorization token.", nil)
			return
		}
		respond.Error(w, http.StatusForbidden, "You are not allowed to perform this request.", nil)

	case errors.Is(err, ErrNotFound):
		respond.Error(w, http.StatusNotFound, "The requested resource wasn't found.", nil)

	default:
		respond.Error(w, http.StatusInternalServerError, "Something went wrong while processing your request.", nil)
	}
}
