package schema

import (
	"regexp"
	"strings"
	"sync"
)

// FieldType es el tipo semántico de un campo.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldBool     FieldType = "bool"
	FieldEmail    FieldType = "email"
	FieldFile     FieldType = "file"
	FieldAutodate FieldType = "autodate"
	FieldPassword FieldType = "password"
)

const (
	// MaxFileSize es el techo por archivo (20 MiB).
	MaxFileSize int64 = 20 << 20

	IDLength              = 15
	IDAlphabet            = "abcdefghijklmnopqrstuvwxyz0123456789"
	IDAutogeneratePattern = "[a-z0-9]{15}"
	IDPattern             = "^[a-z0-9]+$"
)

// ImageMimeTypes es la allow-list de blobs de imagen.
var ImageMimeTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
}

// Field declara un campo de una colección.
// Min/Max son punteros: nil = sin límite (distinto de 0).
// Para text son longitudes (runes), para number son valores.
type Field struct {
	Name     string
	Type     FieldType
	Required bool
	System   bool
	Hidden   bool
	Unique   bool

	Min *float64
	Max *float64

	Pattern             string
	AutogeneratePattern string
	PrimaryKey          bool

	OnlyInt bool

	// file
	MaxSelect int
	MaxSize   int64
	MimeTypes []string
	Thumbs    []string

	// autodate
	OnCreate bool
	OnUpdate bool
}

// Bound devuelve un puntero a v; helper para declarar Min/Max.
func Bound(v float64) *float64 { return &v }

// IDField es el campo id estándar: 15 chars [a-z0-9].
func IDField() Field {
	return Field{
		Name:                "id",
		Type:                FieldText,
		Required:            true,
		System:              true,
		PrimaryKey:          true,
		Min:                 Bound(IDLength),
		Max:                 Bound(IDLength),
		Pattern:             IDPattern,
		AutogeneratePattern: IDAutogeneratePattern,
	}
}

// ImageField es un blob de imagen opcional (un solo archivo, sin thumbs).
func ImageField(name string) Field {
	return Field{
		Name:      name,
		Type:      FieldFile,
		MaxSelect: 1,
		MaxSize:   MaxFileSize,
		MimeTypes: append([]string(nil), ImageMimeTypes...),
		Thumbs:    []string{},
	}
}

// CreatedField se fija sólo al crear.
func CreatedField() Field {
	return Field{Name: "created", Type: FieldAutodate, OnCreate: true}
}

// UpdatedField se fija al crear y en cada update.
func UpdatedField() Field {
	return Field{Name: "updated", Type: FieldAutodate, OnCreate: true, OnUpdate: true}
}

func (f Field) allowsMime(mime string) bool {
	if len(f.MimeTypes) == 0 {
		return true
	}
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	for _, m := range f.MimeTypes {
		if m == mime {
			return true
		}
	}
	return false
}

var patternCache sync.Map // string -> *regexp.Regexp

func compilePattern(p string) *regexp.Regexp {
	if v, ok := patternCache.Load(p); ok {
		return v.(*regexp.Regexp)
	}
	// Los patterns son declarativos (migraciones): uno inválido es bug de programación.
	re := regexp.MustCompile(p)
	patternCache.Store(p, re)
	return re
}
