package records_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"taxi-pet/internal/adapters/storage/memory"
	"taxi-pet/internal/domain/pets"
	"taxi-pet/internal/domain/records"
	"taxi-pet/internal/schema"
	"taxi-pet/internal/schema/migrations"
)

const (
	ownerA = "aaaaaaaaaaaaaaa"
	ownerB = "bbbbbbbbbbbbbbb"
)

func newService(t *testing.T) (*records.Service, *memory.BlobStore) {
	t.Helper()
	reg := schema.NewRegistry()
	if _, err := schema.NewMigrator(reg, nil, nil, nil, migrations.All()).Up(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := memory.NewBlobStore()
	svc := records.NewService(reg, memory.NewRecordsRepo(), store, nil)
	svc.Use(migrations.PetsCollection, pets.Hook{})
	return svc, store
}

func petInput(owner string) schema.Record {
	return schema.Record{"userId": owner, "name": " Milo ", "animal_type": "Dog", "size": "small", "age": "3"}
}

func TestCreate_OwnerOnlyAndNormalized(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, schema.Caller{ID: ownerA}, "pets", petInput(ownerA))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec["name"] != "Milo" || rec["animal_type"] != "dog" || rec["age"] != 3.0 {
		t.Fatalf("unexpected record %v", rec)
	}
	if !schema.IsValidID(rec.ID()) {
		t.Fatalf("server id expected, got %q", rec.ID())
	}
	if _, ok := rec["created"].(string); !ok {
		t.Fatalf("created must be presented as string, got %T", rec["created"])
	}

	// crear a nombre de otro
	if _, err := svc.Create(ctx, schema.Caller{ID: ownerB}, "pets", petInput(ownerA)); !errors.Is(err, schema.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := svc.Create(ctx, schema.Caller{}, "pets", petInput(ownerA)); !errors.Is(err, schema.ErrForbidden) {
		t.Fatalf("anonymous must be forbidden, got %v", err)
	}
}

func TestCreate_ValidationAndUnknownCollection(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	in := petInput(ownerA)
	in["animal_type"] = "dragon"
	_, err := svc.Create(ctx, schema.Caller{ID: ownerA}, "pets", in)
	if ve, ok := schema.AsValidation(err); !ok || ve.Fields["animal_type"].Code != "validation_invalid_value" {
		t.Fatalf("expected animal_type validation, got %v", err)
	}

	in = petInput(ownerA)
	delete(in, "name")
	_, err = svc.Create(ctx, schema.Caller{ID: ownerA}, "pets", in)
	if ve, ok := schema.AsValidation(err); !ok || ve.Fields["name"].Code != "validation_required" {
		t.Fatalf("expected name required, got %v", err)
	}

	if _, err := svc.Create(ctx, schema.Caller{ID: ownerA}, "nope", petInput(ownerA)); !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestList_OnlyOwnRecordsAndPagination(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(ctx, schema.Caller{ID: ownerA}, "pets", petInput(ownerA)); err != nil {
			t.Fatalf("create A: %v", err)
		}
	}
	if _, err := svc.Create(ctx, schema.Caller{ID: ownerB}, "pets", petInput(ownerB)); err != nil {
		t.Fatalf("create B: %v", err)
	}

	res, err := svc.List(ctx, schema.Caller{ID: ownerA}, "pets", records.ListOptions{PerPage: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.TotalItems != 3 || res.TotalPages != 2 || len(res.Items) != 2 {
		t.Fatalf("unexpected page %+v", res)
	}

	// B filtrando por A no ve nada
	res, err = svc.List(ctx, schema.Caller{ID: ownerB}, "pets", records.ListOptions{Filter: `userId = "` + ownerA + `"`})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.TotalItems != 0 || len(res.Items) != 0 {
		t.Fatalf("B must not see A's pets: %+v", res)
	}

	if _, err := svc.List(ctx, schema.Caller{ID: ownerA}, "pets", records.ListOptions{Filter: "bogus ~ 1"}); !errors.Is(err, schema.ErrInvalidQuery) {
		t.Fatalf("expected invalid query, got %v", err)
	}
}

func TestUpdate_CannotReassignOwner(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	a := schema.Caller{ID: ownerA}

	rec, err := svc.Create(ctx, a, "pets", petInput(ownerA))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Update(ctx, a, "pets", rec.ID(), schema.Record{"userId": ownerB}); !errors.Is(err, schema.ErrForbidden) {
		t.Fatalf("moving pet to another owner must be forbidden, got %v", err)
	}
	if _, err := svc.Update(ctx, schema.Caller{ID: ownerB}, "pets", rec.ID(), schema.Record{"name": "x"}); !errors.Is(err, schema.ErrForbidden) {
		t.Fatalf("B must not edit A's pet, got %v", err)
	}

	upd, err := svc.Update(ctx, a, "pets", rec.ID(), schema.Record{"name": "Rex", "id": "zzzzzzzzzzzzzzz"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd["name"] != "Rex" || upd.ID() != rec.ID() || upd["size"] != "small" {
		t.Fatalf("unexpected update %v", upd)
	}
}

func TestDelete_RemovesRecordAndFiles(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	a := schema.Caller{ID: ownerA}

	in := petInput(ownerA)
	in["photo"] = schema.File{Name: "Mi Foto.PNG", Size: 3, MimeType: "image/png", Content: []byte("png")}
	rec, err := svc.Create(ctx, a, "pets", in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	photo := rec.String("photo")
	if !strings.HasPrefix(photo, "mi_foto_") || !strings.HasSuffix(photo, ".png") {
		t.Fatalf("unexpected stored name %q", photo)
	}

	obj, err := svc.OpenFile(ctx, "pets", rec.ID(), photo)
	if err != nil {
		t.Fatalf("open file: %v", err)
	}
	b, _ := io.ReadAll(obj.Body)
	_ = obj.Body.Close()
	if string(b) != "png" || obj.ContentType != "image/png" {
		t.Fatalf("unexpected file %q %s", b, obj.ContentType)
	}
	if _, err := svc.OpenFile(ctx, "pets", rec.ID(), "other.png"); !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("unreferenced file must be not found, got %v", err)
	}

	if err := svc.Delete(ctx, schema.Caller{ID: ownerB}, "pets", rec.ID()); !errors.Is(err, schema.ErrForbidden) {
		t.Fatalf("B must not delete, got %v", err)
	}
	if err := svc.Delete(ctx, a, "pets", rec.ID()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("blob must be removed with the record")
	}
	if _, err := svc.Get(ctx, a, "pets", rec.ID()); !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestUpdate_ReplacedFileIsDeleted(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	a := schema.Caller{ID: ownerA}

	in := petInput(ownerA)
	in["photo"] = schema.File{Name: "a.png", Size: 1, MimeType: "image/png", Content: []byte("a")}
	rec, err := svc.Create(ctx, a, "pets", in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	upd, err := svc.Update(ctx, a, "pets", rec.ID(), schema.Record{
		"photo": schema.File{Name: "b.png", Size: 1, MimeType: "image/png", Content: []byte("b")},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd.String("photo") == rec.String("photo") {
		t.Fatalf("photo must change")
	}
	if store.Len() != 1 {
		t.Fatalf("old blob must be deleted, have %d", store.Len())
	}
}

func TestStoredFilename(t *testing.T) {
	got := records.StoredFilename("../../etc/Pass Wd.JPG")
	if !strings.HasPrefix(got, "pass_wd_") || !strings.HasSuffix(got, ".jpg") || strings.Contains(got, "/") {
		t.Fatalf("unexpected sanitized name %q", got)
	}
	if got := records.StoredFilename("..."); !strings.HasPrefix(got, "file_") {
		t.Fatalf("empty base must fall back to file, got %q", got)
	}
}

func TestGet_HiddenRecordLooksMissing(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, schema.Caller{ID: ownerA}, "pets", petInput(ownerA))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	b := schema.Caller{ID: ownerB}
	if _, err := svc.Get(ctx, b, "pets", rec.ID()); !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("B must get not found for A's pet, got %v", err)
	}
	if _, err := svc.Get(ctx, b, "pets", "zzzzzzzzzzzzzzz"); !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("missing pet: %v", err)
	}
	// anónimo sigue viendo forbidden (401 en HTTP)
	if _, err := svc.Get(ctx, schema.Caller{}, "pets", rec.ID()); !errors.Is(err, schema.ErrForbidden) {
		t.Fatalf("anonymous must be forbidden, got %v", err)
	}
}

func TestFileField_RejectsForeignFilename(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	a := schema.Caller{ID: ownerA}

	in := petInput(ownerA)
	in["photo"] = "someone_else_abc123.png"
	_, err := svc.Create(ctx, a, "pets", in)
	if ve, ok := schema.AsValidation(err); !ok || ve.Fields["photo"].Code != "validation_invalid_file" {
		t.Fatalf("create with a bare filename must fail, got %v", err)
	}

	in = petInput(ownerA)
	in["photo"] = schema.File{Name: "a.png", Size: 1, MimeType: "image/png", Content: []byte("a")}
	rec, err := svc.Create(ctx, a, "pets", in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	photo := rec.String("photo")

	_, err = svc.Update(ctx, a, "pets", rec.ID(), schema.Record{"photo": "other_file.png"})
	if ve, ok := schema.AsValidation(err); !ok || ve.Fields["photo"].Code != "validation_invalid_file" {
		t.Fatalf("update with a foreign filename must fail, got %v", err)
	}

	// reenviar el nombre actual es válido
	upd, err := svc.Update(ctx, a, "pets", rec.ID(), schema.Record{"photo": photo, "name": "Rex"})
	if err != nil || upd.String("photo") != photo {
		t.Fatalf("keeping the stored name: %v %v", upd, err)
	}

	// vacío lo quita
	upd, err = svc.Update(ctx, a, "pets", rec.ID(), schema.Record{"photo": ""})
	if err != nil || upd.String("photo") != "" {
		t.Fatalf("clearing photo: %v %v", upd, err)
	}
	if store.Len() != 0 {
		t.Fatalf("cleared photo blob must be deleted, have %d", store.Len())
	}
}
