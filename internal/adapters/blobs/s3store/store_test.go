package s3store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"taxi-pet/internal/ports/blobs"
)

type object struct {
	body        []byte
	contentType string
}

type fakeS3 struct {
	objects map[string]object
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, _ := io.ReadAll(in.Body)
	f.objects[aws.ToString(in.Bucket)+"|"+aws.ToString(in.Key)] = object{body: b, contentType: aws.ToString(in.ContentType)}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	o, ok := f.objects[aws.ToString(in.Bucket)+"|"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(o.body)),
		ContentType:   aws.String(o.contentType),
		ContentLength: aws.Int64(int64(len(o.body))),
	}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Bucket)+"|"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestStore_PutOpenDelete(t *testing.T) {
	ctx := context.Background()
	api := &fakeS3{objects: map[string]object{}}
	s := newStore(api, "bucket", "/uploads/")

	if err := s.Put(ctx, "pbc_pets/abc/photo_x.png", "image/png", []byte("png")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, ok := api.objects["bucket|uploads/pbc_pets/abc/photo_x.png"]; !ok {
		t.Fatalf("prefix not applied: %v", api.objects)
	}

	obj, err := s.Open(ctx, "pbc_pets/abc/photo_x.png")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer obj.Body.Close()
	b, _ := io.ReadAll(obj.Body)
	if string(b) != "png" || obj.ContentType != "image/png" || obj.Size != 3 {
		t.Fatalf("unexpected object %q %+v", b, obj)
	}

	if err := s.Delete(ctx, "pbc_pets/abc/photo_x.png"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Open(ctx, "pbc_pets/abc/photo_x.png"); !errors.Is(err, blobs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
