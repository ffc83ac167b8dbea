package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestPublish(t *testing.T) {
	fake := &fakeS3{}
	p := &s3Publisher{bucket: "relatorios", client: fake}

	key, err := p.Publish(context.Background(), []byte("PK\x03\x04"), "output/0001_vara_01_01_2024.xlsx")
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if key != "reports/0001_vara_01_01_2024.xlsx" {
		t.Fatalf("unexpected key %q", key)
	}
	if aws.ToString(fake.input.Bucket) != "relatorios" || aws.ToString(fake.input.Key) != key {
		t.Fatalf("unexpected input %+v", fake.input)
	}
	if aws.ToString(fake.input.ContentType) != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("unexpected content type %q", aws.ToString(fake.input.ContentType))
	}
	if string(fake.body) != "PK\x03\x04" {
		t.Fatalf("body not forwarded")
	}
}

func TestPublish_Errors(t *testing.T) {
	p := &s3Publisher{bucket: "b", client: &fakeS3{err: errors.New("denied")}}
	if _, err := p.Publish(context.Background(), nil, ""); err == nil {
		t.Fatalf("expected error for empty filename")
	}
	if _, err := p.Publish(context.Background(), []byte("x"), "a.xlsx"); err == nil {
		t.Fatalf("expected upload error")
	}
}

func TestContentType_Sniffs(t *testing.T) {
	if got := ContentType("noext", []byte("%PDF-1.4")); got != "application/pdf" {
		t.Fatalf("got %q", got)
	}
}
