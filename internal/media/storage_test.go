package media

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	inputs []*s3manager.UploadInput
	err    error
}

func (f *fakeUploader) Upload(in *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	return f.UploadWithContext(context.Background(), in, opts...)
}

func (f *fakeUploader) UploadWithContext(_ aws.Context, in *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &s3manager.UploadOutput{Location: "s3://" + *in.Bucket + "/" + *in.Key}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGenerateFilename(t *testing.T) {
	s := NewStorageWithUploader(Config{}, nil, testLogger())
	s.now = func() time.Time { return time.UnixMilli(1700000000123) }

	tests := []struct {
		original string
		prefix   string
		want     string
	}{
		{"cover.png", "cover", "cover_1700000000123.png"},
		{"holiday.photo.jpeg", "feed", "feed_1700000000123.jpeg"},
		{"noext", "", "bookora_1700000000123.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.original, func(t *testing.T) {
			assert.Equal(t, tt.want, s.GenerateFilename(tt.original, tt.prefix))
		})
	}
}

func TestUploadWithoutS3InlinesData(t *testing.T) {
	s, err := NewStorage(Config{}, testLogger())
	require.NoError(t, err)
	assert.False(t, s.IsConfigured())

	url, err := s.Upload(context.Background(), "a.png", "image/png", []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AQID", url)
}

func TestUploadToS3(t *testing.T) {
	fake := &fakeUploader{}
	s := NewStorageWithUploader(Config{Bucket: "media", PublicURL: "https://cdn.example.com/", KeyPrefix: "books"}, fake, testLogger())

	url, err := s.Upload(context.Background(), "cover_1.png", "image/png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/books/cover_1.png", url)

	require.Len(t, fake.inputs, 1)
	assert.Equal(t, "public-read", *fake.inputs[0].ACL)
	assert.Equal(t, "media", *fake.inputs[0].Bucket)
	assert.Equal(t, "books/cover_1.png", *fake.inputs[0].Key)
}

func TestUploadFailure(t *testing.T) {
	fake := &fakeUploader{err: errors.New("access denied")}
	s := NewStorageWithUploader(Config{Bucket: "media", PublicURL: "https://cdn.example.com"}, fake, testLogger())

	_, err := s.Upload(context.Background(), "x.png", "image/png", []byte("x"))
	assert.ErrorContains(t, err, "access denied")

	inline := s.UploadOrInline(context.Background(), "x.png", "image/png", []byte("x"))
	assert.Equal(t, "data:image/png;base64,eA==", inline)
}

func TestUploadDataURL(t *testing.T) {
	fake := &fakeUploader{}
	s := NewStorageWithUploader(Config{Bucket: "media", PublicURL: "https://cdn.example.com"}, fake, testLogger())
	s.now = func() time.Time { return time.UnixMilli(42) }

	got := s.UploadDataURL(context.Background(), "data:image/png;base64,AQID", "feed")
	assert.Equal(t, "https://cdn.example.com/feed_42.png", got)

	hosted := "https://example.com/a.jpg"
	assert.Equal(t, hosted, s.UploadDataURL(context.Background(), hosted, "feed"))
}

func TestParseDataURL(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		mime    string
		wantErr bool
	}{
		{"png", "data:image/png;base64,AQID", "image/png", false},
		{"no mime", "data:;base64,AQID", "application/octet-stream", false},
		{"not base64", "data:text/plain,hello", "", true},
		{"no comma", "data:image/png;base64", "", true},
		{"not a data url", "https://x/y.png", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mime, data, err := ParseDataURL(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDataURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.mime, mime)
			assert.Equal(t, []byte{1, 2, 3}, data)
		})
	}
}
