package service_test

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeImage(t *testing.T) {
	img, err := service.DecodeImage(testhelpers.PNGDataURI())
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, "png", img.Ext())

	bare := strings.TrimPrefix(testhelpers.PNGDataURI(), "data:image/png;base64,")
	img, err = service.DecodeImage(bare)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
}

func TestDecodeImageRejects(t *testing.T) {
	tests := map[string]string{
		"not base64":       "data:image/png;base64,%%%",
		"missing encoding": "data:image/png,abc",
		"empty":            "",
		"plain text":       "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("just some text")),
		"too large":        base64.StdEncoding.EncodeToString(make([]byte, service.MaxImageSize+1)),
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := service.DecodeImage(raw)
			assert.Error(t, err)
		})
	}
}

type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := strings.TrimPrefix(r.URL.Path, "/recipes/")
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		b.objects[key] = body
		b.types[key] = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		delete(b.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestS3ImageStoreSaveAndDelete(t *testing.T) {
	bucket := &fakeBucket{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(bucket)
	defer srv.Close()

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(srv.URL),
		UsePathStyle: true,
		Credentials: aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "test", SecretAccessKey: "test"}, nil
		}),
	})
	store := service.NewS3ImageStore(&config.S3Config{Client: client, BucketName: "recipes", Region: "us-east-1"}, logger.Nop())

	img, err := service.DecodeImage(testhelpers.PNGDataURI())
	require.NoError(t, err)

	ref, err := store.Save(context.Background(), img)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "https://recipes.s3.us-east-1.amazonaws.com/recipe-images/"))
	assert.True(t, strings.HasSuffix(ref, ".png"))

	key := strings.TrimPrefix(ref, "https://recipes.s3.us-east-1.amazonaws.com/")
	bucket.mu.Lock()
	assert.Equal(t, img.Data, bucket.objects[key])
	assert.Equal(t, "image/png", bucket.types[key])
	bucket.mu.Unlock()

	require.NoError(t, store.Delete(context.Background(), ref))
	bucket.mu.Lock()
	assert.NotContains(t, bucket.objects, key)
	bucket.mu.Unlock()

	assert.Error(t, store.Delete(context.Background(), "https://elsewhere.example.com/x.png"))
}
