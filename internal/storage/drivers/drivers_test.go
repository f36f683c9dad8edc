package drivers

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLocalFS_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	d, err := NewLocalFS(dir, "/archives")
	require.NoError(t, err)

	key := "abcdef-app-2024-01-20.log"
	require.NoError(t, d.Save(ctx, key, strings.NewReader("line\n"), "text/plain"))
	_, err = os.Stat(filepath.Join(dir, "ab", "cd", key))
	require.NoError(t, err)

	rc, contentType, err := d.Get(ctx, key)
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "line\n", string(body))
	assert.Equal(t, "text/plain", contentType)

	url, err := d.GenerateURL(ctx, key, 0)
	require.NoError(t, err)
	assert.Equal(t, "/archives/"+key, url)

	require.NoError(t, d.Delete(ctx, key))
	_, _, err = d.Get(ctx, key)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, d.Delete(ctx, key))
}

func TestLocalFS_RejectsPathKeys(t *testing.T) {
	d, err := NewLocalFS(t.TempDir(), "")
	require.NoError(t, err)
	assert.Error(t, d.Save(context.Background(), "../escape", strings.NewReader("x"), "text/plain"))
	assert.Error(t, d.Save(context.Background(), "", strings.NewReader("x"), "text/plain"))
}

type mockS3 struct{ mock.Mock }

func (m *mockS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, in)
	return &s3.PutObjectOutput{}, args.Error(0)
}

func (m *mockS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}

func (m *mockS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, in)
	return &s3.DeleteObjectOutput{}, args.Error(0)
}

type mockPresigner struct{ mock.Mock }

func (m *mockPresigner) PresignGetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	args := m.Called(ctx, in)
	return &v4.PresignedHTTPRequest{URL: args.String(0)}, args.Error(1)
}

func TestS3_Save(t *testing.T) {
	api := &mockS3{}
	d := &S3{API: api, Bucket: "logs"}

	api.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return *in.Bucket == "logs" && *in.Key == "k1" && *in.ContentType == "text/plain"
	})).Return(nil).Once()
	api.On("PutObject", mock.Anything, mock.Anything).Return(errors.New("denied")).Once()

	require.NoError(t, d.Save(context.Background(), "k1", strings.NewReader("x"), "text/plain"))
	err := d.Save(context.Background(), "k2", strings.NewReader("x"), "text/plain")
	assert.ErrorContains(t, err, "denied")
	api.AssertExpectations(t)
}

func TestS3_Get(t *testing.T) {
	api := &mockS3{}
	d := &S3{API: api, Bucket: "logs"}
	api.On("GetObject", mock.Anything, mock.Anything).Return(&s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader("data")),
	}, nil)

	rc, contentType, err := d.Get(context.Background(), "k1")
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, "application/octet-stream", contentType)
}

func TestS3_GenerateURL(t *testing.T) {
	presigner := &mockPresigner{}
	d := &S3{Presigner: presigner, Bucket: "logs"}
	presigner.On("PresignGetObject", mock.Anything, mock.Anything).Return("https://signed/k1", nil)

	url, err := d.GenerateURL(context.Background(), "k1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "https://signed/k1", url)

	d.PublicURL = "https://cdn.example.com"
	url, err = d.GenerateURL(context.Background(), "k1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/k1", url)
	presigner.AssertNumberOfCalls(t, "PresignGetObject", 1)
}
