package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockS3 struct {
	mock.Mock
	body []byte
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(aws.ToString(params.Bucket), aws.ToString(params.Key), aws.ToString(params.ContentType))
	if params.Body != nil {
		m.body, _ = io.ReadAll(params.Body)
	}
	if err := args.Error(0); err != nil {
		return nil, err
	}
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(aws.ToString(params.Bucket), aws.ToString(params.Key))
	if err := args.Error(0); err != nil {
		return nil, err
	}
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Client_Upload(t *testing.T) {
	api := new(mockS3)
	api.On("PutObject", "intake", "prod/leads/a.jpg", "image/jpeg").Return(nil)

	client := NewS3ClientWithAPI(api, S3Config{Bucket: "intake", BasePath: "prod/", CDNURL: "https://cdn.example.com/"})
	result, err := client.Upload(context.Background(), "leads/a.jpg", strings.NewReader("jpeg"), "image/jpeg", 4)
	require.NoError(t, err)

	assert.Equal(t, "s3", result.Storage)
	assert.Equal(t, "prod/leads/a.jpg", result.Key)
	assert.Equal(t, "https://cdn.example.com/prod/leads/a.jpg", result.URL)
	assert.Equal(t, int64(4), result.Size)
	assert.Equal(t, []byte("jpeg"), api.body)
	api.AssertExpectations(t)
}

func TestS3Client_UploadError(t *testing.T) {
	api := new(mockS3)
	api.On("PutObject", "intake", "a.jpg", "image/png").Return(errors.New("access denied"))

	client := NewS3ClientWithAPI(api, S3Config{Bucket: "intake"})
	_, err := client.Upload(context.Background(), "a.jpg", strings.NewReader("x"), "image/png", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestS3Client_Delete(t *testing.T) {
	api := new(mockS3)
	api.On("DeleteObject", "intake", "leads/a.jpg").Return(nil)

	client := NewS3ClientWithAPI(api, S3Config{Bucket: "intake"})
	require.NoError(t, client.Delete(context.Background(), "leads/a.jpg"))
	api.AssertExpectations(t)
}

func TestS3Client_URLWithoutCDN(t *testing.T) {
	client := NewS3ClientWithAPI(new(mockS3), S3Config{Bucket: "intake"})
	assert.Equal(t, "https://intake.s3.amazonaws.com/leads/a.jpg", client.GetCDNURL("leads/a.jpg"))
}

func TestNewS3Client_RequiresBucket(t *testing.T) {
	_, err := NewS3Client(S3Config{})
	assert.Error(t, err)
}

func TestGenerateKey(t *testing.T) {
	key := GenerateKey("leads", "Photo.JPG")
	assert.True(t, strings.HasPrefix(key, "leads/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.NotEqual(t, key, GenerateKey("leads", "Photo.JPG"))
}
