//go:build integration

package blob

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupMinIO(t *testing.T) *S3Store {
	t.Helper()

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     "minioadmin",
			"MINIO_ROOT_PASSWORD": "minioadmin",
		},
		Cmd:        []string{"server", "/data"},
		WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start minio container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate minio container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	store, err := NewS3Store(ctx, S3Config{
		Endpoint:     "http://" + host + ":" + port.Port(),
		Region:       "us-east-1",
		Bucket:       "parentingo-test",
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		UsePathStyle: true,
	})
	require.NoError(t, err)
	return store
}

func TestS3Store_PutDelete_Integration(t *testing.T) {
	store := setupMinIO(t)
	ctx := context.Background()

	url, err := store.Put(ctx, "images/test.png", strings.NewReader("not really a png"), "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, "/parentingo-test/images/test.png"))

	require.NoError(t, store.Delete(ctx, url))
	assert.ErrorIs(t, store.Delete(ctx, "https://example.com/x"), ErrUnknownURL)

	// Objects are private by default; the request only proves the URL
	// points at the bucket.
	resp, err := http.Get(url)
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEqual(t, http.StatusOK, resp.StatusCode)
}
