package upload_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mfadel/spendwell/internal/upload"
)

func writeTempImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "receipt.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not-really-a-jpeg"), 0o600))
	return path
}

func TestUploadPostsMultipartForm(t *testing.T) {
	var gotPreset, gotFolder string
	var gotFile []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotPreset = r.FormValue("upload_preset")
		gotFolder = r.FormValue("folder")
		f, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		buf := make([]byte, 64)
		n, _ := f.Read(buf)
		gotFile = buf[:n]
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"secure_url":"https://res.cloudinary.example/image/upload/v1/receipt.jpg"}`))
	}))
	defer srv.Close()

	c := upload.NewCloudinaryWithEndpoint(srv.URL, "unsigned_preset")
	url, err := c.Upload(context.Background(), writeTempImage(t), "transactions")
	require.NoError(t, err)
	require.Equal(t, "https://res.cloudinary.example/image/upload/v1/receipt.jpg", url)
	require.Equal(t, "unsigned_preset", gotPreset)
	require.Equal(t, "transactions", gotFolder)
	require.Equal(t, "not-really-a-jpeg", string(gotFile))
}

func TestUploadPassesThroughHostedURLs(t *testing.T) {
	c := upload.NewCloudinaryWithEndpoint("http://127.0.0.1:0", "preset")

	for _, ref := range []string{"", "http://cdn.example/a.png", "https://cdn.example/a.png"} {
		url, err := c.Upload(context.Background(), ref, "wallets")
		require.NoError(t, err)
		require.Equal(t, ref, url)
	}
}

func TestUploadSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Upload preset not found"}}`))
	}))
	defer srv.Close()

	c := upload.NewCloudinaryWithEndpoint(srv.URL, "missing")
	_, err := c.Upload(context.Background(), writeTempImage(t), "wallets")
	require.ErrorContains(t, err, "Upload preset not found")
}

func TestUploadMissingFile(t *testing.T) {
	c := upload.NewCloudinaryWithEndpoint("http://127.0.0.1:0", "preset")
	_, err := c.Upload(context.Background(), filepath.Join(t.TempDir(), "nope.jpg"), "wallets")
	require.Error(t, err)
}

func TestPassthroughReturnsRefUnchanged(t *testing.T) {
	p := upload.Passthrough{}
	url, err := p.Upload(context.Background(), "file:///tmp/x.png", "wallets")
	require.NoError(t, err)
	require.Equal(t, "file:///tmp/x.png", url)
}
