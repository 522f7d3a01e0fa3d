package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

const receiptPrefix = "receipts/"

var receiptExt = map[string]string{
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"image/jpg":       ".jpg",
	"image/webp":      ".webp",
	"image/heic":      ".heic",
	"application/pdf": ".pdf",
}

// ReceiptStore writes payment receipts into a Firebase Storage bucket and
// hands back a tokenized download URL.
type ReceiptStore struct {
	client  *gcs.Client
	bucket  string
	timeout time.Duration
}

func NewReceiptStore(ctx context.Context, bucket, credentialsFile string) (*ReceiptStore, error) {
	if bucket == "" {
		return nil, errors.New("storage bucket is not configured")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "init storage client")
	}
	return &ReceiptStore{client: client, bucket: bucket, timeout: 30 * time.Second}, nil
}

func (s *ReceiptStore) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty receipt")
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	path := ReceiptObjectPath(uuid.NewString(), contentType)
	token := uuid.NewString()
	w := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{
		"firebaseStorageDownloadTokens": token,
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", errors.Wrapf(err, "write %s", path)
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrapf(err, "close %s", path)
	}
	return DownloadURL(s.bucket, path, token), nil
}

func (s *ReceiptStore) Close() error {
	return s.client.Close()
}

// ReceiptObjectPath names the object for a receipt of the given content type.
func ReceiptObjectPath(name, contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	return receiptPrefix + name + receiptExt[ct]
}

func DownloadURL(bucket, objectPath, token string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket, url.PathEscape(objectPath), token)
}
