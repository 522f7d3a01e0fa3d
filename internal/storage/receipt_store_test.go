package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiptObjectPath(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"image/png", "receipts/abc.png"},
		{"image/jpeg", "receipts/abc.jpg"},
		{"IMAGE/JPEG; charset=binary", "receipts/abc.jpg"},
		{"application/pdf", "receipts/abc.pdf"},
		{"application/octet-stream", "receipts/abc"},
		{"", "receipts/abc"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ReceiptObjectPath("abc", tt.contentType), tt.contentType)
	}
}

func TestDownloadURLEscapesPath(t *testing.T) {
	got := DownloadURL("motors.appspot.com", "receipts/abc.png", "tok")
	assert.Equal(t, "https://firebasestorage.googleapis.com/v0/b/motors.appspot.com/o/receipts%2Fabc.png?alt=media&token=tok", got)
}

func TestNewReceiptStoreRequiresBucket(t *testing.T) {
	_, err := NewReceiptStore(context.Background(), "", "")
	require.Error(t, err)
}
