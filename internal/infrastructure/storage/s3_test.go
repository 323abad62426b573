package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3Store_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *S3StoreConfig
		wantErr string
	}{
		{
			name:    "nil config",
			cfg:     nil,
			wantErr: "configuration is required",
		},
		{
			name: "missing bucket",
			cfg: &S3StoreConfig{
				AccessKey: "key",
				SecretKey: "secret",
			},
			wantErr: "bucket is required",
		},
		{
			name: "missing access key",
			cfg: &S3StoreConfig{
				Bucket:    "print-artifacts",
				SecretKey: "secret",
			},
			wantErr: "access key is required",
		},
		{
			name: "missing secret key",
			cfg: &S3StoreConfig{
				Bucket:    "print-artifacts",
				AccessKey: "key",
			},
			wantErr: "secret key is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewS3Store(tt.cfg)
			require.Error(t, err)
			assert.Nil(t, store)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewS3Store_ValidConfig(t *testing.T) {
	store, err := NewS3Store(&S3StoreConfig{
		Endpoint:     "localhost:9000",
		Bucket:       "print-artifacts",
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		UsePathStyle: true,
	})
	require.NoError(t, err)
	assert.NotNil(t, store)
	assert.Equal(t, "print-artifacts", store.Bucket())
}
