package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
	supa "github.com/supabase-community/supabase-go"
)

// SupabaseStore uploads objects into one Supabase Storage bucket
type SupabaseStore struct {
	client  *supa.Client
	baseURL string
	bucket  string
}

func NewSupabaseStore(url, serviceKey, bucket string) (*SupabaseStore, error) {
	client, err := supa.NewClient(url, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return &SupabaseStore{
		client:  client,
		baseURL: strings.TrimRight(url, "/"),
		bucket:  bucket,
	}, nil
}

// Upload writes body at objectPath, replacing any existing object
func (s *SupabaseStore) Upload(ctx context.Context, objectPath string, body io.Reader, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	upsert := true
	_, err := s.client.Storage.UploadFile(s.bucket, objectPath, body, storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return fmt.Errorf("upload %s to bucket %s: %w", objectPath, s.bucket, err)
	}
	return nil
}

// PublicURL is the public object address for objectPath
func (s *SupabaseStore) PublicURL(objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s", s.baseURL, objectPath)
}
