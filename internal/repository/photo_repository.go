package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
)

// PhotoRepository keeps home photos in a GridFS bucket.
type PhotoRepository struct {
	DB *mongo.Database
}

func NewPhotoRepository(client *mongo.Client, dbName string) *PhotoRepository {
	return &PhotoRepository{DB: client.Database(dbName)}
}

// Upload stores r under filename and returns the GridFS file id as hex.
func (r *PhotoRepository) Upload(_ context.Context, src io.Reader, filename string) (string, error) {
	bucket, err := gridfs.NewBucket(r.DB)
	if err != nil {
		return "", fmt.Errorf("PhotoRepository.Upload: %w", err)
	}

	id, err := bucket.UploadFromStream(filename, src)
	if err != nil {
		return "", fmt.Errorf("PhotoRepository.Upload: %w", err)
	}
	return id.Hex(), nil
}

// Download returns the stored bytes for a file id.
func (r *PhotoRepository) Download(_ context.Context, fileID string) ([]byte, error) {
	bucket, err := gridfs.NewBucket(r.DB)
	if err != nil {
		return nil, fmt.Errorf("PhotoRepository.Download: %w", err)
	}

	objID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return nil, fmt.Errorf("PhotoRepository.Download: %w", err)
	}

	var buf bytes.Buffer
	if _, err := bucket.DownloadToStream(objID, &buf); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, fmt.Errorf("PhotoRepository.Download %s: %w", fileID, ErrNotFound)
		}
		return nil, fmt.Errorf("PhotoRepository.Download: %w", err)
	}
	return buf.Bytes(), nil
}
