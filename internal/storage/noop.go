package storage

import (
	"context"
	"errors"
)

// NoopStore devuelve error indicando que no hay backend configurado.
type NoopStore struct{}

// Upload siempre retorna error, señalando que el recurso no está disponible.
func (NoopStore) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	return nil, errors.New("storage: blobstore no configurado")
}

// Delete siempre retorna error, señalando que el recurso no está disponible.
func (NoopStore) Delete(ctx context.Context, key string) error {
	return errors.New("storage: blobstore no configurado")
}
