package storage

import "context"

// UploadInput representa una operación de subida simple.
type UploadInput struct {
	Key          string
	Body         []byte
	ContentType  string
	CacheControl string
}

// UploadResult describe el artefacto persistido.
type UploadResult struct {
	URL  string
	ETag string
}

// BlobStore define el comportamiento básico para almacenar y eliminar blobs.
// Las imágenes se particionan por ruta usuario/elemento; la ruta y la URL
// pública resultante viajan siempre juntas en el dominio.
type BlobStore interface {
	Upload(ctx context.Context, input UploadInput) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
}
