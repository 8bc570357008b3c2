package storage

import (
	"encoding/base64"
	"errors"
	"strings"
)

// DecodeDataURL separa un data URL (data:<tipo>;base64,<payload>) en tipo de
// contenido y bytes. Las imágenes llegan del tablero en este formato.
func DecodeDataURL(dataURL string) (contentType string, body []byte, err error) {
	dataURL = strings.TrimSpace(dataURL)
	if !strings.HasPrefix(dataURL, "data:") {
		return "", nil, errors.New("storage: data URL inválido")
	}

	rest := strings.TrimPrefix(dataURL, "data:")
	sep := strings.Index(rest, ",")
	if sep < 0 {
		return "", nil, errors.New("storage: data URL sin payload")
	}

	meta, payload := rest[:sep], rest[sep+1:]
	if !strings.HasSuffix(meta, ";base64") {
		return "", nil, errors.New("storage: solo se admite data URL base64")
	}
	contentType = strings.TrimSuffix(meta, ";base64")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	body, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, errors.New("storage: payload base64 inválido")
	}
	return contentType, body, nil
}
