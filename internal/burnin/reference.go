package burnin

import (
	"bufio"
	"context"
	cryptorand "crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	// ReferenceName es el nombre del blob de referencia dentro del directorio objetivo
	ReferenceName = "reference.dat"
	// DigestSuffix es la extensión del archivo de digest que acompaña a cada archivo
	DigestSuffix = ".sha256"
)

// ReferenceBlob es el archivo de referencia con contenido aleatorio del que se copian
// todos los archivos generados. Inmutable una vez creado; todos los workers lo leen
// concurrentemente durante la fase de escritura sin necesidad de bloqueos.
type ReferenceBlob struct {
	Path   string
	SizeMB int
	Digest string
}

// GenerateReference crea el blob de referencia de exactamente sizeMB megabytes con
// bytes aleatorios criptográficamente fuertes, calcula su digest SHA-256 durante la
// escritura y lo persiste en un archivo junto al blob. La fase de escritura copia de
// este blob en lugar de generar datos aleatorios por archivo: se paga el coste de
// entropía una sola vez a cambio de throughput.
func GenerateReference(ctx context.Context, dir string, sizeMB, blockSize int) (*ReferenceBlob, error) {
	if sizeMB <= 0 {
		return nil, fmt.Errorf("tamaño de referencia inválido: %d MB", sizeMB)
	}
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}

	path := filepath.Join(dir, ReferenceName)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("error al crear blob de referencia: %w", err)
	}

	hasher := sha256.New()
	w := bufio.NewWriterSize(io.MultiWriter(f, hasher), blockSize)

	block := make([]byte, blockSize)
	remaining := int64(sizeMB) << 20
	for remaining > 0 {
		select {
		case <-ctx.Done():
			f.Close()
			return nil, fmt.Errorf("generación de referencia interrumpida: %w", ctx.Err())
		default:
		}

		n := int64(blockSize)
		if n > remaining {
			n = remaining
		}
		if _, err := cryptorand.Read(block[:n]); err != nil {
			f.Close()
			return nil, fmt.Errorf("error generando datos aleatorios: %w", err)
		}
		if _, err := w.Write(block[:n]); err != nil {
			f.Close()
			return nil, fmt.Errorf("error escribiendo blob de referencia: %w", err)
		}
		remaining -= n
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return nil, fmt.Errorf("error escribiendo blob de referencia: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("error cerrando blob de referencia: %w", err)
	}

	blob := &ReferenceBlob{
		Path:   path,
		SizeMB: sizeMB,
		Digest: hex.EncodeToString(hasher.Sum(nil)),
	}
	if err := writeDigestFile(path, blob.Digest); err != nil {
		return nil, err
	}
	return blob, nil
}

// writeDigestFile persiste el digest en formato compatible con sha256sum:
// "<hex>  <nombre>\n"
func writeDigestFile(path, digest string) error {
	line := fmt.Sprintf("%s  %s\n", digest, filepath.Base(path))
	if err := os.WriteFile(path+DigestSuffix, []byte(line), 0644); err != nil {
		return fmt.Errorf("error al escribir digest de %s: %w", filepath.Base(path), err)
	}
	return nil
}

// readDigestFile recupera el digest persistido junto a un archivo
func readDigestFile(path string) (string, error) {
	data, err := os.ReadFile(path + DigestSuffix)
	if err != nil {
		return "", fmt.Errorf("error al leer digest de %s: %w", filepath.Base(path), err)
	}
	for i, b := range data {
		if b == ' ' || b == '\n' || b == '\t' {
			return string(data[:i]), nil
		}
	}
	return string(data), nil
}
