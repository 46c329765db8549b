package burnin

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultBlockSize es el tamaño de bloque para transferencias (64 KB)
const DefaultBlockSize = 0x1 << 16

// Status es el resultado etiquetado de procesar un WorkItem
type Status int

const (
	StatusWritten Status = iota
	StatusVerified
	StatusFailed
)

// ItemResult es el resultado de procesar un WorkItem. Cada worker produce exactamente
// uno por item; el agregador lo consume exactamente una vez.
type ItemResult struct {
	Item   WorkItem
	Status Status
	Err    error
}

// Operation es el comportamiento por item que ejecuta la pool: escribir-y-hashear
// durante la fase de escritura, verificar durante la fase de verificación.
type Operation func(ctx context.Context, root string, item WorkItem) ItemResult

// WriteOp devuelve la operación de escritura: copia los bytes del blob de referencia
// a la ruta del item en transferencias de tamaño blockSize, calcula el digest del
// archivo nuevo y lo persiste como sidecar.
func WriteOp(blob *ReferenceBlob, blockSize int) Operation {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return func(ctx context.Context, root string, item WorkItem) ItemResult {
		dest := filepath.Join(root, item.RelPath())
		digest, err := copyAndHash(ctx, blob.Path, dest, blockSize)
		if err != nil {
			return ItemResult{Item: item, Status: StatusFailed, Err: err}
		}
		if err := writeDigestFile(dest, digest); err != nil {
			return ItemResult{Item: item, Status: StatusFailed, Err: err}
		}
		return ItemResult{Item: item, Status: StatusWritten}
	}
}

// VerifyOp devuelve la operación de verificación: recalcula el digest del archivo y
// lo compara con su sidecar. Una discrepancia es exactamente la condición que toda la
// ejecución existe para detectar; nunca es fatal.
func VerifyOp(blockSize int) Operation {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return func(ctx context.Context, root string, item WorkItem) ItemResult {
		path := filepath.Join(root, item.RelPath())
		expected, err := readDigestFile(path)
		if err != nil {
			return ItemResult{Item: item, Status: StatusFailed, Err: err}
		}
		actual, err := hashFile(ctx, path, blockSize)
		if err != nil {
			return ItemResult{Item: item, Status: StatusFailed, Err: err}
		}
		if actual != expected {
			return ItemResult{Item: item, Status: StatusFailed,
				Err: fmt.Errorf("digest no coincide en %s: esperado %s, obtenido %s", item.RelPath(), expected, actual)}
		}
		return ItemResult{Item: item, Status: StatusVerified}
	}
}

// copyAndHash copia src a dest en bloques de tamaño fijo, comprobando cancelación
// entre bloques, y devuelve el digest SHA-256 de los bytes escritos. Crea el
// directorio padre (la fila) si no existe.
func copyAndHash(ctx context.Context, src, dest string, blockSize int) (string, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", fmt.Errorf("error al crear directorio: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("error al abrir referencia: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("error al crear %s: %w", dest, err)
	}

	hasher := sha256.New()
	block := make([]byte, blockSize)
	for {
		select {
		case <-ctx.Done():
			out.Close()
			return "", fmt.Errorf("escritura interrumpida: %w", ctx.Err())
		default:
		}

		n, readErr := in.Read(block)
		if n > 0 {
			if _, err := out.Write(block[:n]); err != nil {
				out.Close()
				return "", fmt.Errorf("error escribiendo %s: %w", dest, err)
			}
			hasher.Write(block[:n])
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			out.Close()
			return "", fmt.Errorf("error leyendo referencia: %w", readErr)
		}
	}

	if err := out.Close(); err != nil {
		return "", fmt.Errorf("error cerrando %s: %w", dest, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// hashFile recalcula el digest SHA-256 de un archivo leyendo en bloques
func hashFile(ctx context.Context, path string, blockSize int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("error al abrir %s: %w", path, err)
	}
	defer f.Close()

	hasher := sha256.New()
	block := make([]byte, blockSize)
	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("verificación interrumpida: %w", ctx.Err())
		default:
		}

		n, readErr := f.Read(block)
		if n > 0 {
			hasher.Write(block[:n])
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", fmt.Errorf("error leyendo %s: %w", path, readErr)
		}
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
