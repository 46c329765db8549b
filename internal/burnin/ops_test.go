package burnin

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// testBlob genera un blob de referencia pequeño para las pruebas de operaciones
func testBlob(t *testing.T, dir string) *ReferenceBlob {
	t.Helper()
	blob, err := GenerateReference(context.Background(), dir, 1, 4096)
	if err != nil {
		t.Fatalf("error generando blob de prueba: %v", err)
	}
	return blob
}

// TestWriteVerifyRoundTrip: un archivo escrito y verificado sin corrupción produce
// siempre Verified, y la verificación es idempotente
func TestWriteVerifyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	blob := testBlob(t, dir)
	item := WorkItem{Row: 1, Col: 1}
	ctx := context.Background()

	write := WriteOp(blob, 4096)
	if r := write(ctx, dir, item); r.Status != StatusWritten {
		t.Fatalf("escritura: status=%v err=%v", r.Status, r.Err)
	}

	verify := VerifyOp(4096)
	for i := 0; i < 2; i++ {
		if r := verify(ctx, dir, item); r.Status != StatusVerified {
			t.Fatalf("verificación %d: status=%v err=%v", i, r.Status, r.Err)
		}
	}

	// El archivo escrito debe ser una copia byte a byte de la referencia
	digest, err := hashFile(ctx, filepath.Join(dir, item.RelPath()), 4096)
	if err != nil {
		t.Fatal(err)
	}
	if digest != blob.Digest {
		t.Errorf("digest de la copia = %s, esperaba %s", digest, blob.Digest)
	}
}

// TestVerifyDetectaCorrupcion: un byte corrupto en un archivo hace fallar su
// verificación, y solo la suya
func TestVerifyDetectaCorrupcion(t *testing.T) {
	dir := t.TempDir()
	blob := testBlob(t, dir)
	ctx := context.Background()

	items := []WorkItem{{Row: 1, Col: 1}, {Row: 1, Col: 2}, {Row: 2, Col: 1}}
	write := WriteOp(blob, 4096)
	for _, item := range items {
		if r := write(ctx, dir, item); r.Status != StatusWritten {
			t.Fatalf("escritura de %s: %v", item.RelPath(), r.Err)
		}
	}

	// Corromper un byte a mitad del archivo 1/2
	corrupted := filepath.Join(dir, "1", "2")
	f, err := os.OpenFile(corrupted, os.O_RDWR, 0644)
	if err != nil {
		t.Fatal(err)
	}
	buf := []byte{0}
	if _, err := f.ReadAt(buf, 512*1024); err != nil {
		t.Fatal(err)
	}
	buf[0] ^= 0xFF
	if _, err := f.WriteAt(buf, 512*1024); err != nil {
		t.Fatal(err)
	}
	f.Close()

	verify := VerifyOp(4096)
	for _, item := range items {
		r := verify(ctx, dir, item)
		if item.RelPath() == "1/2" {
			if r.Status != StatusFailed {
				t.Errorf("%s: esperaba StatusFailed, obtuve %v", item.RelPath(), r.Status)
			}
		} else {
			if r.Status != StatusVerified {
				t.Errorf("%s: esperaba StatusVerified, obtuve %v (err=%v)", item.RelPath(), r.Status, r.Err)
			}
		}
	}
}

// TestVerifySinArchivo: verificar un item cuya escritura falló produce Failed, no
// un error fatal
func TestVerifySinArchivo(t *testing.T) {
	dir := t.TempDir()
	verify := VerifyOp(4096)
	r := verify(context.Background(), dir, WorkItem{Row: 9, Col: 9})
	if r.Status != StatusFailed {
		t.Errorf("esperaba StatusFailed, obtuve %v", r.Status)
	}
	if isFatalIO(r.Err) {
		t.Errorf("un archivo ausente no es un error fatal de dispositivo: %v", r.Err)
	}
}
