package burnin

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// TestGenerateReference crea un blob pequeño y comprueba tamaño exacto y digest
// persistido coherente con el contenido
func TestGenerateReference(t *testing.T) {
	dir := t.TempDir()

	blob, err := GenerateReference(context.Background(), dir, 2, 4096)
	if err != nil {
		t.Fatalf("GenerateReference devolvió error: %v", err)
	}

	info, err := os.Stat(blob.Path)
	if err != nil {
		t.Fatalf("el blob no existe: %v", err)
	}
	if info.Size() != 2<<20 {
		t.Errorf("tamaño = %d, esperaba %d", info.Size(), 2<<20)
	}

	// El sidecar debe contener el mismo digest que el contenido real
	persisted, err := readDigestFile(blob.Path)
	if err != nil {
		t.Fatalf("error leyendo sidecar: %v", err)
	}
	if persisted != blob.Digest {
		t.Errorf("digest del sidecar = %s, esperaba %s", persisted, blob.Digest)
	}

	actual, err := hashFile(context.Background(), blob.Path, 4096)
	if err != nil {
		t.Fatalf("error recalculando digest: %v", err)
	}
	if actual != blob.Digest {
		t.Errorf("digest recalculado = %s, esperaba %s", actual, blob.Digest)
	}
}

// TestGenerateReferenceTamañoInvalido rechaza tamaños no positivos
func TestGenerateReferenceTamañoInvalido(t *testing.T) {
	if _, err := GenerateReference(context.Background(), t.TempDir(), 0, 4096); err == nil {
		t.Error("esperaba error con tamaño 0")
	}
}

// TestGenerateReferenceInterrumpida: la cancelación a mitad de escritura devuelve
// error en lugar de dejar un blob aparentemente válido
func TestGenerateReferenceInterrumpida(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	if _, err := GenerateReference(ctx, dir, 2, 4096); err == nil {
		t.Fatal("esperaba error de interrupción")
	}

	// El sidecar nunca debe existir si la generación no terminó
	if _, err := os.Stat(filepath.Join(dir, ReferenceName+DigestSuffix)); err == nil {
		t.Error("quedó un sidecar de una generación interrumpida")
	}
}
