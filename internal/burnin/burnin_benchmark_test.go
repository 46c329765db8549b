package burnin

import (
	"context"
	"testing"
)

// BenchmarkWriteAndHash mide la operación de escritura: copia del blob de
// referencia más cálculo del digest. El blob se genera fuera del bucle b.N para
// no medir el coste de entropía.
func BenchmarkWriteAndHash(b *testing.B) {
	dir := b.TempDir()
	blob, err := GenerateReference(context.Background(), dir, 4, DefaultBlockSize)
	if err != nil {
		b.Fatalf("Error generando referencia: %v", err)
	}

	op := WriteOp(blob, DefaultBlockSize)
	item := WorkItem{Row: 1, Col: 1}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if r := op(context.Background(), dir, item); r.Err != nil {
			b.Fatalf("Error en escritura: %v", r.Err)
		}
	}
}

// BenchmarkVerify mide la operación de verificación: relectura completa del
// archivo más comparación de digests
func BenchmarkVerify(b *testing.B) {
	dir := b.TempDir()
	blob, err := GenerateReference(context.Background(), dir, 4, DefaultBlockSize)
	if err != nil {
		b.Fatalf("Error generando referencia: %v", err)
	}

	item := WorkItem{Row: 1, Col: 1}
	if r := WriteOp(blob, DefaultBlockSize)(context.Background(), dir, item); r.Err != nil {
		b.Fatalf("Error preparando archivo: %v", r.Err)
	}

	op := VerifyOp(DefaultBlockSize)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if r := op(context.Background(), dir, item); r.Status != StatusVerified {
			b.Fatalf("Verificación fallida: %v", r.Err)
		}
	}
}
