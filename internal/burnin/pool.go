package burnin

import (
	"context"
	"sync"
)

// RunPool ejecuta la operación sobre todos los items del plan con como máximo
// `workers` items en vuelo simultáneamente. Los items se despachan en el orden del
// plan pero pueden completarse en cualquier orden; cada item lo procesa exactamente
// un worker, exactamente una vez. El canal devuelto emite un ItemResult por item
// despachado y se cierra cuando todos los workers terminan.
//
// Cancelación cooperativa: si el contexto se cancela, el despacho de items nuevos se
// detiene de inmediato y los items en vuelo terminan o abortan en su siguiente
// transferencia de bloque.
func RunPool(ctx context.Context, root string, items []WorkItem, workers int, op Operation) <-chan ItemResult {
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan WorkItem)
	results := make(chan ItemResult, workers)

	// Despachador: entrega items en orden del plan hasta que se agoten o se cancele
	go func() {
		defer close(jobs)
		for _, item := range items {
			// La comprobación previa acota a un item el despacho tras la cancelación
			if ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case jobs <- item:
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				results <- op(ctx, root, item)
			}
		}()
	}

	// Punto único de fusión: cerrar el canal de resultados cuando termine la pool
	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}
