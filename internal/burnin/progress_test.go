package burnin

import (
	"fmt"
	"syscall"
	"testing"
)

// feed entrega resultados por un canal como lo haría la pool
func feed(results []ItemResult) <-chan ItemResult {
	ch := make(chan ItemResult, len(results))
	for _, r := range results {
		ch <- r
	}
	close(ch)
	return ch
}

// TestAggregatorConteoExacto: el contador de completados es exacto sea cual sea el
// orden de llegada, y el último snapshot notificado es el estado final
func TestAggregatorConteoExacto(t *testing.T) {
	// Orden de llegada distinto del orden del plan, con fallos intercalados
	results := []ItemResult{
		{Item: WorkItem{Row: 3, Col: 1}, Status: StatusVerified},
		{Item: WorkItem{Row: 1, Col: 2}, Status: StatusFailed, Err: fmt.Errorf("digest no coincide")},
		{Item: WorkItem{Row: 1, Col: 1}, Status: StatusVerified},
		{Item: WorkItem{Row: 2, Col: 2}, Status: StatusFailed, Err: fmt.Errorf("digest no coincide")},
		{Item: WorkItem{Row: 2, Col: 1}, Status: StatusVerified},
		{Item: WorkItem{Row: 3, Col: 2}, Status: StatusVerified},
	}

	var snapshots []Snapshot
	agg := NewAggregator(PhaseVerifying, len(results), func(s Snapshot) {
		snapshots = append(snapshots, s)
	})

	if err := agg.Consume(feed(results), nil); err != nil {
		t.Fatalf("Consume devolvió error fatal: %v", err)
	}

	if agg.Completed != len(results) {
		t.Errorf("completados = %d, esperaba %d", agg.Completed, len(results))
	}
	if len(snapshots) != len(results) {
		t.Errorf("%d notificaciones, esperaba una por evento (%d)", len(snapshots), len(results))
	}

	final := snapshots[len(snapshots)-1]
	if final.Completed != final.Total {
		t.Errorf("snapshot final incompleto: %d/%d", final.Completed, final.Total)
	}
	if final.Percent() != 1.0 {
		t.Errorf("porcentaje final = %f, esperaba 1.0", final.Percent())
	}

	// Los fallos se conservan en orden de llegada
	want := []string{"1/2", "2/2"}
	if len(agg.Failures) != len(want) {
		t.Fatalf("fallos = %v, esperaba %v", agg.Failures, want)
	}
	for i, path := range want {
		if agg.Failures[i] != path {
			t.Errorf("fallo %d = %s, esperaba %s", i, agg.Failures[i], path)
		}
	}
}

// TestAggregatorErrorFatal: un error de dispositivo a nivel de ejecución invoca la
// cancelación de inmediato y se propaga; los fallos por item no lo hacen
func TestAggregatorErrorFatal(t *testing.T) {
	results := []ItemResult{
		{Item: WorkItem{Row: 1, Col: 1}, Status: StatusWritten},
		{Item: WorkItem{Row: 1, Col: 2}, Status: StatusFailed, Err: fmt.Errorf("error escribiendo: %w", syscall.ENOSPC)},
		{Item: WorkItem{Row: 2, Col: 1}, Status: StatusWritten},
	}

	cancelled := false
	agg := NewAggregator(PhaseWriting, len(results), nil)
	err := agg.Consume(feed(results), func() { cancelled = true })

	if err == nil {
		t.Fatal("esperaba error fatal por disco lleno")
	}
	if !cancelled {
		t.Error("el error fatal no invocó la cancelación")
	}
	// El canal se drena entero aunque haya un fatal
	if agg.Completed != len(results) {
		t.Errorf("completados = %d, esperaba %d", agg.Completed, len(results))
	}
}

// TestAggregatorFalloNoFatal: un fallo ordinario no cancela ni se propaga
func TestAggregatorFalloNoFatal(t *testing.T) {
	results := []ItemResult{
		{Item: WorkItem{Row: 1, Col: 1}, Status: StatusFailed, Err: fmt.Errorf("digest no coincide")},
	}

	agg := NewAggregator(PhaseVerifying, 1, nil)
	err := agg.Consume(feed(results), func() { t.Error("cancelación invocada por un fallo ordinario") })
	if err != nil {
		t.Errorf("Consume devolvió %v, esperaba nil", err)
	}
}
