package burnin

// Snapshot es el estado observable del progreso en un instante dado. Se entrega al
// callback de notificación en cada evento y una última vez al completarse la fase.
type Snapshot struct {
	Phase     Phase
	Completed int
	Total     int
	Failed    int
}

// Percent devuelve la fracción completada en [0, 1]
func (s Snapshot) Percent() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Total)
}

// Aggregator consume el flujo de resultados de una fase en orden de llegada (no en
// orden del plan), mantiene el contador monótono de completados y acumula las rutas
// fallidas. Es el único consumidor del canal de resultados: nadie más muta este
// estado, así que no necesita bloqueos.
type Aggregator struct {
	Phase     Phase
	Total     int
	Completed int
	Failures  []string
	Notify    func(Snapshot)

	fatal error
}

// NewAggregator crea el agregador de una fase con `total` items esperados
func NewAggregator(phase Phase, total int, notify func(Snapshot)) *Aggregator {
	return &Aggregator{Phase: phase, Total: total, Notify: notify}
}

// Consume drena el canal de resultados hasta que se cierre. Cada resultado incrementa
// el contador exactamente una vez, sin importar el orden de llegada. Un fallo por item
// se acumula; un error fatal de dispositivo invoca cancel (si se proporcionó) para
// detener el despacho, y se sigue drenando para no dejar workers bloqueados.
// Devuelve el primer error fatal observado, o nil.
func (a *Aggregator) Consume(results <-chan ItemResult, cancel func()) error {
	for r := range results {
		a.Completed++
		if r.Status == StatusFailed {
			a.Failures = append(a.Failures, r.Item.RelPath())
			if a.fatal == nil && isFatalIO(r.Err) {
				a.fatal = r.Err
				if cancel != nil {
					cancel()
				}
			}
		}
		a.emit()
	}
	return a.fatal
}

func (a *Aggregator) emit() {
	if a.Notify != nil {
		a.Notify(Snapshot{
			Phase:     a.Phase,
			Completed: a.Completed,
			Total:     a.Total,
			Failed:    len(a.Failures),
		})
	}
}
