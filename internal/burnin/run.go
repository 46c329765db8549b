package burnin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// ReportName es el nombre del informe de fallos dentro del directorio objetivo.
// Solo se crea si la lista de fallos no está vacía, y sobrevive a la limpieza:
// es una salida de la ejecución, no un artefacto generado.
const ReportName = "burnin_failed.txt"

// Phase es el estado del controlador de la ejecución
type Phase int

const (
	PhaseInit Phase = iota
	PhaseReference
	PhasePlanning
	PhaseWriting
	PhaseVerifying
	PhaseSummarizing
	PhaseCleanup
	PhaseDone
	PhaseAborted
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "inicio"
	case PhaseReference:
		return "referencia"
	case PhasePlanning:
		return "planificación"
	case PhaseWriting:
		return "escritura"
	case PhaseVerifying:
		return "verificación"
	case PhaseSummarizing:
		return "resumen"
	case PhaseCleanup:
		return "limpieza"
	case PhaseDone:
		return "finalizado"
	case PhaseAborted:
		return "abortado"
	}
	return "desconocido"
}

// Config son las entradas que los colaboradores externos suministran al motor
type Config struct {
	TargetDir   string
	FreeMB      int
	FillPercent int
	UnitMB      int
	BlockSize   int
	Columns     int
	Workers     int
	Retain      bool
	Notify      func(Snapshot)
}

// DefaultConfig devuelve la configuración por defecto para un directorio objetivo:
// unidades de 1 GiB, 90% de llenado, 4 columnas, un worker menos que núcleos
func DefaultConfig(targetDir string, freeMB int) Config {
	workers := runtime.NumCPU() - 1
	if workers < 1 {
		workers = 1
	}
	return Config{
		TargetDir:   targetDir,
		FreeMB:      freeMB,
		FillPercent: 90,
		UnitMB:      1024,
		BlockSize:   DefaultBlockSize,
		Columns:     4,
		Workers:     workers,
	}
}

// Result es el resumen de la ejecución, emitido incluso en caso de aborto
type Result struct {
	Phase         Phase
	Aborted       bool
	Passed        bool
	TotalFiles    int
	TotalMB       int
	Failures      []string
	StartTime     time.Time
	Elapsed       time.Duration
	ThroughputMBs float64
	ReportPath    string
}

// Verdict devuelve el veredicto final de la ejecución
func (r *Result) Verdict() string {
	switch {
	case r.Aborted:
		return fmt.Sprintf("ABORTADO (%d fallos registrados)", len(r.Failures))
	case r.Passed:
		return "PASS"
	default:
		return fmt.Sprintf("FAIL (%d archivos)", len(r.Failures))
	}
}

// run mantiene el estado mutable de una ejecución. Solo el controlador lo toca:
// los workers son apátridas respecto a él.
type run struct {
	cfg     Config
	result  *Result
	plan    *WorkPlan
	seen    map[string]bool
	ioStart time.Time
	ioEnd   time.Time
}

// Run ejecuta el burn-in completo: referencia → planificación → escritura →
// verificación → resumen → limpieza. Devuelve siempre un Result no nulo; el error
// es no nulo en caso de precondición fallida, error fatal de dispositivo o
// interrupción externa.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = DefaultBlockSize
	}

	r := &run{
		cfg:    cfg,
		result: &Result{Phase: PhaseInit, StartTime: time.Now()},
		seen:   make(map[string]bool),
	}

	// Precondición: el plan es una función pura, así que un plan vacío se detecta
	// aquí, antes de cualquier I/O, sin nada que limpiar
	plan, err := Plan(cfg.FreeMB, cfg.FillPercent, cfg.UnitMB, cfg.Columns)
	if err != nil {
		r.result.Phase = PhaseAborted
		r.result.Aborted = true
		return r.result, err
	}

	// Fase de referencia: el blob debe existir antes de procesar ningún item
	r.result.Phase = PhaseReference
	r.emitPhase()
	blob, err := GenerateReference(ctx, cfg.TargetDir, cfg.UnitMB, cfg.BlockSize)
	if err != nil {
		return r.abort(fmt.Errorf("error generando referencia: %w", err))
	}

	r.result.Phase = PhasePlanning
	r.plan = plan
	r.result.TotalFiles = plan.Total()
	r.result.TotalMB = plan.Total() * cfg.UnitMB

	// Fase de escritura
	r.result.Phase = PhaseWriting
	r.emitPhase()
	r.ioStart = time.Now()
	if err := r.runPhase(ctx, PhaseWriting, WriteOp(blob, cfg.BlockSize)); err != nil {
		return r.abort(err)
	}
	if ctx.Err() != nil {
		return r.abort(fmt.Errorf("escritura interrumpida: %w", ctx.Err()))
	}

	// Fase de verificación: incondicional aunque haya fallos de escritura; un
	// archivo que no se escribió vuelve a fallar aquí y aflora de forma consistente
	r.result.Phase = PhaseVerifying
	r.emitPhase()
	if err := r.runPhase(ctx, PhaseVerifying, VerifyOp(cfg.BlockSize)); err != nil {
		return r.abort(err)
	}
	r.ioEnd = time.Now()
	if ctx.Err() != nil {
		return r.abort(fmt.Errorf("verificación interrumpida: %w", ctx.Err()))
	}

	// Resumen y limpieza; la limpieza corre sea cual sea el veredicto
	r.result.Phase = PhaseSummarizing
	r.summarize()

	r.result.Phase = PhaseCleanup
	r.emitPhase()
	if !cfg.Retain {
		if err := Cleanup(cfg.TargetDir, r.plan); err != nil {
			return r.result, fmt.Errorf("error en limpieza: %w", err)
		}
	}

	r.result.Phase = PhaseDone
	r.emitPhase()
	return r.result, nil
}

// runPhase ejecuta una fase completa de la pool y fusiona sus fallos en la lista de
// la ejecución, deduplicados por ruta (la primera aparición es la autoritativa)
func (r *run) runPhase(ctx context.Context, phase Phase, op Operation) error {
	phaseCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := RunPool(phaseCtx, r.cfg.TargetDir, r.plan.Items, r.cfg.Workers, op)
	agg := NewAggregator(phase, r.plan.Total(), r.cfg.Notify)
	fatal := agg.Consume(results, cancel)

	for _, path := range agg.Failures {
		if !r.seen[path] {
			r.seen[path] = true
			r.result.Failures = append(r.result.Failures, path)
		}
	}
	return fatal
}

// abort lleva el controlador al estado terminal Aborted: conserva los resultados
// parciales ya recogidos, produce el resumen de mejor esfuerzo y limpia los
// artefactos creados hasta el momento salvo que se pida retención
func (r *run) abort(cause error) (*Result, error) {
	r.result.Phase = PhaseAborted
	r.result.Aborted = true
	if !r.ioStart.IsZero() && r.ioEnd.IsZero() {
		r.ioEnd = time.Now()
	}
	r.summarize()
	if !r.cfg.Retain {
		// Limpieza de mejor esfuerzo; la causa original tiene prioridad
		_ = Cleanup(r.cfg.TargetDir, r.plan)
	}
	r.emitPhase()
	return r.result, cause
}

// summarize calcula veredicto y throughput y persiste el informe de fallos si hay
// alguno. El throughput se mide del inicio de la escritura al final de la verificación.
func (r *run) summarize() {
	r.result.Passed = !r.result.Aborted && len(r.result.Failures) == 0
	if !r.ioStart.IsZero() && !r.ioEnd.IsZero() {
		r.result.Elapsed = r.ioEnd.Sub(r.ioStart)
		if secs := r.result.Elapsed.Seconds(); secs > 0 {
			r.result.ThroughputMBs = float64(r.result.TotalMB) / secs
		}
	}
	if len(r.result.Failures) > 0 {
		report := filepath.Join(r.cfg.TargetDir, ReportName)
		content := strings.Join(r.result.Failures, "\n") + "\n"
		if err := os.WriteFile(report, []byte(content), 0644); err == nil {
			r.result.ReportPath = report
		}
	}
}

func (r *run) emitPhase() {
	if r.cfg.Notify != nil {
		total := 0
		if r.plan != nil {
			total = r.plan.Total()
		}
		r.cfg.Notify(Snapshot{Phase: r.result.Phase, Total: total, Failed: len(r.result.Failures)})
	}
}
