package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/TheBluWiz/disk-burnin/internal/baseline"
	"github.com/TheBluWiz/disk-burnin/internal/burnin"
	"github.com/TheBluWiz/disk-burnin/internal/disk"
	"github.com/TheBluWiz/disk-burnin/internal/history"
	"github.com/TheBluWiz/disk-burnin/internal/ui"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// Códigos de salida: éxito, fallo y ejecución interrumpida son tres resultados
// distinguibles para quien invoca
const (
	exitPass        = 0
	exitFail        = 1
	exitInterrupted = 130
)

var (
	dirFlag     = flag.String("dir", "", "directorio objetivo a quemar (obligatorio)")
	fillFlag    = flag.Int("fill", 90, "porcentaje del espacio libre a llenar (0-100)")
	unitFlag    = flag.Int("unit", 1024, "tamaño de la unidad de referencia en MB")
	blockFlag   = flag.Int("block", burnin.DefaultBlockSize, "tamaño de bloque para transferencias en bytes")
	colsFlag    = flag.Int("cols", 4, "archivos por fila")
	workersFlag = flag.Int("workers", 0, "número de workers (0 = núcleos - 1)")
	freeFlag    = flag.Int("free", 0, "espacio libre en MB (0 = detectar)")
	retainFlag  = flag.Bool("retain", false, "conservar los datos generados al terminar")
	forceFlag   = flag.Bool("force", false, "permitir quemar el punto de montaje raíz")
	noUIFlag    = flag.Bool("no-ui", false, "desactivar la barra de progreso interactiva")
	histFlag    = flag.String("history", history.DefaultPath(), "base de datos del historial (vacío = no registrar)")
)

func printHeader(text string) {
	fmt.Printf("\n%s%s%s\n", colorBold+colorCyan, text, colorReset)
	fmt.Println(strings.Repeat("=", 60))
}

func printError(text string) {
	fmt.Printf("%s✗ %s%s\n", colorRed, text, colorReset)
}

func printInfo(text string) {
	fmt.Printf("%sℹ %s%s\n", colorCyan, text, colorReset)
}

func main() {
	flag.Parse()

	if *dirFlag == "" {
		printError("falta el directorio objetivo (-dir)")
		flag.Usage()
		os.Exit(exitFail)
	}

	printHeader("DISK BURN-IN")
	fmt.Printf("Fecha: %s\n", time.Now().Format("2006-01-02 15:04:05"))

	if err := disk.EnsureWritable(*dirFlag); err != nil {
		printError(err.Error())
		os.Exit(exitFail)
	}
	if !*forceFlag {
		if root, err := disk.IsRootMount(*dirFlag); err == nil && root {
			printError("el directorio vive en el montaje raíz; usa -force para quemarlo igualmente")
			os.Exit(exitFail)
		}
	}

	if info, err := disk.Info(*dirFlag); err == nil {
		fmt.Println()
		fmt.Print(info)
	}

	snap, err := baseline.Capture(*dirFlag)
	if err != nil {
		printError(fmt.Sprintf("Error en baseline: %v", err))
		os.Exit(exitFail)
	}
	fmt.Printf("CPU Idle: %.1f%% | RAM disponible: %s | Disco libre: %s\n",
		snap.CPUIdlePercent,
		disk.FormatBytes(snap.MemoryAvailable),
		disk.FormatBytes(snap.DiskFree))

	freeMB := *freeFlag
	if freeMB <= 0 {
		freeMB = int(snap.DiskFree >> 20)
	}
	workers := *workersFlag
	if workers <= 0 {
		workers = baseline.RecommendedWorkers()
	}

	cfg := burnin.Config{
		TargetDir:   *dirFlag,
		FreeMB:      freeMB,
		FillPercent: *fillFlag,
		UnitMB:      *unitFlag,
		BlockSize:   *blockFlag,
		Columns:     *colsFlag,
		Workers:     workers,
		Retain:      *retainFlag,
	}

	printInfo(fmt.Sprintf("Llenando el %d%% de %d MB libres con unidades de %d MB (%d workers)",
		cfg.FillPercent, cfg.FreeMB, cfg.UnitMB, cfg.Workers))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var result *burnin.Result
	var runErr error
	if !*noUIFlag && isatty.IsTerminal(os.Stdout.Fd()) {
		result, runErr = ui.Run(ctx, cfg)
	} else {
		cfg.Notify = plainNotify()
		result, runErr = burnin.Run(ctx, cfg)
		fmt.Println()
	}

	if result != nil {
		displaySummary(result)
		recordHistory(result)
	}

	switch {
	case runErr != nil && errors.Is(runErr, context.Canceled):
		printError("Ejecución interrumpida")
		os.Exit(exitInterrupted)
	case runErr != nil:
		printError(fmt.Sprintf("Error: %v", runErr))
		os.Exit(exitFail)
	case !result.Passed:
		os.Exit(exitFail)
	}
	os.Exit(exitPass)
}

// plainNotify devuelve el render de progreso para terminales no interactivas:
// una sola línea de ancho acotado, redibujada en cada evento
func plainNotify() func(burnin.Snapshot) {
	const width = 80
	return func(s burnin.Snapshot) {
		line := fmt.Sprintf("[%s] %5.1f%% (%d/%d)", s.Phase, s.Percent()*100, s.Completed, s.Total)
		if s.Failed > 0 {
			line += fmt.Sprintf(" | %d fallos", s.Failed)
		}
		if len(line) > width {
			line = line[:width]
		}
		fmt.Printf("\r%-*s", width, line)
	}
}

func displaySummary(result *burnin.Result) {
	printHeader("RESUMEN")

	verdictColor := colorGreen
	if !result.Passed {
		verdictColor = colorRed
	}
	fmt.Printf("Veredicto: %s%s%s\n", colorBold+verdictColor, result.Verdict(), colorReset)
	fmt.Printf("Datos: %d archivos, %s\n", result.TotalFiles, disk.FormatBytes(uint64(result.TotalMB)<<20))
	if result.Elapsed > 0 {
		fmt.Printf("Duración (escritura + verificación): %v\n", result.Elapsed.Round(time.Millisecond))
		fmt.Printf("Throughput: %s%.2f MB/s%s\n", colorCyan, result.ThroughputMBs, colorReset)
	}

	if len(result.Failures) > 0 {
		fmt.Printf("\n%sArchivos con fallos:%s\n", colorYellow, colorReset)
		for _, path := range result.Failures {
			fmt.Printf("  %s\n", path)
		}
		if result.ReportPath != "" {
			printInfo(fmt.Sprintf("Informe de fallos: %s", result.ReportPath))
		}
	}
}

func recordHistory(result *burnin.Result) {
	if *histFlag == "" {
		return
	}
	store, err := history.Open(*histFlag)
	if err != nil {
		printError(fmt.Sprintf("Historial no disponible: %v", err))
		return
	}
	defer store.Close()

	if err := store.Record(*dirFlag, result); err != nil {
		printError(fmt.Sprintf("Error registrando historial: %v", err))
		return
	}

	// Mostrar las últimas pasadas del historial para comparar
	if entries, err := store.Recent(5); err == nil && len(entries) > 1 {
		fmt.Printf("\n%sÚltimas ejecuciones:%s\n", colorYellow, colorReset)
		for _, e := range entries {
			fmt.Printf("  %s  %-28s %s (%.2f MB/s)\n",
				e.Started.Format("2006-01-02 15:04"), e.Dir, e.Verdict, e.ThroughputMBs)
		}
	}
}
