package baseline

import (
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

// Snapshot contiene el estado del sistema antes de la quema: sirve para juzgar si
// el entorno estaba razonablemente quieto y para alimentar al planificador con la
// cifra de espacio libre
type Snapshot struct {
	CPUIdlePercent  float64
	CPUCoresLogical int
	MemoryAvailable uint64
	MemoryTotal     uint64
	DiskFree        uint64
	DiskTotal       uint64
	Timestamp       time.Time
}

// Capture toma el snapshot previo a la ejecución. La medición de CPU promedia
// varias muestras para que un pico puntual no distorsione el baseline.
func Capture(targetDir string) (Snapshot, error) {
	snap := Snapshot{
		Timestamp: time.Now(),
	}

	if cores, err := cpu.Counts(true); err == nil {
		snap.CPUCoresLogical = cores
	}

	var cpuSamples []float64
	for i := 0; i < 3; i++ {
		percentages, err := cpu.Percent(200*time.Millisecond, false)
		if err == nil && len(percentages) > 0 {
			cpuSamples = append(cpuSamples, 100.0-percentages[0])
		}
	}
	if len(cpuSamples) > 0 {
		var sum float64
		for _, sample := range cpuSamples {
			sum += sample
		}
		snap.CPUIdlePercent = sum / float64(len(cpuSamples))
	}

	vmem, err := mem.VirtualMemory()
	if err != nil {
		return snap, fmt.Errorf("error al obtener memoria: %w", err)
	}
	snap.MemoryAvailable = vmem.Available
	snap.MemoryTotal = vmem.Total

	usage, err := disk.Usage(targetDir)
	if err != nil {
		return snap, fmt.Errorf("error al obtener uso del disco: %w", err)
	}
	snap.DiskFree = usage.Free
	snap.DiskTotal = usage.Total

	return snap, nil
}

// RecommendedWorkers deriva el número de workers: núcleos lógicos menos uno,
// mínimo 1, para saturar el disco sin monopolizar la máquina
func RecommendedWorkers() int {
	cores, err := cpu.Counts(true)
	if err != nil || cores <= 1 {
		return 1
	}
	return cores - 1
}
