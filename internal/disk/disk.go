package disk

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v4/disk"
)

// FreeSpaceMB devuelve el espacio libre en megabytes enteros del sistema de
// archivos que contiene la ruta
func FreeSpaceMB(path string) (int, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, fmt.Errorf("error al obtener espacio libre de %s: %w", path, err)
	}
	return int(usage.Free >> 20), nil
}

// EnsureWritable comprueba que el directorio existe y admite escrituras creando y
// borrando un archivo de prueba
func EnsureWritable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("error al acceder a %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s no es un directorio", path)
	}

	probe := filepath.Join(path, ".burnin_probe")
	f, err := os.Create(probe)
	if err != nil {
		return fmt.Errorf("el directorio %s no admite escrituras: %w", path, err)
	}
	f.Close()
	if err := os.Remove(probe); err != nil {
		return fmt.Errorf("error al eliminar archivo de prueba: %w", err)
	}
	return nil
}

// IsRootMount indica si la ruta vive directamente en el punto de montaje raíz.
// Quemar la raíz del sistema requiere confirmación explícita.
func IsRootMount(path string) (bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}

	partitions, err := disk.Partitions(false)
	if err != nil {
		return false, fmt.Errorf("error al obtener particiones: %w", err)
	}

	best := ""
	for _, partition := range partitions {
		if strings.HasPrefix(abs, partition.Mountpoint) && len(partition.Mountpoint) > len(best) {
			best = partition.Mountpoint
		}
	}
	return best == "/" || best == "", nil
}

// Info devuelve un resumen legible del sistema de archivos que contiene la ruta
func Info(path string) (string, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return "", fmt.Errorf("error al obtener uso de %s: %w", path, err)
	}

	var info strings.Builder
	info.WriteString(fmt.Sprintf("Ruta: %s\n", usage.Path))
	info.WriteString(fmt.Sprintf("Sistema de Archivos: %s\n", usage.Fstype))
	info.WriteString(fmt.Sprintf("Tamaño Total: %s\n", FormatBytes(usage.Total)))
	info.WriteString(fmt.Sprintf("Espacio Usado: %s\n", FormatBytes(usage.Used)))
	info.WriteString(fmt.Sprintf("Espacio Libre: %s\n", FormatBytes(usage.Free)))
	info.WriteString(fmt.Sprintf("Uso: %.2f%%\n", usage.UsedPercent))
	return info.String(), nil
}

// FormatBytes formatea bytes en unidades legibles
func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
