package burnin

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Cleanup elimina los artefactos generados por la ejecución: el blob de referencia
// con su digest y los directorios de filas con sus archivos. El informe de fallos no
// se toca. Los errores se acumulan y se devuelven juntos; un artefacto que ya no
// existe no es un error.
func Cleanup(dir string, plan *WorkPlan) error {
	var errs []string
	deleted := 0

	targets := []string{
		filepath.Join(dir, ReferenceName+DigestSuffix),
		filepath.Join(dir, ReferenceName),
	}
	if plan != nil {
		for r := 1; r <= plan.Rows; r++ {
			targets = append(targets, filepath.Join(dir, strconv.Itoa(r)))
		}
	}

	for _, path := range targets {
		if err := os.RemoveAll(path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("%s: %v", path, err))
		} else {
			deleted++
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errores eliminando artefactos (%d eliminados, %d errores): %v",
			deleted, len(errs), errs)
	}
	return nil
}

// VerifyCleanup cuenta los artefactos de la ejecución que sobrevivieron a la
// limpieza. Un resultado distinto de cero indica que el directorio objetivo no
// quedó en su estado previo.
func VerifyCleanup(dir string, plan *WorkPlan) (int, error) {
	count := 0
	for _, name := range []string{ReferenceName, ReferenceName + DigestSuffix} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			count++
		}
	}
	if plan == nil {
		return count, nil
	}
	for _, item := range plan.Items {
		if _, err := os.Stat(filepath.Join(dir, item.RelPath())); err == nil {
			count++
		}
		if _, err := os.Stat(filepath.Join(dir, item.RelPath()+DigestSuffix)); err == nil {
			count++
		}
	}
	return count, nil
}
