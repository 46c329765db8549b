package burnin

import (
	"errors"
	"syscall"
)

// isFatalIO distingue los errores de dispositivo que abortan la ejecución completa
// (disco lleno, sistema de archivos de solo lectura) de los fallos por archivo,
// que se registran y la pool continúa.
func isFatalIO(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EROFS)
}
