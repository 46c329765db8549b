package burnin

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
)

// ErrInsufficientSpace indica que no cabe ni una unidad completa en el espacio libre
var ErrInsufficientSpace = errors.New("espacio insuficiente: no cabe ni una unidad completa")

// WorkItem identifica un archivo a generar por su coordenada (fila, columna)
type WorkItem struct {
	Row int
	Col int
}

// RelPath devuelve la ruta relativa determinista "fila/columna"
func (wi WorkItem) RelPath() string {
	return filepath.Join(strconv.Itoa(wi.Row), strconv.Itoa(wi.Col))
}

// WorkPlan es la lista ordenada de archivos a generar, derivada una sola vez
type WorkPlan struct {
	Items   []WorkItem
	Rows    int
	Columns int
}

// Total devuelve el número de archivos del plan (filas * columnas)
func (wp *WorkPlan) Total() int {
	return len(wp.Items)
}

// Plan calcula el plan de trabajo a partir del espacio libre y los parámetros de forma.
// filas = floor(freeMB * fillPercent / 100 / unitMB / columns). Es una función pura:
// entradas idénticas producen siempre el mismo plan.
func Plan(freeMB, fillPercent, unitMB, columns int) (*WorkPlan, error) {
	if freeMB < 0 || fillPercent < 0 || fillPercent > 100 {
		return nil, fmt.Errorf("parámetros inválidos: freeMB=%d fillPercent=%d", freeMB, fillPercent)
	}
	if unitMB <= 0 || columns <= 0 {
		return nil, fmt.Errorf("parámetros inválidos: unitMB=%d columns=%d", unitMB, columns)
	}

	rows := freeMB * fillPercent / 100 / unitMB / columns
	if rows == 0 {
		return nil, ErrInsufficientSpace
	}

	plan := &WorkPlan{
		Items:   make([]WorkItem, 0, rows*columns),
		Rows:    rows,
		Columns: columns,
	}
	for r := 1; r <= rows; r++ {
		for c := 1; c <= columns; c++ {
			plan.Items = append(plan.Items, WorkItem{Row: r, Col: c})
		}
	}
	return plan, nil
}
