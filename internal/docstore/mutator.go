package docstore

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrStaleItem indica que la copia local del elemento ya no coincide con
	// el valor almacenado: la eliminación no encontró nada que borrar. Seguir
	// con la inserción duplicaría el elemento, por eso el mutador se detiene.
	ErrStaleItem = errors.New("elemento desactualizado respecto al almacén")
	// ErrItemDropped indica que el elemento fue eliminado pero la inserción
	// del reemplazo falló: la colección quedó sin el elemento y la operación
	// completa debe reintentarse.
	ErrItemDropped = errors.New("elemento eliminado sin reemplazo escrito")
)

// Mutator implementa el protocolo de reemplazo eliminar-viejo/agregar-nuevo
// usado para mutar un elemento lógico dentro de un documento con campo array.
// Las dos llamadas son viajes independientes al almacén; no hay atomicidad
// entre ellas.
type Mutator struct {
	store Store
}

// NewMutator crea un mutador sobre el almacén dado.
func NewMutator(store Store) *Mutator {
	return &Mutator{store: store}
}

// Append agrega un elemento al campo array, creando el documento con un
// array unitario cuando todavía no existe.
func (m *Mutator) Append(ctx context.Context, path, field string, item any) error {
	exists, err := m.store.Exists(ctx, path)
	if err != nil {
		return fmt.Errorf("verificando documento: %w", err)
	}

	if !exists {
		return m.store.Set(ctx, path, map[string]any{field: []any{item}})
	}
	return m.store.AddToArray(ctx, path, field, item)
}

// Replace sustituye old por updated: primero elimina la versión anterior por
// igualdad de valor y luego agrega la nueva. Si la eliminación no coincide
// con ningún elemento devuelve ErrStaleItem sin ejecutar la inserción.
func (m *Mutator) Replace(ctx context.Context, path, field string, old, updated any) error {
	removed, err := m.store.RemoveFromArray(ctx, path, field, old)
	if err != nil {
		return fmt.Errorf("eliminando versión anterior: %w", err)
	}
	if !removed {
		return ErrStaleItem
	}

	if err := m.store.AddToArray(ctx, path, field, updated); err != nil {
		return fmt.Errorf("%w: %w", ErrItemDropped, err)
	}
	return nil
}

// Remove elimina el elemento sin contraparte de inserción.
func (m *Mutator) Remove(ctx context.Context, path, field string, item any) error {
	removed, err := m.store.RemoveFromArray(ctx, path, field, item)
	if err != nil {
		return fmt.Errorf("eliminando elemento: %w", err)
	}
	if !removed {
		return ErrStaleItem
	}
	return nil
}
