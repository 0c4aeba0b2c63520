package ledger

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
)

// Registry resuelve tipos de movimiento por código. El catálogo no cambia en tiempo de ejecución,
// así que los códigos encontrados se guardan en memoria; los ausentes se vuelven a consultar.
type Registry struct {
	repo  repository.MovementTypeRepository
	mu    sync.RWMutex
	codes map[string]*entity.MovementType
	group singleflight.Group
}

// NewRegistry construye el registro sobre el repositorio del catálogo.
func NewRegistry(repo repository.MovementTypeRepository) *Registry {
	return &Registry{repo: repo, codes: make(map[string]*entity.MovementType)}
}

// Resolve devuelve el tipo para code. Un código ausente o sin prefijo IN/OUT es un ConsistencyError;
// nunca se recurre a un id numérico por defecto.
func (r *Registry) Resolve(ctx context.Context, code string) (*entity.MovementType, error) {
	r.mu.RLock()
	mt, ok := r.codes[code]
	r.mu.RUnlock()
	if ok {
		return mt, nil
	}

	// La consulta es compartida: no depende de la cancelación de quien llegó primero.
	shared := context.WithoutCancel(ctx)
	v, err, _ := r.group.Do(code, func() (interface{}, error) {
		found, err := r.repo.GetByCode(shared, code)
		if err != nil {
			return nil, fmt.Errorf("resolver tipo de movimiento %s: %w", code, err)
		}
		if found == nil {
			return nil, domain.MissingMovementType(code)
		}
		if found.Sign() == 0 {
			return nil, &domain.ConsistencyError{Code: code, Message: "el código no empieza por IN ni OUT"}
		}
		r.mu.Lock()
		r.codes[code] = found
		r.mu.Unlock()
		return found, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*entity.MovementType), nil
}

// List devuelve los tipos del catálogo con prefijo IN/OUT y los deja en caché. Los códigos sin
// dirección se omiten porque ningún flujo puede usarlos.
func (r *Registry) List(ctx context.Context) ([]*entity.MovementType, error) {
	all, err := r.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar tipos de movimiento: %w", err)
	}
	out := make([]*entity.MovementType, 0, len(all))
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, mt := range all {
		if mt.Sign() == 0 {
			continue
		}
		r.codes[mt.Code] = mt
		out = append(out, mt)
	}
	return out, nil
}

// ResolveAll resuelve varios códigos de una vez, al inicio de un flujo y antes de cualquier escritura.
func (r *Registry) ResolveAll(ctx context.Context, codes ...string) (map[string]*entity.MovementType, error) {
	out := make(map[string]*entity.MovementType, len(codes))
	for _, c := range codes {
		mt, err := r.Resolve(ctx, c)
		if err != nil {
			return nil, err
		}
		out[c] = mt
	}
	return out, nil
}
