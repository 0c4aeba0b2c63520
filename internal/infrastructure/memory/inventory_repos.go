package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
)

var (
	_ repository.StockMovementRepository   = movementRepo{}
	_ repository.MovementTypeRepository    = movementTypeRepo{}
	_ repository.StockProjectionRepository = projectionRepo{}
	_ repository.LockRepository            = lockRepo{}
	_ repository.ProductRepository         = productRepo{}
	_ repository.WarehouseRepository       = warehouseRepo{}
	_ repository.LocationRepository        = locationRepo{}
)

type movementTypeRepo struct{ s *Store }

func (r movementTypeRepo) GetByCode(_ context.Context, code string) (*entity.MovementType, error) {
	r.s.catMu.RLock()
	defer r.s.catMu.RUnlock()
	mt, ok := r.s.catalog[code]
	if !ok {
		return nil, nil
	}
	cp := *mt
	return &cp, nil
}

func (r movementTypeRepo) List(_ context.Context) ([]*entity.MovementType, error) {
	r.s.catMu.RLock()
	defer r.s.catMu.RUnlock()
	out := make([]*entity.MovementType, 0, len(r.s.catalog))
	for _, mt := range r.s.catalog {
		cp := *mt
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

type movementRepo struct{ access }

func (r movementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	return r.do(func(st *state) error {
		if err := r.s.fail("movements.create"); err != nil {
			return err
		}
		cp := *m
		st.movements = append(st.movements, &cp)
		return nil
	})
}

func (r movementRepo) ListByRelatedID(_ context.Context, relatedID string) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	err := r.do(func(st *state) error {
		for _, m := range st.movements {
			if m.RelatedID != nil && *m.RelatedID == relatedID {
				cp := *m
				out = append(out, &cp)
			}
		}
		return nil
	})
	return out, err
}

func (r movementRepo) ListByProduct(_ context.Context, productID string, limit, offset int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	err := r.do(func(st *state) error {
		for i := len(st.movements) - 1; i >= 0; i-- {
			m := st.movements[i]
			if m.ProductID != productID {
				continue
			}
			if offset > 0 {
				offset--
				continue
			}
			if limit > 0 && len(out) >= limit {
				break
			}
			cp := *m
			out = append(out, &cp)
		}
		return nil
	})
	return out, err
}

func (r movementRepo) ExistsByRelatedIDAndType(_ context.Context, relatedID, movementTypeID string) (bool, error) {
	found := false
	err := r.do(func(st *state) error {
		for _, m := range st.movements {
			if m.RelatedID != nil && *m.RelatedID == relatedID && m.MovementTypeID == movementTypeID {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r movementRepo) DeleteByRelatedID(_ context.Context, relatedID string) (int64, error) {
	var n int64
	err := r.do(func(st *state) error {
		if err := r.s.fail("movements.delete_by_related"); err != nil {
			return err
		}
		kept := st.movements[:0]
		for _, m := range st.movements {
			if m.RelatedID != nil && *m.RelatedID == relatedID {
				n++
				continue
			}
			kept = append(kept, m)
		}
		st.movements = kept
		return nil
	})
	return n, err
}

type projectionRepo struct{ access }

func (r projectionRepo) CurrentQuantity(_ context.Context, productID, warehouseID string, locationID *string) (decimal.Decimal, error) {
	total := decimal.Zero
	err := r.do(func(st *state) error {
		for _, m := range st.movements {
			if m.ProductID != productID || m.WarehouseID != warehouseID {
				continue
			}
			if locationID != nil && !entity.SameLocation(m.LocationID, locationID) {
				continue
			}
			total = total.Add(m.Signed())
		}
		return nil
	})
	return total, err
}

func (r projectionRepo) ByLocation(_ context.Context, productID string) ([]entity.CurrentStockByLocation, error) {
	var rows []entity.CurrentStockByLocation
	err := r.do(func(st *state) error {
		var ms []*entity.StockMovement
		for _, m := range st.movements {
			if m.ProductID == productID {
				ms = append(ms, m)
			}
		}
		rows = entity.FoldMovements(ms)
		return nil
	})
	return rows, err
}

func (r projectionRepo) ByWarehouse(ctx context.Context, productID string) ([]entity.CurrentStock, error) {
	rows, err := r.ByLocation(ctx, productID)
	if err != nil {
		return nil, err
	}
	return entity.RollupByWarehouse(rows), nil
}

type productRepo struct{ access }

func (r productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.do(func(st *state) error {
		if p, ok := st.products[id]; ok {
			cp := *p
			out = &cp
		}
		return nil
	})
	return out, err
}

type warehouseRepo struct{ access }

func (r warehouseRepo) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	var out *entity.Warehouse
	err := r.do(func(st *state) error {
		if w, ok := st.warehouses[id]; ok {
			cp := *w
			out = &cp
		}
		return nil
	})
	return out, err
}

type locationRepo struct{ access }

func (r locationRepo) GetByID(_ context.Context, id string) (*entity.Location, error) {
	var out *entity.Location
	err := r.do(func(st *state) error {
		if l, ok := st.locations[id]; ok {
			cp := *l
			out = &cp
		}
		return nil
	})
	return out, err
}
