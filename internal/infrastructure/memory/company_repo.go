package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/Licencias-api/internal/domain"
	"github.com/jhoicas/Licencias-api/internal/domain/company"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
)

// CompanyRepo implementa repository.CompanyRepository.
type CompanyRepo struct {
	s    *Store
	inTx bool
}

func (r *CompanyRepo) Create(_ context.Context, c *entity.Company) error {
	return r.s.view(r.inTx, func(st *state) error {
		for _, existing := range st.companies {
			if existing.NIT == c.NIT {
				return domain.ErrDuplicate
			}
		}
		st.companies[c.ID] = *c
		return nil
	})
}

func (r *CompanyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	var out *entity.Company
	err := r.s.view(r.inTx, func(st *state) error {
		if c, ok := st.companies[id]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *CompanyRepo) GetByNIT(_ context.Context, nit string) (*entity.Company, error) {
	var out *entity.Company
	err := r.s.view(r.inTx, func(st *state) error {
		for _, c := range st.companies {
			if c.NIT == nit {
				c := c
				out = &c
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *CompanyRepo) Update(_ context.Context, c *entity.Company) error {
	return r.s.view(r.inTx, func(st *state) error {
		if _, ok := st.companies[c.ID]; !ok {
			return domain.ErrNotFound
		}
		for id, existing := range st.companies {
			if id != c.ID && existing.NIT == c.NIT {
				return domain.ErrDuplicate
			}
		}
		st.companies[c.ID] = *c
		return nil
	})
}

func (r *CompanyRepo) List(_ context.Context, limit, offset int) ([]*entity.Company, error) {
	var out []*entity.Company
	err := r.s.view(r.inTx, func(st *state) error {
		all := make([]*entity.Company, 0, len(st.companies))
		for _, c := range st.companies {
			c := c
			all = append(all, &c)
		}
		sort.Slice(all, func(i, j int) bool {
			if all[i].Name != all[j].Name {
				return all[i].Name < all[j].Name
			}
			return all[i].ID < all[j].ID
		})
		out = paginate(all, limit, offset)
		return nil
	})
	return out, err
}

func (r *CompanyRepo) tree(st *state) *company.Tree {
	all := make([]*entity.Company, 0, len(st.companies))
	for _, c := range st.companies {
		c := c
		all = append(all, &c)
	}
	return company.NewTree(all)
}

func (r *CompanyRepo) ListSubtree(_ context.Context, rootID string) ([]*entity.Company, error) {
	var out []*entity.Company
	err := r.s.view(r.inTx, func(st *state) error {
		t := r.tree(st)
		root := t.Get(rootID)
		if root == nil {
			return nil
		}
		out = append([]*entity.Company{root}, t.Descendants(rootID)...)
		return nil
	})
	return out, err
}

func (r *CompanyRepo) ListAncestors(_ context.Context, id string) ([]*entity.Company, error) {
	var out []*entity.Company
	err := r.s.view(r.inTx, func(st *state) error {
		out = r.tree(st).Ancestors(id)
		return nil
	})
	return out, err
}

func paginate[T any](all []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []T{}
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end]
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
