package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jhoicas/Licencias-api/internal/domain"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	"github.com/jhoicas/Licencias-api/internal/domain/repository"
)

// UserRepo implementa repository.UserRepository.
type UserRepo struct {
	s    *Store
	inTx bool
}

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	return r.s.view(r.inTx, func(st *state) error {
		for _, existing := range st.users {
			if strings.EqualFold(existing.Email, u.Email) {
				return domain.ErrEmailAlreadyExists
			}
		}
		st.users[u.ID] = *u
		return nil
	})
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	var out *entity.User
	err := r.s.view(r.inTx, func(st *state) error {
		if u, ok := st.users[id]; ok {
			out = &u
		}
		return nil
	})
	return out, err
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	var out *entity.User
	err := r.s.view(r.inTx, func(st *state) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Email, email) {
				u := u
				out = &u
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *UserRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.User, error) {
	var out []*entity.User
	err := r.s.view(r.inTx, func(st *state) error {
		all := make([]*entity.User, 0)
		for _, u := range st.users {
			if u.CompanyID == companyID {
				u := u
				all = append(all, &u)
			}
		}
		sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })
		out = paginate(all, limit, offset)
		return nil
	})
	return out, err
}

// ClientRepo implementa repository.ClientRepository.
type ClientRepo struct {
	s    *Store
	inTx bool
}

func (r *ClientRepo) Create(_ context.Context, c *entity.Client) error {
	return r.s.view(r.inTx, func(st *state) error {
		st.clients[c.ID] = *c
		return nil
	})
}

func (r *ClientRepo) GetByID(_ context.Context, id string) (*entity.Client, error) {
	var out *entity.Client
	err := r.s.view(r.inTx, func(st *state) error {
		if c, ok := st.clients[id]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *ClientRepo) Update(_ context.Context, c *entity.Client) error {
	return r.s.view(r.inTx, func(st *state) error {
		if _, ok := st.clients[c.ID]; !ok {
			return domain.ErrNotFound
		}
		st.clients[c.ID] = *c
		return nil
	})
}

func (r *ClientRepo) List(_ context.Context, f repository.ClientFilter) ([]*entity.Client, error) {
	var out []*entity.Client
	err := r.s.view(r.inTx, func(st *state) error {
		all := make([]*entity.Client, 0)
		for _, c := range st.clients {
			if f.Status != "" && c.Status != f.Status {
				continue
			}
			if len(f.CompanyIDs) > 0 && (c.CompanyID == nil || !containsID(f.CompanyIDs, *c.CompanyID)) {
				continue
			}
			c := c
			all = append(all, &c)
		}
		sort.Slice(all, func(i, j int) bool {
			if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
				return all[i].CreatedAt.After(all[j].CreatedAt)
			}
			return all[i].ID < all[j].ID
		})
		out = paginate(all, f.Limit, f.Offset)
		return nil
	})
	return out, err
}

// ProductRepo implementa repository.ProductRepository.
type ProductRepo struct {
	s    *Store
	inTx bool
}

func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	return r.s.view(r.inTx, func(st *state) error {
		for _, existing := range st.products {
			if existing.Name == p.Name && existing.Version == p.Version {
				return domain.ErrDuplicate
			}
		}
		st.products[p.ID] = *p
		return nil
	})
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.s.view(r.inTx, func(st *state) error {
		if p, ok := st.products[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) Update(_ context.Context, p *entity.Product) error {
	return r.s.view(r.inTx, func(st *state) error {
		if _, ok := st.products[p.ID]; !ok {
			return domain.ErrNotFound
		}
		st.products[p.ID] = *p
		return nil
	})
}

func (r *ProductRepo) List(_ context.Context, limit, offset int) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.s.view(r.inTx, func(st *state) error {
		all := make([]*entity.Product, 0, len(st.products))
		for _, p := range st.products {
			p := p
			all = append(all, &p)
		}
		sort.Slice(all, func(i, j int) bool {
			if all[i].Name != all[j].Name {
				return all[i].Name < all[j].Name
			}
			return all[i].Version < all[j].Version
		})
		out = paginate(all, limit, offset)
		return nil
	})
	return out, err
}
