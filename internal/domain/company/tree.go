package company

import (
	"sort"

	"github.com/jhoicas/Licencias-api/internal/domain/entity"
)

// Tree índice en memoria de la relación padre-hijo. No embebe estructuras recursivas
// en la entidad: se construye a partir de una lista plana.
type Tree struct {
	byID     map[string]*entity.Company
	children map[string][]string
}

// NewTree construye el índice. Los hijos quedan ordenados por nombre.
func NewTree(companies []*entity.Company) *Tree {
	t := &Tree{
		byID:     make(map[string]*entity.Company, len(companies)),
		children: make(map[string][]string),
	}
	for _, c := range companies {
		t.byID[c.ID] = c
	}
	for _, c := range companies {
		if c.IsRoot() {
			continue
		}
		t.children[*c.ParentID] = append(t.children[*c.ParentID], c.ID)
	}
	for id := range t.children {
		ids := t.children[id]
		sort.Slice(ids, func(i, j int) bool { return t.byID[ids[i]].Name < t.byID[ids[j]].Name })
	}
	return t
}

// Get devuelve la empresa del índice o nil.
func (t *Tree) Get(id string) *entity.Company {
	return t.byID[id]
}

// Children hijos directos de id.
func (t *Tree) Children(id string) []*entity.Company {
	ids := t.children[id]
	out := make([]*entity.Company, 0, len(ids))
	for _, cid := range ids {
		out = append(out, t.byID[cid])
	}
	return out
}

// Descendants todos los descendientes de id en anchura (sin incluir id).
func (t *Tree) Descendants(id string) []*entity.Company {
	var out []*entity.Company
	seen := map[string]bool{id: true}
	queue := append([]string(nil), t.children[id]...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		out = append(out, t.byID[cur])
		queue = append(queue, t.children[cur]...)
	}
	return out
}

// Ancestors cadena de padres de id, del padre directo a la raíz.
func (t *Tree) Ancestors(id string) []*entity.Company {
	var out []*entity.Company
	seen := map[string]bool{id: true}
	cur := t.byID[id]
	for cur != nil && !cur.IsRoot() {
		pid := *cur.ParentID
		if seen[pid] {
			break
		}
		seen[pid] = true
		parent := t.byID[pid]
		if parent == nil {
			break
		}
		out = append(out, parent)
		cur = parent
	}
	return out
}

// Contains informa si id pertenece al subárbol con raíz rootID (incluida la raíz).
func (t *Tree) Contains(rootID, id string) bool {
	if rootID == id {
		return true
	}
	for _, a := range t.Ancestors(id) {
		if a.ID == rootID {
			return true
		}
	}
	return false
}

// WouldCycle informa si mover id bajo newParentID crearía un ciclo.
func (t *Tree) WouldCycle(id, newParentID string) bool {
	return t.Contains(id, newParentID)
}

// Roots empresas sin padre (o cuyo padre no está en el índice), ordenadas por nombre.
func (t *Tree) Roots() []*entity.Company {
	var out []*entity.Company
	for _, c := range t.byID {
		if c.IsRoot() || t.byID[*c.ParentID] == nil {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
