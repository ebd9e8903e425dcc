package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jhoicas/Licencias-api/internal/domain"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
)

// DeviceRepo implementa repository.DeviceRegistrationRepository.
type DeviceRepo struct {
	s    *Store
	inTx bool
}

func (r *DeviceRepo) UpsertHeader(_ context.Context, reg *entity.DeviceRegistration) error {
	return r.s.view(r.inTx, func(st *state) error {
		for id, existing := range st.registrations {
			if existing.CompanyNIT == reg.CompanyNIT && existing.ProductID == reg.ProductID && existing.ProductVersion == reg.ProductVersion {
				reg.ID = id
				reg.CreatedAt = existing.CreatedAt
				existing.CompanyName = reg.CompanyName
				existing.UpdatedAt = reg.UpdatedAt
				st.registrations[id] = existing
				return nil
			}
		}
		if reg.ID == "" {
			reg.ID = uuid.New().String()
		}
		header := *reg
		header.Devices = nil
		st.registrations[reg.ID] = header
		return nil
	})
}

func (r *DeviceRepo) UpsertDevice(_ context.Context, d *entity.RegisteredDevice) error {
	return r.s.view(r.inTx, func(st *state) error {
		if _, ok := st.registrations[d.RegistrationID]; !ok {
			return domain.ErrNotFound
		}
		for id, existing := range st.devices {
			if existing.RegistrationID == d.RegistrationID && existing.DeviceUID == d.DeviceUID {
				existing.OSName = d.OSName
				existing.OSVersion = d.OSVersion
				existing.Hostname = d.Hostname
				if d.ComputerKey != nil {
					existing.ComputerKey = d.ComputerKey
				}
				existing.UsageCount++
				existing.LastSeenAt = d.LastSeenAt
				st.devices[id] = existing
				*d = existing
				return nil
			}
		}
		if d.ID == "" {
			d.ID = uuid.New().String()
		}
		d.UsageCount = 1
		d.FirstSeenAt = d.LastSeenAt
		st.devices[d.ID] = *d
		return nil
	})
}

func (r *DeviceRepo) ListByNIT(_ context.Context, nit string) ([]*entity.DeviceRegistration, error) {
	var out []*entity.DeviceRegistration
	err := r.s.view(r.inTx, func(st *state) error {
		for _, reg := range st.registrations {
			if reg.CompanyNIT != nit {
				continue
			}
			reg := reg
			reg.Devices = nil
			for _, d := range st.devices {
				if d.RegistrationID == reg.ID {
					reg.Devices = append(reg.Devices, d)
				}
			}
			sort.Slice(reg.Devices, func(i, j int) bool { return reg.Devices[i].DeviceUID < reg.Devices[j].DeviceUID })
			out = append(out, &reg)
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].ProductID != out[j].ProductID {
				return out[i].ProductID < out[j].ProductID
			}
			return out[i].ProductVersion < out[j].ProductVersion
		})
		return nil
	})
	return out, err
}

// AuditRepo implementa repository.AuditRepository.
type AuditRepo struct {
	s *Store
}

func (r *AuditRepo) InsertActivationLog(_ context.Context, l *entity.ActivationLog) error {
	return r.s.view(false, func(st *state) error {
		st.activationLogs = append(st.activationLogs, *l)
		return nil
	})
}

func (r *AuditRepo) InsertAccessLog(_ context.Context, l *entity.AccessLog) error {
	return r.s.view(false, func(st *state) error {
		st.accessLogs = append(st.accessLogs, *l)
		return nil
	})
}

// ListActivationLogs más recientes primero; licenseID vacío = todas.
func (r *AuditRepo) ListActivationLogs(_ context.Context, licenseID string, limit int) ([]*entity.ActivationLog, error) {
	var out []*entity.ActivationLog
	err := r.s.view(false, func(st *state) error {
		for i := len(st.activationLogs) - 1; i >= 0; i-- {
			l := st.activationLogs[i]
			if licenseID != "" && (l.LicenseID == nil || *l.LicenseID != licenseID) {
				continue
			}
			out = append(out, &l)
		}
		out = paginate(out, limit, 0)
		return nil
	})
	return out, err
}
