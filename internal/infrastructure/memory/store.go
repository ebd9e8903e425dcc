// Package memory implementa los repositorios sobre estructuras en memoria. Sirve a las pruebas
// de casos de uso y al modo APP_STORAGE=memory de desarrollo. Un único mutex serializa todas
// las operaciones; las transacciones toman una copia del estado y la restauran si fn falla.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	"github.com/jhoicas/Licencias-api/internal/domain/repository"
)

type state struct {
	companies      map[string]entity.Company
	users          map[string]entity.User
	clients        map[string]entity.Client
	products       map[string]entity.Product
	licenses       map[string]entity.License
	transactions   map[string]entity.Transaction
	wallets        map[string]entity.CompanyWallet
	ledger         []entity.WalletTransaction
	registrations  map[string]entity.DeviceRegistration
	devices        map[string]entity.RegisteredDevice
	activationLogs []entity.ActivationLog
	accessLogs     []entity.AccessLog
}

func newState() *state {
	return &state{
		companies:     map[string]entity.Company{},
		users:         map[string]entity.User{},
		clients:       map[string]entity.Client{},
		products:      map[string]entity.Product{},
		licenses:      map[string]entity.License{},
		transactions:  map[string]entity.Transaction{},
		wallets:       map[string]entity.CompanyWallet{},
		registrations: map[string]entity.DeviceRegistration{},
		devices:       map[string]entity.RegisteredDevice{},
	}
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// clone copia superficial por valor: las entidades se guardan como valores y los campos
// puntero nunca se modifican en sitio.
func (s *state) clone() *state {
	return &state{
		companies:      cloneMap(s.companies),
		users:          cloneMap(s.users),
		clients:        cloneMap(s.clients),
		products:       cloneMap(s.products),
		licenses:       cloneMap(s.licenses),
		transactions:   cloneMap(s.transactions),
		wallets:        cloneMap(s.wallets),
		ledger:         append([]entity.WalletTransaction(nil), s.ledger...),
		registrations:  cloneMap(s.registrations),
		devices:        cloneMap(s.devices),
		activationLogs: append([]entity.ActivationLog(nil), s.activationLogs...),
		accessLogs:     append([]entity.AccessLog(nil), s.accessLogs...),
	}
}

// Store contenedor del estado compartido por todos los repositorios en memoria.
type Store struct {
	mu   sync.Mutex
	data *state
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{data: newState()}
}

// view ejecuta fn con el estado bloqueado, salvo dentro de una transacción (que ya tiene el lock).
func (s *Store) view(inTx bool, fn func(st *state) error) error {
	if !inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.data)
}

// runTx serializa fn y restaura el estado si devuelve error.
func (s *Store) runTx(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.data.clone()
	if err := fn(); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// Repositorios fuera de transacción.

func (s *Store) Companies() *CompanyRepo { return &CompanyRepo{s: s} }
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }
func (s *Store) Clients() *ClientRepo { return &ClientRepo{s: s} }
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }
func (s *Store) Licenses() *LicenseRepo { return &LicenseRepo{s: s} }
func (s *Store) Transactions() *TransactionRepo { return &TransactionRepo{s: s} }
func (s *Store) Wallets() *WalletRepo { return &WalletRepo{s: s} }
func (s *Store) Ledger() *LedgerRepo { return &LedgerRepo{s: s} }
func (s *Store) Devices() *DeviceRepo { return &DeviceRepo{s: s} }
func (s *Store) Audit() *AuditRepo { return &AuditRepo{s: s} }

// TxRunner implementa los TxRunner de los casos de uso sobre el Store.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner transaccional en memoria.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// RunLedger ejecuta fn con billeteras y libro atados a la transacción.
func (r *TxRunner) RunLedger(ctx context.Context, fn func(repository.WalletRepository, repository.WalletLedgerRepository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.s.runTx(func() error {
		return fn(&WalletRepo{s: r.s, inTx: true}, &LedgerRepo{s: r.s, inTx: true})
	})
}

// RunLicense ejecuta fn con el repositorio de licencias atado a la transacción.
func (r *TxRunner) RunLicense(ctx context.Context, fn func(repository.LicenseRepository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.s.runTx(func() error {
		return fn(&LicenseRepo{s: r.s, inTx: true})
	})
}

// RunSale ejecuta fn con licencias, ventas, billeteras y libro en la misma transacción.
func (r *TxRunner) RunSale(ctx context.Context, fn func(
	repository.LicenseRepository,
	repository.TransactionRepository,
	repository.WalletRepository,
	repository.WalletLedgerRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.s.runTx(func() error {
		return fn(
			&LicenseRepo{s: r.s, inTx: true},
			&TransactionRepo{s: r.s, inTx: true},
			&WalletRepo{s: r.s, inTx: true},
			&LedgerRepo{s: r.s, inTx: true},
		)
	})
}

// RunDevices ejecuta fn con el repositorio de registros de equipos atado a la transacción.
func (r *TxRunner) RunDevices(ctx context.Context, fn func(repository.DeviceRegistrationRepository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.s.runTx(func() error {
		return fn(&DeviceRepo{s: r.s, inTx: true})
	})
}

var (
	_ repository.CompanyRepository            = (*CompanyRepo)(nil)
	_ repository.UserRepository               = (*UserRepo)(nil)
	_ repository.ClientRepository             = (*ClientRepo)(nil)
	_ repository.ProductRepository            = (*ProductRepo)(nil)
	_ repository.LicenseRepository            = (*LicenseRepo)(nil)
	_ repository.TransactionRepository        = (*TransactionRepo)(nil)
	_ repository.WalletRepository             = (*WalletRepo)(nil)
	_ repository.WalletLedgerRepository       = (*LedgerRepo)(nil)
	_ repository.DeviceRegistrationRepository = (*DeviceRepo)(nil)
	_ repository.AuditRepository              = (*AuditRepo)(nil)
)
