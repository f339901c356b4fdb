// Package registry holds the shared tenant catalog: the only store addressed
// without per-tenant scoping.
package registry

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/chatstack/chatroom/internal/errs"
	"github.com/chatstack/chatroom/internal/model"
	"gorm.io/gorm"
)

// Provisioner materializes a tenant's physical storage. Implemented by the
// session factory; an interface here keeps the registry free of storage
// routing concerns.
type Provisioner interface {
	Provision(ctx context.Context, tenantID uint) error
}

// Registry provides access to tenant records.
type Registry struct {
	db          *gorm.DB
	provisioner Provisioner
}

// New creates a registry over the shared store, materializing the tenants
// table if absent.
func New(db *gorm.DB, provisioner Provisioner) (*Registry, error) {
	if err := db.AutoMigrate(&model.Tenant{}); err != nil {
		return nil, err
	}
	return &Registry{db: db, provisioner: provisioner}, nil
}

// CreateTenant inserts a tenant record and provisions its storage, all or
// nothing: a provisioning failure rolls the insert back. Name uniqueness is
// enforced by the store's unique constraint, not a pre-check, so two
// concurrent creations with the same name cannot both succeed.
func (r *Registry) CreateTenant(ctx context.Context, name, storageLabel, credential string) (*model.Tenant, error) {
	if name == "" {
		return nil, errs.Validation("name", "required")
	}
	if storageLabel == "" {
		return nil, errs.Validation("storage_label", "required")
	}
	if credential == "" {
		return nil, errs.Validation("credential", "required")
	}

	var tenant *model.Tenant
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t := &model.Tenant{Name: name, StorageLabel: storageLabel, Credential: credential}
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		if err := r.provisioner.Provision(ctx, t.ID); err != nil {
			return err
		}
		tenant = t
		return nil
	})
	if err != nil {
		return nil, errs.Classify("create tenant", "tenant", err)
	}
	return tenant, nil
}

// FindByID looks a tenant up by its id.
func (r *Registry) FindByID(ctx context.Context, id uint) (*model.Tenant, error) {
	var tenant model.Tenant
	if err := r.db.WithContext(ctx).First(&tenant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTenantNotFound
		}
		return nil, errs.Classify("find tenant", "tenant", err)
	}
	return &tenant, nil
}

// FindByName looks a tenant up by its unique name.
func (r *Registry) FindByName(ctx context.Context, name string) (*model.Tenant, error) {
	var tenant model.Tenant
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&tenant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTenantNotFound
		}
		return nil, errs.Classify("find tenant", "tenant", err)
	}
	return &tenant, nil
}

// Authenticate resolves a tenant by name and verifies its credential in
// constant time. Both failure cases return ErrTenantNotFound so a caller
// cannot distinguish a wrong name from a wrong credential.
func (r *Registry) Authenticate(ctx context.Context, name, credential string) (*model.Tenant, error) {
	tenant, err := r.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(tenant.Credential), []byte(credential)) != 1 {
		return nil, errs.ErrTenantNotFound
	}
	return tenant, nil
}
