package model

// Tenant represents a tenant record in the shared registry store.
// This is the core of the multi-tenant architecture: the id is the sole
// routing key used to locate the tenant's isolated storage. Tenant rows never
// live in per-tenant storage.
type Tenant struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	Name         string `json:"name" gorm:"type:varchar(64);uniqueIndex;not null"`
	StorageLabel string `json:"storage_label" gorm:"type:varchar(64);not null"`
	Credential   string `json:"-" gorm:"type:varchar(128);not null"`
}

// TableName overrides the default table name
func (Tenant) TableName() string {
	return "tenants"
}
