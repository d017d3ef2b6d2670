package models

import (
	"fmt"
	"strings"
)

// CommonCollection is the fixed key of the shared knowledge collection that
// every question consults alongside the tenant's own collection.
const CommonCollection = "common_knowledge"

// tenantPrefix namespaces tenant collections away from the shared one. A
// tenant key always starts with this prefix, so it can never collide with
// CommonCollection or with another tenant's key.
const tenantPrefix = "user_"

// TenantKey identifies one tenant's private collection. Construct it with
// NewTenantKey; the zero value is not valid.
type TenantKey struct {
	id string
}

// NewTenantKey validates a tenant identifier and returns its collection key.
// The identifier must be non-empty and must not contain characters that
// could smuggle one tenant's key into another's namespace.
func NewTenantKey(userID string) (TenantKey, error) {
	id := strings.TrimSpace(userID)
	if id == "" {
		return TenantKey{}, fmt.Errorf("tenant id must not be empty")
	}
	if strings.ContainsAny(id, " /\\\n\t") {
		return TenantKey{}, fmt.Errorf("tenant id %q contains invalid characters", userID)
	}
	return TenantKey{id: id}, nil
}

// ID returns the raw tenant identifier.
func (t TenantKey) ID() string { return t.id }

// Key returns the namespaced collection key for this tenant.
func (t TenantKey) Key() string { return tenantPrefix + t.id }

func (t TenantKey) String() string { return t.Key() }
