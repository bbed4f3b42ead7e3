package rbac

import "github.com/storefront/storefront/internal/shared"

// Action names a guarded operation.
type Action string

// Guarded storefront actions.
const (
	ActionProductCreate  Action = "product.create"
	ActionProductUpdate  Action = "product.update"
	ActionProductDelete  Action = "product.delete"
	ActionWishlistModify Action = "wishlist.modify"
	ActionCartModify     Action = "cart.modify"
	ActionAccountUpdate  Action = "account.update"
)

// Resource describes the object an action targets.
type Resource struct {
	OwnerID string
}

// Decision is the outcome of a policy evaluation.
type Decision int

// Decisions.
const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Rule decides a single action for an identity.
type Rule interface {
	Evaluate(identity shared.Identity, resource Resource) Decision
}

// RuleFunc adapts a function to Rule.
type RuleFunc func(identity shared.Identity, resource Resource) Decision

// Evaluate calls f.
func (f RuleFunc) Evaluate(identity shared.Identity, resource Resource) Decision {
	return f(identity, resource)
}

// RequireRole allows only identities holding role.
func RequireRole(role shared.Role) Rule {
	return RuleFunc(func(identity shared.Identity, _ Resource) Decision {
		if identity.Role == role {
			return Allow
		}
		return Deny
	})
}

// ExcludeRole allows every identity except those holding role.
func ExcludeRole(role shared.Role) Rule {
	return RuleFunc(func(identity shared.Identity, _ Resource) Decision {
		if identity.Role != role {
			return Allow
		}
		return Deny
	})
}

// OwnerOnly allows the identity that owns the resource, whatever its role.
func OwnerOnly() Rule {
	return RuleFunc(func(identity shared.Identity, resource Resource) Decision {
		if resource.OwnerID != "" && identity.UserID == resource.OwnerID {
			return Allow
		}
		return Deny
	})
}
