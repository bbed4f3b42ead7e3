package rbac

import "github.com/storefront/storefront/internal/shared"

// Policy maps each action to the rule that decides it. Actions without a rule
// are denied.
type Policy struct {
	rules map[Action]Rule
}

// NewPolicy builds a Policy from the provided rules.
func NewPolicy(rules map[Action]Rule) *Policy {
	copied := make(map[Action]Rule, len(rules))
	for action, rule := range rules {
		if rule != nil {
			copied[action] = rule
		}
	}
	return &Policy{rules: copied}
}

// DefaultPolicy returns the storefront policy. Admins manage the catalog and
// may not shop; wishlist and cart changes are reserved to non-admins.
func DefaultPolicy() *Policy {
	return NewPolicy(map[Action]Rule{
		ActionProductCreate:  RequireRole(shared.RoleAdmin),
		ActionProductUpdate:  RequireRole(shared.RoleAdmin),
		ActionProductDelete:  RequireRole(shared.RoleAdmin),
		ActionWishlistModify: ExcludeRole(shared.RoleAdmin),
		ActionCartModify:     ExcludeRole(shared.RoleAdmin),
		ActionAccountUpdate:  OwnerOnly(),
	})
}

// Has reports whether the policy knows action.
func (p *Policy) Has(action Action) bool {
	if p == nil {
		return false
	}
	_, ok := p.rules[action]
	return ok
}

// Evaluate decides whether identity may perform action on resource.
func (p *Policy) Evaluate(action Action, resource Resource, identity shared.Identity) Decision {
	if p == nil {
		return Deny
	}
	rule, ok := p.rules[action]
	if !ok {
		return Deny
	}
	return rule.Evaluate(identity, resource)
}
