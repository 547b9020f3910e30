// Package policy decides which callers may act on which resources.
package policy

import (
	"fmt"

	"github.com/erazemk/webshop/internal/apperr"
)

// Action is an operation on a resource.
type Action string

// Actions.
const (
	ActionList     Action = "list"
	ActionRetrieve Action = "retrieve"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
)

// Resource is an API collection.
type Resource string

// Resources.
const (
	Users      Resource = "users"
	Items      Resource = "items"
	Reviews    Resource = "reviews"
	ItemPhotos Resource = "itemphotos"
	Warehouses Resource = "warehouses"
	Employees  Resource = "employees"
)

// Requirement is what a caller needs to perform an action.
type Requirement int

// Requirements, from least to most strict.
const (
	Public Requirement = iota
	Authenticated
	Owner
)

func (r Requirement) String() string {
	switch r {
	case Public:
		return "public"
	case Authenticated:
		return "authenticated"
	case Owner:
		return "owner"
	default:
		return fmt.Sprintf("Requirement(%d)", int(r))
	}
}

// Actor is the caller of a request. The zero Actor is anonymous.
type Actor struct {
	UserID   int64
	Username string
}

// Authenticated reports whether the actor is a logged-in user.
func (a Actor) Authenticated() bool { return a.UserID != 0 }

// Ownable is implemented by records that belong to a user.
type Ownable interface {
	// OwnerID returns the owning user, or false if the record has none.
	OwnerID() (int64, bool)
}

// Rule holds the requirements for one resource.
type Rule struct {
	Read  Requirement // list and retrieve
	Write Requirement // update and delete
	Add   Requirement // create
}

// Policy is a table of rules keyed by resource.
type Policy struct {
	rules map[Resource]Rule
}

// Option adjusts the default table.
type Option func(map[Resource]Rule)

// WithOpenWarehouseWrites lets anonymous callers create, update and delete
// warehouses.
func WithOpenWarehouseWrites() Option {
	return func(rules map[Resource]Rule) {
		rules[Warehouses] = Rule{Read: Public, Add: Public, Write: Public}
	}
}

// New returns the default policy with opts applied.
func New(opts ...Option) *Policy {
	rules := map[Resource]Rule{
		Users:      {Read: Authenticated, Add: Authenticated, Write: Owner},
		Items:      {Read: Public, Add: Authenticated, Write: Owner},
		Reviews:    {Read: Public, Add: Authenticated, Write: Owner},
		ItemPhotos: {Read: Public, Add: Authenticated, Write: Owner},
		Warehouses: {Read: Public, Add: Authenticated, Write: Authenticated},
		Employees:  {Read: Authenticated, Add: Authenticated, Write: Authenticated},
	}
	for _, opt := range opts {
		opt(rules)
	}
	return &Policy{rules: rules}
}

// Requirement returns what an action on a resource needs. Unknown resources
// require ownership, which nobody can satisfy without a target.
func (p *Policy) Requirement(resource Resource, action Action) Requirement {
	rule, ok := p.rules[resource]
	if !ok {
		return Owner
	}
	switch action {
	case ActionList, ActionRetrieve:
		return rule.Read
	case ActionCreate:
		return rule.Add
	default:
		return rule.Write
	}
}

// Gate checks whether the actor may attempt the action at all, before the
// target is loaded. Ownership is checked later by Authorize.
func (p *Policy) Gate(actor Actor, resource Resource, action Action) error {
	if p.Requirement(resource, action) != Public && !actor.Authenticated() {
		return apperr.AuthenticationRequired()
	}
	return nil
}

// Authorize checks whether the actor may perform the action on target. target
// may be nil for actions that do not address a single record.
func (p *Policy) Authorize(actor Actor, resource Resource, action Action, target Ownable) error {
	if err := p.Gate(actor, resource, action); err != nil {
		return err
	}
	if p.Requirement(resource, action) != Owner {
		return nil
	}

	if target == nil {
		return apperr.AuthorizationDenied(fmt.Sprintf("cannot %s %s", action, resource))
	}
	owner, ok := target.OwnerID()
	if !ok || owner != actor.UserID {
		return apperr.AuthorizationDenied(fmt.Sprintf("only the owner can %s this record", action))
	}
	return nil
}
