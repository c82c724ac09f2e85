package application

// Permission names an action a principal may perform.
type Permission string

const (
	PermissionRoomView          Permission = "room:view"
	PermissionRoomManage        Permission = "room:manage"
	PermissionMeetingCreate     Permission = "meeting:create"
	PermissionMeetingView       Permission = "meeting:view"
	PermissionMeetingApprove    Permission = "meeting:approve"
	PermissionMeetingReject     Permission = "meeting:reject"
	PermissionMeetingDelete     Permission = "meeting:delete"
	PermissionMeetingRespond    Permission = "meeting:respond"
	PermissionMeetingRespondAny Permission = "meeting:respond_any"
)

// Role names.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Policy maps roles to the permissions they grant.
type Policy struct {
	grants map[string]map[Permission]struct{}
}

// NewPolicy builds a policy from a role to permissions table.
func NewPolicy(table map[string][]Permission) *Policy {
	grants := make(map[string]map[Permission]struct{}, len(table))
	for role, permissions := range table {
		set := make(map[Permission]struct{}, len(permissions))
		for _, permission := range permissions {
			set[permission] = struct{}{}
		}
		grants[role] = set
	}
	return &Policy{grants: grants}
}

// DefaultPolicy grants admins everything and members the day-to-day booking actions.
func DefaultPolicy() *Policy {
	return NewPolicy(map[string][]Permission{
		RoleAdmin: {
			PermissionRoomView,
			PermissionRoomManage,
			PermissionMeetingCreate,
			PermissionMeetingView,
			PermissionMeetingApprove,
			PermissionMeetingReject,
			PermissionMeetingDelete,
			PermissionMeetingRespond,
			PermissionMeetingRespondAny,
		},
		RoleMember: {
			PermissionRoomView,
			PermissionMeetingCreate,
			PermissionMeetingView,
			PermissionMeetingRespond,
		},
	})
}

// Allows reports whether any of the principal's roles grants permission.
// Principals without a user id are never allowed.
func (p *Policy) Allows(principal Principal, permission Permission) bool {
	if p == nil || principal.UserID == "" {
		return false
	}
	for _, role := range principal.Roles {
		if _, ok := p.grants[role][permission]; ok {
			return true
		}
	}
	return false
}

func (p *Policy) require(principal Principal, permission Permission) error {
	if !p.Allows(principal, permission) {
		return ErrUnauthorized
	}
	return nil
}

func defaultPolicy(policy *Policy) *Policy {
	if policy != nil {
		return policy
	}
	return DefaultPolicy()
}
