package debate

import "veritas/internal/domain/models/debate"

// defaultRoleOrder is the first-round role sequence (spec §4.9:
// "proponent → opponent → moderator").
var defaultRoleOrder = []debate.Role{
	debate.RoleProponent,
	debate.RoleOpponent,
	debate.RoleModerator,
}

// reversalRoleOrder is run once per reversal round when role reversal
// is enabled (spec §4.9: "reversed_proponent → reversed_opponent → moderator").
var reversalRoleOrder = []debate.Role{
	debate.RoleReversedProponent,
	debate.RoleReversedOpponent,
	debate.RoleModerator,
}

// priorRole maps a reversed role back to the original role whose prior
// statements it must now argue against.
func priorRole(role debate.Role) debate.Role {
	switch role {
	case debate.RoleReversedProponent:
		return debate.RoleProponent
	case debate.RoleReversedOpponent:
		return debate.RoleOpponent
	default:
		return role
	}
}
