package ticket

// updatableFields is the allow-list of fields the upstream accepts on a
// full ticket replacement. Anything else in a ticket snapshot (audit
// fields, computed fields) is rejected by the upstream and must be
// stripped before resubmission.
var updatableFields = []string{
	"cc",
	"priority",
	"clientId",
	"ticketFormId",
	"subject",
	"locationId",
	"parentTicketId",
	"status",
	"requesterUid",
	"attributes",
	"version",
	"assignedAppUserId",
	"type",
	"nodeId",
	"additionalAssignedTechnicianIds",
	"tags",
	"severity",
}

// projectUpdatable restricts a ticket snapshot to the allow-listed fields.
func projectUpdatable(current map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(updatableFields))
	for _, field := range updatableFields {
		if v, ok := current[field]; ok {
			out[field] = v
		}
	}
	return out
}

// overlay applies the caller's partial update on top of a projected
// snapshot. Patch values win; base fields absent from the patch survive.
func overlay(base, patch map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}
