package render

import "tools.zach/dev/dresscode/internal/employee"

// Policy lists the regions a privacy level allows.
type Policy struct {
	Identity bool
	Org      bool
	Contacts bool
	Slogan   bool
}

// policies is the disclosure table. Unknown levels fall back to Low.
var policies = map[employee.PrivacyLevel]Policy{
	employee.Low:    {Identity: true, Slogan: true},
	employee.Medium: {Identity: true, Org: true, Slogan: true},
	employee.High:   {Identity: true, Org: true, Contacts: true, Slogan: true},
}

// PolicyFor returns the regions drawn for level. The empty level is Low.
func PolicyFor(level employee.PrivacyLevel) Policy {
	if p, ok := policies[level.Effective()]; ok {
		return p
	}
	return policies[employee.Low]
}
