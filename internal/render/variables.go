package render

import (
	"github.com/dmitrymomot/followup/internal/domain"
	"github.com/dmitrymomot/followup/pkg/i18n"
)

// Built-in variable names.
const (
	VarClientName      = "client_name"
	VarCompany         = "company"
	VarLastInteraction = "last_interaction"
)

// NotAvailable is the last_interaction value for clients without one.
const NotAvailable = "N/A"

// BuildVariables returns the variable bag for a client. Custom fields are
// applied last and win over built-ins with the same name.
func BuildVariables(c domain.Client, format *i18n.LocaleFormat) i18n.M {
	if format == nil {
		format = i18n.NewLocaleFormat()
	}

	vars := make(i18n.M, 3+len(c.CustomFields))
	vars[VarClientName] = c.Name
	vars[VarCompany] = c.CompanyName()
	vars[VarLastInteraction] = NotAvailable
	if c.LastInteraction != nil {
		vars[VarLastInteraction] = format.FormatDate(*c.LastInteraction)
	}

	for k, v := range c.CustomFields {
		vars[k] = v
	}
	return vars
}
