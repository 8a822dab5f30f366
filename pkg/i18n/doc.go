// Package i18n holds the small set of localisation helpers the mail pipeline
// needs: {{name}} placeholder substitution, language tag normalisation and
// per-language date formatting.
//
// Placeholders use the {{name}} form. Unknown placeholders are left in place
// so that a misconfigured template stays visibly broken instead of silently
// dropping text:
//
//	i18n.ReplacePlaceholders("Hi {{client_name}}, see {{ghost}}", i18n.M{"client_name": "Acme"})
//	// "Hi Acme, see {{ghost}}"
//
// Language codes are normalised with golang.org/x/text/language:
//
//	i18n.NormalizeLanguage(" EN_us ") // "en-US"
//	i18n.BaseLanguage("pt-BR")        // "pt"
//
// Date formatting follows the conventions of the language's main locale:
//
//	i18n.FormatFor("de").FormatDate(t) // "15.03.2024"
package i18n
