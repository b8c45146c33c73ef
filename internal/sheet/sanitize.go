package sheet

// SanitizeCell neutralizes spreadsheet formula injection: a value whose
// first character could start a formula gets prefixed with a literal quote.
// Only the first character matters; occurrences further in are harmless.
func SanitizeCell(value string) string {
	if value == "" {
		return value
	}

	switch value[0] {
	case '=', '+', '-', '@':
		return "'" + value
	default:
		return value
	}
}

// UnsanitizeCell reverses SanitizeCell so values read back from the sheet
// compare equal to their source. Only a quote guarding an unsafe leading
// character is stripped; a genuine user-typed leading quote stays.
func UnsanitizeCell(value string) string {
	if len(value) < 2 || value[0] != '\'' {
		return value
	}

	switch value[1] {
	case '=', '+', '-', '@':
		return value[1:]
	default:
		return value
	}
}
