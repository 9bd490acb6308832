package domain

// CatalogueImport summarises a conversion of an external fact list into catalogue files.
type CatalogueImport struct {
	// Sections is the number of sections found in the source.
	Sections int

	// Facts is the number of facts written.
	Facts int

	// Files lists the catalogue files written.
	Files []string
}
