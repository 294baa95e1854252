package postgres

import "fmt"

// TableNames holds environment-prefixed table names so dev/test/prod can
// share one database without colliding.
type TableNames struct {
	Folders      string
	Documents    string
	Versions     string
	Shares       string
	Tags         string
	DocumentTags string
}

// NewTableNames creates table names with the given prefix.
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Folders:      fmt.Sprintf("%sfolders", prefix),
		Documents:    fmt.Sprintf("%sdocuments", prefix),
		Versions:     fmt.Sprintf("%sdocument_versions", prefix),
		Shares:       fmt.Sprintf("%sdocument_shares", prefix),
		Tags:         fmt.Sprintf("%stags", prefix),
		DocumentTags: fmt.Sprintf("%sdocument_tags", prefix),
	}
}
