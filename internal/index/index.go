package index

// DiagramIndex defines the interface for diagram indexing operations.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing with mocks.
type DiagramIndex interface {
	Upsert(row DiagramRow, body string) error
	Delete(id string) error
	Search(query string, limit int) ([]SearchResult, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies DiagramIndex at compile time.
var _ DiagramIndex = (*DB)(nil)
