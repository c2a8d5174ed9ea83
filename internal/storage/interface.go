package storage

// Store defines the contract for snapshot storage backends. The TikTok
// capture process writes live_<user>.json documents; the adapter reads them
// back through this interface regardless of where they live.
type Store interface {
	Store(filename string, data []byte) error
	Retrieve(filename string) ([]byte, error)
	List(prefix string) ([]string, error)
	Delete(filename string) error
}
