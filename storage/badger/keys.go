package badger

import "fmt"

// Key prefixes for different data types
const (
	ledgerEntryPrefix = "docled"
)

// makeLedgerKey generates a key for a document's ledger entry.
// Format: prefix:name
func makeLedgerKey(name string) []byte {
	return []byte(fmt.Sprintf("%s:%s", ledgerEntryPrefix, name))
}

// ledgerScanPrefix is the iteration prefix for all ledger entries.
func ledgerScanPrefix() []byte {
	return []byte(ledgerEntryPrefix + ":")
}
