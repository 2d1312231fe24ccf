package search

// Monitor provides hooks to observe a scan.
// Implement this interface to track progress or collect unreadable records.
type Monitor interface {
	Start(total int)
	Scanned(name string)
	Unreadable(name string, err error)
	Hit(hit Hit)
	Finish(hits []Hit)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ int)                  {}
func (n *noopMonitor) Scanned(_ string)             {}
func (n *noopMonitor) Unreadable(_ string, _ error) {}
func (n *noopMonitor) Hit(_ Hit)                    {}
func (n *noopMonitor) Finish(_ []Hit)               {}
