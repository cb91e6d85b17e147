package ask

import "github.com/poiesic/superior/core"

// Monitor provides hooks to observe the ask process.
// EnrichmentStarted and EnrichmentFinished are called from the fetchers'
// goroutines and may run concurrently with each other and with the chat call.
type Monitor interface {
	Start(req *core.AskRequest)
	AfterEmbedding(vector []float32)
	AfterRetrieval(matches []*core.Match)
	AfterContext(context string)
	EnrichmentStarted(name string)
	EnrichmentFinished(name string, data map[string]any, err error)
	AfterCompletion(answer string)
	Finish(resp *core.AskResponse, err error)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ *core.AskRequest)                               {}
func (n *noopMonitor) AfterEmbedding(_ []float32)                             {}
func (n *noopMonitor) AfterRetrieval(_ []*core.Match)                         {}
func (n *noopMonitor) AfterContext(_ string)                                  {}
func (n *noopMonitor) EnrichmentStarted(_ string)                             {}
func (n *noopMonitor) EnrichmentFinished(_ string, _ map[string]any, _ error) {}
func (n *noopMonitor) AfterCompletion(_ string)                               {}
func (n *noopMonitor) Finish(_ *core.AskResponse, _ error)                    {}
